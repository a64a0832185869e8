package backend

import (
	"context"
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	apperrors "discord-giveaways/internal/common/errors"
	"discord-giveaways/internal/database/keypath"
)

type BoltOptions struct {
	Path   string
	Bucket string
}

// boltAdapter stores one JSON-encoded subtree per top-level key. The backing
// store has no hierarchical iteration, so a full scan walks every key and
// reassembles the tree.
type boltAdapter struct {
	db     *bolt.DB
	bucket []byte
}

func OpenBolt(opts BoltOptions) (Adapter, error) {
	if opts.Path == "" {
		return nil, apperrors.New(apperrors.ErrCodeMissingOption, "bolt backend requires a path").
			WithDetail("option", "Database.Bolt.Path")
	}
	if opts.Bucket == "" {
		opts.Bucket = "giveaways"
	}

	db, err := bolt.Open(opts.Path, 0o600, nil)
	if err != nil {
		return nil, apperrors.NewDatabaseError(apperrors.DatabaseReasonOther, err)
	}

	bucket := []byte(opts.Bucket)
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, apperrors.NewDatabaseError(apperrors.DatabaseReasonOther, err)
	}

	return &boltAdapter{db: db, bucket: bucket}, nil
}

func (a *boltAdapter) loadTop(tx *bolt.Tx, top string) (interface{}, bool, error) {
	raw := tx.Bucket(a.bucket).Get([]byte(top))
	if raw == nil {
		return nil, false, nil
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false, apperrors.NewDatabaseError(apperrors.DatabaseReasonMalformed, err).
			WithDetail("key", top)
	}
	return value, true, nil
}

func (a *boltAdapter) saveTop(tx *bolt.Tx, top string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewDatabaseError(apperrors.DatabaseReasonOther, err)
	}
	if err := tx.Bucket(a.bucket).Put([]byte(top), raw); err != nil {
		return apperrors.NewDatabaseError(apperrors.DatabaseReasonOther, err)
	}
	return nil
}

func (a *boltAdapter) Get(_ context.Context, path string) (interface{}, bool, error) {
	segments := keypath.Split(path)

	var value interface{}
	var found bool
	err := a.db.View(func(tx *bolt.Tx) error {
		top, ok, err := a.loadTop(tx, segments[0])
		if err != nil || !ok {
			return err
		}
		if len(segments) == 1 {
			value, found = top, true
			return nil
		}
		value, found = keypath.GetIn(map[string]interface{}{segments[0]: top}, segments)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

func (a *boltAdapter) Set(_ context.Context, path string, value interface{}) error {
	segments := keypath.Split(path)

	return a.db.Update(func(tx *bolt.Tx) error {
		if len(segments) == 1 {
			return a.saveTop(tx, segments[0], keypath.Normalize(value))
		}

		top, _, err := a.loadTop(tx, segments[0])
		if err != nil {
			return err
		}
		tree := map[string]interface{}{segments[0]: top}
		keypath.SetIn(tree, segments, keypath.Normalize(value))
		return a.saveTop(tx, segments[0], tree[segments[0]])
	})
}

func (a *boltAdapter) Delete(_ context.Context, path string) (bool, error) {
	segments := keypath.Split(path)

	var existed bool
	err := a.db.Update(func(tx *bolt.Tx) error {
		if len(segments) == 1 {
			existed = tx.Bucket(a.bucket).Get([]byte(segments[0])) != nil
			return tx.Bucket(a.bucket).Delete([]byte(segments[0]))
		}

		top, _, err := a.loadTop(tx, segments[0])
		if err != nil {
			return err
		}
		tree := map[string]interface{}{segments[0]: top}
		_, existed = keypath.GetIn(tree, segments)
		keypath.DeleteIn(tree, segments)
		return a.saveTop(tx, segments[0], tree[segments[0]])
	})
	if err != nil {
		return false, err
	}
	return existed, nil
}

func (a *boltAdapter) All(_ context.Context) (map[string]interface{}, error) {
	tree := make(map[string]interface{})
	err := a.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(a.bucket).ForEach(func(k, v []byte) error {
			var value interface{}
			if err := json.Unmarshal(v, &value); err != nil {
				return apperrors.NewDatabaseError(apperrors.DatabaseReasonMalformed, err).
					WithDetail("key", string(k))
			}
			tree[string(k)] = value
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

func (a *boltAdapter) Clear(_ context.Context) error {
	return a.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(a.bucket); err != nil {
			return apperrors.NewDatabaseError(apperrors.DatabaseReasonOther, err)
		}
		_, err := tx.CreateBucket(a.bucket)
		return err
	})
}

func (a *boltAdapter) Close(_ context.Context) error {
	return a.db.Close()
}

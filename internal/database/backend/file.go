package backend

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	apperrors "discord-giveaways/internal/common/errors"
	"discord-giveaways/internal/common/logger"
	"discord-giveaways/internal/database/keypath"
)

type FileOptions struct {
	Path              string
	Pretty            bool
	IntegrityCheck    bool
	IntegrityInterval time.Duration
}

// fileAdapter keeps the entire database as one JSON object on disk. Every
// mutation reads, modifies and rewrites the whole file; there are no partial
// writes, so the file is valid JSON at every point a write completes.
type fileAdapter struct {
	mu     sync.Mutex
	opts   FileOptions
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func OpenFile(opts FileOptions) (Adapter, error) {
	if opts.Path == "" {
		return nil, apperrors.New(apperrors.ErrCodeMissingOption, "file backend requires a path").
			WithDetail("option", "Database.File.Path")
	}
	if opts.IntegrityInterval <= 0 {
		opts.IntegrityInterval = 15 * time.Second
	}

	a := &fileAdapter{opts: opts}
	if err := a.ensureFile(); err != nil {
		return nil, err
	}

	if opts.IntegrityCheck {
		ctx, cancel := context.WithCancel(context.Background())
		a.cancel = cancel
		a.wg.Add(1)
		go a.integrityLoop(ctx)
	}

	return a, nil
}

// ensureFile creates the backing file with an empty object when absent.
func (a *fileAdapter) ensureFile() error {
	_, err := os.Stat(a.opts.Path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return apperrors.NewDatabaseError(apperrors.DatabaseReasonOther, err)
	}
	if err := os.WriteFile(a.opts.Path, []byte("{}"), 0o644); err != nil {
		return apperrors.NewDatabaseError(apperrors.DatabaseReasonOther, err)
	}
	return nil
}

// load reads and decodes the full tree, classifying failures by sub-reason.
func (a *fileAdapter) load() (map[string]interface{}, error) {
	raw, err := os.ReadFile(a.opts.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewDatabaseError(apperrors.DatabaseReasonNotFound, err).
				WithDetail("path", a.opts.Path)
		}
		return nil, apperrors.NewDatabaseError(apperrors.DatabaseReasonOther, err).
			WithDetail("path", a.opts.Path)
	}

	tree := make(map[string]interface{})
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, apperrors.NewDatabaseError(apperrors.DatabaseReasonMalformed, err).
			WithDetail("path", a.opts.Path)
	}
	return tree, nil
}

func (a *fileAdapter) save(tree map[string]interface{}) error {
	var raw []byte
	var err error
	if a.opts.Pretty {
		raw, err = json.MarshalIndent(tree, "", "  ")
	} else {
		raw, err = json.Marshal(tree)
	}
	if err != nil {
		return apperrors.NewDatabaseError(apperrors.DatabaseReasonOther, err)
	}
	if err := os.WriteFile(a.opts.Path, raw, 0o644); err != nil {
		return apperrors.NewDatabaseError(apperrors.DatabaseReasonOther, err)
	}
	return nil
}

func (a *fileAdapter) Get(_ context.Context, path string) (interface{}, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	tree, err := a.load()
	if err != nil {
		return nil, false, err
	}
	value, ok := keypath.GetIn(tree, keypath.Split(path))
	return value, ok, nil
}

func (a *fileAdapter) Set(_ context.Context, path string, value interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	tree, err := a.load()
	if err != nil {
		return err
	}
	keypath.SetIn(tree, keypath.Split(path), keypath.Normalize(value))
	return a.save(tree)
}

func (a *fileAdapter) Delete(_ context.Context, path string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	tree, err := a.load()
	if err != nil {
		return false, err
	}
	_, existed := keypath.GetIn(tree, keypath.Split(path))
	keypath.DeleteIn(tree, keypath.Split(path))
	if err := a.save(tree); err != nil {
		return false, err
	}
	return existed, nil
}

func (a *fileAdapter) All(_ context.Context) (map[string]interface{}, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.load()
}

func (a *fileAdapter) Clear(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.save(map[string]interface{}{})
}

func (a *fileAdapter) Close(_ context.Context) error {
	if a.cancel != nil {
		a.cancel()
		a.wg.Wait()
	}
	return nil
}

// integrityLoop periodically re-validates the backing file, recreating it when
// missing and reporting corruption without touching the damaged file.
func (a *fileAdapter) integrityLoop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.opts.IntegrityInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.mu.Lock()
			_, err := a.load()
			if err != nil && apperrors.CodeOf(err) == apperrors.ErrCodeDatabase {
				appErr, _ := apperrors.AsAppError(err)
				if appErr.Details["reason"] == apperrors.DatabaseReasonNotFound {
					logger.Warn().Str("path", a.opts.Path).Msg("database file missing, recreating")
					if werr := os.WriteFile(a.opts.Path, []byte("{}"), 0o644); werr != nil {
						logger.Error().Err(werr).Str("path", a.opts.Path).Msg("failed to recreate database file")
					}
				} else {
					logger.Error().Err(err).Str("path", a.opts.Path).Msg("database file failed integrity check")
				}
			}
			a.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

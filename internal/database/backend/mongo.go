package backend

import (
	"context"
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	apperrors "discord-giveaways/internal/common/errors"
	"discord-giveaways/internal/database/keypath"
)

type MongoOptions struct {
	URI        string
	Database   string
	Collection string
}

// mongoDocument holds one top-level subtree. The subtree is stored as a JSON
// blob so the decoded shapes match the other backends exactly.
type mongoDocument struct {
	ID    string `bson:"_id"`
	Value string `bson:"value"`
}

type mongoAdapter struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func OpenMongo(ctx context.Context, opts MongoOptions) (Adapter, error) {
	if opts.URI == "" {
		return nil, apperrors.New(apperrors.ErrCodeMissingOption, "mongo backend requires a connection URI").
			WithDetail("option", "Database.Mongo.URI")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, apperrors.NewDatabaseError(apperrors.DatabaseReasonOther, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, apperrors.NewDatabaseError(apperrors.DatabaseReasonOther, err)
	}

	return &mongoAdapter{
		client:     client,
		collection: client.Database(opts.Database).Collection(opts.Collection),
	}, nil
}

// loadTop fetches the subtree stored under the first path segment.
func (a *mongoAdapter) loadTop(ctx context.Context, top string) (interface{}, bool, error) {
	var doc mongoDocument
	err := a.collection.FindOne(ctx, bson.M{"_id": top}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.NewDatabaseError(apperrors.DatabaseReasonOther, err)
	}

	var value interface{}
	if err := json.Unmarshal([]byte(doc.Value), &value); err != nil {
		return nil, false, apperrors.NewDatabaseError(apperrors.DatabaseReasonMalformed, err).
			WithDetail("key", top)
	}
	return value, true, nil
}

func (a *mongoAdapter) saveTop(ctx context.Context, top string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewDatabaseError(apperrors.DatabaseReasonOther, err)
	}

	_, err = a.collection.ReplaceOne(ctx,
		bson.M{"_id": top},
		mongoDocument{ID: top, Value: string(raw)},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return apperrors.NewDatabaseError(apperrors.DatabaseReasonOther, err)
	}
	return nil
}

func (a *mongoAdapter) Get(ctx context.Context, path string) (interface{}, bool, error) {
	segments := keypath.Split(path)
	top, ok, err := a.loadTop(ctx, segments[0])
	if err != nil || !ok {
		return nil, false, err
	}
	if len(segments) == 1 {
		return top, true, nil
	}

	value, ok := keypath.GetIn(map[string]interface{}{segments[0]: top}, segments)
	return value, ok, nil
}

func (a *mongoAdapter) Set(ctx context.Context, path string, value interface{}) error {
	segments := keypath.Split(path)
	if len(segments) == 1 {
		return a.saveTop(ctx, segments[0], keypath.Normalize(value))
	}

	top, _, err := a.loadTop(ctx, segments[0])
	if err != nil {
		return err
	}
	tree := map[string]interface{}{segments[0]: top}
	keypath.SetIn(tree, segments, keypath.Normalize(value))
	return a.saveTop(ctx, segments[0], tree[segments[0]])
}

func (a *mongoAdapter) Delete(ctx context.Context, path string) (bool, error) {
	segments := keypath.Split(path)
	if len(segments) == 1 {
		result, err := a.collection.DeleteOne(ctx, bson.M{"_id": segments[0]})
		if err != nil {
			return false, apperrors.NewDatabaseError(apperrors.DatabaseReasonOther, err)
		}
		return result.DeletedCount > 0, nil
	}

	top, _, err := a.loadTop(ctx, segments[0])
	if err != nil {
		return false, err
	}
	tree := map[string]interface{}{segments[0]: top}
	_, existed := keypath.GetIn(tree, segments)
	keypath.DeleteIn(tree, segments)
	if err := a.saveTop(ctx, segments[0], tree[segments[0]]); err != nil {
		return false, err
	}
	return existed, nil
}

func (a *mongoAdapter) All(ctx context.Context) (map[string]interface{}, error) {
	cursor, err := a.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, apperrors.NewDatabaseError(apperrors.DatabaseReasonOther, err)
	}
	defer cursor.Close(ctx)

	tree := make(map[string]interface{})
	for cursor.Next(ctx) {
		var doc mongoDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, apperrors.NewDatabaseError(apperrors.DatabaseReasonMalformed, err)
		}
		var value interface{}
		if err := json.Unmarshal([]byte(doc.Value), &value); err != nil {
			return nil, apperrors.NewDatabaseError(apperrors.DatabaseReasonMalformed, err).
				WithDetail("key", doc.ID)
		}
		tree[doc.ID] = value
	}
	if err := cursor.Err(); err != nil {
		return nil, apperrors.NewDatabaseError(apperrors.DatabaseReasonOther, err)
	}
	return tree, nil
}

func (a *mongoAdapter) Clear(ctx context.Context) error {
	if _, err := a.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return apperrors.NewDatabaseError(apperrors.DatabaseReasonOther, err)
	}
	return nil
}

func (a *mongoAdapter) Close(ctx context.Context) error {
	return a.client.Disconnect(ctx)
}

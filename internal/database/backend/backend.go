// Package backend provides the durable storage engines behind the dotted
// key-path contract. A backend is chosen once at construction and never
// swapped at runtime.
package backend

import (
	"context"

	"discord-giveaways/internal/common/config"
	apperrors "discord-giveaways/internal/common/errors"
)

// Kind selects one of the closed set of storage engines.
type Kind string

const (
	KindFile  Kind = "file"
	KindMongo Kind = "mongo"
	KindBolt  Kind = "bolt"
)

// Adapter is the uniform contract all backends implement. Paths are dotted
// key paths; values are JSON-shaped trees (map[string]interface{},
// []interface{}, float64, string, bool, nil).
type Adapter interface {
	// Get returns the value at path; the bool reports presence.
	Get(ctx context.Context, path string) (interface{}, bool, error)
	// Set assigns value at path, creating intermediate objects as needed.
	Set(ctx context.Context, path string, value interface{}) error
	// Delete removes the value at path, reporting whether anything changed.
	Delete(ctx context.Context, path string) (bool, error)
	// All materializes the full database, used only for startup cache warm-up.
	All(ctx context.Context) (map[string]interface{}, error)
	// Clear drops every stored value.
	Clear(ctx context.Context) error
	// Close releases backend resources and stops background work.
	Close(ctx context.Context) error
}

// Open dispatches on the configured kind. This is the single dispatch point;
// no per-call branching happens after construction.
func Open(ctx context.Context, cfg *config.Config) (Adapter, error) {
	switch Kind(cfg.Database.Kind) {
	case KindFile:
		return OpenFile(FileOptions{
			Path:              cfg.Database.File.Path,
			Pretty:            cfg.Database.File.Pretty,
			IntegrityCheck:    cfg.Database.File.IntegrityCheck,
			IntegrityInterval: cfg.Database.File.IntegrityInterval,
		})
	case KindMongo:
		return OpenMongo(ctx, MongoOptions{
			URI:        cfg.Database.Mongo.URI,
			Database:   cfg.Database.Mongo.Database,
			Collection: cfg.Database.Mongo.Collection,
		})
	case KindBolt:
		return OpenBolt(BoltOptions{
			Path:   cfg.Database.Bolt.Path,
			Bucket: cfg.Database.Bolt.Bucket,
		})
	default:
		return nil, apperrors.Newf(apperrors.ErrCodeUnknownDatabaseKind,
			"unknown database kind %q", cfg.Database.Kind).
			WithDetail("kind", cfg.Database.Kind)
	}
}

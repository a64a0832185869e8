package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Discord struct {
		BotToken string `env:"BOT_TOKEN,required"`
	}

	Database struct {
		// Kind selects the persistence backend: file, mongo or bolt.
		Kind string `env:"DATABASE_KIND" envDefault:"file"`

		File struct {
			Path              string        `env:"DATABASE_FILE_PATH" envDefault:"giveaways.json"`
			Pretty            bool          `env:"DATABASE_FILE_PRETTY" envDefault:"false"`
			IntegrityCheck    bool          `env:"DATABASE_FILE_INTEGRITY_CHECK" envDefault:"true"`
			IntegrityInterval time.Duration `env:"DATABASE_FILE_INTEGRITY_INTERVAL" envDefault:"15s"`
		}

		Mongo struct {
			URI        string `env:"DATABASE_MONGO_URI" envDefault:"mongodb://localhost:27017"`
			Database   string `env:"DATABASE_MONGO_DATABASE" envDefault:"giveaways"`
			Collection string `env:"DATABASE_MONGO_COLLECTION" envDefault:"records"`
		}

		Bolt struct {
			Path   string `env:"DATABASE_BOLT_PATH" envDefault:"giveaways.db"`
			Bucket string `env:"DATABASE_BOLT_BUCKET" envDefault:"giveaways"`
		}
	}

	Giveaways struct {
		SweepInterval time.Duration `env:"GIVEAWAY_SWEEP_INTERVAL" envDefault:"1s"`
		MinEntries    int           `env:"GIVEAWAY_MIN_ENTRIES" envDefault:"1"`

		// RawDeltas makes extend/reduce shift the deadline by the full parsed
		// duration instead of the legacy half.
		RawDeltas bool `env:"GIVEAWAY_RAW_DELTAS" envDefault:"false"`

		// KeepUnresolvable disables the cleanup that deletes giveaways whose
		// guild, host or channel can no longer be resolved.
		KeepUnresolvable bool `env:"GIVEAWAY_KEEP_UNRESOLVABLE" envDefault:"false"`
	}

	UpdateCheck bool `env:"UPDATE_CHECK" envDefault:"true"`
}

func Load() (*Config, error) {
	// Missing .env is fine; production sets variables directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

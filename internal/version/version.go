package version

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"discord-giveaways/internal/common/logger"
)

// Version is the library version, bumped on release.
const Version = "1.0.0"

const releasesURL = "https://api.github.com/repos/discord-giveaways/discord-giveaways-go/releases/latest"

type release struct {
	TagName string `json:"tag_name"`
}

// CheckForUpdates fetches the latest published release tag and logs when a
// newer version exists. Failures are logged at debug level and never block
// startup.
func CheckForUpdates(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releasesURL, nil)
	if err != nil {
		logger.Debug().Err(err).Msg("update check skipped")
		return
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.Debug().Err(err).Msg("update check failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Debug().Int("status", resp.StatusCode).Msg("update check failed")
		return
	}

	var latest release
	if err := json.NewDecoder(resp.Body).Decode(&latest); err != nil {
		logger.Debug().Err(err).Msg("update check failed")
		return
	}

	tag := latest.TagName
	if len(tag) > 0 && tag[0] == 'v' {
		tag = tag[1:]
	}
	if tag != "" && tag != Version {
		logger.Warn().Str("current", Version).Str("latest", tag).Msg("a newer version is available")
	}
}

package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "discord-giveaways/internal/common/errors"
)

func openTestFile(t *testing.T, path string) Adapter {
	t.Helper()
	adapter, err := OpenFile(FileOptions{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = adapter.Close(context.Background())
	})
	return adapter
}

func TestOpenFileCreatesEmptyDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	adapter := openTestFile(t, path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(raw))

	all, err := adapter.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOpenFileRequiresPath(t *testing.T) {
	_, err := OpenFile(FileOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMissingOption))
}

func TestFileSetGetDelete(t *testing.T) {
	adapter := openTestFile(t, filepath.Join(t.TempDir(), "db.json"))
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "guild1.settings.locale", "en"))

	value, ok, err := adapter.Get(ctx, "guild1.settings.locale")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "en", value)

	_, ok, err = adapter.Get(ctx, "guild1.settings.missing")
	require.NoError(t, err)
	assert.False(t, ok)

	existed, err := adapter.Delete(ctx, "guild1.settings.locale")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = adapter.Delete(ctx, "guild1.settings.locale")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestFileSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	ctx := context.Background()

	first := openTestFile(t, path)
	require.NoError(t, first.Set(ctx, "guild1.giveaways", []interface{}{"x"}))
	require.NoError(t, first.Close(ctx))

	second := openTestFile(t, path)
	value, ok, err := second.Get(ctx, "guild1.giveaways")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []interface{}{"x"}, value)
}

func TestFileMalformedClassification(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	adapter := openTestFile(t, path)
	_, err := adapter.All(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabase))

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.DatabaseReasonMalformed, appErr.Details["reason"])
}

func TestFileClear(t *testing.T) {
	adapter := openTestFile(t, filepath.Join(t.TempDir(), "db.json"))
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "guild1.x", float64(1)))
	require.NoError(t, adapter.Clear(ctx))

	all, err := adapter.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

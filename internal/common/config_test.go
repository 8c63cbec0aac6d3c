package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Std())

	assert.Error(t, d.UnmarshalText([]byte("soon")))
}

func TestLoadFromFiles_DurationStrings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[search]
request_timeout = "45s"
backoff_initial = "2m"

[cache]
max_age = "12h"

[fetcher]
timeout = "8s"
`), 0o644))

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, config.Search.RequestTimeout.Std())
	assert.Equal(t, 2*time.Minute, config.Search.BackoffInitial.Std())
	assert.Equal(t, 12*time.Hour, config.Cache.MaxAge.Std())
	assert.Equal(t, 8*time.Second, config.Fetcher.Timeout.Std())
	// Fields the file omits keep their defaults.
	assert.Equal(t, 300*time.Second, config.Search.BackoffMax.Std())
}

// The sample config at the repository root must stay loadable.
func TestLoadFromFiles_ShippedConfig(t *testing.T) {
	config, err := LoadFromFiles("../../factwatch.toml")
	require.NoError(t, err)

	assert.Equal(t, "./watchlist.csv", config.Watchlist.Path)
	assert.Equal(t, 30*time.Second, config.Search.RequestTimeout.Std())
	assert.Equal(t, 60*time.Second, config.Search.BackoffInitial.Std())
	assert.Equal(t, 300*time.Second, config.Search.BackoffMax.Std())
	assert.Equal(t, 24*time.Hour, config.Cache.MaxAge.Std())
	assert.Equal(t, 10*time.Second, config.Fetcher.Timeout.Std())
	assert.Equal(t, "0 7 * * *", config.Schedule.Cron)
}

func TestLoadFromFiles_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[fetcher]
timeout = "ten seconds"
`), 0o644))

	_, err := LoadFromFiles(path)
	assert.Error(t, err)
}

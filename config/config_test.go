package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("SITEBOOK_DB_DSN", "postgres://localhost/sitebook")
	t.Setenv("SITEBOOK_HTTP_ADDR", ":9090")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/sitebook", c.DB.DSN)
	assert.Equal(t, ":9090", c.HTTP.Addr)
	assert.Equal(t, "local", c.Blob.Driver)
	assert.Equal(t, 5, c.Blob.MaxFiles)
	assert.Equal(t, 50, c.Notify.FeedSize)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitebook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  timezone: UTC
db:
  dsn: postgres://db/sitebook
blob:
  driver: gcs
  bucket: site-photos
telegram:
  chat_id: -100123
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://db/sitebook", c.DB.DSN)
	assert.Equal(t, "gcs", c.Blob.Driver)
	assert.Equal(t, "site-photos", c.Blob.Bucket)
	assert.Equal(t, int64(-100123), c.Telegram.ChatID)
	assert.Equal(t, time.UTC, c.Location())
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("SITEBOOK_DB_DSN", "postgres://localhost/sitebook")

	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/sitebook", c.DB.DSN)
	assert.Equal(t, "local", c.Blob.Driver)
}

func TestLoadMalformedFile(t *testing.T) {
	t.Setenv("SITEBOOK_DB_DSN", "postgres://localhost/sitebook")
	path := filepath.Join(t.TempDir(), "sitebook.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db: [unclosed\n"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "read config")
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("SITEBOOK_DB_DSN", "")
	_, err := Load("")
	assert.ErrorContains(t, err, "db.dsn")
}

func TestLocationFallback(t *testing.T) {
	var c Config
	c.App.Timezone = "Mars/Olympus"
	assert.Equal(t, time.UTC, c.Location())
}

package blob

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p9e.in/sitebook/config"
)

func TestKey(t *testing.T) {
	now := time.UnixMilli(1709625600000)
	tests := []struct {
		folder, filename string
		pattern          string
	}{
		{"material-requests", "photo.JPG", `^material-requests/1709625600000-[0-9a-f]{10}\.jpg$`},
		{"progress", "scan", `^progress/1709625600000-[0-9a-f]{10}\.bin$`},
		{"", "a.png", `^1709625600000-[0-9a-f]{10}\.png$`},
		{"../../etc", "a.png", `^etc/1709625600000-[0-9a-f]{10}\.png$`},
	}
	for _, tt := range tests {
		t.Run(tt.folder+"/"+tt.filename, func(t *testing.T) {
			assert.Regexp(t, regexp.MustCompile(tt.pattern), Key(tt.folder, tt.filename, now))
		})
	}
	assert.NotEqual(t, Key("f", "a.png", now), Key("f", "a.png", now))
}

func TestLocalStorePut(t *testing.T) {
	dir := t.TempDir()
	s, err := New(context.Background(), config.BlobConfig{Driver: "local", Dir: dir, BaseURL: "/uploads/"})
	require.NoError(t, err)
	assert.Equal(t, "local", s.Driver())

	url, err := s.Put(context.Background(), "progress/../x/1-abc.png", strings.NewReader("img"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/x/1-abc.png", url)

	b, err := os.ReadFile(filepath.Join(dir, "x", "1-abc.png"))
	require.NoError(t, err)
	assert.Equal(t, "img", string(b))
}

func TestNewUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.BlobConfig{Driver: "s3"})
	assert.Error(t, err)
}

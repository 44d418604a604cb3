package config

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/chrisuehlinger/canvashim/network"
	"github.com/chrisuehlinger/canvashim/render"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
	assert.Equal(t, DefaultRunTimeout, cfg.Run.Timeout)
	assert.Equal(t, network.DefaultUserAgent, cfg.Loader.UserAgent)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
log_level: debug
loader:
  base_url: https://example.com/assets/
  timeout: 5s
  cache_size: 8
fonts:
  - family: Fancy
    weight: 700
    path: fonts/fancy.ttf
output:
  dir: out
run:
  timeout: 1m
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://example.com/assets/", cfg.Loader.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Loader.Timeout)
	assert.Equal(t, 8, cfg.Loader.CacheSize)
	assert.Equal(t, DefaultRedirects, cfg.Loader.MaxRedirects, "unset keys keep their defaults")
	assert.Equal(t, []FontConfig{{Family: "Fancy", Weight: 700, Path: "fonts/fancy.ttf"}}, cfg.Fonts)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "canvas", cfg.Output.Prefix)
	assert.Equal(t, time.Minute, cfg.Run.Timeout)
}

func TestParseEmptyInput(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown key":   "colour: red\n",
		"bad level":     "log_level: loud\n",
		"bad timeout":   "run:\n  timeout: -1s\n",
		"font no path":  "fonts:\n  - family: x\n",
		"font weight":   "fonts:\n  - family: x\n    path: a.ttf\n    weight: 5000\n",
		"bad redirects": "loader:\n  max_redirects: -2\n",
		"bad body size": "loader:\n  max_body_size: -1\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvashim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewLoaderReadsLocalPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))

	cfg := Default()
	cfg.Loader.LocalPath = dir
	loader, err := cfg.NewLoader()
	require.NoError(t, err)

	res := loader.Load(context.Background(), "a.txt", network.ResourceTypeUnknown)
	require.NoError(t, res.Err())
	assert.Equal(t, "hello", string(res.Content))
}

func TestNewLoaderLimitsBodySize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0123456789"))
	}))
	defer server.Close()

	cfg, err := Parse(strings.NewReader("loader:\n  max_body_size: 4\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), cfg.Loader.MaxBodySize)
	loader, err := cfg.NewLoader()
	require.NoError(t, err)

	res := loader.Load(context.Background(), server.URL+"/big", network.ResourceTypeUnknown)
	assert.ErrorIs(t, res.Err(), network.ErrBodyTooLarge)
}

func TestNewFontBookRegistersFonts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mono.ttf"), gomono.TTF, 0o644))

	cfg := Default()
	cfg.Fonts = []FontConfig{{Family: "Typewriter", Path: "mono.ttf"}}
	loader := network.NewLoader(nil, network.WithLocalPath(dir))

	fb, err := cfg.NewFontBook(context.Background(), loader)
	require.NoError(t, err)
	assert.True(t, fb.Has("typewriter"))

	engine := render.NewEngine(render.WithFontBook(fb))
	font := engine.MatchFont(render.FontStyle{Family: "Typewriter", Size: 12})
	defer font.Release()
	assert.Equal(t, font.MeasureText("iii"), font.MeasureText("WWW"))
}

func TestNewFontBookMissingFont(t *testing.T) {
	cfg := Default()
	cfg.Fonts = []FontConfig{{Family: "Ghost", Path: "nope.ttf"}}
	loader := network.NewLoader(nil, network.WithLocalPath(t.TempDir()))

	_, err := cfg.NewFontBook(context.Background(), loader)
	assert.Error(t, err)
}

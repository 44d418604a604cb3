// Package config loads the canvashim runner configuration from YAML.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chrisuehlinger/canvashim/network"
	"github.com/chrisuehlinger/canvashim/render"
)

// Defaults applied before a file is decoded.
const (
	DefaultLogLevel   = "info"
	DefaultTimeout    = 30 * time.Second
	DefaultCacheSize  = 256
	DefaultRedirects  = 10
	DefaultOutputDir  = "."
	DefaultRunTimeout = 10 * time.Second
)

// Config is the runner configuration.
type Config struct {
	LogLevel string       `yaml:"log_level"`
	Loader   LoaderConfig `yaml:"loader"`
	Fonts    []FontConfig `yaml:"fonts"`
	Output   OutputConfig `yaml:"output"`
	Run      RunConfig    `yaml:"run"`
}

// LoaderConfig controls how image, script and font sources are fetched.
type LoaderConfig struct {
	BaseURL      string        `yaml:"base_url"`
	LocalPath    string        `yaml:"local_path"`
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxRedirects int           `yaml:"max_redirects"`
	MaxBodySize  int64         `yaml:"max_body_size"`
	CacheSize    int           `yaml:"cache_size"`
}

// FontConfig registers an extra font file under a family name. Path is a
// local path or any URL the loader accepts.
type FontConfig struct {
	Family string `yaml:"family"`
	Weight int    `yaml:"weight"`
	Path   string `yaml:"path"`
}

// OutputConfig controls where canvases are written.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
}

// RunConfig bounds script execution.
type RunConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Loader: LoaderConfig{
			Timeout:      DefaultTimeout,
			UserAgent:    network.DefaultUserAgent,
			MaxRedirects: DefaultRedirects,
			CacheSize:    DefaultCacheSize,
		},
		Output: OutputConfig{
			Dir:    DefaultOutputDir,
			Prefix: "canvas",
		},
		Run: RunConfig{Timeout: DefaultRunTimeout},
	}
}

// Load reads the YAML file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML from r over the defaults. Unknown keys are errors.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Loader.Timeout < 0 {
		return fmt.Errorf("loader.timeout must not be negative, got %v", c.Loader.Timeout)
	}
	if c.Loader.MaxRedirects < 0 {
		return fmt.Errorf("loader.max_redirects must not be negative, got %d", c.Loader.MaxRedirects)
	}
	if c.Loader.MaxBodySize < 0 {
		return fmt.Errorf("loader.max_body_size must not be negative, got %d", c.Loader.MaxBodySize)
	}
	if c.Run.Timeout < 0 {
		return fmt.Errorf("run.timeout must not be negative, got %v", c.Run.Timeout)
	}
	for i, f := range c.Fonts {
		if strings.TrimSpace(f.Family) == "" || f.Path == "" {
			return fmt.Errorf("fonts[%d]: family and path are required", i)
		}
		if f.Weight != 0 && (f.Weight < 1 || f.Weight > 1000) {
			return fmt.Errorf("fonts[%d]: weight %d out of range", i, f.Weight)
		}
	}
	return nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// NewLoader builds the loader described by the loader section.
func (c *Config) NewLoader() (*network.Loader, error) {
	lc := c.Loader
	clientOpts := []network.ClientOption{
		network.WithTimeout(lc.Timeout),
		network.WithUserAgent(lc.UserAgent),
		network.WithMaxRedirects(lc.MaxRedirects),
	}
	if lc.MaxBodySize > 0 {
		clientOpts = append(clientOpts, network.WithMaxBodySize(lc.MaxBodySize))
	}
	client, err := network.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("config: http client: %w", err)
	}

	var opts []network.LoaderOption
	if lc.CacheSize > 0 {
		opts = append(opts, network.WithCache(network.NewCache(lc.CacheSize)))
	}
	if lc.LocalPath != "" {
		opts = append(opts, network.WithLocalPath(lc.LocalPath))
	}
	if lc.BaseURL != "" {
		opts = append(opts, network.WithBaseURL(lc.BaseURL))
	}
	return network.NewLoader(client, opts...), nil
}

// NewFontBook returns the built-in font book with every configured font
// fetched through loader and registered.
func (c *Config) NewFontBook(ctx context.Context, loader *network.Loader) (*render.FontBook, error) {
	fb := render.NewFontBook()
	for _, f := range c.Fonts {
		res := loader.LoadFont(ctx, f.Path)
		if err := res.Err(); err != nil {
			return nil, fmt.Errorf("config: font %q: %w", f.Family, err)
		}
		weight := render.WeightNormal
		if f.Weight != 0 {
			weight = render.Weight(f.Weight)
		}
		if err := fb.Register(f.Family, weight, res.Content); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		slog.Debug("config: registered font", "family", f.Family, "weight", int(weight), "path", f.Path)
	}
	return fb, nil
}

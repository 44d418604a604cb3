// Command canvashim runs a script against the canvas shim and writes every
// canvas it draws as a PNG.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2/app"

	"github.com/chrisuehlinger/canvashim/canvas"
	"github.com/chrisuehlinger/canvashim/config"
	"github.com/chrisuehlinger/canvashim/js"
	"github.com/chrisuehlinger/canvashim/network"
	"github.com/chrisuehlinger/canvashim/render"
	"github.com/chrisuehlinger/canvashim/ui"
)

type options struct {
	configPath string
	outDir     string
	logLevel   string
	preview    bool
	timeout    string
	script     string
}

func main() {
	frames, opts, err := run(context.Background(), os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "canvashim:", err)
		os.Exit(1)
	}
	if opts.preview {
		ui.NewPreview(app.New(), "canvashim - "+filepath.Base(opts.script), frames).Run()
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("canvashim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&opts.outDir, "out", "", "directory PNGs are written to (overrides output.dir)")
	fs.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (overrides log_level)")
	fs.StringVar(&opts.timeout, "timeout", "", "how long timers and image loads may run, e.g. 5s (overrides run.timeout)")
	fs.BoolVar(&opts.preview, "preview", false, "show the canvases in a window when done")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: canvashim [flags] script.js")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, fmt.Errorf("expected one script, got %d arguments", fs.NArg())
	}
	opts.script = fs.Arg(0)
	return opts, nil
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	}
	if opts.outDir != "" {
		cfg.Output.Dir = opts.outDir
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.timeout != "" {
		d, err := time.ParseDuration(opts.timeout)
		if err != nil {
			return nil, fmt.Errorf("-timeout: %w", err)
		}
		cfg.Run.Timeout = d
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run executes the script and writes the canvases. It returns the rendered
// frames so main can show them.
func run(ctx context.Context, args []string, stderr io.Writer) ([]ui.Frame, *options, error) {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, opts, err
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	canvas.SetLogger(logger)

	loader, err := cfg.NewLoader()
	if err != nil {
		return nil, opts, err
	}
	fonts, err := cfg.NewFontBook(ctx, loader)
	if err != nil {
		return nil, opts, err
	}

	runCtx := ctx
	if cfg.Run.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Run.Timeout)
		defer cancel()
	}

	env := canvas.NewEnv(
		canvas.WithEngine(render.NewEngine(render.WithFontBook(fonts))),
		canvas.WithLoader(loader),
		canvas.WithContext(runCtx),
	)
	defer env.Close()

	code, err := loadScript(ctx, loader, opts.script)
	if err != nil {
		return nil, opts, fmt.Errorf("load script: %w", err)
	}
	resolveNextToScript(loader, cfg.Loader, opts.script)

	rt := js.NewRuntime(env, js.WithLogger(logger))
	if err := rt.ExecuteScript(code, opts.script); err != nil {
		return nil, opts, err
	}
	if err := rt.Run(runCtx); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			return nil, opts, err
		}
		logger.Warn("run timeout reached, writing canvases as drawn so far", "timeout", cfg.Run.Timeout)
	}
	if errs := rt.Errors(); len(errs) > 0 {
		logger.Warn("script reported errors", "count", len(errs))
	}

	frames, err := writeCanvases(env.Canvases(), cfg.Output, logger)
	return frames, opts, err
}

// loadScript reads a plain path from disk and fetches anything that looks
// like a URL through the loader.
func loadScript(ctx context.Context, loader *network.Loader, src string) (string, error) {
	if !network.IsAbsoluteURL(src) {
		data, err := os.ReadFile(src)
		return string(data), err
	}
	res := loader.LoadScript(ctx, src)
	if err := res.Err(); err != nil {
		return "", err
	}
	return string(res.Content), nil
}

// resolveNextToScript makes relative image and font sources resolve against
// the script's location unless the config already says where they live.
func resolveNextToScript(loader *network.Loader, lc config.LoaderConfig, src string) {
	switch {
	case network.IsHTTPURL(src):
		if lc.BaseURL == "" {
			loader.SetBaseURL(src)
		}
	case !network.IsAbsoluteURL(src):
		if lc.LocalPath == "" {
			loader.SetLocalPath(filepath.Dir(src))
		}
	}
}

func writeCanvases(canvases []*canvas.OffscreenCanvas, out config.OutputConfig, logger *slog.Logger) ([]ui.Frame, error) {
	if err := os.MkdirAll(out.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}
	frames := make([]ui.Frame, 0, len(canvases))
	for i, c := range canvases {
		name := fmt.Sprintf("%s-%d", out.Prefix, i)
		path := filepath.Join(out.Dir, name+".png")
		if err := writePNG(c, path); err != nil {
			return nil, err
		}
		img, err := c.ToImage()
		if err != nil {
			return nil, err
		}
		frames = append(frames, ui.Frame{Name: name, Image: img})
		logger.Info("wrote canvas", "path", path, "width", c.Width(), "height", c.Height())
	}
	if len(canvases) == 0 {
		logger.Info("script created no canvases")
	}
	return frames, nil
}

func writePNG(c *canvas.OffscreenCanvas, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return c.EncodePNG(f)
}

// Command homonym corrects homophone errors in Chinese text.
//
// By default it reads text from stdin line by line and writes the corrected
// lines to stdout. With -serve it runs the HTTP service instead and reloads
// the configuration file when it changes.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/MrWong99/homonym/internal/app"
	"github.com/MrWong99/homonym/internal/config"
	"github.com/MrWong99/homonym/internal/observe"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "homonym.yaml", "path to the YAML configuration file")
	serve := flag.Bool("serve", false, "run the HTTP service instead of filtering stdin")
	batchSize := flag.Int("batch", 64, "lines corrected concurrently in filter mode")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "homonym: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "homonym: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	level := new(slog.LevelVar)
	level.Set(app.SlogLevel(cfg.Server.LogLevel))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := initTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(tctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	application, err := app.New(ctx, cfg, app.WithLogLevel(level))
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	if *serve {
		return runServer(ctx, application, *configPath)
	}
	code := runFilter(ctx, application, os.Stdin, os.Stdout, *batchSize)
	if err := application.Shutdown(context.Background()); err != nil {
		slog.Warn("shutdown error", "err", err)
	}
	return code
}

// initTelemetry installs the OTel providers described by tc. Spans exported
// to a file are appended to tc.TracePath.
func initTelemetry(ctx context.Context, tc config.TelemetryConfig) (func(context.Context) error, error) {
	pc := observe.ProviderConfig{
		ServiceName:    tc.ServiceName,
		ServiceVersion: tc.ServiceVersion,
		TraceExporter:  tc.TraceExporter,
		SampleRatio:    tc.SampleRatio,
	}
	if pc.ServiceVersion == "" {
		pc.ServiceVersion = buildVersion()
	}

	var traceFile *os.File
	if tc.TracePath != "" && tc.TraceExporter == observe.TracesStdout {
		f, err := os.OpenFile(tc.TracePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		traceFile = f
		pc.TraceOutput = f
	}

	shutdown, err := observe.InitProvider(ctx, pc)
	if err != nil {
		if traceFile != nil {
			traceFile.Close()
		}
		return nil, err
	}
	if traceFile == nil {
		return shutdown, nil
	}
	return func(ctx context.Context) error {
		return errors.Join(shutdown(ctx), traceFile.Close())
	}, nil
}

// buildVersion is the main module version stamped by the go tool, or "".
func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "(devel)" {
		return ""
	}
	return info.Main.Version
}

// runServer serves HTTP until a signal arrives, hot-applying config changes.
func runServer(ctx context.Context, application *app.App, configPath string) int {
	watcher, err := config.NewWatcher(configPath,
		func(_, next *config.Config) {
			if err := application.ApplyConfig(ctx, next); err != nil {
				slog.Error("failed to apply reloaded config", "err", err)
			}
		},
		config.WithTermsChange(func(path string) {
			if err := application.Rebuild(ctx); err != nil {
				slog.Error("failed to rebuild after term file change", "path", path, "err", err)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to watch config", "err", err)
		return 1
	}
	defer watcher.Stop()

	slog.Info("homonym starting",
		"config", configPath,
		"listen_addr", application.Config().Server.ListenAddr,
		"log_level", application.Config().Server.LogLevel,
	)

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// runFilter corrects r line by line into w, batchSize lines at a time.
func runFilter(ctx context.Context, application *app.App, r io.Reader, w io.Writer, batchSize int) int {
	if batchSize < 1 {
		batchSize = 1
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	out := bufio.NewWriter(w)
	defer out.Flush()

	batch := make([]string, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		results, err := application.Reviser().CorrectAll(ctx, batch)
		if err != nil {
			return err
		}
		for _, res := range results {
			for _, c := range res.Corrections {
				slog.Debug("corrected", "original", c.Original, "corrected", c.Corrected, "distance", c.Distance)
			}
			if _, err := fmt.Fprintln(out, res.Corrected); err != nil {
				return err
			}
		}
		batch = batch[:0]
		return nil
	}

	for sc.Scan() {
		batch = append(batch, sc.Text())
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				slog.Error("correction failed", "err", err)
				return 1
			}
		}
	}
	if err := sc.Err(); err != nil {
		slog.Error("read input", "err", err)
		return 1
	}
	if err := flush(); err != nil {
		slog.Error("correction failed", "err", err)
		return 1
	}
	return 0
}

// Package app owns the lifetime of the correction service: it loads the term
// table, compiles the reviser, serves HTTP, and swaps in a freshly compiled
// reviser when the configuration changes.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrWong99/homonym/internal/config"
	"github.com/MrWong99/homonym/internal/dictionary"
	"github.com/MrWong99/homonym/internal/health"
	"github.com/MrWong99/homonym/internal/observe"
	"github.com/MrWong99/homonym/internal/server"
	"github.com/MrWong99/homonym/internal/termstore"
	"github.com/MrWong99/homonym/internal/transcript"
	"github.com/MrWong99/homonym/pkg/reading"
	"github.com/MrWong99/homonym/pkg/reading/pinyin"
)

// Reload statuses reported to [observe.Metrics.RecordReload].
const (
	reloadOK    = "ok"
	reloadError = "error"
)

// App owns all subsystem lifetimes.
type App struct {
	cfg      atomic.Pointer[config.Config]
	reviser  atomic.Pointer[transcript.Reviser]
	readings reading.Provider
	metrics  *observe.Metrics
	level    *slog.LevelVar
	log      *slog.Logger

	// storeMu guards the term store, which is replaced when the configured
	// sources change.
	storeMu      sync.Mutex
	store        termstore.Store
	storeClose   func()
	storeFixed   bool
	openPostgres func(ctx context.Context, dsn string) (termstore.Store, func(), error)

	// rebuildMu serialises reviser compilation.
	rebuildMu sync.Mutex

	srvMu      sync.Mutex
	httpServer *http.Server
	listener   net.Listener

	// closers are called in order during Shutdown.
	closers  []func() error
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a term store instead of building one from config. An
// injected store is kept across reloads.
func WithStore(s termstore.Store) Option {
	return func(a *App) {
		a.store = s
		a.storeFixed = true
	}
}

// WithReadings injects the reading provider. Default: go-pinyin.
func WithReadings(p reading.Provider) Option {
	return func(a *App) { a.readings = p }
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithLogLevel lets the app adjust the given level when server.log_level is
// reloaded.
func WithLogLevel(v *slog.LevelVar) Option {
	return func(a *App) { a.level = v }
}

// WithLogger sets the logger passed to the reviser and the HTTP server.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.log = l
		}
	}
}

// New creates an App and compiles the first reviser. New fails if the term
// store cannot be opened or read.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{
		log:          slog.Default(),
		openPostgres: openPostgres,
	}
	for _, o := range opts {
		o(a)
	}
	if a.readings == nil {
		a.readings = pinyin.New()
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	a.cfg.Store(cfg)

	if !a.storeFixed {
		if err := a.replaceStore(ctx, cfg); err != nil {
			return nil, fmt.Errorf("app: init term store: %w", err)
		}
	}
	a.closers = append(a.closers, func() error {
		a.storeMu.Lock()
		defer a.storeMu.Unlock()
		if a.storeClose != nil {
			a.storeClose()
		}
		return nil
	})

	if err := a.Rebuild(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// openPostgres adapts [termstore.Open] to the store factory signature.
func openPostgres(ctx context.Context, dsn string) (termstore.Store, func(), error) {
	s, err := termstore.Open(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

// replaceStore builds the term store described by cfg and closes the
// previous one.
func (a *App) replaceStore(ctx context.Context, cfg *config.Config) error {
	var (
		chain   termstore.Chain
		closeFn func()
	)
	if len(cfg.Dictionary.Terms) > 0 {
		chain = append(chain, termstore.FromMap(cfg.Dictionary.Terms))
	}
	if cfg.Dictionary.Path != "" {
		chain = append(chain, termstore.NewFileStore(cfg.Dictionary.Path))
	}
	if cfg.Dictionary.PostgresDSN != "" {
		pg, closePG, err := a.openPostgres(ctx, cfg.Dictionary.PostgresDSN)
		if err != nil {
			return err
		}
		chain = append(chain, pg)
		closeFn = closePG
	}

	a.storeMu.Lock()
	prev := a.storeClose
	a.store = chain
	a.storeClose = closeFn
	a.storeMu.Unlock()
	if prev != nil {
		prev()
	}
	return nil
}

// Reviser returns the current reviser.
func (a *App) Reviser() *transcript.Reviser { return a.reviser.Load() }

// Corrector returns the current reviser as a [transcript.Corrector], or nil
// when none has been compiled.
func (a *App) Corrector() transcript.Corrector {
	if r := a.reviser.Load(); r != nil {
		return r
	}
	return nil
}

// Config returns the configuration in effect. A reloaded configuration takes
// effect only once the reviser it requires has been compiled.
func (a *App) Config() *config.Config { return a.cfg.Load() }

// Rebuild reloads the term table and atomically replaces the reviser. On
// failure the previous reviser stays in service.
func (a *App) Rebuild(ctx context.Context) error {
	return a.rebuild(ctx, nil)
}

// rebuild compiles a reviser for next, or for the configuration in effect
// when next is nil, and on success makes both current together.
func (a *App) rebuild(ctx context.Context, next *config.Config) error {
	a.rebuildMu.Lock()
	defer a.rebuildMu.Unlock()

	ctx, span := observe.StartSpan(ctx, "app.Rebuild")
	defer span.End()

	if next == nil {
		next = a.cfg.Load()
	}
	r, err := a.compile(ctx, next.Corrector)
	if err != nil {
		a.metrics.RecordReload(ctx, reloadError)
		return observe.Fail(span, fmt.Errorf("app: rebuild reviser: %w", err))
	}
	a.reviser.Store(r)
	a.cfg.Store(next)
	a.metrics.RecordReload(ctx, reloadOK)

	d := r.Dictionary()
	observe.LoggerWith(ctx, a.log).Info("dictionary compiled",
		"keys", d.Len(),
		"collisions", len(d.Collisions()),
		"skipped", len(d.Skipped()),
	)
	return nil
}

func (a *App) compile(ctx context.Context, cc config.CorrectorConfig) (*transcript.Reviser, error) {
	a.storeMu.Lock()
	store := a.store
	a.storeMu.Unlock()

	var terms []dictionary.Term
	if store != nil {
		var err error
		if terms, err = store.Terms(ctx); err != nil {
			return nil, err
		}
	}

	return transcript.New(terms, cc.FuzzyEnabled(), a.readings,
		transcript.WithMaxEditDistance(cc.MaxEditDistance),
		transcript.WithWorkers(cc.Workers),
		transcript.WithLogger(a.log),
		transcript.WithMetrics(a.metrics),
	)
}

// ApplyConfig hot-applies a reloaded configuration. Changes are computed
// against the configuration in effect, so a change whose rebuild failed is
// retried by the next reload. The log level applies immediately; everything
// else applies only if the rebuild it requires succeeds.
func (a *App) ApplyConfig(ctx context.Context, next *config.Config) error {
	cur := a.cfg.Load()
	d := config.Diff(cur, next)

	if d.LogLevelChanged && a.level != nil {
		a.level.Set(SlogLevel(d.NewLogLevel))
		a.log.Info("log level changed", "level", d.NewLogLevel)
	}
	if !d.RebuildRequired() {
		a.cfg.Store(next)
		return nil
	}

	var err error
	if d.DictionaryChanged && !a.storeFixed {
		if err = a.replaceStore(ctx, next); err != nil {
			a.metrics.RecordReload(ctx, reloadError)
			err = fmt.Errorf("app: replace term store: %w", err)
		}
	}
	if err == nil {
		err = a.rebuild(ctx, next)
	}
	if err != nil && d.LogLevelChanged {
		kept := *cur
		kept.Server.LogLevel = next.Server.LogLevel
		a.cfg.CompareAndSwap(cur, &kept)
	}
	return err
}

// Handler returns the HTTP handler serving the current reviser.
func (a *App) Handler() http.Handler {
	checks := health.New([]health.Checker{
		health.Loaded("dictionary", func() int {
			if r := a.reviser.Load(); r != nil {
				return r.Dictionary().Len()
			}
			return 0
		}),
	})
	return server.New(a.Corrector,
		server.WithMetrics(a.metrics),
		server.WithHealth(checks),
		server.WithLogger(a.log),
	).Handler()
}

// Run serves HTTP on server.listen_addr and blocks until ctx is cancelled or
// the server fails. It returns ctx.Err() after a cancellation.
func (a *App) Run(ctx context.Context) error {
	cfg := a.cfg.Load()
	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("app: listen %q: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	a.srvMu.Lock()
	a.listener = ln
	a.httpServer = srv
	a.srvMu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		var err error
		if tls := cfg.Server.TLS; tls != nil {
			err = srv.ServeTLS(ln, tls.CertFile, tls.KeyFile)
		} else {
			err = srv.Serve(ln)
		}
		errCh <- err
	}()
	a.log.Info("http server listening", "addr", ln.Addr().String(), "tls", cfg.Server.TLS != nil)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	}
}

// Addr returns the address the HTTP server listens on, or "" before Run.
func (a *App) Addr() string {
	a.srvMu.Lock()
	defer a.srvMu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Shutdown stops the HTTP server and then runs the remaining closers in
// order. It respects the context deadline: if ctx expires before all closers
// finish, remaining closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		a.log.Info("shutting down", "closers", len(a.closers))

		a.srvMu.Lock()
		srv := a.httpServer
		a.srvMu.Unlock()
		if srv != nil {
			if err := srv.Shutdown(ctx); err != nil {
				a.log.Warn("http shutdown error", "err", err)
				shutdownErr = err
			}
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				a.log.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				a.log.Warn("closer error", "index", i, "err", err)
			}
		}

		a.log.Info("shutdown complete")
	})
	return shutdownErr
}

// SlogLevel maps a configured log level to its slog level. Unknown and empty
// levels map to info.
func SlogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package config

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls the configuration file and the term file its
// dictionary.path names.
//
// A changed configuration that still validates is handed to the config
// callback. A changed term file is handed to the terms callback (see
// [WithTermsChange]) without being parsed. When a reload points
// dictionary.path somewhere else, the watcher follows the new file and only
// the config callback fires for the switch.
//
// Files are compared by content hash, so rewriting a file with identical
// bytes triggers nothing. A file that disappears is reported once and
// retried on every poll.
type Watcher struct {
	path     string
	interval time.Duration
	onConfig func(old, next *Config)
	onTerms  func(path string)
	log      *slog.Logger

	mu      sync.Mutex
	current *Config

	// Owned by the polling goroutine once NewWatcher returns.
	cfgFile  fileState
	termPath string
	termFile fileState

	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithWatchLogger sets the logger for reload and failure records. The
// default is [slog.Default].
func WithWatchLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// WithTermsChange registers fn to run, with the file's path, whenever the
// content of the term file named by dictionary.path changes.
func WithTermsChange(fn func(path string)) WatcherOption {
	return func(w *Watcher) { w.onTerms = fn }
}

// NewWatcher loads the config at path and starts polling it, together with
// its term file, in a background goroutine. onChange may be nil.
func NewWatcher(path string, onChange func(old, next *Config), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: 5 * time.Second,
		onConfig: onChange,
		log:      slog.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	data, _, err := w.cfgFile.refresh(path)
	if err != nil {
		return nil, fmt.Errorf("config: watcher initial load: %w", err)
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config: watcher initial load: %w", err)
	}
	w.current = cfg
	w.follow(cfg.Dictionary.Path)

	go w.poll()
	return w, nil
}

// Current returns the most recently loaded valid config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Stop stops polling. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

func (w *Watcher) poll() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			// A config change may re-target the term file, so it goes first.
			w.checkConfig()
			w.checkTerms()
		}
	}
}

// checkConfig reloads the configuration if its content changed.
func (w *Watcher) checkConfig() {
	data, changed, err := w.cfgFile.refresh(w.path)
	if err != nil {
		w.log.Warn("config: cannot read config file", "path", w.path, "err", err)
		return
	}
	if !changed {
		return
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		// The hash is kept, so an invalid file is reported once until edited.
		w.log.Warn("config: reloaded config rejected", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	old := w.current
	w.current = cfg
	w.mu.Unlock()

	if cfg.Dictionary.Path != w.termPath {
		w.follow(cfg.Dictionary.Path)
	}

	w.log.Info("config: configuration reloaded", "path", w.path)
	if w.onConfig != nil {
		w.onConfig(old, cfg)
	}
}

// checkTerms reports a changed term file to the terms callback.
func (w *Watcher) checkTerms() {
	if w.termPath == "" {
		return
	}
	if !w.refreshTerms() {
		return
	}
	w.log.Info("config: term file changed", "path", w.termPath)
	if w.onTerms != nil {
		w.onTerms(w.termPath)
	}
}

// follow starts tracking path as the term file, taking its current content
// as the baseline. An empty path stops term tracking.
func (w *Watcher) follow(path string) {
	w.termPath = path
	w.termFile = fileState{}
	if path != "" {
		w.refreshTerms()
	}
}

func (w *Watcher) refreshTerms() bool {
	_, changed, err := w.termFile.refresh(w.termPath)
	if err != nil {
		w.log.Warn("config: cannot read term file", "path", w.termPath, "err", err)
		return false
	}
	return changed
}

// fileState is the last observed state of a watched file.
type fileState struct {
	mtime   time.Time
	size    int64
	hash    [sha256.Size]byte
	seen    bool
	missing bool
}

// refresh re-reads path when its modification time or size moved, and
// reports the content and whether it differs from the last content seen. A
// stat or read failure marks the file missing; the error is returned only for
// the first failure in a row.
func (s *fileState) refresh(path string) (data []byte, changed bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, s.fail(err)
	}
	if s.seen && !s.missing && info.ModTime().Equal(s.mtime) && info.Size() == s.size {
		return nil, false, nil
	}
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, false, s.fail(err)
	}
	s.missing = false
	s.mtime = info.ModTime()
	s.size = info.Size()

	sum := sha256.Sum256(data)
	if s.seen && sum == s.hash {
		return nil, false, nil
	}
	s.seen = true
	s.hash = sum
	return data, true, nil
}

func (s *fileState) fail(err error) error {
	if s.missing {
		return nil
	}
	s.missing = true
	return err
}

package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vyrodovalexey/avaroute/internal/observability"
)

// DefaultDebounceDelay is how long the watcher waits for writes to
// settle before reloading.
const DefaultDebounceDelay = 100 * time.Millisecond

// ReloadFunc receives every reload that changed something.
type ReloadFunc func(Change)

// ErrorCallback receives load and validation errors of rejected reloads.
type ErrorCallback func(error)

// Watcher reloads a configuration file when it changes on disk. Files
// that fail to load or validate are rejected and the current
// configuration stays in effect.
type Watcher struct {
	path     string
	fs       *fsnotify.Watcher
	onReload ReloadFunc
	onError  ErrorCallback
	logger   observability.Logger
	debounce time.Duration

	mu      sync.RWMutex
	current *Config
	running bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDelay sets how long writes must settle before a reload.
func WithDebounceDelay(delay time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = delay
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithErrorCallback registers a callback for rejected reloads.
func WithErrorCallback(callback ErrorCallback) WatcherOption {
	return func(w *Watcher) {
		w.onError = callback
	}
}

// NewWatcher creates a watcher for path. onReload may be nil.
func NewWatcher(path string, onReload ReloadFunc, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     absPath,
		fs:       fs,
		onReload: onReload,
		debounce: DefaultDebounceDelay,
		logger:   observability.NopLogger(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(observability.String("path", absPath))

	return w, nil
}

// Start loads the file and begins watching it. The initial load becomes
// Current without invoking the reload callback. Starting twice is a
// no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	cfg, err := loadValidated(w.path)
	if err != nil {
		return err
	}

	// Editors often replace the file, so watch its directory.
	if err := w.fs.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	w.current = cfg
	w.running = true
	go w.loop(ctx)

	w.logger.Info("watching configuration file")
	return nil
}

// Stop ends the watch loop and releases the file system watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	return w.fs.Close()
}

// Current returns the configuration in effect, or nil before the first
// successful load.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Reload loads the file now. It returns the resulting change, which is
// empty when the file matches Current.
func (w *Watcher) Reload() (Change, error) {
	cfg, err := loadValidated(w.path)
	if err != nil {
		return Change{}, err
	}
	return w.swap(cfg), nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("config watcher stopped", observability.Error(ctx.Err()))
			return
		case <-w.stopCh:
			w.logger.Info("config watcher stopped")
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				w.logger.Debug("config file changed", observability.String("op", event.Op.String()))
				timer.Reset(w.debounce)
			}
		case <-timer.C:
			w.reload()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.reject("config watcher error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	return filepath.Clean(event.Name) == w.path &&
		event.Op&(fsnotify.Write|fsnotify.Create) != 0
}

func (w *Watcher) reload() {
	change, err := w.Reload()
	if err != nil {
		w.reject("configuration rejected", err)
		return
	}
	if change.Empty() {
		w.logger.Debug("configuration unchanged")
		return
	}
	w.logger.Info("configuration reloaded",
		observability.Bool("log_level", change.LogLevel),
		observability.Bool("handler_timeout", change.HandlerTimeout),
		observability.Bool("registrations", change.Registrations),
		observability.Bool("restart", change.Restart),
	)
}

// swap installs cfg and notifies the callback when something changed.
func (w *Watcher) swap(cfg *Config) Change {
	w.mu.Lock()
	change := Diff(w.current, cfg)
	w.current = cfg
	w.mu.Unlock()

	if !change.Empty() && w.onReload != nil {
		w.onReload(change)
	}
	return change
}

func (w *Watcher) reject(msg string, err error) {
	w.logger.Error(msg, observability.Error(err))
	if w.onError != nil {
		w.onError(err)
	}
}

func loadValidated(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

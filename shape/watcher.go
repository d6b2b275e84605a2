package shape

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrWatcherStopped is returned by Start once the watcher has stopped.
var ErrWatcherStopped = errors.New("shape: watcher stopped")

// Watcher reloads a profile file into a Registry whenever the file changes.
// A document that fails to load leaves the previous snapshot in place.
//
// A Watcher runs once: after Stop, or after the context given to Start is
// done, Start returns ErrWatcherStopped. Create a new Watcher to watch again.
type Watcher struct {
	path          string
	reg           *Registry
	watcher       *fsnotify.Watcher
	logger        *zap.Logger
	debounceDelay time.Duration
	onReload      func(*Set)
	onError       func(error)

	mu        sync.Mutex
	running   bool
	stopped   bool
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDelay sets how long the watcher waits for writes to settle.
func WithDebounceDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounceDelay = d }
}

// WithWatchLogger sets the watcher's logger.
func WithWatchLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// OnReload is called with each newly stored Set.
func OnReload(fn func(*Set)) WatcherOption {
	return func(w *Watcher) { w.onReload = fn }
}

// OnError is called when a reload or the file watch fails.
func OnError(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onError = fn }
}

// NewWatcher creates a watcher for the profile file at path.
func NewWatcher(path string, reg *Registry, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:          abs,
		reg:           reg,
		watcher:       fw,
		logger:        zap.NewNop(),
		debounceDelay: 100 * time.Millisecond,
		stopCh:        make(chan struct{}),
		stoppedCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start loads the file once, stores it, and begins watching. The initial load
// must succeed.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return ErrWatcherStopped
	}
	if w.running {
		return nil
	}

	set, err := LoadFile(w.path)
	if err != nil {
		return err
	}
	w.reg.Store(set)

	// Watch the directory: editors replace files by rename.
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.running = true
	w.logger.Info("watching profiles", zap.String("path", w.path), zap.Int("profiles", set.Len()))

	go w.watch(ctx)
	return nil
}

// Stop ends the watch and releases the file watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	w.stopped = true
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.stoppedCh
	return w.watcher.Close()
}

func (w *Watcher) watch(ctx context.Context) {
	defer func() {
		w.mu.Lock()
		w.running = false
		w.stopped = true
		w.mu.Unlock()
		close(w.stoppedCh)
	}()

	var debounce *time.Timer
	var fire <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("profile watcher stopped", zap.Error(ctx.Err()))
			return
		case <-w.stopCh:
			w.logger.Info("profile watcher stopped")
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			w.logger.Debug("profile file changed", zap.String("op", ev.Op.String()))
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(w.debounceDelay)
			fire = debounce.C
		case <-fire:
			fire = nil
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.fail(err)
		}
	}
}

func (w *Watcher) reload() {
	set, err := LoadFile(w.path)
	if err != nil {
		w.fail(err)
		return
	}
	w.reg.Store(set)
	w.logger.Info("profiles reloaded", zap.Int("profiles", set.Len()))
	if w.onReload != nil {
		w.onReload(set)
	}
}

func (w *Watcher) fail(err error) {
	w.logger.Error("profile reload failed", zap.Error(err))
	if w.onError != nil {
		w.onError(err)
	}
}

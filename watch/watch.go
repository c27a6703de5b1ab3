// Package watch reruns the pipeline when model sources change.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/buildamp/errors"
	"github.com/teranos/buildamp/extract"
	"github.com/teranos/buildamp/logger"
)

// Defaults
const (
	DefaultDebounce           = 300 * time.Millisecond
	DefaultMaxRerunsPerMinute = 30
)

// RunFunc is one rerun. Errors are logged; watching continues.
type RunFunc func(ctx context.Context) error

// Watcher debounces model changes into serialized reruns.
type Watcher struct {
	root     string
	fsw      *fsnotify.Watcher
	run      RunFunc
	debounce time.Duration
	limiter  *rate.Limiter
	log      *zap.SugaredLogger

	mu            sync.Mutex
	debounceTimer *time.Timer
	trigger       chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long changes must settle before a rerun.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithMaxRerunsPerMinute caps the rerun rate; 0 disables the cap.
func WithMaxRerunsPerMinute(n int) Option {
	return func(w *Watcher) {
		if n <= 0 {
			w.limiter = nil
			return
		}
		w.limiter = rate.NewLimiter(rate.Limit(float64(n)/60.0), 1)
	}
}

// New watches root and every directory below it. root must exist.
func New(root string, run RunFunc, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	w := &Watcher{
		root:     root,
		fsw:      fsw,
		run:      run,
		debounce: DefaultDebounce,
		limiter:  rate.NewLimiter(rate.Limit(float64(DefaultMaxRerunsPerMinute)/60.0), 1),
		log:      logger.ComponentLogger("watch"),
		trigger:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches dir and its subdirectories; fsnotify is not recursive.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "failed to walk %s", path)
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return errors.Wrapf(err, "failed to watch %s", path)
		}
		w.log.Debugw("Watching directory", logger.FieldDir, path)
		return nil
	})
}

// Run blocks until ctx is cancelled. Reruns execute one at a time on a
// single goroutine; changes during a rerun queue at most one more.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.rerunLoop(ctx)
	}()
	defer wg.Wait()
	defer cancel()

	w.log.Infow("Watching models", logger.FieldDir, w.root, "debounce", w.debounce)
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("Watcher error", logger.FieldError, err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) && isDir(event.Name) {
		if err := w.addTree(event.Name); err != nil {
			w.log.Warnw("Failed to watch new directory", logger.FieldDir, event.Name, logger.FieldError, err)
		}
		w.schedule()
		return
	}
	// A removed directory may have held models
	dirGone := (event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) && filepath.Ext(event.Name) == ""
	if !relevant(event.Name) && !dirGone {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.log.Debugw("Model change", logger.FieldFile, event.Name, "op", event.Op.String())
	w.schedule()
}

// schedule restarts the debounce timer
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounce, func() {
		select {
		case w.trigger <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
}

func (w *Watcher) rerunLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.trigger:
		}

		if w.limiter != nil {
			if err := w.limiter.Wait(ctx); err != nil {
				return
			}
		}

		start := time.Now()
		err := w.run(ctx)
		if err != nil {
			w.log.Errorw("Rerun failed", logger.FieldError, err, logger.FieldDurationMS, time.Since(start).Milliseconds())
			continue
		}
		w.log.Infow("Rerun complete", logger.FieldDurationMS, time.Since(start).Milliseconds())
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// relevant reports whether a change to path can change the model graph.
func relevant(path string) bool {
	base := filepath.Base(path)
	return base == extract.IgnoreFile || strings.HasSuffix(base, extract.SourceExt)
}

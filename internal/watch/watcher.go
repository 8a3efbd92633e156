// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jeranaias/promptstamp/internal/pngmeta"
)

// tick is how often pending paths are checked against the debounce window.
const tick = 50 * time.Millisecond

// =============================================================================
// OPTIONS AND EVENTS
// =============================================================================

// Options configures a Watcher.
type Options struct {
	// Debounce is how long a path must be quiet before it is decoded
	Debounce time.Duration

	// Recursive also watches subdirectories, including ones created later
	Recursive bool

	// Extensions filters paths by suffix (case-insensitive). Default: .png
	Extensions []string

	// MaxPerSecond caps decodes per second. 0 means unlimited.
	MaxPerSecond int

	// Strict verifies CRCs while decoding
	Strict bool

	// Existing reports files already present when the watcher starts
	Existing bool

	// Logger receives diagnostics. Default: no-op
	Logger log.Logger
}

// Event is one decoded file.
type Event struct {
	Path   string
	Result pngmeta.Result
	Err    error
}

// =============================================================================
// WATCHER
// =============================================================================

// Watcher delivers an Event for every matching file written under a root
// directory.
type Watcher struct {
	root    string
	opts    Options
	exts    map[string]struct{}
	fs      *fsnotify.Watcher
	limiter *rate.Limiter
	logger  log.Logger
	events  chan Event

	mu      sync.Mutex
	pending map[string]time.Time // path -> last change
	closed  bool
}

// New creates a Watcher for root and registers the watches immediately,
// so files written after New returns are not missed.
func New(root string, opts Options) (*Watcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch %s: not a directory", root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".png"}
	}
	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}

	limit := rate.Inf
	if opts.MaxPerSecond > 0 {
		limit = rate.Limit(opts.MaxPerSecond)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	w := &Watcher{
		root:    root,
		opts:    opts,
		exts:    exts,
		fs:      fsw,
		limiter: rate.NewLimiter(limit, max(opts.MaxPerSecond, 1)),
		logger:  log.With(logger, "component", "watch"),
		events:  make(chan Event, 16),
		pending: make(map[string]time.Time),
	}

	if err := w.add(root, opts.Existing); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Events returns the event channel. It is closed when Run returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Run processes filesystem events until ctx is cancelled or the underlying
// watcher fails. Cancellation is not an error.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer w.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.processEvents(gctx) })
	g.Go(func() error { return w.processPending(gctx) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Close releases the fsnotify watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.fs.Close()
}

// add watches dir (and its subdirectories when recursive). With queue set,
// matching files already inside are marked pending.
func (w *Watcher) add(dir string, queue bool) error {
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped
		}
		if d.IsDir() {
			if path == dir {
				return nil
			}
			if !w.opts.Recursive || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if err := w.fs.Add(path); err != nil {
				level.Warn(w.logger).Log("msg", "cannot watch directory", "dir", path, "err", err)
			}
			return nil
		}
		if queue && w.matches(path) {
			w.touch(path)
		}
		return nil
	})
}

// matches reports whether path has one of the configured extensions.
func (w *Watcher) matches(path string) bool {
	_, ok := w.exts[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (w *Watcher) touch(path string) {
	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	w.mu.Unlock()
}

// processEvents turns fsnotify events into pending paths.
func (w *Watcher) processEvents(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				level.Warn(w.logger).Log("msg", "event queue overflowed, some files may be missed")
				continue
			}
			level.Error(w.logger).Log("msg", "watch error", "err", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	level.Debug(w.logger).Log("msg", "fs event", "path", event.Name, "op", event.Op.String())

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.forget(event.Name)
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	if event.Has(fsnotify.Create) && w.opts.Recursive {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				return
			}
			// Files may land in the directory before the watch is added.
			if err := w.add(event.Name, true); err != nil {
				level.Warn(w.logger).Log("msg", "cannot watch directory", "dir", event.Name, "err", err)
			}
			return
		}
	}

	if w.matches(event.Name) {
		w.touch(event.Name)
	}
}

// processPending decodes paths whose debounce window has elapsed.
func (w *Watcher) processPending(ctx context.Context) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		for _, path := range w.due(time.Now()) {
			if err := w.limiter.Wait(ctx); err != nil {
				return err
			}
			ev := w.decode(path)
			if ev.Err != nil && errors.Is(ev.Err, fs.ErrNotExist) {
				continue // removed before it settled
			}
			select {
			case w.events <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// due removes and returns the paths quiet for at least the debounce window,
// in lexical order.
func (w *Watcher) due(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ready []string
	for path, changed := range w.pending {
		if now.Sub(changed) >= w.opts.Debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(ready)
	return ready
}

func (w *Watcher) decode(path string) Event {
	data, err := os.ReadFile(path)
	if err != nil {
		return Event{Path: path, Err: err}
	}
	var res pngmeta.Result
	if w.opts.Strict {
		res = pngmeta.DecodeStrict(data)
	} else {
		res = pngmeta.Decode(data)
	}
	level.Debug(w.logger).Log("msg", "decoded", "path", path, "status", res.Status.String())
	return Event{Path: path, Result: res}
}

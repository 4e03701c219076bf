// Package watcher turns writes under the data root into bus events.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tony-c3a/tony-mission-control/internal/event"
	"github.com/tony-c3a/tony-mission-control/internal/logger"
)

// Publisher is the part of the event bus the watcher needs.
type Publisher interface {
	Publish(t event.Type, data any) event.Event
}

// Options tune write debouncing. A file fires once its size and mtime have
// not changed for Stability, checked every PollInterval.
type Options struct {
	Stability    time.Duration
	PollInterval time.Duration
}

type pendingFile struct {
	size  int64
	mod   time.Time
	since time.Time
	added bool
}

type Watcher struct {
	rules []Rule
	bus   Publisher
	opts  Options
	fsw   *fsnotify.Watcher

	once    sync.Once
	pending map[string]*pendingFile
	done    chan struct{}
}

func New(rules []Rule, bus Publisher, opts Options) (*Watcher, error) {
	if opts.Stability <= 0 {
		opts.Stability = 500 * time.Millisecond
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	return &Watcher{
		rules:   rules,
		bus:     bus,
		opts:    opts,
		fsw:     fsw,
		pending: make(map[string]*pendingFile),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching. Only the first call has any effect; the loop runs
// until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) {
	w.once.Do(func() {
		w.addRuleDirs()
		go w.loop(ctx)
		logger.Info("watcher.started", "rules", len(w.rules), "stability", w.opts.Stability)
	})
}

// Done is closed when the event loop has exited.
func (w *Watcher) Done() <-chan struct{} { return w.done }

func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// addRuleDirs watches each rule's directory, or its nearest existing
// ancestor so the directory's creation is seen. Recursive rules also watch
// every subdirectory. Re-adding a watched path is harmless.
func (w *Watcher) addRuleDirs() {
	for _, r := range w.rules {
		dir := r.dir()
		target := dir
		for {
			if _, err := os.Stat(target); err == nil {
				break
			}
			parent := filepath.Dir(target)
			if parent == target {
				break
			}
			target = parent
		}
		if target != dir || !r.recursive() {
			w.add(target)
			continue
		}
		err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				w.add(p)
			}
			return nil
		})
		if err != nil {
			logger.Warn("watcher.walk", "dir", dir, "err", err)
		}
	}
}

func (w *Watcher) add(dir string) {
	if err := w.fsw.Add(dir); err != nil {
		logger.Warn("watcher.add", "dir", dir, "err", err)
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = w.fsw.Close()
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher.error", "err", err)
		case now := <-ticker.C:
			w.flush(now)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if ev.Has(fsnotify.Create) {
			w.addRuleDirs()
		}
		return
	}
	if !matchAny(w.rules, ev.Name) {
		return
	}
	p, ok := w.pending[ev.Name]
	if !ok {
		p = &pendingFile{}
		w.pending[ev.Name] = p
	}
	p.size, p.mod, p.since = info.Size(), info.ModTime(), time.Now()
	p.added = p.added || ev.Has(fsnotify.Create)
	logger.Debug("watcher.pending", "file", ev.Name, "op", ev.Op.String())
}

// flush fires every pending file that has been stable for the window.
func (w *Watcher) flush(now time.Time) {
	for path, p := range w.pending {
		info, err := os.Stat(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.Warn("watcher.stat", "file", path, "err", err)
			}
			delete(w.pending, path)
			continue
		}
		if info.Size() != p.size || !info.ModTime().Equal(p.mod) {
			p.size, p.mod, p.since = info.Size(), info.ModTime(), now
			continue
		}
		if now.Sub(p.since) < w.opts.Stability {
			continue
		}
		delete(w.pending, path)
		w.fire(path, p.added)
	}
}

func (w *Watcher) fire(path string, added bool) {
	typ, ok := Categorize(w.rules, path)
	if !ok {
		return
	}
	data := map[string]string{"file": path}
	if added {
		data["action"] = "add"
	}
	logger.Debug("watcher.event", "type", typ, "file", path, "added", added)
	w.bus.Publish(typ, data)
}

// Package watch reports debounced changes to chart definition files in a
// directory.
package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before its change is
// reported.
const DefaultDebounce = 100 * time.Millisecond

// ChangeKind describes what happened to a watched file.
type ChangeKind int

const (
	ChangeModified ChangeKind = iota // written or created
	ChangeRemoved                    // deleted or renamed away
)

// String returns "modified" or "removed".
func (k ChangeKind) String() string {
	if k == ChangeRemoved {
		return "removed"
	}
	return "modified"
}

// Change is one debounced file event.
type Change struct {
	Kind ChangeKind
	File string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithExtensions limits reported files to the given extensions, each with a
// leading dot. The default is .toml, .yaml and .yml.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		w.exts = make([]string, len(exts))
		for i, e := range exts {
			w.exts[i] = strings.ToLower(e)
		}
	}
}

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher monitors one directory using fsnotify.
type Watcher struct {
	Dir     string
	Changes <-chan Change

	changes  chan Change
	done     chan struct{}
	quit     chan struct{}
	exts     []string
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// New creates a Watcher for dir. Call Start to begin delivering changes.
func New(dir string, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	ch := make(chan Change, 16)
	w := &Watcher{
		Dir:      dir,
		Changes:  ch,
		changes:  ch,
		done:     make(chan struct{}),
		quit:     make(chan struct{}),
		exts:     []string{".toml", ".yaml", ".yml"},
		debounce: DefaultDebounce,
		watcher:  fw,
	}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

// Start begins watching the directory.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.Dir); err != nil {
		w.watcher.Close()
		return fmt.Errorf("watch: add %s: %w", w.Dir, err)
	}
	go w.loop()
	return nil
}

// Stop closes the watcher, waits for the loop to exit and closes Changes.
func (w *Watcher) Stop() {
	close(w.quit)
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

// Matches reports whether name has one of the watched extensions.
func (w *Watcher) Matches(name string) bool {
	return slices.Contains(w.exts, strings.ToLower(filepath.Ext(name)))
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.Matches(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[event.Name] = time.Now()
			}

		case <-ticker.C:
			now := time.Now()
			for file, t := range pending {
				if now.Sub(t) < w.debounce {
					continue
				}
				delete(pending, file)
				if !w.emit(file) {
					return
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the next event retries.
		}
	}
}

// emit sends the change for file and returns false once the watcher stops.
func (w *Watcher) emit(file string) bool {
	kind := ChangeModified
	if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
		kind = ChangeRemoved
	}
	select {
	case w.changes <- Change{Kind: kind, File: file}:
		return true
	case <-w.quit:
		return false
	}
}

package mapspec

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a single map spec file whenever it changes on disk and
// delivers the parsed result, so a caller can hand reloaded maps straight to
// SetMapData. Maps carries successful reloads and Errors carries watch and
// parse failures; both close after Close.
type Watcher struct {
	path string
	fs   *fsnotify.Watcher

	Maps   chan *Map
	Errors chan error

	done chan struct{}
	once sync.Once
}

// WatchMap watches the spec file at path. The containing directory is watched
// rather than the file itself, so editors that replace the file on save keep
// triggering reloads.
func WatchMap(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		_ = fs.Close()
		return nil, err
	}

	w := &Watcher{
		path:   abs,
		fs:     fs,
		Maps:   make(chan *Map, 1),
		Errors: make(chan error, 1),
		done:   make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Close stops the watcher. The run goroutine owns the outbound channels and
// closes them on exit, so Close never races a pending delivery.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.Maps)
	defer close(w.Errors)

	var lastReload time.Time
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			now := time.Now()
			if now.Sub(lastReload) < 100*time.Millisecond {
				continue
			}
			lastReload = now

			m, err := Load(w.path)
			if err != nil {
				w.deliverError(err)
				continue
			}
			w.deliverMap(m)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.deliverError(err)
		case <-w.done:
			return
		}
	}
}

// deliverMap drops a stale undrained reload first, so a slow consumer only
// ever sees the newest map.
func (w *Watcher) deliverMap(m *Map) {
	select {
	case <-w.Maps:
	default:
	}
	select {
	case w.Maps <- m:
	case <-w.done:
	}
}

func (w *Watcher) deliverError(err error) {
	select {
	case w.Errors <- err:
	default:
	}
}

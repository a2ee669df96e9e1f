package bridge

import (
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DocumentWatcher flags external modification of an open document. It watches
// the parent directory because editors often save by rename.
type DocumentWatcher struct {
	path     string
	fs       *fsnotify.Watcher
	changed  atomic.Bool
	onChange func(path string)
	done     chan struct{}
	once     sync.Once
}

func WatchDocument(path string, onChange func(path string)) (*DocumentWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, err
	}
	if onChange == nil {
		onChange = func(string) {}
	}
	w := &DocumentWatcher{
		path:     abs,
		fs:       fw,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *DocumentWatcher) Changed() bool {
	return w.changed.Load()
}

func (w *DocumentWatcher) Close() error {
	var err error
	w.once.Do(func() {
		err = w.fs.Close()
		<-w.done
	})
	return err
}

func (w *DocumentWatcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				// Report the first change only; the flag never resets.
				if w.changed.CompareAndSwap(false, true) {
					w.onChange(w.path)
				}
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Warn().Str("path", w.path).Err(err).Msg("bridge.DocumentWatcher error")
		}
	}
}

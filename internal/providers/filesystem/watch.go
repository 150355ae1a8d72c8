package filesystem

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceWindow batches the event storms a bulk copy produces into one
// change notification. A variable so tests can shorten it.
var debounceWindow = 5 * time.Second

// Watcher feeds local library changes into the sync engine: any create,
// write, remove or rename under the root fires onChange after a debounce,
// and newly created directories are added to the watch set.
type Watcher struct {
	fsw      *fsnotify.Watcher
	logger   *zap.Logger
	onChange func()
	done     chan struct{}
	stopped  chan struct{}
}

// NewWatcher watches root and every subdirectory.
func NewWatcher(root string, logger *zap.Logger, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if werr := fsw.Add(p); werr != nil {
				logger.Warn("watch add failed", zap.String("dir", p), zap.Error(werr))
			}
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw: fsw, logger: logger, onChange: onChange,
		done: make(chan struct{}), stopped: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Stop closes the watcher and waits for its loop to exit.
func (w *Watcher) Stop() {
	close(w.done)
	<-w.stopped
}

func (w *Watcher) run() {
	defer close(w.stopped)
	defer w.fsw.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.fsw.Add(ev.Name); err != nil {
						w.logger.Warn("watch add failed", zap.String("dir", ev.Name), zap.Error(err))
					}
				}
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounceWindow)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("filesystem watch error", zap.Error(err))

		case <-fire:
			timer = nil
			fire = nil
			w.onChange()
		}
	}
}

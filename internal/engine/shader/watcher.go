package shader

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/xrgl/internal/logger"
)

// Watcher reports edits to shader sources in a directory. The callback runs
// on the watcher goroutine; callers hand the work to the render thread.
type Watcher struct {
	fs       *fsnotify.Watcher
	onChange func(name string)
	log      *zap.Logger
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewWatcher starts watching dir. onChange receives the base name of every
// created or written file.
func NewWatcher(dir string, onChange func(name string)) (*Watcher, error) {
	if dir == "" {
		return nil, errors.New("shader watcher: empty directory")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fs:       fsw,
		onChange: onChange,
		log:      logger.Named("shader"),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	w.log.Info("watching shader sources", zap.String("dir", dir))
	return w, nil
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(e.Name)
			w.log.Debug("shader source changed", zap.String("name", name), zap.String("op", e.Op.String()))
			w.onChange(name)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("shader watcher error", zap.Error(err))

		case <-w.done:
			return
		}
	}
}

// Close stops watching and waits for the goroutine to exit.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.wg.Wait()
	})
	return err
}

package viewer

import (
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// MapWatcher notices changes to a map definition file. It watches the containing directory, so editors that replace
// the file by renaming are still seen.
//
type MapWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	changed int32
	done    chan struct{}
}

func NewMapWatcher(path string) (*MapWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error resolving [%s]", path)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "error creating watcher")
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, errors.Wrapf(err, "error watching [%s]", filepath.Dir(abs))
	}
	mw := &MapWatcher{
		path:    abs,
		watcher: w,
		done:    make(chan struct{}),
	}
	go mw.run()
	return mw, nil
}

// Changed reports whether the file changed since the last call.
func (self *MapWatcher) Changed() bool {
	return atomic.SwapInt32(&self.changed, 0) == 1
}

func (self *MapWatcher) Close() error {
	err := self.watcher.Close()
	<-self.done
	return err
}

func (self *MapWatcher) run() {
	logrus.Debugf("[%s] watcher started", self.path)
	defer logrus.Debugf("[%s] watcher exited", self.path)
	defer close(self.done)

	for {
		select {
		case event, ok := <-self.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != self.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				atomic.StoreInt32(&self.changed, 1)
			}

		case err, ok := <-self.watcher.Errors:
			if !ok {
				return
			}
			logrus.Errorf("[%s] watcher error (%v)", self.path, err)
		}
	}
}

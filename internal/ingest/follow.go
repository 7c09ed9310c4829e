package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultFollowInterval is the poll interval used when no file event arrives.
const DefaultFollowInterval = 250 * time.Millisecond

// followReader reads a file that another process is still appending to.
// At end of file it waits for a write event, or the poll interval, and tries
// again. Cancelling ctx ends the stream with io.EOF.
type followReader struct {
	ctx      context.Context
	file     *os.File
	watcher  *fsnotify.Watcher // nil when falling back to polling
	polling  bool              // set by the reading goroutine after a watcher error
	interval time.Duration
	logger   *slog.Logger
}

// OpenFollow opens path for following. If a file watcher cannot be created the
// reader polls at interval instead.
func OpenFollow(ctx context.Context, path string, interval time.Duration, logger *slog.Logger) (*Source, error) {
	src, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = DefaultFollowInterval
	}

	r := &followReader{
		ctx:      ctx,
		file:     src.ReadCloser.(*os.File),
		interval: interval,
		logger:   logger,
	}

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		err = watcher.Add(path)
		if err != nil {
			watcher.Close()
		}
	}
	if err != nil {
		logger.Warn("file watcher unavailable, falling back to polling", "path", path, "error", err)
	} else {
		r.watcher = watcher
	}

	return &Source{ReadCloser: r, Name: path}, nil
}

func (r *followReader) Read(p []byte) (int, error) {
	for {
		n, err := r.file.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		if !r.waitForGrowth() {
			return 0, io.EOF
		}
	}
}

// waitForGrowth blocks until the file may have grown. It returns false when
// the context is done.
func (r *followReader) waitForGrowth() bool {
	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if r.watcher != nil && !r.polling {
		events = r.watcher.Events
		errs = r.watcher.Errors
	}

	for {
		select {
		case <-r.ctx.Done():
			return false
		case <-timer.C:
			return true
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				return true
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			r.logger.Warn("file watcher error, continuing with polling", "error", err)
			r.polling = true
			events, errs = nil, nil
		}
	}
}

func (r *followReader) Close() error {
	if r.watcher != nil {
		r.watcher.Close()
	}
	return r.file.Close()
}

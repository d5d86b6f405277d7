// Package progress tails the trainer's CSV training log while a run is
// executing and surfaces each finished epoch as a structured log line.
//
// The watcher is strictly best-effort: the log file usually does not
// exist when the run starts (the trainer creates the artifact tree
// itself), may never appear if the run dies early, and can be truncated
// by a restart. None of that is allowed to affect the run's outcome.
package progress

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultPollInterval = 500 * time.Millisecond

// Watcher follows one training.log.csv file. Filesystem notifications
// drive most updates; a polling ticker covers the window before the
// trainer has created the log directory and platforms that coalesce
// write events.
type Watcher struct {
	path    string
	logger  *zap.Logger
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	pollInterval time.Duration
	watchedDir   bool

	// Tail state, owned by the run goroutine.
	offset  int64
	pending []byte
	header  []string

	// OnEpoch, when set before Start, receives every parsed data row
	// keyed by the CSV header.
	OnEpoch func(row map[string]string)
}

// NewWatcher creates a watcher for the given training log path. The
// file and its directory do not need to exist yet.
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		path:         path,
		logger:       logger,
		watcher:      fsw,
		pollInterval: defaultPollInterval,
	}, nil
}

// Start begins tailing in a background goroutine. Calling Start on a
// running watcher is a no-op.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.tryWatchDir()
	go w.run(ctx)
}

// Stop drains any remaining log lines, stops the background goroutine,
// and releases the filesystem watch. Safe to call on a watcher that
// never started or already stopped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	_ = w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.poll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			// Final drain so lines written right before the trainer
			// exited are not lost.
			w.poll()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name == w.path && event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.poll()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Debug("training log watch error", zap.Error(err))
		case <-ticker.C:
			if !w.watchedDir {
				w.tryWatchDir()
			}
			w.poll()
		}
	}
}

// tryWatchDir registers the log directory with fsnotify. The directory
// typically appears only once the trainer has started, so failures are
// silent and the ticker retries.
func (w *Watcher) tryWatchDir() {
	if w.watchedDir {
		return
	}
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return
	}
	w.watchedDir = true
}

// poll reads everything appended since the previous poll and consumes
// the complete lines. A shrunken file means the log was replaced, so
// the tail state resets and the new header is picked up again.
func (w *Watcher) poll() {
	f, err := os.Open(w.path)
	if err != nil {
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return
	}
	if info.Size() < w.offset {
		w.offset = 0
		w.pending = w.pending[:0]
		w.header = nil
	}
	if info.Size() == w.offset {
		return
	}
	if _, err := f.Seek(w.offset, io.SeekStart); err != nil {
		return
	}
	data, err := io.ReadAll(f)
	if len(data) == 0 {
		if err != nil {
			w.logger.Debug("training log read error", zap.Error(err))
		}
		return
	}
	w.offset += int64(len(data))
	w.pending = append(w.pending, data...)

	for {
		idx := bytes.IndexByte(w.pending, '\n')
		if idx < 0 {
			return
		}
		line := strings.TrimRight(string(w.pending[:idx]), "\r")
		w.pending = w.pending[idx+1:]
		if strings.TrimSpace(line) == "" {
			continue
		}
		w.consumeLine(line)
	}
}

func (w *Watcher) consumeLine(line string) {
	record, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		w.logger.Debug("unparseable training log line", zap.String("line", line), zap.Error(err))
		return
	}
	if w.header == nil {
		w.header = record
		w.logger.Debug("training log columns", zap.Strings("columns", record))
		return
	}

	fields := make([]zap.Field, 0, len(record))
	row := make(map[string]string, len(record))
	for i, value := range record {
		name := "col" + strconv.Itoa(i)
		if i < len(w.header) {
			name = w.header[i]
		}
		fields = append(fields, zap.String(name, value))
		row[name] = value
	}
	w.logger.Info("training progress", fields...)
	if w.OnEpoch != nil {
		w.OnEpoch(row)
	}
}

package progress

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// rowCollector gathers parsed epochs from the OnEpoch hook.
type rowCollector struct {
	mu   sync.Mutex
	rows []map[string]string
}

func (c *rowCollector) add(row map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = append(c.rows, row)
}

func (c *rowCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rows)
}

func (c *rowCollector) row(i int) map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows[i]
}

func newTestWatcher(t *testing.T, path string) (*Watcher, *rowCollector) {
	t.Helper()

	w, err := NewWatcher(path, zap.NewNop())
	require.NoError(t, err)
	w.pollInterval = 10 * time.Millisecond

	c := &rowCollector{}
	w.OnEpoch = c.add
	return w, c
}

func appendFile(t *testing.T, path, content string) {
	t.Helper()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteString(content)
	require.NoError(t, err)
}

// TestWatcher_FollowsAppendedRows verifies rows appended after the
// watcher started are parsed against the header row, including when the
// log directory only appears mid-run.
func TestWatcher_FollowsAppendedRows(t *testing.T) {
	root := t.TempDir()
	logDir := filepath.Join(root, "logs")
	logPath := filepath.Join(logDir, "training.log.csv")

	w, c := newTestWatcher(t, logPath)
	w.Start(context.Background())
	defer w.Stop()

	// The trainer creates the artifact tree itself, after the run has
	// already started.
	require.NoError(t, os.MkdirAll(logDir, 0755))
	appendFile(t, logPath, "epoch,loss,accuracy\n0,2.1543,0.2284\n")

	require.Eventually(t, func() bool { return c.count() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, map[string]string{"epoch": "0", "loss": "2.1543", "accuracy": "0.2284"}, c.row(0))

	appendFile(t, logPath, "1,1.8011,0.3395\n")
	require.Eventually(t, func() bool { return c.count() >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "1", c.row(1)["epoch"])
	assert.Equal(t, "1.8011", c.row(1)["loss"])
}

// TestWatcher_MissingFile verifies a log that never appears produces no
// rows and a clean shutdown.
func TestWatcher_MissingFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "training.log.csv")

	w, c := newTestWatcher(t, logPath)
	w.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	w.Stop()

	assert.Zero(t, c.count())
}

// TestWatcher_PartialLine verifies a row is held back until its
// newline arrives, then parsed whole.
func TestWatcher_PartialLine(t *testing.T) {
	logDir := t.TempDir()
	logPath := filepath.Join(logDir, "training.log.csv")
	appendFile(t, logPath, "epoch,loss\n0,2.15")

	w, c := newTestWatcher(t, logPath)
	w.Start(context.Background())
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, c.count(), "incomplete line must not be parsed")

	appendFile(t, logPath, "43\n")
	require.Eventually(t, func() bool { return c.count() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, map[string]string{"epoch": "0", "loss": "2.1543"}, c.row(0))
}

// TestWatcher_StopDrains verifies lines written just before Stop are
// still consumed by the final drain.
func TestWatcher_StopDrains(t *testing.T) {
	logDir := t.TempDir()
	logPath := filepath.Join(logDir, "training.log.csv")

	w, c := newTestWatcher(t, logPath)
	// A long interval keeps the ticker out of the picture: only the
	// drain on Stop can pick the rows up.
	w.pollInterval = time.Hour
	w.Start(context.Background())

	appendFile(t, logPath, "epoch,loss\n0,2.1543\n1,1.8011\n")
	w.Stop()

	assert.Equal(t, 2, c.count())
}

// TestWatcher_Truncate verifies a replaced log file resets the tail and
// the new header takes over.
func TestWatcher_Truncate(t *testing.T) {
	logDir := t.TempDir()
	logPath := filepath.Join(logDir, "training.log.csv")
	appendFile(t, logPath, "epoch,loss,accuracy,val_loss,val_accuracy\n0,2.1543,0.2284,2.0011,0.2512\n1,1.8011,0.3395,1.9102,0.2990\n")

	w, c := newTestWatcher(t, logPath)
	w.Start(context.Background())
	defer w.Stop()

	require.Eventually(t, func() bool { return c.count() >= 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(logPath, []byte("epoch,lr\n"), 0644))
	appendFile(t, logPath, "0,0.1\n")

	require.Eventually(t, func() bool { return c.count() >= 3 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, map[string]string{"epoch": "0", "lr": "0.1"}, c.row(2))
}

// TestWatcher_StartStopIdempotent verifies repeated Start and Stop
// calls are safe.
func TestWatcher_StartStopIdempotent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "training.log.csv")

	w, _ := newTestWatcher(t, logPath)
	w.Start(context.Background())
	w.Start(context.Background())
	w.Stop()
	w.Stop()
}

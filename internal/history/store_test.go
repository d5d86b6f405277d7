package history

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/train-sweep/internal/model"
)

// openTestStore opens a store on a fresh database under t.TempDir.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// testSweep builds a recordable sweep. Times use whole seconds because
// the store keeps RFC3339 strings.
func testSweep(id string, created time.Time) *model.Sweep {
	return &model.Sweep{
		ID:           id,
		Script:       "/src/train_resnet_cifar10_tf.py",
		Python:       "python",
		SourceRoot:   "/src",
		ArtifactRoot: "/data",
		Runner:       model.RunnerLocal,
		Runs:         5,
		Params:       model.DefaultHParams(),
		CreatedAt:    created,
	}
}

// testRun builds one finished run row.
func testRun(seq, runIndex int, status model.RunStatus, exitCode int, started time.Time) model.RunResult {
	finished := started.Add(42 * time.Second)
	return model.RunResult{
		Seq:         seq,
		RunIndex:    runIndex,
		Status:      status,
		ExitCode:    exitCode,
		StartedAt:   started,
		FinishedAt:  finished,
		Duration:    finished.Sub(started),
		ArtifactDir: "/data/cifar10/ResNet20v1_CIFAR10/b128-e200-lr0.1/SGD/20260314-092653",
	}
}

// TestStore_Roundtrip verifies the full record-and-read-back cycle:
// one sweep, five runs, everything intact through GetSweep.
func TestStore_Roundtrip(t *testing.T) {
	store := openTestStore(t)

	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	sw := testSweep("20260314-092653", created)
	require.NoError(t, store.RecordSweep(sw, 5))

	for seq := 1; seq <= 5; seq++ {
		status := model.StatusSucceeded
		exitCode := 0
		if seq == 2 {
			status = model.StatusFailed
			exitCode = 3
		}
		run := testRun(seq, seq, status, exitCode, created.Add(time.Duration(seq)*time.Minute))
		require.NoError(t, store.RecordRun(sw.ID, run))
	}

	rec, err := store.GetSweep(sw.ID)
	require.NoError(t, err)

	assert.Equal(t, sw.ID, rec.ID)
	assert.Equal(t, sw.Script, rec.Script)
	assert.Equal(t, "local", rec.Runner)
	assert.Equal(t, "ResNet20v1_CIFAR10", rec.Model)
	assert.Equal(t, "/data", rec.ArtifactRoot)
	assert.Equal(t, 5, rec.RunsPlanned)
	assert.Equal(t, 5, rec.RunsRecorded)
	assert.Equal(t, 4, rec.Succeeded)
	assert.Equal(t, 1, rec.Failed)
	assert.Equal(t, "failed", rec.Status())
	assert.True(t, rec.CreatedAt.Equal(created))

	// The hyperparameter snapshot survives as recorded.
	assert.Equal(t, sw.Params, rec.Params)

	require.Len(t, rec.Runs, 5)
	for i, run := range rec.Runs {
		assert.Equal(t, i+1, run.Seq)
		assert.Equal(t, 42*time.Second, run.Duration)
		assert.NotEmpty(t, run.ArtifactDir)
	}
	assert.Equal(t, "failed", rec.Runs[1].Status)
	assert.Equal(t, 3, rec.Runs[1].ExitCode)
	assert.True(t, rec.Runs[0].StartedAt.Equal(created.Add(time.Minute)))
}

// TestStore_GetSweepNotFound verifies the sentinel for unknown IDs.
func TestStore_GetSweepNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetSweep("20990101-000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestStore_ListSweeps verifies ordering (newest first), run count
// aggregation, and the limit.
func TestStore_ListSweeps(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	older := testSweep("20260314-090000", base)
	newer := testSweep("20260314-100000", base.Add(time.Hour))
	require.NoError(t, store.RecordSweep(older, 5))
	require.NoError(t, store.RecordSweep(newer, 2))

	// The older sweep completed clean; the newer one was interrupted
	// after a single run.
	for seq := 1; seq <= 5; seq++ {
		require.NoError(t, store.RecordRun(older.ID, testRun(seq, seq, model.StatusSucceeded, 0, base)))
	}
	require.NoError(t, store.RecordRun(newer.ID, testRun(1, 1, model.StatusSucceeded, 0, base.Add(time.Hour))))

	sweeps, err := store.ListSweeps(10)
	require.NoError(t, err)
	require.Len(t, sweeps, 2)

	assert.Equal(t, newer.ID, sweeps[0].ID)
	assert.Equal(t, 1, sweeps[0].RunsRecorded)
	assert.Equal(t, 2, sweeps[0].RunsPlanned)
	assert.Equal(t, "partial", sweeps[0].Status())

	assert.Equal(t, older.ID, sweeps[1].ID)
	assert.Equal(t, 5, sweeps[1].Succeeded)
	assert.Equal(t, 0, sweeps[1].Failed)
	assert.Equal(t, "succeeded", sweeps[1].Status())

	limited, err := store.ListSweeps(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, newer.ID, limited[0].ID)
}

// TestStore_ListSweepsEmpty verifies an empty database lists cleanly.
func TestStore_ListSweepsEmpty(t *testing.T) {
	store := openTestStore(t)

	sweeps, err := store.ListSweeps(10)
	require.NoError(t, err)
	assert.Empty(t, sweeps)
}

// TestStore_RecordRunGridPoint verifies the grid point label and the
// per-point run index survive the roundtrip.
func TestStore_RecordRunGridPoint(t *testing.T) {
	store := openTestStore(t)

	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	sw := testSweep("20260314-092653", created)
	require.NoError(t, store.RecordSweep(sw, 4))

	run := testRun(3, 1, model.StatusSucceeded, 0, created)
	run.PointLabel = "n=5,optimizer_name=Adam"
	require.NoError(t, store.RecordRun(sw.ID, run))

	rec, err := store.GetSweep(sw.ID)
	require.NoError(t, err)
	require.Len(t, rec.Runs, 1)
	assert.Equal(t, 3, rec.Runs[0].Seq)
	assert.Equal(t, 1, rec.Runs[0].RunIndex)
	assert.Equal(t, "n=5,optimizer_name=Adam", rec.Runs[0].PointLabel)
}

// TestStore_Reopen verifies schema creation is idempotent and records
// survive a close/open cycle.
func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	require.NoError(t, store.RecordSweep(testSweep("20260314-092653", created), 5))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	sweeps, err := reopened.ListSweeps(10)
	require.NoError(t, err)
	require.Len(t, sweeps, 1)
	assert.Equal(t, "20260314-092653", sweeps[0].ID)
}

// TestStore_OpenCreatesDirectory verifies the parent directory is
// created when missing, matching the default ~/.train-sweep location.
func TestStore_OpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

// TestStore_MigratesOldSchema verifies that a database created before
// the artifact and grid columns existed gains them on open.
func TestStore_MigratesOldSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE sweeps (
	  id            TEXT PRIMARY KEY,
	  script        TEXT,
	  runner        TEXT,
	  model         TEXT,
	  preset        TEXT,
	  runs_planned  INTEGER,
	  params_json   TEXT,
	  created_at    TEXT
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE runs (
	  sweep_id     TEXT,
	  seq          INTEGER,
	  run_index    INTEGER,
	  status       TEXT,
	  exit_code    INTEGER,
	  started_at   TEXT,
	  finished_at  TEXT,
	  duration_ms  INTEGER,
	  PRIMARY KEY (sweep_id, seq)
	)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	// The migrated columns are writable and readable.
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	sw := testSweep("20260314-092653", created)
	require.NoError(t, store.RecordSweep(sw, 1))
	run := testRun(1, 1, model.StatusSucceeded, 0, created)
	run.PointLabel = "n=5"
	require.NoError(t, store.RecordRun(sw.ID, run))

	rec, err := store.GetSweep(sw.ID)
	require.NoError(t, err)
	assert.Equal(t, "/data", rec.ArtifactRoot)
	require.Len(t, rec.Runs, 1)
	assert.Equal(t, "n=5", rec.Runs[0].PointLabel)
	assert.NotEmpty(t, rec.Runs[0].ArtifactDir)
}

// TestSweepSummary_Status covers the outcome derivation.
func TestSweepSummary_Status(t *testing.T) {
	cases := []struct {
		name string
		sum  SweepSummary
		want string
	}{
		{"all succeeded", SweepSummary{RunsPlanned: 5, RunsRecorded: 5, Succeeded: 5}, "succeeded"},
		{"one failed", SweepSummary{RunsPlanned: 5, RunsRecorded: 5, Succeeded: 4, Failed: 1}, "failed"},
		{"interrupted", SweepSummary{RunsPlanned: 5, RunsRecorded: 3, Succeeded: 3}, "partial"},
		{"interrupted with failure", SweepSummary{RunsPlanned: 5, RunsRecorded: 3, Succeeded: 2, Failed: 1}, "failed"},
		{"nothing recorded", SweepSummary{RunsPlanned: 5}, "partial"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.sum.Status())
		})
	}
}

// TestParseStoredTime verifies lenient timestamp decoding.
func TestParseStoredTime(t *testing.T) {
	parsed := parseStoredTime("2026-03-14T09:26:53Z")
	assert.True(t, parsed.Equal(time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)))

	assert.True(t, parseStoredTime("").IsZero())
	assert.True(t, parseStoredTime("yesterday-ish").IsZero())
}

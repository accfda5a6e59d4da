package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func allRecords(t *testing.T, s *Store) []FileRecord {
	t.Helper()
	rows, err := s.db.Query("SELECT crc, name, path, size FROM files")
	require.NoError(t, err)
	defer rows.Close()

	var recs []FileRecord
	for rows.Next() {
		var crc, size int64
		var rec FileRecord
		require.NoError(t, rows.Scan(&crc, &rec.Name, &rec.Path, &size))
		rec.Fingerprint = uint32(crc)
		rec.SizeBytes = uint64(size)
		recs = append(recs, rec)
	}
	require.NoError(t, rows.Err())
	return recs
}

func TestOpen_SchemaIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(dbPath)
	require.NoError(t, err)
	run, err := s.BeginRun()
	require.NoError(t, err)
	require.NoError(t, run.Record(FileRecord{Fingerprint: 1, Name: "a", Path: "/p", SizeBytes: 1}))
	require.NoError(t, run.Commit())
	require.NoError(t, s.Close())

	// Reopening must not drop existing rows.
	s2, err := Open(dbPath)
	require.NoError(t, err)
	defer s2.Close()
	n, err := s2.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRun_CommitMakesRecordsVisible(t *testing.T) {
	s := openTemp(t)

	run, err := s.BeginRun()
	require.NoError(t, err)
	rec := FileRecord{Fingerprint: 0x3610a686, Name: "a.txt", Path: "/data/A", SizeBytes: 5}
	require.NoError(t, run.Record(rec))
	require.NoError(t, run.Commit())

	got := allRecords(t, s)
	require.Len(t, got, 1)
	assert.Equal(t, rec, got[0])
}

func TestRun_RollbackRestoresPriorState(t *testing.T) {
	s := openTemp(t)

	run, err := s.BeginRun()
	require.NoError(t, err)
	require.NoError(t, run.Record(FileRecord{Fingerprint: 7, Name: "keep.txt", Path: "/p", SizeBytes: 3}))
	require.NoError(t, run.Commit())

	run2, err := s.BeginRun()
	require.NoError(t, err)
	require.NoError(t, run2.Record(FileRecord{Fingerprint: 8, Name: "discard.txt", Path: "/p", SizeBytes: 4}))
	require.NoError(t, run2.Rollback())

	got := allRecords(t, s)
	require.Len(t, got, 1)
	assert.Equal(t, "keep.txt", got[0].Name)
}

func TestRun_FinalizeIsExactlyOnce(t *testing.T) {
	s := openTemp(t)

	run, err := s.BeginRun()
	require.NoError(t, err)
	require.NoError(t, run.Commit())
	assert.NoError(t, run.Commit())
	assert.NoError(t, run.Rollback())
	assert.Error(t, run.Record(FileRecord{Name: "late"}))
}

func TestClear(t *testing.T) {
	s := openTemp(t)

	run, err := s.BeginRun()
	require.NoError(t, err)
	require.NoError(t, run.Record(FileRecord{Fingerprint: 1, Name: "a", Path: "/p", SizeBytes: 1}))
	require.NoError(t, run.Record(FileRecord{Fingerprint: 2, Name: "b", Path: "/p", SizeBytes: 2}))
	require.NoError(t, run.Commit())

	require.NoError(t, s.Clear())
	n, err := s.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecord_BindsArbitraryContent(t *testing.T) {
	s := openTemp(t)

	// Names that would corrupt interpolated SQL must round-trip intact.
	rec := FileRecord{
		Fingerprint: 42,
		Name:        `she said "hi"; DROP TABLE files; --`,
		Path:        "/weird/pa'th/with,commas",
		SizeBytes:   9,
	}
	run, err := s.BeginRun()
	require.NoError(t, err)
	require.NoError(t, run.Record(rec))
	require.NoError(t, run.Commit())

	got := allRecords(t, s)
	require.Len(t, got, 1)
	assert.Equal(t, rec, got[0])
}

func TestBeginRun_FailsWhenLockedByAnotherWriter(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "contended.db")

	a, err := Open(dbPath)
	require.NoError(t, err)
	defer a.Close()
	b, err := Open(dbPath)
	require.NoError(t, err)
	defer b.Close()

	runA, err := a.BeginRun()
	require.NoError(t, err)
	require.NoError(t, runA.Record(FileRecord{Fingerprint: 1, Name: "a", Path: "/p", SizeBytes: 1}))

	// The second writer must be rejected at the probe, before traversal.
	_, err = b.BeginRun()
	require.Error(t, err)

	require.NoError(t, runA.Rollback())
}

func TestRecord_SentinelAndLargeValues(t *testing.T) {
	s := openTemp(t)

	run, err := s.BeginRun()
	require.NoError(t, err)
	recs := []FileRecord{
		{Fingerprint: 0, Name: "unreadable.dat", Path: "/p", SizeBytes: 123},
		{Fingerprint: 0xFFFFFFFF, Name: "max.dat", Path: "/p", SizeBytes: 1 << 40},
	}
	for _, rec := range recs {
		require.NoError(t, run.Record(rec))
	}
	require.NoError(t, run.Commit())

	got := allRecords(t, s)
	require.Len(t, got, 2)
	assert.ElementsMatch(t, recs, got)
}

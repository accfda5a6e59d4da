// Package scan sequences a full recording run: open the store, apply the
// reset policy, walk every root inside one shared transaction, then
// commit or roll back as a unit.
package scan

import (
	"fmt"
	"log/slog"
	"os"

	"dupescan/internal/filter"
	"dupescan/internal/fingerprint"
	"dupescan/internal/store"
	"dupescan/internal/walker"
)

// ResetPolicy selects what happens to previously recorded rows at the
// start of a run.
type ResetPolicy string

const (
	// ResetKeep appends to prior contents, accumulating across runs.
	ResetKeep ResetPolicy = "keep"
	// ResetClear deletes prior contents before the run begins.
	ResetClear ResetPolicy = "clear"
)

// ParseResetPolicy validates a user-supplied reset policy string.
func ParseResetPolicy(s string) (ResetPolicy, error) {
	switch ResetPolicy(s) {
	case ResetKeep, ResetClear:
		return ResetPolicy(s), nil
	}
	return "", fmt.Errorf("invalid reset policy %q: must be %q or %q", s, ResetKeep, ResetClear)
}

// ProgressFunc receives live counters during a run.
type ProgressFunc func(root string, visited, recorded int)

// Config holds the scanner configuration.
type Config struct {
	DBPath     string
	Roots      []string
	Reset      ResetPolicy
	Policy     filter.Policy
	MirrorPath string // optional plain-text echo of recorded rows
	OnProgress ProgressFunc
	Logger     *slog.Logger
}

// Stats reports run results across all roots.
type Stats struct {
	Roots          int
	Visited        int
	Recorded       int
	DirsUnreadable int
}

// Scanner is the public API for recording runs.
type Scanner struct {
	store  *store.Store
	config Config
	log    *slog.Logger
}

// New opens (creating if absent) the database and ensures its schema.
func New(cfg Config) (*Scanner, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Scanner{store: s, config: cfg, log: cfg.Logger}, nil
}

// Run walks every configured root and records accepted files inside one
// transaction. On any fatal error the transaction is rolled back, later
// roots are skipped, and the store is left exactly as it was before the
// run. Per-file and per-directory problems never abort the run; they are
// logged and degraded inside the walker and hasher.
func (s *Scanner) Run() (*Stats, error) {
	stats := &Stats{}

	if s.config.Reset == ResetClear {
		if err := s.store.Clear(); err != nil {
			return stats, err
		}
		s.log.Info("cleared previous records")
	}

	run, err := s.store.BeginRun()
	if err != nil {
		return stats, err
	}
	// Guaranteed cleanup: a no-op after Commit, a real rollback on any
	// early return.
	defer run.Rollback()

	rec, closeMirror, err := s.newRecorder(run)
	if err != nil {
		return stats, err
	}
	defer closeMirror()

	hasher := fingerprint.New(s.log)
	for _, root := range s.config.Roots {
		s.log.Info("scanning root", "path", root)

		var progress walker.ProgressFunc
		if s.config.OnProgress != nil {
			progress = func(visited int) {
				s.config.OnProgress(root, stats.Visited+visited, stats.Recorded+rec.recorded)
			}
		}

		w := walker.New(s.config.Policy, hasher, rec, s.log, progress)
		ws, err := w.Walk(root)
		stats.Visited += ws.Visited
		stats.Recorded += ws.Recorded
		stats.DirsUnreadable += ws.DirsUnreadable
		rec.recorded = 0
		if err != nil {
			s.log.Error("run aborted, rolling back", "root", root, "error", err)
			return stats, fmt.Errorf("scan %s: %w", root, err)
		}
		stats.Roots++
		s.log.Info("root complete", "path", root, "visited", ws.Visited, "recorded", ws.Recorded)
	}

	if err := run.Commit(); err != nil {
		return stats, err
	}
	return stats, nil
}

// Close releases the database.
func (s *Scanner) Close() error {
	return s.store.Close()
}

// runRecorder feeds the store's open transaction and, when configured,
// echoes each row to the plain-text mirror.
type runRecorder struct {
	run      *store.Run
	mirror   *os.File
	recorded int
}

func (s *Scanner) newRecorder(run *store.Run) (*runRecorder, func(), error) {
	rec := &runRecorder{run: run}
	if s.config.MirrorPath == "" {
		return rec, func() {}, nil
	}
	f, err := os.Create(s.config.MirrorPath)
	if err != nil {
		return nil, nil, fmt.Errorf("create mirror file: %w", err)
	}
	rec.mirror = f
	return rec, func() { f.Close() }, nil
}

func (r *runRecorder) Record(rec store.FileRecord) error {
	if err := r.run.Record(rec); err != nil {
		return err
	}
	r.recorded++
	if r.mirror != nil {
		// Human-readable echo only; no transactional semantics.
		fmt.Fprintf(r.mirror, "%d, %q, %q, %d\n", rec.Fingerprint, rec.Name, rec.Path, rec.SizeBytes)
	}
	return nil
}

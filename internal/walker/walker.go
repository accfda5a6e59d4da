// Package walker enumerates directory trees and turns accepted files
// into store records.
package walker

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dupescan/internal/filter"
	"dupescan/internal/store"
)

// Recorder receives one record per accepted regular file. A Recorder
// error is fatal to the walk; everything else is absorbed and logged.
type Recorder interface {
	Record(rec store.FileRecord) error
}

// Hasher computes a file's content fingerprint. Unreadable files yield 0.
type Hasher interface {
	Fingerprint(path string) uint32
}

// ProgressFunc is called periodically with the running visit count.
// Diagnostic only; it has no effect on what gets recorded.
type ProgressFunc func(visited int)

// progressEvery throttles progress callbacks to one per N visited entries.
const progressEvery = 50

// Stats accumulates per-walk counters.
type Stats struct {
	// Visited counts every directory entry seen, admitted or not.
	Visited int
	// Recorded counts files handed to the Recorder.
	Recorded int
	// DirsUnreadable counts directories whose listing failed and were
	// treated as empty.
	DirsUnreadable int
}

// Walker traverses one or more roots with a fixed policy, hasher, and
// recorder. It is not safe for concurrent use; the scan pipeline is
// deliberately single-threaded.
type Walker struct {
	policy   filter.Policy
	hasher   Hasher
	recorder Recorder
	log      *slog.Logger
	progress ProgressFunc
}

// New creates a Walker. A nil logger falls back to slog.Default; a nil
// progress callback disables progress reporting.
func New(policy filter.Policy, hasher Hasher, recorder Recorder, logger *slog.Logger, progress ProgressFunc) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{
		policy:   policy,
		hasher:   hasher,
		recorder: recorder,
		log:      logger,
		progress: progress,
	}
}

// Walk visits every admitted entry under root. Directories are processed
// from an explicit stack rather than by recursion, so arbitrarily deep
// trees cannot overflow. Sibling order is whatever the filesystem
// supplies and is not part of the contract.
//
// Unreadable directories are logged and treated as empty. The only error
// Walk returns is a Recorder failure, which aborts the walk immediately.
func (w *Walker) Walk(root string) (Stats, error) {
	var stats Stats
	pending := []string{root}

	for len(pending) > 0 {
		dir := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			stats.DirsUnreadable++
			w.log.Warn("cannot list directory, skipping", "path", dir, "error", err)
			continue
		}

		for _, entry := range entries {
			stats.Visited++
			if w.progress != nil && stats.Visited%progressEvery == 0 {
				w.progress(stats.Visited)
			}

			path := filepath.Join(dir, entry.Name())
			kind := entryKind(entry)
			if !w.policy.Admit(path, kind, isHidden(entry.Name())) {
				continue
			}

			if kind == filter.KindDir {
				pending = append(pending, path)
				continue
			}

			info, err := entry.Info()
			if err != nil {
				// Entry vanished between listing and stat.
				w.log.Warn("cannot stat file, skipping", "path", path, "error", err)
				continue
			}

			rec := store.FileRecord{
				Fingerprint: w.hasher.Fingerprint(path),
				Name:        entry.Name(),
				Path:        dir,
				SizeBytes:   uint64(info.Size()),
			}
			if err := w.recorder.Record(rec); err != nil {
				return stats, err
			}
			stats.Recorded++
		}
	}

	if w.progress != nil {
		w.progress(stats.Visited)
	}
	return stats, nil
}

func entryKind(entry os.DirEntry) filter.Kind {
	switch {
	case entry.IsDir():
		return filter.KindDir
	case entry.Type().IsRegular():
		return filter.KindFile
	default:
		return filter.KindOther
	}
}

// isHidden reports whether a name is hidden by Unix convention.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

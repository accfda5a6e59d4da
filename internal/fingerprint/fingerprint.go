// Package fingerprint computes streaming CRC32 content checksums.
//
// The checksum is a cheap proxy for content equality: byte-identical files
// always get the same value, and collisions between different contents are
// accepted. Unreadable files yield the sentinel value 0 rather than an
// error, so a file that cannot be opened is indistinguishable from one
// whose checksum is legitimately zero. That ambiguity is deliberate.
package fingerprint

import (
	"hash/crc32"
	"io"
	"log/slog"
	"os"
)

// bufSize is the read chunk size. Files are never loaded whole.
const bufSize = 64 * 1024

// Sentinel is the fingerprint recorded when content could not be read.
const Sentinel uint32 = 0

// Hasher computes file fingerprints, logging read failures as it goes.
type Hasher struct {
	log *slog.Logger
}

// New returns a Hasher that reports unreadable files to logger.
// A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Hasher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hasher{log: logger}
}

// Fingerprint streams the file at path through a CRC32 (IEEE) accumulator
// and returns the checksum. Open or read failures are logged and yield
// Sentinel; they are never returned as errors, and traversal goes on.
func (h *Hasher) Fingerprint(path string) uint32 {
	f, err := os.Open(path)
	if err != nil {
		h.log.Warn("unreadable file, recording zero fingerprint", "path", path, "error", err)
		return Sentinel
	}
	defer f.Close()

	crc := crc32.NewIEEE()
	buf := make([]byte, bufSize)
	if _, err := io.CopyBuffer(crc, f, buf); err != nil {
		h.log.Warn("read failed mid-file, recording zero fingerprint", "path", path, "error", err)
		return Sentinel
	}
	return crc.Sum32()
}

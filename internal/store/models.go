package store

// FileRecord is the unit persisted per accepted regular file.
type FileRecord struct {
	// Fingerprint is the CRC32 content checksum, or 0 if the content
	// could not be read.
	Fingerprint uint32
	// Name is the file's base name, with no path separators.
	Name string
	// Path is the containing directory's path, exactly as traversed.
	Path string
	// SizeBytes is the length reported by the filesystem at record time.
	// On a partial read it may exceed the number of bytes actually hashed.
	SizeBytes uint64
}

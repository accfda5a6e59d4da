package store

import "database/sql"

const ddl = `
CREATE TABLE IF NOT EXISTS files (
    crc  INTEGER NOT NULL,
    name TEXT    NOT NULL,
    path TEXT    NOT NULL,
    size INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_crc ON files(crc);
`

// Init creates the files table and its index if they don't exist.
// Never destructive: an existing populated table is left untouched.
func Init(db *sql.DB) error {
	_, err := db.Exec(ddl)
	return err
}

package commit

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"
)

// Journal is SQLite-backed state recording which logical files a commit
// attempt already reassembled, so a retried commit skips completed
// groups. It lives outside the meta folder because the meta folder is
// destroyed even when a commit fails.
type Journal struct {
	db   *sql.DB
	path string
}

// OpenJournal opens (or creates) the journal for the given work/final
// pair. The DB is stored at $XDG_RUNTIME_DIR/settle/<job-id>.db or
// /tmp/settle-<job-id>.db.
func OpenJournal(workPath, finalPath string) (*Journal, error) {
	jobID := journalJobID(workPath, finalPath)
	dbPath := journalPath(jobID)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	j := &Journal{db: db, path: dbPath}
	if err := j.init(workPath, finalPath); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) init(workPath, finalPath string) error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS reassembled (
			path      TEXT PRIMARY KEY,
			size      INTEGER NOT NULL,
			completed INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	// Validate or store the work/final roots.
	var storedWork, storedFinal string
	row := j.db.QueryRow("SELECT value FROM meta WHERE key = 'work_root'")
	if err := row.Scan(&storedWork); err == nil {
		row2 := j.db.QueryRow("SELECT value FROM meta WHERE key = 'final_root'")
		if err := row2.Scan(&storedFinal); err == nil {
			if storedWork != workPath || storedFinal != finalPath {
				return fmt.Errorf("journal roots mismatch: stored %s->%s, got %s->%s",
					storedWork, storedFinal, workPath, finalPath)
			}
		}
	} else {
		_, err = j.db.Exec(
			"INSERT OR REPLACE INTO meta (key, value) VALUES ('work_root', ?), ('final_root', ?)",
			workPath, finalPath)
		if err != nil {
			return fmt.Errorf("store meta: %w", err)
		}
	}
	return nil
}

// IsReassembled returns true if the given logical file (by relative path
// and total size) is recorded as already reassembled.
func (j *Journal) IsReassembled(relPath string, size int64) bool {
	var storedSize int64
	err := j.db.QueryRow(
		"SELECT size FROM reassembled WHERE path = ?", relPath,
	).Scan(&storedSize)
	if err != nil {
		return false
	}
	return storedSize == size
}

// MarkReassembled records a logical file as successfully reassembled.
func (j *Journal) MarkReassembled(relPath string, size int64) error {
	_, err := j.db.Exec(
		"INSERT OR REPLACE INTO reassembled (path, size, completed) VALUES (?, ?, ?)",
		relPath, size, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("record %s: %w", relPath, err)
	}
	return nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Remove deletes the journal database file.
func (j *Journal) Remove() error {
	return os.Remove(j.path)
}

// Path returns the path to the journal database file.
func (j *Journal) Path() string {
	return j.path
}

// journalJobID computes a deterministic job ID from the work and final paths.
func journalJobID(workPath, finalPath string) string {
	h := blake3.New()
	h.Write([]byte(workPath))
	h.Write([]byte{0})
	h.Write([]byte(finalPath))
	digest := h.Sum(nil)
	return hex.EncodeToString(digest[:8])
}

// journalPath returns the filesystem path for a journal DB.
func journalPath(jobID string) string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "settle", jobID+".db")
	}
	return filepath.Join(os.TempDir(), "settle-"+jobID+".db")
}

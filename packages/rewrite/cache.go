package rewrite

import (
	"bytes"
	"crypto/sha256"
	"database/sql"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// SQLite driver for the on-disk rewrite cache.
	_ "github.com/mattn/go-sqlite3"

	"github.com/abdul-hamid-achik/introspec/packages/core/parser"
)

// CacheFile is the database file name inside the cache directory.
const CacheFile = "rewrite.db"

// Cache persists instrumented programs keyed by source content hash so
// repeated runs over unchanged files skip re-parsing and re-analysis.
// Entries are write-once per hash; concurrent runs may regenerate the
// same entry redundantly, which is harmless. Corruption of any kind is
// treated as a miss, never as a fatal error.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (creating if needed) the cache database under dir.
func OpenCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	db, err := sql.Open("sqlite3", filepath.Join(dir, CacheFile))
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS programs (
		hash       TEXT PRIMARY KEY,
		path       TEXT NOT NULL,
		size       INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		program    BLOB NOT NULL
	)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Fingerprint is the content hash cache entries are keyed by.
func Fingerprint(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached program for a content hash. Any decode or
// query failure is reported as a miss.
func (c *Cache) Get(hash string) (*Program, bool) {
	var blob []byte
	var size int64
	err := c.db.QueryRow(`SELECT program, size FROM programs WHERE hash = ?`, hash).Scan(&blob, &size)
	if err != nil {
		return nil, false
	}
	if size != int64(len(blob)) {
		return nil, false
	}
	var prog Program
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&prog); err != nil {
		return nil, false
	}
	return &prog, true
}

// Put stores an instrumented program under its content hash.
func (c *Cache) Put(hash string, prog *Program) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(prog); err != nil {
		return fmt.Errorf("encoding program: %w", err)
	}
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO programs (hash, path, size, created_at, program) VALUES (?, ?, ?, ?, ?)`,
		hash, prog.Path, buf.Len(), time.Now().Unix(), buf.Bytes(),
	)
	if err != nil {
		return fmt.Errorf("storing program: %w", err)
	}
	return nil
}

// Clear drops every cached program.
func (c *Cache) Clear() error {
	_, err := c.db.Exec(`DELETE FROM programs`)
	return err
}

// Len reports how many programs are cached.
func (c *Cache) Len() (int, error) {
	var n int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM programs`).Scan(&n)
	return n, err
}

// Load reads, parses and instruments a test file, consulting the cache
// first. A nil cache always parses, and so does a rewriter that would
// not instrument this file: only instrumented programs are cached, so
// the cache never changes what a run would have built itself. Cache
// write failures are ignored: the freshly built program is still
// returned.
func Load(path string, r *Rewriter, c *Cache) (*Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	useCache := c != nil && r.Instruments(path)
	hash := Fingerprint(source)
	if useCache {
		if prog, ok := c.Get(hash); ok && prog.Path == path {
			return prog, nil
		}
	}
	file, err := parser.Parse(string(source), path)
	if err != nil {
		return nil, err
	}
	prog := r.Rewrite(file)
	if useCache {
		_ = c.Put(hash, prog)
	}
	return prog, nil
}

package openfa

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bodgit/openfa/pic"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// CatalogDB records every PIC file seen and the outcome of each attempt to
// convert it
type CatalogDB struct {
	db *sql.DB
}

// NewCatalogDB opens or creates the catalog in file
func NewCatalogDB(file string) (*CatalogDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	// Workers share the catalog, let the pool serialise writes
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS run (id TEXT PRIMARY KEY NOT NULL, started TIMESTAMP NOT NULL, palette TEXT NOT NULL)"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS picture (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE, width INTEGER NOT NULL, height INTEGER NOT NULL, colors INTEGER NOT NULL, spans INTEGER NOT NULL, pixels INTEGER NOT NULL, min_index INTEGER, max_index INTEGER)"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS conversion (id INTEGER PRIMARY KEY NOT NULL, run_id TEXT NOT NULL, sha1 TEXT NOT NULL, picture_id INTEGER, path TEXT NOT NULL, output TEXT, error TEXT, FOREIGN KEY(run_id) REFERENCES run(id), FOREIGN KEY(picture_id) REFERENCES picture(id))"); err != nil {
		return nil, err
	}

	return &CatalogDB{
		db: db,
	}, nil
}

// Close closes the catalog
func (db *CatalogDB) Close() error {
	return db.db.Close()
}

// NewRun starts a new run of conversions and returns its identifier
func (db *CatalogDB) NewRun(palette string) (string, error) {
	id := uuid.New().String()
	if _, err := db.db.Exec("INSERT INTO run (id, started, palette) VALUES (?, ?, ?)", id, time.Now().UTC(), palette); err != nil {
		return "", err
	}
	return id, nil
}

// AddPicture records a successfully decoded picture, returning the existing
// row if the same content has been seen before
func (db *CatalogDB) AddPicture(sha string, info pic.Info, stats pic.Stats) (int64, error) {
	var minIndex, maxIndex sql.NullInt64
	if stats.Pixels > 0 {
		minIndex = sql.NullInt64{Int64: int64(stats.MinIndex), Valid: true}
		maxIndex = sql.NullInt64{Int64: int64(stats.MaxIndex), Valid: true}
	}

	if _, err := db.db.Exec("INSERT OR IGNORE INTO picture (sha1, width, height, colors, spans, pixels, min_index, max_index) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", sha, info.Width, info.Height, info.Colors, info.SpanCount, stats.Pixels, minIndex, maxIndex); err != nil {
		return 0, err
	}

	var id int64
	if err := db.db.QueryRow("SELECT id FROM picture WHERE sha1 = ?", sha).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// AddConversion records the outcome of converting path. picture is zero if
// the file could not be decoded.
func (db *CatalogDB) AddConversion(run, sha, path, output string, picture int64, cerr error) error {
	var pictureID sql.NullInt64
	if picture != 0 {
		pictureID = sql.NullInt64{Int64: picture, Valid: true}
	}

	var out, msg sql.NullString
	if cerr != nil {
		msg = sql.NullString{String: cerr.Error(), Valid: true}
	} else {
		out = sql.NullString{String: output, Valid: true}
	}

	if _, err := db.db.Exec("INSERT INTO conversion (run_id, sha1, picture_id, path, output, error) VALUES (?, ?, ?, ?, ?, ?)", run, sha, pictureID, path, out, msg); err != nil {
		return err
	}
	return nil
}

// Converted returns whether a file with the given content has been
// successfully converted to output before
func (db *CatalogDB) Converted(sha, output string) (bool, error) {
	var id int64
	switch err := db.db.QueryRow("SELECT id FROM conversion WHERE sha1 = ? AND output = ? AND error IS NULL LIMIT 1", sha, output).Scan(&id); err {
	case sql.ErrNoRows:
		return false, nil
	case nil:
		return true, nil
	default:
		return false, err
	}
}

// RunSummary returns the number of successful and failed conversions in run
func (db *CatalogDB) RunSummary(run string) (converted, failed int, err error) {
	err = db.db.QueryRow("SELECT COUNT(CASE WHEN error IS NULL THEN 1 END), COUNT(error) FROM conversion WHERE run_id = ?", run).Scan(&converted, &failed)
	return
}

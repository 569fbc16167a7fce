/*
Package catalog records conversion runs in a sqlite database together with
a digest of the instruction list produced for every frame, so two runs
with the same settings over the same source can be compared.
*/
package catalog

import (
	"crypto/sha1"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bodgit/asciixel/convert"
	_ "github.com/mattn/go-sqlite3"
)

// ErrUnknownRun is returned for a run id that was never started
var ErrUnknownRun = errors.New("catalog: unknown run")

// Run describes one conversion run
type Run struct {
	ID       int64
	Name     string
	Source   string
	Mode     string
	Ramp     int
	Levels   int
	CellSize int
	Started  time.Time
	Finished time.Time
	Frames   int
}

// Frame is the stored digest of one frame's instruction list
type Frame struct {
	Index        int
	SHA1         string
	Instructions int
}

// Catalog is the run database
type Catalog struct {
	db *sql.DB
}

// Open opens or creates the database in file. ":memory:" gives a private
// in-memory database.
func Open(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	// A single connection keeps an in-memory database alive and serialises
	// writers
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS run (id INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL, source TEXT NOT NULL, mode TEXT NOT NULL, ramp INTEGER NOT NULL, levels INTEGER NOT NULL, cell_size INTEGER NOT NULL, started INTEGER NOT NULL, finished INTEGER, frames INTEGER NOT NULL DEFAULT 0)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS frame (run_id INTEGER NOT NULL, idx INTEGER NOT NULL, sha1 TEXT NOT NULL, instructions INTEGER NOT NULL, PRIMARY KEY(run_id, idx), FOREIGN KEY(run_id) REFERENCES run(id))"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the database
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Digest returns the SHA-1 of the encoded instruction list
func Digest(out *convert.Output) (string, error) {
	b, err := out.MarshalBinary()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%X", sha1.Sum(b)), nil
}

// StartRun stores r and returns its id. Started is set to now when zero.
func (c *Catalog) StartRun(r Run) (int64, error) {
	if r.Started.IsZero() {
		r.Started = time.Now()
	}

	result, err := c.db.Exec("INSERT INTO run (name, source, mode, ramp, levels, cell_size, started) VALUES (?, ?, ?, ?, ?, ?, ?)", r.Name, r.Source, r.Mode, r.Ramp, r.Levels, r.CellSize, r.Started.Unix())
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// AddFrame stores the digest of out as frame index of run. Storing the same
// index again replaces it.
func (c *Catalog) AddFrame(run int64, index int, out *convert.Output) error {
	sha, err := Digest(out)
	if err != nil {
		return err
	}

	if _, err := c.db.Exec("INSERT OR REPLACE INTO frame (run_id, idx, sha1, instructions) VALUES (?, ?, ?, ?)", run, index, sha, len(out.Instructions)); err != nil {
		return err
	}
	return nil
}

// FinishRun marks run as finished after frames frames
func (c *Catalog) FinishRun(run int64, frames int) error {
	result, err := c.db.Exec("UPDATE run SET finished = ?, frames = ? WHERE id = ?", time.Now().Unix(), frames, run)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUnknownRun
	}
	return nil
}

// Runs returns every run, oldest first
func (c *Catalog) Runs() ([]Run, error) {
	rows, err := c.db.Query("SELECT id, name, source, mode, ramp, levels, cell_size, started, finished, frames FROM run ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started int64
		var finished sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Name, &r.Source, &r.Mode, &r.Ramp, &r.Levels, &r.CellSize, &started, &finished, &r.Frames); err != nil {
			return nil, err
		}
		r.Started = time.Unix(started, 0)
		if finished.Valid {
			r.Finished = time.Unix(finished.Int64, 0)
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// Frames returns the stored digests of run in frame order
func (c *Catalog) Frames(run int64) ([]Frame, error) {
	var id int64
	switch err := c.db.QueryRow("SELECT id FROM run WHERE id = ?", run).Scan(&id); err {
	case sql.ErrNoRows:
		return nil, ErrUnknownRun
	case nil:
	default:
		return nil, err
	}

	rows, err := c.db.Query("SELECT idx, sha1, instructions FROM frame WHERE run_id = ? ORDER BY idx", run)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		var f Frame
		if err := rows.Scan(&f.Index, &f.SHA1, &f.Instructions); err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}

	return frames, rows.Err()
}

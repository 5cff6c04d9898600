package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/jsphweid/stemviz/model"
)

type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates) the job database at path. ":memory:" keeps
// it in memory.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create data directory")
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// every connection to :memory: is its own database
	conn.SetMaxOpenConns(1)

	_, err = conn.Exec(`CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to create jobs table")
	}
	return &SQLiteStore{db: conn}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, job model.Job) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO jobs (id, source, created_at) VALUES (?, ?, ?)`,
		job.ID, job.Source, job.CreatedAt.UnixNano())
	return errors.Wrap(err, "failed to save job")
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (model.Job, error) {
	var job model.Job
	var created int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, created_at FROM jobs WHERE id = ?`, id).
		Scan(&job.ID, &job.Source, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return job, ErrJobNotFound
	}
	if err != nil {
		return job, errors.Wrap(err, "failed to load job")
	}
	job.CreatedAt = time.Unix(0, created)
	return job, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

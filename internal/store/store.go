package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Failure modes surfaced to callers. Transient failures are the ones
// guards map to an indeterminate existence result; everything else is
// permanent and surfaced immediately.
var (
	ErrNotFound        = errors.New("record not found")
	ErrConflict        = errors.New("record already exists")
	ErrTransient       = errors.New("datastore temporarily unavailable")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Record is one persisted document
type Record struct {
	Kind      string
	Key       string
	Doc       json.RawMessage
	UpdatedAt time.Time
}

// Decode unmarshals the document into out
func (r Record) Decode(out any) error {
	return json.Unmarshal(r.Doc, out)
}

// Store is the document store collaborator: every entity lives in a
// single records table keyed by (kind, natural_key) with a jsonb body.
// Retry and timeout budgets are pass-through configuration.
type Store struct {
	db      *sql.DB
	retries int
	timeout time.Duration
}

// New creates a store around an open connection pool
func New(db *sql.DB, retries int, timeout time.Duration) *Store {
	if retries < 1 {
		retries = 1
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Store{db: db, retries: retries, timeout: timeout}
}

// EnsureSchema creates the records table if it does not exist yet
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS records (
            kind        TEXT NOT NULL,
            natural_key TEXT NOT NULL,
            doc         JSONB NOT NULL,
            created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (kind, natural_key)
        )
    `)
	if err != nil {
		return fmt.Errorf("error creating records table: %w", err)
	}
	return nil
}

// Get fetches one record by natural key; ErrNotFound when absent
func (s *Store) Get(ctx context.Context, kind, key string) (Record, error) {
	if kind == "" || key == "" {
		return Record{}, fmt.Errorf("%w: kind and key are required", ErrInvalidArgument)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rec Record
	err := s.db.QueryRowContext(ctx,
		"SELECT kind, natural_key, doc, updated_at FROM records WHERE kind = $1 AND natural_key = $2",
		kind, key,
	).Scan(&rec.Kind, &rec.Key, &rec.Doc, &rec.UpdatedAt)

	if err == sql.ErrNoRows {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, classify(err)
	}
	return rec, nil
}

// Query fetches all records of a kind whose document field matches value
func (s *Store) Query(ctx context.Context, kind, field, value string) ([]Record, error) {
	if kind == "" || field == "" {
		return nil, fmt.Errorf("%w: kind and field are required", ErrInvalidArgument)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT kind, natural_key, doc, updated_at FROM records WHERE kind = $1 AND doc->>$2 = $3 ORDER BY natural_key",
		kind, field, value,
	)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	return collect(rows)
}

// List fetches all records of a kind
func (s *Store) List(ctx context.Context, kind string) ([]Record, error) {
	if kind == "" {
		return nil, fmt.Errorf("%w: kind is required", ErrInvalidArgument)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT kind, natural_key, doc, updated_at FROM records WHERE kind = $1 ORDER BY natural_key",
		kind,
	)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	return collect(rows)
}

// QueryRange fetches records of a kind whose numeric document path
// falls inside (lower, upper) exclusive
func (s *Store) QueryRange(ctx context.Context, kind string, path []string, lower, upper int64) ([]Record, error) {
	if kind == "" || len(path) == 0 {
		return nil, fmt.Errorf("%w: kind and path are required", ErrInvalidArgument)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT kind, natural_key, doc, updated_at FROM records WHERE kind = $1 AND (doc#>>$2)::bigint > $3 AND (doc#>>$2)::bigint < $4 ORDER BY natural_key",
		kind, pq.Array(path), lower, upper,
	)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	return collect(rows)
}

// Latest fetches the most recently written records of a kind
func (s *Store) Latest(ctx context.Context, kind string, limit int) ([]Record, error) {
	if kind == "" {
		return nil, fmt.Errorf("%w: kind is required", ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT kind, natural_key, doc, updated_at FROM records WHERE kind = $1 ORDER BY updated_at DESC LIMIT $2",
		kind, limit,
	)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	return collect(rows)
}

// Exists reports whether any record of the kind matches field = value
func (s *Store) Exists(ctx context.Context, kind, field, value string) (bool, error) {
	if kind == "" || field == "" {
		return false, fmt.Errorf("%w: kind and field are required", ErrInvalidArgument)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var found bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM records WHERE kind = $1 AND doc->>$2 = $3)",
		kind, field, value,
	).Scan(&found)
	if err != nil {
		return false, classify(err)
	}
	return found, nil
}

// Put upserts a record, retrying transient failures up to the
// configured budget
func (s *Store) Put(ctx context.Context, kind, key string, doc any) error {
	return s.write(ctx, kind, key, doc, `
        INSERT INTO records (kind, natural_key, doc)
        VALUES ($1, $2, $3)
        ON CONFLICT (kind, natural_key)
        DO UPDATE SET doc = $3, updated_at = NOW()
    `, false)
}

// PutIfAbsent inserts a record only when the key is free. This is the
// write-time backstop behind the advisory existence guards: a raced
// duplicate create fails here with ErrConflict instead of clobbering.
func (s *Store) PutIfAbsent(ctx context.Context, kind, key string, doc any) error {
	return s.write(ctx, kind, key, doc, `
        INSERT INTO records (kind, natural_key, doc)
        VALUES ($1, $2, $3)
        ON CONFLICT (kind, natural_key) DO NOTHING
    `, true)
}

func (s *Store) write(ctx context.Context, kind, key string, doc any, query string, conditional bool) error {
	if kind == "" || key == "" {
		return fmt.Errorf("%w: kind and key are required", ErrInvalidArgument)
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	var lastErr error
	for attempt := 0; attempt < s.retries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		res, err := s.db.ExecContext(attemptCtx, query, kind, key, body)
		cancel()

		if err == nil {
			if conditional {
				affected, _ := res.RowsAffected()
				if affected == 0 {
					return ErrConflict
				}
			}
			return nil
		}
		lastErr = classify(err)
		if !errors.Is(lastErr, ErrTransient) {
			return lastErr
		}
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}
	return lastErr
}

func collect(rows *sql.Rows) ([]Record, error) {
	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Kind, &rec.Key, &rec.Doc, &rec.UpdatedAt); err != nil {
			return nil, classify(err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return records, nil
}

// classify sorts driver failures into transient vs permanent
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		class := string(pqErr.Code.Class())
		switch class {
		// connection, insufficient resources, operator intervention
		case "08", "53", "57", "58":
			return fmt.Errorf("%w: %v", ErrTransient, err)
		// bad data or bad SQL
		case "22", "42":
			return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		return err
	}
	if strings.Contains(err.Error(), "connection refused") || strings.Contains(err.Error(), "connection reset") {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return err
}

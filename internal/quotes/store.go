// Package quotes stores customer quote requests together with the estimate
// the server computed for them.
package quotes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/printquote/internal/pricing"
)

// ErrNotFound is returned when no quote request has the given id.
var ErrNotFound = errors.New("quote request not found")

const timeLayout = time.RFC3339

// Request is a stored quote request.
type Request struct {
	ID        string
	CreatedAt time.Time
	Name      string
	Email     string
	Phone     string
	Notes     string
	Filename  string
	FileSize  int64
	Estimate  pricing.Result
}

// Store persists quote requests in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore returns a store backed by db. The schema comes from the
// migrations package.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Create assigns an id and creation time to r and inserts it.
func (s *Store) Create(ctx context.Context, r Request) (Request, error) {
	if strings.TrimSpace(r.Filename) == "" {
		return Request{}, fmt.Errorf("%w: filename is required", pricing.ErrInvalidParameter)
	}

	estimate, err := json.Marshal(r.Estimate)
	if err != nil {
		return Request{}, fmt.Errorf("encode estimate: %w", err)
	}

	r.ID = uuid.NewString()
	r.CreatedAt = s.now().UTC().Truncate(time.Second)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quote_requests (
			id, created_at, name, email, phone, notes, filename, file_size, material, colors, copies, estimate_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		r.CreatedAt.Format(timeLayout),
		r.Name,
		r.Email,
		r.Phone,
		r.Notes,
		r.Filename,
		r.FileSize,
		r.Estimate.Material.String(),
		r.Estimate.Colors,
		r.Estimate.Copies,
		string(estimate),
	)
	if err != nil {
		return Request{}, fmt.Errorf("insert quote request: %w", err)
	}
	return r, nil
}

// Get returns the request with the given id.
func (s *Store) Get(ctx context.Context, id string) (Request, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+columns+`
		FROM quote_requests
		WHERE id = ?
	`, id)

	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, fmt.Errorf("query quote request: %w", err)
	}
	return r, nil
}

// List returns requests newest first. A non-empty query filters on name,
// email, filename and notes.
func (s *Store) List(ctx context.Context, query string) ([]Request, error) {
	query = strings.TrimSpace(query)
	search := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+columns+`
		FROM quote_requests
		WHERE (? = '' OR name LIKE ? OR email LIKE ? OR filename LIKE ? OR notes LIKE ?)
		ORDER BY created_at DESC, rowid DESC
	`, query, search, search, search, search)
	if err != nil {
		return nil, fmt.Errorf("query quote requests: %w", err)
	}
	defer rows.Close()

	requests := make([]Request, 0)
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quote requests: %w", err)
	}
	return requests, nil
}

const columns = `id, created_at, name, email, phone, notes, filename, file_size, estimate_json`

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(sc scanner) (Request, error) {
	var (
		r            Request
		createdAt    string
		estimateJSON string
	)
	if err := sc.Scan(&r.ID, &createdAt, &r.Name, &r.Email, &r.Phone, &r.Notes, &r.Filename, &r.FileSize, &estimateJSON); err != nil {
		return Request{}, err
	}

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Request{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	r.CreatedAt = t

	if err := json.Unmarshal([]byte(estimateJSON), &r.Estimate); err != nil {
		return Request{}, fmt.Errorf("decode estimate: %w", err)
	}
	return r, nil
}

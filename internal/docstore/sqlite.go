package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the embedded document-store backend. The hosted document DB is
// reached through the same Store interface; this backend serves the local
// client and the tests.
type SQLite struct {
	db *sql.DB
}

// Open creates a new SQLite connection with WAL mode and recommended pragmas.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Verify connection.
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Create adds a document with a generated id.
func (s *SQLite) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

// Set writes a full document, replacing any existing one at the same id.
func (s *SQLite) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	now := time.Now().UnixMilli()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at`,
		collection, id, string(data), now, now)
	return err
}

// Update merges fields into an existing document.
func (s *SQLite) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`,
		collection, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var existing map[string]any
	if err := json.Unmarshal([]byte(raw), &existing); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	for k, v := range fields {
		existing[k] = v
	}
	data, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	now := time.Now().UnixMilli()
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		string(data), now, collection, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Get reads a single document.
func (s *SQLite) Get(ctx context.Context, collection, id string) (*Document, error) {
	var raw string
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT data, created_at FROM documents WHERE collection = ? AND id = ?`,
		collection, id).Scan(&raw, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	fields := make(map[string]any)
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &Document{ID: id, CreatedAt: createdAt, Fields: fields}, nil
}

// Append adds an entry to a document's sub-collection. The parent must
// exist; the AUTOINCREMENT seq makes append order strict even for entries
// landing in the same millisecond.
func (s *SQLite) Append(ctx context.Context, collection, id, sub string, fields map[string]any) (string, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM documents WHERE collection = ? AND id = ?`,
		collection, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	subID := uuid.NewString()
	now := time.Now().UnixMilli()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO subdocuments (parent_collection, parent_id, collection, id, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		collection, id, sub, subID, string(data), now); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return subID, nil
}

// ListSub returns a sub-collection in append order.
func (s *SQLite) ListSub(ctx context.Context, collection, id, sub string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, data, created_at
		FROM subdocuments
		WHERE parent_collection = ? AND parent_id = ? AND collection = ?
		ORDER BY seq ASC`,
		collection, id, sub)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var docs []Document
	for rows.Next() {
		var d Document
		var raw string
		if err := rows.Scan(&d.Seq, &d.ID, &raw, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Fields = make(map[string]any)
		if err := json.Unmarshal([]byte(raw), &d.Fields); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

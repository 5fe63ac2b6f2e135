// Package sqlite implements repository.Repository on an embedded SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"messprotokoll/internal/domain"
	"messprotokoll/internal/repository"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

// New opens (and if necessary creates) the database at dbPath. Use
// ":memory:" for an ephemeral database.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS protocols (
		id TEXT PRIMARY KEY,
		drawing_number TEXT NOT NULL DEFAULT '',
		customer TEXT NOT NULL DEFAULT '',
		order_no TEXT NOT NULL DEFAULT '',
		position TEXT NOT NULL DEFAULT '',
		data JSON NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_protocols_drawing ON protocols(drawing_number);
	CREATE INDEX IF NOT EXISTS idx_protocols_order ON protocols(order_no);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Close releases the database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// ListProtocols returns all protocols, newest first.
func (r *Repository) ListProtocols(ctx context.Context) ([]*domain.Protocol, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT data FROM protocols ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query protocols: %w", err)
	}
	defer rows.Close()

	var protocols []*domain.Protocol
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan protocol: %w", err)
		}
		p := &domain.Protocol{}
		if err := json.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal protocol data: %w", err)
		}
		protocols = append(protocols, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating protocols: %w", err)
	}
	return protocols, nil
}

// GetProtocol retrieves a single protocol by ID.
func (r *Repository) GetProtocol(ctx context.Context, id string) (*domain.Protocol, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT data FROM protocols WHERE id = ?
	`, id).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query protocol: %w", err)
	}

	p := &domain.Protocol{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal protocol data: %w", err)
	}
	return p, nil
}

// CreateProtocol inserts a new protocol.
func (r *Repository) CreateProtocol(ctx context.Context, p *domain.Protocol) error {
	if p.ID == "" {
		return fmt.Errorf("protocol ID is required")
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal protocol: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO protocols (id, drawing_number, customer, order_no, position, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.DrawingNumber, p.Customer, p.Order, p.Position, data, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert protocol: %w", err)
	}
	return nil
}

// UpdateProtocol replaces an existing protocol.
func (r *Repository) UpdateProtocol(ctx context.Context, p *domain.Protocol) error {
	p.UpdatedAt = time.Now()

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal protocol: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE protocols
		SET drawing_number = ?, customer = ?, order_no = ?, position = ?, data = ?, updated_at = ?
		WHERE id = ?
	`, p.DrawingNumber, p.Customer, p.Order, p.Position, data, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update protocol: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteProtocol removes a protocol by ID.
func (r *Repository) DeleteProtocol(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM protocols WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete protocol: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

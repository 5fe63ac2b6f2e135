package repository

import (
	"context"
	"errors"

	"messprotokoll/internal/domain"
)

// ErrNotFound is returned when a protocol does not exist.
var ErrNotFound = errors.New("protocol not found")

// Repository defines the interface for protocol data access
type Repository interface {
	// Read operations
	ListProtocols(ctx context.Context) ([]*domain.Protocol, error)
	GetProtocol(ctx context.Context, id string) (*domain.Protocol, error)

	// Write operations
	CreateProtocol(ctx context.Context, p *domain.Protocol) error
	UpdateProtocol(ctx context.Context, p *domain.Protocol) error
	DeleteProtocol(ctx context.Context, id string) error

	// Close releases resources
	Close() error
}

// Package catalog reads the service catalog (variants with base duration and
// price). Catalog management itself lives outside the booking core.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx operations the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Variant is a priced, timed service offering.
type Variant struct {
	ID              uuid.UUID
	Name            string
	DurationMinutes int32
	PriceCents      int64
	Active          bool
}

// ErrNotFound is returned when a variant does not exist.
var ErrNotFound = errors.New("catalog: variant not found")

// Repository reads service variants from Postgres.
type Repository struct {
	db Querier
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithQuerier allows injecting mocks for tests.
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{db: q}
}

// GetVariant loads a service variant by id.
func (r *Repository) GetVariant(ctx context.Context, id uuid.UUID) (*Variant, error) {
	query := `
		SELECT id, name, duration_minutes, price_cents, active
		FROM service_variants
		WHERE id = $1
	`
	var v Variant
	err := r.db.QueryRow(ctx, query, id).
		Scan(&v.ID, &v.Name, &v.DurationMinutes, &v.PriceCents, &v.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: load variant: %w", err)
	}
	return &v, nil
}

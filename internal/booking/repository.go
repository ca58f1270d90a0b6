package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// exclusionViolation is the SQLSTATE raised when an insert/update collides
// with the bookings no-overlap exclusion constraint.
const exclusionViolation = "23P01"

// Querier is the subset of pgx operations the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists bookings in Postgres. The bookings table carries an
// exclusion constraint on (staff_id, tstzrange(starts_at, ends_at)) for
// non-cancelled rows, so concurrent overlapping commits resolve to exactly
// one success at the store.
type Repository struct {
	db Querier
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("booking: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithQuerier allows injecting mocks for tests.
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{db: q}
}

const bookingColumns = `id, staff_id, location_id, service_variant_id, customer_id,
	starts_at, ends_at, status, total_price_cents, COALESCE(customer_note, ''),
	created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.StaffID, &b.LocationID, &b.ServiceVariantID, &b.CustomerID,
		&b.StartsAt, &b.EndsAt, &b.Status, &b.TotalPriceCents, &b.CustomerNote,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Insert writes a new booking row. An exclusion-constraint collision surfaces
// as ErrSlotUnavailable.
func (r *Repository) Insert(ctx context.Context, b *Booking) (*Booking, error) {
	query := `
		INSERT INTO bookings (id, staff_id, location_id, service_variant_id, customer_id,
			starts_at, ends_at, status, total_price_cents, customer_note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))
		RETURNING ` + bookingColumns
	row := r.db.QueryRow(ctx, query,
		b.ID, b.StaffID, b.LocationID, b.ServiceVariantID, b.CustomerID,
		b.StartsAt, b.EndsAt, b.Status, b.TotalPriceCents, b.CustomerNote,
	)
	created, err := scanBooking(row)
	if err != nil {
		if isExclusionViolation(err) {
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("booking: insert: %w", err)
	}
	return created, nil
}

// GetByID loads a booking row.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("booking: load: %w", err)
	}
	return b, nil
}

// UpdateWindow moves a booking to a new time range. The exclusion constraint
// is re-checked by the store; the row being moved never conflicts with
// itself because the update replaces its own range.
func (r *Repository) UpdateWindow(ctx context.Context, id uuid.UUID, startsAt, endsAt time.Time) (*Booking, error) {
	query := `
		UPDATE bookings
		SET starts_at = $2, ends_at = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + bookingColumns
	b, err := scanBooking(r.db.QueryRow(ctx, query, id, startsAt, endsAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		if isExclusionViolation(err) {
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("booking: update window: %w", err)
	}
	return b, nil
}

// UpdateStatus transitions a booking to a new status. State-machine checks
// happen in the service; this is the raw write.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Booking, error) {
	query := `
		UPDATE bookings
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + bookingColumns
	b, err := scanBooking(r.db.QueryRow(ctx, query, id, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		if isExclusionViolation(err) {
			// Un-cancelling into an occupied range is a slot conflict.
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("booking: update status: %w", err)
	}
	return b, nil
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == exclusionViolation
}

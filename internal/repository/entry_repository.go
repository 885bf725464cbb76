package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/launchlist/waitlist-service/internal/domain"
)

const uniqueViolation = "23505"

// ErrDuplicateEmail is returned when an entry for the email already exists.
var ErrDuplicateEmail = errors.New("email already on the waiting list")

// EntryRepository defines persistence access for waiting-list entries.
type EntryRepository interface {
	Create(ctx context.Context, entry *domain.WaitlistEntry) error
	GetByEmail(ctx context.Context, email string) (*domain.WaitlistEntry, error)
	List(ctx context.Context, limit, offset int) ([]domain.WaitlistEntry, error)
	Count(ctx context.Context) (int, error)
}

type entryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository returns a Postgres-backed implementation.
func NewEntryRepository(pool *pgxpool.Pool) EntryRepository {
	return &entryRepository{pool: pool}
}

func (r *entryRepository) Create(ctx context.Context, entry *domain.WaitlistEntry) error {
	const query = `
        INSERT INTO waitlist_entries (id, name, email, submitted_at)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		entry.ID,
		entry.Name,
		entry.Email,
		entry.SubmittedAt,
	).Scan(&entry.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateEmail
	}
	return err
}

func (r *entryRepository) GetByEmail(ctx context.Context, email string) (*domain.WaitlistEntry, error) {
	const query = `
        SELECT id, name, email, submitted_at, created_at
        FROM waitlist_entries WHERE email=$1`

	var entry domain.WaitlistEntry
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&entry.ID,
		&entry.Name,
		&entry.Email,
		&entry.SubmittedAt,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *entryRepository) List(ctx context.Context, limit, offset int) ([]domain.WaitlistEntry, error) {
	const query = `
        SELECT id, name, email, submitted_at, created_at
        FROM waitlist_entries
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.WaitlistEntry, 0, limit)
	for rows.Next() {
		var entry domain.WaitlistEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Name,
			&entry.Email,
			&entry.SubmittedAt,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *entryRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM waitlist_entries`
	var n int
	if err := r.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

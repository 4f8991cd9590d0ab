// Package repository implements all storage access for participants.
// It uses pgx directly (no ORM) for transparency and performance.
package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Shivanand-hulikatti/participant-registry/internal/database"
	"github.com/Shivanand-hulikatti/participant-registry/internal/model"
)

// ErrNotFound is returned when a requested participant does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when a write would give two participants the
// same email.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrInvalidID is returned for ids that cannot name a stored participant.
var ErrInvalidID = errors.New("invalid participant id")

const (
	// DefaultPage and DefaultLimit replace absent or non-positive values.
	DefaultPage  = 1
	DefaultLimit = 10

	uniqueViolation = "23505"
)

// Source hands out the live connection. *database.Manager satisfies it.
type Source interface {
	Handle() (database.Querier, error)
}

// ParticipantRepository handles persistence for participants in PostgreSQL.
type ParticipantRepository struct {
	src Source
	now func() time.Time
}

// NewParticipantRepository constructs a ParticipantRepository.
func NewParticipantRepository(src Source) *ParticipantRepository {
	return &ParticipantRepository{src: src, now: time.Now}
}

func (r *ParticipantRepository) db() (database.Querier, error) {
	db, err := r.src.Handle()
	if err != nil {
		return nil, fmt.Errorf("participants: %w", err)
	}
	return db, nil
}

// Create inserts a participant and returns the id storage assigned to it.
// Email uniqueness is left to the unique index so concurrent writers cannot
// both pass a pre-check.
func (r *ParticipantRepository) Create(ctx context.Context, name, email, phone string) (string, error) {
	db, err := r.db()
	if err != nil {
		return "", err
	}

	now := r.now().UTC()
	var id string
	err = db.QueryRow(ctx,
		`INSERT INTO participants (name, email, phone, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)
		 RETURNING id::text`,
		name, email, phone, now,
	).Scan(&id)
	if err != nil {
		if isDuplicateEmail(err) {
			return "", ErrDuplicateEmail
		}
		return "", fmt.Errorf("insert participant: %w", err)
	}
	return id, nil
}

// List returns one newest-first window of participants and the total count.
func (r *ParticipantRepository) List(ctx context.Context, page, limit int) ([]model.Participant, int64, error) {
	db, err := r.db()
	if err != nil {
		return nil, 0, err
	}
	page, limit = normalizeWindow(page, limit)

	items := []model.Participant{}
	if off, ok := windowOffset(page, limit); ok {
		items, err = r.listWindow(ctx, db, limit, off)
		if err != nil {
			return nil, 0, err
		}
	}

	var total int64
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM participants`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count participants: %w", err)
	}
	return items, total, nil
}

func (r *ParticipantRepository) listWindow(ctx context.Context, db database.Querier, limit, offset int) ([]model.Participant, error) {
	rows, err := db.Query(ctx,
		`SELECT id::text, name, email, phone, created_at, updated_at
		 FROM participants
		 ORDER BY created_at DESC, seq DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	items := []model.Participant{}
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return items, nil
}

// FindByID returns a single participant or ErrNotFound.
func (r *ParticipantRepository) FindByID(ctx context.Context, id string) (*model.Participant, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	var p model.Participant
	err = db.QueryRow(ctx,
		`SELECT id::text, name, email, phone, created_at, updated_at
		 FROM participants WHERE id = $1`,
		uid,
	).Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return &p, nil
}

// Update applies the non-nil patch fields and always refreshes updated_at.
// A missing id yields Matched == 0 and no write.
func (r *ParticipantRepository) Update(ctx context.Context, id string, patch model.ParticipantPatch) (model.UpdateResult, error) {
	uid, err := parseID(id)
	if err != nil {
		return model.UpdateResult{}, err
	}
	db, err := r.db()
	if err != nil {
		return model.UpdateResult{}, err
	}

	tag, err := db.Exec(ctx,
		`UPDATE participants
		 SET name       = COALESCE($2, name),
		     email      = COALESCE($3, email),
		     phone      = COALESCE($4, phone),
		     updated_at = $5
		 WHERE id = $1`,
		uid, patch.Name, patch.Email, patch.Phone, r.now().UTC(),
	)
	if err != nil {
		if isDuplicateEmail(err) {
			return model.UpdateResult{}, ErrDuplicateEmail
		}
		return model.UpdateResult{}, fmt.Errorf("update participant: %w", err)
	}
	// updated_at changes on every match, so every matched row is modified.
	n := tag.RowsAffected()
	return model.UpdateResult{Matched: n, Modified: n}, nil
}

// Delete removes the participant permanently and reports how many rows went.
func (r *ParticipantRepository) Delete(ctx context.Context, id string) (int64, error) {
	uid, err := parseID(id)
	if err != nil {
		return 0, err
	}
	db, err := r.db()
	if err != nil {
		return 0, err
	}

	tag, err := db.Exec(ctx, `DELETE FROM participants WHERE id = $1`, uid)
	if err != nil {
		return 0, fmt.Errorf("delete participant: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Count returns the number of stored participants.
func (r *ParticipantRepository) Count(ctx context.Context) (int64, error) {
	db, err := r.db()
	if err != nil {
		return 0, err
	}
	var total int64
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM participants`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return total, nil
}

func parseID(id string) (string, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return uid.String(), nil
}

func normalizeWindow(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return page, limit
}

// windowOffset returns the number of rows before the window. It reports false
// when (page-1)*limit does not fit in an int; no store holds that many rows, so
// such a window is empty.
func windowOffset(page, limit int) (int, bool) {
	if page-1 > math.MaxInt/limit {
		return 0, false
	}
	return (page - 1) * limit, true
}

func isDuplicateEmail(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == uniqueViolation &&
		pgErr.ConstraintName == database.EmailUniqueIndex
}

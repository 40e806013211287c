package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
)


const userColumns = `id, role, username, email, auth_provider, password_hash, external_id, is_verified,
	first_name, last_name, country, avatar, preferred_language, is_archived, is_blocked,
	easy_solved, medium_solved, hard_solved, total_submission, streak, created_at, updated_at`

// updatableColumns are the only keys accepted from entity.Changes.
var updatableColumns = map[string]struct{}{
	entity.FieldUsername:          {},
	entity.FieldEmail:             {},
	entity.FieldPasswordHash:      {},
	entity.FieldIsVerified:        {},
	entity.FieldFirstName:         {},
	entity.FieldLastName:          {},
	entity.FieldAvatar:            {},
	entity.FieldCountry:           {},
	entity.FieldPreferredLanguage: {},
	entity.FieldIsArchived:        {},
	entity.FieldIsBlocked:         {},
	entity.FieldEasySolved:        {},
	entity.FieldMediumSolved:      {},
	entity.FieldHardSolved:        {},
	entity.FieldTotalSubmission:   {},
	entity.FieldStreak:            {},
}

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, s entity.UserSnapshot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`, s.ID, string(s.Role), s.Username, s.Email, string(s.Provider), s.PasswordHash, s.ExternalID, s.IsVerified,
		s.FirstName, s.LastName, s.Country, s.Avatar, s.PreferredLanguage, s.IsArchived, s.IsBlocked,
		s.EasySolved, s.MediumSolved, s.HardSolved, s.TotalSubmission, s.Streak, s.CreatedAt, s.UpdatedAt)
	return mapError(err)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.UserSnapshot, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.UserSnapshot, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

func (r *UserRepository) Update(ctx context.Context, id string, changes *entity.Changes, updatedAt time.Time) (*entity.UserSnapshot, error) {
	query, args, err := buildUpdate(id, changes, updatedAt)
	if err != nil {
		return nil, err
	}
	s, err := r.scanOne(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]entity.UserSnapshot, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]entity.UserSnapshot, 0, limit)
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *s)
	}
	return out, total, rows.Err()
}

func (r *UserRepository) scanOne(ctx context.Context, query string, args ...any) (*entity.UserSnapshot, error) {
	s, err := scanSnapshot(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return s, err
}

func scanSnapshot(row pgx.Row) (*entity.UserSnapshot, error) {
	var (
		s        entity.UserSnapshot
		role     string
		provider string
	)
	if err := row.Scan(&s.ID, &role, &s.Username, &s.Email, &provider, &s.PasswordHash, &s.ExternalID, &s.IsVerified,
		&s.FirstName, &s.LastName, &s.Country, &s.Avatar, &s.PreferredLanguage, &s.IsArchived, &s.IsBlocked,
		&s.EasySolved, &s.MediumSolved, &s.HardSolved, &s.TotalSubmission, &s.Streak, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Role = entity.Role(role)
	s.Provider = entity.AuthProvider(provider)
	return &s, nil
}

// buildUpdate renders an UPDATE for the dirty columns in first-write order.
// updated_at is always written.
func buildUpdate(id string, changes *entity.Changes, updatedAt time.Time) (string, []any, error) {
	keys := changes.Keys()
	sets := make([]string, 0, len(keys)+1)
	args := make([]any, 0, len(keys)+2)
	for _, k := range keys {
		if _, ok := updatableColumns[k]; !ok {
			return "", nil, fmt.Errorf("column %q is not updatable", k)
		}
		v, _ := changes.Get(k)
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", k, len(args)))
	}
	args = append(args, updatedAt)
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), userColumns)
	return query, args, nil
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, repository.ErrDuplicate)
	}
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)

package postgres

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
)

func TestBuildUpdate_OnlyDirtyColumns(t *testing.T) {
	u, err := entity.CreateUser(entity.NewUserParams{
		Role:           entity.RoleUser,
		Username:       "alice",
		Email:          "a@b.com",
		Authentication: entity.NewLocalAuthentication("h"),
		FirstName:      "Alice",
		Country:        "ID",
	})
	require.NoError(t, err)
	name := "alicia"
	require.NoError(t, u.Update(entity.UserPatch{Username: &name, LastName: entity.Null[string]()}))
	require.NoError(t, u.Update(entity.UserPatch{LastName: entity.Set("L")}))

	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	query, args, err := buildUpdate("id-1", u.Changes(), at)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(query, "UPDATE users SET username = $1, last_name = $2, updated_at = $3 WHERE id = $4 RETURNING "))
	assert.Equal(t, []any{"alicia", "L", at, "id-1"}, args)
}

func TestBuildUpdate_EmptyChangesStillTouchesUpdatedAt(t *testing.T) {
	at := time.Now()
	query, args, err := buildUpdate("id-1", &entity.Changes{}, at)
	require.NoError(t, err)
	assert.Contains(t, query, "SET updated_at = $1 WHERE id = $2")
	assert.Equal(t, []any{at, "id-1"}, args)
}

func TestMapError_UniqueViolation(t *testing.T) {
	err := mapError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	assert.True(t, errors.Is(err, repository.ErrDuplicate))
	assert.Nil(t, mapError(nil))
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
)

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique column (email, username) already exists.
var ErrDuplicate = errors.New("duplicate user")

// UserRepository is the persistence port for accounts. It stores snapshots
// and applies dirty-field diffs; it never sees the aggregate itself.
type UserRepository interface {
	Create(ctx context.Context, s entity.UserSnapshot) error
	FindByID(ctx context.Context, id string) (*entity.UserSnapshot, error)
	FindByEmail(ctx context.Context, email string) (*entity.UserSnapshot, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// Update writes only the changed columns plus updated_at and returns the stored row.
	Update(ctx context.Context, id string, changes *entity.Changes, updatedAt time.Time) (*entity.UserSnapshot, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]entity.UserSnapshot, int, error)
}

package main

import (
	"context"
	"errors"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-account-service/config"
	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
	pginfra "github.com/oksasatya/go-account-service/internal/infrastructure/postgres"
	"github.com/oksasatya/go-account-service/pkg/helpers"
)

// seed creates the first admin account. Running it again is a no-op.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	if cfg.SeedAdminPassword == "" {
		logger.Fatal("SEED_ADMIN_PASSWORD is required")
	}

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{MaxConns: 2})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()
	repo := pginfra.NewUserRepository(pool)

	if existing, err := repo.FindByEmail(ctx, cfg.SeedAdminEmail); err == nil {
		logger.WithField("id", existing.ID).Info("admin already exists")
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		logger.WithError(err).Fatal("lookup admin")
	}

	hash, err := helpers.NewBcryptHasher(0).Hash(cfg.SeedAdminPassword)
	if err != nil {
		logger.WithError(err).Fatal("failed to hash password")
	}
	auth := entity.NewLocalAuthentication(hash)
	auth.MarkVerified()

	admin, err := entity.CreateUser(entity.NewUserParams{
		Role:           entity.RoleAdmin,
		Username:       cfg.SeedAdminUsername,
		Email:          cfg.SeedAdminEmail,
		Authentication: auth,
		FirstName:      "Admin",
		Country:        "ID",
	})
	if err != nil {
		logger.WithError(err).Fatal("invalid admin")
	}
	if err := repo.Create(ctx, admin.Snapshot()); err != nil {
		logger.WithError(err).Fatal("failed to seed admin")
	}
	logger.WithFields(map[string]any{"id": admin.ID(), "email": cfg.SeedAdminEmail}).Info("seeded admin")
}

package router

import (
	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/container"
	esinfra "github.com/oksasatya/go-account-service/internal/infrastructure/elasticsearch"
	"github.com/oksasatya/go-account-service/internal/infrastructure/google"
	pginfra "github.com/oksasatya/go-account-service/internal/infrastructure/postgres"
	"github.com/oksasatya/go-account-service/internal/infrastructure/redisstore"
	handlers "github.com/oksasatya/go-account-service/internal/interface/http"
	"github.com/oksasatya/go-account-service/internal/router/modules"
	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/mailer"
)

type Deps struct {
	Service  *application.Service
	Sessions *redisstore.SessionStore
}

// buildDeps assembles the account service from the container singletons.
// Optional integrations are attached only when their client is configured.
func buildDeps() Deps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	rdb := container.GetRedis()

	var notifier application.Notifier = mailer.LogNotifier{Logger: logger}
	if q := container.GetEmailQueue(); q != nil && cfg.MailSendEnabled {
		notifier = mailer.NewQueueNotifier(q, cfg)
	}

	sessions := redisstore.NewSessionStore(rdb)
	svc := application.NewService(
		pginfra.NewUserRepository(container.GetPGPool()),
		application.NewOTPManager(helpers.NewRedisCache(rdb), notifier, cfg.OTPTTL, logger),
		helpers.NewBcryptHasher(cfg.BcryptCost),
		container.GetJWT(),
		sessions,
		logger,
	)
	svc.DefaultLanguage = cfg.DefaultPreferredLanguage
	svc.SessionTTL = cfg.RefreshTTL
	if cfg.GoogleClientID != "" {
		svc.Google = google.NewVerifier(cfg.GoogleClientID)
	}
	if es := container.GetES(); es != nil {
		svc.Index = esinfra.NewUserIndex(es, cfg.ESUsersIndex)
	}
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		svc.Avatars = helpers.NewGCSAvatarStore(gcs, cfg.GCSBucket)
	}
	return Deps{Service: svc, Sessions: sessions}
}

// InitModules wires every feature module into the registry. Call once at startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	deps := buildDeps()
	jwt := container.GetJWT()

	r.Add(
		modules.NewAuthModule(handlers.NewAuthHandler(deps.Service, logger, cfg.CookieDomain, cfg.CookieSecure), deps.Sessions, jwt),
		modules.NewUserModule(handlers.NewUserHandler(deps.Service, logger, cfg.CookieDomain, cfg.CookieSecure), deps.Sessions, jwt),
		modules.NewAdminModule(handlers.NewAdminHandler(deps.Service, logger), deps.Sessions, jwt),
		modules.NewOpsModule(cfg.MetricsEnabled),
	)
}

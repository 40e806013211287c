package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/container"
	handlers "github.com/oksasatya/go-account-service/internal/interface/http"
	"github.com/oksasatya/go-account-service/internal/interface/middleware"
)

// UserModule wires the signed-in user's routes.
// Protected: /me (profile, avatar, password, email change) and /users/search.
type UserModule struct {
	Handler  *handlers.UserHandler
	Sessions application.SessionStore
	JWT      middleware.AccessTokenParser
}

func NewUserModule(h *handlers.UserHandler, sessions application.SessionStore, jwt middleware.AccessTokenParser) *UserModule {
	return &UserModule{Handler: h, Sessions: sessions, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	auth := rg.Group("/")
	auth.Use(
		middleware.Auth(m.Sessions, m.JWT),
		middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/me", m.Handler.GetMe)
		auth.PATCH("/me", m.Handler.UpdateMe)
		auth.DELETE("/me", m.Handler.DeleteMe)
		auth.POST("/me/avatar", m.Handler.UploadAvatar)
		auth.POST("/me/password", m.Handler.ChangePassword)

		emailLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByUserID(), nil)
		auth.POST("/me/email/change", emailLimiter, m.Handler.RequestEmailChange)
		auth.POST("/me/email/confirm", m.Handler.ConfirmEmailChange)

		auth.GET("/users/search", m.Handler.Search)
	}
}

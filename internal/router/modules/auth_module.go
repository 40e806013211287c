package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/container"
	handlers "github.com/oksasatya/go-account-service/internal/interface/http"
	"github.com/oksasatya/go-account-service/internal/interface/middleware"
)

// AuthModule: public sign-up, sign-in and recovery under /auth.
type AuthModule struct {
	Handler  *handlers.AuthHandler
	Sessions application.SessionStore
	JWT      middleware.AccessTokenParser
}

func NewAuthModule(h *handlers.AuthHandler, sessions application.SessionStore, jwt middleware.AccessTokenParser) *AuthModule {
	return &AuthModule{Handler: h, Sessions: sessions, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	// code-sending endpoints are the expensive ones
	sendLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	confirmLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByIP(), nil)

	g := rg.Group("/auth")
	g.POST("/signup", sendLimiter, m.Handler.Signup)
	g.POST("/signup/resend", sendLimiter, m.Handler.ResendSignupCode)
	g.POST("/signup/verify", confirmLimiter, m.Handler.VerifySignup)
	g.POST("/login", loginLimiter, m.Handler.Login)
	g.POST("/google", loginLimiter, m.Handler.GoogleLogin)
	g.POST("/refresh", refreshLimiter, m.Handler.Refresh)
	g.POST("/password/forgot", sendLimiter, m.Handler.ForgotPassword)
	g.POST("/password/reset", confirmLimiter, m.Handler.ResetPassword)

	g.POST("/logout", middleware.Auth(m.Sessions, m.JWT), m.Handler.Logout)
}

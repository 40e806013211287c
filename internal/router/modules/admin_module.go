package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/domain/entity"
	handlers "github.com/oksasatya/go-account-service/internal/interface/http"
	"github.com/oksasatya/go-account-service/internal/interface/middleware"
)

type AdminModule struct {
	Handler  *handlers.AdminHandler
	Sessions application.SessionStore
	JWT      middleware.AccessTokenParser
}

func NewAdminModule(h *handlers.AdminHandler, sessions application.SessionStore, jwt middleware.AccessTokenParser) *AdminModule {
	return &AdminModule{Handler: h, Sessions: sessions, JWT: jwt}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(middleware.Auth(m.Sessions, m.JWT), middleware.RequireRole(entity.RoleAdmin))
	{
		admin.GET("/users", m.Handler.ListUsers)
		admin.POST("/users/:id/block", m.Handler.Block)
		admin.POST("/users/:id/unblock", m.Handler.Unblock)
		admin.DELETE("/users/:id", m.Handler.DeleteUser)
	}
}

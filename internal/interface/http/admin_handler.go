package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/pkg/response"
)

// AdminHandler serves account administration; routes are behind RequireRole(ADMIN).
type AdminHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewAdminHandler(svc *application.Service, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Logger: logger}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	users, total, err := h.Svc.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, presentUsers(users), "users", gin.H{"total": total, "limit": limit, "offset": offset})
}

func (h *AdminHandler) Block(c *gin.Context)   { h.setBlocked(c, true) }
func (h *AdminHandler) Unblock(c *gin.Context) { h.setBlocked(c, false) }

func (h *AdminHandler) setBlocked(c *gin.Context, blocked bool) {
	u, err := h.Svc.SetBlocked(c.Request.Context(), c.Param("id"), blocked)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, presentUser(u), "user updated", nil)
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if err := h.Svc.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "user deleted", nil)
}

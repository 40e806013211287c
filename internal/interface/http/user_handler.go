package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/response"
)

const maxAvatarBytes = 5 << 20

// UserHandler serves the signed-in user's own account under /me, plus search.
type UserHandler struct {
	Svc     *application.Service
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewUserHandler(svc *application.Service, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

// updateProfileRequest: a JSON null on a nullable field clears it.
type updateProfileRequest struct {
	Username          *string                 `json:"username" binding:"omitempty,username"`
	FirstName         *string                 `json:"first_name" binding:"omitempty,min=1,max=64"`
	LastName          entity.Nullable[string] `json:"last_name"`
	Country           *string                 `json:"country" binding:"omitempty,country"`
	Avatar            entity.Nullable[string] `json:"avatar"`
	PreferredLanguage entity.Nullable[string] `json:"preferred_language"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required,max=72"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

func (h *UserHandler) GetMe(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, presentUser(u), "profile", nil)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), c.GetString("userID"), application.ProfileInput{
		Username:          req.Username,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Country:           req.Country,
		Avatar:            req.Avatar,
		PreferredLanguage: req.PreferredLanguage,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, presentUser(u), "profile updated", nil)
}

func (h *UserHandler) DeleteMe(c *gin.Context) {
	if err := h.Svc.DeleteAccount(c.Request.Context(), c.GetString("userID")); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "account deleted", nil)
}

// UploadAvatar expects a multipart form with the image in field "avatar".
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAvatarBytes+1024)
	fh, err := c.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "avatar file is required", nil)
		return
	}
	if fh.Size > maxAvatarBytes {
		response.Error[any](c, http.StatusRequestEntityTooLarge, "avatar too large", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "cannot read avatar", nil)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UploadAvatar(c.Request.Context(), c.GetString("userID"), f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"avatar": url}, "avatar updated", nil)
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), c.GetString("userID"), req.OldPassword, req.NewPassword); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"changed": true}, "password changed", nil)
}

func (h *UserHandler) RequestEmailChange(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Svc.RequestEmailChange(c.Request.Context(), c.GetString("userID"), req.Email); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"sent": true}, "code sent to the new address", nil)
}

func (h *UserHandler) ConfirmEmailChange(c *gin.Context) {
	var req codeRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.Svc.ConfirmEmailChange(c.Request.Context(), c.GetString("userID"), req.Email, req.Code)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, presentUser(u), "email changed", nil)
}

func (h *UserHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	hits, err := h.Svc.SearchUsers(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}

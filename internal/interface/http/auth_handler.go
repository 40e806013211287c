package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/response"
	"github.com/oksasatya/go-account-service/pkg/validation"
)

// AuthHandler serves the public sign-up, sign-in and recovery endpoints.
type AuthHandler struct {
	Svc     *application.Service
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAuthHandler(svc *application.Service, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type signupRequest struct {
	Username  string  `json:"username" binding:"required,username"`
	Email     string  `json:"email" binding:"required,max=254"`
	Password  string  `json:"password" binding:"required,pwd"`
	FirstName string  `json:"first_name" binding:"required,max=64"`
	LastName  *string `json:"last_name" binding:"omitempty,max=64"`
	Country   string  `json:"country" binding:"required,country"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,max=254"`
}

type codeRequest struct {
	Email string `json:"email" binding:"required,max=254"`
	Code  string `json:"code" binding:"required,otp"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,max=254"`
	Password string `json:"password" binding:"required,max=72"`
}

type googleLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required,max=254"`
	Code        string `json:"code" binding:"required,otp"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return false
	}
	return true
}

// codeNotSent reports errors after which the account exists but no code reached the user.
func codeNotSent(err error) bool {
	return errors.Is(err, application.ErrNotificationDeliveryFailed) || errors.Is(err, application.ErrOTPCacheUnavailable)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.Svc.Signup(c.Request.Context(), application.SignupInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Country:   req.Country,
	})
	if err != nil && !(u != nil && codeNotSent(err)) {
		writeError(c, h.Logger, err)
		return
	}
	sent := err == nil
	if !sent && h.Logger != nil {
		h.Logger.WithError(err).WithField("user_id", u.ID()).Warn("signup code not delivered")
	}
	response.Success(c, http.StatusCreated, gin.H{"user": presentUser(u), "code_sent": sent}, "account created", nil)
}

func (h *AuthHandler) VerifySignup(c *gin.Context) {
	var req codeRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.Svc.VerifySignup(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, presentUser(u), "email verified", nil)
}

func (h *AuthHandler) ResendSignupCode(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Svc.ResendSignupCode(c.Request.Context(), req.Email); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"sent": true}, "code sent", nil)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	u, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.signedIn(c, u, pair, "login successful")
}

func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req googleLoginRequest
	if !bindJSON(c, &req) {
		return
	}
	u, pair, err := h.Svc.LoginWithGoogle(c.Request.Context(), req.IDToken)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.signedIn(c, u, pair, "login successful")
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(helpers.RefreshCookie)
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, _, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredentials) || errors.Is(err, application.ErrAccountBlocked) {
			h.Cookies.Clear(c)
		}
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, gin.H{"refreshed": true}, "token refreshed", expiries(pair))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.Svc.Logout(c.Request.Context(), c.GetString("userID")); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

// ForgotPassword answers the same way whether or not the account exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "if the account exists, a code has been sent", nil)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Svc.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "password updated", nil)
}

func (h *AuthHandler) signedIn(c *gin.Context, u *entity.User, pair application.TokenPair, msg string) {
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, presentUser(u), msg, expiries(pair))
}

func expiries(pair application.TokenPair) gin.H {
	return gin.H{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry}
}

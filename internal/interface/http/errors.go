package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/pkg/response"
)

type errorMapping struct {
	err     error
	status  int
	message string
}

// Order matters: the first match wins.
var errorTable = []errorMapping{
	{entity.ErrInvalidEmail, http.StatusBadRequest, "invalid email"},
	{entity.ErrCannotSetPassword, http.StatusConflict, "account has no password, sign in with its provider"},
	{entity.ErrMissingOAuthID, http.StatusBadRequest, "missing external account id"},
	{application.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	{application.ErrInvalidOTP, http.StatusBadRequest, "invalid or expired code"},
	{application.ErrEmailNotVerified, http.StatusForbidden, "email not verified"},
	{application.ErrAccountBlocked, http.StatusForbidden, "account blocked"},
	{application.ErrProviderMismatch, http.StatusConflict, "account uses a different sign-in method"},
	{application.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{application.ErrEmailTaken, http.StatusConflict, "email already registered"},
	{application.ErrUsernameTaken, http.StatusConflict, "username already taken"},
	{application.ErrAlreadyVerified, http.StatusConflict, "account already verified"},
	{application.ErrOTPCacheUnavailable, http.StatusServiceUnavailable, "could not issue a code, try again later"},
	{application.ErrNotificationDeliveryFailed, http.StatusBadGateway, "could not send the code, try again later"},
	{application.ErrUnavailable, http.StatusNotImplemented, "feature not configured"},
}

// statusFor maps a service error to an HTTP status and public message.
func statusFor(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, "internal error"
}

func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		}).Error("request failed")
	}
	response.Error[any](c, status, msg, nil)
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/response"
)

// Context keys set by Auth.
const (
	CtxUserID    = "userID"
	CtxUserRole  = "userRole"
	CtxUserEmail = "userEmail"
)

// AccessTokenParser validates access tokens.
type AccessTokenParser interface {
	ParseAccessToken(token string) (*helpers.Claims, error)
}

// Auth validates the access token cookie and requires the token's session to
// be the user's current session.
func Auth(sessions application.SessionStore, tokens AccessTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(helpers.AccessCookie)
		if err != nil || token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		claims, err := tokens.ParseAccessToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid access token", nil)
			return
		}

		sess, err := sessions.Get(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Abort(c, http.StatusServiceUnavailable, "session store unavailable", nil)
			return
		}
		if sess == nil || sess.SessionID != claims.SessionID {
			response.Abort(c, http.StatusUnauthorized, "session not found", nil)
			return
		}

		c.Set(CtxUserID, sess.UserID)
		c.Set(CtxUserRole, sess.Role)
		c.Set(CtxUserEmail, sess.Email)
		c.Next()
	}
}

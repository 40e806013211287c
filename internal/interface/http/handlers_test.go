package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

type fakeRepo struct {
	users map[string]entity.UserSnapshot
}

func (r *fakeRepo) Create(context.Context, entity.UserSnapshot) error { return nil }
func (r *fakeRepo) FindByID(_ context.Context, id string) (*entity.UserSnapshot, error) {
	s, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}
func (r *fakeRepo) FindByEmail(context.Context, string) (*entity.UserSnapshot, error) {
	return nil, repository.ErrNotFound
}
func (r *fakeRepo) ExistsByUsername(context.Context, string) (bool, error) { return false, nil }
func (r *fakeRepo) Update(context.Context, string, *entity.Changes, time.Time) (*entity.UserSnapshot, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeRepo) Delete(context.Context, string) error { return nil }
func (r *fakeRepo) List(_ context.Context, limit, offset int) ([]entity.UserSnapshot, int, error) {
	out := make([]entity.UserSnapshot, 0, len(r.users))
	for _, s := range r.users {
		out = append(out, s)
	}
	return out, len(r.users), nil
}

func snapshot(id string) entity.UserSnapshot {
	zero, no, lang, hash := 0, false, "go", "h"
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return entity.UserSnapshot{
		ID: id, Role: entity.RoleUser, Username: "alice", Email: "a@b.com",
		Provider: entity.ProviderLocal, PasswordHash: &hash, IsVerified: true,
		FirstName: "Alice", Country: "ID", PreferredLanguage: &lang,
		IsArchived: &no, IsBlocked: &no, EasySolved: &zero, MediumSolved: &zero,
		HardSolved: &zero, TotalSubmission: &zero, Streak: &zero,
		CreatedAt: ts, UpdatedAt: ts,
	}
}

func newService() *application.Service {
	return &application.Service{
		Repo:   &fakeRepo{users: map[string]entity.UserSnapshot{"u-1": snapshot("u-1")}},
		Logger: logrus.New(),
	}
}

func asUser(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", id)
		c.Next()
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{application.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("login: %w", application.ErrAccountBlocked), http.StatusForbidden},
		{application.ErrInvalidOTP, http.StatusBadRequest},
		{application.ErrEmailTaken, http.StatusConflict},
		{application.ErrUserNotFound, http.StatusNotFound},
		{application.ErrOTPCacheUnavailable, http.StatusServiceUnavailable},
		{application.ErrNotificationDeliveryFailed, http.StatusBadGateway},
		{entity.ErrCannotSetPassword, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, msg := statusFor(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.NotEmpty(t, msg)
	}
}

func TestPresentUser(t *testing.T) {
	u, err := entity.RehydrateUser(snapshot("u-1"), entity.RestoreLocalAuthentication("h", true))
	require.NoError(t, err)

	out := presentUser(u)
	assert.Equal(t, "u-1", out.ID)
	assert.Equal(t, "USER", out.Role)
	assert.Equal(t, "LOCAL", out.Provider)
	require.NotNil(t, out.Progress)
	assert.Equal(t, "go", *out.Progress.PreferredLanguage)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
}

func TestBindingRejectsInvalidPayloads(t *testing.T) {
	h := &AuthHandler{}
	r := gin.New()
	r.POST("/signup", h.Signup)
	r.POST("/verify", h.VerifySignup)

	cases := []struct {
		path, body, field string
	}{
		{"/signup", `{"username":"a","email":"a@b.com","password":"longenough","first_name":"A","country":"ID"}`, "username"},
		{"/signup", `{"username":"alice","email":"a@b.com","password":"short","first_name":"A","country":"ID"}`, "password"},
		{"/signup", `{"username":"alice","email":"a@b.com","password":"longenough","first_name":"A","country":"IDN"}`, "country"},
		{"/verify", `{"email":"a@b.com","code":"12ab56"}`, "code"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, tc.body)
		body := decode(t, w)
		assert.Equal(t, false, body["success"])
		details, _ := body["error"].(map[string]any)
		assert.Contains(t, details, tc.field, tc.body)
	}
}

func TestGetMe(t *testing.T) {
	h := &UserHandler{Svc: newService(), Logger: logrus.New()}
	r := gin.New()
	r.GET("/me", asUser("u-1"), h.GetMe)
	r.GET("/ghost", asUser("u-404"), h.GetMe)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "alice", data["username"])
	assert.Equal(t, "a@b.com", data["email"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ghost", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchWithoutIndexReturnsEmpty(t *testing.T) {
	h := &UserHandler{Svc: newService(), Logger: logrus.New()}
	r := gin.New()
	r.GET("/users/search", h.Search)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/search?q=ali", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(0), body["meta"].(map[string]any)["count"])
}

func TestAdminListUsers(t *testing.T) {
	h := NewAdminHandler(newService(), logrus.New())
	r := gin.New()
	r.GET("/admin/users", h.ListUsers)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/users?limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["data"], 1)
	assert.Equal(t, float64(1), body["meta"].(map[string]any)["total"])
}

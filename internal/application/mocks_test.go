package application

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/pkg/helpers"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, s entity.UserSnapshot) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockRepo) FindByID(ctx context.Context, id string) (*entity.UserSnapshot, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*entity.UserSnapshot)
	return s, args.Error(1)
}

func (m *mockRepo) FindByEmail(ctx context.Context, email string) (*entity.UserSnapshot, error) {
	args := m.Called(ctx, email)
	s, _ := args.Get(0).(*entity.UserSnapshot)
	return s, args.Error(1)
}

func (m *mockRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

// Update accepts either a snapshot or a func computing one from the changes.
func (m *mockRepo) Update(ctx context.Context, id string, changes *entity.Changes, updatedAt time.Time) (*entity.UserSnapshot, error) {
	args := m.Called(ctx, id, changes, updatedAt)
	if fn, ok := args.Get(0).(func(*entity.Changes) *entity.UserSnapshot); ok {
		return fn(changes), args.Error(1)
	}
	s, _ := args.Get(0).(*entity.UserSnapshot)
	return s, args.Error(1)
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepo) List(ctx context.Context, limit, offset int) ([]entity.UserSnapshot, int, error) {
	args := m.Called(ctx, limit, offset)
	s, _ := args.Get(0).([]entity.UserSnapshot)
	return s, args.Int(1), args.Error(2)
}

// plainHasher "hashes" by prefixing, so tests can reason about stored values.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "h:" + plain, nil }
func (plainHasher) Compare(plain, hash string) bool  { return hash == "h:"+plain }

type mockTokens struct {
	mock.Mock
}

func (m *mockTokens) GenerateAccessToken(userID, sessionID, role string) (string, time.Time, error) {
	args := m.Called(userID, sessionID, role)
	return args.String(0), time.Now().Add(time.Hour), args.Error(1)
}

func (m *mockTokens) GenerateRefreshToken(userID, sessionID, role string) (string, time.Time, error) {
	args := m.Called(userID, sessionID, role)
	return args.String(0), time.Now().Add(24 * time.Hour), args.Error(1)
}

func (m *mockTokens) ParseRefreshToken(token string) (*helpers.Claims, error) {
	args := m.Called(token)
	c, _ := args.Get(0).(*helpers.Claims)
	return c, args.Error(1)
}

// memSessions is an in-memory SessionStore.
type memSessions struct {
	data map[string]Session
}

func newMemSessions() *memSessions { return &memSessions{data: map[string]Session{}} }

func (s *memSessions) Save(_ context.Context, sess Session, _ time.Duration) error {
	s.data[sess.UserID] = sess
	return nil
}

func (s *memSessions) Get(_ context.Context, userID string) (*Session, error) {
	sess, ok := s.data[userID]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (s *memSessions) Delete(_ context.Context, userID string) error {
	delete(s.data, userID)
	return nil
}

type mockIndex struct {
	mock.Mock
}

func (m *mockIndex) IndexUser(ctx context.Context, u *entity.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockIndex) RemoveUser(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockIndex) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	args := m.Called(ctx, q, size)
	r, _ := args.Get(0).([]map[string]any)
	return r, args.Error(1)
}

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, idToken string) (*OAuthIdentity, error) {
	args := m.Called(ctx, idToken)
	id, _ := args.Get(0).(*OAuthIdentity)
	return id, args.Error(1)
}

type mockAvatars struct {
	mock.Mock
}

func (m *mockAvatars) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	args := m.Called(ctx, userID, r, filename, contentType)
	return args.String(0), args.Error(1)
}

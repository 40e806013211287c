package application

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	repo "github.com/oksasatya/go-account-service/internal/domain/repository"
)

// Service orchestrates the account flows. It loads or creates the User
// aggregate, drives the OTPManager, and persists the aggregate's changes.
type Service struct {
	Repo     repo.UserRepository
	OTP      *OTPManager
	Hasher   PasswordHasher
	Tokens   TokenIssuer
	Sessions SessionStore
	Logger   *logrus.Logger

	// Optional collaborators; nil disables the feature.
	Google  OAuthVerifier
	Index   UserIndex
	Avatars AvatarStore

	DefaultLanguage string
	SessionTTL      time.Duration
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func NewService(users repo.UserRepository, otp *OTPManager, hasher PasswordHasher, tokens TokenIssuer, sessions SessionStore, logger *logrus.Logger) *Service {
	return &Service{
		Repo:            users,
		OTP:             otp,
		Hasher:          hasher,
		Tokens:          tokens,
		Sessions:        sessions,
		Logger:          logger,
		DefaultLanguage: entity.DefaultPreferredLanguage,
		SessionTTL:      24 * time.Hour,
	}
}

type SignupInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  *string
	Country   string
}

// Signup registers a local account and sends a SIGNUP code. When the account
// was stored but the code could not be cached or sent, the user is returned
// together with the error so the caller can offer a resend.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*entity.User, error) {
	email, err := entity.NewEmail(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, err
	}
	if _, err := s.Repo.FindByEmail(ctx, email.Address()); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	taken, err := s.Repo.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	lang := s.DefaultLanguage
	u, err := entity.CreateUser(entity.NewUserParams{
		Role:              entity.RoleUser,
		Username:          in.Username,
		Email:             email.Address(),
		Authentication:    entity.NewLocalAuthentication(hash),
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Country:           in.Country,
		PreferredLanguage: &lang,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, u.Snapshot()); err != nil {
		return nil, mapRepoError(err)
	}
	s.index(ctx, u)

	if err := s.OTP.Issue(ctx, email.Address(), PurposeSignup); err != nil {
		return u, err
	}
	return u, nil
}

// ResendSignupCode issues a fresh SIGNUP code, replacing the previous one.
func (s *Service) ResendSignupCode(ctx context.Context, email string) error {
	u, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.IsVerified() {
		return ErrAlreadyVerified
	}
	return s.OTP.Issue(ctx, u.Email().Address(), PurposeSignup)
}

func (s *Service) VerifySignup(ctx context.Context, email, code string) (*entity.User, error) {
	u, err := s.findByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidOTP
	}
	if err != nil {
		return nil, err
	}
	if u.IsVerified() {
		return nil, ErrAlreadyVerified
	}
	subject := u.Email().Address()
	if !s.OTP.Verify(ctx, subject, PurposeSignup, code) {
		return nil, ErrInvalidOTP
	}
	verified := true
	if err := u.Update(entity.UserPatch{IsVerified: &verified}); err != nil {
		return nil, err
	}
	saved, err := s.save(ctx, u)
	if err != nil {
		return nil, err
	}
	s.clearOTP(ctx, subject, PurposeSignup)
	return saved, nil
}

// Login authenticates a local account and opens a new session.
func (s *Service) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.findByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return nil, TokenPair{}, err
	}
	local, ok := u.Authentication().(*entity.LocalAuthentication)
	if !ok {
		return nil, TokenPair{}, ErrProviderMismatch
	}
	if !s.Hasher.Compare(password, local.PasswordHash()) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if !u.IsVerified() {
		return nil, TokenPair{}, ErrEmailNotVerified
	}
	if u.IsBlocked() {
		return nil, TokenPair{}, ErrAccountBlocked
	}
	pair, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// LoginWithGoogle signs in with a Google ID token, registering the account on
// first sight.
func (s *Service) LoginWithGoogle(ctx context.Context, idToken string) (*entity.User, TokenPair, error) {
	if s.Google == nil {
		return nil, TokenPair{}, ErrUnavailable
	}
	id, err := s.Google.Verify(ctx, idToken)
	if err != nil {
		return nil, TokenPair{}, err
	}

	u, err := s.findByEmail(ctx, id.Email)
	switch {
	case err == nil:
		oauth, ok := u.Authentication().(*entity.OAuthAuthentication)
		if !ok || oauth.Provider() != id.Provider || oauth.ExternalID() != id.ExternalID {
			return nil, TokenPair{}, ErrProviderMismatch
		}
	case errors.Is(err, ErrUserNotFound):
		if u, err = s.registerOAuth(ctx, id); err != nil {
			return nil, TokenPair{}, err
		}
	default:
		return nil, TokenPair{}, err
	}

	if u.IsBlocked() {
		return nil, TokenPair{}, ErrAccountBlocked
	}
	pair, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

func (s *Service) registerOAuth(ctx context.Context, id *OAuthIdentity) (*entity.User, error) {
	auth, err := entity.NewOAuthAuthentication(id.Provider, id.ExternalID)
	if err != nil {
		return nil, err
	}
	username, err := s.uniqueUsername(ctx, id.Email)
	if err != nil {
		return nil, err
	}
	first := id.FirstName
	if first == "" {
		first = username
	}
	lang := s.DefaultLanguage
	u, err := entity.CreateUser(entity.NewUserParams{
		Role:              entity.RoleUser,
		Username:          username,
		Email:             id.Email,
		Authentication:    auth,
		FirstName:         first,
		LastName:          optional(id.LastName),
		Avatar:            optional(id.Picture),
		PreferredLanguage: &lang,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, u.Snapshot()); err != nil {
		return nil, mapRepoError(err)
	}
	s.index(ctx, u)
	return u, nil
}

const maxUsernameAttempts = 5

// uniqueUsername derives a free username from the email's local part.
func (s *Service) uniqueUsername(ctx context.Context, email string) (string, error) {
	base := sanitizeUsername(email)
	candidate := base
	for i := 0; i < maxUsernameAttempts; i++ {
		taken, err := s.Repo.ExistsByUsername(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		n, err := rand.Int(rand.Reader, big.NewInt(10000))
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s%04d", base, n.Int64())
	}
	return base + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8], nil
}

func sanitizeUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local, _, _ = strings.Cut(local, "+")
	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}

// Refresh rotates the session id and tokens. The refresh token must belong
// to the user's current session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.Tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	sess, err := s.Sessions.Get(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, "", err
	}
	if sess == nil || sess.SessionID != claims.SessionID {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.findByID(ctx, claims.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, "", err
	}
	if u.IsBlocked() {
		return TokenPair{}, "", ErrAccountBlocked
	}
	pair, err := s.issueTokens(ctx, u)
	if err != nil {
		return TokenPair{}, "", err
	}
	return pair, u.ID(), nil
}

func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.Sessions.Delete(ctx, userID)
}

func (s *Service) issueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	role := u.Role().String()
	access, aexp, err := s.Tokens.GenerateAccessToken(u.ID(), sid, role)
	if err != nil {
		s.warn(err, "generate access token failed", logrus.Fields{"user_id": u.ID()})
		return TokenPair{}, err
	}
	refresh, rexp, err := s.Tokens.GenerateRefreshToken(u.ID(), sid, role)
	if err != nil {
		s.warn(err, "generate refresh token failed", logrus.Fields{"user_id": u.ID()})
		return TokenPair{}, err
	}
	sess := Session{
		UserID:    u.ID(),
		SessionID: sid,
		Email:     u.Email().Address(),
		Username:  u.Username(),
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Sessions.Save(ctx, sess, s.SessionTTL); err != nil {
		return TokenPair{}, fmt.Errorf("save session: %w", err)
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// ForgotPassword sends a RESET_PASSWORD code. Unknown addresses succeed
// silently so the endpoint cannot be used to probe for accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.findByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, ok := u.Authentication().(*entity.LocalAuthentication); !ok {
		return entity.ErrCannotSetPassword
	}
	return s.OTP.Issue(ctx, u.Email().Address(), PurposeResetPassword)
}

// ResetPassword sets a new password after a RESET_PASSWORD code check and
// ends the user's session.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	u, err := s.findByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return ErrInvalidOTP
	}
	if err != nil {
		return err
	}
	subject := u.Email().Address()
	if !s.OTP.Verify(ctx, subject, PurposeResetPassword, code) {
		return ErrInvalidOTP
	}
	if err := s.setPassword(ctx, u, newPassword); err != nil {
		return err
	}
	s.clearOTP(ctx, subject, PurposeResetPassword)
	if err := s.Sessions.Delete(ctx, u.ID()); err != nil {
		s.warn(err, "drop session after password reset failed", logrus.Fields{"user_id": u.ID()})
	}
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := s.findByID(ctx, userID)
	if err != nil {
		return err
	}
	local, ok := u.Authentication().(*entity.LocalAuthentication)
	if !ok {
		return entity.ErrCannotSetPassword
	}
	if !s.Hasher.Compare(oldPassword, local.PasswordHash()) {
		return ErrInvalidCredentials
	}
	return s.setPassword(ctx, u, newPassword)
}

func (s *Service) setPassword(ctx context.Context, u *entity.User, plain string) error {
	if _, ok := u.Authentication().(*entity.LocalAuthentication); !ok {
		return entity.ErrCannotSetPassword
	}
	hash, err := s.Hasher.Hash(plain)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := u.Update(entity.UserPatch{Password: &hash}); err != nil {
		return err
	}
	_, err = s.save(ctx, u)
	return err
}

// RequestEmailChange sends a CHANGE_EMAIL code to the new address.
func (s *Service) RequestEmailChange(ctx context.Context, userID, newEmail string) error {
	email, err := entity.NewEmail(strings.TrimSpace(newEmail))
	if err != nil {
		return err
	}
	u, err := s.findByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.Email().Address() == email.Address() {
		return ErrEmailTaken
	}
	if _, err := s.Repo.FindByEmail(ctx, email.Address()); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	return s.OTP.Issue(ctx, email.Address(), PurposeChangeEmail)
}

func (s *Service) ConfirmEmailChange(ctx context.Context, userID, newEmail, code string) (*entity.User, error) {
	email, err := entity.NewEmail(strings.TrimSpace(newEmail))
	if err != nil {
		return nil, err
	}
	u, err := s.findByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	subject := email.Address()
	if !s.OTP.Verify(ctx, subject, PurposeChangeEmail, code) {
		return nil, ErrInvalidOTP
	}
	if err := u.Update(entity.UserPatch{Email: &subject}); err != nil {
		return nil, err
	}
	saved, err := s.save(ctx, u)
	if err != nil {
		return nil, err
	}
	s.clearOTP(ctx, subject, PurposeChangeEmail)
	return saved, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	return s.findByID(ctx, userID)
}

// ProfileInput is the self-service subset of UserPatch.
type ProfileInput struct {
	Username          *string
	FirstName         *string
	LastName          entity.Nullable[string]
	Country           *string
	Avatar            entity.Nullable[string]
	PreferredLanguage entity.Nullable[string]
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*entity.User, error) {
	u, err := s.findByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Username != nil && *in.Username != u.Username() {
		taken, err := s.Repo.ExistsByUsername(ctx, *in.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrUsernameTaken
		}
	}
	err = u.Update(entity.UserPatch{
		Username:          in.Username,
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Country:           in.Country,
		Avatar:            in.Avatar,
		PreferredLanguage: in.PreferredLanguage,
	})
	if err != nil {
		return nil, err
	}
	return s.save(ctx, u)
}

func (s *Service) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	if s.Avatars == nil {
		return "", ErrUnavailable
	}
	u, err := s.findByID(ctx, userID)
	if err != nil {
		return "", err
	}
	url, err := s.Avatars.UploadAvatar(ctx, userID, r, filename, contentType)
	if err != nil {
		return "", err
	}
	if err := u.Update(entity.UserPatch{Avatar: entity.Set(url)}); err != nil {
		return "", err
	}
	if _, err := s.save(ctx, u); err != nil {
		return "", err
	}
	return url, nil
}

// DeleteAccount removes the user row, its session and its search document.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.Repo.Delete(ctx, userID); err != nil {
		return mapRepoError(err)
	}
	if err := s.Sessions.Delete(ctx, userID); err != nil {
		s.warn(err, "drop session failed", logrus.Fields{"user_id": userID})
	}
	if s.Index != nil {
		if err := s.Index.RemoveUser(ctx, userID); err != nil {
			s.warn(err, "es remove failed", logrus.Fields{"user_id": userID})
		}
	}
	return nil
}

const (
	defaultSearchSize = 10
	maxSearchSize     = 50
)

func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	q = strings.TrimSpace(q)
	if s.Index == nil || q == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > maxSearchSize {
		size = defaultSearchSize
	}
	return s.Index.SearchUsers(ctx, q, size)
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListUsers pages through all accounts. It is an admin operation.
func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*entity.User, int, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	snaps, total, err := s.Repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*entity.User, 0, len(snaps))
	for i := range snaps {
		u, err := hydrate(&snaps[i])
		if err != nil {
			return nil, 0, fmt.Errorf("user %s: %w", snaps[i].ID, err)
		}
		out = append(out, u)
	}
	return out, total, nil
}

// SetBlocked blocks or unblocks a player. Admin accounts carry no gameplay
// state, so the call is a no-op for them. Blocking ends the session.
func (s *Service) SetBlocked(ctx context.Context, userID string, blocked bool) (*entity.User, error) {
	u, err := s.findByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.Update(entity.UserPatch{IsBlocked: &blocked}); err != nil {
		return nil, err
	}
	saved, err := s.save(ctx, u)
	if err != nil {
		return nil, err
	}
	if blocked && saved.IsBlocked() {
		if err := s.Sessions.Delete(ctx, userID); err != nil {
			s.warn(err, "drop session of blocked user failed", logrus.Fields{"user_id": userID})
		}
	}
	return saved, nil
}

func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	return s.DeleteAccount(ctx, userID)
}

// save persists the aggregate's dirty fields and returns the stored state.
func (s *Service) save(ctx context.Context, u *entity.User) (*entity.User, error) {
	if u.Changes().IsEmpty() {
		return u, nil
	}
	snap, err := s.Repo.Update(ctx, u.ID(), u.Changes(), u.UpdatedAt())
	if err != nil {
		return nil, mapRepoError(err)
	}
	saved, err := hydrate(snap)
	if err != nil {
		return nil, err
	}
	s.index(ctx, saved)
	return saved, nil
}

func (s *Service) findByID(ctx context.Context, id string) (*entity.User, error) {
	snap, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return hydrate(snap)
}

func (s *Service) findByEmail(ctx context.Context, email string) (*entity.User, error) {
	snap, err := s.Repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, mapRepoError(err)
	}
	return hydrate(snap)
}

func hydrate(snap *entity.UserSnapshot) (*entity.User, error) {
	auth, err := entity.AuthenticationFromSnapshot(*snap)
	if err != nil {
		return nil, err
	}
	return entity.RehydrateUser(*snap, auth)
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, repo.ErrDuplicate):
		if strings.Contains(err.Error(), "username") {
			return ErrUsernameTaken
		}
		return ErrEmailTaken
	}
	return err
}

func (s *Service) index(ctx context.Context, u *entity.User) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexUser(ctx, u); err != nil {
		s.warn(err, "es index failed", logrus.Fields{"user_id": u.ID()})
	}
}

func (s *Service) clearOTP(ctx context.Context, subject string, purpose OTPPurpose) {
	if err := s.OTP.Clear(ctx, subject, purpose); err != nil {
		s.warn(err, "clear otp failed", logrus.Fields{"purpose": purpose})
	}
}

func (s *Service) warn(err error, msg string, fields logrus.Fields) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithError(err).WithFields(fields).Warn(msg)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

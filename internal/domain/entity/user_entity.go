package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultPreferredLanguage is used for new players when none is given.
const DefaultPreferredLanguage = "cpp"

var now = func() time.Time { return time.Now().UTC() }

// Progress is the gameplay state of a RoleUser account.
type Progress struct {
	PreferredLanguage *string
	IsArchived        bool
	IsBlocked         bool
	EasySolved        int
	MediumSolved      int
	HardSolved        int
	TotalSubmission   int
	Streak            int
}

// User is the aggregate root for accounts.
// It never performs I/O: callers persist Snapshot() on create and the
// accumulated Changes() after Update.
type User struct {
	id             string
	role           Role
	username       string
	email          Email
	authentication Authentication
	firstName      string
	lastName       *string
	country        string
	avatar         *string
	progress       *Progress // nil for admins
	createdAt      time.Time
	updatedAt      time.Time

	changes Changes
}

// NewUserParams are the inputs of a fresh account.
type NewUserParams struct {
	Role              Role
	Username          string
	Email             string
	Authentication    Authentication
	FirstName         string
	LastName          *string
	Avatar            *string
	Country           string
	PreferredLanguage *string
}

// CreateUser builds a new account with a generated id and fresh timestamps.
func CreateUser(p NewUserParams) (*User, error) {
	role, err := ParseRole(string(p.Role))
	if err != nil {
		return nil, err
	}
	email, err := NewEmail(p.Email)
	if err != nil {
		return nil, err
	}
	if p.Authentication == nil {
		return nil, fmt.Errorf("authentication is required: %w", ErrInvalidProvider)
	}
	ts := now()
	u := &User{
		id:             uuid.NewString(),
		role:           role,
		username:       p.Username,
		email:          email,
		authentication: p.Authentication,
		firstName:      p.FirstName,
		lastName:       cloneString(p.LastName),
		country:        p.Country,
		avatar:         cloneString(p.Avatar),
		createdAt:      ts,
		updatedAt:      ts,
	}
	if role == RoleUser {
		lang := DefaultPreferredLanguage
		if p.PreferredLanguage != nil && *p.PreferredLanguage != "" {
			lang = *p.PreferredLanguage
		}
		u.progress = &Progress{PreferredLanguage: &lang}
	}
	return u, nil
}

// RehydrateUser rebuilds an account from storage. The authentication variant
// must already be resolved, see AuthenticationFromSnapshot.
func RehydrateUser(s UserSnapshot, auth Authentication) (*User, error) {
	role, err := ParseRole(string(s.Role))
	if err != nil {
		return nil, err
	}
	email, err := NewEmail(s.Email)
	if err != nil {
		return nil, err
	}
	if auth == nil {
		return nil, fmt.Errorf("authentication is required: %w", ErrInvalidProvider)
	}
	u := &User{
		id:             s.ID,
		role:           role,
		username:       s.Username,
		email:          email,
		authentication: auth,
		firstName:      s.FirstName,
		lastName:       cloneString(s.LastName),
		country:        s.Country,
		avatar:         cloneString(s.Avatar),
		createdAt:      s.CreatedAt,
		updatedAt:      s.UpdatedAt,
	}
	if role == RoleUser {
		u.progress = &Progress{
			PreferredLanguage: cloneString(s.PreferredLanguage),
			IsArchived:        derefBool(s.IsArchived),
			IsBlocked:         derefBool(s.IsBlocked),
			EasySolved:        derefInt(s.EasySolved),
			MediumSolved:      derefInt(s.MediumSolved),
			HardSolved:        derefInt(s.HardSolved),
			TotalSubmission:   derefInt(s.TotalSubmission),
			Streak:            derefInt(s.Streak),
		}
	}
	return u, nil
}

func (u *User) ID() string                     { return u.id }
func (u *User) Role() Role                     { return u.role }
func (u *User) Username() string               { return u.username }
func (u *User) Email() Email                   { return u.email }
func (u *User) Authentication() Authentication { return u.authentication }
func (u *User) FirstName() string              { return u.firstName }
func (u *User) LastName() *string              { return cloneString(u.lastName) }
func (u *User) Country() string                { return u.country }
func (u *User) Avatar() *string                { return cloneString(u.avatar) }
func (u *User) CreatedAt() time.Time           { return u.createdAt }
func (u *User) UpdatedAt() time.Time           { return u.updatedAt }
func (u *User) IsVerified() bool               { return u.authentication.IsVerified() }

// Progress returns the gameplay state; ok is false for admins.
func (u *User) Progress() (p Progress, ok bool) {
	if u.progress == nil {
		return Progress{}, false
	}
	p = *u.progress
	p.PreferredLanguage = cloneString(u.progress.PreferredLanguage)
	return p, true
}

func (u *User) IsBlocked() bool {
	return u.progress != nil && u.progress.IsBlocked
}

// FullName joins first and last name.
func (u *User) FullName() string {
	if u.lastName == nil || *u.lastName == "" {
		return u.firstName
	}
	return u.firstName + " " + *u.lastName
}

// Changes returns the fields modified since construction or rehydration.
func (u *User) Changes() *Changes { return &u.changes }

// UpdatedFields is a copy of Changes as a plain map.
func (u *User) UpdatedFields() map[string]any { return u.changes.Map() }

// Update applies a partial patch. The patch is validated before any field is
// touched, so a failed update leaves the aggregate unchanged. Gameplay fields
// are ignored for admins. UpdatedAt moves forward only when a field changed.
func (u *User) Update(patch UserPatch) error {
	var newEmail *Email
	if patch.Email != nil {
		e, err := NewEmail(*patch.Email)
		if err != nil {
			return err
		}
		newEmail = &e
	}
	var local *LocalAuthentication
	if patch.Password != nil {
		switch a := u.authentication.(type) {
		case *LocalAuthentication:
			local = a
		case *OAuthAuthentication:
			return fmt.Errorf("%s account: %w", a.Provider(), ErrCannotSetPassword)
		default:
			return ErrCannotSetPassword
		}
	}

	changed := false
	mark := func(field string, value any) {
		u.changes.set(field, value)
		changed = true
	}

	if patch.Username != nil && *patch.Username != u.username {
		u.username = *patch.Username
		mark(FieldUsername, u.username)
	}
	if patch.FirstName != nil && *patch.FirstName != u.firstName {
		u.firstName = *patch.FirstName
		mark(FieldFirstName, u.firstName)
	}
	if applyNullable(&u.lastName, patch.LastName) {
		mark(FieldLastName, nullableValue(u.lastName))
	}
	if applyNullable(&u.avatar, patch.Avatar) {
		mark(FieldAvatar, nullableValue(u.avatar))
	}
	if patch.Country != nil && *patch.Country != u.country {
		u.country = *patch.Country
		mark(FieldCountry, u.country)
	}

	if newEmail != nil && newEmail.Address() != u.email.Address() {
		u.email = *newEmail
		mark(FieldEmail, u.email.Address())
	}

	if local != nil && *patch.Password != local.PasswordHash() {
		local.ChangePassword(*patch.Password)
		mark(FieldPasswordHash, local.PasswordHash())
	}

	if patch.IsVerified != nil && *patch.IsVerified && !u.authentication.IsVerified() {
		u.authentication.MarkVerified()
		mark(FieldIsVerified, true)
	}

	if p := u.progress; p != nil {
		if applyNullable(&p.PreferredLanguage, patch.PreferredLanguage) {
			mark(FieldPreferredLanguage, nullableValue(p.PreferredLanguage))
		}
		if applyBool(&p.IsArchived, patch.IsArchived) {
			mark(FieldIsArchived, p.IsArchived)
		}
		if applyBool(&p.IsBlocked, patch.IsBlocked) {
			mark(FieldIsBlocked, p.IsBlocked)
		}
		if applyInt(&p.EasySolved, patch.EasySolved) {
			mark(FieldEasySolved, p.EasySolved)
		}
		if applyInt(&p.MediumSolved, patch.MediumSolved) {
			mark(FieldMediumSolved, p.MediumSolved)
		}
		if applyInt(&p.HardSolved, patch.HardSolved) {
			mark(FieldHardSolved, p.HardSolved)
		}
		if applyInt(&p.TotalSubmission, patch.TotalSubmission) {
			mark(FieldTotalSubmission, p.TotalSubmission)
		}
		if applyInt(&p.Streak, patch.Streak) {
			mark(FieldStreak, p.Streak)
		}
	}

	if changed {
		if ts := now(); ts.After(u.updatedAt) {
			u.updatedAt = ts
		}
	}
	return nil
}

func applyNullable(dst **string, n Nullable[string]) bool {
	if !n.Valid || equalString(*dst, n.Value) {
		return false
	}
	*dst = cloneString(n.Value)
	return true
}

func applyBool(dst *bool, v *bool) bool {
	if v == nil || *v == *dst {
		return false
	}
	*dst = *v
	return true
}

func applyInt(dst *int, v *int) bool {
	if v == nil || *v == *dst {
		return false
	}
	*dst = *v
	return true
}

// nullableValue keeps a cleared field as an untyped nil in Changes.
func nullableValue(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func derefBool(b *bool) bool {
	return b != nil && *b
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

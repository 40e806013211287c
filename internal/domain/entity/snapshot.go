package entity

import "time"

// UserSnapshot is the flat persisted shape of a User.
// Gameplay columns are nil for admins.
type UserSnapshot struct {
	ID           string
	Role         Role
	Username     string
	Email        string
	Provider     AuthProvider
	PasswordHash *string
	ExternalID   *string
	IsVerified   bool
	FirstName    string
	LastName     *string
	Country      string
	Avatar       *string

	PreferredLanguage *string
	IsArchived        *bool
	IsBlocked         *bool
	EasySolved        *int
	MediumSolved      *int
	HardSolved        *int
	TotalSubmission   *int
	Streak            *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot flattens the aggregate for storage.
func (u *User) Snapshot() UserSnapshot {
	s := UserSnapshot{
		ID:         u.id,
		Role:       u.role,
		Username:   u.username,
		Email:      u.email.Address(),
		Provider:   u.authentication.Provider(),
		IsVerified: u.authentication.IsVerified(),
		FirstName:  u.firstName,
		LastName:   cloneString(u.lastName),
		Country:    u.country,
		Avatar:     cloneString(u.avatar),
		CreatedAt:  u.createdAt,
		UpdatedAt:  u.updatedAt,
	}
	switch a := u.authentication.(type) {
	case *LocalAuthentication:
		hash := a.PasswordHash()
		s.PasswordHash = &hash
	case *OAuthAuthentication:
		id := a.ExternalID()
		s.ExternalID = &id
	}
	if p := u.progress; p != nil {
		cp := *p
		s.PreferredLanguage = cloneString(p.PreferredLanguage)
		s.IsArchived = &cp.IsArchived
		s.IsBlocked = &cp.IsBlocked
		s.EasySolved = &cp.EasySolved
		s.MediumSolved = &cp.MediumSolved
		s.HardSolved = &cp.HardSolved
		s.TotalSubmission = &cp.TotalSubmission
		s.Streak = &cp.Streak
	}
	return s
}

package handlers

import (
	"time"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
)

type progressJSON struct {
	PreferredLanguage *string `json:"preferred_language"`
	IsArchived        bool    `json:"is_archived"`
	IsBlocked         bool    `json:"is_blocked"`
	EasySolved        int     `json:"easy_solved"`
	MediumSolved      int     `json:"medium_solved"`
	HardSolved        int     `json:"hard_solved"`
	TotalSubmission   int     `json:"total_submission"`
	Streak            int     `json:"streak"`
}

type userJSON struct {
	ID         string        `json:"id"`
	Role       string        `json:"role"`
	Username   string        `json:"username"`
	Email      string        `json:"email"`
	Provider   string        `json:"provider"`
	IsVerified bool          `json:"is_verified"`
	FirstName  string        `json:"first_name"`
	LastName   *string       `json:"last_name"`
	FullName   string        `json:"full_name"`
	Country    string        `json:"country"`
	Avatar     *string       `json:"avatar"`
	Progress   *progressJSON `json:"progress,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func presentUser(u *entity.User) userJSON {
	out := userJSON{
		ID:         u.ID(),
		Role:       u.Role().String(),
		Username:   u.Username(),
		Email:      u.Email().Address(),
		Provider:   string(u.Authentication().Provider()),
		IsVerified: u.IsVerified(),
		FirstName:  u.FirstName(),
		LastName:   u.LastName(),
		FullName:   u.FullName(),
		Country:    u.Country(),
		Avatar:     u.Avatar(),
		CreatedAt:  u.CreatedAt(),
		UpdatedAt:  u.UpdatedAt(),
	}
	if p, ok := u.Progress(); ok {
		out.Progress = &progressJSON{
			PreferredLanguage: p.PreferredLanguage,
			IsArchived:        p.IsArchived,
			IsBlocked:         p.IsBlocked,
			EasySolved:        p.EasySolved,
			MediumSolved:      p.MediumSolved,
			HardSolved:        p.HardSolved,
			TotalSubmission:   p.TotalSubmission,
			Streak:            p.Streak,
		}
	}
	return out
}

func presentUsers(users []*entity.User) []userJSON {
	out := make([]userJSON, 0, len(users))
	for _, u := range users {
		out = append(out, presentUser(u))
	}
	return out
}

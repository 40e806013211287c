package entity

import (
	"bytes"
	"encoding/json"
)

// Nullable is a patch value for an optional field. Valid reports whether the
// field was present; a present field with a nil Value clears it.
type Nullable[T any] struct {
	Valid bool
	Value *T
}

func Set[T any](v T) Nullable[T] { return Nullable[T]{Valid: true, Value: &v} }

func Null[T any]() Nullable[T] { return Nullable[T]{Valid: true} }

// UnmarshalJSON is only invoked when the key is present, so both null and a
// value mark the field as set.
func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Valid = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// UserPatch is a partial update. Nil pointers and invalid Nullables are absent.
// Password carries an already hashed value.
type UserPatch struct {
	Username  *string
	FirstName *string
	LastName  Nullable[string]
	Avatar    Nullable[string]
	Country   *string

	Email      *string
	Password   *string
	IsVerified *bool

	PreferredLanguage Nullable[string]
	IsArchived        *bool
	IsBlocked         *bool
	EasySolved        *int
	MediumSolved      *int
	HardSolved        *int
	TotalSubmission   *int
	Streak            *int
}

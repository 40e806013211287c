package entity

import (
	"fmt"
	"regexp"
)

var emailPattern = regexp.MustCompile(
	"^[A-Za-z0-9.!#$%&'*+/=?^_`{|}~-]+@[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?(?:\\.[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?)*$",
)

// Email is an immutable, validated address.
// The address is kept exactly as entered; no case folding.
type Email struct {
	address string
}

func NewEmail(address string) (Email, error) {
	if address == "" || !emailPattern.MatchString(address) {
		return Email{}, fmt.Errorf("%q: %w", address, ErrInvalidEmail)
	}
	return Email{address: address}, nil
}

func (e Email) Address() string { return e.address }

func (e Email) String() string { return e.address }

package application

import "errors"

var (
	// ErrOTPCacheUnavailable means a code could not be stored, so the flow cannot continue.
	ErrOTPCacheUnavailable = errors.New("otp cache unavailable")
	// ErrNotificationDeliveryFailed means the code is cached but was not sent; it can be redelivered.
	ErrNotificationDeliveryFailed = errors.New("notification delivery failed")

	ErrInvalidOTP         = errors.New("invalid or expired code")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrAlreadyVerified    = errors.New("account already verified")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrAccountBlocked     = errors.New("account blocked")
	ErrProviderMismatch   = errors.New("account uses a different sign-in method")
	ErrUnavailable        = errors.New("feature not configured")
)

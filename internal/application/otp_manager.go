package application

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/metrics"
)

// OTPPurpose scopes a code. Any caller supplied value is accepted; these are
// the ones used by the account flows.
type OTPPurpose string

const (
	PurposeSignup        OTPPurpose = "SIGNUP"
	PurposeResetPassword OTPPurpose = "RESET_PASSWORD"
	PurposeChangeEmail   OTPPurpose = "CHANGE_EMAIL"
)

// OTPManager issues, verifies and clears one-time codes. At most one code is
// live per (purpose, subject): issuing again overwrites the previous one.
type OTPManager struct {
	cache    Cache
	notifier Notifier
	ttl      time.Duration
	logger   *logrus.Logger
	generate func() (string, error)
}

func NewOTPManager(cache Cache, notifier Notifier, ttl time.Duration, logger *logrus.Logger) *OTPManager {
	return &OTPManager{
		cache:    cache,
		notifier: notifier,
		ttl:      ttl,
		logger:   logger,
		generate: helpers.GenOTPCode,
	}
}

func otpKey(subject string, purpose OTPPurpose) string {
	return fmt.Sprintf("otp:%s:%s", purpose, subject)
}

// Issue stores a fresh code and sends it to subject. A cache failure is fatal
// (ErrOTPCacheUnavailable). A send failure leaves the code valid and returns
// ErrNotificationDeliveryFailed so the caller may Redeliver.
func (m *OTPManager) Issue(ctx context.Context, subject string, purpose OTPPurpose) error {
	code, err := m.generate()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	key := otpKey(subject, purpose)
	if err := m.cache.Set(ctx, key, code, m.ttl); err != nil {
		metrics.OTPIssued.WithLabelValues(string(purpose), "cache_error").Inc()
		if m.logger != nil {
			m.logger.WithError(err).WithField("key", key).Error("store otp failed")
		}
		return fmt.Errorf("%w: %w", ErrOTPCacheUnavailable, err)
	}
	if err := m.send(ctx, subject, code, purpose); err != nil {
		metrics.OTPIssued.WithLabelValues(string(purpose), "send_error").Inc()
		return err
	}
	metrics.OTPIssued.WithLabelValues(string(purpose), "ok").Inc()
	return nil
}

// Redeliver re-sends the live code without issuing a new one.
func (m *OTPManager) Redeliver(ctx context.Context, subject string, purpose OTPPurpose) error {
	code, found, err := m.cache.Get(ctx, otpKey(subject, purpose))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOTPCacheUnavailable, err)
	}
	if !found {
		return ErrInvalidOTP
	}
	return m.send(ctx, subject, code, purpose)
}

// Verify reports whether candidate equals the live code. It never deletes the
// code; call Clear once the guarded action succeeded. Cache errors count as a
// mismatch.
func (m *OTPManager) Verify(ctx context.Context, subject string, purpose OTPPurpose, candidate string) bool {
	key := otpKey(subject, purpose)
	code, found, err := m.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.OTPVerified.WithLabelValues(string(purpose), "cache_error").Inc()
		if m.logger != nil {
			m.logger.WithError(err).WithField("key", key).Warn("read otp failed, rejecting code")
		}
		return false
	case !found || candidate == "":
		metrics.OTPVerified.WithLabelValues(string(purpose), "missing").Inc()
		return false
	case subtle.ConstantTimeCompare([]byte(code), []byte(candidate)) != 1:
		metrics.OTPVerified.WithLabelValues(string(purpose), "mismatch").Inc()
		return false
	}
	metrics.OTPVerified.WithLabelValues(string(purpose), "match").Inc()
	return true
}

// Clear removes the code. Clearing a missing code is not an error.
func (m *OTPManager) Clear(ctx context.Context, subject string, purpose OTPPurpose) error {
	if err := m.cache.Delete(ctx, otpKey(subject, purpose)); err != nil {
		return fmt.Errorf("clear otp: %w", err)
	}
	return nil
}

func (m *OTPManager) send(ctx context.Context, subject, code string, purpose OTPPurpose) error {
	if err := m.notifier.SendCode(ctx, subject, code, string(purpose)); err != nil {
		if m.logger != nil {
			m.logger.WithError(err).WithField("purpose", purpose).Warn("otp delivery failed")
		}
		return fmt.Errorf("%w: %w", ErrNotificationDeliveryFailed, err)
	}
	return nil
}

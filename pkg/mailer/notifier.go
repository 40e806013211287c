package mailer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/config"
	tpl "github.com/oksasatya/go-account-service/pkg/mailer/templates"
)

// Publisher puts a JSON message on the email queue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueNotifier sends one-time codes by enqueueing an EmailJob for the email worker.
type QueueNotifier struct {
	Pub Publisher
	Cfg *config.Config
}

func NewQueueNotifier(pub Publisher, cfg *config.Config) *QueueNotifier {
	return &QueueNotifier{Pub: pub, Cfg: cfg}
}

func (n *QueueNotifier) SendCode(ctx context.Context, to, code, purpose string) error {
	data := tpl.NewOTPCodeData(n.Cfg, to, code, purpose,
		tpl.WithTime(time.Now()),
		tpl.WithExpiresIn(n.Cfg.OTPTTL),
	)
	job := EmailJob{To: to, Template: tpl.OTPCode, Data: data}
	return n.Pub.PublishJSON(ctx, job)
}

// LogNotifier writes codes to the log instead of sending them. Used when
// MAIL_SEND_ENABLED=false in development.
type LogNotifier struct {
	Logger *logrus.Logger
}

func (n LogNotifier) SendCode(_ context.Context, to, code, purpose string) error {
	n.Logger.WithFields(logrus.Fields{"to": to, "purpose": purpose, "code": code}).Info("otp (mail sending disabled)")
	return nil
}

package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-account-service/config"
	tpl "github.com/oksasatya/go-account-service/pkg/mailer/templates"
)

type capturePublisher struct {
	err  error
	jobs []any
}

func (p *capturePublisher) PublishJSON(_ context.Context, body any) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, body)
	return nil
}

func TestQueueNotifierEnqueuesOTPJob(t *testing.T) {
	pub := &capturePublisher{}
	n := NewQueueNotifier(pub, &config.Config{AppName: "Arena", OTPTTL: 10 * time.Minute})

	require.NoError(t, n.SendCode(context.Background(), "a@b.com", "123456", "SIGNUP"))
	require.Len(t, pub.jobs, 1)
	job, ok := pub.jobs[0].(EmailJob)
	require.True(t, ok)
	assert.Equal(t, "a@b.com", job.To)
	assert.Equal(t, tpl.OTPCode, job.Template)
	assert.Equal(t, "123456", job.Data["Code"])
	assert.Equal(t, "SIGNUP", job.Data["Purpose"])
	assert.NotEmpty(t, job.Data["ExpiresAtText"])
}

func TestQueueNotifierSurfacesPublishErrors(t *testing.T) {
	n := NewQueueNotifier(&capturePublisher{err: errors.New("closed")}, &config.Config{OTPTTL: time.Minute})
	assert.Error(t, n.SendCode(context.Background(), "a@b.com", "123456", "SIGNUP"))
}

func TestEmailJobNormalizeAndValidate(t *testing.T) {
	j := EmailJob{To: "a@b.com", Template: tpl.OTPCode}
	j.Normalize()
	assert.Equal(t, "a@b.com", j.Data["Email"])
	assert.Equal(t, "a@b.com", j.Data["RecipientEmail"])
	assert.NoError(t, j.Validate())

	assert.Error(t, (&EmailJob{Template: tpl.OTPCode}).Validate())
	assert.Error(t, (&EmailJob{To: "a@b.com", Subject: "only subject"}).Validate())
	assert.NoError(t, (&EmailJob{To: "a@b.com", Subject: "s", HTML: "<p>x</p>"}).Validate())
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-account-service/pkg/mailer"
	mailtpl "github.com/oksasatya/go-account-service/pkg/mailer/templates"
)

type sent struct{ to, subject, text, html string }

type fakeSender struct {
	err  error
	sent []sent
}

func (s *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sent{to, subject, text, html})
	return nil
}

func newWorker(s mailer.Sender) *worker {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &worker{sender: s, logger: l, timeout: time.Second}
}

func body(t *testing.T, job mailer.EmailJob) []byte {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return b
}

func TestProcessRendersTemplate(t *testing.T) {
	s := &fakeSender{}
	job := mailer.EmailJob{To: "a@b.com", Template: mailtpl.OTPCode, Data: map[string]any{
		"Code": "123456", "Purpose": "SIGNUP", "CompanyName": "Acme",
	}}

	assert.Equal(t, ack, newWorker(s).process(context.Background(), body(t, job)))
	require.Len(t, s.sent, 1)
	assert.Equal(t, "a@b.com", s.sent[0].to)
	assert.NotEmpty(t, s.sent[0].subject)
	assert.Contains(t, s.sent[0].text, "123456")
	assert.Contains(t, s.sent[0].html, "123456")
}

func TestProcessRawMessage(t *testing.T) {
	s := &fakeSender{}
	job := mailer.EmailJob{To: "a@b.com", Subject: "hi", Text: "hello"}

	assert.Equal(t, ack, newWorker(s).process(context.Background(), body(t, job)))
	require.Len(t, s.sent, 1)
	assert.Equal(t, "hi", s.sent[0].subject)
}

func TestProcessDropsUnusableJobs(t *testing.T) {
	w := newWorker(&fakeSender{})
	ctx := context.Background()

	assert.Equal(t, drop, w.process(ctx, []byte("{not json")))
	assert.Equal(t, drop, w.process(ctx, body(t, mailer.EmailJob{Subject: "no recipient", Text: "x"})))
	assert.Equal(t, drop, w.process(ctx, body(t, mailer.EmailJob{To: "a@b.com", Template: "missing_template"})))
}

func TestProcessRequeuesOnSendFailure(t *testing.T) {
	w := newWorker(&fakeSender{err: errors.New("mailgun down")})
	job := mailer.EmailJob{To: "a@b.com", Subject: "hi", Text: "hello"}

	assert.Equal(t, requeue, w.process(context.Background(), body(t, job)))
}

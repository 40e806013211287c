package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/pkg/mailer"
	mailtpl "github.com/oksasatya/go-account-service/pkg/mailer/templates"
)

type outcome int

const (
	ack outcome = iota
	requeue
	drop
)

type worker struct {
	sender   mailer.Sender
	resolver mailtpl.GeoResolver
	logger   *logrus.Logger
	timeout  time.Duration
}

// process renders and sends one queued job. Jobs that can never succeed are
// dropped; send failures are requeued.
func (w *worker) process(ctx context.Context, body []byte) outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.logger.WithError(err).Warn("bad message")
		return drop
	}
	job.Normalize()
	if err := job.Validate(); err != nil {
		w.logger.WithError(err).Warn("invalid job")
		return drop
	}
	log := w.logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template})

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		mailtpl.LocalizeTimes(ctx, w.resolver, job.Data)
		var err error
		subject, text, html, err = mailtpl.Render(job.Template, job.Data)
		if err != nil {
			log.WithError(err).Error("render failed")
			return drop
		}
	}

	c, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.sender.Send(c, job.To, subject, text, html); err != nil {
		log.WithError(err).Warn("send failed, requeueing")
		return requeue
	}
	log.Info("email sent")
	return ack
}

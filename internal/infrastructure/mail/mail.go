// Package mail delivers verification messages. Deployed environments send
// through the Resend API; ENV=local only logs the message.
package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/99minutos/passport/internal/core/ports"
)

// LogSender logs messages instead of sending them.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.log.Info().Str("to", to).Str("subject", subject).Str("body", body).Msg("email (local dev)")
	return nil
}

// emailClient is the slice of the Resend SDK the sender uses.
type emailClient interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender sends messages through the Resend API.
type ResendSender struct {
	emails emailClient
	from   string
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{emails: resend.NewClient(apiKey).Emails, from: from}
}

func (s *ResendSender) Send(ctx context.Context, to, subject, body string) error {
	resp, err := s.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	})
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if resp == nil || resp.Id == "" {
		return errors.New("send email: no message id returned")
	}
	return nil
}

// NewSender returns a LogSender for ENV=local, a ResendSender otherwise.
func NewSender(env, apiKey, from string, log zerolog.Logger) ports.Mailer {
	if env == "local" {
		return NewLogSender(log)
	}
	return NewResendSender(apiKey, from)
}

package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"analytics-export/internal/config"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("internal/notify")

type sendFunc = func(mail *email.Email, addr string, auth smtp.Auth) error

func send(mail *email.Email, addr string, auth smtp.Auth) error {
	return mail.Send(addr, auth)
}

// SMTP mails run summaries to a fixed list of recipients.
type SMTP struct {
	cfg  config.SmtpConfig
	send sendFunc
}

func NewSMTP(cfg config.SmtpConfig) SMTP {
	return SMTP{cfg: cfg, send: send}
}

func (s SMTP) message(subject, body string) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Analytics Export <%s>", s.cfg.EmailAddress)
	mail.To = s.cfg.To
	mail.Subject = subject
	mail.Text = []byte(body)
	return mail
}

func (s SMTP) Notify(ctx context.Context, subject, body string) error {
	ctx, span := tracer.Start(ctx, "notify:Notify")
	defer span.End()
	span.SetAttributes(attribute.Int("recipients", len(s.cfg.To)))

	mail := s.message(subject, body)
	addr := fmt.Sprintf("%s:%d", s.cfg.Server, s.cfg.Port)

	err := s.send(
		mail,
		addr,
		smtp.PlainAuth("", s.cfg.EmailAddress, s.cfg.Password, s.cfg.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = s.send(mail, addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return fmt.Errorf("send summary email: %w", err)
	}
	return nil
}

// Package mailer sends outbound notification email. Delivery is
// fire-and-forget: workflows log failures and move on, a broken SMTP relay
// never fails a registration or an approval.
package mailer

import (
	"crypto/tls"

	"github.com/go-mail/mail"
	"go.uber.org/zap"
)

// Notifier is what the workflows depend on.
type Notifier interface {
	Send(to, subject, body string) error
}

// SMTPConfig carries the relay wiring, read from the environment in main.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	Insecure bool // skip TLS verification, dev only
}

// SMTPSender sends plain-text mail through one SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig
	log *zap.Logger
}

// NewSMTPSender wires a sender.
func NewSMTPSender(cfg SMTPConfig, log *zap.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, log: log}
}

// Send delivers one message. Errors are returned for the caller to log;
// callers must not propagate them past their own boundary.
func (s *SMTPSender) Send(to, subject, body string) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         s.cfg.Host,
		InsecureSkipVerify: s.cfg.Insecure,
	}
	if err := d.DialAndSend(m); err != nil {
		s.log.Warn("email send failed", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		return err
	}
	s.log.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// Discard is a Notifier that drops everything; used when SMTP is not
// configured and in tests.
type Discard struct{}

func (Discard) Send(to, subject, body string) error { return nil }

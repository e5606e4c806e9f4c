package mail

import (
	"errors"

	"gopkg.in/gomail.v2"

	"pmtctportal/internal/config"
)

// ErrDisabled is returned when no SMTP relay is configured.
var ErrDisabled = errors.New("mail: smtp not configured")

// Mailer sends report emails through the configured SMTP relay.
type Mailer interface {
	Send(to []string, subject, body string, attachments ...string) error
	Enabled() bool
}

type mailer struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
}

// NewMailer creates a mailer from SMTP settings. A mailer built from empty
// settings reports Enabled() == false and returns ErrDisabled on every send.
func NewMailer(cfg config.SMTPConfig) Mailer {
	m := &mailer{cfg: cfg}
	if cfg.Enabled() {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return m
}

func (m *mailer) Enabled() bool {
	return m.dialer != nil
}

func (m *mailer) Send(to []string, subject, body string, attachments ...string) error {
	if m.dialer == nil {
		return ErrDisabled
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	for _, path := range attachments {
		msg.Attach(path)
	}
	return m.dialer.DialAndSend(msg)
}

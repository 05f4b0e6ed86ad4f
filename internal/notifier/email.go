package notifier

import (
	"bantayani/internal/config"

	"gopkg.in/gomail.v2"
)

type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailService returns nil when no SMTP credentials are configured.
func NewEmailService(cfg config.EmailConfig) *EmailService {
	if cfg.Username == "" {
		return nil
	}
	return &EmailService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (e *EmailService) Send(to, subject, html string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)
	return e.dialer.DialAndSend(m)
}

package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/otpgate/otpgate/internal/config"
)

// smtpTransport is the store-and-forward fallback behind the API
// transport. Plain-auth only when a username is configured, so a local
// relay without auth works too.
type smtpTransport struct {
	cfg  config.SMTPConfig
	from string
}

func newSMTPTransport(cfg config.SMTPConfig, from string) *smtpTransport {
	return &smtpTransport{cfg: cfg, from: from}
}

func (t *smtpTransport) Name() string {
	return "smtp"
}

func (t *smtpTransport) Send(ctx context.Context, email, code string) error {
	addr := fmt.Sprintf("%s:%d", t.cfg.Host, t.cfg.Port)
	var auth smtp.Auth
	if t.cfg.Username != "" {
		auth = smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)
	}
	msg := []byte("From: " + t.from + "\r\n" +
		"To: " + email + "\r\n" +
		"Subject: " + mailSubject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" + fmt.Sprintf(mailBodyTmpl, code))
	return smtp.SendMail(addr, auth, t.from, []string{email}, msg)
}

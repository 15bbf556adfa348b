package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"jobgate-appointment-api/internal/config"
	appLog "jobgate-appointment-api/internal/log"
)

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// SMTPMailer sends through a relay with PLAIN auth when a user is set.
type SMTPMailer struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	var a smtp.Auth
	if s.User != "" {
		a = smtp.PlainAuth("", s.User, s.Password, s.Host)
	}
	if err := smtp.SendMail(addr, a, envelope(s.From), []string{m.To}, format(s.From, m, time.Now())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", m.To, err)
	}
	return nil
}

// envelope strips a display name: "JOBGATE <a@b>" -> "a@b".
func envelope(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		return strings.TrimSuffix(from[i+1:], ">")
	}
	return from
}

func format(from string, m Message, now time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + m.To + "\r\n")
	b.WriteString("Subject: " + m.Subject + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogMailer only logs; used when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, m Message) error {
	appLog.Info("email not sent (log mailer)", "to", m.To, "subject", m.Subject)
	appLog.Debug("email body", "body", m.Body)
	return nil
}

// NewMailer picks SMTP when a host is configured and the log mailer
// otherwise.
func NewMailer(c config.MailConfig) Mailer {
	if c.Host == "" {
		return LogMailer{}
	}
	return &SMTPMailer{Host: c.Host, Port: c.Port, User: c.User, Password: c.Password, From: c.From}
}

// Package mail delivers transactional email. Only plain-text messages are
// supported.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/aussiebroadwan/lms/pkg/slogx"
)

// Message is a single plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// ActivationMessage composes the email carrying the 4-digit activation code.
func ActivationMessage(to, name, code string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\r\n\r\n", name)
	b.WriteString("Thank you for registering. To activate your account, enter the code below:\r\n\r\n")
	fmt.Fprintf(&b, "    %s\r\n\r\n", code)
	b.WriteString("The code expires in 5 minutes. If you did not register, ignore this email.\r\n")

	return Message{
		To:      to,
		Subject: "Activate your account",
		Body:    b.String(),
	}
}

// SMTPSender sends mail through an SMTP relay. Username may be empty for
// relays that do not require authentication.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// sendMail is swapped in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

var _ Sender = (*SMTPSender)(nil)

// Send delivers m. Context cancellation is honoured before the dial only;
// net/smtp has no context-aware API.
func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.To == "" {
		return fmt.Errorf("mail: empty recipient")
	}

	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}

	send := s.sendMail
	if send == nil {
		send = smtp.SendMail
	}

	addr := net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
	if err := send(addr, auth, s.From, []string{m.To}, s.render(m)); err != nil {
		return fmt.Errorf("mail: send to %s: %w", m.To, err)
	}

	slogx.FromContext(ctx).Info("mail sent", slog.String("to", m.To), slog.String("subject", m.Subject))
	return nil
}

func (s *SMTPSender) render(m Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.From)
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(m.Body)
	return []byte(b.String())
}

// LogSender writes messages to the log instead of delivering them. Used when
// no SMTP relay is configured. The body carries the activation code, so it
// is only logged at debug level.
type LogSender struct {
	Logger *slog.Logger
}

var _ Sender = (*LogSender)(nil)

func (s *LogSender) Send(ctx context.Context, m Message) error {
	l := s.Logger
	if l == nil {
		l = slogx.FromContext(ctx)
	}
	l.Info("mail not delivered, no smtp relay configured",
		slog.String("to", m.To),
		slog.String("subject", m.Subject),
	)
	l.Debug("undelivered mail body", slog.String("to", m.To), slog.String("body", m.Body))
	return nil
}

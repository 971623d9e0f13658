package mailer

import (
	"context"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/internal/config"
	"github.com/zedemy/zedemy/backend/go-services/pkg/logger"
)

// Message is a fully composed email.
type Message struct {
	To          string
	Name        string
	Subject     string
	HTML        string
	Attachments []Attachment
}

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Sender delivers a composed message.
type Sender interface {
	Send(ctx context.Context, m *Message) error
}

// SMTPSender delivers through an SMTP relay with gomail.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send dials per message; gomail has no context support so ctx is only
// checked before dialing.
func (s *SMTPSender) Send(ctx context.Context, m *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetAddressHeader("To", m.To, m.Name)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/html", m.HTML)
	for _, a := range m.Attachments {
		data := a.Data
		msg.Attach(a.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
		)
	}
	return apperr.Upstream("smtp send", s.dialer.DialAndSend(msg))
}

// LogSender only logs messages. Used when no SMTP relay is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, m *Message) error {
	logger.Infof("mail (not sent, no SMTP relay): to=%s subject=%q attachments=%d", m.To, m.Subject, len(m.Attachments))
	return nil
}

// NewSender picks SMTP when a relay host is configured.
func NewSender(cfg config.SMTPConfig) Sender {
	if cfg.Host == "" {
		logger.Warn("SMTP_HOST is not set; emails will only be logged")
		return LogSender{}
	}
	return NewSMTPSender(cfg)
}

// Package email delivers transactional mail. SMTPMailer sends through a real
// relay; LogMailer only logs and is used when SMTP is not configured.
package email

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"

	"github.com/01moynul/storefront-golang/internal/models"
)

// Message is a plain-text mail.
type Message struct {
	To      string
	ReplyTo string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SMTPConfig describes the relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPMailer struct {
	cfg    SMTPConfig
	logger *logrus.Logger
}

func NewSMTPMailer(cfg SMTPConfig, logger *logrus.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger}
}

func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	msg, err := buildMsg(s.cfg.From, m)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"to":      m.To,
		"subject": m.Subject,
	}).Info("Mail sent")
	return nil
}

func buildMsg(from string, m Message) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}
	if m.ReplyTo != "" {
		if err := msg.ReplyTo(m.ReplyTo); err != nil {
			return nil, fmt.Errorf("invalid reply-to address: %w", err)
		}
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Body)
	return msg, nil
}

// LogMailer writes mail to the log instead of sending it.
type LogMailer struct {
	Logger *logrus.Logger
}

func (l LogMailer) Send(_ context.Context, m Message) error {
	l.Logger.WithFields(logrus.Fields{
		"to":       m.To,
		"reply_to": m.ReplyTo,
		"subject":  m.Subject,
	}).Info("Mail not sent (SMTP not configured)")
	return nil
}

// ContactNotification is the mail the shop inbox receives for a contact form message.
func ContactNotification(inbox string, cm *models.ContactMessage) Message {
	subject := cm.Subject
	if subject == "" {
		subject = "New contact message"
	}
	return Message{
		To:      inbox,
		ReplyTo: cm.Email,
		Subject: "[Contact] " + subject,
		Body: fmt.Sprintf(
			"From: %s <%s>\n\n%s\n",
			cm.Name, cm.Email, cm.Message,
		),
	}
}

// Package mail sends transactional email.
package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/mailersend/mailersend-go"
	"go.uber.org/zap"
)

// Message is a single-recipient email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// MailerSend delivers through the MailerSend API.
type MailerSend struct {
	client   *mailersend.Mailersend
	fromName string
	from     string
	timeout  time.Duration
	log      *zap.Logger
}

// NewMailerSend returns a MailerSend mailer sending as fromName <from>.
func NewMailerSend(apiKey, from, fromName string, log *zap.Logger) *MailerSend {
	if log == nil {
		log = zap.NewNop()
	}
	return &MailerSend{
		client:   mailersend.NewMailersend(apiKey),
		fromName: fromName,
		from:     from,
		timeout:  5 * time.Second,
		log:      log,
	}
}

func (m *MailerSend) Send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	message := m.client.Email.NewMessage()
	message.SetFrom(mailersend.From{Name: m.fromName, Email: m.from})
	message.SetRecipients([]mailersend.Recipient{{Email: msg.To}})
	message.SetSubject(msg.Subject)
	message.SetHTML(msg.HTML)
	if msg.Text != "" {
		message.SetText(msg.Text)
	}

	res, err := m.client.Email.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("mailersend send to %s: %w", msg.To, err)
	}
	m.log.Debug("email sent", zap.String("to", msg.To), zap.String("message_id", res.Header.Get("X-Message-Id")))
	return nil
}

// LogMailer writes messages to the log instead of sending them.  Used
// when no MailerSend key is configured.
type LogMailer struct {
	Log *zap.Logger
}

func (m LogMailer) Send(ctx context.Context, msg Message) error {
	if m.Log != nil {
		m.Log.Info("email (not sent)", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	}
	return nil
}

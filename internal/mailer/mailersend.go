package mailer

import (
	"context"
	"fmt"

	"github.com/mailersend/mailersend-go"
)

// MailerSendMailer sends mail through the hosted MailerSend API. It is
// selected over SMTP when MAILERSEND_API_KEY is set.
type MailerSendMailer struct {
	client    *mailersend.Mailersend
	fromName  string
	fromEmail string
}

func NewMailerSendMailer(apiKey, fromName, fromEmail string) *MailerSendMailer {
	return &MailerSendMailer{
		client:    mailersend.NewMailersend(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (m *MailerSendMailer) Send(ctx context.Context, to, subject, body string) error {
	message := m.client.Email.NewMessage()
	message.SetFrom(mailersend.From{Name: m.fromName, Email: m.fromEmail})
	message.SetRecipients([]mailersend.Recipient{{Email: to}})
	message.SetSubject(subject)
	message.SetText(body)

	if _, err := m.client.Email.Send(ctx, message); err != nil {
		return fmt.Errorf("mailersend send to %s: %w", to, err)
	}
	return nil
}

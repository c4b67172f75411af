package otp

import (
	"context"
	"fmt"

	"github.com/aruna-labs/identra/internal/pkg/mail"
	"github.com/aruna-labs/identra/internal/pkg/sms"
)

// Dispatcher routes a code message by identifier shape: email addresses go
// through the mailer, everything else through the SMS gateway.
type Dispatcher struct {
	mailer  mail.Mail
	sender  sms.Sender
	subject string
}

var _ DeliveryChannel = (*Dispatcher)(nil)

// NewDispatcher builds the production delivery channel.
func NewDispatcher(mailer mail.Mail, sender sms.Sender, subject string) *Dispatcher {
	if subject == "" {
		subject = "Your verification code"
	}
	return &Dispatcher{mailer: mailer, sender: sender, subject: subject}
}

// Send dispatches the message to the identifier's medium.
func (d *Dispatcher) Send(ctx context.Context, id Identifier, message string) error {
	if id.IsEmail() {
		err := d.mailer.Send(ctx, mail.Message{
			To:       []string{id.String()},
			Subject:  d.subject,
			TextBody: message,
		})
		if err != nil {
			return fmt.Errorf("otp: send email: %w", err)
		}
		return nil
	}

	if err := d.sender.Send(ctx, id.String(), message); err != nil {
		return fmt.Errorf("otp: send sms: %w", err)
	}
	return nil
}

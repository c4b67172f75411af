// Package mail abstracts email delivery. The OTP core and the notification
// module both send through the Mail interface; only wiring knows the
// provider.
package mail

import (
	"context"
	"io"
)

// Message is a provider-agnostic email payload.
type Message struct {
	// From overrides the configured default sender when set.
	From string
	// To lists the primary recipients; at least one is required.
	To []string
	// Cc lists carbon-copy recipients.
	Cc []string
	// Bcc lists blind-carbon-copy recipients.
	Bcc []string
	// Subject is the subject line.
	Subject string
	// TextBody is the plain-text body.
	TextBody string
	// HTMLBody is the optional HTML alternative.
	HTMLBody string
}

// Mail delivers email messages.
type Mail interface {
	io.Closer
	// Send dispatches msg; an error means the provider did not accept it.
	Send(ctx context.Context, msg Message) error
}

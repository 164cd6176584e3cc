// Package notify delivers plain-text messages to users, over SMTP in
// production and into the log during development.
package notify

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/eventhub/internal/logging"
	"gopkg.in/gomail.v2"
)

// Message is a single plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier sends messages. A returned error means the message was not
// accepted for delivery.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

var errNoRecipient = errors.New("no recipient specified")

// sender is the part of *gomail.Dialer the SMTP notifier uses.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier sends mail through an SMTP relay.
type SMTPNotifier struct {
	from   string
	dialer sender
}

func NewSMTPNotifier(host string, port int, username, password, from string) *SMTPNotifier {
	return &SMTPNotifier{
		from:   from,
		dialer: gomail.NewDialer(host, port, username, password),
	}
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	return n.dialer.DialAndSend(m)
}

// LogNotifier writes messages to the log instead of sending them. Use it
// only where nobody else can read the log: bodies may carry reset tokens.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errNoRecipient
	}
	n.logger.Info(ctx, "outgoing message", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}

package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"
)

// SMTPConfig holds the relay connection settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers messages through an SMTP relay using STARTTLS and
// plain authentication. All recipients of a message are delivered in one
// transaction.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender creates a sender for the given relay.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send delivers the message to all recipients. An empty recipient set is a
// no-op that succeeds without touching the network: a record may exist
// before any recipient is set.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if len(msg.Recipients) == 0 {
		return nil
	}

	m := gomail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return fmt.Errorf("%w: invalid from address: %v", ErrDelivery, err)
	}
	if err := m.To(msg.Recipients...); err != nil {
		return fmt.Errorf("%w: invalid recipient: %v", ErrDelivery, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)

	client, err := gomail.NewClient(s.cfg.Host,
		gomail.WithPort(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Username),
		gomail.WithPassword(s.cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		slog.Error("mail: delivery failed", "host", s.cfg.Host, "recipients", len(msg.Recipients), "error", err)
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	slog.Debug("mail: delivered", "recipients", len(msg.Recipients), "subject", msg.Subject)
	return nil
}

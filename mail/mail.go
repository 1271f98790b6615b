// Package mail delivers summary emails through a configured SMTP relay.
package mail

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// ErrDelivery is returned when the relay rejects a message or the transport
// fails (connection, authentication, recipient rejection). An empty
// recipient set is not a delivery failure.
var ErrDelivery = errors.New("mail delivery failed")

// Message represents an email to be sent.
type Message struct {
	Subject    string
	Body       string // plain text
	Recipients []string
}

// Sender abstracts email sending for DI and testing.
// Tests inject a stub that records calls without hitting the network.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SplitRecipients parses a comma-separated recipient list, trimming
// whitespace and discarding empty entries.
func SplitRecipients(csv string) []string {
	var recipients []string
	for _, entry := range strings.Split(csv, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		recipients = append(recipients, entry)
	}
	return recipients
}

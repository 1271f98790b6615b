package mail

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRecipients(t *testing.T) {
	tests := []struct {
		name     string
		csv      string
		expected []string
	}{
		{"empty string", "", nil},
		{"whitespace only", "   ", nil},
		{"separators only", " ,, ,", nil},
		{"single address", "a@x.com", []string{"a@x.com"}},
		{"blank entry in the middle", "a@x.com, , b@x.com", []string{"a@x.com", "b@x.com"}},
		{"surrounding whitespace", "  a@x.com ,b@x.com  ", []string{"a@x.com", "b@x.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitRecipients(tt.csv))
		})
	}
}

func TestSMTPSender_EmptyRecipientsIsNoOp(t *testing.T) {
	// The host is unreachable on purpose: with zero recipients the sender
	// must succeed without any transport attempt.
	sender := NewSMTPSender(SMTPConfig{
		Host: "smtp.invalid",
		Port: 1,
		From: "recap@example.com",
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := sender.Send(ctx, Message{
		Subject:    "Meeting Summary",
		Body:       "body",
		Recipients: nil,
	})
	require.NoError(t, err)
}

func TestSMTPSender_InvalidRecipient(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{
		Host: "smtp.invalid",
		Port: 1,
		From: "recap@example.com",
	})

	err := sender.Send(context.Background(), Message{
		Subject:    "Meeting Summary",
		Body:       "body",
		Recipients: []string{"not-an-address"},
	})
	require.ErrorIs(t, err, ErrDelivery)
}

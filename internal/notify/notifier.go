// Package notify delivers outbound mail. Delivery is behind an interface so
// the server core never depends on a particular mail provider.
package notify

import (
	"context"

	"github.com/rs/zerolog/log"
)

type Notifier interface {
	SendPasswordReset(ctx context.Context, to, name, resetLink string) error
	SendFeedback(ctx context.Context, name, replyTo, message string) error
}

// LogNotifier writes would-be mail to the log. Used in development and tests;
// production wires a real provider behind the same interface.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, to, name, resetLink string) error {
	log.Info().
		Str("to", to).
		Str("name", name).
		Str("reset_link", resetLink).
		Msg("password reset email")
	return nil
}

func (n *LogNotifier) SendFeedback(ctx context.Context, name, replyTo, message string) error {
	log.Info().
		Str("from", name).
		Str("reply_to", replyTo).
		Str("message", message).
		Msg("feedback received")
	return nil
}

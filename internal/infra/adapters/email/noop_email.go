package email

import (
	"context"

	"github.com/rs/zerolog"

	"commit-reflections/internal/domain/ports/adapter"
)

var _ adapter.NotifierAdapter = (*NoopNotifier)(nil)

// NoopNotifier logs instead of sending. Used in dev and when no email
// provider is configured.
type NoopNotifier struct {
	log *zerolog.Logger
}

func NewNoopNotifier(logger *zerolog.Logger) *NoopNotifier {
	compLog := logger.With().Str("component", "NoopNotifier").Logger()
	return &NoopNotifier{log: &compLog}
}

func (n *NoopNotifier) Send(ctx context.Context, msg adapter.Notification) error {
	n.log.Info().Str("to", msg.Recipient).Str("subject", msg.Subject).Msg("email suppressed (noop)")
	return nil
}

package notify

import (
	"context"

	"github.com/Skotchmaster/freshcart/pkg/logging"
)

// LogSender records that a delivery was due on a channel with no transport configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	logging.FromContext(ctx).Warn("otp_transport_disabled",
		"channel", msg.Channel,
		"identifier", msg.Identifier,
	)
	return nil
}

package service

import (
	"context"
	"strconv"
	"time"

	"github.com/Skotchmaster/freshcart/internal/mykafka"
	"github.com/Skotchmaster/freshcart/internal/notify"
	"github.com/Skotchmaster/freshcart/pkg/logging"
)

const (
	publishTimeout  = 5 * time.Second
	dispatchTimeout = 10 * time.Second
)

// publish never fails the caller: a lost event is logged and the request goes on.
func publish(ctx context.Context, p mykafka.Publisher, topic, key string, ev mykafka.Event) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.PublishEvent(ctx, topic, key, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_error", "topic", topic, "type", ev.Type, "error", err)
	}
}

func dispatch(ctx context.Context, d notify.Dispatcher, msg notify.Message) {
	if d == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
	defer cancel()

	if err := d.Send(ctx, msg); err != nil {
		logging.FromContext(ctx).Error("otp_dispatch_error", "channel", msg.Channel, "identifier", msg.Identifier, "error", err)
	}
}

func idKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

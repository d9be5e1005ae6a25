package notify

import (
	"context"
	"time"

	"github.com/Skotchmaster/freshcart/internal/mykafka"
)

type otpNotification struct {
	Channel    string    `json:"channel"`
	Identifier string    `json:"identifier"`
	Code       string    `json:"code"`
	CreatedAt  time.Time `json:"created_at"`
}

// TopicSender hands SMS and WhatsApp deliveries to the gateway consuming Topic.
type TopicSender struct {
	Publisher mykafka.Publisher
	Topic     string
}

func (s *TopicSender) Send(ctx context.Context, msg Message) error {
	topic := s.Topic
	if topic == "" {
		topic = mykafka.TopicNotifications
	}
	return s.Publisher.PublishEvent(ctx, topic, msg.Identifier, otpNotification{
		Channel:    string(msg.Channel),
		Identifier: msg.Identifier,
		Code:       msg.Code,
		CreatedAt:  time.Now().UTC(),
	})
}

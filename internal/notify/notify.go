package notify

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/freshcart/internal/models"
)

type Message struct {
	Channel    models.Channel
	Identifier string
	Code       string
}

// Dispatcher delivers an OTP over the channel named in the message.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Router picks the sender registered for the message channel.
type Router struct {
	Senders map[models.Channel]Sender
}

func NewRouter() *Router {
	return &Router{Senders: make(map[models.Channel]Sender)}
}

func (r *Router) Handle(ch models.Channel, s Sender) *Router {
	r.Senders[ch] = s
	return r
}

func (r *Router) Send(ctx context.Context, msg Message) error {
	s, ok := r.Senders[msg.Channel]
	if !ok {
		return fmt.Errorf("notify: no sender for channel %q", msg.Channel)
	}
	return s.Send(ctx, msg)
}

// CapabilityChecker answers whether a mobile number can receive WhatsApp messages.
type CapabilityChecker interface {
	IsWhatsappNumber(ctx context.Context, mobile string) bool
}

type StaticWhatsapp struct {
	Enabled bool
}

func (s StaticWhatsapp) IsWhatsappNumber(context.Context, string) bool { return s.Enabled }

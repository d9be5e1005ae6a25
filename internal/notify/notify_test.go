package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/internal/mykafka"
	"github.com/Skotchmaster/freshcart/pkg/logging"
)

type captured struct {
	topic, key string
	payload    []byte
}

type capturePublisher struct {
	got []captured
}

func (p *capturePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	b, err := json.Marshal(event)
	if err != nil {
		return err
	}
	p.got = append(p.got, captured{topic: topic, key: key, payload: b})
	return nil
}

type countingSender struct{ n int }

func (s *countingSender) Send(context.Context, Message) error {
	s.n++
	return nil
}

func TestRouter(t *testing.T) {
	t.Parallel()

	mobile := &countingSender{}
	email := &countingSender{}
	r := NewRouter().Handle(models.ChannelMobile, mobile).Handle(models.ChannelEmail, email)
	ctx := context.Background()

	require.NoError(t, r.Send(ctx, Message{Channel: models.ChannelMobile, Identifier: "9876543210", Code: "123456"}))
	require.NoError(t, r.Send(ctx, Message{Channel: models.ChannelEmail, Identifier: "a@b.co", Code: "123456"}))
	assert.Equal(t, 1, mobile.n)
	assert.Equal(t, 1, email.n)

	err := r.Send(ctx, Message{Channel: models.ChannelWhatsapp, Identifier: "9876543210"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "whatsapp")
}

func TestTopicSender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		topic string
		want  string
	}{
		{name: "default topic", want: mykafka.TopicNotifications},
		{name: "custom topic", topic: "sms_gateway", want: "sms_gateway"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pub := &capturePublisher{}
			s := &TopicSender{Publisher: pub, Topic: tt.topic}
			require.NoError(t, s.Send(context.Background(), Message{Channel: models.ChannelWhatsapp, Identifier: "9876543210", Code: "654321"}))

			require.Len(t, pub.got, 1)
			assert.Equal(t, tt.want, pub.got[0].topic)
			assert.Equal(t, "9876543210", pub.got[0].key)

			var body map[string]any
			require.NoError(t, json.Unmarshal(pub.got[0].payload, &body))
			assert.Equal(t, "whatsapp", body["channel"])
			assert.Equal(t, "654321", body["code"])
		})
	}
}

func TestBuildEmail(t *testing.T) {
	t.Parallel()

	m := buildEmail("shop@example.com", Message{Channel: models.ChannelEmail, Identifier: "asha@example.com", Code: "112233"})
	assert.Equal(t, []string{"asha@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"shop@example.com"}, m.GetHeader("From"))

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "112233")
}

func TestEmailSender_CancelledContext(t *testing.T) {
	t.Parallel()

	s := NewEmailSender(SMTPConfig{Host: "smtp.invalid", Port: 587, Username: "shop@example.com"})
	assert.Equal(t, "shop@example.com", s.from)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Send(ctx, Message{Channel: models.ChannelEmail, Identifier: "a@b.co", Code: "123456"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLogSender(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := logging.IntoContext(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, LogSender{}.Send(ctx, Message{Channel: models.ChannelMobile, Identifier: "9876543210", Code: "999999"}))
	out := buf.String()
	assert.Contains(t, out, "otp_transport_disabled")
	assert.False(t, strings.Contains(out, "999999"), "codes never reach the log")
}

func TestStaticWhatsapp(t *testing.T) {
	t.Parallel()

	assert.True(t, StaticWhatsapp{Enabled: true}.IsWhatsappNumber(context.Background(), "9876543210"))
	assert.False(t, StaticWhatsapp{}.IsWhatsappNumber(context.Background(), "9876543210"))
}

package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/predictdash/internal/domain"
)

type chanBus struct {
	msgs chan domain.BusMessage
}

func newChanBus() *chanBus {
	return &chanBus{msgs: make(chan domain.BusMessage, 8)}
}

func (b *chanBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.msgs <- domain.BusMessage{Channel: channel, Payload: payload}
	return nil
}

func (b *chanBus) Subscribe(context.Context, ...string) (<-chan domain.BusMessage, error) {
	return b.msgs, nil
}

func TestHubRelaysBusMessages(t *testing.T) {
	require := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newChanBus()
	hub := NewHub(bus, Config{Mode: "server"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	go func() { _ = hub.Run(ctx) }()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var hello map[string]any
	require.NoError(conn.ReadJSON(&hello))
	require.Equal("status", hello["type"])

	require.Eventually(func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(bus.Publish(ctx, domain.ChannelToast, []byte(`{"type":"toast","payload":{"title":"Purchase Successful!"}}`)))

	var got outbound
	require.NoError(conn.ReadJSON(&got))
	require.Equal(domain.ChannelToast, got.Channel)
	var env map[string]any
	require.NoError(json.Unmarshal(got.Message, &env))
	require.Equal("toast", env["type"])
}

func TestClientSubscribed(t *testing.T) {
	c := &client{subs: map[string]bool{domain.ChannelWallet: true}}
	require.True(t, c.subscribed(domain.ChannelWallet))
	require.False(t, c.subscribed(domain.ChannelPurchase))
}

func TestCheckOrigin(t *testing.T) {
	h := NewHub(newChanBus(), Config{AllowedOrigins: []string{"http://localhost:3000"}}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Origin", "http://evil.example")
	require.False(t, h.checkOrigin(r))

	r.Header.Set("Origin", "http://localhost:3000")
	require.True(t, h.checkOrigin(r))
}

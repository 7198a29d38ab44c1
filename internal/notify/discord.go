package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Embed colours per event.
const (
	colorSucceeded = 0x2ecc71
	colorFailed    = 0xe74c3c
	colorOther     = 0x95a5a6
)

type discordEmbed struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Color       int           `json:"color"`
	Footer      discordFooter `json:"footer"`
}

type discordFooter struct {
	Text string `json:"text"`
}

type discordPayload struct {
	Username string         `json:"username"`
	Embeds   []discordEmbed `json:"embeds"`
}

// DiscordSender posts purchase and archive events to a Discord webhook as
// one colour-coded embed each.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordSender creates a DiscordSender with a 10s HTTP timeout.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func eventColor(event string) int {
	switch event {
	case EventPurchaseSucceeded:
		return colorSucceeded
	case EventPurchaseFailed, EventArchiveFailed:
		return colorFailed
	default:
		return colorOther
	}
}

// Send posts the message as an embed titled title, footed with the event.
func (d *DiscordSender) Send(ctx context.Context, event, title, message string) error {
	body, err := json.Marshal(discordPayload{
		Username: "predictdash",
		Embeds: []discordEmbed{{
			Title:       title,
			Description: message,
			Color:       eventColor(event),
			Footer:      discordFooter{Text: event},
		}},
	})
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: send request: %w", err)
	}
	defer resp.Body.Close()

	// 204 on success.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Name returns the sender identifier.
func (d *DiscordSender) Name() string {
	return "discord"
}

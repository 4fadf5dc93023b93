// Package notification posts run outcomes to Discord webhooks. Both webhooks
// are optional; an unconfigured notifier is a no-op.
package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/greenscope/greenscope-api/internal/properties"
)

type DiscordMessage struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

type Notifier struct {
	errorURL   string
	successURL string
}

func NewNotifier(cfg properties.DiscordConfig) *Notifier {
	return &Notifier{errorURL: cfg.ErrorWebhookURL, successURL: cfg.SuccessWebhookURL}
}

// NotifyError posts a red embed to the error webhook.
func (n *Notifier) NotifyError(message string) error {
	if n.errorURL == "" {
		return nil
	}
	return post(n.errorURL, DiscordMessage{
		Embeds: []DiscordEmbed{
			{
				Title:       "🚨 NDVI run failed",
				Description: message,
				Color:       16711680,
			},
		},
	})
}

// NotifySuccess posts a green embed to the success webhook.
func (n *Notifier) NotifySuccess(message string) error {
	if n.successURL == "" {
		return nil
	}
	return post(n.successURL, DiscordMessage{
		Embeds: []DiscordEmbed{
			{
				Title:       "✅ NDVI run complete",
				Description: message,
				Color:       65280,
			},
		},
	})
}

func post(url string, message DiscordMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send Discord notification, status code: %d", resp.StatusCode)
	}
	return nil
}

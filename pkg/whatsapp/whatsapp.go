// Package whatsapp speaks the Meta Cloud API: webhook signature
// validation, payload decoding, outbound text sends and media retrieval.
// It knows nothing about scoring; the bot package decides what to do
// with each message.
package whatsapp

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/luansvb/guardinia/pkg/config"
	"github.com/luansvb/guardinia/pkg/httputil"
	"github.com/luansvb/guardinia/pkg/textutil"
)

const graphBase = "https://graph.facebook.com/v21.0"

// Message is one inbound user message after decoding.
type Message struct {
	From      string // sender phone, E.164 digits
	ID        string // WhatsApp message id
	Type      string // text, image, audio, document...
	Text      string // body for text messages
	MediaID   string // Cloud API media id for non-text messages
	Timestamp string
}

// webhookPayload mirrors the Cloud API webhook envelope. Only the
// fields the bot consumes are mapped.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From      string `json:"from"`
					ID        string `json:"id"`
					Timestamp string `json:"timestamp"`
					Type      string `json:"type"`
					Text      struct {
						Body string `json:"body"`
					} `json:"text"`
					Image struct {
						ID string `json:"id"`
					} `json:"image"`
					Audio struct {
						ID string `json:"id"`
					} `json:"audio"`
					Document struct {
						ID string `json:"id"`
					} `json:"document"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ValidSignature checks the X-Hub-Signature-256 header against the raw
// body using the app secret. Comparison is constant-time. An empty
// secret rejects everything so a misconfigured gateway fails closed.
func ValidSignature(appSecret string, body []byte, header string) bool {
	if appSecret == "" {
		return false
	}
	provided, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(provided))
}

// VerifyHandshake answers the webhook subscription GET. It returns the
// challenge to echo back, or false when the mode or token is wrong.
func VerifyHandshake(verifyToken, mode, token, challenge string) (string, bool) {
	if mode != "subscribe" || verifyToken == "" || token != verifyToken {
		return "", false
	}
	return challenge, true
}

// ParseWebhook decodes the webhook envelope into the inbound messages
// it carries. Status-only notifications decode to an empty slice.
func ParseWebhook(body []byte) ([]Message, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("whatsapp: decoding webhook: %w", err)
	}
	var messages []Message
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, m := range change.Value.Messages {
				msg := Message{
					From:      m.From,
					ID:        m.ID,
					Type:      m.Type,
					Timestamp: m.Timestamp,
				}
				switch m.Type {
				case "text":
					msg.Text = m.Text.Body
				case "image":
					msg.MediaID = m.Image.ID
				case "audio":
					msg.MediaID = m.Audio.ID
				case "document":
					msg.MediaID = m.Document.ID
				}
				messages = append(messages, msg)
			}
		}
	}
	return messages, nil
}

// TextExtractor turns media bytes into analyzable text (OCR for
// receipts, transcription for audio). The bot degrades gracefully when
// none is wired.
type TextExtractor interface {
	Extract(ctx context.Context, mediaType string, data []byte) (string, error)
}

// Client sends messages and fetches media through the Cloud API.
type Client struct {
	token    string
	phoneID  string
	base     string
	sendHTTP *http.Client
	slowHTTP *http.Client
}

// NewClient builds a Cloud API client from configuration, or nil when
// the gateway is not configured for WhatsApp.
func NewClient(cfg *config.Config) *Client {
	if cfg.WhatsAppToken == "" || cfg.WhatsAppPhoneID == "" {
		return nil
	}
	return &Client{
		token:    cfg.WhatsAppToken,
		phoneID:  cfg.WhatsAppPhoneID,
		base:     graphBase,
		sendHTTP: httputil.MediumClient(),
		slowHTTP: httputil.SlowClient(),
	}
}

// SendText delivers one text message to a recipient.
func (c *Client) SendText(ctx context.Context, to, text string) error {
	if c == nil {
		return nil
	}
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": text},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/%s/messages", c.base, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.sendHTTP.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: send to %s: %w", textutil.MaskPhone(to), err)
	}
	defer httputil.DrainAndClose(resp.Body)
	if resp.StatusCode >= 300 {
		errBody, _ := httputil.ReadErrorBody(resp.Body)
		return fmt.Errorf("whatsapp: send status %d: %s", resp.StatusCode, errBody)
	}
	log.Printf("whatsapp_sent | to=%s", textutil.MaskPhone(to))
	return nil
}

// DownloadMedia resolves a media id to its ephemeral URL and fetches
// the bytes. Cloud API media URLs require the same bearer token.
func (c *Client) DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error) {
	if c == nil {
		return nil, "", fmt.Errorf("whatsapp: client not configured")
	}
	meta, err := c.resolveMedia(ctx, mediaID)
	if err != nil {
		return nil, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.URL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.slowHTTP.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("whatsapp: downloading media %s: %w", mediaID, err)
	}
	defer httputil.DrainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("whatsapp: media download status %d", resp.StatusCode)
	}
	data, err := httputil.ReadResponseBody(resp.Body, 0)
	if err != nil {
		return nil, "", err
	}
	return data, meta.MimeType, nil
}

type mediaMeta struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

func (c *Client) resolveMedia(ctx context.Context, mediaID string) (*mediaMeta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/"+mediaID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.sendHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: resolving media %s: %w", mediaID, err)
	}
	defer httputil.DrainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whatsapp: media resolve status %d", resp.StatusCode)
	}
	raw, err := httputil.ReadResponseBody(resp.Body, 0)
	if err != nil {
		return nil, err
	}
	var meta mediaMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("whatsapp: decoding media meta: %w", err)
	}
	if meta.URL == "" {
		return nil, fmt.Errorf("whatsapp: media %s has no url", mediaID)
	}
	return &meta, nil
}

package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultAPIURL = "https://graph.facebook.com/v21.0"

type Config struct {
	APIURL        string
	Token         string
	PhoneNumberID string
	VerifyToken   string
	AppSecret     string // пусто: подпись не проверяется
}

// Client отправляет сообщения через WhatsApp Cloud API
type Client struct {
	cfg        Config
	httpClient *http.Client

	mu          sync.Mutex
	lastInbound map[string]string // contact -> last inbound message id, нужен для typing
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{cfg: cfg, httpClient: httpClient, lastInbound: make(map[string]string)}
}

type textBody struct {
	Body string `json:"body"`
}

type sendRequest struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to,omitempty"`
	Type             string           `json:"type,omitempty"`
	Text             *textBody        `json:"text,omitempty"`
	Status           string           `json:"status,omitempty"`
	MessageID        string           `json:"message_id,omitempty"`
	TypingIndicator  *typingIndicator `json:"typing_indicator,omitempty"`
}

type typingIndicator struct {
	Type string `json:"type"`
}

func (c *Client) SendText(ctx context.Context, to, text string) error {
	return c.post(ctx, sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &textBody{Body: text},
	})
}

// ShowTyping отмечает последнее входящее прочитанным и показывает набор.
// Без входящего ничего не делает
func (c *Client) ShowTyping(ctx context.Context, to string) error {
	c.mu.Lock()
	messageID := c.lastInbound[to]
	c.mu.Unlock()
	if messageID == "" {
		return nil
	}

	return c.post(ctx, sendRequest{
		MessagingProduct: "whatsapp",
		Status:           "read",
		MessageID:        messageID,
		TypingIndicator:  &typingIndicator{Type: "text"},
	})
}

func (c *Client) rememberInbound(contact, messageID string) {
	if messageID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastInbound[contact] = messageID
}

func (c *Client) post(ctx context.Context, payload sendRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("whatsapp: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.cfg.APIURL, c.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("whatsapp: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp: send failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/channel"
)

const (
	maxPayloadBytes = 1 << 20
	seenCapacity    = 1024
)

type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				Contacts []struct {
					WaID    string `json:"wa_id"`
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
				} `json:"contacts"`
				Messages []struct {
					ID   string `json:"id"`
					From string `json:"from"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
				Statuses []json.RawMessage `json:"statuses"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// Channel транспорт WhatsApp Cloud API: отправка через Graph API и приём вебхуков
type Channel struct {
	*Client
	logger *zap.Logger

	mu     sync.RWMutex
	ctx    context.Context
	handle channel.Handler

	seenMu sync.Mutex
	seen   map[string]struct{}
	order  []string
}

func New(cfg Config, logger *zap.Logger) *Channel {
	return &Channel{
		Client: NewClient(cfg, nil),
		logger: logger,
		seen:   make(map[string]struct{}, seenCapacity),
	}
}

// Run регистрирует handle для вебхуков и блокируется до отмены ctx
func (c *Channel) Run(ctx context.Context, handle channel.Handler) error {
	c.mu.Lock()
	c.ctx, c.handle = ctx, handle
	c.mu.Unlock()

	c.logger.Info("WhatsApp webhook ready")
	<-ctx.Done()

	c.mu.Lock()
	c.handle = nil
	c.mu.Unlock()
	return nil
}

// Routes возвращает эндпоинты вебхука для монтирования в HTTP сервер
func (c *Channel) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", c.verify)
	r.Post("/", c.receive)
	return r
}

func (c *Channel) verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") != "subscribe" || c.cfg.VerifyToken == "" || q.Get("hub.verify_token") != c.cfg.VerifyToken {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, q.Get("hub.challenge"))
}

func (c *Channel) receive(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	if c.cfg.AppSecret != "" && !verifySignature(c.cfg.AppSecret, payload, r.Header.Get("X-Hub-Signature-256")) {
		c.logger.Warn("Rejected webhook with bad signature")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var body webhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	c.mu.RLock()
	ctx, handle := c.ctx, c.handle
	c.mu.RUnlock()
	if handle == nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}

	// Отвечаем сразу, обработка асинхронная. Сообщения одной доставки идут по порядку
	if msgs := c.extract(body); len(msgs) > 0 {
		go func() {
			for _, msg := range msgs {
				handle(ctx, msg)
			}
		}()
	}
	w.WriteHeader(http.StatusOK)
}

func (c *Channel) extract(body webhookPayload) []channel.Message {
	var out []channel.Message
	for _, entry := range body.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			names := make(map[string]string, len(change.Value.Contacts))
			for _, ct := range change.Value.Contacts {
				names[ct.WaID] = ct.Profile.Name
			}
			for _, m := range change.Value.Messages {
				if m.Type != "text" || c.alreadySeen(m.ID) {
					continue
				}
				c.rememberInbound(m.From, m.ID)
				out = append(out, channel.Message{
					ID:   m.ID,
					From: m.From,
					Name: names[m.From],
					Body: m.Text.Body,
				})
			}
		}
	}
	return out
}

// alreadySeen отсекает повторную доставку того же id
func (c *Channel) alreadySeen(id string) bool {
	if id == "" {
		return false
	}
	c.seenMu.Lock()
	defer c.seenMu.Unlock()

	if _, ok := c.seen[id]; ok {
		return true
	}
	c.seen[id] = struct{}{}
	c.order = append(c.order, id)
	if len(c.order) > seenCapacity {
		delete(c.seen, c.order[0])
		c.order = c.order[1:]
	}
	return false
}

func verifySignature(secret string, payload []byte, header string) bool {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, "sha256=") {
		return false
	}
	provided, err := hex.DecodeString(strings.TrimPrefix(header, "sha256="))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), provided)
}

package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/channel"
)

const textPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{"changes": [{"field": "messages", "value": {
    "contacts": [{"wa_id": "5511999999999", "profile": {"name": "Ana"}}],
    "messages": [{"id": "wamid.1", "from": "5511999999999", "type": "text", "text": {"body": "oi"}}]
  }}]}]
}`

const statusPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{"changes": [{"field": "messages", "value": {
    "statuses": [{"id": "wamid.9", "status": "delivered"}]
  }}]}]
}`

func runChannel(t *testing.T, cfg Config) (*Channel, <-chan channel.Message) {
	t.Helper()
	ch := New(cfg, zap.NewNop())
	got := make(chan channel.Message, 4)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = ch.Run(ctx, func(_ context.Context, msg channel.Message) { got <- msg })
	}()
	require.Eventually(t, func() bool {
		ch.mu.RLock()
		defer ch.mu.RUnlock()
		return ch.handle != nil
	}, time.Second, 5*time.Millisecond)
	return ch, got
}

func post(t *testing.T, h http.Handler, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_Verify(t *testing.T) {
	ch := New(Config{VerifyToken: "segredo"}, zap.NewNop())
	h := ch.Routes()

	req := httptest.NewRequest(http.MethodGet, "/?hub.mode=subscribe&hub.verify_token=segredo&hub.challenge=42", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/?hub.mode=subscribe&hub.verify_token=errado&hub.challenge=42", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWebhook_DeliversTextOnce(t *testing.T) {
	ch, got := runChannel(t, Config{})
	h := ch.Routes()

	assert.Equal(t, http.StatusOK, post(t, h, textPayload, nil).Code)
	select {
	case msg := <-got:
		assert.Equal(t, "5511999999999", msg.From)
		assert.Equal(t, "Ana", msg.Name)
		assert.Equal(t, "oi", msg.Body)
		assert.True(t, msg.IsPerson())
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	// повторная доставка того же id
	assert.Equal(t, http.StatusOK, post(t, h, textPayload, nil).Code)
	assert.Equal(t, http.StatusOK, post(t, h, statusPayload, nil).Code)
	select {
	case msg := <-got:
		t.Fatalf("unexpected delivery: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWebhook_KeepsOrderWithinDelivery(t *testing.T) {
	ch := New(Config{}, zap.NewNop())
	var mu sync.Mutex
	var bodies []string
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = ch.Run(ctx, func(_ context.Context, msg channel.Message) {
			// первое сообщение обрабатывается дольше остальных
			if msg.Body == "1" {
				time.Sleep(30 * time.Millisecond)
			}
			mu.Lock()
			bodies = append(bodies, msg.Body)
			mu.Unlock()
		})
	}()
	require.Eventually(t, func() bool {
		ch.mu.RLock()
		defer ch.mu.RUnlock()
		return ch.handle != nil
	}, time.Second, 5*time.Millisecond)

	payload := `{"entry": [{"changes": [{"field": "messages", "value": {"messages": [
	  {"id": "wamid.a", "from": "5511999999999", "type": "text", "text": {"body": "1"}},
	  {"id": "wamid.b", "from": "5511999999999", "type": "text", "text": {"body": "2"}},
	  {"id": "wamid.c", "from": "5511999999999", "type": "text", "text": {"body": "3"}}
	]}}]}]}`
	assert.Equal(t, http.StatusOK, post(t, ch.Routes(), payload, nil).Code)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(bodies) == 3
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"1", "2", "3"}, bodies)
}

func TestWebhook_Signature(t *testing.T) {
	ch, _ := runChannel(t, Config{AppSecret: "app-secret"})
	h := ch.Routes()

	assert.Equal(t, http.StatusUnauthorized, post(t, h, textPayload, map[string]string{"X-Hub-Signature-256": "sha256=deadbeef"}).Code)

	mac := hmac.New(sha256.New, []byte("app-secret"))
	mac.Write([]byte(textPayload))
	sig := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	assert.Equal(t, http.StatusOK, post(t, h, textPayload, map[string]string{"X-Hub-Signature-256": sig}).Code)
}

func TestWebhook_NotReady(t *testing.T) {
	ch := New(Config{}, zap.NewNop())
	assert.Equal(t, http.StatusServiceUnavailable, post(t, ch.Routes(), textPayload, nil).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, ch.Routes(), "{", nil).Code)
}

func TestClient_SendTextAndTyping(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []map[string]any
	)
	snapshot := func() []map[string]any {
		mu.Lock()
		defer mu.Unlock()
		return append([]map[string]any(nil), bodies...)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		mu.Lock()
		bodies = append(bodies, m)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{APIURL: srv.URL + "/", Token: "tok", PhoneNumberID: "12345"}, srv.Client())
	ctx := context.Background()

	require.NoError(t, c.ShowTyping(ctx, "5511"))
	assert.Empty(t, snapshot())

	c.rememberInbound("5511", "wamid.1")
	require.NoError(t, c.ShowTyping(ctx, "5511"))
	require.NoError(t, c.SendText(ctx, "5511", "olá"))

	got := snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, "read", got[0]["status"])
	assert.Equal(t, "wamid.1", got[0]["message_id"])
	assert.Equal(t, "5511", got[1]["to"])
	assert.Equal(t, map[string]any{"body": "olá"}, got[1]["text"])
}

func TestClient_SendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"bad token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{APIURL: srv.URL, PhoneNumberID: "1"}, srv.Client())
	err := c.SendText(context.Background(), "5511", "olá")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

// Package channeltest содержит Messenger для тестов, запоминающий отправленное
package channeltest

import (
	"context"
	"sync"
)

// Recorder запоминает отправленные сообщения и индикаторы набора по контактам
type Recorder struct {
	mu     sync.Mutex
	sent   map[string][]string
	typing map[string]int
}

func NewRecorder() *Recorder {
	return &Recorder{sent: make(map[string][]string), typing: make(map[string]int)}
}

func (r *Recorder) SendText(_ context.Context, to, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[to] = append(r.sent[to], text)
	return nil
}

func (r *Recorder) ShowTyping(_ context.Context, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.typing[to]++
	return nil
}

// Sent возвращает отправленные контакту тексты
func (r *Recorder) Sent(to string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent[to]...)
}

// Last возвращает последний отправленный контакту текст
func (r *Recorder) Last(to string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.sent[to]
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

// Typing возвращает, сколько раз контакту показали набор
func (r *Recorder) Typing(to string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.typing[to]
}

// Reset очищает записанное
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = make(map[string][]string)
	r.typing = make(map[string]int)
}

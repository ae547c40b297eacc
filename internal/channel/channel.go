// Package channel описывает мессенджер, через который работает роутер
package channel

import (
	"context"
	"strings"
)

// Message входящее сообщение
type Message struct {
	ID       string // идентификатор у провайдера, может быть пустым
	From     string // contact id
	Name     string // display name
	Body     string
	IsStatus bool
	IsGroup  bool
}

// IsPerson проверяет, что сообщение пришло из личного чата
func (m Message) IsPerson() bool {
	if m.IsStatus || m.IsGroup || m.From == "" {
		return false
	}
	return !strings.HasSuffix(m.From, "@g.us") && !strings.HasSuffix(m.From, "@broadcast")
}

// Messenger отправляет текст и индикатор набора
type Messenger interface {
	SendText(ctx context.Context, to, text string) error
	ShowTyping(ctx context.Context, to string) error
}

// Handler получает входящие сообщения
type Handler func(ctx context.Context, msg Message)

// Channel транспорт: Messenger, который ещё и доставляет входящие.
// Run блокируется до отмены ctx
type Channel interface {
	Messenger
	Run(ctx context.Context, handle Handler) error
}

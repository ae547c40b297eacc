// Package assistant обёртка над необязательной языковой моделью
package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/model"
)

// MaxHistory лимит сообщений истории на контакт, без системного промпта
const MaxHistory = 12

// MaxContacts лимит контактов с историей. Первым удаляется самый давний
const MaxContacts = 1000

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message одна реплика истории
type Message struct {
	Role Role
	Text string
}

// Completer отправляет модели историю и новое сообщение
type Completer interface {
	Complete(ctx context.Context, system string, history []Message, text string) (string, error)
}

// Assistant хранит ограниченную историю по контактам перед Completer
type Assistant struct {
	completer Completer
	system    string
	logger    *zap.Logger

	mu          sync.Mutex
	history     map[string]*contactHistory
	seq         uint64
	maxContacts int
}

type contactHistory struct {
	messages []Message
	seen     uint64
}

// Profile данные бизнеса для системного промпта
type Profile struct {
	ProviderName string
	PixKey       string
	Services     []model.Service
}

func New(completer Completer, profile Profile, logger *zap.Logger) *Assistant {
	return &Assistant{
		completer:   completer,
		system:      SystemPrompt(profile),
		logger:      logger,
		history:     make(map[string]*contactHistory),
		maxContacts: MaxContacts,
	}
}

// Reply возвращает ответ модели и записывает обе реплики в историю контакта
func (a *Assistant) Reply(ctx context.Context, contactID, text string) (string, error) {
	a.mu.Lock()
	var history []Message
	if h, ok := a.history[contactID]; ok {
		history = append(history, h.messages...)
	}
	a.mu.Unlock()

	reply, err := a.completer.Complete(ctx, a.system, history, text)
	if err != nil {
		return "", fmt.Errorf("assistant reply: %w", err)
	}
	reply = strings.TrimSpace(reply)

	a.mu.Lock()
	entry, ok := a.history[contactID]
	if !ok {
		a.evictOldest()
		entry = &contactHistory{}
		a.history[contactID] = entry
	}
	a.seq++
	entry.seen = a.seq
	h := append(entry.messages, Message{Role: RoleUser, Text: text}, Message{Role: RoleModel, Text: reply})
	if len(h) > MaxHistory {
		trimmed := len(h) - MaxHistory
		h = append([]Message(nil), h[trimmed:]...)
		a.logger.Debug("Trimmed assistant history", zap.String("contact_id", contactID), zap.Int("dropped", trimmed))
	}
	entry.messages = h
	a.mu.Unlock()

	return reply, nil
}

// Forget удаляет историю контакта
func (a *Assistant) Forget(contactID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.history, contactID)
}

// evictOldest освобождает место под новый контакт. Вызывать под a.mu.
func (a *Assistant) evictOldest() {
	if len(a.history) < a.maxContacts {
		return
	}
	var oldest string
	var seen uint64
	for id, h := range a.history {
		if oldest == "" || h.seen < seen {
			oldest, seen = id, h.seen
		}
	}
	delete(a.history, oldest)
	a.logger.Debug("Evicted assistant history", zap.String("contact_id", oldest))
}

func (a *Assistant) historyLen(contactID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if h, ok := a.history[contactID]; ok {
		return len(h.messages)
	}
	return 0
}

func (a *Assistant) contacts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.history)
}

// SystemPrompt собирает инструкции для модели
func SystemPrompt(p Profile) string {
	names := make([]string, 0, len(p.Services))
	for _, s := range p.Services {
		names = append(names, s.Name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Você é um assistente virtual para %s.\n", p.ProviderName)
	sb.WriteString("Seu objetivo é conversar naturalmente com os clientes e ajudá-los com:\n")
	sb.WriteString("1. Agendamentos - ver, criar, cancelar ou alterar horários na agenda\n")
	fmt.Fprintf(&sb, "2. Informações sobre serviços - %s\n", strings.Join(names, ", "))
	if p.PixKey != "" {
		fmt.Fprintf(&sb, "3. Informações sobre pagamentos - a chave PIX é %s\n", p.PixKey)
	}
	sb.WriteString("\nSeja amigável, direto e profissional. Para agendamentos, colete o serviço, a data, o horário e o nome do cliente.\n")
	sb.WriteString("Quando tiver todos os dados, responda SOMENTE com um JSON no formato ")
	sb.WriteString(`{"tipoDeServico": "<serviço>", "dataAgendamento": "AAAA-MM-DD", "horaInicio": "HH:MM", "nomeCliente": "<nome>"}`)
	sb.WriteString(".\nSe não souber responder algo, sugira que o cliente digite 'menu' para ver as opções.")
	return sb.String()
}

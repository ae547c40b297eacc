package state

import (
	"context"
	"sync"
	"time"
)

// Manager хранилище диалогов в памяти процесса
type Manager struct {
	mu     sync.RWMutex
	states map[string]*Conversation // contactID -> Conversation
	now    func() time.Time
}

// NewManager создаёт новый менеджер состояний
func NewManager() *Manager {
	return &Manager{
		states: make(map[string]*Conversation),
		now:    time.Now,
	}
}

// Get получает состояние пользователя или новое по умолчанию
func (sm *Manager) Get(_ context.Context, contactID string) (*Conversation, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if c, exists := sm.states[contactID]; exists {
		// Возвращаем копию, чтобы избежать race condition
		return c.Clone(), nil
	}
	return newConversation(contactID), nil
}

// Set сохраняет состояние. StepNone удаляет запись.
func (sm *Manager) Set(_ context.Context, c *Conversation) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if c.Step == StepNone {
		delete(sm.states, c.ContactID)
		return nil
	}
	stored := c.Clone()
	stored.UpdatedAt = sm.now()
	sm.states[c.ContactID] = stored
	return nil
}

// Delete очищает состояние и данные пользователя
func (sm *Manager) Delete(_ context.Context, contactID string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.states, contactID)
	return nil
}

// Sweep удаляет диалоги, простаивающие дольше maxIdle, и возвращает их число
func (sm *Manager) Sweep(maxIdle time.Duration) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	cutoff := sm.now().Add(-maxIdle)
	removed := 0
	for id, c := range sm.states {
		if c.UpdatedAt.Before(cutoff) {
			delete(sm.states, id)
			removed++
		}
	}
	return removed
}

// Len возвращает число диалогов
func (sm *Manager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.states)
}

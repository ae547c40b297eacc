// Package keylock мьютекс на строковый ключ
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Mutex сериализует вызовы с одинаковым ключом. Запись удаляется,
// когда её никто не держит и не ждёт
type Mutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *Mutex {
	return &Mutex{entries: make(map[string]*entry)}
}

// Lock ждёт освобождения key и возвращает функцию разблокировки
func (m *Mutex) Lock(key string) (unlock func()) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			m.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(m.entries, key)
			}
			m.mu.Unlock()
		})
	}
}

// Len возвращает число занятых или ожидаемых ключей
func (m *Mutex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

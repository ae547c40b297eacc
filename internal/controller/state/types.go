package state

import (
	"context"
	"time"
)

// Step шаг контакта в диалоге записи
type Step string

const (
	StepNone Step = "" // терминальное состояние: запись удаляется

	StepInitial               Step = "initial"
	StepAwaitingInitialChoice Step = "awaiting_initial_choice"

	// Запись
	StepAwaitingServiceChoice        Step = "awaiting_service_choice"
	StepAwaitingDayChoice            Step = "awaiting_day_choice"
	StepAwaitingDaySelectionFromList Step = "awaiting_day_selection_from_list"
	StepAwaitingTimeChoice           Step = "awaiting_time_choice"

	// Отмена
	StepAwaitingCancelChoice    Step = "awaiting_cancel_choice"
	StepAwaitingCancelSelection Step = "awaiting_cancel_selection"
)

// DayOption пункт показанного списка дней. Key от "1" до "K"
type DayOption struct {
	Key   string `json:"key"`
	Date  string `json:"date"` // YYYY-MM-DD
	Label string `json:"label"`
}

// CancelOption пункт показанного списка отмены
type CancelOption struct {
	Key   string `json:"key"`
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Data выбор пользователя в рамках одного сценария
type Data struct {
	Service         string         `json:"service,omitempty"` // каноническое имя
	ServiceLabel    string         `json:"service_label,omitempty"`
	DurationMinutes int            `json:"duration_minutes,omitempty"`
	SelectableDays  []DayOption    `json:"selectable_days,omitempty"`
	ChosenDate      string         `json:"chosen_date,omitempty"`
	ChosenDayLabel  string         `json:"chosen_day_label,omitempty"`
	AvailableTimes  []string       `json:"available_times,omitempty"`
	Cancelable      []CancelOption `json:"cancelable,omitempty"`
}

// Conversation состояние одного контакта
type Conversation struct {
	ContactID string    `json:"contact_id"`
	Step      Step      `json:"step"`
	Data      Data      `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone возвращает глубокую копию
func (c *Conversation) Clone() *Conversation {
	out := *c
	out.Data.SelectableDays = append([]DayOption(nil), c.Data.SelectableDays...)
	out.Data.AvailableTimes = append([]string(nil), c.Data.AvailableTimes...)
	out.Data.Cancelable = append([]CancelOption(nil), c.Data.Cancelable...)
	return &out
}

// Reset сбрасывает данные и переходит на step
func (c *Conversation) Reset(step Step) {
	c.Step = step
	c.Data = Data{}
}

// Store хранит диалоги по id контакта. Для неизвестного контакта Get
// не ошибается, а возвращает новый диалог на StepInitial
type Store interface {
	Get(ctx context.Context, contactID string) (*Conversation, error)
	Set(ctx context.Context, c *Conversation) error
	Delete(ctx context.Context, contactID string) error
}

func newConversation(contactID string) *Conversation {
	return &Conversation{ContactID: contactID, Step: StepInitial}
}

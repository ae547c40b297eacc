package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/controller/state"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/metrics"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/service"
)

// Turn обрабатываемое входящее сообщение контакта
type Turn struct {
	ContactID    string
	UserName     string
	Body         string
	Conversation *state.Conversation
}

// Result результат обработчика шага. Next == state.StepNone завершает диалог.
// Redispatch сразу запускает обработчик Next с пустым текстом
type Result struct {
	Messages   []string
	Next       state.Step
	Redispatch bool
}

// HandlerFunc обработчик шага. Может менять t.Conversation.Data,
// а шаг меняется только через Result.Next
type HandlerFunc func(ctx context.Context, t *Turn) (Result, error)

// Assistant отвечает на свободный текст. Необязателен
type Assistant interface {
	Reply(ctx context.Context, contactID, text string) (string, error)
}

// forgetter реализуют ассистенты, хранящие историю переписки
type forgetter interface {
	Forget(contactID string)
}

// Profile данные бизнеса для клиентов
type Profile struct {
	ProviderName string
	PixKey       string
}

// Machine содержит таблицу шагов диалога и все зависимости
type Machine struct {
	booking   *service.BookingService
	assistant Assistant
	profile   Profile
	metrics   *metrics.Metrics
	logger    *zap.Logger

	steps    map[state.Step]HandlerFunc
	fallback HandlerFunc
}

// NewMachine создаёт машину состояний диалога. assistant может быть nil.
func NewMachine(
	booking *service.BookingService,
	assistant Assistant,
	profile Profile,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Machine {
	mc := &Machine{
		booking:   booking,
		assistant: assistant,
		profile:   profile,
		metrics:   m,
		logger:    logger,
	}
	mc.steps = map[state.Step]HandlerFunc{
		state.StepInitial:                      mc.handleInitialChoice,
		state.StepAwaitingInitialChoice:        mc.handleInitialChoice,
		state.StepAwaitingServiceChoice:        mc.handleServiceChoice,
		state.StepAwaitingDayChoice:            mc.handleDayListing,
		state.StepAwaitingDaySelectionFromList: mc.handleDaySelection,
		state.StepAwaitingTimeChoice:           mc.handleTimeChoice,
		state.StepAwaitingCancelChoice:         mc.handleCancelListing,
		state.StepAwaitingCancelSelection:      mc.handleCancelSelection,
	}
	mc.fallback = mc.handleDefault
	return mc
}

// Dispatch запускает обработчик текущего шага с учётом Redispatch.
// После возврата t.Conversation.Step содержит шаг для сохранения
func (m *Machine) Dispatch(ctx context.Context, t *Turn) ([]string, error) {
	var out []string
	started := time.Now()
	entry := t.Conversation.Step
	defer func() {
		m.metrics.ObserveDispatch(string(entry), time.Since(started).Seconds())
	}()

	for hop := 0; hop <= maxRedispatch; hop++ {
		step := t.Conversation.Step
		handler, ok := m.steps[step]
		if !ok {
			m.logger.Warn("Unknown step, using default handler",
				zap.String("contact_id", t.ContactID),
				zap.String("step", string(step)))
			handler = m.fallback
		}

		res, err := handler(ctx, t)
		if err != nil {
			return out, err
		}
		out = append(out, res.Messages...)

		if res.Next != step {
			m.logger.Info("Step transition",
				zap.String("contact_id", t.ContactID),
				zap.String("from", string(step)),
				zap.String("to", string(res.Next)))
		}
		t.Conversation.Step = res.Next

		if !res.Redispatch || res.Next == state.StepNone {
			return out, nil
		}
		t.Body = ""
	}

	m.logger.Error("Redispatch limit reached",
		zap.String("contact_id", t.ContactID),
		zap.String("step", string(t.Conversation.Step)))
	return out, nil
}

// Menu возвращает текст главного меню для userName
func (m *Machine) Menu(userName string) string {
	return menuText(userName, m.profile.ProviderName)
}

// Reminder отправляется на приветствие, если меню уже показано
func (m *Machine) Reminder() string {
	return msgMenuReminder
}

// ForgetAssistant сбрасывает историю ассистента для контакта, если она есть
func (m *Machine) ForgetAssistant(contactID string) {
	if f, ok := m.assistant.(forgetter); ok {
		f.Forget(contactID)
	}
}

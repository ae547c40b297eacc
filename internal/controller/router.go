package controller

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/channel"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/controller/handlers"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/controller/state"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/keylock"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/metrics"
)

// DefaultMaxConcurrent лимит одновременно обрабатываемых сообщений
const DefaultMaxConcurrent = 32

const assistantPrefix = "ai:"

var greetingPattern = regexp.MustCompile(`(?i)^(oi|ol[áa]|come[cç]ar|bom dia|boa tarde|boa noite|ajuda)[!.]*$`)

// Router классифицирует входящие и ведёт машину диалога.
// Сообщения одного контакта обрабатываются по одному
type Router struct {
	machine   *handlers.Machine
	store     state.Store
	messenger channel.Messenger
	locks     *keylock.Mutex
	sem       *semaphore.Weighted
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewRouter(
	machine *handlers.Machine,
	store state.Store,
	messenger channel.Messenger,
	maxConcurrent int64,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Router {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Router{
		machine:   machine,
		store:     store,
		messenger: messenger,
		locks:     keylock.New(),
		sem:       semaphore.NewWeighted(maxConcurrent),
		metrics:   m,
		logger:    logger,
	}
}

// Route обрабатывает одно входящее и не возвращает ошибку: сбой логируется,
// клиенту уходит извинение, состояние контакта сбрасывается
func (r *Router) Route(ctx context.Context, msg channel.Message) {
	if !msg.IsPerson() {
		r.metrics.ObserveInbound("ignored")
		return
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		r.logger.Warn("Inbound message dropped", zap.String("contact_id", msg.From), zap.Error(err))
		return
	}
	defer r.sem.Release(1)

	unlock := r.locks.Lock(msg.From)
	defer unlock()

	replies, step, err := r.handle(ctx, msg)
	if err != nil {
		r.logger.Error("Failed to handle message",
			zap.String("contact_id", msg.From),
			zap.String("step", string(step)),
			zap.Error(err))
		r.metrics.ObserveHandlerFailure(string(step))

		if delErr := r.store.Delete(ctx, msg.From); delErr != nil {
			r.logger.Error("Failed to reset conversation", zap.String("contact_id", msg.From), zap.Error(delErr))
		}
		r.machine.ForgetAssistant(msg.From)
		replies = []string{handlers.MsgApology}
	}

	r.send(ctx, msg.From, replies)
}

// handle возвращает ответы и шаг, на котором пришло сообщение
func (r *Router) handle(ctx context.Context, msg channel.Message) (replies []string, step state.Step, err error) {
	conv, err := r.store.Get(ctx, msg.From)
	if err != nil {
		return nil, state.StepNone, fmt.Errorf("load conversation: %w", err)
	}
	step = conv.Step

	defer func() {
		if rec := recover(); rec != nil {
			replies = nil
			err = fmt.Errorf("panic in step %q: %v", step, rec)
		}
	}()

	body := strings.TrimSpace(msg.Body)
	lower := strings.ToLower(body)
	name := strings.TrimSpace(msg.Name)
	if name == "" {
		name = msg.From
	}
	turn := &handlers.Turn{
		ContactID:    msg.From,
		UserName:     name,
		Body:         body,
		Conversation: conv,
	}

	switch {
	case lower == "menu" || lower == "cancelar":
		r.metrics.ObserveInbound("reset")
		conv.Reset(state.StepAwaitingInitialChoice)
		r.machine.ForgetAssistant(msg.From)
		replies = []string{r.machine.Menu(name)}

	case greetingPattern.MatchString(lower):
		r.metrics.ObserveInbound("greeting")
		if conv.Step == state.StepAwaitingInitialChoice {
			replies = []string{r.machine.Reminder()}
		} else {
			conv.Reset(state.StepAwaitingInitialChoice)
			r.machine.ForgetAssistant(msg.From)
			replies = []string{r.machine.Menu(name)}
		}

	case strings.HasPrefix(lower, assistantPrefix):
		r.metrics.ObserveInbound("assistant")
		replies, err = r.machine.HandleAssistant(ctx, turn, body[len(assistantPrefix):])

	default:
		r.metrics.ObserveInbound("step")
		replies, err = r.machine.Dispatch(ctx, turn)
	}
	if err != nil {
		return nil, step, err
	}

	// initial без данных хранить незачем
	if conv.Step == state.StepNone || conv.Step == state.StepInitial {
		err = r.store.Delete(ctx, msg.From)
	} else {
		err = r.store.Set(ctx, conv)
	}
	if err != nil {
		return nil, step, fmt.Errorf("save conversation: %w", err)
	}
	return replies, step, nil
}

func (r *Router) send(ctx context.Context, to string, replies []string) {
	for _, text := range replies {
		err := r.messenger.SendText(ctx, to, text)
		r.metrics.ObserveOutbound(err)
		if err != nil {
			r.logger.Error("Failed to send message", zap.String("contact_id", to), zap.Error(err))
			return
		}
	}
}

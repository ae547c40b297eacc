package channel

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Pacer показывает набор и ждёт перед каждой отправкой
type Pacer struct {
	next   Messenger
	delay  time.Duration
	logger *zap.Logger
}

func NewPacer(next Messenger, delay time.Duration, logger *zap.Logger) *Pacer {
	return &Pacer{next: next, delay: delay, logger: logger}
}

func (p *Pacer) SendText(ctx context.Context, to, text string) error {
	if err := p.next.ShowTyping(ctx, to); err != nil {
		// индикатор не критичен
		p.logger.Debug("Failed to show typing", zap.String("contact_id", to), zap.Error(err))
	}
	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return p.next.SendText(ctx, to, text)
}

func (p *Pacer) ShowTyping(ctx context.Context, to string) error {
	return p.next.ShowTyping(ctx, to)
}

package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/channel"
)

// Channel транспорт Telegram. ID контакта это ID чата
type Channel struct {
	bot    *bot.Bot
	handle channel.Handler
	logger *zap.Logger
}

func New(token string, logger *zap.Logger, opts ...bot.Option) (*Channel, error) {
	c := &Channel{logger: logger}
	opts = append([]bot.Option{bot.WithDefaultHandler(c.onUpdate)}, opts...)

	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	c.bot = b
	return c, nil
}

// Run запускает long polling и блокируется до отмены ctx
func (c *Channel) Run(ctx context.Context, handle channel.Handler) error {
	c.handle = handle
	c.setCommands(ctx)

	c.logger.Info("Starting telegram bot...")
	c.bot.Start(ctx)
	return nil
}

func (c *Channel) SendText(ctx context.Context, to, text string) error {
	chatID, err := strconv.ParseInt(to, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat id %q: %w", to, err)
	}
	_, err = c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}

func (c *Channel) ShowTyping(ctx context.Context, to string) error {
	chatID, err := strconv.ParseInt(to, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat id %q: %w", to, err)
	}
	_, err = c.bot.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionTyping,
	})
	return err
}

func (c *Channel) onUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg, ok := toMessage(update)
	if !ok || c.handle == nil {
		return
	}
	c.handle(ctx, msg)
}

// toMessage преобразует текстовый апдейт. /start и /menu превращаются в команду меню
func toMessage(update *models.Update) (channel.Message, bool) {
	if update == nil || update.Message == nil || update.Message.Text == "" {
		return channel.Message{}, false
	}
	m := update.Message

	body := strings.TrimSpace(m.Text)
	switch body {
	case "/start", "/menu":
		body = "menu"
	}

	msg := channel.Message{
		ID:      strconv.Itoa(m.ID),
		From:    strconv.FormatInt(m.Chat.ID, 10),
		Body:    body,
		IsGroup: m.Chat.Type != models.ChatTypePrivate,
	}
	if m.From != nil {
		msg.Name = strings.TrimSpace(m.From.FirstName + " " + m.From.LastName)
		if msg.Name == "" {
			msg.Name = m.From.Username
		}
	}
	return msg, true
}

// setCommands устанавливает список команд в меню бота
func (c *Channel) setCommands(ctx context.Context) {
	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: []models.BotCommand{
			{Command: "start", Description: "Começar"},
			{Command: "menu", Description: "Ver o menu de opções"},
		},
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return
	}
	c.logger.Info("Bot commands menu set")
}

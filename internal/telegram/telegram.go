// Package telegram adapts the Telegram Bot API to the dispatcher's
// transport boundary: inbound updates via long polling, outbound
// replies and operator lead cards via sendMessage.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/rentline/leadbot/internal/bot"
	"github.com/rentline/leadbot/internal/domain"
)

// Client wraps the Telegram bot and implements bot.Sender and
// bot.Deliverer. Replies go to the end user's chat; lead cards and
// notices go to the configured leads chat.
type Client struct {
	b           *tgbot.Bot
	leadsChatID int64
	dispatcher  *bot.Dispatcher
}

// New creates a Telegram client. Attach the dispatcher with
// SetDispatcher before Run.
func New(token string, leadsChatID int64) (*Client, error) {
	c := &Client{leadsChatID: leadsChatID}

	b, err := tgbot.New(token, tgbot.WithDefaultHandler(c.onUpdate))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	c.b = b

	return c, nil
}

// SetDispatcher binds the conversation dispatcher. Updates arriving
// before this are dropped.
func (c *Client) SetDispatcher(d *bot.Dispatcher) {
	c.dispatcher = d
}

// Run starts long polling and blocks until ctx is cancelled.
func (c *Client) Run(ctx context.Context) {
	// Drop any stale webhook so polling definitely receives updates.
	if _, err := c.b.DeleteWebhook(ctx, &tgbot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
		slog.Warn("Failed to delete webhook", "error", err)
	}

	c.b.Start(ctx)
}

func (c *Client) onUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	m := update.Message
	if m == nil || c.dispatcher == nil {
		return
	}

	if m.Voice != nil || m.Audio != nil || m.VideoNote != nil {
		if err := c.dispatcher.HandleUnsupported(ctx, m.Chat.ID); err != nil {
			slog.Warn("Failed to reply to unsupported media", "chat_id", m.Chat.ID, "error", err)
		}
		return
	}

	if strings.TrimSpace(m.Text) == "" {
		return
	}

	msg := bot.Message{
		ChatID: m.Chat.ID,
		UserID: m.Chat.ID,
		Text:   m.Text,
	}
	if m.From != nil {
		msg.UserID = m.From.ID
		msg.Username = m.From.Username
		msg.FirstName = m.From.FirstName
	}

	if err := c.dispatcher.HandleMessage(ctx, msg); err != nil {
		slog.Error("Failed to handle message", "chat_id", m.Chat.ID, "error", err)
	}
}

// Send delivers a reply to the end user.
func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	_, err := c.b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// DeliverLead posts the lead card to the leads chat.
func (c *Client) DeliverLead(ctx context.Context, lead *domain.Lead) error {
	return c.DeliverNotice(ctx, LeadCard(lead))
}

// DeliverNotice posts an arbitrary notice to the leads chat.
func (c *Client) DeliverNotice(ctx context.Context, text string) error {
	_, err := c.b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    c.leadsChatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send to leads chat: %w", err)
	}
	return nil
}

// LeadCard formats the HTML operator card with every populated field.
func LeadCard(lead *domain.Lead) string {
	parts := []string{"🟢 <b>НОВЫЙ ЛИД</b>"}

	if lead.HasPeopleCount() {
		parts = append(parts, fmt.Sprintf("👥 <b>Кол-во человек:</b> %d", lead.PeopleCount))
	}
	if lead.HasMoveIn() {
		parts = append(parts, "📦 <b>Заселение:</b> "+lead.MoveIn)
	}
	if lead.HasEmployment() {
		parts = append(parts, "💼 <b>Кем работает/статус:</b> "+lead.Employment)
	}
	if lead.ShowingText != "" {
		parts = append(parts, "🕒 <b>Показ (как написал клиент):</b> "+lead.ShowingText)
	}
	if lead.ShowingTime != "" {
		parts = append(parts, "🧭 <b>Показ (нормализовано):</b> "+lead.ShowingTime)
	}

	if lead.Username != "" {
		parts = append(parts, "🔗 <b>Ссылка на клиента:</b> https://t.me/"+lead.Username)
	}
	parts = append(parts, fmt.Sprintf("🆔 <b>tg://user?id=</b>%d", lead.UserID))

	return strings.Join(parts, "\n")
}

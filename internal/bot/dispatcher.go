// Package bot implements the conversation dispatcher: command handling,
// per-conversation turn serialization, hand-off delivery and nudge
// signaling around the dialogue engine.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rentline/leadbot/internal/dialogue"
	"github.com/rentline/leadbot/internal/domain"
	"github.com/rentline/leadbot/internal/reminder"
	"github.com/rentline/leadbot/internal/store"
)

// Message is one inbound turn from a transport.
type Message struct {
	ChatID    int64
	UserID    int64
	Username  string
	FirstName string
	Text      string
}

// Sender delivers an outbound reply to the end user.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Deliverer hands a completed lead to the human operator. A returned
// error leaves the record non-terminal and retry-eligible on the next
// turn; the engine itself never retries.
type Deliverer interface {
	DeliverLead(ctx context.Context, lead *domain.Lead) error
	DeliverNotice(ctx context.Context, text string) error
}

const (
	remindPrefix = "Напомню 😊 "

	deliveryFailedNotice = "Я собрал данные, но не смог отправить менеджеру (техническая ошибка). " +
		"Пожалуйста, напишите /test_leads.\n\n"

	textPleaseReply = "Пожалуйста, напишите текстом 😊"
	noAccessReply   = "Нет доступа."
	testSentReply   = "Ок — смог отправить тестовое сообщение в LEADS_CHAT_ID."

	testFailedReply = "Не смог отправить сообщение в LEADS_CHAT_ID. Проверь:\n" +
		"1) LEADS_CHAT_ID (для группы/канала обычно отрицательный id вида -100...)\n" +
		"2) бот добавлен в группу/канал и имеет право писать\n" +
		"3) если LEADS_CHAT_ID = user_id человека — человек должен нажать /start у бота"

	nudgeTimeout = 30 * time.Second
)

// Options configures dispatcher behavior.
type Options struct {
	// AdminUserID gates admin/debug commands; 0 opens them to everyone.
	AdminUserID int64

	// Humanizing pause bounds before each outbound reply. A zero max
	// disables the pause (tests run with zeros).
	ReplyDelayMin time.Duration
	ReplyDelayMax time.Duration
}

// Dispatcher processes inbound turns one at a time per conversation.
type Dispatcher struct {
	repo      store.Repository
	sender    Sender
	deliverer Deliverer
	nudges    *reminder.Scheduler
	opts      Options

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewDispatcher creates a dispatcher. nudges may be nil to disable
// idle reminders.
func NewDispatcher(repo store.Repository, sender Sender, deliverer Deliverer, nudges *reminder.Scheduler, opts Options) *Dispatcher {
	return &Dispatcher{
		repo:      repo,
		sender:    sender,
		deliverer: deliverer,
		nudges:    nudges,
		opts:      opts,
		locks:     make(map[int64]*sync.Mutex),
	}
}

// HandleMessage processes one inbound message end to end. Turns for the
// same conversation are serialized; different conversations proceed
// concurrently.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg Message) error {
	lock := d.chatLock(msg.ChatID)
	lock.Lock()
	defer lock.Unlock()

	// A live message supersedes any pending nudge.
	if d.nudges != nil {
		d.nudges.Cancel(msg.ChatID)
	}

	text := strings.TrimSpace(msg.Text)

	switch {
	case text == "/id":
		if !d.isAdmin(msg.UserID) {
			return nil
		}
		return d.sender.Send(ctx, msg.ChatID, fmt.Sprintf("chat_id=%d\nuser_id=%d", msg.ChatID, msg.UserID))

	case text == "/test_leads" || text == "/test_manager":
		if !d.isAdmin(msg.UserID) {
			return d.sender.Send(ctx, msg.ChatID, noAccessReply)
		}
		return d.handleTestLeads(ctx, msg.ChatID)

	case text == "/start" || text == "/reset" || isStartWord(text):
		return d.restart(ctx, msg.ChatID)
	}

	return d.handleTurn(ctx, msg, text)
}

// HandleUnsupported replies to media the bot cannot process (voice,
// audio, video notes).
func (d *Dispatcher) HandleUnsupported(ctx context.Context, chatID int64) error {
	return d.sender.Send(ctx, chatID, textPleaseReply)
}

func (d *Dispatcher) handleTurn(ctx context.Context, msg Message, text string) error {
	lead, err := d.repo.Load(ctx, msg.ChatID)
	if err != nil {
		return fmt.Errorf("load lead: %w", err)
	}
	if lead == nil {
		lead = domain.NewLead(msg.ChatID, msg.UserID, msg.Username, msg.FirstName)
	}

	// Already handed off: stay polite, touch nothing.
	if lead.Paused || lead.HandoffSent {
		return d.sender.Send(ctx, msg.ChatID, dialogue.ClosingMessage)
	}

	// Auto-start: the first message of a conversation opens the
	// interview but is not consumed as an answer.
	if lead.LastQuestion == "" {
		lead.LastQuestion = dialogue.QuestionIntro
		if err := d.repo.Save(ctx, lead); err != nil {
			return fmt.Errorf("save lead: %w", err)
		}
		if err := d.humanDelay(ctx); err != nil {
			return err
		}
		return d.sender.Send(ctx, msg.ChatID, dialogue.QuestionIntro)
	}

	reply, nextQ, handoff, _ := dialogue.DecideReply(lead, text)

	if handoff && !lead.HandoffSent {
		if err := d.deliverer.DeliverLead(ctx, lead); err != nil {
			slog.Error("Lead delivery failed", "chat_id", lead.ChatID, "error", err)
			lead.HandoffSent = false
			lead.Paused = false
			pending := nextQ
			if pending == "" {
				pending = dialogue.QuestionIntro
			}
			reply = deliveryFailedNotice + pending
		} else {
			lead.HandoffSent = true
			lead.Paused = true
			slog.Info("Lead handed off", "chat_id", lead.ChatID)
		}
	}

	if err := d.repo.Save(ctx, lead); err != nil {
		return fmt.Errorf("save lead: %w", err)
	}

	if err := d.humanDelay(ctx); err != nil {
		return err
	}
	if err := d.sender.Send(ctx, msg.ChatID, reply); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}

	// Re-arm the idle nudge while the interview is still collecting.
	if d.nudges != nil && nextQ != "" && !lead.HandoffSent {
		chatID := msg.ChatID
		d.nudges.Schedule(chatID, func() { d.nudge(chatID) })
	}

	return nil
}

func (d *Dispatcher) handleTestLeads(ctx context.Context, chatID int64) error {
	if err := d.deliverer.DeliverNotice(ctx, "✅ Test lead destination (/test_leads)"); err != nil {
		return d.sender.Send(ctx, chatID, fmt.Sprintf("%s\n\nОшибка: %v", testFailedReply, err))
	}
	return d.sender.Send(ctx, chatID, testSentReply)
}

// restart discards the record entirely; a fresh one is created lazily
// on the next message.
func (d *Dispatcher) restart(ctx context.Context, chatID int64) error {
	if err := d.repo.Reset(ctx, chatID); err != nil {
		return fmt.Errorf("reset lead: %w", err)
	}
	if err := d.humanDelay(ctx); err != nil {
		return err
	}
	return d.sender.Send(ctx, chatID, dialogue.QuestionIntro)
}

// nudge fires from the scheduler when no message arrived in time. It
// re-reads the record: the reminder is skipped when the conversation
// was handed off, discarded or never got a question.
func (d *Dispatcher) nudge(chatID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), nudgeTimeout)
	defer cancel()

	lead, err := d.repo.Load(ctx, chatID)
	if err != nil {
		slog.Error("Nudge load failed", "chat_id", chatID, "error", err)
		return
	}
	if lead == nil || lead.HandoffSent || lead.Paused || lead.LastQuestion == "" {
		return
	}

	if err := d.sender.Send(ctx, chatID, remindPrefix+lead.LastQuestion); err != nil {
		slog.Warn("Nudge send failed", "chat_id", chatID, "error", err)
	}
}

func (d *Dispatcher) isAdmin(userID int64) bool {
	return d.opts.AdminUserID == 0 || userID == d.opts.AdminUserID
}

func (d *Dispatcher) chatLock(chatID int64) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()

	lock, ok := d.locks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[chatID] = lock
	}
	return lock
}

// humanDelay pauses a random 10-15 s (configurable) so replies do not
// land instantly.
func (d *Dispatcher) humanDelay(ctx context.Context) error {
	if d.opts.ReplyDelayMax <= 0 {
		return nil
	}
	delay := d.opts.ReplyDelayMin
	if spread := d.opts.ReplyDelayMax - d.opts.ReplyDelayMin; spread > 0 {
		delay += rand.N(spread)
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isStartWord(text string) bool {
	switch strings.ToLower(text) {
	case "start", "старт", "начать":
		return true
	}
	return false
}

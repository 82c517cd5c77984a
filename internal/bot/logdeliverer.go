package bot

import (
	"context"
	"log/slog"

	"github.com/rentline/leadbot/internal/domain"
)

// LogDeliverer writes completed leads to the log instead of an operator
// chat. Used when no Telegram transport is configured (local dev with
// the websocket chat).
type LogDeliverer struct{}

// DeliverLead logs the lead card fields.
func (LogDeliverer) DeliverLead(_ context.Context, lead *domain.Lead) error {
	slog.Info("New lead",
		"chat_id", lead.ChatID,
		"user_id", lead.UserID,
		"username", lead.Username,
		"people_count", lead.PeopleCount,
		"move_in", lead.MoveIn,
		"employment", lead.Employment,
		"showing_text", lead.ShowingText,
		"showing_time", lead.ShowingTime,
	)
	return nil
}

// DeliverNotice logs an operator notice.
func (LogDeliverer) DeliverNotice(_ context.Context, text string) error {
	slog.Info("Operator notice", "text", text)
	return nil
}

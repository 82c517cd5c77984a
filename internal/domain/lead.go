// Package domain contains core domain types for the leadbot application.
package domain

import (
	"time"
)

// Lead is the qualification interview state for one conversation.
//
// The five tracked fields (PeopleCount, MoveIn, Employment, ShowingTime,
// ShowingText) are first-write-wins: once non-empty they are never
// overwritten by later extraction. The JSON tags match the persisted blob
// layout, so records written by earlier deployments load unchanged and
// unknown keys are dropped on read.
type Lead struct {
	ChatID    int64  `json:"chat_id"`
	UserID    int64  `json:"user_id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`

	PeopleCount int    `json:"people_count,omitempty"`
	MoveIn      string `json:"move_in,omitempty"`
	Employment  string `json:"employment,omitempty"`

	// Parsed bucket for the showing slot, plus the raw reply alongside it.
	ShowingTime string `json:"showing_time,omitempty"`
	ShowingText string `json:"showing_text,omitempty"`

	HandoffSent bool `json:"handoff_sent"`
	Paused      bool `json:"paused"`

	// LastQuestion is the prompt most recently issued. It doubles as the
	// context deciding which free-text field a reply should fill.
	LastQuestion string `json:"last_question,omitempty"`

	// StuckCount is the number of consecutive turns with no field change.
	StuckCount int `json:"stuck_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLead creates an empty interview record for a conversation.
func NewLead(chatID, userID int64, username, firstName string) *Lead {
	return &Lead{
		ChatID:    chatID,
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
	}
}

// HasPeopleCount reports whether the party size has been captured.
func (l *Lead) HasPeopleCount() bool { return l.PeopleCount > 0 }

// HasMoveIn reports whether the move-in timing has been captured.
func (l *Lead) HasMoveIn() bool { return l.MoveIn != "" }

// HasEmployment reports whether the employment answer has been captured.
func (l *Lead) HasEmployment() bool { return l.Employment != "" }

// HasShowing reports whether either the parsed slot or the raw showing
// reply has been captured.
func (l *Lead) HasShowing() bool { return l.ShowingTime != "" || l.ShowingText != "" }

// Complete reports whether every field required for hand-off is present.
func (l *Lead) Complete() bool {
	return l.HasPeopleCount() && l.HasMoveIn() && l.HasEmployment() && l.HasShowing()
}

// Touch stamps UpdatedAt, setting CreatedAt on first persistence.
func (l *Lead) Touch() {
	now := time.Now().UTC().Truncate(time.Second)
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
}

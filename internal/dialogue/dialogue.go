// Package dialogue implements the qualification interview engine: field
// application, the question state machine and the stuck detector.
//
// The interview stage is never stored as an enum. It is recomputed every
// turn from which fields are populated, so identical field presence
// always yields the identical next prompt and a replayed turn cannot
// diverge from the persisted record.
package dialogue

import (
	"strings"

	"github.com/rentline/leadbot/internal/domain"
	"github.com/rentline/leadbot/internal/extract"
)

// Interview prompts, asked in order. The closing message is sent once
// the record is complete and again on every turn after hand-off.
const (
	QuestionIntro      = "Здравствуйте, подскажите пожалуйста, сколько вас человек и когда примерно планируете заселение?"
	QuestionEmployment = "Спасибо! Кем вы работаете ?"
	QuestionShowing    = "Когда удобно подъехать на показ — сегодня или завтра? "
	ClosingMessage     = "Понял. Менеджер уже получил ваш запрос и свяжется с вами."

	// Prepended after two consecutive unproductive turns. The first miss
	// goes without it so a single misunderstanding does not sound scripted.
	StuckPrefix = "Не совсем понял. "
)

const (
	maxEmploymentLen = 160
	maxShowingLen    = 200
)

// ApplyExtraction merges whatever facts the current reply yields into
// the record. Populated fields are never overwritten: the first answer
// wins and /reset is the only correction path. Empty text is a no-op.
func ApplyExtraction(lead *domain.Lead, text string) {
	t := strings.TrimSpace(text)
	if t == "" {
		return
	}

	if pc := extract.PeopleCount(t); pc > 0 && !lead.HasPeopleCount() {
		lead.PeopleCount = pc
	}

	if mv := extract.MoveIn(t); mv != "" && !lead.HasMoveIn() {
		lead.MoveIn = mv
	}

	lastQ := strings.ToLower(lead.LastQuestion)

	// Employment: once we asked about work, any non-empty answer counts.
	if !lead.HasEmployment() && (strings.Contains(lastQ, "кем") || strings.Contains(lastQ, "работ")) {
		lead.Employment = truncate(t, maxEmploymentLen)
	}

	// Showing: keep the raw reply and the parsed slot side by side.
	if strings.Contains(lastQ, "показ") {
		if lead.ShowingText == "" {
			lead.ShowingText = truncate(t, maxShowingLen)
		}
		if lead.ShowingTime == "" {
			if st := extract.ShowingTime(t); st != "" {
				lead.ShowingTime = st
			}
		}
	}
}

// NextQuestion evaluates the gating order and returns the reply text,
// the question to record as asked (empty when terminal) and whether the
// record is ready for hand-off. Pure: it only reads the record.
func NextQuestion(lead *domain.Lead) (reply, nextQ string, handoff bool) {
	if lead.HandoffSent {
		return ClosingMessage, "", false
	}

	if !lead.HasPeopleCount() || !lead.HasMoveIn() {
		return QuestionIntro, QuestionIntro, false
	}

	if !lead.HasEmployment() {
		return QuestionEmployment, QuestionEmployment, false
	}

	if !lead.HasShowing() {
		return QuestionShowing, QuestionShowing, false
	}

	return ClosingMessage, "", true
}

// DecideReply processes one inbound turn: applies extraction, updates
// the stuck counter, evaluates the state machine and records the issued
// question. The reserved fourth result mirrors the hand-off pause flag;
// the caller owns the actual paused/handoff_sent transition.
func DecideReply(lead *domain.Lead, text string) (reply, nextQ string, handoff, pause bool) {
	before := snapshot(lead)
	ApplyExtraction(lead, text)
	progressed := snapshot(lead) != before

	if progressed {
		lead.StuckCount = 0
	} else {
		lead.StuckCount++
	}

	reply, nextQ, handoff = NextQuestion(lead)

	if !progressed && lead.LastQuestion != "" && !lead.HandoffSent && lead.StuckCount >= 2 {
		reply = StuckPrefix + reply
	}

	if nextQ != "" {
		lead.LastQuestion = nextQ
	}

	return reply, nextQ, handoff, false
}

// fieldState captures the five tracked fields for progress detection.
type fieldState struct {
	peopleCount int
	moveIn      string
	employment  string
	showingTime string
	showingText string
}

func snapshot(lead *domain.Lead) fieldState {
	return fieldState{
		peopleCount: lead.PeopleCount,
		moveIn:      lead.MoveIn,
		employment:  lead.Employment,
		showingTime: lead.ShowingTime,
		showingText: lead.ShowingText,
	}
}

// truncate caps a reply at n runes without splitting a multi-byte
// character.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

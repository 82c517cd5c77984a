package dialogue

import (
	"strings"
	"testing"

	"github.com/rentline/leadbot/internal/domain"
)

func newAskedLead(question string) *domain.Lead {
	lead := domain.NewLead(100, 200, "renter", "Анна")
	lead.LastQuestion = question
	return lead
}

func TestDecideReplyIntroAnswer(t *testing.T) {
	lead := newAskedLead(QuestionIntro)

	reply, nextQ, handoff, _ := DecideReply(lead, "нас двое, заселение сегодня")

	if lead.PeopleCount != 2 {
		t.Errorf("PeopleCount = %d, want 2", lead.PeopleCount)
	}
	if lead.MoveIn != "today" {
		t.Errorf("MoveIn = %q, want %q", lead.MoveIn, "today")
	}
	if reply != QuestionEmployment || nextQ != QuestionEmployment {
		t.Errorf("got reply %q nextQ %q, want employment question", reply, nextQ)
	}
	if handoff {
		t.Error("handoff asserted before record is complete")
	}
	if lead.LastQuestion != QuestionEmployment {
		t.Errorf("LastQuestion = %q, want employment question", lead.LastQuestion)
	}
	if lead.StuckCount != 0 {
		t.Errorf("StuckCount = %d, want 0 after progress", lead.StuckCount)
	}
}

func TestDecideReplyEmploymentVerbatim(t *testing.T) {
	lead := newAskedLead(QuestionEmployment)
	lead.PeopleCount = 2
	lead.MoveIn = "today"

	reply, _, handoff, _ := DecideReply(lead, "я менеджер в банке")

	if lead.Employment != "я менеджер в банке" {
		t.Errorf("Employment = %q, want verbatim answer", lead.Employment)
	}
	if reply != QuestionShowing {
		t.Errorf("reply = %q, want showing question", reply)
	}
	if handoff {
		t.Error("handoff asserted before showing is known")
	}
}

func TestDecideReplyShowingParsed(t *testing.T) {
	lead := newAskedLead(QuestionShowing)
	lead.PeopleCount = 2
	lead.MoveIn = "today"
	lead.Employment = "менеджер"

	reply, nextQ, handoff, _ := DecideReply(lead, "завтра после 7 вечера")

	if lead.ShowingText != "завтра после 7 вечера" {
		t.Errorf("ShowingText = %q, want raw reply", lead.ShowingText)
	}
	if lead.ShowingTime != "tomorrow after 19:00" {
		t.Errorf("ShowingTime = %q, want %q", lead.ShowingTime, "tomorrow after 19:00")
	}
	if reply != ClosingMessage {
		t.Errorf("reply = %q, want closing message", reply)
	}
	if nextQ != "" {
		t.Errorf("nextQ = %q, want empty at completion", nextQ)
	}
	if !handoff {
		t.Error("handoff not asserted on a complete record")
	}
}

func TestStuckEscalationOnSecondMissOnly(t *testing.T) {
	lead := newAskedLead(QuestionIntro)

	reply1, _, _, _ := DecideReply(lead, "абракадабра")
	if strings.HasPrefix(reply1, StuckPrefix) {
		t.Errorf("first unproductive turn already prefixed: %q", reply1)
	}
	if lead.StuckCount != 1 {
		t.Errorf("StuckCount = %d, want 1", lead.StuckCount)
	}

	reply2, _, _, _ := DecideReply(lead, "тарабарщина")
	if !strings.HasPrefix(reply2, StuckPrefix) {
		t.Errorf("second unproductive turn not prefixed: %q", reply2)
	}
	if lead.StuckCount != 2 {
		t.Errorf("StuckCount = %d, want 2", lead.StuckCount)
	}

	// Progress resets the counter.
	DecideReply(lead, "нас трое, завтра")
	if lead.StuckCount != 0 {
		t.Errorf("StuckCount = %d, want 0 after progress", lead.StuckCount)
	}
}

func TestFirstWriteWins(t *testing.T) {
	lead := newAskedLead(QuestionIntro)
	lead.PeopleCount = 2
	lead.MoveIn = "today"
	lead.Employment = "врач"
	lead.ShowingTime = "today 19:00"
	lead.ShowingText = "сегодня в 19"
	lead.LastQuestion = QuestionShowing

	ApplyExtraction(lead, "нас пятеро, завтра, после 9 вечера")

	if lead.PeopleCount != 2 {
		t.Errorf("PeopleCount overwritten: %d", lead.PeopleCount)
	}
	if lead.MoveIn != "today" {
		t.Errorf("MoveIn overwritten: %q", lead.MoveIn)
	}
	if lead.Employment != "врач" {
		t.Errorf("Employment overwritten: %q", lead.Employment)
	}
	if lead.ShowingTime != "today 19:00" || lead.ShowingText != "сегодня в 19" {
		t.Errorf("showing fields overwritten: %q / %q", lead.ShowingTime, lead.ShowingText)
	}
}

func TestTerminalIdempotence(t *testing.T) {
	lead := newAskedLead("")
	lead.PeopleCount = 3
	lead.MoveIn = "tomorrow"
	lead.Employment = "повар"
	lead.ShowingText = "завтра"
	lead.HandoffSent = true
	lead.Paused = true

	before := *lead
	reply, nextQ, handoff, _ := DecideReply(lead, "нас шестеро, сегодня")

	if reply != ClosingMessage || nextQ != "" || handoff {
		t.Errorf("terminal turn returned (%q, %q, %v)", reply, nextQ, handoff)
	}
	if lead.PeopleCount != before.PeopleCount || lead.MoveIn != before.MoveIn ||
		lead.Employment != before.Employment || lead.ShowingText != before.ShowingText {
		t.Error("terminal turn mutated tracked fields")
	}
}

func TestHandoffRequiresAllFields(t *testing.T) {
	complete := func() *domain.Lead {
		l := newAskedLead(QuestionShowing)
		l.PeopleCount = 2
		l.MoveIn = "today"
		l.Employment = "врач"
		l.ShowingText = "завтра"
		return l
	}

	tests := []struct {
		name  string
		strip func(*domain.Lead)
	}{
		{"missing people count", func(l *domain.Lead) { l.PeopleCount = 0 }},
		{"missing move-in", func(l *domain.Lead) { l.MoveIn = "" }},
		{"missing employment", func(l *domain.Lead) { l.Employment = "" }},
		{"missing both showing fields", func(l *domain.Lead) { l.ShowingText = ""; l.ShowingTime = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := complete()
			tt.strip(lead)
			if _, _, handoff := NextQuestion(lead); handoff {
				t.Error("handoff asserted with a required field missing")
			}
		})
	}

	if _, _, handoff := NextQuestion(complete()); !handoff {
		t.Error("handoff not asserted on a complete record")
	}
}

func TestNextQuestionDeterministic(t *testing.T) {
	lead := newAskedLead(QuestionIntro)
	lead.PeopleCount = 2
	lead.MoveIn = "today"

	r1, q1, h1 := NextQuestion(lead)
	r2, q2, h2 := NextQuestion(lead)

	if r1 != r2 || q1 != q2 || h1 != h2 {
		t.Errorf("NextQuestion not deterministic: (%q,%q,%v) vs (%q,%q,%v)", r1, q1, h1, r2, q2, h2)
	}
}

func TestApplyExtractionEmptyTextNoOp(t *testing.T) {
	lead := newAskedLead(QuestionEmployment)
	lead.PeopleCount = 2
	lead.MoveIn = "today"

	ApplyExtraction(lead, "   ")

	if lead.Employment != "" {
		t.Errorf("empty reply stored as employment: %q", lead.Employment)
	}
}

func TestEmploymentAnswerCapped(t *testing.T) {
	lead := newAskedLead(QuestionEmployment)
	lead.PeopleCount = 2
	lead.MoveIn = "today"

	long := strings.Repeat("о", 500)
	ApplyExtraction(lead, long)

	if got := len([]rune(lead.Employment)); got != maxEmploymentLen {
		t.Errorf("Employment length = %d runes, want %d", got, maxEmploymentLen)
	}
}

func TestShowingRawStoredEvenWhenUnparsed(t *testing.T) {
	lead := newAskedLead(QuestionShowing)
	lead.PeopleCount = 2
	lead.MoveIn = "today"
	lead.Employment = "врач"

	reply, _, handoff, _ := DecideReply(lead, "как договоримся")

	if lead.ShowingText != "как договоримся" {
		t.Errorf("ShowingText = %q, want raw reply", lead.ShowingText)
	}
	if lead.ShowingTime != "" {
		t.Errorf("ShowingTime = %q, want empty", lead.ShowingTime)
	}
	// Raw text alone completes the showing requirement.
	if !handoff {
		t.Error("handoff not asserted with raw showing text present")
	}
	if reply != ClosingMessage {
		t.Errorf("reply = %q, want closing message", reply)
	}
}

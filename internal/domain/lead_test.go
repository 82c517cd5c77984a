package domain

import (
	"testing"
	"time"
)

func TestTouchSetsCreatedAtOnce(t *testing.T) {
	lead := NewLead(1, 2, "", "")

	lead.Touch()
	if lead.CreatedAt.IsZero() || lead.UpdatedAt.IsZero() {
		t.Fatal("Touch did not stamp timestamps")
	}

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	lead.CreatedAt = created
	lead.Touch()

	if !lead.CreatedAt.Equal(created) {
		t.Error("CreatedAt changed on second Touch")
	}
	if !lead.UpdatedAt.After(created) {
		t.Error("UpdatedAt not advanced on second Touch")
	}
}

func TestComplete(t *testing.T) {
	lead := NewLead(1, 2, "", "")
	if lead.Complete() {
		t.Error("empty lead reported complete")
	}

	lead.PeopleCount = 2
	lead.MoveIn = "today"
	lead.Employment = "врач"
	if lead.Complete() {
		t.Error("lead complete without any showing field")
	}

	lead.ShowingText = "завтра"
	if !lead.Complete() {
		t.Error("lead with raw showing text not complete")
	}

	lead.ShowingText = ""
	lead.ShowingTime = "tomorrow 19:00"
	if !lead.Complete() {
		t.Error("lead with parsed showing slot not complete")
	}
}

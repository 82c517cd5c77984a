// Package extract provides pure pattern-matching parsers that pull
// structured facts out of free-form renter replies. Every extractor is
// deterministic and case-insensitive; a miss is a zero value, never an
// error. Input is mixed Russian/English and the output is a normalized
// token for the operator, not a resolved calendar date.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Word-numerals accepted after the collective marker ("нас двое").
var wordCounts = map[string]int{
	"двое":    2,
	"трое":    3,
	"четверо": 4,
	"пятеро":  5,
	"шестеро": 6,
}

// RE2 has no unicode-aware \b, so Cyrillic tokens are fenced with
// explicit non-letter guards instead.
var (
	rePeopleWord  = regexp.MustCompile(`(?:^|[^\p{L}])нас\s+(двое|трое|четверо|пятеро|шестеро)(?:[^\p{L}]|$)`)
	rePeopleDigit = regexp.MustCompile(`(?:^|[^\p{L}])нас\s*[:\-]?\s*(\d{1,2})`)
	rePeopleUnit  = regexp.MustCompile(`(\d{1,2})\s*(?:человек|чел|people|persons)(?:[^\p{L}]|$)`)
	reUnitPeople  = regexp.MustCompile(`(?:people|persons)\s*[:\-]?\s*(\d{1,2})`)
)

// PeopleCount extracts the party size from a reply. Rules are tried in
// priority order and the first hit wins; 0 means no match.
func PeopleCount(text string) int {
	tl := strings.ToLower(strings.TrimSpace(text))
	if tl == "" {
		return 0
	}

	if m := rePeopleWord.FindStringSubmatch(tl); m != nil {
		return wordCounts[m[1]]
	}

	if m := rePeopleDigit.FindStringSubmatch(tl); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}

	if m := rePeopleUnit.FindStringSubmatch(tl); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}

	if m := reUnitPeople.FindStringSubmatch(tl); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}

	if strings.Contains(tl, "вдвоем") || strings.Contains(tl, "вдвоём") {
		return 2
	}

	if containsAny(tl, "я одна", "только я", "just me", "only me") {
		return 1
	}

	return 0
}

var (
	reRelativeRU = regexp.MustCompile(`через\s*(\d{1,2})\s*(дн|нед|мес)`)
	reRelativeEN = regexp.MustCompile(`\bin\s*(\d{1,2})\s*(day|days|week|weeks|month|months)\b`)
	reAbsolute   = regexp.MustCompile(`(\d{1,2})\s*(январ|феврал|март|апрел|ма[йя]|июн|июл|август|сентябр|октябр|ноябр|декабр)`)
)

var monthNames = map[string]string{
	"январ":   "January",
	"феврал":  "February",
	"март":    "March",
	"апрел":   "April",
	"май":     "May",
	"мая":     "May",
	"июн":     "June",
	"июл":     "July",
	"август":  "August",
	"сентябр": "September",
	"октябр":  "October",
	"ноябр":   "November",
	"декабр":  "December",
}

// MoveIn extracts the move-in timing as a semantic bucket or a lightly
// normalized phrase. Ambiguity is preserved: "через 2 недели" becomes
// "через 2 недель", never a calendar date. Empty string means no match.
func MoveIn(text string) string {
	tl := strings.ToLower(strings.TrimSpace(text))
	if tl == "" {
		return ""
	}

	if containsAny(tl, "на днях", "в ближайшие дни", "в ближайшее время", "скоро", "soon", "next few days") {
		return "в ближайшие дни"
	}

	if containsAny(tl, "asap", "срочно", "как можно скорее", "сразу") {
		return "ASAP"
	}
	if strings.Contains(tl, "сегодня") || strings.Contains(tl, "today") {
		return "today"
	}
	if strings.Contains(tl, "завтра") || strings.Contains(tl, "tomorrow") {
		return "tomorrow"
	}

	if m := reRelativeRU.FindStringSubmatch(tl); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch m[2] {
		case "дн":
			return fmt.Sprintf("через %d дней", n)
		case "нед":
			return fmt.Sprintf("через %d недель", n)
		default:
			return fmt.Sprintf("через %d месяцев", n)
		}
	}

	if m := reRelativeEN.FindStringSubmatch(tl); m != nil {
		n, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("in %d %s", n, m[2])
	}

	if m := reAbsolute.FindStringSubmatch(tl); m != nil {
		month, ok := monthNames[m[2]]
		if !ok {
			month = m[2]
		}
		return m[1] + " " + month
	}

	return ""
}

var (
	reClock    = regexp.MustCompile(`\b(\d{1,2})[:.](\d{2})\b`)
	reBareHour = regexp.MustCompile(`\b(\d{1,2})\b`)
)

// ShowingTime extracts a compact normalized showing slot for the
// operator, composed of an optional day bucket and an optional clock
// component: "today after 20:00", "tomorrow 19:00", "завтра после 7
// вечера" -> "tomorrow after 19:00". Empty string means no match.
func ShowingTime(text string) string {
	tl := strings.ToLower(strings.TrimSpace(text))
	if tl == "" {
		return ""
	}

	day := ""
	switch {
	case strings.Contains(tl, "сегодня") || strings.Contains(tl, "today"):
		day = "today"
	case strings.Contains(tl, "завтра") || strings.Contains(tl, "tomorrow"):
		day = "tomorrow"
	}

	after := containsAny(tl, "после", "after")

	// Explicit HH:MM beats a bare hour.
	if m := reClock.FindStringSubmatch(tl); m != nil {
		hh, _ := strconv.Atoi(m[1])
		return composeSlot(day, after, fmt.Sprintf("%02d:%s", hh, m[2]))
	}

	if m := reBareHour.FindStringSubmatch(tl); m != nil {
		hh, _ := strconv.Atoi(m[1])
		// Evening marker turns a 1-11 hour into 13-23.
		if containsAny(tl, "вечера", "pm", "p.m") && hh >= 1 && hh <= 11 {
			hh += 12
		}
		return composeSlot(day, after, fmt.Sprintf("%02d:00", hh))
	}

	return day
}

func composeSlot(day string, after bool, clock string) string {
	prefix := ""
	if after {
		prefix = "after "
	}
	if day != "" {
		return day + " " + prefix + clock
	}
	return prefix + clock
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

package intent

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const clock = `(\d{1,2})(?::(\d{2}))?\s?(am|pm)?`

var (
	tomorrowAt    = regexp.MustCompile(`(?i)\btomorrow at ` + clock + `\b`)
	nextWeekdayAt = regexp.MustCompile(`(?i)\bnext (\w+) at ` + clock + `\b`)
	// A bare number is only a time with a minute part or an am/pm suffix.
	bareClock = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2})\s?(am|pm)?|\s?(am|pm))\b`)

	dateWords  = regexp.MustCompile(`(?i)\b(today|tomorrow|next \w+)\b`)
	whitespace = regexp.MustCompile(`\s+`)
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// RuleParser recognises a few fixed phrasings without calling any model.
type RuleParser struct {
	DurationMinutes int
}

func NewRuleParser(durationMinutes int) *RuleParser {
	return &RuleParser{DurationMinutes: durationMinutes}
}

func (p *RuleParser) Parse(_ context.Context, text string, now time.Time) (Intent, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Intent{}, ErrEmptyText
	}

	in := Intent{
		Action:          ActionCreate,
		Title:           title(text),
		Priority:        priority(text),
		DurationMinutes: p.DurationMinutes,
	}
	if start, ok := startTime(text, now); ok {
		in.StartTime = &start
	}
	log.Tracef("rule parser read %q as %+v", text, in)
	return withDefaults(in), nil
}

func startTime(text string, now time.Time) (time.Time, bool) {
	if m := tomorrowAt.FindStringSubmatch(text); m != nil {
		return at(now, 1, m[1], m[2], m[3])
	}
	if m := nextWeekdayAt.FindStringSubmatch(text); m != nil {
		if day, known := weekdays[strings.ToLower(m[1])]; known {
			ahead := (int(day) - int(now.Weekday()) + 7) % 7
			if ahead == 0 {
				ahead = 7
			}
			return at(now, ahead, m[2], m[3], m[4])
		}
	}
	if m := bareClock.FindStringSubmatch(text); m != nil {
		meridiem := m[3]
		if meridiem == "" {
			meridiem = m[4]
		}
		return at(now, 0, m[1], m[2], meridiem)
	}
	return time.Time{}, false
}

func at(now time.Time, daysAhead int, hourText, minuteText, meridiem string) (time.Time, bool) {
	hour, err := strconv.Atoi(hourText)
	if err != nil {
		return time.Time{}, false
	}
	minute := 0
	if minuteText != "" {
		if minute, err = strconv.Atoi(minuteText); err != nil {
			return time.Time{}, false
		}
	}
	switch strings.ToLower(meridiem) {
	case "pm":
		if hour > 12 {
			return time.Time{}, false
		}
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour > 12 {
			return time.Time{}, false
		}
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 {
		return time.Time{}, false
	}
	return time.Date(now.Year(), now.Month(), now.Day()+daysAhead, hour, minute, 0, 0, now.Location()), true
}

func title(text string) string {
	head, _, _ := strings.Cut(text, " at ")
	head = dateWords.ReplaceAllString(head, "")
	return strings.TrimSpace(whitespace.ReplaceAllString(head, " "))
}

func priority(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "urgent"):
		return "urgent"
	case strings.Contains(lower, "high priority"), strings.Contains(lower, "important"):
		return "high"
	case strings.Contains(lower, "low priority"):
		return "low"
	}
	return DefaultPriority
}

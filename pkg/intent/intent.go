package intent

import (
	"context"
	"errors"
	"time"

	"github.com/klokku/planner/internal/config"
)

var ErrEmptyText = errors.New("text is empty")

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionQuery  Action = "query"
)

const (
	DefaultDurationMinutes = 60
	DefaultPriority        = "medium"
)

// Intent is a structured reading of a free-text scheduling request.
// StartTime and EndTime are nil when the text names no time.
type Intent struct {
	Action          Action     `json:"action"`
	Title           string     `json:"title"`
	StartTime       *time.Time `json:"startTime,omitempty"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	Description     string     `json:"description,omitempty"`
	Location        string     `json:"location,omitempty"`
	Attendees       []string   `json:"attendees,omitempty"`
	Priority        string     `json:"priority"`
	DurationMinutes int        `json:"durationMinutes"`
}

// Duration returns the explicit span when both ends are known, else DurationMinutes.
func (i Intent) Duration() time.Duration {
	if i.StartTime != nil && i.EndTime != nil && i.EndTime.After(*i.StartTime) {
		return i.EndTime.Sub(*i.StartTime)
	}
	return time.Duration(i.DurationMinutes) * time.Minute
}

// Parser turns text into an Intent. now is the reference instant, in the user's time zone,
// used to resolve words like "tomorrow".
type Parser interface {
	Parse(ctx context.Context, text string, now time.Time) (Intent, error)
}

func withDefaults(in Intent) Intent {
	if in.Action == "" {
		in.Action = ActionCreate
	}
	if in.Priority == "" {
		in.Priority = DefaultPriority
	}
	if in.DurationMinutes <= 0 {
		in.DurationMinutes = DefaultDurationMinutes
	}
	if in.StartTime != nil && in.EndTime == nil {
		end := in.StartTime.Add(time.Duration(in.DurationMinutes) * time.Minute)
		in.EndTime = &end
	}
	return in
}

// NewParser returns the LLM parser when enabled, otherwise the rule parser alone.
func NewParser(cfg config.Application) Parser {
	rules := NewRuleParser(cfg.Scheduling.DefaultDuration)
	if !cfg.Intent.Enabled {
		return rules
	}
	return NewLLMParser(cfg.Intent, rules)
}

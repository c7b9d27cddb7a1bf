package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/klokku/planner/internal/config"
	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("intent parser rate limit exceeded")

const systemPrompt = `You are a calendar assistant that turns natural language into structured event data.
Reply with a single JSON object with these fields:
action (create, update, delete or query), title, start_time and end_time (ISO 8601 with offset),
description, location, attendees (list of email addresses), priority (low, medium, high or urgent),
duration_minutes.
Convert relative phrases such as "today", "tomorrow" or "next week" into timestamps and never keep them in the title.
Use 60 minutes when no duration is given and "medium" when no priority is given.`

var codeFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// LLMParser asks an OpenAI compatible chat model to read the text and falls back on any failure.
type LLMParser struct {
	client   *openai.Client
	model    string
	timeout  time.Duration
	limiter  *rate.Limiter
	fallback Parser
}

func NewLLMParser(cfg config.Intent, fallback Parser) *LLMParser {
	clientConfig := openai.DefaultConfig(cfg.ApiKey)
	if cfg.BaseUrl != "" {
		clientConfig.BaseURL = cfg.BaseUrl
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	return &LLMParser{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    cfg.Model,
		timeout:  timeout,
		limiter:  rate.NewLimiter(limit, 1),
		fallback: fallback,
	}
}

func (p *LLMParser) Parse(ctx context.Context, text string, now time.Time) (Intent, error) {
	if strings.TrimSpace(text) == "" {
		return Intent{}, ErrEmptyText
	}
	in, err := p.ask(ctx, text, now)
	if err != nil {
		log.Warnf("LLM intent parsing failed, using fallback: %v", err)
		return p.fallback.Parse(ctx, text, now)
	}
	return in, nil
}

func (p *LLMParser) ask(ctx context.Context, text string, now time.Time) (Intent, error) {
	if !p.limiter.Allow() {
		return Intent{}, ErrRateLimited
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	started := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Current time: %s\nUser input: %s", now.Format(time.RFC3339), text)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Intent{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Intent{}, errors.New("empty response from model")
	}
	log.Debugf("LLM intent parsed in %s using %d tokens", time.Since(started), resp.Usage.TotalTokens)

	return decodeReply(resp.Choices[0].Message.Content, now.Location())
}

type llmReply struct {
	Action          string   `json:"action"`
	Title           string   `json:"title"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
	Description     string   `json:"description"`
	Location        string   `json:"location"`
	Attendees       []string `json:"attendees"`
	Priority        string   `json:"priority"`
	DurationMinutes int      `json:"duration_minutes"`
}

func decodeReply(content string, loc *time.Location) (Intent, error) {
	content = strings.TrimSpace(content)
	if m := codeFence.FindStringSubmatch(content); m != nil {
		content = m[1]
	}
	var reply llmReply
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return Intent{}, fmt.Errorf("invalid model reply: %w", err)
	}
	if strings.TrimSpace(reply.Title) == "" {
		return Intent{}, errors.New("model reply has no title")
	}

	in := Intent{
		Action:          Action(strings.ToLower(strings.TrimSpace(reply.Action))),
		Title:           strings.TrimSpace(reply.Title),
		Description:     reply.Description,
		Location:        reply.Location,
		Attendees:       reply.Attendees,
		Priority:        strings.ToLower(strings.TrimSpace(reply.Priority)),
		DurationMinutes: reply.DurationMinutes,
	}
	var err error
	if in.StartTime, err = parseTimestamp(reply.StartTime, loc); err != nil {
		return Intent{}, err
	}
	if in.EndTime, err = parseTimestamp(reply.EndTime, loc); err != nil {
		return Intent{}, err
	}
	return withDefaults(in), nil
}

// parseTimestamp reads an ISO 8601 value. Values without an offset are taken in loc.
func parseTimestamp(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "null" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognised timestamp %q", value)
}

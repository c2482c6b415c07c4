package suggest

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is used when no model flag is given.
const DefaultModel = openai.GPT4oMini

const systemPrompt = `You are an email triage assistant. Decide whether an unread email can be safely archived.
Archive bulk mail the user does not need to act on: newsletters, promotions, automated notifications, receipts for completed transactions.
Keep personal or work correspondence, anything requiring a reply or action, and anything you are unsure about.
Respond with exactly three lines:
DECISION: archive or keep
CATEGORY: Informational, Promotional/Marketing, Personal, or Other
REASON: one short sentence explaining the decision`

// Decision is the archive/keep recommendation for a message.
type Decision string

const (
	DecisionArchive Decision = "archive"
	DecisionKeep    Decision = "keep"
)

// Suggestion is a per-message recommendation with rationale. MessageID is
// filled in by the caller that pairs suggestions with messages.
type Suggestion struct {
	MessageID string
	Decision  Decision
	Category  string
	Rationale string
}

// InferenceError indicates the model call failed or returned output that
// could not be parsed. Callers must treat the affected message as "keep";
// a message is never archived on an uncertain outcome.
type InferenceError struct {
	Err error
	Raw string // raw model output, when the failure was a parse failure
}

func (e *InferenceError) Error() string {
	if e.Raw != "" {
		return fmt.Sprintf("unparseable inference response %q: %v", e.Raw, e.Err)
	}
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// Engine calls the hosted inference API.
type Engine struct {
	client *openai.Client
	model  string
}

// New returns an Engine for the given API key and model.
func New(apiKey, model string) *Engine {
	return NewWithClient(openai.NewClient(apiKey), model)
}

// NewWithClient returns an Engine on a preconfigured client, e.g. one
// pointed at a different base URL.
func NewWithClient(client *openai.Client, model string) *Engine {
	if model == "" {
		model = DefaultModel
	}
	return &Engine{client: client, model: model}
}

// Suggest classifies one message. The body is expected to be plain text
// already bounded by the extractor.
func (e *Engine) Suggest(ctx context.Context, subject, body string) (Suggestion, error) {
	content := fmt.Sprintf("Subject: %s\nBody: %s", subject, body)

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
		MaxTokens:   80,
		Temperature: 0.1,
	})
	if err != nil {
		return Suggestion{}, &InferenceError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return Suggestion{}, &InferenceError{Err: fmt.Errorf("response contained no choices")}
	}

	return parseSuggestion(resp.Choices[0].Message.Content)
}

// parseSuggestion extracts the decision, category and rationale from the
// model output. Anything without an unambiguous decision is an
// InferenceError.
func parseSuggestion(content string) (Suggestion, error) {
	var s Suggestion
	haveDecision := false

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "DECISION":
			switch {
			case strings.EqualFold(value, "archive"):
				s.Decision = DecisionArchive
				haveDecision = true
			case strings.EqualFold(value, "keep"):
				s.Decision = DecisionKeep
				haveDecision = true
			}
		case "CATEGORY":
			s.Category = normalizeCategory(value)
		case "REASON":
			s.Rationale = value
		}
	}

	if !haveDecision {
		return Suggestion{}, &InferenceError{
			Err: fmt.Errorf("no archive/keep decision found"),
			Raw: content,
		}
	}
	if s.Category == "" {
		s.Category = "Other"
	}
	return s, nil
}

// normalizeCategory maps common variations of the model output onto the
// four known categories.
func normalizeCategory(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "promo"), strings.Contains(lower, "marketing"):
		return "Promotional/Marketing"
	case strings.Contains(lower, "info"):
		return "Informational"
	case strings.Contains(lower, "personal"), strings.Contains(lower, "work"), strings.Contains(lower, "correspondence"):
		return "Personal"
	case lower == "":
		return ""
	default:
		return "Other"
	}
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pavelanni/trainer/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// maxContextChars caps how much source text is sent to the model. It is a
// fixed design constant, not user-configurable.
const maxContextChars = 5000

// Call is one recorded model interaction.
type Call struct {
	SessionID string
	Site      string // "generate" or "advise"
	Prompt    string
	Response  string
	Err       string
	Duration  time.Duration
}

// Call sites.
const (
	SiteGenerate = "generate"
	SiteAdvise   = "advise"
)

// CallLog records model interactions for diagnostics.
type CallLog interface {
	Record(ctx context.Context, c Call) error
}

// ParseError reports that the model's output was not valid JSON even after
// sanitization. Raw carries the original response for diagnosis.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model output: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
	calls CallLog
}

// New creates a new LLM client. calls may be nil to disable call recording.
func New(baseURL, apiKey, modelName string, calls CallLog) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
		calls: calls,
	}
}

// Ping verifies the endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM endpoint unreachable: %w", err)
	}
	return nil
}

// GenerateQuestions asks the model for n quiz questions grounded in the
// given source text (truncated to the first 5000 characters) and parses the
// response as a JSON array of quiz items after sanitization. When the output
// is not valid JSON even after sanitization, it returns the raw response and
// a *ParseError so the caller can recover it as "no questions produced".
func (c *Client) GenerateQuestions(ctx context.Context, text string, n int) ([]model.QuizItem, string, error) {
	prompt := buildQuestionPrompt(text, n)

	raw, err := c.complete(ctx, SiteGenerate, prompt, 0.3)
	if err != nil {
		return nil, "", err
	}
	slog.Debug("LLM response", "site", SiteGenerate, "raw", raw)

	items, err := parseQuizItems(raw)
	if err != nil {
		return nil, raw, err
	}
	return items, raw, nil
}

// Advise answers a user question about the training material. docText is
// truncated to the first 5000 characters.
func (c *Client) Advise(ctx context.Context, docText, question string) (string, error) {
	prompt := buildAdvicePrompt(docText, question)

	reply, err := c.complete(ctx, SiteAdvise, prompt, 0.7)
	if err != nil {
		return "", err
	}
	return reply, nil
}

// complete sends a single user-role prompt and returns the trimmed
// completion text. Every call is recorded through the call log.
func (c *Client) complete(ctx context.Context, site, prompt string, temperature float32) (string, error) {
	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	})
	if err != nil {
		c.record(ctx, site, prompt, "", err, time.Since(start))
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		err := fmt.Errorf("LLM returned no choices")
		c.record(ctx, site, prompt, "", err, time.Since(start))
		return "", err
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.record(ctx, site, prompt, raw, nil, time.Since(start))
	return raw, nil
}

func (c *Client) record(ctx context.Context, site, prompt, response string, callErr error, d time.Duration) {
	if c.calls == nil {
		return
	}
	call := Call{
		SessionID: SessionIDFromContext(ctx),
		Site:      site,
		Prompt:    prompt,
		Response:  response,
		Duration:  d,
	}
	if callErr != nil {
		call.Err = callErr.Error()
	}
	if err := c.calls.Record(ctx, call); err != nil {
		slog.Warn("failed to record LLM call", "site", site, "error", err)
	}
}

func parseQuizItems(raw string) ([]model.QuizItem, error) {
	cleaned := SanitizeJSON(raw)
	var items []model.QuizItem
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	return items, nil
}

func buildQuestionPrompt(text string, n int) string {
	var sb strings.Builder
	sb.WriteString("You are a training assistant. Based on the training material below, generate ")
	fmt.Fprintf(&sb, "%d quiz questions.\n", n)
	sb.WriteString("Only include two formats:\n")
	sb.WriteString("1. Multiple choice with 4 options (A, B, C, D)\n")
	sb.WriteString(`2. True or False (only two options: "True", "False")` + "\n\n")
	sb.WriteString("Each question must include:\n")
	sb.WriteString(`- "question": the question text` + "\n")
	sb.WriteString(`- "type": either "multiple_choice" or "true_false"` + "\n")
	sb.WriteString(`- "options": a list of answer options` + "\n")
	sb.WriteString(`- "answer": the correct answer (must match one of the options exactly)` + "\n")
	sb.WriteString(`- "page": the page number the question is drawn from (see the [Page N] markers)` + "\n\n")
	sb.WriteString("Skip boilerplate such as addresses, URLs, copyright notices, headers and footers.\n")
	sb.WriteString("Favor conceptual and comprehension questions over trivia.\n\n")
	sb.WriteString("Format your response as a raw JSON array - no markdown, no code block.\n\n")
	sb.WriteString(`[
  {
    "question": "What is the capital of France?",
    "type": "multiple_choice",
    "options": ["A. Berlin", "B. Madrid", "C. Paris", "D. Rome"],
    "answer": "C. Paris",
    "page": 2
  },
  {
    "question": "The Earth orbits the Sun.",
    "type": "true_false",
    "options": ["True", "False"],
    "answer": "True",
    "page": 1
  }
]` + "\n\n")
	sb.WriteString("Text:\n")
	sb.WriteString(truncate(text, maxContextChars))
	sb.WriteString("\n")
	return sb.String()
}

func buildAdvicePrompt(docText, question string) string {
	var sb strings.Builder
	sb.WriteString("You are a strategic training advisor. Based on the training material below, answer the user's question.\n\n")
	sb.WriteString("Training Material:\n")
	sb.WriteString(truncate(docText, maxContextChars))
	sb.WriteString("\n\nUser's Question:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nProvide a clear, strategic, and actionable response.\n")
	return sb.String()
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// Package generator adapts an external text-generation backend into the
// Generator contract, producing validated trivia questions.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/bobmcallan/trivia/internal/common"
	"github.com/bobmcallan/trivia/internal/interfaces"
)

// DefaultModel mirrors the teacher's gemini client default.
const DefaultModel = "gemini-3-flash-preview"

// DefaultTimeout is the per-call deadline applied when no WithTimeout
// option is given, matching common.GeneratorConfig's documented default.
const DefaultTimeout = 30 * time.Second

// Adapter implements interfaces.Generator against the Gemini API,
// grounded on internal/clients/gemini/client.go's Client, generalized
// from free-text stock analysis to structured trivia-question prompts.
type Adapter struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
	timeout time.Duration
	logger  *common.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithModel overrides the generation model.
func WithModel(model string) Option {
	return func(a *Adapter) { a.model = model }
}

// WithRateLimit throttles outbound calls, grounded on the teacher's
// eodhd client's WithRateLimit option.
func WithRateLimit(requestsPerSecond int) Option {
	return func(a *Adapter) {
		a.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout bounds each Generate call's upstream request, per spec
// §4.2/§5's documented default 30s per-call deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(a *Adapter) { a.timeout = timeout }
}

// WithLogger sets the logger.
func WithLogger(logger *common.Logger) Option {
	return func(a *Adapter) { a.logger = logger }
}

// New creates a Generator Adapter backed by the Gemini API.
func New(ctx context.Context, apiKey string, opts ...Option) (*Adapter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create generator client: %w", err)
	}

	a := &Adapter{
		client:  client,
		model:   DefaultModel,
		limiter: rate.NewLimiter(rate.Limit(2), 2),
		timeout: DefaultTimeout,
		logger:  common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

var _ interfaces.Generator = (*Adapter)(nil)

// Generate produces one validated question for topic within [minAge,
// maxAge]. nonce is folded into the prompt so repeated calls within a
// job are not correlated, mirroring the original Python's
// seed = random.randint(1000, 9999) discipline translated to Go's
// explicit-randomness-source idiom.
func (a *Adapter) Generate(ctx context.Context, topic string, minAge, maxAge int, nonce uint32) (*interfaces.GeneratedQuestion, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, &interfaces.GeneratorError{Kind: interfaces.GeneratorErrorTimeout, Err: err}
		}
		return nil, &interfaces.GeneratorError{Kind: interfaces.GeneratorErrorTransport, Err: err}
	}

	prompt := buildPrompt(topic, minAge, maxAge, nonce)

	a.logger.Debug().Str("model", a.model).Str("topic", topic).Msg("Generating trivia question")

	contents := genai.Text(prompt)
	result, err := a.client.Models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &interfaces.GeneratorError{Kind: interfaces.GeneratorErrorTimeout, Err: err}
		}
		return nil, &interfaces.GeneratorError{Kind: interfaces.GeneratorErrorTransport, Err: err}
	}

	text, err := extractText(result)
	if err != nil {
		return nil, &interfaces.GeneratorError{Kind: interfaces.GeneratorErrorParse, Err: err}
	}

	gq, err := parseQuestion(text)
	if err != nil {
		return nil, &interfaces.GeneratorError{Kind: interfaces.GeneratorErrorParse, Err: err}
	}

	if err := validate(gq); err != nil {
		return nil, &interfaces.GeneratorError{Kind: interfaces.GeneratorErrorValidation, Err: err}
	}

	return gq, nil
}

func buildPrompt(topic string, minAge, maxAge int, nonce uint32) string {
	var sb strings.Builder
	sb.WriteString("Generate one trivia question as a JSON object with fields ")
	sb.WriteString(`"prompt", "options" (an array of exactly 4 distinct strings), and "answer" `)
	sb.WriteString("(one of the options verbatim).\n")
	fmt.Fprintf(&sb, "Audience age range: %d to %d.\n", minAge, maxAge)
	if topic != "" && !strings.EqualFold(topic, "random") {
		fmt.Fprintf(&sb, "Topic: %s.\n", topic)
	} else {
		sb.WriteString("Topic: any suitable subject.\n")
	}
	fmt.Fprintf(&sb, "Variation token: %d (use this to avoid repeating a prior question).\n", nonce)
	sb.WriteString("Respond with only the JSON object, no surrounding text.")
	return sb.String()
}

func extractText(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}
	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	return text.String(), nil
}

type rawQuestion struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answer  string   `json:"answer"`
}

// parseQuestion extracts the JSON object from text, tolerating
// surrounding markdown code fences some models wrap responses in.
func parseQuestion(text string) (*interfaces.GeneratedQuestion, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object found in generator response")
	}

	var raw rawQuestion
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse generator response: %w", err)
	}

	return &interfaces.GeneratedQuestion{
		Prompt:  raw.Prompt,
		Options: raw.Options,
		Answer:  raw.Answer,
	}, nil
}

func validate(gq *interfaces.GeneratedQuestion) error {
	if strings.TrimSpace(gq.Prompt) == "" {
		return fmt.Errorf("empty prompt")
	}
	if len(gq.Options) != 4 {
		return fmt.Errorf("expected 4 options, got %d", len(gq.Options))
	}
	seen := make(map[string]bool, 4)
	for _, o := range gq.Options {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("empty option")
		}
		if seen[o] {
			return fmt.Errorf("duplicate option %q", o)
		}
		seen[o] = true
	}
	if !seen[gq.Answer] {
		return fmt.Errorf("answer %q is not among the options", gq.Answer)
	}
	return nil
}

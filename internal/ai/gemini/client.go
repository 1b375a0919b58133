package gemini

import (
	"context"
	"iter"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/smart-hr/internal/errors"
	"github.com/spigell/smart-hr/internal/utils"
)

const (
	Provider = "gemini"

	defaultModel        = "gemini-2.5-flash"
	defaultMaxRetries   = 3
	defaultMaxLogLength = 200
	defaultLocation     = "us-central1"

	BackendGemini = "gemini"
	BackendVertex = "vertex"

	baseBackoff   = time.Second
	maxRetryDelay = 10 * time.Second
)

var wait = utils.WaitFor

var retryHint = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*(ms|s|sec|secs|seconds?)?\b`)

// models is the subset of genai.Models the generator uses.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

type Options struct {
	APIKey       string
	Backend      string
	Project      string
	Location     string
	Model        string
	MaxRetries   int
	MaxLogLength int
}

// Generator calls a Gemini model, retrying temporary API failures.
type Generator struct {
	models     models
	model      string
	maxRetries int
	maxLogLen  int
	logger     *zap.Logger
}

// NewGenerator creates a Generator for the Gemini API or the Vertex AI backend.
func NewGenerator(ctx context.Context, opts Options, logger *zap.Logger) (*Generator, error) {
	cfg := &genai.ClientConfig{}

	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendGemini:
		apiKey := strings.TrimSpace(opts.APIKey)
		if apiKey == "" {
			return nil, errors.New("gemini api key is required")
		}
		cfg.APIKey = apiKey
		cfg.Backend = genai.BackendGeminiAPI
	case BackendVertex:
		if strings.TrimSpace(opts.Project) == "" {
			return nil, errors.New("vertex backend requires ai.gemini.project")
		}
		cfg.Backend = genai.BackendVertexAI
		cfg.Project = opts.Project
		cfg.Location = opts.Location
		if cfg.Location == "" {
			cfg.Location = defaultLocation
		}
	default:
		return nil, errors.Newf("unsupported gemini backend %q", opts.Backend)
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}

	return newGenerator(client.Models, opts, logger), nil
}

func newGenerator(m models, opts Options, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}
	return &Generator{
		models:     m,
		model:      model,
		maxRetries: opts.MaxRetries,
		maxLogLen:  opts.MaxLogLength,
		logger:     logger,
	}
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Generate sends contents and returns the first candidate's content.
func (g *Generator) Generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.Content, error) {
	if g == nil || g.models == nil {
		return nil, errors.New("gemini generator is not initialized")
	}

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
		if err == nil {
			content, err := firstContent(resp)
			if err != nil {
				return nil, err
			}
			g.logger.Debug("gemini response",
				zap.Int("attempt", attempt),
				zap.Int("parts", len(content.Parts)),
				zap.String("response_preview", utils.TruncateForLog(textOf(content), g.maxLogLen)),
			)
			return content, nil
		}

		lastErr = err
		if !g.backoff(ctx, attempt, err) {
			break
		}
	}

	return nil, errors.Wrap(lastErr, "generate content")
}

// Stream sends contents and passes each text chunk to emit. A failed attempt
// is retried only while nothing has been emitted yet.
func (g *Generator) Stream(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig, emit func(string) error) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	var (
		builder strings.Builder
		lastErr error
	)
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		var streamErr error
		for resp, err := range g.models.GenerateContentStream(ctx, g.model, contents, config) {
			if err != nil {
				streamErr = err
				break
			}
			chunk := textOf(responseContent(resp))
			if chunk == "" {
				continue
			}
			builder.WriteString(chunk)
			if err := emit(chunk); err != nil {
				return builder.String(), errors.Wrap(err, "emit chunk")
			}
		}

		if streamErr == nil {
			output := builder.String()
			g.logger.Debug("gemini stream finished",
				zap.Int("attempt", attempt),
				zap.Int("response_length", utf8.RuneCountInString(output)),
				zap.String("response_preview", utils.TruncateForLog(output, g.maxLogLen)),
			)
			return output, nil
		}

		lastErr = streamErr
		if builder.Len() > 0 || !g.backoff(ctx, attempt, streamErr) {
			break
		}
	}

	return builder.String(), errors.Wrap(lastErr, "stream content")
}

// backoff waits before the next attempt and reports whether one should be made.
func (g *Generator) backoff(ctx context.Context, attempt int, err error) bool {
	delay, temporary := retryDelay(err)
	if !temporary || attempt >= g.maxRetries {
		g.logger.Debug("gemini request failed",
			zap.Int("attempt", attempt),
			zap.Bool("temporary", temporary),
			zap.Error(err),
		)
		return false
	}

	if delay <= 0 {
		delay = baseBackoff * time.Duration(1<<(attempt-1))
	}
	g.logger.Warn("retrying gemini request",
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay),
		zap.Error(err),
	)

	return wait(ctx, delay) == nil
}

// retryDelay classifies err. Server errors are temporary; rate limits are
// temporary unless the server asks to wait longer than maxRetryDelay.
func retryDelay(err error) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	switch {
	case apiErr.Code >= http.StatusInternalServerError:
		return 0, true
	case apiErr.Code == http.StatusTooManyRequests:
		delay := requestedDelay(apiErr)
		if delay > maxRetryDelay {
			return delay, false
		}
		return delay, true
	default:
		return 0, false
	}
}

func requestedDelay(apiErr genai.APIError) time.Duration {
	for _, detail := range apiErr.Details {
		if raw, ok := detail["retryDelay"].(string); ok {
			if d, err := time.ParseDuration(raw); err == nil {
				return d
			}
		}
	}

	m := retryHint.FindStringSubmatch(apiErr.Message)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	if strings.EqualFold(m[2], "ms") {
		return time.Duration(n * float64(time.Millisecond))
	}
	return time.Duration(n * float64(time.Second))
}

func responseContent(resp *genai.GenerateContentResponse) *genai.Content {
	if resp == nil {
		return nil
	}
	for _, candidate := range resp.Candidates {
		if candidate != nil && candidate.Content != nil {
			return candidate.Content
		}
	}
	return nil
}

func firstContent(resp *genai.GenerateContentResponse) (*genai.Content, error) {
	content := responseContent(resp)
	if content == nil || len(content.Parts) == 0 {
		return nil, errors.New("gemini api returned empty response")
	}
	if content.Role == "" {
		content.Role = genai.RoleModel
	}
	return content, nil
}

// textOf joins the non-thought text parts of content.
func textOf(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

func functionCalls(content *genai.Content) []*genai.FunctionCall {
	if content == nil {
		return nil
	}
	var calls []*genai.FunctionCall
	for _, part := range content.Parts {
		if part != nil && part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return calls
}

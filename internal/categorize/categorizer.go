package categorize

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"callsight/internal/transcribe"
)

const defaultModel = "gpt-4o-mini"

const systemPrompt = "You label call-center transcripts. Reply with 1 to 3 topic " +
	"labels from the provided list, comma-separated, most relevant first. " +
	"Use the labels exactly as written. Reply with labels only, no explanation."

// Config configures the Categorizer.
type Config struct {
	APIKey     string
	Model      string
	MaxRetries int
	Timeout    time.Duration
	BaseURL    string       // Optional (tests)
	HTTPClient *http.Client // Optional (tests)
	Logger     *slog.Logger
}

// Result is a validated categorization. Categories always has at least
// one entry and Primary is always its first.
type Result struct {
	Primary    string
	Categories []string
}

// Fallback is the Result used when the engine fails or returns nothing
// inside the taxonomy.
func Fallback() Result {
	return Result{Primary: FallbackCategory, Categories: []string{FallbackCategory}}
}

// Categorizer asks the LLM engine for topic labels and validates its
// free-text answer against the taxonomy.
type Categorizer struct {
	model  string
	client openai.Client
	logger *slog.Logger
}

// New creates a Categorizer.
func New(cfg Config) *Categorizer {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Categorizer{
		model:  cfg.Model,
		client: openai.NewClient(opts...),
		logger: cfg.Logger,
	}
}

// Categorize labels a transcript. Engine failures and out-of-taxonomy
// answers degrade to the fallback label rather than failing the call;
// the only returned error is context cancellation, which aborts the run.
func (c *Categorizer) Categorize(ctx context.Context, utterances []transcribe.Utterance) (Result, error) {
	if len(utterances) == 0 {
		return Fallback(), nil
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(utterances)),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		c.logger.Warn("categorization engine call failed, using fallback", "error", err)
		return Fallback(), nil
	}
	if len(resp.Choices) == 0 {
		c.logger.Warn("categorization engine returned no choices, using fallback")
		return Fallback(), nil
	}

	labels := Filter(parseLabels(resp.Choices[0].Message.Content))
	if len(labels) == 0 {
		c.logger.Warn("categorization reply had no taxonomy labels, using fallback",
			"reply", resp.Choices[0].Message.Content)
		return Fallback(), nil
	}
	return Result{Primary: labels[0], Categories: labels}, nil
}

// buildPrompt flattens utterances into a speaker-prefixed transcript
// followed by the allowed labels.
func buildPrompt(utterances []transcribe.Utterance) string {
	var b strings.Builder
	b.WriteString("Transcript:\n")
	for _, u := range utterances {
		role := u.Role
		if role == "" {
			role = u.Speaker
		}
		fmt.Fprintf(&b, "%s: %s\n", role, u.Text)
	}
	b.WriteString("\nAllowed labels: ")
	b.WriteString(strings.Join(Taxonomy, ", "))
	return b.String()
}

// parseLabels splits the engine's free-text reply into candidate
// labels, tolerating newlines, bullets, numbering, and quotes.
func parseLabels(reply string) []string {
	fields := strings.FieldsFunc(reply, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})
	var out []string
	for _, f := range fields {
		f = strings.Trim(f, " \t\"'")
		f = strings.TrimLeft(f, "-*0123456789. ")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

package generative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/casepedia/internal/model"
	appErr "github.com/xxxsen/casepedia/internal/pkg/errors"
)

const defaultAnalyzeTimeout = 30 * time.Second

// Analyzer asks the configured provider for a legal reading of a query and
// the top ranked cases. Every call runs under a hard deadline; a slow or
// failing provider never blocks the caller beyond that.
type Analyzer struct {
	provider IProvider
	model    string
	timeout  time.Duration
}

func NewAnalyzer(provider IProvider, model string, timeout time.Duration) *Analyzer {
	if timeout <= 0 {
		timeout = defaultAnalyzeTimeout
	}
	return &Analyzer{
		provider: provider,
		model:    model,
		timeout:  timeout,
	}
}

func (a *Analyzer) Available() bool {
	return a != nil && a.provider != nil
}

func (a *Analyzer) Timeout() time.Duration {
	if a == nil {
		return 0
	}
	return a.timeout
}

func (a *Analyzer) Analyze(ctx context.Context, query string, cases []model.ScoredPrecedent) (*model.GenerativeAnalysis, error) {
	if !a.Available() {
		return nil, appErr.ErrGenerativeUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	raw, err := a.provider.Generate(ctx, a.model, buildPrompt(query, cases))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: after %s", appErr.ErrGenerativeTimeout, a.timeout)
		}
		if errors.Is(err, ErrUnavailable) {
			return nil, appErr.ErrGenerativeUnavailable
		}
		return nil, fmt.Errorf("generative analysis failed: %w", err)
	}
	analysis, err := parseAnalysis(raw)
	if err != nil {
		return nil, fmt.Errorf("parse generative output: %w", err)
	}
	logutil.GetLogger(ctx).Debug("generative analysis complete",
		zap.String("provider", a.provider.Name()),
		zap.Duration("cost", time.Since(start)))
	return analysis, nil
}

func buildPrompt(query string, cases []model.ScoredPrecedent) string {
	sb := &strings.Builder{}
	sb.WriteString("You are a legal research assistant for industrial accident compensation cases.\n")
	sb.WriteString("Analyze the user's situation against the retrieved precedents.\n\n")
	sb.WriteString("User situation:\n")
	sb.WriteString(query)
	sb.WriteString("\n\nRetrieved precedents:\n")
	for i, c := range cases {
		if i >= 5 {
			break
		}
		fmt.Fprintf(sb, "%d. [%s] %s (%s, %s): %s\n",
			i+1, c.Favorability.Label, c.Title, c.Court, c.Date, truncate(c.Summary, 300))
	}
	sb.WriteString("\nReply with JSON only, no prose around it, in this shape:\n")
	sb.WriteString(`{"summary": "...", "recommendations": ["..."], "precedents": [{"title": "...", "reference": "...", "note": "..."}]}`)
	sb.WriteString("\n")
	return sb.String()
}

// parseAnalysis tolerates the usual provider quirks: code fences around the
// JSON and leading prose before the first brace.
func parseAnalysis(raw string) (*model.GenerativeAnalysis, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, fmt.Errorf("empty response")
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+3:]
		text = strings.TrimPrefix(text, "json")
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	}
	if idx := strings.Index(text, "{"); idx > 0 {
		text = text[idx:]
	}
	text = strings.TrimSpace(text)
	analysis := &model.GenerativeAnalysis{}
	if err := json.Unmarshal([]byte(text), analysis); err != nil {
		return nil, err
	}
	if analysis.Summary == "" {
		return nil, fmt.Errorf("response has no summary")
	}
	if analysis.Recommendations == nil {
		analysis.Recommendations = []string{}
	}
	if analysis.Precedents == nil {
		analysis.Precedents = []model.GenerativePrecedent{}
	}
	return analysis, nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

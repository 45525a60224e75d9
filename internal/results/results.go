// Package results holds the per-slide-type aggregation strategies that turn a
// slide's collected responses into a broadcastable summary. Strategies are
// total: well-formed input never fails and an empty response list yields a
// zeroed summary.
package results

import (
	"fmt"
	"strings"

	"livedeck-service/internal/domain"
)

// Aggregator is one slide type's strategy: validate/normalize a raw answer at
// submission time, and roll all stored responses up into a summary.
type Aggregator interface {
	Normalize(answer any, slide domain.Slide) (any, error)
	Summarize(slide domain.Slide, responses []domain.Response) domain.Summary
}

var registry = map[domain.SlideType]Aggregator{}

// register wires a strategy into the lookup table. New slide types register
// themselves from their own file.
func register(t domain.SlideType, a Aggregator) {
	registry[t] = a
}

// Normalize validates an inbound answer for the slide's type. Types without a
// registered strategy accept the answer as-is.
func Normalize(answer any, slide domain.Slide) (any, error) {
	agg, ok := registry[slide.Type]
	if !ok {
		return answer, nil
	}
	return agg.Normalize(answer, slide)
}

// Aggregate computes the summary for a slide from its responses.
func Aggregate(slide domain.Slide, responses []domain.Response) domain.Summary {
	var summary domain.Summary
	if agg, ok := registry[slide.Type]; ok {
		summary = agg.Summarize(slide, responses)
	}
	summary.TotalResponses = len(responses)
	return summary
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidAnswer, fmt.Sprintf(format, args...))
}

// answerString coerces a string-or-array answer shape to its first trimmed string.
func answerString(answer any) string {
	switch v := answer.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	case []string:
		if len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
	}
	return ""
}

// answerNumber coerces JSON-decoded numeric shapes.
func answerNumber(answer any) (float64, bool) {
	switch v := answer.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

// noopAggregator serves slide types whose results are not derived from raw
// responses (content slides, Q&A, leaderboards).
type noopAggregator struct{}

func (noopAggregator) Normalize(answer any, _ domain.Slide) (any, error) { return answer, nil }

func (noopAggregator) Summarize(_ domain.Slide, _ []domain.Response) domain.Summary {
	return domain.Summary{}
}

func init() {
	register(domain.SlideContent, noopAggregator{})
	register(domain.SlideQna, noopAggregator{})
	register(domain.SlideLeaderboard, noopAggregator{})
}

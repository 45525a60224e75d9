package results

import (
	"strings"

	"livedeck-service/internal/domain"
)

// wordCloudAggregator folds every submitted word across all participants into
// a case-insensitive frequency map. The per-participant submission cap is
// enforced by the coordinator, not here.
type wordCloudAggregator struct{}

func (wordCloudAggregator) Normalize(answer any, _ domain.Slide) (any, error) {
	words := collectWords(answer)
	if len(words) == 0 {
		return nil, invalidf("please enter a word")
	}
	return words, nil
}

func (wordCloudAggregator) Summarize(_ domain.Slide, responses []domain.Response) domain.Summary {
	counts := make(map[string]int)
	for _, r := range responses {
		for _, w := range collectWords(r.Answer) {
			counts[strings.ToLower(w)]++
		}
	}
	return domain.Summary{WordCounts: counts}
}

func collectWords(answer any) []string {
	var raw []string
	switch v := answer.(type) {
	case string:
		raw = []string{v}
	case []string:
		raw = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}
	var words []string
	for _, w := range raw {
		if trimmed := strings.TrimSpace(w); trimmed != "" {
			words = append(words, trimmed)
		}
	}
	return words
}

func init() {
	register(domain.SlideWordCloud, wordCloudAggregator{})
}

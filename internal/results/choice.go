package results

import (
	"strings"

	"livedeck-service/internal/domain"
)

// choiceAggregator serves multiple_choice and pick_answer slides: one vote per
// participant, counted per configured option.
type choiceAggregator struct{}

func (choiceAggregator) Normalize(answer any, slide domain.Slide) (any, error) {
	picked := answerString(answer)
	if picked == "" {
		return nil, invalidf("please select an answer")
	}
	for _, opt := range slide.Options {
		if strings.TrimSpace(opt) == picked {
			return picked, nil
		}
	}
	return nil, invalidf("option %q is not available", picked)
}

func (choiceAggregator) Summarize(slide domain.Slide, responses []domain.Response) domain.Summary {
	counts := make(map[string]int, len(slide.Options))
	for _, opt := range slide.Options {
		counts[strings.TrimSpace(opt)] = 0
	}
	for _, r := range responses {
		key := answerString(r.Answer)
		// Answers that no longer match a configured option are dropped.
		if _, ok := counts[key]; ok {
			counts[key]++
		}
	}
	return domain.Summary{VoteCounts: counts}
}

func init() {
	register(domain.SlideMultipleChoice, choiceAggregator{})
	register(domain.SlidePickAnswer, choiceAggregator{})
}

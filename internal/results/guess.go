package results

import (
	"strconv"

	"livedeck-service/internal/domain"
)

// guessAggregator summarizes guess_number slides as a value→count
// distribution. Correctness is decided at submission time and stored on the
// response, so the summary only tallies the precomputed flags.
type guessAggregator struct{}

func (guessAggregator) Normalize(answer any, slide domain.Slide) (any, error) {
	v, ok := answerNumber(answer)
	if !ok {
		return nil, invalidf("guess must be a number")
	}
	guess := int(v)
	if s := slide.GuessNumber; s != nil && s.MaxValue > s.MinValue {
		if guess < s.MinValue || guess > s.MaxValue {
			return nil, invalidf("guess must be between %d and %d", s.MinValue, s.MaxValue)
		}
	}
	return guess, nil
}

func (guessAggregator) Summarize(_ domain.Slide, responses []domain.Response) domain.Summary {
	dist := make(map[string]int)
	correct := 0
	for _, r := range responses {
		v, ok := answerNumber(r.Answer)
		if !ok {
			continue
		}
		dist[strconv.Itoa(int(v))]++
		if r.IsCorrect {
			correct++
		}
	}
	return domain.Summary{Distribution: dist, CorrectCount: correct}
}

func init() {
	register(domain.SlideGuessNumber, guessAggregator{})
}

package results

import "livedeck-service/internal/domain"

// quizAggregator counts votes per option id and reports overall accuracy.
type quizAggregator struct{}

func (quizAggregator) Normalize(answer any, slide domain.Slide) (any, error) {
	picked := answerString(answer)
	if picked == "" {
		return nil, invalidf("please select an option")
	}
	if slide.Quiz != nil {
		for _, opt := range slide.Quiz.Options {
			if opt.ID == picked {
				return picked, nil
			}
		}
	}
	return nil, invalidf("option %q is not available", picked)
}

func (quizAggregator) Summarize(slide domain.Slide, responses []domain.Response) domain.Summary {
	counts := make(map[string]int)
	if slide.Quiz != nil {
		for _, opt := range slide.Quiz.Options {
			counts[opt.ID] = 0
		}
	}
	correct := 0
	for _, r := range responses {
		key := answerString(r.Answer)
		if _, ok := counts[key]; ok {
			counts[key]++
		}
		if r.IsCorrect {
			correct++
		}
	}
	accuracy := 0.0
	if len(responses) > 0 {
		accuracy = float64(correct) / float64(len(responses)) * 100
	}
	return domain.Summary{VoteCounts: counts, CorrectCount: correct, Accuracy: accuracy}
}

func init() {
	register(domain.SlideQuiz, quizAggregator{})
}

package results

import (
	"sort"

	"livedeck-service/internal/domain"
)

// textAggregator serves open_ended and type_answer slides: the summary is the
// raw list of answers with their upvote tallies. Voting itself is a
// coordinator sub-protocol; this only reads the stored voter lists.
type textAggregator struct{}

func (textAggregator) Normalize(answer any, _ domain.Slide) (any, error) {
	text := answerString(answer)
	if text == "" {
		return nil, invalidf("please enter an answer")
	}
	return text, nil
}

func (textAggregator) Summarize(_ domain.Slide, responses []domain.Response) domain.Summary {
	entries := make([]domain.TextEntry, 0, len(responses))
	for _, r := range responses {
		entries = append(entries, domain.TextEntry{
			ResponseID:      r.ID,
			Text:            answerString(r.Answer),
			ParticipantName: r.ParticipantName,
			SubmittedAt:     r.SubmittedAt,
			VoteCount:       len(r.Voters),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].VoteCount != entries[j].VoteCount {
			return entries[i].VoteCount > entries[j].VoteCount
		}
		return entries[i].SubmittedAt.Before(entries[j].SubmittedAt)
	})
	return domain.Summary{Entries: entries}
}

func init() {
	register(domain.SlideOpenEnded, textAggregator{})
	register(domain.SlideTypeAnswer, textAggregator{})
}

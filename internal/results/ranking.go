package results

import (
	"sort"
	"strings"

	"livedeck-service/internal/domain"
)

// rankingAggregator scores each response's ordering: the item ranked first
// earns len(items) points, the last earns 1. Totals are summed across
// responses and sorted descending; ties keep the slide's item order.
type rankingAggregator struct{}

func (rankingAggregator) Normalize(answer any, slide domain.Slide) (any, error) {
	ranked := collectWords(answer)
	if len(ranked) != len(slide.RankingItems) {
		return nil, invalidf("please rank every item")
	}
	seen := make(map[string]bool, len(ranked))
	for _, item := range ranked {
		if !containsTrimmed(slide.RankingItems, item) {
			return nil, invalidf("unknown item %q", item)
		}
		if seen[item] {
			return nil, invalidf("item %q ranked twice", item)
		}
		seen[item] = true
	}
	return ranked, nil
}

func (rankingAggregator) Summarize(slide domain.Slide, responses []domain.Response) domain.Summary {
	itemCount := len(slide.RankingItems)
	totals := make(map[string]int, itemCount)
	order := make([]string, 0, itemCount)
	for _, item := range slide.RankingItems {
		key := strings.TrimSpace(item)
		totals[key] = 0
		order = append(order, key)
	}
	for _, r := range responses {
		for pos, item := range collectWords(r.Answer) {
			if _, ok := totals[item]; ok {
				totals[item] += itemCount - pos
			}
		}
	}
	ranking := make([]domain.RankedItem, 0, itemCount)
	for _, item := range order {
		ranking = append(ranking, domain.RankedItem{Item: item, Score: totals[item]})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Score > ranking[j].Score
	})
	return domain.Summary{Ranking: ranking}
}

func containsTrimmed(items []string, target string) bool {
	for _, item := range items {
		if strings.TrimSpace(item) == target {
			return true
		}
	}
	return false
}

func init() {
	register(domain.SlideRanking, rankingAggregator{})
}

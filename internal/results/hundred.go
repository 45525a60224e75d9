package results

import (
	"strings"

	"livedeck-service/internal/domain"
)

// hundredPointsAggregator sums each participant's allocation of 100 points
// across the slide's items. Answers arrive either as item→points maps or as
// arrays of {item, points} objects.
type hundredPointsAggregator struct{}

func (hundredPointsAggregator) Normalize(answer any, slide domain.Slide) (any, error) {
	alloc, ok := pointsAllocation(answer)
	if !ok || len(alloc) == 0 {
		return nil, invalidf("please allocate your points")
	}
	var total float64
	normalized := make(map[string]any, len(alloc))
	for item, points := range alloc {
		if !containsTrimmed(slide.PointsItems, item) {
			return nil, invalidf("unknown item %q", item)
		}
		if points < 0 {
			return nil, invalidf("points for %q cannot be negative", item)
		}
		total += points
		normalized[item] = points
	}
	if total > 100 {
		return nil, invalidf("allocations exceed 100 points")
	}
	return normalized, nil
}

func (hundredPointsAggregator) Summarize(slide domain.Slide, responses []domain.Response) domain.Summary {
	totals := make(map[string]float64, len(slide.PointsItems))
	order := make([]string, 0, len(slide.PointsItems))
	for _, item := range slide.PointsItems {
		key := strings.TrimSpace(item)
		totals[key] = 0
		order = append(order, key)
	}
	for _, r := range responses {
		alloc, ok := pointsAllocation(r.Answer)
		if !ok {
			continue
		}
		for item, points := range alloc {
			if _, known := totals[item]; known {
				totals[item] += points
			}
		}
	}
	pointTotals := make([]domain.ItemPoints, 0, len(order))
	for _, item := range order {
		avg := 0.0
		if len(responses) > 0 {
			avg = totals[item] / float64(len(responses))
		}
		pointTotals = append(pointTotals, domain.ItemPoints{
			Item:    item,
			Total:   int(totals[item]),
			Average: avg,
		})
	}
	return domain.Summary{PointTotals: pointTotals}
}

// pointsAllocation flattens both accepted answer shapes into item→points.
func pointsAllocation(answer any) (map[string]float64, bool) {
	out := make(map[string]float64)
	switch v := answer.(type) {
	case map[string]any:
		for item, raw := range v {
			points, ok := answerNumber(raw)
			if !ok {
				return nil, false
			}
			out[strings.TrimSpace(item)] = points
		}
	case []any:
		for _, entry := range v {
			obj, ok := entry.(map[string]any)
			if !ok {
				return nil, false
			}
			item, _ := obj["item"].(string)
			points, ok := answerNumber(obj["points"])
			if !ok || strings.TrimSpace(item) == "" {
				return nil, false
			}
			out[strings.TrimSpace(item)] = points
		}
	default:
		return nil, false
	}
	return out, true
}

func init() {
	register(domain.SlideHundredPoints, hundredPointsAggregator{})
}

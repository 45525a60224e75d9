package results

import "livedeck-service/internal/domain"

// gridAggregator serves 2x2_grid and pin_on_image slides. There is nothing to
// fold: the summary is the raw list of per-participant coordinates.
type gridAggregator struct{}

func (gridAggregator) Normalize(answer any, _ domain.Slide) (any, error) {
	obj, ok := answer.(map[string]any)
	if !ok {
		return nil, invalidf("expected a coordinate")
	}
	x, okX := answerNumber(obj["x"])
	y, okY := answerNumber(obj["y"])
	if !okX || !okY {
		return nil, invalidf("coordinate must have numeric x and y")
	}
	return map[string]any{"x": x, "y": y}, nil
}

func (gridAggregator) Summarize(_ domain.Slide, responses []domain.Response) domain.Summary {
	placements := make([]domain.Placement, 0, len(responses))
	for _, r := range responses {
		obj, ok := r.Answer.(map[string]any)
		if !ok {
			continue
		}
		x, okX := answerNumber(obj["x"])
		y, okY := answerNumber(obj["y"])
		if !okX || !okY {
			continue
		}
		placements = append(placements, domain.Placement{
			ParticipantName: r.ParticipantName,
			X:               x,
			Y:               y,
		})
	}
	return domain.Summary{Placements: placements}
}

func init() {
	register(domain.SlideTwoByTwoGrid, gridAggregator{})
	register(domain.SlidePinOnImage, gridAggregator{})
}

package results

import (
	"strconv"
	"strings"

	"livedeck-service/internal/domain"
)

// scalesAggregator rolls a scales slide up into a per-statement distribution
// and mean, plus an overall mean over all submitted values (sum over count,
// not an average of the statement means).
type scalesAggregator struct{}

func (scalesAggregator) Normalize(answer any, slide domain.Slide) (any, error) {
	values, ok := answer.(map[string]any)
	if !ok {
		return nil, invalidf("expected one value per statement")
	}
	normalized := make(map[string]any, len(slide.Statements))
	for _, stmt := range slide.Statements {
		raw, ok := values[stmt]
		if !ok {
			return nil, invalidf("missing value for %q", stmt)
		}
		v, ok := answerNumber(raw)
		if !ok {
			return nil, invalidf("value for %q is not a number", stmt)
		}
		if slide.MaxValue > slide.MinValue && (v < float64(slide.MinValue) || v > float64(slide.MaxValue)) {
			return nil, invalidf("value for %q is out of range", stmt)
		}
		normalized[stmt] = v
	}
	return normalized, nil
}

func (scalesAggregator) Summarize(slide domain.Slide, responses []domain.Response) domain.Summary {
	statements := make([]domain.StatementSummary, 0, len(slide.Statements))
	var sum float64
	var count int
	for _, stmt := range slide.Statements {
		dist := make(map[string]int)
		var stmtSum float64
		var stmtCount int
		for _, r := range responses {
			values, ok := r.Answer.(map[string]any)
			if !ok {
				continue
			}
			v, ok := answerNumber(values[stmt])
			if !ok {
				continue
			}
			dist[strconv.FormatFloat(v, 'f', -1, 64)]++
			stmtSum += v
			stmtCount++
		}
		avg := 0.0
		if stmtCount > 0 {
			avg = stmtSum / float64(stmtCount)
		}
		statements = append(statements, domain.StatementSummary{
			Statement:    strings.TrimSpace(stmt),
			Distribution: dist,
			Average:      avg,
		})
		sum += stmtSum
		count += stmtCount
	}
	overall := 0.0
	if count > 0 {
		overall = sum / float64(count)
	}
	return domain.Summary{Statements: statements, OverallAverage: overall}
}

func init() {
	register(domain.SlideScales, scalesAggregator{})
}

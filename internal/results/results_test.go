package results

import (
	"errors"
	"testing"
	"time"

	"livedeck-service/internal/domain"
)

func resp(id, participant string, answer any) domain.Response {
	return domain.Response{
		ID:              id,
		ParticipantID:   participant,
		ParticipantName: participant,
		Answer:          answer,
		SubmittedAt:     time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
	}
}

func TestChoiceAggregation(t *testing.T) {
	slide := domain.Slide{Type: domain.SlideMultipleChoice, Options: []string{"A", "B", "C"}}
	responses := []domain.Response{
		resp("r1", "p1", "A"),
		resp("r2", "p2", "A"),
		resp("r3", "p3", "B"),
	}

	summary := Aggregate(slide, responses)
	if summary.TotalResponses != 3 {
		t.Fatalf("expected 3 total, got %d", summary.TotalResponses)
	}
	want := map[string]int{"A": 2, "B": 1, "C": 0}
	for opt, count := range want {
		if summary.VoteCounts[opt] != count {
			t.Fatalf("expected %s=%d, got %d", opt, count, summary.VoteCounts[opt])
		}
	}
}

func TestChoiceDropsUnknownAnswers(t *testing.T) {
	slide := domain.Slide{Type: domain.SlideMultipleChoice, Options: []string{"A", "B"}}
	responses := []domain.Response{
		resp("r1", "p1", "A"),
		resp("r2", "p2", "Z"),
	}
	summary := Aggregate(slide, responses)
	if summary.VoteCounts["A"] != 1 {
		t.Fatalf("expected A counted, got %v", summary.VoteCounts)
	}
	if _, ok := summary.VoteCounts["Z"]; ok {
		t.Fatalf("expected Z dropped, got %v", summary.VoteCounts)
	}
}

func TestChoiceNormalizeRejectsUnknownOption(t *testing.T) {
	slide := domain.Slide{Type: domain.SlideMultipleChoice, Options: []string{"A", "B"}}
	if _, err := Normalize("Z", slide); !errors.Is(err, domain.ErrInvalidAnswer) {
		t.Fatalf("expected invalid answer, got %v", err)
	}
	got, err := Normalize("  A  ", slide)
	if err != nil || got != "A" {
		t.Fatalf("expected trimmed A, got %v, %v", got, err)
	}
}

func TestWordCloudCaseInsensitive(t *testing.T) {
	slide := domain.Slide{Type: domain.SlideWordCloud}
	responses := []domain.Response{
		resp("r1", "p1", []string{"Fast", "fun"}),
		resp("r2", "p2", "fast"),
	}
	summary := Aggregate(slide, responses)
	if summary.WordCounts["fast"] != 2 || summary.WordCounts["fun"] != 1 {
		t.Fatalf("unexpected counts: %v", summary.WordCounts)
	}
}

func TestTextEntriesSortByVotes(t *testing.T) {
	slide := domain.Slide{Type: domain.SlideOpenEnded}
	popular := resp("r1", "p1", "ship it")
	popular.Voters = []string{"p2", "p3"}
	responses := []domain.Response{
		resp("r2", "p2", "wait"),
		popular,
	}
	summary := Aggregate(slide, responses)
	if summary.Entries[0].ResponseID != "r1" || summary.Entries[0].VoteCount != 2 {
		t.Fatalf("expected most-voted first, got %+v", summary.Entries)
	}
}

func TestScalesOverallMean(t *testing.T) {
	slide := domain.Slide{
		Type:       domain.SlideScales,
		Statements: []string{"Remote", "Snacks"},
		MinValue:   1,
		MaxValue:   5,
	}
	responses := []domain.Response{
		resp("r1", "p1", map[string]any{"Remote": 5.0, "Snacks": 1.0}),
		resp("r2", "p2", map[string]any{"Remote": 3.0, "Snacks": 3.0}),
	}
	summary := Aggregate(slide, responses)
	if len(summary.Statements) != 2 {
		t.Fatalf("expected two statements, got %d", len(summary.Statements))
	}
	if summary.Statements[0].Average != 4.0 {
		t.Fatalf("expected Remote mean 4, got %v", summary.Statements[0].Average)
	}
	if summary.Statements[0].Distribution["5"] != 1 {
		t.Fatalf("expected distribution keyed by value, got %v", summary.Statements[0].Distribution)
	}
	// Overall is sum over count: (5+1+3+3)/4 = 3.
	if summary.OverallAverage != 3.0 {
		t.Fatalf("expected overall 3, got %v", summary.OverallAverage)
	}
}

func TestScalesNormalizeRange(t *testing.T) {
	slide := domain.Slide{Type: domain.SlideScales, Statements: []string{"A"}, MinValue: 1, MaxValue: 5}
	if _, err := Normalize(map[string]any{"A": 9.0}, slide); !errors.Is(err, domain.ErrInvalidAnswer) {
		t.Fatalf("expected range error, got %v", err)
	}
	if _, err := Normalize(map[string]any{}, slide); !errors.Is(err, domain.ErrInvalidAnswer) {
		t.Fatalf("expected missing statement error, got %v", err)
	}
}

func TestRankingPoints(t *testing.T) {
	slide := domain.Slide{Type: domain.SlideRanking, RankingItems: []string{"Speed", "Quality", "Cost"}}
	responses := []domain.Response{
		resp("r1", "p1", []string{"Speed", "Quality", "Cost"}),
		resp("r2", "p2", []string{"Quality", "Speed", "Cost"}),
	}
	summary := Aggregate(slide, responses)
	// Speed: 3+2=5, Quality: 2+3=5, Cost: 1+1=2. Tie keeps slide order.
	if summary.Ranking[0].Item != "Speed" || summary.Ranking[0].Score != 5 {
		t.Fatalf("expected Speed first at 5, got %+v", summary.Ranking)
	}
	if summary.Ranking[1].Item != "Quality" || summary.Ranking[1].Score != 5 {
		t.Fatalf("expected Quality second at 5, got %+v", summary.Ranking)
	}
	if summary.Ranking[2].Item != "Cost" || summary.Ranking[2].Score != 2 {
		t.Fatalf("expected Cost last at 2, got %+v", summary.Ranking)
	}
}

func TestRankingNormalizeRequiresPermutation(t *testing.T) {
	slide := domain.Slide{Type: domain.SlideRanking, RankingItems: []string{"A", "B"}}
	cases := []any{
		[]string{"A"},
		[]string{"A", "A"},
		[]string{"A", "Z"},
	}
	for _, c := range cases {
		if _, err := Normalize(c, slide); !errors.Is(err, domain.ErrInvalidAnswer) {
			t.Fatalf("expected invalid for %v, got %v", c, err)
		}
	}
	if _, err := Normalize([]string{"B", "A"}, slide); err != nil {
		t.Fatalf("expected valid permutation, got %v", err)
	}
}

func TestHundredPoints(t *testing.T) {
	slide := domain.Slide{Type: domain.SlideHundredPoints, PointsItems: []string{"X", "Y"}}
	responses := []domain.Response{
		resp("r1", "p1", map[string]any{"X": 70.0, "Y": 30.0}),
		resp("r2", "p2", map[string]any{"X": 50.0, "Y": 50.0}),
	}
	summary := Aggregate(slide, responses)
	if summary.PointTotals[0].Item != "X" || summary.PointTotals[0].Total != 120 {
		t.Fatalf("expected X total 120, got %+v", summary.PointTotals)
	}
	if summary.PointTotals[0].Average != 60.0 {
		t.Fatalf("expected X average 60, got %v", summary.PointTotals[0].Average)
	}
}

func TestHundredPointsNormalize(t *testing.T) {
	slide := domain.Slide{Type: domain.SlideHundredPoints, PointsItems: []string{"X", "Y"}}
	if _, err := Normalize(map[string]any{"X": 80.0, "Y": 30.0}, slide); !errors.Is(err, domain.ErrInvalidAnswer) {
		t.Fatalf("expected over-allocation rejected, got %v", err)
	}
	// The array-of-objects shape is accepted too.
	answer := []any{
		map[string]any{"item": "X", "points": 60.0},
		map[string]any{"item": "Y", "points": 40.0},
	}
	if _, err := Normalize(answer, slide); err != nil {
		t.Fatalf("expected array shape accepted, got %v", err)
	}
}

func TestGridPlacements(t *testing.T) {
	slide := domain.Slide{Type: domain.SlideTwoByTwoGrid}
	responses := []domain.Response{
		resp("r1", "p1", map[string]any{"x": 0.2, "y": 0.8}),
	}
	summary := Aggregate(slide, responses)
	if len(summary.Placements) != 1 || summary.Placements[0].X != 0.2 {
		t.Fatalf("expected placement recorded, got %+v", summary.Placements)
	}

	if _, err := Normalize(map[string]any{"x": 0.2}, slide); !errors.Is(err, domain.ErrInvalidAnswer) {
		t.Fatalf("expected missing y rejected, got %v", err)
	}
}

func TestGuessDistribution(t *testing.T) {
	slide := domain.Slide{Type: domain.SlideGuessNumber, GuessNumber: &domain.GuessNumberSettings{MinValue: 1, MaxValue: 10, CorrectAnswer: 7}}
	correct := resp("r1", "p1", 7)
	correct.IsCorrect = true
	responses := []domain.Response{
		correct,
		resp("r2", "p2", 3),
		resp("r3", "p3", 3),
	}
	summary := Aggregate(slide, responses)
	if summary.Distribution["3"] != 2 || summary.Distribution["7"] != 1 {
		t.Fatalf("unexpected distribution: %v", summary.Distribution)
	}
	if summary.CorrectCount != 1 {
		t.Fatalf("expected one correct, got %d", summary.CorrectCount)
	}

	if _, err := Normalize(11, slide); !errors.Is(err, domain.ErrInvalidAnswer) {
		t.Fatalf("expected out-of-range guess rejected, got %v", err)
	}
}

func TestQuizAccuracy(t *testing.T) {
	slide := domain.Slide{Type: domain.SlideQuiz, Quiz: &domain.QuizSettings{
		Options:         []domain.QuizOption{{ID: "a"}, {ID: "b"}},
		CorrectOptionID: "a",
	}}
	right := resp("r1", "p1", "a")
	right.IsCorrect = true
	responses := []domain.Response{
		right,
		resp("r2", "p2", "b"),
	}
	summary := Aggregate(slide, responses)
	if summary.VoteCounts["a"] != 1 || summary.VoteCounts["b"] != 1 {
		t.Fatalf("unexpected counts: %v", summary.VoteCounts)
	}
	if summary.Accuracy != 50.0 {
		t.Fatalf("expected 50%% accuracy, got %v", summary.Accuracy)
	}

	if _, err := Normalize("z", slide); !errors.Is(err, domain.ErrInvalidAnswer) {
		t.Fatalf("expected unknown option rejected, got %v", err)
	}
}

func TestAggregateEmptyResponses(t *testing.T) {
	for _, slideType := range []domain.SlideType{
		domain.SlideMultipleChoice,
		domain.SlideWordCloud,
		domain.SlideOpenEnded,
		domain.SlideScales,
		domain.SlideRanking,
		domain.SlideGuessNumber,
		domain.SlideQuiz,
	} {
		summary := Aggregate(domain.Slide{Type: slideType}, nil)
		if summary.TotalResponses != 0 {
			t.Fatalf("%s: expected zero total, got %d", slideType, summary.TotalResponses)
		}
	}
}

func TestNormalizePassthroughForUnknownType(t *testing.T) {
	got, err := Normalize("anything", domain.Slide{Type: "mystery"})
	if err != nil || got != "anything" {
		t.Fatalf("expected passthrough, got %v, %v", got, err)
	}
}

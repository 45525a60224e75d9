package app

import (
	"sort"
	"time"

	"livedeck-service/internal/domain"
)

// DefaultQuizPoints is awarded for a correct answer when the slide doesn't
// set its own points value.
const DefaultQuizPoints = 100

// ScoreQuizAnswer decides correctness and points for a quiz submission.
//
// Speed bonus: a correct answer decays linearly from the full points at
// elapsed=0 down to half the points at the time limit, i.e.
//
//	score = points - points*elapsed / (2*limit)
//
// Elapsed time past the limit is clamped, so late answers still earn the
// floor rather than being rejected. Slides without a time limit award flat
// points. Incorrect answers always score zero.
func ScoreQuizAnswer(settings domain.QuizSettings, optionID string, elapsed time.Duration) (bool, int) {
	if optionID != settings.CorrectOptionID {
		return false, 0
	}
	points := settings.Points
	if points <= 0 {
		points = DefaultQuizPoints
	}
	limit := time.Duration(settings.TimeLimitSeconds) * time.Second
	if limit <= 0 {
		return true, points
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > limit {
		elapsed = limit
	}
	bonusCut := int(int64(points) * int64(elapsed) / (2 * int64(limit)))
	return true, points - bonusCut
}

type standing struct {
	participantID string
	name          string
	score         int
	lastSubmitted time.Time
}

// CumulativeLeaderboards walks the deck's quiz slides in order, accumulating
// each participant's score, and returns one leaderboard per quiz slide (the
// standings after that slide) plus the final leaderboard over all of them.
// Entries sort by score descending, ties broken by who reached their score
// earlier, then by name. Each leaderboard is capped at limit entries when
// limit is positive.
func CumulativeLeaderboards(quizSlides []domain.Slide, responsesBySlide map[string][]domain.Response, limit int) ([]domain.Leaderboard, domain.Leaderboard) {
	standings := make(map[string]*standing)
	perSlide := make([]domain.Leaderboard, 0, len(quizSlides))

	for _, slide := range quizSlides {
		for _, r := range responsesBySlide[slide.ID] {
			entry, ok := standings[r.ParticipantID]
			if !ok {
				entry = &standing{participantID: r.ParticipantID, name: r.ParticipantName}
				standings[r.ParticipantID] = entry
			}
			entry.score += r.Score
			if r.SubmittedAt.After(entry.lastSubmitted) {
				entry.lastSubmitted = r.SubmittedAt
			}
		}
		lb := rankStandings(standings, limit)
		lb.SlideID = slide.ID
		perSlide = append(perSlide, lb)
	}

	final := rankStandings(standings, limit)
	final.Final = true
	return perSlide, final
}

func rankStandings(standings map[string]*standing, limit int) domain.Leaderboard {
	ordered := make([]*standing, 0, len(standings))
	for _, s := range standings {
		ordered = append(ordered, s)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].score != ordered[j].score {
			return ordered[i].score > ordered[j].score
		}
		if !ordered[i].lastSubmitted.Equal(ordered[j].lastSubmitted) {
			return ordered[i].lastSubmitted.Before(ordered[j].lastSubmitted)
		}
		return ordered[i].name < ordered[j].name
	})
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}
	entries := make([]domain.LeaderboardEntry, 0, len(ordered))
	for i, s := range ordered {
		entries = append(entries, domain.LeaderboardEntry{
			ParticipantID:   s.participantID,
			ParticipantName: s.name,
			Score:           s.score,
			Rank:            i + 1,
		})
	}
	return domain.Leaderboard{Entries: entries}
}

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"livedeck-service/internal/domain"
)

// ErrLeaderboardNotDeletable is returned when an author tries to delete a
// leaderboard slide directly; it only goes away with its linked quiz slide.
var ErrLeaderboardNotDeletable = errors.New("leaderboard slides are deleted with their linked quiz slide")

// DeckStore is the writable slide collaborator the leaderboard service
// materializes through. The coordinator itself only ever reads decks.
type DeckStore interface {
	GetDeck(ctx context.Context, presentationID string) (domain.Deck, error)
	SaveSlides(ctx context.Context, presentationID string, slides []domain.Slide) error
}

// LeaderboardService keeps leaderboard slides linked to quiz slides and
// computes the rankings they show.
type LeaderboardService struct {
	decks     DeckStore
	responses ResponseStore
	limit     int
}

func NewLeaderboardService(decks DeckStore, responses ResponseStore, limit int) *LeaderboardService {
	return &LeaderboardService{decks: decks, responses: responses, limit: limit}
}

// EnsureLinked materializes the deck's leaderboard slides: exactly one
// directly after each quiz slide (linked by quiz slide id) and one final
// no-link leaderboard at the end. Slide order is renumbered. Idempotent.
func (s *LeaderboardService) EnsureLinked(ctx context.Context, presentationID string) error {
	deck, err := s.decks.GetDeck(ctx, presentationID)
	if err != nil {
		return fmt.Errorf("ensure leaderboards: %w", err)
	}

	linked := make(map[string]bool)
	hasFinal := false
	for _, slide := range deck.Slides {
		if slide.Type != domain.SlideLeaderboard || slide.Leaderboard == nil {
			continue
		}
		if slide.Leaderboard.LinkedQuizSlideID == "" {
			hasFinal = true
		} else {
			linked[slide.Leaderboard.LinkedQuizSlideID] = true
		}
	}

	rebuilt := make([]domain.Slide, 0, len(deck.Slides)+1)
	for _, slide := range deck.Slides {
		rebuilt = append(rebuilt, slide)
		if slide.Type == domain.SlideQuiz && !linked[slide.ID] {
			rebuilt = append(rebuilt, domain.Slide{
				ID:             uuid.NewString(),
				PresentationID: presentationID,
				Type:           domain.SlideLeaderboard,
				Question:       "Leaderboard",
				Leaderboard:    &domain.LeaderboardSettings{LinkedQuizSlideID: slide.ID},
			})
		}
	}
	if !hasFinal && len(deck.QuizSlides()) > 0 {
		rebuilt = append(rebuilt, domain.Slide{
			ID:             uuid.NewString(),
			PresentationID: presentationID,
			Type:           domain.SlideLeaderboard,
			Question:       "Final leaderboard",
			Leaderboard:    &domain.LeaderboardSettings{},
		})
	}

	if len(rebuilt) == len(deck.Slides) {
		return nil
	}
	for i := range rebuilt {
		rebuilt[i].Order = i
	}
	return s.decks.SaveSlides(ctx, presentationID, rebuilt)
}

// DeleteQuizSlide removes a quiz slide and cascades to its linked leaderboard
// slide, renumbering the remaining slides. Deleting a leaderboard slide
// directly is refused.
func (s *LeaderboardService) DeleteQuizSlide(ctx context.Context, presentationID, slideID string) error {
	deck, err := s.decks.GetDeck(ctx, presentationID)
	if err != nil {
		return fmt.Errorf("delete quiz slide: %w", err)
	}
	target, ok := deck.SlideByID(slideID)
	if !ok {
		return domain.ErrSlideNotFound
	}
	if target.Type == domain.SlideLeaderboard {
		return ErrLeaderboardNotDeletable
	}

	remaining := make([]domain.Slide, 0, len(deck.Slides))
	for _, slide := range deck.Slides {
		if slide.ID == slideID {
			continue
		}
		if slide.Type == domain.SlideLeaderboard && slide.Leaderboard != nil && slide.Leaderboard.LinkedQuizSlideID == slideID {
			continue
		}
		remaining = append(remaining, slide)
	}
	for i := range remaining {
		remaining[i].Order = i
	}
	return s.decks.SaveSlides(ctx, presentationID, remaining)
}

// ForSlide computes the leaderboard a given leaderboard slide shows: the
// cumulative standings through its linked quiz slide, or the final standings
// when unlinked.
func (s *LeaderboardService) ForSlide(ctx context.Context, deck domain.Deck, slide domain.Slide) (domain.Leaderboard, error) {
	perSlide, final, err := s.compute(ctx, deck)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	if slide.Leaderboard == nil || slide.Leaderboard.LinkedQuizSlideID == "" {
		return final, nil
	}
	for _, lb := range perSlide {
		if lb.SlideID == slide.Leaderboard.LinkedQuizSlideID {
			return lb, nil
		}
	}
	return final, nil
}

// Final computes the whole-deck cumulative leaderboard.
func (s *LeaderboardService) Final(ctx context.Context, deck domain.Deck) (domain.Leaderboard, error) {
	_, final, err := s.compute(ctx, deck)
	return final, err
}

func (s *LeaderboardService) compute(ctx context.Context, deck domain.Deck) ([]domain.Leaderboard, domain.Leaderboard, error) {
	quizSlides := deck.QuizSlides()
	responsesBySlide := make(map[string][]domain.Response, len(quizSlides))
	for _, slide := range quizSlides {
		responses, err := s.responses.FindBySlide(ctx, slide.ID)
		if err != nil {
			return nil, domain.Leaderboard{}, fmt.Errorf("load quiz responses: %w", err)
		}
		responsesBySlide[slide.ID] = responses
	}
	perSlide, final := CumulativeLeaderboards(quizSlides, responsesBySlide, s.limit)
	return perSlide, final, nil
}

package app

import (
	"fmt"
	"sync"
	"time"

	"livedeck-service/internal/domain"
)

// Guess is one participant's submitted number.
type Guess struct {
	ParticipantID string    `json:"participantId"`
	Value         int       `json:"value"`
	Correct       bool      `json:"correct"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

// GuessState is a snapshot of one slide's guess session.
type GuessState struct {
	SlideID       string  `json:"slideId"`
	MinValue      int     `json:"minValue"`
	MaxValue      int     `json:"maxValue"`
	CorrectAnswer int     `json:"correctAnswer"`
	Guesses       []Guess `json:"guesses"`
}

type guessSlide struct {
	min, max, correct int
	guesses           []Guess
}

// GuessSessions tracks the guess-the-number mini game per slide: one guess
// per participant, correctness is exact numeric match, and a correct guess
// deliberately scores zero toward any leaderboard.
type GuessSessions struct {
	mu     sync.Mutex
	slides map[string]*guessSlide
	now    func() time.Time
}

func NewGuessSessions() *GuessSessions {
	return &GuessSessions{
		slides: make(map[string]*guessSlide),
		now:    time.Now,
	}
}

// Initialize arms the slide's guess state. Idempotent: re-entering keeps the
// submitted guesses and refreshes the range and answer.
func (g *GuessSessions) Initialize(slideID string, min, max, correct int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if state, ok := g.slides[slideID]; ok {
		state.min, state.max, state.correct = min, max, correct
		return
	}
	g.slides[slideID] = &guessSlide{min: min, max: max, correct: correct}
}

// SubmitGuess records a participant's single guess.
func (g *GuessSessions) SubmitGuess(slideID, participantID string, value int) (Guess, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	state, ok := g.slides[slideID]
	if !ok {
		return Guess{}, domain.ErrSlideNotFound
	}
	for _, existing := range state.guesses {
		if existing.ParticipantID == participantID {
			return Guess{}, fmt.Errorf("%w: you already guessed", domain.ErrDuplicateSubmission)
		}
	}
	guess := Guess{
		ParticipantID: participantID,
		Value:         value,
		Correct:       value == state.correct,
		SubmittedAt:   g.now(),
	}
	state.guesses = append(state.guesses, guess)
	return guess, nil
}

// Clear wipes all guesses for a slide, keeping its settings.
func (g *GuessSessions) Clear(slideID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if state, ok := g.slides[slideID]; ok {
		state.guesses = nil
	}
}

// State returns a snapshot of the slide's guess session.
func (g *GuessSessions) State(slideID string) (GuessState, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	state, ok := g.slides[slideID]
	if !ok {
		return GuessState{}, false
	}
	guesses := make([]Guess, len(state.guesses))
	copy(guesses, state.guesses)
	return GuessState{
		SlideID:       slideID,
		MinValue:      state.min,
		MaxValue:      state.max,
		CorrectAnswer: state.correct,
		Guesses:       guesses,
	}, true
}

package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"livedeck-service/internal/domain"
)

// QnaQuestion is one audience question on a Q&A slide.
type QnaQuestion struct {
	ID              string    `json:"id"`
	ParticipantID   string    `json:"participantId"`
	ParticipantName string    `json:"participantName"`
	Text            string    `json:"text"`
	Answered        bool      `json:"isAnswered"`
	AnswerText      string    `json:"answerText,omitempty"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

// QnaState is a snapshot of one slide's Q&A session.
type QnaState struct {
	SlideID          string        `json:"slideId"`
	AllowMultiple    bool          `json:"allowMultiple"`
	Questions        []QnaQuestion `json:"questions"`
	ActiveQuestionID string        `json:"activeQuestionId,omitempty"`
}

type qnaSlide struct {
	allowMultiple bool
	questions     []QnaQuestion
	activeID      string
}

// QnaSessions is the per-slide question state machine. Questions move
// open→answered (and back, for presenter corrections); at most one question
// is spotlighted at a time.
type QnaSessions struct {
	mu     sync.Mutex
	slides map[string]*qnaSlide
	now    func() time.Time
}

func NewQnaSessions() *QnaSessions {
	return &QnaSessions{
		slides: make(map[string]*qnaSlide),
		now:    time.Now,
	}
}

// Initialize arms the slide's Q&A state. Idempotent: re-entering a slide
// keeps its questions and only refreshes the settings.
func (q *QnaSessions) Initialize(slideID string, allowMultiple bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if state, ok := q.slides[slideID]; ok {
		state.allowMultiple = allowMultiple
		return
	}
	q.slides[slideID] = &qnaSlide{allowMultiple: allowMultiple}
}

// UpdateSettings changes the allow-multiple flag for a slide.
func (q *QnaSessions) UpdateSettings(slideID string, allowMultiple bool) {
	q.Initialize(slideID, allowMultiple)
}

// Submit records a new question. Unless the slide allows multiple questions
// per participant, a participant with an existing question (open or answered)
// gets a duplicate error.
func (q *QnaSessions) Submit(slideID, participantID, participantName, text string) (QnaQuestion, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	state, ok := q.slides[slideID]
	if !ok {
		state = &qnaSlide{}
		q.slides[slideID] = state
	}
	if !state.allowMultiple {
		for _, existing := range state.questions {
			if existing.ParticipantID == participantID {
				return QnaQuestion{}, fmt.Errorf("%w: you already asked a question", domain.ErrDuplicateSubmission)
			}
		}
	}
	question := QnaQuestion{
		ID:              uuid.NewString(),
		ParticipantID:   participantID,
		ParticipantName: participantName,
		Text:            text,
		SubmittedAt:     q.now(),
	}
	state.questions = append(state.questions, question)
	return question, nil
}

// MarkAnswered flips a question's answered state in either direction and
// optionally records the presenter's written answer.
func (q *QnaSessions) MarkAnswered(slideID, questionID string, answered bool, answerText string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	state, ok := q.slides[slideID]
	if !ok {
		return domain.ErrSlideNotFound
	}
	for i := range state.questions {
		if state.questions[i].ID == questionID {
			state.questions[i].Answered = answered
			if answerText != "" {
				state.questions[i].AnswerText = answerText
			}
			return nil
		}
	}
	return fmt.Errorf("%w: question %s", domain.ErrSlideNotFound, questionID)
}

// SetActive spotlights one question, or clears the spotlight when questionID
// is empty.
func (q *QnaSessions) SetActive(slideID, questionID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	state, ok := q.slides[slideID]
	if !ok {
		return domain.ErrSlideNotFound
	}
	if questionID == "" {
		state.activeID = ""
		return nil
	}
	for _, question := range state.questions {
		if question.ID == questionID {
			state.activeID = questionID
			return nil
		}
	}
	return fmt.Errorf("%w: question %s", domain.ErrSlideNotFound, questionID)
}

// Clear wipes all questions for a slide, keeping its settings.
func (q *QnaSessions) Clear(slideID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if state, ok := q.slides[slideID]; ok {
		state.questions = nil
		state.activeID = ""
	}
}

// State returns a snapshot of the slide's Q&A session. Unknown slides yield
// an empty state, never an error.
func (q *QnaSessions) State(slideID string) QnaState {
	q.mu.Lock()
	defer q.mu.Unlock()
	state, ok := q.slides[slideID]
	if !ok {
		return QnaState{SlideID: slideID, Questions: []QnaQuestion{}}
	}
	questions := make([]QnaQuestion, len(state.questions))
	copy(questions, state.questions)
	return QnaState{
		SlideID:          slideID,
		AllowMultiple:    state.allowMultiple,
		Questions:        questions,
		ActiveQuestionID: state.activeID,
	}
}

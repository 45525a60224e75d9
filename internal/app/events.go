package app

import "livedeck-service/internal/domain"

// Outbound event types.
const (
	EventSessionStarted    = "session-started"
	EventJoined            = "joined-session"
	EventSlideChanged      = "slide-changed"
	EventResponseUpdated   = "response-updated"
	EventResponseSubmitted = "response-submitted"
	EventQuestionSubmitted = "question-submitted"
	EventQnaUpdated        = "qna-updated"
	EventRosterUpdated     = "participant-roster-updated"
	EventSessionEnded      = "session-ended"
	EventGuessSubmitted    = "guess-submitted"
	EventGuessesCleared    = "guesses-cleared"
	EventKicked            = "kicked"
	EventError             = "error"
)

// DeckInfo is the deck metadata clients need to render a session.
type DeckInfo struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	AccessCode        string `json:"accessCode"`
	CurrentSlideIndex int    `json:"currentSlideIndex"`
}

// SessionStartedPayload goes to the presenter only.
type SessionStartedPayload struct {
	Presentation     DeckInfo       `json:"presentation"`
	Slides           []domain.Slide `json:"slides"`
	ParticipantCount int            `json:"participantCount"`
}

// ParticipantResponse echoes what a rejoining participant already submitted.
type ParticipantResponse struct {
	Answer          any `json:"answer"`
	SubmissionCount int `json:"submissionCount"`
}

// JoinedPayload goes to the joining participant.
type JoinedPayload struct {
	Presentation        DeckInfo             `json:"presentation"`
	Slide               domain.Slide         `json:"slide"`
	Results             domain.Summary       `json:"results"`
	HasSubmitted        bool                 `json:"hasSubmitted"`
	ParticipantResponse *ParticipantResponse `json:"participantResponse,omitempty"`
}

// SlideChangedPayload goes to everyone in the session.
type SlideChangedPayload struct {
	SlideIndex int            `json:"slideIndex"`
	Slide      domain.Slide   `json:"slide"`
	Results    domain.Summary `json:"results"`
}

// ResponseUpdatedPayload carries the fresh aggregate for a slide.
type ResponseUpdatedPayload struct {
	SlideID string         `json:"slideId"`
	Results domain.Summary `json:"results"`
}

// SubmittedPayload acknowledges a submission to its sender. The word-cloud
// counters are only set for word-cloud slides.
type SubmittedPayload struct {
	SlideID         string           `json:"slideId"`
	SlideType       domain.SlideType `json:"slideType"`
	SubmissionCount int              `json:"submissionCount,omitempty"`
	MaxSubmissions  int              `json:"maxSubmissions,omitempty"`
}

// QuestionSubmittedPayload acknowledges a Q&A question to its sender.
type QuestionSubmittedPayload struct {
	SlideID    string `json:"slideId"`
	QuestionID string `json:"questionId"`
}

// RosterPayload goes to the presenter only.
type RosterPayload struct {
	ParticipantCount int      `json:"participantCount"`
	Participants     []string `json:"participants"`
}

// KickedPayload tells a participant they were removed by the presenter.
type KickedPayload struct {
	Message string `json:"message"`
}

// ErrorPayload carries a machine-readable reason code plus a human message.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorEvent maps an error to the event sent back to the connection that
// caused it. Internal failures are masked behind a generic message.
func ErrorEvent(err error) domain.Event {
	code := domain.Code(err)
	message := err.Error()
	if code == domain.CodeInternal {
		message = "something went wrong, please try again"
	}
	return domain.Event{Type: EventError, Payload: ErrorPayload{Code: code, Message: message}}
}

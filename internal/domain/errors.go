package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no live session exists for the presentation.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionNotLive is returned when the presentation exists but is not currently live.
	ErrSessionNotLive = errors.New("session is not live")
	// ErrDeckNotFound indicates the presentation content could not be loaded.
	ErrDeckNotFound = errors.New("presentation not found")
	// ErrSlideNotFound indicates a referenced slide does not exist.
	ErrSlideNotFound = errors.New("slide not found")
	// ErrInvalidAnswer indicates an answer failed slide-type validation.
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrDuplicateSubmission indicates a second submission on a single-submission slide.
	ErrDuplicateSubmission = errors.New("already submitted for this slide")
	// ErrSubmissionLimit indicates the word-cloud per-participant cap was hit.
	ErrSubmissionLimit = errors.New("submission limit reached")
	// ErrAudienceLimit indicates the plan's audience cap rejected a join.
	ErrAudienceLimit = errors.New("audience limit reached")
	// ErrNotPresenter indicates a presenter-only action from a non-presenter connection.
	ErrNotPresenter = errors.New("only the presenter can do that")
	// ErrParticipantNotFound indicates the named participant is not in the roster.
	ErrParticipantNotFound = errors.New("participant not found")
)

// Error codes carried on outbound error events.
const (
	CodeSessionNotFound     = "SESSION_NOT_FOUND"
	CodeSessionNotLive      = "SESSION_NOT_LIVE"
	CodeSlideNotFound       = "SLIDE_NOT_FOUND"
	CodeInvalidAnswer       = "INVALID_ANSWER"
	CodeDuplicateSubmission = "DUPLICATE_SUBMISSION"
	CodeSubmissionLimit     = "SUBMISSION_LIMIT_REACHED"
	CodeAudienceLimit       = "AUDIENCE_LIMIT_REACHED"
	CodeNotPresenter        = "NOT_PRESENTER"
	CodeParticipantNotFound = "PARTICIPANT_NOT_FOUND"
	CodeInternal            = "INTERNAL"
)

// Code maps an error to its machine-readable event code. Unknown errors map
// to INTERNAL so collaborator failures never leak details to clients.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrDeckNotFound):
		return CodeSessionNotFound
	case errors.Is(err, ErrSessionNotLive):
		return CodeSessionNotLive
	case errors.Is(err, ErrSlideNotFound):
		return CodeSlideNotFound
	case errors.Is(err, ErrInvalidAnswer):
		return CodeInvalidAnswer
	case errors.Is(err, ErrDuplicateSubmission):
		return CodeDuplicateSubmission
	case errors.Is(err, ErrSubmissionLimit):
		return CodeSubmissionLimit
	case errors.Is(err, ErrAudienceLimit):
		return CodeAudienceLimit
	case errors.Is(err, ErrNotPresenter):
		return CodeNotPresenter
	case errors.Is(err, ErrParticipantNotFound):
		return CodeParticipantNotFound
	default:
		return CodeInternal
	}
}

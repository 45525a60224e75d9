package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"livedeck-service/internal/domain"
	"livedeck-service/internal/results"
)

// DeckRepository loads presentation content (from cache/backing store).
type DeckRepository interface {
	GetDeck(ctx context.Context, presentationID string) (domain.Deck, error)
	GetDeckByCode(ctx context.Context, accessCode string) (domain.Deck, error)
}

// ResponseStore persists participant responses. Save upserts by response id;
// implementations keep at most one response per (slide, participant).
type ResponseStore interface {
	Save(ctx context.Context, resp domain.Response) error
	FindBySlide(ctx context.Context, slideID string) ([]domain.Response, error)
	FindByParticipant(ctx context.Context, slideID, participantID string) (*domain.Response, error)
	DeleteBySlide(ctx context.Context, slideID string) error
}

// AudienceLimiter is the billing/plan collaborator deciding whether a join
// fits the presenter's plan.
type AudienceLimiter interface {
	CanAdmit(ctx context.Context, ownerID, presentationID string, currentCount int) (bool, error)
}

// LiveMarker records session liveness in a shared store, best-effort. The
// engine itself is single-process; the marker is the hook a multi-instance
// deployment would build on.
type LiveMarker interface {
	MarkLive(ctx context.Context, presentationID string)
	ClearLive(ctx context.Context, presentationID string)
}

type nopMarker struct{}

func (nopMarker) MarkLive(context.Context, string)  {}
func (nopMarker) ClearLive(context.Context, string) {}

// keyedLocks serializes event handling per presentation id, replacing the
// free atomicity of the original single-threaded event loop. Events for
// different sessions proceed fully in parallel.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedLocks) lock(id string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[id]
	if !ok {
		l = &sync.Mutex{}
		k.locks[id] = l
	}
	k.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// outbox collects events during the serialized section of an operation so the
// fan-out happens after the session lock is released, from immutable
// snapshots.
type outbox struct {
	sends []struct {
		evt domain.Event
		to  []Conn
	}
}

func (o *outbox) add(evt domain.Event, to ...Conn) {
	o.sends = append(o.sends, struct {
		evt domain.Event
		to  []Conn
	}{evt, to})
}

func (o *outbox) flush() {
	for _, s := range o.sends {
		for _, conn := range s.to {
			if conn != nil {
				conn.Send(s.evt)
			}
		}
	}
}

// Coordinator receives inbound session events, mutates the registry and the
// embedded sub-sessions, and broadcasts the resulting state. Each operation
// returns an error for the transport to deliver to the originating
// connection; no error ever tears a session down.
type Coordinator struct {
	sessions     *SessionManager
	decks        DeckRepository
	responses    ResponseStore
	limits       AudienceLimiter
	leaderboards *LeaderboardService
	marker       LiveMarker
	qna          *QnaSessions
	guesses      *GuessSessions
	locks        keyedLocks
	now          func() time.Time
}

func NewCoordinator(sessions *SessionManager, decks DeckRepository, responses ResponseStore, limits AudienceLimiter, leaderboards *LeaderboardService) *Coordinator {
	return &Coordinator{
		sessions:     sessions,
		decks:        decks,
		responses:    responses,
		limits:       limits,
		leaderboards: leaderboards,
		marker:       nopMarker{},
		qna:          NewQnaSessions(),
		guesses:      NewGuessSessions(),
		now:          time.Now,
	}
}

// SetLiveMarker attaches a liveness marker (e.g. Redis-backed).
func (c *Coordinator) SetLiveMarker(m LiveMarker) {
	if m != nil {
		c.marker = m
	}
}

// SetClock is test-only for deterministic timestamps. Call it before any
// session starts so the slide clock uses the same source.
func (c *Coordinator) SetClock(now func() time.Time) {
	c.now = now
	c.sessions.SetClock(now)
}

// StartSession makes a presentation live, driven by the presenter connection.
// Re-starting resumes an existing session (presenter reconnect); pass a
// negative startIndex to keep the current slide.
func (c *Coordinator) StartSession(ctx context.Context, presenter Conn, presentationID string, startIndex int) error {
	var out outbox
	defer out.flush()
	unlock := c.locks.lock(presentationID)
	defer unlock()

	deck, err := c.decks.GetDeck(ctx, presentationID)
	if err != nil {
		return fmt.Errorf("load deck: %w", err)
	}
	if len(deck.Slides) == 0 {
		return fmt.Errorf("%w: deck has no slides to present", domain.ErrSlideNotFound)
	}
	if startIndex >= len(deck.Slides) {
		startIndex = 0
	}

	session := c.sessions.Start(deck.ID, presenter, startIndex)
	c.marker.MarkLive(ctx, deck.ID)

	index := session.CurrentSlide()
	current := deck.Slides[index]
	c.armSlide(current)

	summary, err := c.slideSummary(ctx, deck, current)
	if err != nil {
		return err
	}

	count, _ := session.Roster()
	out.add(domain.Event{Type: EventSessionStarted, Payload: SessionStartedPayload{
		Presentation:     deckInfo(deck, index),
		Slides:           deck.Slides,
		ParticipantCount: count,
	}}, presenter)

	participants := session.ParticipantConns()
	out.add(domain.Event{Type: EventSlideChanged, Payload: SlideChangedPayload{
		SlideIndex: index,
		Slide:      current,
		Results:    summary,
	}}, participants...)
	if current.Type == domain.SlideQna {
		out.add(c.qnaEvent(current.ID), append(participants, presenter)...)
	}
	return nil
}

// ChangeSlide moves the session to another slide, or to the synthesized
// final leaderboard when showFinal is set. Presenter-only.
func (c *Coordinator) ChangeSlide(ctx context.Context, connID, presentationID string, slideIndex int, showFinal bool) error {
	var out outbox
	defer out.flush()
	unlock := c.locks.lock(presentationID)
	defer unlock()

	session, err := c.liveSession(presentationID)
	if err != nil {
		return err
	}
	if !session.IsPresenter(connID) {
		return domain.ErrNotPresenter
	}
	deck, err := c.decks.GetDeck(ctx, presentationID)
	if err != nil {
		return fmt.Errorf("load deck: %w", err)
	}

	everyone := c.audience(session)

	if showFinal {
		final, err := c.leaderboards.Final(ctx, deck)
		if err != nil {
			return err
		}
		out.add(domain.Event{Type: EventSlideChanged, Payload: SlideChangedPayload{
			SlideIndex: session.CurrentSlide(),
			Slide: domain.Slide{
				PresentationID: deck.ID,
				Type:           domain.SlideLeaderboard,
				Question:       "Final leaderboard",
				Leaderboard:    &domain.LeaderboardSettings{},
			},
			Results: domain.Summary{Leaderboard: &final},
		}}, everyone...)
		return nil
	}

	if slideIndex < 0 || slideIndex >= len(deck.Slides) {
		return fmt.Errorf("%w: slide index %d out of range", domain.ErrSlideNotFound, slideIndex)
	}
	session.SetCurrentSlide(slideIndex)
	current := deck.Slides[slideIndex]
	c.armSlide(current)

	summary, err := c.slideSummary(ctx, deck, current)
	if err != nil {
		return err
	}
	out.add(domain.Event{Type: EventSlideChanged, Payload: SlideChangedPayload{
		SlideIndex: slideIndex,
		Slide:      current,
		Results:    summary,
	}}, everyone...)
	if current.Type == domain.SlideQna {
		out.add(c.qnaEvent(current.ID), everyone...)
	}
	return nil
}

// EndSession ends the presentation for everyone. Presenter-only. The session
// entry is kept as a tombstone so stragglers get a "not live" outcome.
func (c *Coordinator) EndSession(ctx context.Context, connID, presentationID string) error {
	var out outbox
	defer out.flush()
	unlock := c.locks.lock(presentationID)
	defer unlock()

	session, ok := c.sessions.Get(presentationID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if !session.IsPresenter(connID) {
		return domain.ErrNotPresenter
	}
	conns, _ := c.sessions.End(presentationID)
	c.marker.ClearLive(ctx, presentationID)
	out.add(domain.Event{Type: EventSessionEnded}, conns...)
	return nil
}

// JoinSession admits a participant by presentation id or access code,
// subject to the owner's audience limit. On rejection the roster is rolled
// back and the presenter is not notified.
func (c *Coordinator) JoinSession(ctx context.Context, conn Conn, presentationID, accessCode, participantID, participantName string) error {
	deck, err := c.resolveDeck(ctx, presentationID, accessCode)
	if err != nil {
		return err
	}

	var out outbox
	defer out.flush()
	unlock := c.locks.lock(deck.ID)
	defer unlock()

	session, ok := c.sessions.Get(deck.ID)
	if !ok || !session.Live() {
		return fmt.Errorf("%w: waiting for the presenter", domain.ErrSessionNotLive)
	}

	count := session.AddParticipant(conn, participantID, participantName)
	admitted, err := c.limits.CanAdmit(ctx, deck.OwnerID, deck.ID, count)
	if err != nil {
		session.RemoveParticipant(conn.ID())
		return fmt.Errorf("audience limit check: %w", err)
	}
	if !admitted {
		session.RemoveParticipant(conn.ID())
		return fmt.Errorf("%w: the presenter's plan does not admit more participants", domain.ErrAudienceLimit)
	}

	if presenter, ok := session.Presenter(); ok {
		count, names := session.Roster()
		out.add(domain.Event{Type: EventRosterUpdated, Payload: RosterPayload{
			ParticipantCount: count,
			Participants:     names,
		}}, presenter)
	}

	index := session.CurrentSlide()
	current := deck.Slides[index]
	summary, err := c.slideSummary(ctx, deck, current)
	if err != nil {
		return err
	}

	hasSubmitted := false
	var echo *ParticipantResponse
	if participantID != "" {
		existing, err := c.responses.FindByParticipant(ctx, current.ID, participantID)
		if err != nil {
			return fmt.Errorf("load participant response: %w", err)
		}
		if existing != nil {
			if current.Type == domain.SlideWordCloud {
				hasSubmitted = existing.SubmissionCount >= maxWords(current)
			} else {
				hasSubmitted = true
			}
			echo = &ParticipantResponse{Answer: existing.Answer, SubmissionCount: existing.SubmissionCount}
		}
	}

	out.add(domain.Event{Type: EventJoined, Payload: JoinedPayload{
		Presentation:        deckInfo(deck, index),
		Slide:               current,
		Results:             summary,
		HasSubmitted:        hasSubmitted,
		ParticipantResponse: echo,
	}}, conn)
	if current.Type == domain.SlideQna {
		out.add(c.qnaEvent(current.ID), conn)
	}
	return nil
}

// SubmitResponse validates, persists and broadcasts a participant's answer
// for the slide's type. Q&A, guesses and non-interactive slides have their
// own entry points and are rejected here.
func (c *Coordinator) SubmitResponse(ctx context.Context, conn Conn, presentationID, slideID, participantID, participantName string, answer any) error {
	var out outbox
	defer out.flush()
	unlock := c.locks.lock(presentationID)
	defer unlock()

	session, err := c.liveSession(presentationID)
	if err != nil {
		return err
	}
	deck, err := c.decks.GetDeck(ctx, presentationID)
	if err != nil {
		return fmt.Errorf("load deck: %w", err)
	}
	slide, ok := deck.SlideByID(slideID)
	if !ok {
		return domain.ErrSlideNotFound
	}
	switch slide.Type {
	case domain.SlideQna, domain.SlideGuessNumber, domain.SlideLeaderboard, domain.SlideContent:
		return fmt.Errorf("%w: this slide does not take responses", domain.ErrInvalidAnswer)
	}

	normalized, err := results.Normalize(answer, slide)
	if err != nil {
		return err
	}

	existing, err := c.responses.FindByParticipant(ctx, slideID, participantID)
	if err != nil {
		return fmt.Errorf("load existing response: %w", err)
	}

	now := c.now()
	ack := SubmittedPayload{SlideID: slideID, SlideType: slide.Type}

	var resp domain.Response
	switch slide.Type {
	case domain.SlideWordCloud:
		max := maxWords(slide)
		ack.MaxSubmissions = max
		if existing != nil {
			if existing.SubmissionCount >= max {
				return fmt.Errorf("%w: you can submit %d time(s) for this slide", domain.ErrSubmissionLimit, max)
			}
			resp = *existing
			resp.Answer = appendWords(existing.Answer, normalized)
			resp.SubmissionCount = existing.SubmissionCount + 1
			resp.SubmittedAt = now
		} else {
			resp = newResponse(deck.ID, slideID, participantID, participantName, normalized, now)
			resp.SubmissionCount = 1
		}
		ack.SubmissionCount = resp.SubmissionCount
	case domain.SlideQuiz:
		if existing != nil {
			return domain.ErrDuplicateSubmission
		}
		resp = newResponse(deck.ID, slideID, participantID, participantName, normalized, now)
		elapsed := now.Sub(session.SlideShownAt())
		optionID, _ := normalized.(string)
		resp.IsCorrect, resp.Score = ScoreQuizAnswer(*slide.Quiz, optionID, elapsed)
	default:
		if existing != nil {
			return domain.ErrDuplicateSubmission
		}
		resp = newResponse(deck.ID, slideID, participantID, participantName, normalized, now)
	}

	if err := c.responses.Save(ctx, resp); err != nil {
		return fmt.Errorf("save response: %w", err)
	}

	summary, err := c.slideSummary(ctx, deck, slide)
	if err != nil {
		return err
	}
	out.add(domain.Event{Type: EventResponseUpdated, Payload: ResponseUpdatedPayload{
		SlideID: slideID,
		Results: summary,
	}}, c.audience(session)...)
	out.add(domain.Event{Type: EventResponseSubmitted, Payload: ack}, conn)
	return nil
}

// VoteResponse upvotes another participant's text answer: at most one vote
// per participant per response.
func (c *Coordinator) VoteResponse(ctx context.Context, presentationID, slideID, responseID, voterID string) error {
	var out outbox
	defer out.flush()
	unlock := c.locks.lock(presentationID)
	defer unlock()

	session, err := c.liveSession(presentationID)
	if err != nil {
		return err
	}
	deck, err := c.decks.GetDeck(ctx, presentationID)
	if err != nil {
		return fmt.Errorf("load deck: %w", err)
	}
	slide, ok := deck.SlideByID(slideID)
	if !ok {
		return domain.ErrSlideNotFound
	}

	responses, err := c.responses.FindBySlide(ctx, slideID)
	if err != nil {
		return fmt.Errorf("load responses: %w", err)
	}
	var target *domain.Response
	for i := range responses {
		if responses[i].ID == responseID {
			target = &responses[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: response %s", domain.ErrSlideNotFound, responseID)
	}
	if target.HasVoter(voterID) {
		return fmt.Errorf("%w: you already voted for this answer", domain.ErrDuplicateSubmission)
	}
	target.Voters = append(target.Voters, voterID)
	if err := c.responses.Save(ctx, *target); err != nil {
		return fmt.Errorf("save vote: %w", err)
	}

	summary, err := c.slideSummary(ctx, deck, slide)
	if err != nil {
		return err
	}
	out.add(domain.Event{Type: EventResponseUpdated, Payload: ResponseUpdatedPayload{
		SlideID: slideID,
		Results: summary,
	}}, c.audience(session)...)
	return nil
}

// SubmitQuestion records an audience question on a Q&A slide.
func (c *Coordinator) SubmitQuestion(ctx context.Context, conn Conn, presentationID, slideID, participantID, participantName, text string) error {
	var out outbox
	defer out.flush()
	unlock := c.locks.lock(presentationID)
	defer unlock()

	session, err := c.liveSession(presentationID)
	if err != nil {
		return err
	}
	slide, err := c.qnaSlide(ctx, presentationID, slideID)
	if err != nil {
		return err
	}
	c.armSlide(slide)

	question, err := c.qna.Submit(slideID, participantID, participantName, text)
	if err != nil {
		return err
	}

	resp := newResponse(presentationID, slideID, participantID, participantName, text, question.SubmittedAt)
	resp.ID = question.ID
	if err := c.responses.Save(ctx, resp); err != nil {
		return fmt.Errorf("save question: %w", err)
	}

	out.add(c.qnaEvent(slideID), c.audience(session)...)
	out.add(domain.Event{Type: EventQuestionSubmitted, Payload: QuestionSubmittedPayload{
		SlideID:    slideID,
		QuestionID: question.ID,
	}}, conn)
	return nil
}

// MarkQuestionAnswered toggles a question's answered state. Presenter-only.
func (c *Coordinator) MarkQuestionAnswered(ctx context.Context, connID, presentationID, slideID, questionID string, answered bool, answerText string) error {
	return c.qnaPresenterOp(ctx, connID, presentationID, slideID, func() error {
		return c.qna.MarkAnswered(slideID, questionID, answered, answerText)
	})
}

// SetActiveQuestion spotlights one question, or none. Presenter-only.
func (c *Coordinator) SetActiveQuestion(ctx context.Context, connID, presentationID, slideID, questionID string) error {
	return c.qnaPresenterOp(ctx, connID, presentationID, slideID, func() error {
		return c.qna.SetActive(slideID, questionID)
	})
}

// UpdateQnaSettings changes the slide's allow-multiple flag. Presenter-only.
func (c *Coordinator) UpdateQnaSettings(ctx context.Context, connID, presentationID, slideID string, allowMultiple bool) error {
	return c.qnaPresenterOp(ctx, connID, presentationID, slideID, func() error {
		c.qna.UpdateSettings(slideID, allowMultiple)
		return nil
	})
}

// ClearQuestions wipes a Q&A slide, stored responses included. Presenter-only.
func (c *Coordinator) ClearQuestions(ctx context.Context, connID, presentationID, slideID string) error {
	return c.qnaPresenterOp(ctx, connID, presentationID, slideID, func() error {
		if err := c.responses.DeleteBySlide(ctx, slideID); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		c.qna.Clear(slideID)
		return nil
	})
}

// QnaState answers a client's state request without touching the session.
func (c *Coordinator) QnaState(slideID string) QnaState {
	return c.qna.State(slideID)
}

// SubmitGuess records a participant's guess on a guess-number slide.
// Correctness is exact match; the recorded score is always zero so guesses
// never move any leaderboard.
func (c *Coordinator) SubmitGuess(ctx context.Context, conn Conn, presentationID, slideID, participantID, participantName string, guess int) error {
	var out outbox
	defer out.flush()
	unlock := c.locks.lock(presentationID)
	defer unlock()

	session, err := c.liveSession(presentationID)
	if err != nil {
		return err
	}
	deck, err := c.decks.GetDeck(ctx, presentationID)
	if err != nil {
		return fmt.Errorf("load deck: %w", err)
	}
	slide, ok := deck.SlideByID(slideID)
	if !ok || slide.Type != domain.SlideGuessNumber {
		return fmt.Errorf("%w: guess slide %s", domain.ErrSlideNotFound, slideID)
	}
	settings := guessSettings(slide)
	if guess < settings.MinValue || guess > settings.MaxValue {
		return fmt.Errorf("%w: guess must be between %d and %d", domain.ErrInvalidAnswer, settings.MinValue, settings.MaxValue)
	}

	c.guesses.Initialize(slideID, settings.MinValue, settings.MaxValue, settings.CorrectAnswer)
	recorded, err := c.guesses.SubmitGuess(slideID, participantID, guess)
	if err != nil {
		return err
	}

	resp := newResponse(deck.ID, slideID, participantID, participantName, guess, recorded.SubmittedAt)
	resp.IsCorrect = recorded.Correct
	resp.SubmissionCount = 1
	if err := c.responses.Save(ctx, resp); err != nil {
		return fmt.Errorf("save guess: %w", err)
	}

	summary, err := c.slideSummary(ctx, deck, slide)
	if err != nil {
		return err
	}
	out.add(domain.Event{Type: EventResponseUpdated, Payload: ResponseUpdatedPayload{
		SlideID: slideID,
		Results: summary,
	}}, c.audience(session)...)
	out.add(domain.Event{Type: EventGuessSubmitted, Payload: SubmittedPayload{
		SlideID:   slideID,
		SlideType: slide.Type,
	}}, conn)
	return nil
}

// ClearGuesses resets a guess slide, stored responses included. Presenter-only.
func (c *Coordinator) ClearGuesses(ctx context.Context, connID, presentationID, slideID string) error {
	var out outbox
	defer out.flush()
	unlock := c.locks.lock(presentationID)
	defer unlock()

	session, err := c.liveSession(presentationID)
	if err != nil {
		return err
	}
	if !session.IsPresenter(connID) {
		return domain.ErrNotPresenter
	}
	deck, err := c.decks.GetDeck(ctx, presentationID)
	if err != nil {
		return fmt.Errorf("load deck: %w", err)
	}
	slide, ok := deck.SlideByID(slideID)
	if !ok || slide.Type != domain.SlideGuessNumber {
		return fmt.Errorf("%w: guess slide %s", domain.ErrSlideNotFound, slideID)
	}
	if err := c.responses.DeleteBySlide(ctx, slideID); err != nil {
		return fmt.Errorf("delete guesses: %w", err)
	}
	c.guesses.Clear(slideID)

	everyone := c.audience(session)
	out.add(domain.Event{Type: EventGuessesCleared, Payload: ResponseUpdatedPayload{SlideID: slideID}}, everyone...)
	summary, err := c.slideSummary(ctx, deck, slide)
	if err != nil {
		return err
	}
	out.add(domain.Event{Type: EventResponseUpdated, Payload: ResponseUpdatedPayload{
		SlideID: slideID,
		Results: summary,
	}}, everyone...)
	return nil
}

// KickParticipant removes a participant by display name. Presenter-only.
func (c *Coordinator) KickParticipant(ctx context.Context, connID, presentationID, participantName string) error {
	var out outbox
	var kicked Conn
	err := func() error {
		unlock := c.locks.lock(presentationID)
		defer unlock()

		session, ok := c.sessions.Get(presentationID)
		if !ok {
			return domain.ErrSessionNotFound
		}
		if !session.IsPresenter(connID) {
			return domain.ErrNotPresenter
		}
		conn, ok := session.RemoveParticipantByName(participantName)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrParticipantNotFound, participantName)
		}
		kicked = conn
		out.add(domain.Event{Type: EventKicked, Payload: KickedPayload{
			Message: "you have been removed by the presenter",
		}}, conn)
		if presenter, ok := session.Presenter(); ok {
			count, names := session.Roster()
			out.add(domain.Event{Type: EventRosterUpdated, Payload: RosterPayload{
				ParticipantCount: count,
				Participants:     names,
			}}, presenter)
		}
		return nil
	}()
	if err != nil {
		return err
	}
	out.flush()
	if kicked != nil {
		kicked.Close()
	}
	return nil
}

// SessionFor resolves the presentation a connection is registered in.
func (c *Coordinator) SessionFor(connID string) string {
	return c.sessions.SessionFor(connID)
}

// Disconnect handles a dropped connection: presenters are detached with the
// session kept alive, participants are removed and the presenter's roster
// refreshed.
func (c *Coordinator) Disconnect(connID string) {
	for _, update := range c.sessions.Disconnect(connID) {
		update.Presenter.Send(domain.Event{Type: EventRosterUpdated, Payload: RosterPayload{
			ParticipantCount: update.Count,
			Participants:     update.Participants,
		}})
	}
}

func (c *Coordinator) liveSession(presentationID string) (*LiveSession, error) {
	session, ok := c.sessions.Get(presentationID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if !session.Live() {
		return nil, domain.ErrSessionNotLive
	}
	return session, nil
}

func (c *Coordinator) resolveDeck(ctx context.Context, presentationID, accessCode string) (domain.Deck, error) {
	if presentationID != "" {
		deck, err := c.decks.GetDeck(ctx, presentationID)
		if err != nil {
			return domain.Deck{}, fmt.Errorf("load deck: %w", err)
		}
		return deck, nil
	}
	deck, err := c.decks.GetDeckByCode(ctx, accessCode)
	if err != nil {
		return domain.Deck{}, fmt.Errorf("load deck by code: %w", err)
	}
	return deck, nil
}

// audience returns every connection in the session, participants first.
func (c *Coordinator) audience(session *LiveSession) []Conn {
	conns := session.ParticipantConns()
	if presenter, ok := session.Presenter(); ok {
		conns = append(conns, presenter)
	}
	return conns
}

// armSlide prepares the embedded sub-session for a slide being shown.
func (c *Coordinator) armSlide(slide domain.Slide) {
	switch slide.Type {
	case domain.SlideQna:
		allowMultiple := slide.Qna != nil && slide.Qna.AllowMultiple
		c.qna.Initialize(slide.ID, allowMultiple)
	case domain.SlideGuessNumber:
		settings := guessSettings(slide)
		c.guesses.Initialize(slide.ID, settings.MinValue, settings.MaxValue, settings.CorrectAnswer)
	}
}

// slideSummary recomputes the aggregate for a slide. Leaderboard slides are
// not aggregated from raw responses; they delegate to the leaderboard
// service.
func (c *Coordinator) slideSummary(ctx context.Context, deck domain.Deck, slide domain.Slide) (domain.Summary, error) {
	if slide.Type == domain.SlideLeaderboard {
		lb, err := c.leaderboards.ForSlide(ctx, deck, slide)
		if err != nil {
			return domain.Summary{}, err
		}
		return domain.Summary{Leaderboard: &lb}, nil
	}
	responses, err := c.responses.FindBySlide(ctx, slide.ID)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("load responses: %w", err)
	}
	return results.Aggregate(slide, responses), nil
}

func (c *Coordinator) qnaSlide(ctx context.Context, presentationID, slideID string) (domain.Slide, error) {
	deck, err := c.decks.GetDeck(ctx, presentationID)
	if err != nil {
		return domain.Slide{}, fmt.Errorf("load deck: %w", err)
	}
	slide, ok := deck.SlideByID(slideID)
	if !ok || slide.Type != domain.SlideQna {
		return domain.Slide{}, fmt.Errorf("%w: Q&A slide %s", domain.ErrSlideNotFound, slideID)
	}
	return slide, nil
}

// qnaPresenterOp wraps the shared shape of presenter-only Q&A mutations:
// serialize, authorize, mutate, rebroadcast.
func (c *Coordinator) qnaPresenterOp(ctx context.Context, connID, presentationID, slideID string, mutate func() error) error {
	var out outbox
	defer out.flush()
	unlock := c.locks.lock(presentationID)
	defer unlock()

	session, err := c.liveSession(presentationID)
	if err != nil {
		return err
	}
	if !session.IsPresenter(connID) {
		return domain.ErrNotPresenter
	}
	if _, err := c.qnaSlide(ctx, presentationID, slideID); err != nil {
		return err
	}
	if err := mutate(); err != nil {
		return err
	}
	out.add(c.qnaEvent(slideID), c.audience(session)...)
	return nil
}

func (c *Coordinator) qnaEvent(slideID string) domain.Event {
	return domain.Event{Type: EventQnaUpdated, Payload: c.qna.State(slideID)}
}

func deckInfo(deck domain.Deck, currentIndex int) DeckInfo {
	return DeckInfo{
		ID:                deck.ID,
		Title:             deck.Title,
		AccessCode:        deck.AccessCode,
		CurrentSlideIndex: currentIndex,
	}
}

func newResponse(presentationID, slideID, participantID, participantName string, answer any, at time.Time) domain.Response {
	return domain.Response{
		ID:              uuid.NewString(),
		PresentationID:  presentationID,
		SlideID:         slideID,
		ParticipantID:   participantID,
		ParticipantName: participantName,
		Answer:          answer,
		SubmittedAt:     at,
	}
}

func maxWords(slide domain.Slide) int {
	if slide.MaxWords > 0 {
		return slide.MaxWords
	}
	return 1
}

// guessSettings applies the original defaults when a guess slide was
// authored without settings.
func guessSettings(slide domain.Slide) domain.GuessNumberSettings {
	if slide.GuessNumber != nil {
		return *slide.GuessNumber
	}
	return domain.GuessNumberSettings{MinValue: 1, MaxValue: 10, CorrectAnswer: 5}
}

// appendWords merges a word-cloud submission into the participant's
// accumulated answer.
func appendWords(existing, incoming any) []string {
	var merged []string
	for _, group := range []any{existing, incoming} {
		switch v := group.(type) {
		case string:
			merged = append(merged, v)
		case []string:
			merged = append(merged, v...)
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					merged = append(merged, s)
				}
			}
		}
	}
	return merged
}

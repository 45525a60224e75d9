package app

import (
	"sync"
	"time"

	"livedeck-service/internal/domain"
)

// Conn is one live client connection. Send must never block: transports
// buffer outbound events and drop on overflow so a slow client cannot stall
// the session.
type Conn interface {
	ID() string
	Send(evt domain.Event)
	Close()
}

type participant struct {
	conn          Conn
	participantID string
	name          string
}

// LiveSession is the in-memory state of one currently-presenting deck: the
// presenter connection, the participant roster and the slide cursor. All
// methods are safe for concurrent use; mutations take the session mutex.
type LiveSession struct {
	presentationID string

	mu           sync.Mutex
	presenter    Conn
	participants map[string]participant // keyed by conn id
	currentSlide int
	slideShownAt time.Time
	live         bool
	now          func() time.Time
}

func newLiveSession(presentationID string, now func() time.Time) *LiveSession {
	return &LiveSession{
		presentationID: presentationID,
		participants:   make(map[string]participant),
		now:            now,
	}
}

// PresentationID returns the deck this session presents.
func (s *LiveSession) PresentationID() string { return s.presentationID }

// Live reports whether the session is currently presenting. Ended sessions
// stay registered as tombstones so late joiners get a "not live" outcome.
func (s *LiveSession) Live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// rearm (re)attaches a presenter and marks the session live. A negative
// startIndex resumes at the current slide, which is what a reconnecting
// presenter wants.
func (s *LiveSession) rearm(presenter Conn, startIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presenter = presenter
	s.live = true
	if startIndex >= 0 {
		s.currentSlide = startIndex
		s.slideShownAt = s.now()
	}
}

// IsPresenter reports whether the given connection drives this session.
func (s *LiveSession) IsPresenter(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presenter != nil && s.presenter.ID() == connID
}

// Presenter returns the presenter connection, if one is attached.
func (s *LiveSession) Presenter() (Conn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.presenter == nil {
		return nil, false
	}
	return s.presenter, true
}

// MarkPresenterDisconnected detaches the presenter connection without ending
// the session. Only an explicit end tears a session down.
func (s *LiveSession) MarkPresenterDisconnected(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.presenter == nil || s.presenter.ID() != connID {
		return false
	}
	s.presenter = nil
	return true
}

// SetCurrentSlide moves the slide cursor and restarts the slide clock.
func (s *LiveSession) SetCurrentSlide(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentSlide = index
	s.slideShownAt = s.now()
}

// CurrentSlide returns the slide cursor.
func (s *LiveSession) CurrentSlide() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentSlide
}

// SlideShownAt returns when the current slide was put on screen. Quiz speed
// scoring measures elapsed time from here.
func (s *LiveSession) SlideShownAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slideShownAt
}

// AddParticipant registers a participant connection and returns the roster
// size after the addition, so the caller can enforce an audience cap and roll
// back with RemoveParticipant on rejection.
func (s *LiveSession) AddParticipant(conn Conn, participantID, name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		name = "Anonymous"
	}
	s.participants[conn.ID()] = participant{conn: conn, participantID: participantID, name: name}
	return len(s.participants)
}

// RemoveParticipant drops a participant connection from the roster.
func (s *LiveSession) RemoveParticipant(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participants[connID]; !ok {
		return false
	}
	delete(s.participants, connID)
	return true
}

// RemoveParticipantByName removes the first participant with the given
// display name and returns its connection, for kicks.
func (s *LiveSession) RemoveParticipantByName(name string) (Conn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.participants {
		if p.name == name {
			delete(s.participants, id)
			return p.conn, true
		}
	}
	return nil, false
}

// HasParticipant reports whether the connection is in the roster.
func (s *LiveSession) HasParticipant(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.participants[connID]
	return ok
}

// Roster returns the participant count and display names.
func (s *LiveSession) Roster() (int, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.participants))
	for _, p := range s.participants {
		names = append(names, p.name)
	}
	return len(s.participants), names
}

// ParticipantConns returns a snapshot of participant connections for fan-out.
func (s *LiveSession) ParticipantConns() []Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	conns := make([]Conn, 0, len(s.participants))
	for _, p := range s.participants {
		conns = append(conns, p.conn)
	}
	return conns
}

// end marks the session over and empties the roster, returning every
// connection (participants plus presenter) for the final broadcast.
func (s *LiveSession) end() []Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	conns := make([]Conn, 0, len(s.participants)+1)
	for _, p := range s.participants {
		conns = append(conns, p.conn)
	}
	if s.presenter != nil {
		conns = append(conns, s.presenter)
	}
	s.participants = make(map[string]participant)
	s.presenter = nil
	s.live = false
	return conns
}

// SessionManager owns the keyed collection of live sessions. It is
// constructed once at process start and injected into the coordinator; there
// is no package-level state.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*LiveSession
	now      func() time.Time
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*LiveSession),
		now:      time.Now,
	}
}

// SetClock is test-only; it must be called before any session is started.
func (m *SessionManager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Start creates or re-arms the session for a presentation. Re-arming keeps
// the roster, so a presenter reconnect resumes where it left off; pass a
// negative startIndex to keep the current slide cursor.
func (m *SessionManager) Start(presentationID string, presenter Conn, startIndex int) *LiveSession {
	m.mu.Lock()
	session, ok := m.sessions[presentationID]
	if !ok {
		session = newLiveSession(presentationID, m.now)
		m.sessions[presentationID] = session
	}
	m.mu.Unlock()

	if startIndex < 0 && !ok {
		startIndex = 0
	}
	session.rearm(presenter, startIndex)
	return session
}

// Get returns the session for a presentation, live or tombstoned.
func (m *SessionManager) Get(presentationID string) (*LiveSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[presentationID]
	return session, ok
}

// End tombstones the session and returns the connections to notify. The
// entry is retained so late joiners get a "not live" outcome instead of
// "not found".
func (m *SessionManager) End(presentationID string) ([]Conn, bool) {
	m.mu.RLock()
	session, ok := m.sessions[presentationID]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return session.end(), true
}

// SessionFor returns the presentation id a connection belongs to, or "" when
// the connection is in no session. Code-joined participants use this to
// recover their session without knowing the deck id.
func (m *SessionManager) SessionFor(connID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, session := range m.sessions {
		if session.HasParticipant(connID) || session.IsPresenter(connID) {
			return id
		}
	}
	return ""
}

// RosterUpdate describes a roster change caused by a disconnect, addressed
// to the session's presenter.
type RosterUpdate struct {
	PresentationID string
	Presenter      Conn
	Count          int
	Participants   []string
}

// Disconnect removes the connection from every session it appears in. A
// disconnecting presenter is detached but the session stays alive; a
// disconnecting participant produces a roster update for the presenter.
func (m *SessionManager) Disconnect(connID string) []RosterUpdate {
	m.mu.RLock()
	sessions := make([]*LiveSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	var updates []RosterUpdate
	for _, session := range sessions {
		session.MarkPresenterDisconnected(connID)
		if !session.RemoveParticipant(connID) {
			continue
		}
		presenter, ok := session.Presenter()
		if !ok {
			continue
		}
		count, names := session.Roster()
		updates = append(updates, RosterUpdate{
			PresentationID: session.PresentationID(),
			Presenter:      presenter,
			Count:          count,
			Participants:   names,
		})
	}
	return updates
}

// Shutdown closes every connection and drops all sessions.
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*LiveSession)
	m.mu.Unlock()

	for _, session := range sessions {
		for _, conn := range session.end() {
			conn.Close()
		}
	}
}

package http

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"livedeck-service/internal/app"
	"livedeck-service/internal/domain"
)

const sendBufferSize = 32

// WSHandler upgrades HTTP requests to websockets and feeds inbound envelopes
// into the session coordinator.
type WSHandler struct {
	coordinator *app.Coordinator
	upgrader    websocket.Upgrader
}

func NewWSHandler(coordinator *app.Coordinator) *WSHandler {
	return &WSHandler{
		coordinator: coordinator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startSessionPayload struct {
	StartIndex *int `json:"startIndex"`
}

type changeSlidePayload struct {
	SlideIndex int  `json:"slideIndex"`
	ShowFinal  bool `json:"showFinal"`
}

type submitResponsePayload struct {
	SlideID string `json:"slideId"`
	Answer  any    `json:"answer"`
}

type voteResponsePayload struct {
	SlideID    string `json:"slideId"`
	ResponseID string `json:"responseId"`
}

type submitQuestionPayload struct {
	SlideID string `json:"slideId"`
	Text    string `json:"text"`
}

type markAnsweredPayload struct {
	SlideID    string `json:"slideId"`
	QuestionID string `json:"questionId"`
	Answered   bool   `json:"answered"`
	AnswerText string `json:"answerText"`
}

type activeQuestionPayload struct {
	SlideID    string `json:"slideId"`
	QuestionID string `json:"questionId"`
}

type qnaSettingsPayload struct {
	SlideID       string `json:"slideId"`
	AllowMultiple bool   `json:"allowMultiple"`
}

type slidePayload struct {
	SlideID string `json:"slideId"`
}

type submitGuessPayload struct {
	SlideID string `json:"slideId"`
	Guess   int    `json:"guess"`
}

type kickPayload struct {
	ParticipantName string `json:"participantName"`
}

// wsConn adapts a gorilla connection to app.Conn. All writes go through the
// writer goroutine; Send buffers and drops on overflow so a slow reader never
// blocks a session operation.
type wsConn struct {
	id   string
	conn *websocket.Conn
	send chan domain.Event
	done chan struct{}
	once sync.Once
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan domain.Event, sendBufferSize),
		done: make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Send(evt domain.Event) {
	select {
	case <-c.done:
	case c.send <- evt:
	default:
		log.Printf("ws %s: send buffer full, dropping %s", c.id, evt.Type)
	}
}

func (c *wsConn) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *wsConn) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case evt := <-c.send:
			if err := c.conn.WriteJSON(evt); err != nil {
				log.Printf("ws %s: write error: %v", c.id, err)
				c.Close()
				return
			}
		}
	}
}

// ServeWS handles both roles. The handshake rides on query params: role
// (presenter|participant), presentationId or code, participantId, name.
// Participants are joined immediately; presenters drive the session through
// start-session and the other presenter envelopes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	presentationID := r.URL.Query().Get("presentationId")
	accessCode := r.URL.Query().Get("code")
	participantID := r.URL.Query().Get("participantId")
	name := r.URL.Query().Get("name")

	switch role {
	case "presenter":
		if presentationID == "" {
			http.Error(w, "missing presentationId", http.StatusBadRequest)
			return
		}
	case "participant":
		if presentationID == "" && accessCode == "" {
			http.Error(w, "missing presentationId or code", http.StatusBadRequest)
			return
		}
	default:
		http.Error(w, "role must be presenter or participant", http.StatusBadRequest)
		return
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	conn := newWSConn(raw)
	go conn.writeLoop()
	defer func() {
		h.coordinator.Disconnect(conn.ID())
		conn.Close()
	}()

	ctx := r.Context()

	if role == "participant" {
		// A rejected join (not live yet, audience limit) keeps the socket
		// open so the client can retry with another join-session envelope.
		if err := h.coordinator.JoinSession(ctx, conn, presentationID, accessCode, participantID, name); err != nil {
			h.fail(conn, err)
		}
	}

	for {
		var inbound inboundMessage
		if err := raw.ReadJSON(&inbound); err != nil {
			return
		}
		if err := h.dispatch(r, conn, presentationID, accessCode, participantID, name, inbound); err != nil {
			h.fail(conn, err)
		}
	}
}

func (h *WSHandler) dispatch(r *http.Request, conn *wsConn, presentationID, accessCode, participantID, name string, inbound inboundMessage) error {
	ctx := r.Context()
	switch inbound.Type {
	case "start-session":
		var p startSessionPayload
		if err := decode(inbound.Payload, &p); err != nil {
			return err
		}
		startIndex := 0
		if p.StartIndex != nil {
			startIndex = *p.StartIndex
		}
		return h.coordinator.StartSession(ctx, conn, presentationID, startIndex)
	case "change-slide":
		var p changeSlidePayload
		if err := decode(inbound.Payload, &p); err != nil {
			return err
		}
		return h.coordinator.ChangeSlide(ctx, conn.ID(), presentationID, p.SlideIndex, p.ShowFinal)
	case "end-session":
		return h.coordinator.EndSession(ctx, conn.ID(), presentationID)
	case "join-session":
		return h.coordinator.JoinSession(ctx, conn, presentationID, accessCode, participantID, name)
	case "submit-response":
		var p submitResponsePayload
		if err := decode(inbound.Payload, &p); err != nil {
			return err
		}
		return h.coordinator.SubmitResponse(ctx, conn, h.sessionID(presentationID, conn), p.SlideID, participantID, name, p.Answer)
	case "vote-response":
		var p voteResponsePayload
		if err := decode(inbound.Payload, &p); err != nil {
			return err
		}
		return h.coordinator.VoteResponse(ctx, h.sessionID(presentationID, conn), p.SlideID, p.ResponseID, participantID)
	case "submit-question":
		var p submitQuestionPayload
		if err := decode(inbound.Payload, &p); err != nil {
			return err
		}
		return h.coordinator.SubmitQuestion(ctx, conn, h.sessionID(presentationID, conn), p.SlideID, participantID, name, p.Text)
	case "mark-question-answered":
		var p markAnsweredPayload
		if err := decode(inbound.Payload, &p); err != nil {
			return err
		}
		return h.coordinator.MarkQuestionAnswered(ctx, conn.ID(), presentationID, p.SlideID, p.QuestionID, p.Answered, p.AnswerText)
	case "set-active-question":
		var p activeQuestionPayload
		if err := decode(inbound.Payload, &p); err != nil {
			return err
		}
		return h.coordinator.SetActiveQuestion(ctx, conn.ID(), presentationID, p.SlideID, p.QuestionID)
	case "update-qna-settings":
		var p qnaSettingsPayload
		if err := decode(inbound.Payload, &p); err != nil {
			return err
		}
		return h.coordinator.UpdateQnaSettings(ctx, conn.ID(), presentationID, p.SlideID, p.AllowMultiple)
	case "clear-questions":
		var p slidePayload
		if err := decode(inbound.Payload, &p); err != nil {
			return err
		}
		return h.coordinator.ClearQuestions(ctx, conn.ID(), presentationID, p.SlideID)
	case "request-qna-state":
		var p slidePayload
		if err := decode(inbound.Payload, &p); err != nil {
			return err
		}
		conn.Send(domain.Event{Type: app.EventQnaUpdated, Payload: h.coordinator.QnaState(p.SlideID)})
		return nil
	case "submit-guess":
		var p submitGuessPayload
		if err := decode(inbound.Payload, &p); err != nil {
			return err
		}
		return h.coordinator.SubmitGuess(ctx, conn, h.sessionID(presentationID, conn), p.SlideID, participantID, name, p.Guess)
	case "clear-guesses":
		var p slidePayload
		if err := decode(inbound.Payload, &p); err != nil {
			return err
		}
		return h.coordinator.ClearGuesses(ctx, conn.ID(), presentationID, p.SlideID)
	case "kick-participant":
		var p kickPayload
		if err := decode(inbound.Payload, &p); err != nil {
			return err
		}
		return h.coordinator.KickParticipant(ctx, conn.ID(), presentationID, p.ParticipantName)
	default:
		return domain.ErrInvalidAnswer
	}
}

// sessionID resolves the presentation a code-joined participant acts on. The
// coordinator registered the connection under the deck id at join time.
func (h *WSHandler) sessionID(presentationID string, conn *wsConn) string {
	if presentationID != "" {
		return presentationID
	}
	return h.coordinator.SessionFor(conn.ID())
}

func (h *WSHandler) fail(conn *wsConn, err error) {
	if domain.Code(err) == domain.CodeInternal {
		log.Printf("ws %s: internal error: %v", conn.ID(), err)
	}
	conn.Send(app.ErrorEvent(err))
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return domain.ErrInvalidAnswer
	}
	return nil
}

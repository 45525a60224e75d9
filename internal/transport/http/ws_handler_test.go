package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"livedeck-service/internal/app"
	"livedeck-service/internal/domain"
	"livedeck-service/internal/infra/memory"
)

func newTestServer(t *testing.T, decks map[string]domain.Deck) *httptest.Server {
	t.Helper()
	store := memory.NewDeckStore(decks)
	repo := memory.NewDeckRepository(store, time.Minute)
	responses := memory.NewResponseStore()
	leaderboards := app.NewLeaderboardService(store, responses, 10)
	coordinator := app.NewCoordinator(app.NewSessionManager(), repo, responses, memory.AudienceLimiter{}, leaderboards)
	wsHandler := NewWSHandler(coordinator)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketSubmitResponseFlow(t *testing.T) {
	server := newTestServer(t, sampleDecks())

	presenter := dial(t, server, "role=presenter&presentationId=deck-1&name=Host")
	if err := presenter.WriteJSON(map[string]any{"type": "start-session"}); err != nil {
		t.Fatalf("write start-session: %v", err)
	}
	readNext(presenter, t, "session-started")

	participant := dial(t, server, "role=participant&presentationId=deck-1&participantId=p1&name=Alice")
	_, joined := readNext(participant, t, "joined-session")
	if joined["slide"] == nil {
		t.Fatalf("expected current slide in joined payload")
	}

	submit := map[string]any{
		"type": "submit-response",
		"payload": map[string]any{
			"slideId": "s1",
			"answer":  "Red",
		},
	}
	if err := participant.WriteJSON(submit); err != nil {
		t.Fatalf("write submit-response: %v", err)
	}

	ackSeen := false
	updateSeen := false
	for i := 0; i < 3 && !(ackSeen && updateSeen); i++ {
		typ, _ := readNext(participant, t, "")
		switch typ {
		case "response-submitted":
			ackSeen = true
		case "response-updated":
			updateSeen = true
		}
	}
	if !ackSeen || !updateSeen {
		t.Fatalf("expected ack and update, got ack=%v update=%v", ackSeen, updateSeen)
	}

	// Duplicate submission on a single-response slide is rejected.
	if err := participant.WriteJSON(submit); err != nil {
		t.Fatalf("write duplicate: %v", err)
	}
	_, payload := readNext(participant, t, "error")
	if payload["code"] != domain.CodeDuplicateSubmission {
		t.Fatalf("expected duplicate code, got %v", payload["code"])
	}
}

func TestWebSocketJoinBeforeStartRejected(t *testing.T) {
	server := newTestServer(t, sampleDecks())

	participant := dial(t, server, "role=participant&presentationId=deck-1&participantId=p1&name=Alice")
	_, payload := readNext(participant, t, "error")
	if payload["code"] != domain.CodeSessionNotLive {
		t.Fatalf("expected not-live code, got %v", payload["code"])
	}
}

func TestWebSocketJoinByAccessCode(t *testing.T) {
	server := newTestServer(t, sampleDecks())

	presenter := dial(t, server, "role=presenter&presentationId=deck-1&name=Host")
	if err := presenter.WriteJSON(map[string]any{"type": "start-session"}); err != nil {
		t.Fatalf("write start-session: %v", err)
	}
	readNext(presenter, t, "session-started")

	participant := dial(t, server, "role=participant&code=482913&participantId=p1&name=Bob")
	_, joined := readNext(participant, t, "joined-session")
	presentation, _ := joined["presentation"].(map[string]any)
	if presentation == nil || presentation["id"] != "deck-1" {
		t.Fatalf("expected deck-1 via access code, got %v", joined["presentation"])
	}

	// The roster update reaches the presenter.
	_, roster := readNext(presenter, t, "participant-roster-updated")
	if roster["participantCount"] != float64(1) {
		t.Fatalf("expected participant count 1, got %v", roster["participantCount"])
	}
}

func TestWebSocketRejectsBadHandshake(t *testing.T) {
	server := newTestServer(t, sampleDecks())

	resp, err := http.Get(server.URL + "/ws?role=participant")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func sampleDecks() map[string]domain.Deck {
	return map[string]domain.Deck{
		"deck-1": {
			ID:         "deck-1",
			OwnerID:    "owner-1",
			Title:      "Team retro",
			AccessCode: "482913",
			Slides: []domain.Slide{
				{
					ID:       "s1",
					Type:     domain.SlideMultipleChoice,
					Question: "Favourite colour?",
					Options:  []string{"Red", "Green", "Blue"},
				},
				{
					ID:       "s2",
					Type:     domain.SlideWordCloud,
					Question: "One word for this sprint",
					MaxWords: 3,
				},
			},
		},
	}
}

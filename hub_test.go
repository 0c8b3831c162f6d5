package main

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

type serverMessage struct {
	Type    string       `json:"type"`
	State   *PublicState `json:"state,omitempty"`
	Success bool         `json:"success,omitempty"`
	IsAdmin bool         `json:"is_admin,omitempty"`
	Message string       `json:"message,omitempty"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &Config{
		adminNames:   []string{"admin"},
		bind:         "127.0.0.1",
		port:         8080,
		scoreRecheck: 10 * time.Millisecond,
	}

	mux := httprouter.New()
	registerTierGame(cfg, "/party", mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dialSession(t *testing.T, srv *httptest.Server, gameID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/party/" + gameID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readMessage decodes server messages until one of the wanted type arrives.
func readMessage(t *testing.T, conn *websocket.Conn, wantType string) serverMessage {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	_ = conn.SetReadDeadline(deadline)

	for {
		var msg serverMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %q message: %v", wantType, err)
		}
		if msg.Type == wantType {
			return msg
		}
	}
}

// waitForState reads broadcasts until the predicate holds.
func waitForState(t *testing.T, conn *websocket.Conn, describe string, pred func(*PublicState) bool) *PublicState {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	_ = conn.SetReadDeadline(deadline)

	for {
		var msg serverMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for state where %s: %v", describe, err)
		}
		if msg.Type == "game_state" && msg.State != nil && pred(msg.State) {
			return msg.State
		}
	}
}

func sendJoin(t *testing.T, conn *websocket.Conn, name string) {
	t.Helper()
	if err := conn.WriteJSON(ClientMessage{Type: "join", Name: name}); err != nil {
		t.Fatalf("join as %q: %v", name, err)
	}
}

func sendAdmin(t *testing.T, conn *websocket.Conn, action string) {
	t.Helper()
	if err := conn.WriteJSON(ClientMessage{Type: "admin", Action: action}); err != nil {
		t.Fatalf("admin action %q: %v", action, err)
	}
}

func TestWebSocketInitialPushAndJoin(t *testing.T) {
	srv := newTestServer(t)
	conn := dialSession(t, srv, "session1")

	initial := readMessage(t, conn, "game_state")
	if initial.State == nil || initial.State.Phase != PhaseLobby {
		t.Fatalf("initial push = %+v, want lobby snapshot", initial.State)
	}
	if len(initial.State.Teams) != 0 {
		t.Fatalf("initial roster = %+v, want empty", initial.State.Teams)
	}

	sendJoin(t, conn, "Alpha")

	joined := readMessage(t, conn, "joined")
	if !joined.Success || joined.IsAdmin {
		t.Fatalf("joined ack = %+v, want success and not admin", joined)
	}

	state := waitForState(t, conn, "Alpha is present", func(s *PublicState) bool {
		return len(s.Teams) == 1 && s.Teams[0].Name == "Alpha"
	})
	if !state.Teams[0].Connected {
		t.Fatal("joined team must be marked connected")
	}
}

func TestAdminDrivesGameOverWebSocket(t *testing.T) {
	srv := newTestServer(t)

	admin := dialSession(t, srv, "session2")
	team := dialSession(t, srv, "session2")

	sendJoin(t, admin, "admin")
	joined := readMessage(t, admin, "joined")
	if !joined.IsAdmin {
		t.Fatal("privileged name must join as admin")
	}

	sendJoin(t, team, "Alpha")
	readMessage(t, team, "joined")

	// The admin never appears in the public roster.
	state := waitForState(t, admin, "Alpha joined", func(s *PublicState) bool {
		return len(s.Teams) == 1
	})
	if state.Teams[0].Name != "Alpha" {
		t.Fatalf("roster = %+v, want only Alpha", state.Teams)
	}

	sendAdmin(t, admin, "start_game")

	state = waitForState(t, team, "game started", func(s *PublicState) bool {
		return s.Phase == PhasePlaying && s.CurrentGame == GameTier
	})
	if state.Round == nil || state.Round.ID != "ice_cream" {
		t.Fatalf("active round = %+v, want ice_cream", state.Round)
	}

	// Sole team submits; it defines the consensus, so it banks 5.0 per item.
	ranking := make(Ranking)
	tiers := []Tier{TierGoat, TierS, TierA, TierB, TierC}
	counts := make(map[Tier]int)
	for i, item := range state.Round.Items {
		tier := tiers[i%len(tiers)]
		ranking[item.ID] = Placement{Tier: tier, Index: counts[tier]}
		counts[tier]++
	}
	if err := team.WriteJSON(ClientMessage{Type: "submit_ranking", Ranking: ranking}); err != nil {
		t.Fatalf("submit ranking: %v", err)
	}

	wantScore := 5.0 * float64(len(state.Round.Items))
	state = waitForState(t, team, "scoring completed", func(s *PublicState) bool {
		return s.ResultsReady
	})
	result := state.RoundResults["ice_cream"]
	if result == nil || result.TeamScores["Alpha"] != wantScore {
		t.Fatalf("round result = %+v, want Alpha at %v", result, wantScore)
	}
}

func TestUnauthorizedAdminActionIgnored(t *testing.T) {
	srv := newTestServer(t)

	alpha := dialSession(t, srv, "session3")
	sendJoin(t, alpha, "Alpha")
	readMessage(t, alpha, "joined")

	// A regular team tries to start the game.
	sendAdmin(t, alpha, "start_game")

	// A subsequent join forces a fresh broadcast; the phase must be untouched.
	beta := dialSession(t, srv, "session3")
	sendJoin(t, beta, "Beta")

	state := waitForState(t, alpha, "Beta joined", func(s *PublicState) bool {
		return len(s.Teams) == 2
	})
	if state.Phase != PhaseLobby {
		t.Fatalf("phase = %s after unauthorized start, want lobby", state.Phase)
	}
}

func TestDisconnectFlagsTeam(t *testing.T) {
	srv := newTestServer(t)

	alpha := dialSession(t, srv, "session4")
	beta := dialSession(t, srv, "session4")

	sendJoin(t, alpha, "Alpha")
	readMessage(t, alpha, "joined")
	sendJoin(t, beta, "Beta")
	readMessage(t, beta, "joined")

	waitForState(t, alpha, "both teams joined", func(s *PublicState) bool {
		return len(s.Teams) == 2
	})

	_ = beta.Close()

	state := waitForState(t, alpha, "Beta flagged disconnected", func(s *PublicState) bool {
		for _, team := range s.Teams {
			if team.Name == "Beta" && !team.Connected {
				return true
			}
		}
		return false
	})

	// The entry survives for reconnection; only the flag flips.
	if len(state.Teams) != 2 {
		t.Fatalf("roster = %+v, want Beta preserved", state.Teams)
	}
}

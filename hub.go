// Tiernight session transport
//
// Features:
// - WebSockets per session ID: /path/:gameid and /path/:gameid/ws
// - Every connection gets the full public snapshot immediately on subscribe
// - Every state mutation is followed by a full-state broadcast to all clients
// - Players identified by cookie (playerID); rejoining by name keeps the score
// - Privileged display names bind the connection as the session admin
// - Admin commands: start, next round, next, award points, remove team,
//   reset, force recalculation
// - Round scoring fires automatically once every connected team has
//   submitted, with a delayed re-check as a safety net (scoring is
//   idempotent, so the second run is harmless)
// - Sessions auto-reaped after configurable idle timeout
// - Random 8-char session IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current session, backed by go-qrcode

package main

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// Messages coming from clients
type ClientMessage struct {
	Type     string  `json:"type"`                // "join", "submit_ranking", "admin"
	Name     string  `json:"name,omitempty"`      // join
	Action   string  `json:"action,omitempty"`    // admin subcommand
	TeamName string  `json:"team_name,omitempty"` // award_points / remove_team
	Points   float64 `json:"points,omitempty"`    // award_points
	Ranking  Ranking `json:"ranking,omitempty"`   // submit_ranking
}

// StateMessage carries the full public snapshot to every client.
type StateMessage struct {
	Type  string       `json:"type"` // "game_state"
	State *PublicState `json:"state"`
}

// JoinedMessage acknowledges a join to the joining client only.
type JoinedMessage struct {
	Type    string `json:"type"` // "joined"
	Success bool   `json:"success"`
	IsAdmin bool   `json:"is_admin"`
}

// ErrorMessage is the generic notification sent to the originating client
// when handling its event failed unexpectedly.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

type joinRequest struct {
	client *Client
	msg    ClientMessage
}

type submitRequest struct {
	client *Client
	msg    ClientMessage
}

type adminCommand struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id     string
	engine *Engine

	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	joins    chan joinRequest
	submits  chan submitRequest
	admins   chan adminCommand
	rechecks chan string // round ID whose scoring should be re-checked

	mu sync.RWMutex

	lastActive time.Time
}

func newHub(cfg *Config, gameID string) *Hub {
	return &Hub{
		id:         gameID,
		engine:     NewEngine(defaultContent(), cfg.adminNames),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		joins:      make(chan joinRequest),
		submits:    make(chan submitRequest),
		admins:     make(chan adminCommand),
		rechecks:   make(chan string, 4),
		lastActive: time.Now(),
	}
}

// run is the hub's single event loop. The engine is mutated exclusively from
// here, one event at a time, so no mutation ever observes another in flight.
func (h *Hub) run(cfg *Config) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.clients[c] = true

			// Initial push, so new subscribers render current state
			// before any mutation.
			snapshot := h.engine.PublicState()
			h.mu.Unlock()

			c.send <- StateMessage{
				Type:  "game_state",
				State: snapshot,
			}

		case c := <-h.unreg:
			h.handleUnregister(cfg, c)

		case jr := <-h.joins:
			h.dispatch(jr.client, func() { h.handleJoin(cfg, jr) })

		case sr := <-h.submits:
			h.dispatch(sr.client, func() { h.handleSubmit(cfg, sr) })

		case cmd := <-h.admins:
			h.dispatch(cmd.client, func() { h.handleAdminCommand(cfg, cmd) })

		case roundID := <-h.rechecks:
			h.handleRecheck(cfg, roundID)
		}
	}
}

// dispatch runs one event handler, containing any panic at the transport
// boundary: the failure is logged and reported to the originating client
// only, and no (possibly corrupt) state is broadcast.
func (h *Hub) dispatch(c *Client, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("%s | ERROR: event handler failed in %q: %v", time.Now().Format(logDate), h.id, r)

			if c == nil {
				return
			}
			select {
			case c.send <- ErrorMessage{
				Type:    "error",
				Message: "Server error occurred",
			}:
			default:
			}
		}
	}()

	fn()
}

func (h *Hub) handleUnregister(cfg *Config, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}

	if c.playerID == "" {
		return
	}

	// Another tab may still hold the same cookie; only mark the team
	// disconnected once the last connection for this playerID is gone.
	for client := range h.clients {
		if client.playerID == c.playerID {
			return
		}
	}

	h.engine.Disconnect(c.playerID)
	logf(cfg, "GAMES: Connection %.8s left %s", c.playerID, h.id)

	h.broadcastStateLocked()
}

func (h *Hub) handleJoin(cfg *Config, jr joinRequest) {
	msg := jr.msg
	c := jr.client

	if msg.Name == "" || c.playerID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	result := h.engine.Join(c.playerID, msg.Name)
	if result.IsAdmin {
		logf(cfg, "GAMES: Host %q joined %s", msg.Name, h.id)
	} else {
		logf(cfg, "GAMES: Team %q joined %s", msg.Name, h.id)
	}

	select {
	case c.send <- JoinedMessage{
		Type:    "joined",
		Success: true,
		IsAdmin: result.IsAdmin,
	}:
	default:
		delete(h.clients, c)
		close(c.send)
	}

	h.broadcastStateLocked()
}

func (h *Hub) handleSubmit(cfg *Config, sr submitRequest) {
	c := sr.client
	msg := sr.msg

	if c.playerID == "" || len(msg.Ranking) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	allSubmitted, ok := h.engine.SubmitRanking(c.playerID, msg.Ranking)
	if !ok {
		logf(cfg, "GAMES: Dropped ranking from unjoined connection %.8s in %s", c.playerID, h.id)
		return
	}

	logf(cfg, "GAMES: Ranking submitted by %.8s in %s", c.playerID, h.id)

	h.broadcastStateLocked()

	// Safety net against a missed trigger: re-check scoring shortly after
	// the submission that completed the round. Scoring is idempotent, so
	// running it again is merely redundant.
	if allSubmitted {
		roundID := h.engine.CurrentRoundID()
		if roundID == "" {
			return
		}
		time.AfterFunc(cfg.scoreRecheck, func() {
			select {
			case h.rechecks <- roundID:
			default:
			}
		})
	}
}

func (h *Hub) handleRecheck(cfg *Config, roundID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// The admin may have advanced past the round in the meantime.
	if h.engine.CurrentRoundID() != roundID {
		return
	}

	h.engine.CalculateRoundResults()
	logf(cfg, "GAMES: Re-checked scoring for round %q in %s", roundID, h.id)

	h.broadcastStateLocked()
}

// handleAdminCommand processes host actions: phase transitions, manual point
// awards, team removal, reset, and explicit recalculation. Unauthorized
// attempts are logged and dropped without touching state.
func (h *Hub) handleAdminCommand(cfg *Config, cmd adminCommand) {
	c := cmd.client
	msg := cmd.msg

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	if !h.engine.IsAdmin(c.playerID) {
		log.Printf("%s | GAMES: Unauthorized admin action %q from %.8s in %q", time.Now().Format(logDate), msg.Action, c.playerID, h.id)
		return
	}

	switch msg.Action {
	case "start_game":
		h.engine.StartGame()
	case "next_round":
		h.engine.AdvanceRound()
	case "next_one":
		h.engine.AdvanceOne()
	case "award_points":
		h.engine.AwardPoints(msg.TeamName, msg.Points)
	case "remove_team":
		h.engine.RemoveTeam(msg.TeamName)
	case "reset_game":
		h.engine.ResetGame()
	case "calculate_round":
		h.engine.CalculateRoundResults()
	default:
		logf(cfg, "GAMES: Unknown admin action %q in %s", msg.Action, h.id)
		return
	}

	logf(cfg, "GAMES: Admin action %q in %s", msg.Action, h.id)

	h.broadcastStateLocked()
}

// broadcastStateLocked sends the current snapshot to every client. Assumes
// h.mu is held.
func (h *Hub) broadcastStateLocked() {
	msg := StateMessage{
		Type:  "game_state",
		State: h.engine.PublicState(),
	}

	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// closeAll disconnects all clients of this hub (used by reaper).
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "tiernight_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		log.Println("rand.Read error:", err)
		return ""
	}
	id := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager holds a set of hubs keyed by session ID, so each $path/$gameid
// is its own isolated session with its own engine.
type GameManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration
}

func newGameManager(idleTimeout time.Duration) *GameManager {
	gm := &GameManager{
		hubs:        make(map[string]*Hub),
		idleTimeout: idleTimeout,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(cfg, gameID)
	gm.hubs[gameID] = hub
	go hub.run(cfg)
	return hub
}

// newGameID generates a crypto-random session ID and ensures it doesn't
// collide with existing sessions.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-gm.idleTimeout)

		gm.mu.Lock()
		for id, hub := range gm.hubs {
			hub.mu.RLock()
			last := hub.lastActive
			hub.mu.RUnlock()

			if last.Before(cutoff) {
				delete(gm.hubs, id)
				go hub.closeAll()
			}
		}
		gm.mu.Unlock()
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)
		if playerID == "" {
			http.Error(w, "unable to assign player id", http.StatusInternalServerError)
			return
		}

		hub := gm.getHub(cfg, gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 8),
			playerID: playerID,
		}

		hub.register <- client

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unreg <- c
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "join":
			h.joins <- joinRequest{
				client: c,
				msg:    msg,
			}
		case "submit_ranking":
			h.submits <- submitRequest{
				client: c,
				msg:    msg,
			}
		case "admin":
			h.admins <- adminCommand{
				client: c,
				msg:    msg,
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current session URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")
	if gameID == "" {
		http.Error(w, "missing game id", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:gameid/qr; strip trailing "/qr" to get the session URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// redirectNewGame handles GET /path by generating a new random session ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerTierGame sets up routes so that:
//   - $path                  → redirects to new random session (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that session
//   - $path/:gameid/qr       → PNG QR code for that session URL
func registerTierGame(cfg *Config, path string, mux *httprouter.Router) {
	gm := newGameManager(cfg.sessionTimeout)

	// Root path → redirect to new random session
	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	// Per-session client view (HTML)
	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg))

	// Shared assets (no gameid in route)
	mux.GET(cfg.prefix+"/assets/party/app.css", getCssHandler(cfg))
	mux.GET(cfg.prefix+"/assets/party/app.js", getJsHandler(cfg))

	// Per-session websocket
	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	// Per-session QR code
	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler)
}

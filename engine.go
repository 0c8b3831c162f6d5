// Tiernight game engine
//
// One Engine owns the authoritative state for a single session: the roster of
// teams, the phase machine, stored tier-round submissions, computed round
// results, and the manual award history for the quiz games.
//
// Teams are identified by a live connection ID but keyed for reconnection by
// display name: rejoining under the same name carries the accumulated score
// over to the new connection and discards the stale entry. Privileged (admin)
// display names never get a team entry; they bind the connection as the host.
//
// The Engine holds no locks. All mutations are funneled through the session
// hub's single run goroutine, so exactly one mutation is in flight at a time
// and every mutation is followed by a full-state broadcast. Snapshots handed
// out by PublicState are deep copies; callers can never mutate engine state
// through one.

package main

import (
	"fmt"
	"sort"
	"time"
)

// Phase is the coarse UI-routing state of a session.
type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhasePlaying Phase = "playing"
	PhaseResults Phase = "results"
)

// Game identifies which mini-game is current.
type Game string

const (
	GameTier     Game = "tier"
	GameInitials Game = "initials"
	GameReverse  Game = "reverse"
)

// Placement records where a team put one item: the tier, and the item's
// 0-based order among that team's items within the same tier.
type Placement struct {
	Tier  Tier `json:"tier"`
	Index int  `json:"index"`
}

// Ranking maps item IDs to placements.
type Ranking map[string]Placement

// Team is one participating unit. connID is the live connection identity and
// changes on every reconnect; Name is the stable join key.
type Team struct {
	connID    string
	Name      string
	Score     float64
	Connected bool
}

// RoundResult holds the computed consensus values and per-team scores for one
// tier round.
type RoundResult struct {
	ItemAverages map[string]float64 `json:"itemAverages"`
	TeamScores   map[string]float64 `json:"teamScores"`
}

// AwardRecord is one manual point award, kept for audit display.
type AwardRecord struct {
	Game      Game      `json:"game"`
	QuizIndex int       `json:"quizIndex"`
	Question  string    `json:"question"`
	Team      string    `json:"team"`
	Points    float64   `json:"points"`
	Timestamp time.Time `json:"timestamp"`
}

// TeamView is the public projection of a team.
type TeamView struct {
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	Connected bool    `json:"connected"`
}

// PublicState is the full snapshot broadcast to every client after each
// mutation. Round is non-nil only during the tier game; CurrentQuiz is
// non-nil only during a quiz game.
type PublicState struct {
	Phase            Phase                         `json:"phase"`
	CurrentGame      Game                          `json:"currentGame"`
	Round            *Round                        `json:"round"`
	CurrentQuiz      *QuizPrompt                   `json:"currentQuiz"`
	CurrentQuizIndex int                           `json:"currentQuizIndex"`
	TotalQuizCount   int                           `json:"totalQuizCount"`
	Teams            []TeamView                    `json:"teams"`
	Submissions      map[string]map[string]Ranking `json:"submissions"`
	RoundResults     map[string]*RoundResult       `json:"roundResults"`
	ResultsReady     bool                          `json:"roundResultsCalculated"`
	AwardHistory     []AwardRecord                 `json:"quizHistory"`
}

// JoinResult is returned to the joining connection only.
type JoinResult struct {
	IsAdmin bool
	State   *PublicState
}

// Engine owns all mutable state for one session.
type Engine struct {
	content    *Content
	adminNames []string

	teams       map[string]*Team // keyed by connection ID
	adminConnID string

	phase      Phase
	game       Game
	roundIndex int // -1 before the first start
	quizIndex  int

	submissions  map[string]map[string]Ranking // roundID -> team name -> ranking
	roundResults map[string]*RoundResult
	resultsReady bool
	awardHistory []AwardRecord

	// credited tracks how much of each team's total came from each round, so
	// recomputing a round reconciles instead of double-adding.
	credited map[string]map[string]float64

	now func() time.Time
}

func NewEngine(content *Content, adminNames []string) *Engine {
	return &Engine{
		content:      content,
		adminNames:   adminNames,
		teams:        make(map[string]*Team),
		phase:        PhaseLobby,
		game:         GameTier,
		roundIndex:   -1,
		submissions:  make(map[string]map[string]Ranking),
		roundResults: make(map[string]*RoundResult),
		credited:     make(map[string]map[string]float64),
		now:          time.Now,
	}
}

func (e *Engine) isAdminName(name string) bool {
	for _, n := range e.adminNames {
		if n == name {
			return true
		}
	}
	return false
}

// IsAdmin reports whether connID is the bound admin connection, or holds a
// team entry under a privileged name. The second check covers the race where
// the binding was cleared but the named entry persists.
func (e *Engine) IsAdmin(connID string) bool {
	if e.adminConnID != "" && e.adminConnID == connID {
		return true
	}
	if t, ok := e.teams[connID]; ok && e.isAdminName(t.Name) {
		return true
	}
	return false
}

// Join registers a connection under a display name. Privileged names bind the
// connection as the session admin and never create a team entry; a later
// privileged join replaces the binding. For regular names, an existing entry
// with the same name (connected or not) has its score carried over to the new
// connection and is discarded.
func (e *Engine) Join(connID, name string) JoinResult {
	if e.isAdminName(name) {
		e.adminConnID = connID
		return JoinResult{IsAdmin: true, State: e.PublicState()}
	}

	previousScore := 0.0
	for id, t := range e.teams {
		if t.Name == name {
			previousScore = t.Score
			delete(e.teams, id)
			break
		}
	}

	e.teams[connID] = &Team{
		connID:    connID,
		Name:      name,
		Score:     previousScore,
		Connected: true,
	}

	return JoinResult{State: e.PublicState()}
}

// Disconnect marks the team for connID as disconnected, preserving its entry
// for reconnection. The admin binding is cleared if this was the admin.
func (e *Engine) Disconnect(connID string) {
	if connID == e.adminConnID {
		e.adminConnID = ""
	}
	if t, ok := e.teams[connID]; ok {
		t.Connected = false
	}
}

// RemoveTeam deletes a team entry outright, admin-only at the call site.
func (e *Engine) RemoveTeam(name string) *PublicState {
	for id, t := range e.teams {
		if t.Name == name {
			delete(e.teams, id)
			break
		}
	}
	return e.PublicState()
}

// StartGame begins play from the lobby: tier game, round 0, everything
// cleared, every score zeroed.
func (e *Engine) StartGame() *PublicState {
	e.phase = PhasePlaying
	e.game = GameTier
	e.roundIndex = 0
	e.quizIndex = 0
	e.clearProgress()

	return e.PublicState()
}

// ResetGame returns to the lobby, clearing all progress and scores while
// preserving roster connections. Callable from any state.
func (e *Engine) ResetGame() *PublicState {
	e.phase = PhaseLobby
	e.game = GameTier
	e.roundIndex = -1
	e.quizIndex = 0
	e.clearProgress()

	return e.PublicState()
}

func (e *Engine) clearProgress() {
	e.submissions = make(map[string]map[string]Ranking)
	e.roundResults = make(map[string]*RoundResult)
	e.resultsReady = false
	e.awardHistory = nil
	e.credited = make(map[string]map[string]float64)

	for _, t := range e.teams {
		t.Score = 0
	}
}

// AdvanceRound moves to the next tier round, or to the intermediate results
// screen after the last one. Only meaningful during the tier game; the
// following mini-games are paced with AdvanceOne instead.
func (e *Engine) AdvanceRound() *PublicState {
	if e.game == GameTier {
		if e.roundIndex < len(e.content.Rounds)-1 {
			e.roundIndex++
			e.resultsReady = false
		} else {
			e.phase = PhaseResults
		}
	}
	return e.PublicState()
}

// AdvanceOne is the single "next" action driving everything after the tier
// rounds: tier results -> initials quiz -> initials results -> reverse quiz
// -> final results. From the lobby it is equivalent to StartGame. At the
// final results screen it is a no-op.
func (e *Engine) AdvanceOne() *PublicState {
	if e.phase == PhaseLobby {
		return e.StartGame()
	}

	switch e.game {
	case GameTier:
		if e.phase == PhaseResults {
			e.game = GameInitials
			e.phase = PhasePlaying
			e.quizIndex = 0
		}

	case GameInitials:
		if e.quizIndex < len(e.content.InitialsQuiz)-1 {
			e.quizIndex++
		} else if e.phase == PhasePlaying {
			e.phase = PhaseResults
		} else if e.phase == PhaseResults {
			e.game = GameReverse
			e.phase = PhasePlaying
			e.quizIndex = 0
		}

	case GameReverse:
		if e.quizIndex < len(e.content.ReverseQuiz)-1 {
			e.quizIndex++
		} else {
			e.phase = PhaseResults
		}
	}

	return e.PublicState()
}

// AwardPoints adds points (any sign, no clamp) to a team's score and appends
// an audit record. Returns the snapshot either way; a missing team is a
// no-op.
func (e *Engine) AwardPoints(teamName string, points float64) *PublicState {
	var team *Team
	for _, t := range e.teams {
		if t.Name == teamName {
			team = t
			break
		}
	}
	if team == nil {
		return e.PublicState()
	}

	team.Score += points

	question := fmt.Sprintf("Q%d", e.quizIndex+1)
	if prompt := e.currentQuiz(); prompt != nil {
		question = prompt.Question
	}

	e.awardHistory = append(e.awardHistory, AwardRecord{
		Game:      e.game,
		QuizIndex: e.quizIndex,
		Question:  question,
		Team:      teamName,
		Points:    points,
		Timestamp: e.now(),
	})

	return e.PublicState()
}

// SubmitRanking stores a team's ranking for the current tier round, keyed by
// round ID and team name (resubmission overwrites). When every currently
// connected non-admin team has a stored submission, scoring fires
// automatically. The first return value reports whether that condition held,
// so the transport can schedule its delayed re-check.
func (e *Engine) SubmitRanking(connID string, ranking Ranking) (allSubmitted, ok bool) {
	team, exists := e.teams[connID]
	if !exists {
		return false, false
	}

	round := e.currentRound()
	if round == nil {
		return false, false
	}

	stored := make(Ranking, len(ranking))
	for itemID, p := range ranking {
		stored[itemID] = p
	}

	if e.submissions[round.ID] == nil {
		e.submissions[round.ID] = make(map[string]Ranking)
	}
	e.submissions[round.ID][team.Name] = stored

	submitted := len(e.submissions[round.ID])
	connected := e.connectedTeamCount()

	if submitted >= connected && connected > 0 {
		e.CalculateRoundResults()
		return true, true
	}

	return false, true
}

func (e *Engine) connectedTeamCount() int {
	count := 0
	for _, t := range e.teams {
		if t.Connected && !e.isAdminName(t.Name) {
			count++
		}
	}
	return count
}

// CalculateRoundResults recomputes the current round's consensus averages
// and team scores from the stored submissions. It is idempotent: results are
// fully overwritten, and each team's running total is reconciled against the
// amount previously credited for this round, so the delayed transport
// re-check (or an explicit admin recalculation) never double-counts.
func (e *Engine) CalculateRoundResults() *PublicState {
	round := e.currentRound()
	if round == nil {
		return e.PublicState()
	}

	roundSubmissions := e.submissions[round.ID]

	averages := itemAverages(roundSubmissions)
	scores := teamRoundScores(roundSubmissions, averages)

	// Connected teams that never submitted score zero for the round.
	for _, t := range e.teams {
		if t.Connected && !e.isAdminName(t.Name) {
			if _, ok := scores[t.Name]; !ok {
				scores[t.Name] = 0
			}
		}
	}

	if e.credited[round.ID] == nil {
		e.credited[round.ID] = make(map[string]float64)
	}
	for _, t := range e.teams {
		roundScore, ok := scores[t.Name]
		if !ok {
			continue
		}
		t.Score += roundScore - e.credited[round.ID][t.Name]
		e.credited[round.ID][t.Name] = roundScore
	}

	e.roundResults[round.ID] = &RoundResult{
		ItemAverages: averages,
		TeamScores:   scores,
	}
	e.resultsReady = true

	return e.PublicState()
}

func (e *Engine) currentRound() *Round {
	if e.game != GameTier || e.roundIndex < 0 || e.roundIndex >= len(e.content.Rounds) {
		return nil
	}
	return &e.content.Rounds[e.roundIndex]
}

func (e *Engine) currentQuiz() *QuizPrompt {
	var quiz []QuizPrompt
	switch e.game {
	case GameInitials:
		quiz = e.content.InitialsQuiz
	case GameReverse:
		quiz = e.content.ReverseQuiz
	default:
		return nil
	}
	if e.quizIndex < 0 || e.quizIndex >= len(quiz) {
		return nil
	}
	return &quiz[e.quizIndex]
}

// CurrentRoundID returns the active tier round's ID, or "" outside the tier
// game. Used by the transport to tag delayed scoring re-checks.
func (e *Engine) CurrentRoundID() string {
	if round := e.currentRound(); round != nil {
		return round.ID
	}
	return ""
}

// PublicState builds the full read-only snapshot broadcast to clients. Maps
// are deep-copied so the caller cannot reach back into engine state; teams
// are sorted by name for a stable wire order.
func (e *Engine) PublicState() *PublicState {
	teams := make([]TeamView, 0, len(e.teams))
	for _, t := range e.teams {
		teams = append(teams, TeamView{
			Name:      t.Name,
			Score:     t.Score,
			Connected: t.Connected,
		})
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })

	submissions := make(map[string]map[string]Ranking, len(e.submissions))
	for roundID, byTeam := range e.submissions {
		teamCopy := make(map[string]Ranking, len(byTeam))
		for name, ranking := range byTeam {
			rankingCopy := make(Ranking, len(ranking))
			for itemID, p := range ranking {
				rankingCopy[itemID] = p
			}
			teamCopy[name] = rankingCopy
		}
		submissions[roundID] = teamCopy
	}

	results := make(map[string]*RoundResult, len(e.roundResults))
	for roundID, r := range e.roundResults {
		averages := make(map[string]float64, len(r.ItemAverages))
		for k, v := range r.ItemAverages {
			averages[k] = v
		}
		scores := make(map[string]float64, len(r.TeamScores))
		for k, v := range r.TeamScores {
			scores[k] = v
		}
		results[roundID] = &RoundResult{ItemAverages: averages, TeamScores: scores}
	}

	history := make([]AwardRecord, len(e.awardHistory))
	copy(history, e.awardHistory)

	totalQuizCount := 0
	switch e.game {
	case GameInitials:
		totalQuizCount = len(e.content.InitialsQuiz)
	case GameReverse:
		totalQuizCount = len(e.content.ReverseQuiz)
	}

	return &PublicState{
		Phase:            e.phase,
		CurrentGame:      e.game,
		Round:            e.currentRound(),
		CurrentQuiz:      e.currentQuiz(),
		CurrentQuizIndex: e.quizIndex,
		TotalQuizCount:   totalQuizCount,
		Teams:            teams,
		Submissions:      submissions,
		RoundResults:     results,
		ResultsReady:     e.resultsReady,
		AwardHistory:     history,
	}
}

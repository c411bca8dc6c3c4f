package draft

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/Billy-Davies-2/psl-draft/internal/dal"
	"github.com/Billy-Davies-2/psl-draft/internal/logger"
	"github.com/Billy-Davies-2/psl-draft/internal/models"
)

const (
	// DefaultRounds is the number of draft rounds when none is configured.
	DefaultRounds = 5
	// MaxRounds bounds the size of the draft queue.
	MaxRounds = 50

	firstPlayerNumber = 1001
	playerIDPrefix    = "P"
)

// Options configures an Engine.
type Options struct {
	// Roster seeds an empty store and is restored by Reset.
	Roster Roster
	// DefaultRounds is used by StartDraft(0).
	DefaultRounds int
}

// Result describes one acquisition or one undone acquisition.
type Result struct {
	TeamIndex int           `json:"teamIndex"`
	Team      string        `json:"team"`
	Player    models.Player `json:"player"`
	Round     int           `json:"round"`
}

// Engine owns players, teams, the draft queue and the pick history. Every
// public method runs under one mutex, so each operation applies completely
// or not at all.
type Engine struct {
	mu            sync.Mutex
	store         dal.Store
	roster        Roster
	defaultRounds int

	players   []*models.Player
	playerIdx map[string]*models.Player
	teams     []*models.Team
	teamIdx   map[string]int
	nextID    int

	queue   Scheduler
	started bool
	rounds  int
	history []models.HistoryEntry
}

// New loads the engine state from store, seeding it from the roster when
// the store is empty. A nil store keeps everything in memory.
func New(store dal.Store, opts Options) (*Engine, error) {
	if store == nil {
		store = dal.NewMemoryStore()
	}
	if opts.DefaultRounds <= 0 {
		opts.DefaultRounds = DefaultRounds
	}
	if len(opts.Roster.Players) == 0 && len(opts.Roster.Teams) == 0 {
		opts.Roster = DefaultRoster()
	}

	e := &Engine{
		store:         store,
		roster:        opts.Roster,
		defaultRounds: opts.DefaultRounds,
	}
	if err := e.load(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) load() error {
	players, err := e.store.LoadPlayers()
	if err != nil {
		return fmt.Errorf("load players: %w", err)
	}
	teams, err := e.store.LoadTeams()
	if err != nil {
		return fmt.Errorf("load teams: %w", err)
	}

	seeded := false
	if len(players) == 0 {
		if players, err = seedPlayers(e.roster.Players); err != nil {
			return err
		}
		seeded = true
	}
	if len(teams) == 0 {
		if teams, err = seedTeams(e.roster.Teams); err != nil {
			return err
		}
		seeded = true
	}
	e.setPlayers(players)
	e.setTeams(teams)

	if err := e.store.LoadAssignments(e.teams, e.playerIdx); err != nil {
		return fmt.Errorf("load assignments: %w", err)
	}

	snap, err := e.store.LoadDraftState()
	if err != nil {
		return fmt.Errorf("load draft state: %w", err)
	}
	history, err := e.reconcileHistory(snap.History)
	if err != nil {
		return err
	}
	e.history = history
	reconciled := len(history) != len(snap.History)
	if snap.Started {
		e.started = true
		e.rounds = snap.Rounds
		if e.rounds <= 0 {
			e.rounds = e.defaultRounds
		}
		e.queue.Restore(e.rounds, len(e.teams), snap.Consumed)
	}

	logger.Info("Draft engine loaded",
		"players", len(e.players),
		"teams", len(e.teams),
		"history", len(e.history),
		"status", e.statusLocked().String(),
		"seeded", seeded)

	if seeded || reconciled {
		e.persistLocked()
	}
	return nil
}

// reconcileHistory keeps the history entries that match the rebuilt
// rosters. An entry whose player is not on its team's roster, or that
// repeats an earlier player, can never be undone and is dropped.
func (e *Engine) reconcileHistory(entries []models.HistoryEntry) ([]models.HistoryEntry, error) {
	kept := make([]models.HistoryEntry, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, h := range entries {
		if h.TeamIndex < 0 || h.TeamIndex >= len(e.teams) {
			return nil, fmt.Errorf("history references team index %d", h.TeamIndex)
		}
		if _, ok := e.playerIdx[h.PlayerID]; !ok {
			return nil, fmt.Errorf("history references unknown player %q", h.PlayerID)
		}
		team := e.teams[h.TeamIndex]
		_, dup := seen[h.PlayerID]
		if dup || !team.Owns(h.PlayerID) {
			logger.Warn("Dropping stale history entry",
				"team", team.Name,
				"player_id", h.PlayerID,
				"round", h.Round)
			continue
		}
		seen[h.PlayerID] = struct{}{}
		kept = append(kept, h)
	}
	return kept, nil
}

func seedPlayers(seeds []PlayerSeed) ([]*models.Player, error) {
	players := make([]*models.Player, 0, len(seeds))
	for i, s := range seeds {
		p, err := models.NewPlayer(formatPlayerID(firstPlayerNumber+i), s.Name, s.Rating, s.Price, s.Country)
		if err != nil {
			return nil, fmt.Errorf("seed player %q: %w", s.Name, err)
		}
		players = append(players, p)
	}
	return players, nil
}

func seedTeams(seeds []TeamSeed) ([]*models.Team, error) {
	teams := make([]*models.Team, 0, len(seeds))
	for _, s := range seeds {
		t, err := models.NewTeam(s.Name, s.MaxPoints, s.MaxBudget, s.Password)
		if err != nil {
			return nil, fmt.Errorf("seed team %q: %w", s.Name, err)
		}
		teams = append(teams, t)
	}
	return teams, nil
}

func formatPlayerID(n int) string {
	return playerIDPrefix + strconv.Itoa(n)
}

// playerNumber extracts the sequence number from ids shaped like "P1001".
func playerNumber(id string) (int, bool) {
	if !strings.HasPrefix(id, playerIDPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(id[len(playerIDPrefix):])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (e *Engine) setPlayers(players []*models.Player) {
	e.players = players
	e.playerIdx = make(map[string]*models.Player, len(players))
	e.nextID = firstPlayerNumber
	for _, p := range players {
		e.playerIdx[p.ID] = p
		if n, ok := playerNumber(p.ID); ok && n >= e.nextID {
			e.nextID = n + 1
		}
	}
}

func (e *Engine) setTeams(teams []*models.Team) {
	e.teams = teams
	e.teamIdx = make(map[string]int, len(teams))
	for i, t := range teams {
		e.teamIdx[t.Name] = i
	}
}

// persistLocked snapshots the whole state. A failed save is logged and the
// in-memory state stays authoritative; the next successful save catches up.
func (e *Engine) persistLocked() {
	if err := e.store.SavePlayers(e.players); err != nil {
		logger.Error("Failed to save players", "error", err)
	}
	if err := e.store.SaveTeams(e.teams); err != nil {
		logger.Error("Failed to save teams", "error", err)
	}
	if err := e.store.SaveAssignments(e.teams); err != nil {
		logger.Error("Failed to save assignments", "error", err)
	}
	snap := models.DraftSnapshot{
		Started:  e.started,
		Rounds:   e.rounds,
		Consumed: e.queue.Consumed(),
		History:  e.history,
	}
	if err := e.store.SaveDraftState(snap); err != nil {
		logger.Error("Failed to save draft state", "error", err)
	}
}

func (e *Engine) statusLocked() models.DraftStatus {
	if !e.started {
		return models.DraftNotStarted
	}
	if e.queue.IsEmpty() {
		return models.DraftFinished
	}
	return models.DraftInProgress
}

func (e *Engine) teamLocked(name string) (int, *models.Team, error) {
	idx, ok := e.teamIdx[name]
	if !ok {
		return 0, nil, models.Validationf("Invalid team: %s", name)
	}
	return idx, e.teams[idx], nil
}

func (e *Engine) playerLocked(id string) (*models.Player, error) {
	p, ok := e.playerIdx[id]
	if !ok {
		return nil, models.Validationf("Invalid player: %s", id)
	}
	return p, nil
}

// requireTurnLocked returns the current turn or the StateError explaining
// why there is none.
func (e *Engine) requireTurnLocked() (models.DraftTurn, error) {
	if !e.started {
		return models.DraftTurn{}, models.Statef("Draft not started yet")
	}
	turn, ok := e.queue.Peek()
	if !ok {
		return models.DraftTurn{}, models.Statef("Draft already finished")
	}
	return turn, nil
}

// RegisterPlayer adds a player to the pool. An empty id draws the next
// sequential id.
func (e *Engine) RegisterPlayer(name string, rating, price int, country, id string) (models.Player, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id = strings.TrimSpace(id)
	if id == "" {
		id = formatPlayerID(e.nextID)
	} else if _, exists := e.playerIdx[id]; exists {
		return models.Player{}, models.Validationf("Player id %s already exists", id)
	}

	p, err := models.NewPlayer(id, name, rating, price, country)
	if err != nil {
		return models.Player{}, err
	}

	e.players = append(e.players, p)
	e.playerIdx[p.ID] = p
	if n, ok := playerNumber(p.ID); ok && n >= e.nextID {
		e.nextID = n + 1
	}
	e.persistLocked()

	logger.Info("Player registered", "player_id", p.ID, "name", p.Name, "category", p.Category)
	return *p, nil
}

// SetRating updates an unpicked player's rating and category. Picked
// players are frozen so the owning team's points stay consistent.
func (e *Engine) SetRating(playerID string, rating int) (models.Player, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.playerLocked(playerID)
	if err != nil {
		return models.Player{}, err
	}
	if p.Picked {
		return models.Player{}, models.Domainf("Cannot change the rating of picked player %s", p.Name)
	}
	if err := p.SetRating(rating); err != nil {
		return models.Player{}, err
	}
	e.persistLocked()
	return *p, nil
}

// UpdateBudget replaces one team's budget cap.
func (e *Engine) UpdateBudget(teamName string, newMax int) (models.TeamView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, team, err := e.teamLocked(teamName)
	if err != nil {
		return models.TeamView{}, err
	}
	if err := team.UpdateBudget(newMax); err != nil {
		return models.TeamView{}, err
	}
	e.persistLocked()
	return team.View(idx), nil
}

// UpdateBudgets applies every valid entry of budgets (team name to new cap)
// and skips the rest. It returns how many teams were updated.
func (e *Engine) UpdateBudgets(budgets map[string]int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	updated := 0
	for _, team := range e.teams {
		newMax, ok := budgets[team.Name]
		if !ok {
			continue
		}
		if err := team.UpdateBudget(newMax); err != nil {
			logger.Debug("Skipping budget update", "team", team.Name, "reason", err.Error())
			continue
		}
		updated++
	}
	if updated > 0 {
		e.persistLocked()
	}
	return updated
}

// PreDraftBuy lets a team buy a player before the draft starts.
//
// Buying is deliberately closed once the draft has started, even though
// earlier draft boards left it open: a mid-draft buy would take a player
// out of snake order. It fails with a StateError.
func (e *Engine) PreDraftBuy(teamName, playerID string) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return Result{}, models.Statef("Pre-draft is closed once the draft has started")
	}
	idx, team, err := e.teamLocked(teamName)
	if err != nil {
		return Result{}, err
	}
	player, err := e.playerLocked(playerID)
	if err != nil {
		return Result{}, err
	}
	if ok, reason := team.CanAccept(player, models.PhasePreDraft); !ok {
		return Result{}, &models.DomainError{Reason: reason}
	}

	team.Acquire(player, models.PhasePreDraft)
	e.history = append(e.history, models.HistoryEntry{TeamIndex: idx, PlayerID: player.ID, Round: 0})
	e.persistLocked()

	return Result{TeamIndex: idx, Team: team.Name, Player: *player, Round: 0}, nil
}

// StartDraft builds the snake order and opens the draft. Zero rounds means
// the configured default.
func (e *Engine) StartDraft(rounds int) (TurnInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return TurnInfo{}, models.Statef("Draft already started")
	}
	if rounds < 0 {
		return TurnInfo{}, models.Validationf("Rounds cannot be negative")
	}
	if rounds == 0 {
		rounds = e.defaultRounds
	}
	if rounds > MaxRounds {
		return TurnInfo{}, models.Validationf("Rounds cannot exceed %d", MaxRounds)
	}
	if len(e.teams) == 0 {
		return TurnInfo{}, models.Statef("No teams to draft")
	}

	e.queue.Build(rounds, len(e.teams))
	e.rounds = rounds
	e.started = true
	e.persistLocked()

	logger.Info("Draft started", "rounds", rounds, "turns", e.queue.Len())
	return e.turnInfoLocked(), nil
}

// TurnInfo describes whose turn it is. Finished is set once the queue is
// exhausted, in which case the other fields are zero.
type TurnInfo struct {
	Finished  bool   `json:"finished"`
	Round     int    `json:"round,omitempty"`
	TeamIndex int    `json:"teamIndex"`
	Team      string `json:"team,omitempty"`
	Remaining int    `json:"remaining"`
}

func (e *Engine) turnInfoLocked() TurnInfo {
	turn, ok := e.queue.Peek()
	if !ok {
		return TurnInfo{Finished: true}
	}
	return TurnInfo{
		Round:     turn.Round,
		TeamIndex: turn.TeamIndex,
		Team:      e.teams[turn.TeamIndex].Name,
		Remaining: e.queue.Len(),
	}
}

// CurrentTurn returns the turn at the front of the queue.
func (e *Engine) CurrentTurn() (TurnInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return TurnInfo{}, models.Statef("Draft not started yet")
	}
	return e.turnInfoLocked(), nil
}

// Pick assigns the player to the team holding the current turn.
func (e *Engine) Pick(playerID string) (Result, error) {
	return e.PickAs("", playerID)
}

// PickAs is Pick guarded by the expected team name; an empty name accepts
// whichever team holds the turn. A rejected pick keeps the turn in place.
func (e *Engine) PickAs(teamName, playerID string) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	turn, err := e.requireTurnLocked()
	if err != nil {
		return Result{}, err
	}
	team := e.teams[turn.TeamIndex]
	if teamName != "" && teamName != team.Name {
		return Result{}, models.Statef("It is %s's turn, not %s's", team.Name, teamName)
	}
	player, err := e.playerLocked(playerID)
	if err != nil {
		return Result{}, err
	}
	if ok, reason := team.CanAccept(player, models.PhaseDraft); !ok {
		return Result{}, &models.DomainError{Reason: reason}
	}

	team.Acquire(player, models.PhaseDraft)
	e.history = append(e.history, models.HistoryEntry{TeamIndex: turn.TeamIndex, PlayerID: player.ID, Round: turn.Round})
	e.queue.Advance()
	e.persistLocked()

	return Result{TeamIndex: turn.TeamIndex, Team: team.Name, Player: *player, Round: turn.Round}, nil
}

// Skip discards the current turn without consulting eligibility. Skips are
// not recorded in the history and cannot be undone.
func (e *Engine) Skip() (TurnInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	turn, err := e.requireTurnLocked()
	if err != nil {
		return TurnInfo{}, err
	}
	skipped := TurnInfo{
		Round:     turn.Round,
		TeamIndex: turn.TeamIndex,
		Team:      e.teams[turn.TeamIndex].Name,
		Remaining: e.queue.Len(),
	}
	e.queue.Advance()
	e.persistLocked()
	return skipped, nil
}

// Undo reverts the most recent acquisition. The consumed draft turn is not
// given back.
func (e *Engine) Undo() (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.history) == 0 {
		return Result{}, models.Domainf("Nothing to undo")
	}
	last := e.history[len(e.history)-1]
	team := e.teams[last.TeamIndex]
	player := e.playerIdx[last.PlayerID]

	if !team.Release(player) {
		return Result{}, fmt.Errorf("history out of sync: %s does not own %s", team.Name, player.ID)
	}
	e.history = e.history[:len(e.history)-1]
	e.persistLocked()

	return Result{TeamIndex: last.TeamIndex, Team: team.Name, Player: *player, Round: last.Round}, nil
}

// Reset discards all state and reseeds the default roster.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	players, err := seedPlayers(e.roster.Players)
	if err != nil {
		return err
	}
	teams, err := seedTeams(e.roster.Teams)
	if err != nil {
		return err
	}

	e.setPlayers(players)
	e.setTeams(teams)
	e.queue.Clear()
	e.started = false
	e.rounds = 0
	e.history = nil
	e.persistLocked()

	logger.Info("Draft reset", "players", len(players), "teams", len(teams))
	return nil
}

// Close writes a final snapshot and closes the store.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.persistLocked()
	return e.store.Close()
}

package draft

import (
	"cmp"
	"slices"

	"github.com/Billy-Davies-2/psl-draft/internal/models"
)

// State is a consistent read snapshot of the whole draft.
type State struct {
	Status      models.DraftStatus    `json:"status"`
	Rounds      int                   `json:"rounds"`
	CurrentTurn *TurnInfo             `json:"currentTurn,omitempty"`
	Queue       []models.DraftTurn    `json:"queue"`
	Teams       []models.TeamView     `json:"teams"`
	Players     []models.Player       `json:"players"`
	History     []models.HistoryEntry `json:"history"`
}

// byCategoryThenRating orders players by category priority, then by rating
// from highest to lowest.
func byCategoryThenRating(a, b models.Player) int {
	if c := cmp.Compare(a.Category.Order(), b.Category.Order()); c != 0 {
		return c
	}
	return cmp.Compare(b.Rating, a.Rating)
}

func (e *Engine) sortedPlayersLocked(availableOnly bool) []models.Player {
	out := make([]models.Player, 0, len(e.players))
	for _, p := range e.players {
		if availableOnly && p.Picked {
			continue
		}
		out = append(out, *p)
	}
	slices.SortStableFunc(out, byCategoryThenRating)
	return out
}

// AvailablePlayers returns unpicked players, best category first.
func (e *Engine) AvailablePlayers() []models.Player {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sortedPlayersLocked(true)
}

// AllPlayersSorted returns every player, best category first.
func (e *Engine) AllPlayersSorted() []models.Player {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sortedPlayersLocked(false)
}

// Player looks a player up by id.
func (e *Engine) Player(id string) (models.Player, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.playerLocked(id)
	if err != nil {
		return models.Player{}, err
	}
	return *p, nil
}

func (e *Engine) teamViewsLocked() []models.TeamView {
	views := make([]models.TeamView, len(e.teams))
	for i, t := range e.teams {
		views[i] = t.View(i)
	}
	return views
}

// Teams returns every team in draft order.
func (e *Engine) Teams() []models.TeamView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.teamViewsLocked()
}

// Team looks a team up by name.
func (e *Engine) Team(name string) (models.TeamView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, t, err := e.teamLocked(name)
	if err != nil {
		return models.TeamView{}, err
	}
	return t.View(idx), nil
}

// TeamPassword returns the shared secret of a team, for the authorization
// gate in front of the engine.
func (e *Engine) TeamPassword(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, ok := e.teamIdx[name]
	if !ok {
		return "", false
	}
	return e.teams[idx].Password, true
}

// Status returns the draft lifecycle state.
func (e *Engine) Status() models.DraftStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusLocked()
}

// History returns a copy of the acquisition history, oldest first.
func (e *Engine) History() []models.HistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.history)
}

// State returns a snapshot of everything the presentation layer renders.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := State{
		Status:  e.statusLocked(),
		Rounds:  e.rounds,
		Queue:   e.queue.Remaining(),
		Teams:   e.teamViewsLocked(),
		Players: e.sortedPlayersLocked(false),
		History: slices.Clone(e.history),
	}
	if s.History == nil {
		s.History = []models.HistoryEntry{}
	}
	if e.started {
		turn := e.turnInfoLocked()
		s.CurrentTurn = &turn
	}
	return s
}

package models

import "strings"

const (
	// MaxForeignPlayers caps non-domestic players per team.
	MaxForeignPlayers = 3
	// MaxPreDraftPlayers caps pre-draft acquisitions per team.
	MaxPreDraftPlayers = 3
)

// Acquisition is an owned player together with the phase it was acquired in.
type Acquisition struct {
	Player *Player
	Phase  Phase
}

// Team represents a franchise competing in the draft.
//
// Accumulators only change through Acquire, Release, Restore and
// ClearRoster, which keep them in step with Roster.
type Team struct {
	Name     string
	Password string

	MaxPoints      int
	MaxBudget      int
	CurrentPoints  int
	CurrentBudget  int
	ForeignPlayers int
	PreDraftCount  int

	// Categories holds the categories bought during the pre-draft.
	Categories map[Category]struct{}
	// Roster is in acquisition order.
	Roster []Acquisition
}

// NewTeam returns a team with zeroed accumulators.
func NewTeam(name string, maxPoints, maxBudget int, password string) (*Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Validationf("Team name is required")
	}
	if maxPoints < 0 || maxBudget < 0 {
		return nil, Validationf("Team caps cannot be negative")
	}
	return &Team{
		Name:       name,
		Password:   password,
		MaxPoints:  maxPoints,
		MaxBudget:  maxBudget,
		Categories: make(map[Category]struct{}),
	}, nil
}

// CanAccept reports whether the team may acquire the player in the phase,
// with the reason for a rejection.
func (t *Team) CanAccept(p *Player, phase Phase) (bool, string) {
	return Evaluate(t, p, phase)
}

// HasCategory reports whether the category was already bought in the pre-draft.
func (t *Team) HasCategory(c Category) bool {
	_, ok := t.Categories[c]
	return ok
}

// Acquire adds the player to the roster and updates every accumulator.
// CanAccept must have succeeded first; Acquire does not re-validate.
func (t *Team) Acquire(p *Player, phase Phase) {
	t.Roster = append(t.Roster, Acquisition{Player: p, Phase: phase})
	t.CurrentPoints += p.Rating
	t.CurrentBudget += p.Price
	p.Picked = true
	if p.IsForeign() {
		t.ForeignPlayers++
	}
	if phase == PhasePreDraft {
		if t.Categories == nil {
			t.Categories = make(map[Category]struct{})
		}
		t.Categories[p.Category] = struct{}{}
		t.PreDraftCount++
	}
}

// Release is the inverse of Acquire. Pre-draft acquisitions free their
// category; at most one pre-draft player per category can exist, so the
// removal is unconditional. It reports false if the player is not owned.
func (t *Team) Release(p *Player) bool {
	idx := -1
	for i, a := range t.Roster {
		if a.Player.ID == p.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	acq := t.Roster[idx]
	t.Roster = append(t.Roster[:idx], t.Roster[idx+1:]...)
	t.CurrentPoints -= p.Rating
	t.CurrentBudget -= p.Price
	p.Picked = false
	if p.IsForeign() {
		t.ForeignPlayers--
	}
	if acq.Phase == PhasePreDraft {
		delete(t.Categories, p.Category)
		t.PreDraftCount--
	}
	return true
}

// Restore re-attaches a persisted assignment. Accumulators are rebuilt from
// the roster rather than trusted from the saved team row.
func (t *Team) Restore(p *Player, phase Phase) {
	t.Acquire(p, phase)
}

// ClearRoster empties the roster and zeroes every accumulator. The caps
// are kept.
func (t *Team) ClearRoster() {
	t.Roster = nil
	t.Categories = make(map[Category]struct{})
	t.CurrentPoints = 0
	t.CurrentBudget = 0
	t.ForeignPlayers = 0
	t.PreDraftCount = 0
}

// Owns reports whether the player is on the roster.
func (t *Team) Owns(playerID string) bool {
	for _, a := range t.Roster {
		if a.Player.ID == playerID {
			return true
		}
	}
	return false
}

// UpdateBudget replaces the budget cap. The cap can never drop below what
// the team has already spent.
func (t *Team) UpdateBudget(newMax int) error {
	if newMax < 0 {
		return Validationf("Budget cannot be negative")
	}
	if newMax < t.CurrentBudget {
		return Domainf("Cannot set budget lower than current spending (%s)", FormatCurrency(t.CurrentBudget))
	}
	t.MaxBudget = newMax
	return nil
}

// Players returns the owned players in acquisition order.
func (t *Team) Players() []*Player {
	out := make([]*Player, len(t.Roster))
	for i, a := range t.Roster {
		out[i] = a.Player
	}
	return out
}

// TeamView is a read-only copy of a team for presentation.
type TeamView struct {
	Index           int        `json:"index"`
	Name            string     `json:"name"`
	MaxPoints       int        `json:"maxPoints"`
	MaxBudget       int        `json:"maxBudget"`
	CurrentPoints   int        `json:"currentPoints"`
	CurrentBudget   int        `json:"currentBudget"`
	RemainingPoints int        `json:"remainingPoints"`
	RemainingBudget int        `json:"remainingBudget"`
	ForeignPlayers  int        `json:"foreignPlayers"`
	PreDraftCount   int        `json:"preDraftCount"`
	Categories      []Category `json:"categories"`
	Players         []Player   `json:"players"`
}

// View copies the team into a TeamView.
func (t *Team) View(index int) TeamView {
	v := TeamView{
		Index:           index,
		Name:            t.Name,
		MaxPoints:       t.MaxPoints,
		MaxBudget:       t.MaxBudget,
		CurrentPoints:   t.CurrentPoints,
		CurrentBudget:   t.CurrentBudget,
		RemainingPoints: t.MaxPoints - t.CurrentPoints,
		RemainingBudget: t.MaxBudget - t.CurrentBudget,
		ForeignPlayers:  t.ForeignPlayers,
		PreDraftCount:   t.PreDraftCount,
		Categories:      []Category{},
		Players:         make([]Player, len(t.Roster)),
	}
	for _, c := range Categories {
		if t.HasCategory(c) {
			v.Categories = append(v.Categories, c)
		}
	}
	for i, a := range t.Roster {
		v.Players[i] = *a.Player
	}
	return v
}

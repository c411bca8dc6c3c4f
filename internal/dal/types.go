package dal

import "github.com/Billy-Davies-2/psl-draft/internal/models"

// Store is the persistence gateway for the draft engine. The engine calls
// the Load methods once at start-up and the Save methods after every
// successful mutation. Implementations replace the stored snapshot on save.
type Store interface {
	LoadPlayers() ([]*models.Player, error)
	SavePlayers(players []*models.Player) error
	// LoadTeams returns teams in draft order.
	LoadTeams() ([]*models.Team, error)
	SaveTeams(teams []*models.Team) error
	// LoadAssignments re-attaches owned players to teams and rebuilds each
	// team's pre-draft category set.
	LoadAssignments(teams []*models.Team, players map[string]*models.Player) error
	SaveAssignments(teams []*models.Team) error
	LoadDraftState() (*models.DraftSnapshot, error)
	SaveDraftState(state models.DraftSnapshot) error
	Close() error
}

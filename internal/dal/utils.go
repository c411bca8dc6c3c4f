package dal

import (
	"fmt"

	"github.com/Billy-Davies-2/psl-draft/internal/models"
)

// assignmentsOf flattens team rosters into persistable rows.
func assignmentsOf(teams []*models.Team) []models.Assignment {
	var rows []models.Assignment
	for _, t := range teams {
		for _, a := range t.Roster {
			rows = append(rows, models.Assignment{
				TeamName: t.Name,
				PlayerID: a.Player.ID,
				Category: a.Player.Category,
				Phase:    a.Phase,
			})
		}
	}
	return rows
}

// applyAssignments rebuilds rosters, accumulators and picked flags from
// persisted rows. Rows pointing at an unknown team or player, or a player
// owned twice, are rejected so a corrupt snapshot is not half-loaded.
func applyAssignments(teams []*models.Team, players map[string]*models.Player, rows []models.Assignment) error {
	for _, p := range players {
		p.Picked = false
	}
	byName := make(map[string]*models.Team, len(teams))
	for _, t := range teams {
		t.ClearRoster()
		byName[t.Name] = t
	}

	for _, row := range rows {
		team, ok := byName[row.TeamName]
		if !ok {
			return fmt.Errorf("assignment references unknown team %q", row.TeamName)
		}
		player, ok := players[row.PlayerID]
		if !ok {
			return fmt.Errorf("assignment references unknown player %q", row.PlayerID)
		}
		if player.Picked {
			return fmt.Errorf("assignment lists player %q twice", row.PlayerID)
		}
		team.Restore(player, row.Phase)
	}
	return nil
}

func copyHistory(h []models.HistoryEntry) []models.HistoryEntry {
	out := make([]models.HistoryEntry, len(h))
	copy(out, h)
	return out
}

package models

import "fmt"

// Evaluate decides whether team may acquire p in the given phase. Checks run
// in a fixed order and the first failure supplies the reason.
func Evaluate(team *Team, p *Player, phase Phase) (bool, string) {
	if p.Picked {
		return false, "Player already picked"
	}
	if phase == PhasePreDraft && team.PreDraftCount >= MaxPreDraftPlayers {
		return false, fmt.Sprintf("Pre-draft limit reached (max %d players)", MaxPreDraftPlayers)
	}
	if p.Rating > team.MaxPoints-team.CurrentPoints {
		return false, fmt.Sprintf("Points limit exceeded (Need: %d, Available: %d)",
			p.Rating, team.MaxPoints-team.CurrentPoints)
	}
	if p.Price > team.MaxBudget-team.CurrentBudget {
		return false, fmt.Sprintf("Budget limit exceeded (Need: %s, Available: %s)",
			FormatCurrency(p.Price), FormatCurrency(team.MaxBudget-team.CurrentBudget))
	}
	if p.IsForeign() && team.ForeignPlayers >= MaxForeignPlayers {
		return false, fmt.Sprintf("Foreign player limit reached (max %d)", MaxForeignPlayers)
	}
	if phase == PhasePreDraft && team.HasCategory(p.Category) {
		return false, "Category already taken in pre-draft"
	}
	return true, "OK"
}

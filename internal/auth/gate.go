package auth

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/Billy-Davies-2/psl-draft/internal/logger"
	"github.com/Billy-Davies-2/psl-draft/internal/models"
)

// AccessError reports a failed password or role check.
type AccessError struct {
	Reason string
}

func (e *AccessError) Error() string {
	return e.Reason
}

// TeamPasswords looks up a team's shared secret.
type TeamPasswords interface {
	TeamPassword(name string) (string, bool)
}

// Gate guards draft operations: team-scoped actions need the team password,
// admin actions need an admin session or the admin password.
type Gate struct {
	teams         TeamPasswords
	adminPassword string
}

// NewGate creates a gate. An empty adminPassword leaves admin sessions as the
// only way to pass CheckAdmin.
func NewGate(teams TeamPasswords, adminPassword string) *Gate {
	return &Gate{teams: teams, adminPassword: adminPassword}
}

// CheckTeam verifies password against the named team.
func (g *Gate) CheckTeam(team, password string) error {
	want, ok := g.teams.TeamPassword(team)
	if !ok {
		return models.Validationf("Invalid team: %s", team)
	}
	if !secretEqual(want, password) {
		logger.Warn("Rejected team password", "team", team)
		return &AccessError{Reason: "Incorrect password"}
	}
	return nil
}

// CheckAdmin passes admin sessions attached to ctx and requests carrying the
// admin password.
func (g *Gate) CheckAdmin(ctx context.Context, password string) error {
	if user := UserFromContext(ctx); IsAdmin(user) {
		return nil
	}
	if g.adminPassword != "" && secretEqual(g.adminPassword, password) {
		return nil
	}
	logger.Warn("Rejected admin action", "user", describe(UserFromContext(ctx)))
	return &AccessError{Reason: "Incorrect admin password"}
}

func secretEqual(want, got string) bool {
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

func describe(u *User) string {
	if u == nil {
		return "anonymous"
	}
	return fmt.Sprintf("%s (%s)", u.Username, u.ID)
}

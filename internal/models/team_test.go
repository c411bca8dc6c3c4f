package models

import (
	"errors"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTeam(t *testing.T, maxPoints, maxBudget int) *Team {
	t.Helper()
	team, err := NewTeam("Lahore Qalandars", maxPoints, maxBudget, "lahore123")
	require.NoError(t, err)
	return team
}

func mustPlayer(t *testing.T, id string, rating, price int, country string) *Player {
	t.Helper()
	p, err := NewPlayer(id, "Player "+id, rating, price, country)
	require.NoError(t, err)
	return p
}

type counters struct {
	points, budget, foreign, preDraft, roster int
	categories                                int
}

func snapshot(team *Team) counters {
	return counters{
		points:     team.CurrentPoints,
		budget:     team.CurrentBudget,
		foreign:    team.ForeignPlayers,
		preDraft:   team.PreDraftCount,
		roster:     len(team.Roster),
		categories: len(team.Categories),
	}
}

func TestAcquireUpdatesAccumulators(t *testing.T) {
	team := mustTeam(t, 1000, 5000000)
	p := mustPlayer(t, "P1", 95, 500000, "England")

	team.Acquire(p, PhasePreDraft)

	assert.True(t, p.Picked)
	assert.Equal(t, 95, team.CurrentPoints)
	assert.Equal(t, 500000, team.CurrentBudget)
	assert.Equal(t, 1, team.ForeignPlayers)
	assert.Equal(t, 1, team.PreDraftCount)
	assert.True(t, team.HasCategory(CategoryPlatinum))
	require.Len(t, team.Roster, 1)
	assert.Equal(t, PhasePreDraft, team.Roster[0].Phase)
}

func TestAcquireDraftPhaseSkipsCategoryBookkeeping(t *testing.T) {
	team := mustTeam(t, 1000, 5000000)
	p := mustPlayer(t, "P1", 95, 500000, DomesticCountry)

	team.Acquire(p, PhaseDraft)

	assert.Equal(t, 0, team.PreDraftCount)
	assert.False(t, team.HasCategory(CategoryPlatinum))
	assert.Equal(t, 0, team.ForeignPlayers)
}

func TestAcquireReleaseRoundTrip(t *testing.T) {
	for _, phase := range []Phase{PhasePreDraft, PhaseDraft} {
		for _, country := range []string{DomesticCountry, "Australia"} {
			t.Run(phase.String()+"/"+country, func(t *testing.T) {
				team := mustTeam(t, 1000, 5000000)
				before := snapshot(team)
				p := mustPlayer(t, "P1", 85, 390000, country)

				ok, reason := team.CanAccept(p, phase)
				require.True(t, ok, reason)

				team.Acquire(p, phase)
				require.True(t, team.Release(p))

				assert.Equal(t, before, snapshot(team))
				assert.False(t, p.Picked)
			})
		}
	}
}

func TestReleaseKeepsOtherCategories(t *testing.T) {
	team := mustTeam(t, 1000, 5000000)
	platinum := mustPlayer(t, "P1", 95, 100, DomesticCountry)
	diamond := mustPlayer(t, "P2", 85, 100, DomesticCountry)
	draftPlatinum := mustPlayer(t, "P3", 93, 100, DomesticCountry)

	team.Acquire(platinum, PhasePreDraft)
	team.Acquire(diamond, PhasePreDraft)
	team.Acquire(draftPlatinum, PhaseDraft)

	require.True(t, team.Release(draftPlatinum))
	assert.True(t, team.HasCategory(CategoryPlatinum), "draft-phase release must not free a pre-draft category")
	assert.Equal(t, 2, team.PreDraftCount)

	require.True(t, team.Release(diamond))
	assert.True(t, team.HasCategory(CategoryPlatinum))
	assert.False(t, team.HasCategory(CategoryDiamond))
	assert.Equal(t, 1, team.PreDraftCount)
}

func TestReleaseUnknownPlayer(t *testing.T) {
	team := mustTeam(t, 1000, 5000000)
	p := mustPlayer(t, "P1", 95, 100, DomesticCountry)

	assert.False(t, team.Release(p))
	assert.Equal(t, counters{}, snapshot(team))
}

func TestPreDraftCategoryCapPreventsDuplicates(t *testing.T) {
	team := mustTeam(t, 1000, 5000000)
	first := mustPlayer(t, "P1", 95, 100, DomesticCountry)
	second := mustPlayer(t, "P2", 93, 100, DomesticCountry)

	team.Acquire(first, PhasePreDraft)

	ok, reason := team.CanAccept(second, PhasePreDraft)
	assert.False(t, ok)
	assert.Equal(t, "Category already taken in pre-draft", reason)

	ok, _ = team.CanAccept(second, PhaseDraft)
	assert.True(t, ok, "categories only restrict the pre-draft")
}

func TestUpdateBudget(t *testing.T) {
	team := mustTeam(t, 1000, 5000000)
	team.Acquire(mustPlayer(t, "P1", 95, 500000, DomesticCountry), PhaseDraft)

	require.NoError(t, team.UpdateBudget(500000))
	assert.Equal(t, 500000, team.MaxBudget)

	err := team.UpdateBudget(499999)
	var derr *DomainError
	require.True(t, errors.As(err, &derr))
	assert.Contains(t, derr.Reason, "PKR 500,000")
	assert.Equal(t, 500000, team.MaxBudget)

	var verr *ValidationError
	require.True(t, errors.As(team.UpdateBudget(-1), &verr))
}

func TestRestoreRebuildsAccumulators(t *testing.T) {
	team := mustTeam(t, 1000, 5000000)
	// Stale values from a saved team row.
	team.CurrentPoints = 88
	team.PreDraftCount = 1

	team.ClearRoster()
	assert.Zero(t, team.CurrentPoints)
	assert.Zero(t, team.PreDraftCount)

	p := mustPlayer(t, "P1", 95, 100, "England")
	team.Restore(p, PhasePreDraft)

	assert.True(t, p.Picked)
	assert.True(t, team.Owns("P1"))
	assert.False(t, team.Owns("P2"))
	assert.True(t, team.HasCategory(CategoryPlatinum))
	assert.Equal(t, 95, team.CurrentPoints)
	assert.Equal(t, 100, team.CurrentBudget)
	assert.Equal(t, 1, team.ForeignPlayers)
	assert.Equal(t, 1, team.PreDraftCount)
	assert.Len(t, team.Players(), 1)
}

func TestTeamView(t *testing.T) {
	team := mustTeam(t, 1000, 5000000)
	team.Acquire(mustPlayer(t, "P1", 85, 100, "England"), PhasePreDraft)
	team.Acquire(mustPlayer(t, "P2", 95, 200, DomesticCountry), PhasePreDraft)

	v := team.View(2)

	assert.Equal(t, 2, v.Index)
	assert.Equal(t, 820, v.RemainingPoints)
	assert.Equal(t, 5000000-300, v.RemainingBudget)
	assert.Equal(t, []Category{CategoryPlatinum, CategoryDiamond}, v.Categories)
	require.Len(t, v.Players, 2)
	assert.Equal(t, "P1", v.Players[0].ID)
}

// Random sequences of check-then-acquire never break the caps.
func TestInvariantsHoldUnderRandomAcquisitions(t *testing.T) {
	faker := gofakeit.New(42)

	for run := 0; run < 50; run++ {
		team := mustTeam(t, faker.IntRange(100, 1000), faker.IntRange(100000, 3000000))

		for i := 0; i < 40; i++ {
			country := DomesticCountry
			if faker.Bool() {
				country = faker.Country()
			}
			p, err := NewPlayer(faker.UUID(), faker.Name(), faker.IntRange(0, 100), faker.IntRange(0, 600000), country)
			require.NoError(t, err)

			phase := PhaseDraft
			if faker.Bool() {
				phase = PhasePreDraft
			}
			if ok, _ := team.CanAccept(p, phase); ok {
				team.Acquire(p, phase)
			}

			require.LessOrEqual(t, team.CurrentPoints, team.MaxPoints)
			require.LessOrEqual(t, team.CurrentBudget, team.MaxBudget)
			require.LessOrEqual(t, team.ForeignPlayers, MaxForeignPlayers)
			require.LessOrEqual(t, team.PreDraftCount, MaxPreDraftPlayers)
			require.Equal(t, team.PreDraftCount, len(team.Categories))
		}
	}
}

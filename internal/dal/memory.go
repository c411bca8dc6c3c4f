package dal

import (
	"sync"

	"github.com/Billy-Davies-2/psl-draft/internal/models"
)

// MemoryStore implements Store by keeping value copies in memory. Loads hand
// out fresh objects so the engine never shares pointers with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	players     []models.Player
	teams       []models.Team
	assignments []models.Assignment
	draft       models.DraftSnapshot
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) LoadPlayers() ([]*models.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Player, len(m.players))
	for i := range m.players {
		p := m.players[i]
		out[i] = &p
	}
	return out, nil
}

func (m *MemoryStore) SavePlayers(players []*models.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.players = make([]models.Player, len(players))
	for i, p := range players {
		m.players[i] = *p
	}
	return nil
}

func (m *MemoryStore) LoadTeams() ([]*models.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Team, len(m.teams))
	for i := range m.teams {
		t := m.teams[i]
		t.Categories = make(map[models.Category]struct{})
		t.Roster = nil
		out[i] = &t
	}
	return out, nil
}

func (m *MemoryStore) SaveTeams(teams []*models.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.teams = make([]models.Team, len(teams))
	for i, t := range teams {
		c := *t
		c.Categories = nil
		c.Roster = nil
		m.teams[i] = c
	}
	return nil
}

func (m *MemoryStore) LoadAssignments(teams []*models.Team, players map[string]*models.Player) error {
	m.mu.RLock()
	rows := make([]models.Assignment, len(m.assignments))
	copy(rows, m.assignments)
	m.mu.RUnlock()

	return applyAssignments(teams, players, rows)
}

func (m *MemoryStore) SaveAssignments(teams []*models.Team) error {
	rows := assignmentsOf(teams)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments = rows
	return nil
}

func (m *MemoryStore) LoadDraftState() (*models.DraftSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.draft
	s.History = copyHistory(m.draft.History)
	return &s, nil
}

func (m *MemoryStore) SaveDraftState(state models.DraftSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state.History = copyHistory(state.History)
	m.draft = state
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

package draft

import "github.com/Billy-Davies-2/psl-draft/internal/models"

// BuildOrder returns the snake draft order for the given number of rounds:
// odd rounds go forward (0, 1, 2, ...), even rounds go backward (..., 2, 1, 0).
func BuildOrder(rounds, teamCount int) []models.DraftTurn {
	if rounds <= 0 || teamCount <= 0 {
		return nil
	}

	turns := make([]models.DraftTurn, 0, rounds*teamCount)
	for round := 1; round <= rounds; round++ {
		for pick := 0; pick < teamCount; pick++ {
			teamIndex := pick
			if round%2 == 0 {
				teamIndex = teamCount - 1 - pick
			}
			turns = append(turns, models.DraftTurn{Round: round, TeamIndex: teamIndex})
		}
	}
	return turns
}

// Scheduler is a FIFO of draft turns. An empty scheduler is both the state
// before Build and the terminal state after the last Advance.
type Scheduler struct {
	turns []models.DraftTurn
	head  int
}

// Build replaces the queue with a fresh snake order.
func (s *Scheduler) Build(rounds, teamCount int) {
	s.turns = BuildOrder(rounds, teamCount)
	s.head = 0
}

// Restore rebuilds the queue and drops the first consumed turns.
func (s *Scheduler) Restore(rounds, teamCount, consumed int) {
	s.Build(rounds, teamCount)
	if consumed > len(s.turns) {
		consumed = len(s.turns)
	}
	if consumed > 0 {
		s.head = consumed
	}
}

// Clear empties the queue.
func (s *Scheduler) Clear() {
	s.turns = nil
	s.head = 0
}

// Peek returns the current turn, or false when the queue is empty.
func (s *Scheduler) Peek() (models.DraftTurn, bool) {
	if s.IsEmpty() {
		return models.DraftTurn{}, false
	}
	return s.turns[s.head], true
}

// Advance removes the current turn and returns it.
func (s *Scheduler) Advance() (models.DraftTurn, bool) {
	turn, ok := s.Peek()
	if ok {
		s.head++
	}
	return turn, ok
}

// IsEmpty reports whether no turns remain.
func (s *Scheduler) IsEmpty() bool {
	return s.head >= len(s.turns)
}

// Len is the number of remaining turns.
func (s *Scheduler) Len() int {
	return len(s.turns) - s.head
}

// Consumed is the number of turns already advanced past.
func (s *Scheduler) Consumed() int {
	return s.head
}

// Remaining returns a copy of the turns still queued.
func (s *Scheduler) Remaining() []models.DraftTurn {
	out := make([]models.DraftTurn, s.Len())
	copy(out, s.turns[s.head:])
	return out
}

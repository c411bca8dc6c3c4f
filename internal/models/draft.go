package models

// Phase identifies which allocation phase an acquisition belongs to
type Phase int

const (
	// PhasePreDraft is the unordered phase, capped at three acquisitions per
	// team with at most one per category.
	PhasePreDraft Phase = iota
	// PhaseDraft is the ordered, round-based phase.
	PhaseDraft
)

func (p Phase) String() string {
	if p == PhasePreDraft {
		return "pre"
	}
	return "draft"
}

// DraftStatus is the lifecycle state of the draft
type DraftStatus int

const (
	DraftNotStarted DraftStatus = iota
	DraftInProgress
	DraftFinished
)

func (s DraftStatus) String() string {
	switch s {
	case DraftNotStarted:
		return "not_started"
	case DraftInProgress:
		return "in_progress"
	case DraftFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// MarshalText lets the status appear as a string in JSON payloads.
func (s DraftStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DraftTurn is one slot of the draft order.
type DraftTurn struct {
	Round     int `json:"round"`
	TeamIndex int `json:"teamIndex"`
}

// HistoryEntry records one successful acquisition. Round 0 marks a
// pre-draft purchase; positive rounds are draft picks.
type HistoryEntry struct {
	TeamIndex int    `json:"teamIndex"`
	PlayerID  string `json:"playerId"`
	Round     int    `json:"round"`
}

// Phase returns the phase the entry was recorded in.
func (h HistoryEntry) Phase() Phase {
	if h.Round == 0 {
		return PhasePreDraft
	}
	return PhaseDraft
}

// DraftSnapshot is the persisted form of the draft progress.
type DraftSnapshot struct {
	Started bool
	Rounds  int
	// Consumed is the number of turns already taken or skipped.
	Consumed int
	History  []HistoryEntry
}

// Assignment ties a player to the team that owns it, as persisted.
type Assignment struct {
	TeamName string
	PlayerID string
	Category Category
	Phase    Phase
}

package protocol

import "github.com/brazzo/sandstrike-mp/shared/gamemath"

// PlayerState identifies a player's behavioral state for animation and logic.
type PlayerState string

const (
	StateIdle    PlayerState = "idle"
	StateWalking PlayerState = "walking"
	StateJumping PlayerState = "jumping"
	StateHit     PlayerState = "hit"
	StateDeath   PlayerState = "death"
)

// Valid reports whether s is one of the defined states.
func (s PlayerState) Valid() bool {
	switch s {
	case StateIdle, StateWalking, StateJumping, StateHit, StateDeath:
		return true
	}
	return false
}

// PlayerSnapshot is the replicated view of one player. The room is the only
// writer of Health and Score; everything client-side is a read-only cache.
type PlayerSnapshot struct {
	SessionID      string
	Name           string
	CharacterModel string
	ClientID       string // disambiguates multiple tabs, not a security field
	Position       gamemath.Vec3
	RotationY      float64
	Health         int
	Score          int
	EquippedItem   string // empty means nothing equipped
	State          PlayerState
}

// LeaderboardEntry is a read-only projection of one player's score.
type LeaderboardEntry struct {
	ID    string
	Name  string
	Score int
}

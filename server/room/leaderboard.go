package room

import (
	"sort"

	"github.com/brazzo/sandstrike-mp/shared/protocol"
)

// leaderboard projects the player map into entries sorted by descending
// score, ties broken by name for a stable display order.
func (r *Room) leaderboard() []protocol.LeaderboardEntry {
	entries := make([]protocol.LeaderboardEntry, 0, len(r.players))
	for id, p := range r.players {
		entries = append(entries, protocol.LeaderboardEntry{
			ID:    id,
			Name:  p.Name,
			Score: p.Score,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

package entities

import "time"

// PendingMatch is a shuffled match whose result has not been recorded yet
type PendingMatch struct {
	ID           int64       `db:"id"`
	GuildID      int64       `db:"guild_id"`
	RadiantIDs   []int64     `db:"radiant_ids"`
	DireIDs      []int64     `db:"dire_ids"`
	BettingMode  BettingMode `db:"betting_mode"`
	IsBombPot    bool        `db:"is_bomb_pot"`
	ShuffledAt   time.Time   `db:"shuffled_at"`
	BetLockUntil time.Time   `db:"bet_lock_until"`
	CreatedAt    time.Time   `db:"created_at"`
}

// TeamOf returns the side a participant plays on
func (m *PendingMatch) TeamOf(discordID int64) (Team, bool) {
	for _, id := range m.RadiantIDs {
		if id == discordID {
			return TeamRadiant, true
		}
	}
	for _, id := range m.DireIDs {
		if id == discordID {
			return TeamDire, true
		}
	}
	return "", false
}

// IsParticipant reports whether the player is on either roster
func (m *PendingMatch) IsParticipant(discordID int64) bool {
	_, ok := m.TeamOf(discordID)
	return ok
}

// IsOpen reports whether betting is still accepted at now
func (m *PendingMatch) IsOpen(now time.Time) bool {
	return now.Before(m.BetLockUntil)
}

// Roster returns the participants on the given side
func (m *PendingMatch) Roster(team Team) []int64 {
	if team == TeamRadiant {
		return m.RadiantIDs
	}
	return m.DireIDs
}

// Window returns the bet window keyed by this pending match
func (m *PendingMatch) Window() BetWindow {
	return WindowForPendingMatch(m.ID)
}

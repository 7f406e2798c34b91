package entities

import "time"

// Player is a registered member's jopacoin account within one guild
type Player struct {
	GuildID   int64     `db:"guild_id"`
	DiscordID int64     `db:"discord_id"`
	Username  string    `db:"username"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// InDebt reports whether the balance is negative
func (p *Player) InDebt() bool {
	return p.Balance < 0
}

// BalanceDelta is a signed change to one player's balance
type BalanceDelta struct {
	DiscordID int64
	Amount    int64
}

// BalanceChange is the result of applying a BalanceDelta
type BalanceChange struct {
	DiscordID     int64
	BalanceBefore int64
	BalanceAfter  int64
}

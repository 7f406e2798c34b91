package entities

// PlaceBetRequest places a wager into an explicit window. It is used by
// callers that already know the match context, such as blind and bomb pot
// contributions.
type PlaceBetRequest struct {
	DiscordID     int64
	Team          Team
	Amount        int64
	Leverage      int64
	MaxDebt       *int64 // nil uses the guild setting
	AllowNegative bool
	IsBlind       bool
	Window        BetWindow
}

// ActiveBetRequest places an audience wager on the guild's active pending match.
// PendingMatchID selects the match when several are open.
type ActiveBetRequest struct {
	DiscordID      int64
	Team           Team
	Amount         int64
	Leverage       int64
	PendingMatchID *int64
}

// SettleRequest settles every unsettled wager in a window
type SettleRequest struct {
	MatchID         int64
	Window          BetWindow
	WinningTeam     Team
	Mode            *BettingMode // nil uses the pending match or guild mode
	HouseMultiplier *float64     // nil uses the guild setting
}

// CorrectRequest flips the recorded winner of an already settled match
type CorrectRequest struct {
	MatchID        int64
	OldWinningTeam Team
	NewWinningTeam Team
	Mode           *BettingMode // nil uses the mode recorded at settlement
	CorrectedBy    *int64
}

// OpenPendingMatchRequest opens betting on a shuffled match
type OpenPendingMatchRequest struct {
	RadiantIDs  []int64
	DireIDs     []int64
	BettingMode *BettingMode
	IsBombPot   bool
}

// BlindBet is one auto-placed liquidity wager
type BlindBet struct {
	DiscordID     int64
	Team          Team
	Amount        int64
	AllowNegative bool
}

// BlindBetSkip records why a rostered player did not get a blind
type BlindBetSkip struct {
	DiscordID int64
	Reason    string
}

// BlindBetResult reports what CreateBlindBets placed and skipped
type BlindBetResult struct {
	PendingMatchID int64
	Placed         []*Wager
	Skipped        []BlindBetSkip
	TotalRadiant   int64
	TotalDire      int64
}

package entities

// Team is one of the two sides of an inhouse match
type Team string

const (
	TeamRadiant Team = "radiant"
	TeamDire    Team = "dire"
)

// Teams lists both sides in display order
var Teams = []Team{TeamRadiant, TeamDire}

// IsValid reports whether t names one of the two sides
func (t Team) IsValid() bool {
	return t == TeamRadiant || t == TeamDire
}

// Opposite returns the other side. Invalid teams return themselves.
func (t Team) Opposite() Team {
	switch t {
	case TeamRadiant:
		return TeamDire
	case TeamDire:
		return TeamRadiant
	default:
		return t
	}
}

func (t Team) String() string {
	return string(t)
}

// BettingMode selects how a match's wagers are paid out
type BettingMode string

const (
	// BettingModePool splits the whole pot among the winning side in proportion to stake
	BettingModePool BettingMode = "pool"
	// BettingModeHouse pays each winner a fixed multiple of their stake
	BettingModeHouse BettingMode = "house"
)

// IsValid reports whether m is a known betting mode
func (m BettingMode) IsValid() bool {
	return m == BettingModePool || m == BettingModeHouse
}

func (m BettingMode) String() string {
	return string(m)
}

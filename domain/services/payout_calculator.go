package services

import (
	"math"
	"math/bits"
	"sort"

	"jopacoin/domain/common"
	"jopacoin/domain/entities"
	"jopacoin/domain/interfaces"
)

// NewPayoutCalculator selects the calculator for a betting mode
func NewPayoutCalculator(mode entities.BettingMode, houseMultiplier float64) (interfaces.PayoutCalculator, error) {
	switch mode {
	case entities.BettingModeHouse:
		if err := ValidateHouseMultiplier(houseMultiplier); err != nil {
			return nil, err
		}
		return &HouseCalculator{Multiplier: houseMultiplier}, nil
	case entities.BettingModePool:
		return &PoolCalculator{}, nil
	default:
		return nil, common.Reject(common.ReasonInvalidBettingMode, "unknown betting mode %q", mode)
	}
}

// ValidateHouseMultiplier rejects multipliers that are not finite or lie
// outside [0, entities.MaxHouseMultiplier]
func ValidateHouseMultiplier(multiplier float64) error {
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return common.Reject(common.ReasonInvalidHouseMultiplier, "house multiplier must be a finite number, got %v", multiplier)
	}
	if multiplier < 0 || multiplier > entities.MaxHouseMultiplier {
		return common.Reject(common.ReasonInvalidHouseMultiplier, "house multiplier must be between 0 and %v, got %v", entities.MaxHouseMultiplier, multiplier)
	}
	return nil
}

// HouseCalculator pays each winner a fixed multiple of their effective stake.
// Losers get nothing back; their stake was debited at placement.
type HouseCalculator struct {
	Multiplier float64
}

func (c *HouseCalculator) Mode() entities.BettingMode {
	return entities.BettingModeHouse
}

// Calculate pays stake + floor(stake * multiplier) per winning wager
func (c *HouseCalculator) Calculate(wagers []*entities.Wager, winningTeam entities.Team) *entities.PayoutPlan {
	mult := 1 + c.Multiplier
	plan := &entities.PayoutPlan{
		Payouts:       make([]entities.WagerPayout, 0, len(wagers)),
		BalanceDeltas: make(map[int64]int64),
		Multiplier:    &mult,
	}

	for _, w := range wagers {
		if w.Team != winningTeam {
			plan.Payouts = append(plan.Payouts, entities.WagerPayout{WagerID: w.ID, Payout: 0, Outcome: entities.WagerOutcomeLost})
			continue
		}
		payout := HousePayout(w.EffectiveStake(), c.Multiplier)
		plan.Payouts = append(plan.Payouts, entities.WagerPayout{WagerID: w.ID, Payout: payout, Outcome: entities.WagerOutcomeWon})
		plan.BalanceDeltas[w.DiscordID] += payout
	}

	return plan
}

// HousePayout is the amount credited for one winning house wager. It
// saturates at math.MaxInt64; the multiplier must already be validated.
func HousePayout(effectiveStake int64, multiplier float64) int64 {
	winnings := math.Floor(float64(effectiveStake) * multiplier)
	if winnings >= float64(math.MaxInt64-effectiveStake) {
		return math.MaxInt64
	}
	return effectiveStake + int64(winnings)
}

// PoolCalculator splits the whole pot among the winning side in proportion to stake.
//
// Each winning player's share is rounded up once over all of their winning
// wagers, never per row, then spread back over the rows by floor with the
// remainder on the last row.
type PoolCalculator struct{}

func (c *PoolCalculator) Mode() entities.BettingMode {
	return entities.BettingModePool
}

// Calculate computes pool payouts. With nobody on the winning side every
// wager is refunded its effective stake.
func (c *PoolCalculator) Calculate(wagers []*entities.Wager, winningTeam entities.Team) *entities.PayoutPlan {
	plan := &entities.PayoutPlan{
		Payouts:       make([]entities.WagerPayout, 0, len(wagers)),
		BalanceDeltas: make(map[int64]int64),
	}

	var total, winnerPool int64
	for _, w := range wagers {
		eff := w.EffectiveStake()
		total += eff
		if w.Team == winningTeam {
			winnerPool += eff
		}
	}

	if winnerPool == 0 {
		plan.Refunded = true
		for _, w := range wagers {
			eff := w.EffectiveStake()
			plan.Payouts = append(plan.Payouts, entities.WagerPayout{WagerID: w.ID, Payout: eff, Outcome: entities.WagerOutcomeRefunded})
			plan.BalanceDeltas[w.DiscordID] += eff
		}
		return plan
	}

	mult := float64(total) / float64(winnerPool)
	plan.Multiplier = &mult

	// Group winning rows per player, ordered by wager id so the remainder
	// always lands on the same row.
	rows := make(map[int64][]*entities.Wager)
	for _, w := range wagers {
		if w.Team == winningTeam {
			rows[w.DiscordID] = append(rows[w.DiscordID], w)
		}
	}

	payouts := make(map[int64]int64, len(wagers))
	for discordID, playerRows := range rows {
		sort.Slice(playerRows, func(i, j int) bool { return playerRows[i].ID < playerRows[j].ID })

		var stake int64
		for _, w := range playerRows {
			stake += w.EffectiveStake()
		}

		share := mulDivCeil(stake, total, winnerPool)
		for id, amount := range allocate(share, playerRows) {
			payouts[id] = amount
		}
		plan.BalanceDeltas[discordID] += share
	}

	for _, w := range wagers {
		if w.Team == winningTeam {
			plan.Payouts = append(plan.Payouts, entities.WagerPayout{WagerID: w.ID, Payout: payouts[w.ID], Outcome: entities.WagerOutcomeWon})
		} else {
			plan.Payouts = append(plan.Payouts, entities.WagerPayout{WagerID: w.ID, Payout: 0, Outcome: entities.WagerOutcomeLost})
		}
	}

	return plan
}

// PoolShare is what one player receives for stake out of a settled pot
func PoolShare(stake, total, winnerPool int64) int64 {
	if winnerPool <= 0 {
		return stake
	}
	return mulDivCeil(stake, total, winnerPool)
}

// allocate spreads amount over rows in proportion to effective stake.
// Every row but the last gets floor(amount * e_i / E); the last gets the rest.
// rows must be non-empty and already ordered.
func allocate(amount int64, rows []*entities.Wager) map[int64]int64 {
	out := make(map[int64]int64, len(rows))

	var stake int64
	for _, w := range rows {
		stake += w.EffectiveStake()
	}

	var assigned int64
	for i, w := range rows {
		if i == len(rows)-1 {
			out[w.ID] = amount - assigned
			break
		}
		part := mulDivFloor(amount, w.EffectiveStake(), stake)
		out[w.ID] = part
		assigned += part
	}
	return out
}

// mulDivFloor returns floor(a*b/c) for non-negative a, b and positive c,
// without overflowing the intermediate product. The quotient must fit in 64 bits.
func mulDivFloor(a, b, c int64) int64 {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	q, _ := bits.Div64(hi, lo, uint64(c))
	return int64(q)
}

// mulDivCeil returns ceil(a*b/c) under the same conditions as mulDivFloor
func mulDivCeil(a, b, c int64) int64 {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	q, r := bits.Div64(hi, lo, uint64(c))
	if r != 0 {
		q++
	}
	return int64(q)
}

package services

import (
	"fmt"
	"math"

	"jopacoin/config"
	"jopacoin/domain/entities"
)

// BlindBetParams controls auto-liquidity blinds
type BlindBetParams struct {
	Enabled        bool
	Threshold      int64
	Percentage     float64
	BombPercentage float64
	BombAnte       int64
}

// BlindBetParamsFromConfig reads blind settings from the global config
func BlindBetParamsFromConfig() BlindBetParams {
	cfg := config.Get()
	return BlindBetParams{
		Enabled:        cfg.AutoBlindEnabled,
		Threshold:      cfg.AutoBlindThreshold,
		Percentage:     cfg.AutoBlindPercentage,
		BombPercentage: cfg.BombPotBlindPercentage,
		BombAnte:       cfg.BombPotAnte,
	}
}

// PlanBlindBets decides the blind each rostered player contributes.
//
// Normal matches skip players under the threshold and blind a rounded
// percentage of balance. Bomb pots are mandatory: a percentage of any positive
// balance plus the ante, allowed to push the player into debt.
func PlanBlindBets(match *entities.PendingMatch, balances map[int64]int64, params BlindBetParams) ([]entities.BlindBet, []entities.BlindBetSkip) {
	var bets []entities.BlindBet
	var skipped []entities.BlindBetSkip

	if !params.Enabled {
		return bets, skipped
	}

	for _, team := range entities.Teams {
		for _, discordID := range match.Roster(team) {
			balance, ok := balances[discordID]
			if !ok {
				skipped = append(skipped, entities.BlindBetSkip{DiscordID: discordID, Reason: "player is not registered"})
				continue
			}

			if match.IsBombPot {
				amount := params.BombAnte
				if balance > 0 {
					amount += roundHalfEven(float64(balance) * params.BombPercentage)
				}
				if amount < 1 {
					skipped = append(skipped, entities.BlindBetSkip{DiscordID: discordID, Reason: fmt.Sprintf("blind amount %d < 1", amount)})
					continue
				}
				bets = append(bets, entities.BlindBet{DiscordID: discordID, Team: team, Amount: amount, AllowNegative: true})
				continue
			}

			if balance < params.Threshold {
				skipped = append(skipped, entities.BlindBetSkip{DiscordID: discordID, Reason: fmt.Sprintf("balance %d < threshold %d", balance, params.Threshold)})
				continue
			}
			amount := roundHalfEven(float64(balance) * params.Percentage)
			if amount < 1 {
				skipped = append(skipped, entities.BlindBetSkip{DiscordID: discordID, Reason: fmt.Sprintf("blind amount %d < 1", amount)})
				continue
			}
			bets = append(bets, entities.BlindBet{DiscordID: discordID, Team: team, Amount: amount})
		}
	}

	return bets, skipped
}

func roundHalfEven(v float64) int64 {
	return int64(math.RoundToEven(v))
}

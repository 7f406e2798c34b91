package entities

// TransactionType represents the type of balance change
type TransactionType string

const (
	// Wagering transactions
	TransactionTypeWagerPlaced TransactionType = "wager_placed"
	TransactionTypeBlindBet    TransactionType = "blind_bet"
	TransactionTypeWagerPayout TransactionType = "wager_payout"
	TransactionTypeWagerRefund TransactionType = "wager_refund"

	// Correction transactions
	TransactionTypeCorrectionClawback TransactionType = "correction_clawback"
	TransactionTypeCorrectionPayout   TransactionType = "correction_payout"
	TransactionTypeCorrectionNet      TransactionType = "correction_net"

	// System transactions
	TransactionTypeInitial TransactionType = "initial"
)

// IsWagerType returns true for debits and credits caused by wagering
func (tt TransactionType) IsWagerType() bool {
	switch tt {
	case TransactionTypeWagerPlaced, TransactionTypeBlindBet, TransactionTypeWagerPayout, TransactionTypeWagerRefund:
		return true
	}
	return false
}

// IsCorrectionType returns true for adjustments written by a result correction
func (tt TransactionType) IsCorrectionType() bool {
	switch tt {
	case TransactionTypeCorrectionClawback, TransactionTypeCorrectionPayout, TransactionTypeCorrectionNet:
		return true
	}
	return false
}

// String returns the string representation of the transaction type
func (tt TransactionType) String() string {
	return string(tt)
}

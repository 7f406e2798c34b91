package common

import (
	"errors"
	"fmt"
)

// Reason identifies why an operation was rejected
type Reason string

const (
	ReasonInvalidAmount           Reason = "invalid_amount"
	ReasonInvalidTeam             Reason = "invalid_team"
	ReasonInvalidLeverage         Reason = "invalid_leverage"
	ReasonTeamConflict            Reason = "team_conflict"
	ReasonInDebt                  Reason = "in_debt"
	ReasonInsufficientBalance     Reason = "insufficient_balance"
	ReasonDebtLimitExceeded       Reason = "debt_limit_exceeded"
	ReasonNoPendingMatch          Reason = "no_pending_match"
	ReasonBettingClosed           Reason = "betting_closed"
	ReasonWrongTeamForParticipant Reason = "wrong_team_for_participant"
	ReasonAmbiguousMatch          Reason = "ambiguous_match"
	ReasonPlayerNotFound          Reason = "player_not_found"
	ReasonInvalidRoster           Reason = "invalid_roster"
	ReasonStaleCorrection         Reason = "stale_correction"
	ReasonSettlementConflict      Reason = "settlement_conflict"
	ReasonInvalidBettingMode      Reason = "invalid_betting_mode"
	ReasonInvalidHouseMultiplier  Reason = "invalid_house_multiplier"
)

// RejectionError is a business rejection. The ledger is left unchanged and
// the message is suitable for showing to the player.
type RejectionError struct {
	Reason    Reason
	Message   string
	Shortfall int64
}

func (e *RejectionError) Error() string {
	if e.Message == "" {
		return string(e.Reason)
	}
	return e.Message
}

// Is matches any rejection with the same reason, so callers can compare
// against the sentinels below regardless of message or shortfall.
func (e *RejectionError) Is(target error) bool {
	var t *RejectionError
	if !errors.As(target, &t) {
		return false
	}
	return t.Reason == e.Reason
}

// Sentinels for errors.Is
var (
	ErrInvalidAmount           = &RejectionError{Reason: ReasonInvalidAmount}
	ErrInvalidTeam             = &RejectionError{Reason: ReasonInvalidTeam}
	ErrInvalidLeverage         = &RejectionError{Reason: ReasonInvalidLeverage}
	ErrTeamConflict            = &RejectionError{Reason: ReasonTeamConflict}
	ErrInDebt                  = &RejectionError{Reason: ReasonInDebt}
	ErrInsufficientBalance     = &RejectionError{Reason: ReasonInsufficientBalance}
	ErrDebtLimitExceeded       = &RejectionError{Reason: ReasonDebtLimitExceeded}
	ErrNoPendingMatch          = &RejectionError{Reason: ReasonNoPendingMatch}
	ErrBettingClosed           = &RejectionError{Reason: ReasonBettingClosed}
	ErrWrongTeamForParticipant = &RejectionError{Reason: ReasonWrongTeamForParticipant}
	ErrAmbiguousMatch          = &RejectionError{Reason: ReasonAmbiguousMatch}
	ErrPlayerNotFound          = &RejectionError{Reason: ReasonPlayerNotFound}
	ErrInvalidRoster           = &RejectionError{Reason: ReasonInvalidRoster}
	ErrStaleCorrection         = &RejectionError{Reason: ReasonStaleCorrection}
	ErrSettlementConflict      = &RejectionError{Reason: ReasonSettlementConflict}
	ErrInvalidBettingMode      = &RejectionError{Reason: ReasonInvalidBettingMode}
	ErrInvalidHouseMultiplier  = &RejectionError{Reason: ReasonInvalidHouseMultiplier}
)

// Reject builds a rejection with a formatted message
func Reject(reason Reason, format string, args ...any) *RejectionError {
	return &RejectionError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// RejectWithShortfall builds a balance rejection carrying how many coins were missing
func RejectWithShortfall(reason Reason, shortfall int64, format string, args ...any) *RejectionError {
	return &RejectionError{Reason: reason, Message: fmt.Sprintf(format, args...), Shortfall: shortfall}
}

// IsRejection reports whether err is, or wraps, a business rejection
func IsRejection(err error) bool {
	var r *RejectionError
	return errors.As(err, &r)
}

// AsRejection extracts the rejection from err
func AsRejection(err error) (*RejectionError, bool) {
	var r *RejectionError
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// FaultError is a storage or infrastructure failure. The operation was rolled
// back in full and may be retried.
type FaultError struct {
	Op  string
	Err error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FaultError) Unwrap() error {
	return e.Err
}

// NewFault wraps err as a fault unless it is nil, already a fault, or a rejection
func NewFault(op string, err error) error {
	if err == nil || IsRejection(err) || IsFault(err) {
		return err
	}
	return &FaultError{Op: op, Err: err}
}

// IsFault reports whether err is, or wraps, a fault
func IsFault(err error) bool {
	var f *FaultError
	return errors.As(err, &f)
}

package application

import (
	"context"
	"encoding/json"
	"fmt"

	"jopacoin/application/dto"
	"jopacoin/domain/common"

	log "github.com/sirupsen/logrus"
)

// matchResultHandler turns match recorder commands into ledger operations.
//
// A business rejection is logged and swallowed so the message is acked:
// redelivering it would be rejected again. Faults and undecodable payloads
// are returned so the consumer can NAK them.
type matchResultHandler struct {
	ledger Ledger
}

// NewMatchResultHandler creates a handler for inhouse.match.* commands
func NewMatchResultHandler(ledger Ledger) MatchResultHandler {
	return &matchResultHandler{ledger: ledger}
}

// HandleMatchRecorded settles the match's bet window
func (h *matchResultHandler) HandleMatchRecorded(ctx context.Context, data []byte) error {
	var msg dto.MatchRecordedDTO
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal match recorded: %w", err)
	}

	req, err := msg.ToSettleRequest()
	if err != nil {
		log.WithError(err).WithField("match_id", msg.MatchID).Warn("Dropping match recorded without a bet window")
		return nil
	}

	_, err = h.ledger.Settle(ctx, msg.GuildID, req)
	return h.acknowledge(err, "settle", log.Fields{
		"guild_id": msg.GuildID,
		"match_id": msg.MatchID,
	})
}

// HandleMatchCorrected flips a settled result
func (h *matchResultHandler) HandleMatchCorrected(ctx context.Context, data []byte) error {
	var msg dto.MatchCorrectedDTO
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal match corrected: %w", err)
	}

	_, err := h.ledger.Correct(ctx, msg.GuildID, msg.ToCorrectRequest())
	return h.acknowledge(err, "correct", log.Fields{
		"guild_id":   msg.GuildID,
		"match_id":   msg.MatchID,
		"new_winner": msg.NewWinningTeam,
	})
}

// HandleMatchAborted refunds the wagers of a match that will not be played
func (h *matchResultHandler) HandleMatchAborted(ctx context.Context, data []byte) error {
	var msg dto.MatchAbortedDTO
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal match aborted: %w", err)
	}

	window, err := msg.ToWindow()
	if err != nil {
		log.WithError(err).WithField("guild_id", msg.GuildID).Warn("Dropping match aborted without a bet window")
		return nil
	}

	_, err = h.ledger.RefundPendingWagers(ctx, msg.GuildID, window)
	return h.acknowledge(err, "refund", log.Fields{
		"guild_id":         msg.GuildID,
		"pending_match_id": msg.PendingMatchID,
	})
}

func (h *matchResultHandler) acknowledge(err error, op string, fields log.Fields) error {
	if err == nil {
		return nil
	}
	if r, ok := common.AsRejection(err); ok {
		log.WithFields(fields).WithField("reason", r.Reason).Warnf("Match command %s rejected: %s", op, r.Error())
		return nil
	}
	return err
}

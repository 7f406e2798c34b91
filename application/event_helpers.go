package application

import (
	"jopacoin/domain/events"
	"jopacoin/domain/interfaces"
	"jopacoin/infrastructure/observability"
)

// eventTap forwards events to the unit of work's bus and keeps a copy so
// metrics can be recorded once the transaction has committed
type eventTap struct {
	next   interfaces.EventPublisher
	events []events.Event
}

func newEventTap(next interfaces.EventPublisher) *eventTap {
	return &eventTap{next: next}
}

func (t *eventTap) Publish(event events.Event) error {
	t.events = append(t.events, event)
	return t.next.Publish(event)
}

// recordCommitted turns committed domain events into metric observations
func (t *eventTap) recordCommitted() {
	metrics := observability.GetMetrics()
	for _, event := range t.events {
		switch e := event.(type) {
		case events.WagerPlacedEvent:
			mode := string(e.BettingMode)
			if mode == "" {
				mode = "unspecified"
			}
			metrics.RecordWagerPlaced(mode, e.IsBlind)
		case events.MatchSettledEvent:
			metrics.RecordSettlement(string(e.BettingMode), e.Refunded, e.TotalPaid)
		case events.WagersRefundedEvent:
			metrics.RecordRefund(e.WagerCount)
		}
	}
}

package infrastructure

import (
	"fmt"

	"jopacoin/domain/events"
)

// DomainEventStream is the JetStream stream holding published domain events
const DomainEventStream = "jopacoin_events"

var eventSubjects = map[events.EventType]string{
	events.EventTypeWagerPlaced:        "jopacoin.wager.placed",
	events.EventTypeBalanceChange:      "jopacoin.balance.changed",
	events.EventTypePendingMatchOpened: "jopacoin.pending_match.opened",
	events.EventTypeMatchSettled:       "jopacoin.match.settled",
	events.EventTypeMatchCorrected:     "jopacoin.match.corrected",
	events.EventTypeWagersRefunded:     "jopacoin.wagers.refunded",
	events.EventTypePlayerRegistered:   "jopacoin.player.registered",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := eventSubjects[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("jopacoin.unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range eventSubjects {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{"jopacoin.>"}
}

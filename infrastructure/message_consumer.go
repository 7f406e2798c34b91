package infrastructure

import (
	"context"
	"fmt"
	"sync"

	"jopacoin/application"
	"jopacoin/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// Match recorder command subjects
const (
	MatchCommandStream     = "inhouse_matches"
	SubjectMatchRecorded   = "inhouse.match.recorded"
	SubjectMatchCorrected  = "inhouse.match.corrected"
	SubjectMatchAborted    = "inhouse.match.aborted"
	matchCommandSubjectAll = "inhouse.match.>"
)

// MessageHandler defines a function that handles raw message bytes
type MessageHandler func(ctx context.Context, data []byte) error

// Subscriber registers a handler for a subject. NATSClient implements it.
type Subscriber interface {
	Subscribe(subject string, handler func([]byte) error) error
}

// MessageConsumer manages subscriptions and routes messages to handlers
type MessageConsumer struct {
	subscriber Subscriber
	handlers   map[string]MessageHandler
	mu         sync.RWMutex

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// NewMessageConsumer creates a consumer routing match recorder commands to handler
func NewMessageConsumer(subscriber Subscriber, handler application.MatchResultHandler) *MessageConsumer {
	ctx, cancel := context.WithCancel(context.Background())

	mc := &MessageConsumer{
		subscriber: subscriber,
		handlers:   make(map[string]MessageHandler),
		ctx:        ctx,
		cancel:     cancel,
	}

	mc.RegisterHandler(SubjectMatchRecorded, handler.HandleMatchRecorded)
	mc.RegisterHandler(SubjectMatchCorrected, handler.HandleMatchCorrected)
	mc.RegisterHandler(SubjectMatchAborted, handler.HandleMatchAborted)

	return mc
}

// RegisterHandler registers a handler for a specific subject
func (mc *MessageConsumer) RegisterHandler(subject string, handler MessageHandler) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.handlers[subject] = handler
	log.WithField("subject", subject).Info("Registered message handler")
}

// Start subscribes to every registered subject
func (mc *MessageConsumer) Start() error {
	mc.mu.RLock()
	subjects := make([]string, 0, len(mc.handlers))
	for subject := range mc.handlers {
		subjects = append(subjects, subject)
	}
	mc.mu.RUnlock()

	for _, subject := range subjects {
		subject := subject
		err := mc.subscriber.Subscribe(subject, func(data []byte) error {
			return mc.Dispatch(subject, data)
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
	}

	log.WithField("subjects", subjects).Info("Message consumer started")
	return nil
}

// Dispatch hands one message to the handler registered for subject
func (mc *MessageConsumer) Dispatch(subject string, data []byte) error {
	mc.mu.RLock()
	handler, exists := mc.handlers[subject]
	mc.mu.RUnlock()

	if !exists {
		return fmt.Errorf("no handler registered for subject: %s", subject)
	}

	observability.GetMetrics().RecordNATSMessageReceived(subject)

	if err := handler(mc.ctx, data); err != nil {
		log.WithFields(log.Fields{
			"subject": subject,
			"error":   err,
		}).Error("Failed to handle message")
		return err
	}

	return nil
}

// Stop cancels in-flight handlers
func (mc *MessageConsumer) Stop() {
	log.Info("Stopping message consumer")
	mc.cancel()
}

// EnsureMatchCommandStream ensures the stream carrying match recorder commands exists
func EnsureMatchCommandStream(client *NATSClient) error {
	return client.EnsureStream(MatchCommandStream, []string{matchCommandSubjectAll}, "in-house match results")
}

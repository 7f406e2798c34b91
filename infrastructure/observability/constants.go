package observability

// Metric name prefixes
const (
	MetricPrefix = "jopacoin"
)

// Metric names
const (
	// Wager metrics
	WagersPlacedTotal    = MetricPrefix + "_wagers_placed_total"
	WagerRejectionsTotal = MetricPrefix + "_wager_rejections_total"
	SettlementsTotal     = MetricPrefix + "_settlements_total"
	PayoutVolumeTotal    = MetricPrefix + "_payout_volume_total"
	CorrectionsTotal     = MetricPrefix + "_corrections_total"
	RefundedWagersTotal  = MetricPrefix + "_refunded_wagers_total"

	// NATS metrics
	NATSMessagesReceivedTotal  = MetricPrefix + "_nats_messages_received_total"
	NATSMessagesPublishedTotal = MetricPrefix + "_nats_messages_published_total"

	// Database metrics
	DatabaseQueriesTotal  = MetricPrefix + "_db_queries_total"
	DatabaseQueryDuration = MetricPrefix + "_db_query_duration_seconds"
)

// Label keys
const (
	LabelMode      = "mode"
	LabelBlind     = "blind"
	LabelReason    = "reason"
	LabelRefunded  = "refunded"
	LabelEventType = "event_type"
	LabelSubject   = "subject"
	LabelOperation = "operation"
	LabelOutcome   = "outcome"
)

// Operation outcomes
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeFault     = "fault"
)

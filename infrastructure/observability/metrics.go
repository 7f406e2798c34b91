package observability

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"jopacoin/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the ledger
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	wagersPlacedCounter          metric.Int64Counter
	wagerRejectionsCounter       metric.Int64Counter
	settlementsCounter           metric.Int64Counter
	payoutVolumeCounter          metric.Int64Counter
	correctionsCounter           metric.Int64Counter
	refundedWagersCounter        metric.Int64Counter
	natsMessagesReceivedCounter  metric.Int64Counter
	natsMessagesPublishedCounter metric.Int64Counter
	databaseQueriesCounter       metric.Int64Counter
	databaseQueryDurationHist    metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry meter provider and instruments
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("jopacoin")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

// NewMetricsProviderWithMeter builds an initialized provider over an existing
// meter, e.g. one backed by a manual reader in tests
func NewMetricsProviderWithMeter(cfg *config.Config, meter metric.Meter) (*MetricsProvider, error) {
	mp := &MetricsProvider{config: cfg, meter: meter}
	if err := mp.createInstruments(); err != nil {
		return nil, err
	}
	mp.initialized = true
	return mp, nil
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&mp.wagersPlacedCounter, WagersPlacedTotal, "Wagers placed"},
		{&mp.wagerRejectionsCounter, WagerRejectionsTotal, "Wager operations rejected, by reason"},
		{&mp.settlementsCounter, SettlementsTotal, "Settlement passes committed"},
		{&mp.payoutVolumeCounter, PayoutVolumeTotal, "Jopacoin credited by settlements"},
		{&mp.correctionsCounter, CorrectionsTotal, "Match result corrections committed"},
		{&mp.refundedWagersCounter, RefundedWagersTotal, "Pending wagers refunded"},
		{&mp.natsMessagesReceivedCounter, NATSMessagesReceivedTotal, "NATS messages received"},
		{&mp.natsMessagesPublishedCounter, NATSMessagesPublishedTotal, "NATS messages published"},
		{&mp.databaseQueriesCounter, DatabaseQueriesTotal, "Database transactions run"},
	}
	for _, c := range counters {
		*c.dst, err = mp.meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("1"))
		if err != nil {
			return fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
	}

	mp.databaseQueryDurationHist, err = mp.meter.Float64Histogram(
		DatabaseQueryDuration,
		metric.WithDescription("Duration of database transactions in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create database query duration histogram: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordWagerPlaced counts a committed wager
func (mp *MetricsProvider) RecordWagerPlaced(mode string, blind bool) {
	if !mp.isEnabled() {
		return
	}
	mp.wagersPlacedCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(LabelMode, mode),
		attribute.String(LabelBlind, strconv.FormatBool(blind)),
	))
}

// RecordRejection counts a business rejection
func (mp *MetricsProvider) RecordRejection(reason string) {
	if !mp.isEnabled() {
		return
	}
	mp.wagerRejectionsCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(LabelReason, reason),
	))
}

// RecordSettlement counts a settlement pass and the amount it credited
func (mp *MetricsProvider) RecordSettlement(mode string, refunded bool, paid int64) {
	if !mp.isEnabled() {
		return
	}
	mp.settlementsCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(LabelMode, mode),
		attribute.String(LabelRefunded, strconv.FormatBool(refunded)),
	))
	if paid > 0 {
		mp.payoutVolumeCounter.Add(context.Background(), paid, metric.WithAttributes(
			attribute.String(LabelMode, mode),
		))
	}
}

// RecordCorrection counts a committed correction
func (mp *MetricsProvider) RecordCorrection(mode string) {
	if !mp.isEnabled() {
		return
	}
	mp.correctionsCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(LabelMode, mode),
	))
}

// RecordRefund counts refunded wagers
func (mp *MetricsProvider) RecordRefund(count int) {
	if !mp.isEnabled() || count == 0 {
		return
	}
	mp.refundedWagersCounter.Add(context.Background(), int64(count))
}

// RecordNATSMessageReceived records a NATS message being received
func (mp *MetricsProvider) RecordNATSMessageReceived(subject string) {
	if !mp.isEnabled() {
		return
	}
	mp.natsMessagesReceivedCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(LabelSubject, subject),
	))
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}
	mp.natsMessagesPublishedCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(LabelEventType, eventType),
	))
}

// RecordDatabaseQuery records one unit-of-work transaction
func (mp *MetricsProvider) RecordDatabaseQuery(operation, outcome string, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(LabelOperation, operation),
		attribute.String(LabelOutcome, outcome),
	)
	mp.databaseQueriesCounter.Add(context.Background(), 1, attrs)
	mp.databaseQueryDurationHist.Record(context.Background(), duration.Seconds(), attrs)
}

// isEnabled reports whether instruments exist to record into
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.meter != nil
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider. Its methods are safe to call on nil.
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}

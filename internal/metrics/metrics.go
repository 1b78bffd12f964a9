package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Moe-hub814/Academy/pkg/telemetry"
)

var (
	// Session counters
	LoginsTotal *telemetry.Counter

	// Webhook counters
	WebhooksReceived *telemetry.Counter
	WebhooksFailed   *telemetry.Counter

	// Billing counters
	PaymentsLogged *telemetry.Counter
	PaymentAmount  *telemetry.Histogram

	// Course progress counters
	ProgressUpdates   *telemetry.Counter
	ModuleCompletions *telemetry.Counter

	initOnce sync.Once
	initErr  error
)

// Init initializes all platform metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	LoginsTotal, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "academy_logins_total",
		Description: "Total number of login attempts by kind and outcome",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	WebhooksReceived, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "academy_webhooks_received_total",
		Description: "Total number of billing webhooks received",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	WebhooksFailed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "academy_webhooks_failed_total",
		Description: "Total number of billing webhooks that failed processing",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PaymentsLogged, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "academy_payments_logged_total",
		Description: "Total number of payment log entries written",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PaymentAmount, err = telemetry.NewHistogram(telemetry.MetricOpts{
		Name:        "academy_payment_amount",
		Description: "Payment amounts distribution",
		Unit:        "USD",
	})
	if err != nil {
		return err
	}

	ProgressUpdates, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "academy_progress_updates_total",
		Description: "Total number of module progress updates",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ModuleCompletions, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "academy_module_completions_total",
		Description: "Total number of modules marked completed",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	return nil
}

// RecordLogin records a login attempt
func RecordLogin(ctx context.Context, kind string, success bool) {
	if LoginsTotal != nil {
		LoginsTotal.Inc(ctx,
			attribute.String("kind", kind),
			attribute.Bool("success", success),
		)
	}
}

// RecordWebhookReceived records a webhook receipt
func RecordWebhookReceived(ctx context.Context, eventType string) {
	if WebhooksReceived != nil {
		WebhooksReceived.Inc(ctx,
			attribute.String("event_type", eventType),
		)
	}
}

// RecordWebhookFailed records a webhook processing failure
func RecordWebhookFailed(ctx context.Context, eventType string) {
	if WebhooksFailed != nil {
		WebhooksFailed.Inc(ctx,
			attribute.String("event_type", eventType),
		)
	}
}

// RecordPaymentLogged records a payment log entry
func RecordPaymentLogged(ctx context.Context, status string, amount float64) {
	if PaymentsLogged != nil {
		PaymentsLogged.Inc(ctx,
			attribute.String("status", status),
		)
	}
	if PaymentAmount != nil {
		PaymentAmount.Record(ctx, amount,
			attribute.String("status", status),
		)
	}
}

// RecordProgressUpdate records a progress update, and a completion when
// the update marked the module done
func RecordProgressUpdate(ctx context.Context, completed bool) {
	if ProgressUpdates != nil {
		ProgressUpdates.Inc(ctx)
	}
	if completed && ModuleCompletions != nil {
		ModuleCompletions.Inc(ctx)
	}
}

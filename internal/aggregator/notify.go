package aggregator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tempestwx/tempestd/internal/domain"
	"github.com/tempestwx/tempestd/internal/observability"
)

// Notifier delivers one alert notification to a sink.
type Notifier interface {
	Notify(ctx context.Context, alert domain.Alert) error
}

// LogNotifier writes notifications to the structured log. It is the default
// sink when no external delivery mechanism is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Notify(_ context.Context, alert domain.Alert) error {
	n.Logger.Info("weather alert",
		"id", alert.ID,
		"event", alert.Event,
		"severity", alert.Severity.String(),
		"headline", alert.Headline,
		"area", alert.AreaDesc,
	)
	return nil
}

// Gate emits one notification per alert id across the process lifetime.
// An id already notified is never re-notified, even when the alert's
// content changes on a later refresh.
type Gate struct {
	notifier Notifier
	metrics  *observability.Metrics
	logger   *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewGate creates a Gate delivering through the given notifier.
func NewGate(notifier Notifier, metrics *observability.Metrics, logger *slog.Logger) *Gate {
	return &Gate{
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		seen:     make(map[string]struct{}),
	}
}

// Process notifies every alert in the list whose id has not been seen, in
// list order, and marks it seen. Delivery failures are logged; the id still
// counts as seen so a flaky sink does not re-notify on every refresh.
func (g *Gate) Process(ctx context.Context, alerts []domain.Alert) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, alert := range alerts {
		if _, ok := g.seen[alert.ID]; ok {
			continue
		}
		g.seen[alert.ID] = struct{}{}

		if err := g.notifier.Notify(ctx, alert); err != nil {
			g.logger.Warn("notification delivery failed",
				"id", alert.ID, "error", err)
			continue
		}
		g.metrics.NotificationsSent.Inc()
	}
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/incident-feed-etl/internal/domain"
	"github.com/couchcryptid/incident-feed-etl/internal/observability"
)

// Sink is a named BatchLoader.
type Sink interface {
	BatchLoader
	Name() string
}

// MultiPublisher delivers every batch to each sink in turn. A failing sink
// does not stop delivery to the others.
type MultiPublisher struct {
	sinks   []Sink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewMultiPublisher fans batches out to sinks.
func NewMultiPublisher(logger *slog.Logger, metrics *observability.Metrics, sinks ...Sink) *MultiPublisher {
	return &MultiPublisher{sinks: sinks, logger: logger, metrics: metrics}
}

// Len returns the number of sinks.
func (m *MultiPublisher) Len() int {
	return len(m.sinks)
}

// LoadBatch publishes events to every sink and joins their errors.
func (m *MultiPublisher) LoadBatch(ctx context.Context, events []domain.IncidentEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.LoadBatch(ctx, events); err != nil {
			m.metrics.PublishErrors.WithLabelValues(s.Name()).Inc()
			m.logger.Error("publish failed", "sink", s.Name(), "count", len(events), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

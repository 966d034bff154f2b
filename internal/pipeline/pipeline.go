package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/incident-feed-etl/internal/domain"
	"github.com/couchcryptid/incident-feed-etl/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Fetcher reads the current records of one feed.
type Fetcher interface {
	Fetch(ctx context.Context) ([]domain.RawRecord, error)
}

// Normalizer converts a raw record into an incident.
type Normalizer interface {
	Normalize(rec domain.RawRecord) (domain.Incident, error)
}

// BatchLoader writes one cycle's accepted incidents to a subscriber.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.IncidentEvent) error
}

// Config wires the stages of one feed pipeline.
type Config struct {
	Feed         string // label used in logs and metrics
	Fetcher      Fetcher
	Normalizer   Normalizer
	Validator    domain.Validator
	Loader       BatchLoader
	PollInterval time.Duration
	Clock        clockwork.Clock // paces polling and decides time validity; defaults to the real clock
	Logger       *slog.Logger
	Metrics      *observability.Metrics
}

// Pipeline runs the poll-normalize-validate-publish loop for one feed.
type Pipeline struct {
	feed       string
	fetcher    Fetcher
	normalizer Normalizer
	validator  domain.Validator
	loader     BatchLoader
	interval   time.Duration
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
	stopped    atomic.Bool
}

// CycleStats summarizes one poll cycle.
type CycleStats struct {
	ID         string
	Read       int
	Normalized int
	Rejected   int
	Published  int
}

// New creates a Pipeline from its stages.
func New(cfg Config) *Pipeline {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pipeline{
		feed:       cfg.Feed,
		fetcher:    cfg.Fetcher,
		normalizer: cfg.Normalizer,
		validator:  cfg.Validator,
		loader:     cfg.Loader,
		interval:   cfg.PollInterval,
		clock:      cfg.Clock,
		logger:     cfg.Logger.With("feed", cfg.Feed),
		metrics:    cfg.Metrics,
	}
}

// Feed returns the pipeline's feed label.
func (p *Pipeline) Feed() string {
	return p.feed
}

// Ready reports whether at least one cycle has completed.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// CheckReadiness returns nil once a cycle has fetched and published successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return fmt.Errorf("feed %s has not completed a cycle yet", p.feed)
	}
	return nil
}

// Stop asks the loop to exit before its next cycle. An in-flight cycle
// finishes normally.
func (p *Pipeline) Stop() {
	p.stopped.Store(true)
}

// Run polls the feed until Stop is called or the context is cancelled.
// Cycle errors are logged and retried on the next tick; Run itself never
// fails because of them.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "poll_interval", p.interval)
	running := p.metrics.PipelineRunning.WithLabelValues(p.feed)
	running.Set(1)
	defer running.Set(0)

	for !p.stopped.Load() {
		if _, err := p.Cycle(ctx); err != nil {
			p.logger.Error("cycle failed", "error", err)
		}

		if p.stopped.Load() {
			break
		}
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-p.clock.After(p.interval):
		}
	}
	p.logger.Info("pipeline stopping", "reason", "stopped")
	return nil
}

// Cycle runs one fetch-normalize-validate-publish pass. Per-record failures
// are logged and counted; only fetch and publish failures are returned.
func (p *Pipeline) Cycle(ctx context.Context) (CycleStats, error) {
	start := p.clock.Now()
	stats := CycleStats{ID: uuid.NewString()}
	logger := p.logger.With("cycle_id", stats.ID)

	records, err := p.fetch(ctx)
	if err != nil {
		return stats, err
	}
	stats.Read = len(records)

	events := make([]domain.IncidentEvent, 0, len(records))
	for _, rec := range records {
		inc, err := p.normalizer.Normalize(rec)
		if err != nil {
			p.recordFailure(logger, rec, err)
			continue
		}
		stats.Normalized++

		verdict, err := p.validator.ValidateAt(inc, p.clock.Now())
		if err != nil {
			p.recordFailure(logger, rec, err)
			continue
		}
		if !verdict.Accepted {
			stats.Rejected++
			p.metrics.IncidentsRejected.WithLabelValues(p.feed, verdict.Reason).Inc()
			logger.Debug("incident rejected", "message_id", inc.MessageID, "route", inc.Roadway, "reason", verdict.Reason)
			continue
		}
		events = append(events, domain.NewIncidentEvent(inc))
	}

	if len(events) > 0 {
		if err := p.loader.LoadBatch(ctx, events); err != nil {
			return stats, fmt.Errorf("publish %d incidents: %w", len(events), err)
		}
		stats.Published = len(events)
		p.metrics.IncidentsPublished.WithLabelValues(p.feed).Add(float64(len(events)))
	}

	p.ready.Store(true)
	p.metrics.CycleDuration.Observe(p.clock.Since(start).Seconds())
	logger.Info("cycle complete",
		"read", stats.Read,
		"normalized", stats.Normalized,
		"rejected", stats.Rejected,
		"published", stats.Published,
	)
	return stats, nil
}

// fetch detaches from ctx cancellation so shutdown never interrupts an
// in-flight request; the fetcher's own timeout bounds it.
func (p *Pipeline) fetch(ctx context.Context) ([]domain.RawRecord, error) {
	start := p.clock.Now()
	records, err := p.fetcher.Fetch(context.WithoutCancel(ctx))
	p.metrics.FetchDuration.WithLabelValues(p.feed).Observe(p.clock.Since(start).Seconds())
	if err != nil {
		p.metrics.FeedFetches.WithLabelValues(p.feed, "error").Inc()
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	p.metrics.FeedFetches.WithLabelValues(p.feed, "success").Inc()
	p.metrics.RecordsRead.WithLabelValues(p.feed).Add(float64(len(records)))
	return records, nil
}

func (p *Pipeline) recordFailure(logger *slog.Logger, rec domain.RawRecord, err error) {
	kind := domain.ErrorKind(err)
	p.metrics.NormalizeErrors.WithLabelValues(p.feed, kind).Inc()

	msg := "normalize failed, skipping record"
	if errors.Is(err, domain.ErrEmptyEventList) {
		msg = "feed defect, skipping record"
	}
	logger.Warn(msg,
		"message_id", rec.MessageID,
		"route", rec.Roadway,
		"error_kind", kind,
		"error", err,
	)
}

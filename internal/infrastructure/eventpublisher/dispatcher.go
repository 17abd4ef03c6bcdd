package eventpublisher

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/txledger/internal/domain"
	"github.com/iho/txledger/internal/infrastructure/metrics"
)

// ErrBufferFull is returned by Publish when the queue has no free slot.
var ErrBufferFull = errors.New("event buffer is full")

// Sink delivers a single event to an external system.
type Sink interface {
	Publish(ctx context.Context, event *domain.Event) error
}

// Dispatcher queues events and hands them to a Sink on a background worker.
type Dispatcher struct {
	sink         Sink
	queue        chan *domain.Event
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	flushTimeout time.Duration
}

// Config for Dispatcher.
type Config struct {
	Sink         Sink
	Logger       zerolog.Logger
	Metrics      *metrics.Metrics // optional
	BufferSize   int              // queued events before Publish starts dropping
	FlushTimeout time.Duration    // time allowed to drain the queue on shutdown
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = 5 * time.Second
	}

	return &Dispatcher{
		sink:         cfg.Sink,
		queue:        make(chan *domain.Event, cfg.BufferSize),
		logger:       cfg.Logger.With().Str("component", "event_dispatcher").Logger(),
		metrics:      cfg.Metrics,
		flushTimeout: cfg.FlushTimeout,
	}
}

// Publish enqueues event without blocking.
func (d *Dispatcher) Publish(ctx context.Context, event *domain.Event) error {
	select {
	case d.queue <- event:
		return nil
	default:
		d.count(event, "dropped")
		d.logger.Warn().
			Str("event_id", event.ID).
			Str("event_type", event.EventType).
			Msg("event buffer full, dropping event")
		return ErrBufferFull
	}
}

// Pending returns the number of queued events.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Start delivers queued events until ctx is cancelled, then flushes what is
// left within the flush timeout.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info().Int("buffer_size", cap(d.queue)).Msg("event dispatcher started")

	for {
		select {
		case <-ctx.Done():
			d.flush(ctx)
			d.logger.Info().Msg("event dispatcher stopped")
			return ctx.Err()
		case event := <-d.queue:
			d.deliver(ctx, event)
		}
	}
}

func (d *Dispatcher) flush(ctx context.Context) {
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.flushTimeout)
	defer cancel()

	for {
		select {
		case event := <-d.queue:
			d.deliver(flushCtx, event)
		default:
			return
		}

		if flushCtx.Err() != nil {
			d.logger.Warn().Int("remaining", len(d.queue)).Msg("flush timed out, events lost")
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event *domain.Event) {
	if err := d.sink.Publish(ctx, event); err != nil {
		d.count(event, "failed")
		d.logger.Error().
			Err(err).
			Str("event_id", event.ID).
			Str("event_type", event.EventType).
			Msg("failed to publish event")
		return
	}

	d.count(event, "published")
	d.logger.Debug().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Int64("aggregate_id", event.AggregateID).
		Msg("event published")
}

func (d *Dispatcher) count(event *domain.Event, status string) {
	if d.metrics == nil {
		return
	}
	d.metrics.EventsPublished.WithLabelValues(event.EventType, status).Inc()
}

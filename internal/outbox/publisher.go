package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/finledger/txprocessor/internal/config"
	"github.com/finledger/txprocessor/internal/models"
)

// Store is the persistence surface the publisher drains.
type Store interface {
	GetPending(ctx context.Context, limit int) ([]*models.OutboxMessage, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, nextAttemptAt time.Time, lastError string) error
}

// Publisher is the background relay: it polls for due messages and delivers
// each one independently through the sink, so one poisoned message never
// blocks the rest of the queue. The circuit breaker aggregates consecutive
// sink failures into a health signal; per-message retry scheduling stays in
// the store.
type Publisher struct {
	store   Store
	sink    EventSink
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
	now     func() time.Time
	cfg     config.OutboxConfig
}

// NewPublisher creates a Publisher owning its own circuit breaker instance.
func NewPublisher(store Store, sink EventSink, cfg config.OutboxConfig, logger *slog.Logger) *Publisher {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "outbox-publisher",
		Timeout: cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("outbox circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Publisher{
		store:   store,
		sink:    sink,
		breaker: breaker,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		cfg:     cfg,
	}
}

// Run drains the outbox until ctx is cancelled. A crashed cycle is logged
// and the loop resumes after the normal poll interval.
func (p *Publisher) Run(ctx context.Context) {
	p.logger.Info("outbox publisher started",
		"poll_interval", p.cfg.PollInterval,
		"batch_size", p.cfg.BatchSize,
	)

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := p.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error("outbox publisher cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			p.logger.Info("outbox publisher stopped")
			return
		case <-ticker.C:
		}
	}
}

// ProcessBatch fetches one batch of due messages and attempts delivery of
// each, independently.
func (p *Publisher) ProcessBatch(ctx context.Context) error {
	messages, err := p.store.GetPending(ctx, p.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, msg := range messages {
		p.publishOne(ctx, msg)
	}

	return nil
}

func (p *Publisher) publishOne(ctx context.Context, msg *models.OutboxMessage) {
	_, err := p.breaker.Execute(func() (any, error) {
		return nil, p.sink.Publish(ctx, msg.Type, msg.Payload)
	})
	if err != nil {
		// A rejection by the open breaker never reached the sink; the
		// message keeps its schedule and attempt count for the next cycle.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			p.logger.Debug("outbox delivery skipped, circuit open", "id", msg.ID, "type", msg.Type)
			return
		}

		attempts := msg.Attempts + 1
		nextAttempt := p.now().Add(publishBackoff(attempts))

		p.logger.Warn("failed to publish outbox message",
			"id", msg.ID,
			"type", msg.Type,
			"attempts", attempts,
			"next_attempt_at", nextAttempt,
			"error", err,
		)

		if markErr := p.store.MarkFailed(ctx, msg.ID, attempts, nextAttempt, err.Error()); markErr != nil {
			p.logger.Error("failed to record outbox failure", "id", msg.ID, "error", markErr)
		}
		return
	}

	// Marking is committed per message so one outcome never blocks another.
	// If this write fails the message is redelivered: at-least-once.
	if markErr := p.store.MarkProcessed(ctx, msg.ID, p.now()); markErr != nil {
		p.logger.Error("outbox message delivered but not marked processed, will redeliver",
			"id", msg.ID, "error", markErr)
	}
}

// publishBackoff is min(60s, 2^attempts seconds).
func publishBackoff(attempts int) time.Duration {
	const maxDelay = 60 * time.Second

	if attempts > 5 { // 2^6 = 64s already exceeds the cap
		return maxDelay
	}
	delay := time.Duration(1<<uint(attempts)) * time.Second //nolint:gosec // attempts bounded above
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

// State exposes the circuit breaker as a health signal.
func (p *Publisher) State() gobreaker.State {
	return p.breaker.State()
}

// StateName returns the breaker state as a string for health reporting.
func (p *Publisher) StateName() string {
	return p.breaker.State().String()
}

// Healthy reports whether the breaker is not open.
func (p *Publisher) Healthy() bool {
	return p.breaker.State() != gobreaker.StateOpen
}

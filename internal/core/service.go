package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tdfffffffff/bto-housing-management-system/internal/events"
	"github.com/tdfffffffff/bto-housing-management-system/internal/infra/persistence/memory"
)

// Service coordinates allocation lifecycle transitions. Every mutating
// operation loads its entities, applies the transition and commits inside a
// single store transaction; side effects (receipt archive, events) run only
// after the commit succeeded.
type Service struct {
	store    PersistentStore
	clock    Clock
	now      func() time.Time
	logger   Logger
	metrics  MetricsRecorder
	tracer   Tracer
	receipts *ReceiptArchive
	events   events.Publisher
	newID    func() string
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithClock overrides the time source for lifecycle timestamps. When the store
// supports it the same clock stamps record CreatedAt/UpdatedAt.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the structured logger. A nil logger keeps the no-op default.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder sets the per-operation metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer sets the per-operation tracer.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithReceiptArchive stores every booking receipt after commit.
func WithReceiptArchive(archive *ReceiptArchive) Option {
	return func(s *Service) {
		s.receipts = archive
	}
}

// WithEventPublisher publishes allocation events after commit.
func WithEventPublisher(publisher events.Publisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.events = publisher
		}
	}
}

// WithIDGenerator overrides receipt and event identifiers (uuid by default).
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	svc := &Service{
		store:   store,
		logger:  noopLogger{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		events:  events.Nop{},
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.now = selectNowFunc(store, svc.clock)
	if svc.clock != nil {
		if setter, ok := store.(interface{ SetNowFunc(func() time.Time) }); ok {
			setter.SetNowFunc(svc.now)
		}
	}
	return svc
}

// NewInMemoryService creates a service over a fresh in-memory store.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// Receipts returns the configured receipt archive, or nil.
func (s *Service) Receipts() *ReceiptArchive {
	return s.receipts
}

func selectNowFunc(store PersistentStore, clock Clock) func() time.Time {
	if clock != nil {
		return func() time.Time { return clock.Now() }
	}
	if provider, ok := store.(interface{ NowFunc() func() time.Time }); ok {
		if fn := provider.NowFunc(); fn != nil {
			return fn
		}
	}
	return func() time.Time { return time.Now().UTC() }
}

// observe wraps one operation with a span, a metrics sample and a log line.
func (s *Service) observe(ctx context.Context, op string, attrs []any, fn func(context.Context) (Result, error)) (Result, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, op)
	res, err := fn(ctx)
	elapsed := time.Since(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, elapsed)

	args := make([]any, 0, len(attrs)+6)
	args = append(args, "operation", op, "duration", elapsed)
	args = append(args, attrs...)
	if err != nil {
		s.logger.Error("service operation failed", append(args, "error", err)...)
		return res, err
	}
	for _, v := range res.Violations {
		if v.Severity == SeverityWarn {
			s.logger.Warn("rule warning", "operation", op, "rule", v.Rule, "entity", v.Entity, "entity_id", v.EntityID, "message", v.Message)
		}
	}
	s.logger.Debug("service operation completed", args...)
	return res, nil
}

func (s *Service) run(ctx context.Context, op string, attrs []any, fn func(Transaction) error) (Result, error) {
	return s.observe(ctx, op, attrs, func(ctx context.Context) (Result, error) {
		return s.store.RunInTransaction(ctx, fn)
	})
}

func (s *Service) view(ctx context.Context, op string, attrs []any, fn func(TransactionView) error) error {
	_, err := s.observe(ctx, op, attrs, func(ctx context.Context) (Result, error) {
		return Result{}, s.store.View(ctx, fn)
	})
	return err
}

// publish emits a post-commit event. Failures are logged and never undo the commit.
func (s *Service) publish(ctx context.Context, kind events.Kind, entityID, projectID, actor string, data map[string]string) {
	evt := events.Event{
		ID:         s.newID(),
		Kind:       kind,
		EntityID:   entityID,
		ProjectID:  projectID,
		Actor:      actor,
		OccurredAt: s.now(),
		Data:       data,
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Warn("publish event failed", "kind", kind, "entity_id", entityID, "error", err)
	}
}

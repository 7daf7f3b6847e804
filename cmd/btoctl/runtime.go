package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/tdfffffffff/bto-housing-management-system/internal/blob"
	"github.com/tdfffffffff/bto-housing-management-system/internal/config"
	"github.com/tdfffffffff/bto-housing-management-system/internal/core"
	"github.com/tdfffffffff/bto-housing-management-system/internal/events"
	"github.com/tdfffffffff/bto-housing-management-system/internal/telemetry"
)

const receiptURLExpiry = 15 * time.Minute

// runtime owns the collaborators of one btoctl invocation. The service is
// opened on first use so help and usage errors never touch storage.
type runtime struct {
	stdout io.Writer
	stderr io.Writer

	envFiles []string
	trace    bool
	stats    bool

	cfg      config.Config
	logger   *slog.Logger
	svc      *core.Service
	registry *prometheus.Registry
	expvar   *core.ExpvarMetricsRecorder
	closers  []func(context.Context) error
}

func newRuntime(stdout, stderr io.Writer) *runtime {
	return &runtime{stdout: stdout, stderr: stderr}
}

func (rt *runtime) service(ctx context.Context) (*core.Service, error) {
	if rt.svc != nil {
		return rt.svc, nil
	}
	cfg, err := config.Load(rt.envFiles...)
	if err != nil {
		return nil, err
	}
	rt.cfg = cfg
	rt.logger = newLogger(rt.stderr, cfg.Log)

	store, err := core.OpenPersistentStore(ctx, cfg.Storage, core.NewDefaultRulesEngine())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if c, ok := store.(io.Closer); ok {
		rt.onClose(func(context.Context) error { return c.Close() })
	}

	blobs, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("open receipt archive: %w", err)
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQP.URL != "" {
		amqpPublisher, err := events.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			return nil, err
		}
		publisher = amqpPublisher
		rt.onClose(func(context.Context) error { return amqpPublisher.Close() })
	}

	tracer, err := rt.tracer(ctx)
	if err != nil {
		return nil, err
	}

	recorder, err := rt.metrics()
	if err != nil {
		return nil, err
	}

	rt.svc = core.NewService(store,
		core.WithLogger(rt.logger),
		core.WithMetricsRecorder(recorder),
		core.WithTracer(tracer),
		core.WithReceiptArchive(core.NewReceiptArchive(blobs, receiptURLExpiry)),
		core.WithEventPublisher(publisher),
	)
	rt.logger.Debug("service opened", "storage", cfg.Storage.Driver, "blob", cfg.Blob.Driver, "amqp", cfg.AMQP.URL != "")
	return rt.svc, nil
}

func (rt *runtime) tracer(ctx context.Context) (core.Tracer, error) {
	if rt.trace {
		return core.NewJSONTracer(rt.stderr), nil
	}
	tp, shutdown, err := telemetry.Setup(ctx, rt.cfg.OTel)
	if err != nil {
		return nil, err
	}
	rt.onClose(shutdown)
	return core.NewOTelTracer(tp), nil
}

func (rt *runtime) metrics() (core.MetricsRecorder, error) {
	rt.registry = prometheus.NewRegistry()
	prom, err := core.NewPrometheusMetricsRecorder(rt.registry, rt.cfg.Metrics.Namespace)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	if !rt.stats {
		return prom, nil
	}
	rt.expvar = core.NewExpvarMetricsRecorder("")
	return fanout{prom, rt.expvar}, nil
}

func (rt *runtime) onClose(fn func(context.Context) error) {
	rt.closers = append(rt.closers, fn)
}

// close flushes metrics and releases collaborators in reverse order of acquisition.
func (rt *runtime) close(ctx context.Context) error {
	var errs []error
	if rt.svc != nil {
		errs = append(errs, rt.flushMetrics(ctx))
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	rt.svc = nil
	return errors.Join(errs...)
}

func (rt *runtime) flushMetrics(ctx context.Context) error {
	var err error
	if rt.expvar != nil {
		err = json.NewEncoder(rt.stderr).Encode(map[string]any{"stats": rt.expvar.Snapshot()})
	}
	if gw := rt.cfg.Metrics.PushGateway; gw != "" {
		if perr := push.New(gw, rt.cfg.Metrics.Job).Gatherer(rt.registry).PushContext(ctx); perr != nil {
			rt.logger.Warn("push metrics failed", "gateway", gw, "error", perr)
		}
	}
	return err
}

func newLogger(w io.Writer, cfg config.Log) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// fanout forwards observations to every recorder.
type fanout []core.MetricsRecorder

func (f fanout) Observe(ctx context.Context, operation string, success bool, duration time.Duration) {
	for _, r := range f {
		r.Observe(ctx, operation, success, duration)
	}
}

// print writes v as one JSON line.
func (rt *runtime) print(v any) error {
	return json.NewEncoder(rt.stdout).Encode(v)
}

// printEach writes one JSON line per element.
func printEach[T any](rt *runtime, items []T) error {
	for _, item := range items {
		if err := rt.print(item); err != nil {
			return err
		}
	}
	return nil
}

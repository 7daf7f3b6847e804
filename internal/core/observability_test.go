package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

type metricsCall struct {
	op      string
	success bool
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type spanRecord struct {
	op  string
	err error
}

type captureTracer struct {
	ended []spanRecord
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	return ctx, &captureSpan{tracer: c, op: op}
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
}

type logLine struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	lines []logLine
}

func (c *captureLogger) log(level, msg string, args []any) {
	c.lines = append(c.lines, logLine{level: level, msg: msg, args: args})
}

func (c *captureLogger) Debug(msg string, args ...any) { c.log("debug", msg, args) }
func (c *captureLogger) Info(msg string, args ...any)  { c.log("info", msg, args) }
func (c *captureLogger) Warn(msg string, args ...any)  { c.log("warn", msg, args) }
func (c *captureLogger) Error(msg string, args ...any) { c.log("error", msg, args) }

func (c *captureLogger) has(level, msg string) bool {
	for _, l := range c.lines {
		if l.level == level && l.msg == msg {
			return true
		}
	}
	return false
}

func seedService(t *testing.T, svc *Service) Project {
	t.Helper()
	ctx := context.Background()
	for _, p := range []Person{
		{NRIC: "S1234567A", Name: "Alice", Age: 36, MaritalStatus: domain.MaritalSingle, Roles: domain.NewRoles(domain.RoleApplicant)},
		{NRIC: "T7654321B", Name: "Daniel", Age: 29, MaritalStatus: domain.MaritalMarried, Roles: domain.NewRoles(domain.RoleOfficer)},
		{NRIC: "S5555555M", Name: "Mabel", Age: 50, MaritalStatus: domain.MaritalMarried, Roles: domain.NewRoles(domain.RoleManager)},
	} {
		if _, _, err := svc.RegisterPerson(ctx, p); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	inv, _ := domain.NewInventory(map[FlatType]int{domain.FlatTwoRoom: 2}, 2)
	w, _ := domain.NewWindow(domain.Date(2024, time.January, 1), domain.Date(2024, time.March, 1))
	p, _, err := svc.CreateProject(ctx, "S5555555M", Project{Name: "Acacia", Neighborhood: "Yishun", Inventory: inv, Window: w})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

// book drives Alice's application to BOOKED through Daniel.
func book(t *testing.T, svc *Service, projectID string) Receipt {
	t.Helper()
	ctx := context.Background()
	reg, _, err := svc.SubmitRegistration(ctx, "T7654321B", projectID)
	if err != nil {
		t.Fatalf("submit registration: %v", err)
	}
	if _, _, err := svc.ReviewRegistration(ctx, "S5555555M", reg.ID, true); err != nil {
		t.Fatalf("approve registration: %v", err)
	}
	app, _, err := svc.SubmitApplication(ctx, "S1234567A", projectID, domain.FlatTwoRoom)
	if err != nil {
		t.Fatalf("submit application: %v", err)
	}
	if _, _, err := svc.ReviewApplication(ctx, "S5555555M", app.ID, true); err != nil {
		t.Fatalf("review: %v", err)
	}
	if _, _, err := svc.RequestBooking(ctx, "S1234567A", app.ID); err != nil {
		t.Fatalf("request booking: %v", err)
	}
	receipt, _, err := svc.BookFlat(ctx, "T7654321B", app.ID)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return receipt
}

func TestServiceObservabilityHooks(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}
	logger := &captureLogger{}
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithMetricsRecorder(metrics), WithTracer(tracer), WithLogger(logger))
	p := seedService(t, svc)
	book(t, svc, p.ID)
	if _, _, err := svc.SubmitApplication(context.Background(), "S1234567A", p.ID, domain.FlatTwoRoom); err == nil {
		t.Fatalf("expected duplicate application")
	}

	for _, op := range []string{"register_person", "create_project", "submit_registration", "review_registration", "submit_application", "review_application", "request_booking", "book_flat"} {
		if !metrics.has(op, true) {
			t.Fatalf("expected success metric for %s", op)
		}
	}
	if !metrics.has("submit_application", false) {
		t.Fatalf("expected failure metric")
	}
	last := tracer.ended[len(tracer.ended)-1]
	if last.op != "submit_application" || !errors.Is(last.err, domain.ErrDuplicateApplication) {
		t.Fatalf("unexpected last span %+v", last)
	}
	if !logger.has("debug", "service operation completed") || !logger.has("error", "service operation failed") {
		t.Fatalf("expected debug and error log lines, got %+v", logger.lines)
	}
}

func TestServiceOptionsIgnoreNil(t *testing.T) {
	svc := NewInMemoryService(nil, WithLogger(nil), WithMetricsRecorder(nil), WithTracer(nil), WithClock(nil), WithEventPublisher(nil), WithIDGenerator(nil))
	if _, ok := svc.logger.(noopLogger); !ok {
		t.Fatalf("expected noop logger")
	}
	if _, ok := svc.metrics.(noopMetricsRecorder); !ok {
		t.Fatalf("expected noop metrics")
	}
	if _, ok := svc.tracer.(noopTracer); !ok {
		t.Fatalf("expected noop tracer")
	}
	if svc.now == nil || svc.newID() == "" {
		t.Fatalf("expected default clock and id generator")
	}
	if svc.Store() == nil || svc.Receipts() != nil {
		t.Fatalf("unexpected collaborators")
	}
}

func TestClockIsPushedIntoStore(t *testing.T) {
	fixed := time.Date(2024, time.February, 1, 8, 0, 0, 0, time.UTC)
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithClock(ClockFunc(func() time.Time { return fixed })))
	p := seedService(t, svc)
	if !p.CreatedAt.Equal(fixed) {
		t.Fatalf("expected store timestamps from clock, got %v", p.CreatedAt)
	}
	var nilClock ClockFunc
	if nilClock.Now().IsZero() {
		t.Fatalf("nil ClockFunc should report wall time")
	}
}

func TestWarnViolationsAreLogged(t *testing.T) {
	logger := &captureLogger{}
	engine := NewDefaultRulesEngine()
	engine.Register(warnRule{})
	svc := NewInMemoryService(engine, WithLogger(logger))
	seedService(t, svc)
	if !logger.has("warn", "rule warning") {
		t.Fatalf("expected warn log, got %+v", logger.lines)
	}
}

type warnRule struct{}

func (warnRule) Name() string { return "always_warn" }

func (warnRule) Evaluate(context.Context, domain.RuleView, []Change) (Result, error) {
	return Result{Violations: []Violation{{Rule: "always_warn", Severity: SeverityWarn, Message: "heads up"}}}, nil
}

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	rec.Observe(context.Background(), "book_flat", true, 2*time.Millisecond)
	rec.Observe(context.Background(), "book_flat", false, 6*time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Millisecond)
	snap := rec.Snapshot()
	st := snap["book_flat"]
	if st.Calls != 2 || st.Failures != 1 || st.TotalMS != 8 || st.MaxMS != 6 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if len(snap) != 1 {
		t.Fatalf("empty operation must be ignored")
	}
	v := expvar.Get(rec.Name())
	if v == nil || !strings.Contains(v.String(), `"book_flat"`) {
		t.Fatalf("expected published expvar, got %v", v)
	}
}

func TestExpvarMetricsRecorderSuffixesTakenNames(t *testing.T) {
	first := NewExpvarMetricsRecorder("bto_dup_stats")
	second := NewExpvarMetricsRecorder("bto_dup_stats")
	if !strings.HasPrefix(first.Name(), "bto_dup_stats") {
		t.Fatalf("unexpected name %q", first.Name())
	}
	if second.Name() == first.Name() || !strings.HasPrefix(second.Name(), "bto_dup_stats_") {
		t.Fatalf("expected suffixed name for a taken name, got %q", second.Name())
	}
	second.Observe(context.Background(), "review_application", true, time.Millisecond)
	if v := expvar.Get(first.Name()); v == nil || strings.Contains(v.String(), "review_application") {
		t.Fatalf("recorders must publish independently, first=%v", v)
	}
}

func TestJSONTracerRecordsKinds(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithTracer(tracer))
	seedService(t, svc)
	if _, _, err := svc.ReviewApplication(context.Background(), "S5555555M", "404", true); err == nil {
		t.Fatalf("expected not found")
	}

	ctx := context.Background()
	_, span := tracer.Start(ctx, "blocked_op")
	span.End(domain.RuleViolationError{Result: Result{Violations: []Violation{{Rule: ruleInventoryBounds, Severity: SeverityBlock}}}})

	entries := tracer.Entries()
	var sawNotFound, sawBlocked bool
	for _, e := range entries {
		if e.Operation == "review_application" && e.Outcome == "error" && e.ErrorKind == domain.KindNotFound {
			sawNotFound = true
		}
		if e.Operation == "blocked_op" && e.Outcome == "blocked" && len(e.BlockedBy) == 1 && e.BlockedBy[0] == ruleInventoryBounds {
			sawBlocked = true
		}
	}
	if !sawNotFound || !sawBlocked {
		t.Fatalf("missing classified spans: %+v", entries)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(entries) {
		t.Fatalf("expected %d json lines, got %d", len(entries), len(lines))
	}
	var first TraceEntry
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil || first.Outcome != "ok" {
		t.Fatalf("decode first line: %v %+v", err, first)
	}
	silent := NewJSONTracer(nil)
	_, s := silent.Start(ctx, "noop")
	s.End(nil)
	if len(silent.Entries()) != 1 {
		t.Fatalf("tracer without writer should still retain entries")
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg, "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithMetricsRecorder(rec))
	seedService(t, svc)
	if got := testutil.ToFloat64(rec.outcomes.WithLabelValues("register_person", "success")); got != 3 {
		t.Fatalf("expected 3 register_person successes, got %v", got)
	}
	if n := testutil.CollectAndCount(rec.latency, "bto_service_operation_duration_seconds"); n != 2 {
		t.Fatalf("expected latency series for two operations, got %d", n)
	}
	if _, err := NewPrometheusMetricsRecorder(reg, ""); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	var nilRec *PrometheusMetricsRecorder
	nilRec.Observe(context.Background(), "x", true, time.Millisecond)
}

func TestOTelTracerRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	svc := NewInMemoryService(NewDefaultRulesEngine(), WithTracer(NewOTelTracer(tp)))
	p := seedService(t, svc)
	if _, _, err := svc.ToggleVisibility(context.Background(), "S1234567A", p.ID); err == nil {
		t.Fatalf("expected forbidden toggle")
	}
	var ok, failed bool
	for _, span := range recorder.Ended() {
		switch {
		case span.Name() == "create_project" && span.Status().Code == codes.Ok:
			ok = true
		case span.Name() == "toggle_visibility" && span.Status().Code == codes.Error:
			failed = true
		}
	}
	if !ok || !failed {
		t.Fatalf("expected ok and error spans, got %d spans", len(recorder.Ended()))
	}
	if NewOTelTracer(nil) == nil {
		t.Fatalf("expected global-provider tracer")
	}
}

func TestNoopObservability(t *testing.T) {
	var l Logger = noopLogger{}
	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")
	ctx, span := noopTracer{}.Start(context.Background(), "op")
	span.End(nil)
	noopMetricsRecorder{}.Observe(ctx, "op", true, 0)
}

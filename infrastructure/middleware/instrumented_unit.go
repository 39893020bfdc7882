package middleware

import (
	"context"
	"maps"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-combo/internal/domain"
	"github.com/ahrav/go-combo/internal/ports"
)

const tracerName = "github.com/ahrav/go-combo/infrastructure/middleware"

var (
	_ ports.Unit       = (*InstrumentedUnit)(nil)
	_ ports.Strategist = (*InstrumentedUnit)(nil)
	_ ports.DataFlow   = (*InstrumentedUnit)(nil)
)

// InstrumentedUnit wraps a unit with tracing, metrics and structured
// logging. It never alters the wrapped unit's result or error.
type InstrumentedUnit struct {
	next    ports.Unit
	metrics ports.MetricsCollector
	logger  logrus.FieldLogger
	tracer  trace.Tracer
}

// InstrumentOption customizes an InstrumentedUnit.
type InstrumentOption func(*InstrumentedUnit)

// WithMetrics records latency, outcome counts, matrix shape and combined
// score distribution into m.
func WithMetrics(m ports.MetricsCollector) InstrumentOption {
	return func(u *InstrumentedUnit) { u.metrics = m }
}

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(l logrus.FieldLogger) InstrumentOption {
	return func(u *InstrumentedUnit) { u.logger = l }
}

// WithTracer sets the tracer. The default comes from the global otel
// TracerProvider.
func WithTracer(t trace.Tracer) InstrumentOption {
	return func(u *InstrumentedUnit) { u.tracer = t }
}

// Instrument wraps next.
func Instrument(next ports.Unit, opts ...InstrumentOption) *InstrumentedUnit {
	u := &InstrumentedUnit{
		next:   next,
		logger: logrus.StandardLogger(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Name returns the wrapped unit's name.
func (u *InstrumentedUnit) Name() string { return u.next.Name() }

// Validate delegates to the wrapped unit.
func (u *InstrumentedUnit) Validate() error { return u.next.Validate() }

// Unwrap returns the wrapped unit.
func (u *InstrumentedUnit) Unwrap() ports.Unit { return u.next }

// Strategy reports the wrapped unit's strategy, or "unknown".
func (u *InstrumentedUnit) Strategy() string {
	if s, ok := u.next.(ports.Strategist); ok {
		return s.Strategy()
	}
	return "unknown"
}

// InputKey reports the wrapped unit's input key, or "" when it does not
// expose one.
func (u *InstrumentedUnit) InputKey() string {
	if f, ok := u.next.(ports.DataFlow); ok {
		return f.InputKey()
	}
	return ""
}

// OutputKey reports the wrapped unit's output key, or "" when it does not
// expose one.
func (u *InstrumentedUnit) OutputKey() string {
	if f, ok := u.next.(ports.DataFlow); ok {
		return f.OutputKey()
	}
	return ""
}

// Execute runs the wrapped unit inside a span and records its outcome.
func (u *InstrumentedUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	name, strategy := u.Name(), u.Strategy()

	ctx, span := u.tracer.Start(ctx, "combine."+strategy, trace.WithAttributes(
		attribute.String("unit.name", name),
		attribute.String("combine.strategy", strategy),
	))
	defer span.End()

	fields := logrus.Fields{"unit": name, "strategy": strategy}
	if ec, ok := state.GetExecutionContext(); ok {
		span.SetAttributes(
			attribute.String("plan.id", ec.PlanID),
			attribute.String("execution.id", ec.ExecutionID),
		)
		fields["plan_id"] = ec.PlanID
		fields["execution_id"] = ec.ExecutionID
	}

	samples, estimators, hasInput := u.inputShape(state)
	if hasInput {
		span.SetAttributes(
			attribute.Int("matrix.samples", samples),
			attribute.Int("matrix.estimators", estimators),
		)
		fields["samples"] = samples
		fields["estimators"] = estimators
	}

	start := time.Now()
	next, err := u.next.Execute(ctx, state)
	elapsed := time.Since(start)
	fields["duration"] = elapsed

	labels := map[string]string{"unit": name, "strategy": strategy}
	if u.metrics != nil {
		u.metrics.RecordLatency(OperationExecute, elapsed, labels)
		if hasInput {
			u.metrics.RecordGauge(MetricSamples, float64(samples), labels)
			u.metrics.RecordGauge(MetricEstimators, float64(estimators), labels)
		}
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		u.count(labels, StatusError)
		u.logger.WithFields(fields).WithError(err).Warn("combination unit failed")
		return next, err
	}

	span.SetStatus(codes.Ok, "")
	u.count(labels, StatusSuccess)
	u.observeScores(next, labels)
	u.logger.WithFields(fields).Debug("combination unit finished")
	return next, nil
}

// inputShape looks up the dimensions of the wrapped unit's input matrix.
func (u *InstrumentedUnit) inputShape(state domain.State) (samples, estimators int, ok bool) {
	key := u.InputKey()
	if key == "" {
		return 0, 0, false
	}
	m, found := domain.Get(state, domain.NewKey[*domain.ScoreMatrix](key))
	if !found || m == nil {
		return 0, 0, false
	}
	samples, estimators = m.Dims()
	return samples, estimators, true
}

func (u *InstrumentedUnit) count(labels map[string]string, status string) {
	if u.metrics == nil {
		return
	}
	withStatus := maps.Clone(labels)
	withStatus["status"] = status
	u.metrics.RecordCounter(MetricExecutions, 1, withStatus)
}

func (u *InstrumentedUnit) observeScores(state domain.State, labels map[string]string) {
	key := u.OutputKey()
	if u.metrics == nil || key == "" {
		return
	}
	scores, ok := domain.Get(state, domain.NewKey[domain.CombinedScores](key))
	if !ok {
		return
	}
	for _, s := range scores {
		u.metrics.RecordHistogram(MetricCombinedScore, s, labels)
	}
}


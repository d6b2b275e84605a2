package shape

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/reoring/reshape"
	"github.com/reoring/reshape/codec"
	"github.com/reoring/reshape/rules"
)

const tracerName = "github.com/reoring/reshape/shape"

// Engine applies the profiles of a Registry to records. It is safe for
// concurrent use; every call reads the Registry snapshot current at its start.
type Engine struct {
	reg     *Registry
	logger  *zap.Logger
	metrics *Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records operation counts and durations in m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTracerProvider sets where spans go. The default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithClock sets the time source of "generate: now" fields.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine returns an Engine reading profiles from reg.
func NewEngine(reg *Registry, opts ...Option) *Engine {
	e := &Engine{
		reg:    reg,
		logger: zap.NewNop(),
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ItemError reports which record of a batch failed.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string { return fmt.Sprintf("record %d: %v", e.Index, e.Err) }

func (e *ItemError) Unwrap() error { return e.Err }

// Apply runs the profile called name on rec and returns the new record. rec is
// never modified. A missing profile yields a *reshape.NotFoundError.
func (e *Engine) Apply(ctx context.Context, name string, rec *reshape.Record) (*reshape.Record, error) {
	start := time.Now()
	out, err := e.apply(ctx, e.reg.Load(), name, rec)
	e.metrics.observe(name, time.Since(start), err)
	if err != nil {
		e.logger.Warn("profile application failed",
			zap.String("profile", name),
			zap.String("kind", ErrorKind(err)),
			zap.Error(err),
		)
	}
	return out, err
}

// ApplyAll applies name to every record in order and stops at the first
// failure, which is returned as an *ItemError.
func (e *Engine) ApplyAll(ctx context.Context, name string, recs []*reshape.Record) ([]*reshape.Record, error) {
	out := make([]*reshape.Record, 0, len(recs))
	for i, rec := range recs {
		r, err := e.Apply(ctx, name, rec)
		if err != nil {
			return nil, &ItemError{Index: i, Err: err}
		}
		out = append(out, r)
	}
	return out, nil
}

func (e *Engine) apply(ctx context.Context, set *Set, name string, rec *reshape.Record) (_ *reshape.Record, err error) {
	ctx, span := e.tracer.Start(ctx, "shape.apply", trace.WithAttributes(
		attribute.String("shape.profile", name),
		attribute.Int("shape.fields", rec.Len()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, ErrorKind(err))
		}
		span.End()
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, ok := set.profile(name)
	if !ok {
		return nil, &reshape.NotFoundError{Entity: "Profile", Key: name}
	}
	log := e.logger.With(zap.String("profile", name))

	if p.Query != nil {
		if err := reshape.CheckQuery(rec, p.Query.Rule()); err != nil {
			return nil, err
		}
	}
	if len(p.Requires) > 0 {
		if err := rules.Check(rec, p.requirementRules()...); err != nil {
			return nil, err
		}
	}
	if len(p.Required) > 0 {
		if err := reshape.VerifyJSON(rec, reshape.FieldList(p.Required...), reshape.NoEmptyString); err != nil {
			return nil, err
		}
	}
	if p.RequireAll {
		if err := reshape.VerifyJSON(rec, reshape.All(), reshape.NoEmptyString); err != nil {
			return nil, err
		}
	}
	log.Debug("checks passed")

	cur := rec
	if len(p.Nested) > 0 {
		cur = rec.Clone()
		for _, n := range p.Nested {
			sub, ok := cur.Sub(n.Field)
			if !ok {
				continue
			}
			shaped, err := e.apply(ctx, set, n.Profile, sub)
			if err != nil {
				return nil, err
			}
			cur.Set(n.Field, shaped)
			log.Debug("nested profile applied", zap.String("field", n.Field), zap.String("nested", n.Profile))
		}
	}

	if len(p.Decode) > 0 {
		cs, err := codecsFor(p.Decode)
		if err != nil {
			return nil, err
		}
		if cur, err = codec.DecodeFields(ctx, cur, cs); err != nil {
			return nil, err
		}
	}

	fields, err := p.fields(e.now())
	if err != nil {
		return nil, err
	}
	out := reshape.Compose(cur, reshape.ComposeOpt{NewFields: fields, Delete: p.Delete})
	log.Debug("record composed", zap.Int("fields", out.Len()))

	if len(p.Encode) > 0 {
		cs, err := codecsFor(p.Encode)
		if err != nil {
			return nil, err
		}
		if out, err = codec.EncodeFields(ctx, out, cs); err != nil {
			return nil, err
		}
	}
	if len(p.Optional) > 0 {
		out = reshape.Prune(out, p.Optional...)
	}
	span.SetAttributes(attribute.Int("shape.output_fields", out.Len()))
	return out, nil
}

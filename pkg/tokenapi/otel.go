package tokenapi

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for liveguard backends.
const defaultTracerName = "liveguard/tokenapi"

// TracingConfig configures the OpenTelemetry wrapper.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "liveguard/tokenapi").
	TracerName string

	// IncludeUsername includes the username attribute on IssueToken spans.
	// May contain personal data - disabled by default.
	IncludeUsername bool

	tracer trace.Tracer
}

// TracingOption configures the OpenTelemetry wrapper.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithIncludeUsername enables the username attribute on IssueToken spans.
func WithIncludeUsername(include bool) TracingOption {
	return func(c *TracingConfig) {
		c.IncludeUsername = include
	}
}

// tracedAPI wraps an API with OpenTelemetry spans.
type tracedAPI struct {
	next API
	cfg  TracingConfig
}

// WithTracing wraps an API so every backend call runs inside a span.
// Token values never appear in span attributes; only outcomes do.
//
//	api := tokenapi.WithTracing(tokenapi.NewRedisAPI(creds, client))
func WithTracing(next API, opts ...TracingOption) API {
	cfg := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.tracer = otel.Tracer(cfg.TracerName)

	return &tracedAPI{next: next, cfg: cfg}
}

func (t *tracedAPI) IssueToken(ctx context.Context, username, password string) (string, error) {
	ctx, span := t.cfg.tracer.Start(ctx, "tokenapi.IssueToken",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if t.cfg.IncludeUsername {
		span.SetAttributes(attribute.String("auth.username", username))
	}

	token, err := t.next.IssueToken(ctx, username, password)
	t.finish(span, token, err)
	return token, err
}

func (t *tracedAPI) Status(ctx context.Context, token string) (string, error) {
	ctx, span := t.cfg.tracer.Start(ctx, "tokenapi.Status",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	refreshed, err := t.next.Status(ctx, token)
	t.finish(span, refreshed, err)
	return refreshed, err
}

func (t *tracedAPI) Revoke(ctx context.Context, token string) error {
	ctx, span := t.cfg.tracer.Start(ctx, "tokenapi.Revoke",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	err := t.next.Revoke(ctx, token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}

func (t *tracedAPI) finish(span trace.Span, token string, err error) {
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case token == "":
		span.SetAttributes(attribute.Bool("auth.denied", true))
		span.SetStatus(codes.Ok, "")
	default:
		span.SetStatus(codes.Ok, "")
	}
}

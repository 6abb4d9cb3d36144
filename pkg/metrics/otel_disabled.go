//go:build !otel
// +build !otel

// otel_disabled.go is the default build: hmdctl ships without a hard
// dependency on the OpenTelemetry SDK, so NewOTelTracer degrades to a no-op
// rather than failing to build. Build with -tags otel to get otel_enabled.go
// instead, wiring handshake/call spans into a real OTel exporter.
package metrics

import "context"

// OTelTracer is a stub tracer when built without OpenTelemetry support.
type OTelTracer struct{}

// NewOTelTracer returns a no-op tracer when OpenTelemetry is not enabled.
// serviceName is accepted for API parity with the otel-tagged build and
// otherwise ignored.
func NewOTelTracer(serviceName string) *OTelTracer {
	return &OTelTracer{}
}

// StartSpan returns a no-op span.
func (t *OTelTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	return ctx, func(err error) {}
}

// OTelEnabled reports whether OpenTelemetry support is built in.
func OTelEnabled() bool {
	return false
}

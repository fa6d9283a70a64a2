package tracing

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"ccswitch-hq/ccswitch/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		config      *config.TracingConfig
		wantErr     bool
		wantEnabled bool
	}{
		{
			name:    "nil config",
			wantErr: true,
		},
		{
			name:   "disabled",
			config: &config.TracingConfig{Enabled: false, ServiceName: "test"},
		},
		{
			name: "enabled otlp",
			config: &config.TracingConfig{
				Enabled:     true,
				Endpoint:    "localhost:4317",
				Insecure:    true,
				SampleRatio: 0.5,
				ServiceName: "test",
			},
			wantEnabled: true,
		},
		{
			name: "invalid ratio",
			config: &config.TracingConfig{
				Enabled:     true,
				Endpoint:    "localhost:4317",
				SampleRatio: 2,
				ServiceName: "test",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, err := New(tt.config, "test")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer tracer.Shutdown(context.Background())

			if tracer.Enabled() != tt.wantEnabled {
				t.Errorf("expected enabled=%v, got %v", tt.wantEnabled, tracer.Enabled())
			}
			if tracer.Tracer() == nil {
				t.Error("expected a tracer")
			}
		})
	}
}

func TestTracer_DisabledRecordsNothing(t *testing.T) {
	tracer, err := New(&config.TracingConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, span := tracer.Start(context.Background(), "route")
	span.End()

	if span.SpanContext().IsValid() {
		t.Error("noop span should have an invalid span context")
	}
	if TraceID(ctx) != "" {
		t.Error("expected empty trace id for noop span")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}

func TestTracer_ExportsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	cfg := &config.TracingConfig{SampleRatio: 1, ServiceName: "ccswitch-test"}

	tracer, err := NewWithExporter(cfg, "1.2.3", exporter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer tracer.Shutdown(context.Background())

	ctx, parent := tracer.Start(context.Background(), "ccswitch.route")
	_, child := tracer.Start(ctx, "ccswitch.attempt")
	child.End()
	parent.End()

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name != "ccswitch.attempt" || spans[1].Name != "ccswitch.route" {
		t.Errorf("unexpected span order %s, %s", spans[0].Name, spans[1].Name)
	}
	if spans[0].Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Error("attempt span should be a child of the route span")
	}
	if TraceID(ctx) != spans[1].SpanContext.TraceID().String() {
		t.Error("TraceID should report the route's trace")
	}

	var service, version string
	for _, attr := range spans[1].Resource.Attributes() {
		switch attr.Key {
		case "service.name":
			service = attr.Value.AsString()
		case "service.version":
			version = attr.Value.AsString()
		}
	}
	if service != "ccswitch-test" || version != "1.2.3" {
		t.Errorf("unexpected resource service=%q version=%q", service, version)
	}
}

func TestTracer_InstallsPropagator(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := NewWithExporter(&config.TracingConfig{SampleRatio: 1}, "test", exporter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer tracer.Shutdown(context.Background())

	ctx, span := tracer.Start(context.Background(), "route")
	defer span.End()

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if carrier.Get("traceparent") == "" {
		t.Error("expected traceparent to be injected")
	}
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		ratio   float64
		wantErr bool
		sampled bool
	}{
		{1, false, true},
		{0, false, false},
		{0.5, false, false},
		{-0.1, true, false},
		{1.1, true, false},
	}

	for _, tt := range tests {
		sampler, err := newSampler(tt.ratio)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ratio %v: expected error", tt.ratio)
			}
			continue
		}
		if err != nil {
			t.Errorf("ratio %v: unexpected error: %v", tt.ratio, err)
			continue
		}
		if tt.ratio == 0.5 {
			continue
		}

		result := sampler.ShouldSample(sdktrace.SamplingParameters{ParentContext: context.Background()})
		if got := result.Decision == sdktrace.RecordAndSample; got != tt.sampled {
			t.Errorf("ratio %v: expected sampled=%v, got %v", tt.ratio, tt.sampled, got)
		}
	}
}

package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewProviders_NoEndpointIsNoop(t *testing.T) {
	for _, endpoint := range []string{"", "   "} {
		providers, err := NewProviders(context.Background(), endpoint, "test-service", false)
		if err != nil {
			t.Fatalf("NewProviders(%q): %v", endpoint, err)
		}
		if providers.TracerProvider == nil || providers.MeterProvider == nil || providers.LoggerProvider == nil {
			t.Errorf("NewProviders(%q) returned nil providers", endpoint)
		}
		if err := providers.Shutdown(context.Background()); err != nil {
			t.Errorf("no-op Shutdown: %v", err)
		}
	}
}

func TestNewProviders_BadEndpoints(t *testing.T) {
	cases := []struct {
		name, endpoint string
	}{
		{"unparseable", "http://[::1:4317"},
		{"missing host", "http://"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewProviders(context.Background(), tc.endpoint, "test-service", false); err == nil {
				t.Errorf("NewProviders(%q) accepted", tc.endpoint)
			}
		})
	}
}

func TestNewProviders_EndpointNormalization(t *testing.T) {
	// Exporter construction does not dial, so provider creation succeeds for
	// any well-formed endpoint.
	cases := []struct {
		name, endpoint string
	}{
		{"bare host:port", "localhost:4317"},
		{"http scheme", "http://localhost:4317"},
		{"https scheme", "https://collector.example.com:4317"},
		{"path dropped", "http://localhost:4317/v1/traces"},
		{"https with insecure override", "https://collector.example.com:4317"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			providers, err := NewProviders(context.Background(), tc.endpoint, "test-service", tc.name == "https with insecure override")
			if err != nil {
				t.Fatalf("NewProviders(%q): %v", tc.endpoint, err)
			}
			if providers.TracerProvider == nil || providers.MeterProvider == nil || providers.LoggerProvider == nil {
				t.Error("missing providers")
			}
			_ = providers.Shutdown(context.Background())
		})
	}
}

func TestSetGlobal(t *testing.T) {
	prevTracer := otel.GetTracerProvider()
	prevMeter := otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(prevTracer)
		otel.SetMeterProvider(prevMeter)
	}()

	providers, err := NewProviders(context.Background(), "", "test-service", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	providers.SetGlobal()
	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Errorf("global tracer provider = %T, want the configured SDK provider", otel.GetTracerProvider())
	}

	// Nil fields leave the globals untouched rather than clearing them.
	(&Providers{}).SetGlobal()
	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Error("SetGlobal with nil providers clobbered the global tracer provider")
	}
}

package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupWithoutEndpoints(t *testing.T) {
	tel, err := Setup(context.Background(), "analytics-export-test", Config{})
	require.NoError(t, err)
	require.Equal(t, Telemetry{}, tel)
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestSetupHttpEndpoint(t *testing.T) {
	var traceExports atomic.Int32
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/traces" {
			traceExports.Add(1)
		}
		w.Header().Set("content-type", "application/x-protobuf")
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	tracerProvider := otel.GetTracerProvider()
	meterProvider := otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(tracerProvider)
		otel.SetMeterProvider(meterProvider)
	})

	tel, err := Setup(context.Background(), "analytics-export-test", Config{
		Otlp: OtlpConfig{
			Traces:  OtlpConnConfig{HttpEndpoint: collector.URL + "/v1/traces"},
			Metrics: OtlpConnConfig{HttpEndpoint: collector.URL + "/v1/metrics"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, tel.TracerProvider)
	require.NotNil(t, tel.MeterProvider)
	require.Same(t, tel.TracerProvider, otel.GetTracerProvider())

	_, span := otel.Tracer("telemetry_test").Start(context.Background(), "TestSetupHttpEndpoint")
	span.End()
	counter, err := otel.Meter("telemetry_test").Int64Counter("runs")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	require.NoError(t, tel.Shutdown(context.Background()))
	require.EqualValues(t, 1, traceExports.Load())
}

func TestOtlpConnConfigTransport(t *testing.T) {
	both := OtlpConnConfig{GrpcEndpoint: "http://localhost:4317", HttpEndpoint: "http://localhost:4318/v1/traces"}
	require.True(t, both.useGrpc())
	require.Equal(t, "http://localhost:4317", both.endpoint())

	httpOnly := OtlpConnConfig{HttpEndpoint: "http://localhost:4318/v1/traces"}
	require.False(t, httpOnly.useGrpc())
	require.Equal(t, "http://localhost:4318/v1/traces", httpOnly.endpoint())
	require.True(t, httpOnly.enabled())
	require.False(t, OtlpConnConfig{}.enabled())
}

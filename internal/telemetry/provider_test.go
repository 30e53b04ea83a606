package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
)

// resetGlobalProvider leaves a no-op provider installed after the test.
func resetGlobalProvider(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })
}

func TestSetup_EmptyEndpoint(t *testing.T) {
	resetGlobalProvider(t)
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	require.Equal(t, before, otel.GetTracerProvider())
}

func TestSetup_InvalidEndpoint(t *testing.T) {
	resetGlobalProvider(t)

	for _, endpoint := range []string{"localhost:4318", "ftp://collector/v1/traces", "http://"} {
		_, err := Setup(context.Background(), endpoint)
		require.Error(t, err, endpoint)
	}
}

func TestSetup_ExportsSpans(t *testing.T) {
	resetGlobalProvider(t)

	var (
		mu    sync.Mutex
		paths []string
	)
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/x-protobuf")
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	shutdown, err := Setup(context.Background(), collector.URL+"/v1/traces")
	require.NoError(t, err)

	_, span := otel.Tracer(TracerName).Start(context.Background(), "http GET")
	span.End()

	require.NoError(t, shutdown(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, paths)
	require.Equal(t, "POST /v1/traces", paths[0])
}

package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/wflguard/pkg/metrics"
	"github.com/dukex/wflguard/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp() *fiber.App {
	registry := prometheus.NewRegistry()
	svc := services.NewValidation(services.WithMetrics(metrics.New(registry)))

	return NewAPI(slog.Default(), svc, registry).App()
}

func get(t *testing.T, app *fiber.App, method, target, body string) (int, string) {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(raw)
}

func TestAPI_RootEndpoint(t *testing.T) {
	status, body := get(t, setupTestApp(), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "wflguard API", body)
}

func TestAPI_HealthCheck(t *testing.T) {
	app := setupTestApp()

	for _, target := range []string{"/livez", "/readyz", "/health"} {
		status, _ := get(t, app, http.MethodGet, target, "")
		assert.Equal(t, http.StatusOK, status, target)
	}
}

func TestAPI_MetricsAfterValidation(t *testing.T) {
	app := setupTestApp()

	status, _ := get(t, app, http.MethodPost, "/validate", okWorkflow)
	require.Equal(t, http.StatusOK, status)

	status, _ = get(t, app, http.MethodPost, "/validate", endFirstWorkflow)
	require.Equal(t, http.StatusUnprocessableEntity, status)

	status, body := get(t, app, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `wflguard_validations_total{kind="none",stage="complete"} 1`)
	assert.Contains(t, body, `wflguard_validations_total{kind="StructuralViolation",stage="end_placement"} 1`)
	assert.Contains(t, body, "wflguard_validation_duration_seconds_bucket")
}

func TestCatalogCommand(t *testing.T) {
	var out bytes.Buffer

	app := newApp()
	app.Writer = &out

	require.NoError(t, app.Run(context.Background(), []string{"wflguard", "catalog"}))
	assert.Contains(t, out.String(), "{")
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"chainvault/internal/config"
	"chainvault/internal/db"
	"chainvault/internal/db/testutil"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_AllUp(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	defer testDB.Close(t)

	ctx := context.Background()
	require.NoError(t, testDB.Pool.Ping(ctx))

	database := db.NewFromPool(testDB.Pool)
	cfg := config.Load()

	handler := NewHealthHandler(database, cfg)
	app := fiber.New()
	handler.RegisterRoutes(app)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)

	var body HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "up", body.Services["database"])
	assert.Equal(t, "up", body.Services["api"])
	assert.NotZero(t, body.Timestamp)
}

func TestHealth_DBDown(t *testing.T) {
	handler := NewHealthHandler(nil, config.Load())
	app := fiber.New()
	handler.RegisterRoutes(app)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)

	var body HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "not_configured", body.Services["database"])
}

func TestHealthReady_DBDown(t *testing.T) {
	handler := NewHealthHandler(nil, config.Load())
	app := fiber.New()
	handler.RegisterRoutes(app)

	req := httptest.NewRequest("GET", "/health/ready", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 503, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, "not_ready", body["status"])
	assert.Equal(t, "database_unavailable", body["reason"])
}

func TestHealthLive_Always200(t *testing.T) {
	handler := NewHealthHandler(nil, nil)
	app := fiber.New()
	handler.RegisterRoutes(app)

	req := httptest.NewRequest("GET", "/health/live", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "alive", body["status"])
}

package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck_Success(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)

	// Health is served without the envelope so probes can read it directly.
	var healthResp HealthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &healthResp))

	assert.Equal(t, "healthy", healthResp.Status)
	assert.Equal(t, Version, healthResp.Version)
	assert.Equal(t, "healthy", healthResp.Components["store"].Status)
	assert.Equal(t, "healthy", healthResp.Components["lookup"].Status)
}

package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinyresponder/internal/config"
	"tinyresponder/internal/transport"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TestStatusEndpoints はステータスエンドポイントをテストする
func TestStatusEndpoints(t *testing.T) {
	srv, _ := mockServer(t, testConfig())
	status := NewStatusServer(srv.config, srv.Stats(), srv.registry, testLogger())

	testCases := []struct {
		name           string
		endpoint       string
		expectedStatus int
	}{
		{"ヘルスチェックエンドポイント", "/health", http.StatusOK},
		{"ステータスエンドポイント", "/api/status", http.StatusOK},
		{"メトリクスエンドポイント", "/metrics", http.StatusOK},
		{"存在しないパス", "/nope", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.endpoint, nil)
			status.Handler().ServeHTTP(w, req)

			assert.Equal(t, tc.expectedStatus, w.Code)
		})
	}
}

// TestStatusReflectsLoop は応答ループの処理結果がステータスに反映されることをテストする
func TestStatusReflectsLoop(t *testing.T) {
	cfg := testConfig()
	srv, _ := mockServer(t, cfg)
	ln, cancel, errCh := serveMock(t, srv)

	conn := transport.NewMockConn([]byte("GET / HTTP/1.1\r\n\r\n"))
	ln.Push(conn)
	waitClosed(t, conn)
	cancel()
	require.NoError(t, waitErr(t, errCh))

	status := NewStatusServer(cfg, srv.Stats(), srv.registry, testLogger())

	w := httptest.NewRecorder()
	status.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "running", resp.Status)
	assert.Equal(t, 5, resp.Server.Backlog)
	assert.Equal(t, config.PolicyStatic, resp.Server.Policy)
	assert.Empty(t, resp.Server.Framing)
	assert.Equal(t, uint64(1), resp.Loop.Served)
	assert.Equal(t, uint64(18), resp.Loop.BytesRead)
	assert.Equal(t, uint64(len(staticPayload)), resp.Loop.BytesWritten)
	assert.Equal(t, StateIdle, resp.Loop.State)
	assert.Equal(t, "127.0.0.1:40000", resp.Loop.LastRemote)

	w = httptest.NewRecorder()
	status.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "tinyresponder_connections_total 1")
	assert.Contains(t, body, fmt.Sprintf("tinyresponder_response_bytes_total %d", len(staticPayload)))
	assert.Contains(t, body, "tinyresponder_serving 0")
}

// TestStatusServerStartAndShutdown は実際のリスナーでの起動と停止をテストする
func TestStatusServerStartAndShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.Status.Enabled = true
	cfg.Status.Port = 0

	srv, _ := mockServer(t, cfg)
	status := NewStatusServer(cfg, srv.Stats(), srv.registry, testLogger())
	require.NoError(t, status.Start())

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/health", status.Addr()))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"healthy"`)

	require.NoError(t, status.Shutdown())
}

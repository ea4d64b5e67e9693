package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zhouzirui/reminder-bot/backend/internal/config"
	"github.com/zhouzirui/reminder-bot/backend/internal/handler/reminder"
	reminderService "github.com/zhouzirui/reminder-bot/backend/internal/service/reminder"
)

func setupRouter(t *testing.T, shared bool) (http.Handler, *reminderService.Service) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>reminder bot</h1>"), 0o600))

	cfg := config.ServerConfig{
		HTTPAddr:       ":4444",
		WSAddr:         ":5555",
		StaticDir:      dir,
		AllowedOrigins: []string{"*"},
	}
	if shared {
		cfg.WSAddr = cfg.HTTPAddr
	}

	svc := reminderService.NewService()
	t.Cleanup(svc.Shutdown)
	metrics := reminderService.NewMetrics("reminder_bot")
	ws := reminder.NewWebSocketHandler(svc, zap.NewNop(), 4)
	return NewRouter(cfg, svc, metrics, ws, zap.NewNop()), svc
}

func TestHealthz(t *testing.T) {
	r, _ := setupRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["activeSessions"])
}

func TestStaticFiles(t *testing.T) {
	r, _ := setupRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "reminder bot")
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := setupRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "reminder_bot_active_sessions")
}

func TestSharedListenerUpgradesRoot(t *testing.T) {
	r, svc := setupRouter(t, true)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, greeting, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(greeting), "Greetings, friend!")
	assert.Equal(t, 1, svc.ActiveSessions())
}

func TestWebSocketRouterServesRoot(t *testing.T) {
	svc := reminderService.NewService()
	defer svc.Shutdown()
	ws := reminder.NewWebSocketHandler(svc, zap.NewNop(), 4)
	srv := httptest.NewServer(NewWebSocketRouter(config.ServerConfig{AllowedOrigins: []string{"*"}}, ws, zap.NewNop()))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("clear all reminders")))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, greeting, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(greeting), "Greetings")
	_, reply, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "Ok, I have cleared all of your reminders.", string(reply))
}

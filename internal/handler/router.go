package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/reminder-bot/backend/internal/config"
	"github.com/zhouzirui/reminder-bot/backend/internal/handler/reminder"
	middlewarePkg "github.com/zhouzirui/reminder-bot/backend/internal/middleware"
	reminderService "github.com/zhouzirui/reminder-bot/backend/internal/service/reminder"
	"github.com/zhouzirui/reminder-bot/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. When the websocket shares the
// HTTP listener, an upgrade request on "/" reaches the chat handler as well.
func NewRouter(cfg config.ServerConfig, reminderSvc *reminderService.Service, metrics *reminderService.Metrics, ws *reminder.WebSocketHandler, logger *zap.Logger) http.Handler {
	r := newBaseRouter(cfg, logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":         "ok",
			"activeSessions": reminderSvc.ActiveSessions(),
		}); err != nil {
			logger.Warn("write health response failed", zap.Error(err))
		}
	})

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	ws.RegisterWebSocketRoutes(r)

	static := http.FileServer(http.Dir(cfg.StaticDir))
	shared := cfg.SharedListener()
	r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if shared && websocket.IsWebSocketUpgrade(req) {
			ws.ServeHTTP(w, req)
			return
		}
		static.ServeHTTP(w, req)
	}))

	return r
}

// NewWebSocketRouter serves only the chat endpoint, for a dedicated
// websocket listener.
func NewWebSocketRouter(cfg config.ServerConfig, ws *reminder.WebSocketHandler, logger *zap.Logger) http.Handler {
	r := newBaseRouter(cfg, logger)
	r.Get("/", ws.ServeHTTP)
	ws.RegisterWebSocketRoutes(r)
	return r
}

func newBaseRouter(cfg config.ServerConfig, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger(logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(cfg.AllowedOrigins))

	return r
}

package reminder

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	reminderservice "github.com/zhouzirui/reminder-bot/backend/internal/service/reminder"
	"github.com/zhouzirui/reminder-bot/backend/pkg/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
)

var errConnectionClosed = errors.New("connection closed")

// WebSocketHandler 把每个 WebSocket 连接绑定到一个提醒会话
type WebSocketHandler struct {
	reminderSvc *reminderservice.Service
	logger      *zap.Logger
	sendBuffer  int
	upgrader    websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(reminderSvc *reminderservice.Service, logger *zap.Logger, sendBuffer int) *WebSocketHandler {
	if sendBuffer < 1 {
		sendBuffer = 16
	}
	return &WebSocketHandler{
		reminderSvc: reminderSvc,
		logger:      logger.Named("websocket"),
		sendBuffer:  sendBuffer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws", h.ServeHTTP)
}

// connection is the outbound side of one socket. Send waits for room in the
// queue until the connection is torn down; writePump is the single writer of
// the underlying conn.
type connection struct {
	conn *websocket.Conn
	send chan string
	done <-chan struct{}
}

func (c *connection) Send(text string) error {
	select {
	case <-c.done:
		return errConnectionClosed
	default:
	}

	select {
	case c.send <- text:
		return nil
	case <-c.done:
		return errConnectionClosed
	}
}

// ServeHTTP 处理WebSocket连接
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		if err := utils.RespondError(w, http.StatusBadRequest, "websocket upgrade required"); err != nil {
			h.logger.Warn("write response failed", zap.Error(err))
		}
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	out := &connection{
		conn: conn,
		send: make(chan string, h.sendBuffer),
		done: ctx.Done(),
	}

	session, err := h.reminderSvc.Open(ctx, out)
	if err != nil {
		h.logger.Error("open session failed", zap.Error(err))
		return
	}
	logger := h.logger.With(
		zap.String("sessionID", session.ID()),
		zap.String("remoteAddr", r.RemoteAddr),
	)
	logger.Info("connection established")

	go h.writePump(ctx, cancel, out, logger)

	defer func() {
		// release a sender blocked on a full queue before taking the session lock
		cancel()
		if err := h.reminderSvc.Close(session.ID()); err != nil {
			logger.Warn("close session failed", zap.Error(err))
		}
		logger.Info("connection closed")
	}()

	h.readLoop(conn, session, logger)
}

func (h *WebSocketHandler) readLoop(conn *websocket.Conn, session *reminderservice.Session, logger *zap.Logger) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("read error", zap.Error(err))
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(pongWait))

		if messageType != websocket.TextMessage {
			logger.Warn("binary messages not supported")
			continue
		}

		if err := session.Receive(string(data)); err != nil {
			logger.Warn("reply dropped", zap.Error(err))
		}
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (h *WebSocketHandler) writePump(ctx context.Context, cancel context.CancelFunc, out *connection, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		out.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			out.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = out.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case text := <-out.send:
			out.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := out.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
				logger.Warn("write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			out.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := out.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Warn("ping failed", zap.Error(err))
				return
			}
		}
	}
}

package socket

import (
	"net/http"
	"strings"
	"time"

	"tripmate_server/logging"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	defaultPongWait   = 60 * time.Second
	defaultWriteWait  = 10 * time.Second
	maxInboundMessage = 4096
)

// WebSocketHandler upgrades /ws?userId=<id> and registers the connection as the
// user's push channel until it closes. Inbound messages are ignored.
type WebSocketHandler struct {
	registrar Registrar
	upgrader  websocket.Upgrader
	pongWait  time.Duration
	writeWait time.Duration
	log       zerolog.Logger
}

// NewWebSocketHandler creates the handler. checkOrigin may be nil to allow any origin.
func NewWebSocketHandler(registrar Registrar, checkOrigin func(*http.Request) bool) *WebSocketHandler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &WebSocketHandler{
		registrar: registrar,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		pongWait:  defaultPongWait,
		writeWait: defaultWriteWait,
		log:       logging.Component("websocket"),
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("user_id", userID).Msg("⚠️ websocket upgrade failed")
		return
	}

	ch := NewWebSocketChannel(conn, h.writeWait)
	handle := h.registrar.RegisterConnection(userID, ch)
	h.log.Info().Str("user_id", userID).Int("reconnect_attempts", handle.ReconnectAttempts).Msg("✅ websocket connected")

	done := make(chan struct{})
	go h.keepAlive(ch, done)

	h.readLoop(conn)
	close(done)

	_ = ch.Close()
	released := h.registrar.ReleaseConnection(userID, ch)
	h.log.Info().Str("user_id", userID).Bool("released", released).Msg("❌ websocket disconnected")
}

// readLoop drains the connection so control frames are processed, returning on
// the first read error.
func (h *WebSocketHandler) readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(maxInboundMessage)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Msg("websocket read error")
			}
			return
		}
	}
}

func (h *WebSocketHandler) keepAlive(ch *WebSocketChannel, done <-chan struct{}) {
	ticker := time.NewTicker(h.pongWait * 9 / 10)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := ch.ping(); err != nil {
				return
			}
		}
	}
}

package socket

import (
	"context"
	"net/http"
	"strings"

	"tripmate_server/logging"
	"tripmate_server/services"

	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog"
)

// Registrar is how transports hand live channels to the matchmaking core.
type Registrar interface {
	RegisterConnection(userID string, ch services.Channel) services.ConnectionHandle
	ReleaseConnection(userID string, ch services.Channel) bool
}

// RegisterMessage is the payload of the "register" event.
type RegisterMessage struct {
	UserID string `json:"userId"`
}

// session is the part of socketio.Conn the handlers use.
type session interface {
	emitter
	Context() interface{}
	SetContext(ctx interface{})
}

// Server is the socket.io endpoint. A client emits "register" with its user id
// once connected and then receives match_created events.
type Server struct {
	io        *socketio.Server
	registrar Registrar
	log       zerolog.Logger
}

func NewServer(registrar Registrar) *Server {
	s := &Server{
		io:        socketio.NewServer(nil),
		registrar: registrar,
		log:       logging.Component("socketio"),
	}

	s.io.OnConnect("/", func(c socketio.Conn) error {
		s.log.Debug().Str("socket_id", c.ID()).Msg("✅ socket connected")
		return nil
	})
	s.io.OnEvent("/", "register", func(c socketio.Conn, msg RegisterMessage) {
		s.handleRegister(c, msg)
	})
	s.io.OnError("/", func(c socketio.Conn, err error) {
		id := ""
		if c != nil {
			id = c.ID()
		}
		s.log.Warn().Err(err).Str("socket_id", id).Msg("⚠️ socket error")
	})
	s.io.OnDisconnect("/", func(c socketio.Conn, reason string) {
		s.handleDisconnect(c, reason)
	})
	return s
}

func (s *Server) handleRegister(c session, msg RegisterMessage) {
	userID := strings.TrimSpace(msg.UserID)
	if userID == "" {
		s.log.Warn().Str("socket_id", c.ID()).Msg("❌ register without userId")
		c.Emit("register_error", map[string]string{"error": "userId is required"})
		return
	}

	// a socket that re-registers as another user releases its previous identity
	if prev, ok := c.Context().(*SocketIOChannel); ok {
		s.registrar.ReleaseConnection(prev.UserID(), prev)
		prev.close()
	}

	ch := NewSocketIOChannel(c, userID)
	c.SetContext(ch)
	handle := s.registrar.RegisterConnection(userID, ch)
	s.log.Info().Str("socket_id", c.ID()).Str("user_id", userID).Int("reconnect_attempts", handle.ReconnectAttempts).Msg("👤 user registered")
	c.Emit("registered", map[string]string{"userId": userID})
}

func (s *Server) handleDisconnect(c session, reason string) {
	ch, ok := c.Context().(*SocketIOChannel)
	if !ok {
		s.log.Debug().Str("socket_id", c.ID()).Str("reason", reason).Msg("❌ unregistered socket disconnected")
		return
	}
	ch.close()
	released := s.registrar.ReleaseConnection(ch.UserID(), ch)
	s.log.Info().Str("socket_id", c.ID()).Str("user_id", ch.UserID()).Bool("released", released).Str("reason", reason).Msg("❌ socket disconnected")
}

// Handler serves the socket.io protocol; mount it at /socket.io/.
func (s *Server) Handler() http.Handler {
	return s.io
}

// Serve runs the socket.io event loop until ctx is done. It implements suture.Service.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.io.Serve()
	}()

	select {
	case <-ctx.Done():
		if err := s.io.Close(); err != nil {
			s.log.Warn().Err(err).Msg("⚠️ error closing socket.io server")
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) String() string {
	return "socketio-server"
}

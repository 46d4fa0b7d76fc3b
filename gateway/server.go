package gateway

import (
	"chat-relay/protocol"
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type ServerConfig struct {
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	MaxMessageSize int64
}

// Server upgrades HTTP requests to websocket connections and runs one
// session per connection: a reader goroutine feeding Session.Handle and a
// writer goroutine draining the session sink.
type Server struct {
	ctx      context.Context
	gateway  *Gateway
	config   ServerConfig
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewServer ties every connection to ctx: cancelling it closes them all.
func NewServer(ctx context.Context, gateway *Gateway, config ServerConfig, log *slog.Logger) *Server {
	return &Server{
		ctx:     ctx,
		gateway: gateway,
		config:  config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Handle is the gin handler of the websocket route.
func (s *Server) Handle(c *gin.Context) {
	s.ServeHTTP(c.Writer, c.Request)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Info("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	session := s.gateway.NewSession()
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.write(conn, session.Sink())
	}()

	s.read(conn, session)

	session.Close()
	<-writerDone
	_ = conn.Close()
}

func (s *Server) read(conn *websocket.Conn, session *Session) {
	conn.SetReadLimit(s.config.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
	})

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			s.logReadError(err)
			return
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
		session.Handle(s.ctx, data)
	}
}

// write owns every write on conn. It stops when the session closes, when
// the server context ends or when the peer is unreachable.
func (s *Server) write(conn *websocket.Conn, sink *Sink) {
	ticker := time.NewTicker(s.config.PongTimeout * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-sink.Done():
			s.writeClose(conn, websocket.CloseNormalClosure)
			return
		case <-s.ctx.Done():
			s.writeClose(conn, websocket.CloseGoingAway)
			// Unblocks the reader.
			_ = conn.Close()
			return
		case e := <-sink.Events():
			payload, err := protocol.Marshal(e)
			if err != nil {
				s.log.Error("Event not encodable", "event", e.Name(), "error", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.log.Debug("Write failed", "error", err)
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.log.Debug("Ping failed", "error", err)
				_ = conn.Close()
				return
			}
		}
	}
}

func (s *Server) writeClose(conn *websocket.Conn, code int) {
	message := websocket.FormatCloseMessage(code, "")
	_ = conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(s.config.WriteTimeout))
}

func (s *Server) logReadError(err error) {
	var netErr net.Error
	switch {
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		s.log.Debug("Peer closed the connection", "error", err)
	case stderrors.As(err, &netErr) && netErr.Timeout():
		s.log.Info("Connection timed out", "error", err)
	default:
		s.log.Debug("Read stopped", "error", err)
	}
}

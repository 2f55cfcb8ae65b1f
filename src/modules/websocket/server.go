package websocket

import (
	"net/http"
	"sync"

	"github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

// Server pushes live monitor events to connected clients. Clients join a
// room named after their owner id; emits to an empty room are skipped by
// callers via HasSubscribers.
type Server struct {
	io     *socket.Server
	logger *zap.SugaredLogger

	mu    sync.RWMutex
	rooms map[string]int // owner id -> subscriber count
}

func NewServer(logger *zap.SugaredLogger) *Server {
	s := &Server{
		io:     socket.NewServer(nil, nil),
		logger: logger.With("service", "[websocket]"),
		rooms:  make(map[string]int),
	}

	s.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)

		client.On("subscribe", func(args ...any) {
			if len(args) == 0 {
				return
			}
			owner, ok := args[0].(string)
			if !ok || owner == "" {
				return
			}
			client.Join(socket.Room(owner))
			s.track(owner, 1)

			client.On("disconnect", func(...any) {
				s.track(owner, -1)
			})
		})
	})

	return s
}

func (s *Server) track(owner string, delta int) {
	s.mu.Lock()
	s.rooms[owner] += delta
	if s.rooms[owner] <= 0 {
		delete(s.rooms, owner)
	}
	s.mu.Unlock()
}

// Handler mounts the socket.io endpoint.
func (s *Server) Handler() http.Handler {
	return s.io.ServeHandler(nil)
}

// HasSubscribers reports whether any client listens for the owner.
func (s *Server) HasSubscribers(owner string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[owner] > 0
}

// EmitToOwner sends an event to every client subscribed to the owner. The
// emit is best-effort and never blocks the caller.
func (s *Server) EmitToOwner(owner, event string, payload any) {
	if err := s.io.To(socket.Room(owner)).Emit(event, payload); err != nil {
		s.logger.Debugf("emit %s to %s: %v", event, owner, err)
	}
}

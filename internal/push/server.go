package push

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/nolus-protocol/agg-gateway/internal/apperr"
)

const (
	staleAfter     = 5 * time.Minute
	reapInterval   = time.Minute
)

// Server is the push fan-out hub: it accepts connections, tracks
// sessions, and broadcasts typed payloads to whichever sessions
// subscribed to the matching topic.
type Server struct {
	upgrader    websocket.Upgrader
	maxSessions int
	log         *logrus.Entry

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewServer builds a push server accepting up to maxSessions concurrent
// connections.
func NewServer(maxSessions int) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		maxSessions: maxSessions,
		log:         logrus.WithField("component", "push"),
		sessions:    make(map[string]*Session),
	}
}

// SessionCount returns the number of currently connected sessions.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// HandleUpgrade upgrades an HTTP request to a WebSocket connection and
// registers the resulting session. It returns apperr.ServiceUnavailable
// when the session cap is already reached.
func (s *Server) HandleUpgrade(w http.ResponseWriter, r *http.Request) error {
	s.mu.RLock()
	full := len(s.sessions) >= s.maxSessions
	s.mu.RUnlock()
	if full {
		return apperr.ServiceUnavailable("push_sessions")
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return apperr.Internal("websocket upgrade failed", err)
	}

	sess := newSession(conn)
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	go func() {
		sess.readPump()
		s.remove(sess.id)
	}()
	go sess.writePump()

	return nil
}

func (s *Server) remove(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Broadcast delivers payload (marshaled to JSON) to every session
// subscribed to topic.
func (s *Server) Broadcast(topic Topic, payload any) {
	raw, err := json.Marshal(envelope{Topic: topic.String(), Data: payload})
	if err != nil {
		s.log.WithError(err).Error("failed to marshal push payload")
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		sess.deliver(topic, raw)
	}
}

type envelope struct {
	Topic string `json:"topic"`
	Data  any    `json:"data"`
}

// ReapStale runs until stopped, closing any session that has sent no
// control message (including pings) for longer than staleAfter. When
// stop is closed it closes every remaining session before returning.
func (s *Server) ReapStale(stop <-chan struct{}) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			s.mu.RLock()
			for _, sess := range s.sessions {
				sess.Close()
			}
			s.mu.RUnlock()
			return
		case <-ticker.C:
			s.reapOnce()
		}
	}
}

func (s *Server) reapOnce() {
	s.mu.RLock()
	var stale []*Session
	for _, sess := range s.sessions {
		if sess.idleSince() > staleAfter {
			stale = append(stale, sess)
		}
	}
	s.mu.RUnlock()

	for _, sess := range stale {
		s.log.WithField("session", sess.id).Info("closing stale session")
		sess.Close()
		s.remove(sess.id)
	}
}

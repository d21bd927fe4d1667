// Package push runs the outward-facing WebSocket server: clients
// subscribe to one or more topics (global price updates, a specific
// user address's leases/earn positions, a specific swap tracking ID)
// and Server.Broadcast delivers a JSON message to every session
// subscribed to its topic. Nothing in cmd/gateway calls Broadcast from
// the refresh fleet or the chain-event tap, so sessions receive only
// what a caller of Broadcast sends. A session that cannot keep up is
// dropped rather than allowed to back up the fan-out for everyone else.
package push

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	sendBuffer      = 256
	writeTimeout    = 5 * time.Second
	maxSendFailures = 3
)

// TopicKind classifies a subscription.
type TopicKind int

const (
	TopicPrices TopicKind = iota
	TopicUser
	TopicTx
)

// Topic is one subscribable channel: global prices, one user's address,
// or one swap tracking ID.
type Topic struct {
	Kind TopicKind
	Key  string // empty for TopicPrices, address for TopicUser, tracking id for TopicTx
}

func (t Topic) String() string {
	switch t.Kind {
	case TopicPrices:
		return "prices"
	case TopicUser:
		return "user:" + t.Key
	case TopicTx:
		return "tx:" + t.Key
	default:
		return "unknown"
	}
}

// Session is one connected client.
type Session struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	mu            sync.RWMutex
	subscriptions map[string]Topic
	lastActivity  time.Time

	sendFailures atomic.Int32
	closeOnce    sync.Once
	closed       chan struct{}

	log *logrus.Entry
}

func newSession(conn *websocket.Conn) *Session {
	id := uuid.NewString()
	return &Session{
		id:            id,
		conn:          conn,
		send:          make(chan []byte, sendBuffer),
		subscriptions: make(map[string]Topic),
		lastActivity:  time.Now(),
		closed:        make(chan struct{}),
		log:           logrus.WithField("session", id),
	}
}

// Subscribe adds a topic to this session's subscription set.
func (s *Session) Subscribe(t Topic) {
	s.mu.Lock()
	s.subscriptions[t.String()] = t
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// Unsubscribe removes a topic.
func (s *Session) Unsubscribe(t Topic) {
	s.mu.Lock()
	delete(s.subscriptions, t.String())
	s.mu.Unlock()
}

func (s *Session) subscribed(t Topic) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.subscriptions[t.String()]
	return ok
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.lastActivity)
}

// deliver enqueues a payload for this session if it carries the topic,
// dropping the message and counting a failure if the send buffer is
// full rather than blocking the fan-out loop.
func (s *Session) deliver(t Topic, payload []byte) {
	if !s.subscribed(t) {
		return
	}
	select {
	case s.send <- payload:
	default:
		if s.sendFailures.Add(1) >= maxSendFailures {
			s.log.Warn("session too slow, closing")
			s.Close()
		}
	}
}

// writePump drains the send channel to the socket until the session is
// closed.
func (s *Session) writePump() {
	for {
		select {
		case <-s.closed:
			return
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.Close()
				return
			}
		}
	}
}

// Close closes the underlying connection exactly once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.conn.Close()
	})
}

// inbound subscription/unsubscription control messages sent by a client
// over the same socket used for outbound push.
type controlMessage struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	Topic  string `json:"topic"`  // "prices" | "user" | "tx"
	Key    string `json:"key,omitempty"`
}

func parseTopic(msg controlMessage) (Topic, bool) {
	switch msg.Topic {
	case "prices":
		return Topic{Kind: TopicPrices}, true
	case "user":
		if msg.Key == "" {
			return Topic{}, false
		}
		return Topic{Kind: TopicUser, Key: msg.Key}, true
	case "tx":
		if msg.Key == "" {
			return Topic{}, false
		}
		return Topic{Kind: TopicTx, Key: msg.Key}, true
	default:
		return Topic{}, false
	}
}

// readPump processes inbound subscription control messages until the
// connection closes.
func (s *Session) readPump() {
	defer s.Close()
	s.conn.SetPingHandler(func(appData string) error {
		s.touch()
		return s.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeTimeout))
	})
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.touch()

		var msg controlMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		topic, ok := parseTopic(msg)
		if !ok {
			continue
		}
		switch msg.Action {
		case "subscribe":
			s.Subscribe(topic)
		case "unsubscribe":
			s.Unsubscribe(topic)
		}
	}
}

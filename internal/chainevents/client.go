// Package chainevents maintains a persistent CometBFT-compatible
// WebSocket subscription to the chain node and fans decoded events out
// to any number of local subscribers. There is no polling fallback —
// when the socket is down, dependent cache cells simply age, visibly,
// via Cached[T].AgeSecs.
package chainevents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// State is the client's connection state machine.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribing
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribing:
		return "subscribing"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// NewBlockEvent is a decoded CometBFT NewBlock event.
type NewBlockEvent struct {
	Height    string
	Time      time.Time
	ChainID   string
}

// TxEvent is a decoded CometBFT Tx event, still carrying its raw
// attribute list for downstream filtering.
type TxEvent struct {
	Hash       string
	Height     string
	Events     map[string][]string // event-type -> attribute values
}

// ContractExecEvent is a TxEvent narrowed to one that carries a contract
// address in a wasm or execute event, with that address already
// extracted. The address is not checked against any list of known
// contracts.
type ContractExecEvent struct {
	TxEvent
	ContractAddress string
}

// rpcSubscribeRequest is a CometBFT JSON-RPC subscribe call.
type rpcSubscribeRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      string         `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

type rpcEnvelope struct {
	Result struct {
		Query string          `json:"query"`
		Data  json.RawMessage `json:"data"`
		Events map[string][]string `json:"events"`
	} `json:"result"`
}

// Client subscribes to new_block and tx CometBFT events over a
// websocket and republishes them on internal broadcast channels.
type Client struct {
	wsURL       string
	dialer      *websocket.Dialer
	log         *logrus.Entry

	mu    sync.RWMutex
	state State

	newBlockSubs    []chan NewBlockEvent
	txSubs          []chan TxEvent
	contractExecSubs []chan ContractExecEvent
}

// New builds a client that will dial wsURL (a CometBFT "/websocket"
// endpoint) once Run is called.
func New(wsURL string) *Client {
	return &Client{
		wsURL:  wsURL,
		dialer: websocket.DefaultDialer,
		log:    logrus.WithField("component", "chainevents"),
	}
}

// State returns the client's current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// SubscribeNewBlock registers a channel that receives every decoded
// NewBlock event. The channel is buffered; slow subscribers drop events
// rather than stall the dispatch loop.
func (c *Client) SubscribeNewBlock(buffer int) <-chan NewBlockEvent {
	ch := make(chan NewBlockEvent, buffer)
	c.mu.Lock()
	c.newBlockSubs = append(c.newBlockSubs, ch)
	c.mu.Unlock()
	return ch
}

// SubscribeTx registers a channel that receives every decoded Tx event.
func (c *Client) SubscribeTx(buffer int) <-chan TxEvent {
	ch := make(chan TxEvent, buffer)
	c.mu.Lock()
	c.txSubs = append(c.txSubs, ch)
	c.mu.Unlock()
	return ch
}

// SubscribeContractExec registers a channel that receives the subset of
// Tx events that carry a contract address (see ContractExecEvent).
func (c *Client) SubscribeContractExec(buffer int) <-chan ContractExecEvent {
	ch := make(chan ContractExecEvent, buffer)
	c.mu.Lock()
	c.contractExecSubs = append(c.contractExecSubs, ch)
	c.mu.Unlock()
	return ch
}

func (c *Client) publishNewBlock(e NewBlockEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.newBlockSubs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (c *Client) publishTx(e TxEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.txSubs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (c *Client) publishContractExec(e ContractExecEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.contractExecSubs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Run dials, subscribes, and dispatches events until ctx is canceled.
// On any disconnect it reconnects with exponential backoff from 1s up
// to a 30s cap, resetting the backoff once a connection runs cleanly.
func (c *Client) Run(ctx context.Context) {
	backoff := minBackoff
	for {
		if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return
		}

		ran, err := c.runOnce(ctx)
		if err != nil {
			c.log.WithError(err).Warn("chain event stream disconnected")
		}
		if ran {
			backoff = minBackoff
		}

		c.setState(StateDisconnected)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (c *Client) runOnce(ctx context.Context) (ranCleanly bool, err error) {
	c.setState(StateConnecting)
	conn, _, err := c.dialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	c.setState(StateSubscribing)
	if err := c.subscribe(conn, "tm.event='NewBlock'", "newblock"); err != nil {
		return false, err
	}
	if err := c.subscribe(conn, "tm.event='Tx'", "tx"); err != nil {
		return false, err
	}

	c.setState(StateRunning)
	go c.watchClose(ctx, conn)

	for {
		if ctx.Err() != nil {
			return true, nil
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		c.dispatch(data)
	}
}

func (c *Client) watchClose(ctx context.Context, conn *websocket.Conn) {
	<-ctx.Done()
	_ = conn.Close()
}

func (c *Client) subscribe(conn *websocket.Conn, query, id string) error {
	req := rpcSubscribeRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "subscribe",
		Params:  map[string]any{"query": query},
	}
	return conn.WriteJSON(req)
}

func (c *Client) dispatch(raw []byte) {
	var env rpcEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.WithError(err).Debug("failed to decode event envelope")
		return
	}
	if env.Result.Events == nil {
		return
	}

	switch {
	case strings.Contains(env.Result.Query, "NewBlock"):
		c.publishNewBlock(decodeNewBlock(env.Result.Events))
	case strings.Contains(env.Result.Query, "Tx"):
		tx := decodeTx(env.Result.Events)
		c.publishTx(tx)
		if addr, ok := extractContractAddress(tx.Events); ok {
			c.publishContractExec(ContractExecEvent{TxEvent: tx, ContractAddress: addr})
		}
	}
}

func decodeNewBlock(events map[string][]string) NewBlockEvent {
	return NewBlockEvent{
		Height: firstOf(events, "block.height"),
		Time:   time.Now(),
	}
}

func decodeTx(events map[string][]string) TxEvent {
	return TxEvent{
		Hash:   firstOf(events, "tx.hash"),
		Height: firstOf(events, "tx.height"),
		Events: events,
	}
}

func extractContractAddress(events map[string][]string) (string, bool) {
	if addrs, ok := events["wasm._contract_address"]; ok && len(addrs) > 0 {
		return addrs[0], true
	}
	if addrs, ok := events["execute._contract_address"]; ok && len(addrs) > 0 {
		return addrs[0], true
	}
	return "", false
}

func firstOf(events map[string][]string, key string) string {
	if v, ok := events[key]; ok && len(v) > 0 {
		return v[0]
	}
	return ""
}

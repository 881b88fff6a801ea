package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// RawMessage is one undecoded JSON-RPC subscription notification delivered
// by a WSSource (spec §6). PoolID is resolved from the subscription's id
// for accountNotification messages; it is empty for logs/slot
// notifications, which carry their own identifying fields inside Params.
type RawMessage struct {
	Method string // "logsNotification" | "accountNotification" | "slotNotification"
	PoolID string
	Params json.RawMessage
}

// WSSource is the websocket JSON-RPC subscription client contract spec §6
// describes: logsSubscribe per DEX program, accountSubscribe per monitored
// pool, slotSubscribe for heartbeat, plus dynamic subscription of newly
// discovered pools.
type WSSource interface {
	// Connect dials the endpoint and issues the initial subscriptions for
	// programIDs and poolIDs. Messages arrive on the returned channel
	// until ctx is canceled or the connection drops.
	Connect(ctx context.Context, programIDs, poolIDs []string) (<-chan RawMessage, error)
	// SubscribePool adds a live accountSubscribe for a newly discovered
	// pool without tearing down the connection.
	SubscribePool(ctx context.Context, poolID string) error
	Close() error
}

// WSClient is the gorilla/websocket-backed WSSource implementation
// speaking the JSON-RPC subscription semantics of spec §6.
type WSClient struct {
	url  string
	conn *websocket.Conn
	out  chan RawMessage

	mu             sync.Mutex
	next           int
	pendingByReqID map[int]string // accountSubscribe request id -> pool id, until the server confirms
	poolBySubID    map[int64]string
}

// NewWSClient returns an unconnected client for url.
func NewWSClient(url string) *WSClient {
	return &WSClient{
		url:            url,
		pendingByReqID: make(map[int]string),
		poolBySubID:    make(map[int64]string),
	}
}

type subscribeRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// rpcMessage unifies the two shapes the subscription socket sends: a
// one-time {"id","result"} subscription confirmation, and a recurring
// {"method","params":{"subscription",...}} notification.
type rpcMessage struct {
	ID     *int            `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Method string          `json:"method,omitempty"`
	Params struct {
		Subscription int64           `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
}

// Connect implements WSSource.
func (c *WSClient) Connect(ctx context.Context, programIDs, poolIDs []string) (<-chan RawMessage, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("stream: dial %s: %w", c.url, err)
	}
	c.conn = conn
	c.out = make(chan RawMessage, 256)

	if err := c.send(subscribeRequest{JSONRPC: "2.0", ID: c.nextID(), Method: "slotSubscribe"}); err != nil {
		return nil, err
	}
	for _, programID := range programIDs {
		req := subscribeRequest{
			JSONRPC: "2.0", ID: c.nextID(), Method: "logsSubscribe",
			Params: []interface{}{
				map[string]interface{}{"mentions": []string{programID}},
				map[string]interface{}{"commitment": "processed"},
			},
		}
		if err := c.send(req); err != nil {
			return nil, err
		}
	}
	for _, poolID := range poolIDs {
		if err := c.subscribeAccount(poolID); err != nil {
			return nil, err
		}
	}

	go c.readLoop()
	return c.out, nil
}

// SubscribePool implements WSSource: dynamic subscription for a pool
// discovered after Connect (spec §6: "a subscription channel accepts
// pool_id strings at runtime for newly discovered pools").
func (c *WSClient) SubscribePool(ctx context.Context, poolID string) error {
	return c.subscribeAccount(poolID)
}

func (c *WSClient) subscribeAccount(poolID string) error {
	id := c.nextID()
	c.mu.Lock()
	c.pendingByReqID[id] = poolID
	c.mu.Unlock()

	req := subscribeRequest{
		JSONRPC: "2.0", ID: id, Method: "accountSubscribe",
		Params: []interface{}{
			poolID,
			map[string]interface{}{"encoding": "base64", "commitment": "processed"},
		},
	}
	return c.send(req)
}

func (c *WSClient) nextID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	return c.next
}

func (c *WSClient) send(req subscribeRequest) error {
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("stream: subscribe %s: %w", req.Method, err)
	}
	return nil
}

func (c *WSClient) readLoop() {
	defer close(c.out)
	for {
		var msg rpcMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if msg.ID != nil {
			c.resolveSubscription(*msg.ID, msg.Result)
			continue
		}
		if msg.Method == "" {
			continue
		}

		raw := RawMessage{Method: msg.Method, Params: msg.Params.Result}
		if msg.Method == "accountNotification" {
			c.mu.Lock()
			raw.PoolID = c.poolBySubID[msg.Params.Subscription]
			c.mu.Unlock()
		}
		select {
		case c.out <- raw:
		default:
			// backpressure: drop the overflow message rather than block the
			// read loop (spec §5: freshness dominates over completeness).
		}
	}
}

func (c *WSClient) resolveSubscription(reqID int, result json.RawMessage) {
	var subID int64
	if err := json.Unmarshal(result, &subID); err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if poolID, ok := c.pendingByReqID[reqID]; ok {
		c.poolBySubID[subID] = poolID
		delete(c.pendingByReqID, reqID)
	}
}

// Close implements WSSource.
func (c *WSClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

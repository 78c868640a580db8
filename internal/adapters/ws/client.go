package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/rally/pkg/logger"
	"github.com/okian/rally/pkg/metrics"
)

const writeDeadline = 10 * time.Second

// ErrClientClosed reports a send to a closed client.
var ErrClientClosed = errors.New("client closed")

// Client wraps a websocket connection as a Subscriber. Sends go through a
// bounded buffer drained by a writer goroutine, so a slow reader can never
// block a broadcast; overflowing messages are dropped and the next full
// snapshot restores the viewer's state.
type Client struct {
	id   string
	conn *websocket.Conn
	out  chan []byte
	log  logger.Logger
	once sync.Once
	done chan struct{}
}

// NewClient constructs a Client and starts its writer goroutine.
func NewClient(id string, conn *websocket.Conn, buffer int, log logger.Logger) *Client {
	if buffer < 1 {
		buffer = 16
	}
	c := &Client{
		id:   id,
		conn: conn,
		out:  make(chan []byte, buffer),
		log:  log,
		done: make(chan struct{}),
	}
	go c.writePump()
	return c
}

// ID returns the connection id.
func (c *Client) ID() string { return c.id }

// Send queues payload for delivery. It never blocks: when the buffer is
// full the payload is dropped. Only a closed client returns an error.
func (c *Client) Send(payload []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.out <- payload:
		return nil
	default:
		metrics.RecordBroadcastDrop()
		return nil
	}
}

// Close terminates the connection and stops the writer goroutine.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// writePump drains the outbound buffer onto the wire.
func (c *Client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.Close()
				return
			}
		}
	}
}

// ReadLoop consumes inbound frames until the connection drops, then calls
// onClose. Inbound text frames are treated as (idempotent) join signals via
// onJoin; everything else is ignored.
func (c *Client) ReadLoop(onJoin func(), onClose func()) {
	defer func() {
		c.Close()
		onClose()
	}()
	for {
		messageType, _, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType == websocket.TextMessage && onJoin != nil {
			onJoin()
		}
	}
}

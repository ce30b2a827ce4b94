package gateway

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSClient handles the WebSocket connection to the market gateway and message
// routing. The gateway pushes contract announcements and tick observations;
// the client subscribes per instrument as contracts appear.
type WSClient struct {
	url     string
	handler func([]byte)
	logger  *zap.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	args   []string
	closed bool
}

// NewWSClient creates a new WebSocket client with the given URL and logger.
func NewWSClient(url string, logger *zap.Logger) *WSClient {
	return &WSClient{url: url, logger: logger}
}

// SetMessageHandler sets the function to handle incoming messages.
func (c *WSClient) SetMessageHandler(h func([]byte)) {
	c.handler = h
}

// Connect establishes the WebSocket connection. It does not start the
// listener.
func (c *WSClient) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		c.logger.Error("failed to connect to gateway", zap.String("url", c.url), zap.Error(err))
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.closed = false
	c.mu.Unlock()

	c.logger.Info("gateway connected", zap.String("url", c.url))
	return nil
}

// Subscribe requests the tick stream for one instrument and remembers the
// topic for resubscription after a reconnect.
func (c *WSClient) Subscribe(symbol string) error {
	topic := "tick." + symbol

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("gateway: not connected")
	}
	c.args = append(c.args, topic)

	subMsg := map[string]interface{}{
		"op":   "subscribe",
		"args": []string{topic},
	}
	if err := c.conn.WriteJSON(subMsg); err != nil {
		return fmt.Errorf("gateway: subscribe %s: %w", symbol, err)
	}
	return nil
}

// Listen reads frames until Close, dispatching each to the handler and
// reconnecting with resubscription on read errors.
func (c *WSClient) Listen() {
	for {
		c.mu.Lock()
		conn, closed := c.conn, c.closed
		c.mu.Unlock()
		if closed || conn == nil {
			return
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed = c.closed
			c.mu.Unlock()
			if closed {
				return
			}
			c.logger.Error("gateway read error", zap.Error(err))

			// Retry reconnecting indefinitely
			for {
				time.Sleep(3 * time.Second)
				if err := c.reconnectAndResubscribe(); err != nil {
					c.logger.Warn("retrying gateway reconnect", zap.Error(err))
					continue
				}
				c.logger.Info("gateway reconnected")
				break
			}
			continue // Start listening again with the new connection
		}

		if c.handler != nil {
			c.handler(msg)
		}
	}
}

// Close shuts the connection down; Listen returns once it observes the close.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *WSClient) reconnectAndResubscribe() error {
	newConn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		newConn.Close()
		return nil
	}

	// Close the old connection if it exists
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = newConn

	if len(c.args) == 0 {
		return nil
	}

	subMsg := map[string]interface{}{
		"op":   "subscribe",
		"args": c.args,
	}
	if err := c.conn.WriteJSON(subMsg); err != nil {
		return fmt.Errorf("gateway: resubscribe failed: %w", err)
	}
	return nil
}

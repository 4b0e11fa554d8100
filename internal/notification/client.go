package notification

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10

	// Notifications are push only, inbound frames stay small
	maxMessageSize = 1024
)

// Client represents one websocket connection for a profile
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	profileID int64

	sendMux sync.Mutex
	closed  bool
}

func NewClient(hub *Hub, conn *websocket.Conn, profileID int64) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 64),
		profileID: profileID,
	}
}

func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) Close() {
	c.sendMux.Lock()
	defer c.sendMux.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// TrySend queues a frame without blocking. Returns false when the
// connection is already closed or the buffer is full. The mutex keeps
// Close from closing the channel mid-send.
func (c *Client) TrySend(data []byte) bool {
	c.sendMux.Lock()
	defer c.sendMux.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// readPump discards inbound frames; its job is keeping the pong handler
// alive and detecting disconnects.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

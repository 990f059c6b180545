package websocket

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single write to the peer
	writeWait = 10 * time.Second

	// pongWait is how long a connection may stay silent before it is
	// considered dead; pings go out at pingPeriod to keep it alive
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound frames; clients only send small
	// subscribe/unsubscribe control messages
	maxMessageSize = 512

	sendBufferSize = 256
)

// Client is one WebSocket connection attached to the hub. Outbound
// messages flow through the buffered send channel; the hub drops a
// client whose buffer stays full.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *slog.Logger
}

// NewClient creates a Client for an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: logger,
	}
}

// ReadPump reads control messages from the peer until the connection
// drops, then unregisters the client. Must run in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) && c.logger != nil {
				c.logger.Error("websocket read error", slog.Any("error", err))
			}
			return
		}
		c.handleMessage(message)
	}
}

// WritePump forwards hub messages to the peer and keeps the connection
// alive with periodic pings. Must run in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel; tell the peer we are done
				c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, payload []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, payload)
}

// handleMessage routes a control message from the peer. Subscribe and
// unsubscribe both require a company_id; anything else gets an error
// message back.
func (c *Client) handleMessage(data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("invalid message format")
		return
	}

	switch msg.Type {
	case MessageTypeSubscribe, MessageTypeUnsubscribe:
		if msg.CompanyID == "" {
			c.sendError("company_id is required")
			return
		}
		if msg.Type == MessageTypeSubscribe {
			c.hub.Subscribe(c, msg.CompanyID)
		} else {
			c.hub.Unsubscribe(c, msg.CompanyID)
		}
	default:
		c.sendError("unknown message type")
	}
}

// sendError queues an error message for the peer; dropped if the send
// buffer is full.
func (c *Client) sendError(errMsg string) {
	data, err := json.Marshal(WSMessage{
		Type:  MessageTypeError,
		Error: errMsg,
	})
	if err != nil {
		return
	}

	select {
	case c.send <- data:
	default:
	}
}

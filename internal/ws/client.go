package ws

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type client struct {
	conn   *websocket.Conn
	out    chan []byte
	hub    *Hub
	logger *zap.Logger
}

func (c *client) send(msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("attempted to send on closed ws client")
		}
	}()
	select {
	case c.out <- msg:
	default:
		c.logger.Debug("dropping ws message, client buffer full")
	}
}

// readPump discards inbound frames and detects disconnects.
func (c *client) readPump() {
	defer c.cleanup()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(2 * pingInterval))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * pingInterval))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.out:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) write(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(messageType, data)
}

func (c *client) cleanup() {
	c.hub.remove(c)
	close(c.out)
	_ = c.conn.Close()
}

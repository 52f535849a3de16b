package hub

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"

	"nhooyr.io/websocket"
)

// Client is one connected feed observer. The feed is one-way: inbound
// frames are read only to detect disconnection.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

func newClient(conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		id:   generateID(),
		conn: conn,
		send: make(chan []byte, 256),
		hub:  hub,
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(4096)
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && ctx.Err() == nil {
				slog.Debug("feed client read ended", "client", c.id, "error", err)
			}
			return
		}
		// Observers have nothing to say; frames are discarded.
	}
}

func (c *Client) writePump(ctx context.Context) {
	defer c.conn.Close(websocket.StatusNormalClosure, "")

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
				c.hub.unregisterClient(c)
				return
			}
		}
	}
}

func generateID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "client"
	}
	return hex.EncodeToString(buf)
}

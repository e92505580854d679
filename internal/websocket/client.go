package websocket

import (
	"context"
	"errors"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/clarus/internal/store"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second

	// The feed is server to client; inbound frames are only control traffic.
	maxInboundBytes = 512
)

// Client is one subscriber to a namespace's change feed.
type Client struct {
	hub  *Hub
	conn *ws.Conn
	ns   store.Namespace
	send chan []byte
}

func NewClient(hub *Hub, conn *ws.Conn, ns store.Namespace) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		ns:   ns,
		send: make(chan []byte, sendBufferSize),
	}
}

// Run subscribes the client and blocks until the connection ends.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	c.conn.SetReadLimit(maxInboundBytes)
	ctx = c.conn.CloseRead(ctx)

	if err := c.feed(ctx); err != nil && !errors.Is(err, context.Canceled) {
		c.conn.Close(ws.StatusGoingAway, "feed closed")
		return
	}
	c.conn.Close(ws.StatusNormalClosure, "")
}

// feed writes queued messages and keeps the connection alive with pings.
func (c *Client) feed(ctx context.Context) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return nil
			}
			if err := c.write(ctx, msg); err != nil {
				return err
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) write(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, ws.MessageText, msg)
}

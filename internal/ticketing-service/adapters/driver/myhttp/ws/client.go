package ws

import (
	"context"

	"github.com/gorilla/websocket"

	"busline/internal/ticketing-service/core/domain/dto"
)

type Client struct {
	ctx    context.Context
	conn   *websocket.Conn
	dis    *Dispatcher
	egress chan dto.SeatEvent
	tripId string
}

func NewClient(ctx context.Context, conn *websocket.Conn, dis *Dispatcher, tripId string) *Client {
	return &Client{
		ctx:    ctx,
		conn:   conn,
		dis:    dis,
		egress: make(chan dto.SeatEvent, 8),
		tripId: tripId,
	}
}

// ReadMessage drains the connection so pings and close frames are
// processed. Viewers never send anything we act on.
func (c *Client) ReadMessage() {
	defer c.dis.removeClient(c)

	c.conn.SetReadLimit(1024)

	// loop forever
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.dis.log.Action("ws_read_failed").Warn(err.Error())
			}
			break
		}
	}
}

func (c *Client) WriteMessage() {
	for {
		select {
		case <-c.ctx.Done():
			c.conn.Close()
			return
		case event, ok := <-c.egress:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				c.dis.removeClient(c)
				return
			}
		}
	}
}

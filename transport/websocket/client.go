package websocket

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/partyroom/game/coordinator"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	// Frames queued for a client before it is considered too slow.
	sendBufferSize = 256
)

var (
	ErrClientClosed   = errors.New("client is closed")
	ErrSendBufferFull = errors.New("client send buffer is full")
)

// Text frames answered directly by the transport without reaching the room
var (
	pingFrame = []byte("ping")
	pongFrame = []byte("pong")
)

// Client is one WebSocket connection attached to a room
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	resumeID  string
	log       logrus.FieldLogger
}

func newClient(conn *websocket.Conn, resumeID string, log logrus.FieldLogger) *Client {
	return &Client{
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		resumeID: resumeID,
		log:      log,
	}
}

// Send queues a frame for the write pump. A client whose buffer is full is
// closed rather than allowed to hold up the room.
func (c *Client) Send(frame []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	default:
		c.log.Warn("Send buffer full, closing client")
		c.Close()
		return ErrSendBufferFull
	}
}

// ResumeID returns the session id requested with the session query parameter
func (c *Client) ResumeID() string {
	return c.resumeID
}

// Close asks the write pump to send a close frame and shut the connection down
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return nil
}

// readPump pumps frames from the connection into the room until the
// connection fails, then disconnects from the room.
func (c *Client) readPump(room *coordinator.Room) {
	defer func() {
		if err := room.Disconnect(context.Background(), c); err != nil && !errors.Is(err, coordinator.ErrRoomClosed) {
			c.log.WithError(err).Warn("Failed to disconnect from room")
		}
		c.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("WebSocket error")
			}
			return
		}

		// Any traffic counts as liveness
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if bytes.Equal(message, pingFrame) {
			c.Send(pongFrame)
			continue
		}

		if err := room.Deliver(context.Background(), c, message); err != nil {
			c.log.WithError(err).Debug("Room stopped accepting messages")
			return
		}
	}
}

// writePump writes queued frames to the connection, one WebSocket message
// per frame, and pings the peer periodically.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.done:
			c.flush()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes whatever is still queued before the connection closes
func (c *Client) flush() {
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}

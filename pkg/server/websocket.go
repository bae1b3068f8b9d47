package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// sendBuffer is the number of pushes queued per client before it is
// considered too slow.
const sendBuffer = 32

// client is one WebSocket connection subscribed to a channel.
type client struct {
	conn    *websocket.Conn
	channel string
	send    chan []byte

	once sync.Once
	done chan struct{}
}

func newClient(conn *websocket.Conn, channel string) *client {
	return &client{
		conn:    conn,
		channel: channel,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
	}
}

// enqueue queues data without blocking. It returns false when the buffer
// is full.
func (c *client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// writeLoop drains the send queue and pings while idle. It closes the
// connection on exit.
func (c *client) writeLoop(writeWait, pingInterval time.Duration) error {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return err
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			return nil
		}
	}
}

// readLoop discards client frames and returns when the peer goes away.
// Pongs extend the read deadline.
func (c *client) readLoop(pingInterval time.Duration) error {
	defer c.close()

	wait := 2 * pingInterval
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(wait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				return err
			}
			return nil
		}
	}
}

// serveWebSocket upgrades the request and pushes channel transitions of
// sess until either side closes.
func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request, sess *Session, channel string) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Warn("websocket upgrade failed", "error", err)
		s.metrics.RecordWebSocketError("upgrade")
		return
	}

	c := newClient(conn, channel)
	if !sess.addClient(c) {
		conn.Close()
		return
	}
	s.metrics.RecordWebSocketOpen()
	sess.logger.Debug("push client connected", "channel", channel)

	// The page may have rendered before a transition this client missed.
	if data, err := json.Marshal(sess.stateMessage(channel)); err == nil {
		c.enqueue(data)
	}

	go func() {
		if err := c.readLoop(s.config.PingInterval); err != nil {
			sess.logger.Warn("websocket read error", "error", err)
			s.metrics.RecordWebSocketError("read")
		}
	}()

	if err := c.writeLoop(s.config.WriteWait, s.config.PingInterval); err != nil {
		sess.logger.Warn("websocket write error", "error", err)
		s.metrics.RecordWebSocketError("write")
	}
	c.close()

	sess.removeClient(c)
	s.metrics.RecordWebSocketClose()
	sess.logger.Debug("push client disconnected", "channel", channel)
}

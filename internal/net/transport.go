package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"SketchBoard/internal/auth"
	"SketchBoard/internal/state"
)

// ErrNotConnected is returned when sending on a closed connection.
var ErrNotConnected = errors.New("not connected")

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

// Options configures a room connection.
type Options struct {
	Server string
	RoomID string
	Token  string

	// OnPayload receives the payload of every chat frame for the room. It
	// runs on the read goroutine.
	OnPayload func(payload string)
	// OnClose fires once when the connection ends, with the cause.
	OnClose func(err error)
}

// Client is one WebSocket connection to a room server. There is no
// reconnect; a dropped connection is reported through OnClose.
type Client struct {
	opts Options
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
	err       error
	mu        sync.RWMutex
}

// DialURL builds the connect URL: token=<jwt> when the token is usable,
// guest=true otherwise.
func DialURL(server, token string, now time.Time) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	q := u.Query()
	if auth.Valid(token, now) {
		q.Set("token", token)
		q.Del("guest")
	} else {
		q.Set("guest", "true")
		q.Del("token")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Dial connects, sends the join handshake and starts the pumps.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	target, err := DialURL(opts.Server, opts.Token, time.Now())
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", opts.Server, err)
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(state.JoinEnvelope(opts.RoomID)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join room %s: %w", opts.RoomID, err)
	}
	log.Printf("[NET] Joined room %s at %s", opts.RoomID, opts.Server)

	c := &Client{
		opts: opts,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	go c.writePump()
	go c.readPump()
	return c, nil
}

func (c *Client) RoomID() string { return c.opts.RoomID }

// Send queues a chat frame carrying payload.
func (c *Client) Send(payload string) error {
	data, err := json.Marshal(state.ChatEnvelope(c.opts.RoomID, payload))
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	select {
	case <-c.done:
		return ErrNotConnected
	default:
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrNotConnected
	default:
		return fmt.Errorf("send buffer full: %w", ErrNotConnected)
	}
}

// Done is closed once the connection has ended.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err reports why the connection ended, nil while it is open or after Close.
func (c *Client) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Close ends the connection.
func (c *Client) Close() error {
	c.shutdown(nil)
	return nil
}

func (c *Client) shutdown(cause error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = cause
		c.mu.Unlock()

		close(c.done)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		c.conn.Close()

		if cause != nil {
			log.Printf("[NET] Connection closed: %v", cause)
		}
		if c.opts.OnClose != nil {
			c.opts.OnClose(cause)
		}
	})
}

func (c *Client) readPump() {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.shutdown(fmt.Errorf("server closed the connection: %w", err))
			} else {
				c.shutdown(fmt.Errorf("read: %w", err))
			}
			return
		}

		var env state.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("[NET] Dropping malformed frame: %v", err)
			continue
		}
		if env.Type != state.TypeChat || (env.RoomID != "" && env.RoomID != c.opts.RoomID) {
			continue
		}
		if c.opts.OnPayload != nil {
			c.opts.OnPayload(env.Message)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.shutdown(fmt.Errorf("write: %w", err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown(fmt.Errorf("ping: %w", err))
				return
			}
		}
	}
}

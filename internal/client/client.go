// Package client implements the simulator websocket transport: login,
// room management, and bounded-backoff reconnection. Reconnection is this
// client's responsibility; callers only observe a reconnect flag so the
// session layer can run its resume protocol.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ErrRetriesExhausted is returned when the reconnect budget is spent.
// It is fatal for the process and propagated, never swallowed.
var ErrRetriesExhausted = errors.New("client: reconnect retries exhausted")

// ErrLogin is returned when the login endpoint rejects the account.
var ErrLogin = errors.New("client: login failed")

// Options configures a Client.
type Options struct {
	WebsocketURI string
	LoginURI     string
	Username     string
	Password     string
	Avatar       string

	ReconnectRetries    int
	ReconnectBackoffSec float64
	ReconnectMaxBackSec float64
}

// Client is a websocket client for the simulator's line protocol.
type Client struct {
	opts  Options
	httpC *http.Client

	mu   sync.Mutex // guards conn swaps and writes
	conn *websocket.Conn

	rooms   map[string]bool
	roomsMu sync.Mutex

	userID         string
	reconnected    atomic.Bool
	reconnectCount atomic.Int32
}

// New creates a client; Connect must be called before use.
func New(opts Options) *Client {
	return &Client{
		opts:  opts,
		httpC: &http.Client{Timeout: 30 * time.Second},
		rooms: make(map[string]bool),
	}
}

// Connect dials the websocket endpoint.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.opts.WebsocketURI, nil)
	if err != nil {
		return fmt.Errorf("client: dial %s: %w", c.opts.WebsocketURI, err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// Close closes the websocket connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := c.conn.Close()
	c.conn = nil
	return err
}

// UserID returns the server-assigned user id after login.
func (c *Client) UserID() string { return c.userID }

// ReconnectCount returns the total number of successful reconnects.
func (c *Client) ReconnectCount() int { return int(c.reconnectCount.Load()) }

// ConsumeReconnectFlag reports whether the transport reconnected since the
// last call, clearing the flag.
func (c *Client) ConsumeReconnectFlag() bool {
	return c.reconnected.Swap(false)
}

// Login waits for the server's challenge string, exchanges it for an
// assertion at the login endpoint, and identifies the account.
func (c *Client) Login(ctx context.Context) error {
	clientID, challstr, err := c.awaitChallstr(ctx)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("name", c.opts.Username)
	form.Set("pass", c.opts.Password)
	form.Set("challstr", clientID+"|"+challstr)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.LoginURI,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("client: build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpC.Do(req)
	if err != nil {
		return fmt.Errorf("client: login request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d: %s", ErrLogin, resp.StatusCode, body)
	}

	// The login endpoint prefixes its JSON body with a ']' guard byte.
	var result struct {
		ActionSuccess bool   `json:"actionsuccess"`
		Assertion     string `json:"assertion"`
		CurUser       struct {
			UserID string `json:"userid"`
		} `json:"curuser"`
	}
	payload := body
	if len(payload) > 0 && payload[0] == ']' {
		payload = payload[1:]
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrLogin, err)
	}
	if !result.ActionSuccess || result.Assertion == "" {
		return fmt.Errorf("%w: %s", ErrLogin, body)
	}

	if err := c.SendMessage("", []string{"/trn " + c.opts.Username + ",0," + result.Assertion}); err != nil {
		return err
	}
	c.userID = result.CurUser.UserID
	log.Info().Str("user", c.opts.Username).Msg("Logged in")

	if c.opts.Avatar != "" {
		if err := c.SendMessage("", []string{"/avatar " + c.opts.Avatar}); err != nil {
			return err
		}
	}
	return nil
}

// awaitChallstr reads messages until the server's |challstr| arrives.
func (c *Client) awaitChallstr(ctx context.Context) (clientID, challstr string, err error) {
	for {
		msg, err := c.receiveRaw(ctx)
		if err != nil {
			return "", "", err
		}
		for _, line := range strings.Split(msg, "\n") {
			parts := strings.Split(line, "|")
			if len(parts) >= 4 && parts[1] == "challstr" {
				return parts[2], strings.Join(parts[3:], "|"), nil
			}
		}
	}
}

// JoinRoom joins a room and remembers it for rejoin-after-reconnect.
func (c *Client) JoinRoom(room string) error {
	if err := c.SendMessage("", []string{"/join " + room}); err != nil {
		return err
	}
	if room != "" {
		c.roomsMu.Lock()
		c.rooms[room] = true
		c.roomsMu.Unlock()
	}
	log.Debug().Str("room", room).Msg("Joined room")
	return nil
}

// LeaveRoom leaves a room and forgets it.
func (c *Client) LeaveRoom(room string) error {
	c.roomsMu.Lock()
	delete(c.rooms, room)
	c.roomsMu.Unlock()
	return c.SendMessage("", []string{"/leave " + room})
}

// SendMessage writes "room|part|part..." to the socket, reconnecting on
// transport failure.
func (c *Client) SendMessage(room string, parts []string) error {
	message := room + "|" + strings.Join(parts, "|")
	for {
		c.mu.Lock()
		conn := c.conn
		var err error
		if conn == nil {
			err = errors.New("client: not connected")
		} else {
			err = conn.WriteMessage(websocket.TextMessage, []byte(message))
		}
		c.mu.Unlock()

		if err == nil {
			log.Debug().Str("msg", message).Msg("Sent")
			if room != "" {
				c.roomsMu.Lock()
				c.rooms[room] = true
				c.roomsMu.Unlock()
			}
			return nil
		}
		if rerr := c.reconnect(context.Background(), err); rerr != nil {
			return rerr
		}
	}
}

// ReceiveMessage reads the next raw message, reconnecting on transport
// failure. Exhausting the reconnect budget returns ErrRetriesExhausted.
func (c *Client) ReceiveMessage(ctx context.Context) (string, error) {
	for {
		msg, err := c.receiveRaw(ctx)
		if err == nil {
			return msg, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if rerr := c.reconnect(ctx, err); rerr != nil {
			return "", rerr
		}
	}
}

func (c *Client) receiveRaw(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return "", errors.New("client: not connected")
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return "", err
	}
	log.Trace().Str("msg", string(data)).Msg("Received")
	return string(data), nil
}

// reconnect runs the bounded exponential-backoff recovery: redial, re-login,
// rejoin all known rooms. Each independent transport loss gets the full
// retry budget.
func (c *Client) reconnect(ctx context.Context, cause error) error {
	if c.opts.ReconnectRetries <= 0 {
		return fmt.Errorf("%w: %v", ErrRetriesExhausted, cause)
	}

	for attempt := 1; attempt <= c.opts.ReconnectRetries; attempt++ {
		delay := BackoffDelay(c.opts.ReconnectBackoffSec, c.opts.ReconnectMaxBackSec, attempt)
		log.Warn().
			Err(cause).
			Int("attempt", attempt).
			Int("max", c.opts.ReconnectRetries).
			Dur("backoff", delay).
			Msg("Websocket disconnected, reconnecting")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		if err := c.tryRecover(ctx); err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("Reconnect attempt failed")
			continue
		}
		c.reconnected.Store(true)
		c.reconnectCount.Add(1)
		log.Info().Msg("Reconnected")
		return nil
	}

	log.Error().Msg("Max reconnect attempts reached")
	return fmt.Errorf("%w: %v", ErrRetriesExhausted, cause)
}

func (c *Client) tryRecover(ctx context.Context) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}
	if err := c.Login(ctx); err != nil {
		return err
	}
	c.roomsMu.Lock()
	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	c.roomsMu.Unlock()
	for _, room := range rooms {
		if err := c.JoinRoom(room); err != nil {
			return err
		}
	}
	return nil
}

// BackoffDelay computes min(base * 2^(attempt-1), max) in seconds.
func BackoffDelay(baseSec, maxSec float64, attempt int) time.Duration {
	delay := baseSec
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxSec {
			break
		}
	}
	if delay > maxSec {
		delay = maxSec
	}
	return time.Duration(delay * float64(time.Second))
}

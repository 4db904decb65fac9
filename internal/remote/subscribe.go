package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
)

// Notification is a change pushed by the store over the websocket.
type Notification struct {
	Type    string `json:"type"`
	BoardID string `json:"board"`
	TaskID  string `json:"task,omitempty"`
}

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	writeWait  = 10 * time.Second
	readLimit  = 64 << 10
)

func (c *Client) wsURL(boardID string) string {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	q := url.Values{}
	if boardID != "" {
		q.Set("board", boardID)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Subscribe opens a push channel for changes to boardID; an empty boardID
// subscribes to every board. The returned channel is closed when ctx is
// done or the connection drops.
func (c *Client) Subscribe(ctx context.Context, boardID string) (<-chan Notification, error) {
	if !c.Authenticated() {
		return nil, clierr.New(clierr.AuthRequired, "Login required")
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.bearer())
	target := c.wsURL(boardID)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, responseError(resp, "", clierr.BoardNotFound)
		}
		return nil, clierr.Wrap(clierr.TransportError, err, "websocket: "+err.Error())
	}
	c.log.Debug("subscribed", "url", target)

	out := make(chan Notification, 16)
	done := make(chan struct{})

	go func() {
		defer close(out)
		defer close(done)
		conn.SetReadLimit(readLimit)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					c.log.Warn("websocket closed", "err", err)
				}
				return
			}
			var n Notification
			if err := json.Unmarshal(data, &n); err != nil {
				c.log.Debug("skipping websocket message", "err", err)
				continue
			}
			select {
			case out <- n:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				return
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	return out, nil
}

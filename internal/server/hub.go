package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4 << 10
	sendBuffer     = 32
)

// Change is the notification pushed to subscribers after a mutation.
type Change struct {
	Type    string `json:"type"`
	BoardID string `json:"board"`
	TaskID  string `json:"task,omitempty"`

	owner string
}

// Change types.
const (
	ChangeBoardCreated  = "board_created"
	ChangeBoardArchived = "board_archived"
	ChangeBoardRestored = "board_restored"
	ChangeBoardDeleted  = "board_deleted"
	ChangeTaskCreated   = "task_created"
	ChangeTaskUpdated   = "task_updated"
	ChangeTaskDeleted   = "task_deleted"
)

type subscriber struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	owner string
	board string
}

// Hub fans changes out to websocket subscribers of the same owner.
type Hub struct {
	clients    map[*subscriber]bool
	broadcast  chan Change
	register   chan *subscriber
	unregister chan *subscriber
	done       chan struct{}
	log        *log.Logger
}

// NewHub returns a hub. Call Run to start it.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		clients:    make(map[*subscriber]bool),
		broadcast:  make(chan Change, 64),
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		done:       make(chan struct{}),
		log:        logger,
	}
}

// Run serves the hub until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
			h.log.Debug("subscriber connected", "owner", c.owner, "board", c.board)
		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
				h.log.Debug("subscriber disconnected", "owner", c.owner)
			}
		case change := <-h.broadcast:
			msg, err := json.Marshal(change)
			if err != nil {
				h.log.Error("encoding change", "err", err)
				continue
			}
			for c := range h.clients {
				if c.owner != change.owner || (c.board != "" && change.BoardID != "" && c.board != change.BoardID) {
					continue
				}
				select {
				case c.send <- msg:
				default:
					h.log.Warn("subscriber too slow, dropping", "owner", c.owner)
					close(c.send)
					delete(h.clients, c)
				}
			}
		}
	}
}

// Stop ends Run and disconnects every subscriber.
func (h *Hub) Stop() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// Publish queues a change for owner's subscribers. It never blocks the
// request path; changes are dropped when the hub is saturated.
func (h *Hub) Publish(owner string, change Change) {
	change.owner = owner
	select {
	case h.broadcast <- change:
	case <-h.done:
	default:
		h.log.Warn("change dropped", "type", change.Type, "board", change.BoardID)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ServeWS upgrades the request and subscribes it to the owner's changes,
// optionally narrowed by the board query parameter.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r.Context())
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	c := &subscriber{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		owner: owner,
		board: r.URL.Query().Get("board"),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

// readPump only drains control frames; subscribers never send changes.
func (c *subscriber) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("websocket read", "err", err)
			}
			return
		}
	}
}

func (c *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

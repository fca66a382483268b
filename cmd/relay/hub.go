package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rahul01879/chat-app/internal/domain"
	"github.com/rahul01879/chat-app/internal/log"
	"github.com/rahul01879/chat-app/internal/scheduler"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	sweepInterval = 5 * time.Minute
	sendBuffer    = 256
)

// client is one websocket attachment to a room. The username arrives with
// the join frame; only the client's own read pump touches it.
type client struct {
	hub      *hub
	conn     *websocket.Conn
	roomID   string
	username string
	left     bool // the peer announced its own departure
	send     chan []byte
}

// hub owns the live side of every room: attached clients, fan-out and the
// expiry sweep. Durable state lives in the history store.
type hub struct {
	store  historyStore
	ttl    time.Duration
	timers *scheduler.Scheduler

	mu    sync.RWMutex
	rooms map[string]map[*client]bool
}

func newHub(store historyStore, ttl time.Duration) *hub {
	return &hub{
		store:  store,
		ttl:    ttl,
		timers: scheduler.New(),
		rooms:  make(map[string]map[*client]bool),
	}
}

// attach registers the connection and runs its read pump until it drops.
// The room comes into being on the first attach.
func (h *hub) attach(ctx context.Context, conn *websocket.Conn, roomID string) {
	if _, err := h.store.EnsureRoom(ctx, roomID, h.ttl); err != nil {
		log.Errorf("ensure room %s: %v", roomID, err)
	}
	c := &client{hub: h, conn: conn, roomID: roomID, send: make(chan []byte, sendBuffer)}
	h.register(c)
	go c.writePump()
	c.readPump()
}

func (h *hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[c.roomID] == nil {
		h.rooms[c.roomID] = make(map[*client]bool)
	}
	h.rooms[c.roomID][c] = true
}

// unregister removes the client and closes its send channel. The channel
// close and every send into it are serialized through mu, so a concurrent
// broadcast can never hit a closed channel.
func (h *hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.rooms[c.roomID]; ok && clients[c] {
		delete(clients, c)
		close(c.send)
		if len(clients) == 0 {
			delete(h.rooms, c.roomID)
		}
	}
}

// liveRooms counts rooms with at least one attached client.
func (h *hub) liveRooms() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *hub) liveUsers(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// broadcast fans a frame out to a room. exclude may be nil. A slow reader
// loses the frame rather than stalling the room.
func (h *hub) broadcast(roomID string, f domain.Frame, exclude *client) {
	data, err := json.Marshal(f)
	if err != nil {
		log.Errorf("marshal %s frame: %v", f.Type, err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[roomID] {
		if c == exclude {
			continue
		}
		select {
		case c.send <- data:
		default:
			log.Warnf("dropping frame for a slow client in room %s", roomID)
		}
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
		if c.username != "" && !c.left {
			c.hub.announceLeave(c.roomID, c.username)
		}
	}()
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var f domain.Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debugf("room %s read: %v", c.roomID, err)
			}
			return
		}
		c.hub.handle(c, f)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Server-initiated close; tell the peer it is deliberate.
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *hub) handle(c *client, f domain.Frame) {
	switch f.Type {
	case domain.FrameJoin:
		c.username = f.Username
		h.broadcast(c.roomID, domain.Frame{
			Type:      domain.FrameUserJoined,
			Username:  c.username,
			Notice:    fmt.Sprintf("👋 %s joined the room", c.username),
			Timestamp: domain.WireTime(time.Now()),
		}, nil)

	case domain.FrameLeaving:
		name := f.Username
		if name == "" {
			name = c.username
		}
		c.left = true
		h.announceLeave(c.roomID, name)

	case domain.FrameTyping:
		name := f.Username
		if name == "" {
			name = c.username
		}
		h.broadcast(c.roomID, domain.Frame{
			Type:     domain.FrameTyping,
			Username: name,
			IsTyping: f.IsTyping,
		}, c)

	case domain.FrameReaction:
		name := f.Username
		if name == "" {
			name = c.username
		}
		h.broadcast(c.roomID, domain.Frame{
			Type:         domain.FrameReaction,
			MessageIndex: f.MessageIndex,
			Emoji:        f.Emoji,
			Username:     name,
		}, nil)

	case domain.FrameMessage:
		h.handleMessage(c, f)

	default:
		log.Debugf("room %s: ignoring %q frame", c.roomID, f.Type)
	}
}

func (h *hub) announceLeave(roomID, username string) {
	h.broadcast(roomID, domain.Frame{
		Type:      domain.FrameUserLeft,
		Username:  username,
		Notice:    fmt.Sprintf("👋 %s left the room", username),
		Timestamp: domain.WireTime(time.Now()),
	}, nil)
}

// handleMessage stores the sealed payload, echoes it to the whole room
// including the sender, and arms the destruct timer when asked to.
func (h *hub) handleMessage(c *client, f domain.Frame) {
	if f.Data == nil || f.Data.Encrypted == "" || f.Data.IV == "" {
		return
	}
	name := f.Username
	if name == "" {
		name = c.username
	}
	seconds := 0
	if f.SelfDestruct {
		seconds = domain.ClampDestruct(f.DestructTime)
	}
	stored := domain.HistoryMessage{
		ID:            uuid.NewString(),
		Username:      name,
		EncryptedData: *f.Data,
		Timestamp:     domain.WireTime(time.Now()),
		SelfDestruct:  f.SelfDestruct,
		DestructTime:  seconds,
	}
	if err := h.store.Append(context.Background(), c.roomID, stored); err != nil {
		log.Errorf("store message in %s: %v", c.roomID, err)
	}
	h.broadcast(c.roomID, domain.Frame{
		Type:         domain.FrameMessage,
		Data:         f.Data,
		Username:     name,
		Timestamp:    stored.Timestamp,
		SelfDestruct: f.SelfDestruct,
		DestructTime: seconds,
		MessageID:    stored.ID,
	}, nil)
	if f.SelfDestruct {
		roomID := c.roomID
		h.timers.Schedule("destruct:"+stored.ID, time.Duration(seconds)*time.Second, func() {
			h.destructMessage(roomID, stored.ID)
		})
	}
}

// destructMessage deletes one stored message and tells the room.
func (h *hub) destructMessage(roomID, messageID string) {
	deleted, err := h.store.DeleteMessage(context.Background(), roomID, messageID)
	if err != nil {
		log.Errorf("destruct %s in %s: %v", messageID, roomID, err)
		return
	}
	if !deleted {
		return
	}
	h.broadcast(roomID, domain.Frame{
		Type:      domain.FrameMessageDeleted,
		MessageID: messageID,
		RoomID:    roomID,
		Timestamp: domain.WireTime(time.Now()),
	}, nil)
}

// run drives the expiry sweep until ctx ends.
func (h *hub) run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.sweepOnce(ctx, time.Now())
		case <-ctx.Done():
			h.timers.CancelAll()
			return
		}
	}
}

// sweepOnce retires every room whose lifetime has passed: the room hears
// the expiry notice, then its connections close and its data goes away.
func (h *hub) sweepOnce(ctx context.Context, now time.Time) {
	expired, err := h.store.ExpiredRooms(ctx, now)
	if err != nil {
		log.Errorf("expiry scan: %v", err)
		return
	}
	for _, roomID := range expired {
		log.Infof("expiring room %s", roomID)
		h.broadcast(roomID, domain.Frame{
			Type:      domain.FrameRoomExpired,
			Notice:    fmt.Sprintf("⏰ This room has expired after %d hours", int(h.ttl.Hours())),
			Timestamp: domain.WireTime(now),
		}, nil)
		h.closeRoom(roomID)
		if err := h.store.DropRoom(ctx, roomID); err != nil {
			log.Errorf("drop room %s: %v", roomID, err)
		}
	}
}

// closeRoom detaches every client in a room. Buffered frames, including a
// just-broadcast expiry notice, still drain before the close frame goes
// out.
func (h *hub) closeRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[roomID] {
		close(c.send)
	}
	delete(h.rooms, roomID)
}

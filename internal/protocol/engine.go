package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/rahul01879/chat-app/internal/crypto"
	"github.com/rahul01879/chat-app/internal/domain"
	"github.com/rahul01879/chat-app/internal/log"
)

const (
	defaultTypingQuiet = 3 * time.Second
	defaultIdleTimeout = 30 * time.Minute

	timerTypingStop = "typing-stop"
	timerIdleLogout = "idle-logout"
)

const (
	// Tombstone replaces the text of self-destructed and relay-deleted
	// messages.
	Tombstone = "💥 Message self-destructed"

	// Placeholder stands in for a message that failed authentication. The
	// entry stays in the conversation so ordering survives unreadable
	// messages.
	Placeholder = "🔒 Unable to decrypt (possibly wrong key)"
)

var (
	// ErrNotConnected is returned for operations that need a live room.
	ErrNotConnected = errors.New("protocol: not connected to a room")

	// ErrClosed is returned once the engine has shut down for good.
	ErrClosed = errors.New("protocol: session closed")

	// ErrNoSuchMessage is returned for reactions aimed outside the
	// conversation.
	ErrNoSuchMessage = errors.New("protocol: no message at that index")

	// ErrRoomExpired is the close reason when the relay retires the room.
	// The expiry is fatal; the key is gone and the room cannot be rejoined.
	ErrRoomExpired = errors.New("protocol: room expired")
)

// Config tunes the engine's timers. Zero values pick the defaults.
type Config struct {
	TypingQuiet     time.Duration
	IdleTimeout     time.Duration
	DestructDefault time.Duration
}

func (c Config) withDefaults() Config {
	if c.TypingQuiet <= 0 {
		c.TypingQuiet = defaultTypingQuiet
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
	if c.DestructDefault <= 0 {
		c.DestructDefault = domain.DestructDefaultSeconds * time.Second
	}
	return c
}

// frameMsg carries one read result tagged with the conn it came from, so
// frames from a replaced connection can be recognized and dropped.
type frameMsg struct {
	conn  domain.Conn
	frame domain.Frame
	err   error
}

// Engine drives one room attachment. A single run goroutine owns every
// mutation of the conversation; API calls and timer callbacks post
// closures into it, so events are processed strictly in arrival order.
// The mutex exists only to let other goroutines take consistent
// snapshots.
type Engine struct {
	sess      *domain.Session
	client    domain.RelayClient
	transport domain.Transport
	timers    domain.Scheduler
	cfg       Config

	events chan Event
	frames chan frameMsg
	cmds   chan func()
	done   chan struct{}

	mu           sync.RWMutex
	state        State
	conn         domain.Conn
	messages     []domain.Message
	typing       domain.TypingSet
	tally        domain.ReactionTally
	expiresAt    time.Time
	selfDestruct bool
	destructFor  time.Duration
	typingActive bool
	closing      bool
	closeErr     error
}

// New assembles an engine for sess and starts its event loop. The engine
// stays Disconnected until Connect.
func New(sess *domain.Session, client domain.RelayClient, transport domain.Transport, timers domain.Scheduler, cfg Config) *Engine {
	e := &Engine{
		sess:      sess,
		client:    client,
		transport: transport,
		timers:    timers,
		cfg:       cfg.withDefaults(),
		events:    make(chan Event, 256),
		frames:    make(chan frameMsg, 64),
		cmds:      make(chan func(), 64),
		done:      make(chan struct{}),
		state:     StateDisconnected,
		typing:    make(domain.TypingSet),
		tally:     make(domain.ReactionTally),
	}
	go e.run()
	return e
}

// Events is the engine's output stream. It is never closed; consumers
// should select against Done.
func (e *Engine) Events() <-chan Event { return e.events }

// Done is closed when the engine shuts down.
func (e *Engine) Done() <-chan struct{} { return e.done }

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Messages returns a copy of the conversation in arrival order.
func (e *Engine) Messages() []domain.Message {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.Message, len(e.messages))
	copy(out, e.messages)
	return out
}

// Reactions returns a copy of the tally for one message index.
func (e *Engine) Reactions(index int) map[string]int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	src := e.tally.For(index)
	if src == nil {
		return nil
	}
	out := make(map[string]int, len(src))
	for emoji, n := range src {
		out[emoji] = n
	}
	return out
}

// TypingLine returns the rendered typing indicator, or "".
func (e *Engine) TypingLine() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.typing.Describe()
}

// ExpiresAt returns the room expiry reported by the relay, or the zero
// time when unknown.
func (e *Engine) ExpiresAt() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.expiresAt
}

// CloseReason reports why the session ended. It is nil before shutdown
// and for voluntary closes, and ErrRoomExpired when the relay retired
// the room.
func (e *Engine) CloseReason() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closeErr
}

// Connect dials the room, loads history, announces the user and starts
// processing live frames. Use Reconnect after an abnormal drop.
func (e *Engine) Connect(ctx context.Context) error {
	return e.connect(ctx, true)
}

// Reconnect re-attaches after a drop. History is not re-read; the
// in-memory conversation is kept as it was, and frames missed during the
// outage stay missed.
func (e *Engine) Reconnect(ctx context.Context) error {
	return e.connect(ctx, false)
}

func (e *Engine) connect(ctx context.Context, withHistory bool) error {
	e.mu.Lock()
	switch e.state {
	case StateClosed:
		e.mu.Unlock()
		return ErrClosed
	case StateConnecting, StateJoined, StateActive:
		st := e.state
		e.mu.Unlock()
		return fmt.Errorf("protocol: already %s", st)
	}
	prev := e.state
	e.state = StateConnecting
	e.mu.Unlock()
	e.emit(Event{Kind: EventStateChange, State: StateConnecting})

	conn, err := e.transport.Dial(ctx, e.sess.RoomID)
	if err != nil {
		e.setState(prev, err.Error())
		return fmt.Errorf("protocol: connect: %w", err)
	}

	// Metadata and history are best-effort reads; the room itself was
	// created by the dial.
	if info, err := e.client.RoomInfo(ctx, e.sess.RoomID); err != nil {
		log.Warnf("room info unavailable: %v", err)
	} else if info.ExpiresAt != "" {
		if t, perr := domain.ParseWireTime(info.ExpiresAt); perr == nil {
			e.mu.Lock()
			e.expiresAt = t
			e.mu.Unlock()
		}
	}
	var history []domain.HistoryMessage
	if withHistory {
		if history, err = e.client.History(ctx, e.sess.RoomID); err != nil {
			log.Warnf("history unavailable: %v", err)
		}
	}

	join := domain.Frame{Type: domain.FrameJoin, Username: e.sess.Username}
	if err := conn.WriteFrame(join); err != nil {
		conn.Close()
		e.setState(prev, err.Error())
		return fmt.Errorf("protocol: join: %w", err)
	}

	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	e.conn = conn
	e.closing = false
	e.state = StateJoined
	e.mu.Unlock()
	e.emit(Event{Kind: EventStateChange, State: StateJoined})

	// The history lands through the loop before the read pump starts, so
	// stored messages always precede live ones.
	ok := e.post(func() {
		for i := range history {
			e.ingestHistory(history[i])
		}
		e.mu.Lock()
		e.state = StateActive
		e.mu.Unlock()
		e.emit(Event{Kind: EventStateChange, State: StateActive})
		go e.readPump(conn)
	})
	if !ok {
		conn.Close()
		return ErrClosed
	}
	e.touch()
	log.Infof("joined room %s as %s", e.sess.RoomID, e.sess.Username)
	return nil
}

// Send encrypts text and ships it as a message frame. The relay echoes
// the frame back to everyone including us, so nothing is appended here;
// the echo is what lands in the conversation.
func (e *Engine) Send(text string) error {
	e.mu.RLock()
	state, conn := e.state, e.conn
	sd, after := e.selfDestruct, e.destructFor
	e.mu.RUnlock()
	if state == StateClosed {
		return ErrClosed
	}
	if (state != StateActive && state != StateJoined) || conn == nil {
		return ErrNotConnected
	}
	if err := crypto.Validate(e.sess.Key); err != nil {
		return err
	}
	data, err := crypto.Encrypt(text, e.sess.Key)
	if err != nil {
		return err
	}
	f := domain.Frame{
		Type:      domain.FrameMessage,
		Username:  e.sess.Username,
		Data:      &data,
		Timestamp: domain.WireTime(time.Now()),
	}
	if sd {
		if after <= 0 {
			after = e.cfg.DestructDefault
		}
		f.SelfDestruct = true
		f.DestructTime = domain.ClampDestruct(int(after / time.Second))
	}
	if err := conn.WriteFrame(f); err != nil {
		e.post(func() { e.degrade(err) })
		return fmt.Errorf("protocol: send: %w", err)
	}
	e.touch()
	return nil
}

// TypingStarted is the leading edge of the debounce: the first call in a
// burst announces typing, and every call re-arms the quiet timer that
// will announce the stop.
func (e *Engine) TypingStarted() {
	e.mu.Lock()
	state, conn := e.state, e.conn
	wasActive := e.typingActive
	usable := (state == StateActive || state == StateJoined) && conn != nil
	if usable {
		e.typingActive = true
	}
	e.mu.Unlock()
	if !usable {
		return
	}
	if !wasActive {
		on := true
		err := conn.WriteFrame(domain.Frame{Type: domain.FrameTyping, Username: e.sess.Username, IsTyping: &on})
		if err != nil {
			log.Debugf("typing start not delivered: %v", err)
		}
	}
	e.timers.Schedule(timerTypingStop, e.cfg.TypingQuiet, func() {
		e.post(e.typingStopped)
	})
	e.touch()
}

func (e *Engine) typingStopped() {
	e.mu.Lock()
	if !e.typingActive {
		e.mu.Unlock()
		return
	}
	e.typingActive = false
	conn := e.conn
	e.mu.Unlock()
	if conn == nil {
		return
	}
	off := false
	err := conn.WriteFrame(domain.Frame{Type: domain.FrameTyping, Username: e.sess.Username, IsTyping: &off})
	if err != nil {
		log.Debugf("typing stop not delivered: %v", err)
	}
}

// React sends a reaction for the message at index. The tally only moves
// when the relay echoes the reaction back.
func (e *Engine) React(index int, emoji string) error {
	e.mu.RLock()
	state, conn, n := e.state, e.conn, len(e.messages)
	e.mu.RUnlock()
	if state == StateClosed {
		return ErrClosed
	}
	if (state != StateActive && state != StateJoined) || conn == nil {
		return ErrNotConnected
	}
	if index < 0 || index >= n || emoji == "" {
		return ErrNoSuchMessage
	}
	idx := index
	f := domain.Frame{
		Type:         domain.FrameReaction,
		Username:     e.sess.Username,
		Emoji:        emoji,
		MessageIndex: &idx,
	}
	if err := conn.WriteFrame(f); err != nil {
		e.post(func() { e.degrade(err) })
		return fmt.Errorf("protocol: react: %w", err)
	}
	e.touch()
	return nil
}

// SetSelfDestruct toggles self-destruct for outgoing messages. A zero
// duration keeps the default.
func (e *Engine) SetSelfDestruct(enabled bool, after time.Duration) {
	e.mu.Lock()
	e.selfDestruct = enabled
	e.destructFor = after
	e.mu.Unlock()
	e.touch()
}

// Close announces the departure, tears the connection down and cancels
// every timer. Idempotent; the engine is unusable afterwards.
func (e *Engine) Close() {
	e.shutdown("left room", true)
}

// run is the event loop. It is the only goroutine that mutates the
// conversation, so handlers never race each other.
func (e *Engine) run() {
	for {
		select {
		case fn := <-e.cmds:
			fn()
		case m := <-e.frames:
			e.handleFrameMsg(m)
		case <-e.done:
			return
		}
	}
}

// post hands fn to the run loop. It reports false once the engine has
// shut down.
func (e *Engine) post(fn func()) bool {
	select {
	case e.cmds <- fn:
		return true
	case <-e.done:
		return false
	}
}

// readPump feeds frames from one connection into the loop until the
// first read error, which it also delivers.
func (e *Engine) readPump(conn domain.Conn) {
	for {
		f, err := conn.ReadFrame()
		select {
		case e.frames <- frameMsg{conn: conn, frame: f, err: err}:
		case <-e.done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (e *Engine) handleFrameMsg(m frameMsg) {
	e.mu.RLock()
	current, closing := e.conn, e.closing
	e.mu.RUnlock()
	if m.conn != current {
		return
	}
	if m.err != nil {
		if closing {
			return
		}
		if errors.Is(m.err, io.EOF) {
			// The relay shut the attachment down cleanly, which after an
			// expiry notice is the normal end of a room.
			e.shutdown("connection closed by relay", false)
			return
		}
		e.degrade(m.err)
		return
	}
	e.handleFrame(m.frame)
}

func (e *Engine) handleFrame(f domain.Frame) {
	switch f.Type {
	case domain.FrameMessage:
		e.handleMessage(f)
	case domain.FrameTyping:
		e.handleTyping(f)
	case domain.FrameReaction:
		e.handleReaction(f)
	case domain.FrameUserJoined:
		e.appendNotice(f, fmt.Sprintf("👋 %s joined the room", f.Username))
	case domain.FrameUserLeft:
		e.dropTyping(f.Username)
		e.appendNotice(f, fmt.Sprintf("👋 %s left the room", f.Username))
	case domain.FrameRoomExpired:
		e.appendNotice(f, "⏰ This room has expired")
		e.mu.Lock()
		e.closeErr = ErrRoomExpired
		e.mu.Unlock()
		e.shutdown("room expired", false)
	case domain.FrameMessageDeleted:
		e.handleServerDelete(f)
	default:
		log.Debugf("ignoring frame type %q", f.Type)
	}
}

func (e *Engine) handleMessage(f domain.Frame) {
	if f.Data == nil {
		return
	}
	m := domain.Message{
		ServerID:     f.MessageID,
		Sender:       f.Username,
		Timestamp:    frameTime(f.Timestamp),
		Mine:         f.Username == e.sess.Username,
		SelfDestruct: f.SelfDestruct,
	}
	if f.SelfDestruct {
		m.DestructAfter = time.Duration(domain.ClampDestruct(f.DestructTime)) * time.Second
	}
	e.decryptInto(&m, *f.Data)
	idx := e.append(m)
	if m.SelfDestruct {
		e.scheduleDestruct(idx, m)
	}
}

func (e *Engine) ingestHistory(hm domain.HistoryMessage) {
	m := domain.Message{
		ServerID:     hm.ID,
		Sender:       hm.Username,
		Timestamp:    frameTime(hm.Timestamp),
		Mine:         hm.Username == e.sess.Username,
		SelfDestruct: hm.SelfDestruct,
	}
	if hm.SelfDestruct {
		m.DestructAfter = time.Duration(domain.ClampDestruct(hm.DestructTime)) * time.Second
	}
	e.decryptInto(&m, hm.EncryptedData)
	idx := e.append(m)
	if m.SelfDestruct {
		e.scheduleDestruct(idx, m)
	}
}

// decryptInto fills the text of m from data. One unreadable message must
// not abort anything around it, so failures become placeholders.
func (e *Engine) decryptInto(m *domain.Message, data crypto.CipherData) {
	text, err := crypto.Decrypt(data, e.sess.Key)
	if err != nil {
		m.Text = Placeholder
		m.Undecryptable = true
		return
	}
	m.Text = text
}

func (e *Engine) handleTyping(f domain.Frame) {
	if f.Username == e.sess.Username || f.IsTyping == nil {
		return
	}
	e.mu.Lock()
	e.typing.Set(f.Username, *f.IsTyping)
	line := e.typing.Describe()
	e.mu.Unlock()
	e.emit(Event{Kind: EventTypingChanged, Typing: line})
}

// dropTyping clears a departed user from the typing set.
func (e *Engine) dropTyping(username string) {
	e.mu.Lock()
	_, present := e.typing[username]
	if present {
		e.typing.Set(username, false)
	}
	line := e.typing.Describe()
	e.mu.Unlock()
	if present {
		e.emit(Event{Kind: EventTypingChanged, Typing: line})
	}
}

func (e *Engine) handleReaction(f domain.Frame) {
	if f.MessageIndex == nil || f.Emoji == "" {
		return
	}
	idx := *f.MessageIndex
	e.mu.Lock()
	if idx < 0 || idx >= len(e.messages) {
		e.mu.Unlock()
		return
	}
	e.tally.Add(idx, f.Emoji)
	m := e.messages[idx]
	e.mu.Unlock()
	e.emit(Event{Kind: EventMessageUpdated, Index: idx, Message: m})
}

func (e *Engine) handleServerDelete(f domain.Frame) {
	if f.MessageID == "" {
		return
	}
	e.mu.RLock()
	idx := -1
	for i := len(e.messages) - 1; i >= 0; i-- {
		if e.messages[i].ServerID == f.MessageID {
			idx = i
			break
		}
	}
	e.mu.RUnlock()
	if idx < 0 {
		return
	}
	e.timers.Cancel("destruct:" + f.MessageID)
	e.tombstone(idx)
}

func (e *Engine) appendNotice(f domain.Frame, fallback string) {
	text := f.Notice
	if text == "" {
		text = fallback
	}
	e.append(domain.Message{
		Sender:    f.Username,
		Text:      text,
		Timestamp: frameTime(f.Timestamp),
		System:    true,
	})
}

// append adds m to the conversation and reports its index.
func (e *Engine) append(m domain.Message) int {
	e.mu.Lock()
	e.messages = append(e.messages, m)
	idx := len(e.messages) - 1
	e.mu.Unlock()
	e.emit(Event{Kind: EventMessageAppended, Index: idx, Message: m})
	return idx
}

// scheduleDestruct arms the advisory local tombstone timer, firing at
// the message's own timestamp plus its delay. History entries may fire
// immediately.
func (e *Engine) scheduleDestruct(idx int, m domain.Message) {
	d := time.Until(m.Timestamp.Add(m.DestructAfter))
	if d < 0 {
		d = 0
	}
	e.timers.Schedule(destructKey(idx, m.ServerID), d, func() {
		e.post(func() { e.tombstone(idx) })
	})
}

func destructKey(idx int, serverID string) string {
	if serverID != "" {
		return "destruct:" + serverID
	}
	return "destruct:#" + strconv.Itoa(idx)
}

// tombstone wipes the text of the message at idx and marks it deleted.
func (e *Engine) tombstone(idx int) {
	e.mu.Lock()
	if idx < 0 || idx >= len(e.messages) || e.messages[idx].Deleted {
		e.mu.Unlock()
		return
	}
	e.messages[idx].Deleted = true
	e.messages[idx].Text = Tombstone
	m := e.messages[idx]
	e.mu.Unlock()
	e.emit(Event{Kind: EventMessageUpdated, Index: idx, Message: m})
}

// degrade records an abnormal drop. The conversation and its destruct
// timers survive; only the outbound typing state is reset. Recovery is
// a manual Reconnect.
func (e *Engine) degrade(cause error) {
	e.mu.Lock()
	if e.state == StateClosed || e.state == StateDegraded {
		e.mu.Unlock()
		return
	}
	if e.conn != nil {
		e.conn.Close()
		e.conn = nil
	}
	e.state = StateDegraded
	e.typingActive = false
	e.mu.Unlock()
	e.timers.Cancel(timerTypingStop)
	log.Warnf("connection degraded: %v", cause)
	e.emit(Event{Kind: EventStateChange, State: StateDegraded, Reason: cause.Error()})
}

// shutdown is the single teardown path shared by logout, expiry, idle
// timeout and clean relay closes.
func (e *Engine) shutdown(reason string, announce bool) {
	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return
	}
	e.closing = true
	conn := e.conn
	e.conn = nil
	e.state = StateClosed
	e.typingActive = false
	e.mu.Unlock()

	if conn != nil {
		if announce {
			err := conn.WriteFrame(domain.Frame{Type: domain.FrameLeaving, Username: e.sess.Username})
			if err != nil {
				log.Debugf("leave notice not delivered: %v", err)
			}
		}
		conn.Close()
	}
	e.timers.CancelAll()
	log.Infof("room %s closed: %s", e.sess.RoomID, reason)
	e.emit(Event{Kind: EventStateChange, State: StateClosed, Reason: reason})
	close(e.done)
}

// touch restarts the idle-logout countdown. Every user-initiated
// operation counts as activity.
func (e *Engine) touch() {
	e.timers.Schedule(timerIdleLogout, e.cfg.IdleTimeout, func() {
		e.post(func() {
			e.emit(Event{Kind: EventIdleLogout})
			e.shutdown("idle timeout", true)
		})
	})
}

// setState is used by connect failures to fall back to the previous
// state. A Closed engine stays Closed.
func (e *Engine) setState(s State, reason string) {
	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return
	}
	e.state = s
	e.mu.Unlock()
	e.emit(Event{Kind: EventStateChange, State: s, Reason: reason})
}

// emit pushes an event without ever blocking the loop. A consumer that
// stops draining loses events, not liveness.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		log.Warnf("event buffer full, dropping %v", ev.Kind)
	}
}

func frameTime(s string) time.Time {
	if s != "" {
		if t, err := domain.ParseWireTime(s); err == nil {
			return t
		}
	}
	return time.Now()
}

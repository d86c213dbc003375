package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/qmuntal/stateless"

	"github.com/linguabridge/backend/internal/model/chat"
)

// Connection lifecycle states. Exactly one connection is authoritative at a
// time; a connection that closes unexpectedly leaves the client in Closed
// until the target language changes again (no automatic retry).
var (
	StateDisconnected stateless.State = "Disconnected"
	StateConnecting   stateless.State = "Connecting"
	StateReady        stateless.State = "Ready"
	StateClosed       stateless.State = "Closed"
)

var (
	triggerDial   stateless.Trigger = "Dial"
	triggerOpened stateless.Trigger = "Opened"
	triggerClosed stateless.Trigger = "Closed"
)

// Conn is the subset of *websocket.Conn the client needs; tests inject
// scripted implementations.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

// DialFunc establishes one connection attempt.
type DialFunc func(ctx context.Context, url string) (Conn, error)

// DialWebSocket is the production dialer.
func DialWebSocket(ctx context.Context, url string) (Conn, error) {
	dialer := &websocket.Dialer{HandshakeTimeout: 30 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

// negotiation is sent exactly once, immediately after the connection is
// established, so the backend knows how to translate broadcasts for us.
type negotiation struct {
	UserID  string `json:"user_id"`
	TgtLang string `json:"tgt_lang"`
}

type outbound struct {
	Text string `json:"text"`
}

// Client owns at most one live connection to the chat backend, bound to the
// (session identity, target language) pair. Changing the language supersedes
// the current connection: the epoch counter distinguishes the authoritative
// connection from torn-down ones so trailing reads cannot leak records into
// the store.
type Client struct {
	userID string
	url    string
	dial   DialFunc
	store  *Store

	mu         sync.Mutex
	fsm        *stateless.StateMachine
	conn       Conn
	epoch      uint64
	targetLang string
}

// Options configures a Client.
type Options struct {
	URL   string
	Dial  DialFunc
	Store *Store
	// SessionID overrides the generated identity; used by tests.
	SessionID string
}

// NewClient builds a disconnected client with a fresh session identity.
func NewClient(opts Options) *Client {
	dial := opts.Dial
	if dial == nil {
		dial = DialWebSocket
	}
	userID := opts.SessionID
	if userID == "" {
		// Short random identity, fixed for the client lifetime.
		userID = uuid.NewString()[:8]
	}

	fsm := stateless.NewStateMachine(StateDisconnected)
	fsm.Configure(StateDisconnected).
		Permit(triggerDial, StateConnecting)
	fsm.Configure(StateConnecting).
		PermitReentry(triggerDial).
		Permit(triggerOpened, StateReady).
		Permit(triggerClosed, StateClosed)
	fsm.Configure(StateReady).
		Permit(triggerDial, StateConnecting).
		Permit(triggerClosed, StateClosed)
	fsm.Configure(StateClosed).
		Permit(triggerDial, StateConnecting)

	return &Client{
		userID: userID,
		url:    opts.URL,
		dial:   dial,
		store:  opts.Store,
		fsm:    fsm,
	}
}

// SessionID returns the client's immutable session identity.
func (c *Client) SessionID() string { return c.userID }

// TargetLanguage returns the currently negotiated target code.
func (c *Client) TargetLanguage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.targetLang
}

// State reports the current lifecycle state.
func (c *Client) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprint(c.fsm.MustState())
}

// Store exposes the message store the client appends into.
func (c *Client) Store() *Store { return c.store }

// Open supersedes any live connection and dials a new one for the given
// target language. The old connection is closed before the new epoch begins;
// readiness is observed through State, not awaited here.
func (c *Client) Open(ctx context.Context, targetLang string) {
	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	c.targetLang = targetLang
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.fire(triggerDial)
	c.mu.Unlock()

	log.Printf("[chat] connecting epoch=%d user=%s lang=%s", epoch, c.userID, targetLang)
	go c.connect(ctx, epoch, targetLang)
}

func (c *Client) connect(ctx context.Context, epoch uint64, targetLang string) {
	conn, err := c.dial(ctx, c.url)

	c.mu.Lock()
	if epoch != c.epoch {
		// Superseded while dialing; this connection never becomes
		// authoritative.
		c.mu.Unlock()
		if err == nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		log.Printf("[chat] connect failed epoch=%d: %v", epoch, err)
		c.fire(triggerClosed)
		c.mu.Unlock()
		return
	}

	c.conn = conn
	c.fire(triggerOpened)
	if werr := conn.WriteJSON(negotiation{UserID: c.userID, TgtLang: targetLang}); werr != nil {
		log.Printf("[chat] negotiation failed epoch=%d: %v", epoch, werr)
		c.closeLocked()
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	log.Printf("[chat] ready epoch=%d user=%s lang=%s", epoch, c.userID, targetLang)
	c.readLoop(conn, epoch)
}

// readLoop normalizes inbound frames until the connection dies or is
// superseded. Frames belonging to a stale epoch are discarded, never
// appended.
func (c *Client) readLoop(conn Conn, epoch uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if epoch == c.epoch {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("[chat] read error epoch=%d: %v", epoch, err)
				}
				c.closeLocked()
			}
			c.mu.Unlock()
			conn.Close()
			return
		}

		ev, perr := chat.ParseEvent(data)
		if perr != nil {
			log.Printf("[chat] dropping malformed frame epoch=%d: %v", epoch, perr)
			continue
		}
		msg := ev.Normalize(time.Now())

		// The epoch check and the append happen under one lock
		// acquisition; a frame from a superseded connection must never
		// land in the store after the bump.
		c.mu.Lock()
		if epoch != c.epoch {
			c.mu.Unlock()
			log.Printf("[chat] discarding stale event epoch=%d id=%s", epoch, msg.ID)
			return
		}
		c.store.Append(msg)
		c.mu.Unlock()
	}
}

// Send transmits raw text over the open connection. It is a deliberate no-op
// when the trimmed text is empty or the client is not Ready; the echo, if
// any, arrives later as a backend event.
func (c *Client) Send(rawText string) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fsm.MustState() != StateReady || c.conn == nil {
		return
	}
	if err := c.conn.WriteJSON(outbound{Text: text}); err != nil {
		log.Printf("[chat] send failed: %v", err)
		c.closeLocked()
	}
}

// Close tears the client down, releasing the underlying connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.closeLocked()
}

// closeLocked closes the live connection and transitions to Closed.
// Callers must hold c.mu.
func (c *Client) closeLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.fire(triggerClosed)
}

// fire applies a trigger if the machine permits it, so teardown paths stay
// idempotent.
func (c *Client) fire(trigger stateless.Trigger) {
	if ok, err := c.fsm.CanFire(trigger); err != nil || !ok {
		return
	}
	if err := c.fsm.Fire(trigger); err != nil {
		log.Printf("[chat] state transition %v failed: %v", trigger, err)
	}
}

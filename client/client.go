package client

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/feather-classroom/feather/broadcast"
	"github.com/feather-classroom/feather/feather/types"
)

var ErrNotConnected = errors.New("not connected")

const writeWait = 10 * time.Second

type Options struct {
	// URL is the http(s) base url of the server.
	URL          string
	SessionId    string
	ClientId     string
	TeacherToken string

	Heartbeat  time.Duration
	MinBackoff time.Duration
	MaxBackoff time.Duration

	Cache Cache
	// OnMessage is called for every frame once it has been applied to the
	// state.
	OnMessage func(m *broadcast.Message)
}

// Client keeps a realtime connection to a session, reconnecting when it is
// lost, and maintains the local State of the board.
type Client struct {
	opts   Options
	dialer *websocket.Dialer

	mu    sync.Mutex
	ws    *websocket.Conn
	state *State

	writeMu sync.Mutex
	synced  chan struct{}
}

func New(opts Options) *Client {
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 15 * time.Second
	}
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = 500 * time.Millisecond
	}
	if opts.MaxBackoff < opts.MinBackoff {
		opts.MaxBackoff = 30 * time.Second
	}
	if opts.Cache == nil {
		opts.Cache = NewMemoryCache()
	}

	c := &Client{
		opts:   opts,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second, Proxy: http.ProxyFromEnvironment},
		synced: make(chan struct{}, 1),
	}
	state, err := opts.Cache.Load(opts.SessionId, opts.ClientId)
	if err != nil {
		if err != ErrNotCached {
			log.Printf("Could not load cached state for session %s. Got: %v\n", opts.SessionId, err)
		}
		state = NewState(opts.SessionId, opts.ClientId)
	}
	c.state = state
	return c
}

func (c *Client) url() string {
	base := strings.TrimSuffix(c.opts.URL, "/")
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/sessions/" + c.opts.SessionId + "/ws/"
}

// Run keeps the client connected until the context is done. Handshakes the
// server rejects (unknown participant, bad token) are not retried.
func (c *Client) Run(ctx context.Context) error {
	backoff := c.opts.MinBackoff
	for {
		served, err := c.connect(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if apiErr, ok := err.(*APIError); ok {
			return apiErr
		}
		if served {
			backoff = c.opts.MinBackoff
		}
		log.WithFields(log.Fields{"session": c.opts.SessionId, "client": c.opts.ClientId}).Debugf("Connection lost, retrying in %s: %v", backoff, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > c.opts.MaxBackoff {
			backoff = c.opts.MaxBackoff
		}
	}
}

func (c *Client) connect(ctx context.Context) (bool, error) {
	header := http.Header{}
	header.Set(clientHeader, c.opts.ClientId)
	if c.opts.TeacherToken != "" {
		header.Set(teacherTokenHeader, c.opts.TeacherToken)
	}

	ws, resp, err := c.dialer.DialContext(ctx, c.url(), header)
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return false, &APIError{Status: resp.StatusCode, Message: "websocket handshake rejected"}
		}
		return false, err
	}
	return true, c.serve(ctx, ws)
}

func (c *Client) serve(ctx context.Context, ws *websocket.Conn) error {
	c.mu.Lock()
	c.ws = ws
	c.mu.Unlock()

	done := make(chan struct{})
	defer func() {
		close(done)
		c.mu.Lock()
		c.ws = nil
		c.mu.Unlock()
		ws.Close()
	}()

	go func() {
		select {
		case <-ctx.Done():
			ws.Close()
		case <-done:
		}
	}()
	go c.heartbeat(done)

	if err := c.RequestState(); err != nil {
		return err
	}
	for {
		m := &broadcast.Message{}
		if err := ws.ReadJSON(m); err != nil {
			return err
		}
		c.handle(m)
	}
}

func (c *Client) heartbeat(done <-chan struct{}) {
	ticker := time.NewTicker(c.opts.Heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.send(&broadcast.Message{Type: broadcast.Heartbeat}); err != nil {
				return
			}
		}
	}
}

func (c *Client) handle(m *broadcast.Message) {
	switch m.Type {
	case broadcast.SyncFullState:
		snapshot := &types.Snapshot{}
		if err := m.Decode(snapshot); err != nil || snapshot.Session == nil {
			log.Printf("Invalid state for session %s. Got: %v\n", c.opts.SessionId, err)
			return
		}
		c.mu.Lock()
		state, resync := Reconcile(c.state, snapshot)
		c.state = state
		c.mu.Unlock()

		c.save()
		c.resend(resync)
		select {
		case c.synced <- struct{}{}:
		default:
		}
	case broadcast.Error:
		log.WithFields(log.Fields{"session": c.opts.SessionId, "client": c.opts.ClientId}).Warnf("Server error: %s", string(m.Data))
	default:
		c.mu.Lock()
		changed, err := c.state.Apply(m)
		c.mu.Unlock()
		if err != nil {
			log.Printf("Could not apply %s frame. Got: %v\n", m.Type, err)
		}
		if changed {
			c.save()
		}
	}

	if c.opts.OnMessage != nil {
		c.opts.OnMessage(m)
	}
}

func (c *Client) save() {
	c.mu.Lock()
	state := c.state.Clone()
	c.mu.Unlock()
	if state == nil {
		return
	}
	if err := c.opts.Cache.Save(state); err != nil {
		log.Printf("Could not cache state for session %s. Got: %v\n", c.opts.SessionId, err)
	}
}

func (c *Client) resend(resync Resync) {
	for _, pending := range resync.Strokes {
		if err := c.sendStroke(pending.QuestionId, pending.Stroke); err != nil {
			return
		}
	}
	for _, a := range resync.Annotations {
		if err := c.sendAnnotation(a); err != nil {
			return
		}
	}
}

func (c *Client) send(m *broadcast.Message) error {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return ErrNotConnected
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteJSON(m)
}

func (c *Client) sendStroke(questionId string, stroke types.Stroke) error {
	m, err := broadcast.NewMessage(broadcast.StrokeAdd, c.opts.SessionId, stroke)
	if err != nil {
		return err
	}
	m.QuestionId = questionId
	return c.send(m)
}

func (c *Client) sendAnnotation(a *types.Annotation) error {
	m, err := broadcast.NewMessage(broadcast.TeacherAnnotation, c.opts.SessionId, map[string]types.Strokes{"strokes": a.Strokes})
	if err != nil {
		return err
	}
	m.QuestionId = a.QuestionId
	m.StudentId = a.StudentId
	return c.send(m)
}

// Synced receives a value after every full state synchronisation.
func (c *Client) Synced() <-chan struct{} {
	return c.synced
}

// State returns a copy of the current board state.
func (c *Client) State() *State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws != nil
}

// Draw adds a stroke to the client's work on the question. Strokes drawn
// while disconnected are kept and sent after the next synchronisation.
func (c *Client) Draw(questionId string, stroke types.Stroke) error {
	if stroke.CreatedAt.IsZero() {
		stroke.CreatedAt = time.Now()
	}
	if err := stroke.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	added := c.state.AddStroke(questionId, stroke)
	c.mu.Unlock()
	if !added {
		return nil
	}
	c.save()

	if err := c.sendStroke(questionId, stroke); err != nil && err != ErrNotConnected {
		return err
	}
	return nil
}

func (c *Client) Clear(questionId string) error {
	c.mu.Lock()
	c.state.ClearWork(questionId)
	c.mu.Unlock()
	c.save()

	m := &broadcast.Message{Type: broadcast.ClearLines, QuestionId: questionId}
	return c.send(m)
}

// Annotate replaces the teacher annotation on a student's work.
func (c *Client) Annotate(questionId, studentId string, strokes types.Strokes) error {
	if err := strokes.Validate(); err != nil {
		return err
	}
	a := &types.Annotation{
		SessionId:  c.opts.SessionId,
		QuestionId: questionId,
		StudentId:  studentId,
		TeacherId:  c.opts.ClientId,
		Strokes:    strokes,
		UpdatedAt:  time.Now(),
	}
	c.mu.Lock()
	c.state.SetAnnotation(a)
	c.mu.Unlock()
	c.save()

	if err := c.sendAnnotation(a); err != nil && err != ErrNotConnected {
		return err
	}
	return nil
}

func (c *Client) PushQuestion(conf types.QuestionConfig) error {
	m, err := broadcast.NewMessage(broadcast.PushQuestion, c.opts.SessionId, conf)
	if err != nil {
		return err
	}
	return c.send(m)
}

func (c *Client) RequestState() error {
	return c.send(&broadcast.Message{Type: broadcast.RequestFullState})
}

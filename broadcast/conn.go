package broadcast

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/xid"
	log "github.com/sirupsen/logrus"

	"github.com/feather-classroom/feather/feather/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 20
	sendBufferSize = 256
)

// Conn is one websocket connection of a client to a session channel.
type Conn struct {
	Id        string
	SessionId string
	ClientId  string
	Role      types.Role

	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewConn(ws *websocket.Conn, sessionId, clientId string, role types.Role) *Conn {
	return &Conn{
		Id:        xid.New().String(),
		SessionId: sessionId,
		ClientId:  clientId,
		Role:      role,
		ws:        ws,
		send:      make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
	}
}

// Send queues a message without blocking. It returns false when the buffer is
// full or the connection is closed.
func (c *Conn) Send(m *Message) bool {
	data, err := json.Marshal(m)
	if err != nil {
		log.Println(err)
		return false
	}
	return c.sendRaw(data)
}

func (c *Conn) sendRaw(data []byte) bool {
	if c.closed() {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Outbox exposes the queued frames.
func (c *Conn) Outbox() <-chan []byte {
	return c.send
}

func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// ReadPump reads frames until the connection fails, passing each decoded
// message to handle. Malformed frames are answered with an error message.
func (c *Conn) ReadPump(handle func(*Message)) error {
	defer c.Close()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithFields(log.Fields{"session": c.SessionId, "client": c.ClientId}).Warnf("websocket closed: %v", err)
			}
			return err
		}

		m := &Message{}
		if err := json.Unmarshal(data, m); err != nil {
			c.Send(NewError(c.SessionId, err))
			continue
		}
		m.SessionId = c.SessionId
		m.ClientId = c.ClientId
		handle(m)
	}
}

// WritePump drains the send buffer into the websocket and keeps it alive with
// pings. It returns once the connection is closed.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

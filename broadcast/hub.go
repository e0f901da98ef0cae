package broadcast

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/feather-classroom/feather/feather/types"
)

var (
	connectionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "connections",
		Help: "Open websocket connections",
	})
	droppedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dropped_connections_total",
		Help: "Connections closed because they could not keep up",
	})
)

func init() {
	prometheus.MustRegister(connectionsGauge)
	prometheus.MustRegister(droppedCounter)
}

type HubApi interface {
	Register(c *Conn) bool
	Unregister(c *Conn) bool
	Deliver(m *Message)
	BroadcastTo(sessionId string, m *Message)
	SendTo(sessionId, clientId string, m *Message)
	SendToRole(sessionId string, role types.Role, m *Message)
	Presence(sessionId string) []string
	CloseChannel(sessionId string)
}

type channel struct {
	conns   map[*Conn]bool
	clients map[string]int
}

// Hub keeps one channel per session with the connections attached to it.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]*channel
}

func NewHub() *Hub {
	return &Hub{channels: map[string]*channel{}}
}

// Register attaches the connection to its session channel. It returns true
// when this is the first connection of the client, i.e. the client entered
// the channel presence.
func (h *Hub) Register(c *Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, found := h.channels[c.SessionId]
	if !found {
		ch = &channel{conns: map[*Conn]bool{}, clients: map[string]int{}}
		h.channels[c.SessionId] = ch
	}
	if ch.conns[c] {
		return false
	}
	ch.conns[c] = true
	ch.clients[c.ClientId]++
	connectionsGauge.Inc()

	return ch.clients[c.ClientId] == 1
}

// Unregister detaches the connection. It returns true when it was the last
// connection of the client.
func (h *Hub) Unregister(c *Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, found := h.channels[c.SessionId]
	if !found || !ch.conns[c] {
		return false
	}
	delete(ch.conns, c)
	connectionsGauge.Dec()

	ch.clients[c.ClientId]--
	left := ch.clients[c.ClientId] == 0
	if left {
		delete(ch.clients, c.ClientId)
	}
	if len(ch.conns) == 0 {
		delete(h.channels, c.SessionId)
	}
	return left
}

// Deliver routes a server message to its audience: student work and stats go
// to teachers, annotations to the addressed student and to teachers,
// everything else to the whole channel.
func (h *Hub) Deliver(m *Message) {
	switch m.Type {
	case StudentLines, SessionStats:
		h.SendToRole(m.SessionId, types.RoleTeacher, m)
	case TeacherAnnotation:
		h.send(m.SessionId, m, func(c *Conn) bool {
			return c.Role == types.RoleTeacher || c.ClientId == m.StudentId
		})
	default:
		h.BroadcastTo(m.SessionId, m)
	}
}

func (h *Hub) BroadcastTo(sessionId string, m *Message) {
	h.send(sessionId, m, func(*Conn) bool { return true })
}

func (h *Hub) SendTo(sessionId, clientId string, m *Message) {
	h.send(sessionId, m, func(c *Conn) bool { return c.ClientId == clientId })
}

func (h *Hub) SendToRole(sessionId string, role types.Role, m *Message) {
	h.send(sessionId, m, func(c *Conn) bool { return c.Role == role })
}

func (h *Hub) send(sessionId string, m *Message, accept func(*Conn) bool) {
	data, err := json.Marshal(m)
	if err != nil {
		log.Println(err)
		return
	}

	h.mu.RLock()
	ch, found := h.channels[sessionId]
	var slow []*Conn
	if found {
		for c := range ch.conns {
			if accept(c) && !c.closed() && !c.sendRaw(data) {
				slow = append(slow, c)
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.WithFields(log.Fields{"session": sessionId, "client": c.ClientId}).Warn("Dropping slow connection")
		droppedCounter.Inc()
		c.Close()
	}
}

// Presence returns the client ids connected to the session, sorted.
func (h *Hub) Presence(sessionId string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := []string{}
	if ch, found := h.channels[sessionId]; found {
		for clientId := range ch.clients {
			clients = append(clients, clientId)
		}
	}
	sort.Strings(clients)
	return clients
}

// CloseChannel closes every connection of the session. The connections
// unregister themselves as their pumps stop.
func (h *Hub) CloseChannel(sessionId string) {
	h.mu.RLock()
	var conns []*Conn
	if ch, found := h.channels[sessionId]; found {
		for c := range ch.conns {
			conns = append(conns, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.Close()
	}
}

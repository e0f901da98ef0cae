package event

import (
	"sync"

	"github.com/stretchr/testify/mock"
)

type Mock struct {
	M mock.Mock
}

func (m *Mock) Emit(name EventType, sessionId string, args ...interface{}) {
	m.M.Called(name, sessionId, args)
}

func (m *Mock) On(name EventType, handler Handler) {
	m.M.Called(name, handler)
}

func (m *Mock) OnAny(handler AnyHandler) {
	m.M.Called(handler)
}

type Emitted struct {
	Type      EventType
	SessionId string
	Args      []interface{}
}

// Recorder is a synchronous EventApi that keeps every emitted event. Handlers
// registered with On and OnAny run inline.
type Recorder struct {
	mu          sync.Mutex
	events      []Emitted
	handlers    map[EventType][]Handler
	anyHandlers []AnyHandler
}

func NewRecorder() *Recorder {
	return &Recorder{handlers: map[EventType][]Handler{}}
}

func (r *Recorder) Emit(name EventType, sessionId string, args ...interface{}) {
	r.mu.Lock()
	r.events = append(r.events, Emitted{Type: name, SessionId: sessionId, Args: args})
	handlers := append([]Handler{}, r.handlers[name]...)
	anyHandlers := append([]AnyHandler{}, r.anyHandlers...)
	r.mu.Unlock()

	for _, h := range handlers {
		h(sessionId, args...)
	}
	for _, h := range anyHandlers {
		h(name, sessionId, args...)
	}
}

func (r *Recorder) On(name EventType, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = append(r.handlers[name], handler)
}

func (r *Recorder) OnAny(handler AnyHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.anyHandlers = append(r.anyHandlers, handler)
}

func (r *Recorder) Events() []Emitted {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Emitted{}, r.events...)
}

// Of returns the recorded events of the given type.
func (r *Recorder) Of(name EventType) []Emitted {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := []Emitted{}
	for _, e := range r.events {
		if e.Type == name {
			found = append(found, e)
		}
	}
	return found
}

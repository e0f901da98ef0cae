package event

import "sync"

type emitted struct {
	name      EventType
	sessionId string
	args      []interface{}
}

// localBroker delivers events from a single dispatcher goroutine, in the
// order they were emitted. Emit never blocks on handlers, and handlers may
// emit themselves.
type localBroker struct {
	sync.Mutex

	handlers    map[EventType][]Handler
	anyHandlers []AnyHandler

	queue []emitted
	wake  chan struct{}
}

func NewLocalBroker() *localBroker {
	b := &localBroker{handlers: map[EventType][]Handler{}, wake: make(chan struct{}, 1)}
	go b.dispatch()
	return b
}

func (b *localBroker) On(name EventType, handler Handler) {
	b.Lock()
	defer b.Unlock()

	if b.handlers[name] == nil {
		b.handlers[name] = []Handler{}
	}
	b.handlers[name] = append(b.handlers[name], handler)
}

func (b *localBroker) OnAny(handler AnyHandler) {
	b.Lock()
	defer b.Unlock()

	b.anyHandlers = append(b.anyHandlers, handler)
}

func (b *localBroker) Emit(name EventType, sessionId string, args ...interface{}) {
	b.Lock()
	b.queue = append(b.queue, emitted{name: name, sessionId: sessionId, args: args})
	b.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *localBroker) next() (emitted, []Handler, []AnyHandler, bool) {
	b.Lock()
	defer b.Unlock()

	if len(b.queue) == 0 {
		return emitted{}, nil, nil, false
	}
	ev := b.queue[0]
	b.queue[0] = emitted{}
	b.queue = b.queue[1:]
	handlers := append([]Handler{}, b.handlers[ev.name]...)
	anyHandlers := append([]AnyHandler{}, b.anyHandlers...)
	return ev, handlers, anyHandlers, true
}

func (b *localBroker) dispatch() {
	for range b.wake {
		for {
			ev, handlers, anyHandlers, ok := b.next()
			if !ok {
				break
			}
			for _, handler := range handlers {
				handler(ev.sessionId, ev.args...)
			}
			for _, handler := range anyHandlers {
				handler(ev.name, ev.sessionId, ev.args...)
			}
		}
	}
}

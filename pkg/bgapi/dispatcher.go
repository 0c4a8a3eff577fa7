package bgapi

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler receives events on the reader goroutine. conn is a snapshot of the
// connection the event concerns, taken after the event was applied, or nil.
// Handlers must not block and must not call Send; hand long work off to
// another goroutine.
type Handler func(ev Event, conn *Connection)

type dispatcher struct {
	mu       sync.Mutex
	global   map[string]Handler
	byHandle map[uint8]map[string]Handler
	log      *zap.Logger
}

func newDispatcher(log *zap.Logger) *dispatcher {
	return &dispatcher{
		global:   make(map[string]Handler),
		byHandle: make(map[uint8]map[string]Handler),
		log:      log,
	}
}

func (d *dispatcher) subscribe(h Handler) func() {
	id := uuid.NewString()
	d.mu.Lock()
	d.global[id] = h
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		delete(d.global, id)
		d.mu.Unlock()
	}
}

func (d *dispatcher) subscribeConnection(handle uint8, h Handler) func() {
	id := uuid.NewString()
	d.mu.Lock()
	if d.byHandle[handle] == nil {
		d.byHandle[handle] = make(map[string]Handler)
	}
	d.byHandle[handle][id] = h
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		if m, ok := d.byHandle[handle]; ok {
			delete(m, id)
			if len(m) == 0 {
				delete(d.byHandle, handle)
			}
		}
		d.mu.Unlock()
	}
}

// dispatch notifies the global handlers and then, if conn is known, the
// handlers of its handle. When freed is set the handle's subscriptions are
// dropped after this final notification.
func (d *dispatcher) dispatch(ev Event, conn *Connection, freed bool) {
	d.mu.Lock()
	handlers := make([]Handler, 0, len(d.global))
	for _, h := range d.global {
		handlers = append(handlers, h)
	}
	var scoped []Handler
	if conn != nil {
		for _, h := range d.byHandle[conn.Handle] {
			scoped = append(scoped, h)
		}
		if freed {
			delete(d.byHandle, conn.Handle)
		}
	}
	d.mu.Unlock()

	if conn == nil {
		if s, ok := ev.(ConnectionScoped); ok {
			d.log.Info("bgapi event for unknown connection", zap.String("event", Name(ev.ID(), true)), zap.Uint8("handle", s.ConnectionHandle()))
		}
	}
	for _, h := range handlers {
		d.call(h, ev, conn)
	}
	for _, h := range scoped {
		d.call(h, ev, conn)
	}
}

func (d *dispatcher) call(h Handler, ev Event, conn *Connection) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("bgapi handler panicked", zap.String("event", Name(ev.ID(), true)), zap.String("panic", fmt.Sprint(r)))
		}
	}()
	if conn != nil {
		c := *conn
		conn = &c
	}
	h(ev, conn)
}

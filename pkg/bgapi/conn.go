package bgapi

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// DefaultMaxConnections is the BLED112 connection limit until
// system_get_connections reports otherwise.
const DefaultMaxConnections = 8

type State uint8

const (
	StateIdle State = iota
	StateScanning
	StateConnecting
	StateConnected
	StateDisconnecting
	StateDisconnected
)

var stateNames = map[State]string{
	StateIdle:          "idle",
	StateScanning:      "scanning",
	StateConnecting:    "connecting",
	StateConnected:     "connected",
	StateDisconnecting: "disconnecting",
	StateDisconnected:  "disconnected",
}

func (s State) String() string { return enumName(stateNames, s) }

// Procedure is the attribute transaction open on a connection.
type Procedure uint8

const (
	ProcedureNone Procedure = iota
	ProcedureRead
	ProcedureDiscover
	ProcedureWrite
	ProcedureQueuedWrite
)

var procedureNames = map[Procedure]string{
	ProcedureNone:        "none",
	ProcedureRead:        "read",
	ProcedureDiscover:    "discover",
	ProcedureWrite:       "write",
	ProcedureQueuedWrite: "queued_write",
}

func (p Procedure) String() string { return enumName(procedureNames, p) }

// Connection is an immutable snapshot of one link. Listeners receive a fresh
// copy per event.
type Connection struct {
	Handle      uint8
	State       State
	Address     BDAddr
	AddressType AddressType
	Flags       ConnectionFlags
	Interval    uint16
	Timeout     uint16
	Latency     uint16
	Bonding     uint8
	// Reason is set once the link is Disconnected.
	Reason Result

	Procedure Procedure
	// QueuedWrite holds the chunks the peer acknowledged so far, placed at
	// their offsets.
	QueuedWrite []byte
}

type chunk struct {
	offset uint16
	data   []byte
}

type link struct {
	Connection
	// busy is set while an attribute operation waits for the event that ends
	// it.
	busy bool
	// executing is set between execute_write and its completion.
	executing bool
	chunk     *chunk
}

func (l *link) snapshot() *Connection {
	c := l.Connection
	if l.QueuedWrite != nil {
		c.QueuedWrite = append([]byte(nil), l.QueuedWrite...)
	}
	return &c
}

func (l *link) endProcedure() {
	l.Procedure = ProcedureNone
	l.QueuedWrite = nil
	l.busy = false
	l.executing = false
	l.chunk = nil
}

// txState is what begin changed, for abort to restore.
type txState struct {
	handle    uint8
	valid     bool
	procedure Procedure
	busy      bool
	executing bool
	chunk     *chunk
}

// connTable owns the adapter and connection state. Callers mutate it through
// begin and abort before and after transmission; everything else is driven by
// the reader goroutine.
type connTable struct {
	mu      sync.Mutex
	state   State
	links   map[uint8]*link
	maxConn uint8
	log     *zap.Logger
}

func newConnTable(maxConn uint8, log *zap.Logger) *connTable {
	if maxConn == 0 {
		maxConn = DefaultMaxConnections
	}
	return &connTable{
		state:   StateIdle,
		links:   make(map[uint8]*link),
		maxConn: maxConn,
		log:     log,
	}
}

func (t *connTable) adapterState() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *connTable) get(h uint8) (Connection, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.links[h]
	if !ok {
		return Connection{}, false
	}
	return *l.snapshot(), true
}

func (t *connTable) all() []Connection {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Connection, 0, len(t.links))
	for h := uint8(0); h < t.maxConn; h++ {
		if l, ok := t.links[h]; ok {
			out = append(out, *l.snapshot())
		}
	}
	return out
}

func procedureFor(cmd Command) Procedure {
	switch cmd.(type) {
	case *AttClientReadByHandleCommand, *AttClientReadLongCommand, *AttClientReadMultipleCommand:
		return ProcedureRead
	case *AttClientFindInformationCommand, *AttClientReadByTypeCommand, *AttClientReadByGroupTypeCommand, *AttClientFindByTypeValueCommand:
		return ProcedureDiscover
	case *AttClientAttributeWriteCommand:
		return ProcedureWrite
	case *AttClientPrepareWriteCommand, *AttClientExecuteWriteCommand:
		return ProcedureQueuedWrite
	}
	return ProcedureNone
}

// begin validates an attribute command against the connection's transaction
// and opens the transaction before the command is transmitted. Commands that
// are not attribute commands pass untouched.
func (t *connTable) begin(cmd Command) (txState, error) {
	if cmd.ID().Class != ClassAttClient {
		return txState{}, nil
	}
	if _, ok := cmd.(*AttClientIndicateConfirmCommand); ok {
		return txState{}, nil
	}
	switch c := cmd.(type) {
	case *AttClientAttributeWriteCommand:
		if len(c.Data) > MaxAttributeWriteLength {
			return txState{}, fmt.Errorf("%w: attribute write of %d bytes, max %d", ErrPayloadTooLarge, len(c.Data), MaxAttributeWriteLength)
		}
	case *AttClientWriteCommandCommand:
		if len(c.Data) > MaxAttributeWriteLength {
			return txState{}, fmt.Errorf("%w: write command of %d bytes, max %d", ErrPayloadTooLarge, len(c.Data), MaxAttributeWriteLength)
		}
	case *AttClientPrepareWriteCommand:
		if len(c.Data) > MaxPrepareWriteLength {
			return txState{}, fmt.Errorf("%w: prepare write chunk of %d bytes, max %d", ErrPayloadTooLarge, len(c.Data), MaxPrepareWriteLength)
		}
	}

	scoped, ok := cmd.(ConnectionScoped)
	if !ok {
		return txState{}, nil
	}
	h := scoped.ConnectionHandle()

	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.links[h]
	if !ok || l.State != StateConnected {
		return txState{}, fmt.Errorf("%w: connection %d", ErrNotConnected, h)
	}
	prev := txState{
		handle:    h,
		valid:     true,
		procedure: l.Procedure,
		busy:      l.busy,
		executing: l.executing,
		chunk:     l.chunk,
	}
	inProgress := fmt.Errorf("%w: %s open on connection %d", ErrTransactionInProgress, l.Procedure, h)

	switch c := cmd.(type) {
	case *AttClientWriteCommandCommand:
		if l.busy || l.Procedure != ProcedureNone {
			return txState{}, inProgress
		}
		return txState{}, nil
	case *AttClientPrepareWriteCommand:
		if l.busy || (l.Procedure != ProcedureNone && l.Procedure != ProcedureQueuedWrite) {
			return txState{}, inProgress
		}
		l.Procedure = ProcedureQueuedWrite
		l.busy = true
		l.chunk = &chunk{offset: c.Offset, data: append([]byte(nil), c.Data...)}
	case *AttClientExecuteWriteCommand:
		if l.Procedure == ProcedureNone {
			return txState{}, fmt.Errorf("%w: connection %d", ErrNoQueuedWrite, h)
		}
		if l.busy || l.Procedure != ProcedureQueuedWrite {
			return txState{}, inProgress
		}
		l.busy = true
		l.executing = true
	default:
		if l.busy || l.Procedure != ProcedureNone {
			return txState{}, inProgress
		}
		l.Procedure = procedureFor(cmd)
		l.busy = true
	}
	return prev, nil
}

// abort undoes begin after the command failed.
func (t *connTable) abort(prev txState) {
	if !prev.valid {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.links[prev.handle]
	if !ok {
		return
	}
	l.Procedure = prev.procedure
	l.busy = prev.busy
	l.executing = prev.executing
	l.chunk = prev.chunk
	if l.Procedure == ProcedureNone {
		l.QueuedWrite = nil
	}
}

// applyResponse applies the state change of a successful command.
func (t *connTable) applyResponse(cmd Command, rsp Response) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch c := cmd.(type) {
	case *GAPDiscoverCommand:
		t.state = StateScanning
	case *GAPEndProcedureCommand:
		t.state = StateIdle
		for h, l := range t.links {
			if l.State == StateConnecting {
				delete(t.links, h)
			}
		}
	case *GAPConnectDirectCommand:
		r := rsp.(*GAPConnectDirectResponse)
		t.reserve(r.ConnectionHandle, c.Address, c.AddrType)
	case *GAPConnectSelectiveCommand:
		r := rsp.(*GAPConnectSelectiveResponse)
		t.reserve(r.ConnectionHandle, BDAddr{}, AddressTypePublic)
	case *ConnectionDisconnectCommand:
		if l, ok := t.links[c.Connection]; ok && l.State != StateDisconnected {
			l.State = StateDisconnecting
		}
	case *SystemGetConnectionsCommand:
		if n := rsp.(*SystemGetConnectionsResponse).MaxConn; n > 0 {
			t.maxConn = n
		}
	case *AttClientExecuteWriteCommand:
		if !c.Commit {
			if l, ok := t.links[c.Connection]; ok {
				l.endProcedure()
			}
		}
	}
}

func (t *connTable) reserve(h uint8, addr BDAddr, typ AddressType) {
	if h >= t.maxConn {
		t.log.Warn("bgapi connection handle out of range", zap.Uint8("handle", h), zap.Uint8("max", t.maxConn))
		return
	}
	if l, ok := t.links[h]; ok && l.State != StateDisconnected {
		// connection_status can overtake the connect response.
		return
	}
	t.links[h] = &link{Connection: Connection{Handle: h, State: StateConnecting, Address: addr, AddressType: typ}}
	t.state = StateConnecting
}

// applyEvent applies ev and returns a snapshot of the connection it concerns,
// or nil when ev is not connection scoped or names an unknown handle. freed
// reports that the handle was released by this event.
func (t *connTable) applyEvent(ev Event) (conn *Connection, freed bool) {
	scoped, ok := ev.(ConnectionScoped)
	if !ok {
		return nil, false
	}
	h := scoped.ConnectionHandle()

	t.mu.Lock()
	defer t.mu.Unlock()
	if h >= t.maxConn {
		t.log.Warn("bgapi event for connection handle out of range", zap.Uint8("handle", h), zap.Uint8("max", t.maxConn))
		return nil, false
	}
	l, ok := t.links[h]
	if s, isStatus := ev.(*ConnectionStatusEvent); isStatus {
		if !ok {
			l = &link{Connection: Connection{Handle: h, State: StateConnecting}}
			t.links[h] = l
		}
		l.Flags = s.Flags
		l.Address = s.Address
		l.AddressType = s.AddressType
		l.Interval = s.ConnInterval
		l.Timeout = s.Timeout
		l.Latency = s.Latency
		l.Bonding = s.Bonding
		if s.Flags.Has(ConnectionConnected) && l.State == StateConnecting {
			l.State = StateConnected
		}
		if t.state == StateConnecting && !t.connectingLocked() {
			t.state = StateIdle
		}
		return l.snapshot(), false
	}
	if !ok {
		return nil, false
	}

	switch e := ev.(type) {
	case *ConnectionDisconnectedEvent:
		l.endProcedure()
		l.State = StateDisconnected
		l.Reason = e.Reason
		delete(t.links, h)
		if t.state == StateConnecting && !t.connectingLocked() {
			t.state = StateIdle
		}
		return l.snapshot(), true
	case *AttClientProcedureCompletedEvent:
		t.completeLocked(l, e.Result)
	case *AttClientAttributeValueEvent:
		if e.Type == AttributeValueRead && l.Procedure == ProcedureRead {
			l.endProcedure()
		}
	case *AttClientReadMultipleResponseEvent:
		if l.Procedure == ProcedureRead {
			l.endProcedure()
		}
	}
	return l.snapshot(), false
}

func (t *connTable) completeLocked(l *link, result Result) {
	if l.Procedure != ProcedureQueuedWrite {
		l.endProcedure()
		return
	}
	if l.executing {
		l.endProcedure()
		return
	}
	// A prepare_write chunk was acknowledged; the queue stays open until it
	// is executed or cancelled.
	if c := l.chunk; c != nil && result.Success() {
		end := int(c.offset) + len(c.data)
		if end > len(l.QueuedWrite) {
			grown := make([]byte, end)
			copy(grown, l.QueuedWrite)
			l.QueuedWrite = grown
		}
		copy(l.QueuedWrite[c.offset:], c.data)
	}
	l.chunk = nil
	l.busy = false
}

func (t *connTable) connectingLocked() bool {
	for _, l := range t.links {
		if l.State == StateConnecting {
			return true
		}
	}
	return false
}

// resetAll forces every link to Disconnected with reason and empties the
// table, returning the final snapshots in handle order.
func (t *connTable) resetAll(reason Result) []*Connection {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*Connection
	for h := 0; h < 256; h++ {
		l, ok := t.links[uint8(h)]
		if !ok {
			continue
		}
		l.endProcedure()
		l.State = StateDisconnected
		l.Reason = reason
		out = append(out, l.snapshot())
	}
	t.links = make(map[uint8]*link)
	t.state = StateIdle
	return out
}

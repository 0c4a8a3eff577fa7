package bgapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultFrameTimeout is how long a partial frame may wait for its remaining
// bytes before it is discarded.
const DefaultFrameTimeout = 500 * time.Millisecond

type options struct {
	log            *zap.Logger
	commandTimeout time.Duration
	frameTimeout   time.Duration
	maxPayload     int
	maxConn        uint8
}

type Option func(*options)

// WithLogger replaces the global zap logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

func WithCommandTimeout(d time.Duration) Option {
	return func(o *options) { o.commandTimeout = d }
}

// WithFrameTimeout sets how long an incomplete frame is kept. Zero keeps it
// forever.
func WithFrameTimeout(d time.Duration) Option {
	return func(o *options) { o.frameTimeout = d }
}

func WithMaxPayloadLength(n int) Option {
	return func(o *options) { o.maxPayload = n }
}

func WithMaxConnections(n uint8) Option {
	return func(o *options) { o.maxConn = n }
}

type counters struct {
	framesIn  atomic.Uint64
	framesOut atomic.Uint64
	events    atomic.Uint64
	dropped   atomic.Uint64
	unknown   atomic.Uint64
	timeouts  atomic.Uint64
}

// Stats are cumulative counters since Open.
type Stats struct {
	FramesIn  uint64
	FramesOut uint64
	Events    uint64
	Resyncs   uint64
	Dropped   uint64
	Unknown   uint64
	Timeouts  uint64
}

// Adapter drives one BGAPI device over a byte stream. A single reader
// goroutine decodes frames, applies them to the connection state and
// dispatches events; commands may be sent from any goroutine.
type Adapter struct {
	t   io.ReadWriteCloser
	log *zap.Logger
	wmu sync.Mutex

	frames       *FrameReader
	frameTimeout time.Duration
	corr         *correlator
	conns        *connTable
	disp         *dispatcher
	stats        counters

	closing   chan struct{}
	closeOnce sync.Once
	done      chan struct{}
	readErr   error
}

// Open starts the engine on t. The transport is owned by the adapter from now
// on and is closed by Close.
func Open(t io.ReadWriteCloser, opts ...Option) *Adapter {
	o := options{
		log:            zap.L(),
		commandTimeout: DefaultCommandTimeout,
		frameTimeout:   DefaultFrameTimeout,
		maxPayload:     DefaultMaxPayloadLength,
		maxConn:        DefaultMaxConnections,
	}
	for _, opt := range opts {
		opt(&o)
	}
	a := &Adapter{
		t:            t,
		log:          o.log,
		frames:       NewFrameReader(o.maxPayload),
		frameTimeout: o.frameTimeout,
		conns:        newConnTable(o.maxConn, o.log),
		disp:         newDispatcher(o.log),
		closing:      make(chan struct{}),
		done:         make(chan struct{}),
	}
	a.corr = newCorrelator(a.write, o.commandTimeout, o.log)
	a.corr.timeouts = func() { a.stats.timeouts.Inc() }
	a.frames.Check = a.check
	go a.run()
	return a
}

func (a *Adapter) write(frame []byte) error {
	a.wmu.Lock()
	defer a.wmu.Unlock()
	a.log.Debug("bgapi writing", zap.String("packet", fmt.Sprintf("%x", frame)))
	if _, err := a.t.Write(frame); err != nil {
		return err
	}
	a.stats.framesOut.Inc()
	return nil
}

// Send transmits cmd and waits for its response. Commands are serialized: at
// most one is in flight and the rest wait in order. A non-success result is
// returned as *CommandError together with the response.
//
// Send must not be called from a Handler.
func (a *Adapter) Send(ctx context.Context, cmd Command) (Response, error) {
	select {
	case <-a.closing:
		return nil, ErrClosed
	default:
	}
	frame, err := Marshal(cmd)
	if err != nil {
		return nil, err
	}
	if !expectsResponse(cmd.ID()) {
		return nil, a.write(frame)
	}
	prev, err := a.conns.begin(cmd)
	if err != nil {
		return nil, err
	}
	return a.corr.send(ctx, cmd, frame, func(rsp Response, err error) {
		if err != nil {
			a.conns.abort(prev)
			return
		}
		a.conns.applyResponse(cmd, rsp)
	})
}

func call[T Response](ctx context.Context, a *Adapter, cmd Command) (T, error) {
	var zero T
	rsp, err := a.Send(ctx, cmd)
	if err != nil {
		return zero, err
	}
	r, ok := rsp.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s answered with %T", ErrMalformedFrame, Name(cmd.ID(), false), rsp)
	}
	return r, nil
}

// Subscribe registers h for every event. The returned func unsubscribes.
func (a *Adapter) Subscribe(h Handler) func() {
	return a.disp.subscribe(h)
}

// SubscribeConnection registers h for the events of one connection handle.
// The subscription ends by itself once the handle is freed.
func (a *Adapter) SubscribeConnection(handle uint8, h Handler) func() {
	return a.disp.subscribeConnection(handle, h)
}

// State is the adapter level GAP state: Idle, Scanning or Connecting.
func (a *Adapter) State() State {
	return a.conns.adapterState()
}

func (a *Adapter) Connection(handle uint8) (Connection, bool) {
	return a.conns.get(handle)
}

// Connections lists the live connections in handle order.
func (a *Adapter) Connections() []Connection {
	return a.conns.all()
}

func (a *Adapter) Stats() Stats {
	return Stats{
		FramesIn:  a.stats.framesIn.Load(),
		FramesOut: a.stats.framesOut.Load(),
		Events:    a.stats.events.Load(),
		Resyncs:   a.frames.Resyncs(),
		Dropped:   a.stats.dropped.Load(),
		Unknown:   a.stats.unknown.Load(),
		Timeouts:  a.stats.timeouts.Load(),
	}
}

// Done is closed once the reader goroutine has stopped.
func (a *Adapter) Done() <-chan struct{} {
	return a.done
}

// Close stops the engine. Outstanding commands fail with ErrAdapterReset and
// every connection is reported Disconnected.
func (a *Adapter) Close() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.closing)
		err = a.t.Close()
		<-a.done
		err = multierr.Append(a.readErr, err)
	})
	return err
}

func (a *Adapter) run() {
	defer close(a.done)
	defer a.teardown()

	buf := make([]byte, 512)
	var last time.Time
	for {
		n, err := a.t.Read(buf)
		if n > 0 {
			now := time.Now()
			if a.frameTimeout > 0 && a.frames.Pending() > 0 && now.Sub(last) > a.frameTimeout {
				lost := a.frames.Discard()
				a.log.Warn("bgapi discarding stale partial frame", zap.Int("bytes", lost))
			}
			last = now
			a.log.Debug("bgapi reading", zap.String("packet", fmt.Sprintf("%x", buf[:n])))
			for _, f := range a.frames.Feed(buf[:n]) {
				a.handle(f)
			}
		}
		if err != nil {
			select {
			case <-a.closing:
			default:
				a.log.Error("bgapi transport failed", zap.Error(err))
				if !errors.Is(err, io.EOF) {
					a.readErr = err
				}
			}
			return
		}
	}
}

func (a *Adapter) teardown() {
	a.corr.close(ErrAdapterReset)
	a.disconnectAll()
}

func (a *Adapter) handle(f Frame) {
	a.stats.framesIn.Inc()
	if !f.Header.Event {
		a.handleResponse(f)
		return
	}
	m, err := f.Decode()
	if err != nil {
		a.drop(f, err)
		return
	}
	ev := m.(Event)
	a.stats.events.Inc()
	if _, ok := ev.(*SystemBootEvent); ok {
		a.log.Info("bgapi device booted, resetting state")
		a.corr.failAll(ErrAdapterReset)
		a.disconnectAll()
	}
	conn, freed := a.conns.applyEvent(ev)
	a.disp.dispatch(ev, conn, freed)
}

func (a *Adapter) handleResponse(f Frame) {
	m, err := f.Decode()
	if err != nil {
		a.drop(f, err)
		return
	}
	rsp := m.(Response)
	req := a.corr.match(f.Header.ID(), rsp)
	if req == nil {
		a.stats.dropped.Inc()
		a.log.Warn("bgapi dropping unexpected response", zap.Stringer("header", f.Header))
		return
	}
	if r, ok := rsp.(resulter); ok && !r.ResultCode().Success() {
		err = &CommandError{ID: req.cmd.ID(), Result: r.ResultCode()}
	}
	req.finish(rsp, err)
	a.corr.advance()
}

// check runs inside the FrameReader on every complete frame. A frame that is
// cut at its declared length but does not decode is usually a truncated frame
// that ran into the next one, so it is rejected and the reader resyncs from
// its second byte. A malformed answer to the pending command still fails it.
func (a *Adapter) check(f Frame) error {
	_, err := f.Decode()
	if !errors.Is(err, ErrMalformedFrame) {
		return nil
	}
	a.stats.dropped.Inc()
	if f.Header.Event {
		a.log.Warn("bgapi dropping malformed event", zap.Stringer("header", f.Header), zap.Error(err))
		return err
	}
	a.log.Warn("bgapi malformed response", zap.Stringer("header", f.Header), zap.Error(err))
	if req := a.corr.match(f.Header.ID(), nil); req != nil {
		req.finish(nil, err)
		a.corr.advance()
	}
	return err
}

func (a *Adapter) drop(f Frame, err error) {
	if errors.Is(err, ErrUnknownMessage) {
		a.stats.unknown.Inc()
		a.log.Info("bgapi dropping unknown message", zap.Stringer("header", f.Header))
		return
	}
	a.stats.dropped.Inc()
	a.log.Warn("bgapi dropping malformed frame", zap.Stringer("header", f.Header), zap.Error(err))
}

// disconnectAll reports every live connection as dropped by the local host.
func (a *Adapter) disconnectAll() {
	for _, c := range a.conns.resetAll(ResultConnectionTerminatedByLocalHost) {
		a.disp.dispatch(&ConnectionDisconnectedEvent{Connection: c.Handle, Reason: c.Reason}, c, true)
	}
}

package bgapi

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultCommandTimeout bounds the wait for a response.
const DefaultCommandTimeout = 5 * time.Second

type reply struct {
	rsp Response
	err error
}

type request struct {
	ctx   context.Context
	cmd   Command
	frame []byte
	timer *time.Timer
	// settle runs exactly once, before the caller is woken.
	settle func(Response, error)
	done   chan reply
}

func (req *request) finish(rsp Response, err error) {
	if req.settle != nil {
		req.settle(rsp, err)
	}
	req.done <- reply{rsp, err}
}

// correlator keeps at most one command in flight. The firmware answers
// commands strictly in order and has no request ids, so a response can only
// belong to the single pending command.
type correlator struct {
	mu      sync.Mutex
	pending *request
	queue   []*request
	closed  bool

	timeout  time.Duration
	write    func([]byte) error
	log      *zap.Logger
	timeouts func()
}

func newCorrelator(write func([]byte) error, timeout time.Duration, log *zap.Logger) *correlator {
	return &correlator{write: write, timeout: timeout, log: log}
}

// send queues cmd and blocks until its response, a failure, or ctx is done.
// A command that was already transmitted stays pending after ctx is done so
// that its response is not mistaken for the next command's.
func (c *correlator) send(ctx context.Context, cmd Command, frame []byte, settle func(Response, error)) (Response, error) {
	req := &request{
		ctx:    ctx,
		cmd:    cmd,
		frame:  frame,
		settle: settle,
		done:   make(chan reply, 1),
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		req.finish(nil, ErrClosed)
		return nil, ErrClosed
	}
	c.queue = append(c.queue, req)
	next, skipped := c.promoteLocked()
	c.mu.Unlock()

	c.skip(skipped)
	if next != nil {
		c.transmit(next)
	}

	select {
	case r := <-req.done:
		return r.rsp, r.err
	case <-ctx.Done():
		if c.dequeue(req) {
			req.finish(nil, ctx.Err())
		}
		return nil, ctx.Err()
	}
}

// promoteLocked moves the head of the queue into the free pending slot and
// arms its deadline. Requests whose context ended while queued are returned
// separately and must be finished by the caller outside the lock.
func (c *correlator) promoteLocked() (next *request, skipped []*request) {
	if c.pending != nil {
		return nil, nil
	}
	for len(c.queue) > 0 {
		req := c.queue[0]
		c.queue[0] = nil
		c.queue = c.queue[1:]
		if req.ctx.Err() != nil {
			skipped = append(skipped, req)
			continue
		}
		c.pending = req
		req.timer = time.AfterFunc(c.timeout, func() { c.expire(req) })
		return req, skipped
	}
	return nil, skipped
}

func (c *correlator) skip(reqs []*request) {
	for _, req := range reqs {
		c.log.Debug("bgapi command skipped", zap.String("command", Name(req.cmd.ID(), false)), zap.Error(req.ctx.Err()))
		req.finish(nil, req.ctx.Err())
	}
}

// transmit writes req and every request promoted after a failed write.
func (c *correlator) transmit(req *request) {
	for req != nil {
		err := c.write(req.frame)
		if err == nil {
			return
		}
		c.mu.Lock()
		if c.pending != req {
			c.mu.Unlock()
			return
		}
		req.timer.Stop()
		c.pending = nil
		next, skipped := c.promoteLocked()
		c.mu.Unlock()

		req.finish(nil, err)
		c.skip(skipped)
		req = next
	}
}

func (c *correlator) dequeue(req *request) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, q := range c.queue {
		if q == req {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			return true
		}
	}
	return false
}

func (c *correlator) expire(req *request) {
	c.mu.Lock()
	if c.pending != req {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.mu.Unlock()

	c.log.Warn("bgapi command timed out", zap.String("command", Name(req.cmd.ID(), false)), zap.Duration("timeout", c.timeout))
	if c.timeouts != nil {
		c.timeouts()
	}
	req.finish(nil, ErrCommandTimeout)
	c.advance()
}

// match claims the pending request if a response with id answers it. When
// both the command and rsp name a connection, the handles must agree too; rsp
// is nil for a response that could not be decoded. The caller must finish the
// request and then call advance.
func (c *correlator) match(id MessageID, rsp Response) *request {
	c.mu.Lock()
	defer c.mu.Unlock()
	req := c.pending
	if req == nil || req.cmd.ID() != id {
		return nil
	}
	if want, ok := req.cmd.(ConnectionScoped); ok {
		if got, ok := rsp.(ConnectionScoped); ok && got.ConnectionHandle() != want.ConnectionHandle() {
			return nil
		}
	}
	req.timer.Stop()
	c.pending = nil
	return req
}

// advance promotes the next queued command. It is called from the reader and
// timer goroutines, which must not block on the transport.
func (c *correlator) advance() {
	c.mu.Lock()
	next, skipped := c.promoteLocked()
	c.mu.Unlock()

	c.skip(skipped)
	if next != nil {
		go c.transmit(next)
	}
}

// failAll fails the pending and every queued command with err.
func (c *correlator) failAll(err error) {
	c.mu.Lock()
	reqs := c.queue
	if c.pending != nil {
		c.pending.timer.Stop()
		reqs = append([]*request{c.pending}, reqs...)
	}
	c.pending = nil
	c.queue = nil
	c.mu.Unlock()

	for _, req := range reqs {
		req.finish(nil, err)
	}
}

// close rejects further commands and fails the outstanding ones.
func (c *correlator) close(err error) {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.failAll(err)
}

func (c *correlator) queueLen() (pending bool, queued int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil, len(c.queue)
}

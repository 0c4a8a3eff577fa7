package bgapi

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// firmware plays the device end of an in-memory transport. Commands are
// either answered by respond or queued for the test to inspect.
type firmware struct {
	conn net.Conn
	cmds chan Command

	mu      sync.Mutex
	respond func(Command) []Message
}

func newTestAdapter(t *testing.T, opts ...Option) (*Adapter, *firmware) {
	t.Helper()
	host, dev := net.Pipe()
	fw := &firmware{conn: dev, cmds: make(chan Command, 32)}
	go fw.run()
	a := Open(host, append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)...)
	t.Cleanup(func() {
		a.Close()
		dev.Close()
	})
	return a, fw
}

func (fw *firmware) run() {
	fr := NewFrameReader(MaxLength)
	buf := make([]byte, 512)
	for {
		n, err := fw.conn.Read(buf)
		if err != nil {
			return
		}
		for _, f := range fr.Feed(buf[:n]) {
			cmd, err := UnmarshalCommand(f.Bytes())
			if err != nil {
				continue
			}
			fw.mu.Lock()
			respond := fw.respond
			fw.mu.Unlock()
			if respond != nil {
				if msgs := respond(cmd); msgs != nil {
					for _, m := range msgs {
						b, _ := Marshal(m)
						fw.conn.Write(b)
					}
					continue
				}
			}
			fw.cmds <- cmd
		}
	}
}

func (fw *firmware) setRespond(f func(Command) []Message) {
	fw.mu.Lock()
	fw.respond = f
	fw.mu.Unlock()
}

func (fw *firmware) send(t *testing.T, msgs ...Message) {
	t.Helper()
	for _, m := range msgs {
		b, err := Marshal(m)
		require.NoError(t, err)
		_, err = fw.conn.Write(b)
		require.NoError(t, err)
	}
}

func (fw *firmware) expect(t *testing.T, id MessageID) Command {
	t.Helper()
	select {
	case cmd := <-fw.cmds:
		require.Equal(t, id, cmd.ID(), "got %s, want %s", Name(cmd.ID(), false), Name(id, false))
		return cmd
	case <-time.After(2 * time.Second):
		require.FailNow(t, "command not received", Name(id, false))
	}
	return nil
}

func (fw *firmware) expectNone(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case cmd := <-fw.cmds:
		require.FailNow(t, "unexpected command", Name(cmd.ID(), false))
	case <-time.After(d):
	}
}

// sync round-trips a hello. Frames are handled in order, so everything the
// firmware sent before has been applied and dispatched once it returns.
func (fw *firmware) sync(t *testing.T, a *Adapter) {
	t.Helper()
	ch := asyncErr(func() error { return a.Hello(context.Background()) })
	fw.expect(t, IDSystemHello)
	fw.send(t, &SystemHelloResponse{})
	require.NoError(t, awaitErr(t, ch))
}

// connect announces a connected link on handle h.
func (fw *firmware) connect(t *testing.T, a *Adapter, h uint8) {
	t.Helper()
	fw.send(t, &ConnectionStatusEvent{
		Connection:   h,
		Flags:        ConnectionConnected | ConnectionCompleted,
		Address:      BDAddr{h, 0x11, 0x22, 0x33, 0x44, 0x55},
		ConnInterval: 60,
		Timeout:      100,
	})
	fw.sync(t, a)
}

type outcome[T any] struct {
	v   T
	err error
}

func async[T any](f func() (T, error)) chan outcome[T] {
	ch := make(chan outcome[T], 1)
	go func() {
		v, err := f()
		ch <- outcome[T]{v, err}
	}()
	return ch
}

func asyncErr(f func() error) chan outcome[struct{}] {
	return async(func() (struct{}, error) { return struct{}{}, f() })
}

func await[T any](t *testing.T, ch chan outcome[T]) (T, error) {
	t.Helper()
	select {
	case o := <-ch:
		return o.v, o.err
	case <-time.After(2 * time.Second):
		require.FailNow(t, "call did not return")
	}
	var zero T
	return zero, nil
}

func awaitErr(t *testing.T, ch chan outcome[struct{}]) error {
	t.Helper()
	_, err := await(t, ch)
	return err
}

package bgapi

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/muxable/bgapi/pkg/adv"
	"github.com/muxable/bgapi/pkg/att"
	"go.uber.org/zap"
)

// PrimaryService is the GATT primary service declaration type.
var PrimaryService = adv.UUID16(0x2800)

// Service is a primary service found by Services.
type Service struct {
	UUID  uuid.UUID
	Range HandleRange
}

// Connect connects to addr and waits for the link to come up. If ctx ends
// first the attempt is abandoned with gap_end_procedure.
func (a *Adapter) Connect(ctx context.Context, addr BDAddr, typ AddressType, p ConnectionParameters) (Connection, error) {
	h, err := a.ConnectDirect(ctx, addr, typ, p)
	if err != nil {
		return Connection{}, err
	}
	type outcome struct {
		conn Connection
		err  error
	}
	result := make(chan outcome, 1)
	unsubscribe := a.SubscribeConnection(h, func(ev Event, conn *Connection) {
		var o outcome
		switch {
		case conn.State == StateConnected:
			o.conn = *conn
		case conn.State == StateDisconnected:
			o.err = fmt.Errorf("%w: connection %d failed: %s", ErrNotConnected, h, conn.Reason)
		default:
			return
		}
		select {
		case result <- o:
		default:
		}
	})
	defer unsubscribe()

	// Events may have been applied before we subscribed. A handle missing from
	// the table was either refused or already freed by connection_disconnected.
	conn, ok := a.Connection(h)
	if !ok {
		return Connection{}, fmt.Errorf("%w: connection %d is not tracked", ErrNotConnected, h)
	}
	if conn.State == StateConnected {
		return conn, nil
	}
	select {
	case o := <-result:
		return o.conn, o.err
	case <-ctx.Done():
		a.abandonConnect(ctx)
		return Connection{}, ctx.Err()
	case <-a.done:
		return Connection{}, ErrClosed
	}
}

func (a *Adapter) abandonConnect(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultCommandTimeout)
	defer cancel()
	if err := a.EndProcedure(ctx); err != nil {
		a.log.Warn("bgapi failed to abandon connect", zap.Error(err))
	}
}

func procedureError(id MessageID, r Result) error {
	if r.Success() {
		return nil
	}
	return &CommandError{ID: id, Result: r}
}

// procedure starts an attribute operation on conn and feeds the connection's
// events to step until it reports the operation done.
func (a *Adapter) procedure(ctx context.Context, conn uint8, start func() error, step func(Event) (bool, error)) error {
	result := make(chan error, 1)
	finish := func(err error) {
		select {
		case result <- err:
		default:
		}
	}
	unsubscribe := a.SubscribeConnection(conn, func(ev Event, _ *Connection) {
		if e, ok := ev.(*ConnectionDisconnectedEvent); ok {
			finish(fmt.Errorf("%w: connection %d dropped: %s", ErrNotConnected, conn, e.Reason))
			return
		}
		if done, err := step(ev); done {
			finish(err)
		}
	})
	defer unsubscribe()

	if err := start(); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-a.done:
		return ErrClosed
	}
}

func completed(id MessageID) func(Event) (bool, error) {
	return func(ev Event) (bool, error) {
		if e, ok := ev.(*AttClientProcedureCompletedEvent); ok {
			return true, procedureError(id, e.Result)
		}
		return false, nil
	}
}

// ReadValue reads an attribute and waits for its value.
func (a *Adapter) ReadValue(ctx context.Context, conn uint8, handle uint16) ([]byte, error) {
	var value []byte
	err := a.procedure(ctx, conn, func() error {
		return a.ReadByHandle(ctx, conn, handle)
	}, func(ev Event) (bool, error) {
		switch e := ev.(type) {
		case *AttClientAttributeValueEvent:
			if e.AttHandle == handle && e.Type == AttributeValueRead {
				value = e.Value
				return true, nil
			}
		case *AttClientProcedureCompletedEvent:
			return true, procedureError(IDAttClientReadByHandle, e.Result)
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// WriteValue writes up to MaxAttributeWriteLength bytes and waits for the
// peer to acknowledge them.
func (a *Adapter) WriteValue(ctx context.Context, conn uint8, handle uint16, data []byte) error {
	return a.procedure(ctx, conn, func() error {
		return a.AttributeWrite(ctx, conn, handle, data)
	}, completed(IDAttClientAttributeWrite))
}

// WriteLong writes data of any length as a queued write: prepare_write chunks
// of MaxPrepareWriteLength bytes, each acknowledged by the peer, then
// execute_write. A failed chunk cancels the queue.
func (a *Adapter) WriteLong(ctx context.Context, conn uint8, handle uint16, data []byte) error {
	for off := 0; ; off += MaxPrepareWriteLength {
		end := min(off+MaxPrepareWriteLength, len(data))
		chunk := data[off:end]
		offset := uint16(off)
		err := a.procedure(ctx, conn, func() error {
			return a.PrepareWrite(ctx, conn, handle, offset, chunk)
		}, completed(IDAttClientPrepareWrite))
		if err != nil {
			a.cancelQueuedWrite(ctx, conn)
			return err
		}
		if end == len(data) {
			break
		}
	}
	return a.procedure(ctx, conn, func() error {
		return a.ExecuteWrite(ctx, conn)
	}, completed(IDAttClientExecuteWrite))
}

func (a *Adapter) cancelQueuedWrite(ctx context.Context, conn uint8) {
	c, ok := a.Connection(conn)
	if !ok || c.Procedure != ProcedureQueuedWrite {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultCommandTimeout)
	defer cancel()
	if err := a.CancelWrite(ctx, conn); err != nil {
		a.log.Warn("bgapi failed to cancel queued write", zap.Uint8("connection", conn), zap.Error(err))
	}
}

// Services discovers the primary services of conn.
func (a *Adapter) Services(ctx context.Context, conn uint8) ([]Service, error) {
	var services []Service
	err := a.procedure(ctx, conn, func() error {
		return a.ReadByGroupType(ctx, conn, AllHandles, PrimaryService)
	}, func(ev Event) (bool, error) {
		switch e := ev.(type) {
		case *AttClientGroupFoundEvent:
			u, err := e.ServiceUUID()
			if err != nil {
				a.log.Warn("bgapi ignoring service with invalid uuid", zap.Binary("uuid", e.UUID))
				return false, nil
			}
			services = append(services, Service{UUID: u, Range: HandleRange{Start: e.Start, End: e.End}})
		case *AttClientProcedureCompletedEvent:
			// The peer ends discovery with attribute_not_found.
			if ae, ok := e.Result.ATT(); ok && ae == att.ErrorAttributeNotFound {
				return true, nil
			}
			return true, procedureError(IDAttClientReadByGroupType, e.Result)
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return services, nil
}

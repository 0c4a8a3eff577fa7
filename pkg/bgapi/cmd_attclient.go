package bgapi

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/muxable/bgapi/pkg/adv"
)

const (
	// MaxAttributeWriteLength is the largest value attclient_attribute_write
	// and attclient_write_command accept with the default ATT MTU.
	MaxAttributeWriteLength = 20
	// MaxPrepareWriteLength is the largest chunk of a queued write.
	MaxPrepareWriteLength = 18
)

func init() {
	registerCommand("attclient_find_by_type_value", func() Command { return &AttClientFindByTypeValueCommand{} }, func() Response { return &AttClientFindByTypeValueResponse{} })
	registerCommand("attclient_read_by_group_type", func() Command { return &AttClientReadByGroupTypeCommand{} }, func() Response { return &AttClientReadByGroupTypeResponse{} })
	registerCommand("attclient_read_by_type", func() Command { return &AttClientReadByTypeCommand{} }, func() Response { return &AttClientReadByTypeResponse{} })
	registerCommand("attclient_find_information", func() Command { return &AttClientFindInformationCommand{} }, func() Response { return &AttClientFindInformationResponse{} })
	registerCommand("attclient_read_by_handle", func() Command { return &AttClientReadByHandleCommand{} }, func() Response { return &AttClientReadByHandleResponse{} })
	registerCommand("attclient_attribute_write", func() Command { return &AttClientAttributeWriteCommand{} }, func() Response { return &AttClientAttributeWriteResponse{} })
	registerCommand("attclient_write_command", func() Command { return &AttClientWriteCommandCommand{} }, func() Response { return &AttClientWriteCommandResponse{} })
	registerCommand("attclient_indicate_confirm", func() Command { return &AttClientIndicateConfirmCommand{} }, func() Response { return &AttClientIndicateConfirmResponse{} })
	registerCommand("attclient_read_long", func() Command { return &AttClientReadLongCommand{} }, func() Response { return &AttClientReadLongResponse{} })
	registerCommand("attclient_prepare_write", func() Command { return &AttClientPrepareWriteCommand{} }, func() Response { return &AttClientPrepareWriteResponse{} })
	registerCommand("attclient_execute_write", func() Command { return &AttClientExecuteWriteCommand{} }, func() Response { return &AttClientExecuteWriteResponse{} })
	registerCommand("attclient_read_multiple", func() Command { return &AttClientReadMultipleCommand{} }, func() Response { return &AttClientReadMultipleResponse{} })

	registerEvent("attclient_indicated", func() Event { return &AttClientIndicatedEvent{} })
	registerEvent("attclient_procedure_completed", func() Event { return &AttClientProcedureCompletedEvent{} })
	registerEvent("attclient_group_found", func() Event { return &AttClientGroupFoundEvent{} })
	registerEvent("attclient_attribute_found", func() Event { return &AttClientAttributeFoundEvent{} })
	registerEvent("attclient_find_information_found", func() Event { return &AttClientFindInformationFoundEvent{} })
	registerEvent("attclient_attribute_value", func() Event { return &AttClientAttributeValueEvent{} })
	registerEvent("attclient_read_multiple_response", func() Event { return &AttClientReadMultipleResponseEvent{} })
}

// HandleRange is an inclusive attribute handle range.
type HandleRange struct {
	Start uint16
	End   uint16
}

// AllHandles covers the whole attribute database.
var AllHandles = HandleRange{Start: 0x0001, End: 0xFFFF}

type AttClientFindByTypeValueCommand struct {
	commandMarker
	Connection uint8
	Start      uint16
	End        uint16
	UUID       uint16
	Value      []byte
}

func (*AttClientFindByTypeValueCommand) ID() MessageID             { return IDAttClientFindByTypeValue }
func (c *AttClientFindByTypeValueCommand) ConnectionHandle() uint8 { return c.Connection }

func (c *AttClientFindByTypeValueCommand) MarshalPayload(e *Encoder) {
	e.Uint8(c.Connection)
	e.Uint16(c.Start)
	e.Uint16(c.End)
	e.Uint16(c.UUID)
	e.Array(c.Value)
}

func (c *AttClientFindByTypeValueCommand) UnmarshalPayload(d *Decoder) {
	c.Connection = d.Uint8()
	c.Start = d.Uint16()
	c.End = d.Uint16()
	c.UUID = d.Uint16()
	c.Value = d.Array()
}

type AttClientFindByTypeValueResponse struct {
	responseMarker
	ConnectionResult
}

func (*AttClientFindByTypeValueResponse) ID() MessageID { return IDAttClientFindByTypeValue }

type AttClientReadByGroupTypeCommand struct {
	commandMarker
	Connection uint8
	Start      uint16
	End        uint16
	UUID       []byte
}

func (*AttClientReadByGroupTypeCommand) ID() MessageID             { return IDAttClientReadByGroupType }
func (c *AttClientReadByGroupTypeCommand) ConnectionHandle() uint8 { return c.Connection }

func (c *AttClientReadByGroupTypeCommand) MarshalPayload(e *Encoder) {
	e.Uint8(c.Connection)
	e.Uint16(c.Start)
	e.Uint16(c.End)
	e.Array(c.UUID)
}

func (c *AttClientReadByGroupTypeCommand) UnmarshalPayload(d *Decoder) {
	c.Connection = d.Uint8()
	c.Start = d.Uint16()
	c.End = d.Uint16()
	c.UUID = d.Array()
}

type AttClientReadByGroupTypeResponse struct {
	responseMarker
	ConnectionResult
}

func (*AttClientReadByGroupTypeResponse) ID() MessageID { return IDAttClientReadByGroupType }

type AttClientReadByTypeCommand struct {
	commandMarker
	Connection uint8
	Start      uint16
	End        uint16
	UUID       []byte
}

func (*AttClientReadByTypeCommand) ID() MessageID             { return IDAttClientReadByType }
func (c *AttClientReadByTypeCommand) ConnectionHandle() uint8 { return c.Connection }

func (c *AttClientReadByTypeCommand) MarshalPayload(e *Encoder) {
	e.Uint8(c.Connection)
	e.Uint16(c.Start)
	e.Uint16(c.End)
	e.Array(c.UUID)
}

func (c *AttClientReadByTypeCommand) UnmarshalPayload(d *Decoder) {
	c.Connection = d.Uint8()
	c.Start = d.Uint16()
	c.End = d.Uint16()
	c.UUID = d.Array()
}

type AttClientReadByTypeResponse struct {
	responseMarker
	ConnectionResult
}

func (*AttClientReadByTypeResponse) ID() MessageID { return IDAttClientReadByType }

type AttClientFindInformationCommand struct {
	commandMarker
	Connection uint8
	Start      uint16
	End        uint16
}

func (*AttClientFindInformationCommand) ID() MessageID             { return IDAttClientFindInformation }
func (c *AttClientFindInformationCommand) ConnectionHandle() uint8 { return c.Connection }

func (c *AttClientFindInformationCommand) MarshalPayload(e *Encoder) {
	e.Uint8(c.Connection)
	e.Uint16(c.Start)
	e.Uint16(c.End)
}

func (c *AttClientFindInformationCommand) UnmarshalPayload(d *Decoder) {
	c.Connection = d.Uint8()
	c.Start = d.Uint16()
	c.End = d.Uint16()
}

type AttClientFindInformationResponse struct {
	responseMarker
	ConnectionResult
}

func (*AttClientFindInformationResponse) ID() MessageID { return IDAttClientFindInformation }

type AttClientReadByHandleCommand struct {
	commandMarker
	Connection uint8
	ChrHandle  uint16
}

func (*AttClientReadByHandleCommand) ID() MessageID             { return IDAttClientReadByHandle }
func (c *AttClientReadByHandleCommand) ConnectionHandle() uint8 { return c.Connection }

func (c *AttClientReadByHandleCommand) MarshalPayload(e *Encoder) {
	e.Uint8(c.Connection)
	e.Uint16(c.ChrHandle)
}

func (c *AttClientReadByHandleCommand) UnmarshalPayload(d *Decoder) {
	c.Connection = d.Uint8()
	c.ChrHandle = d.Uint16()
}

type AttClientReadByHandleResponse struct {
	responseMarker
	ConnectionResult
}

func (*AttClientReadByHandleResponse) ID() MessageID { return IDAttClientReadByHandle }

type AttClientAttributeWriteCommand struct {
	commandMarker
	Connection uint8
	AttHandle  uint16
	Data       []byte
}

func (*AttClientAttributeWriteCommand) ID() MessageID             { return IDAttClientAttributeWrite }
func (c *AttClientAttributeWriteCommand) ConnectionHandle() uint8 { return c.Connection }

func (c *AttClientAttributeWriteCommand) MarshalPayload(e *Encoder) {
	e.Uint8(c.Connection)
	e.Uint16(c.AttHandle)
	e.Array(c.Data)
}

func (c *AttClientAttributeWriteCommand) UnmarshalPayload(d *Decoder) {
	c.Connection = d.Uint8()
	c.AttHandle = d.Uint16()
	c.Data = d.Array()
}

type AttClientAttributeWriteResponse struct {
	responseMarker
	ConnectionResult
}

func (*AttClientAttributeWriteResponse) ID() MessageID { return IDAttClientAttributeWrite }

// AttClientWriteCommandCommand is a write without response. It opens no
// procedure and produces no attclient_procedure_completed.
type AttClientWriteCommandCommand struct {
	commandMarker
	Connection uint8
	AttHandle  uint16
	Data       []byte
}

func (*AttClientWriteCommandCommand) ID() MessageID             { return IDAttClientWriteCommand }
func (c *AttClientWriteCommandCommand) ConnectionHandle() uint8 { return c.Connection }

func (c *AttClientWriteCommandCommand) MarshalPayload(e *Encoder) {
	e.Uint8(c.Connection)
	e.Uint16(c.AttHandle)
	e.Array(c.Data)
}

func (c *AttClientWriteCommandCommand) UnmarshalPayload(d *Decoder) {
	c.Connection = d.Uint8()
	c.AttHandle = d.Uint16()
	c.Data = d.Array()
}

type AttClientWriteCommandResponse struct {
	responseMarker
	ConnectionResult
}

func (*AttClientWriteCommandResponse) ID() MessageID { return IDAttClientWriteCommand }

type AttClientIndicateConfirmCommand struct {
	commandMarker
	Connection uint8
}

func (*AttClientIndicateConfirmCommand) ID() MessageID                 { return IDAttClientIndicateConfirm }
func (c *AttClientIndicateConfirmCommand) ConnectionHandle() uint8     { return c.Connection }
func (c *AttClientIndicateConfirmCommand) MarshalPayload(e *Encoder)   { e.Uint8(c.Connection) }
func (c *AttClientIndicateConfirmCommand) UnmarshalPayload(d *Decoder) { c.Connection = d.Uint8() }

type AttClientIndicateConfirmResponse struct {
	responseMarker
	ResultBody
}

func (*AttClientIndicateConfirmResponse) ID() MessageID { return IDAttClientIndicateConfirm }

type AttClientReadLongCommand struct {
	commandMarker
	Connection uint8
	ChrHandle  uint16
}

func (*AttClientReadLongCommand) ID() MessageID             { return IDAttClientReadLong }
func (c *AttClientReadLongCommand) ConnectionHandle() uint8 { return c.Connection }

func (c *AttClientReadLongCommand) MarshalPayload(e *Encoder) {
	e.Uint8(c.Connection)
	e.Uint16(c.ChrHandle)
}

func (c *AttClientReadLongCommand) UnmarshalPayload(d *Decoder) {
	c.Connection = d.Uint8()
	c.ChrHandle = d.Uint16()
}

type AttClientReadLongResponse struct {
	responseMarker
	ConnectionResult
}

func (*AttClientReadLongResponse) ID() MessageID { return IDAttClientReadLong }

// AttClientPrepareWriteCommand queues one chunk of a long write on the peer.
type AttClientPrepareWriteCommand struct {
	commandMarker
	Connection uint8
	AttHandle  uint16
	Offset     uint16
	Data       []byte
}

func (*AttClientPrepareWriteCommand) ID() MessageID             { return IDAttClientPrepareWrite }
func (c *AttClientPrepareWriteCommand) ConnectionHandle() uint8 { return c.Connection }

func (c *AttClientPrepareWriteCommand) MarshalPayload(e *Encoder) {
	e.Uint8(c.Connection)
	e.Uint16(c.AttHandle)
	e.Uint16(c.Offset)
	e.Array(c.Data)
}

func (c *AttClientPrepareWriteCommand) UnmarshalPayload(d *Decoder) {
	c.Connection = d.Uint8()
	c.AttHandle = d.Uint16()
	c.Offset = d.Uint16()
	c.Data = d.Array()
}

type AttClientPrepareWriteResponse struct {
	responseMarker
	ConnectionResult
}

func (*AttClientPrepareWriteResponse) ID() MessageID { return IDAttClientPrepareWrite }

// AttClientExecuteWriteCommand commits (Commit true) or cancels the queued
// write.
type AttClientExecuteWriteCommand struct {
	commandMarker
	Connection uint8
	Commit     bool
}

func (*AttClientExecuteWriteCommand) ID() MessageID             { return IDAttClientExecuteWrite }
func (c *AttClientExecuteWriteCommand) ConnectionHandle() uint8 { return c.Connection }

func (c *AttClientExecuteWriteCommand) MarshalPayload(e *Encoder) {
	e.Uint8(c.Connection)
	e.Bool(c.Commit)
}

func (c *AttClientExecuteWriteCommand) UnmarshalPayload(d *Decoder) {
	c.Connection = d.Uint8()
	c.Commit = d.Bool()
}

type AttClientExecuteWriteResponse struct {
	responseMarker
	ConnectionResult
}

func (*AttClientExecuteWriteResponse) ID() MessageID { return IDAttClientExecuteWrite }

// AttClientReadMultipleCommand reads several attributes at once. Handles is
// the little endian concatenation of the attribute handles.
type AttClientReadMultipleCommand struct {
	commandMarker
	Connection uint8
	Handles    []byte
}

func (*AttClientReadMultipleCommand) ID() MessageID             { return IDAttClientReadMultiple }
func (c *AttClientReadMultipleCommand) ConnectionHandle() uint8 { return c.Connection }

func (c *AttClientReadMultipleCommand) MarshalPayload(e *Encoder) {
	e.Uint8(c.Connection)
	e.Array(c.Handles)
}

func (c *AttClientReadMultipleCommand) UnmarshalPayload(d *Decoder) {
	c.Connection = d.Uint8()
	c.Handles = d.Array()
}

type AttClientReadMultipleResponse struct {
	responseMarker
	ConnectionResult
}

func (*AttClientReadMultipleResponse) ID() MessageID { return IDAttClientReadMultiple }

// AttClientIndicatedEvent reports that the peer acknowledged an indication we
// sent.
type AttClientIndicatedEvent struct {
	eventMarker
	Connection uint8
	AttrHandle uint16
}

func (*AttClientIndicatedEvent) ID() MessageID              { return IDEventAttClientIndicated }
func (ev *AttClientIndicatedEvent) ConnectionHandle() uint8 { return ev.Connection }

func (ev *AttClientIndicatedEvent) MarshalPayload(e *Encoder) {
	e.Uint8(ev.Connection)
	e.Uint16(ev.AttrHandle)
}

func (ev *AttClientIndicatedEvent) UnmarshalPayload(d *Decoder) {
	ev.Connection = d.Uint8()
	ev.AttrHandle = d.Uint16()
}

// AttClientProcedureCompletedEvent ends an attribute procedure. A non-success
// Result usually embeds an ATT error, see Result.ATT.
type AttClientProcedureCompletedEvent struct {
	eventMarker
	Connection uint8
	Result     Result
	ChrHandle  uint16
}

func (*AttClientProcedureCompletedEvent) ID() MessageID              { return IDEventAttClientProcedureCompleted }
func (ev *AttClientProcedureCompletedEvent) ConnectionHandle() uint8 { return ev.Connection }

func (ev *AttClientProcedureCompletedEvent) MarshalPayload(e *Encoder) {
	e.Uint8(ev.Connection)
	e.Result(ev.Result)
	e.Uint16(ev.ChrHandle)
}

func (ev *AttClientProcedureCompletedEvent) UnmarshalPayload(d *Decoder) {
	ev.Connection = d.Uint8()
	ev.Result = d.Result()
	ev.ChrHandle = d.Uint16()
}

type AttClientGroupFoundEvent struct {
	eventMarker
	Connection uint8
	Start      uint16
	End        uint16
	UUID       []byte
}

func (*AttClientGroupFoundEvent) ID() MessageID              { return IDEventAttClientGroupFound }
func (ev *AttClientGroupFoundEvent) ConnectionHandle() uint8 { return ev.Connection }

func (ev *AttClientGroupFoundEvent) MarshalPayload(e *Encoder) {
	e.Uint8(ev.Connection)
	e.Uint16(ev.Start)
	e.Uint16(ev.End)
	e.Array(ev.UUID)
}

func (ev *AttClientGroupFoundEvent) UnmarshalPayload(d *Decoder) {
	ev.Connection = d.Uint8()
	ev.Start = d.Uint16()
	ev.End = d.Uint16()
	ev.UUID = d.Array()
}

// ServiceUUID decodes the group's service UUID.
func (ev *AttClientGroupFoundEvent) ServiceUUID() (uuid.UUID, error) {
	return adv.UUIDFromBytes(ev.UUID)
}

type AttClientAttributeFoundEvent struct {
	eventMarker
	Connection uint8
	ChrDecl    uint16
	Value      uint16
	Properties uint8
	UUID       []byte
}

func (*AttClientAttributeFoundEvent) ID() MessageID              { return IDEventAttClientAttributeFound }
func (ev *AttClientAttributeFoundEvent) ConnectionHandle() uint8 { return ev.Connection }

func (ev *AttClientAttributeFoundEvent) MarshalPayload(e *Encoder) {
	e.Uint8(ev.Connection)
	e.Uint16(ev.ChrDecl)
	e.Uint16(ev.Value)
	e.Uint8(ev.Properties)
	e.Array(ev.UUID)
}

func (ev *AttClientAttributeFoundEvent) UnmarshalPayload(d *Decoder) {
	ev.Connection = d.Uint8()
	ev.ChrDecl = d.Uint16()
	ev.Value = d.Uint16()
	ev.Properties = d.Uint8()
	ev.UUID = d.Array()
}

func (ev *AttClientAttributeFoundEvent) CharacteristicUUID() (uuid.UUID, error) {
	return adv.UUIDFromBytes(ev.UUID)
}

type AttClientFindInformationFoundEvent struct {
	eventMarker
	Connection uint8
	ChrHandle  uint16
	UUID       []byte
}

func (*AttClientFindInformationFoundEvent) ID() MessageID              { return IDEventAttClientFindInformationFound }
func (ev *AttClientFindInformationFoundEvent) ConnectionHandle() uint8 { return ev.Connection }

func (ev *AttClientFindInformationFoundEvent) MarshalPayload(e *Encoder) {
	e.Uint8(ev.Connection)
	e.Uint16(ev.ChrHandle)
	e.Array(ev.UUID)
}

func (ev *AttClientFindInformationFoundEvent) UnmarshalPayload(d *Decoder) {
	ev.Connection = d.Uint8()
	ev.ChrHandle = d.Uint16()
	ev.UUID = d.Array()
}

func (ev *AttClientFindInformationFoundEvent) AttributeUUID() (uuid.UUID, error) {
	return adv.UUIDFromBytes(ev.UUID)
}

type AttClientAttributeValueEvent struct {
	eventMarker
	Connection uint8
	AttHandle  uint16
	Type       AttributeValueType
	Value      []byte
}

func (*AttClientAttributeValueEvent) ID() MessageID              { return IDEventAttClientAttributeValue }
func (ev *AttClientAttributeValueEvent) ConnectionHandle() uint8 { return ev.Connection }

func (ev *AttClientAttributeValueEvent) MarshalPayload(e *Encoder) {
	e.Uint8(ev.Connection)
	e.Uint16(ev.AttHandle)
	e.Uint8(uint8(ev.Type))
	e.Array(ev.Value)
}

func (ev *AttClientAttributeValueEvent) UnmarshalPayload(d *Decoder) {
	ev.Connection = d.Uint8()
	ev.AttHandle = d.Uint16()
	ev.Type = AttributeValueType(d.Uint8())
	ev.Value = d.Array()
}

type AttClientReadMultipleResponseEvent struct {
	eventMarker
	Connection uint8
	Handles    []byte
}

func (*AttClientReadMultipleResponseEvent) ID() MessageID              { return IDEventAttClientReadMultipleResponse }
func (ev *AttClientReadMultipleResponseEvent) ConnectionHandle() uint8 { return ev.Connection }

func (ev *AttClientReadMultipleResponseEvent) MarshalPayload(e *Encoder) {
	e.Uint8(ev.Connection)
	e.Array(ev.Handles)
}

func (ev *AttClientReadMultipleResponseEvent) UnmarshalPayload(d *Decoder) {
	ev.Connection = d.Uint8()
	ev.Handles = d.Array()
}

func (a *Adapter) ReadByHandle(ctx context.Context, conn uint8, handle uint16) error {
	_, err := call[*AttClientReadByHandleResponse](ctx, a, &AttClientReadByHandleCommand{Connection: conn, ChrHandle: handle})
	return err
}

// ReadLong reads a value of any length; it arrives as read_blob attribute
// values followed by attclient_procedure_completed.
func (a *Adapter) ReadLong(ctx context.Context, conn uint8, handle uint16) error {
	_, err := call[*AttClientReadLongResponse](ctx, a, &AttClientReadLongCommand{Connection: conn, ChrHandle: handle})
	return err
}

func (a *Adapter) ReadByType(ctx context.Context, conn uint8, r HandleRange, typ uuid.UUID) error {
	_, err := call[*AttClientReadByTypeResponse](ctx, a, &AttClientReadByTypeCommand{
		Connection: conn,
		Start:      r.Start,
		End:        r.End,
		UUID:       adv.UUIDBytes(typ),
	})
	return err
}

// ReadByGroupType discovers groups, usually primary services with
// 0x2800, reported as attclient_group_found events.
func (a *Adapter) ReadByGroupType(ctx context.Context, conn uint8, r HandleRange, typ uuid.UUID) error {
	_, err := call[*AttClientReadByGroupTypeResponse](ctx, a, &AttClientReadByGroupTypeCommand{
		Connection: conn,
		Start:      r.Start,
		End:        r.End,
		UUID:       adv.UUIDBytes(typ),
	})
	return err
}

func (a *Adapter) FindInformation(ctx context.Context, conn uint8, r HandleRange) error {
	_, err := call[*AttClientFindInformationResponse](ctx, a, &AttClientFindInformationCommand{
		Connection: conn,
		Start:      r.Start,
		End:        r.End,
	})
	return err
}

func (a *Adapter) FindByTypeValue(ctx context.Context, conn uint8, r HandleRange, typ uint16, value []byte) error {
	_, err := call[*AttClientFindByTypeValueResponse](ctx, a, &AttClientFindByTypeValueCommand{
		Connection: conn,
		Start:      r.Start,
		End:        r.End,
		UUID:       typ,
		Value:      value,
	})
	return err
}

func (a *Adapter) ReadMultiple(ctx context.Context, conn uint8, handles ...uint16) error {
	buf := make([]byte, 0, 2*len(handles))
	for _, h := range handles {
		buf = append(buf, byte(h), byte(h>>8))
	}
	_, err := call[*AttClientReadMultipleResponse](ctx, a, &AttClientReadMultipleCommand{Connection: conn, Handles: buf})
	return err
}

// AttributeWrite writes with response. The write is acknowledged by
// attclient_procedure_completed.
func (a *Adapter) AttributeWrite(ctx context.Context, conn uint8, handle uint16, data []byte) error {
	_, err := call[*AttClientAttributeWriteResponse](ctx, a, &AttClientAttributeWriteCommand{Connection: conn, AttHandle: handle, Data: data})
	return err
}

func (a *Adapter) WriteCommand(ctx context.Context, conn uint8, handle uint16, data []byte) error {
	_, err := call[*AttClientWriteCommandResponse](ctx, a, &AttClientWriteCommandCommand{Connection: conn, AttHandle: handle, Data: data})
	return err
}

// PrepareWrite queues one chunk of a long write. Other attribute commands on
// conn are rejected until ExecuteWrite or CancelWrite closes the queue.
func (a *Adapter) PrepareWrite(ctx context.Context, conn uint8, handle, offset uint16, data []byte) error {
	_, err := call[*AttClientPrepareWriteResponse](ctx, a, &AttClientPrepareWriteCommand{
		Connection: conn,
		AttHandle:  handle,
		Offset:     offset,
		Data:       data,
	})
	return err
}

func (a *Adapter) ExecuteWrite(ctx context.Context, conn uint8) error {
	_, err := call[*AttClientExecuteWriteResponse](ctx, a, &AttClientExecuteWriteCommand{Connection: conn, Commit: true})
	return err
}

// CancelWrite discards the queued write.
func (a *Adapter) CancelWrite(ctx context.Context, conn uint8) error {
	_, err := call[*AttClientExecuteWriteResponse](ctx, a, &AttClientExecuteWriteCommand{Connection: conn, Commit: false})
	return err
}

func (a *Adapter) IndicateConfirm(ctx context.Context, conn uint8) error {
	_, err := call[*AttClientIndicateConfirmResponse](ctx, a, &AttClientIndicateConfirmCommand{Connection: conn})
	return err
}

// ParseHandles splits a read_multiple handle list.
func ParseHandles(b []byte) ([]uint16, error) {
	if len(b)%2 != 0 {
		return nil, fmt.Errorf("%w: odd handle list length %d", ErrMalformedFrame, len(b))
	}
	out := make([]uint16, 0, len(b)/2)
	for i := 0; i < len(b); i += 2 {
		out = append(out, uint16(b[i])|uint16(b[i+1])<<8)
	}
	return out, nil
}

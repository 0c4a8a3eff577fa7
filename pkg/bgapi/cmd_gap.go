package bgapi

import (
	"context"

	"github.com/muxable/bgapi/pkg/adv"
)

func init() {
	registerCommand("sm_set_bondable_mode", func() Command { return &SMSetBondableModeCommand{} }, func() Response { return &SMSetBondableModeResponse{} })

	registerCommand("gap_set_mode", func() Command { return &GAPSetModeCommand{} }, func() Response { return &GAPSetModeResponse{} })
	registerCommand("gap_discover", func() Command { return &GAPDiscoverCommand{} }, func() Response { return &GAPDiscoverResponse{} })
	registerCommand("gap_connect_direct", func() Command { return &GAPConnectDirectCommand{} }, func() Response { return &GAPConnectDirectResponse{} })
	registerCommand("gap_end_procedure", func() Command { return &GAPEndProcedureCommand{} }, func() Response { return &GAPEndProcedureResponse{} })
	registerCommand("gap_connect_selective", func() Command { return &GAPConnectSelectiveCommand{} }, func() Response { return &GAPConnectSelectiveResponse{} })
	registerCommand("gap_set_scan_parameters", func() Command { return &GAPSetScanParametersCommand{} }, func() Response { return &GAPSetScanParametersResponse{} })
	registerCommand("gap_set_adv_parameters", func() Command { return &GAPSetAdvParametersCommand{} }, func() Response { return &GAPSetAdvParametersResponse{} })
	registerCommand("gap_set_adv_data", func() Command { return &GAPSetAdvDataCommand{} }, func() Response { return &GAPSetAdvDataResponse{} })

	registerEvent("sm_bonding_fail", func() Event { return &SMBondingFailEvent{} })
	registerEvent("gap_scan_response", func() Event { return &GAPScanResponseEvent{} })
	registerEvent("gap_mode_changed", func() Event { return &GAPModeChangedEvent{} })
}

type SMSetBondableModeCommand struct {
	commandMarker
	Bondable bool
}

func (*SMSetBondableModeCommand) ID() MessageID                 { return IDSMSetBondableMode }
func (c *SMSetBondableModeCommand) MarshalPayload(e *Encoder)   { e.Bool(c.Bondable) }
func (c *SMSetBondableModeCommand) UnmarshalPayload(d *Decoder) { c.Bondable = d.Bool() }

type SMSetBondableModeResponse struct{ responseMarker }

func (*SMSetBondableModeResponse) ID() MessageID             { return IDSMSetBondableMode }
func (*SMSetBondableModeResponse) MarshalPayload(*Encoder)   {}
func (*SMSetBondableModeResponse) UnmarshalPayload(*Decoder) {}

type SMBondingFailEvent struct {
	eventMarker
	Handle uint8
	Result Result
}

func (*SMBondingFailEvent) ID() MessageID              { return IDEventSMBondingFail }
func (ev *SMBondingFailEvent) ConnectionHandle() uint8 { return ev.Handle }

func (ev *SMBondingFailEvent) MarshalPayload(e *Encoder) {
	e.Uint8(ev.Handle)
	e.Result(ev.Result)
}

func (ev *SMBondingFailEvent) UnmarshalPayload(d *Decoder) {
	ev.Handle = d.Uint8()
	ev.Result = d.Result()
}

type GAPSetModeCommand struct {
	commandMarker
	Discover DiscoverableMode
	Connect  ConnectableMode
}

func (*GAPSetModeCommand) ID() MessageID { return IDGAPSetMode }

func (c *GAPSetModeCommand) MarshalPayload(e *Encoder) {
	e.Uint8(uint8(c.Discover))
	e.Uint8(uint8(c.Connect))
}

func (c *GAPSetModeCommand) UnmarshalPayload(d *Decoder) {
	c.Discover = DiscoverableMode(d.Uint8())
	c.Connect = ConnectableMode(d.Uint8())
}

type GAPSetModeResponse struct {
	responseMarker
	ResultBody
}

func (*GAPSetModeResponse) ID() MessageID { return IDGAPSetMode }

type GAPDiscoverCommand struct {
	commandMarker
	Mode DiscoverMode
}

func (*GAPDiscoverCommand) ID() MessageID                 { return IDGAPDiscover }
func (c *GAPDiscoverCommand) MarshalPayload(e *Encoder)   { e.Uint8(uint8(c.Mode)) }
func (c *GAPDiscoverCommand) UnmarshalPayload(d *Decoder) { c.Mode = DiscoverMode(d.Uint8()) }

type GAPDiscoverResponse struct {
	responseMarker
	ResultBody
}

func (*GAPDiscoverResponse) ID() MessageID { return IDGAPDiscover }

type GAPConnectDirectCommand struct {
	commandMarker
	Address         BDAddr
	AddrType        AddressType
	ConnIntervalMin uint16
	ConnIntervalMax uint16
	Timeout         uint16
	Latency         uint16
}

func (*GAPConnectDirectCommand) ID() MessageID { return IDGAPConnectDirect }

func (c *GAPConnectDirectCommand) MarshalPayload(e *Encoder) {
	e.Address(c.Address)
	e.Uint8(uint8(c.AddrType))
	e.Uint16(c.ConnIntervalMin)
	e.Uint16(c.ConnIntervalMax)
	e.Uint16(c.Timeout)
	e.Uint16(c.Latency)
}

func (c *GAPConnectDirectCommand) UnmarshalPayload(d *Decoder) {
	c.Address = d.Address()
	c.AddrType = AddressType(d.Uint8())
	c.ConnIntervalMin = d.Uint16()
	c.ConnIntervalMax = d.Uint16()
	c.Timeout = d.Uint16()
	c.Latency = d.Uint16()
}

// ConnectResult is the body of both connect responses: the result and the
// handle reserved for the link.
type ConnectResult struct {
	Result           Result
	ConnectionHandle uint8
}

func (r *ConnectResult) ResultCode() Result { return r.Result }

func (r *ConnectResult) MarshalPayload(e *Encoder) {
	e.Result(r.Result)
	e.Uint8(r.ConnectionHandle)
}

func (r *ConnectResult) UnmarshalPayload(d *Decoder) {
	r.Result = d.Result()
	r.ConnectionHandle = d.Uint8()
}

type GAPConnectDirectResponse struct {
	responseMarker
	ConnectResult
}

func (*GAPConnectDirectResponse) ID() MessageID { return IDGAPConnectDirect }

type GAPEndProcedureCommand struct{ commandMarker }

func (*GAPEndProcedureCommand) ID() MessageID             { return IDGAPEndProcedure }
func (*GAPEndProcedureCommand) MarshalPayload(*Encoder)   {}
func (*GAPEndProcedureCommand) UnmarshalPayload(*Decoder) {}

type GAPEndProcedureResponse struct {
	responseMarker
	ResultBody
}

func (*GAPEndProcedureResponse) ID() MessageID { return IDGAPEndProcedure }

type GAPConnectSelectiveCommand struct {
	commandMarker
	ConnIntervalMin uint16
	ConnIntervalMax uint16
	Timeout         uint16
	Latency         uint16
}

func (*GAPConnectSelectiveCommand) ID() MessageID { return IDGAPConnectSelective }

func (c *GAPConnectSelectiveCommand) MarshalPayload(e *Encoder) {
	e.Uint16(c.ConnIntervalMin)
	e.Uint16(c.ConnIntervalMax)
	e.Uint16(c.Timeout)
	e.Uint16(c.Latency)
}

func (c *GAPConnectSelectiveCommand) UnmarshalPayload(d *Decoder) {
	c.ConnIntervalMin = d.Uint16()
	c.ConnIntervalMax = d.Uint16()
	c.Timeout = d.Uint16()
	c.Latency = d.Uint16()
}

type GAPConnectSelectiveResponse struct {
	responseMarker
	ConnectResult
}

func (*GAPConnectSelectiveResponse) ID() MessageID { return IDGAPConnectSelective }

type GAPSetScanParametersCommand struct {
	commandMarker
	ScanInterval uint16
	ScanWindow   uint16
	Active       bool
}

func (*GAPSetScanParametersCommand) ID() MessageID { return IDGAPSetScanParameters }

func (c *GAPSetScanParametersCommand) MarshalPayload(e *Encoder) {
	e.Uint16(c.ScanInterval)
	e.Uint16(c.ScanWindow)
	e.Bool(c.Active)
}

func (c *GAPSetScanParametersCommand) UnmarshalPayload(d *Decoder) {
	c.ScanInterval = d.Uint16()
	c.ScanWindow = d.Uint16()
	c.Active = d.Bool()
}

type GAPSetScanParametersResponse struct {
	responseMarker
	ResultBody
}

func (*GAPSetScanParametersResponse) ID() MessageID { return IDGAPSetScanParameters }

type GAPSetAdvParametersCommand struct {
	commandMarker
	AdvIntervalMin uint16
	AdvIntervalMax uint16
	AdvChannels    uint8
}

func (*GAPSetAdvParametersCommand) ID() MessageID { return IDGAPSetAdvParameters }

func (c *GAPSetAdvParametersCommand) MarshalPayload(e *Encoder) {
	e.Uint16(c.AdvIntervalMin)
	e.Uint16(c.AdvIntervalMax)
	e.Uint8(c.AdvChannels)
}

func (c *GAPSetAdvParametersCommand) UnmarshalPayload(d *Decoder) {
	c.AdvIntervalMin = d.Uint16()
	c.AdvIntervalMax = d.Uint16()
	c.AdvChannels = d.Uint8()
}

type GAPSetAdvParametersResponse struct {
	responseMarker
	ResultBody
}

func (*GAPSetAdvParametersResponse) ID() MessageID { return IDGAPSetAdvParameters }

type GAPSetAdvDataCommand struct {
	commandMarker
	SetScanRsp bool
	AdvData    []byte
}

func (*GAPSetAdvDataCommand) ID() MessageID { return IDGAPSetAdvData }

func (c *GAPSetAdvDataCommand) MarshalPayload(e *Encoder) {
	e.Bool(c.SetScanRsp)
	e.Array(c.AdvData)
}

func (c *GAPSetAdvDataCommand) UnmarshalPayload(d *Decoder) {
	c.SetScanRsp = d.Bool()
	c.AdvData = d.Array()
}

type GAPSetAdvDataResponse struct {
	responseMarker
	ResultBody
}

func (*GAPSetAdvDataResponse) ID() MessageID { return IDGAPSetAdvData }

// GAPScanResponseEvent is one advertisement or scan response seen while
// discovering.
type GAPScanResponseEvent struct {
	eventMarker
	RSSI        int8
	PacketType  ScanResponseType
	Sender      BDAddr
	AddressType AddressType
	Bond        uint8
	Data        []byte
}

func (*GAPScanResponseEvent) ID() MessageID { return IDEventGAPScanResponse }

func (ev *GAPScanResponseEvent) MarshalPayload(e *Encoder) {
	e.Int8(ev.RSSI)
	e.Uint8(uint8(ev.PacketType))
	e.Address(ev.Sender)
	e.Uint8(uint8(ev.AddressType))
	e.Uint8(ev.Bond)
	e.Array(ev.Data)
}

func (ev *GAPScanResponseEvent) UnmarshalPayload(d *Decoder) {
	ev.RSSI = d.Int8()
	ev.PacketType = ScanResponseType(d.Uint8())
	ev.Sender = d.Address()
	ev.AddressType = AddressType(d.Uint8())
	ev.Bond = d.Uint8()
	ev.Data = d.Array()
}

// Advertisement parses the advertising payload.
func (ev *GAPScanResponseEvent) Advertisement() (adv.Packet, error) {
	return adv.Parse(ev.Data)
}

type GAPModeChangedEvent struct {
	eventMarker
	Discover DiscoverableMode
	Connect  ConnectableMode
}

func (*GAPModeChangedEvent) ID() MessageID { return IDEventGAPModeChanged }

func (ev *GAPModeChangedEvent) MarshalPayload(e *Encoder) {
	e.Uint8(uint8(ev.Discover))
	e.Uint8(uint8(ev.Connect))
}

func (ev *GAPModeChangedEvent) UnmarshalPayload(d *Decoder) {
	ev.Discover = DiscoverableMode(d.Uint8())
	ev.Connect = ConnectableMode(d.Uint8())
}

func (a *Adapter) SetBondableMode(ctx context.Context, bondable bool) error {
	_, err := call[*SMSetBondableModeResponse](ctx, a, &SMSetBondableModeCommand{Bondable: bondable})
	return err
}

func (a *Adapter) SetMode(ctx context.Context, discover DiscoverableMode, connect ConnectableMode) error {
	_, err := call[*GAPSetModeResponse](ctx, a, &GAPSetModeCommand{Discover: discover, Connect: connect})
	return err
}

// SetScanParameters configures discovery. Interval and window are in 625us
// units.
func (a *Adapter) SetScanParameters(ctx context.Context, interval, window uint16, active bool) error {
	_, err := call[*GAPSetScanParametersResponse](ctx, a, &GAPSetScanParametersCommand{
		ScanInterval: interval,
		ScanWindow:   window,
		Active:       active,
	})
	return err
}

// Discover starts scanning. Results arrive as GAPScanResponseEvent until
// EndProcedure.
func (a *Adapter) Discover(ctx context.Context, mode DiscoverMode) error {
	_, err := call[*GAPDiscoverResponse](ctx, a, &GAPDiscoverCommand{Mode: mode})
	return err
}

func (a *Adapter) EndProcedure(ctx context.Context) error {
	_, err := call[*GAPEndProcedureResponse](ctx, a, &GAPEndProcedureCommand{})
	return err
}

// ConnectDirect starts connecting to addr and returns the reserved handle. The
// link is usable once a ConnectionStatusEvent with the connected flag arrives.
func (a *Adapter) ConnectDirect(ctx context.Context, addr BDAddr, typ AddressType, p ConnectionParameters) (uint8, error) {
	r, err := call[*GAPConnectDirectResponse](ctx, a, &GAPConnectDirectCommand{
		Address:         addr,
		AddrType:        typ,
		ConnIntervalMin: p.IntervalMin,
		ConnIntervalMax: p.IntervalMax,
		Timeout:         p.Timeout,
		Latency:         p.Latency,
	})
	if err != nil {
		return 0, err
	}
	return r.ConnectionHandle, nil
}

func (a *Adapter) ConnectSelective(ctx context.Context, p ConnectionParameters) (uint8, error) {
	r, err := call[*GAPConnectSelectiveResponse](ctx, a, &GAPConnectSelectiveCommand{
		ConnIntervalMin: p.IntervalMin,
		ConnIntervalMax: p.IntervalMax,
		Timeout:         p.Timeout,
		Latency:         p.Latency,
	})
	if err != nil {
		return 0, err
	}
	return r.ConnectionHandle, nil
}

func (a *Adapter) SetAdvParameters(ctx context.Context, intervalMin, intervalMax uint16, channels uint8) error {
	_, err := call[*GAPSetAdvParametersResponse](ctx, a, &GAPSetAdvParametersCommand{
		AdvIntervalMin: intervalMin,
		AdvIntervalMax: intervalMax,
		AdvChannels:    channels,
	})
	return err
}

// SetAdvData sets the advertising (scanRsp false) or scan response payload.
// Only used with DiscoverableMode UserData.
func (a *Adapter) SetAdvData(ctx context.Context, scanRsp bool, data ...adv.DataType) error {
	buf, err := adv.Marshal(data...)
	if err != nil {
		return err
	}
	_, err = call[*GAPSetAdvDataResponse](ctx, a, &GAPSetAdvDataCommand{SetScanRsp: scanRsp, AdvData: buf})
	return err
}

package bgapi

import "context"

func init() {
	registerCommand("connection_disconnect", func() Command { return &ConnectionDisconnectCommand{} }, func() Response { return &ConnectionDisconnectResponse{} })
	registerCommand("connection_get_rssi", func() Command { return &ConnectionGetRSSICommand{} }, func() Response { return &ConnectionGetRSSIResponse{} })
	registerCommand("connection_update", func() Command { return &ConnectionUpdateCommand{} }, func() Response { return &ConnectionUpdateResponse{} })
	registerCommand("connection_get_status", func() Command { return &ConnectionGetStatusCommand{} }, func() Response { return &ConnectionGetStatusResponse{} })

	registerEvent("connection_status", func() Event { return &ConnectionStatusEvent{} })
	registerEvent("connection_version_ind", func() Event { return &ConnectionVersionIndEvent{} })
	registerEvent("connection_feature_ind", func() Event { return &ConnectionFeatureIndEvent{} })
	registerEvent("connection_disconnected", func() Event { return &ConnectionDisconnectedEvent{} })
}

// ConnectionResult is the common (connection, result) response body.
type ConnectionResult struct {
	Connection uint8
	Result     Result
}

func (r *ConnectionResult) ConnectionHandle() uint8 { return r.Connection }
func (r *ConnectionResult) ResultCode() Result      { return r.Result }

func (r *ConnectionResult) MarshalPayload(e *Encoder) {
	e.Uint8(r.Connection)
	e.Result(r.Result)
}

func (r *ConnectionResult) UnmarshalPayload(d *Decoder) {
	r.Connection = d.Uint8()
	r.Result = d.Result()
}

type ConnectionDisconnectCommand struct {
	commandMarker
	Connection uint8
}

func (*ConnectionDisconnectCommand) ID() MessageID                 { return IDConnectionDisconnect }
func (c *ConnectionDisconnectCommand) ConnectionHandle() uint8     { return c.Connection }
func (c *ConnectionDisconnectCommand) MarshalPayload(e *Encoder)   { e.Uint8(c.Connection) }
func (c *ConnectionDisconnectCommand) UnmarshalPayload(d *Decoder) { c.Connection = d.Uint8() }

type ConnectionDisconnectResponse struct {
	responseMarker
	ConnectionResult
}

func (*ConnectionDisconnectResponse) ID() MessageID { return IDConnectionDisconnect }

type ConnectionGetRSSICommand struct {
	commandMarker
	Connection uint8
}

func (*ConnectionGetRSSICommand) ID() MessageID                 { return IDConnectionGetRSSI }
func (c *ConnectionGetRSSICommand) ConnectionHandle() uint8     { return c.Connection }
func (c *ConnectionGetRSSICommand) MarshalPayload(e *Encoder)   { e.Uint8(c.Connection) }
func (c *ConnectionGetRSSICommand) UnmarshalPayload(d *Decoder) { c.Connection = d.Uint8() }

type ConnectionGetRSSIResponse struct {
	responseMarker
	Connection uint8
	RSSI       int8
}

func (*ConnectionGetRSSIResponse) ID() MessageID             { return IDConnectionGetRSSI }
func (r *ConnectionGetRSSIResponse) ConnectionHandle() uint8 { return r.Connection }

func (r *ConnectionGetRSSIResponse) MarshalPayload(e *Encoder) {
	e.Uint8(r.Connection)
	e.Int8(r.RSSI)
}

func (r *ConnectionGetRSSIResponse) UnmarshalPayload(d *Decoder) {
	r.Connection = d.Uint8()
	r.RSSI = d.Int8()
}

// ConnectionParameters are the link timing parameters, in the units the
// firmware uses: intervals in 1.25ms steps, timeout in 10ms steps.
type ConnectionParameters struct {
	IntervalMin uint16
	IntervalMax uint16
	Timeout     uint16
	Latency     uint16
}

type ConnectionUpdateCommand struct {
	commandMarker
	Connection  uint8
	IntervalMin uint16
	IntervalMax uint16
	Latency     uint16
	Timeout     uint16
}

func (*ConnectionUpdateCommand) ID() MessageID             { return IDConnectionUpdate }
func (c *ConnectionUpdateCommand) ConnectionHandle() uint8 { return c.Connection }

func (c *ConnectionUpdateCommand) MarshalPayload(e *Encoder) {
	e.Uint8(c.Connection)
	e.Uint16(c.IntervalMin)
	e.Uint16(c.IntervalMax)
	e.Uint16(c.Latency)
	e.Uint16(c.Timeout)
}

func (c *ConnectionUpdateCommand) UnmarshalPayload(d *Decoder) {
	c.Connection = d.Uint8()
	c.IntervalMin = d.Uint16()
	c.IntervalMax = d.Uint16()
	c.Latency = d.Uint16()
	c.Timeout = d.Uint16()
}

type ConnectionUpdateResponse struct {
	responseMarker
	ConnectionResult
}

func (*ConnectionUpdateResponse) ID() MessageID { return IDConnectionUpdate }

// ConnectionGetStatusCommand asks the firmware to repeat connection_status for
// a handle.
type ConnectionGetStatusCommand struct {
	commandMarker
	Connection uint8
}

func (*ConnectionGetStatusCommand) ID() MessageID                 { return IDConnectionGetStatus }
func (c *ConnectionGetStatusCommand) ConnectionHandle() uint8     { return c.Connection }
func (c *ConnectionGetStatusCommand) MarshalPayload(e *Encoder)   { e.Uint8(c.Connection) }
func (c *ConnectionGetStatusCommand) UnmarshalPayload(d *Decoder) { c.Connection = d.Uint8() }

type ConnectionGetStatusResponse struct {
	responseMarker
	Connection uint8
}

func (*ConnectionGetStatusResponse) ID() MessageID                 { return IDConnectionGetStatus }
func (r *ConnectionGetStatusResponse) ConnectionHandle() uint8     { return r.Connection }
func (r *ConnectionGetStatusResponse) MarshalPayload(e *Encoder)   { e.Uint8(r.Connection) }
func (r *ConnectionGetStatusResponse) UnmarshalPayload(d *Decoder) { r.Connection = d.Uint8() }

type ConnectionStatusEvent struct {
	eventMarker
	Connection   uint8
	Flags        ConnectionFlags
	Address      BDAddr
	AddressType  AddressType
	ConnInterval uint16
	Timeout      uint16
	Latency      uint16
	Bonding      uint8
}

func (*ConnectionStatusEvent) ID() MessageID              { return IDEventConnectionStatus }
func (ev *ConnectionStatusEvent) ConnectionHandle() uint8 { return ev.Connection }

func (ev *ConnectionStatusEvent) MarshalPayload(e *Encoder) {
	e.Uint8(ev.Connection)
	e.Uint8(uint8(ev.Flags))
	e.Address(ev.Address)
	e.Uint8(uint8(ev.AddressType))
	e.Uint16(ev.ConnInterval)
	e.Uint16(ev.Timeout)
	e.Uint16(ev.Latency)
	e.Uint8(ev.Bonding)
}

func (ev *ConnectionStatusEvent) UnmarshalPayload(d *Decoder) {
	ev.Connection = d.Uint8()
	ev.Flags = ConnectionFlags(d.Uint8())
	ev.Address = d.Address()
	ev.AddressType = AddressType(d.Uint8())
	ev.ConnInterval = d.Uint16()
	ev.Timeout = d.Uint16()
	ev.Latency = d.Uint16()
	ev.Bonding = d.Uint8()
}

type ConnectionVersionIndEvent struct {
	eventMarker
	Connection uint8
	VersNr     uint8
	CompID     uint16
	SubVersNr  uint16
}

func (*ConnectionVersionIndEvent) ID() MessageID              { return IDEventConnectionVersionInd }
func (ev *ConnectionVersionIndEvent) ConnectionHandle() uint8 { return ev.Connection }

func (ev *ConnectionVersionIndEvent) MarshalPayload(e *Encoder) {
	e.Uint8(ev.Connection)
	e.Uint8(ev.VersNr)
	e.Uint16(ev.CompID)
	e.Uint16(ev.SubVersNr)
}

func (ev *ConnectionVersionIndEvent) UnmarshalPayload(d *Decoder) {
	ev.Connection = d.Uint8()
	ev.VersNr = d.Uint8()
	ev.CompID = d.Uint16()
	ev.SubVersNr = d.Uint16()
}

type ConnectionFeatureIndEvent struct {
	eventMarker
	Connection uint8
	Features   []byte
}

func (*ConnectionFeatureIndEvent) ID() MessageID              { return IDEventConnectionFeatureInd }
func (ev *ConnectionFeatureIndEvent) ConnectionHandle() uint8 { return ev.Connection }

func (ev *ConnectionFeatureIndEvent) MarshalPayload(e *Encoder) {
	e.Uint8(ev.Connection)
	e.Array(ev.Features)
}

func (ev *ConnectionFeatureIndEvent) UnmarshalPayload(d *Decoder) {
	ev.Connection = d.Uint8()
	ev.Features = d.Array()
}

// ConnectionDisconnectedEvent reports a dropped link. Reason is a controller
// result such as ResultRemoteUserTerminatedConnection.
type ConnectionDisconnectedEvent struct {
	eventMarker
	Connection uint8
	Reason     Result
}

func (*ConnectionDisconnectedEvent) ID() MessageID              { return IDEventConnectionDisconnected }
func (ev *ConnectionDisconnectedEvent) ConnectionHandle() uint8 { return ev.Connection }

func (ev *ConnectionDisconnectedEvent) MarshalPayload(e *Encoder) {
	e.Uint8(ev.Connection)
	e.Result(ev.Reason)
}

func (ev *ConnectionDisconnectedEvent) UnmarshalPayload(d *Decoder) {
	ev.Connection = d.Uint8()
	ev.Reason = d.Result()
}

// Disconnect starts closing a link. The connection moves to Disconnecting and
// then to Disconnected once connection_disconnected arrives.
func (a *Adapter) Disconnect(ctx context.Context, conn uint8) error {
	_, err := call[*ConnectionDisconnectResponse](ctx, a, &ConnectionDisconnectCommand{Connection: conn})
	return err
}

func (a *Adapter) GetRSSI(ctx context.Context, conn uint8) (int8, error) {
	r, err := call[*ConnectionGetRSSIResponse](ctx, a, &ConnectionGetRSSICommand{Connection: conn})
	if err != nil {
		return 0, err
	}
	return r.RSSI, nil
}

func (a *Adapter) UpdateConnection(ctx context.Context, conn uint8, p ConnectionParameters) error {
	_, err := call[*ConnectionUpdateResponse](ctx, a, &ConnectionUpdateCommand{
		Connection:  conn,
		IntervalMin: p.IntervalMin,
		IntervalMax: p.IntervalMax,
		Latency:     p.Latency,
		Timeout:     p.Timeout,
	})
	return err
}

// GetStatus requests a fresh connection_status event for conn.
func (a *Adapter) GetStatus(ctx context.Context, conn uint8) error {
	_, err := call[*ConnectionGetStatusResponse](ctx, a, &ConnectionGetStatusCommand{Connection: conn})
	return err
}

package bgapi

import "context"

func init() {
	registerCommand("system_reset", func() Command { return &SystemResetCommand{} }, nil)
	registerCommand("system_hello", func() Command { return &SystemHelloCommand{} }, func() Response { return &SystemHelloResponse{} })
	registerCommand("system_address_get", func() Command { return &SystemAddressGetCommand{} }, func() Response { return &SystemAddressGetResponse{} })
	registerCommand("system_get_counters", func() Command { return &SystemGetCountersCommand{} }, func() Response { return &SystemGetCountersResponse{} })
	registerCommand("system_get_connections", func() Command { return &SystemGetConnectionsCommand{} }, func() Response { return &SystemGetConnectionsResponse{} })
	registerCommand("system_get_info", func() Command { return &SystemGetInfoCommand{} }, func() Response { return &SystemGetInfoResponse{} })

	registerEvent("system_boot", func() Event { return &SystemBootEvent{} })
}

// SystemResetCommand reboots the device. There is no response; the device
// announces itself again with a system_boot event.
type SystemResetCommand struct {
	commandMarker
	BootInDFU bool
}

func (*SystemResetCommand) ID() MessageID                 { return IDSystemReset }
func (c *SystemResetCommand) MarshalPayload(e *Encoder)   { e.Bool(c.BootInDFU) }
func (c *SystemResetCommand) UnmarshalPayload(d *Decoder) { c.BootInDFU = d.Bool() }

type SystemHelloCommand struct{ commandMarker }

func (*SystemHelloCommand) ID() MessageID             { return IDSystemHello }
func (*SystemHelloCommand) MarshalPayload(*Encoder)   {}
func (*SystemHelloCommand) UnmarshalPayload(*Decoder) {}

type SystemHelloResponse struct{ responseMarker }

func (*SystemHelloResponse) ID() MessageID             { return IDSystemHello }
func (*SystemHelloResponse) MarshalPayload(*Encoder)   {}
func (*SystemHelloResponse) UnmarshalPayload(*Decoder) {}

type SystemAddressGetCommand struct{ commandMarker }

func (*SystemAddressGetCommand) ID() MessageID             { return IDSystemAddressGet }
func (*SystemAddressGetCommand) MarshalPayload(*Encoder)   {}
func (*SystemAddressGetCommand) UnmarshalPayload(*Decoder) {}

type SystemAddressGetResponse struct {
	responseMarker
	Address BDAddr
}

func (*SystemAddressGetResponse) ID() MessageID                 { return IDSystemAddressGet }
func (r *SystemAddressGetResponse) MarshalPayload(e *Encoder)   { e.Address(r.Address) }
func (r *SystemAddressGetResponse) UnmarshalPayload(d *Decoder) { r.Address = d.Address() }

type SystemGetCountersCommand struct{ commandMarker }

func (*SystemGetCountersCommand) ID() MessageID             { return IDSystemGetCounters }
func (*SystemGetCountersCommand) MarshalPayload(*Encoder)   {}
func (*SystemGetCountersCommand) UnmarshalPayload(*Decoder) {}

// SystemGetCountersResponse reports the link layer packet counters. Reading
// them resets them on the device.
type SystemGetCountersResponse struct {
	responseMarker
	TxOK    uint8
	TxRetry uint8
	RxOK    uint8
	RxFail  uint8
	Mbuf    uint8
}

func (*SystemGetCountersResponse) ID() MessageID { return IDSystemGetCounters }

func (r *SystemGetCountersResponse) MarshalPayload(e *Encoder) {
	e.Uint8(r.TxOK)
	e.Uint8(r.TxRetry)
	e.Uint8(r.RxOK)
	e.Uint8(r.RxFail)
	e.Uint8(r.Mbuf)
}

func (r *SystemGetCountersResponse) UnmarshalPayload(d *Decoder) {
	r.TxOK = d.Uint8()
	r.TxRetry = d.Uint8()
	r.RxOK = d.Uint8()
	r.RxFail = d.Uint8()
	r.Mbuf = d.Uint8()
}

type SystemGetConnectionsCommand struct{ commandMarker }

func (*SystemGetConnectionsCommand) ID() MessageID             { return IDSystemGetConnections }
func (*SystemGetConnectionsCommand) MarshalPayload(*Encoder)   {}
func (*SystemGetConnectionsCommand) UnmarshalPayload(*Decoder) {}

type SystemGetConnectionsResponse struct {
	responseMarker
	MaxConn uint8
}

func (*SystemGetConnectionsResponse) ID() MessageID                 { return IDSystemGetConnections }
func (r *SystemGetConnectionsResponse) MarshalPayload(e *Encoder)   { e.Uint8(r.MaxConn) }
func (r *SystemGetConnectionsResponse) UnmarshalPayload(d *Decoder) { r.MaxConn = d.Uint8() }

type SystemGetInfoCommand struct{ commandMarker }

func (*SystemGetInfoCommand) ID() MessageID             { return IDSystemGetInfo }
func (*SystemGetInfoCommand) MarshalPayload(*Encoder)   {}
func (*SystemGetInfoCommand) UnmarshalPayload(*Decoder) {}

// Info is the firmware build information shared by system_get_info and
// system_boot.
type Info struct {
	Major           uint16
	Minor           uint16
	Patch           uint16
	Build           uint16
	LLVersion       uint16
	ProtocolVersion uint8
	HW              uint8
}

func (i *Info) MarshalPayload(e *Encoder) {
	e.Uint16(i.Major)
	e.Uint16(i.Minor)
	e.Uint16(i.Patch)
	e.Uint16(i.Build)
	e.Uint16(i.LLVersion)
	e.Uint8(i.ProtocolVersion)
	e.Uint8(i.HW)
}

func (i *Info) UnmarshalPayload(d *Decoder) {
	i.Major = d.Uint16()
	i.Minor = d.Uint16()
	i.Patch = d.Uint16()
	i.Build = d.Uint16()
	i.LLVersion = d.Uint16()
	i.ProtocolVersion = d.Uint8()
	i.HW = d.Uint8()
}

type SystemGetInfoResponse struct {
	responseMarker
	Info
}

func (*SystemGetInfoResponse) ID() MessageID { return IDSystemGetInfo }

type SystemBootEvent struct {
	eventMarker
	Info
}

func (*SystemBootEvent) ID() MessageID { return IDEventSystemBoot }

// Hello checks that the device is alive.
func (a *Adapter) Hello(ctx context.Context) error {
	_, err := call[*SystemHelloResponse](ctx, a, &SystemHelloCommand{})
	return err
}

func (a *Adapter) AddressGet(ctx context.Context) (BDAddr, error) {
	r, err := call[*SystemAddressGetResponse](ctx, a, &SystemAddressGetCommand{})
	if err != nil {
		return BDAddr{}, err
	}
	return r.Address, nil
}

func (a *Adapter) GetInfo(ctx context.Context) (Info, error) {
	r, err := call[*SystemGetInfoResponse](ctx, a, &SystemGetInfoCommand{})
	if err != nil {
		return Info{}, err
	}
	return r.Info, nil
}

// GetConnections returns the number of connections the firmware supports and
// adopts it as the handle limit.
func (a *Adapter) GetConnections(ctx context.Context) (uint8, error) {
	r, err := call[*SystemGetConnectionsResponse](ctx, a, &SystemGetConnectionsCommand{})
	if err != nil {
		return 0, err
	}
	return r.MaxConn, nil
}

func (a *Adapter) GetCounters(ctx context.Context) (*SystemGetCountersResponse, error) {
	return call[*SystemGetCountersResponse](ctx, a, &SystemGetCountersCommand{})
}

// Reset reboots the device. Pending commands fail with ErrAdapterReset and
// every connection is dropped once the boot event arrives.
func (a *Adapter) Reset(ctx context.Context, dfu bool) error {
	_, err := a.Send(ctx, &SystemResetCommand{BootInDFU: dfu})
	return err
}

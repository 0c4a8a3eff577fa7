package bgapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Data is a length-prefixed uint8array like every other variable field, so one
// data byte gives a payload of seven: connection, handle, offset, length, data.
// The header length is therefore 0x07, not 0x05.
func TestPrepareWriteWireFormat(t *testing.T) {
	b, err := Marshal(&AttClientPrepareWriteCommand{Connection: 0, AttHandle: 0x0001, Offset: 0x0000, Data: []byte{0xAA}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x07, 0x04, 0x09, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0xAA}, b)
}

func TestHelloWireFormat(t *testing.T) {
	b, err := Marshal(&SystemHelloCommand{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x01}, b)
}

func TestEventFlag(t *testing.T) {
	b, err := Marshal(&ConnectionDisconnectedEvent{Connection: 1, Reason: ResultConnectionTerminatedByLocalHost})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x80, 0x03, 0x03, 0x04, 0x01, 0x16, 0x02}, b)

	b, err = Marshal(&ConnectionDisconnectResponse{ConnectionResult: ConnectionResult{Connection: 1}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x03, 0x03, 0x00, 0x01, 0x00, 0x00}, b)
}

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader([]byte{0x83, 0x10, 0x06, 0x00})
	require.NoError(t, err)
	assert.True(t, h.Event)
	assert.Equal(t, uint16(0x0310), h.Length)
	assert.Equal(t, IDEventGAPScanResponse, h.ID())
	assert.Equal(t, uint8(0), h.Technology)

	h, err = ParseHeader([]byte{0x08, 0x00, 0x00, 0x01})
	require.NoError(t, err)
	assert.Equal(t, uint8(1), h.Technology)

	_, err = ParseHeader([]byte{0x00, 0x00, 0x00})
	require.ErrorIs(t, err, ErrMalformedFrame)
}

func TestHeaderLongPayload(t *testing.T) {
	data := make([]byte, 0xFF)
	b, err := Marshal(&GAPSetAdvDataCommand{AdvData: data})
	require.NoError(t, err)
	h, err := ParseHeader(b)
	require.NoError(t, err)
	assert.Equal(t, uint16(1+1+0xFF), h.Length)
	assert.Equal(t, byte(0x01), b[0])
	assert.Equal(t, byte(0x01), b[1])

	cmd, err := UnmarshalCommand(b)
	require.NoError(t, err)
	assert.Len(t, cmd.(*GAPSetAdvDataCommand).AdvData, 0xFF)
}

func TestMarshalArrayTooLong(t *testing.T) {
	_, err := Marshal(&GAPSetAdvDataCommand{AdvData: make([]byte, 0x100)})
	require.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestRoundTrip(t *testing.T) {
	addr := BDAddr{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	info := Info{Major: 1, Minor: 3, Patch: 2, Build: 143, LLVersion: 3, ProtocolVersion: 1, HW: 2}

	cmds := []Command{
		&SystemResetCommand{BootInDFU: true},
		&SystemHelloCommand{},
		&SystemAddressGetCommand{},
		&SystemGetCountersCommand{},
		&SystemGetConnectionsCommand{},
		&SystemGetInfoCommand{},
		&ConnectionDisconnectCommand{Connection: 1},
		&ConnectionGetRSSICommand{Connection: 1},
		&ConnectionUpdateCommand{Connection: 1, IntervalMin: 6, IntervalMax: 12, Latency: 1, Timeout: 400},
		&ConnectionGetStatusCommand{Connection: 1},
		&AttClientFindByTypeValueCommand{Connection: 1, Start: 1, End: 0xFFFF, UUID: 0x2800, Value: []byte{0x0F, 0x18}},
		&AttClientReadByGroupTypeCommand{Connection: 1, Start: 1, End: 0xFFFF, UUID: []byte{0x00, 0x28}},
		&AttClientReadByTypeCommand{Connection: 1, Start: 1, End: 0xFFFF, UUID: []byte{0x03, 0x28}},
		&AttClientFindInformationCommand{Connection: 1, Start: 3, End: 9},
		&AttClientReadByHandleCommand{Connection: 1, ChrHandle: 3},
		&AttClientAttributeWriteCommand{Connection: 1, AttHandle: 3, Data: []byte{1, 2}},
		&AttClientWriteCommandCommand{Connection: 1, AttHandle: 3, Data: []byte{1}},
		&AttClientIndicateConfirmCommand{Connection: 1},
		&AttClientReadLongCommand{Connection: 1, ChrHandle: 3},
		&AttClientPrepareWriteCommand{Connection: 1, AttHandle: 3, Offset: 18, Data: []byte{9}},
		&AttClientExecuteWriteCommand{Connection: 1, Commit: true},
		&AttClientReadMultipleCommand{Connection: 1, Handles: []byte{3, 0, 5, 0}},
		&SMSetBondableModeCommand{Bondable: true},
		&GAPSetModeCommand{Discover: GeneralDiscoverable, Connect: UndirectedConnectable},
		&GAPDiscoverCommand{Mode: DiscoverObservation},
		&GAPConnectDirectCommand{Address: addr, AddrType: AddressTypeRandom, ConnIntervalMin: 60, ConnIntervalMax: 76, Timeout: 100, Latency: 0},
		&GAPEndProcedureCommand{},
		&GAPConnectSelectiveCommand{ConnIntervalMin: 60, ConnIntervalMax: 76, Timeout: 100, Latency: 2},
		&GAPSetScanParametersCommand{ScanInterval: 0x4B, ScanWindow: 0x32, Active: true},
		&GAPSetAdvParametersCommand{AdvIntervalMin: 0x20, AdvIntervalMax: 0x40, AdvChannels: 0x07},
		&GAPSetAdvDataCommand{SetScanRsp: true, AdvData: []byte{0x02, 0x01, 0x06}},
	}
	for _, cmd := range cmds {
		t.Run(Name(cmd.ID(), false), func(t *testing.T) {
			b, err := Marshal(cmd)
			require.NoError(t, err)
			got, err := UnmarshalCommand(b)
			require.NoError(t, err)
			assert.Equal(t, cmd, got)
		})
	}

	inbound := []Message{
		&SystemHelloResponse{},
		&SystemAddressGetResponse{Address: addr},
		&SystemGetCountersResponse{TxOK: 1, TxRetry: 2, RxOK: 3, RxFail: 4, Mbuf: 5},
		&SystemGetConnectionsResponse{MaxConn: 4},
		&SystemGetInfoResponse{Info: info},
		&ConnectionDisconnectResponse{ConnectionResult: ConnectionResult{Connection: 1, Result: ResultNotConnected}},
		&ConnectionGetRSSIResponse{Connection: 1, RSSI: -70},
		&ConnectionUpdateResponse{ConnectionResult: ConnectionResult{Connection: 1}},
		&ConnectionGetStatusResponse{Connection: 1},
		&AttClientFindByTypeValueResponse{ConnectionResult: ConnectionResult{Connection: 1, Result: ResultInvalidParameter}},
		&AttClientReadByGroupTypeResponse{ConnectionResult: ConnectionResult{Connection: 2}},
		&AttClientReadByTypeResponse{ConnectionResult: ConnectionResult{Connection: 3, Result: ResultWrongState}},
		&AttClientFindInformationResponse{ConnectionResult: ConnectionResult{Connection: 4}},
		&AttClientReadByHandleResponse{ConnectionResult: ConnectionResult{Connection: 1, Result: ResultWrongState}},
		&AttClientAttributeWriteResponse{ConnectionResult: ConnectionResult{Connection: 5, Result: ResultNotConnected}},
		&AttClientWriteCommandResponse{ConnectionResult: ConnectionResult{Connection: 6}},
		&AttClientIndicateConfirmResponse{ResultBody: ResultBody{Result: ResultSuccess}},
		&AttClientReadLongResponse{ConnectionResult: ConnectionResult{Connection: 7}},
		&AttClientPrepareWriteResponse{ConnectionResult: ConnectionResult{Connection: 1}},
		&AttClientExecuteWriteResponse{ConnectionResult: ConnectionResult{Connection: 2, Result: ResultWrongState}},
		&AttClientReadMultipleResponse{ConnectionResult: ConnectionResult{Connection: 3}},
		&SMSetBondableModeResponse{},
		&GAPSetModeResponse{ResultBody: ResultBody{Result: ResultInvalidParameter}},
		&GAPDiscoverResponse{ResultBody: ResultBody{Result: ResultWrongState}},
		&GAPConnectDirectResponse{ConnectResult: ConnectResult{ConnectionHandle: 2}},
		&GAPEndProcedureResponse{ResultBody: ResultBody{Result: ResultWrongState}},
		&GAPConnectSelectiveResponse{ConnectResult: ConnectResult{Result: ResultConnectionLimitExceeded}},
		&GAPSetScanParametersResponse{ResultBody: ResultBody{Result: ResultInvalidParameter}},
		&GAPSetAdvParametersResponse{},
		&GAPSetAdvDataResponse{ResultBody: ResultBody{Result: ResultWrongState}},

		&SystemBootEvent{Info: info},
		&ConnectionStatusEvent{Connection: 2, Flags: ConnectionConnected | ConnectionEncrypted, Address: addr, AddressType: AddressTypeRandom, ConnInterval: 60, Timeout: 100, Latency: 0, Bonding: 0xFF},
		&ConnectionVersionIndEvent{Connection: 2, VersNr: 6, CompID: 0x0047, SubVersNr: 0x1234},
		&ConnectionFeatureIndEvent{Connection: 2, Features: []byte{0x01}},
		&ConnectionDisconnectedEvent{Connection: 2, Reason: ResultRemoteUserTerminatedConnection},
		&AttClientIndicatedEvent{Connection: 2, AttrHandle: 0x0010},
		&AttClientProcedureCompletedEvent{Connection: 2, Result: Result(0x040A), ChrHandle: 0x0010},
		&AttClientGroupFoundEvent{Connection: 2, Start: 1, End: 5, UUID: []byte{0x00, 0x18}},
		&AttClientAttributeFoundEvent{Connection: 2, ChrDecl: 2, Value: 3, Properties: 0x0A, UUID: []byte{0x00, 0x2A}},
		&AttClientFindInformationFoundEvent{Connection: 2, ChrHandle: 3, UUID: []byte{0x02, 0x29}},
		&AttClientAttributeValueEvent{Connection: 2, AttHandle: 3, Type: AttributeValueNotify, Value: []byte("hi")},
		&AttClientReadMultipleResponseEvent{Connection: 2, Handles: []byte{1, 2, 3}},
		&SMBondingFailEvent{Handle: 2, Result: ResultPairingNotSupported},
		&GAPScanResponseEvent{RSSI: -60, PacketType: ScanResponseScanResponse, Sender: addr, AddressType: AddressTypePublic, Bond: 0xFF, Data: []byte{0x02, 0x01, 0x06}},
		&GAPModeChangedEvent{Discover: LimitedDiscoverable, Connect: DirectedConnectable},
	}
	for _, m := range inbound {
		t.Run(Name(m.ID(), isEvent(m)), func(t *testing.T) {
			b, err := Marshal(m)
			require.NoError(t, err)
			got, err := Unmarshal(b)
			require.NoError(t, err)
			assert.Equal(t, m, got)
		})
	}

	// Every catalog entry needs a case above.
	covered := map[registryKey]bool{}
	for _, cmd := range cmds {
		covered[registryKey{false, cmd.ID()}] = true
	}
	for id := range commands {
		assert.True(t, covered[registryKey{false, id}], "command %s not round tripped", Name(id, false))
	}
	covered = map[registryKey]bool{}
	for _, m := range inbound {
		covered[registryKey{isEvent(m), m.ID()}] = true
	}
	for id := range responses {
		assert.True(t, covered[registryKey{false, id}], "response %s not round tripped", Name(id, false))
	}
	for id := range events {
		assert.True(t, covered[registryKey{true, id}], "event %s not round tripped", Name(id, true))
	}
}

func TestUnmarshalErrors(t *testing.T) {
	_, err := Unmarshal([]byte{0x00, 0x00})
	require.ErrorIs(t, err, ErrMalformedFrame)

	// Declared length disagrees with the bytes given.
	_, err = Unmarshal([]byte{0x00, 0x02, 0x00, 0x06, 0x01})
	require.ErrorIs(t, err, ErrMalformedFrame)

	_, err = Unmarshal([]byte{0x80, 0x00, 0x07, 0x05})
	require.ErrorIs(t, err, ErrUnknownMessage)

	// connection_disconnected needs three bytes.
	_, err = Unmarshal([]byte{0x80, 0x01, 0x03, 0x04, 0x01})
	require.ErrorIs(t, err, ErrMalformedFrame)

	// Array length runs past the payload.
	_, err = Unmarshal([]byte{0x80, 0x06, 0x04, 0x05, 0x00, 0x03, 0x00, 0x00, 0x05, 0xAA})
	require.ErrorIs(t, err, ErrMalformedFrame)

	_, err = UnmarshalCommand([]byte{0x80, 0x00, 0x00, 0x01})
	require.ErrorIs(t, err, ErrMalformedFrame)
}

func TestUnmarshalTrailingBytes(t *testing.T) {
	m, err := Unmarshal([]byte{0x00, 0x03, 0x00, 0x06, 0x04, 0xEE, 0xEE})
	require.NoError(t, err)
	assert.Equal(t, uint8(4), m.(*SystemGetConnectionsResponse).MaxConn)
}

func TestResponseAndEventNamespaces(t *testing.T) {
	// Class 0 method 0 is system_reset as a command and system_boot as an
	// event.
	assert.Equal(t, "system_reset", Name(MessageID{ClassSystem, 0}, false))
	assert.Equal(t, "system_boot", Name(MessageID{ClassSystem, 0}, true))
	assert.Equal(t, "unknown", Name(MessageID{ClassTest, 9}, true))

	assert.False(t, expectsResponse(IDSystemReset))
	assert.True(t, expectsResponse(IDSystemHello))
}

func TestHeaderString(t *testing.T) {
	h := Header{Event: true, Length: 3, Class: ClassConnection, Method: 4}
	assert.Equal(t, "evt connection_disconnected (3/4) len=3", h.String())
}

package bgapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func connectedTable(t *testing.T, handles ...uint8) *connTable {
	t.Helper()
	tbl := newConnTable(0, zap.NewNop())
	for _, h := range handles {
		conn, freed := tbl.applyEvent(&ConnectionStatusEvent{Connection: h, Flags: ConnectionConnected})
		require.NotNil(t, conn)
		require.False(t, freed)
		require.Equal(t, StateConnected, conn.State)
	}
	return tbl
}

func TestConnTableStatusOvertakesResponse(t *testing.T) {
	tbl := connectedTable(t, 3)

	tbl.applyResponse(&GAPConnectDirectCommand{}, &GAPConnectDirectResponse{ConnectResult: ConnectResult{ConnectionHandle: 3}})
	conn, ok := tbl.get(3)
	require.True(t, ok)
	assert.Equal(t, StateConnected, conn.State)
	assert.Equal(t, StateIdle, tbl.adapterState())
}

func TestConnTableHandleRange(t *testing.T) {
	tbl := newConnTable(4, zap.NewNop())

	tbl.applyResponse(&GAPConnectDirectCommand{}, &GAPConnectDirectResponse{ConnectResult: ConnectResult{ConnectionHandle: 4}})
	_, ok := tbl.get(4)
	assert.False(t, ok)
	assert.Equal(t, StateIdle, tbl.adapterState())

	conn, _ := tbl.applyEvent(&ConnectionStatusEvent{Connection: 7, Flags: ConnectionConnected})
	assert.Nil(t, conn)
	assert.Empty(t, tbl.all())
}

func TestConnTableEndProcedure(t *testing.T) {
	tbl := connectedTable(t, 0)

	tbl.applyResponse(&GAPConnectDirectCommand{Address: BDAddr{9}}, &GAPConnectDirectResponse{ConnectResult: ConnectResult{ConnectionHandle: 1}})
	assert.Equal(t, StateConnecting, tbl.adapterState())
	conn, ok := tbl.get(1)
	require.True(t, ok)
	assert.Equal(t, BDAddr{9}, conn.Address)

	tbl.applyResponse(&GAPEndProcedureCommand{}, &GAPEndProcedureResponse{})
	assert.Equal(t, StateIdle, tbl.adapterState())
	_, ok = tbl.get(1)
	assert.False(t, ok)
	_, ok = tbl.get(0)
	assert.True(t, ok)
}

func TestConnTableQueuedWriteAssembly(t *testing.T) {
	tbl := connectedTable(t, 0)

	prepare := func(offset uint16, data []byte, result Result) {
		cmd := &AttClientPrepareWriteCommand{Connection: 0, AttHandle: 9, Offset: offset, Data: data}
		_, err := tbl.begin(cmd)
		require.NoError(t, err)
		tbl.applyResponse(cmd, &AttClientPrepareWriteResponse{})
		tbl.applyEvent(&AttClientProcedureCompletedEvent{Connection: 0, Result: result, ChrHandle: 9})
	}

	prepare(2, []byte{0xCC, 0xDD}, ResultSuccess)
	prepare(0, []byte{0xAA, 0xBB}, ResultSuccess)
	prepare(4, []byte{0xEE}, Result(0x0409))

	conn, _ := tbl.get(0)
	assert.Equal(t, ProcedureQueuedWrite, conn.Procedure)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, conn.QueuedWrite)

	// Snapshots do not alias the table.
	conn.QueuedWrite[0] = 0
	again, _ := tbl.get(0)
	assert.Equal(t, byte(0xAA), again.QueuedWrite[0])

	exec := &AttClientExecuteWriteCommand{Connection: 0, Commit: true}
	_, err := tbl.begin(exec)
	require.NoError(t, err)
	_, err = tbl.begin(&AttClientReadByHandleCommand{Connection: 0})
	require.ErrorIs(t, err, ErrTransactionInProgress)

	tbl.applyResponse(exec, &AttClientExecuteWriteResponse{})
	conn, _ = tbl.get(0)
	assert.Equal(t, ProcedureQueuedWrite, conn.Procedure)

	tbl.applyEvent(&AttClientProcedureCompletedEvent{Connection: 0, ChrHandle: 9})
	conn, _ = tbl.get(0)
	assert.Equal(t, ProcedureNone, conn.Procedure)
	assert.Nil(t, conn.QueuedWrite)
}

func TestConnTableAbort(t *testing.T) {
	tbl := connectedTable(t, 0)

	cmd := &AttClientPrepareWriteCommand{Connection: 0, Data: []byte{1}}
	prev, err := tbl.begin(cmd)
	require.NoError(t, err)
	tbl.abort(prev)

	conn, _ := tbl.get(0)
	assert.Equal(t, ProcedureNone, conn.Procedure)
	_, err = tbl.begin(&AttClientReadByHandleCommand{Connection: 0})
	require.NoError(t, err)
}

func TestConnTableIndicateConfirmExempt(t *testing.T) {
	tbl := connectedTable(t, 0)
	_, err := tbl.begin(&AttClientReadLongCommand{Connection: 0})
	require.NoError(t, err)

	_, err = tbl.begin(&AttClientIndicateConfirmCommand{Connection: 0})
	require.NoError(t, err)
	_, err = tbl.begin(&AttClientFindInformationCommand{Connection: 0})
	require.ErrorIs(t, err, ErrTransactionInProgress)
	_, err = tbl.begin(&ConnectionDisconnectCommand{Connection: 0})
	require.NoError(t, err)
}

func TestConnTableReadEndsOnValue(t *testing.T) {
	tbl := connectedTable(t, 0)
	_, err := tbl.begin(&AttClientReadByHandleCommand{Connection: 0, ChrHandle: 3})
	require.NoError(t, err)

	// Notifications do not end a read.
	tbl.applyEvent(&AttClientAttributeValueEvent{Connection: 0, AttHandle: 7, Type: AttributeValueNotify})
	conn, _ := tbl.get(0)
	assert.Equal(t, ProcedureRead, conn.Procedure)

	tbl.applyEvent(&AttClientAttributeValueEvent{Connection: 0, AttHandle: 3, Type: AttributeValueRead})
	conn, _ = tbl.get(0)
	assert.Equal(t, ProcedureNone, conn.Procedure)
}

func TestConnTableDisconnectFreesHandle(t *testing.T) {
	tbl := connectedTable(t, 0, 1)
	_, err := tbl.begin(&AttClientAttributeWriteCommand{Connection: 0, Data: []byte{1}})
	require.NoError(t, err)

	conn, freed := tbl.applyEvent(&ConnectionDisconnectedEvent{Connection: 0, Reason: ResultConnectionTimeout})
	require.NotNil(t, conn)
	assert.True(t, freed)
	assert.Equal(t, StateDisconnected, conn.State)
	assert.Equal(t, ProcedureNone, conn.Procedure)
	assert.Equal(t, ResultConnectionTimeout, conn.Reason)

	_, err = tbl.begin(&AttClientAttributeWriteCommand{Connection: 0, Data: []byte{1}})
	require.ErrorIs(t, err, ErrNotConnected)

	conn, freed = tbl.applyEvent(&ConnectionDisconnectedEvent{Connection: 0})
	assert.Nil(t, conn)
	assert.False(t, freed)
}

func TestConnTableResetAll(t *testing.T) {
	tbl := connectedTable(t, 5, 1, 3)
	tbl.applyResponse(&GAPDiscoverCommand{}, &GAPDiscoverResponse{})
	assert.Equal(t, StateScanning, tbl.adapterState())

	conns := tbl.resetAll(ResultConnectionTerminatedByLocalHost)
	require.Len(t, conns, 3)
	for i, h := range []uint8{1, 3, 5} {
		assert.Equal(t, h, conns[i].Handle)
		assert.Equal(t, StateDisconnected, conns[i].State)
		assert.Equal(t, ResultConnectionTerminatedByLocalHost, conns[i].Reason)
	}
	assert.Empty(t, tbl.all())
	assert.Equal(t, StateIdle, tbl.adapterState())
}

func TestConnTableMaxConnections(t *testing.T) {
	tbl := newConnTable(0, zap.NewNop())
	tbl.applyResponse(&SystemGetConnectionsCommand{}, &SystemGetConnectionsResponse{MaxConn: 2})
	conn, _ := tbl.applyEvent(&ConnectionStatusEvent{Connection: 2, Flags: ConnectionConnected})
	assert.Nil(t, conn)
	conn, _ = tbl.applyEvent(&ConnectionStatusEvent{Connection: 1, Flags: ConnectionConnected})
	assert.NotNil(t, conn)
}

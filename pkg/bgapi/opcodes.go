package bgapi

import "fmt"

// Silicon Labs BGAPI for the BLED112 / BLE112 family (protocol version 1).

type ClassID uint8

const (
	ClassSystem     ClassID = 0x00
	ClassFlash      ClassID = 0x01
	ClassAttributes ClassID = 0x02
	ClassConnection ClassID = 0x03
	ClassAttClient  ClassID = 0x04
	ClassSM         ClassID = 0x05
	ClassGAP        ClassID = 0x06
	ClassHardware   ClassID = 0x07
	ClassTest       ClassID = 0x08
)

// MessageID identifies a command, its response, or an event within a class.
// Commands and responses share ids; events live in their own namespace and are
// told apart by the header's event flag.
type MessageID struct {
	Class  ClassID
	Method uint8
}

func (id MessageID) String() string {
	return fmt.Sprintf("%d/%d", id.Class, id.Method)
}

// Commands (and their responses).
var (
	IDSystemReset          = MessageID{ClassSystem, 0x00}
	IDSystemHello          = MessageID{ClassSystem, 0x01}
	IDSystemAddressGet     = MessageID{ClassSystem, 0x02}
	IDSystemGetCounters    = MessageID{ClassSystem, 0x05}
	IDSystemGetConnections = MessageID{ClassSystem, 0x06}
	IDSystemGetInfo        = MessageID{ClassSystem, 0x08}

	IDConnectionDisconnect = MessageID{ClassConnection, 0x00}
	IDConnectionGetRSSI    = MessageID{ClassConnection, 0x01}
	IDConnectionUpdate     = MessageID{ClassConnection, 0x02}
	IDConnectionGetStatus  = MessageID{ClassConnection, 0x07}

	IDAttClientFindByTypeValue = MessageID{ClassAttClient, 0x00}
	IDAttClientReadByGroupType = MessageID{ClassAttClient, 0x01}
	IDAttClientReadByType      = MessageID{ClassAttClient, 0x02}
	IDAttClientFindInformation = MessageID{ClassAttClient, 0x03}
	IDAttClientReadByHandle    = MessageID{ClassAttClient, 0x04}
	IDAttClientAttributeWrite  = MessageID{ClassAttClient, 0x05}
	IDAttClientWriteCommand    = MessageID{ClassAttClient, 0x06}
	IDAttClientIndicateConfirm = MessageID{ClassAttClient, 0x07}
	IDAttClientReadLong        = MessageID{ClassAttClient, 0x08}
	IDAttClientPrepareWrite    = MessageID{ClassAttClient, 0x09}
	IDAttClientExecuteWrite    = MessageID{ClassAttClient, 0x0A}
	IDAttClientReadMultiple    = MessageID{ClassAttClient, 0x0B}

	IDSMSetBondableMode = MessageID{ClassSM, 0x01}

	IDGAPSetMode           = MessageID{ClassGAP, 0x01}
	IDGAPDiscover          = MessageID{ClassGAP, 0x02}
	IDGAPConnectDirect     = MessageID{ClassGAP, 0x03}
	IDGAPEndProcedure      = MessageID{ClassGAP, 0x04}
	IDGAPConnectSelective  = MessageID{ClassGAP, 0x05}
	IDGAPSetScanParameters = MessageID{ClassGAP, 0x07}
	IDGAPSetAdvParameters  = MessageID{ClassGAP, 0x08}
	IDGAPSetAdvData        = MessageID{ClassGAP, 0x09}
)

// Events.
var (
	IDEventSystemBoot = MessageID{ClassSystem, 0x00}

	IDEventConnectionStatus       = MessageID{ClassConnection, 0x00}
	IDEventConnectionVersionInd   = MessageID{ClassConnection, 0x01}
	IDEventConnectionFeatureInd   = MessageID{ClassConnection, 0x02}
	IDEventConnectionDisconnected = MessageID{ClassConnection, 0x04}

	IDEventAttClientIndicated            = MessageID{ClassAttClient, 0x00}
	IDEventAttClientProcedureCompleted   = MessageID{ClassAttClient, 0x01}
	IDEventAttClientGroupFound           = MessageID{ClassAttClient, 0x02}
	IDEventAttClientAttributeFound       = MessageID{ClassAttClient, 0x03}
	IDEventAttClientFindInformationFound = MessageID{ClassAttClient, 0x04}
	IDEventAttClientAttributeValue       = MessageID{ClassAttClient, 0x05}
	IDEventAttClientReadMultipleResponse = MessageID{ClassAttClient, 0x06}

	IDEventSMBondingFail = MessageID{ClassSM, 0x01}

	IDEventGAPScanResponse = MessageID{ClassGAP, 0x00}
	IDEventGAPModeChanged  = MessageID{ClassGAP, 0x01}
)

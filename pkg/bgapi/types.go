package bgapi

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// BDAddr is a Bluetooth device address in wire order (least significant byte
// first), as the firmware sends it.
type BDAddr [6]byte

// ParseBDAddr parses the conventional "AA:BB:CC:DD:EE:FF" form.
func ParseBDAddr(s string) (BDAddr, error) {
	var a BDAddr
	b, err := hex.DecodeString(strings.ReplaceAll(strings.ReplaceAll(s, ":", ""), "-", ""))
	if err != nil {
		return a, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(b) != len(a) {
		return a, fmt.Errorf("invalid address %q: want 6 bytes, got %d", s, len(b))
	}
	for i := range a {
		a[i] = b[len(b)-1-i]
	}
	return a, nil
}

func (a BDAddr) String() string {
	var sb strings.Builder
	for i := len(a) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "%02X", a[i])
		if i > 0 {
			sb.WriteByte(':')
		}
	}
	return sb.String()
}

func enumName[T ~uint8](names map[T]string, v T) string {
	if s, ok := names[v]; ok {
		return s
	}
	return fmt.Sprintf("Unknown(%d)", uint8(v))
}

type AddressType uint8

const (
	AddressTypePublic AddressType = 0x00
	AddressTypeRandom AddressType = 0x01
)

var addressTypeNames = map[AddressType]string{
	AddressTypePublic: "public",
	AddressTypeRandom: "random",
}

func (t AddressType) String() string { return enumName(addressTypeNames, t) }

// DiscoverMode is the gap_discover procedure mode.
type DiscoverMode uint8

const (
	DiscoverLimited     DiscoverMode = 0x00
	DiscoverGeneric     DiscoverMode = 0x01
	DiscoverObservation DiscoverMode = 0x02
)

var discoverModeNames = map[DiscoverMode]string{
	DiscoverLimited:     "limited",
	DiscoverGeneric:     "generic",
	DiscoverObservation: "observation",
}

func (m DiscoverMode) String() string { return enumName(discoverModeNames, m) }

// DiscoverableMode is the advertising discoverability set by gap_set_mode.
type DiscoverableMode uint8

const (
	NonDiscoverable      DiscoverableMode = 0x00
	LimitedDiscoverable  DiscoverableMode = 0x01
	GeneralDiscoverable  DiscoverableMode = 0x02
	Broadcast            DiscoverableMode = 0x03
	UserData             DiscoverableMode = 0x04
	EnhancedBroadcasting DiscoverableMode = 0x80
)

var discoverableModeNames = map[DiscoverableMode]string{
	NonDiscoverable:      "non_discoverable",
	LimitedDiscoverable:  "limited_discoverable",
	GeneralDiscoverable:  "general_discoverable",
	Broadcast:            "broadcast",
	UserData:             "user_data",
	EnhancedBroadcasting: "enhanced_broadcasting",
}

func (m DiscoverableMode) String() string { return enumName(discoverableModeNames, m) }

type ConnectableMode uint8

const (
	NonConnectable          ConnectableMode = 0x00
	DirectedConnectable     ConnectableMode = 0x01
	UndirectedConnectable   ConnectableMode = 0x02
	ScannableNonConnectable ConnectableMode = 0x03
)

var connectableModeNames = map[ConnectableMode]string{
	NonConnectable:          "non_connectable",
	DirectedConnectable:     "directed_connectable",
	UndirectedConnectable:   "undirected_connectable",
	ScannableNonConnectable: "scannable_non_connectable",
}

func (m ConnectableMode) String() string { return enumName(connectableModeNames, m) }

// ScanResponseType is the packet_type of a gap_scan_response event.
type ScanResponseType uint8

const (
	ScanResponseConnectableAdvertisement    ScanResponseType = 0x00
	ScanResponseNonConnectableAdvertisement ScanResponseType = 0x02
	ScanResponseScanResponse                ScanResponseType = 0x04
	ScanResponseDiscoverableAdvertisement   ScanResponseType = 0x06
)

var scanResponseTypeNames = map[ScanResponseType]string{
	ScanResponseConnectableAdvertisement:    "connectable_advertisement",
	ScanResponseNonConnectableAdvertisement: "non_connectable_advertisement",
	ScanResponseScanResponse:                "scan_response",
	ScanResponseDiscoverableAdvertisement:   "discoverable_advertisement",
}

func (t ScanResponseType) String() string { return enumName(scanResponseTypeNames, t) }

type AttributeValueType uint8

const (
	AttributeValueRead           AttributeValueType = 0x00
	AttributeValueNotify         AttributeValueType = 0x01
	AttributeValueIndicate       AttributeValueType = 0x02
	AttributeValueReadByType     AttributeValueType = 0x03
	AttributeValueReadBlob       AttributeValueType = 0x04
	AttributeValueIndicateRspReq AttributeValueType = 0x05
)

var attributeValueTypeNames = map[AttributeValueType]string{
	AttributeValueRead:           "read",
	AttributeValueNotify:         "notify",
	AttributeValueIndicate:       "indicate",
	AttributeValueReadByType:     "read_by_type",
	AttributeValueReadBlob:       "read_blob",
	AttributeValueIndicateRspReq: "indicate_rsp_req",
}

func (t AttributeValueType) String() string { return enumName(attributeValueTypeNames, t) }

// ConnectionFlags is the bit field carried by connection_status.
type ConnectionFlags uint8

const (
	ConnectionConnected        ConnectionFlags = 1 << 0
	ConnectionEncrypted        ConnectionFlags = 1 << 1
	ConnectionCompleted        ConnectionFlags = 1 << 2
	ConnectionParametersChange ConnectionFlags = 1 << 3
)

func (f ConnectionFlags) Has(flag ConnectionFlags) bool { return f&flag != 0 }

func (f ConnectionFlags) String() string {
	var parts []string
	for _, x := range []struct {
		flag ConnectionFlags
		name string
	}{
		{ConnectionConnected, "connected"},
		{ConnectionEncrypted, "encrypted"},
		{ConnectionCompleted, "completed"},
		{ConnectionParametersChange, "parameters_change"},
	} {
		if f.Has(x.flag) {
			parts = append(parts, x.name)
		}
	}
	if rest := f &^ 0x0F; rest != 0 {
		parts = append(parts, fmt.Sprintf("Unknown(0x%02x)", uint8(rest)))
	}
	return strings.Join(parts, "|")
}

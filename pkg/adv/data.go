package adv

import (
	"encoding/binary"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MaxLength is the size of a legacy advertising or scan response payload.
const MaxLength = 31

// Type is an AD structure type from the Bluetooth assigned numbers.
type Type uint8

const (
	TypeFlags                Type = 0x01
	TypeIncompleteUUID16     Type = 0x02
	TypeCompleteUUID16       Type = 0x03
	TypeIncompleteUUID32     Type = 0x04
	TypeCompleteUUID32       Type = 0x05
	TypeIncompleteUUID128    Type = 0x06
	TypeCompleteUUID128      Type = 0x07
	TypeShortLocalName       Type = 0x08
	TypeCompleteLocalName    Type = 0x09
	TypeTxPowerLevel         Type = 0x0A
	TypeServiceData16        Type = 0x16
	TypeManufacturerSpecific Type = 0xFF
)

var ErrTooLong = errors.New("advertising data exceeds 31 bytes")

// DataType is one AD structure that can be placed in an advertising payload.
type DataType interface {
	Marshal() ([]byte, error)
}

type Flags uint8

const (
	FlagsLELimitedDiscoverableMode Flags = (1 << 0)
	FlagsLEGeneralDiscoverableMode Flags = (1 << 1)
	FlagsBREDRNotSupported         Flags = (1 << 2)
	FlagsSimultaneousLEAndBREDR    Flags = (1 << 3)
)

func (f Flags) Marshal() ([]byte, error) {
	return []byte{0x02, byte(TypeFlags), byte(f)}, nil
}

type CompleteLocalName string

func (l CompleteLocalName) Marshal() ([]byte, error) {
	return structure(TypeCompleteLocalName, []byte(l))
}

type ShortLocalName string

func (l ShortLocalName) Marshal() ([]byte, error) {
	return structure(TypeShortLocalName, []byte(l))
}

// Services is a complete list of service UUIDs. SIG assigned UUIDs are written
// in their 16 bit form, the rest in a separate 128 bit list.
type Services []uuid.UUID

func (s Services) Marshal() ([]byte, error) {
	var short, long []byte
	for _, u := range s {
		if v, ok := Short(u); ok {
			short = binary.LittleEndian.AppendUint16(short, v)
		} else {
			long = append(long, UUIDBytes(u)...)
		}
	}
	var buf []byte
	if len(short) > 0 {
		b, err := structure(TypeCompleteUUID16, short)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	if len(long) > 0 {
		b, err := structure(TypeCompleteUUID128, long)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	return buf, nil
}

type ManufacturerData struct {
	CompanyID uint16
	Data      []byte
}

func (m ManufacturerData) Marshal() ([]byte, error) {
	return structure(TypeManufacturerSpecific, binary.LittleEndian.AppendUint16(nil, m.CompanyID), m.Data)
}

type TxPowerLevel int8

func (p TxPowerLevel) Marshal() ([]byte, error) {
	return []byte{0x02, byte(TypeTxPowerLevel), byte(p)}, nil
}

func structure(t Type, parts ...[]byte) ([]byte, error) {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	if n+2 > MaxLength {
		return nil, errors.Wrapf(ErrTooLong, "ad type 0x%02x with %d bytes", uint8(t), n)
	}
	buf := make([]byte, 0, n+2)
	buf = append(buf, byte(n+1), byte(t))
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return buf, nil
}

// Marshal concatenates the AD structures into one payload.
func Marshal(data ...DataType) ([]byte, error) {
	var buf []byte
	for _, d := range data {
		b, err := d.Marshal()
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	if len(buf) > MaxLength {
		return nil, errors.Wrapf(ErrTooLong, "%d bytes", len(buf))
	}
	return buf, nil
}

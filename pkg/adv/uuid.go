package adv

import (
	"encoding/binary"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// BaseUUID is the Bluetooth base UUID that 16 and 32 bit UUIDs expand into.
var BaseUUID = uuid.MustParse("00000000-0000-1000-8000-00805f9b34fb")

// UUID16 expands a SIG assigned 16 bit UUID.
func UUID16(v uint16) uuid.UUID {
	return UUID32(uint32(v))
}

func UUID32(v uint32) uuid.UUID {
	u := BaseUUID
	binary.BigEndian.PutUint32(u[:4], v)
	return u
}

// Short returns the 16 bit form of u if it has one.
func Short(u uuid.UUID) (uint16, bool) {
	if u[0] != 0 || u[1] != 0 {
		return 0, false
	}
	for i := 4; i < 16; i++ {
		if u[i] != BaseUUID[i] {
			return 0, false
		}
	}
	return binary.BigEndian.Uint16(u[2:4]), true
}

// UUIDFromBytes decodes a UUID in over-the-air order (little endian) of 2, 4
// or 16 bytes.
func UUIDFromBytes(b []byte) (uuid.UUID, error) {
	switch len(b) {
	case 2:
		return UUID16(binary.LittleEndian.Uint16(b)), nil
	case 4:
		return UUID32(binary.LittleEndian.Uint32(b)), nil
	case 16:
		var u uuid.UUID
		for i := range u {
			u[i] = b[15-i]
		}
		return u, nil
	}
	return uuid.Nil, errors.Errorf("invalid uuid length %d", len(b))
}

// UUIDBytes encodes u in over-the-air order, using the 16 bit form when
// possible.
func UUIDBytes(u uuid.UUID) []byte {
	if v, ok := Short(u); ok {
		return binary.LittleEndian.AppendUint16(nil, v)
	}
	b := make([]byte, 16)
	for i := range u {
		b[15-i] = u[i]
	}
	return b
}

package adv

import (
	"encoding/binary"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Structure is one length-type-value element of an advertising payload.
type Structure struct {
	Type Type
	Data []byte
}

// Packet is a parsed advertising or scan response payload.
type Packet []Structure

// Parse splits b into AD structures. A zero length byte ends the payload, as
// controllers pad short payloads with zeros.
func Parse(b []byte) (Packet, error) {
	var p Packet
	for len(b) > 0 {
		n := int(b[0])
		if n == 0 {
			break
		}
		if n+1 > len(b) {
			return p, errors.Errorf("ad structure at length %d overruns payload of %d bytes", n, len(b)-1)
		}
		p = append(p, Structure{Type: Type(b[1]), Data: append([]byte(nil), b[2:n+1]...)})
		b = b[n+1:]
	}
	return p, nil
}

func (p Packet) find(types ...Type) []Structure {
	var out []Structure
	for _, s := range p {
		for _, t := range types {
			if s.Type == t {
				out = append(out, s)
			}
		}
	}
	return out
}

func (p Packet) Flags() (Flags, bool) {
	for _, s := range p.find(TypeFlags) {
		if len(s.Data) > 0 {
			return Flags(s.Data[0]), true
		}
	}
	return 0, false
}

// LocalName prefers the complete name over the shortened one.
func (p Packet) LocalName() string {
	if s := p.find(TypeCompleteLocalName); len(s) > 0 {
		return string(s[0].Data)
	}
	if s := p.find(TypeShortLocalName); len(s) > 0 {
		return string(s[0].Data)
	}
	return ""
}

func (p Packet) TxPowerLevel() (int8, bool) {
	for _, s := range p.find(TypeTxPowerLevel) {
		if len(s.Data) > 0 {
			return int8(s.Data[0]), true
		}
	}
	return 0, false
}

// Services returns every advertised service UUID, complete or not.
func (p Packet) Services() []uuid.UUID {
	var out []uuid.UUID
	for _, s := range p.find(TypeIncompleteUUID16, TypeCompleteUUID16, TypeIncompleteUUID32, TypeCompleteUUID32, TypeIncompleteUUID128, TypeCompleteUUID128) {
		size := 2
		switch s.Type {
		case TypeIncompleteUUID32, TypeCompleteUUID32:
			size = 4
		case TypeIncompleteUUID128, TypeCompleteUUID128:
			size = 16
		}
		for i := 0; i+size <= len(s.Data); i += size {
			u, err := UUIDFromBytes(s.Data[i : i+size])
			if err == nil {
				out = append(out, u)
			}
		}
	}
	return out
}

func (p Packet) ManufacturerData() (ManufacturerData, bool) {
	for _, s := range p.find(TypeManufacturerSpecific) {
		if len(s.Data) >= 2 {
			return ManufacturerData{
				CompanyID: binary.LittleEndian.Uint16(s.Data),
				Data:      s.Data[2:],
			}, true
		}
	}
	return ManufacturerData{}, false
}

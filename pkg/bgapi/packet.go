package bgapi

import (
	"fmt"
)

const (
	// HeaderLength is the size of the fixed frame header.
	HeaderLength = 4
	// MaxLength is the largest payload the 10 bit length field can describe.
	MaxLength = 0x03FF
	// DefaultMaxPayloadLength bounds inbound payloads when resynchronising.
	// No BLED112 message carries more than 64 bytes.
	DefaultMaxPayloadLength = 64

	headerEventFlag      = 0x80
	headerTechnologyMask = 0x78
	headerReservedBit    = 0x04
	headerLengthHighMask = 0x03
)

// Header is the four byte frame header.
type Header struct {
	Event      bool
	Technology uint8
	Length     uint16
	Class      ClassID
	Method     uint8
}

func (h Header) ID() MessageID { return MessageID{h.Class, h.Method} }

func (h Header) String() string {
	kind := "rsp"
	if h.Event {
		kind = "evt"
	}
	return fmt.Sprintf("%s %s (%s) len=%d", kind, Name(h.ID(), h.Event), h.ID(), h.Length)
}

// ParseHeader decodes the header at the start of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderLength {
		return Header{}, fmt.Errorf("%w: short header (%d bytes)", ErrMalformedFrame, len(b))
	}
	return Header{
		Event:      b[0]&headerEventFlag != 0,
		Technology: (b[0] & headerTechnologyMask) >> 3,
		Length:     uint16(b[0]&headerLengthHighMask)<<8 | uint16(b[1]),
		Class:      ClassID(b[2]),
		Method:     b[3],
	}, nil
}

func (h Header) put(b []byte) {
	b[0] = byte(h.Length>>8)&headerLengthHighMask | (h.Technology<<3)&headerTechnologyMask
	if h.Event {
		b[0] |= headerEventFlag
	}
	b[1] = byte(h.Length)
	b[2] = byte(h.Class)
	b[3] = h.Method
}

// Message is any entry of the message catalog.
type Message interface {
	ID() MessageID
	MarshalPayload(e *Encoder)
	UnmarshalPayload(d *Decoder)
}

// Command is a host to device message.
type Command interface {
	Message
	isCommand()
}

// Response is the device's answer to the command with the same id.
type Response interface {
	Message
	isResponse()
}

// Event is an unsolicited device to host message.
type Event interface {
	Message
	isEvent()
}

// ConnectionScoped is implemented by messages that carry a connection handle.
type ConnectionScoped interface {
	ConnectionHandle() uint8
}

// resulter is implemented by responses that carry a result code.
type resulter interface {
	ResultCode() Result
}

type commandMarker struct{}

func (commandMarker) isCommand() {}

type responseMarker struct{}

func (responseMarker) isResponse() {}

type eventMarker struct{}

func (eventMarker) isEvent() {}

type registryKey struct {
	event bool
	id    MessageID
}

var (
	commands  = map[MessageID]func() Command{}
	responses = map[MessageID]func() Response{}
	events    = map[MessageID]func() Event{}
	names     = map[registryKey]string{}
)

// registerCommand adds a command and its response to the catalog. A nil
// response factory marks a command the device never answers.
func registerCommand(name string, cmd func() Command, rsp func() Response) {
	id := cmd().ID()
	if _, ok := commands[id]; ok {
		panic("bgapi: command registered twice: " + name)
	}
	commands[id] = cmd
	if rsp != nil {
		responses[id] = rsp
	}
	names[registryKey{false, id}] = name
}

func registerEvent(name string, ev func() Event) {
	id := ev().ID()
	if _, ok := events[id]; ok {
		panic("bgapi: event registered twice: " + name)
	}
	events[id] = ev
	names[registryKey{true, id}] = name
}

// Name returns the catalog name of a command (event false) or event.
func Name(id MessageID, event bool) string {
	if s, ok := names[registryKey{event, id}]; ok {
		return s
	}
	return "unknown"
}

func expectsResponse(id MessageID) bool {
	_, ok := responses[id]
	return ok
}

// Marshal encodes m as a complete frame. Events get the event flag set.
func Marshal(m Message) ([]byte, error) {
	e := newEncoder()
	m.MarshalPayload(e)
	if e.err != nil {
		return nil, e.err
	}
	n := len(e.payload())
	if n > MaxLength {
		return nil, fmt.Errorf("%w: %d byte payload", ErrPayloadTooLarge, n)
	}
	_, event := m.(Event)
	id := m.ID()
	Header{Event: event, Length: uint16(n), Class: id.Class, Method: id.Method}.put(e.buf)
	return e.buf, nil
}

// Frame is one complete frame as cut by the FrameReader.
type Frame struct {
	Header  Header
	Payload []byte
}

func newFrame(b []byte) (Frame, error) {
	h, err := ParseHeader(b)
	if err != nil {
		return Frame{}, err
	}
	if int(h.Length) != len(b)-HeaderLength {
		return Frame{}, fmt.Errorf("%w: header declares %d payload bytes, frame has %d", ErrMalformedFrame, h.Length, len(b)-HeaderLength)
	}
	return Frame{Header: h, Payload: b[HeaderLength:]}, nil
}

// Bytes re-encodes the frame.
func (f Frame) Bytes() []byte {
	b := make([]byte, HeaderLength+len(f.Payload))
	f.Header.put(b)
	copy(b[HeaderLength:], f.Payload)
	return b
}

// Decode turns an inbound frame into a Response or an Event. Trailing payload
// bytes are ignored so newer firmware can append fields.
func (f Frame) Decode() (Message, error) {
	var m Message
	if f.Header.Event {
		if ev, ok := events[f.Header.ID()]; ok {
			m = ev()
		}
	} else if rsp, ok := responses[f.Header.ID()]; ok {
		m = rsp()
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessage, f.Header)
	}
	return m, decodePayload(m, f.Payload)
}

func decodePayload(m Message, payload []byte) error {
	d := newDecoder(payload)
	m.UnmarshalPayload(d)
	if d.err != nil {
		return fmt.Errorf("%s: %w", Name(m.ID(), isEvent(m)), d.err)
	}
	return nil
}

func isEvent(m Message) bool {
	_, ok := m.(Event)
	return ok
}

// Unmarshal decodes an inbound frame (response or event).
func Unmarshal(b []byte) (Message, error) {
	f, err := newFrame(b)
	if err != nil {
		return nil, err
	}
	m, err := f.Decode()
	if err != nil {
		return nil, err
	}
	return m, nil
}

// UnmarshalCommand decodes a host to device frame.
func UnmarshalCommand(b []byte) (Command, error) {
	f, err := newFrame(b)
	if err != nil {
		return nil, err
	}
	if f.Header.Event {
		return nil, fmt.Errorf("%w: event flag set on command %s", ErrMalformedFrame, f.Header.ID())
	}
	factory, ok := commands[f.Header.ID()]
	if !ok {
		return nil, fmt.Errorf("%w: command %s", ErrUnknownMessage, f.Header.ID())
	}
	cmd := factory()
	if err := decodePayload(cmd, f.Payload); err != nil {
		return nil, err
	}
	return cmd, nil
}

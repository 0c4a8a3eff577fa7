package bgapi

import "go.uber.org/atomic"

// FrameReader reassembles frames from an arbitrarily chunked byte stream.
// It is not safe for concurrent use, except for Resyncs.
type FrameReader struct {
	// MaxPayloadLength rejects headers that declare a longer payload.
	MaxPayloadLength int
	// Check, when set, vets every complete frame. A frame it rejects is
	// treated like an implausible header, so a truncated frame cannot
	// swallow the frame behind it.
	Check func(Frame) error

	buf     []byte
	resyncs atomic.Uint64
}

func NewFrameReader(maxPayload int) *FrameReader {
	if maxPayload <= 0 || maxPayload > MaxLength {
		maxPayload = DefaultMaxPayloadLength
	}
	return &FrameReader{MaxPayloadLength: maxPayload}
}

// Feed appends p and returns every frame that is now complete. An implausible
// header or a rejected frame costs exactly one byte: it is dropped and the
// scan resumes at the next byte.
func (r *FrameReader) Feed(p []byte) []Frame {
	r.buf = append(r.buf, p...)
	var frames []Frame
	for len(r.buf) >= HeaderLength {
		h, _ := ParseHeader(r.buf)
		if !r.plausible(h) {
			r.buf = r.buf[1:]
			r.resyncs.Inc()
			continue
		}
		n := HeaderLength + int(h.Length)
		if len(r.buf) < n {
			break
		}
		f := Frame{Header: h, Payload: append([]byte(nil), r.buf[HeaderLength:n]...)}
		if r.Check != nil && r.Check(f) != nil {
			r.buf = r.buf[1:]
			r.resyncs.Inc()
			continue
		}
		frames = append(frames, f)
		r.buf = r.buf[n:]
	}
	if len(r.buf) == 0 {
		r.buf = nil
	}
	return frames
}

func (r *FrameReader) plausible(h Header) bool {
	return h.Technology == 0 && r.buf[0]&headerReservedBit == 0 && int(h.Length) <= r.MaxPayloadLength
}

// Pending is the number of buffered bytes of an incomplete frame.
func (r *FrameReader) Pending() int { return len(r.buf) }

// Discard drops a stale partial frame and returns how many bytes were lost.
func (r *FrameReader) Discard() int {
	n := len(r.buf)
	r.buf = nil
	if n > 0 {
		r.resyncs.Inc()
	}
	return n
}

// Resyncs counts discarded headers, rejected frames and stale partial frames.
func (r *FrameReader) Resyncs() uint64 { return r.resyncs.Load() }

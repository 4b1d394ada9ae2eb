package kplex

// SENMAX is the capacity, in bytes, of a SenBlk's payload. It is sized
// for a maximal NMEA-0183 sentence (82 bytes per the standard) with
// slack for vendor-proprietary extensions.
const SENMAX = 96

// SenBlk is the unit of data carried through kplex: an opaque payload
// plus the endpoint that produced it. A SenBlk is never owned by two
// places at once -- it is either linked onto a Queue's in-use chain,
// linked onto a Queue's free-list, or held transiently by whichever
// task called Queue.Next and has not yet called Queue.Free.
type SenBlk struct {
	data [SENMAX]byte
	len  int
	src  *Endpoint

	// next is an intrusive link used only while this SenBlk is queued
	// or on a free-list. It must not be read once the unit has been
	// returned by Queue.Next.
	next *SenBlk
}

// Bytes returns the valid portion of the payload. The returned slice
// aliases the SenBlk's backing array and is only valid until the next
// call to Queue.Free for this unit.
func (b *SenBlk) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data[:b.len]
}

// Source returns the endpoint that produced this sentence, or nil if
// it originated outside the router (e.g. a synthetic unit).
func (b *SenBlk) Source() *Endpoint {
	if b == nil {
		return nil
	}
	return b.src
}

// NewSenBlk builds a transient, caller-owned SenBlk suitable for
// passing to Queue.Push. Queue.Push copies the fields out of it into
// one of the queue's own backing slots -- the returned value is never
// itself stored on a queue. Payloads longer than SENMAX are truncated;
// per the wire framing rules (see internal/adapter), a well-behaved
// adapter never constructs one this long in the first place.
func NewSenBlk(src *Endpoint, payload []byte) *SenBlk {
	b := &SenBlk{src: src}
	n := len(payload)
	if n > SENMAX {
		n = SENMAX
	}
	copy(b.data[:n], payload[:n])
	b.len = n
	return b
}

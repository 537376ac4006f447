package fasttransport

// Buffer is the scatter/gather byte aggregate fasttransport hands to
// applications for request/response payloads, and that InboundMessage
// assembles fragments into. It is a sequence of chunks; each chunk
// either owns driver-backed memory (stolen from a Received packet, or
// a staging ring slot) with an explicit release action, or borrows a
// plain byte slice it does not own.
//
// This is the Go replacement for original_source's PayloadChunk, which
// placement-constructs a Buffer::Chunk that releases driver memory in
// its destructor; here that destructor becomes an explicit Release.
type Buffer struct {
	chunks []chunk
}

type chunk struct {
	data    []byte
	release func()
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer { return &Buffer{} }

// Append adds data to the end of the buffer. release, if non-nil, is
// invoked exactly once when the buffer is released; it is how a
// stolen driver packet or staging-ring slot hands its memory back.
func (b *Buffer) Append(data []byte, release func()) {
	b.chunks = append(b.chunks, chunk{data: data, release: release})
}

// Prepend adds data to the front of the buffer, as original_source
// does for the BAD_SESSION echo path where header construction happens
// after the body is already staged.
func (b *Buffer) Prepend(data []byte, release func()) {
	b.chunks = append([]chunk{{data: data, release: release}}, b.chunks...)
}

// TotalLength returns the sum of all chunk lengths.
func (b *Buffer) TotalLength() int {
	n := 0
	for _, c := range b.chunks {
		n += len(c.data)
	}
	return n
}

// TruncateFront drops the first n bytes across chunks, releasing any
// chunk fully consumed. OutboundMessage does not use it (the protocol
// tracks fragment offsets separately); it exists for callers that
// stream a reply Buffer incrementally.
func (b *Buffer) TruncateFront(n int) {
	for n > 0 && len(b.chunks) > 0 {
		c := &b.chunks[0]
		if len(c.data) <= n {
			n -= len(c.data)
			if c.release != nil {
				c.release()
			}
			b.chunks = b.chunks[1:]
			continue
		}
		c.data = c.data[n:]
		n = 0
	}
}

// Bytes copies the full contents into a single contiguous slice. Used
// where the protocol needs a flat view, e.g. handing a reassembled
// request to application code.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, 0, b.TotalLength())
	for _, c := range b.chunks {
		out = append(out, c.data...)
	}
	return out
}

// Iterate calls fn once per chunk in order, in the manner of
// original_source's Buffer::Iterator, until fn returns false or chunks
// are exhausted.
func (b *Buffer) Iterate(fn func(data []byte) bool) {
	for _, c := range b.chunks {
		if !fn(c.data) {
			return
		}
	}
}

// Release runs every chunk's release action and empties the buffer.
// Safe to call on an already-empty buffer.
func (b *Buffer) Release() {
	for _, c := range b.chunks {
		if c.release != nil {
			c.release()
		}
	}
	b.chunks = nil
}

// Reset empties the buffer without releasing chunk ownership, for
// callers that have already transferred ownership elsewhere (e.g. a
// staging ring slot promoted into the reassembled dataBuffer keeps its
// release action attached to the new owner, not the ring).
func (b *Buffer) Reset() {
	b.chunks = nil
}

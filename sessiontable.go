package fasttransport

import "sort"

// expirableSession is the subset of ServerSession/ClientSession a
// SessionTable needs to manage slot lifetime. Indices into a
// SessionTable are the hint values placed on the wire, so slots never
// move once allocated: this replaces original_source's intrusive
// free-list SessionTable<T> with a vector-plus-free-list of indices.
type expirableSession interface {
	expire() bool
	lastActivity() uint64
}

// SessionTable is a pool of sessions of type T, indexed by hint, with
// a free list for reuse and tail-biased expiry. Grounded on
// original_source's SessionTable (FastTransport.cc, declared in the
// header, used throughout ServerSession/ClientSession lookup).
type SessionTable[T expirableSession] struct {
	sessions []T
	free     []uint32
	new      func(id uint32) T
}

// newSessionTable returns an empty table that mints new sessions with
// newFn when it must grow.
func newSessionTable[T expirableSession](newFn func(id uint32) T) *SessionTable[T] {
	return &SessionTable[T]{new: newFn}
}

// get returns a free session slot, growing the table if none is free.
func (tbl *SessionTable[T]) get() (T, uint32) {
	if n := len(tbl.free); n > 0 {
		id := tbl.free[n-1]
		tbl.free = tbl.free[:n-1]
		return tbl.sessions[id], id
	}
	id := uint32(len(tbl.sessions))
	tbl.sessions = append(tbl.sessions, tbl.new(id))
	return tbl.sessions[id], id
}

// at returns the session at index id, if allocated.
func (tbl *SessionTable[T]) at(id uint32) (T, bool) {
	if id >= uint32(len(tbl.sessions)) {
		var zero T
		return zero, false
	}
	return tbl.sessions[id], true
}

// size reports the table's current capacity (allocated slots,
// free or not).
func (tbl *SessionTable[T]) size() int { return len(tbl.sessions) }

// expire attempts to reclaim a slot not already free, trying
// candidates oldest-lastActivity-first. A session still mid-RPC
// refuses (expire() returns false) without being freed; expire()
// moves on to the next-oldest candidate rather than giving up.
func (tbl *SessionTable[T]) expire() bool {
	freeSet := make(map[uint32]bool, len(tbl.free))
	for _, id := range tbl.free {
		freeSet[id] = true
	}

	type candidate struct {
		id       uint32
		activity uint64
	}
	var candidates []candidate
	for id, s := range tbl.sessions {
		if freeSet[uint32(id)] {
			continue
		}
		candidates = append(candidates, candidate{id: uint32(id), activity: s.lastActivity()})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].activity < candidates[j].activity })

	for _, c := range candidates {
		if tbl.sessions[c.id].expire() {
			tbl.free = append(tbl.free, c.id)
			return true
		}
	}
	return false
}

package ref

import (
	"go.uber.org/zap"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/errors"
)

// Borrow is temporary access to the raw reference behind a Global handle.
// The handle cannot be released until the borrow is returned.
type Borrow struct {
	m   *Manager
	raw jbridge.Ref
	h   Handle
}

// Borrow borrows h for the duration of a call. Borrowing the null Handle
// yields a borrow of the null reference. Weak handles must be upgraded first.
func (m *Manager) Borrow(h Handle) (Borrow, error) {
	if h.IsNull() {
		return Borrow{}, nil
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Borrow{}, errors.InvalidState("ref.Manager", "borrow", "closed")
	}
	e, err := m.lookup(h)
	if err != nil {
		m.mu.Unlock()
		return Borrow{}, err
	}
	if e.kind == Weak {
		m.mu.Unlock()
		return Borrow{}, errors.New(errors.PhaseReference, errors.KindReference).
			Value(uint64(h)).
			Detail("weak handle must be upgraded before use").
			Build()
	}
	e.borrowCount++
	raw := e.raw
	m.mu.Unlock()

	m.notify(Event{Type: EventBorrowed, Handle: h, Raw: raw, Kind: Global})
	return Borrow{m: m, h: h, raw: raw}, nil
}

// Ref returns the borrowed raw reference.
func (b *Borrow) Ref() jbridge.Ref { return b.raw }

// Handle returns the borrowed handle.
func (b *Borrow) Handle() Handle { return b.h }

// Return ends the borrow. Returning twice is a no-op.
func (b *Borrow) Return() {
	m := b.m
	if m == nil {
		return
	}
	b.m = nil

	m.mu.Lock()
	e, err := m.lookup(b.h)
	if err != nil || e.borrowCount == 0 {
		m.mu.Unlock()
		m.log.Warn("borrow returned for invalid handle", zap.Stringer("handle", b.h))
		return
	}
	e.borrowCount--
	m.mu.Unlock()

	m.notify(Event{Type: EventBorrowReturned, Handle: b.h, Raw: b.raw, Kind: Global})
}

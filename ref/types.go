package ref

import (
	"fmt"

	"github.com/wippyai/jbridge"
)

// Handle identifies a reference held by a Manager.
// The zero Handle is null.
type Handle uint64

// Null is the null Handle.
const Null Handle = 0

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index+1))
}

// IsNull reports whether h is the null Handle.
func (h Handle) IsNull() bool { return h == Null }

func (h Handle) index() int { return int(uint32(h)) - 1 }

func (h Handle) generation() uint32 { return uint32(h >> 32) }

func (h Handle) String() string {
	if h.IsNull() {
		return "null"
	}
	return fmt.Sprintf("#%d.%d", h.index(), h.generation())
}

// Kind is the ownership strength of a reference.
type Kind uint8

const (
	Local Kind = iota
	Global
	Weak
)

func (k Kind) String() string {
	switch k {
	case Local:
		return "local"
	case Global:
		return "global"
	case Weak:
		return "weak"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Env is the part of the embedding API the Manager needs.
// jbridge.Env satisfies it.
type Env interface {
	NewGlobalRef(r jbridge.Ref) jbridge.Ref
	DeleteGlobalRef(r jbridge.Ref)
	NewWeakGlobalRef(r jbridge.Ref) jbridge.Ref
	DeleteWeakGlobalRef(r jbridge.Ref)
	IsSameObject(a, b jbridge.Ref) bool
}

// EventType is the kind of a lifecycle notification.
type EventType uint8

const (
	EventAcquired EventType = iota
	EventReleased
	EventBorrowed
	EventBorrowReturned
)

func (t EventType) String() string {
	switch t {
	case EventAcquired:
		return "acquired"
	case EventReleased:
		return "released"
	case EventBorrowed:
		return "borrowed"
	case EventBorrowReturned:
		return "borrow-returned"
	default:
		return fmt.Sprintf("event(%d)", uint8(t))
	}
}

// Event is a reference lifecycle notification.
type Event struct {
	Raw    jbridge.Ref
	Handle Handle
	Type   EventType
	Kind   Kind
}

// Observer receives reference lifecycle events.
// Events are delivered after the Manager's lock is released.
type Observer interface {
	OnReferenceEvent(Event)
}

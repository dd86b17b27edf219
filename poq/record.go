package poq

import (
	"container/list"
	"sync/atomic"

	"github.com/google/uuid"
)

// Handle is the stable identifier returned by Submit. It is only ever
// produced by the Queue that admitted the corresponding record; passing a
// Handle from a different Queue to SetPriority or Cancel is a silent
// no-op (UnknownHandle in the shared error taxonomy), never a panic.
type Handle struct {
	id uuid.UUID
}

func newHandle() Handle { return Handle{id: uuid.New()} }

func (h Handle) String() string { return h.id.String() }

// record is a single admitted work unit. It is created on Submit, may be
// moved between band lists by SetPriority while queued, and is discarded
// after it runs or is cancelled. elem links it to its current position in
// a band's container/list (nil once dequeued for execution).
type record struct {
	handle    Handle
	priority  Priority
	cancelled atomic.Bool
	closure   func()

	elem *list.Element // position within its current band, or nil if running
}

package collision

// EventKind distinguishes the two countable collision types.
type EventKind int

const (
	BlockBlock EventKind = iota
	BlockWall
)

func (k EventKind) String() string {
	switch k {
	case BlockBlock:
		return "block-block"
	case BlockWall:
		return "block-wall"
	}
	return "unknown"
}

// Event records one counted collision.
type Event struct {
	Kind  EventKind
	TimeS float64
	XP    float64
	XQ    float64
	Count int
}

// eventRing is a bounded FIFO of events. When full, the oldest event is
// dropped; consumers that fall behind lose history, never block the engine.
type eventRing struct {
	buf   []Event
	head  int
	size  int
	drops uint64
}

func newEventRing(capacity int) *eventRing {
	if capacity < 1 {
		capacity = 1
	}
	return &eventRing{buf: make([]Event, capacity)}
}

func (r *eventRing) push(e Event) {
	if r.size == len(r.buf) {
		r.head = (r.head + 1) % len(r.buf)
		r.size--
		r.drops++
	}
	r.buf[(r.head+r.size)%len(r.buf)] = e
	r.size++
}

// drain returns all buffered events oldest-first and empties the ring.
func (r *eventRing) drain() []Event {
	if r.size == 0 {
		return nil
	}
	out := make([]Event, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	r.head = 0
	r.size = 0
	return out
}

func (r *eventRing) clear() {
	r.head = 0
	r.size = 0
	r.drops = 0
}

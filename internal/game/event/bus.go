package event

// Handler receives one published event.
type Handler func(Event)

// Bus routes events to handlers by kind.
// It is not safe for concurrent use; the engine is single-threaded.
type Bus struct {
	handlers map[Kind][]Handler
	all      []Handler
}

// NewBus creates a Bus with no subscribers.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Kind][]Handler)}
}

// Subscribe registers h for events of kind k.
//
// Precondition: h must not be nil.
func (b *Bus) Subscribe(k Kind, h Handler) {
	b.handlers[k] = append(b.handlers[k], h)
}

// SubscribeAll registers h for every event. Catch-all handlers run after kind handlers.
func (b *Bus) SubscribeAll(h Handler) {
	b.all = append(b.all, h)
}

// Publish dispatches e synchronously to every handler for its kind, in
// subscription order, then to catch-all handlers. A nil Bus drops the event.
//
// Handlers may publish further events; those are dispatched depth-first
// before Publish returns.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	for _, h := range b.handlers[e.Kind()] {
		h(e)
	}
	for _, h := range b.all {
		h(e)
	}
}

// HandlerCount returns the number of handlers registered for k.
func (b *Bus) HandlerCount(k Kind) int {
	return len(b.handlers[k])
}

// Recorder collects every event published on a bus. Used by hosts for replay
// logs and by tests.
type Recorder struct {
	Events []Event
}

// Attach subscribes the recorder to every event on b.
func (r *Recorder) Attach(b *Bus) {
	b.SubscribeAll(func(e Event) { r.Events = append(r.Events, e) })
}

// OfKind returns the recorded events of kind k in publication order.
func (r *Recorder) OfKind(k Kind) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Kind() == k {
			out = append(out, e)
		}
	}
	return out
}

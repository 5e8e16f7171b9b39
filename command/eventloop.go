package command

// EventLoop holds an ordered list of bindings polled by the scheduler each
// tick. Trigger combinators install bindings; bindings may schedule and
// cancel commands synchronously, and those effects are visible to later
// bindings within the same poll.
type EventLoop struct {
	bindings []func()
}

// NewEventLoop creates an empty event loop.
func NewEventLoop() *EventLoop {
	return &EventLoop{}
}

// Bind appends an action to the loop. Bindings installed while a poll is in
// progress first fire on the next poll.
func (l *EventLoop) Bind(action func()) {
	if action != nil {
		l.bindings = append(l.bindings, action)
	}
}

// Poll invokes every binding in installation order. The binding list is
// snapshotted first, so bindings added during the poll do not run until the
// next one.
func (l *EventLoop) Poll() {
	snapshot := make([]func(), len(l.bindings))
	copy(snapshot, l.bindings)
	for _, binding := range snapshot {
		binding()
	}
}

// Clear removes every binding from the loop.
func (l *EventLoop) Clear() {
	l.bindings = nil
}

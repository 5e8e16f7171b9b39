package command

import (
	"testing"
)

func TestEventLoopPollsInInstallationOrder(t *testing.T) {
	loop := NewEventLoop()
	var order []int
	loop.Bind(func() { order = append(order, 1) })
	loop.Bind(func() { order = append(order, 2) })
	loop.Bind(func() { order = append(order, 3) })

	loop.Poll()

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("bindings polled out of order: %v", order)
	}
}

func TestEventLoopBindDuringPollDeferredToNextPoll(t *testing.T) {
	loop := NewEventLoop()
	lateFired := 0
	loop.Bind(func() {
		loop.Bind(func() { lateFired++ })
	})

	loop.Poll()
	if lateFired != 0 {
		t.Fatalf("binding installed mid-poll fired in the same poll")
	}

	loop.Poll()
	if lateFired != 1 {
		t.Fatalf("binding installed mid-poll fired %d times on next poll", lateFired)
	}
}

func TestEventLoopClear(t *testing.T) {
	loop := NewEventLoop()
	fired := 0
	loop.Bind(func() { fired++ })
	loop.Clear()

	loop.Poll()
	if fired != 0 {
		t.Fatalf("cleared binding still fired")
	}
}

func TestEventLoopNilBindingIgnored(t *testing.T) {
	loop := NewEventLoop()
	loop.Bind(nil)
	loop.Poll()
}

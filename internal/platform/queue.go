package platform

import (
	"sync"
	"time"
)

// EventQueue is the FIFO buffer shared by all backends. Producers push from
// any goroutine; the single loop goroutine drains it. A one-slot wake channel
// stands in for a condition variable so waits can carry a deadline.
type EventQueue struct {
	mu     sync.Mutex
	events []Event
	wake   chan struct{}
}

func NewEventQueue() *EventQueue {
	return &EventQueue{wake: make(chan struct{}, 1)}
}

func (q *EventQueue) Push(ev Event) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest event without blocking.
func (q *EventQueue) Pop() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return Event{}, false
	}
	ev := q.events[0]
	n := copy(q.events, q.events[1:])
	q.events = q.events[:n]
	return ev, true
}

func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Next pops the oldest event, waiting per the Platform.NextEvent timeout
// contract: negative blocks, zero polls, positive waits up to the deadline.
func (q *EventQueue) Next(timeout time.Duration) (Event, bool) {
	if ev, ok := q.Pop(); ok {
		return ev, true
	}
	if timeout == 0 {
		return Event{}, false
	}

	if timeout < 0 {
		for {
			<-q.wake
			if ev, ok := q.Pop(); ok {
				return ev, true
			}
		}
	}

	deadline := time.Now().Add(timeout)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-q.wake:
			if ev, ok := q.Pop(); ok {
				return ev, true
			}
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return Event{}, false
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(remaining)
		case <-timer.C:
			// One last pop covers a push that raced the timer.
			return q.Pop()
		}
	}
}

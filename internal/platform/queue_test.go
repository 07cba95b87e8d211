package platform

import (
	"testing"
	"time"
)

func TestQueueFIFO(t *testing.T) {
	q := NewEventQueue()
	q.Push(Event{Type: EventKeyDown, Key: "a"})
	q.Push(Event{Type: EventKeyDown, Key: "b"})

	ev, ok := q.Pop()
	if !ok || ev.Key != "a" {
		t.Fatalf("first Pop = %q, %v", ev.Key, ok)
	}
	ev, ok = q.Pop()
	if !ok || ev.Key != "b" {
		t.Fatalf("second Pop = %q, %v", ev.Key, ok)
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("Pop on empty queue reported an event")
	}
}

func TestQueueNextPolls(t *testing.T) {
	q := NewEventQueue()
	if _, ok := q.Next(0); ok {
		t.Fatal("poll on empty queue reported an event")
	}
	q.Push(Event{Type: EventClose})
	if ev, ok := q.Next(0); !ok || ev.Type != EventClose {
		t.Fatalf("poll = %v, %v", ev.Type, ok)
	}
}

func TestQueueNextTimesOut(t *testing.T) {
	q := NewEventQueue()
	start := time.Now()
	if _, ok := q.Next(20 * time.Millisecond); ok {
		t.Fatal("empty queue produced an event")
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("returned after %v, before the deadline", elapsed)
	}
}

func TestQueueNextWakesOnPush(t *testing.T) {
	q := NewEventQueue()
	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Push(Event{Type: EventUser})
	}()

	ev, ok := q.Next(-1)
	if !ok || ev.Type != EventUser {
		t.Fatalf("blocking Next = %v, %v", ev.Type, ok)
	}
}

func TestQueueNextBoundedWakesOnPush(t *testing.T) {
	q := NewEventQueue()
	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Push(Event{Type: EventUser})
	}()

	start := time.Now()
	ev, ok := q.Next(5 * time.Second)
	if !ok || ev.Type != EventUser {
		t.Fatalf("bounded Next = %v, %v", ev.Type, ok)
	}
	if time.Since(start) > time.Second {
		t.Fatal("bounded Next waited for the full deadline despite a push")
	}
}

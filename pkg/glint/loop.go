package glint

import (
	"log/slog"
	"time"

	"glint/internal/platform"
)

// Loop owns the event loop: it pulls native events off the platform,
// dispatches them through an App, and schedules redraws so that a burst of
// input becomes a single frame.
type Loop struct {
	plat platform.Platform
	log  *slog.Logger

	// pending is the set of windows owed a redraw once the event queue
	// drains.
	pending map[platform.WindowID]bool

	// wakeAt holds the earliest armed deadline per window.
	wakeAt map[platform.WindowID]time.Time

	exit bool
}

func NewLoop(plat platform.Platform, log *slog.Logger) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{
		plat:    plat,
		log:     log,
		pending: make(map[platform.WindowID]bool),
		wakeAt:  make(map[platform.WindowID]time.Time),
	}
}

// Run drives the app until it asks to exit. State is saved and every window
// torn down on the way out, whatever the exit path.
func (l *Loop) Run(app App) error {
	defer app.SaveAndDestroy()

	for !l.exit {
		l.fireDue(app)
		if l.exit {
			break
		}

		ev, ok := l.plat.NextEvent(l.timeout())
		if !ok {
			// Queue drained or deadline hit: batched redraws go out
			// now.
			l.flushPending(app)
			continue
		}

		l.log.Debug("event", "kind", DescribeEvent(ev))
		res, err := app.OnEvent(ev)
		if err != nil {
			l.log.Error("event handling failed", "event", DescribeEvent(ev), "err", err)
		}
		l.apply(app, res)
	}
	return nil
}

// timeout picks how long to block for the next native event. Pending
// batched redraws demand a poll; an armed deadline bounds the wait; nothing
// outstanding blocks indefinitely.
func (l *Loop) timeout() time.Duration {
	if len(l.pending) > 0 {
		return 0
	}
	earliest, ok := l.earliestWake()
	if !ok {
		return -1
	}
	d := time.Until(earliest)
	if d < 0 {
		d = 0
	}
	return d
}

func (l *Loop) earliestWake() (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, t := range l.wakeAt {
		if !found || t.Before(earliest) {
			earliest = t
			found = true
		}
	}
	return earliest, found
}

// fireDue paints every window whose armed deadline has passed.
func (l *Loop) fireDue(app App) {
	now := time.Now()
	for win, t := range l.wakeAt {
		if t.After(now) {
			continue
		}
		delete(l.wakeAt, win)
		l.apply(app, app.RunUIAndPaint(win))
		if l.exit {
			return
		}
	}
}

// flushPending paints every window batched up while the queue was busy.
func (l *Loop) flushPending(app App) {
	for win := range l.pending {
		delete(l.pending, win)
		l.apply(app, app.RunUIAndPaint(win))
		if l.exit {
			return
		}
	}
}

// apply folds one result into the loop's schedule.
func (l *Loop) apply(app App, res EventResult) {
	switch res.Kind {
	case ResultWait:

	case ResultRepaintNow:
		// Paint inline, once. If the pass immediately wants another
		// frame, batch it instead of recursing.
		next := app.RunUIAndPaint(res.Window)
		if next.Kind == ResultRepaintNow {
			next = RepaintNext(res.Window)
		}
		l.apply(app, next)

	case ResultRepaintNext:
		l.pending[res.Window] = true

	case ResultRepaintAt:
		if cur, ok := l.wakeAt[res.Window]; !ok || res.At.Before(cur) {
			l.wakeAt[res.Window] = res.At
		}

	case ResultExit:
		l.exit = true
	}
}

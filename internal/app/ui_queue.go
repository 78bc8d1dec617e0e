package app

import (
	"sync"

	"github.com/rivo/tview"
)

// UIQueue posts work to the tview event loop from other goroutines.
// tview blocks the caller until the loop has run the function, so once the
// loop has exited Close must be called to release pending and future callers.
//
// Never post from the event loop itself.
type UIQueue struct {
	app       *tview.Application
	done      chan struct{}
	closeOnce sync.Once
}

func NewUIQueue(app *tview.Application) *UIQueue {
	if app == nil {
		panic("UIQueue: app cannot be nil")
	}
	return &UIQueue{app: app, done: make(chan struct{})}
}

// Update runs fn on the event loop and waits for it
func (q *UIQueue) Update(fn func()) {
	q.post(fn, false)
}

// UpdateDraw runs fn on the event loop, redraws and waits for both
func (q *UIQueue) UpdateDraw(fn func()) {
	q.post(fn, true)
}

// Close drops everything posted from now on
func (q *UIQueue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

func (q *UIQueue) post(fn func(), draw bool) {
	select {
	case <-q.done:
		return
	default:
	}

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		if draw {
			q.app.QueueUpdateDraw(fn)
		} else {
			q.app.QueueUpdate(fn)
		}
	}()

	select {
	case <-finished:
	case <-q.done:
	}
}

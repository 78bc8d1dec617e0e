package app

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runSimulatedApp starts a tview app on a simulation screen and returns a
// channel receiving Run's result.
func runSimulatedApp(t *testing.T, root tview.Primitive) (*tview.Application, <-chan error) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	tviewApp := tview.NewApplication().SetScreen(screen)
	screen.SetSize(120, 40)
	tviewApp.SetRoot(root, true)

	runErr := make(chan error, 1)
	go func() { runErr <- tviewApp.Run() }()

	// Stopping before the loop starts would make Run open a real terminal
	tviewApp.QueueUpdate(func() {})
	return tviewApp, runErr
}

func TestUIQueue_RunsOnEventLoop(t *testing.T) {
	tviewApp, runErr := runSimulatedApp(t, tview.NewBox())
	q := NewUIQueue(tviewApp)
	t.Cleanup(func() {
		tviewApp.Stop()
		<-runErr
		q.Close()
	})

	ran := false
	q.Update(func() { ran = true })
	assert.True(t, ran, "Update waits for the function")

	drawn := false
	q.UpdateDraw(func() { drawn = true })
	assert.True(t, drawn)
}

func TestUIQueue_ReleasesCallersAfterClose(t *testing.T) {
	tviewApp, runErr := runSimulatedApp(t, tview.NewBox())
	q := NewUIQueue(tviewApp)
	tviewApp.Stop()
	require.NoError(t, <-runErr)

	// The loop is gone: without Close this would block forever
	returned := make(chan struct{})
	go func() {
		defer close(returned)
		q.UpdateDraw(func() {})
	}()
	q.Close()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("UpdateDraw still blocked after Close")
	}

	ran := false
	q.Update(func() { ran = true })
	assert.False(t, ran, "work posted after Close is dropped")
	q.Close()
}

func TestNewUIQueue_NilApp(t *testing.T) {
	assert.Panics(t, func() { NewUIQueue(nil) })
}

// Package safego runs goroutines whose panics end up in the application log.
package safego

import (
	"log"
	"runtime/debug"
)

// Go runs fn on a new goroutine. The terminal UI owns stdout, so a panic is
// written to logger with its stack before being re-raised.
func Go(logger *log.Logger, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Printf("PANIC: %v\n%s", r, debug.Stack())
				panic(r)
			}
		}()
		fn()
	}()
}

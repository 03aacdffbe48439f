// Package dispatch serializes state mutations onto a single render
// context. Worker goroutines Post closures to a Queue; whichever
// goroutine drains the queue applies them in posting order. The Slot
// limits the process to one named background job at a time.
package dispatch

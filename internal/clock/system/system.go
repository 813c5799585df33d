// Package system provides a wall-clock implementation of wine.Clock.
package system

import "time"

// Clock returns the current time from the OS.
type Clock struct{}

// New returns a system clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current UTC time.
func (c *Clock) Now() time.Time {
	return time.Now().UTC()
}

package domain

import (
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// clock stamps Catalog.BuiltAt. Tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// newSnapshotID generates Catalog.ID. Tests may replace it for stable output.
var newSnapshotID = func() string { return uuid.NewString() }

// SetClock swaps the time source for catalog builds. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

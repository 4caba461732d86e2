package store

import (
	"time"
)

const (
	defRetention = 30 * 24 * time.Hour
	defSweep     = time.Minute
)

// Options configure a task store.
type Options struct {
	// Retention is how long tasks are kept before eviction, independent of
	// their status.
	Retention time.Duration

	// SweepEvery is how often the in-memory store scans for expired tasks.
	// Ignored by stores whose backend expires keys itself.
	SweepEvery time.Duration

	// URL encodes how to reach the backend, for stores that have one.
	URL string
}

func (o *Options) sanitize() {
	if o.Retention <= 0 {
		o.Retention = defRetention
	}
	if o.SweepEvery <= 0 {
		o.SweepEvery = defSweep
	}
}

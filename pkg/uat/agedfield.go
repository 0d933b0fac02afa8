package uat

import "time"

// Aged is the type-independent view of an AgedField, used where only the
// freshness bookkeeping matters (field selection, age formatting).
type Aged interface {
	// Valid reports whether any value has ever been assigned.
	Valid() bool

	// Updated is the time of the most recent assignment, including
	// reassignment of an identical value. Zero if never assigned.
	Updated() time.Time

	// Changed is the time of the most recent assignment that produced a
	// different value than before. Changed never exceeds Updated.
	Changed() time.Time

	// UpdateAge is the elapsed time since the last assignment.
	UpdateAge(now time.Time) time.Duration
}

// AgedField wraps an optional surveillance attribute with the timestamps
// of its last update and last change, so a consumer can distinguish
// "fresh but unchanged" from "changed" from "stale".
//
// An AgedField has no locking of its own; it is written only by the
// message ingestion path and read from snapshots.
type AgedField[T comparable] struct {
	value   T
	valid   bool
	updated time.Time
	changed time.Time
}

// Set assigns a value. Updated always advances to now; Changed advances
// only on the first assignment or when the value differs from the
// previous one.
func (f *AgedField[T]) Set(v T, now time.Time) {
	if !f.valid || f.value != v {
		f.changed = now
	}
	f.value = v
	f.valid = true
	f.updated = now
}

// Valid reports whether any value has ever been assigned.
func (f *AgedField[T]) Valid() bool { return f.valid }

// Value returns the current value. Callers must check Valid first; the
// zero value is returned for a never-assigned field.
func (f *AgedField[T]) Value() T { return f.value }

// Updated returns the time of the most recent assignment.
func (f *AgedField[T]) Updated() time.Time { return f.updated }

// Changed returns the time of the most recent value change.
func (f *AgedField[T]) Changed() time.Time { return f.changed }

// UpdateAge returns now minus Updated. For a never-assigned field this is
// the age of the zero time, which exceeds any practical freshness window.
func (f *AgedField[T]) UpdateAge(now time.Time) time.Duration {
	return now.Sub(f.updated)
}

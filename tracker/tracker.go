// Package tracker counts live string and array allocations per category.
//
// Values are garbage collected, so the counters are a leak detector for the
// runtime's own bookkeeping rather than a memory manager: every place that
// would own a heap string or array storage reports it here, and checkpoints
// fold any residual into a sticky error counter.
package tracker

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// Category is one allocation category.
type Category int

const (
	GlobalStrings Category = iota
	StaticStrings
	UserStrings
	LocalStrings
	GlobalArrays
	StaticArrays
	UserArrays
	LocalArrays
	IntermediateStrings
	IdentifierNames
	LastValueStrings
	NumCategories
)

var categoryNames = [NumCategories]string{
	"globalStrings",
	"staticStrings",
	"userStrings",
	"localStrings",
	"globalArrays",
	"staticArrays",
	"userArrays",
	"localArrays",
	"intermediateStrings",
	"identifierNames",
	"lastValueStrings",
}

func (c Category) String() string {
	if c < 0 || c >= NumCategories {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// Snapshot is a copy of all counters.
type Snapshot [NumCategories]int

// Map returns the snapshot keyed by category name.
func (s Snapshot) Map() map[string]int {
	m := make(map[string]int, NumCategories)
	for i, n := range s {
		m[Category(i).String()] = n
	}
	return m
}

// ResidualError reports a counter that did not hold its expected value at
// a checkpoint.
type ResidualError struct {
	Category Category
	Want     int
	Got      int
}

func (e *ResidualError) Error() string {
	return fmt.Sprintf("%s: expected %d live objects, found %d", e.Category, e.Want, e.Got)
}

// Tracker holds the counters. It is not safe for concurrent use; a runtime
// instance owns exactly one.
type Tracker struct {
	counts Snapshot
	errors int
	log    zerolog.Logger
}

// New returns a tracker that logs residuals to the given logger.
func New(log zerolog.Logger) *Tracker {
	return &Tracker{log: log}
}

// Alloc records one allocation.
func (t *Tracker) Alloc(c Category) { t.counts[c]++ }

// AllocN records n allocations.
func (t *Tracker) AllocN(c Category, n int) { t.counts[c] += n }

// Free records one release.
func (t *Tracker) Free(c Category) { t.counts[c]-- }

// FreeN records n releases.
func (t *Tracker) FreeN(c Category, n int) { t.counts[c] -= n }

// Count returns the live count of one category.
func (t *Tracker) Count(c Category) int { return t.counts[c] }

// Errors returns the sticky count of residuals found at checkpoints.
func (t *Tracker) Errors() int { return t.errors }

// Snapshot returns a copy of all counters.
func (t *Tracker) Snapshot() Snapshot { return t.counts }

// Expect is a checkpoint for one category. A mismatch is folded into the
// error counter, the counter is reset to want, and a *ResidualError is
// returned. It never fails the caller's operation; callers decide how to
// report the residual.
func (t *Tracker) Expect(c Category, want int) error {
	got := t.counts[c]
	if got == want {
		return nil
	}
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	t.errors += diff
	t.counts[c] = want
	t.log.Debug().
		Str("category", c.String()).
		Int("want", want).
		Int("got", got).
		Msg("object lifecycle residual")
	return &ResidualError{Category: c, Want: want, Got: got}
}

// Check expects every given category to be zero and aggregates the
// residuals.
func (t *Tracker) Check(cats ...Category) error {
	return t.CheckAt(Snapshot{}, cats...)
}

// CheckAt expects every given category to be back at its level in snap.
func (t *Tracker) CheckAt(snap Snapshot, cats ...Category) error {
	var result error
	for _, c := range cats {
		if err := t.Expect(c, snap[c]); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}

// Reset zeroes every counter and the error count.
func (t *Tracker) Reset() {
	t.counts = Snapshot{}
	t.errors = 0
}

// Package ephem resolves epoch queries against one Ephemeris snapshot.
package ephem

import (
	"errors"
	"time"

	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
)

// ErrNotFound is returned when no sample matches the requested epoch.
var ErrNotFound = errors.New("epoch not found")

// ErrEmpty is returned when the snapshot has no samples to search.
var ErrEmpty = errors.New("ephemeris is empty")

// Index answers epoch lookups over a single Ephemeris snapshot. It holds no
// state of its own, so one Index per request is free and race-free.
type Index struct {
	eph *oem.Ephemeris
}

// NewIndex creates an Index over the given snapshot.
func NewIndex(eph *oem.Ephemeris) *Index {
	return &Index{eph: eph}
}

// FindExact returns the first sample whose epoch string equals epoch.
func (ix *Index) FindExact(epoch string) (oem.StateVector, error) {
	for _, sv := range ix.eph.Samples {
		if sv.Epoch == epoch {
			return sv, nil
		}
	}
	return oem.StateVector{}, ErrNotFound
}

// FindNearest returns the sample closest in true elapsed time to target.
// The comparison is unbounded: a sample in an adjacent hour, day, or year
// still wins if its absolute time difference is smallest. Ties go to the
// sample appearing first in feed order (strict-less comparison).
func (ix *Index) FindNearest(target time.Time) (oem.StateVector, error) {
	if len(ix.eph.Samples) == 0 {
		return oem.StateVector{}, ErrEmpty
	}

	best := ix.eph.Samples[0]
	bestDiff := absDuration(target.Sub(best.Time))

	for _, sv := range ix.eph.Samples[1:] {
		if d := absDuration(target.Sub(sv.Time)); d < bestDiff {
			best = sv
			bestDiff = d
		}
	}

	return best, nil
}

// Page returns the contiguous slice of samples [offset, offset+limit) in
// feed order. Out-of-range offsets yield an empty slice, not an error;
// negative arguments are the caller's validation problem.
func (ix *Index) Page(offset, limit int) []oem.StateVector {
	samples := ix.eph.Samples
	if offset < 0 || limit < 0 || offset >= len(samples) {
		return []oem.StateVector{}
	}
	end := offset + limit
	if end > len(samples) {
		end = len(samples)
	}
	return samples[offset:end]
}

// Len returns the number of samples in the snapshot.
func (ix *Index) Len() int {
	return len(ix.eph.Samples)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

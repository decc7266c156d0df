package services

import (
	"grubdash/internal/core/domain/model/kernel"
)

const (
	// maxPickupGapKm bounds how far apart two restaurant pickups may be
	// for their orders to share one trip.
	maxPickupGapKm = 0.5

	// maxDropoffGapKm bounds how far apart the two customer dropoffs may be.
	maxDropoffGapKm = 2.0
)

// CandidateOrder is an order waiting in a pickup zone for batching.
type CandidateOrder struct {
	ID      string
	Pickup  kernel.GeoPoint
	Dropoff kernel.GeoPoint
}

// BatchMatcher is a domain service that pairs orders which can ride together
// on a single delivery trip.
//
// Business rules:
//   - Both orders must pick up within maxPickupGapKm of each other
//   - Both dropoffs must land within maxDropoffGapKm of each other
//   - The closest eligible pair by combined distance wins
type BatchMatcher struct{}

// NewBatchMatcher creates a new BatchMatcher instance.
func NewBatchMatcher() BatchMatcher {
	return BatchMatcher{}
}

// Match searches candidates for the best companion for target. It returns the
// matched candidate and true, or false when no candidate satisfies both
// distance constraints. Candidates with the same ID as the target are skipped.
func (m BatchMatcher) Match(target CandidateOrder, candidates []CandidateOrder) (CandidateOrder, bool) {
	var (
		best      CandidateOrder
		bestScore = -1.0
		found     bool
	)

	for _, candidate := range candidates {
		if candidate.ID == target.ID {
			continue
		}

		pickupGap, err := target.Pickup.DistanceKm(candidate.Pickup)
		if err != nil || pickupGap > maxPickupGapKm {
			continue
		}

		dropoffGap, err := target.Dropoff.DistanceKm(candidate.Dropoff)
		if err != nil || dropoffGap > maxDropoffGapKm {
			continue
		}

		score := pickupGap + dropoffGap
		if !found || score < bestScore {
			best = candidate
			bestScore = score
			found = true
		}
	}

	return best, found
}

package services

import (
	"errors"
	"time"
)

// ErrPartnerNotFound is returned when no suitable delivery partner is
// available for assignment. This occurs when either no partners are nearby
// or every nearby partner is offline or already at capacity.
var ErrPartnerNotFound = errors.New("delivery partner not found")

const (
	// maxActiveOrders caps how many in-flight orders a partner may carry.
	maxActiveOrders = 2

	// searchRadiusKm matches the geo search radius used to collect candidates.
	searchRadiusKm = 3.0

	// idleWindow is how long since the last assignment counts as fully rested.
	idleWindow = 10 * time.Minute

	// livenessWindow is how recent a heartbeat must be to score as fully live.
	livenessWindow = 2 * time.Minute
)

// Scoring weights. Proximity dominates so customers wait less, the rest
// spreads work evenly across the fleet.
const (
	proximityWeight = 0.5
	loadWeight      = 0.2
	recencyWeight   = 0.2
	livenessWeight  = 0.1
)

// PartnerCandidate is a nearby delivery partner under consideration.
type PartnerCandidate struct {
	ID           string
	DistanceKm   float64
	Online       bool
	ActiveOrders int
	LastSeen     time.Time
	LastAssigned time.Time
}

// PartnerScorer is a domain service that picks the best delivery partner for
// a trip from a set of nearby candidates.
//
// Business rules:
//   - Offline partners are never assigned
//   - Partners at maxActiveOrders are never assigned
//   - Closer, less loaded, longer-rested, recently-seen partners win
type PartnerScorer struct{}

// NewPartnerScorer creates a new PartnerScorer instance.
func NewPartnerScorer() PartnerScorer {
	return PartnerScorer{}
}

// SelectPartner returns the highest scoring eligible candidate, or
// ErrPartnerNotFound when no candidate is eligible. Ties go to the first
// candidate in the slice, which callers sort by distance.
func (s PartnerScorer) SelectPartner(candidates []PartnerCandidate, now time.Time) (PartnerCandidate, error) {
	var (
		best      PartnerCandidate
		bestScore = -1.0
		found     bool
	)

	for _, candidate := range candidates {
		if !candidate.Online || candidate.ActiveOrders >= maxActiveOrders {
			continue
		}

		score := s.Score(candidate, now)
		if score > bestScore {
			best = candidate
			bestScore = score
			found = true
		}
	}

	if !found {
		return PartnerCandidate{}, ErrPartnerNotFound
	}

	return best, nil
}

// Score computes the weighted fitness of a candidate in [0, 1].
func (s PartnerScorer) Score(candidate PartnerCandidate, now time.Time) float64 {
	proximity := 1.0 - clamp01(candidate.DistanceKm/searchRadiusKm)
	load := 1.0 - clamp01(float64(candidate.ActiveOrders)/maxActiveOrders)

	recency := 1.0
	if !candidate.LastAssigned.IsZero() {
		recency = clamp01(now.Sub(candidate.LastAssigned).Seconds() / idleWindow.Seconds())
	}

	liveness := 0.0
	if !candidate.LastSeen.IsZero() {
		liveness = 1.0 - clamp01(now.Sub(candidate.LastSeen).Seconds()/livenessWindow.Seconds())
	}

	return proximityWeight*proximity +
		loadWeight*load +
		recencyWeight*recency +
		livenessWeight*liveness
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Package delivery contains the Delivery aggregate, which tracks a delivery
// partner's trip through one or more orders from assignment to handoff.
package delivery

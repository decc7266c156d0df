// Package kernel provides core domain primitives shared by the order and
// delivery models.
//
// The package includes:
//   - GeoPoint: a validated latitude/longitude value object with haversine
//     distance calculation
//   - PickupZone: a coarse geographic bucket derived by quantizing a GeoPoint,
//     used to group nearby orders for delivery batching
//
// These primitives enforce domain invariants and validation rules, are
// immutable, and are safe for concurrent use.
package kernel

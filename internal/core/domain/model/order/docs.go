// Package order provides the Order aggregate root and its status state
// machine for the marketplace order lifecycle.
//
// The package includes:
//   - Order: the aggregate root carrying identity, participants, items,
//     pricing, locations, payment references and the delivery back-reference
//   - Status: a monotonic state machine over the order lifecycle graph
//   - Item: an ordered menu item value object
//
// Key business rules:
//   - Status only moves forward along the lifecycle graph; queue redelivery
//     and reordering must never move an order backwards
//   - Cancellation is allowed only before fulfillment starts and is terminal
//   - The order amount is fixed at creation and never recomputed from events
package order

// Package deliveryevents applies delivery-partner lifecycle events to
// Delivery records and fans per-order status notifications back into the
// order pipeline.
package deliveryevents

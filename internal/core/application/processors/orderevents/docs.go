// Package orderevents applies order lifecycle events to Order records. It is
// the order-side state machine: each handler decodes one event payload,
// checks the no-op guards that make redelivery harmless, performs a
// compare-and-set status write, and emits any follow-up messages.
package orderevents

// Package queue contains the inbound Kafka adapter. It fetches event batches,
// routes each event to its registered processor by the status discriminant,
// and commits offsets only for the prefix of the batch that durably processed.
package queue

package queue

import (
	"encoding/json"
	"fmt"
)

// envelope is the part of an event body every queue shares. The status field
// discriminates which processor handles the event; everything else is decoded
// by the processor itself so unknown fields pass through untouched.
type envelope struct {
	Status string `json:"status"`
}

// peekStatus extracts the status discriminant from a raw event body.
func peekStatus(body []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("malformed event body: %w", err)
	}
	return env.Status, nil
}

package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// StatusSuccess is the only envelope status that yields a catalog.
const StatusSuccess = "success"

// CachedResponse is a raw feed body together with the instant it was fetched.
type CachedResponse struct {
	Body      []byte    `json:"body"`
	FetchedAt time.Time `json:"fetched_at"`
}

type envelope struct {
	Status flexString `json:"status"`
	Data   struct {
		Eateries []json.RawMessage `json:"eateries"`
	} `json:"data"`
}

// ParseEnvelope validates the top-level feed document and returns the raw
// eatery records in feed order. A body that does not decode, or that carries
// any status other than StatusSuccess, is an ErrServer.
func ParseEnvelope(body []byte) ([]json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", ErrServer, err)
	}
	if string(env.Status) != StatusSuccess {
		return nil, fmt.Errorf("%w: status %q", ErrServer, string(env.Status))
	}
	return env.Data.Eateries, nil
}

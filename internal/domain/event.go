package domain

import (
	"slices"
	"strings"
	"time"
)

// Event is one contiguous serving window at a location.
type Event struct {
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Menu        Menu      `json:"menu,omitempty"`
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Occurring reports whether t falls inside [Start, End], both ends inclusive.
func (e Event) Occurring(t time.Time) bool {
	return !t.Before(e.Start) && !t.After(e.End)
}

// Mergeable reports whether e and other describe the same serving window
// split across adjacent hour records.
func (e Event) Mergeable(other Event) bool {
	if e.Description != other.Description {
		return false
	}
	return e.End.Equal(other.Start) || e.Start.Equal(other.End)
}

// SortedEvents returns the events of one day ordered by start, then by
// description. Map iteration order is random; every caller that picks "the
// first" event goes through here.
func SortedEvents(events map[string]Event) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		out = append(out, ev)
	}
	slices.SortFunc(out, func(a, b Event) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return strings.Compare(a.Description, b.Description)
	})
	return out
}

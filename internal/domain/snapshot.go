package domain

import "time"

// Snapshot is the serialized view of an eatery at one instant. It is what the
// query API returns and what is published after each refresh.
type Snapshot struct {
	ID             int64           `json:"id"`
	Slug           string          `json:"slug"`
	Name           string          `json:"name"`
	NameShort      string          `json:"name_short,omitempty"`
	Type           EateryType      `json:"type"`
	About          string          `json:"about,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	Area           Area            `json:"area"`
	Address        string          `json:"address,omitempty"`
	Geo            Geo             `json:"geo"`
	PaymentMethods []PaymentMethod `json:"payment_methods,omitempty"`

	At          time.Time `json:"at"`
	DateKey     string    `json:"date_key"`
	IsOpen      bool      `json:"is_open"`
	OpenToday   bool      `json:"open_today"`
	ActiveEvent *Event    `json:"active_event,omitempty"`
	// Upcoming is true when ActiveEvent has not started yet.
	Upcoming bool    `json:"upcoming,omitempty"`
	Events   []Event `json:"events"`
}

// Snapshot evaluates the eatery at t.
func (e *Eatery) Snapshot(t time.Time) Snapshot {
	s := Snapshot{
		ID:             e.ID,
		Slug:           e.Slug,
		Name:           e.Name,
		NameShort:      e.NameShort,
		Type:           e.Type,
		About:          e.About,
		Phone:          e.Phone,
		Area:           e.Area,
		Address:        e.Address,
		Geo:            e.Coordinate,
		PaymentMethods: e.PaymentMethods,
		At:             t,
		DateKey:        e.DateKey(t),
		IsOpen:         e.IsOpenOnDate(t),
		OpenToday:      e.IsOpenForDate(t),
		Events:         SortedEvents(e.EventsOnDate(t)),
	}
	if ev, ok := e.ActiveEventForDate(t); ok {
		s.ActiveEvent = &ev
		s.Upcoming = !ev.Occurring(t)
	}
	return s
}

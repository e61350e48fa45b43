package domain

import (
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DateLayout formats day keys.
const DateLayout = "2006-01-02"

// nextEventHorizon bounds how far ahead ActiveEventForDate looks for an
// upcoming event.
const nextEventHorizon = 24 * time.Hour

// Eatery is a normalized dining location. It is built once per catalog
// refresh and never mutated afterwards, so every query is safe for
// concurrent use.
type Eatery struct {
	ID             int64
	Slug           string
	Name           string
	NameShort      string
	Type           EateryType
	About          string
	Phone          string
	Area           Area
	Address        string
	Coordinate     Geo
	PaymentMethods []PaymentMethod

	// events maps day key -> event name -> event.
	events        map[string]map[string]Event
	diningItems   Menu
	hardcodedMenu Menu
	loc           *time.Location
}

// NewEatery normalizes a decoded record. hardcoded is the static fallback
// menu for this slug (may be nil); loc is the zone day keys are computed in.
func NewEatery(rec EateryRecord, hardcoded Menu, loc *time.Location) *Eatery {
	if loc == nil {
		loc = time.Local
	}

	e := &Eatery{
		ID:            rec.ID,
		Slug:          rec.Slug,
		Name:          rec.Name,
		NameShort:     rec.NameShort,
		Type:          ParseEateryType(rec.EateryType),
		About:         rec.About,
		Phone:         rec.Phone,
		Area:          ParseArea(rec.CampusArea),
		Address:       rec.Address,
		Coordinate:    Geo{Lat: rec.Latitude, Lon: rec.Longitude},
		hardcodedMenu: hardcoded,
		loc:           loc,
	}
	for _, pm := range rec.PayMethods {
		e.PaymentMethods = append(e.PaymentMethods, ParsePaymentMethod(pm))
	}

	var hasMenu bool
	e.events, hasMenu = normalizeHours(rec.OperatingHours, loc)

	if !hasMenu && len(rec.DiningItems) > 0 {
		e.diningItems = Menu{{Name: generalCategory, Items: slices.Clone(rec.DiningItems)}}
	}
	return e
}

// normalizeHours builds the day index and reports whether any event on any
// day carried a non-empty menu.
func normalizeHours(hours []HoursRecord, loc *time.Location) (map[string]map[string]Event, bool) {
	events := make(map[string]map[string]Event, len(hours))
	hasMenu := false

	for _, h := range hours {
		day, ok := events[h.Date]
		if !ok {
			day = make(map[string]Event, len(h.Events))
			events[h.Date] = day
		}
		for _, raw := range h.Events {
			ev := parseEvent(h.Date, raw, loc)
			if len(ev.Menu) > 0 {
				hasMenu = true
			}
			addEvent(day, ev)
		}
	}
	return events, hasMenu
}

// addEvent folds ev into one day's index in feed order.
func addEvent(day map[string]Event, ev Event) {
	existing, ok := day[ev.Description]
	switch {
	case !ok:
		day[ev.Description] = ev
	case existing.Mergeable(ev):
		if existing.End.Equal(ev.Start) {
			existing.End = ev.End
		} else {
			existing.Start = ev.Start
		}
		day[ev.Description] = existing
	default:
		ev.Description = uniqueName(day, ev.Description)
		day[ev.Description] = ev
	}
}

// uniqueName appends the smallest " N" (N >= 1) that is not yet a key.
func uniqueName(day map[string]Event, name string) string {
	for n := 1; ; n++ {
		candidate := name + " " + strconv.Itoa(n)
		if _, taken := day[candidate]; !taken {
			return candidate
		}
	}
}

func parseEvent(date string, raw EventRecord, loc *time.Location) Event {
	ev := Event{Description: raw.Description, Menu: raw.Menu}

	if raw.StartTimestamp > 0 && raw.EndTimestamp > 0 {
		ev.Start = time.Unix(raw.StartTimestamp, 0).In(loc)
		ev.End = time.Unix(raw.EndTimestamp, 0).In(loc)
	} else {
		ev.Start = parseClock(date, raw.Start, loc)
		ev.End = parseClock(date, raw.End, loc)
		if !ev.Start.IsZero() && !ev.End.IsZero() && !ev.End.After(ev.Start) {
			ev.End = ev.End.AddDate(0, 0, 1)
		}
	}

	if ev.End.Before(ev.Start) {
		ev.End = ev.Start
	}
	return ev
}

var clockLayouts = []string{"3:04pm", "3pm", "15:04"}

// parseClock combines a yyyy-MM-dd date with a clock string such as "7:30am".
// Returns the zero time when either part does not parse.
func parseClock(date, clockStr string, loc *time.Location) time.Time {
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}
	}
	clockStr = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(clockStr), " ", ""))
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, clockStr)
		if err != nil {
			continue
		}
		return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc)
	}
	return time.Time{}
}

// Location returns the time zone day keys are computed in.
func (e *Eatery) Location() *time.Location {
	return e.loc
}

// DateKey returns the day key of t in the eatery's zone.
func (e *Eatery) DateKey(t time.Time) string {
	return t.In(e.loc).Format(DateLayout)
}

func (e *Eatery) dayKeys(t time.Time) (prev, day, next string) {
	local := t.In(e.loc)
	return local.AddDate(0, 0, -1).Format(DateLayout), local.Format(DateLayout), local.AddDate(0, 0, 1).Format(DateLayout)
}

// EventsOnDate returns the events indexed under t's day key. The map is a
// copy; it is empty, never nil, when the day has no events.
func (e *Eatery) EventsOnDate(t time.Time) map[string]Event {
	day, ok := e.events[e.DateKey(t)]
	if !ok {
		return map[string]Event{}
	}
	return maps.Clone(day)
}

// DateKeys lists every day key with published hours, in ascending order.
func (e *Eatery) DateKeys() []string {
	return slices.Sorted(maps.Keys(e.events))
}

// IsOpenOnDate reports whether any event contains t. Events keyed under the
// previous day are checked too so windows crossing midnight are found.
func (e *Eatery) IsOpenOnDate(t time.Time) bool {
	prev, day, _ := e.dayKeys(t)
	for _, key := range []string{prev, day} {
		for _, ev := range e.events[key] {
			if ev.Occurring(t) {
				return true
			}
		}
	}
	return false
}

// IsOpenForDate reports whether t's day has any events at all.
func (e *Eatery) IsOpenForDate(t time.Time) bool {
	return len(e.events[e.DateKey(t)]) > 0
}

// IsOpenNow is IsOpenOnDate at the current instant.
func (e *Eatery) IsOpenNow() bool {
	return e.IsOpenOnDate(clock.Now())
}

// IsOpenToday is IsOpenForDate at the current instant.
func (e *Eatery) IsOpenToday() bool {
	return e.IsOpenForDate(clock.Now())
}

// ActiveEventForDate returns the event occurring at t, looking at the
// previous, current and next day. When none is occurring it returns the
// event with the nearest future start, provided that start is no more than
// 24 hours away. ok is false when neither exists.
func (e *Eatery) ActiveEventForDate(t time.Time) (ev Event, ok bool) {
	prev, day, next := e.dayKeys(t)

	var (
		upcoming Event
		found    bool
		bestGap  time.Duration
	)
	for _, key := range []string{prev, day, next} {
		for _, candidate := range SortedEvents(e.events[key]) {
			if candidate.Occurring(t) {
				return candidate, true
			}
			gap := candidate.Start.Sub(t)
			if gap <= 0 || gap > nextEventHorizon {
				continue
			}
			if !found || gap < bestGap {
				upcoming, bestGap, found = candidate, gap, true
			}
		}
	}
	return upcoming, found
}

// HasDiningItems reports whether the general diningItems fallback is set.
func (e *Eatery) HasDiningItems() bool {
	return len(e.diningItems) > 0
}

// AlternateMenu prefers the diningItems menu, then the static hardcoded
// menu, then nothing.
func (e *Eatery) AlternateMenu() Menu {
	if len(e.diningItems) > 0 {
		return e.diningItems
	}
	if len(e.hardcodedMenu) > 0 {
		return e.hardcodedMenu
	}
	return nil
}

// AlternateMenuIterable is MenuIterable over AlternateMenu.
func (e *Eatery) AlternateMenuIterable() []CategoryItems {
	return MenuIterable(e.AlternateMenu())
}

// ItemsForDate merges the menus of every event on t's day in start order,
// falling back to AlternateMenu when none of them carries a menu.
func (e *Eatery) ItemsForDate(t time.Time) Menu {
	var menu Menu
	for _, ev := range SortedEvents(e.events[e.DateKey(t)]) {
		menu = mergeMenus(menu, ev.Menu)
	}
	if len(menu) == 0 {
		return e.AlternateMenu()
	}
	return menu
}

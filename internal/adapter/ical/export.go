// Package ical renders a location's serving windows as an iCalendar feed.
package ical

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/couchcryptid/dining-data-service/internal/domain"
)

const productID = "-//couchcryptid//dining-data-service//EN"

// MaxDays bounds the export window.
const MaxDays = 31

// Export renders the events indexed under the days starting at from's day
// and covering days days. days is clamped to [1, MaxDays].
func Export(e *domain.Eatery, from time.Time, days int) string {
	days = min(max(days, 1), MaxDays)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(e.Name)
	cal.SetXWRTimezone(e.Location().String())

	stamp := domain.Now().UTC()
	start := from.In(e.Location())
	for i := range days {
		day := start.AddDate(0, 0, i)
		dateKey := e.DateKey(day)
		for _, ev := range domain.SortedEvents(e.EventsOnDate(day)) {
			vev := cal.AddEvent(eventUID(e.Slug, dateKey, ev.Description))
			vev.SetDtStampTime(stamp)
			vev.SetStartAt(ev.Start)
			vev.SetEndAt(ev.End)
			vev.SetSummary(summary(e, ev))
			if loc := location(e); loc != "" {
				vev.SetLocation(loc)
			}
			if desc := describeMenu(ev.Menu); desc != "" {
				vev.SetDescription(desc)
			}
		}
	}
	return cal.Serialize()
}

func eventUID(slug, dateKey, description string) string {
	name := strings.ToLower(strings.Join(strings.Fields(description), "-"))
	return fmt.Sprintf("%s-%s-%s@dining-data-service", slug, dateKey, name)
}

func summary(e *domain.Eatery, ev domain.Event) string {
	name := e.NameShort
	if name == "" {
		name = e.Name
	}
	if name == "" {
		return ev.Description
	}
	return fmt.Sprintf("%s: %s", name, ev.Description)
}

func location(e *domain.Eatery) string {
	if e.Address != "" {
		return e.Address
	}
	return e.Name
}

// describeMenu lists one "Category: item, item" line per category.
func describeMenu(m domain.Menu) string {
	lines := make([]string, 0, len(m))
	for _, c := range domain.MenuIterable(domain.SortedMenu(m)) {
		lines = append(lines, fmt.Sprintf("%s: %s", c.Category, strings.Join(c.Items, ", ")))
	}
	return strings.Join(lines, "\n")
}

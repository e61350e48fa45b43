package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// EateryRecord is one fully defaulted feed record. It is the only input to
// NewEatery; every default is applied while producing it.
type EateryRecord struct {
	ID             int64
	Slug           string
	Name           string
	NameShort      string
	About          string
	Phone          string
	CampusArea     string
	EateryType     string
	Address        string
	Latitude       float64
	Longitude      float64
	PayMethods     []string
	OperatingHours []HoursRecord
	DiningItems    []MenuItem
}

// HoursRecord is the event list published for one day.
type HoursRecord struct {
	Date   string
	Events []EventRecord
}

// EventRecord is a raw serving window before normalization.
type EventRecord struct {
	Description    string
	StartTimestamp int64
	EndTimestamp   int64
	Start          string
	End            string
	Menu           Menu
}

// DecodeRecord decodes a single eatery record. The returned record is always
// usable; the error, when non-nil, joins one *DecodeError per field set that
// had to be defaulted. Each hours day, event and menu is its own field set,
// so a malformed event menu leaves the rest of the schedule intact.
func DecodeRecord(data []byte) (EateryRecord, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return EateryRecord{}, &DecodeError{Field: "record", Err: err}
	}

	rec := EateryRecord{
		ID:        int64(raw.ID),
		Slug:      string(raw.Slug),
		Name:      string(raw.Name),
		NameShort: string(raw.NameShort),
		About:     string(raw.AboutShort),
		Phone:     string(raw.ContactPhone),
		Address:   string(raw.Location),
		Latitude:  float64(raw.Latitude),
		Longitude: float64(raw.Longitude),
	}

	var errs []error

	area := decodeFieldSet[rawDescr](rec.Slug, "campusArea", raw.CampusArea, &errs)
	rec.CampusArea = string(area.DescrShort)

	types := decodeFieldSet[[]rawDescr](rec.Slug, "eateryTypes", raw.EateryTypes, &errs)
	if len(types) > 0 {
		rec.EateryType = string(types[0].DescrShort)
	}

	for _, pm := range decodeFieldSet[[]rawDescr](rec.Slug, "payMethods", raw.PayMethods, &errs) {
		rec.PayMethods = append(rec.PayMethods, string(pm.DescrShort))
	}

	for i, day := range decodeFieldSet[[]json.RawMessage](rec.Slug, "operatingHours", raw.OperatingHours, &errs) {
		field := fmt.Sprintf("operatingHours[%d]", i)
		h, ok := decodeElement[rawHours](rec.Slug, field, day, &errs)
		if !ok {
			continue
		}
		hours := HoursRecord{Date: strings.TrimSpace(string(h.Date))}
		for j, evRaw := range decodeFieldSet[[]json.RawMessage](rec.Slug, field+".events", h.Events, &errs) {
			evField := fmt.Sprintf("%s.events[%d]", field, j)
			ev, ok := decodeElement[rawEvent](rec.Slug, evField, evRaw, &errs)
			if !ok {
				continue
			}
			hours.Events = append(hours.Events, EventRecord{
				Description:    string(ev.Descr),
				StartTimestamp: int64(ev.StartTimestamp),
				EndTimestamp:   int64(ev.EndTimestamp),
				Start:          string(ev.Start),
				End:            string(ev.End),
				Menu:           toMenu(decodeFieldSet[[]rawCategory](rec.Slug, evField+".menu", ev.Menu, &errs)),
			})
		}
		rec.OperatingHours = append(rec.OperatingHours, hours)
	}

	for _, item := range decodeFieldSet[[]rawItem](rec.Slug, "diningItems", raw.DiningItems, &errs) {
		rec.DiningItems = append(rec.DiningItems, MenuItem{Name: string(item.Item), Healthy: bool(item.Healthy)})
	}

	return rec, errors.Join(errs...)
}

// decodeFieldSet decodes one nested field set, recording a DecodeError and
// returning the zero value when it does not fit the expected shape.
func decodeFieldSet[T any](slug, field string, msg json.RawMessage, errs *[]error) T {
	var out T
	if len(msg) == 0 || string(msg) == "null" {
		return out
	}
	if err := json.Unmarshal(msg, &out); err != nil {
		*errs = append(*errs, &DecodeError{Slug: slug, Field: field, Err: err})
		var zero T
		return zero
	}
	return out
}

// decodeElement is decodeFieldSet for one list element; ok is false when the
// element was dropped. Null elements are dropped without an error.
func decodeElement[T any](slug, field string, msg json.RawMessage, errs *[]error) (T, bool) {
	if len(msg) == 0 || string(msg) == "null" {
		var zero T
		return zero, false
	}
	n := len(*errs)
	out := decodeFieldSet[T](slug, field, msg, errs)
	return out, len(*errs) == n
}

func toMenu(categories []rawCategory) Menu {
	if len(categories) == 0 {
		return nil
	}
	menu := make(Menu, 0, len(categories))
	for _, c := range categories {
		cat := MenuCategory{Name: string(c.Category)}
		for _, item := range c.Items {
			cat.Items = append(cat.Items, MenuItem{Name: string(item.Item), Healthy: bool(item.Healthy)})
		}
		menu = append(menu, cat)
	}
	return menu
}

// Feed wire types.

type rawRecord struct {
	ID           flexInt         `json:"id"`
	Slug         flexString      `json:"slug"`
	Name         flexString      `json:"name"`
	NameShort    flexString      `json:"nameshort"`
	AboutShort   flexString      `json:"aboutshort"`
	ContactPhone flexString      `json:"contactPhone"`
	Location     flexString      `json:"location"`
	Latitude     flexFloat       `json:"latitude"`
	Longitude    flexFloat       `json:"longitude"`
	CampusArea   json.RawMessage `json:"campusArea"`
	EateryTypes  json.RawMessage `json:"eateryTypes"`
	PayMethods   json.RawMessage `json:"payMethods"`

	OperatingHours json.RawMessage `json:"operatingHours"`
	DiningItems    json.RawMessage `json:"diningItems"`
}

type rawDescr struct {
	DescrShort flexString `json:"descrshort"`
}

type rawHours struct {
	Date   flexString      `json:"date"`
	Events json.RawMessage `json:"events"`
}

type rawEvent struct {
	Descr          flexString      `json:"descr"`
	StartTimestamp flexInt         `json:"startTimestamp"`
	EndTimestamp   flexInt         `json:"endTimestamp"`
	Start          flexString      `json:"start"`
	End            flexString      `json:"end"`
	Menu           json.RawMessage `json:"menu"`
}

type rawCategory struct {
	Category flexString `json:"category"`
	Items    []rawItem  `json:"items"`
}

type rawItem struct {
	Item    flexString `json:"item"`
	Healthy flexBool   `json:"healthy"`
}

// Scalar types that accept any JSON value and fall back to their zero value.

type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*s = ""
		return nil
	}
	switch x := v.(type) {
	case string:
		*s = flexString(x)
	case float64:
		*s = flexString(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		*s = flexString(strconv.FormatBool(x))
	default:
		*s = ""
	}
	return nil
}

type flexInt int64

func (n *flexInt) UnmarshalJSON(data []byte) error {
	*n = flexInt(flexNumber(data))
	return nil
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	*f = flexFloat(flexNumber(data))
	return nil
}

type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*b = false
		return nil
	}
	switch x := v.(type) {
	case bool:
		*b = flexBool(x)
	case float64:
		*b = x != 0
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(x))
		*b = flexBool(err == nil && parsed)
	default:
		*b = false
	}
	return nil
}

func flexNumber(data []byte) float64 {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return 0
	}
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Package domain models campus dining locations ("eateries") and their
// serving schedules as published by the dining information feed.
//
// # Data Source
//
// The feed is a single JSON document served at {baseURL}/eateries.json:
//
//	{"status": "success", "data": {"eateries": [...]}, "meta": {...}}
//
// Only a status of exactly "success" is accepted; anything else (including a
// body that is not JSON at all) is reported as [ErrServer].
//
// # Lenient Decoding
//
// Individual eatery records are decoded by [DecodeRecord]. Missing or
// mistyped fields never fail a record: numbers default to 0, strings to "",
// and unrecognized enumeration strings to their Unknown/Other variant. Each
// nested field set (campusArea, eateryTypes, payMethods, operatingHours,
// diningItems) is decoded independently, so a broken operatingHours array
// does not discard the payment methods. Failures are reported together as a
// joined [*DecodeError] alongside the fully defaulted record.
//
// # Operating Hours
//
// operatingHours is a list of per-day records:
//
//	{"date": "2017-02-18", "events": [{"descr": "Lunch",
//	  "startTimestamp": 1487437200, "endTimestamp": 1487446200,
//	  "start": "12:00pm", "end": "2:30pm",
//	  "menu": [{"category": "Hot Traditional Station - Entrees",
//	            "items": [{"item": "Meatloaf", "healthy": false}]}]}]}
//
// Unix timestamps win when present. Otherwise the 12-hour clock strings are
// combined with the record's date in the catalog time zone; an end that is
// not after its start is rolled to the next day (a serving window crossing
// midnight).
//
// # Day Keys
//
// Events are indexed by day key, the ISO yyyy-MM-dd string taken verbatim
// from the hour record's date field. It is never recomputed from an event's
// start time, which is why a late-night window is found under the previous
// day's key.
//
// # Normalization
//
// Within one day, raw events are folded in feed order. An event whose
// description already exists for the day is merged into the existing one when
// they touch (existing end == new start, or existing start == new end).
// Otherwise it is kept as a distinct event with a numeric suffix: "Lunch",
// "Lunch 1", "Lunch 2". Merging is greedy and order dependent; the feed order
// is not sorted first.
package domain

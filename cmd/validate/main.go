// Command validate checks a saved dining feed response for data integrity:
// envelope status, per-record decoding, event normalization, and coverage of
// the static lookup tables. It exits non-zero when any phase fails.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -feed data/eateries.json \
//	  -static internal/staticdata/static.yaml \
//	  -tz America/New_York \
//	  -at 2024-02-05T12:00:00-05:00
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"
	"time"
	_ "time/tzdata"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/dining-data-service/internal/domain"
	"github.com/couchcryptid/dining-data-service/internal/staticdata"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	feedPath := flag.String("feed", "", "path to a saved eateries.json response")
	staticPath := flag.String("static", "", "path to static data YAML (default: embedded tables)")
	tz := flag.String("tz", "America/New_York", "IANA zone used for day keys")
	at := flag.String("at", "", "RFC 3339 instant to evaluate open status at (default: now)")
	flag.Parse()

	if *feedPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*feedPath, *staticPath, *tz, *at); code != 0 {
		os.Exit(code)
	}
}

func run(feedPath, staticPath, tz, at string) int {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load zone: %v\n", err)
		return 1
	}
	if at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: parse -at: %v\n", err)
			return 1
		}
		domain.SetClock(clockwork.NewFakeClockAt(t))
		defer domain.SetClock(nil)
	}

	fmt.Println("=== Dining Feed Integrity Validation ===")
	fmt.Println()

	body, err := os.ReadFile(feedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read feed: %v\n", err)
		return 1
	}

	tables, err := loadStatic(staticPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load static data: %v\n", err)
		return 1
	}

	envPhase := &phase{name: "Envelope"}
	records, err := domain.ParseEnvelope(body)
	if err != nil {
		envPhase.errorf("%v", err)
	}

	decodePhase, eateries := validateRecords(records, tables, loc)
	phases := []*phase{
		envPhase,
		decodePhase,
		validateEvents(eateries),
		validateStaticCoverage(eateries, tables),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	open := 0
	for _, e := range eateries {
		if e.IsOpenNow() {
			open++
		}
	}
	fmt.Printf("Locations: %d from feed, %d open at %s\n", len(eateries), open, domain.Now().In(loc).Format(time.RFC3339))

	for _, p := range phases {
		if len(p.errors) == 0 && len(p.warnings) == 0 {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		for _, w := range p.warnings {
			fmt.Printf("  (warn) %s\n", w)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadStatic(path string) (*staticdata.Tables, error) {
	if path == "" {
		return staticdata.Default()
	}
	return staticdata.Load(path)
}

// validateRecords decodes every record. Field sets that fell back to
// defaults are warnings; a record with no slug is an error.
func validateRecords(records []json.RawMessage, tables *staticdata.Tables, loc *time.Location) (*phase, []*domain.Eatery) {
	p := &phase{name: "Record decoding"}
	eateries := make([]*domain.Eatery, 0, len(records))
	seen := make(map[string]int, len(records))

	for i, raw := range records {
		rec, err := domain.DecodeRecord(raw)
		if err != nil {
			p.warnf("record %d (%s): %v", i, rec.Slug, err)
		}
		if rec.Slug == "" {
			p.errorf("record %d: missing slug", i)
		}
		if prev, dup := seen[rec.Slug]; dup && rec.Slug != "" {
			p.warnf("record %d: slug %q duplicates record %d", i, rec.Slug, prev)
		} else {
			seen[rec.Slug] = i
		}
		eateries = append(eateries, domain.NewEatery(rec, tables.HardcodedMenu(rec.Slug), loc))
	}
	return p, eateries
}

// validateEvents checks the normalized event windows.
func validateEvents(eateries []*domain.Eatery) *phase {
	p := &phase{name: "Event normalization"}
	for _, e := range eateries {
		for _, key := range e.DateKeys() {
			day, err := time.ParseInLocation(domain.DateLayout, key, e.Location())
			if err != nil {
				p.errorf("%s: bad day key %q", e.Slug, key)
				continue
			}
			for _, ev := range domain.SortedEvents(e.EventsOnDate(day.Add(12 * time.Hour))) {
				if ev.End.Before(ev.Start) {
					p.errorf("%s %s %q: ends %s before it starts %s", e.Slug, key, ev.Description,
						ev.End.Format(time.RFC3339), ev.Start.Format(time.RFC3339))
				}
				if ev.Start.IsZero() || ev.End.IsZero() {
					p.warnf("%s %s %q: missing start or end", e.Slug, key, ev.Description)
				}
			}
		}
	}
	return p
}

// validateStaticCoverage reports hardcoded menus and external locations whose
// slugs do not line up with the feed.
func validateStaticCoverage(eateries []*domain.Eatery, tables *staticdata.Tables) *phase {
	p := &phase{name: "Static data coverage"}
	slugs := make([]string, 0, len(eateries))
	for _, e := range eateries {
		slugs = append(slugs, e.Slug)
	}

	for _, slug := range tables.MenuSlugs() {
		if !slices.Contains(slugs, slug) {
			p.warnf("hardcoded menu %q has no matching feed location", slug)
		}
	}
	for _, raw := range tables.ExternalRecords() {
		rec, _ := domain.DecodeRecord(raw)
		if slices.Contains(slugs, rec.Slug) {
			p.errorf("external location %q is also served by the feed", rec.Slug)
		}
	}
	return p
}

package ics

import (
	"context"
	"errors"
	"sort"
	"time"

	"calscope/internal/model"
)

// Loader runs the full ICS pipeline: fetch every source, parse, expand
// recurrences over a query window, and hand back resolved events.
type Loader struct {
	fetcher *Fetcher
	sources []Source
	emails  []string
}

// NewLoader builds a Loader over the given sources. currentUserEmails
// identifies the current user among event attendees.
func NewLoader(fetcher *Fetcher, sources []Source, currentUserEmails []string) *Loader {
	return &Loader{
		fetcher: fetcher,
		sources: sources,
		emails:  currentUserEmails,
	}
}

// Load resolves all sources into calendar events within [from, to],
// normalized to loc. Individual source failures are tolerated as long as at
// least one source loads; only total failure returns an error.
func (l *Loader) Load(ctx context.Context, from, to time.Time, loc *time.Location) ([]model.CalendarEvent, error) {
	results, errs := l.fetcher.FetchAll(ctx, l.sources)
	if len(results) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	parsed := make([]ParsedEvent, 0)
	for _, res := range results {
		events, err := ParseICS(res.Source, res.Body)
		if err != nil {
			// Already logged by ParseICS; skip the broken feed.
			continue
		}
		parsed = append(parsed, events...)
	}

	expanded, err := ExpandOccurrences(parsed, ExpandConfig{
		DisplayLocation:   loc,
		RangeStart:        from,
		RangeEnd:          to,
		CurrentUserEmails: l.emails,
	})
	if err != nil {
		return nil, err
	}

	// Expansion iterates a map keyed by UID; sort so callers see a stable
	// chronological order.
	events := expanded.Events
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		if events[i].Title != events[j].Title {
			return events[i].Title < events[j].Title
		}
		return events[i].ID < events[j].ID
	})

	return events, nil
}

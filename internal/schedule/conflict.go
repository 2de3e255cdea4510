package schedule

import (
	"sort"
	"time"

	"calscope/internal/model"
)

// ConflictGroup is a maximal run of temporally overlapping events. Events
// appear in input order; WindowStart/WindowEnd span the whole cluster.
type ConflictGroup struct {
	Events      []model.CalendarEvent `json:"events"`
	WindowStart time.Time             `json:"window_start"`
	WindowEnd   time.Time             `json:"window_end"`
}

// ConflictResult is the outcome of one conflict scan over a date range.
type ConflictResult struct {
	Groups         []ConflictGroup `json:"groups"`
	TotalConflicts int             `json:"total_conflicts"`
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
}

// DetectConflicts groups overlapping events into conflict clusters using a
// single sweep over the events, which must already be sorted ascending by
// start time (sortByStart does this). Two events conflict only when one
// starts strictly before the other ends: back-to-back events such as
// [9:00,10:00) and [10:00,11:00) are not conflicts.
//
// Zero- or negative-length events never extend a cluster beyond their own
// start; they are swept like any other interval.
func DetectConflicts(events []model.CalendarEvent) []ConflictGroup {
	if len(events) < 2 {
		return nil
	}

	var groups []ConflictGroup

	cluster := []model.CalendarEvent{events[0]}
	clusterEnd := events[0].End

	flush := func() {
		if len(cluster) >= 2 {
			groups = append(groups, ConflictGroup{
				Events:      cluster,
				WindowStart: cluster[0].Start,
				WindowEnd:   clusterEnd,
			})
		}
	}

	for _, ev := range events[1:] {
		if ev.Start.Before(clusterEnd) {
			cluster = append(cluster, ev)
			if ev.End.After(clusterEnd) {
				clusterEnd = ev.End
			}
			continue
		}
		flush()
		cluster = []model.CalendarEvent{ev}
		clusterEnd = ev.End
	}
	flush()

	return groups
}

// FindConflicts runs the full conflict pipeline for a query range: filter
// out non-blocking events, sort by start time, and cluster overlaps.
func FindConflicts(events []model.CalendarEvent, from, to time.Time) ConflictResult {
	schedulable := sortByStart(FilterSchedulable(events))
	groups := DetectConflicts(schedulable)
	return ConflictResult{
		Groups:         groups,
		TotalConflicts: len(groups),
		From:           from,
		To:             to,
	}
}

// sortByStart returns a copy of events sorted ascending by start time.
// The sort is stable so same-start events keep their input order.
func sortByStart(events []model.CalendarEvent) []model.CalendarEvent {
	sorted := make([]model.CalendarEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	return sorted
}

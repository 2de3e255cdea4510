// Package schedule is the scheduling analysis engine: pure, deterministic
// transformations over resolved calendar events. It knows nothing about
// where events come from or how results are rendered; everything here is a
// total function over immutable inputs, safe for concurrent use.
package schedule

import "calscope/internal/model"

// IsSchedulable reports whether an event counts as real busy time for
// conflict and free-time analysis. Canceled events, events explicitly marked
// "show as free", and events the current user declined do not block time.
func IsSchedulable(ev model.CalendarEvent) bool {
	if ev.Status == model.StatusCanceled {
		return false
	}
	if ev.Availability == model.AvailabilityFree {
		return false
	}
	for _, a := range ev.Attendees {
		if a.IsCurrentUser && a.Status == model.ResponseDeclined {
			return false
		}
	}
	return true
}

// FilterSchedulable returns the subsequence of events that pass
// IsSchedulable, preserving the original relative order.
func FilterSchedulable(events []model.CalendarEvent) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if IsSchedulable(ev) {
			out = append(out, ev)
		}
	}
	return out
}

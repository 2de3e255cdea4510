package schedule

import (
	"sort"
	"time"

	"calscope/internal/model"
)

// DayKeyFormat renders a calendar day as its bucket key. This is the join
// key presentation layers align grouped output with: always zero-padded
// YYYY-MM-DD, no locale variation.
const DayKeyFormat = "2006-01-02"

// maxBucketDaysPerEvent caps how many day buckets a single event may occupy
// when the query supplies no range bounds. Without a cap, a malformed event
// spanning decades would enumerate one bucket per day.
const maxBucketDaysPerEvent = 3660

// DateGroup is one calendar-day bucket and the events assigned to it.
// Events keep their input relative order; this component does not re-sort.
type DateGroup struct {
	Key    string                `json:"key"`
	Date   time.Time             `json:"date"`
	Events []model.CalendarEvent `json:"events"`
}

// GroupByDay assigns each event to every calendar day it touches, keyed in
// loc. Scheduling filtering does not apply here: canceled or declined events
// still show up on the days they occupy.
//
// Day-span semantics:
//   - All-day events store an exclusive end (midnight after the last
//     included day), so the last bucket day is End minus one day.
//   - Timed events bucket through the calendar day of End, except that an
//     event ending exactly at local midnight does not spill into the next
//     day's bucket.
//
// When from/to are supplied, bucket days are clamped to
// [startOfDay(from), startOfDay(to)]; days outside the range are never
// created. With showEmptyDates and both bounds set, every day in the range
// gets a group even when empty. Groups are returned in chronological order.
func GroupByDay(events []model.CalendarEvent, from, to *time.Time, showEmptyDates bool, loc *time.Location) []DateGroup {
	var rangeFirst, rangeLast time.Time
	if from != nil {
		rangeFirst = startOfDay(*from, loc)
	}
	if to != nil {
		rangeLast = startOfDay(*to, loc)
	}

	buckets := make(map[string][]model.CalendarEvent)

	for _, ev := range events {
		first, last := eventDaySpan(ev, loc)
		if from != nil && first.Before(rangeFirst) {
			first = rangeFirst
		}
		if to != nil && last.After(rangeLast) {
			last = rangeLast
		}
		if last.Before(first) {
			continue
		}
		days := 0
		for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
			key := day.Format(DayKeyFormat)
			buckets[key] = append(buckets[key], ev)
			days++
			if days >= maxBucketDaysPerEvent {
				break
			}
		}
	}

	if showEmptyDates && from != nil && to != nil {
		groups := make([]DateGroup, 0, int(rangeLast.Sub(rangeFirst).Hours()/24)+1)
		for day := rangeFirst; !day.After(rangeLast); day = day.AddDate(0, 0, 1) {
			key := day.Format(DayKeyFormat)
			groups = append(groups, DateGroup{Key: key, Date: day, Events: buckets[key]})
		}
		return groups
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	groups := make([]DateGroup, 0, len(keys))
	for _, key := range keys {
		day, _ := time.ParseInLocation(DayKeyFormat, key, loc)
		groups = append(groups, DateGroup{Key: key, Date: day, Events: buckets[key]})
	}
	return groups
}

// eventDaySpan computes the first and last bucket day an event occupies.
func eventDaySpan(ev model.CalendarEvent, loc *time.Location) (first, last time.Time) {
	first = startOfDay(ev.Start, loc)

	if ev.AllDay {
		// Exclusive end: the last included day is the day before End.
		last = startOfDay(ev.End.AddDate(0, 0, -1), loc)
	} else {
		last = startOfDay(ev.End, loc)
		// An event ending exactly at local midnight belongs to the day it
		// ran through, not the day it touches at second zero.
		if endsAtMidnight(ev.End, loc) && ev.End.After(ev.Start) {
			last = last.AddDate(0, 0, -1)
		}
	}

	if last.Before(first) {
		// End-before-start records still occupy their own start day.
		last = first
	}
	return first, last
}

func endsAtMidnight(t time.Time, loc *time.Location) bool {
	tl := t.In(loc)
	return tl.Hour() == 0 && tl.Minute() == 0 && tl.Second() == 0 && tl.Nanosecond() == 0
}

package schedule

import (
	"sort"
	"time"

	"calscope/internal/model"
)

// WorkingHours is the daily wall-clock window searched for free time. The
// same window applies to every day in the query range. Callers are expected
// to supply valid values (hour 0-23, minute 0-59); a window whose start is
// not before its end yields zero free time by construction.
type WorkingHours struct {
	StartHour   int `json:"start_hour"`
	StartMinute int `json:"start_minute"`
	EndHour     int `json:"end_hour"`
	EndMinute   int `json:"end_minute"`
}

// SlotTier is a coarse classification of a free slot by its length.
type SlotTier string

const (
	// TierDeep marks slots of two hours or more, enough for deep work.
	TierDeep SlotTier = "deep"
	// TierFocus marks slots of at least one hour.
	TierFocus SlotTier = "focus"
	// TierShort marks slots of at least thirty minutes.
	TierShort SlotTier = "short"
	// TierBrief marks anything shorter.
	TierBrief SlotTier = "brief"
)

// FreeSlot is a single uninterrupted gap inside a day's working window.
type FreeSlot struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Minutes int       `json:"minutes"`
	Tier    SlotTier  `json:"tier"`
}

// DayFreeSlots lists the free slots found on one calendar day.
type DayFreeSlots struct {
	Date             time.Time  `json:"date"`
	Label            string     `json:"label"`
	Slots            []FreeSlot `json:"slots"`
	TotalFreeMinutes int        `json:"total_free_minutes"`
}

// FreeTimeResult is the outcome of one free-time scan: one entry per day in
// the query range (present even when a day has no free time), plus the
// parameters the scan ran with.
type FreeTimeResult struct {
	Days               []DayFreeSlots `json:"days"`
	TotalFreeMinutes   int            `json:"total_free_minutes"`
	WorkingHours       WorkingHours   `json:"working_hours"`
	MinDurationMinutes int            `json:"min_duration_minutes"`
	From               time.Time      `json:"from"`
	To                 time.Time      `json:"to"`
}

// interval is a clipped busy span inside a working window.
type interval struct {
	start time.Time
	end   time.Time
}

// FindFreeTime computes the free gaps inside the working-hours window for
// every calendar day from `from` through `to` inclusive, in from's location.
// Events that do not block time (canceled, free, declined) are ignored.
// Gaps shorter than minDurationMinutes are suppressed.
//
// On the day matching `from`'s calendar day the window is clipped to start
// no earlier than `from` itself, so "free time remaining today from now"
// works naturally.
func FindFreeTime(events []model.CalendarEvent, from, to time.Time, hours WorkingHours, minDurationMinutes int) FreeTimeResult {
	busy := FilterSchedulable(events)
	loc := from.Location()

	result := FreeTimeResult{
		WorkingHours:       hours,
		MinDurationMinutes: minDurationMinutes,
		From:               from,
		To:                 to,
	}

	first := startOfDay(from, loc)
	last := startOfDay(to, loc)

	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		dayResult := freeSlotsForDay(busy, day, from, hours, minDurationMinutes, loc)
		result.Days = append(result.Days, dayResult)
		result.TotalFreeMinutes += dayResult.TotalFreeMinutes
	}

	return result
}

// freeSlotsForDay computes the free slots for one calendar day.
func freeSlotsForDay(busy []model.CalendarEvent, day, from time.Time, hours WorkingHours, minDurationMinutes int, loc *time.Location) DayFreeSlots {
	out := DayFreeSlots{
		Date:  day,
		Label: day.Format("Monday, Jan 2"),
	}

	windowStart := time.Date(day.Year(), day.Month(), day.Day(), hours.StartHour, hours.StartMinute, 0, 0, loc)
	windowEnd := time.Date(day.Year(), day.Month(), day.Day(), hours.EndHour, hours.EndMinute, 0, 0, loc)

	// On the query's first day the window starts no earlier than `from`.
	if sameDay(day, from, loc) && from.After(windowStart) {
		windowStart = from
	}
	if !windowStart.Before(windowEnd) {
		return out
	}

	blocks := mergedBusyBlocks(busy, windowStart, windowEnd)

	cursor := windowStart
	emit := func(gapEnd time.Time) {
		minutes := int(gapEnd.Sub(cursor) / time.Minute)
		if minutes >= minDurationMinutes && gapEnd.After(cursor) {
			out.Slots = append(out.Slots, FreeSlot{
				Start:   cursor,
				End:     gapEnd,
				Minutes: minutes,
				Tier:    tierFor(minutes),
			})
			out.TotalFreeMinutes += minutes
		}
	}

	for _, b := range blocks {
		emit(b.start)
		if b.end.After(cursor) {
			cursor = b.end
		}
	}
	emit(windowEnd)

	return out
}

// mergedBusyBlocks clips busy events to [windowStart, windowEnd) and merges
// overlapping or touching intervals into maximal busy blocks. Touching
// intervals merge (<=): two meetings back to back form one block with no
// zero-width "gap" between them. Events whose end does not come after
// their start occupy no time and are dropped.
func mergedBusyBlocks(busy []model.CalendarEvent, windowStart, windowEnd time.Time) []interval {
	clipped := make([]interval, 0, len(busy))
	for _, ev := range busy {
		if !ev.Overlaps(windowStart, windowEnd) {
			continue
		}
		iv := interval{start: ev.Start, end: ev.End}
		if iv.start.Before(windowStart) {
			iv.start = windowStart
		}
		if iv.end.After(windowEnd) {
			iv.end = windowEnd
		}
		if !iv.end.After(iv.start) {
			continue
		}
		clipped = append(clipped, iv)
	}

	sort.Slice(clipped, func(i, j int) bool {
		return clipped[i].start.Before(clipped[j].start)
	})

	merged := make([]interval, 0, len(clipped))
	for _, iv := range clipped {
		if len(merged) == 0 {
			merged = append(merged, iv)
			continue
		}
		last := &merged[len(merged)-1]
		if !iv.start.After(last.end) {
			if iv.end.After(last.end) {
				last.end = iv.end
			}
			continue
		}
		merged = append(merged, iv)
	}

	return merged
}

// tierFor classifies a slot length in minutes, longest tier first.
func tierFor(minutes int) SlotTier {
	switch {
	case minutes >= 120:
		return TierDeep
	case minutes >= 60:
		return TierFocus
	case minutes >= 30:
		return TierShort
	default:
		return TierBrief
	}
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	tl := t.In(loc)
	return time.Date(tl.Year(), tl.Month(), tl.Day(), 0, 0, 0, 0, loc)
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	al, bl := a.In(loc), b.In(loc)
	return al.Year() == bl.Year() && al.Month() == bl.Month() && al.Day() == bl.Day()
}

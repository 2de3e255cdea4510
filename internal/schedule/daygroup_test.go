package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calscope/internal/model"
)

func mar(d, hour, minute int) time.Time {
	return time.Date(2026, 3, d, hour, minute, 0, 0, time.UTC)
}

func allDayEvent(id string, start, end time.Time) model.CalendarEvent {
	ev := makeEvent(id, "All day "+id, start, end)
	ev.AllDay = true
	return ev
}

func keysOf(groups []DateGroup) []string {
	keys := make([]string, 0, len(groups))
	for _, g := range groups {
		keys = append(keys, g.Key)
	}
	return keys
}

func TestGroupByDay_TimedSingleDay(t *testing.T) {
	groups := GroupByDay([]model.CalendarEvent{
		makeEvent("1", "Meeting", mar(15, 10, 0), mar(15, 11, 0)),
	}, nil, nil, false, time.UTC)

	require.Len(t, groups, 1)
	assert.Equal(t, "2026-03-15", groups[0].Key)
	assert.Len(t, groups[0].Events, 1)
}

func TestGroupByDay_AllDayExclusiveEnd(t *testing.T) {
	// Stored as [Mar 15, Mar 18): exactly three bucket days.
	groups := GroupByDay([]model.CalendarEvent{
		allDayEvent("1", mar(15, 0, 0), mar(18, 0, 0)),
	}, nil, nil, false, time.UTC)

	assert.Equal(t, []string{"2026-03-15", "2026-03-16", "2026-03-17"}, keysOf(groups))
}

func TestGroupByDay_SingleDayAllDay(t *testing.T) {
	groups := GroupByDay([]model.CalendarEvent{
		allDayEvent("1", mar(15, 0, 0), mar(16, 0, 0)),
	}, nil, nil, false, time.UTC)

	assert.Equal(t, []string{"2026-03-15"}, keysOf(groups))
}

func TestGroupByDay_MidnightBoundaryExemption(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected []string
	}{
		{
			name:     "timed event ending exactly at midnight stays on its day",
			start:    mar(15, 22, 0),
			end:      mar(16, 0, 0),
			expected: []string{"2026-03-15"},
		},
		{
			name:     "timed event running past midnight spans both days",
			start:    mar(15, 22, 0),
			end:      mar(16, 2, 0),
			expected: []string{"2026-03-15", "2026-03-16"},
		},
		{
			name:     "timed multi-day event ending at midnight",
			start:    mar(15, 9, 0),
			end:      mar(18, 0, 0),
			expected: []string{"2026-03-15", "2026-03-16", "2026-03-17"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := GroupByDay([]model.CalendarEvent{
				makeEvent("1", "Late", tt.start, tt.end),
			}, nil, nil, false, time.UTC)
			assert.Equal(t, tt.expected, keysOf(groups))
		})
	}
}

func TestGroupByDay_RangeClamping(t *testing.T) {
	from := mar(16, 0, 0)
	to := mar(17, 0, 0)

	groups := GroupByDay([]model.CalendarEvent{
		allDayEvent("long", mar(10, 0, 0), mar(25, 0, 0)),
		makeEvent("outside", "Before range", mar(12, 10, 0), mar(12, 11, 0)),
	}, &from, &to, false, time.UTC)

	assert.Equal(t, []string{"2026-03-16", "2026-03-17"}, keysOf(groups))
	for _, g := range groups {
		require.Len(t, g.Events, 1)
		assert.Equal(t, "long", g.Events[0].ID)
	}
}

func TestGroupByDay_ShowEmptyDates(t *testing.T) {
	from := mar(15, 0, 0)
	to := mar(18, 0, 0)

	groups := GroupByDay([]model.CalendarEvent{
		makeEvent("1", "Only one", mar(16, 10, 0), mar(16, 11, 0)),
	}, &from, &to, true, time.UTC)

	assert.Equal(t, []string{"2026-03-15", "2026-03-16", "2026-03-17", "2026-03-18"}, keysOf(groups))
	assert.Empty(t, groups[0].Events)
	assert.Len(t, groups[1].Events, 1)
	assert.Empty(t, groups[2].Events)
}

func TestGroupByDay_WithoutRangeOnlyNonEmptyDays(t *testing.T) {
	groups := GroupByDay([]model.CalendarEvent{
		makeEvent("1", "A", mar(20, 10, 0), mar(20, 11, 0)),
		makeEvent("2", "B", mar(15, 10, 0), mar(15, 11, 0)),
	}, nil, nil, false, time.UTC)

	// Chronological by key, gaps omitted.
	assert.Equal(t, []string{"2026-03-15", "2026-03-20"}, keysOf(groups))
}

func TestGroupByDay_InsertionOrderWithinBucket(t *testing.T) {
	// Later event listed first in the input stays first in the bucket;
	// the grouper does not re-sort by time.
	groups := GroupByDay([]model.CalendarEvent{
		makeEvent("late", "Afternoon", mar(15, 15, 0), mar(15, 16, 0)),
		makeEvent("early", "Morning", mar(15, 9, 0), mar(15, 10, 0)),
	}, nil, nil, false, time.UTC)

	require.Len(t, groups, 1)
	require.Len(t, groups[0].Events, 2)
	assert.Equal(t, "late", groups[0].Events[0].ID)
	assert.Equal(t, "early", groups[0].Events[1].ID)
}

func TestGroupByDay_CanceledEventsStillGrouped(t *testing.T) {
	ev := makeEvent("1", "Canceled", mar(15, 10, 0), mar(15, 11, 0))
	ev.Status = model.StatusCanceled

	groups := GroupByDay([]model.CalendarEvent{ev}, nil, nil, false, time.UTC)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Events, 1)
}

func TestGroupByDay_EndBeforeStartOccupiesStartDay(t *testing.T) {
	groups := GroupByDay([]model.CalendarEvent{
		makeEvent("bad", "Broken", mar(15, 11, 0), mar(15, 10, 0)),
	}, nil, nil, false, time.UTC)

	assert.Equal(t, []string{"2026-03-15"}, keysOf(groups))
}

func TestGroupByDay_ZeroPaddedKeys(t *testing.T) {
	groups := GroupByDay([]model.CalendarEvent{
		makeEvent("1", "Early Jan", time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)),
	}, nil, nil, false, time.UTC)

	require.Len(t, groups, 1)
	assert.Equal(t, "2026-01-05", groups[0].Key)
}

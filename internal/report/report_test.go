package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calscope/internal/model"
	"calscope/internal/schedule"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func event(title string, start, end time.Time) model.CalendarEvent {
	return model.CalendarEvent{
		ID:           title,
		Title:        title,
		Start:        start,
		End:          end,
		Calendar:     model.Calendar{Title: "Work"},
		Status:       model.StatusConfirmed,
		Availability: model.AvailabilityBusy,
	}
}

func TestAgendaText(t *testing.T) {
	from := at(0, 0)
	to := at(0, 0).AddDate(0, 0, 1)
	groups := schedule.GroupByDay([]model.CalendarEvent{
		event("Standup", at(9, 0), at(9, 15)),
	}, &from, &to, true, time.UTC)

	out := AgendaText(groups)
	assert.Contains(t, out, "2026-03-02 (Monday, Mar 2)")
	assert.Contains(t, out, "09:00-09:15  Standup [Work]")
	assert.Contains(t, out, "(no events)")
}

func TestAgendaText_Empty(t *testing.T) {
	assert.Equal(t, "No events.\n", AgendaText(nil))
}

func TestAgendaText_AllDayAndRecurring(t *testing.T) {
	ev := event("Conference", at(0, 0), at(0, 0).AddDate(0, 0, 1))
	ev.AllDay = true
	ev.Recurrence = model.Recurrence{IsRecurring: true, Phrase: "Every year"}

	out := AgendaText(schedule.GroupByDay([]model.CalendarEvent{ev}, nil, nil, false, time.UTC))
	assert.Contains(t, out, "all day")
	assert.Contains(t, out, "(Every year)")
}

func TestConflictsText(t *testing.T) {
	res := schedule.FindConflicts([]model.CalendarEvent{
		event("A", at(10, 0), at(11, 0)),
		event("B", at(10, 30), at(11, 30)),
	}, at(0, 0), at(0, 0).AddDate(0, 0, 7))

	out := ConflictsText(res)
	assert.Contains(t, out, "1 conflict between 2026-03-02 and 2026-03-09")
	assert.Contains(t, out, "Conflict 1: Monday, Mar 2 10:00-11:30")
	assert.Contains(t, out, "10:00-11:00  A [Work]")
	assert.Contains(t, out, "10:30-11:30  B [Work]")
}

func TestConflictsText_NoConflicts(t *testing.T) {
	res := schedule.FindConflicts(nil, at(0, 0), at(0, 0).AddDate(0, 0, 7))
	out := ConflictsText(res)
	assert.Contains(t, out, "0 conflicts")
	assert.NotContains(t, out, "Conflict 1")
}

func TestFreeTimeText(t *testing.T) {
	hours := schedule.WorkingHours{StartHour: 9, EndHour: 17}
	res := schedule.FindFreeTime([]model.CalendarEvent{
		event("Block", at(9, 0), at(15, 0)),
	}, at(0, 0), at(0, 0), hours, 30)

	out := FreeTimeText(res)
	assert.Contains(t, out, "Monday, Mar 2: 120 free minutes")
	assert.Contains(t, out, "15:00-17:00  120 min (deep)")
	assert.Contains(t, out, "Total: 120 free minutes")
}

func TestJSON(t *testing.T) {
	res := schedule.FindConflicts([]model.CalendarEvent{
		event("A", at(10, 0), at(11, 0)),
		event("B", at(10, 30), at(11, 30)),
	}, at(0, 0), at(0, 0).AddDate(0, 0, 7))

	out, err := JSON(res)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, `"total_conflicts": 1`)
	assert.Contains(t, out, `"window_start"`)
}

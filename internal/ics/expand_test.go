package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calscope/internal/model"
)

func window() (time.Time, time.Time) {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
}

func parsedEvent(uid string, start, end time.Time) ParsedEvent {
	return ParsedEvent{
		Source:       testSource,
		UID:          uid,
		Summary:      "Event " + uid,
		Start:        start,
		End:          end,
		Status:       model.StatusConfirmed,
		Availability: model.AvailabilityBusy,
	}
}

func TestExpandOccurrences_RangeValidation(t *testing.T) {
	from, to := window()
	_, err := ExpandOccurrences(nil, ExpandConfig{RangeStart: to, RangeEnd: from})
	assert.Error(t, err)
}

func TestExpandOccurrences_SingleEvent(t *testing.T) {
	from, to := window()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	res, err := ExpandOccurrences([]ParsedEvent{
		parsedEvent("one", start, start.Add(time.Hour)),
	}, ExpandConfig{DisplayLocation: time.UTC, RangeStart: from, RangeEnd: to})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)

	ev := res.Events[0]
	assert.Equal(t, "Event one", ev.Title)
	assert.True(t, ev.Start.Equal(start))
	assert.False(t, ev.Recurrence.IsRecurring)
	assert.Equal(t, "work", ev.Calendar.ID)
	assert.Equal(t, "Work", ev.Calendar.Title)
	// Source URL is carried without its query string.
	assert.Equal(t, "https://example.com/cal.ics", ev.Calendar.Source)
	assert.NotEmpty(t, ev.ID)
}

func TestExpandOccurrences_OutsideRangeDropped(t *testing.T) {
	from, to := window()
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	res, err := ExpandOccurrences([]ParsedEvent{
		parsedEvent("far", start, start.Add(time.Hour)),
	}, ExpandConfig{DisplayLocation: time.UTC, RangeStart: from, RangeEnd: to})
	require.NoError(t, err)
	assert.Empty(t, res.Events)
}

func TestExpandOccurrences_DailyRecurrence(t *testing.T) {
	from, to := window()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	ev := parsedEvent("daily", start, start.Add(30*time.Minute))
	ev.RawRRule = "FREQ=DAILY;COUNT=5"

	res, err := ExpandOccurrences([]ParsedEvent{ev}, ExpandConfig{
		DisplayLocation: time.UTC, RangeStart: from, RangeEnd: to,
	})
	require.NoError(t, err)
	require.Len(t, res.Events, 5)

	for i, occ := range res.Events {
		assert.True(t, occ.Start.Equal(start.AddDate(0, 0, i)), "occurrence %d", i)
		assert.Equal(t, 30*time.Minute, occ.Duration())
		assert.True(t, occ.Recurrence.IsRecurring)
		assert.Equal(t, "Every day", occ.Recurrence.Phrase)
	}

	// Instance IDs are deterministic and unique per occurrence.
	ids := map[string]bool{}
	for _, occ := range res.Events {
		ids[occ.ID] = true
	}
	assert.Len(t, ids, 5)

	again, err := ExpandOccurrences([]ParsedEvent{ev}, ExpandConfig{
		DisplayLocation: time.UTC, RangeStart: from, RangeEnd: to,
	})
	require.NoError(t, err)
	assert.Equal(t, res.Events[0].ID, again.Events[0].ID)
}

func TestExpandOccurrences_ExDateRemovesInstance(t *testing.T) {
	from, to := window()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	ev := parsedEvent("exdate", start, start.Add(time.Hour))
	ev.RawRRule = "FREQ=DAILY;COUNT=3"
	ev.ExDates = []time.Time{start.AddDate(0, 0, 1)}

	res, err := ExpandOccurrences([]ParsedEvent{ev}, ExpandConfig{
		DisplayLocation: time.UTC, RangeStart: from, RangeEnd: to,
	})
	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	assert.True(t, res.Events[0].Start.Equal(start))
	assert.True(t, res.Events[1].Start.Equal(start.AddDate(0, 0, 2)))
}

func TestExpandOccurrences_OverrideReplacesInstance(t *testing.T) {
	from, to := window()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	ev := parsedEvent("override", start, start.Add(time.Hour))
	ev.RawRRule = "FREQ=DAILY;COUNT=2"

	movedStart := start.AddDate(0, 0, 1).Add(2 * time.Hour)
	overrideAt := start.AddDate(0, 0, 1)
	override := parsedEvent("override", movedStart, movedStart.Add(time.Hour))
	override.Summary = "Moved instance"
	override.Recurrence = &overrideAt
	override.IsOverride = true

	res, err := ExpandOccurrences([]ParsedEvent{ev, override}, ExpandConfig{
		DisplayLocation: time.UTC, RangeStart: from, RangeEnd: to,
	})
	require.NoError(t, err)
	require.Len(t, res.Events, 2)

	var moved *model.CalendarEvent
	for i := range res.Events {
		if res.Events[i].Title == "Moved instance" {
			moved = &res.Events[i]
		}
	}
	require.NotNil(t, moved)
	assert.True(t, moved.Start.Equal(movedStart))
}

func TestExpandOccurrences_TruncatesAtCap(t *testing.T) {
	from, to := window()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	ev := parsedEvent("hourly", start, start.Add(30*time.Minute))
	ev.RawRRule = "FREQ=HOURLY"

	res, err := ExpandOccurrences([]ParsedEvent{ev}, ExpandConfig{
		DisplayLocation:        time.UTC,
		RangeStart:             from,
		RangeEnd:               to,
		MaxOccurrencesPerEvent: 10,
	})
	require.NoError(t, err)
	assert.Len(t, res.Events, 10)
	assert.Equal(t, []string{"hourly"}, res.TruncatedEvents)
}

func TestExpandOccurrences_MarksCurrentUser(t *testing.T) {
	from, to := window()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	ev := parsedEvent("attendees", start, start.Add(time.Hour))
	ev.Attendees = []model.Attendee{
		{Email: "Me@Example.com", Status: model.ResponseDeclined},
		{Email: "other@example.com", Status: model.ResponseAccepted},
	}

	res, err := ExpandOccurrences([]ParsedEvent{ev}, ExpandConfig{
		DisplayLocation:   time.UTC,
		RangeStart:        from,
		RangeEnd:          to,
		CurrentUserEmails: []string{"me@example.com"},
	})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)

	attendees := res.Events[0].Attendees
	require.Len(t, attendees, 2)
	assert.True(t, attendees[0].IsCurrentUser)
	assert.False(t, attendees[1].IsCurrentUser)
	// The parsed input is not mutated.
	assert.False(t, ev.Attendees[0].IsCurrentUser)
}

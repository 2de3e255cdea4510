// Package report renders the analysis engine's plain-data results for the
// terminal or as JSON. The engine exposes only data; all formatting
// decisions live here.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"calscope/internal/model"
	"calscope/internal/schedule"
)

const clock = "15:04"

// JSON renders any result value as indented JSON.
func JSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

// AgendaText renders day-bucketed events as a day-by-day listing.
func AgendaText(groups []schedule.DateGroup) string {
	var b strings.Builder
	if len(groups) == 0 {
		b.WriteString("No events.\n")
		return b.String()
	}
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s (%s)\n", g.Key, g.Date.Format("Monday, Jan 2"))
		if len(g.Events) == 0 {
			b.WriteString("  (no events)\n")
			continue
		}
		for _, ev := range g.Events {
			b.WriteString("  " + eventLine(ev) + "\n")
		}
	}
	return b.String()
}

// ConflictsText renders a conflict scan as numbered cluster listings.
func ConflictsText(res schedule.ConflictResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s between %s and %s\n",
		pluralize(res.TotalConflicts, "conflict"),
		res.From.Format("2006-01-02"), res.To.Format("2006-01-02"))

	for i, g := range res.Groups {
		fmt.Fprintf(&b, "\nConflict %d: %s %s-%s\n",
			i+1,
			g.WindowStart.Format("Monday, Jan 2"),
			g.WindowStart.Format(clock),
			g.WindowEnd.Format(clock))
		for _, ev := range g.Events {
			b.WriteString("  " + eventLine(ev) + "\n")
		}
	}
	return b.String()
}

// FreeTimeText renders a free-time scan as per-day slot listings.
func FreeTimeText(res schedule.FreeTimeResult) string {
	var b strings.Builder
	for i, day := range res.Days {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %d free minutes\n", day.Label, day.TotalFreeMinutes)
		if len(day.Slots) == 0 {
			b.WriteString("  (no free slots)\n")
			continue
		}
		for _, s := range day.Slots {
			fmt.Fprintf(&b, "  %s-%s  %d min (%s)\n",
				s.Start.Format(clock), s.End.Format(clock), s.Minutes, s.Tier)
		}
	}
	fmt.Fprintf(&b, "\nTotal: %d free minutes\n", res.TotalFreeMinutes)
	return b.String()
}

// eventLine formats one event for a listing: time span, title, calendar,
// and recurrence phrase when present.
func eventLine(ev model.CalendarEvent) string {
	span := "all day     "
	if !ev.AllDay {
		span = ev.Start.Format(clock) + "-" + ev.End.Format(clock)
	}
	line := span + "  " + title(ev)
	if ev.Calendar.Title != "" {
		line += " [" + ev.Calendar.Title + "]"
	}
	if ev.Recurrence.IsRecurring && ev.Recurrence.Phrase != "" {
		line += " (" + ev.Recurrence.Phrase + ")"
	}
	if ev.Status == model.StatusCanceled {
		line += " (canceled)"
	}
	return line
}

func title(ev model.CalendarEvent) string {
	if ev.Title == "" {
		return "(untitled)"
	}
	return ev.Title
}

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Package recurrence turns structured recurrence rules into human-readable
// phrases such as "Every 2 weeks on Monday and Friday". The describer is a
// stateless formatter; the rrule bridge maps raw RRULE values into its
// input shape.
package recurrence

import (
	"fmt"
	"strings"
	"time"
)

// Frequency represents supported recurrence frequencies.
type Frequency int

const (
	// FrequencyUnknown indicates the rule frequency is not recognized.
	FrequencyUnknown Frequency = iota
	// FrequencyDaily repeats on a cadence of days.
	FrequencyDaily
	// FrequencyWeekly repeats on a cadence of weeks.
	FrequencyWeekly
	// FrequencyMonthly repeats on a cadence of months.
	FrequencyMonthly
	// FrequencyYearly repeats on a cadence of years.
	FrequencyYearly
)

// WeekdayQualifier pairs a day of the week with an optional week-in-month
// number: Week 2 means "the 2nd such weekday of the month", -1 means the
// last one, and 0 means the weekday carries no week qualifier.
type WeekdayQualifier struct {
	Weekday time.Weekday
	Week    int
}

// RuleComponents is a purely descriptive recurrence rule: frequency, a
// positive interval, and optional day/month qualifiers. Never mutated.
type RuleComponents struct {
	Frequency    Frequency
	Interval     int
	DaysOfWeek   []WeekdayQualifier
	DaysOfMonth  []int
	MonthsOfYear []time.Month
}

// Describe renders a recurrence rule as a natural-language phrase. It is
// total: an unrecognized frequency yields the literal fallback "Repeats".
// Interval validation is the caller's concern; values below 2 all read as
// the singular base phrase.
func Describe(rule RuleComponents) string {
	switch rule.Frequency {
	case FrequencyDaily:
		return basePhrase(rule.Interval, "day", "days")
	case FrequencyWeekly:
		return describeWeekly(rule)
	case FrequencyMonthly:
		return describeMonthly(rule)
	case FrequencyYearly:
		return describeYearly(rule)
	default:
		return "Repeats"
	}
}

func describeWeekly(rule RuleComponents) string {
	base := basePhrase(rule.Interval, "week", "weeks")
	if len(rule.DaysOfWeek) == 0 {
		return base
	}

	if isWeekdaysOnly(rule.DaysOfWeek) {
		if rule.Interval <= 1 {
			return "Every weekday"
		}
		return base + " on weekdays"
	}

	names := make([]string, 0, len(rule.DaysOfWeek))
	for _, q := range rule.DaysOfWeek {
		names = append(names, q.Weekday.String())
	}
	return base + " on " + joinWithAnd(names)
}

func describeMonthly(rule RuleComponents) string {
	base := basePhrase(rule.Interval, "month", "months")

	// A week-qualified day ("the 3rd Tuesday") takes precedence; only the
	// first such qualifier is rendered.
	for _, q := range rule.DaysOfWeek {
		if q.Week != 0 {
			return fmt.Sprintf("%s on the %s %s", base, ordinalWeek(q.Week), q.Weekday)
		}
	}

	if len(rule.DaysOfMonth) > 0 {
		days := make([]string, 0, len(rule.DaysOfMonth))
		for _, d := range rule.DaysOfMonth {
			days = append(days, ordinal(d))
		}
		return base + " on the " + joinWithAnd(days)
	}

	return base
}

func describeYearly(rule RuleComponents) string {
	base := basePhrase(rule.Interval, "year", "years")
	if len(rule.MonthsOfYear) == 0 {
		return base
	}
	names := make([]string, 0, len(rule.MonthsOfYear))
	for _, m := range rule.MonthsOfYear {
		names = append(names, m.String())
	}
	return base + " in " + joinWithAnd(names)
}

func basePhrase(interval int, singular, plural string) string {
	if interval <= 1 {
		return "Every " + singular
	}
	return fmt.Sprintf("Every %d %s", interval, plural)
}

// isWeekdaysOnly reports whether the qualifiers cover exactly Monday
// through Friday, in any order, with no weekend days.
func isWeekdaysOnly(days []WeekdayQualifier) bool {
	var seen [7]bool
	for _, q := range days {
		if q.Weekday == time.Saturday || q.Weekday == time.Sunday {
			return false
		}
		seen[q.Weekday] = true
	}
	for d := time.Monday; d <= time.Friday; d++ {
		if !seen[d] {
			return false
		}
	}
	return true
}

// joinWithAnd joins items into an English list: "A", "A and B",
// "A, B, and C".
func joinWithAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}

// ordinalWeek renders a week-in-month number, where -1 means the last week.
func ordinalWeek(week int) string {
	if week == -1 {
		return "last"
	}
	return ordinal(week)
}

// ordinal renders n with its English ordinal suffix (1st, 2nd, 3rd, 4th,
// 11th, 21st, ...).
func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
		// teens always take "th"
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

package recurrence

import (
	"time"

	"github.com/teambition/rrule-go"
)

// FromRRule parses a raw RRULE value (e.g. "FREQ=WEEKLY;BYDAY=MO,WE") into
// RuleComponents for Describe.
func FromRRule(raw string) (RuleComponents, error) {
	opt, err := rrule.StrToROption(raw)
	if err != nil {
		return RuleComponents{}, err
	}
	return FromROption(opt), nil
}

// FromROption maps an rrule-go option set onto RuleComponents. Fields the
// describer does not speak about (BYSETPOS, UNTIL, COUNT, ...) are ignored.
func FromROption(opt *rrule.ROption) RuleComponents {
	out := RuleComponents{
		Interval: opt.Interval,
	}
	if out.Interval < 1 {
		out.Interval = 1
	}

	switch opt.Freq {
	case rrule.DAILY:
		out.Frequency = FrequencyDaily
	case rrule.WEEKLY:
		out.Frequency = FrequencyWeekly
	case rrule.MONTHLY:
		out.Frequency = FrequencyMonthly
	case rrule.YEARLY:
		out.Frequency = FrequencyYearly
	default:
		out.Frequency = FrequencyUnknown
	}

	for _, wd := range opt.Byweekday {
		out.DaysOfWeek = append(out.DaysOfWeek, WeekdayQualifier{
			Weekday: toTimeWeekday(wd),
			Week:    wd.N(),
		})
	}
	out.DaysOfMonth = append(out.DaysOfMonth, opt.Bymonthday...)
	for _, m := range opt.Bymonth {
		out.MonthsOfYear = append(out.MonthsOfYear, time.Month(m))
	}

	return out
}

// Phrase parses and describes a raw RRULE in one step, returning "" when
// the rule cannot be parsed. Convenient for event sources that want a
// best-effort precomputed phrase.
func Phrase(raw string) string {
	components, err := FromRRule(raw)
	if err != nil {
		return ""
	}
	return Describe(components)
}

// toTimeWeekday converts rrule-go's Monday-based weekday to time.Weekday.
func toTimeWeekday(wd rrule.Weekday) time.Weekday {
	return time.Weekday((wd.Day() + 1) % 7)
}

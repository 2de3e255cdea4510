package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRRule(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected RuleComponents
	}{
		{
			name:     "daily",
			raw:      "FREQ=DAILY",
			expected: RuleComponents{Frequency: FrequencyDaily, Interval: 1},
		},
		{
			name: "weekly by day",
			raw:  "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE",
			expected: RuleComponents{
				Frequency: FrequencyWeekly,
				Interval:  2,
				DaysOfWeek: []WeekdayQualifier{
					{Weekday: time.Monday},
					{Weekday: time.Wednesday},
				},
			},
		},
		{
			name: "monthly last friday",
			raw:  "FREQ=MONTHLY;BYDAY=-1FR",
			expected: RuleComponents{
				Frequency:  FrequencyMonthly,
				Interval:   1,
				DaysOfWeek: []WeekdayQualifier{{Weekday: time.Friday, Week: -1}},
			},
		},
		{
			name: "monthly by month day",
			raw:  "FREQ=MONTHLY;BYMONTHDAY=1,15",
			expected: RuleComponents{
				Frequency:   FrequencyMonthly,
				Interval:    1,
				DaysOfMonth: []int{1, 15},
			},
		},
		{
			name: "yearly by month",
			raw:  "FREQ=YEARLY;BYMONTH=3,9",
			expected: RuleComponents{
				Frequency:    FrequencyYearly,
				Interval:     1,
				MonthsOfYear: []time.Month{time.March, time.September},
			},
		},
		{
			name: "sunday maps onto time.Sunday",
			raw:  "FREQ=WEEKLY;BYDAY=SU",
			expected: RuleComponents{
				Frequency:  FrequencyWeekly,
				Interval:   1,
				DaysOfWeek: []WeekdayQualifier{{Weekday: time.Sunday}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromRRule(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFromRRule_Invalid(t *testing.T) {
	_, err := FromRRule("FREQ=SOMETIMES")
	assert.Error(t, err)
}

func TestPhrase(t *testing.T) {
	assert.Equal(t, "Every week on Monday and Wednesday", Phrase("FREQ=WEEKLY;BYDAY=MO,WE"))
	assert.Equal(t, "Every month on the last Friday", Phrase("FREQ=MONTHLY;BYDAY=-1FR"))
	assert.Equal(t, "", Phrase("not an rrule"))
}

package ics

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	appLog "calscope/internal/log"
	"calscope/internal/model"
	"calscope/internal/recurrence"
)

const defaultMaxOccurrencesPerEvent = 5000

// instanceNamespace seeds deterministic per-occurrence UUIDs so the same
// feed expanded twice yields the same event IDs.
var instanceNamespace = uuid.MustParse("5f9d2c5a-26f1-4cbf-9a2c-01c2d9a1e7b4")

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation is the timezone all occurrences are converted to.
	// If nil, time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the inclusive time window for occurrences.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent is a safety cap to avoid extremely large
	// expansions. If zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int

	// CurrentUserEmails identifies the current user among attendees.
	CurrentUserEmails []string
}

// ExpandResult wraps the expanded events plus truncation information.
type ExpandResult struct {
	Events []model.CalendarEvent
	// TruncatedEvents records UIDs that hit the MaxOccurrencesPerEvent cap.
	TruncatedEvents []string
}

// ExpandOccurrences turns parsed VEVENTs into concrete model.CalendarEvent
// instances within the given time range. It handles:
//
//   - Single non-recurring events
//   - RRULE-based recurrence (DAILY/WEEKLY/MONTHLY/YEARLY, etc.)
//   - EXDATE for exception removal
//   - RECURRENCE-ID overrides
//   - All-day semantics
//
// Recurring events get a precomputed recurrence phrase from the RRULE. All
// resulting events are converted into the configured display timezone.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	// Group base events and overrides by UID.
	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)

	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
		} else {
			baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
		}
	}

	all := make([]model.CalendarEvent, 0)

	for uid, baseEvents := range baseByUID {
		ov := overridesByUID[uid]
		truncated := false

		for _, ev := range baseEvents {
			occ, hitCap := expandEvent(ev, ov, cfg)
			if hitCap {
				truncated = true
			}
			all = append(all, occ...)
		}

		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, uid)
			appLog.Warn("expand: truncated occurrences for UID due to cap",
				"uid", uid,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	result.Events = all
	return result, nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.CalendarEvent, bool) {
	if ev.RawRRule == "" {
		return expandSingleEvent(ev, overrides, cfg), false
	}
	return expandRecurringEvent(ev, overrides, cfg)
}

func expandSingleEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.CalendarEvent {
	if !timeRangesOverlap(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
		return nil
	}

	baseStart := ev.Start
	baseEnd := ev.End
	if o, ok := findOverrideForStart(overrides, baseStart); ok {
		baseStart = o.Start
		baseEnd = o.End
		ev = o
	}

	return []model.CalendarEvent{makeEvent(ev, baseStart, baseEnd, false, cfg)}
}

func expandRecurringEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.CalendarEvent, bool) {
	out := make([]model.CalendarEvent, 0)
	hitCap := false

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return out, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	rangeStart := cfg.RangeStart.In(ev.Start.Location())
	rangeEnd := cfg.RangeEnd.In(ev.Start.Location())

	occTimes := set.Between(rangeStart, rangeEnd, true)
	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	for _, occStart := range occTimes {
		var occEnd time.Time
		if ev.AllDay {
			// All-day: [date 00:00, next day 00:00) in the event's timezone.
			date := time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, occStart.Location())
			occStart = date
			occEnd = date.Add(24 * time.Hour)
		} else {
			occEnd = occStart.Add(ev.End.Sub(ev.Start))
		}

		baseStart := occStart
		baseEnd := occEnd
		baseEv := ev
		if o, ok := findOverrideForStart(overrides, occStart); ok {
			baseStart = o.Start
			baseEnd = o.End
			baseEv = o
		}

		out = append(out, makeEvent(baseEv, baseStart, baseEnd, true, cfg))
	}

	return out, hitCap
}

// findOverrideForStart finds an override event whose RECURRENCE-ID matches
// the given start with exact time equality.
func findOverrideForStart(overrides []ParsedEvent, baseStart time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence == nil {
			continue
		}
		if ov.Recurrence.In(baseStart.Location()).Equal(baseStart) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

// makeEvent converts a (possibly overridden) ParsedEvent plus one concrete
// start/end into a model.CalendarEvent normalized into the display timezone.
func makeEvent(ev ParsedEvent, start, end time.Time, recurring bool, cfg ExpandConfig) model.CalendarEvent {
	startLocal := start.In(cfg.DisplayLocation)
	endLocal := end.In(cfg.DisplayLocation)

	out := model.CalendarEvent{
		ID:       instanceID(ev.UID, startLocal),
		Title:    ev.Summary,
		Location: ev.Location,
		Notes:    ev.Description,
		URL:      ev.URL,
		Start:    startLocal,
		End:      endLocal,
		AllDay:   ev.AllDay,
		Calendar: model.Calendar{
			ID:     ev.Source.ID,
			Title:  ev.Source.Name,
			Color:  ev.Source.Color,
			Type:   "subscription",
			Source: redactURL(ev.Source.URL),
		},
		Attendees:    markCurrentUser(ev.Attendees, cfg.CurrentUserEmails),
		Organizer:    ev.Organizer,
		Status:       ev.Status,
		Availability: ev.Availability,
		TimeZone:     ev.StartTZ,
	}

	if recurring || ev.RawRRule != "" {
		out.Recurrence = model.Recurrence{
			IsRecurring: true,
			Phrase:      recurrence.Phrase(ev.RawRRule),
		}
	}

	return out
}

// instanceID derives a stable per-occurrence ID from the UID and local
// start time.
func instanceID(uid string, start time.Time) string {
	return uuid.NewSHA1(instanceNamespace, []byte(uid+"/"+start.Format(time.RFC3339))).String()
}

// markCurrentUser flags attendees whose email matches one of the configured
// current-user addresses.
func markCurrentUser(attendees []model.Attendee, emails []string) []model.Attendee {
	if len(attendees) == 0 || len(emails) == 0 {
		return attendees
	}
	out := make([]model.Attendee, len(attendees))
	copy(out, attendees)
	for i := range out {
		for _, email := range emails {
			if strings.EqualFold(out[i].Email, email) {
				out[i].IsCurrentUser = true
				break
			}
		}
	}
	return out
}

func timeRangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aEnd.Before(bStart) {
		return false
	}
	if bEnd.Before(aStart) {
		return false
	}
	return true
}

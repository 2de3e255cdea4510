package ics

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "calscope/internal/log"
	"calscope/internal/model"
)

// ParsedEvent is the normalized representation of a VEVENT as produced by
// the parser. Recurrence expansion operates on this type and turns it into
// model.CalendarEvent instances.
type ParsedEvent struct {
	Source Source

	UID string
	Seq int

	Summary     string
	Description string
	Location    string
	URL         string

	Start   time.Time
	End     time.Time
	AllDay  bool
	StartTZ string

	Status       model.EventStatus
	Availability model.Availability
	Attendees    []model.Attendee
	Organizer    *model.Attendee

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID (if present) in event's own timezone
	IsOverride bool       // true if this VEVENT overrides a recurring instance
}

// ParseICS parses a single ICS payload into a list of ParsedEvent.
//
//   - It relies on the underlying library's VTIMEZONE/TZID handling to
//     construct proper time.Time values (with Location set).
//   - It detects all-day events by inspecting the DTSTART value format.
//   - It records RRULE/EXDATE/RECURRENCE-ID but does not expand recurrences;
//     expansion is done in expand.go.
func ParseICS(src Source, body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, err
	}

	events := make([]ParsedEvent, 0)

	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(src, comp)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent parse failed", perr, "id", src.ID, "url", redactURL(src.URL))
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "id", src.ID, "url", redactURL(src.URL), "event_count", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent
	out.Source = src

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if seqProp := ve.GetProperty(ical.ComponentPropertySequence); seqProp != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(seqProp.Value)); err == nil {
			out.Seq = n
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}
	if p := ve.GetProperty("URL"); p != nil {
		out.URL = p.Value
	}

	// Detect all-day: DTSTART carries VALUE=DATE or a date-only value.
	if dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart); dtStartProp != nil {
		if params := dtStartProp.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				out.AllDay = true
			}
			if tzs, ok := params["TZID"]; ok && len(tzs) > 0 {
				out.StartTZ = tzs[0]
			}
		}
		if !strings.Contains(dtStartProp.Value, "T") {
			out.AllDay = true
		}
	}

	// DTSTART / DTEND. The library's helpers carry timezone logic; all-day
	// values need the date-only accessors.
	if out.AllDay {
		out.Start, _ = ve.GetAllDayStartAt()
		out.End, _ = ve.GetAllDayEndAt()
		if !out.End.After(out.Start) {
			// DTEND is optional for all-day events; default to one day.
			out.End = out.Start.Add(24 * time.Hour)
		}
	} else {
		out.Start, _ = ve.GetStartAt()
		out.End, _ = ve.GetEndAt()
	}

	out.Status = parseStatus(ve)
	out.Availability = parseTransparency(ve)
	out.Attendees = parseAttendees(ve)
	out.Organizer = parseOrganizer(ve)

	// RRULE (raw string only; expansion happens in expand.go).
	if rruleProp := ve.GetProperty(ical.ComponentPropertyRrule); rruleProp != nil {
		out.RawRRule = rruleProp.Value
	}

	// EXDATE (can appear multiple times, comma-separated values).
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	// RECURRENCE-ID (overridden instance).
	if ridProp := ve.GetProperty("RECURRENCE-ID"); ridProp != nil {
		if t, err := parseICSTime(ridProp.Value); err == nil {
			out.Recurrence = &t
			out.IsOverride = true
		}
	}

	return out, nil
}

// parseStatus maps the VEVENT STATUS property onto the lifecycle enum.
func parseStatus(ve *ical.VEvent) model.EventStatus {
	p := ve.GetProperty("STATUS")
	if p == nil {
		return model.StatusNone
	}
	switch strings.ToUpper(strings.TrimSpace(p.Value)) {
	case "CONFIRMED":
		return model.StatusConfirmed
	case "TENTATIVE":
		return model.StatusTentative
	case "CANCELLED":
		return model.StatusCanceled
	default:
		return model.StatusNone
	}
}

// parseTransparency maps TRANSP onto availability: a TRANSPARENT event does
// not block time ("show as free"); everything else counts as busy.
func parseTransparency(ve *ical.VEvent) model.Availability {
	p := ve.GetProperty("TRANSP")
	if p != nil && strings.EqualFold(strings.TrimSpace(p.Value), "TRANSPARENT") {
		return model.AvailabilityFree
	}
	return model.AvailabilityBusy
}

func parseAttendees(ve *ical.VEvent) []model.Attendee {
	props := ve.GetProperties(ical.ComponentPropertyAttendee)
	if len(props) == 0 {
		return nil
	}
	out := make([]model.Attendee, 0, len(props))
	for _, p := range props {
		out = append(out, attendeeFromProperty(p))
	}
	return out
}

func parseOrganizer(ve *ical.VEvent) *model.Attendee {
	p := ve.GetProperty(ical.ComponentPropertyOrganizer)
	if p == nil {
		return nil
	}
	a := attendeeFromProperty(p)
	return &a
}

func attendeeFromProperty(p *ical.IANAProperty) model.Attendee {
	a := model.Attendee{
		Email:  strings.TrimPrefix(strings.TrimSpace(p.Value), "mailto:"),
		Status: model.ResponseUnknown,
		Role:   model.RoleRequired,
	}
	params := p.ICalParameters
	if params == nil {
		return a
	}
	if cn, ok := params["CN"]; ok && len(cn) > 0 {
		a.Name = cn[0]
	}
	if ps, ok := params["PARTSTAT"]; ok && len(ps) > 0 {
		switch strings.ToUpper(ps[0]) {
		case "NEEDS-ACTION":
			a.Status = model.ResponsePending
		case "ACCEPTED":
			a.Status = model.ResponseAccepted
		case "DECLINED":
			a.Status = model.ResponseDeclined
		case "TENTATIVE":
			a.Status = model.ResponseTentative
		}
	}
	if roles, ok := params["ROLE"]; ok && len(roles) > 0 {
		switch strings.ToUpper(roles[0]) {
		case "OPT-PARTICIPANT":
			a.Role = model.RoleOptional
		case "CHAIR":
			a.Role = model.RoleChair
		case "NON-PARTICIPANT":
			a.Role = model.RoleNonParticipant
		}
	}
	return a
}

// parseICSTime parses a basic ICS date/date-time string into time.Time.
// A simplified helper for EXDATE/RECURRENCE-ID where full parameter context
// is not available; expansion handles tz normalization later.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		const layout = "20060102T150405Z"
		return time.Parse(layout, v)
	}

	// Local date-time, e.g., 20250101T090000
	if strings.Contains(v, "T") {
		const layout = "20060102T150405"
		return time.ParseInLocation(layout, v, time.Local)
	}

	// Date-only (all-day), e.g., 20250101
	const layoutDate = "20060102"
	return time.ParseInLocation(layoutDate, v, time.Local)
}

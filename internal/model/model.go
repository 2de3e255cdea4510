package model

import "time"

// EventStatus is the lifecycle status of an event as reported by its source.
type EventStatus string

const (
	StatusNone      EventStatus = "none"
	StatusConfirmed EventStatus = "confirmed"
	StatusTentative EventStatus = "tentative"
	StatusCanceled  EventStatus = "canceled"
)

// Availability describes how an event's time counts against its owner
// ("show as" in most calendar UIs).
type Availability string

const (
	AvailabilityFree          Availability = "free"
	AvailabilityBusy          Availability = "busy"
	AvailabilityTentative     Availability = "tentative"
	AvailabilityUnavailable   Availability = "unavailable"
	AvailabilityNotApplicable Availability = "notApplicable"
)

// ResponseStatus is an attendee's reply to an invitation.
type ResponseStatus string

const (
	ResponseUnknown   ResponseStatus = "unknown"
	ResponsePending   ResponseStatus = "pending"
	ResponseAccepted  ResponseStatus = "accepted"
	ResponseDeclined  ResponseStatus = "declined"
	ResponseTentative ResponseStatus = "tentative"
)

// AttendeeRole distinguishes required from optional participants.
type AttendeeRole string

const (
	RoleRequired       AttendeeRole = "required"
	RoleOptional       AttendeeRole = "optional"
	RoleChair          AttendeeRole = "chair"
	RoleNonParticipant AttendeeRole = "nonParticipant"
)

// Calendar identifies the calendar an event belongs to.
type Calendar struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Color  string `json:"color,omitempty"`
	Type   string `json:"type,omitempty"`
	Source string `json:"source,omitempty"`
}

// Attendee is a single participant on an event.
type Attendee struct {
	Name          string         `json:"name,omitempty"`
	Email         string         `json:"email,omitempty"`
	Status        ResponseStatus `json:"status"`
	Role          AttendeeRole   `json:"role"`
	IsCurrentUser bool           `json:"is_current_user"`
}

// Recurrence carries what the analysis layer needs to know about a recurring
// event: that it recurs, and optionally a precomputed human-readable phrase
// such as "Every week on Monday and Wednesday".
type Recurrence struct {
	IsRecurring bool   `json:"is_recurring"`
	Phrase      string `json:"phrase,omitempty"`
}

// CalendarEvent is the fully resolved event record the analysis engine
// operates on. It is provider-agnostic: the ics package (or any other event
// source) is responsible for mapping native records into this shape.
//
// Start/End are in the caller's display timezone. For all-day events the
// stored End is exclusive: midnight of the day after the last included day.
// The engine assumes Start <= End but does not enforce it; malformed
// intervals degrade to zero-width behavior rather than errors.
type CalendarEvent struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Location string `json:"location,omitempty"`
	Notes    string `json:"notes,omitempty"`
	URL      string `json:"url,omitempty"`

	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	AllDay bool      `json:"all_day"`

	Calendar  Calendar   `json:"calendar"`
	Attendees []Attendee `json:"attendees,omitempty"`
	Organizer *Attendee  `json:"organizer,omitempty"`

	Recurrence   Recurrence   `json:"recurrence"`
	Status       EventStatus  `json:"status"`
	Availability Availability `json:"availability"`

	// TimeZone is the IANA identifier of the event's own timezone, when the
	// source reported one. Informational; Start/End are already normalized.
	TimeZone string `json:"timezone,omitempty"`
}

// Duration returns the event length. Negative for malformed records.
func (e CalendarEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Overlaps reports whether the event's half-open range [Start, End)
// intersects [from, to).
func (e CalendarEvent) Overlaps(from, to time.Time) bool {
	return e.Start.Before(to) && e.End.After(from)
}

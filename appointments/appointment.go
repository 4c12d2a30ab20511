package appointments

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further status change is accepted from s.
func (s Status) Terminal() bool {
	return s == StatusCancelled
}

// ErrTerminalStatus is returned by ValidateTransition when the current status
// is terminal.
var ErrTerminalStatus = errors.New("appointment status is terminal")

// ErrUnknownStatus is returned by ValidateTransition for a target status
// outside the known set.
var ErrUnknownStatus = errors.New("unknown appointment status")

// ValidateTransition checks a status change from one state to another. Every
// transition between known states is allowed except out of CANCELLED; the
// backend enforces anything stricter.
func ValidateTransition(from, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if from.Terminal() {
		return fmt.Errorf("%w: cannot change %s to %s", ErrTerminalStatus, from, to)
	}
	return nil
}

// CanTransition is the boolean form of ValidateTransition.
func CanTransition(from, to Status) bool {
	return ValidateTransition(from, to) == nil
}

// Type is the kind of visit.
type Type string

const (
	TypeConsultation Type = "Consultation"
	TypeFollowUp     Type = "Follow-up"
	TypeCheckUp      Type = "Check-up"
	TypeEmergency    Type = "Emergency"
)

// Mode is how the visit takes place.
type Mode string

const (
	ModeOnline   Mode = "Online"
	ModeInPerson Mode = "In-Person"
)

// Appointment is the backend's appointment record. ID, PatientID and
// DoctorID never change after creation; Date and Duration change only through
// Client.Reschedule.
type Appointment struct {
	ID        string    `json:"id,omitempty"`
	PatientID string    `json:"patientId"`
	DoctorID  string    `json:"doctorId"`
	Date      time.Time `json:"appointmentDate"`
	Duration  int       `json:"duration"` // minutes
	Location  string    `json:"location,omitempty"`
	Type      Type      `json:"appointmentType,omitempty"`
	Mode      Mode      `json:"mode,omitempty"`
	Status    Status    `json:"status,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Update is the body of an update call. It carries only the fields an update
// may change; owners, date and duration are fixed or go through Reschedule,
// and status goes through Cancel or ChangeStatus. Empty fields are not sent.
type Update struct {
	Location string `json:"location,omitempty"`
	Type     Type   `json:"appointmentType,omitempty"`
	Mode     Mode   `json:"mode,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Reschedule is the body of a reschedule call.
type Reschedule struct {
	Date     time.Time `json:"date"`
	Duration int       `json:"duration"`
}

// Paging selects a page of the full collection. Zero fields are left to the
// backend's defaults.
type Paging struct {
	Page  int
	Limit int
}

// Window selects a slice of a doctor's or patient's appointments. Zero fields
// are left to the backend's defaults.
type Window struct {
	Limit  int
	Offset int
}

// List is a decoded list response. The backend answers list calls with either
// a bare JSON array or an object wrapping the array in "appointments"; both
// decode into List. Paging fields are zero when the backend did not send
// them.
type List struct {
	Appointments []Appointment `json:"appointments"`
	Page         int           `json:"page,omitempty"`
	Limit        int           `json:"limit,omitempty"`
	Offset       int           `json:"offset,omitempty"`
	Total        int           `json:"total,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *List) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var items []Appointment
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*l = List{Appointments: items}
		return nil
	}

	type plain List
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*l = List(p)
	if l.Appointments == nil {
		l.Appointments = []Appointment{}
	}
	return nil
}

// Result is a decoded mutation response. The backend replies with a bare
// appointment, an {"appointment": ...} wrapper, a {"message": ...} body, or
// a message alongside the appointment.
type Result struct {
	Message     string       `json:"message,omitempty"`
	Appointment *Appointment `json:"appointment,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Result) UnmarshalJSON(b []byte) error {
	var w struct {
		Message     string       `json:"message"`
		Appointment *Appointment `json:"appointment"`
		ID          string       `json:"id"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	*r = Result{Message: w.Message, Appointment: w.Appointment}
	if r.Appointment == nil && w.ID != "" {
		var a Appointment
		if err := json.Unmarshal(b, &a); err != nil {
			return err
		}
		r.Appointment = &a
	}
	return nil
}

// Package directory resolves the people an alert can reach: the patient,
// the provider on the encounter, and on-duty nurses. Lookups return
// nil, nil when no record exists so callers branch on presence, not on
// errors.
package directory

import (
	"github.com/google/uuid"
)

// Contact carries the reachable addresses for one person, populated once
// at resolution time. A nil field means that channel has no address.
type Contact struct {
	Email    *string
	Phone    *string
	WhatsApp *string
}

// HasAny reports whether at least one channel has an address.
func (c Contact) HasAny() bool {
	return c.Email != nil || c.Phone != nil || c.WhatsApp != nil
}

// Patient is the alert subject and first-stage recipient.
type Patient struct {
	ID       uuid.UUID  `json:"id"`
	UserID   *uuid.UUID `json:"user_id,omitempty"`
	FullName string     `json:"full_name"`
	Email    string     `json:"email,omitempty"`
	Phone    string     `json:"phone,omitempty"`
}

// Provider is the doctor tied to an encounter.
type Provider struct {
	ID         uuid.UUID  `json:"id"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	FullName   string     `json:"full_name"`
	Email      string     `json:"email,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	FacilityID uuid.UUID  `json:"facility_id"`
}

// Nurse is an on-duty nurse at a facility.
type Nurse struct {
	ID         uuid.UUID  `json:"id"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	FullName   string     `json:"full_name"`
	Email      string     `json:"email,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	FacilityID uuid.UUID  `json:"facility_id"`
	Active     bool       `json:"active"`
}

// Encounter ties a reading to its patient, provider and facility.
type Encounter struct {
	ID         uuid.UUID  `json:"id"`
	PatientID  uuid.UUID  `json:"patient_id"`
	ProviderID *uuid.UUID `json:"provider_id,omitempty"`
	FacilityID uuid.UUID  `json:"facility_id"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Contact builds the patient's reachable addresses. The phone doubles as
// the WhatsApp address unless preferences override it upstream.
func (p Patient) Contact() Contact {
	return Contact{
		Email:    optional(p.Email),
		Phone:    optional(p.Phone),
		WhatsApp: optional(p.Phone),
	}
}

func (p Provider) Contact() Contact {
	return Contact{
		Email:    optional(p.Email),
		Phone:    optional(p.Phone),
		WhatsApp: optional(p.Phone),
	}
}

func (n Nurse) Contact() Contact {
	return Contact{
		Email:    optional(n.Email),
		Phone:    optional(n.Phone),
		WhatsApp: optional(n.Phone),
	}
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Role marks a capability a person holds. A person can hold any
// combination of roles at once; each role is backed by its own table
// keyed by the person id.
type Role string

const (
	RoleStaff     Role = "staff"
	RoleStudent   Role = "student"
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStaff, RoleStudent, RoleAdmin, RoleDeveloper:
		return true
	}
	return false
}

type Person struct {
	ID                uuid.UUID
	FirstName         string
	PrefName          *string
	Surname           string
	Email             string
	HashedPassword    *string
	PasswordIsDefault bool
	AccessToken       *string
	Roles             []Role

	// Student is set when Roles contains RoleStudent.
	Student *StudentDetail
}

// StudentDetail carries the student-specific attributes resolved on read:
// the tutor group, the house derived through it, and the events the
// student is participating in.
type StudentDetail struct {
	TutorGroupID uuid.UUID
	HouseID      int32
	EventIDs     []uuid.UUID
}

// DisplayName is the preferred name when one is set, otherwise the
// first name, followed by the surname.
func (p Person) DisplayName() string {
	first := p.FirstName
	if p.PrefName != nil && *p.PrefName != "" {
		first = *p.PrefName
	}
	return first + " " + p.Surname
}

func (p Person) HasRole(role Role) bool {
	for _, held := range p.Roles {
		if held == role {
			return true
		}
	}
	return false
}

type House struct {
	ID   int32
	Name string
}

type TutorGroup struct {
	ID      uuid.UUID
	StaffID uuid.UUID
	HouseID int32
}

type Event struct {
	ID           uuid.UUID
	Name         string
	Date         time.Time
	Timezone     string
	Location     *string
	ExtraInfo    *string
	OwnerStaffID *uuid.UUID

	// SignedUp and Verified hold the ids of participating students,
	// split by verification state.
	SignedUp []uuid.UUID
	Verified []uuid.UUID
}

// Zoned resolves the stored wall-clock date in the event's timezone.
// Falls back to UTC when the stored zone name is unknown.
func (e Event) Zoned() time.Time {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return e.Date.In(loc)
}

type Participation struct {
	EventID    uuid.UUID
	StudentID  uuid.UUID
	IsVerified bool
}

// ParticipationState describes a student's relationship to an event.
type ParticipationState int

const (
	ParticipationNone ParticipationState = iota
	ParticipationSignedUp
	ParticipationVerified
)

// Session is an opaque server-side web session: a generated token id,
// a serialized payload owned by the caller, and an expiry after which
// readers must treat the record as absent.
type Session struct {
	ID         string
	Data       []byte
	ExpiryDate time.Time
}

package model

import (
	"testing"
	"time"
)

func TestDisplayNamePrefersPrefName(t *testing.T) {
	pref := "Sam"
	person := Person{FirstName: "Samuel", PrefName: &pref, Surname: "Vimes"}
	if got := person.DisplayName(); got != "Sam Vimes" {
		t.Fatalf("expected preferred name to win, got %q", got)
	}

	person.PrefName = nil
	if got := person.DisplayName(); got != "Samuel Vimes" {
		t.Fatalf("expected first name fallback, got %q", got)
	}

	empty := ""
	person.PrefName = &empty
	if got := person.DisplayName(); got != "Samuel Vimes" {
		t.Fatalf("expected empty preferred name to be ignored, got %q", got)
	}
}

func TestHasRole(t *testing.T) {
	person := Person{Roles: []Role{RoleStaff, RoleDeveloper}}
	if !person.HasRole(RoleStaff) || !person.HasRole(RoleDeveloper) {
		t.Fatalf("expected held roles to be reported")
	}
	if person.HasRole(RoleStudent) {
		t.Fatalf("expected student role to be absent")
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range []Role{RoleStaff, RoleStudent, RoleAdmin, RoleDeveloper} {
		if !role.Valid() {
			t.Fatalf("expected %s to be valid", role)
		}
	}
	if Role("headmaster").Valid() {
		t.Fatalf("expected unknown role to be invalid")
	}
}

func TestEventZoned(t *testing.T) {
	date := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	event := Event{Date: date, Timezone: "Europe/London"}
	zoned := event.Zoned()
	if !zoned.Equal(date) {
		t.Fatalf("zone conversion must not move the instant")
	}
	if zoned.Location().String() != "Europe/London" {
		t.Fatalf("expected Europe/London, got %s", zoned.Location())
	}

	event.Timezone = "Not/AZone"
	if event.Zoned().Location() != time.UTC {
		t.Fatalf("expected UTC fallback for unknown zone")
	}
}

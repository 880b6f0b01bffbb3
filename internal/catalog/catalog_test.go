package catalog

import (
	"testing"
	"time"
)

func TestAuthorDisplayName(t *testing.T) {
	cases := []struct {
		first, last string
		want        string
	}{
		{"Ursula", "Le Guin", "Le Guin, Ursula"},
		{"", "Homer", "Homer"},
		{"Prince", "", "Prince"},
		{"", "", ""},
	}
	for _, tc := range cases {
		a := Author{FirstName: tc.first, LastName: tc.last}
		if got := a.DisplayName(); got != tc.want {
			t.Fatalf("DisplayName(%q, %q) = %q, want %q", tc.first, tc.last, got, tc.want)
		}
	}
}

func TestCopyStatusDisplay(t *testing.T) {
	labels := map[CopyStatus]string{
		StatusMaintenance: "Maintenance",
		StatusOnLoan:      "On loan",
		StatusAvailable:   "Available",
		StatusReserved:    "Reserved",
	}
	for status, want := range labels {
		if !status.Valid() {
			t.Fatalf("status %q should be valid", status)
		}
		if got := status.Display(); got != want {
			t.Fatalf("Display(%q) = %q, want %q", status, got, want)
		}
	}

	if CopyStatus("x").Valid() {
		t.Fatalf("unknown status should be invalid")
	}
	if got := CopyStatus("x").Display(); got != "x" {
		t.Fatalf("unknown status should display its code, got %q", got)
	}
	if len(CopyStatuses()) != 4 {
		t.Fatalf("expected 4 statuses, got %d", len(CopyStatuses()))
	}
}

func TestCopyOverdue(t *testing.T) {
	today := time.Date(2026, time.August, 25, 15, 30, 0, 0, time.UTC)

	yesterday := time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC)
	cp := Copy{DueBack: &yesterday}
	if !cp.Overdue(today) {
		t.Fatalf("copy due yesterday should be overdue")
	}

	// Due today means not overdue until tomorrow.
	midnight := time.Date(2026, time.August, 25, 0, 0, 0, 0, time.UTC)
	cp = Copy{DueBack: &midnight}
	if cp.Overdue(today) {
		t.Fatalf("copy due today should not be overdue")
	}

	tomorrow := time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC)
	cp = Copy{DueBack: &tomorrow}
	if cp.Overdue(today) {
		t.Fatalf("copy due tomorrow should not be overdue")
	}

	if (Copy{}).Overdue(today) {
		t.Fatalf("copy without a due date cannot be overdue")
	}
}

func TestUserHasPermission(t *testing.T) {
	u := User{Permissions: []string{PermRenew, PermViewAllLoans}}
	if !u.HasPermission(PermRenew) {
		t.Fatalf("expected renew permission")
	}
	if u.HasPermission(PermMarkReturned) {
		t.Fatalf("unexpected mark-returned permission")
	}
	if (User{}).HasPermission(PermRenew) {
		t.Fatalf("user without grants should have no permissions")
	}
}

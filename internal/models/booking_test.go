package models

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to BookingStatus }{
		{StatusRequested, StatusConfirmed},
		{StatusConfirmed, StatusInProgress},
		{StatusConfirmed, StatusCompleted},
		{StatusInProgress, StatusCompleted},
		{StatusRequested, StatusCancelled},
		{StatusConfirmed, StatusCancelled},
		{StatusInProgress, StatusCancelled},
		{StatusRequested, StatusDisputed},
		{StatusConfirmed, StatusDisputed},
		{StatusInProgress, StatusDisputed},
	}
	for _, edge := range allowed {
		if !CanTransition(edge.from, edge.to) {
			t.Errorf("%s -> %s must be permitted", edge.from, edge.to)
		}
	}

	forbidden := []struct{ from, to BookingStatus }{
		{StatusRequested, StatusCompleted},
		{StatusRequested, StatusInProgress},
		{StatusInProgress, StatusConfirmed},
		{StatusCompleted, StatusInProgress},
		{StatusCompleted, StatusCancelled},
		{StatusCancelled, StatusConfirmed},
		{StatusDisputed, StatusCompleted},
		{StatusConfirmed, StatusRequested},
	}
	for _, edge := range forbidden {
		if CanTransition(edge.from, edge.to) {
			t.Errorf("%s -> %s must be rejected", edge.from, edge.to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, status := range []BookingStatus{StatusCompleted, StatusCancelled, StatusDisputed} {
		if !IsTerminal(status) {
			t.Errorf("%s must be terminal", status)
		}
	}
	for _, status := range []BookingStatus{StatusRequested, StatusConfirmed, StatusInProgress} {
		if IsTerminal(status) {
			t.Errorf("%s must not be terminal", status)
		}
	}
}

func TestBookingValidate(t *testing.T) {
	valid := Booking{ClientID: "c1", ProviderID: "p1", JobID: "j1", Amount: 50}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid booking rejected: %v", err)
	}

	invalid := Booking{ClientID: "c1", ProviderID: "c1", JobID: "j1", Amount: -1}
	if err := invalid.Validate(); err == nil {
		t.Error("invalid booking accepted")
	}
}

func TestBookingParties(t *testing.T) {
	b := Booking{ClientID: "c1", ProviderID: "p1"}

	if b.RoleOf("c1") != RoleClient || b.RoleOf("p1") != RoleProvider || b.RoleOf("x") != "" {
		t.Error("RoleOf mismatch")
	}
	if b.OtherParty("c1") != "p1" || b.OtherParty("p1") != "c1" || b.OtherParty("x") != "" {
		t.Error("OtherParty mismatch")
	}
	if !b.IsParty("c1") || !b.IsParty("p1") || b.IsParty("x") {
		t.Error("IsParty mismatch")
	}
}

package services

import (
	"booking-app/internal/models"
	"context"
	"errors"
	"testing"
)

func newBookingServiceFixture() (*fakeBookingRepo, *fakeEvents, BookingService) {
	bookings := newFakeBookingRepo()
	events := newFakeEvents()
	svc := NewBookingService(bookings, newTestRedis(), events)
	return bookings, events, svc
}

func TestCreateBooking(t *testing.T) {
	_, _, svc := newBookingServiceFixture()

	booking := &models.Booking{ClientID: "client-1", ProviderID: "provider-1", JobID: "job-1", Amount: 150.50}
	if err := svc.CreateBooking(context.Background(), booking); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if booking.Status != models.StatusConfirmed {
		t.Errorf("status = %s, want confirmed", booking.Status)
	}
}

func TestCreateBooking_Validation(t *testing.T) {
	_, _, svc := newBookingServiceFixture()

	cases := []struct {
		name    string
		booking models.Booking
	}{
		{"zero amount", models.Booking{ClientID: "c", ProviderID: "p", JobID: "j", Amount: 0}},
		{"negative amount", models.Booking{ClientID: "c", ProviderID: "p", JobID: "j", Amount: -5}},
		{"missing client", models.Booking{ProviderID: "p", JobID: "j", Amount: 10}},
		{"missing provider", models.Booking{ClientID: "c", JobID: "j", Amount: 10}},
		{"self-booking", models.Booking{ClientID: "c", ProviderID: "c", JobID: "j", Amount: 10}},
	}
	for _, tc := range cases {
		var validationErr *models.ValidationError
		b := tc.booking
		if err := svc.CreateBooking(context.Background(), &b); !errors.As(err, &validationErr) {
			t.Errorf("%s: err = %v, want validation error", tc.name, err)
		}
	}
}

func TestTransition_RejectsIllegalEdges(t *testing.T) {
	bookings, _, svc := newBookingServiceFixture()

	booking := &models.Booking{ClientID: "client-1", ProviderID: "provider-1", JobID: "job-1", Amount: 100}
	if err := svc.CreateBooking(context.Background(), booking); err != nil {
		t.Fatal(err)
	}
	bookings.bookings[booking.ID].Status = models.StatusCompleted

	// Terminal statuses never regress.
	for _, target := range []models.BookingStatus{models.StatusConfirmed, models.StatusInProgress, models.StatusCancelled} {
		err := svc.Transition(context.Background(), booking.ID, []models.BookingStatus{models.StatusCompleted}, target)
		if !errors.Is(err, models.ErrStateConflict) {
			t.Errorf("completed -> %s: err = %v, want state conflict", target, err)
		}
	}
}

func TestTransition_CASMiss(t *testing.T) {
	bookings, _, svc := newBookingServiceFixture()

	booking := &models.Booking{ClientID: "client-1", ProviderID: "provider-1", JobID: "job-1", Amount: 100}
	if err := svc.CreateBooking(context.Background(), booking); err != nil {
		t.Fatal(err)
	}
	bookings.bookings[booking.ID].Status = models.StatusCancelled

	// Legal edge, but the booking moved on: the swap must not apply.
	err := svc.Transition(context.Background(), booking.ID, []models.BookingStatus{models.StatusConfirmed}, models.StatusInProgress)
	if !errors.Is(err, models.ErrStateConflict) {
		t.Errorf("err = %v, want state conflict on CAS miss", err)
	}
	current, _ := bookings.GetByID(context.Background(), booking.ID)
	if current.Status != models.StatusCancelled {
		t.Errorf("status mutated to %s on a failed swap", current.Status)
	}
}

func TestStartWork(t *testing.T) {
	bookings, _, svc := newBookingServiceFixture()

	booking := &models.Booking{ClientID: "client-1", ProviderID: "provider-1", JobID: "job-1", Amount: 100}
	if err := svc.CreateBooking(context.Background(), booking); err != nil {
		t.Fatal(err)
	}

	if err := svc.StartWork(context.Background(), booking.ID, "client-1"); !errors.Is(err, models.ErrPermission) {
		t.Errorf("client starting work: err = %v, want permission error", err)
	}
	if err := svc.StartWork(context.Background(), booking.ID, "provider-1"); err != nil {
		t.Fatalf("StartWork: %v", err)
	}
	current, _ := bookings.GetByID(context.Background(), booking.ID)
	if current.Status != models.StatusInProgress {
		t.Errorf("status = %s, want in_progress", current.Status)
	}
}

func TestCancelAndDispute(t *testing.T) {
	bookings, events, svc := newBookingServiceFixture()

	booking := &models.Booking{ClientID: "client-1", ProviderID: "provider-1", JobID: "job-1", Amount: 100}
	if err := svc.CreateBooking(context.Background(), booking); err != nil {
		t.Fatal(err)
	}
	if err := svc.Cancel(context.Background(), booking.ID, "stranger"); !errors.Is(err, models.ErrPermission) {
		t.Errorf("stranger cancel: err = %v, want permission error", err)
	}
	if err := svc.Cancel(context.Background(), booking.ID, "client-1"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	current, _ := bookings.GetByID(context.Background(), booking.ID)
	if current.Status != models.StatusCancelled {
		t.Errorf("status = %s, want cancelled", current.Status)
	}
	if got := events.countByType("BOOKING_CANCELLED"); got != 1 {
		t.Errorf("BOOKING_CANCELLED payloads = %d, want 1", got)
	}

	// Dispute after cancellation is a terminal-state violation.
	if err := svc.Dispute(context.Background(), booking.ID, "provider-1"); !errors.Is(err, models.ErrStateConflict) {
		t.Errorf("dispute cancelled: err = %v, want state conflict", err)
	}
}

package booking

import (
	"testing"
	"time"

	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
)

var allStatuses = []Status{
	StatusCreated,
	StatusPendingConfirmation,
	StatusConfirmed,
	StatusAttended,
	StatusNoShow,
	StatusCancelled,
}

func TestCanTransition_Table(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusCreated, StatusPendingConfirmation}: true,
		{StatusCreated, StatusConfirmed}:             true,
		{StatusCreated, StatusCancelled}:             true,
		{StatusPendingConfirmation, StatusConfirmed}: true,
		{StatusPendingConfirmation, StatusCancelled}: true,
		{StatusConfirmed, StatusAttended}:            true,
		{StatusConfirmed, StatusNoShow}:              true,
		{StatusConfirmed, StatusCancelled}:           true,
		{StatusNoShow, StatusCancelled}:              true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			err := CanTransition(from, to)
			want := allowed[[2]Status{from, to}]
			if want && err != nil {
				t.Errorf("%s -> %s should be allowed: %v", from, to, err)
			}
			if !want && err == nil {
				t.Errorf("%s -> %s should be rejected", from, to)
			}
		}
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	for _, from := range []Status{StatusAttended, StatusCancelled} {
		for _, to := range allStatuses {
			if err := CanTransition(from, to); err == nil {
				t.Fatalf("%s -> %s must fail", from, to)
			}
		}
	}
}

func TestCancelRecordsMetadata(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	b := &models.Booking{Status: string(StatusConfirmed)}

	if err := Cancel(b, CancelledByClient, now); err != nil {
		t.Fatal(err)
	}
	if b.Status != string(StatusCancelled) || b.CancelledBy != CancelledByClient || !b.CancelledAt.Equal(now) {
		t.Fatalf("unexpected booking %+v", b)
	}
	if err := Cancel(b, CancelledByClient, now); err == nil {
		t.Fatal("cancelling twice must fail")
	}
}

func TestRescheduleKeepsDurationAndBuffer(t *testing.T) {
	b := &models.Booking{
		StartTime:       schedule.MustClock("09:00"),
		EndTime:         schedule.MustClock("09:40"),
		DurationMinutes: 30,
		BufferMinutes:   10,
	}
	date, _ := schedule.ParseDate("2026-05-06")
	Reschedule(b, date, schedule.MustClock("15:20"))

	if b.EndTime != schedule.MustClock("16:00") || !b.Date.Equal(date) {
		t.Fatalf("unexpected booking %+v", b)
	}
}

func TestConflictsIgnoresCancelledAndExcluded(t *testing.T) {
	existing := []models.Booking{
		{ID: 1, StartTime: schedule.MustClock("09:00"), EndTime: schedule.MustClock("10:00"), Status: string(StatusConfirmed)},
		{ID: 2, StartTime: schedule.MustClock("10:00"), EndTime: schedule.MustClock("11:00"), Status: string(StatusCancelled)},
	}
	w := schedule.TimeRange{Start: schedule.MustClock("09:30"), End: schedule.MustClock("10:30")}

	if !Conflicts(w, existing) {
		t.Fatal("expected conflict with booking 1")
	}
	if Conflicts(w, existing, 1) {
		t.Fatal("booking 1 is excluded and booking 2 cancelled")
	}
	adjacent := schedule.TimeRange{Start: schedule.MustClock("10:00"), End: schedule.MustClock("10:30")}
	if Conflicts(adjacent, existing) {
		t.Fatal("half-open windows that only touch do not conflict")
	}
}

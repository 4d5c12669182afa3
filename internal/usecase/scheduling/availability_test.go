package scheduling

import (
	"context"
	"testing"

	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
)

func TestSaveAvailabilityValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := NewSaveAvailability(f.deps)
	me := f.actor(f.prof)

	first, err := uc.Execute(ctx, me, SaveAvailabilityInput{Weekday: 1, StartTime: "09:00", EndTime: "12:00"})
	if err != nil {
		t.Fatalf("SaveAvailability failed: %v", err)
	}
	if first.ProfessionalID != f.prof.ID || !first.Active {
		t.Fatalf("unexpected row %+v", first)
	}

	_, err = uc.Execute(ctx, me, SaveAvailabilityInput{Weekday: 1, StartTime: "12:00", EndTime: "14:00"})
	expectCode(t, err, httperr.KindValidation, "availability_overlap")

	_, err = uc.Execute(ctx, me, SaveAvailabilityInput{Weekday: 1, StartTime: "17:00", EndTime: "19:00"})
	expectCode(t, err, httperr.KindValidation, "outside_working_hours")

	_, err = uc.Execute(ctx, me, SaveAvailabilityInput{Weekday: 0, StartTime: "10:00", EndTime: "12:00"})
	expectCode(t, err, httperr.KindValidation, "outside_working_hours")

	_, err = uc.Execute(ctx, me, SaveAvailabilityInput{Weekday: 1, StartTime: "15:00", EndTime: "14:00"})
	expectCode(t, err, httperr.KindValidation, "invalid_range")

	_, err = uc.Execute(ctx, me, SaveAvailabilityInput{Weekday: 9, StartTime: "10:00", EndTime: "12:00"})
	expectCode(t, err, httperr.KindValidation, "invalid_weekday")

	// Editing a range is checked against the others, not itself.
	edited, err := uc.Execute(ctx, me, SaveAvailabilityInput{ID: first.ID, Weekday: 1, StartTime: "09:00", EndTime: "13:00"})
	if err != nil || edited.ID != first.ID || edited.EndTime != schedule.MustClock("13:00") {
		t.Fatalf("edit failed: %v %+v", err, edited)
	}

	_, err = uc.Execute(ctx, f.actor(f.other), SaveAvailabilityInput{ID: first.ID, Weekday: 1, StartTime: "09:00", EndTime: "10:00"})
	expectCode(t, err, httperr.KindAccessDenied, "not_your_schedule")
}

func TestAvailabilityOverridesCompanyHours(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me := f.actor(f.prof)

	row, err := NewSaveAvailability(f.deps).Execute(ctx, me, SaveAvailabilityInput{Weekday: 1, StartTime: "14:00", EndTime: "16:00"})
	if err != nil {
		t.Fatal(err)
	}

	week, err := NewAvailabilityResolver(f.deps).Week(ctx, me, 0)
	if err != nil {
		t.Fatal(err)
	}
	monday := week[1]
	if monday.Source != schedule.SourceProfessional || len(monday.Ranges) != 1 || monday.Ranges[0].String() != "14:00-16:00" {
		t.Fatalf("own ranges must replace company hours: %+v", monday)
	}
	if week[2].Source != schedule.SourceCompany || week[0].Source != schedule.SourceNone || week[0].Ranges == nil {
		t.Fatalf("other days fall back: %+v", week)
	}

	slots, err := NewGetSlots(f.deps).Execute(ctx, GetSlotsInput{
		CompanyID: f.company.ID, ServiceID: f.service.ID, ProfessionalID: f.prof.ID, Date: nextMonday,
	})
	if err != nil || len(slots.Slots) != 3 || slots.Slots[0].Start != schedule.MustClock("14:00") {
		t.Fatalf("slots must follow the override: %v %v", clocks(slots.Slots), err)
	}

	if err := NewDeleteAvailability(f.deps).Execute(ctx, me, row.ID); err != nil {
		t.Fatalf("DeleteAvailability failed: %v", err)
	}
	week, _ = NewAvailabilityResolver(f.deps).Week(ctx, me, 0)
	if week[1].Source != schedule.SourceCompany {
		t.Fatalf("deleting the last range falls back to company hours: %+v", week[1])
	}
}

func TestSaveWorkingHours(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := NewSaveWorkingHours(f.deps)

	rows, err := uc.Execute(ctx, f.actor(f.owner), []WorkingDayInput{
		{Weekday: 1, Ranges: []RangeSpec{{Start: "08:00", End: "12:00"}, {Start: "13:00", End: "17:00"}}},
		{Weekday: 6, Ranges: []RangeSpec{{Start: "09:00", End: "13:00"}}},
	})
	if err != nil || len(rows) != 3 {
		t.Fatalf("SaveWorkingHours failed: %v %v", rows, err)
	}
	all, _ := f.repo.ListAllWorkingHours(ctx, f.company.ID)
	if len(all) != 3 {
		t.Fatalf("hours must be replaced, got %d rows", len(all))
	}

	_, err = uc.Execute(ctx, f.actor(f.owner), []WorkingDayInput{
		{Weekday: 1, Ranges: []RangeSpec{{Start: "08:00", End: "12:00"}, {Start: "11:00", End: "17:00"}}},
	})
	expectCode(t, err, httperr.KindValidation, "working_hours_overlap")

	_, err = uc.Execute(ctx, f.actor(f.prof), nil)
	expectCode(t, err, httperr.KindAccessDenied, "owner_only")
}

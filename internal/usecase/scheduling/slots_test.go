package scheduling

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
)

func TestGetSlotsBufferLeavesNoRoom(t *testing.T) {
	f := newFixture(t)
	f.repo.put(&models.Availability{
		ProfessionalID: f.prof.ID,
		Weekday:        1,
		StartTime:      schedule.MustClock("09:00"),
		EndTime:        schedule.MustClock("10:00"),
		Active:         true,
	})
	f.book(f.prof, nextMonday, "09:00", booking.StatusConfirmed)

	res, err := NewGetSlots(f.deps).Execute(context.Background(), GetSlotsInput{
		CompanyID: f.company.ID, ServiceID: f.service.ID, ProfessionalID: f.prof.ID, Date: nextMonday,
	})
	if err != nil {
		t.Fatalf("GetSlots failed: %v", err)
	}
	if len(res.Slots) != 0 {
		t.Fatalf("expected no slots, got %v", clocks(res.Slots))
	}
}

func TestGetSlotsPacksFromCompanyHours(t *testing.T) {
	f := newFixture(t)

	res, err := NewGetSlots(f.deps).Execute(context.Background(), GetSlotsInput{
		CompanyID: f.company.ID, ServiceID: f.service.ID, ProfessionalID: f.prof.ID, Date: nextMonday,
	})
	if err != nil {
		t.Fatalf("GetSlots failed: %v", err)
	}
	got := clocks(res.Slots)
	if len(got) != 13 || got[0] != "09:00" || got[1] != "09:40" || got[12] != "17:00" {
		t.Fatalf("unexpected slots %v", got)
	}
	if res.Slots[0].End != schedule.MustClock("09:30") {
		t.Fatalf("slot end must hide the buffer, got %s", res.Slots[0].End)
	}
}

func TestGetSlotsSkipsLeadTimeToday(t *testing.T) {
	f := newFixture(t)

	res, err := NewGetSlots(f.deps).Execute(context.Background(), GetSlotsInput{
		CompanyID: f.company.ID, ServiceID: f.service.ID, ProfessionalID: f.prof.ID, Date: today,
	})
	if err != nil {
		t.Fatalf("GetSlots failed: %v", err)
	}
	// now is 08:00 and the lead is 120 minutes; the 40 minute grid still
	// starts at 09:00, so 10:20 is the first step at or after 10:00.
	if got := clocks(res.Slots); len(got) == 0 || got[0] != "10:20" {
		t.Fatalf("unexpected slots %v", got)
	}
}

func TestGetSlotsAreStableAndAvoidBookings(t *testing.T) {
	f := newFixture(t)
	f.book(f.prof, nextMonday, "10:00", booking.StatusCreated)
	f.book(f.prof, nextMonday, "13:15", booking.StatusPendingConfirmation)
	f.book(f.prof, nextMonday, "15:00", booking.StatusCancelled)

	uc := NewGetSlots(f.deps)
	in := GetSlotsInput{CompanyID: f.company.ID, ServiceID: f.service.ID, ProfessionalID: f.prof.ID, Date: nextMonday}

	first, err := uc.Execute(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	second, err := uc.Execute(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("repeated queries must return identical slots")
	}

	day, _ := f.repo.ListBookingsForDay(context.Background(), f.prof.ID, mustDate(nextMonday))
	for _, s := range first.Slots {
		window := schedule.TimeRange{Start: s.Start, End: s.Start.Add(40)}
		if booking.Conflicts(window, day) {
			t.Fatalf("slot %s overlaps an active booking", s.Start)
		}
	}

	// The cancelled 15:00 booking frees its window.
	found := false
	for _, s := range first.Slots {
		if s.Start >= schedule.MustClock("15:00") && s.Start < schedule.MustClock("15:40") {
			found = true
		}
	}
	if !found {
		t.Fatalf("cancelled booking should not block slots: %v", clocks(first.Slots))
	}
}

func TestGetSlotsPreconditions(t *testing.T) {
	f := newFixture(t)
	uc := NewGetSlots(f.deps)
	ctx := context.Background()

	base := GetSlotsInput{CompanyID: f.company.ID, ServiceID: f.service.ID, ProfessionalID: f.prof.ID}

	in := base
	in.Date = "2026-03-01"
	_, err := uc.Execute(ctx, in)
	expectCode(t, err, httperr.KindValidation, "past_date")

	in.Date = "2026-06-01"
	_, err = uc.Execute(ctx, in)
	expectCode(t, err, httperr.KindValidation, "beyond_advance_window")

	inactive := &models.Service{CompanyID: f.company.ID, Name: "Antigo", DurationMinutes: 30}
	f.repo.put(inactive)
	in = base
	in.Date = nextMonday
	in.ServiceID = inactive.ID
	_, err = uc.Execute(ctx, in)
	expectCode(t, err, httperr.KindValidation, "service_inactive")

	other := &models.Company{Name: "Outra", Slug: "outra", Active: true}
	f.repo.put(other)
	foreign := &models.Service{CompanyID: other.ID, Name: "Fora", DurationMinutes: 30, Active: true}
	f.repo.put(foreign)
	in.ServiceID = foreign.ID
	_, err = uc.Execute(ctx, in)
	expectCode(t, err, httperr.KindAccessDenied, "service_other_company")

	nails := &models.Service{
		CompanyID: f.company.ID, Name: "Unha", DurationMinutes: 30, Active: true,
		Specializations: []models.Specialization{{ID: 2, Name: "Unhas"}},
	}
	f.repo.put(nails)
	in.ServiceID = nails.ID
	_, err = uc.Execute(ctx, in)
	expectCode(t, err, httperr.KindValidation, "professional_not_specialized")

	blocked := &models.Account{
		CompanyID: f.company.ID, Name: "Bia", Role: models.RoleProfessional, Active: true,
		Specializations: []models.Specialization{f.spec},
		BlockedServices: []models.Service{*f.service},
	}
	f.repo.put(blocked)
	in.ServiceID = f.service.ID
	in.ProfessionalID = blocked.ID
	_, err = uc.Execute(ctx, in)
	expectCode(t, err, httperr.KindValidation, "service_blocked")

	in.ProfessionalID = f.clientAccount.ID
	_, err = uc.Execute(ctx, in)
	expectCode(t, err, httperr.KindNotFound, "professional_not_found")
}

func TestGetSlotsBlockedDateIsEmpty(t *testing.T) {
	f := newFixture(t)
	f.repo.put(&models.DateBlock{ProfessionalID: f.prof.ID, StartDate: mustDate(nextMonday), Active: true})

	res, err := NewGetSlots(f.deps).Execute(context.Background(), GetSlotsInput{
		CompanyID: f.company.ID, ServiceID: f.service.ID, ProfessionalID: f.prof.ID, Date: nextMonday,
	})
	if err != nil {
		t.Fatalf("blocked date must not be an error: %v", err)
	}
	if !res.Blocked || len(res.Slots) != 0 || res.Slots == nil {
		t.Fatalf("expected blocked empty list, got %+v", res)
	}
}

// countingCache is a SlotCache that versions entries the way the Redis
// cache does: invalidation bumps a counter and old entries are never read.
type countingCache struct {
	mu          sync.Mutex
	entries     map[SlotStamp][]schedule.Slot
	companyVer  map[uint]int
	profVer     map[uint]int
	hits        int
	beforeWrite func()
}

func newCountingCache() *countingCache {
	return &countingCache{
		entries:    map[SlotStamp][]schedule.Slot{},
		companyVer: map[uint]int{},
		profVer:    map[uint]int{},
	}
}

func (c *countingCache) Get(_ context.Context, k SlotKey) ([]schedule.Slot, SlotStamp, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stamp := SlotStamp(fmt.Sprintf("%d.%d:%d.%d:%d:%s",
		k.CompanyID, c.companyVer[k.CompanyID],
		k.ProfessionalID, c.profVer[k.ProfessionalID],
		k.ServiceID, k.Date.Format(schedule.DateLayout)))
	s, ok := c.entries[stamp]
	if ok {
		c.hits++
	}
	return s, stamp, ok, nil
}

func (c *countingCache) Set(_ context.Context, stamp SlotStamp, s []schedule.Slot) error {
	if hook := c.beforeWrite; hook != nil {
		c.beforeWrite = nil
		hook()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[stamp] = s
	return nil
}

func (c *countingCache) InvalidateProfessional(_ context.Context, id uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profVer[id]++
	return nil
}

func (c *countingCache) InvalidateCompany(_ context.Context, id uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.companyVer[id]++
	return nil
}

func TestGetSlotsCacheIsInvalidatedByBooking(t *testing.T) {
	f := newFixture(t)
	cache := newCountingCache()
	f.deps.Cache = cache

	slots := NewGetSlots(f.deps)
	in := GetSlotsInput{CompanyID: f.company.ID, ServiceID: f.service.ID, ProfessionalID: f.prof.ID, Date: nextMonday}
	ctx := context.Background()

	before, err := slots.Execute(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := slots.Execute(ctx, in); err != nil {
		t.Fatal(err)
	}
	if cache.hits != 1 {
		t.Fatalf("second query should be a cache hit, hits=%d", cache.hits)
	}

	if _, err := NewCreateBooking(f.deps).Execute(ctx, f.actor(f.clientAccount), CreateBookingInput{
		CompanyID: f.company.ID, ServiceID: f.service.ID, ProfessionalID: f.prof.ID,
		Date: nextMonday, Time: "09:00",
	}); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	after, err := slots.Execute(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if len(after.Slots) != len(before.Slots)-1 || after.Slots[0].Start != schedule.MustClock("09:40") {
		t.Fatalf("stale slots after booking: %v", clocks(after.Slots))
	}
}

func TestGetSlotsTodayBypassesCache(t *testing.T) {
	f := newFixture(t)
	cache := newCountingCache()
	f.deps.Cache = cache

	in := GetSlotsInput{CompanyID: f.company.ID, ServiceID: f.service.ID, ProfessionalID: f.prof.ID, Date: today}
	if _, err := NewGetSlots(f.deps).Execute(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	if len(cache.entries) != 0 {
		t.Fatal("today's slots depend on the clock and must not be cached")
	}
}

func TestGetSlotsNeverCachesAcrossInvalidation(t *testing.T) {
	f := newFixture(t)
	cache := newCountingCache()
	f.deps.Cache = cache
	ctx := context.Background()

	// A booking lands after the slots were computed but before they are stored.
	cache.beforeWrite = func() {
		if _, err := NewCreateBooking(f.deps).Execute(ctx, f.actor(f.clientAccount), CreateBookingInput{
			CompanyID: f.company.ID, ServiceID: f.service.ID, ProfessionalID: f.prof.ID,
			Date: nextMonday, Time: "09:00",
		}); err != nil {
			t.Errorf("CreateBooking failed: %v", err)
		}
	}

	slots := NewGetSlots(f.deps)
	in := GetSlotsInput{CompanyID: f.company.ID, ServiceID: f.service.ID, ProfessionalID: f.prof.ID, Date: nextMonday}

	first, err := slots.Execute(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if first.Slots[0].Start != schedule.MustClock("09:00") {
		t.Fatalf("first query computed before the booking: %v", clocks(first.Slots))
	}

	second, err := slots.Execute(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if cache.hits != 0 {
		t.Fatalf("the pre-booking list must not be served, hits=%d", cache.hits)
	}
	if second.Slots[0].Start != schedule.MustClock("09:40") {
		t.Fatalf("stale slots after booking: %v", clocks(second.Slots))
	}
}

package scheduling

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
)

// ======================================================
// CACHE
// ======================================================

type SlotKey struct {
	CompanyID      uint
	ProfessionalID uint
	ServiceID      uint
	Date           time.Time
}

// SlotStamp names the versioned entry a Get looked up. Set writes to that
// entry, so a list computed before an invalidation lands on the old version.
type SlotStamp string

// SlotCache stores computed slot lists. Implementations version entries per
// company and per professional so an invalidation never has to enumerate keys.
type SlotCache interface {
	Get(ctx context.Context, key SlotKey) ([]schedule.Slot, SlotStamp, bool, error)
	Set(ctx context.Context, stamp SlotStamp, slots []schedule.Slot) error
	InvalidateProfessional(ctx context.Context, professionalID uint) error
	InvalidateCompany(ctx context.Context, companyID uint) error
}

// NopCache is used when no cache is configured.
type NopCache struct{}

func (NopCache) Get(context.Context, SlotKey) ([]schedule.Slot, SlotStamp, bool, error) {
	return nil, "", false, nil
}
func (NopCache) Set(context.Context, SlotStamp, []schedule.Slot) error { return nil }
func (NopCache) InvalidateProfessional(context.Context, uint) error    { return nil }
func (NopCache) InvalidateCompany(context.Context, uint) error         { return nil }

// ======================================================
// GET SLOTS
// ======================================================

type GetSlotsInput struct {
	CompanyID      uint
	ServiceID      uint
	ProfessionalID uint
	Date           string
}

type SlotsResult struct {
	Date    string          `json:"date"`
	Blocked bool            `json:"blocked"`
	Slots   []schedule.Slot `json:"slots"`
}

type GetSlots struct {
	base
}

func NewGetSlots(d Deps) *GetSlots {
	return &GetSlots{base: newBase(d)}
}

func (uc *GetSlots) Execute(ctx context.Context, in GetSlotsInput) (*SlotsResult, error) {
	company, err := uc.loadCompany(ctx, uc.repo, in.CompanyID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Preconditions, in order
	// --------------------------------------------------
	now := uc.clockFor(company)
	if err := checkDate(company, date, now); err != nil {
		return nil, err
	}

	svc, err := uc.loadService(ctx, uc.repo, in.ServiceID)
	if err != nil {
		return nil, err
	}
	prof, err := uc.loadProfessional(ctx, uc.repo, in.ProfessionalID)
	if err != nil {
		return nil, err
	}
	if err := checkEligibility(company, svc, prof); err != nil {
		return nil, err
	}

	result := &SlotsResult{Date: date.Format(schedule.DateLayout), Slots: []schedule.Slot{}}

	block, err := uc.repo.FindBlockCovering(ctx, prof.ID, date)
	if err != nil {
		return nil, err
	}
	if block != nil {
		result.Blocked = true
		return result, nil
	}

	// --------------------------------------------------
	// Cache (today depends on the wall clock, never cached)
	// --------------------------------------------------
	var stamp SlotStamp
	if !date.Equal(now.Today) {
		key := SlotKey{CompanyID: company.ID, ProfessionalID: prof.ID, ServiceID: svc.ID, Date: date}
		cached, st, ok, err := uc.cache.Get(ctx, key)
		if err != nil {
			uc.log.Warn("slot cache read failed", zap.Error(err))
		} else if ok {
			result.Slots = cached
			return result, nil
		}
		stamp = st
	}

	// --------------------------------------------------
	// Generation
	// --------------------------------------------------
	ranges, _, err := resolveRanges(ctx, uc.repo, prof, schedule.Weekday(date))
	if err != nil {
		return nil, err
	}
	bookings, err := uc.repo.ListBookingsForDay(ctx, prof.ID, date)
	if err != nil {
		return nil, err
	}

	result.Slots = schedule.GenerateSlots(schedule.SlotRequest{
		Ranges:      ranges,
		Bookings:    booking.BusyWindows(bookings),
		DurationMin: svc.DurationMinutes,
		BufferMin:   svc.EffectiveBuffer(company.DefaultBufferMinutes),
		NotBefore:   leadFloor(company, date, now),
	})

	if stamp != "" {
		if err := uc.cache.Set(ctx, stamp, result.Slots); err != nil {
			uc.log.Warn("slot cache write failed", zap.Error(err))
		}
	}

	return result, nil
}

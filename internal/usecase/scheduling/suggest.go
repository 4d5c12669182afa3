package scheduling

import (
	"context"
	"time"

	"github.com/BruksfildServices01/agenda-scheduler/internal/auth"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
)

const (
	suggestDays       = 14
	suggestStep       = 30
	suggestMaxResults = 10
)

type SuggestSlotsInput struct {
	BookingID uint
	// SkipFrom/SkipTo optionally exclude the days of a block still being planned.
	SkipFrom string
	SkipTo   string
}

type Suggestion struct {
	Date  string         `json:"date"`
	Start schedule.Clock `json:"start"`
	End   schedule.Clock `json:"end"`
}

// SuggestSlots lists alternative starts for an existing booking, scanning
// forward from today on a fixed 30 minute grid.
type SuggestSlots struct {
	base
}

func NewSuggestSlots(d Deps) *SuggestSlots {
	return &SuggestSlots{base: newBase(d)}
}

func (uc *SuggestSlots) Execute(ctx context.Context, actor auth.Actor, in SuggestSlotsInput) ([]Suggestion, error) {
	caller, company, err := uc.authorize(ctx, actor)
	if err != nil {
		return nil, err
	}

	bk, err := uc.loadBooking(ctx, uc.repo, in.BookingID)
	if err != nil {
		return nil, err
	}
	if bk.CompanyID != company.ID {
		return nil, httperr.AccessDenied("booking_other_company", "Agendamento de outra empresa.")
	}
	prof, err := uc.manageProfessional(ctx, caller, bk.ProfessionalID)
	if err != nil {
		return nil, err
	}

	var skipFrom, skipTo time.Time
	if in.SkipFrom != "" {
		if skipFrom, err = parseDate(in.SkipFrom); err != nil {
			return nil, err
		}
		skipTo = skipFrom
		if in.SkipTo != "" {
			if skipTo, err = parseDate(in.SkipTo); err != nil {
				return nil, err
			}
		}
	}

	now := uc.clockFor(company)
	need := bk.DurationMinutes + bk.BufferMinutes
	out := []Suggestion{}

	for i := 0; i < suggestDays; i++ {
		if company.MaxAdvanceDays > 0 && i > company.MaxAdvanceDays {
			break
		}
		date := now.Today.AddDate(0, 0, i)
		if !skipFrom.IsZero() && !date.Before(skipFrom) && !date.After(skipTo) {
			continue
		}

		block, err := uc.repo.FindBlockCovering(ctx, prof.ID, date)
		if err != nil {
			return nil, err
		}
		if block != nil {
			continue
		}

		ranges, _, err := resolveRanges(ctx, uc.repo, prof, schedule.Weekday(date))
		if err != nil {
			return nil, err
		}
		if len(ranges) == 0 {
			continue
		}
		dayBookings, err := uc.repo.ListBookingsForDay(ctx, prof.ID, date)
		if err != nil {
			return nil, err
		}
		floor := leadFloor(company, date, now)

		for _, r := range ranges {
			for start := r.Start; start.Add(need) <= r.End; start = start.Add(suggestStep) {
				if floor != nil && start < *floor {
					continue
				}
				window := schedule.TimeRange{Start: start, End: start.Add(need)}
				if booking.Conflicts(window, dayBookings, bk.ID) {
					continue
				}
				out = append(out, Suggestion{
					Date:  date.Format(schedule.DateLayout),
					Start: start,
					End:   start.Add(bk.DurationMinutes),
				})
				if len(out) == suggestMaxResults {
					return out, nil
				}
			}
		}
	}

	return out, nil
}

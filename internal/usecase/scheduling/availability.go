package scheduling

import (
	"context"
	"errors"

	"github.com/BruksfildServices01/agenda-scheduler/internal/auth"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
)

// resolveRanges returns the professional's own ranges for the weekday, or
// the company's when there are none.
func resolveRanges(
	ctx context.Context,
	repo booking.Repository,
	prof *models.Account,
	weekday int,
) ([]schedule.TimeRange, schedule.Source, error) {
	own, err := repo.ListAvailability(ctx, prof.ID, weekday)
	if err != nil {
		return nil, schedule.SourceNone, err
	}

	var company []models.WorkingHours
	if len(own) == 0 {
		company, err = repo.ListWorkingHours(ctx, prof.CompanyID, weekday)
		if err != nil {
			return nil, schedule.SourceNone, err
		}
	}

	ranges, source := schedule.Resolve(availabilityRanges(own), workingRanges(company))
	return ranges, source, nil
}

func availabilityRanges(rows []models.Availability) []schedule.TimeRange {
	out := make([]schedule.TimeRange, 0, len(rows))
	for _, a := range rows {
		out = append(out, a.Range())
	}
	return out
}

func workingRanges(rows []models.WorkingHours) []schedule.TimeRange {
	out := make([]schedule.TimeRange, 0, len(rows))
	for _, w := range rows {
		out = append(out, w.Range())
	}
	return out
}

// ======================================================
// RESOLVER
// ======================================================

type ResolvedDay struct {
	Weekday int                  `json:"weekday"`
	Source  schedule.Source      `json:"source"`
	Ranges  []schedule.TimeRange `json:"ranges"`
}

type AvailabilityResolver struct {
	base
}

func NewAvailabilityResolver(d Deps) *AvailabilityResolver {
	return &AvailabilityResolver{base: newBase(d)}
}

// Week resolves all seven weekdays for a professional of the caller's company.
func (uc *AvailabilityResolver) Week(
	ctx context.Context,
	actor auth.Actor,
	professionalID uint,
) ([]ResolvedDay, error) {
	caller, _, err := uc.authorize(ctx, actor)
	if err != nil {
		return nil, err
	}

	if professionalID == 0 {
		professionalID = caller.ID
	}
	prof, err := uc.loadProfessional(ctx, uc.repo, professionalID)
	if err != nil {
		return nil, err
	}
	if prof.CompanyID != caller.CompanyID {
		return nil, httperr.AccessDenied("professional_other_company", "Profissional de outra empresa.")
	}

	week := make([]ResolvedDay, 0, 7)
	for wd := 0; wd < 7; wd++ {
		ranges, source, err := resolveRanges(ctx, uc.repo, prof, wd)
		if err != nil {
			return nil, err
		}
		if ranges == nil {
			ranges = []schedule.TimeRange{}
		}
		week = append(week, ResolvedDay{Weekday: wd, Source: source, Ranges: ranges})
	}
	return week, nil
}

// ======================================================
// SAVE AVAILABILITY
// ======================================================

type SaveAvailabilityInput struct {
	// ID is zero for a new range.
	ID             uint
	ProfessionalID uint
	Weekday        int
	StartTime      string
	EndTime        string
}

type SaveAvailability struct {
	base
}

func NewSaveAvailability(d Deps) *SaveAvailability {
	return &SaveAvailability{base: newBase(d)}
}

func (uc *SaveAvailability) Execute(
	ctx context.Context,
	actor auth.Actor,
	in SaveAvailabilityInput,
) (*models.Availability, error) {
	caller, _, err := uc.authorize(ctx, actor)
	if err != nil {
		return nil, err
	}

	var row *models.Availability
	if in.ID != 0 {
		row, err = uc.repo.GetAvailability(ctx, in.ID)
		if errors.Is(err, booking.ErrNotFound) {
			return nil, httperr.NotFoundErr("availability_not_found", "Disponibilidade não encontrada.")
		}
		if err != nil {
			return nil, err
		}
		if in.ProfessionalID == 0 {
			in.ProfessionalID = row.ProfessionalID
		}
		if row.ProfessionalID != in.ProfessionalID {
			return nil, httperr.AccessDenied("not_your_availability", "Disponibilidade de outro profissional.")
		}
	}

	prof, err := uc.manageProfessional(ctx, caller, in.ProfessionalID)
	if err != nil {
		return nil, err
	}

	if err := parseWeekday(in.Weekday); err != nil {
		return nil, err
	}
	start, err := parseClock(in.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseClock(in.EndTime)
	if err != nil {
		return nil, err
	}
	candidate := schedule.TimeRange{Start: start, End: end}

	hours, err := uc.repo.ListWorkingHours(ctx, prof.CompanyID, in.Weekday)
	if err != nil {
		return nil, err
	}
	existing, err := uc.repo.ListAvailability(ctx, prof.ID, in.Weekday)
	if err != nil {
		return nil, err
	}

	others := make([]schedule.TimeRange, 0, len(existing))
	for _, a := range existing {
		if a.ID == in.ID {
			continue
		}
		others = append(others, a.Range())
	}

	if err := schedule.ValidateAvailability(candidate, workingRanges(hours), others); err != nil {
		return nil, err
	}

	if row == nil {
		row = &models.Availability{ProfessionalID: prof.ID, Active: true}
	}
	row.Weekday = in.Weekday
	row.StartTime = start
	row.EndTime = end

	if err := uc.repo.SaveAvailability(ctx, row); err != nil {
		return nil, err
	}

	uc.invalidateProfessional(ctx, prof.ID)
	uc.record(actor, "availability_saved", "availability", row.ID, map[string]any{
		"weekday": row.Weekday,
		"range":   candidate.String(),
	})

	return row, nil
}

// ======================================================
// DELETE AVAILABILITY
// ======================================================

type DeleteAvailability struct {
	base
}

func NewDeleteAvailability(d Deps) *DeleteAvailability {
	return &DeleteAvailability{base: newBase(d)}
}

// Execute deactivates the range; once a weekday has no active ranges the
// professional falls back to the company's hours.
func (uc *DeleteAvailability) Execute(ctx context.Context, actor auth.Actor, id uint) error {
	caller, _, err := uc.authorize(ctx, actor)
	if err != nil {
		return err
	}

	row, err := uc.repo.GetAvailability(ctx, id)
	if errors.Is(err, booking.ErrNotFound) {
		return httperr.NotFoundErr("availability_not_found", "Disponibilidade não encontrada.")
	}
	if err != nil {
		return err
	}
	if _, err := uc.manageProfessional(ctx, caller, row.ProfessionalID); err != nil {
		return err
	}

	if !row.Active {
		return nil
	}
	row.Active = false
	if err := uc.repo.SaveAvailability(ctx, row); err != nil {
		return err
	}

	uc.invalidateProfessional(ctx, row.ProfessionalID)
	uc.record(actor, "availability_deleted", "availability", row.ID, nil)
	return nil
}

// ======================================================
// COMPANY WORKING HOURS
// ======================================================

type WorkingDayInput struct {
	Weekday int         `json:"weekday"`
	Ranges  []RangeSpec `json:"ranges"`
}

type RangeSpec struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type SaveWorkingHours struct {
	base
}

func NewSaveWorkingHours(d Deps) *SaveWorkingHours {
	return &SaveWorkingHours{base: newBase(d)}
}

// Execute replaces the company's weekly hours. Weekdays absent from days
// end up closed.
func (uc *SaveWorkingHours) Execute(
	ctx context.Context,
	actor auth.Actor,
	days []WorkingDayInput,
) ([]models.WorkingHours, error) {
	caller, company, err := uc.authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if caller.Role != models.RoleOwner {
		return nil, httperr.AccessDenied("owner_only", "Apenas o proprietário pode alterar o expediente.")
	}

	seen := map[int]bool{}
	var rows []models.WorkingHours
	for _, day := range days {
		if err := parseWeekday(day.Weekday); err != nil {
			return nil, err
		}
		if seen[day.Weekday] {
			return nil, httperr.Validation("duplicate_weekday", "Dia da semana %d informado mais de uma vez.", day.Weekday)
		}
		seen[day.Weekday] = true

		ranges := make([]schedule.TimeRange, 0, len(day.Ranges))
		for _, spec := range day.Ranges {
			start, err := parseClock(spec.Start)
			if err != nil {
				return nil, err
			}
			end, err := parseClock(spec.End)
			if err != nil {
				return nil, err
			}
			ranges = append(ranges, schedule.TimeRange{Start: start, End: end})
		}
		if err := schedule.ValidateWorkingDay(ranges); err != nil {
			return nil, err
		}

		for _, r := range ranges {
			rows = append(rows, models.WorkingHours{
				CompanyID: company.ID,
				Weekday:   day.Weekday,
				StartTime: r.Start,
				EndTime:   r.End,
			})
		}
	}

	if err := uc.repo.ReplaceWorkingHours(ctx, company.ID, rows); err != nil {
		return nil, err
	}

	uc.invalidateCompany(ctx, company.ID)
	uc.record(actor, "working_hours_saved", "company", company.ID, map[string]any{"ranges": len(rows)})

	return rows, nil
}

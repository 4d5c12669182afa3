package scheduling

import (
	"context"
	"time"

	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
	"github.com/BruksfildServices01/agenda-scheduler/internal/timezone"
)

// errSlotTaken is what every lost race surfaces as.
var errSlotTaken = httperr.Conflict("slot_unavailable", "Este horário não está mais disponível.")

// mapWriteErr turns storage-level overlap and serialization failures into
// the slot conflict; anything else passes through.
func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if httperr.IsExclusionConflict(err) || httperr.IsSerializationFailure(err) {
		return errSlotTaken
	}
	return err
}

// checkEligibility rejects a service/professional pair that cannot be booked.
func checkEligibility(company *models.Company, svc *models.Service, prof *models.Account) error {
	if svc.CompanyID != company.ID {
		return httperr.AccessDenied("service_other_company", "Serviço de outra empresa.")
	}
	if !svc.Active {
		return httperr.Validation("service_inactive", "O serviço %q não está disponível.", svc.Name)
	}
	if prof.CompanyID != company.ID {
		return httperr.AccessDenied("professional_other_company", "Profissional de outra empresa.")
	}
	if !prof.Active {
		return httperr.Validation("professional_inactive", "O profissional %s não está disponível.", prof.Name)
	}
	if !specializedFor(prof, svc) {
		return httperr.Validation(
			"professional_not_specialized",
			"O profissional %s não realiza o serviço %q.", prof.Name, svc.Name,
		)
	}
	for _, blocked := range prof.BlockedServices {
		if blocked.ID == svc.ID {
			return httperr.Validation(
				"service_blocked",
				"O serviço %q está bloqueado para o profissional %s.", svc.Name, prof.Name,
			)
		}
	}
	return nil
}

// specializedFor is true when the professional shares a specialization with
// the service, or the service requires none.
func specializedFor(prof *models.Account, svc *models.Service) bool {
	if len(svc.Specializations) == 0 {
		return true
	}
	for _, want := range svc.Specializations {
		for _, have := range prof.Specializations {
			if want.ID == have.ID {
				return true
			}
		}
	}
	return false
}

// checkDate enforces the booking horizon: not before today and not beyond
// the company's advance window.
func checkDate(company *models.Company, date time.Time, now timezone.Clock) error {
	if date.Before(now.Today) {
		return httperr.Validation("past_date", "A data %s já passou.", date.Format(schedule.DateLayout))
	}
	if company.MaxAdvanceDays > 0 && schedule.DaysBetween(now.Today, date) > company.MaxAdvanceDays {
		return httperr.Validation(
			"beyond_advance_window",
			"Só é possível agendar com até %d dias de antecedência.", company.MaxAdvanceDays,
		)
	}
	return nil
}

// leadFloor is the earliest start allowed on date, or nil when date is not today.
func leadFloor(company *models.Company, date time.Time, now timezone.Clock) *schedule.Clock {
	if !date.Equal(now.Today) {
		return nil
	}
	floor := now.Time.Add(company.MinLeadMinutes)
	return &floor
}

func checkLead(company *models.Company, date time.Time, start schedule.Clock, now timezone.Clock) error {
	floor := leadFloor(company, date, now)
	if floor == nil || start >= *floor {
		return nil
	}
	if *floor >= schedule.EndOfDay {
		return httperr.Validation(
			"lead_time",
			"É necessário agendar com %d minutos de antecedência; não há mais horários hoje.",
			company.MinLeadMinutes,
		).WithDetails(map[string]any{"min_lead_minutes": company.MinLeadMinutes})
	}
	return httperr.Validation(
		"lead_time",
		"É necessário agendar com %d minutos de antecedência; o horário mais cedo possível hoje é %s.",
		company.MinLeadMinutes, *floor,
	).WithDetails(map[string]any{
		"min_lead_minutes": company.MinLeadMinutes,
		"earliest":         floor.String(),
	})
}

// ======================================================
// SLOT VALIDATION
// ======================================================

type slotCheck struct {
	company      *models.Company
	professional *models.Account
	date         time.Time
	window       schedule.TimeRange
	exclude      []uint
}

// checkSlot runs every rule a concrete booking window must satisfy. It is
// called eagerly and again inside the writing transaction.
func checkSlot(ctx context.Context, repo booking.Repository, now timezone.Clock, sc slotCheck) error {
	if err := checkDate(sc.company, sc.date, now); err != nil {
		return err
	}
	if !sc.window.Valid() {
		return httperr.Validation("invalid_range", "O horário %s ultrapassa o fim do dia.", sc.window)
	}
	if err := checkLead(sc.company, sc.date, sc.window.Start, now); err != nil {
		return err
	}

	block, err := repo.FindBlockCovering(ctx, sc.professional.ID, sc.date)
	if err != nil {
		return err
	}
	if block != nil {
		return httperr.Validation(
			"date_blocked",
			"O profissional %s não atende em %s.", sc.professional.Name, sc.date.Format(schedule.DateLayout),
		)
	}

	ranges, _, err := resolveRanges(ctx, repo, sc.professional, schedule.Weekday(sc.date))
	if err != nil {
		return err
	}
	if !schedule.FitsAny(sc.window, ranges) {
		if len(ranges) == 0 {
			return httperr.Validation("outside_availability", "O profissional não atende neste dia da semana.")
		}
		return httperr.Validation(
			"outside_availability",
			"O horário %s está fora da disponibilidade do profissional: %s.",
			sc.window, schedule.FormatRanges(ranges),
		)
	}

	taken, err := repo.HasOverlap(ctx, sc.professional.ID, sc.date, sc.window, sc.exclude...)
	if err != nil {
		return mapWriteErr(err)
	}
	if taken {
		return errSlotTaken
	}
	return nil
}

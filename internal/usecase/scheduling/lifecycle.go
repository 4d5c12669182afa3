package scheduling

import (
	"context"
	"time"

	"github.com/BruksfildServices01/agenda-scheduler/internal/auth"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
	"github.com/BruksfildServices01/agenda-scheduler/internal/timezone"
)

// ======================================================
// CHANGE STATUS (PROFESSIONAL / OWNER)
// ======================================================

type ChangeBookingStatus struct {
	base
}

func NewChangeBookingStatus(d Deps) *ChangeBookingStatus {
	return &ChangeBookingStatus{base: newBase(d)}
}

func (uc *ChangeBookingStatus) Execute(
	ctx context.Context,
	actor auth.Actor,
	bookingID uint,
	status string,
) (*models.Booking, error) {
	caller, _, err := uc.authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !caller.IsProfessional() {
		return nil, httperr.AccessDenied("professional_only", "Apenas profissionais podem alterar agendamentos.")
	}

	to, ok := booking.ParseStatus(status)
	if !ok {
		return nil, httperr.Validation("invalid_status", "Status desconhecido: %q.", status)
	}

	var bk *models.Booking
	err = uc.repo.Transaction(ctx, func(tx booking.Repository) error {
		bk, err = uc.loadBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if bk.CompanyID != caller.CompanyID {
			return httperr.AccessDenied("booking_other_company", "Agendamento de outra empresa.")
		}
		if caller.Role == models.RoleProfessional && bk.ProfessionalID != caller.ID {
			return httperr.AccessDenied("not_your_booking", "Agendamento de outro profissional.")
		}

		now := uc.now()
		if to == booking.StatusCancelled {
			err = booking.Cancel(bk, booking.CancelledByProfessional, now)
		} else {
			err = booking.Transition(bk, to, now)
		}
		if err != nil {
			return err
		}
		return tx.UpdateBooking(ctx, bk)
	})
	if err != nil {
		return nil, mapWriteErr(err)
	}

	if to == booking.StatusCancelled {
		uc.invalidateProfessional(ctx, bk.ProfessionalID)
	}
	uc.record(actor, "booking_status_changed", "booking", bk.ID, map[string]any{"status": to})

	return bk, nil
}

// ======================================================
// CLIENT SELF-SERVICE
// ======================================================

// clientBooking loads a booking owned by the calling client and checks the
// notice period every client-side change requires.
func (b base) clientBooking(
	ctx context.Context,
	repo booking.Repository,
	actor auth.Actor,
	bookingID uint,
) (*models.Booking, *models.Company, error) {
	if !actor.IsClient() {
		return nil, nil, httperr.AccessDenied("client_only", "Operação disponível apenas para clientes.")
	}

	bk, err := b.loadBooking(ctx, repo, bookingID)
	if err != nil {
		return nil, nil, err
	}
	client, err := repo.FindClientByAccount(ctx, actor.AccountID)
	if err != nil {
		return nil, nil, err
	}
	if client == nil || client.ID != bk.ClientID {
		return nil, nil, httperr.AccessDenied("not_your_booking", "Este agendamento não é seu.")
	}

	company, err := b.loadCompany(ctx, repo, bk.CompanyID)
	if err != nil {
		return nil, nil, err
	}

	if st := booking.Status(bk.Status); st == booking.StatusCancelled || st == booking.StatusAttended {
		return nil, nil, httperr.Validation("invalid_state", "O agendamento está %s e não pode mais ser alterado.", st)
	}

	now := b.now()
	startsAt := booking.StartsAt(bk, timezone.Location(company.Timezone))
	if startsAt.Before(now) {
		return nil, nil, httperr.Validation("booking_in_past", "O agendamento já começou ou passou.")
	}
	if startsAt.Before(now.Add(booking.ClientNoticePeriod)) {
		return nil, nil, httperr.Validation(
			"notice_period",
			"Alterações pelo cliente exigem pelo menos %d minutos de antecedência.",
			int(booking.ClientNoticePeriod/time.Minute),
		)
	}

	return bk, company, nil
}

type CancelBookingByClient struct {
	base
}

func NewCancelBookingByClient(d Deps) *CancelBookingByClient {
	return &CancelBookingByClient{base: newBase(d)}
}

func (uc *CancelBookingByClient) Execute(ctx context.Context, actor auth.Actor, bookingID uint) (*models.Booking, error) {
	if _, _, err := uc.authorize(ctx, actor); err != nil {
		return nil, err
	}

	var bk *models.Booking
	err := uc.repo.Transaction(ctx, func(tx booking.Repository) error {
		var err error
		bk, _, err = uc.clientBooking(ctx, tx, actor, bookingID)
		if err != nil {
			return err
		}
		if err := booking.Cancel(bk, booking.CancelledByClient, uc.now()); err != nil {
			return err
		}
		return tx.UpdateBooking(ctx, bk)
	})
	if err != nil {
		return nil, mapWriteErr(err)
	}

	uc.invalidateProfessional(ctx, bk.ProfessionalID)
	uc.record(actor, "booking_cancelled_by_client", "booking", bk.ID, nil)
	return bk, nil
}

type ReprogramBookingInput struct {
	BookingID uint
	Date      string
	Time      string
}

type ReprogramBookingByClient struct {
	base
}

func NewReprogramBookingByClient(d Deps) *ReprogramBookingByClient {
	return &ReprogramBookingByClient{base: newBase(d)}
}

// Execute moves the booking to a new slot, re-running the creation checks
// against it with the booking itself excluded from the overlap test.
func (uc *ReprogramBookingByClient) Execute(
	ctx context.Context,
	actor auth.Actor,
	in ReprogramBookingInput,
) (*models.Booking, error) {
	if _, _, err := uc.authorize(ctx, actor); err != nil {
		return nil, err
	}

	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	start, err := parseClock(in.Time)
	if err != nil {
		return nil, err
	}

	var (
		bk       *models.Booking
		fromDate time.Time
		fromTime schedule.Clock
	)
	err = uc.repo.Transaction(ctx, func(tx booking.Repository) error {
		var (
			company *models.Company
			err     error
		)
		bk, company, err = uc.clientBooking(ctx, tx, actor, in.BookingID)
		if err != nil {
			return err
		}

		svc, err := uc.loadService(ctx, tx, bk.ServiceID)
		if err != nil {
			return err
		}
		prof, err := uc.loadProfessional(ctx, tx, bk.ProfessionalID)
		if err != nil {
			return err
		}
		if err := checkEligibility(company, svc, prof); err != nil {
			return err
		}

		check := slotCheck{
			company:      company,
			professional: prof,
			date:         date,
			window:       booking.WindowAt(bk, start),
			exclude:      []uint{bk.ID},
		}
		if err := checkSlot(ctx, tx, uc.clockFor(company), check); err != nil {
			return err
		}

		fromDate, fromTime = bk.Date, bk.StartTime
		booking.Reschedule(bk, date, start)
		return tx.UpdateBooking(ctx, bk)
	})
	if err != nil {
		return nil, mapWriteErr(err)
	}

	uc.invalidateProfessional(ctx, bk.ProfessionalID)
	uc.record(actor, "booking_reprogrammed_by_client", "booking", bk.ID, map[string]any{
		"from": fromDate.Format(schedule.DateLayout) + " " + fromTime.String(),
		"to":   date.Format(schedule.DateLayout) + " " + start.String(),
	})
	return bk, nil
}

// ======================================================
// LIST
// ======================================================

type ListBookingsInput struct {
	ProfessionalID uint
	From           string
	To             string
	Status         string
}

type ListBookings struct {
	base
}

func NewListBookings(d Deps) *ListBookings {
	return &ListBookings{base: newBase(d)}
}

func (uc *ListBookings) Execute(ctx context.Context, actor auth.Actor, in ListBookingsInput) ([]models.Booking, error) {
	caller, _, err := uc.authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	prof, err := uc.manageProfessional(ctx, caller, in.ProfessionalID)
	if err != nil {
		return nil, err
	}

	from, err := parseDate(in.From)
	if err != nil {
		return nil, err
	}
	to := from
	if in.To != "" {
		if to, err = parseDate(in.To); err != nil {
			return nil, err
		}
	}
	if to.Before(from) {
		return nil, httperr.Validation("invalid_range", "A data final deve ser igual ou posterior à inicial.")
	}

	var statuses []booking.Status
	if in.Status != "" {
		st, ok := booking.ParseStatus(in.Status)
		if !ok {
			return nil, httperr.Validation("invalid_status", "Status desconhecido: %q.", in.Status)
		}
		statuses = append(statuses, st)
	}

	bookings, err := uc.repo.ListBookingsInRange(ctx, prof.ID, from, to, statuses...)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

package scheduling

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/agenda-scheduler/internal/auth"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
)

// Reminder is what a Notifier delivers to the client.
type Reminder struct {
	BookingID   uint   `json:"booking_id"`
	CompanyName string `json:"company_name"`
	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`
	ServiceName string `json:"service_name"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

// Notifier sends a reminder and returns an opaque id that the reply will
// carry back.
type Notifier interface {
	Notify(ctx context.Context, r Reminder) (string, error)
}

// ======================================================
// SEND
// ======================================================

type ReminderReport struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// errReminderStale means the booking left CREADO while the reminder was
// being delivered.
var errReminderStale = errors.New("booking changed during reminder")

type SendReminders struct {
	base
	notifier Notifier
}

func NewSendReminders(d Deps, notifier Notifier) *SendReminders {
	return &SendReminders{base: newBase(d), notifier: notifier}
}

// Execute notifies every CREADO booking of the company on date and moves it
// to PENDIENTE_CONFIRMACION. A failing booking is logged and skipped.
func (uc *SendReminders) Execute(ctx context.Context, companyID uint, dateStr string) (ReminderReport, error) {
	var report ReminderReport

	company, err := uc.loadCompany(ctx, uc.repo, companyID)
	if err != nil {
		return report, err
	}
	date, err := parseDate(dateStr)
	if err != nil {
		return report, err
	}

	bookings, err := uc.repo.ListBookingsByStatus(ctx, company.ID, date, booking.StatusCreated)
	if err != nil {
		return report, err
	}

	for i := range bookings {
		bk := &bookings[i]
		log := uc.log.With(zap.Uint("booking_id", bk.ID), zap.Uint("company_id", company.ID))

		err := uc.remind(ctx, company, bk)
		if errors.Is(err, errReminderStale) {
			report.Skipped++
			log.Info("reminder not applied, booking changed meanwhile")
			continue
		}
		if err != nil {
			report.Failed++
			log.Warn("reminder skipped", zap.Error(err))
			continue
		}
		report.Sent++
		log.Info("reminder sent", zap.Stringp("correlation_id", bk.ReminderCorrelationID))
	}

	return report, nil
}

func (uc *SendReminders) remind(ctx context.Context, company *models.Company, bk *models.Booking) error {
	if err := booking.CanTransition(booking.Status(bk.Status), booking.StatusPendingConfirmation); err != nil {
		return err
	}

	correlationID, err := uc.notifier.Notify(ctx, Reminder{
		BookingID:   bk.ID,
		CompanyName: company.Name,
		ClientName:  bk.Client.Name,
		ClientPhone: bk.Client.Phone,
		ServiceName: bk.Service.Name,
		Date:        bk.Date.Format(schedule.DateLayout),
		Time:        bk.StartTime.String(),
	})
	if err != nil {
		return err
	}

	// The row is re-read: the notifier call may have raced a cancellation.
	now := uc.now()
	err = uc.repo.Transaction(ctx, func(tx booking.Repository) error {
		current, err := tx.GetBooking(ctx, bk.ID)
		if err != nil {
			return err
		}
		if booking.CanTransition(booking.Status(current.Status), booking.StatusPendingConfirmation) != nil {
			return errReminderStale
		}
		if err := booking.Transition(current, booking.StatusPendingConfirmation, now); err != nil {
			return err
		}
		current.ReminderCorrelationID = &correlationID
		current.ReminderSentAt = &now
		if err := tx.UpdateBooking(ctx, current); err != nil {
			return err
		}
		*bk = *current
		return nil
	})
	if err != nil {
		return err
	}

	uc.record(auth.System(company.ID), "reminder_sent", "booking", bk.ID, map[string]any{
		"correlation_id": correlationID,
	})
	return nil
}

// ======================================================
// REPLY
// ======================================================

type ReplyKind int

const (
	ReplyUnknown ReplyKind = iota
	ReplyYes
	ReplyNo
)

// ParseReply accepts the usual yes/no answers in Portuguese, Spanish and English.
func ParseReply(s string) ReplyKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sim", "s", "si", "sí", "yes", "y", "1", "confirmar", "confirmo":
		return ReplyYes
	case "não", "nao", "n", "no", "2", "cancelar", "cancelo":
		return ReplyNo
	}
	return ReplyUnknown
}

type HandleReminderReply struct {
	base
}

func NewHandleReminderReply(d Deps) *HandleReminderReply {
	return &HandleReminderReply{base: newBase(d)}
}

// Execute maps the client's answer onto CONFIRMADO or CANCELADO.
func (uc *HandleReminderReply) Execute(ctx context.Context, correlationID, reply string) (*models.Booking, error) {
	kind := ParseReply(reply)
	if kind == ReplyUnknown {
		return nil, httperr.Validation("invalid_reply", "Resposta não reconhecida: %q.", reply)
	}

	var bk *models.Booking
	err := uc.repo.Transaction(ctx, func(tx booking.Repository) error {
		var err error
		bk, err = tx.GetBookingByCorrelation(ctx, correlationID)
		if errors.Is(err, booking.ErrNotFound) {
			return httperr.NotFoundErr("booking_not_found", "Nenhum agendamento para este lembrete.")
		}
		if err != nil {
			return err
		}

		now := uc.now()
		if kind == ReplyYes {
			err = booking.Transition(bk, booking.StatusConfirmed, now)
		} else {
			err = booking.Cancel(bk, booking.CancelledByClient, now)
		}
		if err != nil {
			return err
		}
		return tx.UpdateBooking(ctx, bk)
	})
	if err != nil {
		return nil, mapWriteErr(err)
	}

	if kind == ReplyNo {
		uc.invalidateProfessional(ctx, bk.ProfessionalID)
	}
	uc.record(auth.System(bk.CompanyID), "reminder_reply", "booking", bk.ID, map[string]any{
		"reply":  reply,
		"status": bk.Status,
	})
	return bk, nil
}

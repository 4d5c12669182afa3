package scheduling

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BruksfildServices01/agenda-scheduler/internal/auth"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
	"github.com/BruksfildServices01/agenda-scheduler/internal/timezone"
)

// Resolution tells CreateDateBlock what to do with the bookings inside the
// new block.
type Resolution string

const (
	ResolutionCancelAll    Resolution = "CANCELAR_TODOS"
	ResolutionCancelFuture Resolution = "CANCELAR_FUTUROS"
	ResolutionReschedule   Resolution = "REPROGRAMAR"
)

func parseResolution(s string) (Resolution, error) {
	switch r := Resolution(strings.ToUpper(strings.TrimSpace(s))); r {
	case "", ResolutionCancelAll, ResolutionCancelFuture, ResolutionReschedule:
		return r, nil
	}
	return "", httperr.Validation(
		"invalid_resolution",
		"Resolução desconhecida: %q (use %s, %s ou %s).",
		s, ResolutionCancelAll, ResolutionCancelFuture, ResolutionReschedule,
	)
}

// ======================================================
// INPUT / OUTPUT
// ======================================================

type RescheduleTarget struct {
	BookingID uint   `json:"booking_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

type CreateDateBlockInput struct {
	ProfessionalID uint
	StartDate      string
	// EndDate empty means a single day.
	EndDate     string
	Reason      string
	Resolution  string
	Reschedules []RescheduleTarget
}

// ConflictInfo describes a booking that stands in the way of a block.
type ConflictInfo struct {
	BookingID uint   `json:"booking_id"`
	Date      string `json:"date"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Status    string `json:"status"`
	Client    string `json:"client,omitempty"`
	Service   string `json:"service,omitempty"`
}

type DateBlockResult struct {
	Block       *models.DateBlock `json:"block"`
	Cancelled   []uint            `json:"cancelled"`
	Rescheduled []uint            `json:"rescheduled"`
	// Untouched lists past conflicts that CANCELAR_FUTUROS leaves as they are.
	Untouched []uint `json:"untouched"`
}

func describeConflicts(bookings []models.Booking) []ConflictInfo {
	out := make([]ConflictInfo, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, ConflictInfo{
			BookingID: b.ID,
			Date:      b.Date.Format(schedule.DateLayout),
			Start:     b.StartTime.String(),
			End:       b.StartTime.Add(b.DurationMinutes).String(),
			Status:    b.Status,
			Client:    b.Client.Name,
			Service:   b.Service.Name,
		})
	}
	return out
}

// ======================================================
// CREATE
// ======================================================

type CreateDateBlock struct {
	base
}

func NewCreateDateBlock(d Deps) *CreateDateBlock {
	return &CreateDateBlock{base: newBase(d)}
}

func (uc *CreateDateBlock) Execute(
	ctx context.Context,
	actor auth.Actor,
	in CreateDateBlockInput,
) (*DateBlockResult, error) {

	// --------------------------------------------------
	// 1. Caller and input
	// --------------------------------------------------
	caller, company, err := uc.authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	prof, err := uc.manageProfessional(ctx, caller, in.ProfessionalID)
	if err != nil {
		return nil, err
	}

	start, err := parseDate(in.StartDate)
	if err != nil {
		return nil, err
	}
	end := start
	var endPtr *time.Time
	if in.EndDate != "" {
		if end, err = parseDate(in.EndDate); err != nil {
			return nil, err
		}
		if end.Before(start) {
			return nil, httperr.Validation("invalid_range", "A data final deve ser igual ou posterior à inicial.")
		}
		endPtr = &end
	}

	resolution, err := parseResolution(in.Resolution)
	if err != nil {
		return nil, err
	}

	block := &models.DateBlock{
		ProfessionalID: prof.ID,
		StartDate:      start,
		EndDate:        endPtr,
		Reason:         strings.TrimSpace(in.Reason),
		Active:         true,
	}
	result := &DateBlockResult{Block: block, Cancelled: []uint{}, Rescheduled: []uint{}, Untouched: []uint{}}

	// --------------------------------------------------
	// 2. Transaction: detect, plan, then mutate
	// --------------------------------------------------
	err = uc.repo.Transaction(ctx, func(tx booking.Repository) error {
		existing, err := tx.FindOverlappingBlock(ctx, prof.ID, start, end)
		if err != nil {
			return err
		}
		if existing != nil {
			return httperr.Conflict(
				"block_overlap",
				"Já existe um bloqueio ativo de %s a %s.",
				existing.StartDate.Format(schedule.DateLayout),
				existing.LastDay().Format(schedule.DateLayout),
			)
		}

		conflicts, err := tx.ListBookingsInRange(ctx, prof.ID, start, end, booking.ActiveStatuses...)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 && resolution == "" {
			return httperr.Conflict(
				"block_conflicts",
				"Existem %d agendamentos no período; escolha %s, %s ou %s.",
				len(conflicts), ResolutionCancelAll, ResolutionCancelFuture, ResolutionReschedule,
			).WithDetails(describeConflicts(conflicts))
		}

		now := uc.clockFor(company)
		var moves map[uint]move
		if resolution == ResolutionReschedule && len(conflicts) > 0 {
			moves, err = planReschedules(ctx, tx, now, company, prof, block, conflicts, in.Reschedules)
			if err != nil {
				return err
			}
		}

		// Nothing below may fail on validation grounds.
		if err := tx.SaveDateBlock(ctx, block); err != nil {
			return err
		}

		for i := range conflicts {
			bk := &conflicts[i]
			switch resolution {
			case ResolutionCancelAll:
				if err := booking.Cancel(bk, booking.CancelledByProfessional, now.Now); err != nil {
					return err
				}
				result.Cancelled = append(result.Cancelled, bk.ID)

			case ResolutionCancelFuture:
				if bk.Date.Before(now.Today) {
					result.Untouched = append(result.Untouched, bk.ID)
					continue
				}
				if err := booking.Cancel(bk, booking.CancelledByProfessional, now.Now); err != nil {
					return err
				}
				result.Cancelled = append(result.Cancelled, bk.ID)

			case ResolutionReschedule:
				m := moves[bk.ID]
				booking.Reschedule(bk, m.date, m.start)
				result.Rescheduled = append(result.Rescheduled, bk.ID)
			}

			if err := tx.UpdateBooking(ctx, bk); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapWriteErr(err)
	}

	// --------------------------------------------------
	// 3. Side effects
	// --------------------------------------------------
	uc.invalidateProfessional(ctx, prof.ID)
	uc.record(actor, "date_block_created", "date_block", block.ID, map[string]any{
		"professional_id": prof.ID,
		"start":           start.Format(schedule.DateLayout),
		"end":             end.Format(schedule.DateLayout),
		"resolution":      resolution,
		"cancelled":       result.Cancelled,
		"rescheduled":     result.Rescheduled,
	})

	return result, nil
}

type move struct {
	date  time.Time
	start schedule.Clock
}

// planReschedules validates every REPROGRAMAR target before anything is
// written. Each conflict needs exactly one target; targets must not land
// inside the new block nor collide with each other.
func planReschedules(
	ctx context.Context,
	tx booking.Repository,
	now timezone.Clock,
	company *models.Company,
	prof *models.Account,
	block *models.DateBlock,
	conflicts []models.Booking,
	targets []RescheduleTarget,
) (map[uint]move, error) {
	byID := make(map[uint]*models.Booking, len(conflicts))
	for i := range conflicts {
		byID[conflicts[i].ID] = &conflicts[i]
	}

	moves := make(map[uint]move, len(targets))
	planned := map[time.Time][]schedule.TimeRange{}

	for _, t := range targets {
		bk, ok := byID[t.BookingID]
		if !ok {
			return nil, httperr.Validation(
				"unknown_reschedule_target",
				"O agendamento %d não está em conflito com o bloqueio.", t.BookingID,
			)
		}
		if _, dup := moves[t.BookingID]; dup {
			return nil, httperr.Validation(
				"duplicate_reschedule_target",
				"O agendamento %d foi informado mais de uma vez.", t.BookingID,
			)
		}

		date, err := parseDate(t.Date)
		if err != nil {
			return nil, err
		}
		start, err := parseClock(t.Time)
		if err != nil {
			return nil, err
		}

		if err := checkDate(company, date, now); err != nil {
			return nil, annotate(err, bk.ID)
		}
		if block.Covers(date) {
			return nil, httperr.Validation(
				"reschedule_inside_block",
				"O agendamento %d não pode ser remarcado para %s, que está dentro do bloqueio.",
				bk.ID, date.Format(schedule.DateLayout),
			)
		}

		window := booking.WindowAt(bk, start)
		check := slotCheck{company: company, professional: prof, date: date, window: window, exclude: []uint{bk.ID}}
		if err := checkSlot(ctx, tx, now, check); err != nil {
			return nil, annotate(err, bk.ID)
		}

		for _, other := range planned[date] {
			if window.Overlaps(other) {
				return nil, httperr.Validation(
					"reschedule_targets_overlap",
					"As novas datas informadas se sobrepõem em %s (%s e %s).",
					date.Format(schedule.DateLayout), other, window,
				)
			}
		}
		planned[date] = append(planned[date], window)
		moves[bk.ID] = move{date: date, start: start}
	}

	for _, c := range conflicts {
		if _, ok := moves[c.ID]; !ok {
			return nil, httperr.Validation(
				"missing_reschedule_target",
				"Informe a nova data e horário do agendamento %d (%s %s).",
				c.ID, c.Date.Format(schedule.DateLayout), c.StartTime,
			).WithDetails(describeConflicts([]models.Booking{c}))
		}
	}

	return moves, nil
}

// annotate tells the caller which booking a validation failure refers to.
func annotate(err error, bookingID uint) error {
	be, ok := httperr.AsBusiness(err)
	if !ok {
		return err
	}
	details := map[string]any{"booking_id": bookingID}
	if prev, ok := be.Details.(map[string]any); ok {
		for k, v := range prev {
			details[k] = v
		}
	}
	return be.WithDetails(details)
}

// ======================================================
// REMOVE / LIST
// ======================================================

type RemoveDateBlock struct {
	base
}

func NewRemoveDateBlock(d Deps) *RemoveDateBlock {
	return &RemoveDateBlock{base: newBase(d)}
}

// Execute deactivates the block; the row is kept.
func (uc *RemoveDateBlock) Execute(ctx context.Context, actor auth.Actor, blockID uint) error {
	caller, _, err := uc.authorize(ctx, actor)
	if err != nil {
		return err
	}

	block, err := uc.repo.GetDateBlock(ctx, blockID)
	if errors.Is(err, booking.ErrNotFound) {
		return httperr.NotFoundErr("date_block_not_found", "Bloqueio não encontrado.")
	}
	if err != nil {
		return err
	}
	if _, err := uc.manageProfessional(ctx, caller, block.ProfessionalID); err != nil {
		return err
	}

	if !block.Active {
		return nil
	}
	block.Active = false
	if err := uc.repo.SaveDateBlock(ctx, block); err != nil {
		return err
	}

	uc.invalidateProfessional(ctx, block.ProfessionalID)
	uc.record(actor, "date_block_removed", "date_block", block.ID, nil)
	return nil
}

type ListDateBlocks struct {
	base
}

func NewListDateBlocks(d Deps) *ListDateBlocks {
	return &ListDateBlocks{base: newBase(d)}
}

func (uc *ListDateBlocks) Execute(ctx context.Context, actor auth.Actor, professionalID uint) ([]models.DateBlock, error) {
	caller, _, err := uc.authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	prof, err := uc.manageProfessional(ctx, caller, professionalID)
	if err != nil {
		return nil, err
	}

	blocks, err := uc.repo.ListDateBlocks(ctx, prof.ID)
	if err != nil {
		return nil, err
	}
	if blocks == nil {
		blocks = []models.DateBlock{}
	}
	return blocks, nil
}

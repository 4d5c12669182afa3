package scheduling

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/agenda-scheduler/internal/audit"
	"github.com/BruksfildServices01/agenda-scheduler/internal/auth"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
	"github.com/BruksfildServices01/agenda-scheduler/internal/timezone"
)

// ======================================================
// DEPENDENCIES
// ======================================================

// Deps is shared by every use case of the package. Audit and Cache may be
// nil; Now defaults to time.Now.
type Deps struct {
	Repo  booking.Repository
	Audit *audit.Dispatcher
	Cache SlotCache
	Log   *zap.Logger
	Now   func() time.Time
}

type base struct {
	repo  booking.Repository
	audit *audit.Dispatcher
	cache SlotCache
	log   *zap.Logger
	now   func() time.Time
}

func newBase(d Deps) base {
	b := base{
		repo:  d.Repo,
		audit: d.Audit,
		cache: d.Cache,
		log:   d.Log,
		now:   d.Now,
	}
	if b.cache == nil {
		b.cache = NopCache{}
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// clockFor is "now" on the company's calendar.
func (b base) clockFor(c *models.Company) timezone.Clock {
	return timezone.In(b.now(), c.Timezone)
}

// ======================================================
// LOOKUPS
// ======================================================

func (b base) loadCompany(ctx context.Context, repo booking.Repository, id uint) (*models.Company, error) {
	company, err := repo.GetCompany(ctx, id)
	if errors.Is(err, booking.ErrNotFound) {
		return nil, httperr.NotFoundErr("company_not_found", "Empresa não encontrada.")
	}
	if err != nil {
		return nil, err
	}
	if !company.Active {
		return nil, httperr.AccountDisabled("company_disabled", "A empresa está desativada.")
	}
	return company, nil
}

func (b base) loadBooking(ctx context.Context, repo booking.Repository, id uint) (*models.Booking, error) {
	bk, err := repo.GetBooking(ctx, id)
	if errors.Is(err, booking.ErrNotFound) {
		return nil, httperr.NotFoundErr("booking_not_found", "Agendamento não encontrado.")
	}
	return bk, err
}

func (b base) loadService(ctx context.Context, repo booking.Repository, id uint) (*models.Service, error) {
	svc, err := repo.GetService(ctx, id)
	if errors.Is(err, booking.ErrNotFound) {
		return nil, httperr.NotFoundErr("service_not_found", "Serviço não encontrado.")
	}
	return svc, err
}

func (b base) loadProfessional(ctx context.Context, repo booking.Repository, id uint) (*models.Account, error) {
	prof, err := repo.GetAccount(ctx, id)
	if errors.Is(err, booking.ErrNotFound) || (err == nil && !prof.IsProfessional()) {
		return nil, httperr.NotFoundErr("professional_not_found", "Profissional não encontrado.")
	}
	return prof, err
}

// ======================================================
// ACTORS
// ======================================================

// authorize loads the calling account and its company and rejects disabled
// or foreign ones.
func (b base) authorize(ctx context.Context, actor auth.Actor) (*models.Account, *models.Company, error) {
	if !actor.IsAuthenticated() {
		return nil, nil, httperr.AccessDenied("authentication_required", "Autenticação necessária.")
	}

	account, err := b.repo.GetAccount(ctx, actor.AccountID)
	if errors.Is(err, booking.ErrNotFound) {
		return nil, nil, httperr.AccessDenied("account_not_found", "Conta não encontrada.")
	}
	if err != nil {
		return nil, nil, err
	}
	if account.CompanyID != actor.CompanyID {
		return nil, nil, httperr.AccessDenied("company_mismatch", "Conta não pertence a esta empresa.")
	}
	if !account.Active {
		return nil, nil, httperr.AccountDisabled("account_disabled", "A conta está desativada.")
	}

	company, err := b.loadCompany(ctx, b.repo, account.CompanyID)
	if err != nil {
		return nil, nil, err
	}
	return account, company, nil
}

// manageProfessional resolves the professional an owner or professional
// acts upon. Professionals may only act on themselves.
func (b base) manageProfessional(
	ctx context.Context,
	caller *models.Account,
	professionalID uint,
) (*models.Account, error) {
	if professionalID == 0 {
		professionalID = caller.ID
	}

	switch caller.Role {
	case models.RoleOwner:
	case models.RoleProfessional:
		if professionalID != caller.ID {
			return nil, httperr.AccessDenied("not_your_schedule", "Você só pode gerenciar a sua própria agenda.")
		}
	default:
		return nil, httperr.AccessDenied("professional_only", "Apenas profissionais podem realizar esta operação.")
	}

	prof, err := b.loadProfessional(ctx, b.repo, professionalID)
	if err != nil {
		return nil, err
	}
	if prof.CompanyID != caller.CompanyID {
		return nil, httperr.AccessDenied("professional_other_company", "Profissional de outra empresa.")
	}
	return prof, nil
}

// ======================================================
// SIDE EFFECTS
// ======================================================

func (b base) record(actor auth.Actor, action, entity string, id uint, meta any) {
	ev := audit.Event{
		CompanyID: actor.CompanyID,
		Action:    action,
		Entity:    entity,
		EntityID:  &id,
		Metadata:  meta,
	}
	if actor.IsAuthenticated() {
		accountID := actor.AccountID
		ev.AccountID = &accountID
	}
	b.audit.Dispatch(ev)
}

func (b base) invalidateProfessional(ctx context.Context, professionalID uint) {
	if err := b.cache.InvalidateProfessional(ctx, professionalID); err != nil {
		b.log.Warn("slot cache invalidation failed",
			zap.Uint("professional_id", professionalID), zap.Error(err))
	}
}

func (b base) invalidateCompany(ctx context.Context, companyID uint) {
	if err := b.cache.InvalidateCompany(ctx, companyID); err != nil {
		b.log.Warn("slot cache invalidation failed",
			zap.Uint("company_id", companyID), zap.Error(err))
	}
}

// ======================================================
// INPUT PARSING
// ======================================================

func parseDate(s string) (time.Time, error) {
	d, err := schedule.ParseDate(s)
	if err != nil {
		return time.Time{}, httperr.Validation("invalid_date", "Data inválida: %q (use AAAA-MM-DD).", s)
	}
	return d, nil
}

func parseClock(s string) (schedule.Clock, error) {
	c, err := schedule.ParseClock(s)
	if err != nil {
		return 0, httperr.Validation("invalid_time", "Horário inválido: %q (use HH:MM).", s)
	}
	return c, nil
}

func parseWeekday(w int) error {
	if w < 0 || w > 6 {
		return httperr.Validation("invalid_weekday", "Dia da semana inválido: %d (0=domingo a 6=sábado).", w)
	}
	return nil
}

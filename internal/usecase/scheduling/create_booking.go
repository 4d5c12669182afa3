package scheduling

import (
	"context"
	"strings"

	"github.com/BruksfildServices01/agenda-scheduler/internal/auth"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
	"github.com/BruksfildServices01/agenda-scheduler/internal/validators"
)

// ======================================================
// INPUT
// ======================================================

type CreateBookingInput struct {
	CompanyID      uint
	ServiceID      uint
	ProfessionalID uint

	Date string
	Time string

	// Guest details; ignored when the actor is a client.
	ClientName  string
	ClientPhone string
	ClientEmail string

	Notes string
}

// ======================================================
// USE CASE
// ======================================================

type CreateBooking struct {
	base
}

func NewCreateBooking(d Deps) *CreateBooking {
	return &CreateBooking{base: newBase(d)}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateBooking) Execute(
	ctx context.Context,
	actor auth.Actor,
	in CreateBookingInput,
) (*models.Booking, error) {

	// --------------------------------------------------
	// 1. Company and caller
	// --------------------------------------------------
	company, err := uc.loadCompany(ctx, uc.repo, in.CompanyID)
	if err != nil {
		return nil, err
	}
	if actor.IsAuthenticated() {
		if actor.CompanyID != company.ID {
			return nil, httperr.AccessDenied("company_mismatch", "Conta não pertence a esta empresa.")
		}
		if _, _, err := uc.authorize(ctx, actor); err != nil {
			return nil, err
		}
	}

	// --------------------------------------------------
	// 2. Date / time
	// --------------------------------------------------
	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	start, err := parseClock(in.Time)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 3. Service / professional
	// --------------------------------------------------
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

	buffer := svc.EffectiveBuffer(company.DefaultBufferMinutes)
	window := schedule.TimeRange{Start: start, End: start.Add(svc.DurationMinutes + buffer)}
	check := slotCheck{company: company, professional: prof, date: date, window: window}

	// --------------------------------------------------
	// 4. Eager validation
	// --------------------------------------------------
	if err := checkSlot(ctx, uc.repo, uc.clockFor(company), check); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 5. Client (guests are only inserted inside the transaction)
	// --------------------------------------------------
	client, err := uc.resolveClient(ctx, actor, company, in)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 6. Transaction: re-validate and insert
	// --------------------------------------------------
	bk := &models.Booking{
		CompanyID:       company.ID,
		ServiceID:       svc.ID,
		ProfessionalID:  prof.ID,
		Date:            date,
		StartTime:       window.Start,
		EndTime:         window.End,
		DurationMinutes: svc.DurationMinutes,
		BufferMinutes:   buffer,
		Price:           svc.Price,
		Status:          string(booking.InitialStatus()),
		Notes:           strings.TrimSpace(in.Notes),
	}

	err = uc.repo.Transaction(ctx, func(tx booking.Repository) error {
		if err := checkSlot(ctx, tx, uc.clockFor(company), check); err != nil {
			return err
		}
		if client.ID == 0 {
			guest, err := findOrCreateGuest(ctx, tx, client)
			if err != nil {
				return err
			}
			client = guest
		}
		bk.ClientID = client.ID
		return tx.CreateBooking(ctx, bk)
	})
	if err != nil {
		return nil, mapWriteErr(err)
	}

	bk.Service = *svc
	bk.Client = *client

	// --------------------------------------------------
	// 7. Side effects
	// --------------------------------------------------
	uc.invalidateProfessional(ctx, prof.ID)
	uc.record(auditActor(actor, company.ID), "booking_created", "booking", bk.ID, map[string]any{
		"professional_id": prof.ID,
		"date":            date.Format(schedule.DateLayout),
		"start":           window.Start.String(),
	})

	return bk, nil
}

// auditActor keeps anonymous bookings attributed to their company.
func auditActor(actor auth.Actor, companyID uint) auth.Actor {
	if actor.IsAuthenticated() {
		return actor
	}
	return auth.Actor{CompanyID: companyID}
}

// ======================================================
// CLIENT RESOLUTION
// ======================================================

// resolveClient returns the caller's client record, or an unsaved guest
// (ID 0) built from the request.

func (uc *CreateBooking) resolveClient(
	ctx context.Context,
	actor auth.Actor,
	company *models.Company,
	in CreateBookingInput,
) (*models.Client, error) {
	if actor.IsClient() {
		client, err := uc.repo.FindClientByAccount(ctx, actor.AccountID)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, httperr.NotFoundErr("client_not_found", "Cadastro de cliente não encontrado.")
		}
		if client.CompanyID != company.ID {
			return nil, httperr.AccessDenied("client_other_company", "Cliente de outra empresa.")
		}
		return client, nil
	}

	name := strings.TrimSpace(in.ClientName)
	if name == "" {
		return nil, httperr.Validation("client_name_required", "Informe o nome do cliente.")
	}
	phone, ok := validators.NormalizePhone(in.ClientPhone)
	if !ok {
		return nil, httperr.Validation("invalid_phone", "Telefone inválido: %q.", in.ClientPhone)
	}
	email := strings.TrimSpace(in.ClientEmail)
	if email != "" && !validators.IsEmailFormatValid(email) {
		return nil, httperr.Validation("invalid_email", "E-mail inválido: %q.", email)
	}

	return &models.Client{
		CompanyID: company.ID,
		Name:      name,
		Phone:     phone,
		Email:     email,
	}, nil
}

// findOrCreateGuest returns the guest with the same (company, phone) or
// inserts c. A phone that belongs to a registered client is never reused.
func findOrCreateGuest(ctx context.Context, repo booking.Repository, c *models.Client) (*models.Client, error) {
	existing, err := repo.FindClientByPhone(ctx, c.CompanyID, c.Phone)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		// Savepoint: a unique violation must not abort the caller's transaction.
		err = repo.Transaction(ctx, func(sp booking.Repository) error {
			return sp.CreateClient(ctx, c)
		})
		if err == nil {
			return c, nil
		}
		if !httperr.IsUniqueViolation(err) {
			return nil, err
		}
		// Lost the insert race: use the row that won.
		existing, err = repo.FindClientByPhone(ctx, c.CompanyID, c.Phone)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, httperr.Conflict("client_race", "Não foi possível registrar o cliente, tente novamente.")
		}
	}

	if existing.HasAccount {
		return nil, httperr.Conflict(
			"phone_registered",
			"Este telefone pertence a um cliente cadastrado; entre na sua conta para agendar.",
		)
	}
	return existing, nil
}

// ======================================================
// GUEST PROMOTION
// ======================================================

type LinkClientAccountInput struct {
	CompanyID uint
	AccountID uint
	Name      string
	Phone     string
	Email     string
}

// LinkClientAccount attaches a freshly registered client account to its
// client row, promoting an existing guest with the same phone in place.
type LinkClientAccount struct {
	base
}

func NewLinkClientAccount(d Deps) *LinkClientAccount {
	return &LinkClientAccount{base: newBase(d)}
}

func (uc *LinkClientAccount) Execute(ctx context.Context, in LinkClientAccountInput) (*models.Client, error) {
	phone, ok := validators.NormalizePhone(in.Phone)
	if !ok {
		return nil, httperr.Validation("invalid_phone", "Telefone inválido: %q.", in.Phone)
	}

	accountID := in.AccountID
	var client *models.Client

	err := uc.repo.Transaction(ctx, func(tx booking.Repository) error {
		existing, err := tx.FindClientByPhone(ctx, in.CompanyID, phone)
		if err != nil {
			return err
		}

		if existing != nil {
			if existing.HasAccount {
				return httperr.Conflict("phone_registered", "Este telefone já pertence a outro cliente cadastrado.")
			}
			existing.HasAccount = true
			existing.AccountID = &accountID
			if in.Email != "" {
				existing.Email = in.Email
			}
			client = existing
			return tx.UpdateClient(ctx, existing)
		}

		client = &models.Client{
			CompanyID:  in.CompanyID,
			Name:       strings.TrimSpace(in.Name),
			Phone:      phone,
			Email:      in.Email,
			HasAccount: true,
			AccountID:  &accountID,
		}
		return tx.CreateClient(ctx, client)
	})
	if httperr.IsUniqueViolation(err) {
		return nil, httperr.Conflict("phone_registered", "Este telefone já pertence a outro cliente cadastrado.")
	}
	if err != nil {
		return nil, err
	}

	uc.record(auth.Actor{AccountID: accountID, CompanyID: in.CompanyID}, "client_linked", "client", client.ID, nil)
	return client, nil
}

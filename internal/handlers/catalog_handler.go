package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/agenda-scheduler/internal/audit"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/agenda-scheduler/internal/middleware"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
	"github.com/BruksfildServices01/agenda-scheduler/internal/usecase/scheduling"
)

// CatalogHandler manages services, specializations, professionals and the
// client list of the caller's company.
type CatalogHandler struct {
	db    *gorm.DB
	cache scheduling.SlotCache
	audit *audit.Dispatcher
	log   *zap.Logger
}

func NewCatalogHandler(db *gorm.DB, cache scheduling.SlotCache, dispatcher *audit.Dispatcher, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{db: db, cache: cache, audit: dispatcher, log: log}
}

// --------- Requests ---------

type CreateServiceRequest struct {
	Name              string          `json:"name" binding:"required"`
	Description       string          `json:"description"`
	DurationMinutes   int             `json:"duration_minutes" binding:"required,min=1"`
	BufferMinutes     *int            `json:"buffer_minutes"`
	Price             decimal.Decimal `json:"price"`
	SpecializationIDs []uint          `json:"specialization_ids"`
}

type UpdateServiceRequest struct {
	Name            *string          `json:"name,omitempty"`
	Description     *string          `json:"description,omitempty"`
	DurationMinutes *int             `json:"duration_minutes,omitempty"`
	BufferMinutes   *int             `json:"buffer_minutes,omitempty"`
	ClearBuffer     bool             `json:"clear_buffer,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	Active          *bool            `json:"active,omitempty"`
	// SpecializationIDs replaces the set when present; an empty list opens
	// the service to every professional.
	SpecializationIDs *[]uint `json:"specialization_ids,omitempty"`
}

type CreateSpecializationRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreateProfessionalRequest struct {
	Name              string `json:"name" binding:"required"`
	Email             string `json:"email" binding:"required,email"`
	Password          string `json:"password" binding:"required,min=6"`
	Phone             string `json:"phone"`
	SpecializationIDs []uint `json:"specialization_ids"`
}

type UpdateProfessionalRequest struct {
	Active            *bool   `json:"active,omitempty"`
	SpecializationIDs *[]uint `json:"specialization_ids,omitempty"`
	BlockedServiceIDs *[]uint `json:"blocked_service_ids,omitempty"`
}

// ======================================================
// SERVICES
// ======================================================

func (h *CatalogHandler) ListServices(c *gin.Context) {
	acc, ok := caller(c, h.db)
	if !ok {
		return
	}

	activeStr := strings.TrimSpace(c.Query("active"))
	query := strings.ToLower(strings.TrimSpace(c.Query("query")))

	q := h.db.WithContext(c.Request.Context()).
		Preload("Specializations").
		Where("company_id = ?", acc.CompanyID)

	switch activeStr {
	case "true":
		q = q.Where("active = ?", true)
	case "false":
		q = q.Where("active = ?", false)
	}

	if query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var services []models.Service
	if err := q.Order("id ASC").Find(&services).Error; err != nil {
		httperr.Internal(c, "failed_to_list_services", "Erro ao listar serviços.")
		return
	}

	httpresp.List(c, services)
}

func (h *CatalogHandler) CreateService(c *gin.Context) {
	if _, ok := ownerOnly(c, h.db); !ok {
		return
	}
	actor := middleware.ActorFrom(c)

	var req CreateServiceRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Price.IsNegative() {
		httperr.BadRequest(c, "invalid_price", "O preço não pode ser negativo.")
		return
	}
	if req.BufferMinutes != nil && *req.BufferMinutes < 0 {
		httperr.BadRequest(c, "invalid_buffer", "O intervalo deve ser zero ou positivo (em minutos).")
		return
	}

	svc := models.Service{
		CompanyID:       actor.CompanyID,
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		BufferMinutes:   req.BufferMinutes,
		Price:           req.Price.Round(2),
		Active:          true,
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		specs, err := specializationsOf(tx, actor.CompanyID, req.SpecializationIDs)
		if err != nil {
			return err
		}
		svc.Specializations = specs
		return tx.Create(&svc).Error
	})
	if err != nil {
		httperr.Respond(c, h.log, err)
		return
	}

	writeAudit(h.audit, actor, "service_created", "service", svc.ID, nil)
	httpresp.Created(c, svc)
}

func (h *CatalogHandler) UpdateService(c *gin.Context) {
	if _, ok := ownerOnly(c, h.db); !ok {
		return
	}
	actor := middleware.ActorFrom(c)

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req UpdateServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	var svc models.Service
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND company_id = ?", id, actor.CompanyID).First(&svc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return httperr.NotFoundErr("service_not_found", "Serviço não encontrado.")
			}
			return err
		}

		if req.Name != nil {
			svc.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			svc.Description = *req.Description
		}
		if req.DurationMinutes != nil {
			if *req.DurationMinutes < 1 {
				return httperr.Validation("invalid_duration", "A duração deve ser de pelo menos 1 minuto.")
			}
			svc.DurationMinutes = *req.DurationMinutes
		}
		if req.ClearBuffer {
			svc.BufferMinutes = nil
		} else if req.BufferMinutes != nil {
			if *req.BufferMinutes < 0 {
				return httperr.Validation("invalid_buffer", "O intervalo deve ser zero ou positivo (em minutos).")
			}
			svc.BufferMinutes = req.BufferMinutes
		}
		if req.Price != nil {
			if req.Price.IsNegative() {
				return httperr.Validation("invalid_price", "O preço não pode ser negativo.")
			}
			svc.Price = req.Price.Round(2)
		}
		if req.Active != nil {
			svc.Active = *req.Active
		}

		if err := tx.Omit("Specializations").Save(&svc).Error; err != nil {
			return err
		}

		if req.SpecializationIDs != nil {
			specs, err := specializationsOf(tx, actor.CompanyID, *req.SpecializationIDs)
			if err != nil {
				return err
			}
			if err := tx.Model(&svc).Association("Specializations").Replace(specs); err != nil {
				return err
			}
		}
		return tx.Preload("Specializations").First(&svc, svc.ID).Error
	})
	if err != nil {
		httperr.Respond(c, h.log, err)
		return
	}

	invalidateCompany(c.Request.Context(), h.cache, h.log, actor.CompanyID)
	writeAudit(h.audit, actor, "service_updated", "service", svc.ID, nil)
	httpresp.OK(c, svc)
}

// ======================================================
// SPECIALIZATIONS
// ======================================================

func (h *CatalogHandler) ListSpecializations(c *gin.Context) {
	acc, ok := caller(c, h.db)
	if !ok {
		return
	}

	var specs []models.Specialization
	if err := h.db.WithContext(c.Request.Context()).
		Where("company_id = ?", acc.CompanyID).
		Order("name ASC").
		Find(&specs).Error; err != nil {
		httperr.Internal(c, "failed_to_list_specializations", "Erro ao listar especialidades.")
		return
	}
	httpresp.List(c, specs)
}

func (h *CatalogHandler) CreateSpecialization(c *gin.Context) {
	if _, ok := ownerOnly(c, h.db); !ok {
		return
	}
	actor := middleware.ActorFrom(c)

	var req CreateSpecializationRequest
	if !bindJSON(c, &req) {
		return
	}

	spec := models.Specialization{CompanyID: actor.CompanyID, Name: strings.TrimSpace(req.Name)}
	if err := h.db.WithContext(c.Request.Context()).Create(&spec).Error; err != nil {
		httperr.Respond(c, h.log, err)
		return
	}

	writeAudit(h.audit, actor, "specialization_created", "specialization", spec.ID, nil)
	httpresp.Created(c, spec)
}

// ======================================================
// PROFESSIONALS
// ======================================================

func (h *CatalogHandler) ListProfessionals(c *gin.Context) {
	acc, ok := caller(c, h.db)
	if !ok {
		return
	}

	var profs []models.Account
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Specializations").
		Preload("BlockedServices").
		Where("company_id = ? AND role IN ?", acc.CompanyID, []string{models.RoleOwner, models.RoleProfessional}).
		Order("id ASC").
		Find(&profs).Error; err != nil {
		httperr.Internal(c, "failed_to_list_professionals", "Erro ao listar profissionais.")
		return
	}
	httpresp.List(c, profs)
}

func (h *CatalogHandler) CreateProfessional(c *gin.Context) {
	if _, ok := ownerOnly(c, h.db); !ok {
		return
	}
	actor := middleware.ActorFrom(c)

	var req CreateProfessionalRequest
	if !bindJSON(c, &req) {
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Internal(c, "failed_to_hash_password", "Erro ao processar senha.")
		return
	}

	prof := models.Account{
		CompanyID:    actor.CompanyID,
		Name:         req.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hashed),
		Phone:        req.Phone,
		Role:         models.RoleProfessional,
		Active:       true,
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		specs, err := specializationsOf(tx, actor.CompanyID, req.SpecializationIDs)
		if err != nil {
			return err
		}
		prof.Specializations = specs
		return tx.Create(&prof).Error
	})
	if err != nil {
		if httperr.IsUniqueViolation(err) {
			httperr.Write(c, http.StatusConflict, "email_registered", "E-mail já cadastrado.")
			return
		}
		httperr.Respond(c, h.log, err)
		return
	}

	writeAudit(h.audit, actor, "professional_created", "account", prof.ID, nil)
	httpresp.Created(c, prof)
}

// UpdateProfessional toggles a professional and rewrites what they may
// perform. Owners are professionals too and can be updated the same way.
func (h *CatalogHandler) UpdateProfessional(c *gin.Context) {
	if _, ok := ownerOnly(c, h.db); !ok {
		return
	}
	actor := middleware.ActorFrom(c)

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req UpdateProfessionalRequest
	if !bindJSON(c, &req) {
		return
	}

	var prof models.Account
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND company_id = ?", id, actor.CompanyID).First(&prof).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return httperr.NotFoundErr("professional_not_found", "Profissional não encontrado.")
			}
			return err
		}
		if !prof.IsProfessional() {
			return httperr.NotFoundErr("professional_not_found", "Profissional não encontrado.")
		}

		if req.Active != nil {
			if !*req.Active && prof.ID == actor.AccountID {
				return httperr.Validation("cannot_disable_self", "Você não pode desativar a própria conta.")
			}
			if err := tx.Model(&prof).Update("active", *req.Active).Error; err != nil {
				return err
			}
		}
		if req.SpecializationIDs != nil {
			specs, err := specializationsOf(tx, actor.CompanyID, *req.SpecializationIDs)
			if err != nil {
				return err
			}
			if err := tx.Model(&prof).Association("Specializations").Replace(specs); err != nil {
				return err
			}
		}
		if req.BlockedServiceIDs != nil {
			services, err := servicesOf(tx, actor.CompanyID, *req.BlockedServiceIDs)
			if err != nil {
				return err
			}
			if err := tx.Model(&prof).Association("BlockedServices").Replace(services); err != nil {
				return err
			}
		}

		return tx.Preload("Specializations").Preload("BlockedServices").First(&prof, prof.ID).Error
	})
	if err != nil {
		httperr.Respond(c, h.log, err)
		return
	}

	invalidateProfessional(c.Request.Context(), h.cache, h.log, prof.ID)
	writeAudit(h.audit, actor, "professional_updated", "account", prof.ID, req)
	httpresp.OK(c, prof)
}

// ======================================================
// CLIENTS
// ======================================================

func (h *CatalogHandler) ListClients(c *gin.Context) {
	acc, ok := caller(c, h.db)
	if !ok {
		return
	}
	if !acc.IsProfessional() {
		httperr.Forbidden(c, "professional_only", "Apenas profissionais podem listar clientes.")
		return
	}

	query := strings.ToLower(strings.TrimSpace(c.Query("query")))

	q := h.db.WithContext(c.Request.Context()).Where("company_id = ?", acc.CompanyID)
	if query != "" {
		like := "%" + query + "%"
		q = q.Where(
			"LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?",
			like, like, like,
		)
	}

	var clients []models.Client
	if err := q.Order("created_at DESC").Find(&clients).Error; err != nil {
		httperr.Internal(c, "failed_to_list_clients", "Erro ao listar clientes.")
		return
	}
	httpresp.List(c, clients)
}

// ======================================================
// HELPERS
// ======================================================

func specializationsOf(tx *gorm.DB, companyID uint, ids []uint) ([]models.Specialization, error) {
	specs := []models.Specialization{}
	if len(ids) == 0 {
		return specs, nil
	}
	ids = uniqueIDs(ids)
	if err := tx.Where("company_id = ? AND id IN ?", companyID, ids).Find(&specs).Error; err != nil {
		return nil, err
	}
	if len(specs) != len(ids) {
		return nil, httperr.Validation("unknown_specialization", "Especialidade inexistente nesta empresa.")
	}
	return specs, nil
}

func servicesOf(tx *gorm.DB, companyID uint, ids []uint) ([]models.Service, error) {
	services := []models.Service{}
	if len(ids) == 0 {
		return services, nil
	}
	ids = uniqueIDs(ids)
	if err := tx.Where("company_id = ? AND id IN ?", companyID, ids).Find(&services).Error; err != nil {
		return nil, err
	}
	if len(services) != len(ids) {
		return nil, httperr.Validation("unknown_service", "Serviço inexistente nesta empresa.")
	}
	return services, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

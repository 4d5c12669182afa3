package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/agenda-scheduler/internal/audit"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/middleware"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
	"github.com/BruksfildServices01/agenda-scheduler/internal/timezone"
	"github.com/BruksfildServices01/agenda-scheduler/internal/usecase/scheduling"
)

type CompanyHandler struct {
	db    *gorm.DB
	cache scheduling.SlotCache
	audit *audit.Dispatcher
	log   *zap.Logger
}

func NewCompanyHandler(db *gorm.DB, cache scheduling.SlotCache, dispatcher *audit.Dispatcher, log *zap.Logger) *CompanyHandler {
	return &CompanyHandler{db: db, cache: cache, audit: dispatcher, log: log}
}

type UpdateCompanyRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`

	Timezone             *string `json:"timezone"`
	DefaultBufferMinutes *int    `json:"default_buffer_minutes"`
	MinLeadMinutes       *int    `json:"min_lead_minutes"`
	MaxAdvanceDays       *int    `json:"max_advance_days"`
}

func (h *CompanyHandler) Get(c *gin.Context) {
	acc, ok := caller(c, h.db)
	if !ok {
		return
	}

	var company models.Company
	if err := h.db.WithContext(c.Request.Context()).First(&company, acc.CompanyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			httperr.NotFound(c, "company_not_found", "Empresa não encontrada.")
			return
		}
		httperr.Respond(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, company)
}

// Update changes the booking rules of the company. Any change to them
// reshapes every slot list, so the whole company cache is dropped.
func (h *CompanyHandler) Update(c *gin.Context) {
	if _, ok := ownerOnly(c, h.db); !ok {
		return
	}
	actor := middleware.ActorFrom(c)

	var company models.Company
	if err := h.db.WithContext(c.Request.Context()).First(&company, actor.CompanyID).Error; err != nil {
		httperr.Respond(c, h.log, err)
		return
	}

	var req UpdateCompanyRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			httperr.BadRequest(c, "invalid_name", "Nome obrigatório.")
			return
		}
		company.Name = name
	}
	if req.Phone != nil {
		company.Phone = *req.Phone
	}
	if req.Address != nil {
		company.Address = *req.Address
	}
	if req.Timezone != nil {
		if !timezone.IsValid(*req.Timezone) {
			httperr.BadRequest(c, "invalid_timezone", "Fuso horário inválido.")
			return
		}
		company.Timezone = *req.Timezone
	}
	if req.DefaultBufferMinutes != nil {
		if *req.DefaultBufferMinutes < 0 {
			httperr.BadRequest(c, "invalid_buffer", "O intervalo padrão deve ser zero ou positivo (em minutos).")
			return
		}
		company.DefaultBufferMinutes = *req.DefaultBufferMinutes
	}
	if req.MinLeadMinutes != nil {
		if *req.MinLeadMinutes < 0 {
			httperr.BadRequest(c, "invalid_min_lead", "Antecedência mínima deve ser zero ou positiva (em minutos).")
			return
		}
		company.MinLeadMinutes = *req.MinLeadMinutes
	}
	if req.MaxAdvanceDays != nil {
		if *req.MaxAdvanceDays < 0 {
			httperr.BadRequest(c, "invalid_max_advance", "Antecedência máxima deve ser zero ou positiva (em dias).")
			return
		}
		company.MaxAdvanceDays = *req.MaxAdvanceDays
	}

	if err := h.db.WithContext(c.Request.Context()).Save(&company).Error; err != nil {
		httperr.Internal(c, "failed_to_update_company", "Erro ao salvar as configurações da empresa.")
		return
	}

	invalidateCompany(c.Request.Context(), h.cache, h.log, company.ID)
	writeAudit(h.audit, actor, "company_updated", "company", company.ID, req)

	c.JSON(http.StatusOK, company)
}

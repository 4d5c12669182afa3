package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/agenda-scheduler/internal/middleware"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
	"github.com/BruksfildServices01/agenda-scheduler/internal/usecase/scheduling"
)

////////////////////////////////////////////////////////
// HANDLER
////////////////////////////////////////////////////////

type PublicHandler struct {
	db     *gorm.DB
	repo   booking.Repository
	slots  *scheduling.GetSlots
	create *scheduling.CreateBooking
	log    *zap.Logger
}

func NewPublicHandler(
	db *gorm.DB,
	repo booking.Repository,
	slots *scheduling.GetSlots,
	create *scheduling.CreateBooking,
	log *zap.Logger,
) *PublicHandler {
	return &PublicHandler{db: db, repo: repo, slots: slots, create: create, log: log}
}

////////////////////////////////////////////////////////
// DTOs
////////////////////////////////////////////////////////

type PublicCreateBookingRequest struct {
	ServiceID      uint   `json:"service_id" binding:"required"`
	ProfessionalID uint   `json:"professional_id" binding:"required"`
	Date           string `json:"date" binding:"required"` // YYYY-MM-DD
	Time           string `json:"time" binding:"required"` // HH:mm

	// Ignored when the request carries a client token.
	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`
	ClientEmail string `json:"client_email"`
	Notes       string `json:"notes"`
}

type publicProfessional struct {
	ID              uint                    `json:"id"`
	Name            string                  `json:"name"`
	Specializations []models.Specialization `json:"specializations"`
}

////////////////////////////////////////////////////////
// COMPANY
////////////////////////////////////////////////////////

func (h *PublicHandler) company(c *gin.Context) (*models.Company, bool) {
	company, err := h.repo.GetCompanyBySlug(c.Request.Context(), strings.ToLower(c.Param("slug")))
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			httperr.NotFound(c, "company_not_found", "Empresa não encontrada.")
			return nil, false
		}
		httperr.Respond(c, h.log, err)
		return nil, false
	}
	if !company.Active {
		httperr.Forbidden(c, "company_disabled", "Empresa desativada.")
		return nil, false
	}
	return company, true
}

func (h *PublicHandler) Company(c *gin.Context) {
	company, ok := h.company(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"company":          companyView(company),
		"min_lead_minutes": company.MinLeadMinutes,
		"max_advance_days": company.MaxAdvanceDays,
	})
}

////////////////////////////////////////////////////////
// CATALOG
////////////////////////////////////////////////////////

func (h *PublicHandler) ListServices(c *gin.Context) {
	company, ok := h.company(c)
	if !ok {
		return
	}

	query := strings.TrimSpace(strings.ToLower(c.Query("query")))
	q := h.db.WithContext(c.Request.Context()).
		Preload("Specializations").
		Where("company_id = ? AND active = true", company.ID)

	if query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if raw := c.Query("min_price"); raw != "" {
		minPrice, err := decimal.NewFromString(raw)
		if err != nil {
			httperr.BadRequest(c, "invalid_min_price", "min_price inválido.")
			return
		}
		q = q.Where("price >= ?", minPrice)
	}
	if raw := c.Query("max_price"); raw != "" {
		maxPrice, err := decimal.NewFromString(raw)
		if err != nil {
			httperr.BadRequest(c, "invalid_max_price", "max_price inválido.")
			return
		}
		q = q.Where("price <= ?", maxPrice)
	}

	var services []models.Service
	if err := q.Order("id ASC").Find(&services).Error; err != nil {
		httperr.Internal(c, "failed_to_list_services", "Erro ao listar serviços.")
		return
	}
	httpresp.List(c, services)
}

func (h *PublicHandler) ListProfessionals(c *gin.Context) {
	company, ok := h.company(c)
	if !ok {
		return
	}

	var accounts []models.Account
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Specializations").
		Where("company_id = ? AND active = true AND role IN ?", company.ID,
			[]string{models.RoleOwner, models.RoleProfessional}).
		Order("name ASC").
		Find(&accounts).Error; err != nil {
		httperr.Internal(c, "failed_to_list_professionals", "Erro ao listar profissionais.")
		return
	}

	out := make([]publicProfessional, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, publicProfessional{ID: a.ID, Name: a.Name, Specializations: a.Specializations})
	}
	httpresp.List(c, out)
}

////////////////////////////////////////////////////////
// SLOTS
////////////////////////////////////////////////////////

func (h *PublicHandler) Slots(c *gin.Context) {
	company, ok := h.company(c)
	if !ok {
		return
	}

	serviceID, ok := queryID(c, "service_id")
	if !ok {
		return
	}
	profID, ok := queryID(c, "professional_id")
	if !ok {
		return
	}
	date := c.Query("date")
	if date == "" || serviceID == 0 || profID == 0 {
		httperr.BadRequest(c, "missing_params", "Data, serviço e profissional são obrigatórios.")
		return
	}

	res, err := h.slots.Execute(c.Request.Context(), scheduling.GetSlotsInput{
		CompanyID:      company.ID,
		ServiceID:      serviceID,
		ProfessionalID: profID,
		Date:           date,
	})
	if err != nil {
		httperr.Respond(c, h.log, err)
		return
	}
	httpresp.OK(c, res)
}

////////////////////////////////////////////////////////
// CREATE BOOKING
////////////////////////////////////////////////////////

// CreateBooking serves guests and logged-in clients alike; a client token
// makes the stored client record win over the body's contact fields.
func (h *PublicHandler) CreateBooking(c *gin.Context) {
	company, ok := h.company(c)
	if !ok {
		return
	}

	var req PublicCreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	bk, err := h.create.Execute(c.Request.Context(), middleware.ActorFrom(c), scheduling.CreateBookingInput{
		CompanyID:      company.ID,
		ServiceID:      req.ServiceID,
		ProfessionalID: req.ProfessionalID,
		Date:           req.Date,
		Time:           req.Time,
		ClientName:     req.ClientName,
		ClientPhone:    req.ClientPhone,
		ClientEmail:    req.ClientEmail,
		Notes:          req.Notes,
	})
	if err != nil {
		httperr.Respond(c, h.log, err)
		return
	}
	httpresp.Created(c, bk)
}

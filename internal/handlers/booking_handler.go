package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/agenda-scheduler/internal/dto"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/agenda-scheduler/internal/middleware"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
	"github.com/BruksfildServices01/agenda-scheduler/internal/usecase/scheduling"
)

// ======================================================
// HANDLER
// ======================================================

type BookingHandler struct {
	db *gorm.DB

	create    *scheduling.CreateBooking
	list      *scheduling.ListBookings
	status    *scheduling.ChangeBookingStatus
	cancel    *scheduling.CancelBookingByClient
	reprogram *scheduling.ReprogramBookingByClient

	log *zap.Logger
}

func NewBookingHandler(
	db *gorm.DB,
	create *scheduling.CreateBooking,
	list *scheduling.ListBookings,
	status *scheduling.ChangeBookingStatus,
	cancel *scheduling.CancelBookingByClient,
	reprogram *scheduling.ReprogramBookingByClient,
	log *zap.Logger,
) *BookingHandler {
	return &BookingHandler{
		db:        db,
		create:    create,
		list:      list,
		status:    status,
		cancel:    cancel,
		reprogram: reprogram,
		log:       log,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateBookingRequest struct {
	ServiceID      uint   `json:"service_id" binding:"required"`
	ProfessionalID uint   `json:"professional_id"`
	Date           string `json:"date" binding:"required"` // YYYY-MM-DD
	Time           string `json:"time" binding:"required"` // HH:mm

	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`
	ClientEmail string `json:"client_email"`
	Notes       string `json:"notes"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ReprogramRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

// ======================================================
// PROFESSIONAL AGENDA
// ======================================================

// List returns the agenda of one professional (the caller by default)
// between from and to, inclusive.
func (h *BookingHandler) List(c *gin.Context) {
	profID, ok := queryID(c, "professional_id")
	if !ok {
		return
	}

	from := c.Query("from")
	if from == "" {
		from = c.Query("date")
	}
	if from == "" {
		httperr.BadRequest(c, "missing_date", "Data obrigatória.")
		return
	}

	bookings, err := h.list.Execute(c.Request.Context(), middleware.ActorFrom(c), scheduling.ListBookingsInput{
		ProfessionalID: profID,
		From:           from,
		To:             c.Query("to"),
		Status:         c.Query("status"),
	})
	if err != nil {
		httperr.Respond(c, h.log, err)
		return
	}
	httpresp.List(c, dto.FromBookings(bookings))
}

// Create books on behalf of a guest from the professional's side. When
// professional_id is omitted the caller is booked.
func (h *BookingHandler) Create(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	var req CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	profID := req.ProfessionalID
	if profID == 0 {
		profID = actor.AccountID
	}

	bk, err := h.create.Execute(c.Request.Context(), actor, scheduling.CreateBookingInput{
		CompanyID:      actor.CompanyID,
		ServiceID:      req.ServiceID,
		ProfessionalID: profID,
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

func (h *BookingHandler) ChangeStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req ChangeStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	bk, err := h.status.Execute(c.Request.Context(), middleware.ActorFrom(c), id, req.Status)
	if err != nil {
		httperr.Respond(c, h.log, err)
		return
	}
	httpresp.OK(c, bk)
}

// ======================================================
// CLIENT SIDE
// ======================================================

// MyBookings lists the calling client's bookings, newest first.
func (h *BookingHandler) MyBookings(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	if !actor.IsClient() {
		httperr.Forbidden(c, "client_only", "Apenas clientes podem consultar seus agendamentos.")
		return
	}

	var bookings []models.Booking
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Service").
		Preload("Client").
		Joins("JOIN clients ON clients.id = bookings.client_id").
		Where("clients.account_id = ? AND bookings.company_id = ?", actor.AccountID, actor.CompanyID).
		Order("bookings.date DESC, bookings.start_minute DESC").
		Find(&bookings).Error; err != nil {
		httperr.Respond(c, h.log, err)
		return
	}
	httpresp.List(c, dto.FromBookings(bookings))
}

func (h *BookingHandler) ClientCancel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	bk, err := h.cancel.Execute(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		httperr.Respond(c, h.log, err)
		return
	}
	httpresp.OK(c, bk)
}

func (h *BookingHandler) ClientReprogram(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req ReprogramRequest
	if !bindJSON(c, &req) {
		return
	}

	bk, err := h.reprogram.Execute(c.Request.Context(), middleware.ActorFrom(c), scheduling.ReprogramBookingInput{
		BookingID: id,
		Date:      req.Date,
		Time:      req.Time,
	})
	if err != nil {
		httperr.Respond(c, h.log, err)
		return
	}
	httpresp.OK(c, bk)
}

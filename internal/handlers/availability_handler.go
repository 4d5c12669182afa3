package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/agenda-scheduler/internal/middleware"
	"github.com/BruksfildServices01/agenda-scheduler/internal/usecase/scheduling"
)

type AvailabilityHandler struct {
	repo   booking.Repository
	week   *scheduling.AvailabilityResolver
	save   *scheduling.SaveAvailability
	remove *scheduling.DeleteAvailability
	log    *zap.Logger
}

func NewAvailabilityHandler(
	repo booking.Repository,
	week *scheduling.AvailabilityResolver,
	save *scheduling.SaveAvailability,
	remove *scheduling.DeleteAvailability,
	log *zap.Logger,
) *AvailabilityHandler {
	return &AvailabilityHandler{repo: repo, week: week, save: save, remove: remove, log: log}
}

type AvailabilityRequest struct {
	ProfessionalID uint   `json:"professional_id"`
	Weekday        int    `json:"weekday"`
	StartTime      string `json:"start_time" binding:"required"`
	EndTime        string `json:"end_time" binding:"required"`
}

// Week returns the resolved hours of each weekday and where they come from.
func (h *AvailabilityHandler) Week(c *gin.Context) {
	profID, ok := queryID(c, "professional_id")
	if !ok {
		return
	}

	days, err := h.week.Week(c.Request.Context(), middleware.ActorFrom(c), profID)
	if err != nil {
		httperr.Respond(c, h.log, err)
		return
	}
	httpresp.List(c, days)
}

// Ranges lists the professional's own rows, which are what gets edited.
func (h *AvailabilityHandler) Ranges(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	profID, ok := queryID(c, "professional_id")
	if !ok {
		return
	}
	if profID == 0 {
		profID = actor.AccountID
	}

	prof, err := h.repo.GetAccount(c.Request.Context(), profID)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			httperr.NotFound(c, "professional_not_found", "Profissional não encontrado.")
			return
		}
		httperr.Respond(c, h.log, err)
		return
	}
	if prof.CompanyID != actor.CompanyID {
		httperr.Forbidden(c, "professional_other_company", "Profissional de outra empresa.")
		return
	}

	rows, err := h.repo.ListAllAvailability(c.Request.Context(), prof.ID)
	if err != nil {
		httperr.Respond(c, h.log, err)
		return
	}
	httpresp.List(c, rows)
}

func (h *AvailabilityHandler) Create(c *gin.Context) {
	var req AvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}
	h.store(c, 0, req)
}

func (h *AvailabilityHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req AvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}
	h.store(c, id, req)
}

func (h *AvailabilityHandler) store(c *gin.Context, id uint, req AvailabilityRequest) {
	row, err := h.save.Execute(c.Request.Context(), middleware.ActorFrom(c), scheduling.SaveAvailabilityInput{
		ID:             id,
		ProfessionalID: req.ProfessionalID,
		Weekday:        req.Weekday,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
	})
	if err != nil {
		httperr.Respond(c, h.log, err)
		return
	}
	if id == 0 {
		httpresp.Created(c, row)
		return
	}
	httpresp.OK(c, row)
}

func (h *AvailabilityHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.remove.Execute(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		httperr.Respond(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

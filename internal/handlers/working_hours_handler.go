package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/agenda-scheduler/internal/middleware"
	"github.com/BruksfildServices01/agenda-scheduler/internal/usecase/scheduling"
)

type WorkingHoursHandler struct {
	repo booking.Repository
	save *scheduling.SaveWorkingHours
	log  *zap.Logger
}

func NewWorkingHoursHandler(repo booking.Repository, save *scheduling.SaveWorkingHours, log *zap.Logger) *WorkingHoursHandler {
	return &WorkingHoursHandler{repo: repo, save: save, log: log}
}

type WorkingHoursUpdateRequest struct {
	Days []scheduling.WorkingDayInput `json:"days" binding:"required"`
}

func (h *WorkingHoursHandler) Get(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	hours, err := h.repo.ListAllWorkingHours(c.Request.Context(), actor.CompanyID)
	if err != nil {
		httperr.Respond(c, h.log, err)
		return
	}
	httpresp.List(c, hours)
}

// Update replaces the whole week; weekdays left out are closed.
func (h *WorkingHoursHandler) Update(c *gin.Context) {
	var req WorkingHoursUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	hours, err := h.save.Execute(c.Request.Context(), middleware.ActorFrom(c), req.Days)
	if err != nil {
		httperr.Respond(c, h.log, err)
		return
	}
	httpresp.List(c, hours)
}

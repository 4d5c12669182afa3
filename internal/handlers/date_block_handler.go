package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/agenda-scheduler/internal/middleware"
	"github.com/BruksfildServices01/agenda-scheduler/internal/usecase/scheduling"
)

type DateBlockHandler struct {
	create  *scheduling.CreateDateBlock
	remove  *scheduling.RemoveDateBlock
	list    *scheduling.ListDateBlocks
	suggest *scheduling.SuggestSlots
	log     *zap.Logger
}

func NewDateBlockHandler(
	create *scheduling.CreateDateBlock,
	remove *scheduling.RemoveDateBlock,
	list *scheduling.ListDateBlocks,
	suggest *scheduling.SuggestSlots,
	log *zap.Logger,
) *DateBlockHandler {
	return &DateBlockHandler{create: create, remove: remove, list: list, suggest: suggest, log: log}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateDateBlockRequest struct {
	ProfessionalID uint   `json:"professional_id"`
	StartDate      string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate        string `json:"end_date"`
	Reason         string `json:"reason"`

	// Resolution is required only when bookings stand in the way:
	// CANCELAR_TODOS, CANCELAR_FUTUROS or REPROGRAMAR.
	Resolution  string                        `json:"resolution"`
	Reschedules []scheduling.RescheduleTarget `json:"reschedules"`
}

// ======================================================
// HANDLERS
// ======================================================

func (h *DateBlockHandler) List(c *gin.Context) {
	profID, ok := queryID(c, "professional_id")
	if !ok {
		return
	}

	blocks, err := h.list.Execute(c.Request.Context(), middleware.ActorFrom(c), profID)
	if err != nil {
		httperr.Respond(c, h.log, err)
		return
	}
	httpresp.List(c, blocks)
}

// Create answers 409 block_conflicts with the conflicting bookings in
// details when a resolution is needed and missing.
func (h *DateBlockHandler) Create(c *gin.Context) {
	var req CreateDateBlockRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.create.Execute(c.Request.Context(), middleware.ActorFrom(c), scheduling.CreateDateBlockInput{
		ProfessionalID: req.ProfessionalID,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Reason:         req.Reason,
		Resolution:     req.Resolution,
		Reschedules:    req.Reschedules,
	})
	if err != nil {
		httperr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *DateBlockHandler) Remove(c *gin.Context) {
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

// Suggest lists alternative slots for a booking, optionally skipping the
// days of a block that is still being planned.
func (h *DateBlockHandler) Suggest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	suggestions, err := h.suggest.Execute(c.Request.Context(), middleware.ActorFrom(c), scheduling.SuggestSlotsInput{
		BookingID: id,
		SkipFrom:  c.Query("skip_from"),
		SkipTo:    c.Query("skip_to"),
	})
	if err != nil {
		httperr.Respond(c, h.log, err)
		return
	}
	httpresp.List(c, suggestions)
}

package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/agenda-scheduler/internal/audit"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
)

// ======================================================
// HANDLER
// ======================================================

type AuditLogsHandler struct {
	db    *gorm.DB
	store *audit.GormStore
	log   *zap.Logger
}

func NewAuditLogsHandler(db *gorm.DB, store *audit.GormStore, log *zap.Logger) *AuditLogsHandler {
	return &AuditLogsHandler{db: db, store: store, log: log}
}

func (h *AuditLogsHandler) List(c *gin.Context) {
	acc, ok := ownerOnly(c, h.db)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	// --------------------------------------------------
	// Filtros opcionais
	// --------------------------------------------------
	f := audit.ListFilter{
		Action: c.Query("action"),
		Entity: c.Query("entity"),
		Page:   page,
		Limit:  limit,
	}
	if raw := c.Query("from"); raw != "" {
		from, err := schedule.ParseDate(raw)
		if err != nil {
			httperr.BadRequest(c, "invalid_from", "Data inicial inválida.")
			return
		}
		f.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := schedule.ParseDate(raw)
		if err != nil {
			httperr.BadRequest(c, "invalid_to", "Data final inválida.")
			return
		}
		f.To = &to
	}
	f.Normalize()

	logs, total, err := h.store.List(c.Request.Context(), acc.CompanyID, f)
	if err != nil {
		httperr.Internal(c, "audit_list_failed", "Erro ao listar logs.")
		return
	}

	httpresp.Page[models.AuditLog](c, logs, f.Page, f.Limit, total)
}

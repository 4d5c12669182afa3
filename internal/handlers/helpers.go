package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/agenda-scheduler/internal/audit"
	"github.com/BruksfildServices01/agenda-scheduler/internal/auth"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/middleware"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
	"github.com/BruksfildServices01/agenda-scheduler/internal/usecase/scheduling"
)

// ======================================================
// REQUEST PARSING
// ======================================================

func paramID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		httperr.BadRequest(c, "invalid_id", "Identificador inválido.")
		return 0, false
	}
	return uint(v), true
}

// queryID reads an optional numeric query parameter; absent means zero.
func queryID(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_"+name, "Parâmetro inválido: "+name+".")
		return 0, false
	}
	return uint(v), true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, httperr.HTTPError{
			Code:    "invalid_request",
			Message: "Dados inválidos.",
			Details: err.Error(),
		})
		return false
	}
	return true
}

// ======================================================
// CALLER
// ======================================================

// caller reloads the token's account so a disabled account or a role change
// takes effect before the token expires.
func caller(c *gin.Context, db *gorm.DB) (*models.Account, bool) {
	actor := middleware.ActorFrom(c)

	var acc models.Account
	if err := db.WithContext(c.Request.Context()).First(&acc, actor.AccountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.Unauthorized(c, "account_not_found", "Conta não encontrada.")
			return nil, false
		}
		httperr.Internal(c, "internal_error", "Erro inesperado. Tente novamente mais tarde.")
		return nil, false
	}
	if acc.CompanyID != actor.CompanyID {
		httperr.Forbidden(c, "company_mismatch", "Conta não pertence a esta empresa.")
		return nil, false
	}
	if !acc.Active {
		httperr.Forbidden(c, "account_disabled", "Conta desativada.")
		return nil, false
	}
	return &acc, true
}

func ownerOnly(c *gin.Context, db *gorm.DB) (*models.Account, bool) {
	acc, ok := caller(c, db)
	if !ok {
		return nil, false
	}
	if acc.Role != models.RoleOwner {
		httperr.Forbidden(c, "owner_only", "Apenas o proprietário pode realizar esta ação.")
		return nil, false
	}
	return acc, true
}

// ======================================================
// SIDE EFFECTS
// ======================================================

func writeAudit(
	d *audit.Dispatcher,
	actor auth.Actor,
	action string,
	entity string,
	entityID uint,
	meta any,
) {
	ev := audit.Event{
		CompanyID: actor.CompanyID,
		Action:    action,
		Entity:    entity,
		EntityID:  &entityID,
		Metadata:  meta,
	}
	if actor.IsAuthenticated() {
		id := actor.AccountID
		ev.AccountID = &id
	}
	d.Dispatch(ev)
}

func invalidateCompany(ctx context.Context, cache scheduling.SlotCache, log *zap.Logger, companyID uint) {
	if err := cache.InvalidateCompany(ctx, companyID); err != nil {
		log.Warn("slot cache invalidation failed", zap.Uint("company_id", companyID), zap.Error(err))
	}
}

func invalidateProfessional(ctx context.Context, cache scheduling.SlotCache, log *zap.Logger, professionalID uint) {
	if err := cache.InvalidateProfessional(ctx, professionalID); err != nil {
		log.Warn("slot cache invalidation failed", zap.Uint("professional_id", professionalID), zap.Error(err))
	}
}

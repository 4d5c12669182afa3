package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/middleware"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
)

type MeHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewMeHandler(db *gorm.DB, log *zap.Logger) *MeHandler {
	return &MeHandler{db: db, log: log}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	var acc models.Account
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Company").
		Preload("Specializations").
		First(&acc, actor.AccountID).Error; err != nil {

		if err == gorm.ErrRecordNotFound {
			httperr.Unauthorized(c, "account_not_found", "Conta não encontrada.")
			return
		}
		httperr.Respond(c, h.log, err)
		return
	}

	view := accountView(&acc)
	if acc.IsProfessional() {
		view["specializations"] = acc.Specializations
	}

	c.JSON(http.StatusOK, gin.H{
		"account": view,
		"company": companyView(&acc.Company),
	})
}

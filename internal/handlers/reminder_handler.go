package handlers

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/agenda-scheduler/internal/middleware"
	"github.com/BruksfildServices01/agenda-scheduler/internal/usecase/scheduling"
)

type ReminderHandler struct {
	db         *gorm.DB
	send       *scheduling.SendReminders
	reply      *scheduling.HandleReminderReply
	replyToken string
	log        *zap.Logger
}

func NewReminderHandler(
	db *gorm.DB,
	send *scheduling.SendReminders,
	reply *scheduling.HandleReminderReply,
	replyToken string,
	log *zap.Logger,
) *ReminderHandler {
	return &ReminderHandler{db: db, send: send, reply: reply, replyToken: replyToken, log: log}
}

type SendRemindersRequest struct {
	Date string `json:"date" binding:"required"`
}

type ReminderReplyRequest struct {
	CorrelationID string `json:"correlation_id" binding:"required"`
	Reply         string `json:"reply" binding:"required"`
}

// Send runs the reminder pass for the caller's company right away.
func (h *ReminderHandler) Send(c *gin.Context) {
	acc, ok := ownerOnly(c, h.db)
	if !ok {
		return
	}

	var req SendRemindersRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.send.Execute(c.Request.Context(), acc.CompanyID, req.Date)
	if err != nil {
		httperr.Respond(c, h.log, err)
		return
	}
	httpresp.OK(c, report)
}

// Reply is called by the messaging provider with the client's answer.
func (h *ReminderHandler) Reply(c *gin.Context) {
	if !h.authorized(c) {
		httperr.Unauthorized(c, "invalid_webhook_token", "Token do webhook inválido.")
		return
	}

	var req ReminderReplyRequest
	if !bindJSON(c, &req) {
		return
	}

	bk, err := h.reply.Execute(c.Request.Context(), req.CorrelationID, req.Reply)
	if err != nil {
		httperr.Respond(c, h.log, err)
		return
	}

	h.log.Info("reminder reply",
		zap.Uint("booking_id", bk.ID),
		zap.String("status", bk.Status),
		zap.String("request_id", c.Writer.Header().Get(middleware.RequestIDHeader)),
	)
	httpresp.OK(c, gin.H{"booking_id": bk.ID, "status": bk.Status})
}

// authorized rejects every call while no token is configured.
func (h *ReminderHandler) authorized(c *gin.Context) bool {
	if h.replyToken == "" {
		return false
	}
	got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.replyToken)) == 1
}

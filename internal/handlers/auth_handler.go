package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/agenda-scheduler/internal/audit"
	"github.com/BruksfildServices01/agenda-scheduler/internal/auth"
	"github.com/BruksfildServices01/agenda-scheduler/internal/config"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
	"github.com/BruksfildServices01/agenda-scheduler/internal/timezone"
	"github.com/BruksfildServices01/agenda-scheduler/internal/usecase/scheduling"
	"github.com/BruksfildServices01/agenda-scheduler/internal/validators"
)

type AuthHandler struct {
	db     *gorm.DB
	config *config.Config
	link   *scheduling.LinkClientAccount
	audit  *audit.Dispatcher
	log    *zap.Logger
}

func NewAuthHandler(
	db *gorm.DB,
	cfg *config.Config,
	link *scheduling.LinkClientAccount,
	dispatcher *audit.Dispatcher,
	log *zap.Logger,
) *AuthHandler {
	return &AuthHandler{db: db, config: cfg, link: link, audit: dispatcher, log: log}
}

// --------- Requests ---------

type RegisterRequest struct {
	CompanyName    string `json:"company_name" binding:"required"`
	CompanySlug    string `json:"company_slug" binding:"required"`
	CompanyPhone   string `json:"company_phone"`
	CompanyAddress string `json:"company_address"`
	Timezone       string `json:"timezone"`

	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
}

type ClientRegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// --------- Handlers ---------

// Register creates a company together with its owner account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	slug := strings.ToLower(strings.TrimSpace(req.CompanySlug))
	email, ok := h.checkEmail(c, req.Email)
	if !ok {
		return
	}

	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = timezone.DefaultTimezone
	}
	if !timezone.IsValid(tz) {
		httperr.BadRequest(c, "invalid_timezone", "Fuso horário inválido.")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Internal(c, "failed_to_hash_password", "Erro ao processar senha.")
		return
	}

	company := models.Company{
		Name:                 req.CompanyName,
		Slug:                 slug,
		Phone:                req.CompanyPhone,
		Address:              req.CompanyAddress,
		Timezone:             tz,
		MinLeadMinutes:       120,
		MaxAdvanceDays:       60,
		DefaultBufferMinutes: 0,
		Active:               true,
	}
	owner := models.Account{
		Name:         req.Name,
		Email:        email,
		PasswordHash: string(hashed),
		Phone:        req.Phone,
		Role:         models.RoleOwner,
		Active:       true,
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Company{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return httperr.Conflict("slug_already_exists", "Já existe uma empresa com este endereço.")
		}
		if err := tx.Create(&company).Error; err != nil {
			return err
		}
		owner.CompanyID = company.ID
		return tx.Create(&owner).Error
	})
	if err != nil {
		if httperr.IsUniqueViolation(err) {
			httperr.Write(c, http.StatusConflict, "email_registered", "E-mail já cadastrado.")
			return
		}
		httperr.Respond(c, h.log, err)
		return
	}

	actor := auth.Actor{AccountID: owner.ID, CompanyID: company.ID, Role: owner.Role}
	writeAudit(h.audit, actor, "company_registered", "company", company.ID, nil)
	h.respondWithToken(c, http.StatusCreated, &owner, &company)
}

// RegisterClient creates a client account for the company behind the slug
// and attaches it to the client record with the same phone, if any.
func (h *AuthHandler) RegisterClient(c *gin.Context) {
	company, ok := h.companyBySlug(c)
	if !ok {
		return
	}

	var req ClientRegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	email, ok := h.checkEmail(c, req.Email)
	if !ok {
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Internal(c, "failed_to_hash_password", "Erro ao processar senha.")
		return
	}

	ctx := c.Request.Context()
	acc := models.Account{
		CompanyID:    company.ID,
		Name:         req.Name,
		Email:        email,
		PasswordHash: string(hashed),
		Phone:        req.Phone,
		Role:         models.RoleClient,
		Active:       true,
	}
	if err := h.db.WithContext(ctx).Create(&acc).Error; err != nil {
		if httperr.IsUniqueViolation(err) {
			httperr.Write(c, http.StatusConflict, "email_registered", "E-mail já cadastrado.")
			return
		}
		httperr.Respond(c, h.log, err)
		return
	}

	client, err := h.link.Execute(ctx, scheduling.LinkClientAccountInput{
		CompanyID: company.ID,
		AccountID: acc.ID,
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     email,
	})
	if err != nil {
		// The account is useless without its client record.
		if derr := h.db.WithContext(ctx).Delete(&models.Account{}, acc.ID).Error; derr != nil {
			h.log.Error("orphan client account", zap.Uint("account_id", acc.ID), zap.Error(derr))
		}
		httperr.Respond(c, h.log, err)
		return
	}

	token, err := auth.SignToken(h.config.JWTSecret, auth.Actor{
		AccountID: acc.ID, CompanyID: company.ID, Role: acc.Role,
	}, time.Now())
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Erro ao gerar token.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"account": accountView(&acc),
		"client":  client,
		"token":   token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var acc models.Account
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Company").
		Where("email = ?", email).
		First(&acc).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.Unauthorized(c, "invalid_credentials", "E-mail ou senha inválidos.")
			return
		}
		httperr.Respond(c, h.log, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
		httperr.Unauthorized(c, "invalid_credentials", "E-mail ou senha inválidos.")
		return
	}
	if !acc.Active || !acc.Company.Active {
		httperr.Forbidden(c, "account_disabled", "Conta desativada.")
		return
	}

	h.respondWithToken(c, http.StatusOK, &acc, &acc.Company)
}

// --------- Helpers ---------

func (h *AuthHandler) checkEmail(c *gin.Context, raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if !validators.IsEmailFormatValid(email) {
		httperr.BadRequest(c, "invalid_email", "E-mail inválido.")
		return "", false
	}
	if !validators.IsEmailDomainValid(email) {
		httperr.BadRequest(c, "invalid_email_domain", "O domínio do e-mail informado não parece ser válido.")
		return "", false
	}
	return email, true
}

func (h *AuthHandler) companyBySlug(c *gin.Context) (*models.Company, bool) {
	var company models.Company
	err := h.db.WithContext(c.Request.Context()).
		Where("slug = ?", strings.ToLower(c.Param("slug"))).
		First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
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
	return &company, true
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, acc *models.Account, company *models.Company) {
	token, err := auth.SignToken(h.config.JWTSecret, auth.Actor{
		AccountID: acc.ID,
		CompanyID: acc.CompanyID,
		Role:      acc.Role,
	}, time.Now())
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Erro ao gerar token.")
		return
	}

	c.JSON(status, gin.H{
		"account": accountView(acc),
		"company": companyView(company),
		"token":   token,
	})
}

func accountView(acc *models.Account) gin.H {
	return gin.H{
		"id":         acc.ID,
		"name":       acc.Name,
		"email":      acc.Email,
		"phone":      acc.Phone,
		"role":       acc.Role,
		"company_id": acc.CompanyID,
	}
}

func companyView(company *models.Company) gin.H {
	return gin.H{
		"id":       company.ID,
		"name":     company.Name,
		"slug":     company.Slug,
		"phone":    company.Phone,
		"address":  company.Address,
		"timezone": company.Timezone,
	}
}

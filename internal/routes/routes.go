package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/agenda-scheduler/internal/audit"
	"github.com/BruksfildServices01/agenda-scheduler/internal/config"
	"github.com/BruksfildServices01/agenda-scheduler/internal/handlers"
	"github.com/BruksfildServices01/agenda-scheduler/internal/middleware"
	"github.com/BruksfildServices01/agenda-scheduler/internal/usecase/scheduling"
)

// Deps are the singletons built in main.
type Deps struct {
	DB         *gorm.DB
	Config     *config.Config
	Log        *zap.Logger
	Scheduling scheduling.Deps
	AuditStore *audit.GormStore
	Reminders  *scheduling.SendReminders
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	db, cfg, log := d.DB, d.Config, d.Log
	sd := d.Scheduling

	cache := sd.Cache
	if cache == nil {
		cache = scheduling.NopCache{}
	}

	// ======================================================
	// USE CASES
	// ======================================================
	getSlotsUC := scheduling.NewGetSlots(sd)
	createBookingUC := scheduling.NewCreateBooking(sd)
	linkClientUC := scheduling.NewLinkClientAccount(sd)

	listBookingsUC := scheduling.NewListBookings(sd)
	changeStatusUC := scheduling.NewChangeBookingStatus(sd)
	clientCancelUC := scheduling.NewCancelBookingByClient(sd)
	clientReprogramUC := scheduling.NewReprogramBookingByClient(sd)

	weekUC := scheduling.NewAvailabilityResolver(sd)
	saveAvailabilityUC := scheduling.NewSaveAvailability(sd)
	deleteAvailabilityUC := scheduling.NewDeleteAvailability(sd)
	saveWorkingHoursUC := scheduling.NewSaveWorkingHours(sd)

	createBlockUC := scheduling.NewCreateDateBlock(sd)
	removeBlockUC := scheduling.NewRemoveDateBlock(sd)
	listBlocksUC := scheduling.NewListDateBlocks(sd)
	suggestUC := scheduling.NewSuggestSlots(sd)

	replyUC := scheduling.NewHandleReminderReply(sd)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, cfg, linkClientUC, sd.Audit, log)
	meHandler := handlers.NewMeHandler(db, log)
	companyHandler := handlers.NewCompanyHandler(db, cache, sd.Audit, log)
	catalogHandler := handlers.NewCatalogHandler(db, cache, sd.Audit, log)

	workingHoursHandler := handlers.NewWorkingHoursHandler(sd.Repo, saveWorkingHoursUC, log)
	availabilityHandler := handlers.NewAvailabilityHandler(sd.Repo, weekUC, saveAvailabilityUC, deleteAvailabilityUC, log)
	dateBlockHandler := handlers.NewDateBlockHandler(createBlockUC, removeBlockUC, listBlocksUC, suggestUC, log)

	bookingHandler := handlers.NewBookingHandler(
		db,
		createBookingUC,
		listBookingsUC,
		changeStatusUC,
		clientCancelUC,
		clientReprogramUC,
		log,
	)

	publicHandler := handlers.NewPublicHandler(db, sd.Repo, getSlotsUC, createBookingUC, log)
	auditLogsHandler := handlers.NewAuditLogsHandler(db, d.AuditStore, log)
	reminderHandler := handlers.NewReminderHandler(db, d.Reminders, replyUC, cfg.ReplyWebhookToken, log)

	// 20 writes per minute per IP, bursts of 5.
	publicWrites := middleware.NewRateLimiter(rate.Limit(20.0/60.0), 5).Middleware(log)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// PUBLIC
		// ------------------------------
		publicAPI := api.Group("/public/:slug")
		{
			publicAPI.GET("", publicHandler.Company)
			publicAPI.GET("/services", publicHandler.ListServices)
			publicAPI.GET("/professionals", publicHandler.ListProfessionals)
			publicAPI.GET("/slots", publicHandler.Slots)
			publicAPI.POST("/bookings", publicWrites, middleware.OptionalAuth(cfg.JWTSecret), publicHandler.CreateBooking)
			publicAPI.POST("/clients", publicWrites, authHandler.RegisterClient)
		}

		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/register", publicWrites, authHandler.Register)
		api.POST("/auth/login", publicWrites, authHandler.Login)

		// ------------------------------
		// WEBHOOKS
		// ------------------------------
		api.POST("/webhooks/reminders/reply", reminderHandler.Reply)

		// ------------------------------
		// PRIVATE
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg.JWTSecret))
		{
			secured.GET("/me", meHandler.GetMe)

			secured.GET("/me/company", companyHandler.Get)
			secured.PATCH("/me/company", companyHandler.Update)

			secured.GET("/me/working-hours", workingHoursHandler.Get)
			secured.PUT("/me/working-hours", workingHoursHandler.Update)

			secured.GET("/me/availability", availabilityHandler.Week)
			secured.GET("/me/availability/ranges", availabilityHandler.Ranges)
			secured.POST("/me/availability", availabilityHandler.Create)
			secured.PUT("/me/availability/:id", availabilityHandler.Update)
			secured.DELETE("/me/availability/:id", availabilityHandler.Delete)

			secured.GET("/me/date-blocks", dateBlockHandler.List)
			secured.POST("/me/date-blocks", dateBlockHandler.Create)
			secured.DELETE("/me/date-blocks/:id", dateBlockHandler.Remove)

			// ------------------------------
			// BOOKINGS
			// ------------------------------
			secured.GET("/me/bookings", bookingHandler.List)
			secured.POST("/me/bookings", bookingHandler.Create)
			secured.PATCH("/me/bookings/:id/status", bookingHandler.ChangeStatus)
			secured.GET("/me/bookings/:id/suggestions", dateBlockHandler.Suggest)

			secured.GET("/me/client/bookings", bookingHandler.MyBookings)
			secured.POST("/me/client/bookings/:id/cancel", bookingHandler.ClientCancel)
			secured.POST("/me/client/bookings/:id/reprogram", bookingHandler.ClientReprogram)

			// ------------------------------
			// CATALOG
			// ------------------------------
			secured.GET("/me/services", catalogHandler.ListServices)
			secured.POST("/me/services", catalogHandler.CreateService)
			secured.PATCH("/me/services/:id", catalogHandler.UpdateService)

			secured.GET("/me/specializations", catalogHandler.ListSpecializations)
			secured.POST("/me/specializations", catalogHandler.CreateSpecialization)

			secured.GET("/me/professionals", catalogHandler.ListProfessionals)
			secured.POST("/me/professionals", catalogHandler.CreateProfessional)
			secured.PATCH("/me/professionals/:id", catalogHandler.UpdateProfessional)

			secured.GET("/me/clients", catalogHandler.ListClients)

			secured.POST("/me/reminders/send", reminderHandler.Send)
			secured.GET("/me/audit-logs", auditLogsHandler.List)
		}
	}
}

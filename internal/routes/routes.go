package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/church-platform/internal/audit"
	"github.com/BruksfildServices01/church-platform/internal/auth"
	"github.com/BruksfildServices01/church-platform/internal/config"
	"github.com/BruksfildServices01/church-platform/internal/domain/broadcast"
	"github.com/BruksfildServices01/church-platform/internal/handlers"
	infraRepo "github.com/BruksfildServices01/church-platform/internal/infra/repository"
	"github.com/BruksfildServices01/church-platform/internal/infra/storage"
	"github.com/BruksfildServices01/church-platform/internal/middleware"
	ucBroadcast "github.com/BruksfildServices01/church-platform/internal/usecase/broadcast"
)

const serviceName = "church-platform"

// Dependencies are the process-wide singletons built in main.
type Dependencies struct {
	DB       *gorm.DB
	Config   *config.Config
	Log      logrus.FieldLogger
	Recorder audit.Recorder
	Provider broadcast.Provider // nil when SMS is not configured
	Storage  storage.Store
	Limiter  limiter.Store
}

func RegisterRoutes(r *gin.Engine, deps Dependencies) error {
	cfg := deps.Config
	db := deps.DB
	log := deps.Log

	// Rate limiting and audit IPs key on ClientIP, so forwarding headers
	// are only read from configured proxies.
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}

	// ======================================================
	// GLOBAL MIDDLEWARE
	// ======================================================
	r.Use(
		middleware.RequestLogger(log),
		middleware.RequestTimeout(cfg.RequestTimeout),
		middleware.RateLimit(deps.Limiter, cfg.RateLimitRequests, cfg.RateLimitPeriod, log),
		middleware.CORSMiddleware(cfg.FrontendOrigins),
	)

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	broadcastRepo := infraRepo.NewBroadcastGormRepository(db)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	uploader := storage.NewUploader(deps.Storage)
	maxUpload := cfg.Storage.MaxUploadMB << 20

	rate, err := cfg.CostRate()
	if err != nil {
		return err
	}
	cost, err := broadcast.NewCostPolicy(rate, cfg.SMS.CostCurrency, cfg.SMS.CostBasis)
	if err != nil {
		return fmt.Errorf("sms cost policy: %w", err)
	}

	// ======================================================
	// USE CASES: SMS
	// ======================================================
	sendBroadcastUC := ucBroadcast.NewSendBroadcast(
		broadcastRepo,
		deps.Provider,
		cost,
		cfg.SMS.DefaultCountryCode,
		deps.Recorder,
		log,
	)
	listLogsUC := ucBroadcast.NewListLogs(broadcastRepo)
	statsUC := ucBroadcast.NewGetStats(broadcastRepo)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, issuer, deps.Recorder, log)
	meHandler := handlers.NewMeHandler(db, deps.Recorder, log)
	publicHandler := handlers.NewPublicHandler(db, log)

	newsHandler := handlers.NewNewsHandler(db, deps.Recorder, log)
	eventHandler := handlers.NewEventHandler(db, deps.Recorder, log)
	photoHandler := handlers.NewPhotoHandler(db, uploader, maxUpload, deps.Recorder, log)

	memberHandler := handlers.NewMemberHandler(db, deps.Recorder, log)
	kontingentHandler := handlers.NewKontingentHandler(db, deps.Recorder, log)
	smsHandler := handlers.NewSMSHandler(db, sendBroadcastUC, listLogsUC, statsUC, log)

	superAdminHandler := handlers.NewSuperAdminHandler(db, uploader, maxUpload, deps.Recorder, log)
	auditLogsHandler := handlers.NewAuditLogsHandler(db, log)

	providerName := "none"
	if deps.Provider != nil {
		providerName = deps.Provider.Name()
	}
	healthHandler := handlers.NewHealthHandler(serviceName, providerName, sendBroadcastUC.Enabled())

	// ======================================================
	// OPS
	// ======================================================
	r.GET("/health", healthHandler.Health)
	if cfg.Storage.S3Bucket == "" {
		r.Static("/uploads", cfg.Storage.UploadDir)
	}

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// PUBLIC
		// ------------------------------
		api.GET("/churches", publicHandler.ListChurches)
		api.GET("/churches/:slug", publicHandler.GetChurch)
		api.GET("/churches/:slug/news", publicHandler.ListNews)
		api.GET("/churches/:slug/events", publicHandler.ListEvents)
		api.GET("/churches/:slug/photos", publicHandler.ListPhotos)
		api.GET("/site-settings", publicHandler.SiteSettings)

		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/church-admin/login", authHandler.ChurchAdminLogin)
		api.POST("/super-admin/login", authHandler.SuperAdminLogin)

		// ------------------------------
		// AUTHENTICATED (either role)
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(issuer))
		{
			secured.GET("/me", meHandler.GetMe)

			members := secured.Group("/members")
			{
				members.GET("", memberHandler.List)
				members.GET("/export", memberHandler.Export)
				members.GET("/:id", memberHandler.Get)
				members.POST("", memberHandler.Create)
				members.PUT("/:id", memberHandler.Update)
				members.DELETE("/:id", memberHandler.Delete)
			}

			secured.GET("/kontingent", kontingentHandler.List)
			secured.POST("/kontingent/update", kontingentHandler.Update)

			sms := secured.Group("/sms")
			{
				sms.POST("/send", smsHandler.Send)
				sms.GET("/logs", smsHandler.Logs)
				sms.GET("/stats", smsHandler.Stats)
				sms.GET("/members", smsHandler.Members)
			}
		}

		// ------------------------------
		// CHURCH ADMIN
		// ------------------------------
		churchAdmin := api.Group("/church-admin")
		churchAdmin.Use(middleware.AuthMiddleware(issuer), middleware.RequireChurchAdmin())
		{
			churchAdmin.GET("/dashboard", meHandler.Dashboard)
			churchAdmin.PUT("/church-info", meHandler.UpdateChurchInfo)

			churchAdmin.GET("/news", newsHandler.List)
			churchAdmin.POST("/news", newsHandler.Create)
			churchAdmin.PUT("/news/:id", newsHandler.Update)
			churchAdmin.DELETE("/news/:id", newsHandler.Delete)

			churchAdmin.GET("/events", eventHandler.List)
			churchAdmin.POST("/events", eventHandler.Create)
			churchAdmin.PUT("/events/:id", eventHandler.Update)
			churchAdmin.DELETE("/events/:id", eventHandler.Delete)

			churchAdmin.GET("/photos", photoHandler.List)
			churchAdmin.POST("/photos", photoHandler.Create)
			churchAdmin.DELETE("/photos/:id", photoHandler.Delete)
			churchAdmin.POST("/uploads/photo", photoHandler.UploadPhoto)
			churchAdmin.POST("/uploads/logo", photoHandler.UploadLogo)

			churchAdmin.GET("/audit-logs", auditLogsHandler.List)
		}

		// ------------------------------
		// SUPER ADMIN
		// ------------------------------
		super := api.Group("/super-admin")
		super.Use(middleware.AuthMiddleware(issuer), middleware.RequireSuperAdmin())
		{
			super.GET("/churches", superAdminHandler.ListChurches)
			super.POST("/churches", superAdminHandler.CreateChurch)
			super.GET("/churches/:id", superAdminHandler.GetChurch)
			super.PUT("/churches/:id", superAdminHandler.UpdateChurch)
			super.DELETE("/churches/:id", superAdminHandler.DeleteChurch)

			super.GET("/churches/:id/admins", superAdminHandler.ListAdmins)
			super.POST("/churches/:id/admins", superAdminHandler.CreateAdmin)
			super.PUT("/admins/:id", superAdminHandler.UpdateAdmin)
			super.DELETE("/admins/:id", superAdminHandler.DeleteAdmin)

			super.PUT("/site-settings", superAdminHandler.UpdateSiteSetting)
			super.POST("/upload-logo", superAdminHandler.UploadSiteLogo)

			super.GET("/audit-logs", auditLogsHandler.List)
		}
	}

	return nil
}

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/nodo-plus/config"
	"github.com/lshigami/nodo-plus/database"
	_ "github.com/lshigami/nodo-plus/docs"
	"github.com/lshigami/nodo-plus/internal/controller"
	adminctrl "github.com/lshigami/nodo-plus/internal/controller/admin"
	userctrl "github.com/lshigami/nodo-plus/internal/controller/user"
	"github.com/lshigami/nodo-plus/internal/logger"
	"github.com/lshigami/nodo-plus/internal/middleware"
	"github.com/lshigami/nodo-plus/internal/model"
	"github.com/lshigami/nodo-plus/internal/repository"
	"github.com/lshigami/nodo-plus/internal/service"
	"github.com/lshigami/nodo-plus/internal/storage"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title NODO+ API
// @version 1.0
// @description Marketplace connecting EdTech companies, educational institutions and consultants. Solutions are reviewed by admins and scored with traffic lights.
// @contact.name NODO+ Support
// @contact.email soporte@nodoplus.org
// @host localhost:3001
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			storage.NewObjectStorage,
			NewGinEngine,
		),

		fx.Provide(
			repository.NewUserRepository,
			repository.NewEdTechCompanyRepository,
			repository.NewInstitutionRepository,
			repository.NewConsultantRepository,
			repository.NewSolutionRepository,
			repository.NewEvidenceRepository,
			repository.NewCatalogRepository,
			repository.NewTrafficLightRuleRepository,
			repository.NewProfileSubmissionRepository,
			repository.NewProfileAttachmentRepository,
		),

		fx.Provide(
			service.NewMailer,
			service.NewNotificationService,
			service.NewInsightService,
			service.NewTrafficLightService,
			service.NewAuthService,
			service.NewCatalogService,
			service.NewEdTechService,
			service.NewSubmissionServices,
			service.NewAdminService,
		),

		fx.Provide(
			middleware.NewAuth,
			controller.NewController,
			userctrl.NewEdTechController,
			userctrl.NewSubmissionControllers,
			adminctrl.NewAdminController,
		),

		fx.Invoke(AutoMigrateDB),
		fx.Invoke(SeedDB),
		fx.Invoke(config.Watch),
		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Failed to stop application cleanly")
	}
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.GinMode)

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.Server.FrontendURL == "*" {
		// gin-contrib/cors echoes the request origin when credentials are allowed.
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsCfg.AllowOrigins = []string{cfg.Server.FrontendURL}
	}
	r.Use(cors.New(corsCfg))

	// http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer mounts every route group under /api and ties
// the HTTP server to the fx lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	publicCtrl *controller.Controller,
	edtechCtrl *userctrl.EdTechController,
	submissionCtrls userctrl.SubmissionControllers,
	adminCtrl *adminctrl.AdminController,
) {
	api := router.Group("/api")
	publicCtrl.RegisterRoutes(api)
	edtechCtrl.RegisterRoutes(api)
	submissionCtrls.RegisterRoutes(api)
	adminCtrl.RegisterRoutes(api)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("NODO+ API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB, cfg *config.Config) error {
	if !cfg.Database.AutoMigrate {
		log.Info().Msg("Database auto migration disabled")
		return nil
	}
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.User{},
		&model.EdTechCompany{},
		&model.Institution{},
		&model.ConsultantProfile{},
		&model.Solution{},
		&model.Evidence{},
		&model.Catalog{},
		&model.TrafficLightRule{},
		&model.ProfileSubmission{},
		&model.ProfileAttachment{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}

func SeedDB(db *gorm.DB, cfg *config.Config) error {
	if !cfg.Database.Seed {
		return nil
	}
	if err := database.Seed(db, cfg); err != nil {
		log.Error().Err(err).Msg("Database seed failed")
		return err
	}
	return nil
}

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/quantumhc/assessment/config"
	"github.com/quantumhc/assessment/database"
	_ "github.com/quantumhc/assessment/docs" // Swagger docs
	"github.com/quantumhc/assessment/internal/cache"
	adminctrl "github.com/quantumhc/assessment/internal/controller/admin"
	userctrl "github.com/quantumhc/assessment/internal/controller/user"
	"github.com/quantumhc/assessment/internal/logger"
	"github.com/quantumhc/assessment/internal/model"
	"github.com/quantumhc/assessment/internal/repository"
	"github.com/quantumhc/assessment/internal/service"
	"github.com/quantumhc/assessment/internal/session"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Assessment Standard & Ranking API
// @version 1.0
// @description Three-layer standard resolution and ranking computation for HR psychometric assessment reporting.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		// Core application components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
			NewRankingCache,
			session.NewStore,
		),

		// Repositories layer
		fx.Provide(
			repository.NewTemplateRepository,
			repository.NewCustomStandardRepository,
			repository.NewParticipantRepository,
			repository.NewAssessmentRepository,
			repository.NewPositionRepository,
		),

		// Services layer
		fx.Provide(
			service.NewCacheInvalidator,
			service.NewConclusionClassifier,
			service.NewStandardResolverService,
			service.NewCustomStandardService,
			service.NewRankingService,
		),

		// API controllers layer
		fx.Provide(
			adminctrl.NewCustomStandardController,
			userctrl.NewAdjustmentController,
			userctrl.NewRankingController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

// NewRankingCache picks redis when an address is configured and the
// in-process memory cache otherwise.
func NewRankingCache(cfg *config.Config) (cache.RankingCache, error) {
	if cfg.Redis.Addr == "" {
		log.Info().Msg("REDIS_ADDR not set, using in-memory ranking cache")
		return cache.NewMemoryCache(), nil
	}
	return cache.NewRedisCache(cfg)
}

func NewGinEngine() *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", userctrl.SessionHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages the
// server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	standardCtrl *adminctrl.CustomStandardController,
	adjustmentCtrl *userctrl.AdjustmentController,
	rankingCtrl *userctrl.RankingController,
) {
	// Admin routes (prefixed with /api/v1/admin)
	adminAPIGroup := router.Group("/api/v1/admin")
	{
		standardsGroup := adminAPIGroup.Group("/standards")
		standardsGroup.POST("", standardCtrl.CreateStandard)
		standardsGroup.GET("", standardCtrl.ListStandards)
		standardsGroup.PUT("/:standard_id", standardCtrl.UpdateStandard)
		standardsGroup.DELETE("/:standard_id", standardCtrl.DeleteStandard)
		standardsGroup.GET("/template-defaults/:template_id", standardCtrl.GetTemplateDefaults)
		adminAPIGroup.GET("/templates/available", standardCtrl.GetAvailableTemplates)
	}

	// User routes (prefixed with /api/v1)
	userAPIGroup := router.Group("/api/v1")
	{
		templateGroup := userAPIGroup.Group("/templates/:template_id")

		templateGroup.GET("/original", adjustmentCtrl.GetOriginalTemplateData)

		adjustGroup := templateGroup.Group("/adjustments")
		adjustGroup.GET("", adjustmentCtrl.GetAdjustments)
		adjustGroup.POST("/category-weight", adjustmentCtrl.SaveCategoryWeight)
		adjustGroup.POST("/category-weights", adjustmentCtrl.SaveBothCategoryWeights)
		adjustGroup.POST("/aspect-weight", adjustmentCtrl.SaveAspectWeight)
		adjustGroup.POST("/aspect-rating", adjustmentCtrl.SaveAspectRating)
		adjustGroup.POST("/sub-aspect-rating", adjustmentCtrl.SaveSubAspectRating)
		adjustGroup.POST("/aspect-active", adjustmentCtrl.SetAspectActive)
		adjustGroup.POST("/sub-aspect-active", adjustmentCtrl.SetSubAspectActive)
		adjustGroup.POST("/bulk", adjustmentCtrl.SaveBulkAdjustments)
		adjustGroup.POST("/selection", adjustmentCtrl.SaveBulkSelection)
		adjustGroup.DELETE("", adjustmentCtrl.ResetAdjustments)
		adjustGroup.DELETE("/category/:category_code", adjustmentCtrl.ResetCategoryAdjustments)
		adjustGroup.DELETE("/category-weights", adjustmentCtrl.ResetCategoryWeights)

		standardGroup := templateGroup.Group("/standard-selection")
		standardGroup.POST("", adjustmentCtrl.SelectStandard)
		standardGroup.GET("", adjustmentCtrl.GetSelectedStandard)
		standardGroup.DELETE("", adjustmentCtrl.ClearSelection)

		templateGroup.GET("/rankings-combined", rankingCtrl.GetCombinedRankings)
		templateGroup.GET("/rankings-combined/participants/:participant_id", rankingCtrl.GetParticipantCombinedRank)
		templateGroup.POST("/standards-calculation", rankingCtrl.CalculateStandards)

		rankGroup := templateGroup.Group("/rankings/:category_code")
		rankGroup.GET("", rankingCtrl.GetRankings)
		rankGroup.GET("/participants/:participant_id", rankingCtrl.GetParticipantRank)
		rankGroup.GET("/summaries", rankingCtrl.GetSummaries)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Assessment ranking API server starting on port %s", cfg.Server.Port)
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

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.AssessmentTemplate{},
		&model.CategoryType{},
		&model.Aspect{},
		&model.SubAspect{},
		&model.CustomStandard{},
		&model.Institution{},
		&model.PositionFormation{},
		&model.AssessmentEvent{},
		&model.Participant{},
		&model.AspectAssessment{},
		&model.SubAspectAssessment{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}

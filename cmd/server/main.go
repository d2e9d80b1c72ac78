package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/joho/godotenv"
	"github.com/knightquest/kq-api/internal/auth"
	"github.com/knightquest/kq-api/internal/config"
	"github.com/knightquest/kq-api/internal/database"
	"github.com/knightquest/kq-api/internal/handlers"
	"github.com/knightquest/kq-api/internal/logging"
	"github.com/knightquest/kq-api/internal/middleware"
	"github.com/knightquest/kq-api/internal/models"
	"github.com/knightquest/kq-api/internal/pdf"
	"github.com/knightquest/kq-api/internal/services"
	"github.com/knightquest/kq-api/internal/types"
	"github.com/knightquest/kq-api/internal/utils"

	_ "github.com/knightquest/kq-api/docs/api" // Swagger docs
)

// @title Knight Quest API
// @version 1.0.0
// @description Backend for the Knight Quest educational game: accounts, save data, question modules and certificates

// @contact.name API Support

// @host localhost:8000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	log := logging.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Services
	userService := services.NewUserService(db, log, cfg.BcryptCost)
	saveService := services.NewSaveService(db, log)
	moduleService := services.NewModuleService(db, log)
	certService := services.NewCertificateService(db, log)
	pinService := services.NewPinService(db, log)

	// Handlers
	authHandler := &handlers.AuthHandler{
		Users:  userService,
		Saves:  saveService,
		Pins:   pinService,
		Google: auth.NewGoogleProvider(cfg),
		Cfg:    cfg,
		Logger: log,
	}
	saveHandler := &handlers.SaveHandler{Saves: saveService, Logger: log}
	moduleHandler := &handlers.ModuleHandler{Modules: moduleService, Logger: log}
	certHandler := &handlers.CertificateHandler{
		Certificates: certService,
		Renderer:     &pdf.Renderer{AssetDir: cfg.CertificateAssetDir},
		Logger:       log,
	}
	healthHandler := &handlers.HealthHandler{Cfg: cfg, DB: db}

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(compress.New())
	app.Use(cors.New(cors.Config{
		AllowCredentials: false,
	}))

	// Prometheus metrics
	prometheus := fiberprometheus.New("kq_api")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", healthHandler.Check)

	api := app.Group("/api")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/student", authHandler.StudentRegister)
	authGroup.Post("/student/login", authHandler.StudentLogin)
	authGroup.Post("/verify-pin", authHandler.VerifyPin)
	authGroup.Get("/google", authHandler.GoogleRedirect)
	authGroup.Get("/google/callback", authHandler.GoogleCallback)

	authenticated := middleware.Authenticate(cfg.JWTSecret)
	teacherOnly := middleware.RequireRole(models.RoleTeacher)
	studentOnly := middleware.RequireRole(models.RoleStudent)

	// Save routes (own save only)
	api.Get("/save", authenticated, saveHandler.Get)
	api.Put("/save", authenticated, saveHandler.Put)
	api.Delete("/save", authenticated, saveHandler.Delete)

	// Module routes
	api.Post("/modules", authenticated, teacherOnly, moduleHandler.Create)
	api.Get("/modules", authenticated, teacherOnly, moduleHandler.List)
	api.Post("/modules/assign", authenticated, teacherOnly, moduleHandler.Assign)
	api.Get("/modules/mine", authenticated, studentOnly, moduleHandler.Mine)

	// Certificate routes
	api.Post("/certificates", authenticated, certHandler.Create)
	api.Get("/certificates", authenticated, certHandler.List)
	api.Get("/certificates/student/:studentId", authenticated, certHandler.VerifyStudent)
	api.Get("/certificates/download/:certificateNumber", authenticated, certHandler.Download)
	api.Get("/certificates/preview/:certificateNumber", authenticated, certHandler.Preview)
	api.Post("/certificates/convert-to-pdf", authenticated, certHandler.ConvertToPDF)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return utils.Error(c, fiber.StatusNotFound, "Resource not found", "NOT_FOUND")
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info().Msg("shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	log.Info().Str("port", cfg.Port).Str("db", cfg.DBType).Msg("starting server")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

// errorHandler translates errors that escape the handlers into the standard
// envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	var custom *types.CustomError
	if errors.As(err, &custom) {
		return utils.Error(c, custom.Code, custom.Message, custom.ErrorCode)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return utils.Error(c, fiberErr.Code, fiberErr.Message, "")
	}

	return utils.Error(c, fiber.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
}

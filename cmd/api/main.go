package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go-catalog-ws/config"
	"go-catalog-ws/internal/event"
	"go-catalog-ws/internal/handler"
	"go-catalog-ws/internal/job"
	"go-catalog-ws/internal/middleware"
	"go-catalog-ws/internal/model"
	"go-catalog-ws/internal/repository"
	"go-catalog-ws/internal/service"
	"go-catalog-ws/internal/ws"
	"go-catalog-ws/pkg/broker"
	"go-catalog-ws/pkg/cache"
	"go-catalog-ws/pkg/database"
	"go-catalog-ws/pkg/jwt"
	"go-catalog-ws/pkg/logger"
	"go-catalog-ws/pkg/media"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

func main() {
	// 1. Config & logging
	cfg := config.CreateNewConfig()
	logger.Setup(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Database
	db, err := database.ConnectDB(cfg.DatabaseConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	if err := db.AutoMigrate(model.Models()...); err != nil {
		log.Fatal().Err(err).Msg("auto migrate")
	}

	productRepo := repository.NewProductRepo(db)
	movementRepo := repository.NewStockMovementRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	// 3. Seed privileges, roles and the admin account
	admin := service.AdminSeed{
		Username: cfg.AdminConfig.Username,
		Email:    cfg.AdminConfig.Email,
		Password: cfg.AdminConfig.Password,
	}
	if err := service.SeedAccessControl(ctx, privilegeRepo, roleRepo, userRepo, admin); err != nil {
		log.Fatal().Err(err).Msg("seed access control")
	}

	// 4. Media host
	uploader, err := media.NewCloudinaryUploader(cfg.MediaConfig.CloudinaryURL)
	if err != nil {
		log.Fatal().Err(err).Msg("media uploader")
	}

	// 5. Event fan-out: websocket hub plus optional Kafka
	wsHub := ws.NewHub()
	go wsHub.Run(ctx)

	publishers := []event.Publisher{wsHub}
	if cfg.KafkaConfig.BrokerAddress != "" {
		producer := broker.NewKafkaProducer(cfg.KafkaConfig.BrokerAddress, cfg.KafkaConfig.BrokerTopic)
		defer producer.Close()
		publishers = append(publishers, event.NewKafkaPublisher(producer))
		log.Info().Str("topic", cfg.KafkaConfig.BrokerTopic).Msg("kafka publisher enabled")
	}

	// 6. Optional Redis cache
	var catalogCache service.Cache
	if cfg.RedisConfig.Address != "" {
		rc, err := cache.New(cache.Config{
			Address:  cfg.RedisConfig.Address,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, catalog cache disabled")
		} else {
			defer rc.Close()
			catalogCache = rc
		}
	}

	// 7. Stale upload sweeper
	scheduler := cron.New()
	sweeper := job.NewUploadSweeper(cfg.MediaConfig.UploadTmpDir, handler.UploadPrefix, cfg.MediaConfig.SweepMaxAge)
	if err := sweeper.Schedule(scheduler, cfg.MediaConfig.SweepSchedule); err != nil {
		log.Fatal().Err(err).Msg("schedule upload sweeper")
	}
	scheduler.Start()
	defer scheduler.Stop()

	// 8. Services & handlers
	tokens := jwt.NewManager(cfg.JWTConfig.Secret, cfg.JWTConfig.TTL)

	fanout := event.NewFanout(publishers...)
	log.Info().Int("publishers", fanout.Len()).Msg("event fan-out ready")

	catalogService := service.NewCatalogService(productRepo, uploader, fanout, catalogCache, service.CatalogConfig{
		Folder:   cfg.MediaConfig.Folder,
		CacheTTL: cfg.RedisConfig.TTL,
	})
	dashService := service.NewDashboardService(movementRepo, productRepo)
	authService := service.NewAuthService(userRepo, roleRepo, tokens)
	userService := service.NewUserService(userRepo, privilegeRepo, catalogCache)

	catalogHandler := handler.NewCatalogHandler(catalogService, cfg.MediaConfig.UploadTmpDir)
	dashHandler := handler.NewDashboardHandler(dashService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleRepo, privilegeRepo)

	// 9. Fiber
	app := newApp(cfg.RateLimit)

	requireAuth := middleware.RequireAuth(tokens, userRepo)

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/validate-token", authHandler.ValidateToken)

	handler.RegisterCatalogRoutes(api.Group("/products"), catalogHandler, requireAuth)

	protected := api.Group("", requireAuth)

	protected.Get("/users/me", userHandler.GetMe)
	protected.Get("/users", middleware.RequirePrivilege(model.PrivilegeUserView), userHandler.GetUsers)
	protected.Get("/users/:id", middleware.RequirePrivilege(model.PrivilegeUserView), userHandler.GetUser)
	protected.Put("/users/:id/privileges", middleware.RequirePrivilege(model.PrivilegeUserUpdatePrivilege), userHandler.UpdateUserPrivileges)
	protected.Delete("/users/:id", middleware.RequirePrivilege(model.PrivilegeUserDelete), userHandler.DeleteUser)

	protected.Get("/roles", middleware.RequireAnyPrivilege(model.PrivilegeUserView, model.PrivilegeUserUpdatePrivilege), roleHandler.GetRoles)
	protected.Get("/privileges", middleware.RequireAnyPrivilege(model.PrivilegeUserView, model.PrivilegeUserUpdatePrivilege), roleHandler.GetPrivileges)

	protected.Get("/dashboard/stats", middleware.RequirePrivilege(model.PrivilegeDashboardView), dashHandler.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", middleware.RequirePrivilege(model.PrivilegeDashboardView), dashHandler.GetStockMovement)
	protected.Get("/dashboard/export", middleware.RequirePrivilege(model.PrivilegeDashboardView), dashHandler.ExportProducts)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(wsHub.Serve))

	// 10. Serve until signalled
	go func() {
		if err := app.Listen(":" + cfg.ServicePort); err != nil {
			log.Error().Err(err).Msg("listen")
			stop()
		}
	}()
	log.Info().Str("port", cfg.ServicePort).Msg("catalog service started")

	<-ctx.Done()

	log.Info().Msg("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// newApp builds the Fiber app with the shared middleware stack. Requests per
// client IP are capped at rateLimit a minute, websocket upgrades excepted.
func newApp(rateLimit int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Product Catalog v1.0",
		ErrorHandler: handler.ErrorHandler,
		BodyLimit:    20 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New())
	app.Use(limiter.New(limiter.Config{
		Max:        rateLimit,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return websocket.IsWebSocketUpgrade(c)
		},
	}))
	return app
}

// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"time"

	"aquaflow-service/internal/config"
	"aquaflow-service/internal/db"
	"aquaflow-service/internal/event"
	authHandler "aquaflow-service/internal/handlers/auth"
	billingHandler "aquaflow-service/internal/handlers/billing"
	contractHandler "aquaflow-service/internal/handlers/contract"
	customerHandler "aquaflow-service/internal/handlers/customer"
	meterHandler "aquaflow-service/internal/handlers/meter"
	notifyH "aquaflow-service/internal/handlers/notification"
	wsHandler "aquaflow-service/internal/handlers/websocket"
	"aquaflow-service/internal/middleware"
	"aquaflow-service/internal/pkg/jwt"
	"aquaflow-service/internal/pkg/session"
	"aquaflow-service/internal/repository/postgres"
	authSvc "aquaflow-service/internal/service/auth"
	billingSvc "aquaflow-service/internal/service/billing"
	contractSvc "aquaflow-service/internal/service/contract"
	customerSvc "aquaflow-service/internal/service/customer"
	meterSvc "aquaflow-service/internal/service/meter"
	notifySvc "aquaflow-service/internal/service/notification"
	"aquaflow-service/internal/websocket"
	wsHandlers "aquaflow-service/internal/websocket/handler"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg         config.AppConfig
	engine      *gin.Engine
	logger      *zap.Logger
	authService *authSvc.Service
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start(ctx context.Context) error {
	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	logger.Info("postgres connected")

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("redis connected")

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Session Manager & Rate Limiter -----
	sessionManager := session.NewManager(redisClient)
	rateLimiter := session.NewRateLimiter(redisClient)

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool)
	staffRepo := postgres.NewStaffRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	contractRepo := postgres.NewContractRepository(pool)
	serviceContractRepo := postgres.NewServiceContractRepository(pool)
	meterRepo := postgres.NewMeterRepository(pool)
	readingRepo := postgres.NewReadingRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	notifyRepo := postgres.NewNotificationRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(jwtManager.Verifier, sessionManager)
	hub.RegisterHandler(wsHandlers.NewNotificationHandler(notifyRepo, logger))
	go hub.Run(ctx)

	// ----- Services -----
	authService := authSvc.NewService(staffRepo, jwtManager, sessionManager, rateLimiter, logger)
	s.authService = authService

	contractService := contractSvc.NewService(
		dbWrapper, contractRepo, serviceContractRepo, meterRepo, readingRepo, outboxRepo, logger)
	meterService := meterSvc.NewService(dbWrapper, meterRepo, readingRepo, serviceContractRepo, logger)
	billingService := billingSvc.NewService(
		dbWrapper, invoiceRepo, readingRepo, serviceContractRepo, outboxRepo, logger)
	notifService := notifySvc.NewService(notifyRepo, hub, logger)
	customerService := customerSvc.NewService(customerRepo, logger)

	// ----- Outbox Dispatcher -----
	dispatcher := event.NewDispatcher(outboxRepo, s.cfg.DispatchInterval, s.cfg.DispatchBatch, logger)
	dispatcher.Register(notifySvc.NewListener(notifyRepo, staffRepo, hub, logger))
	go dispatcher.Run(ctx)

	// ----- Overdue Sweep -----
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := billingService.MarkOverdueInvoices(ctx, time.Now()); err != nil {
					logger.Error("overdue sweep failed", zap.Error(err))
				}
			}
		}
	}()

	// ----- Bootstrap Admin -----
	if err := s.initializeAdmin(ctx); err != nil {
		logger.Error("failed to initialize admin", zap.Error(err))
	}

	// ----- Handlers -----
	authHandlerInst := authHandler.NewAuthHandler(authService)
	contractHandlerInst := contractHandler.NewContractHandler(contractService)
	meterHandlerInst := meterHandler.NewMeterHandler(meterService)
	billingHandlerInst := billingHandler.NewBillingHandler(billingService)
	notifHandlerInst := notifyH.NewNotificationHandler(notifService)
	customerHandlerInst := customerHandler.NewCustomerHandler(customerService)
	wsHandlerInst := wsHandler.NewWebSocketHandler(hub, logger)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(authService)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	handlers := &Handlers{
		AuthHandler:     authHandlerInst,
		ContractHandler: contractHandlerInst,
		MeterHandler:    meterHandlerInst,
		BillingHandler:  billingHandlerInst,
		NotifHandler:    notifHandlerInst,
		CustomerHandler: customerHandlerInst,
		WSHandler:       wsHandlerInst,
		AuthMiddleware:  authMiddleware,
	}
	SetupRouter(s.engine, handlers)

	// ----- Start HTTP -----
	logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr))
	return s.engine.Run(s.cfg.HTTPAddr)
}

// initializeAdmin seeds the bootstrap admin account from config.
func (s *Server) initializeAdmin(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if s.cfg.AdminEmail == "" || s.cfg.AdminPassword == "" {
		s.logger.Warn("admin credentials not configured, skipping bootstrap admin")
		return nil
	}
	if len(s.cfg.AdminPassword) < 8 {
		return fmt.Errorf("admin password must be at least 8 characters")
	}

	return s.authService.EnsureAdminExists(ctx, s.cfg.AdminEmail, s.cfg.AdminPassword, s.cfg.AdminName)
}

// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "wayfare/docs" // swagger docs
	"wayfare/internal/cache"
	"wayfare/internal/config"
	"wayfare/internal/database"
	"wayfare/internal/events"
	"wayfare/internal/featureflags"
	"wayfare/internal/middleware"
	"wayfare/internal/models"
	"wayfare/internal/notifications"
	"wayfare/internal/payment"
	"wayfare/internal/repository"
	"wayfare/internal/service"
	"wayfare/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// wireableHub is implemented by every WebSocket hub that can be wired to
// Redis pub/sub and gracefully shut down.
type wireableHub interface {
	Name() string
	StartWiring(ctx context.Context, n *notifications.Notifier) error
	Shutdown(ctx context.Context) error
}

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo     repository.UserRepository
	accRepo      repository.AccommodationRepository
	bookingRepo  repository.BookingRepository
	feeRepo      repository.FeeConfigRepository
	paymentRepo  repository.PaymentRepository
	reviewRepo   repository.ReviewRepository
	eventRepo    repository.EventRepository
	reelRepo     repository.ReelRepository
	chatRepo     repository.ChatRepository
	notifRepo    repository.NotificationRepository
	reportRepo   repository.ReportRepository
	auditRepo    repository.AuditRepository
	currencyRepo repository.CurrencyRepository

	notifier *notifications.Notifier
	hub      *notifications.Hub
	chatHub  *notifications.ChatHub
	hubs     []wireableHub

	publisher    events.Publisher
	featureFlags *featureflags.Manager

	userSvc      *service.UserService
	accSvc       *service.AccommodationService
	bookingSvc   *service.BookingService
	paymentSvc   *service.PaymentService
	reviewSvc    *service.ReviewService
	eventSvc     *service.EventService
	reelSvc      *service.ReelService
	chatSvc      *service.ChatService
	notifSvc     *service.NotificationService
	modSvc       *service.ModerationService
	analyticsSvc *service.AnalyticsService
}

// NewServer creates a new server instance with all dependencies.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and
// optionally performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	prom := middleware.InitMetrics("wayfare-api")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		userRepo:       repository.NewUserRepository(db),
		accRepo:        repository.NewAccommodationRepository(db),
		bookingRepo:    repository.NewBookingRepository(db),
		feeRepo:        repository.NewFeeConfigRepository(db),
		paymentRepo:    repository.NewPaymentRepository(db),
		reviewRepo:     repository.NewReviewRepository(db),
		eventRepo:      repository.NewEventRepository(db),
		reelRepo:       repository.NewReelRepository(db),
		chatRepo:       repository.NewChatRepository(db),
		notifRepo:      repository.NewNotificationRepository(db),
		reportRepo:     repository.NewReportRepository(db),
		auditRepo:      repository.NewAuditRepository(db),
		currencyRepo:   repository.NewCurrencyRepository(db),
		featureFlags:   newFlagManager(cfg),
	}

	// Real-time hubs work without Redis; pub/sub fan-out is wired only when
	// Redis is available.
	server.notifier = notifications.NewNotifier(redisClient)
	server.hub = notifications.NewHub(redisClient)
	server.chatHub = notifications.NewChatHub()
	server.hubs = []wireableHub{server.hub, server.chatHub}

	server.publisher = newEventPublisher(cfg)

	uploader, err := newUploader(cfg)
	if err != nil {
		return nil, fmt.Errorf("object storage init failed: %w", err)
	}

	gateway := payment.NewSandboxGateway()

	pusher := notifications.NewPusher(server.hub, server.notifier)
	chatPublisher := notifications.NewChatPublisher(server.chatHub, server.notifier)

	server.notifSvc = service.NewNotificationService(server.notifRepo, pusher)
	server.userSvc = service.NewUserService(server.userRepo, uploader)
	server.accSvc = service.NewAccommodationService(server.accRepo, server.userRepo, uploader)
	server.bookingSvc = service.NewBookingService(
		server.bookingRepo, server.accRepo, server.feeRepo, server.userRepo,
		server.notifSvc, server.publisher)
	server.paymentSvc = service.NewPaymentService(
		server.paymentRepo, server.bookingRepo, server.feeRepo, server.userRepo,
		gateway, server.notifSvc, server.publisher)
	server.reviewSvc = service.NewReviewService(
		server.reviewRepo, server.bookingRepo, server.accRepo, server.userRepo,
		server.notifSvc, server.publisher)
	server.eventSvc = service.NewEventService(server.eventRepo, server.userRepo, server.notifSvc)
	server.reelSvc = service.NewReelService(server.reelRepo, server.userRepo, server.notifSvc, server.publisher)
	server.chatSvc = service.NewChatService(server.chatRepo, server.userRepo, server.notifSvc, chatPublisher)
	server.modSvc = service.NewModerationService(
		server.reportRepo, server.auditRepo, server.accRepo, server.reviewRepo,
		server.eventRepo, server.reelRepo, server.userRepo,
		server.notifSvc, server.publisher)
	server.analyticsSvc = service.NewAnalyticsService(
		repository.NewAnalyticsRepository(db), server.currencyRepo)

	return server, nil
}

func newFlagManager(cfg *config.Config) *featureflags.Manager {
	if cfg.FeatureFlagsFile != "" {
		m, err := featureflags.NewManagerFromFile(cfg.FeatureFlagsFile)
		if err == nil {
			return m
		}
		middleware.Logger.Warn("feature flags file unreadable, falling back to inline flags",
			"path", cfg.FeatureFlagsFile, "error", err)
	}
	return featureflags.NewManager(cfg.FeatureFlags)
}

func newEventPublisher(cfg *config.Config) events.Publisher {
	if cfg.KafkaBrokers == "" {
		return events.NoopPublisher{}
	}
	publisher, err := events.NewKafkaPublisher(
		strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic, middleware.Logger)
	if err != nil {
		middleware.Logger.Warn("kafka unavailable, domain events disabled", "error", err)
		return events.NoopPublisher{}
	}
	return publisher
}

func newUploader(cfg *config.Config) (storage.Uploader, error) {
	if cfg.S3Endpoint == "" {
		return storage.NoopUploader{}, nil
	}
	return storage.NewClient(
		cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicBaseURL, middleware.Logger)
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit
	// (e.g. limiter) so browser clients still receive CORS headers on error
	// responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (120 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Wayfare Backend Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/refresh", s.Refresh)
	auth.Post("/logout", s.Logout)

	// Payment gateway webhook (authenticated by HMAC signature, not JWT)
	api.Post("/payments/webhook", s.PaymentWebhook)

	// Public accommodation browse/search
	publicAccs := api.Group("/accommodations")
	publicAccs.Get("/", middleware.RateLimit(
		s.redis, 30, time.Minute, "search_listings"), s.ListAccommodations)
	publicAccs.Get("/top", s.TopAccommodations)
	publicAccs.Get("/:id/availability", s.GetAvailability)
	publicAccs.Get("/:id/reviews", s.ListAccommodationReviews)
	publicAccs.Get("/:id/quote", s.GetQuote)
	publicAccs.Get("/:id", s.GetAccommodation)

	// Public event browse
	publicEvents := api.Group("/events")
	publicEvents.Get("/", s.ListEvents)

	// Public reel feed
	publicReels := api.Group("/reels")
	publicReels.Get("/", s.GetReelFeed)
	publicReels.Get("/:id/comments", s.ListReelComments)

	// Currencies (public read, admin write)
	api.Get("/currencies", s.ListCurrencies)
	api.Get("/currencies/convert", s.ConvertCurrency)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	// WebSocket ticket issuance
	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)

	// User routes
	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Post("/me/avatar", s.UploadAvatar)
	users.Get("/:id/reels", s.ListUserReels)
	users.Get("/:id", s.GetUserProfile)

	// Supplier accommodation management
	accs := protected.Group("/accommodations")
	accs.Post("/", s.CreateAccommodation)
	accs.Get("/mine", s.GetMyAccommodations)
	accs.Post("/:id/photos", s.UploadAccommodationPhoto)
	accs.Delete("/:id/photos/:imageId", s.DeleteAccommodationPhoto)
	accs.Put("/:id", s.UpdateAccommodation)
	accs.Delete("/:id", s.DeleteAccommodation)

	// Booking routes
	bookings := protected.Group("/bookings")
	bookings.Post("/", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_booking"), s.CreateBooking)
	bookings.Get("/me", s.GetMyBookings)
	bookings.Get("/supplier", s.GetSupplierBookings)
	bookings.Post("/:id/confirm", s.ConfirmBooking)
	bookings.Post("/:id/cancel", s.CancelBooking)
	bookings.Post("/:id/complete", s.CompleteBooking)
	bookings.Post("/:id/no-show", s.MarkBookingNoShow)
	bookings.Post("/:id/checkout", s.Checkout)
	bookings.Get("/:id", s.GetBooking)

	// Payment routes
	payments := protected.Group("/payments")
	payments.Get("/:id", s.GetPayment)

	// Review routes
	reviews := protected.Group("/reviews")
	reviews.Post("/", s.CreateReview)
	reviews.Get("/me", s.GetMyReviews)
	reviews.Post("/:id/helpful", s.MarkReviewHelpful)
	reviews.Delete("/:id/helpful", s.UnmarkReviewHelpful)
	reviews.Put("/:id", s.UpdateReview)
	reviews.Delete("/:id", s.DeleteReview)

	// Event routes
	evts := protected.Group("/events")
	evts.Post("/", s.CreateEvent)
	evts.Get("/mine", s.GetMyEvents)
	evts.Post("/:id/join", s.JoinEvent)
	evts.Delete("/:id/join", s.LeaveEvent)
	evts.Get("/:id/participants", s.ListEventParticipants)
	evts.Put("/:id", s.UpdateEvent)
	evts.Delete("/:id", s.DeleteEvent)
	// Public get registered after the protected subroutes so specific routes win.
	publicEvents.Get("/:id", s.GetEvent)

	// Reel routes
	reels := protected.Group("/reels")
	reels.Post("/", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "create_reel"), s.CreateReel)
	reels.Post("/:id/like", s.LikeReel)
	reels.Delete("/:id/like", s.UnlikeReel)
	reels.Post("/:id/bookmark", s.BookmarkReel)
	reels.Delete("/:id/bookmark", s.UnbookmarkReel)
	reels.Post("/:id/share", s.ShareReel)
	reels.Post("/:id/comments", middleware.RateLimit(
		s.redis, 10, time.Minute, "reel_comment"), s.CommentOnReel)
	reels.Delete("/:id/comments/:commentId", s.DeleteReelComment)
	reels.Delete("/:id", s.DeleteReel)
	publicReels.Get("/:id", s.GetReel)

	// Chat routes
	conversations := protected.Group("/conversations")
	conversations.Post("/direct", s.StartDirectConversation)
	conversations.Post("/group", s.CreateGroupConversation)
	conversations.Get("/", s.GetConversations)
	conversations.Get("/:id/messages", s.GetMessages)
	conversations.Post("/:id/messages", middleware.RateLimit(
		s.redis, 20, time.Minute, "send_chat"), s.SendMessage)
	conversations.Post("/:id/join", s.JoinConversation)
	conversations.Post("/:id/read", s.MarkConversationRead)
	conversations.Get("/:id/unread", s.CountUnreadMessages)
	conversations.Delete("/:id", s.LeaveConversation)
	conversations.Get("/:id", s.GetConversation)

	// Notification routes
	notifs := protected.Group("/notifications")
	notifs.Get("/", s.GetNotifications)
	notifs.Get("/unread-count", s.CountUnreadNotifications)
	notifs.Post("/read-all", s.MarkAllNotificationsRead)
	notifs.Post("/:id/read", s.MarkNotificationRead)

	// Trust and safety reports
	protected.Post("/reports", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "submit_report"), s.SubmitReport)

	// Feature flags for the current user
	protected.Get("/flags", s.GetFeatureFlags)

	// Websocket endpoints - protected by AuthRequired
	ws := api.Group("/ws", s.AuthRequired())
	ws.Get("/", s.WebsocketHandler())        // In-app notifications
	ws.Get("/chat", s.WebSocketChatHandler()) // Real-time chat

	// Admin routes
	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/queue/:type", s.GetApprovalQueue)
	admin.Post("/content/:type/:id/approve", s.ApproveContent)
	admin.Post("/content/:type/:id/reject", s.RejectContent)
	admin.Get("/reports", s.GetReports)
	admin.Get("/reports/:id", s.GetReport)
	admin.Post("/reports/:id/resolve", s.ResolveReport)
	admin.Get("/fees/active", s.GetActiveFeeConfig)
	admin.Get("/fees", s.ListFeeConfigs)
	admin.Post("/fees", s.ActivateFeeConfig)
	admin.Get("/stats", s.GetPlatformStats)
	admin.Get("/stats/revenue", s.GetRevenueSeries)
	admin.Get("/stats/user-growth", s.GetUserGrowth)
	admin.Get("/stats/occupancy", s.GetOccupancy)
	admin.Get("/stats/reels", s.GetReelEngagement)
	admin.Get("/stats/top-accommodations", s.TopAccommodations)
	admin.Get("/users", s.ListUsers)
	admin.Post("/users/:id/role", s.SetUserRole)
	admin.Post("/users/:id/status", s.SetUserStatus)
	admin.Post("/payments/:id/refund", s.RefundPayment)
	admin.Put("/currencies/:code", s.UpsertCurrency)
	admin.Get("/audit", s.GetAuditLog)
	admin.Get("/feature-flags", s.GetAllFeatureFlags)
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis is required for full readiness: tickets, rate limits, fan-out.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uint)

		admin, err := s.isAdminByUserID(c.UserContext(), userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}

		return c.Next()
	}
}

// AuthRequired returns the authentication middleware.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		isWSPath := strings.HasPrefix(path, "/api/ws")

		// 1. Try WebSocket ticket first (short-lived, single-use)
		ticket := c.Query("ticket")
		if ticket != "" && s.redis != nil {
			key := fmt.Sprintf("ws_ticket:%s", ticket)
			userIDStr, err := s.redis.Get(c.Context(), key).Result()
			if err == nil {
				userID, parseErr := strconv.ParseUint(userIDStr, 10, 32)
				if parseErr == nil {
					// Delete ticket immediately (single-use)
					s.redis.Del(c.Context(), key)

					c.Locals("userID", uint(userID))
					ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, uint(userID))
					c.SetUserContext(ctx)
					return c.Next()
				}
			}
			// If ticket was provided but invalid/expired, we fail if it's a WS path
			if isWSPath {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		}

		// 2. Fall back to JWT Bearer token
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token claims"))
		}

		// Validate issuer and audience
		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != tokenIssuer {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token issuer"))
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != tokenAudience {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token audience"))
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}

		userID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		// Check JTI for revocation
		if jti, exists := claims["jti"].(string); exists && jti != "" {
			if s.redis != nil {
				isBlacklisted, err := s.redis.Exists(c.Context(), "blacklist:"+jti).Result()
				if err == nil && isBlacklisted > 0 {
					return models.RespondWithError(c, fiber.StatusUnauthorized,
						models.NewUnauthorizedError("Token has been revoked"))
				}
			}
		}

		// Suspension takes effect immediately, not at next login.
		if suspended, serr := s.isSuspendedByUserID(c.UserContext(), uint(userID)); serr == nil && suspended {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Account is suspended"))
		}

		c.Locals("userID", uint(userID))
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, uint(userID))
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// optionalUserID attempts to extract userID from the Authorization header but
// does not enforce it. Public browse endpoints use it to tailor results.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(userID), true
}

// Start starts the server.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName:   "Wayfare API",
		BodyLimit: s.config.MediaMaxUploadSizeMB * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			middleware.Logger.Error("unhandled request error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Wire all hubs to the Redis subscriber if available
	if s.redis != nil {
		for _, h := range s.hubs {
			h := h
			go func() {
				if err := h.StartWiring(s.shutdownCtx, s.notifier); err != nil {
					middleware.Logger.Error("failed to start hub wiring", "hub", h.Name(), "error", err)
				}
			}()
		}
	}

	go s.runMaintenanceLoop(s.shutdownCtx)

	middleware.Logger.Info("server starting", "port", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// runMaintenanceLoop periodically completes elapsed stays and prunes old
// notifications.
func (s *Server) runMaintenanceLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.bookingSvc.CompleteElapsedStays(ctx); err != nil {
				middleware.Logger.Warn("completing elapsed stays failed", "error", err)
			} else if n > 0 {
				middleware.Logger.Info("completed elapsed stays", "count", n)
			}

			if n, err := s.notifSvc.PruneOld(ctx); err != nil {
				middleware.Logger.Warn("pruning notifications failed", "error", err)
			} else if n > 0 {
				middleware.Logger.Info("pruned old notifications", "count", n)
			}
		}
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop all wiring goroutines
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// Shutdown the HTTP/WS server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	// Close WebSocket connections gracefully
	for _, h := range s.hubs {
		if err := h.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down hub", "hub", h.Name(), "error", err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			middleware.Logger.Error("error closing event publisher", "error", err)
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}

package api

import (
	"fmt"
	"log"
	"net/http"

	"tiketku/internal/cache"
	"tiketku/internal/config"
	"tiketku/internal/database"
	"tiketku/internal/external"
	"tiketku/internal/handlers"
	"tiketku/internal/messaging"
	"tiketku/internal/middleware"
	"tiketku/internal/models"
	"tiketku/internal/repository"
	"tiketku/internal/service"
	"tiketku/internal/settings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wires the HTTP API together
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	services *service.Services
	repos    *repository.Repositories
}

func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}

	// Cache is optional; the API degrades to database lookups without it
	valkeyClient, err := cache.NewValkeyClient()
	if err != nil {
		log.Printf("Valkey unavailable, running without cache: %v", err)
		valkeyClient = nil
	}

	paymentClient := external.NewPaymentClient(cfg.Payment)
	notifierClient := external.NewNotifierClient(cfg.Notifier)

	repos := repository.NewRepositories(db)
	store := settings.NewStore(repos.Settings, cfg.Settings)
	services := service.NewServices(repos, natsClient, valkeyClient, paymentClient, notifierClient, store)

	router := gin.Default()

	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		valkey:   valkeyClient,
		services: services,
		repos:    repos,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services)

	api := s.router.Group("/api")
	api.Use(middleware.BasicAuth(s.repos.Users, s.valkey))
	{
		conversions := api.Group("/conversions")
		{
			conversions.GET("/active", h.GetActiveConversion)
			conversions.GET("/recommend", h.RecommendCredits)
		}

		wallet := api.Group("/wallet")
		{
			wallet.GET("", h.GetWallet)
			wallet.GET("/transactions", h.ListTransactions)
			wallet.GET("/grants", h.ListGrants)
		}

		packages := api.Group("/packages")
		{
			packages.GET("", h.ListPackages)
			packages.POST("/purchase", h.PurchasePackage)
		}

		bookings := api.Group("/bookings")
		{
			bookings.POST("", h.CreateBooking)
			bookings.GET("", h.ListBookings)
			bookings.GET("/:id", h.GetBooking)
			bookings.PATCH("/cancel", h.CancelBooking)
		}

		api.GET("/events/:id/slots", h.ListSlots)

		merchant := api.Group("/merchant")
		merchant.Use(middleware.RequireRole(models.RoleMerchant, models.RoleAdmin))
		{
			merchant.GET("/payouts", h.ListMyPayouts)
			merchant.POST("/payouts/request", h.RequestPayouts)
			merchant.PUT("/slots/:id/prices", h.SetSlotPrice)
			merchant.POST("/redemptions/redeem", h.Redeem)
			merchant.POST("/redemptions/absent", h.MarkAbsent)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/conversions", h.CreateConversion)
			admin.GET("/conversions", h.ListConversions)
			admin.POST("/conversions/activate", h.ActivateConversion)
			admin.POST("/payouts/calculate", h.CalculatePayouts)
			admin.GET("/payouts", h.ListPayouts)
			admin.POST("/payouts/paid", h.MarkPayoutsPaid)
			admin.POST("/wallets/reconcile", h.ReconcileWallets)
			admin.GET("/settings", h.ListSettings)
			admin.PUT("/settings", h.SetSetting)
		}
	}

	s.router.POST("/api/auth/register", h.Register)

	// Gateway webhook is authenticated by its signed token, not Basic Auth
	s.router.POST("/api/payments/notifications", h.OnPaymentUpdates)

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "tiketku-api",
		"version": "1.0.0",
	})
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter exposes the router for tests
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup closes the outbound connections
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			log.Printf("Error closing Valkey connection: %v", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
			return err
		}
	}

	return nil
}

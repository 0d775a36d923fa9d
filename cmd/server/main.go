package main

import (
	"log"

	"sekolahpay/internal/config"
	"sekolahpay/internal/database"
	"sekolahpay/internal/handlers"
	"sekolahpay/internal/health"
	"sekolahpay/internal/reminder"
	"sekolahpay/internal/services"
	"sekolahpay/internal/wablas"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	db := database.GetDB()

	store := database.NewStore(db)
	gateway := wablas.NewClient(cfg.WablasBaseURL, cfg.WablasAPIKey, cfg.WablasSecretKey)
	policy := reminder.NewPolicy(cfg, store)

	proofService, err := services.NewProofService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize proof storage:", err)
	}
	otpService := services.NewOtpService(cfg, store, gateway)
	paymentService := services.NewPaymentService(db, policy)
	checker := health.NewChecker(cfg, store)

	// Drains queued confirmation messages in the background.
	services.NewNotificationWorker(store, gateway).Start()

	h := handlers.New(cfg, db, gateway, checker, otpService, paymentService, proofService)

	router := gin.Default()
	router.SetTrustedProxies([]string{"127.0.0.1"})
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.AppBaseURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.GET("/", h.Home)
	router.GET("/health", h.Health)
	router.GET("/health/device", h.DeviceStatus)

	router.POST("/auth/otp/request", h.RequestOtp)
	router.POST("/auth/otp/verify", h.VerifyOtp)

	api := router.Group("/api")
	{
		api.POST("/payments", h.SubmitPayment)
		api.GET("/payments", h.ListPayments)
		api.GET("/payments/:id", h.GetPayment)
		api.POST("/payments/:id/validate", h.ValidatePayment)
	}

	log.Printf("Server starting on port %s...", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

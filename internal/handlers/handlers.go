package handlers

import (
	"log"
	"net/http"

	"sekolahpay/internal/config"
	"sekolahpay/internal/health"
	"sekolahpay/internal/services"
	"sekolahpay/internal/wablas"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler bundles the dependencies the HTTP surface needs. Everything is
// injected once at startup.
type Handler struct {
	cfg     *config.Config
	db      *gorm.DB
	gateway *wablas.Client
	checker *health.Checker
	otp     *services.OtpService
	payment *services.PaymentService
	proof   *services.ProofService
}

// New creates the handler set
func New(cfg *config.Config, db *gorm.DB, gateway *wablas.Client, checker *health.Checker,
	otp *services.OtpService, payment *services.PaymentService, proof *services.ProofService) *Handler {
	return &Handler{
		cfg:     cfg,
		db:      db,
		gateway: gateway,
		checker: checker,
		otp:     otp,
		payment: payment,
		proof:   proof,
	}
}

// handleError provides a consistent way to handle and log errors
func handleError(c *gin.Context, status int, message string, err error) {
	log.Printf("Error: %v", err)
	c.JSON(status, gin.H{"error": message})
}

// Home handles requests to the root path "/"
func (h *Handler) Home(c *gin.Context) {
	c.String(http.StatusOK, "%s payment service", h.cfg.SchoolName)
}

// Health runs the pre-flight checks and reports them as JSON.
func (h *Handler) Health(c *gin.Context) {
	report := h.checker.Run()
	status := http.StatusOK
	if !report.OK() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

// DeviceStatus proxies the gateway device diagnostic.
func (h *Handler) DeviceStatus(c *gin.Context) {
	body, err := h.gateway.DeviceStatus()
	if err != nil {
		handleError(c, http.StatusBadGateway, "Gateway device status unavailable", err)
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

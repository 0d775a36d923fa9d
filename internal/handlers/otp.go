package handlers

import (
	"errors"
	"log"
	"net/http"

	"sekolahpay/internal/models"
	"sekolahpay/internal/services"
	"sekolahpay/internal/utils"

	"github.com/gin-gonic/gin"
)

// RequestOtp creates a login challenge and delivers the code over WhatsApp.
func (h *Handler) RequestOtp(c *gin.Context) {
	var req models.OtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	log.Printf("OTP requested for %s from %s", req.Phone, utils.GetRealClientIP(c))

	if err := h.otp.RequestChallenge(req.Phone); err != nil {
		if errors.Is(err, services.ErrOtpSendFailure) {
			handleError(c, http.StatusBadGateway, "Failed to deliver code, try again later", err)
			return
		}
		handleError(c, http.StatusBadRequest, "Could not create login code", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Kode verifikasi telah dikirim"})
}

// VerifyOtp checks a submitted login code.
func (h *Handler) VerifyOtp(c *gin.Context) {
	var req models.OtpVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	if err := h.otp.VerifyChallenge(req.Phone, req.Code); err != nil {
		switch {
		case errors.Is(err, services.ErrOtpNotFound):
			handleError(c, http.StatusNotFound, "No active code for this phone", err)
		case errors.Is(err, services.ErrOtpExpired):
			handleError(c, http.StatusGone, "Code has expired, request a new one", err)
		case errors.Is(err, services.ErrOtpLocked):
			handleError(c, http.StatusTooManyRequests, "Too many wrong attempts, request a new code", err)
		case errors.Is(err, services.ErrOtpWrongCode):
			handleError(c, http.StatusUnauthorized, "Wrong code", err)
		default:
			handleError(c, http.StatusInternalServerError, "Verification failed", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Nomor berhasil diverifikasi"})
}

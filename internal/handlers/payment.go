package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"sekolahpay/internal/models"
	"sekolahpay/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmitPayment accepts a payment proof upload from a parent: form fields
// plus a proof image that is stored in Cloudinary. The proof is validated
// and uploaded before the Payment row is created, so a rejected or failed
// upload never leaves an orphan pending payment behind.
func (h *Handler) SubmitPayment(c *gin.Context) {
	var req models.SubmitPaymentRequest
	if err := c.ShouldBind(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	fileHeader, err := c.FormFile("proof")
	if err != nil {
		handleError(c, http.StatusBadRequest, "Missing proof image", err)
		return
	}
	if fileHeader.Size > services.MaxProofSize {
		handleError(c, http.StatusBadRequest, "Proof image too large",
			fmt.Errorf("proof is %d bytes (max %d bytes)", fileHeader.Size, services.MaxProofSize))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		handleError(c, http.StatusBadRequest, "Cannot read proof image", err)
		return
	}
	defer file.Close()

	var student models.Student
	if err := h.db.First(&student, req.StudentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Student not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to load student", err)
		return
	}

	var paymentType models.PaymentType
	if err := h.db.First(&paymentType, req.PaymentTypeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Payment type not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to load payment type", err)
		return
	}

	// The reference keys the stored proof, so it is generated before the
	// row exists.
	reference := uuid.NewString()
	url, err := h.proof.UploadProof(file, fileHeader.Filename, reference)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to store proof image", err)
		return
	}

	payment := models.Payment{
		Reference:     reference,
		StudentID:     student.ID,
		PaymentTypeID: paymentType.ID,
		Amount:        req.Amount,
		ProofURL:      url,
		Status:        models.PaymentPending,
	}
	if err := h.db.Create(&payment).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to record payment", err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// ValidatePayment applies a staff decision to a pending payment. The
// guardian confirmation message is queued by the payment service.
func (h *Handler) ValidatePayment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		handleError(c, http.StatusBadRequest, "Invalid payment id", err)
		return
	}

	var req models.ValidatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	payment, err := h.payment.Validate(uint(id), req.Status, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentNotFound):
			handleError(c, http.StatusNotFound, "Payment not found", err)
		case errors.Is(err, services.ErrPaymentNotPending):
			handleError(c, http.StatusConflict, "Payment has already been validated", err)
		case errors.Is(err, services.ErrInvalidStatus):
			handleError(c, http.StatusBadRequest, "Status must be approved or rejected", err)
		default:
			handleError(c, http.StatusInternalServerError, "Failed to validate payment", err)
		}
		return
	}

	c.JSON(http.StatusOK, payment)
}

// ListPayments returns payments, optionally filtered by status or student.
func (h *Handler) ListPayments(c *gin.Context) {
	query := h.db.Preload("Student").Preload("PaymentType").Order("created_at desc")

	if status := c.Query("status"); status != "" {
		if !models.PaymentStatus(status).Valid() {
			handleError(c, http.StatusBadRequest, "Unknown status filter", errors.New("unknown status "+status))
			return
		}
		query = query.Where("status = ?", status)
	}
	if studentID := c.Query("student_id"); studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}

	var payments []models.Payment
	if err := query.Limit(200).Find(&payments).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// GetPayment returns one payment by id.
func (h *Handler) GetPayment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		handleError(c, http.StatusBadRequest, "Invalid payment id", err)
		return
	}

	var payment models.Payment
	err = h.db.Preload("Student").Preload("PaymentType").First(&payment, uint(id)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Payment not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to load payment", err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

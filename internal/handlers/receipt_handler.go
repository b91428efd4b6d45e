package handlers

import (
	"net/http"

	"github.com/farellandr/castingcall/internal/helpers"
	"github.com/farellandr/castingcall/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const receiptQRSize = 256

func GetPaymentReceipt(c *gin.Context) {
	svc := middleware.GetPaymentService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Payment service not configured.")
		return
	}

	qrData, err := svc.IssueReceipt(c.Request.Context(), middleware.UserID(c), c.Param("orderId"))
	if err != nil {
		RespondWithPaymentError(c, err)
		return
	}

	qrImage, err := qrcode.Encode(qrData, qrcode.Medium, receiptQRSize)
	if err != nil {
		helpers.RespondWithInternalError(c, http.StatusInternalServerError, err, "Failed to generate QR code.")
		return
	}

	c.Data(http.StatusOK, "image/png", qrImage)
}

func ValidateReceipt(c *gin.Context) {
	svc := middleware.GetPaymentService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Payment service not configured.")
		return
	}

	var validationRequest struct {
		QRData string `json:"qr_data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&validationRequest); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	check, err := svc.ValidateReceipt(c.Request.Context(), middleware.UserID(c), validationRequest.QRData)
	if err != nil {
		RespondWithPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Receipt validated successfully",
		"payment": check.Order,
		"target":  check.Target,
	})
}

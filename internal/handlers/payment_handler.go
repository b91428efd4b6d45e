package handlers

import (
	"net/http"

	"github.com/farellandr/castingcall/internal/helpers"
	"github.com/farellandr/castingcall/internal/middleware"
	"github.com/farellandr/castingcall/internal/payments"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentRequest struct {
	EventID    *uuid.UUID      `json:"eventId"`
	AuditionID *uuid.UUID      `json:"auditionId"`
	Amount     decimal.Decimal `json:"amount"`
	ReturnURL  string          `json:"returnUrl"`
}

type VerifyRequest struct {
	OrderID string `json:"orderId"`
}

func CreatePayment(c *gin.Context) {
	svc := middleware.GetPaymentService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Payment service not configured.")
		return
	}

	var paymentReq PaymentRequest
	if err := c.ShouldBindJSON(&paymentReq); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	result, err := svc.Initiate(c.Request.Context(), payments.InitiateInput{
		UserID:     middleware.UserID(c),
		EventID:    paymentReq.EventID,
		AuditionID: paymentReq.AuditionID,
		Amount:     paymentReq.Amount,
		ReturnURL:  paymentReq.ReturnURL,
	})
	if err != nil {
		RespondWithPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"paymentUrl": result.PaymentURL,
		"orderId":    result.OrderID,
	})
}

func VerifyPayment(c *gin.Context) {
	svc := middleware.GetPaymentService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Payment service not configured.")
		return
	}

	var verifyReq VerifyRequest
	if err := c.ShouldBindJSON(&verifyReq); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	result, err := svc.Verify(c.Request.Context(), middleware.UserID(c), verifyReq.OrderID)
	if err != nil {
		RespondWithPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"payment":     result.Order,
		"gatewayData": result.GatewayData,
	})
}

func GetPayment(c *gin.Context) {
	svc := middleware.GetPaymentService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Payment service not configured.")
		return
	}

	order, err := svc.GetOrder(c.Request.Context(), middleware.UserID(c), c.Param("orderId"))
	if err != nil {
		RespondWithPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"payment": order,
	})
}

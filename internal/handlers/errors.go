package handlers

import (
	"errors"
	"net/http"

	"github.com/farellandr/castingcall/internal/helpers"
	"github.com/farellandr/castingcall/internal/payments"
	"github.com/gin-gonic/gin"
)

// RespondWithPaymentError renders a payments error with the status code
// of its class. Server side failures are reported to sentry.
func RespondWithPaymentError(c *gin.Context, err error) {
	var gwErr *payments.GatewayError

	switch {
	case errors.Is(err, payments.ErrUnauthenticated):
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
	case errors.Is(err, payments.ErrInvalidRequest):
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &gwErr):
		msg := "Payment gateway rejected the request."
		if gwErr.Message != "" {
			msg = gwErr.Message
		}
		helpers.RespondWithInternalError(c, http.StatusBadGateway, err, msg)
	case errors.Is(err, payments.ErrInvalidSignature):
		helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid signature.")
	case errors.Is(err, payments.ErrNotFound):
		helpers.RespondWithError(c, http.StatusNotFound, "Payment not found.")
	case errors.Is(err, payments.ErrForbidden):
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to access this payment.")
	case errors.Is(err, payments.ErrReceiptUnavailable):
		helpers.RespondWithError(c, http.StatusConflict, "Receipt is only available for successful payments.")
	default:
		helpers.RespondWithInternalError(c, http.StatusInternalServerError, err, "Failed to process payment.")
	}
}

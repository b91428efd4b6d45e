package handlers

import (
	"io"
	"net/http"

	"github.com/farellandr/castingcall/internal/helpers"
	"github.com/farellandr/castingcall/internal/middleware"
	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 64 << 10

// PhonePeWebhook receives server-to-server callbacks. Any non-2xx answer
// makes the gateway redeliver.
func PhonePeWebhook(c *gin.Context) {
	svc := middleware.GetPaymentService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Payment service not configured.")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Failed to read request body.")
		return
	}

	if err := svc.HandleWebhook(c.Request.Context(), body, c.GetHeader("X-VERIFY")); err != nil {
		RespondWithPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

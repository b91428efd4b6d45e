package middleware

import (
	"github.com/farellandr/castingcall/internal/payments"
	"github.com/gin-gonic/gin"
)

const paymentServiceKey = "payment_service"

func PaymentServiceMiddleware(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(paymentServiceKey, svc)
		c.Next()
	}
}

func GetPaymentService(c *gin.Context) *payments.Service {
	svc, exists := c.Get(paymentServiceKey)
	if !exists {
		return nil
	}
	return svc.(*payments.Service)
}

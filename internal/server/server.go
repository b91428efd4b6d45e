package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/farellandr/castingcall/internal/handlers"
	"github.com/farellandr/castingcall/internal/middleware"
	"github.com/farellandr/castingcall/internal/payments"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const rateLimitBurst = 10

type Dependencies struct {
	DB              *gorm.DB
	Service         *payments.Service
	JWTSecret       string
	RateLimitPerMin int
	Logger          zerolog.Logger
}

// Start serves the API on addr until ctx is cancelled, then drains
// in-flight requests.
func Start(ctx context.Context, addr string) error {
	app, err := Load(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	logger := zerolog.Ctx(ctx)

	router, err := NewRouter(Dependencies{
		DB:              app.DB,
		Service:         app.Service,
		JWTSecret:       app.Auth.JWTSecret,
		RateLimitPerMin: app.Server.RateLimitPerMin,
		Logger:          *logger,
	})
	if err != nil {
		return err
	}

	if err := app.StartOutbox(ctx); err != nil {
		return err
	}
	app.StartReconciler(ctx)

	if addr == "" {
		addr = ":" + app.Server.Port
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Server.ShutdownTimeout)
	defer cancel()
	logger.Info().Msg("shutting down server")
	return srv.Shutdown(shutdownCtx)
}

func NewRouter(deps Dependencies) (*gin.Engine, error) {
	limiter, err := middleware.RateLimiter(deps.RateLimitPerMin, rateLimitBurst)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(deps.Logger), middleware.Metrics())

	setupRoutes(r, deps, limiter)
	return r, nil
}

func setupRoutes(r *gin.Engine, deps Dependencies, limiter gin.HandlerFunc) {
	r.Use(middleware.DatabaseMiddleware(deps.DB))
	r.Use(middleware.PaymentServiceMiddleware(deps.Service))

	r.GET("/healthz", handlers.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/v1")
	{
		public.POST("/webhooks/phonepe", limiter, handlers.PhonePeWebhook)
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware(deps.JWTSecret))
	{
		paymentProtected := protected.Group("/payments")
		{
			paymentProtected.POST("", handlers.CreatePayment)
			paymentProtected.POST("/verify", limiter, handlers.VerifyPayment)
			paymentProtected.POST("/receipts/validate", handlers.ValidateReceipt)
			paymentProtected.GET("/:orderId", handlers.GetPayment)
			paymentProtected.GET("/:orderId/receipt", handlers.GetPaymentReceipt)
		}
	}
}

package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/farellandr/castingcall/config"
	"github.com/farellandr/castingcall/internal/helpers"
	"github.com/farellandr/castingcall/internal/metrics"
	"github.com/farellandr/castingcall/internal/models"
	"github.com/farellandr/castingcall/internal/phonepe"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Gateway is the subset of the PhonePe client the service depends on.
type Gateway interface {
	Pay(ctx context.Context, req phonepe.PayRequest) (*phonepe.Response, error)
	Status(ctx context.Context, merchantTransactionID string) (*phonepe.Response, error)
	VerifyCallback(encodedResponse, header string) bool
}

type Service struct {
	cfg           *config.PhonePeConfig
	receiptSecret string
	repo          Repository
	gateway       Gateway
	now           func() time.Time
}

func NewService(cfg *config.PhonePeConfig, receiptSecret string, repo Repository, gateway Gateway) *Service {
	return &Service{
		cfg:           cfg,
		receiptSecret: receiptSecret,
		repo:          repo,
		gateway:       gateway,
		now:           time.Now,
	}
}

type InitiateInput struct {
	UserID     string
	EventID    *uuid.UUID
	AuditionID *uuid.UUID
	Amount     decimal.Decimal
	ReturnURL  string
}

type InitiateResult struct {
	PaymentURL string `json:"paymentUrl"`
	OrderID    string `json:"orderId"`
}

// maxAmount is the exclusive upper bound of the numeric(12,2) amount column.
var maxAmount = decimal.New(1, 10)

func (in InitiateInput) validate() error {
	if in.UserID == "" {
		return ErrUnauthenticated
	}
	if (in.EventID == nil) == (in.AuditionID == nil) {
		return invalid("exactly one of eventId or auditionId is required")
	}
	if !in.Amount.IsPositive() {
		return invalid("amount must be positive")
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return invalid("amount has more than two decimal places")
	}
	if in.Amount.GreaterThanOrEqual(maxAmount) {
		return invalid("amount too large")
	}
	u, err := url.ParseRequestURI(in.ReturnURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return invalid("returnUrl must be an absolute http(s) url")
	}
	return nil
}

func (in InitiateInput) target() (string, uuid.UUID) {
	if in.EventID != nil {
		return TargetEvent, *in.EventID
	}
	return TargetAudition, *in.AuditionID
}

// Initiate creates a gateway transaction and records the pending order. The
// gateway is called first; no row is written for a rejected request.
func (s *Service) Initiate(ctx context.Context, in InitiateInput) (*InitiateResult, error) {
	logger := zerolog.Ctx(ctx)

	if err := in.validate(); err != nil {
		return nil, err
	}

	kind, targetID := in.target()
	if _, err := s.repo.FindTarget(ctx, kind, targetID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, storeErr("find payment target", err)
	}

	amountMinor := in.Amount.Shift(2).IntPart()
	now := s.now()

	for attempt := 0; attempt < maxOrderIDAttempts; attempt++ {
		orderID := NewGatewayOrderID(now.Add(time.Duration(attempt)*time.Millisecond), in.UserID)

		resp, err := s.gateway.Pay(ctx, phonepe.PayRequest{
			MerchantTransactionID: orderID,
			MerchantUserID:        in.UserID,
			AmountMinor:           amountMinor,
			RedirectURL:           in.ReturnURL,
			CallbackURL:           s.cfg.WebhookURL(),
		})
		if err != nil {
			logger.Warn().Err(err).Str("gateway_order_id", orderID).Msg("gateway rejected pay request")
			return nil, gatewayErr(err)
		}

		order := &models.PaymentOrder{
			UserID:         in.UserID,
			EventID:        in.EventID,
			AuditionID:     in.AuditionID,
			Amount:         in.Amount,
			Currency:       s.cfg.Currency,
			Status:         models.PaymentPending,
			GatewayOrderID: orderID,
			PaymentMethod:  models.PaymentMethodPhonePe,
			PaymentURL:     resp.RedirectURL(),
		}

		err = s.repo.Create(ctx, order)
		if err == nil {
			metrics.OrdersInitiated.WithLabelValues(kind).Inc()
			logger.Info().Str("gateway_order_id", orderID).Str("target", kind).Msg("payment order created")
			return &InitiateResult{PaymentURL: order.PaymentURL, OrderID: orderID}, nil
		}
		if errors.Is(err, ErrDuplicateOrderID) {
			logger.Warn().Str("gateway_order_id", orderID).Int("attempt", attempt+1).Msg("gateway order id collision")
			continue
		}

		logger.Error().Err(err).Str("gateway_order_id", orderID).Msg("gateway accepted payment but order was not stored")
		return nil, storeErr("create payment order", err)
	}

	return nil, storeErr("create payment order", ErrDuplicateOrderID)
}

type callbackBody struct {
	Response string `json:"response"`
}

// HandleWebhook applies a signed gateway callback. A nil error means the
// callback should be acknowledged, including when no local order matches.
func (s *Service) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	logger := zerolog.Ctx(ctx)

	var body callbackBody
	if err := json.Unmarshal(rawBody, &body); err != nil || body.Response == "" {
		metrics.WebhookRejections.WithLabelValues("malformed").Inc()
		return invalid("callback body must carry a response field")
	}

	if !s.gateway.VerifyCallback(body.Response, signature) {
		metrics.WebhookRejections.WithLabelValues("signature").Inc()
		logger.Warn().Msg("callback signature mismatch")
		return ErrInvalidSignature
	}

	resp, err := phonepe.DecodeCallback(body.Response)
	if err != nil || resp.Data.MerchantTransactionID == "" {
		metrics.WebhookRejections.WithLabelValues("payload").Inc()
		return invalid("callback payload is not a gateway status response")
	}

	orderID := resp.Data.MerchantTransactionID
	order, applied, err := s.transition(ctx, Transition{
		GatewayOrderID: orderID,
		Status:         phonepe.MapStatus(resp.Code),
		TransactionID:  resp.Data.TransactionID,
		Source:         SourceWebhook,
	})
	switch {
	case errors.Is(err, ErrNotFound):
		logger.Warn().Str("gateway_order_id", orderID).Str("code", resp.Code).Msg("callback for unknown payment order")
		return nil
	case err != nil:
		logger.Error().Err(err).Str("gateway_order_id", orderID).Msg("apply callback")
		return storeErr("apply callback", err)
	}

	logger.Info().
		Str("gateway_order_id", orderID).
		Str("code", resp.Code).
		Str("status", string(order.Status)).
		Bool("applied", applied).
		Msg("callback processed")
	return nil
}

type VerifyResult struct {
	Order       *models.PaymentOrder `json:"payment"`
	GatewayData json.RawMessage      `json:"gatewayData"`
}

// Verify re-queries the gateway for an order owned by userID and applies
// the answer. The gateway is asked on every call.
func (s *Service) Verify(ctx context.Context, userID, orderID string) (*VerifyResult, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, invalid("orderId is required")
	}

	if _, err := s.repo.FindOwned(ctx, orderID, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, storeErr("find payment order", err)
	}

	resp, err := s.gateway.Status(ctx, orderID)
	if err != nil {
		return nil, gatewayErr(err)
	}

	order, _, err := s.transition(ctx, Transition{
		GatewayOrderID: orderID,
		UserID:         userID,
		Status:         phonepe.MapStatus(resp.Code),
		TransactionID:  resp.Data.TransactionID,
		Source:         SourceVerify,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		zerolog.Ctx(ctx).Error().Err(err).Str("gateway_order_id", orderID).Msg("apply verified status")
		return nil, storeErr("apply verified status", err)
	}

	return &VerifyResult{Order: order, GatewayData: resp.Raw}, nil
}

// GetOrder returns an order owned by userID without contacting the gateway.
func (s *Service) GetOrder(ctx context.Context, userID, orderID string) (*models.PaymentOrder, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if orderID == "" {
		return nil, invalid("orderId is required")
	}
	order, err := s.repo.FindOwned(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, storeErr("find payment order", err)
	}
	return order, nil
}

type ReconcileReport struct {
	Checked  int `json:"checked"`
	Resolved int `json:"resolved"`
	Failed   int `json:"failed"`
}

// Reconcile asks the gateway about pending orders older than staleAfter and
// applies the answers. Per-order failures are counted, not returned.
func (s *Service) Reconcile(ctx context.Context, staleAfter time.Duration, batch int) (ReconcileReport, error) {
	logger := zerolog.Ctx(ctx)
	var report ReconcileReport

	orders, err := s.repo.ListStalePending(ctx, s.now().Add(-staleAfter), batch)
	if err != nil {
		return report, storeErr("list stale orders", err)
	}

	for _, order := range orders {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Checked++

		resp, err := s.gateway.Status(ctx, order.GatewayOrderID)
		if err != nil {
			report.Failed++
			logger.Warn().Err(err).Str("gateway_order_id", order.GatewayOrderID).Msg("reconcile status check failed")
			continue
		}

		updated, applied, err := s.transition(ctx, Transition{
			GatewayOrderID: order.GatewayOrderID,
			Status:         phonepe.MapStatus(resp.Code),
			TransactionID:  resp.Data.TransactionID,
			Source:         SourceReconcile,
		})
		if err != nil {
			report.Failed++
			logger.Error().Err(err).Str("gateway_order_id", order.GatewayOrderID).Msg("reconcile transition failed")
			continue
		}
		if applied && updated.Status.IsTerminal() {
			report.Resolved++
		}
	}

	logger.Info().
		Int("checked", report.Checked).
		Int("resolved", report.Resolved).
		Int("failed", report.Failed).
		Msg("reconcile pass finished")
	return report, nil
}

// IssueReceipt returns signed QR data for a successful order owned by userID.
func (s *Service) IssueReceipt(ctx context.Context, userID, orderID string) (string, error) {
	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return "", err
	}
	if order.Status != models.PaymentSuccess {
		return "", ErrReceiptUnavailable
	}

	kind, targetID := order.Target()
	receipt := helpers.Receipt{
		GatewayOrderID: order.GatewayOrderID,
		TargetKind:     kind,
		TargetID:       targetID,
	}
	if order.TransactionID != nil {
		receipt.TransactionID = *order.TransactionID
	}
	return helpers.EncodeReceipt(receipt, s.receiptSecret), nil
}

type ReceiptCheck struct {
	Order  *models.PaymentOrder `json:"payment"`
	Target *Target              `json:"target"`
}

// ValidateReceipt checks scanned QR data on behalf of the organizer or
// recruiter who owns the paid-for target.
func (s *Service) ValidateReceipt(ctx context.Context, ownerID, qrData string) (*ReceiptCheck, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}

	receipt, err := helpers.DecodeReceipt(qrData, s.receiptSecret)
	switch {
	case errors.Is(err, helpers.ErrReceiptSignature):
		return nil, ErrForbidden
	case err != nil:
		return nil, invalid(err.Error())
	}

	order, err := s.repo.FindByGatewayOrderID(ctx, receipt.GatewayOrderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, storeErr("find payment order", err)
	}

	kind, targetID := order.Target()
	if kind != receipt.TargetKind || targetID != receipt.TargetID {
		return nil, ErrForbidden
	}
	if order.Status != models.PaymentSuccess {
		return nil, ErrReceiptUnavailable
	}
	var txn string
	if order.TransactionID != nil {
		txn = *order.TransactionID
	}
	if txn != receipt.TransactionID {
		return nil, ErrForbidden
	}

	target, err := s.repo.FindTarget(ctx, kind, targetID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, storeErr("find payment target", err)
	}
	if target.OwnerID != ownerID {
		return nil, ErrForbidden
	}

	return &ReceiptCheck{Order: order, Target: target}, nil
}

func (s *Service) transition(ctx context.Context, t Transition) (*models.PaymentOrder, bool, error) {
	t.At = s.now()
	order, applied, err := s.repo.Transition(ctx, t)
	if err != nil {
		return nil, false, err
	}
	if applied {
		metrics.StatusTransitions.WithLabelValues(t.Source, string(t.Status)).Inc()
	}
	return order, applied, nil
}

func gatewayErr(err error) error {
	var gwErr *phonepe.Error
	if errors.As(err, &gwErr) {
		return &GatewayError{Code: gwErr.Code, Message: gwErr.Message, Err: err}
	}
	return &GatewayError{Err: err}
}

package payments

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/farellandr/castingcall/config"
	"github.com/farellandr/castingcall/internal/helpers"
	"github.com/farellandr/castingcall/internal/models"
	"github.com/farellandr/castingcall/internal/phonepe"
	"github.com/google/uuid"
)

type memoryRepo struct {
	mu        sync.Mutex
	targets   map[uuid.UUID]Target
	orders    map[string]*models.PaymentOrder
	outbox    []Transition
	createErr []error
	failWith  error
	now       func() time.Time
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		targets: map[uuid.UUID]Target{},
		orders:  map[string]*models.PaymentOrder{},
		now:     time.Now,
	}
}

func (r *memoryRepo) addTarget(kind, owner string) uuid.UUID {
	id := uuid.New()
	r.targets[id] = Target{Kind: kind, ID: id, Title: kind + " title", OwnerID: owner}
	return id
}

func (r *memoryRepo) FindTarget(_ context.Context, kind string, id uuid.UUID) (*Target, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	t, ok := r.targets[id]
	if !ok || t.Kind != kind {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (r *memoryRepo) Create(_ context.Context, order *models.PaymentOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.createErr) > 0 {
		err := r.createErr[0]
		r.createErr = r.createErr[1:]
		if err != nil {
			return err
		}
	}
	if _, ok := r.orders[order.GatewayOrderID]; ok {
		return ErrDuplicateOrderID
	}
	order.ID = uuid.New()
	order.CreatedAt = r.now()
	order.UpdatedAt = order.CreatedAt
	stored := *order
	r.orders[order.GatewayOrderID] = &stored
	return nil
}

func (r *memoryRepo) FindByGatewayOrderID(_ context.Context, id string) (*models.PaymentOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *memoryRepo) FindOwned(_ context.Context, id, userID string) (*models.PaymentOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	order, ok := r.orders[id]
	if !ok || order.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *memoryRepo) Transition(_ context.Context, t Transition) (*models.PaymentOrder, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, false, r.failWith
	}
	order, ok := r.orders[t.GatewayOrderID]
	if !ok || (t.UserID != "" && order.UserID != t.UserID) {
		return nil, false, ErrNotFound
	}
	if order.Status != models.PaymentPending {
		cp := *order
		return &cp, false, nil
	}

	order.Status = t.Status
	order.UpdatedAt = t.At
	if t.TransactionID != "" {
		txn := t.TransactionID
		order.TransactionID = &txn
	}
	if t.Status.IsTerminal() {
		r.outbox = append(r.outbox, t)
	}
	cp := *order
	return &cp, true, nil
}

func (r *memoryRepo) ListStalePending(_ context.Context, before time.Time, limit int) ([]models.PaymentOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PaymentOrder
	for _, order := range r.orders {
		if order.Status == models.PaymentPending && order.CreatedAt.Before(before) {
			out = append(out, *order)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepo) order(id string) models.PaymentOrder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.orders[id]
}

type fakeGateway struct {
	mu          sync.Mutex
	cfg         *config.PhonePeConfig
	payRequests []phonepe.PayRequest
	payErr      error
	statusCalls []string
	statuses    map[string]*phonepe.Response
	statusErr   error
}

func newFakeGateway(cfg *config.PhonePeConfig) *fakeGateway {
	return &fakeGateway{cfg: cfg, statuses: map[string]*phonepe.Response{}}
}

func (g *fakeGateway) Pay(_ context.Context, req phonepe.PayRequest) (*phonepe.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payRequests = append(g.payRequests, req)
	if g.payErr != nil {
		return nil, g.payErr
	}
	return &phonepe.Response{
		Success: true,
		Code:    phonepe.CodePaymentInitiated,
		Data: phonepe.ResponseData{
			MerchantTransactionID: req.MerchantTransactionID,
			InstrumentResponse: &phonepe.InstrumentResponse{
				Type:         "PAY_PAGE",
				RedirectInfo: phonepe.RedirectInfo{URL: "https://mercury.phonepe.com/pay/" + req.MerchantTransactionID},
			},
		},
	}, nil
}

func (g *fakeGateway) Status(_ context.Context, id string) (*phonepe.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statusCalls = append(g.statusCalls, id)
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	resp, ok := g.statuses[id]
	if !ok {
		return &phonepe.Response{Code: phonepe.CodePaymentPending, Raw: json.RawMessage(`{"code":"PAYMENT_PENDING"}`)}, nil
	}
	return resp, nil
}

func (g *fakeGateway) VerifyCallback(encoded, header string) bool {
	return helpers.VerifyCallbackChecksum(encoded, header, g.cfg.StatusSalt, g.cfg.SaltIndex)
}

func (g *fakeGateway) setStatus(orderID, code, txn string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	raw, _ := json.Marshal(map[string]any{
		"success": code == phonepe.CodePaymentSuccess,
		"code":    code,
		"data":    map[string]string{"merchantTransactionId": orderID, "transactionId": txn},
	})
	g.statuses[orderID] = &phonepe.Response{
		Success: code == phonepe.CodePaymentSuccess,
		Code:    code,
		Data:    phonepe.ResponseData{MerchantTransactionID: orderID, TransactionID: txn},
		Raw:     raw,
	}
}

func testConfig() *config.PhonePeConfig {
	return &config.PhonePeConfig{
		MerchantID:      "MERCHANTUAT",
		BaseURL:         "https://gateway.invalid",
		PaySalt:         "pay-salt",
		StatusSalt:      "status-salt",
		SaltIndex:       "1",
		CallbackBaseURL: "https://api.example.com",
		Currency:        "INR",
	}
}

// signedCallback builds a webhook body and X-VERIFY header the way the
// gateway does.
func signedCallback(salt, orderID, code, txn string) ([]byte, string) {
	payload, _ := json.Marshal(map[string]any{
		"success": code == phonepe.CodePaymentSuccess,
		"code":    code,
		"message": "callback",
		"data": map[string]any{
			"merchantId":            "MERCHANTUAT",
			"merchantTransactionId": orderID,
			"transactionId":         txn,
			"amount":                50000,
		},
	})
	encoded := base64.StdEncoding.EncodeToString(payload)
	body, _ := json.Marshal(map[string]string{"response": encoded})
	return body, helpers.Digest(encoded+helpers.StatusPath+salt) + "###1"
}

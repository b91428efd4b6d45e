package phonepe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/farellandr/castingcall/config"
	"github.com/farellandr/castingcall/internal/helpers"
	"github.com/farellandr/castingcall/internal/metrics"
	"github.com/farellandr/castingcall/internal/models"
	"github.com/rs/zerolog"
)

const (
	CodePaymentSuccess   = "PAYMENT_SUCCESS"
	CodePaymentPending   = "PAYMENT_PENDING"
	CodePaymentInitiated = "PAYMENT_INITIATED"

	instrumentPayPage = "PAY_PAGE"
	redirectModeGet   = "REDIRECT"

	maxResponseBytes = 1 << 20
)

type PayRequest struct {
	MerchantTransactionID string
	MerchantUserID        string
	AmountMinor           int64
	RedirectURL           string
	CallbackURL           string
}

type payPayload struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	PaymentInstrument     paymentInstrument `json:"paymentInstrument"`
}

type paymentInstrument struct {
	Type string `json:"type"`
}

// Response is the envelope the gateway uses for pay, status and callback
// payloads.
type Response struct {
	Success bool         `json:"success"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Data    ResponseData `json:"data"`

	Raw json.RawMessage `json:"-"`
}

type ResponseData struct {
	MerchantID            string              `json:"merchantId"`
	MerchantTransactionID string              `json:"merchantTransactionId"`
	TransactionID         string              `json:"transactionId,omitempty"`
	Amount                int64               `json:"amount,omitempty"`
	State                 string              `json:"state,omitempty"`
	ResponseCode          string              `json:"responseCode,omitempty"`
	InstrumentResponse    *InstrumentResponse `json:"instrumentResponse,omitempty"`
}

type InstrumentResponse struct {
	Type         string       `json:"type"`
	RedirectInfo RedirectInfo `json:"redirectInfo"`
}

type RedirectInfo struct {
	URL    string `json:"url"`
	Method string `json:"method"`
}

// RedirectURL is the hosted pay-page address, empty when absent.
func (r *Response) RedirectURL() string {
	if r.Data.InstrumentResponse == nil {
		return ""
	}
	return r.Data.InstrumentResponse.RedirectInfo.URL
}

// Error is a rejection reported by the gateway.
type Error struct {
	HTTPStatus int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.HTTPStatus)
	}
	if e.Code != "" {
		return fmt.Sprintf("phonepe %s: %s", e.Code, msg)
	}
	return "phonepe: " + msg
}

type Client struct {
	cfg     *config.PhonePeConfig
	baseURL string
	client  *http.Client
}

func NewClient(cfg *config.PhonePeConfig, httpClient *http.Client) (*Client, error) {
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse gateway base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpClient,
	}, nil
}

// Pay creates a gateway transaction and returns the gateway envelope. A
// non-success envelope or a missing redirect URL is returned as *Error.
func (c *Client) Pay(ctx context.Context, req PayRequest) (*Response, error) {
	payload := payPayload{
		MerchantID:            c.cfg.MerchantID,
		MerchantTransactionID: req.MerchantTransactionID,
		MerchantUserID:        req.MerchantUserID,
		Amount:                req.AmountMinor,
		RedirectURL:           req.RedirectURL,
		RedirectMode:          redirectModeGet,
		CallbackURL:           req.CallbackURL,
		PaymentInstrument:     paymentInstrument{Type: instrumentPayPage},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal pay payload: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	body, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return nil, fmt.Errorf("marshal pay request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+helpers.PayPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create pay request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-VERIFY", helpers.PayChecksum(encoded, c.cfg.PaySalt, c.cfg.SaltIndex))

	resp, err := c.do(ctx, "pay", httpReq)
	if err != nil {
		return nil, err
	}
	if resp.RedirectURL() == "" {
		metrics.GatewayRequests.WithLabelValues("pay", "rejected").Inc()
		return nil, &Error{HTTPStatus: http.StatusOK, Code: resp.Code, Message: "gateway response carried no redirect url"}
	}
	return resp, nil
}

// Status queries the authoritative state of a merchant transaction. Failed
// payments come back as a 2xx envelope with a non-success code; transport
// failures, non-2xx answers and unparseable bodies are errors.
func (c *Client) Status(ctx context.Context, merchantTransactionID string) (*Response, error) {
	path := fmt.Sprintf("%s/%s/%s", helpers.StatusPath, c.cfg.MerchantID, merchantTransactionID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create status request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-VERIFY", helpers.StatusChecksum(path, c.cfg.StatusSalt, c.cfg.SaltIndex))
	httpReq.Header.Set("X-MERCHANT-ID", c.cfg.MerchantID)

	return c.doStatus(ctx, httpReq)
}

// VerifyCallback checks the X-VERIFY header of a server-to-server callback.
func (c *Client) VerifyCallback(encodedResponse, header string) bool {
	return helpers.VerifyCallbackChecksum(encodedResponse, header, c.cfg.StatusSalt, c.cfg.SaltIndex)
}

// DecodeCallback decodes the base64 "response" field of a callback body.
func DecodeCallback(encodedResponse string) (*Response, error) {
	raw, err := base64.StdEncoding.DecodeString(encodedResponse)
	if err != nil {
		return nil, fmt.Errorf("decode callback payload: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal callback payload: %w", err)
	}
	resp.Raw = raw
	return &resp, nil
}

func (c *Client) do(ctx context.Context, endpoint string, req *http.Request) (*Response, error) {
	status, raw, err := c.send(ctx, endpoint, req)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		metrics.GatewayRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, &Error{HTTPStatus: status, Message: "unreadable gateway response"}
	}
	resp.Raw = raw

	if status < 200 || status > 299 || !resp.Success {
		metrics.GatewayRequests.WithLabelValues(endpoint, "rejected").Inc()
		return nil, &Error{HTTPStatus: status, Code: resp.Code, Message: resp.Message}
	}

	metrics.GatewayRequests.WithLabelValues(endpoint, "ok").Inc()
	return &resp, nil
}

func (c *Client) doStatus(ctx context.Context, req *http.Request) (*Response, error) {
	status, raw, err := c.send(ctx, "status", req)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Code == "" {
		metrics.GatewayRequests.WithLabelValues("status", "error").Inc()
		return nil, &Error{HTTPStatus: status, Message: "unreadable gateway status response"}
	}
	resp.Raw = raw

	if status < 200 || status > 299 {
		metrics.GatewayRequests.WithLabelValues("status", "rejected").Inc()
		return nil, &Error{HTTPStatus: status, Code: resp.Code, Message: resp.Message}
	}

	metrics.GatewayRequests.WithLabelValues("status", "ok").Inc()
	return &resp, nil
}

func (c *Client) send(ctx context.Context, endpoint string, req *http.Request) (int, []byte, error) {
	logger := zerolog.Ctx(ctx)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(endpoint, "error").Inc()
		return 0, nil, fmt.Errorf("send %s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(endpoint, "error").Inc()
		return 0, nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}

	logger.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Str("body", string(raw)).
		Msg("gateway call")

	return resp.StatusCode, raw, nil
}

// MapStatus translates a gateway code into a local order status.
func MapStatus(code string) models.PaymentStatus {
	switch code {
	case CodePaymentSuccess:
		return models.PaymentSuccess
	case CodePaymentPending:
		return models.PaymentPending
	default:
		return models.PaymentFailed
	}
}

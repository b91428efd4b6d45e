package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidReceipt   = errors.New("invalid receipt format")
	ErrReceiptSignature = errors.New("invalid receipt signature")
)

// Receipt is the content of a payment receipt QR code.
type Receipt struct {
	GatewayOrderID string
	TargetKind     string
	TargetID       uuid.UUID
	TransactionID  string
}

func signReceipt(r Receipt, secretKey string) string {
	data := fmt.Sprintf("%s:%s:%s:%s", r.GatewayOrderID, r.TargetKind, r.TargetID.String(), r.TransactionID)
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

func EncodeReceipt(r Receipt, secretKey string) string {
	return fmt.Sprintf("order:%s;target:%s:%s;txn:%s;signature:%s",
		r.GatewayOrderID,
		r.TargetKind,
		r.TargetID.String(),
		r.TransactionID,
		signReceipt(r, secretKey),
	)
}

// DecodeReceipt parses QR data and checks its signature.
func DecodeReceipt(qrData, secretKey string) (Receipt, error) {
	parts := strings.Split(qrData, ";")
	if len(parts) != 4 ||
		!strings.HasPrefix(parts[0], "order:") ||
		!strings.HasPrefix(parts[1], "target:") ||
		!strings.HasPrefix(parts[2], "txn:") ||
		!strings.HasPrefix(parts[3], "signature:") {
		return Receipt{}, ErrInvalidReceipt
	}

	target := strings.SplitN(strings.TrimPrefix(parts[1], "target:"), ":", 2)
	if len(target) != 2 {
		return Receipt{}, ErrInvalidReceipt
	}
	targetID, err := uuid.Parse(target[1])
	if err != nil {
		return Receipt{}, ErrInvalidReceipt
	}

	r := Receipt{
		GatewayOrderID: strings.TrimPrefix(parts[0], "order:"),
		TargetKind:     target[0],
		TargetID:       targetID,
		TransactionID:  strings.TrimPrefix(parts[2], "txn:"),
	}

	signature := strings.TrimPrefix(parts[3], "signature:")
	if !hmac.Equal([]byte(signReceipt(r, secretKey)), []byte(signature)) {
		return Receipt{}, ErrReceiptSignature
	}
	return r, nil
}

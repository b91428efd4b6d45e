package helpers

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptRoundTrip(t *testing.T) {
	r := Receipt{
		GatewayOrderID: "ORDER_1700000000000_user-abc",
		TargetKind:     "event",
		TargetID:       uuid.New(),
		TransactionID:  "T2311",
	}

	data := EncodeReceipt(r, "secret")
	assert.True(t, strings.HasPrefix(data, "order:ORDER_1700000000000_user-abc;target:event:"))

	got, err := DecodeReceipt(data, "secret")
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestDecodeReceiptRejectsOtherSecret(t *testing.T) {
	data := EncodeReceipt(Receipt{GatewayOrderID: "ORDER_1_a", TargetKind: "audition", TargetID: uuid.New()}, "secret")

	_, err := DecodeReceipt(data, "other")
	assert.ErrorIs(t, err, ErrReceiptSignature)
}

func TestDecodeReceiptRejectsTampering(t *testing.T) {
	data := EncodeReceipt(Receipt{GatewayOrderID: "ORDER_1_a", TargetKind: "event", TargetID: uuid.New(), TransactionID: "T1"}, "secret")
	tampered := strings.Replace(data, "txn:T1", "txn:T2", 1)

	_, err := DecodeReceipt(tampered, "secret")
	assert.ErrorIs(t, err, ErrReceiptSignature)
}

func TestDecodeReceiptMalformed(t *testing.T) {
	for _, data := range []string{
		"",
		"order:x;target:event;txn:;signature:abc",
		"order:x;target:event:not-a-uuid;txn:;signature:abc",
		"purchase:x;ticket:y;event:z;signature:abc",
	} {
		_, err := DecodeReceipt(data, "secret")
		assert.ErrorIs(t, err, ErrInvalidReceipt, data)
	}
}

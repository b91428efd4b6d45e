package helpers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigest(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Digest(""))
}

func TestPayChecksum(t *testing.T) {
	got := PayChecksum("eyJhIjoxfQ==", "pay-salt", "1")
	assert.Equal(t, "7c2fd5a788072f1a7750a8e77eec2c05d9071c6e061dd5f619a54a0b3c2408ba###1", got)
}

func TestStatusChecksum(t *testing.T) {
	got := StatusChecksum("/pg/v1/status/MERCHANTUAT/ORDER_1700000000000_user-abc", "status-salt", "1")
	assert.Equal(t, "92ef188424bfda0f771564855bbace43c6959fa9bc61cd010c154b6a1a4c8180###1", got)
}

func TestChecksumKeyIndex(t *testing.T) {
	got := Checksum("payload", PayPath, "salt", "2")
	assert.True(t, strings.HasSuffix(got, "###2"))
	assert.Len(t, strings.TrimSuffix(got, "###2"), 64)
}

func TestVerifyCallbackChecksum(t *testing.T) {
	const (
		encoded = "eyJjb2RlIjoiUEFZTUVOVF9TVUNDRVNTIn0="
		digest  = "bf6ccac94f366abff6ca3943a80757c3d07ac916199d8a32f9680f14fa07d07f"
	)

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{name: "bare digest", header: digest, want: true},
		{name: "with key index", header: digest + "###1", want: true},
		{name: "upper case digest", header: strings.ToUpper(digest), want: true},
		{name: "wrong key index", header: digest + "###2", want: false},
		{name: "empty", header: "", want: false},
		{name: "tampered", header: "0" + digest[1:], want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyCallbackChecksum(encoded, tt.header, "status-salt", "1"))
		})
	}
}

func TestVerifyCallbackChecksumUsesGivenSalt(t *testing.T) {
	header := Digest("resp" + StatusPath + "status-salt")
	assert.True(t, VerifyCallbackChecksum("resp", header, "status-salt", "1"))
	assert.False(t, VerifyCallbackChecksum("resp", header, "pay-salt", "1"))
	assert.False(t, VerifyCallbackChecksum("other", header, "status-salt", "1"))
}

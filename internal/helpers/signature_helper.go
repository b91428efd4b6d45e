package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	PayPath    = "/pg/v1/pay"
	StatusPath = "/pg/v1/status"

	keyIndexSeparator = "###"
)

// Checksum renders the gateway X-VERIFY value:
// hex(sha256(payload + path + salt)) + "###" + keyIndex.
func Checksum(payload, path, salt, keyIndex string) string {
	return Digest(payload+path+salt) + keyIndexSeparator + keyIndex
}

func Digest(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

func PayChecksum(base64Payload, salt, keyIndex string) string {
	return Checksum(base64Payload, PayPath, salt, keyIndex)
}

// StatusChecksum signs a status-check request path, e.g.
// /pg/v1/status/{merchantId}/{orderId}.
func StatusChecksum(requestPath, salt, keyIndex string) string {
	return Checksum("", requestPath, salt, keyIndex)
}

// VerifyCallbackChecksum checks a callback X-VERIFY header against the
// encoded response. The header may be the bare digest or carry the
// "###<keyIndex>" suffix, in which case the index must match.
func VerifyCallbackChecksum(encodedResponse, header, salt, keyIndex string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}

	digest := header
	if i := strings.Index(header, keyIndexSeparator); i >= 0 {
		if header[i+len(keyIndexSeparator):] != keyIndex {
			return false
		}
		digest = header[:i]
	}

	expected := Digest(encodedResponse + StatusPath + salt)
	return hmac.Equal([]byte(strings.ToLower(digest)), []byte(expected))
}

// Package connect validates DocuSign Connect webhook deliveries.
package connect

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Connect signs each delivery once per configured key, in
// X-DocuSign-Signature-1, X-DocuSign-Signature-2, and so on.
const (
	signatureHeaderPrefix = "X-DocuSign-Signature-"
	maxSignatureHeaders   = 100
)

var ErrInvalidSignature = errors.New("connect: no valid HMAC signature")

// ComputeSignature returns the base64 HMAC-SHA256 of payload under secret.
func ComputeSignature(secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the HMAC of payload under secret.
func Verify(secret string, payload []byte, signature string) bool {
	return hmac.Equal([]byte(signature), []byte(ComputeSignature([]byte(secret), payload)))
}

// VerifyRequest reads r's body and checks it against every signature header
// with every secret. It returns the body when one pair matches.
func VerifyRequest(r *http.Request, secrets ...string) ([]byte, error) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("connect: read body: %w", err)
	}

	for i := 1; i <= maxSignatureHeaders; i++ {
		sig := r.Header.Get(fmt.Sprintf("%s%d", signatureHeaderPrefix, i))
		if sig == "" {
			break
		}
		for _, secret := range secrets {
			if secret != "" && Verify(secret, payload, sig) {
				return payload, nil
			}
		}
	}
	return nil, ErrInvalidSignature
}

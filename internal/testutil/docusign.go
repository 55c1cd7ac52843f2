// Package testutil provides a fake DocuSign account server and eSignature
// API for tests.
package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// WritePrivateKey generates an RSA key and writes it as PEM under t.TempDir.
func WritePrivateKey(t *testing.T) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	path := filepath.Join(t.TempDir(), "private.key")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	if err := os.WriteFile(path, pemBytes, 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return path
}

// DocuSign fakes /oauth/token, /oauth/userinfo and envelope creation under
// /restapi.
type DocuSign struct {
	*httptest.Server

	mu              sync.Mutex
	consentRequired bool
	tokenError      string
	envelopeID      string
	envelopes       []map[string]any
}

func NewDocuSign(t *testing.T) *DocuSign {
	t.Helper()

	d := &DocuSign{envelopeID: "ENV-1"}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", d.token)
	mux.HandleFunc("GET /oauth/userinfo", d.userInfo)
	mux.HandleFunc("POST /restapi/v2.1/accounts/{account}/envelopes", d.createEnvelope)

	d.Server = httptest.NewServer(mux)
	t.Cleanup(d.Close)
	return d
}

// BasePath is the eSignature base path to configure clients with.
func (d *DocuSign) BasePath() string {
	return d.URL + "/restapi"
}

// RequireConsent makes the token endpoint answer consent_required.
func (d *DocuSign) RequireConsent() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.consentRequired = true
}

// FailToken makes the token endpoint answer with the OAuth error code.
func (d *DocuSign) FailToken(code string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tokenError = code
}

// Envelopes returns the decoded bodies of every create envelope call.
func (d *DocuSign) Envelopes() []map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]map[string]any(nil), d.envelopes...)
}

func (d *DocuSign) token(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	consent, tokenErr := d.consentRequired, d.tokenError
	d.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case consent:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"consent_required"}`))
	case tokenErr != "":
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": tokenErr})
	default:
		_, _ = w.Write([]byte(`{"access_token":"T","token_type":"Bearer","expires_in":3600}`))
	}
}

func (d *DocuSign) userInfo(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer T" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"sub":"user","accounts":[{"account_id":"123","is_default":true}]}`))
}

func (d *DocuSign) createEnvelope(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer T" || r.PathValue("account") != "123" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errorCode":"USER_AUTHENTICATION_FAILED","message":"bad token"}`))
		return
	}
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	d.mu.Lock()
	d.envelopes = append(d.envelopes, body)
	id := d.envelopeID
	d.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"envelopeId": id, "status": "sent"})
}

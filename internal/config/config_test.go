package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aaronwds/docusign-jwt/internal/auth"
	"github.com/aaronwds/docusign-jwt/internal/esign"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// clearEnv pins the variables Load reads so the host environment cannot leak
// into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DOCUSIGN_INTEGRATION_KEY", "DOCUSIGN_USER_ID", "DOCUSIGN_PRIVATE_KEY_PATH",
		"DOCUSIGN_AUTH_SERVER", "DOCUSIGN_REDIRECT_URI", "DOCUSIGN_BASE_PATH",
		"DOCUSIGN_TOKEN_VALIDITY", "DOCUSIGN_REQUEST_PLAN", "DOCUSIGN_CONNECT_HMAC_KEYS",
		"ENVIRONMENT", "LOG_LEVEL", "HOST", "PORT",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadFileAndEnvironment(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.json", `{
		"integration_key": "ik-file",
		"user_impersonation_guid_jwt": "user-file",
		"RSA_private_key_jwt_location": "private.key",
		"token_validity": "90s"
	}`)
	t.Setenv("DOCUSIGN_INTEGRATION_KEY", "ik-env")
	t.Setenv("DOCUSIGN_CONNECT_HMAC_KEYS", "k1|k2")

	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IntegrationKey != "ik-env" {
		t.Errorf("integration key = %q, environment should win", cfg.IntegrationKey)
	}
	if cfg.UserID != "user-file" {
		t.Errorf("user id = %q", cfg.UserID)
	}
	if cfg.AuthServer != DefaultAuthServer || cfg.BasePath != esign.DemoBasePath || cfg.Port != 8080 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if len(cfg.ConnectHMACKeys) != 2 || cfg.ConnectHMACKeys[1] != "k2" {
		t.Errorf("hmac keys = %v", cfg.ConnectHMACKeys)
	}
	if d, _ := cfg.AssertionValidity(); d != 90*time.Second {
		t.Errorf("validity = %s", d)
	}
	if err := cfg.RequireCredentials(); err != nil {
		t.Errorf("RequireCredentials: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		env     map[string]string
		wantErr string
	}{
		{"bad json", `{`, nil, "failed to parse config file"},
		{"bad environment", `{}`, map[string]string{"ENVIRONMENT": "moon"}, "invalid ENVIRONMENT"},
		{"bad validity", `{"token_validity":"soon"}`, nil, "invalid token_validity"},
		{"negative validity", `{"token_validity":"-1s"}`, nil, "must be positive"},
		{"bad port", `{"port":70000}`, nil, "PORT must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".json", tt.file)
			_, err := Load(path, false)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadOptionalMissingFile(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(missing, true)
	if err != nil {
		t.Fatalf("optional missing file: %v", err)
	}
	if d, _ := cfg.AssertionValidity(); d != auth.DefaultTokenValidity {
		t.Errorf("validity = %s, want default", d)
	}
	if err := cfg.RequireCredentials(); err == nil {
		t.Error("expected missing credentials")
	}

	if _, err := Load(missing, false); err == nil {
		t.Error("required missing file should fail")
	}
}

func TestLoadPlan(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "request.yaml", `
documents:
  - path: docs/nda.pdf
    name: NDA
  - path: /abs/terms.pdf
    name: Terms
signers:
  - email: a@x.com
    name: A
    sign_anchor: "**signature_1**"
cc:
  - email: b@x.com
    name: B
`)

	p, err := LoadPlan(path)
	if err != nil {
		t.Fatalf("LoadPlan: %v", err)
	}
	if p.Subject != DefaultSubject {
		t.Errorf("subject = %q", p.Subject)
	}
	if p.Documents[0].Path != filepath.Join(dir, "docs", "nda.pdf") {
		t.Errorf("relative path not resolved: %s", p.Documents[0].Path)
	}
	if p.Documents[1].Path != "/abs/terms.pdf" {
		t.Errorf("absolute path changed: %s", p.Documents[1].Path)
	}
	if len(p.Signers) != 1 || p.Signers[0].SignAnchor != "**signature_1**" {
		t.Errorf("signers = %+v", p.Signers)
	}
	if len(p.CarbonCopies) != 1 || p.CarbonCopies[0].Email != "b@x.com" {
		t.Errorf("cc = %+v", p.CarbonCopies)
	}
}

func TestLoadPlanInvalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"signer without anchor", "signers:\n  - email: a@x.com\n    name: A\n", "no sign_anchor"},
		{"document without name", "documents:\n  - path: a.pdf\n", "has no name"},
		{"cc without email", "cc:\n  - name: B\n", "needs an email"},
		{"not yaml", "documents: [", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml", tt.content)
			_, err := LoadPlan(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

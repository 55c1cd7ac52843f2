package signing

import (
	"context"
	"errors"
	"testing"

	"github.com/aaronwds/docusign-jwt/internal/auth"
	"github.com/aaronwds/docusign-jwt/internal/testutil"
)

func TestRun(t *testing.T) {
	keyPath := testutil.WritePrivateKey(t)

	tests := []struct {
		name        string
		consent     bool
		tokenError  string
		wantConsent bool
		wantErr     bool
	}{
		{name: "sent"},
		{name: "consent required", consent: true, wantConsent: true},
		{name: "invalid grant", tokenError: "invalid_grant", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := testutil.NewDocuSign(t)
			if tt.consent {
				ds.RequireConsent()
			}
			if tt.tokenError != "" {
				ds.FailToken(tt.tokenError)
			}

			creds := auth.Credentials{
				IntegrationKey: "ik",
				UserID:         "user",
				PrivateKeyPath: keyPath,
				AuthServer:     ds.URL,
				RedirectURI:    "https://example.com/cb",
			}
			env := Envelope{
				Subject:   "Please sign",
				Documents: writeDocs(t, "one", "two"),
				Signers:   []Signer{{Email: "a@x.com", Name: "A", SignAnchor: "**signature_1**"}},
			}

			res, err := Run(context.Background(), auth.New(), creds, env, WithBasePath(ds.BasePath()))
			switch {
			case tt.wantErr:
				var tokenErr *auth.TokenError
				if !errors.As(err, &tokenErr) || tokenErr.Code != tt.tokenError {
					t.Fatalf("got %v, want token error %q", err, tt.tokenError)
				}
				if res.Consent != nil {
					t.Error("fatal error must not carry a consent redirect")
				}
			case tt.wantConsent:
				if err != nil {
					t.Fatalf("Run: %v", err)
				}
				if res.Consent == nil || res.EnvelopeID != "" {
					t.Fatalf("expected only a consent redirect, got %+v", res)
				}
				if len(ds.Envelopes()) != 0 {
					t.Error("no envelope may be created before consent")
				}
			default:
				if err != nil {
					t.Fatalf("Run: %v", err)
				}
				if res.EnvelopeID != "ENV-1" || res.AccountID != "123" {
					t.Errorf("result = %+v", res)
				}
				sent := ds.Envelopes()
				if len(sent) != 1 || sent[0]["status"] != "sent" {
					t.Errorf("envelopes = %v", sent)
				}
			}
		})
	}
}

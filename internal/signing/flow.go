package signing

import (
	"context"

	"github.com/aaronwds/docusign-jwt/internal/auth"
)

// Envelope is everything one signing flow sends.
type Envelope struct {
	Subject      string
	Documents    []Document
	Signers      []Signer
	CarbonCopies []CarbonCopy
}

// Result holds either the id of the sent envelope or, when the user has not
// granted consent yet, the redirect that lets them do so.
type Result struct {
	EnvelopeID string
	AccountID  string
	Consent    *auth.ConsentRedirect
}

// Run authenticates, builds the request from env and sends it.
func Run(ctx context.Context, a *auth.Authenticator, creds auth.Credentials, env Envelope, opts ...Option) (Result, error) {
	out, err := a.Authenticate(ctx, creds)
	if err != nil {
		return Result{}, err
	}
	if out.NeedsConsent() {
		return Result{Consent: out.Consent}, nil
	}

	req := NewRequest(out.Session, env.Subject, opts...)
	if err := req.AddDocuments(env.Documents); err != nil {
		return Result{}, err
	}
	req.SetSigners(env.Signers)
	req.SetCC(env.CarbonCopies)

	id, err := req.Send(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{EnvelopeID: id, AccountID: out.Session.AccountID}, nil
}

package signing

import (
	"context"
	"errors"
	"strconv"

	"github.com/aaronwds/docusign-jwt/internal/esign"
)

var (
	ErrNoSession   = errors.New("signing: request has no authenticated session")
	ErrAlreadySent = errors.New("signing: request was already sent")
)

// Definition returns the envelope as Send submits it: recipients numbered
// and status set to sent.
func (r *Request) Definition() esign.EnvelopeDefinition {
	return esign.EnvelopeDefinition{
		EmailSubject: r.subject,
		Documents:    r.Documents(),
		Recipients:   numberRecipients(r.signers, r.ccs),
		Status:       esign.StatusSent,
	}
}

// Send submits the envelope and returns the id DocuSign assigned to it.
// Errors from the API are returned unchanged and nothing is retried.
func (r *Request) Send(ctx context.Context) (string, error) {
	if r.sent {
		return "", ErrAlreadySent
	}
	if r.session == nil || r.session.Token == nil {
		return "", ErrNoSession
	}

	def := r.Definition()
	client := esign.NewClient(r.basePath, r.session.Token, r.httpClient)
	summary, err := client.CreateEnvelope(ctx, r.session.AccountID, &def, esign.CreateOptions{
		MergeRolesOnDraft:  true,
		ChangeRoutingOrder: true,
	})
	if err != nil {
		return "", err
	}

	r.sent = true
	return summary.EnvelopeID, nil
}

// numberRecipients gives signers ids 1..S and carbon copies S+1..S+C, in
// the order they were added. Routing order equals the recipient id.
func numberRecipients(signers []esign.Signer, ccs []esign.CarbonCopy) *esign.Recipients {
	rec := &esign.Recipients{
		Signers:      make([]esign.Signer, 0, len(signers)),
		CarbonCopies: make([]esign.CarbonCopy, 0, len(ccs)),
	}

	next := 1
	for _, s := range signers {
		s.RecipientID = strconv.Itoa(next)
		s.RoutingOrder = s.RecipientID
		rec.Signers = append(rec.Signers, s)
		next++
	}
	for _, c := range ccs {
		c.RecipientID = strconv.Itoa(next)
		c.RoutingOrder = c.RecipientID
		rec.CarbonCopies = append(rec.CarbonCopies, c)
		next++
	}
	return rec
}

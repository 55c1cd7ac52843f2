// Package esign is a small client for the DocuSign eSignature REST API v2.1.
package esign

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
)

// DemoBasePath is the REST base path of the developer sandbox.
const DemoBasePath = "https://demo.docusign.net/restapi"

// APIError is a non-2xx response from the eSignature API.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("esign: request failed (%d): %s: %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("esign: request failed (%d): %s", e.StatusCode, e.Message)
}

// Client calls the eSignature API with a bearer token.
type Client struct {
	basePath string
	http     *http.Client
}

// NewClient returns a client for basePath (for example DemoBasePath) that
// sends tok as the Authorization header. base may be nil.
func NewClient(basePath string, tok *oauth2.Token, base *http.Client) *Client {
	if base == nil {
		base = http.DefaultClient
	}
	return &Client{
		basePath: strings.TrimSuffix(basePath, "/"),
		http: &http.Client{
			Transport: &oauth2.Transport{Source: oauth2.StaticTokenSource(tok), Base: base.Transport},
			Timeout:   base.Timeout,
		},
	}
}

// CreateEnvelope creates (and, with status "sent", dispatches) an envelope.
func (c *Client) CreateEnvelope(ctx context.Context, accountID string, def *EnvelopeDefinition, opts CreateOptions) (*EnvelopeSummary, error) {
	q := url.Values{}
	if opts.MergeRolesOnDraft {
		q.Set("merge_roles_on_draft", strconv.FormatBool(true))
	}
	if opts.ChangeRoutingOrder {
		q.Set("change_routing_order", strconv.FormatBool(true))
	}

	var summary EnvelopeSummary
	if err := c.do(ctx, http.MethodPost, c.envelopesURL(accountID, "", q), def, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// VoidEnvelope voids a sent envelope with the given reason.
func (c *Client) VoidEnvelope(ctx context.Context, accountID, envelopeID, reason string) error {
	body := voidRequest{Status: StatusVoided, VoidedReason: reason}
	return c.do(ctx, http.MethodPut, c.envelopesURL(accountID, envelopeID, nil), body, nil)
}

func (c *Client) envelopesURL(accountID, envelopeID string, q url.Values) string {
	u := c.basePath + "/v2.1/accounts/" + url.PathEscape(accountID) + "/envelopes"
	if envelopeID != "" {
		u += "/" + url.PathEscape(envelopeID)
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("esign: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("esign: %s request: %w", method, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("esign: read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{StatusCode: res.StatusCode, Message: strings.TrimSpace(string(body))}
		var details errorDetails
		if json.Unmarshal(body, &details) == nil && details.ErrorCode != "" {
			apiErr.ErrorCode = details.ErrorCode
			apiErr.Message = details.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("esign: decode response: %w", err)
	}
	return nil
}

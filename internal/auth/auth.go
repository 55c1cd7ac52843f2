// Package auth exchanges a JWT assertion for a DocuSign access token and
// looks up the account to send envelopes from.
//
// The first time an integration key impersonates a user, the account server
// answers with consent_required. Authenticate reports that as an Outcome
// carrying a consent URL instead of an error.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	// Scope requested for the impersonation grant.
	Scope = "signature impersonation"

	// DefaultTokenValidity is the lifetime of the signed assertion.
	DefaultTokenValidity = 60 * time.Second

	jwtBearerGrant  = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	consentRequired = "consent_required"

	tokenPath    = "/oauth/token"
	userInfoPath = "/oauth/userinfo"
	consentPath  = "/oauth/auth"
)

// Authenticator performs the JWT grant against an account server.
type Authenticator struct {
	client   *http.Client
	validity time.Duration
	now      func() time.Time
}

type Option func(*Authenticator)

// WithHTTPClient sets the client used for the token and user info calls.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Authenticator) {
		if c != nil {
			a.client = c
		}
	}
}

// WithTokenValidity overrides DefaultTokenValidity.
func WithTokenValidity(d time.Duration) Option {
	return func(a *Authenticator) {
		if d > 0 {
			a.validity = d
		}
	}
}

func New(opts ...Option) *Authenticator {
	a := &Authenticator{
		client:   http.DefaultClient,
		validity: DefaultTokenValidity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate signs an assertion for creds, exchanges it for an access token
// and resolves the user's first account.
//
// When the account server reports consent_required the returned Outcome holds
// a ConsentRedirect and err is nil. Every other failure is returned as is.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) (Outcome, error) {
	if creds.IntegrationKey == "" || creds.UserID == "" {
		return Outcome{}, &CredentialError{Op: "validate credentials", Err: errors.New("integration key and user id are required")}
	}

	server, err := serverURL(creds.AuthServer)
	if err != nil {
		return Outcome{}, err
	}

	key, err := loadPrivateKey(creds.PrivateKeyPath)
	if err != nil {
		return Outcome{}, err
	}

	assertion, err := a.assertion(creds, server.Host, key)
	if err != nil {
		return Outcome{}, err
	}

	tok, err := a.exchange(ctx, server, assertion)
	if err != nil {
		var tokenErr *TokenError
		if errors.As(err, &tokenErr) && tokenErr.Code == consentRequired {
			consentURL, err := ConsentURL(creds)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Consent: &ConsentRedirect{URL: consentURL, Description: tokenErr.Description}}, nil
		}
		return Outcome{}, err
	}

	info, err := a.userInfo(ctx, server, tok)
	if err != nil {
		return Outcome{}, err
	}
	if len(info.Accounts) == 0 {
		return Outcome{}, ErrNoAccounts
	}

	acct := info.Accounts[0]
	return Outcome{Session: &Session{
		Token:       tok,
		AccountID:   acct.AccountID,
		AccountName: acct.AccountName,
		BaseURI:     acct.BaseURI,
	}}, nil
}

// ConsentURL builds the interactive consent URL for creds on the account
// server's /oauth/auth endpoint.
func ConsentURL(creds Credentials) (string, error) {
	server, err := serverURL(creds.AuthServer)
	if err != nil {
		return "", err
	}
	cfg := oauth2.Config{
		ClientID:    creds.IntegrationKey,
		RedirectURL: creds.RedirectURI,
		Scopes:      strings.Fields(Scope),
		Endpoint:    oauth2.Endpoint{AuthURL: endpoint(server, consentPath)},
	}
	return cfg.AuthCodeURL(""), nil
}

func (a *Authenticator) assertion(creds Credentials, audience string, key *rsa.PrivateKey) (string, error) {
	now := a.now()
	rawJWT := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":   creds.IntegrationKey,
		"sub":   creds.UserID,
		"aud":   audience,
		"iat":   now.Unix(),
		"exp":   now.Add(a.validity).Unix(),
		"jti":   uuid.NewString(),
		"scope": Scope,
	})

	signed, err := rawJWT.SignedString(key)
	if err != nil {
		return "", &CredentialError{Op: "sign assertion", Err: err}
	}
	return signed, nil
}

func (a *Authenticator) exchange(ctx context.Context, server *url.URL, assertion string) (*oauth2.Token, error) {
	form := url.Values{
		"grant_type": {jwtBearerGrant},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(server, tokenPath), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	res, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: token request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("auth: read token response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		tokenErr := &TokenError{StatusCode: res.StatusCode}
		var e errorResponse
		if json.Unmarshal(body, &e) == nil {
			tokenErr.Code = e.Error
			tokenErr.Description = e.Description
		}
		return nil, tokenErr
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("auth: decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, errors.New("auth: token response has no access_token")
	}
	return tr.token(a.now()), nil
}

func (a *Authenticator) userInfo(ctx context.Context, server *url.URL, tok *oauth2.Token) (*userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint(server, userInfoPath), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := &http.Client{
		Transport: &oauth2.Transport{Source: oauth2.StaticTokenSource(tok), Base: a.client.Transport},
		Timeout:   a.client.Timeout,
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: user info request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("auth: user info request failed (%d): %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var info userInfo
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("auth: decode user info: %w", err)
	}
	return &info, nil
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, &CredentialError{Op: "read private key", Err: err}
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, &CredentialError{Op: "parse private key", Err: err}
	}
	return key, nil
}

func serverURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &CredentialError{Op: "validate credentials", Err: errors.New("auth server is required")}
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &CredentialError{Op: "parse auth server", Err: err}
	}
	if u.Host == "" {
		return nil, &CredentialError{Op: "parse auth server", Err: fmt.Errorf("no host in %q", raw)}
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u, nil
}

func endpoint(server *url.URL, path string) string {
	return server.Scheme + "://" + server.Host + server.Path + path
}

package auth

import (
	"time"

	"golang.org/x/oauth2"
)

// Credentials identify the integration and the user it impersonates.
type Credentials struct {
	IntegrationKey string
	UserID         string
	PrivateKeyPath string
	// AuthServer is the account server, either a bare host such as
	// "account-d.docusign.com" or a full URL.
	AuthServer  string
	RedirectURI string
}

// Session is the result of a successful token exchange. It is meant for a
// single send and is never refreshed.
type Session struct {
	Token       *oauth2.Token
	AccountID   string
	AccountName string
	BaseURI     string
}

// AccessToken returns the raw bearer token.
func (s *Session) AccessToken() string {
	if s == nil || s.Token == nil {
		return ""
	}
	return s.Token.AccessToken
}

// ConsentRedirect tells the caller to send the user to URL so they can grant
// consent for the integration key. The signing flow does not continue.
type ConsentRedirect struct {
	URL string
	// Description is the account server's error_description, when present.
	Description string
}

// Outcome holds exactly one of Session or Consent.
type Outcome struct {
	Session *Session
	Consent *ConsentRedirect
}

// NeedsConsent reports whether the user must grant consent before the
// integration can impersonate them.
func (o Outcome) NeedsConsent() bool {
	return o.Consent != nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (r tokenResponse) token(now time.Time) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken: r.AccessToken,
		TokenType:   r.TokenType,
	}
	if r.ExpiresIn > 0 {
		tok.Expiry = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return tok
}

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

type userInfo struct {
	Sub      string `json:"sub"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Accounts []struct {
		AccountID   string `json:"account_id"`
		IsDefault   bool   `json:"is_default"`
		AccountName string `json:"account_name"`
		BaseURI     string `json:"base_uri"`
	} `json:"accounts"`
}

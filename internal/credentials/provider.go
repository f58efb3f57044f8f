// Package credentials supplies the HTTP clients used to call the Google
// backends. A provider never fails: when no bearer token is available it
// hands back an unauthenticated client and the remote call reports
// Unauthenticated with full context.
package credentials

import (
	"context"
	"log"
	"net/http"

	"golang.org/x/oauth2"
)

// Client is an HTTP client plus whether credentials were attached to it.
type Client struct {
	HTTP          *http.Client
	Authenticated bool
}

// Provider is the capability the tabular and blob clients call before every
// remote request. Implementations must derive credentials from ctx rather
// than caching them process-wide.
type Provider interface {
	AcquireClient(ctx context.Context) *Client
}

type tokenKey struct{}

// WithToken attaches the caller's OAuth token to ctx.
func WithToken(ctx context.Context, tok *oauth2.Token) context.Context {
	return context.WithValue(ctx, tokenKey{}, tok)
}

// TokenFrom returns the token attached by WithToken.
func TokenFrom(ctx context.Context) (*oauth2.Token, bool) {
	tok, ok := ctx.Value(tokenKey{}).(*oauth2.Token)
	if !ok || tok == nil || tok.AccessToken == "" {
		return nil, false
	}
	return tok, true
}

// SessionProvider reads the per-request session token. When the token has a
// refresh token and an OAuth client is configured, expired access tokens are
// refreshed transparently.
type SessionProvider struct {
	oauth *oauth2.Config
	base  *http.Client
}

// NewSessionProvider builds a provider. oauth may be nil (no refresh); base
// defaults to http.DefaultClient.
func NewSessionProvider(oauth *oauth2.Config, base *http.Client) *SessionProvider {
	if base == nil {
		base = http.DefaultClient
	}
	return &SessionProvider{oauth: oauth, base: base}
}

func (p *SessionProvider) AcquireClient(ctx context.Context) *Client {
	tok, ok := TokenFrom(ctx)
	if !ok {
		log.Printf("credentials_missing source=session reason=no_access_token")
		return &Client{HTTP: p.base}
	}

	var src oauth2.TokenSource
	if tok.RefreshToken != "" && p.oauth != nil && p.oauth.ClientID != "" {
		refreshCtx := context.WithValue(ctx, oauth2.HTTPClient, p.base)
		src = p.oauth.TokenSource(refreshCtx, tok)
	} else {
		src = oauth2.StaticTokenSource(tok)
	}

	return &Client{HTTP: bearerClient(src, p.base), Authenticated: true}
}

// StaticProvider attaches one fixed access token to every call. Used for
// service-account style deployments and the cleanup tooling.
type StaticProvider struct {
	token string
	base  *http.Client
}

func NewStaticProvider(token string, base *http.Client) *StaticProvider {
	if base == nil {
		base = http.DefaultClient
	}
	return &StaticProvider{token: token, base: base}
}

func (p *StaticProvider) AcquireClient(ctx context.Context) *Client {
	if p.token == "" {
		log.Printf("credentials_missing source=static reason=empty_token")
		return &Client{HTTP: p.base}
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: p.token, TokenType: "Bearer"})
	return &Client{HTTP: bearerClient(src, p.base), Authenticated: true}
}

func bearerClient(src oauth2.TokenSource, base *http.Client) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{Source: src, Base: base.Transport},
		Timeout:   base.Timeout,
	}
}

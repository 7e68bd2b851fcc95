package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/dmitrijs2005/sheetsync/internal/common"
)

const (
	// GoogleIssuer is the OIDC issuer of Google Sign-In ID tokens.
	GoogleIssuer = "https://accounts.google.com"

	// GoogleCertsURL publishes the keys Google signs ID tokens with.
	GoogleCertsURL = "https://www.googleapis.com/oauth2/v3/certs"

	keyFetchTimeout = 10 * time.Second
)

// Verifier turns a credential into a trusted payload.
type Verifier interface {
	Verify(ctx context.Context, token string) (Payload, error)
}

// DecodeOnly trusts the transport and only decodes the token.
type DecodeOnly struct{}

func (DecodeOnly) Verify(_ context.Context, token string) (Payload, error) {
	c, err := Decode(token)
	if err != nil {
		return Payload{}, err
	}
	return c.Payload(), nil
}

// OIDCVerifier checks signature, issuer, audience and expiry.
type OIDCVerifier struct {
	keys     oidc.KeySet
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier binds a verifier to clientID and Google's published keys.
// Keys are fetched on the first Verify, so construction does no I/O.
func NewOIDCVerifier(ctx context.Context, clientID string) *OIDCVerifier {
	return NewRemoteOIDCVerifier(ctx, clientID, GoogleCertsURL)
}

// NewRemoteOIDCVerifier is NewOIDCVerifier with the key set at jwksURL.
func NewRemoteOIDCVerifier(ctx context.Context, clientID, jwksURL string) *OIDCVerifier {
	ctx = oidc.ClientContext(ctx, &http.Client{
		Timeout:   keyFetchTimeout,
		Transport: statusTransport{next: http.DefaultTransport},
	})
	return NewOIDCVerifierFrom(oidc.NewRemoteKeySet(ctx, jwksURL), clientID)
}

// NewOIDCVerifierFrom verifies against an already configured key set.
func NewOIDCVerifierFrom(keys oidc.KeySet, clientID string) *OIDCVerifier {
	return &OIDCVerifier{
		keys:     keys,
		verifier: oidc.NewVerifier(GoogleIssuer, keys, &oidc.Config{ClientID: clientID}),
	}
}

func (v *OIDCVerifier) Verify(ctx context.Context, token string) (Payload, error) {
	if _, err := Decode(token); err != nil {
		return Payload{}, err
	}

	// go-oidc flattens key set errors, so the key set is asked directly to
	// keep fetch failures apart from rejected tokens.
	if _, err := v.keys.VerifySignature(ctx, token); err != nil {
		if isFetchError(err) {
			return Payload{}, fmt.Errorf("%w: fetch signing keys: %v", common.ErrNetwork, err)
		}
		return Payload{}, fmt.Errorf("%w: verify id token: %v", common.ErrPermission, err)
	}

	idTok, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: verify id token: %v", common.ErrPermission, err)
	}

	var c Claims
	if err := idTok.Claims(&c); err != nil {
		return Payload{}, fmt.Errorf("%w: read claims: %v", common.ErrDecode, err)
	}
	return c.Payload(), nil
}

func isFetchError(err error) bool {
	var uerr *url.Error
	return errors.As(err, &uerr) || errors.Is(err, context.DeadlineExceeded)
}

// statusTransport turns server errors into transport errors, so they are
// reported like an unreachable key endpoint.
type statusTransport struct {
	next http.RoundTripper
}

func (t statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("keys endpoint: %s", resp.Status)
	}
	return resp, nil
}

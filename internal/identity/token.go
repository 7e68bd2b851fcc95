// Package identity turns Google Sign-In credentials (compact JWS ID tokens)
// into identity payloads.
//
// Decode only parses the token. It does not check the signature. Callers
// that accept identities from untrusted transports should use a Verifier
// backed by OIDCVerifier.
package identity

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/sheetsync/internal/common"
)

// Payload is the identity held in session state.
type Payload struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Sub     string `json:"sub"`
}

// Claims is the decoded middle segment of an ID token.
type Claims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Issuer        string `json:"iss,omitempty"`
	Audience      string `json:"aud,omitempty"`
	IssuedAt      int64  `json:"iat,omitempty"`
	Expiry        int64  `json:"exp,omitempty"`
}

// Payload drops the verification claims.
func (c Claims) Payload() Payload {
	return Payload{Email: c.Email, Name: c.Name, Picture: c.Picture, Sub: c.Sub}
}

// Decode parses the payload segment of a three-part token. Both padded and
// unpadded base64url are accepted. Every failure wraps common.ErrDecode.
func Decode(token string) (Claims, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return Claims{}, fmt.Errorf("%w: expected 3 segments, got %d", common.ErrDecode, len(parts))
	}
	for i, p := range parts {
		if p == "" {
			return Claims{}, fmt.Errorf("%w: segment %d is empty", common.ErrDecode, i)
		}
	}

	raw, err := decodeSegment(parts[1])
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", common.ErrDecode, err)
	}
	if !utf8.Valid(raw) {
		return Claims{}, fmt.Errorf("%w: payload is not utf-8", common.ErrDecode)
	}
	if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '{' {
		return Claims{}, fmt.Errorf("%w: payload is not a json object", common.ErrDecode)
	}

	var c Claims
	if err := json.Unmarshal(raw, &c); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", common.ErrDecode, err)
	}
	return c, nil
}

func decodeSegment(seg string) ([]byte, error) {
	seg = strings.TrimRight(seg, "=")
	// Browsers' atob accepts the standard alphabet too.
	seg = strings.NewReplacer("+", "-", "/", "_").Replace(seg)
	return base64.RawURLEncoding.DecodeString(seg)
}

// Encode builds an unsigned three-part token around c. It is the inverse of
// Decode and is meant for local development and tests.
func Encode(c Claims) (string, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	return header + "." + base64.RawURLEncoding.EncodeToString(body) + ".unsigned", nil
}

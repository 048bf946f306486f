/*
 * Nuts node
 * Copyright (C) 2021 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package dpop

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	nutsCrypto "github.com/nuts-foundation/nuts-wallet/crypto"
)

const (
	// ATHKey is the claim key of the ath JWT claim for a DPoP token
	ATHKey = "ath"
	// NonceKey is the claim key of the server provided nonce
	NonceKey = "nonce"
	// DPopType is the value of the typ JWT header for a DPoP token
	DPopType = "dpop+jwt"
	HTMKey   = "htm"
	HTUKey   = "htu"
)

// NonceHeader is the HTTP header an authorization or resource server uses to provide a fresh DPoP nonce.
const NonceHeader = "DPoP-Nonce"

// UseNonceError is the OAuth2 error code returned when the server requires a (fresh) DPoP nonce.
const UseNonceError = "use_dpop_nonce"

// maxJtiLength is the maximum length of the jti claim in a DPoP token.
const maxJtiLength = 256

var supportedAlgorithms = []jwa.SignatureAlgorithm{jwa.ES256, jwa.ES384, jwa.ES512, jwa.PS256, jwa.PS384, jwa.PS512, jwa.EdDSA}

// DPoP represents a DPoP token used for internal processing
type DPoP struct {
	raw     string
	Headers jws.Headers `json:"-"`
	Token   jwt.Token   `json:"-"`
}

// ErrInvalidDPoP is returned when a DPoP token is invalid
var ErrInvalidDPoP = errors.New("invalid DPoP token")

// New creates a new DPoP token for the given HTTP method and target URI.
// Query and fragment of the target URI are not part of the htu claim.
func New(method string, targetURI string) *DPoP {
	result := DPoP{}
	result.Token = jwt.New()
	// errors won't occur
	_ = result.Token.Set(HTMKey, method)
	_ = result.Token.Set(HTUKey, htu(targetURI))
	_ = result.Token.Set(jwt.JwtIDKey, nutsCrypto.GenerateNonce())
	_ = result.Token.Set(jwt.IssuedAtKey, time.Now())

	result.Headers = jws.NewHeaders()
	_ = result.Headers.Set(jws.TypeKey, DPopType)

	return &result
}

func htu(targetURI string) string {
	parsed, err := url.Parse(targetURI)
	if err != nil {
		return targetURI
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String()
}

// WithNonce sets the server provided nonce. An empty nonce is ignored.
func (t *DPoP) WithNonce(nonce string) *DPoP {
	if nonce != "" {
		_ = t.Token.Set(NonceKey, nonce)
	}
	return t
}

// BindAccessToken binds the proof to an access token.
// It sets the ath claim to the base64url encoded SHA256 hash of the access token.
func (t *DPoP) BindAccessToken(accessToken string) *DPoP {
	accessTokenHash := sha256.Sum256([]byte(accessToken))
	_ = t.Token.Set(ATHKey, base64.RawURLEncoding.EncodeToString(accessTokenHash[:]))
	return t
}

// Sign the DPoP token with the given EC key using ES256.
// It also adds the public key as jwk header.
func (t *DPoP) Sign(key *ecdsa.PrivateKey) (string, error) {
	if t.raw != "" {
		return "", errors.New("already signed")
	}
	if key == nil {
		return "", errors.New("missing signing key")
	}
	publicKeyJWK, err := jwk.FromRaw(key.Public())
	if err != nil {
		return "", err
	}
	_ = publicKeyJWK.Set(jwk.AlgorithmKey, jwa.ES256)
	_ = t.Headers.Set(jws.JWKKey, publicKeyJWK)

	sig, err := jwt.Sign(t.Token, jwt.WithKey(jwa.ES256, key, jws.WithProtectedHeaders(t.Headers)))
	if err != nil {
		return "", err
	}
	t.raw = string(sig)

	return t.raw, nil
}

// Parse parses a DPoP token from a string.
// The token is validated for the required claims and headers.
func Parse(s string) (*DPoP, error) {
	message, err := jws.ParseString(s)
	if err != nil {
		return nil, errors.Join(ErrInvalidDPoP, err)
	}
	// we require exactly one signature
	if len(message.Signatures()) != 1 {
		return nil, fmt.Errorf("%w: invalid number of signatures", ErrInvalidDPoP)
	}
	headers := message.Signatures()[0].ProtectedHeaders()
	if !slices.Contains(supportedAlgorithms, headers.Algorithm()) {
		return nil, fmt.Errorf("%w: invalid alg: %s", ErrInvalidDPoP, headers.Algorithm())
	}
	if headers.Type() != DPopType {
		return nil, fmt.Errorf("%w: invalid type: %s", ErrInvalidDPoP, headers.Type())
	}
	if headers.JWK() == nil {
		return nil, fmt.Errorf("%w: missing jwk header", ErrInvalidDPoP)
	}
	if jwkIsPrivateKey(headers.JWK()) {
		return nil, fmt.Errorf("%w: invalid jwk header", ErrInvalidDPoP)
	}
	token, err := jwt.ParseString(s, jwt.WithKey(headers.Algorithm(), headers.JWK()))
	if err != nil {
		return nil, errors.Join(ErrInvalidDPoP, err)
	}
	if token.IssuedAt().IsZero() {
		return nil, fmt.Errorf("%w: missing iat claim", ErrInvalidDPoP)
	}
	if v, ok := token.Get(HTUKey); !ok || v == "" {
		return nil, fmt.Errorf("%w: missing htu claim", ErrInvalidDPoP)
	}
	if v, ok := token.Get(HTMKey); !ok || v == "" {
		return nil, fmt.Errorf("%w: missing htm claim", ErrInvalidDPoP)
	}
	if token.JwtID() == "" {
		return nil, fmt.Errorf("%w: missing jti claim", ErrInvalidDPoP)
	}
	if len(token.JwtID()) > maxJtiLength {
		return nil, fmt.Errorf("%w: jti claim too long", ErrInvalidDPoP)
	}

	return &DPoP{raw: s, Token: token, Headers: headers}, nil
}

// jwkIsPrivateKey returns true if the key contains private key material, which must never be sent in a proof.
func jwkIsPrivateKey(key jwk.Key) bool {
	switch key.(type) {
	case jwk.RSAPrivateKey, jwk.ECDSAPrivateKey, jwk.OKPPrivateKey, jwk.SymmetricKey:
		return true
	}
	return false
}

func (t DPoP) stringClaim(key string) string {
	if v, ok := t.Token.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// HTU returns the htu claim of the DPoP token
func (t DPoP) HTU() string {
	return t.stringClaim(HTUKey)
}

// HTM returns the htm claim of the DPoP token
func (t DPoP) HTM() string {
	return t.stringClaim(HTMKey)
}

// Nonce returns the nonce claim of the DPoP token, or an empty string if it has none.
func (t DPoP) Nonce() string {
	return t.stringClaim(NonceKey)
}

// ATH returns the ath claim of the DPoP token, or an empty string if it has none.
func (t DPoP) ATH() string {
	return t.stringClaim(ATHKey)
}

// Thumbprint returns the base64url encoded SHA256 JWK thumbprint of the embedded public key.
func (t DPoP) Thumbprint() (string, error) {
	tp, err := t.Headers.JWK().Thumbprint(crypto.SHA256)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(tp), nil
}

func (t DPoP) String() string {
	return t.raw
}

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

package crypto

import (
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/cert"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/nuts-foundation/nuts-wallet/core"
)

// ErrMissingX5C is returned when a JWS has no x5c header to verify it with.
var ErrMissingX5C = errors.New("missing x5c header")

// ParseX5C parses the certificates of a JOSE x5c header (standard base64 encoded DER), leaf first.
func ParseX5C(chain *cert.Chain) ([]*x509.Certificate, error) {
	if chain == nil || chain.Len() == 0 {
		return nil, ErrMissingX5C
	}
	var result []*x509.Certificate
	for i := 0; i < chain.Len(); i++ {
		encoded, _ := chain.Get(i)
		der, err := base64.StdEncoding.DecodeString(string(encoded))
		if err != nil {
			return nil, fmt.Errorf("invalid x5c certificate at index %d: %w", i, err)
		}
		certificate, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, fmt.Errorf("invalid x5c certificate at index %d: %w", i, err)
		}
		result = append(result, certificate)
	}
	return result, nil
}

// VerifyJWSWithX5C verifies a compact JWS signed with the key of the leaf certificate in its x5c header.
// The chain must validate against the trust store at the given time, and the JWS must be signed with the given algorithm.
// It returns the payload and the certificate chain.
func VerifyJWSWithX5C(token []byte, trustStore *core.TrustStore, at time.Time, alg jwa.SignatureAlgorithm) ([]byte, []*x509.Certificate, error) {
	message, err := jws.Parse(token)
	if err != nil {
		return nil, nil, err
	}
	signatures := message.Signatures()
	if len(signatures) != 1 {
		return nil, nil, fmt.Errorf("expected 1 signature, got %d", len(signatures))
	}
	headers := signatures[0].ProtectedHeaders()
	if headers.Algorithm() != alg {
		return nil, nil, fmt.Errorf("unsupported signature algorithm: %s", headers.Algorithm())
	}
	chain, err := ParseX5C(headers.X509CertChain())
	if err != nil {
		return nil, nil, err
	}
	if trustStore == nil {
		return nil, nil, errors.New("no trust anchors configured")
	}
	if err = trustStore.VerifyChain(chain, at); err != nil {
		return nil, nil, fmt.Errorf("untrusted x5c certificate chain: %w", err)
	}
	payload, err := jws.Verify(token, jws.WithKey(alg, chain[0].PublicKey))
	if err != nil {
		return nil, nil, err
	}
	return payload, chain, nil
}

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

package credential

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nuts-foundation/nuts-wallet/auth/oauth"
	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/nuts-foundation/nuts-wallet/vcr/log"
	"github.com/nuts-foundation/nuts-wallet/vcr/mdoc"
	"github.com/nuts-foundation/nuts-wallet/vcr/sdjwt"
)

var _ Parser = (*Codec)(nil)

// Codec decodes and verifies credentials of all formats supported by the wallet.
type Codec struct {
	trustStore *core.TrustStore
	parsers    map[string]formatParser
	// clock is used to check validity periods; overridable for testing
	clock func() time.Time
}

// formatParser decodes a single credential format.
type formatParser func(c *Codec, credential StorableCredential, validate bool) (*ParsedCredential, error)

// NewCodec creates a Codec that verifies credentials against the given trust anchors.
// The trust store may be nil, in which case credentials can only be parsed without validation.
func NewCodec(trustStore *core.TrustStore) *Codec {
	return &Codec{
		trustStore: trustStore,
		parsers: map[string]formatParser{
			oauth.SDJWTVCFormat:   parseSDJWT,
			oauth.DCSDJWTFormat:   parseSDJWT,
			oauth.MsoMdocFormat:   parseMDoc,
			oauth.JWTVCJSONFormat: parseJWTVC,
			oauth.JWTVCFormat:     parseJWTVC,
		},
		clock: time.Now,
	}
}

// Parse decodes the given credential, verifying it first when validate is true.
func (c *Codec) Parse(_ context.Context, credential StorableCredential, validate bool) (*ParsedCredential, error) {
	parser, ok := c.parsers[credential.Format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, credential.Format)
	}
	result, err := parser(c, credential, validate)
	if err != nil {
		if errors.Is(err, ErrVerification) {
			log.Logger().
				WithError(err).
				WithField(core.LogFieldCredentialID, credential.ID).
				WithField(core.LogFieldCredentialFormat, credential.Format).
				Warn("Credential verification failed")
		}
		return nil, err
	}
	result.Format = credential.Format
	return result, nil
}

func parseSDJWT(c *Codec, credential StorableCredential, validate bool) (*ParsedCredential, error) {
	parsed, err := sdjwt.Parse(credential.Credential)
	if err != nil {
		return nil, err
	}
	if validate {
		if err = parsed.Verify(c.trustStore, c.clock()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrVerification, err)
		}
	}
	claims, err := parsed.Claims()
	if err != nil {
		return nil, err
	}
	return &ParsedCredential{
		Claims: vcClaimOrPayload(claims),
		SDJWT:  parsed,
	}, nil
}

// mdocClaims merges the data elements of all namespaces. The namespace named after the document type comes first,
// the others follow in alphabetical order. On duplicate element identifiers the first one is kept.
// Document types don't always have a namespace of the same name (e.g. the mDL, org.iso.18013.5.1.mDL, uses org.iso.18013.5.1).
func mdocClaims(docType mdoc.DocType, namespaces mdoc.Namespaces) map[string]interface{} {
	names := slices.Sorted(maps.Keys(namespaces))
	if i := slices.Index(names, mdoc.NameSpace(docType)); i > 0 {
		names = append([]mdoc.NameSpace{names[i]}, slices.Delete(names, i, i+1)...)
	}
	claims := map[string]interface{}{}
	for _, name := range names {
		for identifier, value := range namespaces[name] {
			if _, exists := claims[string(identifier)]; !exists {
				claims[string(identifier)] = value
			}
		}
	}
	return claims
}

func parseMDoc(c *Codec, credential StorableCredential, validate bool) (*ParsedCredential, error) {
	issuerSigned, err := mdoc.Decode(credential.Credential)
	if err != nil {
		return nil, err
	}
	docType := mdoc.DocType(credential.Doctype)
	if validate {
		if err = issuerSigned.Verify(docType, c.trustStore, c.clock()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrVerification, err)
		}
	}
	if docType == "" {
		mso, err := issuerSigned.MobileSecurityObject()
		if err != nil {
			return nil, err
		}
		docType = mso.DocType
	}
	namespaces, err := issuerSigned.Namespaces()
	if err != nil {
		return nil, err
	}
	return &ParsedCredential{
		Claims:       mdocClaims(docType, namespaces),
		IssuerSigned: issuerSigned,
		Namespaces:   namespaces,
		DocType:      docType,
	}, nil
}

// parseJWTVC decodes a JWT VC without checking its signature.
func parseJWTVC(_ *Codec, credential StorableCredential, _ bool) (*ParsedCredential, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential.Credential, claims); err != nil {
		return nil, fmt.Errorf("invalid JWT VC: %w", err)
	}
	return &ParsedCredential{Claims: vcClaimOrPayload(claims)}, nil
}

func vcClaimOrPayload(payload map[string]interface{}) map[string]interface{} {
	if vc, ok := payload["vc"].(map[string]interface{}); ok {
		return vc
	}
	return payload
}

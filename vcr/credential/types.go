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

	"github.com/nuts-foundation/nuts-wallet/vcr/mdoc"
	"github.com/nuts-foundation/nuts-wallet/vcr/sdjwt"
)

// ErrVerification is returned when a credential's signature, certificate chain or digests can't be verified.
// Such credentials are never stored.
var ErrVerification = errors.New("credential verification failed")

// ErrUnsupportedFormat is returned when a credential has a format the wallet can't decode.
var ErrUnsupportedFormat = errors.New("unsupported credential format")

// StorableCredential is a credential as held by the wallet.
type StorableCredential struct {
	// ID is the wallet-local identifier of the credential.
	ID string `json:"credentialIdentifier"`
	// Credential is the raw credential as received from the issuer: a compact SD-JWT, JWT or base64url encoded mdoc.
	Credential string `json:"credential"`
	// Format is the OpenID4VCI format identifier, e.g. vc+sd-jwt or mso_mdoc.
	Format string `json:"format"`
	// VCT is the SD-JWT VC type, if applicable.
	VCT string `json:"vct,omitempty"`
	// Doctype is the mdoc document type, if applicable.
	Doctype string `json:"doctype,omitempty"`
}

// ParsedCredential is a decoded credential.
type ParsedCredential struct {
	// Format is the format of the credential.
	Format string
	// Claims contains the (disclosed) claims of the credential:
	// the resolved SD-JWT claims, the document type's namespace of an mdoc or the vc claim of a JWT VC.
	// If an SD-JWT or JWT contains a vc claim, that claim is returned instead of the payload.
	Claims map[string]interface{}
	// SDJWT is set for SD-JWT credentials.
	SDJWT *sdjwt.SDJWT
	// IssuerSigned is set for mdoc credentials.
	IssuerSigned *mdoc.IssuerSigned
	// Namespaces contains all namespaces of an mdoc credential.
	Namespaces mdoc.Namespaces
	// DocType is the document type of an mdoc credential.
	DocType mdoc.DocType
}

// Parser decodes (and optionally verifies) held or received credentials.
type Parser interface {
	// Parse decodes the given credential. If validate is true, the issuer signature and certificate chain are verified
	// against the configured trust anchors. Verification failures are returned as ErrVerification.
	Parse(ctx context.Context, credential StorableCredential, validate bool) (*ParsedCredential, error)
}

// Store is the credential store the wallet persists its credentials in.
type Store interface {
	// Store persists the given credential.
	Store(ctx context.Context, credential StorableCredential) error
	// RetrieveAll returns all held credentials.
	RetrieveAll(ctx context.Context) ([]StorableCredential, error)
}

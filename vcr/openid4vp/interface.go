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

package openid4vp

import (
	"context"

	"github.com/nuts-foundation/nuts-wallet/audit"
	"github.com/nuts-foundation/nuts-wallet/vcr/mdoc"
	"github.com/nuts-foundation/nuts-wallet/vcr/pe"
)

// PresentationSigner creates holder-signed presentations.
type PresentationSigner interface {
	// SignPresentation wraps the given (SD-JWT or JWT) credentials in a presentation signed by the holder,
	// bound to the verifier's nonce and audience.
	SignPresentation(ctx context.Context, nonce string, audience string, presentations []string) (string, error)
}

// DeviceResponseGenerator creates mdoc device responses.
type DeviceResponseGenerator interface {
	// GenerateDeviceResponse discloses the data elements the presentation definition requests from the document,
	// authenticated by the device key for the OpenID4VP session transcript.
	// Only DocType and IssuerSigned of the document are used.
	GenerateDeviceResponse(ctx context.Context, document mdoc.Document, definition pe.PresentationDefinition, mdocGeneratedNonce string, nonce string, clientID string, responseURI string) (*mdoc.DeviceResponse, error)
}

// PresentationAuditStore keeps a record of every presentation sent to a verifier.
type PresentationAuditStore interface {
	StorePresentation(ctx context.Context, record audit.PresentationRecord) error
}

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
	"github.com/nuts-foundation/nuts-wallet/vcr/credential"
	"github.com/nuts-foundation/nuts-wallet/vcr/pe"
)

// FlowState is the state of the presentation flow the wallet is currently in.
type FlowState struct {
	PresentationDefinition pe.PresentationDefinition `json:"presentation_definition"`
	Nonce                  string                    `json:"nonce"`
	ResponseURI            string                    `json:"response_uri"`
	ClientID               string                    `json:"client_id"`
	State                  string                    `json:"state,omitempty"`
}

// ConformantCredentials are the held credentials that satisfy an input descriptor.
type ConformantCredentials struct {
	// CredentialIDs are the wallet identifiers of the matching credentials, in storage order.
	CredentialIDs []string `json:"credentialIdentifiers"`
	// RequestedFields are the names of the fields the verifier requests, for displaying to the user.
	RequestedFields []string `json:"requestedFields"`
}

// ConformantCredentialsMap maps input descriptor IDs to the credentials that satisfy them.
type ConformantCredentialsMap map[string]ConformantCredentials

// AuthorizationRequestResult is the outcome of handling an authorization request:
// the credentials the user can choose from and who is asking.
type AuthorizationRequestResult struct {
	Credentials ConformantCredentialsMap
	// VerifierName is the host name of the verifier's client ID, or the client ID itself if it's not a URL.
	VerifierName string
	// ClientMetadata is the client metadata of the verifier, if it sent any.
	ClientMetadata *ClientMetadata
}

// ClientMetadata is the subset of the verifier's client metadata the wallet uses.
type ClientMetadata struct {
	ClientName string                      `json:"client_name,omitempty"`
	LogoURI    string                      `json:"logo_uri,omitempty"`
	VPFormats  credential.SupportedFormats `json:"vp_formats,omitempty"`
}

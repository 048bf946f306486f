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

package vcr

import (
	"context"
	"errors"

	"github.com/nuts-foundation/nuts-wallet/audit"
	"github.com/nuts-foundation/nuts-wallet/vcr/credential"
	"github.com/nuts-foundation/nuts-wallet/vcr/holder"
	"github.com/nuts-foundation/nuts-wallet/vcr/openid4vci"
	"github.com/nuts-foundation/nuts-wallet/vcr/openid4vp"
)

// ErrUnknownIssuer is returned when a credential issuer isn't in the list of trusted issuers.
var ErrUnknownIssuer = errors.New("credential issuer is not trusted")

// VCR is the wallet's credential engine. It holds the issuance clients of the trusted issuers,
// the relying party that answers presentation requests and the wallet holding the credentials.
type VCR interface {
	// IssuanceClient returns the issuance client of the given credential issuer, or ErrUnknownIssuer.
	IssuanceClient(issuerID string) (*openid4vci.Client, error)
	// IssuanceClients returns the issuance clients of all trusted issuers, ordered by issuer ID.
	IssuanceClients() []*openid4vci.Client
	// HandleCredentialOffer routes the credential offer to the issuance client of the offering issuer.
	HandleCredentialOffer(ctx context.Context, offerURL string) (*openid4vci.OfferResult, error)
	// HandleAuthorizationResponse finds the issuance flow the authorization response belongs to and completes it.
	HandleAuthorizationResponse(ctx context.Context, redirectURL string, dpopNonce string) (*credential.StorableCredential, error)
	// RelyingParty returns the engine answering presentation requests of verifiers.
	RelyingParty() *openid4vp.RelyingParty
	// Wallet returns the store holding the user's credentials.
	Wallet() holder.Wallet
	// Presentations lists the presentations sent to verifiers.
	Presentations(ctx context.Context) ([]audit.PresentationRecord, error)
}

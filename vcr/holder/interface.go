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

// Package holder contains the reference holder of the wallet: a credential store on BBolt
// and software keys that bind credentials and presentations to the wallet.
package holder

import (
	"context"
	"errors"

	"github.com/nuts-foundation/nuts-wallet/vcr/credential"
	"github.com/nuts-foundation/nuts-wallet/vcr/openid4vci"
	"github.com/nuts-foundation/nuts-wallet/vcr/openid4vp"
)

// ErrNotFound is returned when a credential isn't held by the wallet.
var ErrNotFound = errors.New("credential not found in wallet")

// Wallet holds the credentials of the user.
type Wallet interface {
	credential.Store
	// Retrieve returns the credential with the given ID, or ErrNotFound.
	Retrieve(ctx context.Context, id string) (*credential.StorableCredential, error)
	// Remove deletes the credential with the given ID, or returns ErrNotFound.
	Remove(ctx context.Context, id string) error
	// Count returns the number of held credentials.
	Count() (int, error)
}

// Keys are the holder's keys: credentials are bound to them on issuance, and presentations are signed with them.
type Keys interface {
	openid4vci.HolderKeys
	openid4vp.PresentationSigner
	openid4vp.DeviceResponseGenerator
}

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

package openid4vci

import "context"

// HolderKeys provides the holder binding capabilities of the wallet's key storage.
type HolderKeys interface {
	// GenerateProof creates a holder binding proof (openid4vci-proof+jwt) over the given c_nonce for the credential issuer (audience).
	GenerateProof(ctx context.Context, cNonce string, audience string, clientID string) (string, error)
	// UserHandle returns the handle of the wallet user the keys belong to.
	UserHandle(ctx context.Context) (string, error)
}

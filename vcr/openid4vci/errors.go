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

import "errors"

// ErrConfiguration is returned when an issuer's configuration or metadata can't be used for issuance.
var ErrConfiguration = errors.New("invalid issuer configuration")

// ErrFlowState is returned when no (valid) issuance flow state exists for a request. The issuance needs to be restarted.
var ErrFlowState = errors.New("issuance flow state not found, restart issuance")

// ErrUnsupportedRequest is returned when a credential offer or authorization response can't be processed by the wallet.
var ErrUnsupportedRequest = errors.New("unsupported request")

// ErrCredentialIssuance is returned when the credential endpoint did not yield a usable credential.
var ErrCredentialIssuance = errors.New("credential issuance failed")

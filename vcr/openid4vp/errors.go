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

import "errors"

// ErrFlowState is returned when there is no presentation flow to respond to.
var ErrFlowState = errors.New("presentation flow state not found, restart presentation")

// ErrUnsupportedRequest is returned when an authorization request can't be handled by the wallet.
// Such requests are rejected before any state is stored.
var ErrUnsupportedRequest = errors.New("unsupported authorization request")

// ErrInsufficientCredentials is returned when the wallet doesn't hold a credential for every input descriptor.
var ErrInsufficientCredentials = errors.New("wallet does not contain credentials that satisfy the presentation definition")

// ErrMissingPresentationDefinition is returned when an authorization request doesn't contain a presentation definition.
var ErrMissingPresentationDefinition = errors.New("authorization request does not contain a presentation definition")

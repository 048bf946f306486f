/*
 * Copyright (C) 2023 Nuts community
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
	"maps"
	"slices"

	"github.com/nuts-foundation/nuts-wallet/auth/oauth"
)

// algValuesSupported contains the signing algorithms the wallet supports for issuer signatures and holder binding.
var algValuesSupported = []string{"ES256"}

// DefaultSupportedFormats returns the credential formats the wallet can hold and present.
// It is compared with the vp_formats a verifier lists in its client metadata.
func DefaultSupportedFormats() SupportedFormats {
	return SupportedFormats{
		oauth.SDJWTVCFormat:   {"sd-jwt_alg_values": algValuesSupported, "kb-jwt_alg_values": algValuesSupported},
		oauth.DCSDJWTFormat:   {"sd-jwt_alg_values": algValuesSupported, "kb-jwt_alg_values": algValuesSupported},
		oauth.MsoMdocFormat:   {"alg": algValuesSupported},
		oauth.JWTVCJSONFormat: {"alg_values_supported": algValuesSupported},
	}
}

// SupportedFormats is a map of supported formats and their parameters.
// E.g., vc+sd-jwt: {sd-jwt_alg_values: [ES256]}
type SupportedFormats map[string]map[string][]string

// Match returns the formats supported by both f and other. For each format only the parameters both list are kept,
// with the values both list. A format without common parameter values is left out.
func (f SupportedFormats) Match(other SupportedFormats) SupportedFormats {
	result := SupportedFormats{}
	for format, params := range f {
		otherParams, ok := other[format]
		if !ok {
			continue
		}
		common := map[string][]string{}
		for param, values := range params {
			var shared []string
			for _, value := range values {
				if slices.Contains(otherParams[param], value) {
					shared = append(shared, value)
				}
			}
			if len(shared) > 0 {
				common[param] = shared
			}
		}
		if len(common) > 0 {
			result[format] = common
		}
	}
	return result
}

// First returns the format that sorts first, with its parameters. It returns an empty string if there are no formats.
func (f SupportedFormats) First() (string, map[string][]string) {
	formats := slices.Sorted(maps.Keys(f))
	if len(formats) == 0 {
		return "", nil
	}
	return formats[0], f[formats[0]]
}

// Supports returns true if the given format is listed, regardless of its parameters.
func (f SupportedFormats) Supports(format string) bool {
	_, ok := f[format]
	return ok
}

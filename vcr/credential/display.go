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

const defaultFriendlyName = "Credential"

// FriendlyName returns the name to display for the credential: its name claim, its id claim, or "Credential".
func FriendlyName(credential *ParsedCredential) string {
	for _, claim := range []string{"name", "id"} {
		if value, ok := credential.Claims[claim].(string); ok && value != "" {
			return value
		}
	}
	return defaultFriendlyName
}

// ImageURL returns the URL of the credential's branding image (credentialBranding.image.url), or an empty string.
func ImageURL(credential *ParsedCredential) string {
	branding, _ := credential.Claims["credentialBranding"].(map[string]interface{})
	image, _ := branding["image"].(map[string]interface{})
	url, _ := image["url"].(string)
	return url
}

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

package crypto

import (
	"crypto/sha256"
	"encoding/base64"
)

// PKCEChallengeMethod is the only supported PKCE code challenge method.
const PKCEChallengeMethod = "S256"

// PKCEParams contains the Proof Key for Code Exchange parameters of an authorization code flow.
type PKCEParams struct {
	Challenge       string `json:"challenge"`
	ChallengeMethod string `json:"challenge_method"`
	Verifier        string `json:"verifier"`
}

// GeneratePKCEParams generates a random code verifier and its S256 code challenge.
func GeneratePKCEParams() PKCEParams {
	verifier := GenerateNonce()
	return PKCEParams{
		Challenge:       PKCEChallenge(verifier),
		ChallengeMethod: PKCEChallengeMethod,
		Verifier:        verifier,
	}
}

// PKCEChallenge returns base64url(SHA256(verifier)).
func PKCEChallenge(verifier string) string {
	sha := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sha[:])
}

// ValidatePKCEParams returns true when the challenge was derived from the verifier.
func ValidatePKCEParams(params PKCEParams) bool {
	switch params.ChallengeMethod {
	case PKCEChallengeMethod:
		return PKCEChallenge(params.Verifier) == params.Challenge
	default:
		return false
	}
}

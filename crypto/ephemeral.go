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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// ErrInvalidKey is returned when a serialized key can't be used.
var ErrInvalidKey = errors.New("invalid key")

// GenerateEphemeralKey generates a P-256 key pair for single flow use, e.g. DPoP.
func GenerateEphemeralKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
}

// MarshalKeyPair serializes the given key pair as private and public JWK.
func MarshalKeyPair(key *ecdsa.PrivateKey) (privateJWK json.RawMessage, publicJWK json.RawMessage, err error) {
	privateKey, err := jwk.FromRaw(key)
	if err != nil {
		return nil, nil, err
	}
	_ = privateKey.Set(jwk.AlgorithmKey, jwa.ES256)
	publicKey, err := privateKey.PublicKey()
	if err != nil {
		return nil, nil, err
	}
	if privateJWK, err = json.Marshal(privateKey); err != nil {
		return nil, nil, err
	}
	if publicJWK, err = json.Marshal(publicKey); err != nil {
		return nil, nil, err
	}
	return privateJWK, publicJWK, nil
}

// UnmarshalPrivateKey parses a private key serialized as JWK by MarshalKeyPair.
func UnmarshalPrivateKey(privateJWK []byte) (*ecdsa.PrivateKey, error) {
	key, err := jwk.ParseKey(privateJWK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	var privateKey ecdsa.PrivateKey
	if err = key.Raw(&privateKey); err != nil {
		return nil, fmt.Errorf("%w: not an EC private key: %w", ErrInvalidKey, err)
	}
	return &privateKey, nil
}

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

package sdjwt

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/nuts-foundation/nuts-wallet/crypto"
)

const (
	// SHA256 is the default digest algorithm of disclosures.
	SHA256 = "sha-256"
	SHA384 = "sha-384"
	SHA512 = "sha-512"

	sdKey      = "_sd"
	sdAlgKey   = "_sd_alg"
	elementKey = "..."
)

// Separator separates the issuer-signed JWT, the disclosures and the key binding JWT.
const Separator = "~"

// Disclosure is a decoded disclosure of an SD-JWT.
type Disclosure struct {
	// Encoded is the base64url encoded disclosure as it appears in the SD-JWT.
	Encoded string
	Salt    string
	// Name is the claim name, empty for array element disclosures.
	Name  string
	Value interface{}
}

func (d Disclosure) isArrayElement() bool {
	return d.Name == ""
}

// SDJWT is a parsed SD-JWT in compact serialization. Nothing has been verified.
type SDJWT struct {
	// IssuerJWT is the issuer-signed JWT.
	IssuerJWT string
	// Header contains the header of the issuer-signed JWT.
	Header map[string]interface{}
	// Payload contains the (undisclosed) payload of the issuer-signed JWT.
	Payload map[string]interface{}
	// Disclosures contains all disclosures, in order of appearance.
	Disclosures []Disclosure
	// KeyBindingJWT is the key binding JWT, if present.
	KeyBindingJWT string
}

// Parse splits and decodes the compact SD-JWT, without verifying it.
func Parse(compact string) (*SDJWT, error) {
	if compact == "" {
		return nil, errors.New("empty SD-JWT")
	}
	components := strings.Split(compact, Separator)
	result := &SDJWT{IssuerJWT: components[0]}
	last := len(components)
	// the last component is a key binding JWT only if it is a JWT, issuers sometimes omit the trailing separator
	if len(components) > 1 && strings.Count(components[last-1], ".") == 2 {
		result.KeyBindingJWT = components[last-1]
		last--
	}
	var claims jwt.MapClaims
	token, _, err := jwt.NewParser().ParseUnverified(result.IssuerJWT, &claims)
	if err != nil {
		return nil, fmt.Errorf("invalid issuer-signed JWT: %w", err)
	}
	result.Header = token.Header
	result.Payload = claims
	for _, encoded := range components[1:last] {
		if encoded == "" {
			continue
		}
		disclosure, err := decodeDisclosure(encoded)
		if err != nil {
			return nil, err
		}
		result.Disclosures = append(result.Disclosures, *disclosure)
	}
	return result, nil
}

func decodeDisclosure(encoded string) (*Disclosure, error) {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return nil, fmt.Errorf("invalid disclosure encoding: %w", err)
	}
	var elements []interface{}
	if err = json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("invalid disclosure: %w", err)
	}
	result := &Disclosure{Encoded: encoded}
	var ok bool
	switch len(elements) {
	case 2:
		result.Value = elements[1]
	case 3:
		if result.Name, ok = elements[1].(string); !ok || result.Name == "" {
			return nil, errors.New("invalid disclosure: claim name must be a non-empty string")
		}
		if result.Name == sdKey || result.Name == elementKey {
			return nil, fmt.Errorf("invalid disclosure: reserved claim name %s", result.Name)
		}
		result.Value = elements[2]
	default:
		return nil, fmt.Errorf("invalid disclosure: expected 2 or 3 elements, got %d", len(elements))
	}
	if result.Salt, ok = elements[0].(string); !ok {
		return nil, errors.New("invalid disclosure: salt must be a string")
	}
	return result, nil
}

// Digest returns the base64url encoded digest of the encoded disclosure using the given algorithm.
func Digest(algorithm string, encoded string) (string, error) {
	var hasher hash.Hash
	switch strings.ToLower(algorithm) {
	case "", SHA256:
		hasher = sha256.New()
	case SHA384:
		hasher = sha512.New384()
	case SHA512:
		hasher = sha512.New()
	default:
		return "", fmt.Errorf("unsupported digest algorithm: %s", algorithm)
	}
	hasher.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(hasher.Sum(nil)), nil
}

// Algorithm returns the digest algorithm of the disclosures (_sd_alg), defaulting to sha-256.
func (s SDJWT) Algorithm() string {
	if alg, ok := s.Payload[sdAlgKey].(string); ok && alg != "" {
		return alg
	}
	return SHA256
}

// Claims returns the payload with all disclosures resolved.
// A disclosure is only applied when its digest is listed in the _sd set (or array element) it belongs to;
// other disclosures are dropped. The _sd and _sd_alg claims are removed.
func (s SDJWT) Claims() (map[string]interface{}, error) {
	claims, _, err := s.resolve()
	return claims, err
}

// Present returns the SD-JWT with only the disclosures selected by the given frame.
// A frame is a tree of claim names (array indices as decimal strings) with true for each disclosed claim.
// Disclosures of claims on the way to a selected claim are included as well. The key binding JWT is removed.
func (s SDJWT) Present(frame map[string]interface{}) (string, error) {
	_, paths, err := s.resolve()
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	builder.WriteString(s.IssuerJWT)
	builder.WriteString(Separator)
	for _, disclosure := range s.Disclosures {
		path, used := paths[disclosure.Encoded]
		if used && selects(frame, path) {
			builder.WriteString(disclosure.Encoded)
			builder.WriteString(Separator)
		}
	}
	return builder.String(), nil
}

// Verify verifies the issuer signature: the issuer-signed JWT must be signed using ES256 by the leaf certificate
// of its x5c chain, which must be trusted by the trust store at the given time.
// It also checks the exp and nbf claims.
func (s SDJWT) Verify(trustStore *core.TrustStore, at time.Time) error {
	if _, _, err := crypto.VerifyJWSWithX5C([]byte(s.IssuerJWT), trustStore, at, jwa.ES256); err != nil {
		return err
	}
	if exp, ok := s.Payload["exp"].(float64); ok && at.After(time.Unix(int64(exp), 0)) {
		return errors.New("credential has expired")
	}
	if nbf, ok := s.Payload["nbf"].(float64); ok && at.Before(time.Unix(int64(nbf), 0)) {
		return errors.New("credential is not yet valid")
	}
	return nil
}

// resolve applies the disclosures to the payload.
// It returns the resolved claims and the claim path of each applied disclosure.
func (s SDJWT) resolve() (map[string]interface{}, map[string][]string, error) {
	algorithm := s.Algorithm()
	byDigest := make(map[string]Disclosure, len(s.Disclosures))
	for _, disclosure := range s.Disclosures {
		digest, err := Digest(algorithm, disclosure.Encoded)
		if err != nil {
			return nil, nil, err
		}
		byDigest[digest] = disclosure
	}
	r := resolver{disclosures: byDigest, paths: map[string][]string{}}
	claims, err := r.object(s.Payload, nil)
	if err != nil {
		return nil, nil, err
	}
	delete(claims, sdAlgKey)
	return claims, r.paths, nil
}

type resolver struct {
	disclosures map[string]Disclosure
	paths       map[string][]string
}

func (r resolver) object(input map[string]interface{}, path []string) (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(input))
	for key, value := range input {
		if key == sdKey {
			continue
		}
		resolved, err := r.value(value, appendPath(path, key))
		if err != nil {
			return nil, err
		}
		result[key] = resolved
	}
	digests, _ := input[sdKey].([]interface{})
	for _, curr := range digests {
		digest, ok := curr.(string)
		if !ok {
			return nil, errors.New("invalid _sd digest")
		}
		disclosure, ok := r.disclosures[digest]
		if !ok || disclosure.isArrayElement() {
			continue
		}
		if _, exists := result[disclosure.Name]; exists {
			return nil, fmt.Errorf("disclosed claim %s already exists", disclosure.Name)
		}
		claimPath := appendPath(path, disclosure.Name)
		resolved, err := r.value(disclosure.Value, claimPath)
		if err != nil {
			return nil, err
		}
		r.paths[disclosure.Encoded] = claimPath
		result[disclosure.Name] = resolved
	}
	return result, nil
}

func (r resolver) value(input interface{}, path []string) (interface{}, error) {
	switch value := input.(type) {
	case map[string]interface{}:
		return r.object(value, path)
	case []interface{}:
		result := make([]interface{}, 0, len(value))
		for _, element := range value {
			index := strconv.Itoa(len(result))
			if digest, isRef := elementDigest(element); isRef {
				disclosure, ok := r.disclosures[digest]
				if !ok || !disclosure.isArrayElement() {
					continue
				}
				elementPath := appendPath(path, index)
				resolved, err := r.value(disclosure.Value, elementPath)
				if err != nil {
					return nil, err
				}
				r.paths[disclosure.Encoded] = elementPath
				result = append(result, resolved)
				continue
			}
			resolved, err := r.value(element, appendPath(path, index))
			if err != nil {
				return nil, err
			}
			result = append(result, resolved)
		}
		return result, nil
	default:
		return input, nil
	}
}

// elementDigest returns the digest if the array element is a disclosure reference ({"...": digest}).
func elementDigest(element interface{}) (string, bool) {
	object, ok := element.(map[string]interface{})
	if !ok || len(object) != 1 {
		return "", false
	}
	digest, ok := object[elementKey].(string)
	return digest, ok
}

func appendPath(path []string, segment string) []string {
	result := make([]string, len(path), len(path)+1)
	copy(result, path)
	return append(result, segment)
}

// selects reports whether the frame selects the claim at the given path, or a claim below it.
func selects(frame map[string]interface{}, path []string) bool {
	var node interface{} = frame
	for _, segment := range path {
		switch current := node.(type) {
		case bool:
			return current
		case map[string]interface{}:
			next, ok := current[segment]
			if !ok {
				return false
			}
			node = next
		default:
			return false
		}
	}
	switch current := node.(type) {
	case bool:
		return current
	case map[string]interface{}:
		return true
	}
	return false
}

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

package mdoc

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sort"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Namespaces contains the data elements of a mobile document as JSON compatible values, per namespace.
type Namespaces map[NameSpace]map[ElementIdentifier]interface{}

// ValueDigests contains the digests of the issuer-signed items, per namespace.
type ValueDigests map[NameSpace]map[DigestID][]byte

// EncodeNamespaces encodes the given data elements as issuer-signed items with random salts,
// and calculates their digests using the given algorithm (e.g. SHA-256).
// Digest IDs are assigned per namespace in order of the element identifiers.
func EncodeNamespaces(namespaces Namespaces, digestAlgorithm string) (IssuerNameSpaces, ValueDigests, error) {
	resultItems := IssuerNameSpaces{}
	resultDigests := ValueDigests{}
	for nameSpace, elements := range namespaces {
		identifiers := make([]string, 0, len(elements))
		for identifier := range elements {
			identifiers = append(identifiers, string(identifier))
		}
		sort.Strings(identifiers)
		resultDigests[nameSpace] = map[DigestID][]byte{}
		for i, identifier := range identifiers {
			random := make([]byte, 16)
			if _, err := rand.Read(random); err != nil {
				return nil, nil, err
			}
			item := IssuerSignedItem{
				DigestID:          DigestID(i),
				Random:            random,
				ElementIdentifier: ElementIdentifier(identifier),
				ElementValue:      elements[ElementIdentifier(identifier)],
			}
			encoded, err := encMode.Marshal(item)
			if err != nil {
				return nil, nil, fmt.Errorf("unable to encode %s/%s: %w", nameSpace, identifier, err)
			}
			itemDigest, err := digest(digestAlgorithm, encoded)
			if err != nil {
				return nil, nil, err
			}
			resultItems[nameSpace] = append(resultItems[nameSpace], encoded)
			resultDigests[nameSpace][item.DigestID] = itemDigest
		}
	}
	return resultItems, resultDigests, nil
}

// DecodeNamespaces decodes the issuer-signed items to JSON compatible values:
// maps get string keys, numbers become float64, byte strings become base64url strings and dates become RFC3339 strings.
func DecodeNamespaces(nameSpaces IssuerNameSpaces) (Namespaces, error) {
	result := Namespaces{}
	for nameSpace, encodedItems := range nameSpaces {
		elements := map[ElementIdentifier]interface{}{}
		for _, encoded := range encodedItems {
			var item IssuerSignedItem
			if err := cbor.Unmarshal(encoded, &item); err != nil {
				return nil, fmt.Errorf("invalid issuer signed item in namespace %s: %w", nameSpace, err)
			}
			elements[item.ElementIdentifier] = normalize(item.ElementValue)
		}
		result[nameSpace] = elements
	}
	return result, nil
}

// JSON returns the namespaces as generic JSON object, suitable for evaluating JSONPath expressions.
func (n Namespaces) JSON() map[string]interface{} {
	result := make(map[string]interface{}, len(n))
	for nameSpace, elements := range n {
		values := make(map[string]interface{}, len(elements))
		for identifier, value := range elements {
			values[string(identifier)] = value
		}
		result[string(nameSpace)] = values
	}
	return result
}

func normalize(value interface{}) interface{} {
	switch v := value.(type) {
	case map[interface{}]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, element := range v {
			result[fmt.Sprintf("%v", key)] = normalize(element)
		}
		return result
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, element := range v {
			result[key] = normalize(element)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, element := range v {
			result[i] = normalize(element)
		}
		return result
	case uint64:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	case []byte:
		return base64.RawURLEncoding.EncodeToString(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case cbor.Tag:
		return normalize(v.Content)
	default:
		return v
	}
}

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
	"encoding/base64"
	"encoding/json"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/nuts-foundation/nuts-wallet/crypto"
	"github.com/nuts-foundation/nuts-wallet/test/pki"
)

// CreateTestCredential issues an SD-JWT VC signed by the given test PKI.
// Every claim is selectively disclosable, including the claims of nested objects and array elements.
func CreateTestCredential(t *testing.T, issuer pki.IssuerPKI, vct string, claims map[string]interface{}) string {
	builder := &testBuilder{t: t, algorithm: SHA256}
	payload := builder.object(claims)
	payload["iss"] = "https://" + issuer.Leaf.Subject.CommonName
	payload["vct"] = vct
	payload["iat"] = time.Now().Unix()
	payload["exp"] = time.Now().Add(time.Hour).Unix()
	payload[sdAlgKey] = builder.algorithm
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	issuerJWT := issuer.SignJWS(t, map[string]interface{}{"typ": "vc+sd-jwt"}, data)
	return issuerJWT + Separator + strings.Join(builder.disclosures, Separator) + Separator
}

type testBuilder struct {
	t           *testing.T
	algorithm   string
	disclosures []string
}

func (b *testBuilder) object(claims map[string]interface{}) map[string]interface{} {
	keys := make([]string, 0, len(claims))
	for key := range claims {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	digests := make([]interface{}, 0, len(keys))
	for _, key := range keys {
		digests = append(digests, b.disclose(crypto.GenerateNonce(), key, b.value(claims[key])))
	}
	return map[string]interface{}{sdKey: digests}
}

func (b *testBuilder) value(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return b.object(v)
	case []interface{}:
		result := make([]interface{}, 0, len(v))
		for _, element := range v {
			result = append(result, map[string]interface{}{elementKey: b.disclose(crypto.GenerateNonce(), "", b.value(element))})
		}
		return result
	default:
		return value
	}
}

func (b *testBuilder) disclose(salt string, name string, value interface{}) string {
	elements := []interface{}{salt, name, value}
	if name == "" {
		elements = []interface{}{salt, value}
	}
	data, err := json.Marshal(elements)
	if err != nil {
		b.t.Fatal(err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(data)
	digest, err := Digest(b.algorithm, encoded)
	if err != nil {
		b.t.Fatal(err)
	}
	b.disclosures = append(b.disclosures, encoded)
	return digest
}

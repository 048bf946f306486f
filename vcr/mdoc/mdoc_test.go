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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/nuts-foundation/nuts-wallet/test/pki"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDocType DocType = "eu.europa.ec.eudi.pid.1"

var testNamespaces = Namespaces{
	"eu.europa.ec.eudi.pid.1": {
		"family_name":  "Mustermann",
		"given_name":   "Erika",
		"age_over_18":  true,
		"age_in_years": float64(40),
		"address": map[string]interface{}{
			"locality": "Berlin",
			"country":  "DE",
		},
		"nationalities": []interface{}{"DE", "NL"},
	},
}

func TestEncodeNamespaces(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		encoded, digests, err := EncodeNamespaces(testNamespaces, "SHA-256")
		require.NoError(t, err)
		require.Len(t, encoded["eu.europa.ec.eudi.pid.1"], 6)
		require.Len(t, digests["eu.europa.ec.eudi.pid.1"], 6)

		decoded, err := DecodeNamespaces(encoded)

		require.NoError(t, err)
		assert.Equal(t, testNamespaces, decoded)
	})
	t.Run("digest IDs are assigned in element order", func(t *testing.T) {
		encoded, _, err := EncodeNamespaces(testNamespaces, "SHA-256")
		require.NoError(t, err)
		issuerSigned := IssuerSigned{NameSpaces: encoded}

		items, err := issuerSigned.Items("eu.europa.ec.eudi.pid.1")

		require.NoError(t, err)
		assert.Equal(t, ElementIdentifier("address"), items[0].ElementIdentifier)
		assert.Equal(t, DigestID(0), items[0].DigestID)
		assert.Equal(t, ElementIdentifier("nationalities"), items[5].ElementIdentifier)
		assert.Equal(t, DigestID(5), items[5].DigestID)
	})
	t.Run("unsupported digest algorithm", func(t *testing.T) {
		_, _, err := EncodeNamespaces(testNamespaces, "MD5")

		assert.EqualError(t, err, "unsupported digest algorithm: MD5")
	})
}

func TestDecodeNamespaces(t *testing.T) {
	t.Run("values are converted to JSON types", func(t *testing.T) {
		item, err := encMode.Marshal(IssuerSignedItem{
			DigestID:          1,
			Random:            []byte{1, 2, 3},
			ElementIdentifier: "portrait",
			ElementValue:      []byte{1, 2, 3},
		})
		require.NoError(t, err)
		date, err := encMode.Marshal(IssuerSignedItem{
			DigestID:          2,
			Random:            []byte{1, 2, 3},
			ElementIdentifier: "birth_date",
			ElementValue:      cbor.Tag{Number: 1004, Content: "1984-01-26"},
		})
		require.NoError(t, err)
		count, err := encMode.Marshal(IssuerSignedItem{
			DigestID:          3,
			Random:            []byte{1, 2, 3},
			ElementIdentifier: "count",
			ElementValue:      42,
		})
		require.NoError(t, err)

		decoded, err := DecodeNamespaces(IssuerNameSpaces{"ns": {item, date, count}})

		require.NoError(t, err)
		assert.Equal(t, "AQID", decoded["ns"]["portrait"])
		assert.Equal(t, "1984-01-26", decoded["ns"]["birth_date"])
		assert.Equal(t, float64(42), decoded["ns"]["count"])
	})
	t.Run("invalid item", func(t *testing.T) {
		_, err := DecodeNamespaces(IssuerNameSpaces{"ns": {EncodedCBOR("not cbor")}})

		assert.ErrorContains(t, err, "invalid issuer signed item in namespace ns")
	})
}

func TestNamespaces_JSON(t *testing.T) {
	actual := testNamespaces.JSON()

	assert.Equal(t, "Erika", actual["eu.europa.ec.eudi.pid.1"].(map[string]interface{})["given_name"])
}

func TestIssuerSigned_Verify(t *testing.T) {
	issuer := pki.NewIssuerPKI(t, "issuer.example.com")
	trustStore := core.NewTrustStore([]*x509.Certificate{issuer.Root})
	deviceKey, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)

	t.Run("ok", func(t *testing.T) {
		encoded := CreateTestCredential(t, issuer, testDocType, testNamespaces, &deviceKey.PublicKey)
		issuerSigned, err := Decode(encoded)
		require.NoError(t, err)

		err = issuerSigned.Verify(testDocType, trustStore, time.Now())

		assert.NoError(t, err)
		namespaces, err := issuerSigned.Namespaces()
		require.NoError(t, err)
		assert.Equal(t, testNamespaces, namespaces)
	})
	t.Run("any document type", func(t *testing.T) {
		issuerSigned := CreateTestIssuerSigned(t, issuer, testDocType, testNamespaces, &deviceKey.PublicKey, time.Now().Add(time.Hour))

		err := issuerSigned.Verify("", trustStore, time.Now())

		assert.NoError(t, err)
	})
	t.Run("document type mismatch", func(t *testing.T) {
		issuerSigned := CreateTestIssuerSigned(t, issuer, testDocType, testNamespaces, &deviceKey.PublicKey, time.Now().Add(time.Hour))

		err := issuerSigned.Verify("org.iso.18013.5.1.mDL", trustStore, time.Now())

		assert.EqualError(t, err, "document type mismatch: expected org.iso.18013.5.1.mDL, got eu.europa.ec.eudi.pid.1")
	})
	t.Run("untrusted issuer", func(t *testing.T) {
		other := pki.NewIssuerPKI(t, "other.example.com")
		issuerSigned := CreateTestIssuerSigned(t, other, testDocType, testNamespaces, &deviceKey.PublicKey, time.Now().Add(time.Hour))

		err := issuerSigned.Verify(testDocType, trustStore, time.Now())

		assert.ErrorContains(t, err, "untrusted x5chain")
	})
	t.Run("no trust anchors", func(t *testing.T) {
		issuerSigned := CreateTestIssuerSigned(t, issuer, testDocType, testNamespaces, &deviceKey.PublicKey, time.Now().Add(time.Hour))

		err := issuerSigned.Verify(testDocType, nil, time.Now())

		assert.EqualError(t, err, "no trust anchors configured")
	})
	t.Run("expired", func(t *testing.T) {
		issuerSigned := CreateTestIssuerSigned(t, issuer, testDocType, testNamespaces, &deviceKey.PublicKey, time.Now().Add(time.Minute))

		err := issuerSigned.Verify(testDocType, trustStore, time.Now().Add(10*time.Minute))

		assert.ErrorContains(t, err, "document not valid at")
	})
	t.Run("tampered data element", func(t *testing.T) {
		issuerSigned := CreateTestIssuerSigned(t, issuer, testDocType, testNamespaces, &deviceKey.PublicKey, time.Now().Add(time.Hour))
		items, err := issuerSigned.Items("eu.europa.ec.eudi.pid.1")
		require.NoError(t, err)
		items[1].ElementValue = 99
		tampered, err := encMode.Marshal(items[1])
		require.NoError(t, err)
		issuerSigned.NameSpaces["eu.europa.ec.eudi.pid.1"][1] = tampered

		err = issuerSigned.Verify(testDocType, trustStore, time.Now())

		assert.EqualError(t, err, "digest mismatch for eu.europa.ec.eudi.pid.1/age_in_years")
	})
	t.Run("element without digest", func(t *testing.T) {
		issuerSigned := CreateTestIssuerSigned(t, issuer, testDocType, testNamespaces, &deviceKey.PublicKey, time.Now().Add(time.Hour))
		issuerSigned.NameSpaces["other"] = issuerSigned.NameSpaces["eu.europa.ec.eudi.pid.1"]

		err := issuerSigned.Verify(testDocType, trustStore, time.Now())

		assert.EqualError(t, err, "no value digests for namespace other")
	})
	t.Run("invalid signature", func(t *testing.T) {
		issuerSigned := CreateTestIssuerSigned(t, issuer, testDocType, testNamespaces, &deviceKey.PublicKey, time.Now().Add(time.Hour))
		issuerSigned.IssuerAuth.Signature[0] ^= 0xFF

		err := issuerSigned.Verify(testDocType, trustStore, time.Now())

		assert.ErrorContains(t, err, "invalid issuer signature")
	})
	t.Run("missing x5chain", func(t *testing.T) {
		issuerSigned := CreateTestIssuerSigned(t, issuer, testDocType, testNamespaces, &deviceKey.PublicKey, time.Now().Add(time.Hour))
		issuerSigned.IssuerAuth.Headers.Unprotected = map[interface{}]interface{}{}

		err := issuerSigned.Verify(testDocType, trustStore, time.Now())

		assert.EqualError(t, err, "x5chain not found in unprotected header")
	})
}

func TestDecode(t *testing.T) {
	t.Run("invalid base64", func(t *testing.T) {
		_, err := Decode("%%%")

		assert.ErrorContains(t, err, "invalid mdoc encoding")
	})
	t.Run("invalid CBOR", func(t *testing.T) {
		_, err := Decode("bm90IGNib3I")

		assert.ErrorContains(t, err, "invalid mdoc")
	})
}

func TestIssuerSigned_Select(t *testing.T) {
	issuer := pki.NewIssuerPKI(t, "issuer.example.com")
	deviceKey, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	issuerSigned := CreateTestIssuerSigned(t, issuer, testDocType, testNamespaces, &deviceKey.PublicKey, time.Now().Add(time.Hour))

	selected, err := issuerSigned.Select(map[NameSpace][]ElementIdentifier{
		"eu.europa.ec.eudi.pid.1": {"family_name", "age_over_18"},
	})

	require.NoError(t, err)
	namespaces, err := selected.Namespaces()
	require.NoError(t, err)
	assert.Equal(t, Namespaces{
		"eu.europa.ec.eudi.pid.1": {
			"family_name": "Mustermann",
			"age_over_18": true,
		},
	}, namespaces)
	t.Run("selected document still verifies", func(t *testing.T) {
		err := selected.Verify(testDocType, core.NewTrustStore([]*x509.Certificate{issuer.Root}), time.Now())

		assert.NoError(t, err)
	})
}

func TestCOSEKey(t *testing.T) {
	for _, curve := range []elliptic.Curve{elliptic.P256(), elliptic.P384(), elliptic.P521()} {
		t.Run(curve.Params().Name, func(t *testing.T) {
			key, _ := ecdsa.GenerateKey(curve, rand.Reader)

			coseKey, err := NewCOSEKey(&key.PublicKey)
			require.NoError(t, err)
			actual, err := coseKey.PublicKey()

			require.NoError(t, err)
			assert.True(t, key.PublicKey.Equal(actual))
		})
	}
	t.Run("unsupported key type", func(t *testing.T) {
		_, err := COSEKey{Kty: 1}.PublicKey()

		assert.EqualError(t, err, "unsupported COSE key type: 1")
	})
}

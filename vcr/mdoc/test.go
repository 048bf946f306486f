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
	"crypto/rand"
	"testing"
	"time"

	"github.com/nuts-foundation/nuts-wallet/test/pki"
	"github.com/veraison/go-cose"
)

// CreateTestCredential issues an mdoc signed by the given test PKI, bound to the given device key.
// It returns the base64url encoded IssuerSigned structure, as an issuer would return it.
func CreateTestCredential(t *testing.T, issuer pki.IssuerPKI, docType DocType, namespaces Namespaces, deviceKey *ecdsa.PublicKey) string {
	issuerSigned := CreateTestIssuerSigned(t, issuer, docType, namespaces, deviceKey, time.Now().Add(time.Hour))
	result, err := issuerSigned.Encode()
	if err != nil {
		t.Fatal(err)
	}
	return result
}

// CreateTestIssuerSigned is like CreateTestCredential, but returns the decoded structure with the given expiry.
func CreateTestIssuerSigned(t *testing.T, issuer pki.IssuerPKI, docType DocType, namespaces Namespaces, deviceKey *ecdsa.PublicKey, validUntil time.Time) *IssuerSigned {
	nameSpaces, digests, err := EncodeNamespaces(namespaces, "SHA-256")
	if err != nil {
		t.Fatal(err)
	}
	coseKey, err := NewCOSEKey(deviceKey)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now().Truncate(time.Second).UTC()
	mso := MobileSecurityObject{
		Version:         "1.0",
		DigestAlgorithm: "SHA-256",
		ValueDigests:    digests,
		DeviceKeyInfo:   DeviceKeyInfo{DeviceKey: coseKey},
		DocType:         docType,
		ValidityInfo: ValidityInfo{
			Signed:     now,
			ValidFrom:  now.Add(-time.Minute),
			ValidUntil: validUntil.Truncate(time.Second).UTC(),
		},
	}
	msoBytes, err := encMode.Marshal(mso)
	if err != nil {
		t.Fatal(err)
	}
	payload, err := EncodedCBOR(msoBytes).MarshalCBOR()
	if err != nil {
		t.Fatal(err)
	}
	issuerAuth := cose.UntaggedSign1Message{
		Headers: cose.Headers{
			Protected: cose.ProtectedHeader{},
			Unprotected: cose.UnprotectedHeader{
				cose.HeaderLabelX5Chain: issuer.ChainDER(),
			},
		},
		Payload: payload,
	}
	issuerAuth.Headers.Protected.SetAlgorithm(cose.AlgorithmES256)
	signer, err := cose.NewSigner(cose.AlgorithmES256, issuer.LeafKey)
	if err != nil {
		t.Fatal(err)
	}
	if err = issuerAuth.Sign(rand.Reader, nil, signer); err != nil {
		t.Fatal(err)
	}
	return &IssuerSigned{
		NameSpaces: nameSpaces,
		IssuerAuth: issuerAuth,
	}
}

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
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"hash"
	"math/big"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/veraison/go-cose"
)

// encodedCBORTag is the CBOR tag of embedded CBOR data items (#6.24(bstr .cbor)).
const encodedCBORTag = 24

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:    cbor.SortCoreDeterministic,
		Time:    cbor.TimeRFC3339,
		TimeTag: cbor.EncTagRequired,
	}.EncMode()
	if err != nil {
		panic(err)
	}
}

// DocType identifies the type of mobile document, e.g. org.iso.18013.5.1.mDL.
type DocType string

// NameSpace groups the data elements of a mobile document.
type NameSpace string

// ElementIdentifier identifies a data element within a namespace.
type ElementIdentifier string

// DigestID identifies the digest of a data element in the MobileSecurityObject.
type DigestID uint

// EncodedCBOR is an embedded CBOR data item, encoded as #6.24(bstr). It holds the encoded item.
type EncodedCBOR []byte

func (e EncodedCBOR) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{Number: encodedCBORTag, Content: []byte(e)})
}

func (e *EncodedCBOR) UnmarshalCBOR(data []byte) error {
	var tag cbor.Tag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return err
	}
	if tag.Number != encodedCBORTag {
		return fmt.Errorf("expected CBOR tag %d, got %d", encodedCBORTag, tag.Number)
	}
	content, ok := tag.Content.([]byte)
	if !ok {
		return fmt.Errorf("unexpected embedded CBOR content: %T", tag.Content)
	}
	*e = content
	return nil
}

// IssuerNameSpaces contains the issuer-signed data elements per namespace.
type IssuerNameSpaces map[NameSpace][]EncodedCBOR

// IssuerSigned is the issuer-signed part of a mobile document, as issued by an OpenID4VCI issuer (mso_mdoc format).
type IssuerSigned struct {
	NameSpaces IssuerNameSpaces          `cbor:"nameSpaces,omitempty"`
	IssuerAuth cose.UntaggedSign1Message `cbor:"issuerAuth"`
}

// IssuerSignedItem is a single issuer-signed data element.
type IssuerSignedItem struct {
	DigestID          DigestID          `cbor:"digestID"`
	Random            []byte            `cbor:"random"`
	ElementIdentifier ElementIdentifier `cbor:"elementIdentifier"`
	ElementValue      interface{}       `cbor:"elementValue"`
}

// MobileSecurityObject is the payload of the issuer signature, containing the digests of all data elements.
type MobileSecurityObject struct {
	Version         string        `cbor:"version"`
	DigestAlgorithm string        `cbor:"digestAlgorithm"`
	ValueDigests    ValueDigests  `cbor:"valueDigests"`
	DeviceKeyInfo   DeviceKeyInfo `cbor:"deviceKeyInfo"`
	DocType         DocType       `cbor:"docType"`
	ValidityInfo    ValidityInfo  `cbor:"validityInfo"`
}

// DeviceKeyInfo contains the key the holder must use to authenticate the document.
type DeviceKeyInfo struct {
	DeviceKey COSEKey `cbor:"deviceKey"`
}

// ValidityInfo contains the validity period of the MobileSecurityObject.
type ValidityInfo struct {
	Signed     time.Time `cbor:"signed"`
	ValidFrom  time.Time `cbor:"validFrom"`
	ValidUntil time.Time `cbor:"validUntil"`
}

// COSEKey is an EC2 public key in COSE_Key format.
type COSEKey struct {
	Kty int    `cbor:"1,keyasint"`
	Crv int    `cbor:"-1,keyasint"`
	X   []byte `cbor:"-2,keyasint"`
	Y   []byte `cbor:"-3,keyasint"`
}

const (
	coseKeyTypeEC2 = 2
	coseCurveP256  = 1
	coseCurveP384  = 2
	coseCurveP521  = 3
)

// NewCOSEKey converts the given public key to a COSE_Key.
func NewCOSEKey(key *ecdsa.PublicKey) (COSEKey, error) {
	var crv int
	switch key.Curve {
	case elliptic.P256():
		crv = coseCurveP256
	case elliptic.P384():
		crv = coseCurveP384
	case elliptic.P521():
		crv = coseCurveP521
	default:
		return COSEKey{}, errors.New("unsupported curve")
	}
	size := (key.Curve.Params().BitSize + 7) / 8
	return COSEKey{
		Kty: coseKeyTypeEC2,
		Crv: crv,
		X:   key.X.FillBytes(make([]byte, size)),
		Y:   key.Y.FillBytes(make([]byte, size)),
	}, nil
}

// PublicKey converts the COSE_Key to an ECDSA public key.
func (k COSEKey) PublicKey() (*ecdsa.PublicKey, error) {
	if k.Kty != coseKeyTypeEC2 {
		return nil, fmt.Errorf("unsupported COSE key type: %d", k.Kty)
	}
	var curve elliptic.Curve
	switch k.Crv {
	case coseCurveP256:
		curve = elliptic.P256()
	case coseCurveP384:
		curve = elliptic.P384()
	case coseCurveP521:
		curve = elliptic.P521()
	default:
		return nil, fmt.Errorf("unsupported curve: %d", k.Crv)
	}
	if len(k.X) == 0 || len(k.Y) == 0 {
		return nil, errors.New("invalid coordinates")
	}
	return &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(k.X),
		Y:     new(big.Int).SetBytes(k.Y),
	}, nil
}

// Decode decodes a base64url encoded IssuerSigned structure, as received from an issuer.
func Decode(encoded string) (*IssuerSigned, error) {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return nil, fmt.Errorf("invalid mdoc encoding: %w", err)
	}
	var result IssuerSigned
	if err = cbor.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("invalid mdoc: %w", err)
	}
	return &result, nil
}

// Encode encodes the IssuerSigned structure as base64url CBOR.
func (i *IssuerSigned) Encode() (string, error) {
	data, err := encMode.Marshal(i)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Items decodes the issuer-signed items of the given namespace.
func (i *IssuerSigned) Items(nameSpace NameSpace) ([]IssuerSignedItem, error) {
	var result []IssuerSignedItem
	for _, encoded := range i.NameSpaces[nameSpace] {
		var item IssuerSignedItem
		if err := cbor.Unmarshal(encoded, &item); err != nil {
			return nil, fmt.Errorf("invalid issuer signed item in namespace %s: %w", nameSpace, err)
		}
		result = append(result, item)
	}
	return result, nil
}

// Namespaces decodes all namespaces to JSON compatible claim maps.
func (i *IssuerSigned) Namespaces() (Namespaces, error) {
	return DecodeNamespaces(i.NameSpaces)
}

// Select returns a copy of the IssuerSigned structure that only contains the given data elements.
func (i *IssuerSigned) Select(elements map[NameSpace][]ElementIdentifier) (*IssuerSigned, error) {
	result := &IssuerSigned{
		NameSpaces: IssuerNameSpaces{},
		IssuerAuth: i.IssuerAuth,
	}
	for nameSpace, identifiers := range elements {
		items, err := i.Items(nameSpace)
		if err != nil {
			return nil, err
		}
		for index, item := range items {
			for _, identifier := range identifiers {
				if item.ElementIdentifier == identifier {
					result.NameSpaces[nameSpace] = append(result.NameSpaces[nameSpace], i.NameSpaces[nameSpace][index])
					break
				}
			}
		}
	}
	return result, nil
}

// CertificateChain returns the document signer certificate chain from the x5chain unprotected header, leaf first.
func (i *IssuerSigned) CertificateChain() ([]*x509.Certificate, error) {
	raw, ok := i.IssuerAuth.Headers.Unprotected[cose.HeaderLabelX5Chain]
	if !ok {
		return nil, errors.New("x5chain not found in unprotected header")
	}
	var ders [][]byte
	switch value := raw.(type) {
	case []byte:
		ders = [][]byte{value}
	case [][]byte:
		ders = value
	case []interface{}:
		for _, element := range value {
			der, ok := element.([]byte)
			if !ok {
				return nil, fmt.Errorf("unexpected x5chain element type: %T", element)
			}
			ders = append(ders, der)
		}
	default:
		return nil, fmt.Errorf("unexpected x5chain type: %T", raw)
	}
	if len(ders) == 0 {
		return nil, errors.New("empty x5chain")
	}
	result := make([]*x509.Certificate, 0, len(ders))
	for _, der := range ders {
		certificate, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, fmt.Errorf("invalid x5chain certificate: %w", err)
		}
		result = append(result, certificate)
	}
	return result, nil
}

// MobileSecurityObject decodes the payload of the issuer signature.
func (i *IssuerSigned) MobileSecurityObject() (*MobileSecurityObject, error) {
	if i.IssuerAuth.Payload == nil {
		return nil, errors.New("missing MobileSecurityObject")
	}
	var encoded EncodedCBOR
	if err := cbor.Unmarshal(i.IssuerAuth.Payload, &encoded); err != nil {
		return nil, fmt.Errorf("invalid MobileSecurityObject: %w", err)
	}
	var result MobileSecurityObject
	if err := cbor.Unmarshal(encoded, &result); err != nil {
		return nil, fmt.Errorf("invalid MobileSecurityObject: %w", err)
	}
	return &result, nil
}

// Verify performs issuer data authentication: the x5chain must be trusted at the given time,
// the issuer signature must be made by its leaf certificate, every data element must match its digest
// in the MobileSecurityObject, which must be of the given document type (if not empty) and valid at the given time.
func (i *IssuerSigned) Verify(docType DocType, trustStore *core.TrustStore, at time.Time) error {
	chain, err := i.CertificateChain()
	if err != nil {
		return err
	}
	if trustStore == nil {
		return errors.New("no trust anchors configured")
	}
	if err = trustStore.VerifyChain(chain, at); err != nil {
		return fmt.Errorf("untrusted x5chain: %w", err)
	}
	if i.IssuerAuth.Headers.Protected == nil {
		return errors.New("missing protected header")
	}
	alg, err := i.IssuerAuth.Headers.Protected.Algorithm()
	if err != nil {
		return err
	}
	verifier, err := cose.NewVerifier(alg, chain[0].PublicKey)
	if err != nil {
		return err
	}
	if err = i.IssuerAuth.Verify(nil, verifier); err != nil {
		return fmt.Errorf("invalid issuer signature: %w", err)
	}
	mso, err := i.MobileSecurityObject()
	if err != nil {
		return err
	}
	if err = i.verifyDigests(mso); err != nil {
		return err
	}
	if docType != "" && mso.DocType != docType {
		return fmt.Errorf("document type mismatch: expected %s, got %s", docType, mso.DocType)
	}
	if at.Before(mso.ValidityInfo.ValidFrom) || at.After(mso.ValidityInfo.ValidUntil) {
		return fmt.Errorf("document not valid at %s (valid from %s until %s)", at, mso.ValidityInfo.ValidFrom, mso.ValidityInfo.ValidUntil)
	}
	return nil
}

func (i *IssuerSigned) verifyDigests(mso *MobileSecurityObject) error {
	for nameSpace, encodedItems := range i.NameSpaces {
		digests, ok := mso.ValueDigests[nameSpace]
		if !ok {
			return fmt.Errorf("no value digests for namespace %s", nameSpace)
		}
		for _, encoded := range encodedItems {
			var item IssuerSignedItem
			if err := cbor.Unmarshal(encoded, &item); err != nil {
				return fmt.Errorf("invalid issuer signed item in namespace %s: %w", nameSpace, err)
			}
			expected, ok := digests[item.DigestID]
			if !ok {
				return fmt.Errorf("no value digest for %s/%s (digestID=%d)", nameSpace, item.ElementIdentifier, item.DigestID)
			}
			actual, err := digest(mso.DigestAlgorithm, encoded)
			if err != nil {
				return err
			}
			if !bytes.Equal(expected, actual) {
				return fmt.Errorf("digest mismatch for %s/%s", nameSpace, item.ElementIdentifier)
			}
		}
	}
	return nil
}

// digest calculates the digest of an IssuerSignedItemBytes, which is the digest of the tagged encoding.
func digest(algorithm string, item EncodedCBOR) ([]byte, error) {
	var hasher hash.Hash
	switch algorithm {
	case "SHA-256":
		hasher = sha256.New()
	case "SHA-384":
		hasher = sha512.New384()
	case "SHA-512":
		hasher = sha512.New()
	default:
		return nil, fmt.Errorf("unsupported digest algorithm: %s", algorithm)
	}
	data, err := item.MarshalCBOR()
	if err != nil {
		return nil, err
	}
	hasher.Write(data)
	return hasher.Sum(nil), nil
}

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
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"
)

const deviceResponseVersion = "1.0"

// DeviceResponse is the response of a holder presenting one or more mobile documents.
type DeviceResponse struct {
	Version   string     `cbor:"version"`
	Documents []Document `cbor:"documents,omitempty"`
	Status    uint       `cbor:"status"`
}

// Document is a presented mobile document.
type Document struct {
	DocType      DocType      `cbor:"docType"`
	IssuerSigned IssuerSigned `cbor:"issuerSigned"`
	DeviceSigned DeviceSigned `cbor:"deviceSigned"`
}

// DeviceSigned contains the data elements signed by the holder's device key and the device authentication.
type DeviceSigned struct {
	NameSpaces EncodedCBOR `cbor:"nameSpaces"`
	DeviceAuth DeviceAuth  `cbor:"deviceAuth"`
}

// DeviceAuth contains the device signature over the DeviceAuthenticationBytes (detached payload).
type DeviceAuth struct {
	DeviceSignature cose.UntaggedSign1Message `cbor:"deviceSignature"`
}

type deviceAuthentication struct {
	_                     struct{} `cbor:",toarray"`
	Context               string
	SessionTranscript     cbor.RawMessage
	DocType               DocType
	DeviceNameSpacesBytes EncodedCBOR
}

type oid4vpHandover struct {
	_               struct{} `cbor:",toarray"`
	ClientIDHash    []byte
	ResponseURIHash []byte
	Nonce           string
}

type sessionTranscript struct {
	_                     struct{} `cbor:",toarray"`
	DeviceEngagementBytes interface{}
	EReaderKeyBytes       interface{}
	Handover              oid4vpHandover
}

// SessionTranscript creates the CBOR encoded session transcript binding a device response to an OpenID4VP request,
// using the OpenID4VP handover: the hashes of the client ID and response URI (each combined with the mdoc generated nonce)
// and the verifier's nonce.
func SessionTranscript(clientID string, responseURI string, nonce string, mdocGeneratedNonce string) ([]byte, error) {
	clientIDHash, err := hashArray(clientID, mdocGeneratedNonce)
	if err != nil {
		return nil, err
	}
	responseURIHash, err := hashArray(responseURI, mdocGeneratedNonce)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(sessionTranscript{
		Handover: oid4vpHandover{
			ClientIDHash:    clientIDHash,
			ResponseURIHash: responseURIHash,
			Nonce:           nonce,
		},
	})
}

func hashArray(values ...string) ([]byte, error) {
	data, err := encMode.Marshal(values)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}

// NewDocument creates a presentable document from the given issuer-signed data, authenticated with the device key
// for the given session transcript. The device key must match the key in the MobileSecurityObject.
func NewDocument(docType DocType, issuerSigned IssuerSigned, transcript []byte, deviceKey crypto.Signer) (*Document, error) {
	alg, err := coseAlgorithm(deviceKey)
	if err != nil {
		return nil, err
	}
	deviceNameSpaces, err := encMode.Marshal(map[NameSpace]interface{}{})
	if err != nil {
		return nil, err
	}
	payload, err := deviceAuthenticationBytes(transcript, docType, deviceNameSpaces)
	if err != nil {
		return nil, err
	}
	signer, err := cose.NewSigner(alg, deviceKey)
	if err != nil {
		return nil, err
	}
	signature := cose.UntaggedSign1Message{
		Headers: cose.Headers{
			Protected:   cose.ProtectedHeader{},
			Unprotected: cose.UnprotectedHeader{},
		},
		Payload: payload,
	}
	signature.Headers.Protected.SetAlgorithm(alg)
	if err = signature.Sign(rand.Reader, nil, signer); err != nil {
		return nil, fmt.Errorf("unable to create device signature: %w", err)
	}
	// detached payload
	signature.Payload = nil
	return &Document{
		DocType:      docType,
		IssuerSigned: issuerSigned,
		DeviceSigned: DeviceSigned{
			NameSpaces: deviceNameSpaces,
			DeviceAuth: DeviceAuth{DeviceSignature: signature},
		},
	}, nil
}

// VerifyDeviceSignature verifies the device signature of the document against the device key in the MobileSecurityObject.
func (d Document) VerifyDeviceSignature(transcript []byte) error {
	mso, err := d.IssuerSigned.MobileSecurityObject()
	if err != nil {
		return err
	}
	deviceKey, err := mso.DeviceKeyInfo.DeviceKey.PublicKey()
	if err != nil {
		return err
	}
	signature := d.DeviceSigned.DeviceAuth.DeviceSignature
	if signature.Headers.Protected == nil {
		return errors.New("missing protected header")
	}
	alg, err := signature.Headers.Protected.Algorithm()
	if err != nil {
		return err
	}
	verifier, err := cose.NewVerifier(alg, deviceKey)
	if err != nil {
		return err
	}
	signature.Payload, err = deviceAuthenticationBytes(transcript, d.DocType, d.DeviceSigned.NameSpaces)
	if err != nil {
		return err
	}
	return signature.Verify(nil, verifier)
}

func deviceAuthenticationBytes(transcript []byte, docType DocType, deviceNameSpaces EncodedCBOR) ([]byte, error) {
	data, err := encMode.Marshal(deviceAuthentication{
		Context:               "DeviceAuthentication",
		SessionTranscript:     transcript,
		DocType:               docType,
		DeviceNameSpacesBytes: deviceNameSpaces,
	})
	if err != nil {
		return nil, err
	}
	return EncodedCBOR(data).MarshalCBOR()
}

func coseAlgorithm(key crypto.Signer) (cose.Algorithm, error) {
	ecKey, ok := key.Public().(*ecdsa.PublicKey)
	if !ok {
		return 0, fmt.Errorf("unsupported device key type: %T", key.Public())
	}
	switch ecKey.Curve.Params().BitSize {
	case 256:
		return cose.AlgorithmES256, nil
	case 384:
		return cose.AlgorithmES384, nil
	case 521:
		return cose.AlgorithmES512, nil
	}
	return 0, errors.New("unsupported curve")
}

// NewDeviceResponse creates a successful device response containing the given documents.
func NewDeviceResponse(documents ...Document) DeviceResponse {
	return DeviceResponse{
		Version:   deviceResponseVersion,
		Documents: documents,
	}
}

// Encode encodes the device response as base64url CBOR, which is the vp_token of an mso_mdoc presentation.
func (r DeviceResponse) Encode() (string, error) {
	data, err := encMode.Marshal(r)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeDeviceResponse decodes a base64url encoded device response.
func DecodeDeviceResponse(encoded string) (*DeviceResponse, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid device response encoding: %w", err)
	}
	var result DeviceResponse
	if err = cbor.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("invalid device response: %w", err)
	}
	return &result, nil
}

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

package holder

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/nuts-foundation/nuts-wallet/crypto"
	"github.com/nuts-foundation/nuts-wallet/vcr/mdoc"
	"github.com/nuts-foundation/nuts-wallet/vcr/pe"
	"github.com/nuts-foundation/nuts-wallet/vcr/sdjwt"
	"go.etcd.io/bbolt"
)

const (
	keysBucket    = "keys"
	deviceKeyName = "device"
	userHandleKey = "user_handle"

	proofJWTType = "openid4vci-proof+jwt"
	kbJWTType    = "kb+jwt"
)

// verifiableCredentialContext is the JSON-LD context of W3C verifiable presentations.
const verifiableCredentialContext = "https://www.w3.org/2018/credentials/v1"

var _ Keys = (*SoftwareKeys)(nil)

// NewSoftwareKeys loads the holder key and user handle from the given BBolt database, generating them on first use.
func NewSoftwareKeys(db *bbolt.DB) (*SoftwareKeys, error) {
	result := &SoftwareKeys{clock: time.Now}
	err := db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(keysBucket))
		if err != nil {
			return err
		}
		if data := bucket.Get([]byte(deviceKeyName)); data != nil {
			result.key, err = crypto.UnmarshalPrivateKey(data)
			if err != nil {
				return err
			}
		} else {
			if result.key, err = crypto.GenerateEphemeralKey(); err != nil {
				return err
			}
			privateJWK, _, err := crypto.MarshalKeyPair(result.key)
			if err != nil {
				return err
			}
			if err = bucket.Put([]byte(deviceKeyName), privateJWK); err != nil {
				return err
			}
		}
		if data := bucket.Get([]byte(userHandleKey)); data != nil {
			result.userHandle = string(data)
			return nil
		}
		result.userHandle = uuid.NewString()
		return bucket.Put([]byte(userHandleKey), []byte(result.userHandle))
	})
	if err != nil {
		return nil, fmt.Errorf("unable to load holder keys: %w", err)
	}
	if result.publicJWK, err = jwk.FromRaw(result.key.Public()); err != nil {
		return nil, err
	}
	_ = result.publicJWK.Set(jwk.AlgorithmKey, jwa.ES256)
	return result, nil
}

// SoftwareKeys holds a single P-256 holder key in software.
// The key binds issued credentials (proof of possession) and signs presentations and mdoc device responses.
type SoftwareKeys struct {
	key        *ecdsa.PrivateKey
	publicJWK  jwk.Key
	userHandle string
	clock      func() time.Time
}

// PublicKey returns the public holder key.
func (k *SoftwareKeys) PublicKey() *ecdsa.PublicKey {
	return &k.key.PublicKey
}

func (k *SoftwareKeys) UserHandle(_ context.Context) (string, error) {
	return k.userHandle, nil
}

// GenerateProof creates a proof of possession of the holder key for a credential request (openid4vci-proof+jwt).
func (k *SoftwareKeys) GenerateProof(_ context.Context, cNonce string, audience string, clientID string) (string, error) {
	token := jwt.New()
	if clientID != "" {
		_ = token.Set(jwt.IssuerKey, clientID)
	}
	_ = token.Set(jwt.AudienceKey, audience)
	_ = token.Set(jwt.IssuedAtKey, k.clock())
	if cNonce != "" {
		_ = token.Set("nonce", cNonce)
	}
	return k.sign(token, proofJWTType, true)
}

// SignPresentation binds the presentations to the verifier. A single SD-JWT gets a key binding JWT appended,
// other credentials are wrapped in a JWT verifiable presentation.
func (k *SoftwareKeys) SignPresentation(_ context.Context, nonce string, audience string, presentations []string) (string, error) {
	if len(presentations) == 0 {
		return "", errors.New("nothing to present")
	}
	if len(presentations) == 1 && strings.HasSuffix(presentations[0], sdjwt.Separator) {
		return k.keyBinding(nonce, audience, presentations[0])
	}
	token := jwt.New()
	_ = token.Set(jwt.JwtIDKey, uuid.NewString())
	_ = token.Set(jwt.AudienceKey, audience)
	_ = token.Set(jwt.IssuedAtKey, k.clock())
	_ = token.Set("nonce", nonce)
	_ = token.Set("vp", map[string]interface{}{
		"@context":             []string{verifiableCredentialContext},
		"type":                 []string{"VerifiablePresentation"},
		"verifiableCredential": presentations,
	})
	return k.sign(token, "JWT", true)
}

// keyBinding appends a key binding JWT to the SD-JWT presentation, signed by the holder key.
func (k *SoftwareKeys) keyBinding(nonce string, audience string, presentation string) (string, error) {
	sdHash := sha256.Sum256([]byte(presentation))
	token := jwt.New()
	_ = token.Set(jwt.AudienceKey, audience)
	_ = token.Set(jwt.IssuedAtKey, k.clock())
	_ = token.Set("nonce", nonce)
	_ = token.Set("sd_hash", base64.RawURLEncoding.EncodeToString(sdHash[:]))
	kbJWT, err := k.sign(token, kbJWTType, false)
	if err != nil {
		return "", err
	}
	return presentation + kbJWT, nil
}

func (k *SoftwareKeys) sign(token jwt.Token, typ string, withJWK bool) (string, error) {
	headers := jws.NewHeaders()
	_ = headers.Set(jws.TypeKey, typ)
	if withJWK {
		_ = headers.Set(jws.JWKKey, k.publicJWK)
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256, k.key, jws.WithProtectedHeaders(headers)))
	if err != nil {
		return "", fmt.Errorf("unable to sign %s: %w", typ, err)
	}
	return string(signed), nil
}

// GenerateDeviceResponse discloses the data elements requested by the presentation definition's field paths
// (e.g. $['org.iso.18013.5.1']['family_name']) that the document contains.
func (k *SoftwareKeys) GenerateDeviceResponse(_ context.Context, document mdoc.Document, definition pe.PresentationDefinition, mdocGeneratedNonce string, nonce string, clientID string, responseURI string) (*mdoc.DeviceResponse, error) {
	elements, err := requestedElements(definition, document.IssuerSigned.NameSpaces)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("presentation definition does not request data elements of the document (docType=%s)", document.DocType)
	}
	selected, err := document.IssuerSigned.Select(elements)
	if err != nil {
		return nil, err
	}
	transcript, err := mdoc.SessionTranscript(clientID, responseURI, nonce, mdocGeneratedNonce)
	if err != nil {
		return nil, err
	}
	presented, err := mdoc.NewDocument(document.DocType, *selected, transcript, k.key)
	if err != nil {
		return nil, err
	}
	result := mdoc.NewDeviceResponse(*presented)
	return &result, nil
}

func requestedElements(definition pe.PresentationDefinition, nameSpaces mdoc.IssuerNameSpaces) (map[mdoc.NameSpace][]mdoc.ElementIdentifier, error) {
	result := map[mdoc.NameSpace][]mdoc.ElementIdentifier{}
	for _, descriptor := range definition.InputDescriptors {
		for _, path := range descriptor.FieldPaths() {
			segments, err := pe.ParsePath(path)
			if err != nil {
				return nil, err
			}
			if len(segments) < 2 {
				continue
			}
			nameSpace := mdoc.NameSpace(segments[0])
			element := mdoc.ElementIdentifier(segments[1])
			if _, ok := nameSpaces[nameSpace]; !ok || slices.Contains(result[nameSpace], element) {
				continue
			}
			result[nameSpace] = append(result[nameSpace], element)
		}
	}
	return result, nil
}

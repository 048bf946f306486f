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
	"crypto/sha256"
	"encoding/base64"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/nuts-foundation/nuts-wallet/storage"
	"github.com/nuts-foundation/nuts-wallet/test/io"
	"github.com/nuts-foundation/nuts-wallet/test/pki"
	"github.com/nuts-foundation/nuts-wallet/vcr/mdoc"
	"github.com/nuts-foundation/nuts-wallet/vcr/pe"
	petest "github.com/nuts-foundation/nuts-wallet/vcr/pe/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func newTestKeys(t *testing.T) (*SoftwareKeys, *bbolt.DB) {
	db := storage.CreateTestBBoltStore(t, path.Join(io.TestDirectory(t), "holder.db"))
	keys, err := NewSoftwareKeys(db)
	require.NoError(t, err)
	return keys, db
}

func TestNewSoftwareKeys(t *testing.T) {
	t.Run("keys and user handle are persisted", func(t *testing.T) {
		keys, db := newTestKeys(t)

		reloaded, err := NewSoftwareKeys(db)

		require.NoError(t, err)
		assert.True(t, keys.PublicKey().Equal(reloaded.PublicKey()))
		userHandle, _ := keys.UserHandle(context.Background())
		reloadedUserHandle, _ := reloaded.UserHandle(context.Background())
		assert.NotEmpty(t, userHandle)
		assert.Equal(t, userHandle, reloadedUserHandle)
	})
}

func TestSoftwareKeys_GenerateProof(t *testing.T) {
	keys, _ := newTestKeys(t)

	proof, err := keys.GenerateProof(context.Background(), "c-nonce", "https://issuer.example.com", "wallet-client")

	require.NoError(t, err)
	message, err := jws.ParseString(proof)
	require.NoError(t, err)
	headers := message.Signatures()[0].ProtectedHeaders()
	assert.Equal(t, "openid4vci-proof+jwt", headers.Type())
	require.NotNil(t, headers.JWK())
	token, err := jwt.ParseString(proof, jwt.WithKey(jwa.ES256, keys.PublicKey()))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://issuer.example.com"}, token.Audience())
	assert.Equal(t, "wallet-client", token.Issuer())
	assert.Equal(t, "c-nonce", token.PrivateClaims()["nonce"])
}

func TestSoftwareKeys_SignPresentation(t *testing.T) {
	ctx := context.Background()
	keys, _ := newTestKeys(t)

	t.Run("SD-JWT gets a key binding JWT", func(t *testing.T) {
		presentation := "eyJhbGciOiJFUzI1NiJ9.eyJ2Y3QiOiJ0ZXN0In0.c2ln~WyJzYWx0IiwibmFtZSIsInZhbHVlIl0~"

		result, err := keys.SignPresentation(ctx, "nonce-1", "https://verifier.example.com/response", []string{presentation})

		require.NoError(t, err)
		require.True(t, strings.HasPrefix(result, presentation))
		kbJWT := strings.TrimPrefix(result, presentation)
		message, err := jws.ParseString(kbJWT)
		require.NoError(t, err)
		assert.Equal(t, "kb+jwt", message.Signatures()[0].ProtectedHeaders().Type())
		token, err := jwt.ParseString(kbJWT, jwt.WithKey(jwa.ES256, keys.PublicKey()))
		require.NoError(t, err)
		sdHash := sha256.Sum256([]byte(presentation))
		assert.Equal(t, base64.RawURLEncoding.EncodeToString(sdHash[:]), token.PrivateClaims()["sd_hash"])
		assert.Equal(t, "nonce-1", token.PrivateClaims()["nonce"])
		assert.Equal(t, []string{"https://verifier.example.com/response"}, token.Audience())
	})
	t.Run("JWT VC is wrapped in a verifiable presentation", func(t *testing.T) {
		result, err := keys.SignPresentation(ctx, "nonce-1", "verifier", []string{"a.b.c"})

		require.NoError(t, err)
		token, err := jwt.ParseString(result, jwt.WithKey(jwa.ES256, keys.PublicKey()))
		require.NoError(t, err)
		vp, ok := token.PrivateClaims()["vp"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, []interface{}{"a.b.c"}, vp["verifiableCredential"])
		assert.NotEmpty(t, token.JwtID())
	})
	t.Run("nothing to present", func(t *testing.T) {
		_, err := keys.SignPresentation(ctx, "nonce-1", "verifier", nil)

		assert.EqualError(t, err, "nothing to present")
	})
}

func TestSoftwareKeys_GenerateDeviceResponse(t *testing.T) {
	const docType = "eu.europa.ec.eudi.pid.1"
	ctx := context.Background()
	keys, _ := newTestKeys(t)
	issuerSigned := mdoc.CreateTestIssuerSigned(t, pki.NewIssuerPKI(t, "issuer.example.com"), docType, mdoc.Namespaces{
		docType: {"given_name": "Erika", "family_name": "Mustermann"},
	}, keys.PublicKey(), time.Now().Add(time.Hour))
	document := mdoc.Document{DocType: docType, IssuerSigned: *issuerSigned}

	t.Run("discloses requested elements", func(t *testing.T) {
		definition, err := pe.ParsePresentationDefinition([]byte(petest.MDocFamilyName))
		require.NoError(t, err)

		response, err := keys.GenerateDeviceResponse(ctx, document, *definition, "mdoc-nonce", "nonce-1", "verifier", "https://verifier.example.com/response")

		require.NoError(t, err)
		require.Len(t, response.Documents, 1)
		presented := response.Documents[0]
		namespaces, err := presented.IssuerSigned.Namespaces()
		require.NoError(t, err)
		assert.Equal(t, mdoc.Namespaces{docType: {"family_name": "Mustermann"}}, namespaces)
		transcript, err := mdoc.SessionTranscript("verifier", "https://verifier.example.com/response", "nonce-1", "mdoc-nonce")
		require.NoError(t, err)
		assert.NoError(t, presented.VerifyDeviceSignature(transcript))
	})
	t.Run("no requested elements", func(t *testing.T) {
		definition, err := pe.ParsePresentationDefinition([]byte(petest.SDJWTFamilyName))
		require.NoError(t, err)

		_, err = keys.GenerateDeviceResponse(ctx, document, *definition, "mdoc-nonce", "nonce-1", "verifier", "https://verifier.example.com/response")

		assert.ErrorContains(t, err, "does not request data elements")
	})
}

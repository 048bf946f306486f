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

package credential

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/nuts-foundation/nuts-wallet/test/pki"
	"github.com/nuts-foundation/nuts-wallet/vcr/mdoc"
	"github.com/nuts-foundation/nuts-wallet/vcr/sdjwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_Parse(t *testing.T) {
	ctx := context.Background()
	issuer := pki.NewIssuerPKI(t, "issuer.example.com")
	codec := NewCodec(core.NewTrustStore([]*x509.Certificate{issuer.Root}))

	t.Run("SD-JWT", func(t *testing.T) {
		compact := sdjwt.CreateTestCredential(t, issuer, "urn:eu.europa.ec.eudi:pid:1", map[string]interface{}{
			"given_name":  "Erika",
			"family_name": "Mustermann",
		})
		t.Run("ok", func(t *testing.T) {
			parsed, err := codec.Parse(ctx, StorableCredential{ID: "1", Credential: compact, Format: "vc+sd-jwt"}, true)

			require.NoError(t, err)
			assert.Equal(t, "vc+sd-jwt", parsed.Format)
			assert.Equal(t, "Mustermann", parsed.Claims["family_name"])
			assert.Equal(t, "urn:eu.europa.ec.eudi:pid:1", parsed.Claims["vct"])
			assert.NotNil(t, parsed.SDJWT)
		})
		t.Run("dc+sd-jwt format", func(t *testing.T) {
			parsed, err := codec.Parse(ctx, StorableCredential{Credential: compact, Format: "dc+sd-jwt"}, true)

			require.NoError(t, err)
			assert.Equal(t, "Erika", parsed.Claims["given_name"])
		})
		t.Run("untrusted issuer", func(t *testing.T) {
			other := pki.NewIssuerPKI(t, "other.example.com")
			untrusted := sdjwt.CreateTestCredential(t, other, "urn:eu.europa.ec.eudi:pid:1", map[string]interface{}{"given_name": "Erika"})

			parsed, err := codec.Parse(ctx, StorableCredential{Credential: untrusted, Format: "vc+sd-jwt"}, true)

			assert.ErrorIs(t, err, ErrVerification)
			assert.Nil(t, parsed)
		})
		t.Run("untrusted issuer, not validated", func(t *testing.T) {
			other := pki.NewIssuerPKI(t, "other.example.com")
			untrusted := sdjwt.CreateTestCredential(t, other, "urn:eu.europa.ec.eudi:pid:1", map[string]interface{}{"given_name": "Erika"})

			parsed, err := codec.Parse(ctx, StorableCredential{Credential: untrusted, Format: "vc+sd-jwt"}, false)

			require.NoError(t, err)
			assert.Equal(t, "Erika", parsed.Claims["given_name"])
		})
		t.Run("no trust anchors", func(t *testing.T) {
			_, err := NewCodec(nil).Parse(ctx, StorableCredential{Credential: compact, Format: "vc+sd-jwt"}, true)

			assert.ErrorIs(t, err, ErrVerification)
		})
		t.Run("invalid", func(t *testing.T) {
			_, err := codec.Parse(ctx, StorableCredential{Credential: "invalid~", Format: "vc+sd-jwt"}, false)

			assert.Error(t, err)
			assert.NotErrorIs(t, err, ErrVerification)
		})
	})
	t.Run("mdoc", func(t *testing.T) {
		deviceKey, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		namespaces := mdoc.Namespaces{
			"eu.europa.ec.eudi.pid.1": {
				"family_name": "Mustermann",
				"given_name":  "Erika",
			},
			"eu.europa.ec.eudi.pid.de.1": {
				"nationality": "DE",
			},
		}
		encoded := mdoc.CreateTestCredential(t, issuer, "eu.europa.ec.eudi.pid.1", namespaces, &deviceKey.PublicKey)
		t.Run("ok", func(t *testing.T) {
			parsed, err := codec.Parse(ctx, StorableCredential{Credential: encoded, Format: "mso_mdoc", Doctype: "eu.europa.ec.eudi.pid.1"}, true)

			require.NoError(t, err)
			assert.Equal(t, map[string]interface{}{
				"family_name": "Mustermann",
				"given_name":  "Erika",
				"nationality": "DE",
			}, parsed.Claims)
			assert.Equal(t, namespaces, parsed.Namespaces)
			assert.Equal(t, mdoc.DocType("eu.europa.ec.eudi.pid.1"), parsed.DocType)
			assert.NotNil(t, parsed.IssuerSigned)
		})
		t.Run("document type from MobileSecurityObject", func(t *testing.T) {
			parsed, err := codec.Parse(ctx, StorableCredential{Credential: encoded, Format: "mso_mdoc"}, false)

			require.NoError(t, err)
			assert.Equal(t, mdoc.DocType("eu.europa.ec.eudi.pid.1"), parsed.DocType)
			assert.Equal(t, "Erika", parsed.Claims["given_name"])
		})
		t.Run("claims of a namespace not named after the document type", func(t *testing.T) {
			mDL := mdoc.CreateTestCredential(t, issuer, "org.iso.18013.5.1.mDL", mdoc.Namespaces{
				"org.iso.18013.5.1": {
					"family_name": "Mustermann",
					"name":        "Driving licence",
				},
			}, &deviceKey.PublicKey)

			parsed, err := codec.Parse(ctx, StorableCredential{Credential: mDL, Format: "mso_mdoc", Doctype: "org.iso.18013.5.1.mDL"}, true)

			require.NoError(t, err)
			assert.Equal(t, "Mustermann", parsed.Claims["family_name"])
			assert.Equal(t, "Driving licence", FriendlyName(parsed))
		})
		t.Run("document type namespace takes precedence", func(t *testing.T) {
			duplicate := mdoc.CreateTestCredential(t, issuer, "eu.europa.ec.eudi.pid.1", mdoc.Namespaces{
				"a.namespace":             {"family_name": "Other"},
				"eu.europa.ec.eudi.pid.1": {"family_name": "Mustermann"},
			}, &deviceKey.PublicKey)

			parsed, err := codec.Parse(ctx, StorableCredential{Credential: duplicate, Format: "mso_mdoc"}, false)

			require.NoError(t, err)
			assert.Equal(t, "Mustermann", parsed.Claims["family_name"])
		})
		t.Run("document type mismatch", func(t *testing.T) {
			_, err := codec.Parse(ctx, StorableCredential{Credential: encoded, Format: "mso_mdoc", Doctype: "org.iso.18013.5.1.mDL"}, true)

			assert.ErrorIs(t, err, ErrVerification)
		})
		t.Run("expired", func(t *testing.T) {
			codec := NewCodec(core.NewTrustStore([]*x509.Certificate{issuer.Root}))
			codec.clock = func() time.Time {
				return time.Now().Add(2 * time.Hour)
			}

			_, err := codec.Parse(ctx, StorableCredential{Credential: encoded, Format: "mso_mdoc"}, true)

			assert.ErrorIs(t, err, ErrVerification)
		})
		t.Run("invalid", func(t *testing.T) {
			_, err := codec.Parse(ctx, StorableCredential{Credential: "not-an-mdoc", Format: "mso_mdoc"}, false)

			assert.ErrorContains(t, err, "invalid mdoc")
		})
	})
	t.Run("JWT VC", func(t *testing.T) {
		sign := func(claims jwt.MapClaims) string {
			token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)
			return token
		}
		t.Run("vc claim", func(t *testing.T) {
			token := sign(jwt.MapClaims{
				"iss": "https://issuer.example.com",
				"vc": map[string]interface{}{
					"type": []interface{}{"VerifiableCredential"},
					"name": "Diploma",
				},
			})

			parsed, err := codec.Parse(ctx, StorableCredential{Credential: token, Format: "jwt_vc_json"}, true)

			require.NoError(t, err)
			assert.Equal(t, "Diploma", parsed.Claims["name"])
			assert.NotContains(t, parsed.Claims, "iss")
		})
		t.Run("no vc claim", func(t *testing.T) {
			token := sign(jwt.MapClaims{"iss": "https://issuer.example.com"})

			parsed, err := codec.Parse(ctx, StorableCredential{Credential: token, Format: "jwt_vc"}, false)

			require.NoError(t, err)
			assert.Equal(t, "https://issuer.example.com", parsed.Claims["iss"])
		})
		t.Run("invalid", func(t *testing.T) {
			_, err := codec.Parse(ctx, StorableCredential{Credential: "invalid", Format: "jwt_vc_json"}, false)

			assert.ErrorContains(t, err, "invalid JWT VC")
		})
	})
	t.Run("unsupported format", func(t *testing.T) {
		_, err := codec.Parse(ctx, StorableCredential{Credential: "", Format: "ldp_vc"}, false)

		assert.ErrorIs(t, err, ErrUnsupportedFormat)
		assert.EqualError(t, err, "unsupported credential format: ldp_vc")
	})
}

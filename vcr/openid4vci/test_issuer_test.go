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

package openid4vci

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/nuts-foundation/nuts-wallet/auth/oauth"
	"github.com/nuts-foundation/nuts-wallet/crypto/dpop"
)

const (
	testClientID  = "wallet-client"
	testPIDVCT    = "urn:eu.europa.ec.eudi:pid:1"
	testMDLType   = "org.iso.18013.5.1.mDL"
	testRequestID = "urn:ietf:params:oauth:request_uri:6esc_11ACC5bwc014ltc14eY22c"
)

// testIssuer is a credential issuer and authorization server serving the endpoints the issuance client calls.
type testIssuer struct {
	server *httptest.Server

	offer              oauth.CredentialOffer
	issuerMetadata     oauth.OpenIDCredentialIssuerMetadata
	parRequests        []url.Values
	tokenRequests      []url.Values
	tokenProofs        []*dpop.DPoP
	credentialRequests []oauth.CredentialRequest
	credentialHeaders  []http.Header

	// requiredNonce makes the token endpoint reject proofs without this nonce.
	requiredNonce string
	// rotateNonce makes the token endpoint reject every proof with a fresh nonce.
	rotateNonce bool
	// credentialStatus makes the credential endpoint fail with the given status.
	credentialStatus int
	credential       string
}

func newTestIssuer(t *testing.T) *testIssuer {
	result := &testIssuer{}
	mux := http.NewServeMux()
	result.server = httptest.NewServer(mux)
	t.Cleanup(result.server.Close)
	baseURL := result.server.URL

	result.issuerMetadata = oauth.OpenIDCredentialIssuerMetadata{
		CredentialIssuer:   baseURL,
		CredentialEndpoint: baseURL + "/credential",
		CredentialConfigurationsSupported: map[string]oauth.CredentialConfiguration{
			"pid": {Format: oauth.SDJWTVCFormat, Scope: "pid", VCT: testPIDVCT},
			"mdl": {Format: oauth.MsoMdocFormat, Scope: "mdl", Doctype: testMDLType},
		},
	}
	result.offer = oauth.CredentialOffer{
		CredentialIssuer:           baseURL,
		CredentialConfigurationIDs: []string{"pid", "mdl"},
		Grants: map[string]map[string]any{
			oauth.AuthorizationCodeGrantType: {},
		},
	}
	authzMetadata := oauth.AuthorizationServerMetadata{
		Issuer:                             baseURL,
		AuthorizationEndpoint:              baseURL + "/authorize",
		PushedAuthorizationRequestEndpoint: baseURL + "/par",
		TokenEndpoint:                      baseURL + "/token",
		CodeChallengeMethodsSupported:      []string{"S256"},
	}

	mux.HandleFunc(oauth.OpenIdCredIssuerWellKnown, func(writer http.ResponseWriter, _ *http.Request) {
		writeJSON(writer, http.StatusOK, result.issuerMetadata)
	})
	mux.HandleFunc(oauth.AuthzServerWellKnown, func(writer http.ResponseWriter, _ *http.Request) {
		writeJSON(writer, http.StatusOK, authzMetadata)
	})
	mux.HandleFunc("/offer", func(writer http.ResponseWriter, _ *http.Request) {
		writeJSON(writer, http.StatusOK, result.offer)
	})
	mux.HandleFunc("/par", func(writer http.ResponseWriter, request *http.Request) {
		_ = request.ParseForm()
		result.parRequests = append(result.parRequests, request.PostForm)
		writeJSON(writer, http.StatusCreated, oauth.PushedAuthorizationResponse{RequestURI: testRequestID, ExpiresIn: 60})
	})
	mux.HandleFunc("/token", func(writer http.ResponseWriter, request *http.Request) {
		_ = request.ParseForm()
		result.tokenRequests = append(result.tokenRequests, request.PostForm)
		proof, err := dpop.Parse(request.Header.Get("DPoP"))
		if err != nil {
			writeJSON(writer, http.StatusBadRequest, oauth.OAuth2Error{Code: oauth.InvalidDPoPProof})
			return
		}
		result.tokenProofs = append(result.tokenProofs, proof)
		if result.rotateNonce {
			writer.Header().Set(dpop.NonceHeader, fmt.Sprintf("nonce-%d", len(result.tokenProofs)))
			writeJSON(writer, http.StatusBadRequest, oauth.OAuth2Error{Code: oauth.UseDPoPNonce})
			return
		}
		if result.requiredNonce != "" && proof.Nonce() != result.requiredNonce {
			writer.Header().Set(dpop.NonceHeader, result.requiredNonce)
			writeJSON(writer, http.StatusBadRequest, oauth.OAuth2Error{Code: oauth.UseDPoPNonce})
			return
		}
		writeJSON(writer, http.StatusOK, map[string]interface{}{
			"access_token":       "access-token",
			"token_type":         "DPoP",
			"expires_in":         3600,
			"c_nonce":            "c-nonce-1",
			"c_nonce_expires_in": 86400,
		})
	})
	mux.HandleFunc("/credential", func(writer http.ResponseWriter, request *http.Request) {
		var credentialRequest oauth.CredentialRequest
		_ = json.NewDecoder(request.Body).Decode(&credentialRequest)
		result.credentialRequests = append(result.credentialRequests, credentialRequest)
		result.credentialHeaders = append(result.credentialHeaders, request.Header.Clone())
		if result.credentialStatus != 0 {
			writeJSON(writer, result.credentialStatus, oauth.OAuth2Error{Code: oauth.InvalidProof})
			return
		}
		writeJSON(writer, http.StatusOK, oauth.CredentialResponse{
			Credential:      result.credential,
			CNonce:          "c-nonce-2",
			CNonceExpiresIn: 86400,
		})
	})
	return result
}

func (i *testIssuer) URL() string {
	return i.server.URL
}

func (i *testIssuer) offerURL(t *testing.T) string {
	data, err := json.Marshal(i.offer)
	if err != nil {
		t.Fatal(err)
	}
	return "openid-credential-offer://?" + oauth.CredentialOfferParam + "=" + url.QueryEscape(string(data))
}

func writeJSON(writer http.ResponseWriter, status int, body interface{}) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(body)
}

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

package openid4vp

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/nuts-foundation/nuts-wallet/test/pki"
)

const (
	testNonce    = "nonce-1"
	testState    = "state-1"
	testRedirect = "https://verifier.example.com/done"
)

// testVerifier is a verifier serving presentation definitions and request objects, and receiving authorization responses.
type testVerifier struct {
	server *httptest.Server

	definition    string
	requestObject string
	responses     []url.Values
	// responseStatus makes the response endpoint fail with the given status.
	responseStatus int
	// emptyResponse makes the response endpoint return no redirect.
	emptyResponse bool
}

func newTestVerifier(t *testing.T) *testVerifier {
	result := &testVerifier{}
	mux := http.NewServeMux()
	result.server = httptest.NewServer(mux)
	t.Cleanup(result.server.Close)

	mux.HandleFunc("/definition", func(writer http.ResponseWriter, _ *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(result.definition))
	})
	mux.HandleFunc("/request", func(writer http.ResponseWriter, _ *http.Request) {
		writer.Header().Set("Content-Type", contentTypeRequestObject)
		_, _ = writer.Write([]byte(result.requestObject))
	})
	mux.HandleFunc("/response", func(writer http.ResponseWriter, request *http.Request) {
		if err := request.ParseForm(); err != nil {
			writer.WriteHeader(http.StatusBadRequest)
			return
		}
		result.responses = append(result.responses, request.PostForm)
		if result.responseStatus != 0 {
			writer.WriteHeader(result.responseStatus)
			_, _ = writer.Write([]byte(`{"error":"invalid_request"}`))
			return
		}
		if result.emptyResponse {
			writer.WriteHeader(http.StatusOK)
			return
		}
		writer.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(writer).Encode(map[string]string{"redirect_uri": testRedirect})
	})
	return result
}

func (v *testVerifier) clientID() string {
	return v.server.URL
}

func (v *testVerifier) responseURI() string {
	return v.server.URL + "/response"
}

// authorizationRequestURL returns a request passing the presentation definition by value.
func (v *testVerifier) authorizationRequestURL(definition string) string {
	query := url.Values{}
	query.Set("client_id", v.clientID())
	query.Set("response_type", "vp_token")
	query.Set("response_mode", "direct_post")
	query.Set("response_uri", v.responseURI())
	query.Set("nonce", testNonce)
	query.Set("state", testState)
	query.Set("presentation_definition", definition)
	return "openid4vp://authorize?" + query.Encode()
}

// requestObjectClaims returns the claims of a request object for the given presentation definition.
func (v *testVerifier) requestObjectClaims(definition string) []byte {
	data, _ := json.Marshal(map[string]interface{}{
		"client_id":               v.clientID(),
		"response_type":           "vp_token",
		"response_mode":           "direct_post",
		"response_uri":            v.responseURI(),
		"nonce":                   "object-nonce",
		"state":                   "object-state",
		"presentation_definition": json.RawMessage(definition),
	})
	return data
}

func (v *testVerifier) signRequestObject(t *testing.T, signer pki.IssuerPKI, definition string) {
	v.requestObject = signer.SignJWS(t, map[string]interface{}{"typ": "oauth-authz-req+jwt"}, v.requestObjectClaims(definition))
}

func (v *testVerifier) unsignedRequestObject(definition string) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"oauth-authz-req+jwt"}`))
	v.requestObject = header + "." + base64.RawURLEncoding.EncodeToString(v.requestObjectClaims(definition)) + "."
}

func (v *testVerifier) requestURIURL() string {
	return "openid4vp://authorize?client_id=" + url.QueryEscape(v.clientID()) + "&request_uri=" + url.QueryEscape(v.server.URL+"/request")
}

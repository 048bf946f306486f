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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/nuts-foundation/nuts-wallet/auth/oauth"
	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/nuts-foundation/nuts-wallet/crypto"
	"github.com/nuts-foundation/nuts-wallet/vcr/credential"
	"github.com/nuts-foundation/nuts-wallet/vcr/log"
	"github.com/nuts-foundation/nuts-wallet/vcr/pe"
)

const (
	contentTypeForm          = "application/x-www-form-urlencoded"
	contentTypeJSON          = "application/json"
	contentTypeRequestObject = "application/oauth-authz-req+jwt"
)

// authorizationRequest contains the parameters of an authorization request, passed either as query parameters
// or as claims of a request object.
type authorizationRequest struct {
	ClientID                  string          `json:"client_id"`
	ResponseMode              string          `json:"response_mode,omitempty"`
	ResponseURI               string          `json:"response_uri,omitempty"`
	RedirectURI               string          `json:"redirect_uri,omitempty"`
	Nonce                     string          `json:"nonce"`
	State                     string          `json:"state,omitempty"`
	PresentationDefinition    json.RawMessage `json:"presentation_definition,omitempty"`
	PresentationDefinitionURI string          `json:"presentation_definition_uri,omitempty"`
	ClientMetadata            *ClientMetadata `json:"client_metadata,omitempty"`
}

// responseURI returns the URI the authorization response is posted to: response_uri, or redirect_uri if absent.
func (r authorizationRequest) responseURI() string {
	if r.ResponseURI != "" {
		return r.ResponseURI
	}
	return r.RedirectURI
}

func requestFromQuery(query url.Values) (*authorizationRequest, error) {
	result := &authorizationRequest{
		ClientID:                  query.Get(oauth.ClientIDParam),
		ResponseMode:              query.Get(oauth.ResponseModeParam),
		ResponseURI:               query.Get(oauth.ResponseURIParam),
		RedirectURI:               query.Get(oauth.RedirectURIParam),
		Nonce:                     query.Get(oauth.NonceParam),
		State:                     query.Get(oauth.StateParam),
		PresentationDefinitionURI: query.Get(oauth.PresentationDefUriParam),
	}
	if raw := query.Get(oauth.PresentationDefParam); raw != "" {
		result.PresentationDefinition = json.RawMessage(raw)
	}
	if raw := query.Get(oauth.ClientMetadataParam); raw != "" {
		result.ClientMetadata = &ClientMetadata{}
		if err := json.Unmarshal([]byte(raw), result.ClientMetadata); err != nil {
			return nil, fmt.Errorf("%w: invalid %s: %w", ErrUnsupportedRequest, oauth.ClientMetadataParam, err)
		}
	}
	return result, nil
}

// readAuthorizationRequest resolves the authorization request and its presentation definition.
// When the request is passed by reference (request_uri), the request object replaces the query parameters.
func (r *RelyingParty) readAuthorizationRequest(ctx context.Context, requestURL string) (*authorizationRequest, *pe.PresentationDefinition, error) {
	parsed, err := url.Parse(requestURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid authorization request URL: %w", ErrUnsupportedRequest, err)
	}
	query := parsed.Query()
	request, err := requestFromQuery(query)
	if err != nil {
		return nil, nil, err
	}
	if requestURI := query.Get(oauth.RequestURIParam); requestURI != "" {
		requestObject, err := r.fetchRequestObject(ctx, requestURI)
		if err != nil {
			return nil, nil, err
		}
		if request.ClientID != "" && requestObject.ClientID != request.ClientID {
			return nil, nil, fmt.Errorf("%w: client_id of request object does not match (expected=%s, actual=%s)", ErrUnsupportedRequest, request.ClientID, requestObject.ClientID)
		}
		request = requestObject
	}
	if request.ResponseMode != "" && request.ResponseMode != oauth.DirectPostResponseMode {
		return nil, nil, fmt.Errorf("%w: unsupported response_mode: %s", ErrUnsupportedRequest, request.ResponseMode)
	}
	if request.ClientID == "" {
		return nil, nil, fmt.Errorf("%w: missing client_id", ErrUnsupportedRequest)
	}
	if request.responseURI() == "" {
		return nil, nil, fmt.Errorf("%w: missing response_uri", ErrUnsupportedRequest)
	}
	if request.Nonce == "" {
		return nil, nil, fmt.Errorf("%w: missing nonce", ErrUnsupportedRequest)
	}
	definition, err := r.presentationDefinition(ctx, *request)
	if err != nil {
		return nil, nil, err
	}
	return request, definition, nil
}

func (r *RelyingParty) presentationDefinition(ctx context.Context, request authorizationRequest) (*pe.PresentationDefinition, error) {
	raw := request.PresentationDefinition
	if len(raw) == 0 && request.PresentationDefinitionURI != "" {
		response, err := r.transport.Get(ctx, request.PresentationDefinitionURI, http.Header{"Accept": []string{contentTypeJSON}})
		if err == nil {
			err = response.Success()
		}
		if err != nil {
			return nil, fmt.Errorf("unable to fetch presentation definition: %w", err)
		}
		raw = response.Data
	}
	if len(raw) == 0 {
		return nil, ErrMissingPresentationDefinition
	}
	result, err := pe.ParsePresentationDefinition(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedRequest, err)
	}
	return result, nil
}

func (r *RelyingParty) fetchRequestObject(ctx context.Context, requestURI string) (*authorizationRequest, error) {
	response, err := r.transport.Get(ctx, requestURI, http.Header{"Accept": []string{contentTypeRequestObject}})
	if err == nil {
		err = response.Success()
	}
	if err != nil {
		return nil, fmt.Errorf("unable to fetch request object: %w", err)
	}
	payload, err := r.verifyRequestObject(bytes.TrimSpace(response.Data))
	if err != nil {
		return nil, err
	}
	var result authorizationRequest
	if err = json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("%w: invalid request object: %w", ErrUnsupportedRequest, err)
	}
	return &result, nil
}

// verifyRequestObject returns the payload of the request object after verifying its x5c signature against the trust anchors.
// Unverifiable (e.g. unsigned) request objects are only accepted when explicitly allowed.
func (r *RelyingParty) verifyRequestObject(token []byte) ([]byte, error) {
	payload, _, err := crypto.VerifyJWSWithX5C(token, r.trustStore, r.clock(), jwa.ES256)
	if err == nil {
		return payload, nil
	}
	if !r.allowUnsignedRequestObjects {
		return nil, fmt.Errorf("%w: unable to verify request object: %w", ErrUnsupportedRequest, err)
	}
	log.Logger().WithError(err).Warn("Request object can't be verified, using it anyway since unverified request objects are allowed")
	segments := strings.Split(string(token), ".")
	if len(segments) != 3 {
		return nil, fmt.Errorf("%w: request object is not a JWT", ErrUnsupportedRequest)
	}
	payload, err = jwt.NewParser().DecodeSegment(segments[1])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid request object: %w", ErrUnsupportedRequest, err)
	}
	return payload, nil
}

// warnOnUnsupportedFormats logs a warning when the verifier lists presentation formats, but none the wallet supports.
func warnOnUnsupportedFormats(request authorizationRequest) {
	if request.ClientMetadata == nil || len(request.ClientMetadata.VPFormats) == 0 {
		return
	}
	if len(credential.DefaultSupportedFormats().Match(request.ClientMetadata.VPFormats)) == 0 {
		log.Logger().
			WithField(core.LogFieldVerifier, request.ClientID).
			Warn("Verifier does not list a presentation format the wallet supports")
	}
}

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

// Package oauth contains the OAuth2, OpenID4VCI and OpenID4VP wire types and constants used by the wallet.
package oauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"

	"github.com/nuts-foundation/nuts-wallet/core"
)

// TokenResponse is the OAuth access token response.
// Through With() and Get() additional parameters (for OpenID4VCI, for instance) can be set and retrieved.
type TokenResponse struct {
	AccessToken string  `json:"access_token"`
	ExpiresIn   *int    `json:"expires_in,omitempty"`
	TokenType   string  `json:"token_type"`
	Scope       *string `json:"scope,omitempty"`

	additionalParams map[string]interface{}
}

var _ json.Unmarshaler = (*TokenResponse)(nil)
var _ json.Marshaler = (*TokenResponse)(nil)

func (t *TokenResponse) UnmarshalJSON(data []byte) error {
	type Alias TokenResponse
	var result Alias
	// base parameters
	if err := json.Unmarshal(data, &result); err != nil {
		return err
	}
	// extension parameters
	additionalParams := map[string]interface{}{}
	_ = json.Unmarshal(data, &additionalParams) // can't fail, already unmarshalled
	delete(additionalParams, "access_token")
	delete(additionalParams, "expires_in")
	delete(additionalParams, "token_type")
	delete(additionalParams, "scope")
	*t = TokenResponse(result)
	if len(additionalParams) > 0 {
		t.additionalParams = additionalParams
	}
	return nil
}

func (t TokenResponse) MarshalJSON() ([]byte, error) {
	result := make(map[string]interface{})
	for key, value := range t.additionalParams {
		result[key] = value
	}
	result["access_token"] = t.AccessToken
	result["expires_in"] = t.ExpiresIn
	result["token_type"] = t.TokenType
	result["scope"] = t.Scope

	return json.Marshal(result)
}

// With adds a parameter to the token response.
// It's a builder-style function.
// It should not be used to set any of the base parameters (access_token, expires_in, token_type, scope).
func (t *TokenResponse) With(key string, value interface{}) *TokenResponse {
	if t.additionalParams == nil {
		t.additionalParams = make(map[string]interface{})
	}
	t.additionalParams[key] = value
	return t
}

// Get returns the value of the additional parameter with the given key as a string.
// If the key does not exist or the value is not a string, it returns an empty string.
// It should not be used to get any of the base parameters (access_token, expires_in, token_type, scope).
func (t TokenResponse) Get(key string) string {
	if t.additionalParams == nil {
		return ""
	}
	if val, ok := t.additionalParams[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetInt returns the value of the additional parameter with the given key as an int, e.g. c_nonce_expires_in.
// If the key does not exist or the value is not a number, it returns 0.
func (t TokenResponse) GetInt(key string) int {
	if t.additionalParams == nil {
		return 0
	}
	switch val := t.additionalParams[key].(type) {
	case float64:
		return int(val)
	case int:
		return val
	}
	return 0
}

// metadata endpoints
const (
	// AuthzServerWellKnown is the well-known base path for the oauth authorization server metadata as defined in RFC8414
	AuthzServerWellKnown = "/.well-known/oauth-authorization-server"
	// OpenIdCredIssuerWellKnown is the well-known base path for the openID credential issuer metadata as defined in
	// OpenID4VCI specification
	OpenIdCredIssuerWellKnown = "/.well-known/openid-credential-issuer"
)

// oauth parameter keys
const (
	// ClientIDParam is the parameter name for the client_id parameter. (RFC6749)
	ClientIDParam = "client_id"
	// ClientIDSchemeParam is the parameter name for the client_id_scheme parameter. (OpenID4VP)
	ClientIDSchemeParam = "client_id_scheme"
	// ClientMetadataParam is the parameter name for the client_metadata parameter. (OpenID4VP)
	ClientMetadataParam = "client_metadata"
	// CNonceParam is the parameter name for the c_nonce parameter. (OpenID4VCI)
	CNonceParam = "c_nonce"
	// CNonceExpiresInParam is the parameter name for the c_nonce_expires_in parameter. (OpenID4VCI)
	CNonceExpiresInParam = "c_nonce_expires_in"
	// CodeParam is the parameter name for the code parameter. (RFC6749)
	CodeParam = CodeResponseType
	// CodeChallengeParam is the parameter name for the code_challenge parameter. (RFC7636)
	CodeChallengeParam = "code_challenge"
	// CodeChallengeMethodParam is the parameter name for the code_challenge_method parameter. (RFC7636)
	CodeChallengeMethodParam = "code_challenge_method"
	// CodeVerifierParam is the parameter name for the code_verifier parameter. (RFC7636)
	CodeVerifierParam = "code_verifier"
	// CredentialOfferParam is the parameter name for the credential_offer parameter. (OpenID4VCI)
	CredentialOfferParam = "credential_offer"
	// CredentialOfferURIParam is the parameter name for the credential_offer_uri parameter. (OpenID4VCI)
	CredentialOfferURIParam = "credential_offer_uri"
	// GrantTypeParam is the parameter name for the grant_type parameter. (RFC6749)
	GrantTypeParam = "grant_type"
	// NonceParam is the parameter name for the nonce parameter
	NonceParam = "nonce"
	// PresentationDefParam is the parameter name for the OpenID4VP presentation_definition parameter. (OpenID4VP)
	PresentationDefParam = "presentation_definition"
	// PresentationDefUriParam is the parameter name for the OpenID4VP presentation_definition_uri parameter. (OpenID4VP)
	PresentationDefUriParam = "presentation_definition_uri"
	// PresentationSubmissionParam is the parameter name for the presentation_submission parameter. (OpenID4VP)
	PresentationSubmissionParam = "presentation_submission"
	// RedirectURIParam is the parameter name for the redirect_uri parameter. (RFC6749)
	RedirectURIParam = "redirect_uri"
	// RequestURIParam is the parameter name for the request_uri parameter. (RFC9101, RFC9126)
	RequestURIParam = "request_uri"
	// ResponseModeParam is the parameter name for the OAuth2 response_mode parameter.
	ResponseModeParam = "response_mode"
	// ResponseTypeParam is the parameter name for the response_type parameter. (RFC6749)
	ResponseTypeParam = "response_type"
	// ResponseURIParam is the parameter name for the OpenID4VP response_uri parameter.
	ResponseURIParam = "response_uri"
	// ScopeParam is the parameter name for the scope parameter. (RFC6749)
	ScopeParam = "scope"
	// StateParam is the parameter name for the state parameter. (RFC6749)
	StateParam = "state"
	// VpTokenParam is the parameter name for the vp_token parameter. (OpenID4VP)
	VpTokenParam = "vp_token"
)

// grant types
const (
	// AuthorizationCodeGrantType is the grant_type for the authorization_code grant type. (RFC6749)
	AuthorizationCodeGrantType = "authorization_code"
	// PreAuthorizedCodeGrantType is the grant_type for the pre-authorized_code grant type. (OpenID4VCI)
	PreAuthorizedCodeGrantType = "urn:ietf:params:oauth:grant-type:pre-authorized_code"
)

// response types
const (
	// CodeResponseType is the parameter name for the code parameter. (RFC6749)
	CodeResponseType = "code"
	// VPTokenResponseType is the parameter name for the vp_token response type. (OpenID4VP)
	VPTokenResponseType = "vp_token"
)

// DirectPostResponseMode is the OpenID4VP response mode in which the wallet POSTs the authorization response to the response_uri.
const DirectPostResponseMode = "direct_post"

// token types
const (
	// DPoPTokenType is the token_type of a DPoP bound access token (RFC9449)
	DPoPTokenType = "DPoP"
)

// credential formats
const (
	// SDJWTVCFormat is the format identifier of an SD-JWT VC.
	SDJWTVCFormat = "vc+sd-jwt"
	// DCSDJWTFormat is the newer format identifier of an SD-JWT VC.
	DCSDJWTFormat = "dc+sd-jwt"
	// MsoMdocFormat is the format identifier of an ISO 18013-5 mobile document.
	MsoMdocFormat = "mso_mdoc"
	// JWTVCJSONFormat is the format identifier of a W3C VC signed as JWT.
	JWTVCJSONFormat = "jwt_vc_json"
	// JWTVCFormat is the legacy format identifier of a W3C VC signed as JWT.
	JWTVCFormat = "jwt_vc"
)

// IsSDJWTFormat returns true for both SD-JWT VC format identifiers.
func IsSDJWTFormat(format string) bool {
	return format == SDJWTVCFormat || format == DCSDJWTFormat
}

// ProofTypeJWT is the only supported proof type for credential requests.
const ProofTypeJWT = "jwt"

// IssuerIdToWellKnown converts the OAuth2 Issuer identity to the specified well-known endpoint by inserting the well-known at the root of the path.
// It returns no url and an error when issuer is not a valid URL.
func IssuerIdToWellKnown(issuer string, wellKnown string, strictmode bool) (*url.URL, error) {
	issuerURL, err := core.ParsePublicURL(issuer, strictmode)
	if err != nil {
		return nil, err
	}
	return issuerURL.Parse(wellKnown + issuerURL.EscapedPath())
}

// AuthorizationServerMetadata defines the OAuth Authorization Server metadata.
// Specified by https://www.rfc-editor.org/rfc/rfc8414.txt
type AuthorizationServerMetadata struct {
	// Issuer defines the authorization server's identifier, which is a URL that uses the "https" scheme and has no query or fragment components.
	Issuer string `json:"issuer,omitempty"`

	// AuthorizationEndpoint defines the URL of the authorization server's authorization endpoint [RFC6749]
	AuthorizationEndpoint string `json:"authorization_endpoint,omitempty"`

	// PushedAuthorizationRequestEndpoint is the URL of the PAR endpoint [RFC9126]
	PushedAuthorizationRequestEndpoint string `json:"pushed_authorization_request_endpoint,omitempty"`

	// RequirePushedAuthorizationRequests indicates the authorization server only accepts authorization requests via PAR.
	RequirePushedAuthorizationRequests bool `json:"require_pushed_authorization_requests,omitempty"`

	// ResponseTypesSupported defines what response types a client can request
	ResponseTypesSupported []string `json:"response_types_supported,omitempty"`

	// CodeChallengeMethodsSupported lists the PKCE code challenge methods supported by the authorization server.
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported,omitempty"`

	// TokenEndpoint defines the URL of the authorization server's token endpoint [RFC6749].
	TokenEndpoint string `json:"token_endpoint,omitempty"`

	// GrantTypesSupported is a list of the OAuth 2.0 grant type values that this authorization server supports.
	GrantTypesSupported []string `json:"grant_types_supported,omitempty"`

	// DPoPSigningAlgValuesSupported is a JSON array containing a list of the DPoP proof JWS signing algorithms ("alg" values) supported by the token endpoint.
	DPoPSigningAlgValuesSupported []string `json:"dpop_signing_alg_values_supported,omitempty"`
}

// Validate checks that the endpoints required for an authorization code flow with PAR are present.
func (m AuthorizationServerMetadata) Validate() error {
	if m.AuthorizationEndpoint == "" {
		return errors.New("missing authorization_endpoint")
	}
	if m.PushedAuthorizationRequestEndpoint == "" {
		return errors.New("missing pushed_authorization_request_endpoint")
	}
	if m.TokenEndpoint == "" {
		return errors.New("missing token_endpoint")
	}
	if len(m.CodeChallengeMethodsSupported) > 0 && !slices.Contains(m.CodeChallengeMethodsSupported, "S256") {
		return errors.New("code challenge method S256 not supported")
	}
	return nil
}

// Redirect is the response from the verifier on the direct_post authorization response.
type Redirect struct {
	// RedirectURI is the URI to redirect the user-agent to.
	RedirectURI string `json:"redirect_uri"`
}

// OpenIDCredentialIssuerMetadata represents the metadata of an OpenID credential issuer
type OpenIDCredentialIssuerMetadata struct {
	// - CredentialIssuer: an url representing the credential issuer
	CredentialIssuer string `json:"credential_issuer"`
	// - CredentialEndpoint: an url representing the credential endpoint
	CredentialEndpoint string `json:"credential_endpoint"`
	// - AuthorizationServers: a slice of urls representing the authorization servers (optional)
	AuthorizationServers []string `json:"authorization_servers,omitempty"`
	// - Display: a slice of maps where each map represents the display information (optional)
	Display []map[string]any `json:"display,omitempty"`
	// - CredentialConfigurationsSupported: the credentials the issuer offers, by configuration ID
	CredentialConfigurationsSupported map[string]CredentialConfiguration `json:"credential_configurations_supported,omitempty"`
}

// ProofTypeMetadata describes the signing algorithms supported for one proof type.
type ProofTypeMetadata struct {
	ProofSigningAlgValuesSupported []string `json:"proof_signing_alg_values_supported"`
}

// CredentialConfiguration describes one credential an issuer offers, as listed in credential_configurations_supported.
type CredentialConfiguration struct {
	Format                               string                       `json:"format"`
	Scope                                string                       `json:"scope,omitempty"`
	VCT                                  string                       `json:"vct,omitempty"`
	Doctype                              string                       `json:"doctype,omitempty"`
	CryptographicBindingMethodsSupported []string                     `json:"cryptographic_binding_methods_supported,omitempty"`
	CredentialSigningAlgValuesSupported  []string                     `json:"credential_signing_alg_values_supported,omitempty"`
	ProofTypesSupported                  map[string]ProofTypeMetadata `json:"proof_types_supported,omitempty"`
	Display                              []map[string]any             `json:"display,omitempty"`
}

// Validate checks the format specific type identifier is present.
func (c CredentialConfiguration) Validate() error {
	switch {
	case IsSDJWTFormat(c.Format):
		if c.VCT == "" {
			return fmt.Errorf("credential configuration of format %s requires vct", c.Format)
		}
	case c.Format == MsoMdocFormat:
		if c.Doctype == "" {
			return fmt.Errorf("credential configuration of format %s requires doctype", c.Format)
		}
	default:
		return fmt.Errorf("unsupported credential format: %s", c.Format)
	}
	return nil
}

// Matches returns true when both configurations request the same credential.
func (c CredentialConfiguration) Matches(other CredentialConfiguration) bool {
	return c.Format == other.Format && c.Scope == other.Scope && c.VCT == other.VCT && c.Doctype == other.Doctype
}

// CredentialOffer is the credential offer sent by an issuer to the wallet (OpenID4VCI §4.1).
type CredentialOffer struct {
	CredentialIssuer           string                    `json:"credential_issuer"`
	CredentialConfigurationIDs []string                  `json:"credential_configuration_ids"`
	Grants                     map[string]map[string]any `json:"grants,omitempty"`
}

// PushedAuthorizationResponse is the response of the PAR endpoint (RFC9126 §2.2).
type PushedAuthorizationResponse struct {
	RequestURI string `json:"request_uri"`
	ExpiresIn  int    `json:"expires_in"`
}

// CredentialRequestProof is the holder binding proof of a credential request.
type CredentialRequestProof struct {
	ProofType string `json:"proof_type"`
	JWT       string `json:"jwt"`
}

// CredentialRequest is the body of a request to the credential endpoint.
type CredentialRequest struct {
	Format  string                  `json:"format"`
	VCT     string                  `json:"vct,omitempty"`
	Doctype string                  `json:"doctype,omitempty"`
	Proof   *CredentialRequestProof `json:"proof,omitempty"`
}

// CredentialResponse is the response of the credential endpoint.
type CredentialResponse struct {
	Credential      string `json:"credential"`
	CNonce          string `json:"c_nonce,omitempty"`
	CNonceExpiresIn int    `json:"c_nonce_expires_in,omitempty"`
}

// ErrorCode specifies error codes as defined by the OAuth2 and DPoP specifications.
type ErrorCode string

const (
	// InvalidRequest is returned when the request is missing a required parameter or is otherwise malformed.
	InvalidRequest ErrorCode = "invalid_request"
	// InvalidGrant is returned when the authorization code or verifier is invalid.
	InvalidGrant ErrorCode = "invalid_grant"
	// InvalidToken is returned when the access token is invalid or expired.
	InvalidToken ErrorCode = "invalid_token"
	// InvalidProof is returned when the holder binding proof is invalid.
	InvalidProof ErrorCode = "invalid_proof"
	// InvalidDPoPProof is returned when the DPoP proof is invalid.
	InvalidDPoPProof ErrorCode = "invalid_dpop_proof"
	// UseDPoPNonce is returned when the server requires a (fresh) DPoP nonce in the proof.
	UseDPoPNonce ErrorCode = "use_dpop_nonce"
)

// OAuth2Error is an error response as returned by OAuth2 endpoints.
type OAuth2Error struct {
	Code        ErrorCode `json:"error"`
	Description string    `json:"error_description,omitempty"`
}

// Error returns the error code, followed by the description if present.
func (e OAuth2Error) Error() string {
	if e.Description == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s - %s", e.Code, e.Description)
}

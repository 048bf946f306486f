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
	"context"
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/nuts-foundation/nuts-wallet/audit"
	"github.com/nuts-foundation/nuts-wallet/auth/oauth"
	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/nuts-foundation/nuts-wallet/crypto"
	"github.com/nuts-foundation/nuts-wallet/crypto/dpop"
	nutsHttp "github.com/nuts-foundation/nuts-wallet/http"
	"github.com/nuts-foundation/nuts-wallet/vcr/credential"
	"github.com/nuts-foundation/nuts-wallet/vcr/log"
)

// maxDPoPNonceAttempts is the maximum number of token requests per authorization response:
// the initial request and one retry with the nonce provided by the authorization server.
const maxDPoPNonceAttempts = 2

const (
	contentTypeForm = "application/x-www-form-urlencoded"
	contentTypeJSON = "application/json"
)

// NewClient creates an issuance client for the issuer described by the given configuration.
func NewClient(config ClientConfig, states *StateStore, transport nutsHttp.Transport, parser credential.Parser, credentials credential.Store, keys HolderKeys) *Client {
	return &Client{
		config:      config,
		states:      states,
		transport:   transport,
		parser:      parser,
		credentials: credentials,
		keys:        keys,
		clock:       time.Now,
	}
}

// Client obtains credentials from one credential issuer using the OpenID4VCI authorization code flow,
// with PAR, PKCE and DPoP bound access tokens.
type Client struct {
	config      ClientConfig
	states      *StateStore
	transport   nutsHttp.Transport
	parser      credential.Parser
	credentials credential.Store
	keys        HolderKeys
	clock       func() time.Time
}

// IssuerID returns the credential issuer identifier of the issuer this client talks to.
func (c *Client) IssuerID() string {
	return c.config.CredentialIssuerIdentifier
}

// Config returns the resolved configuration of the client.
func (c *Client) Config() ClientConfig {
	return c.config
}

// AvailableCredentialConfigurations returns the credential configurations the issuer supports, by configuration ID.
func (c *Client) AvailableCredentialConfigurations() (map[string]oauth.CredentialConfiguration, error) {
	configurations := c.config.CredentialIssuerMetadata.CredentialConfigurationsSupported
	if len(configurations) == 0 {
		return nil, fmt.Errorf("%w: issuer metadata does not contain credential_configurations_supported (issuer=%s)", ErrConfiguration, c.IssuerID())
	}
	return maps.Clone(configurations), nil
}

// HandleCredentialOffer processes a credential offer URL and selects the first offered credential configuration.
// The offer is either passed by value (credential_offer) or by reference (credential_offer_uri).
func (c *Client) HandleCredentialOffer(ctx context.Context, offerURL string) (*OfferResult, error) {
	offer, err := ParseCredentialOffer(ctx, c.transport, offerURL)
	if err != nil {
		return nil, err
	}
	if !sameIdentifier(offer.CredentialIssuer, c.IssuerID()) {
		return nil, fmt.Errorf("%w: credential offer is for another issuer (issuer=%s)", ErrUnsupportedRequest, offer.CredentialIssuer)
	}
	if _, ok := offer.Grants[oauth.AuthorizationCodeGrantType]; !ok {
		return nil, fmt.Errorf("%w: credential offer does not contain an %s grant", ErrUnsupportedRequest, oauth.AuthorizationCodeGrantType)
	}
	if len(offer.CredentialConfigurationIDs) == 0 {
		return nil, fmt.Errorf("%w: credential offer does not contain credential configurations", ErrUnsupportedRequest)
	}
	configurations, err := c.AvailableCredentialConfigurations()
	if err != nil {
		return nil, err
	}
	configurationID := offer.CredentialConfigurationIDs[0]
	configuration, ok := configurations[configurationID]
	if !ok {
		return nil, fmt.Errorf("%w: offered credential configuration not found in issuer metadata (id=%s)", ErrConfiguration, configurationID)
	}
	return &OfferResult{
		IssuerID:            offer.CredentialIssuer,
		ConfigurationID:     configurationID,
		Configuration:       configuration,
		AllConfigurationIDs: offer.CredentialConfigurationIDs,
	}, nil
}

// ParseCredentialOffer reads the credential offer from the given offer URL, fetching it if it's passed by reference.
func ParseCredentialOffer(ctx context.Context, transport nutsHttp.Transport, offerURL string) (*oauth.CredentialOffer, error) {
	parsed, err := url.Parse(offerURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid credential offer URL: %w", ErrUnsupportedRequest, err)
	}
	query := parsed.Query()
	offer := oauth.CredentialOffer{}
	switch {
	case query.Has(oauth.CredentialOfferParam):
		if err = json.Unmarshal([]byte(query.Get(oauth.CredentialOfferParam)), &offer); err != nil {
			return nil, fmt.Errorf("%w: invalid credential offer: %w", ErrUnsupportedRequest, err)
		}
	case query.Has(oauth.CredentialOfferURIParam):
		if err = httpGet(ctx, transport, query.Get(oauth.CredentialOfferURIParam), &offer); err != nil {
			return nil, fmt.Errorf("unable to retrieve credential offer: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: URL does not contain %s or %s", ErrUnsupportedRequest, oauth.CredentialOfferParam, oauth.CredentialOfferURIParam)
	}
	if offer.CredentialIssuer == "" {
		return nil, fmt.Errorf("%w: credential offer does not contain credential_issuer", ErrUnsupportedRequest)
	}
	return &offer, nil
}

// GenerateAuthorizationRequest pushes an authorization request for the given credential configuration to the
// authorization server (PAR) and returns the URL the user-agent must be redirected to.
// The user handle is encoded in the state, when empty the handle of the holder keys is used.
func (c *Client) GenerateAuthorizationRequest(ctx context.Context, configuration oauth.CredentialConfiguration, userHandle string) (*AuthorizationRequest, error) {
	var err error
	if userHandle == "" {
		if userHandle, err = c.keys.UserHandle(ctx); err != nil {
			return nil, fmt.Errorf("unable to resolve user handle: %w", err)
		}
	}
	pkceParams := crypto.GeneratePKCEParams()
	state := newState(userHandle)

	form := url.Values{}
	form.Set(oauth.ScopeParam, configuration.Scope)
	form.Set(oauth.ResponseTypeParam, oauth.CodeResponseType)
	form.Set(oauth.ClientIDParam, c.config.ClientID)
	form.Set(oauth.CodeChallengeParam, pkceParams.Challenge)
	form.Set(oauth.CodeChallengeMethodParam, pkceParams.ChallengeMethod)
	form.Set(oauth.StateParam, state)
	if c.config.RedirectURI != "" {
		form.Set(oauth.RedirectURIParam, c.config.RedirectURI)
	}
	headers := http.Header{}
	headers.Set("Content-Type", contentTypeForm)
	response, err := c.transport.Post(ctx, c.config.AuthorizationServerMetadata.PushedAuthorizationRequestEndpoint, []byte(form.Encode()), headers)
	if err != nil {
		return nil, fmt.Errorf("pushed authorization request failed: %w", err)
	}
	if err = response.Success(); err != nil {
		return nil, fmt.Errorf("pushed authorization request failed: %w", err)
	}
	var parResponse oauth.PushedAuthorizationResponse
	if err = response.Unmarshal(&parResponse); err != nil {
		return nil, fmt.Errorf("pushed authorization request failed: %w", err)
	}
	if parResponse.RequestURI == "" {
		return nil, errors.New("pushed authorization request failed: response does not contain request_uri")
	}

	flow := FlowState{
		ID:                    state,
		UserHandle:            userHandle,
		CodeVerifier:          pkceParams.Verifier,
		SelectedConfiguration: configuration,
	}
	if err = c.states.Store(state, flow); err != nil {
		return nil, err
	}
	authorizationEndpoint := c.config.AuthorizationServerMetadata.AuthorizationEndpoint
	separator := "?"
	if strings.Contains(authorizationEndpoint, "?") {
		separator = "&"
	}
	return &AuthorizationRequest{
		URL: authorizationEndpoint + separator +
			oauth.RequestURIParam + "=" + url.QueryEscape(parResponse.RequestURI) + "&" +
			oauth.ClientIDParam + "=" + url.QueryEscape(c.config.ClientID),
		ClientID:   c.config.ClientID,
		RequestURI: parResponse.RequestURI,
		State:      state,
	}, nil
}

// HandleAuthorizationResponse exchanges the authorization code of the redirect URL for a DPoP bound access token,
// and then requests the credential selected when the flow was started.
// dpopNonce is the nonce the authorization server provided earlier, if any.
func (c *Client) HandleAuthorizationResponse(ctx context.Context, redirectURL string, dpopNonce string) (*credential.StorableCredential, error) {
	parsed, err := url.Parse(redirectURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid authorization response URL: %w", ErrUnsupportedRequest, err)
	}
	query := parsed.Query()
	if errorCode := query.Get("error"); errorCode != "" {
		return nil, fmt.Errorf("%w: authorization server returned error: %s (%s)", ErrUnsupportedRequest, errorCode, query.Get("error_description"))
	}
	code := query.Get(oauth.CodeParam)
	state := query.Get(oauth.StateParam)
	if code == "" || state == "" {
		return nil, fmt.Errorf("%w: authorization response does not contain code and state", ErrUnsupportedRequest)
	}
	flow, err := c.states.Retrieve(state)
	if err != nil {
		return nil, err
	}

	dpopKey, err := crypto.GenerateEphemeralKey()
	if err != nil {
		return nil, err
	}
	tokenResponse, latestNonce, err := c.requestAccessToken(ctx, dpopKey, code, flow.CodeVerifier, dpopNonce)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(tokenResponse.TokenType, oauth.DPoPTokenType) {
		log.Logger().
			WithField(core.LogFieldCredentialIssuer, c.IssuerID()).
			Warnf("Authorization server issued a %s access token instead of a DPoP bound one", tokenResponse.TokenType)
	}
	flow.DPoPPrivateKeyJWK, flow.DPoPPublicKeyJWK, err = crypto.MarshalKeyPair(dpopKey)
	if err != nil {
		return nil, err
	}
	now := c.clock()
	flow.DPoPNonce = latestNonce
	flow.AccessToken = tokenResponse.AccessToken
	flow.AccessTokenReceivalDate = &now
	flow.ExpiresIn = 0
	if tokenResponse.ExpiresIn != nil {
		flow.ExpiresIn = *tokenResponse.ExpiresIn
	}
	flow.CNonce = tokenResponse.Get(oauth.CNonceParam)
	flow.CNonceReceivalDate = &now
	flow.CNonceExpiresIn = tokenResponse.GetInt(oauth.CNonceExpiresInParam)
	if err = c.states.Store(flow.ID, *flow); err != nil {
		return nil, err
	}
	return c.credentialRequest(ctx, flow)
}

// nonceRequiredError signals the authorization server rejected the DPoP proof because it lacks a (fresh) nonce.
type nonceRequiredError struct {
	statusCode int
}

func (e nonceRequiredError) Error() string {
	return fmt.Sprintf("authorization server requires a DPoP nonce (status=%d)", e.statusCode)
}

// requestAccessToken performs the token request, renegotiating the DPoP nonce at most once.
// It returns the token response and the latest DPoP nonce provided by the authorization server.
func (c *Client) requestAccessToken(ctx context.Context, dpopKey *ecdsa.PrivateKey, code string, codeVerifier string, nonce string) (*oauth.TokenResponse, string, error) {
	tokenEndpoint := c.config.AuthorizationServerMetadata.TokenEndpoint
	form := url.Values{}
	form.Set(oauth.GrantTypeParam, oauth.AuthorizationCodeGrantType)
	form.Set(oauth.CodeParam, code)
	form.Set(oauth.CodeVerifierParam, codeVerifier)
	form.Set(oauth.ClientIDParam, c.config.ClientID)
	if c.config.RedirectURI != "" {
		form.Set(oauth.RedirectURIParam, c.config.RedirectURI)
	}
	attempt := 0
	tokenResponse, err := retry.DoWithData(func() (*oauth.TokenResponse, error) {
		attempt++
		if attempt > 1 {
			tokenNonceRetriesCounter.Inc()
			log.Logger().
				WithField(core.LogFieldCredentialIssuer, c.IssuerID()).
				Debug("Retrying token request with DPoP nonce of the authorization server")
		}
		proof, err := dpop.New(http.MethodPost, tokenEndpoint).WithNonce(nonce).Sign(dpopKey)
		if err != nil {
			return nil, err
		}
		headers := http.Header{}
		headers.Set("Content-Type", contentTypeForm)
		headers.Set("DPoP", proof)
		response, err := c.transport.Post(ctx, tokenEndpoint, []byte(form.Encode()), headers)
		if err != nil {
			return nil, err
		}
		if serverNonce := response.Headers.Get(dpop.NonceHeader); serverNonce != "" {
			nonce = serverNonce
			if requiresDPoPNonce(response) {
				return nil, nonceRequiredError{statusCode: response.Status}
			}
		}
		if err = response.Success(); err != nil {
			return nil, err
		}
		var result oauth.TokenResponse
		if err = response.Unmarshal(&result); err != nil {
			return nil, err
		}
		if result.AccessToken == "" {
			return nil, errors.New("token response does not contain an access_token")
		}
		return &result, nil
	},
		retry.Attempts(maxDPoPNonceAttempts),
		retry.Context(ctx),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.As(err, new(nonceRequiredError))
		}),
	)
	if err != nil {
		return nil, "", fmt.Errorf("token request failed: %w", err)
	}
	return tokenResponse, nonce, nil
}

// requiresDPoPNonce returns true if the response is a use_dpop_nonce rejection of the token endpoint.
func requiresDPoPNonce(response *nutsHttp.Response) bool {
	if response.Status != http.StatusBadRequest && response.Status != http.StatusUnauthorized {
		return false
	}
	if strings.Contains(response.Headers.Get("WWW-Authenticate"), dpop.UseNonceError) {
		return true
	}
	var oauthError oauth.OAuth2Error
	if err := json.Unmarshal(response.Data, &oauthError); err != nil {
		return false
	}
	return string(oauthError.Code) == dpop.UseNonceError
}

// credentialRequest requests the credential of an authorized flow and stores it when it's valid.
// Failures are not retried.
func (c *Client) credentialRequest(ctx context.Context, flow *FlowState) (*credential.StorableCredential, error) {
	format := flow.SelectedConfiguration.Format
	result, err := c.doCredentialRequest(ctx, flow)
	if err != nil {
		credentialRequestsCounter.WithLabelValues(format, resultFailure).Inc()
		log.Logger().
			WithError(err).
			WithField(core.LogFieldCredentialIssuer, c.IssuerID()).
			WithField(core.LogFieldFlowID, flow.ID).
			WithField(core.LogFieldCredentialFormat, format).
			Warn("Credential request failed")
		return nil, fmt.Errorf("%w: %w", ErrCredentialIssuance, err)
	}
	credentialRequestsCounter.WithLabelValues(format, resultSuccess).Inc()
	auditCtx := audit.ContextOrDefault(ctx, flow.UserHandle, "VCR", "openid4vci")
	audit.Log(auditCtx, log.Logger().
		WithField(core.LogFieldCredentialIssuer, c.IssuerID()).
		WithField(core.LogFieldCredentialID, result.ID).
		WithField(core.LogFieldCredentialFormat, format), audit.CredentialIssuedEvent).
		Info("Credential received and stored")
	return result, nil
}

func (c *Client) doCredentialRequest(ctx context.Context, flow *FlowState) (*credential.StorableCredential, error) {
	if !flow.Authorized() {
		return nil, ErrFlowState
	}
	dpopKey, err := crypto.UnmarshalPrivateKey(flow.DPoPPrivateKeyJWK)
	if err != nil {
		return nil, err
	}
	configuration := flow.SelectedConfiguration
	credentialEndpoint := c.config.CredentialIssuerMetadata.CredentialEndpoint
	dpopProof, err := dpop.New(http.MethodPost, credentialEndpoint).
		BindAccessToken(flow.AccessToken).
		WithNonce(flow.DPoPNonce).
		Sign(dpopKey)
	if err != nil {
		return nil, err
	}
	holderProof, err := c.keys.GenerateProof(ctx, flow.CNonce, c.IssuerID(), c.config.ClientID)
	if err != nil {
		return nil, fmt.Errorf("unable to create proof: %w", err)
	}
	request := oauth.CredentialRequest{
		Format: configuration.Format,
		Proof: &oauth.CredentialRequestProof{
			ProofType: oauth.ProofTypeJWT,
			JWT:       holderProof,
		},
	}
	switch {
	case oauth.IsSDJWTFormat(configuration.Format):
		request.VCT = configuration.VCT
	case configuration.Format == oauth.MsoMdocFormat:
		request.Doctype = configuration.Doctype
	}
	requestBody, _ := json.Marshal(request)
	headers := http.Header{}
	headers.Set("Content-Type", contentTypeJSON)
	headers.Set("Authorization", oauth.DPoPTokenType+" "+flow.AccessToken)
	headers.Set("DPoP", dpopProof)
	response, err := c.transport.Post(ctx, credentialEndpoint, requestBody, headers)
	if err != nil {
		return nil, err
	}
	if nonce := response.Headers.Get(dpop.NonceHeader); nonce != "" {
		flow.DPoPNonce = nonce
	}
	if err = response.Success(); err != nil {
		if storeErr := c.states.Store(flow.ID, *flow); storeErr != nil {
			log.Logger().WithError(storeErr).Warn("Unable to store rotated DPoP nonce")
		}
		return nil, err
	}
	var credentialResponse oauth.CredentialResponse
	if err = response.Unmarshal(&credentialResponse); err != nil {
		return nil, err
	}
	if credentialResponse.CNonce != "" {
		now := c.clock()
		flow.CNonce = credentialResponse.CNonce
		flow.CNonceReceivalDate = &now
		flow.CNonceExpiresIn = credentialResponse.CNonceExpiresIn
	}
	if err = c.states.Store(flow.ID, *flow); err != nil {
		return nil, err
	}
	if credentialResponse.Credential == "" {
		return nil, errors.New("credential response does not contain a credential")
	}
	storable := credential.StorableCredential{
		ID:         uuid.NewString(),
		Credential: credentialResponse.Credential,
		Format:     configuration.Format,
		VCT:        request.VCT,
		Doctype:    request.Doctype,
	}
	if _, err = c.parser.Parse(ctx, storable, true); err != nil {
		return nil, err
	}
	if err = c.credentials.Store(ctx, storable); err != nil {
		return nil, fmt.Errorf("unable to store credential: %w", err)
	}
	return &storable, nil
}

// AttemptMemorizedCredentialRequest requests the given credential configuration again for every authorized
// flow that has not expired yet. It succeeds if at least one of the flows yields a credential.
func (c *Client) AttemptMemorizedCredentialRequest(ctx context.Context, configuration oauth.CredentialConfiguration) ([]credential.StorableCredential, error) {
	states, err := c.states.GetAllStates()
	if err != nil {
		return nil, err
	}
	var result []credential.StorableCredential
	var errs *multierror.Error
	for i := range states {
		flow := states[i]
		if !flow.Authorized() || !flow.SelectedConfiguration.Matches(configuration) {
			continue
		}
		issued, err := c.credentialRequest(ctx, &flow)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		result = append(result, *issued)
	}
	if len(result) > 0 {
		return result, nil
	}
	if errs == nil {
		return nil, fmt.Errorf("%w: no authorized issuance for credential configuration", ErrFlowState)
	}
	return nil, errs
}

// newState creates an unguessable state parameter that carries the user handle.
func newState(userHandle string) string {
	data, _ := json.Marshal(struct {
		UserHandle string `json:"userHandle,omitempty"`
		Nonce      string `json:"nonce"`
	}{
		UserHandle: userHandle,
		Nonce:      crypto.GenerateNonce(),
	})
	return base64.RawURLEncoding.EncodeToString(data)
}

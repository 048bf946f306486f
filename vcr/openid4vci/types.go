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
	"time"

	"github.com/nuts-foundation/nuts-wallet/auth/oauth"
)

// IssuerConfig is an entry of the configured issuer trust list.
type IssuerConfig struct {
	// CredentialIssuerIdentifier is the URL of the credential issuer, used to resolve its metadata.
	CredentialIssuerIdentifier string `koanf:"credential_issuer_identifier" json:"credential_issuer_identifier" yaml:"credential_issuer_identifier"`
	// ClientID is the client ID the wallet is registered with at the issuer's authorization server.
	ClientID string `koanf:"client_id" json:"client_id" yaml:"client_id"`
}

// ClientConfig contains everything an issuance client needs to know about one issuer.
// It's resolved once at startup and not modified afterwards.
type ClientConfig struct {
	ClientID                    string
	CredentialIssuerIdentifier  string
	RedirectURI                 string
	CredentialIssuerMetadata    oauth.OpenIDCredentialIssuerMetadata
	AuthorizationServerMetadata oauth.AuthorizationServerMetadata
}

// FlowState is the persisted state of one issuance flow, surviving the browser redirect to the authorization server.
type FlowState struct {
	ID                    string                        `json:"id"`
	UserHandle            string                        `json:"user_handle,omitempty"`
	CodeVerifier          string                        `json:"code_verifier"`
	SelectedConfiguration oauth.CredentialConfiguration `json:"selectedCredentialConfiguration"`

	DPoPPrivateKeyJWK json.RawMessage `json:"dpopPrivateKeyJwk,omitempty"`
	DPoPPublicKeyJWK  json.RawMessage `json:"dpopPublicKeyJwk,omitempty"`
	DPoPNonce         string          `json:"dpopNonce,omitempty"`

	AccessTokenReceivalDate *time.Time `json:"access_token_receival_date,omitempty"`
	AccessToken             string     `json:"access_token,omitempty"`
	// ExpiresIn is the lifetime of the access token in seconds. Zero means the issuer did not specify it.
	ExpiresIn          int        `json:"expires_in,omitempty"`
	CNonceReceivalDate *time.Time `json:"c_nonce_receival_date,omitempty"`
	CNonce             string     `json:"c_nonce,omitempty"`
	// CNonceExpiresIn is the lifetime of the c_nonce in seconds. Zero means the issuer did not specify it.
	CNonceExpiresIn int `json:"c_nonce_expires_in,omitempty"`
}

// Expired returns true when either the access token or the c_nonce has expired at the given moment.
// Windows that are unknown (no receival date or lifetime) never expire.
func (f FlowState) Expired(now time.Time) bool {
	return windowElapsed(f.AccessTokenReceivalDate, f.ExpiresIn, now) || windowElapsed(f.CNonceReceivalDate, f.CNonceExpiresIn, now)
}

// Authorized returns true when the flow has obtained an access token.
func (f FlowState) Authorized() bool {
	return f.AccessToken != ""
}

func windowElapsed(receivedAt *time.Time, lifetimeSeconds int, now time.Time) bool {
	if receivedAt == nil || lifetimeSeconds <= 0 {
		return false
	}
	return receivedAt.Add(time.Duration(lifetimeSeconds) * time.Second).Before(now)
}

// OfferResult is the outcome of processing a credential offer.
type OfferResult struct {
	// IssuerID is the credential issuer identifier from the offer.
	IssuerID string
	// ConfigurationID is the offered configuration the wallet selected (the first one).
	ConfigurationID string
	// Configuration is the selected configuration as described by the issuer's metadata.
	Configuration oauth.CredentialConfiguration
	// AllConfigurationIDs lists all offered configuration IDs, in order of the offer.
	AllConfigurationIDs []string
}

// AuthorizationRequest is the authorization request the user-agent must be redirected to.
type AuthorizationRequest struct {
	URL        string
	ClientID   string
	RequestURI string
	State      string
}

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
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nuts-foundation/nuts-wallet/auth/oauth"
	"github.com/nuts-foundation/nuts-wallet/core"
	nutsHttp "github.com/nuts-foundation/nuts-wallet/http"
	"github.com/nuts-foundation/nuts-wallet/vcr/log"
)

// LoadClientConfig resolves the credential issuer and authorization server metadata of the given issuer.
// All errors wrap ErrConfiguration, so the caller can drop the issuer.
func LoadClientConfig(ctx context.Context, transport nutsHttp.Transport, issuer IssuerConfig, redirectURI string) (*ClientConfig, error) {
	if issuer.CredentialIssuerIdentifier == "" {
		return nil, fmt.Errorf("%w: missing credential issuer identifier", ErrConfiguration)
	}
	if issuer.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id (issuer=%s)", ErrConfiguration, issuer.CredentialIssuerIdentifier)
	}
	issuerMetadata, err := loadCredentialIssuerMetadata(ctx, transport, issuer.CredentialIssuerIdentifier)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to load credential issuer metadata (issuer=%s): %w", ErrConfiguration, issuer.CredentialIssuerIdentifier, err)
	}
	// the first authorization server is used; the credential issuer itself when it does not list any
	authorizationServer := issuer.CredentialIssuerIdentifier
	if len(issuerMetadata.AuthorizationServers) > 0 {
		authorizationServer = issuerMetadata.AuthorizationServers[0]
	}
	authzMetadata, err := loadAuthorizationServerMetadata(ctx, transport, authorizationServer)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to load authorization server metadata (issuer=%s): %w", ErrConfiguration, issuer.CredentialIssuerIdentifier, err)
	}
	return &ClientConfig{
		ClientID:                    issuer.ClientID,
		CredentialIssuerIdentifier:  issuer.CredentialIssuerIdentifier,
		RedirectURI:                 redirectURI,
		CredentialIssuerMetadata:    *issuerMetadata,
		AuthorizationServerMetadata: *authzMetadata,
	}, nil
}

func loadCredentialIssuerMetadata(ctx context.Context, transport nutsHttp.Transport, identifier string) (*oauth.OpenIDCredentialIssuerMetadata, error) {
	result := oauth.OpenIDCredentialIssuerMetadata{}
	if err := httpGet(ctx, transport, core.JoinURLPaths(identifier, oauth.OpenIdCredIssuerWellKnown), &result); err != nil {
		return nil, err
	}
	if !sameIdentifier(result.CredentialIssuer, identifier) {
		return nil, fmt.Errorf("invalid meta data: credential_issuer does not match (expected=%s, actual=%s)", identifier, result.CredentialIssuer)
	}
	if len(result.CredentialEndpoint) == 0 {
		return nil, errors.New("invalid meta data: does not contain credential endpoint")
	}
	for id, configuration := range result.CredentialConfigurationsSupported {
		if err := configuration.Validate(); err != nil {
			log.Logger().
				WithField(core.LogFieldCredentialIssuer, identifier).
				WithField(core.LogFieldCredentialConfiguration, id).
				WithError(err).Warn("Issuer offers an unusable credential configuration")
		}
	}
	return &result, nil
}

func loadAuthorizationServerMetadata(ctx context.Context, transport nutsHttp.Transport, identifier string) (*oauth.AuthorizationServerMetadata, error) {
	result := oauth.AuthorizationServerMetadata{}
	if err := httpGet(ctx, transport, core.JoinURLPaths(identifier, oauth.AuthzServerWellKnown), &result); err != nil {
		return nil, err
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("invalid meta data: %w", err)
	}
	return &result, nil
}

func httpGet(ctx context.Context, transport nutsHttp.Transport, url string, target interface{}) error {
	headers := http.Header{}
	headers.Set("Accept", "application/json")
	response, err := transport.Get(ctx, url, headers)
	if err != nil {
		return err
	}
	if err = response.Success(); err != nil {
		return err
	}
	return response.Unmarshal(target)
}

func sameIdentifier(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}

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
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nuts-foundation/nuts-wallet/auth/oauth"
	"github.com/nuts-foundation/nuts-wallet/core"
	nutsHttp "github.com/nuts-foundation/nuts-wallet/http"
	"github.com/nuts-foundation/nuts-wallet/vcr/credential"
	"github.com/nuts-foundation/nuts-wallet/vcr/log"
	"github.com/nuts-foundation/nuts-wallet/vcr/pe"
)

// Config contains the settings of the RelyingParty.
type Config struct {
	// AllowUnsignedRequestObjects makes the wallet accept request objects that can't be verified against the trust anchors.
	AllowUnsignedRequestObjects bool `koanf:"allowunsignedrequestobjects"`
}

// Holder groups the capabilities of the credential holder the RelyingParty presents on behalf of.
type Holder struct {
	Credentials     credential.Store
	Signer          PresentationSigner
	DeviceResponses DeviceResponseGenerator
}

// NewRelyingParty creates a RelyingParty.
// Request objects are verified against the given trust store.
func NewRelyingParty(config Config, states *StateStore, holder Holder, parser credential.Parser, auditStore PresentationAuditStore, transport nutsHttp.Transport, trustStore *core.TrustStore) *RelyingParty {
	return &RelyingParty{
		states:                      states,
		credentials:                 holder.Credentials,
		signer:                      holder.Signer,
		deviceResponses:             holder.DeviceResponses,
		parser:                      parser,
		auditStore:                  auditStore,
		transport:                   transport,
		trustStore:                  trustStore,
		allowUnsignedRequestObjects: config.AllowUnsignedRequestObjects,
		clock:                       time.Now,
	}
}

// RelyingParty answers OpenID4VP authorization requests of verifiers (the relying parties of the wallet's credentials).
// It handles one presentation flow at a time: a new authorization request replaces the flow in progress.
type RelyingParty struct {
	// mux serializes the flows, since there's only a single flow state slot.
	mux                         sync.Mutex
	states                      *StateStore
	credentials                 credential.Store
	signer                      PresentationSigner
	deviceResponses             DeviceResponseGenerator
	parser                      credential.Parser
	auditStore                  PresentationAuditStore
	transport                   nutsHttp.Transport
	trustStore                  *core.TrustStore
	allowUnsignedRequestObjects bool
	clock                       func() time.Time
}

// HandleAuthorizationRequest parses the authorization request URL, stores the presentation flow and
// returns the held credentials that satisfy the requested presentation definition.
// ErrInsufficientCredentials is returned when an input descriptor can't be satisfied.
func (r *RelyingParty) HandleAuthorizationRequest(ctx context.Context, requestURL string) (*AuthorizationRequestResult, error) {
	r.mux.Lock()
	defer r.mux.Unlock()

	request, definition, err := r.readAuthorizationRequest(ctx, requestURL)
	if err == nil && len(definition.InputDescriptors) != 1 {
		err = fmt.Errorf("%w: presentation definition must contain exactly one input descriptor (count=%d)", ErrUnsupportedRequest, len(definition.InputDescriptors))
	}
	if err != nil {
		authorizationRequestsCounter.WithLabelValues(resultRejected).Inc()
		return nil, err
	}
	warnOnUnsupportedFormats(*request)
	flow := FlowState{
		PresentationDefinition: *definition,
		Nonce:                  request.Nonce,
		ResponseURI:            request.responseURI(),
		ClientID:               request.ClientID,
		State:                  request.State,
	}
	if err = r.states.Store(flow); err != nil {
		return nil, err
	}
	held, err := r.credentials.RetrieveAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to read held credentials: %w", err)
	}
	matches, err := r.match(ctx, *definition, held)
	if err != nil {
		if errors.Is(err, ErrInsufficientCredentials) {
			authorizationRequestsCounter.WithLabelValues(resultInsufficient).Inc()
		}
		return nil, err
	}
	authorizationRequestsCounter.WithLabelValues(resultSuccess).Inc()
	log.Logger().
		WithField(core.LogFieldVerifier, flow.ClientID).
		WithField(core.LogFieldFlowID, flow.State).
		Info("Verifier requested a presentation")
	return &AuthorizationRequestResult{
		Credentials:    matches,
		VerifierName:   core.DisplayName(flow.ClientID),
		ClientMetadata: request.ClientMetadata,
	}, nil
}

// match returns the held credentials that satisfy each input descriptor, in storage order.
// If an input descriptor can't be satisfied, no result is returned at all.
func (r *RelyingParty) match(ctx context.Context, definition pe.PresentationDefinition, held []credential.StorableCredential) (ConformantCredentialsMap, error) {
	result := ConformantCredentialsMap{}
	for _, descriptor := range definition.InputDescriptors {
		var credentialIDs []string
		for _, candidate := range held {
			if !acceptsFormat(definition, *descriptor, candidate.Format) {
				continue
			}
			matches, err := r.matchCredential(ctx, *descriptor, candidate)
			if err != nil {
				log.Logger().
					WithError(err).
					WithField(core.LogFieldCredentialID, candidate.ID).
					WithField(core.LogFieldInputDescriptor, descriptor.Id).
					Warn("Unable to match credential against input descriptor")
				continue
			}
			if matches {
				credentialIDs = append(credentialIDs, candidate.ID)
			}
		}
		if len(credentialIDs) == 0 {
			return nil, fmt.Errorf("%w (input descriptor=%s)", ErrInsufficientCredentials, descriptor.Id)
		}
		result[descriptor.Id] = ConformantCredentials{
			CredentialIDs:   credentialIDs,
			RequestedFields: descriptor.RequestedFieldNames(),
		}
	}
	return result, nil
}

func (r *RelyingParty) matchCredential(ctx context.Context, descriptor pe.InputDescriptor, candidate credential.StorableCredential) (bool, error) {
	parsed, err := r.parser.Parse(ctx, candidate, false)
	if err != nil {
		return false, err
	}
	return descriptor.Match(matchableClaims(parsed))
}

// matchableClaims returns the claims JSONPath expressions of input descriptors are evaluated against.
// For mdocs these are the namespaces keyed by name, e.g. {"org.iso.18013.5.1": {"family_name": "..."}}.
func matchableClaims(parsed *credential.ParsedCredential) map[string]interface{} {
	if parsed.Namespaces != nil {
		return parsed.Namespaces.JSON()
	}
	return parsed.Claims
}

// acceptsFormat returns true if the input descriptor (or else the presentation definition) accepts the credential format.
// Both SD-JWT VC format identifiers are considered equal.
func acceptsFormat(definition pe.PresentationDefinition, descriptor pe.InputDescriptor, format string) bool {
	aliases := []string{format}
	if oauth.IsSDJWTFormat(format) {
		aliases = []string{oauth.SDJWTVCFormat, oauth.DCSDJWTFormat}
	}
	for _, alias := range aliases {
		switch {
		case descriptor.Format != nil:
			if descriptor.AcceptsFormat(alias) {
				return true
			}
		case definition.Format == nil:
			return true
		default:
			if _, ok := (*definition.Format)[alias]; ok {
				return true
			}
		}
	}
	return false
}

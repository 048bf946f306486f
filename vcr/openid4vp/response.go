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
	"maps"
	"net/http"
	"net/url"
	"slices"

	"github.com/google/uuid"
	"github.com/nuts-foundation/nuts-wallet/audit"
	"github.com/nuts-foundation/nuts-wallet/auth/oauth"
	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/nuts-foundation/nuts-wallet/crypto"
	"github.com/nuts-foundation/nuts-wallet/vcr/credential"
	"github.com/nuts-foundation/nuts-wallet/vcr/log"
	"github.com/nuts-foundation/nuts-wallet/vcr/mdoc"
	"github.com/nuts-foundation/nuts-wallet/vcr/pe"
)

// SendAuthorizationResponse presents the selected credentials (credential ID per input descriptor ID) to the verifier
// of the current flow. It returns the URI the verifier wants the user to be redirected to, which may be empty.
// The flow is finished once the verifier accepted the response.
func (r *RelyingParty) SendAuthorizationResponse(ctx context.Context, selection map[string]string) (string, error) {
	r.mux.Lock()
	defer r.mux.Unlock()

	flow, err := r.states.Retrieve()
	if err != nil {
		return "", err
	}
	redirectURI, err := r.sendAuthorizationResponse(ctx, *flow, selection)
	if err != nil {
		presentationsCounter.WithLabelValues(resultFailure).Inc()
		log.Logger().
			WithError(err).
			WithField(core.LogFieldVerifier, flow.ClientID).
			WithField(core.LogFieldFlowID, flow.State).
			Warn("Unable to send authorization response")
		return "", err
	}
	presentationsCounter.WithLabelValues(resultSuccess).Inc()
	if err = r.states.Delete(); err != nil {
		log.Logger().WithError(err).Warn("Unable to remove finished presentation flow")
	}
	return redirectURI, nil
}

func (r *RelyingParty) sendAuthorizationResponse(ctx context.Context, flow FlowState, selection map[string]string) (string, error) {
	descriptorIDs, err := selectedDescriptors(flow.PresentationDefinition, selection)
	if err != nil {
		return "", err
	}
	held, err := r.credentials.RetrieveAll(ctx)
	if err != nil {
		return "", fmt.Errorf("unable to read held credentials: %w", err)
	}
	byID := make(map[string]credential.StorableCredential, len(held))
	for _, current := range held {
		byID[current.ID] = current
	}

	builder := flow.PresentationDefinition.PresentationSubmissionBuilder()
	var tokens []string
	var credentialIDs []string
	for _, descriptorID := range descriptorIDs {
		selected, ok := byID[selection[descriptorID]]
		if !ok {
			return "", fmt.Errorf("selected credential not found (id=%s)", selection[descriptorID])
		}
		token, err := r.present(ctx, flow, *findDescriptor(flow.PresentationDefinition, descriptorID), selected)
		if err != nil {
			return "", fmt.Errorf("unable to present credential (id=%s): %w", selected.ID, err)
		}
		tokens = append(tokens, token)
		credentialIDs = append(credentialIDs, selected.ID)
		builder.Add(descriptorID, selected.Format)
	}
	submission, err := builder.Build()
	if err != nil {
		return "", err
	}
	submissionJSON, err := json.Marshal(submission)
	if err != nil {
		return "", err
	}
	vpToken, err := encodeVPToken(tokens)
	if err != nil {
		return "", err
	}

	auditCtx := audit.ContextOrDefault(ctx, "", "VCR", "openid4vp")
	err = r.auditStore.StorePresentation(auditCtx, audit.PresentationRecord{
		ID:                     uuid.NewString(),
		Presentation:           vpToken,
		Format:                 submission.DescriptorMap[0].Format,
		CredentialIDs:          credentialIDs,
		PresentationSubmission: submissionJSON,
		Audience:               flow.ClientID,
		IssuanceDate:           r.clock(),
	})
	if err != nil {
		return "", fmt.Errorf("unable to store presentation record: %w", err)
	}

	form := url.Values{}
	form.Set(oauth.VpTokenParam, vpToken)
	form.Set(oauth.PresentationSubmissionParam, string(submissionJSON))
	if flow.State != "" {
		form.Set(oauth.StateParam, flow.State)
	}
	response, err := r.transport.Post(ctx, flow.ResponseURI, []byte(form.Encode()), http.Header{
		"Content-Type": []string{contentTypeForm},
		"Accept":       []string{contentTypeJSON},
	})
	if err == nil {
		err = response.Success()
	}
	if err != nil {
		return "", fmt.Errorf("verifier did not accept authorization response: %w", err)
	}
	audit.Log(auditCtx, log.Logger().
		WithField(core.LogFieldVerifier, flow.ClientID).
		WithField(core.LogFieldAuditSubject, credentialIDs), audit.PresentationSentEvent).
		Infof("Presented %d credential(s) to verifier", len(credentialIDs))

	var redirect oauth.Redirect
	if len(bytes.TrimSpace(response.Data)) > 0 {
		if err = response.Unmarshal(&redirect); err != nil {
			return "", err
		}
	}
	return redirect.RedirectURI, nil
}

// present creates the vp_token entry for the given credential.
// SD-JWTs only disclose the fields the input descriptor requests and are bound to the verifier by a holder signature,
// mdocs are presented as device response for the OpenID4VP session transcript.
func (r *RelyingParty) present(ctx context.Context, flow FlowState, descriptor pe.InputDescriptor, selected credential.StorableCredential) (string, error) {
	parsed, err := r.parser.Parse(ctx, selected, false)
	if err != nil {
		return "", err
	}
	switch {
	case parsed.SDJWT != nil:
		frame, err := pe.DisclosureFrame(descriptor.FieldPaths())
		if err != nil {
			return "", err
		}
		presentation, err := parsed.SDJWT.Present(frame)
		if err != nil {
			return "", err
		}
		return r.signer.SignPresentation(ctx, flow.Nonce, flow.ResponseURI, []string{presentation})
	case parsed.IssuerSigned != nil:
		document := mdoc.Document{DocType: parsed.DocType, IssuerSigned: *parsed.IssuerSigned}
		deviceResponse, err := r.deviceResponses.GenerateDeviceResponse(ctx, document, flow.PresentationDefinition, crypto.GenerateNonce(), flow.Nonce, flow.ClientID, flow.ResponseURI)
		if err != nil {
			return "", err
		}
		return deviceResponse.Encode()
	case selected.Format == oauth.JWTVCJSONFormat || selected.Format == oauth.JWTVCFormat:
		return r.signer.SignPresentation(ctx, flow.Nonce, flow.ResponseURI, []string{selected.Credential})
	}
	return "", fmt.Errorf("%w: %s", credential.ErrUnsupportedFormat, selected.Format)
}

// selectedDescriptors checks that a credential is selected for every input descriptor and returns the descriptor IDs sorted.
func selectedDescriptors(definition pe.PresentationDefinition, selection map[string]string) ([]string, error) {
	for _, descriptor := range definition.InputDescriptors {
		if selection[descriptor.Id] == "" {
			return nil, fmt.Errorf("%w: no credential selected for input descriptor %s", ErrInsufficientCredentials, descriptor.Id)
		}
	}
	for descriptorID := range selection {
		if findDescriptor(definition, descriptorID) == nil {
			return nil, fmt.Errorf("unknown input descriptor: %s", descriptorID)
		}
	}
	return slices.Sorted(maps.Keys(selection)), nil
}

func findDescriptor(definition pe.PresentationDefinition, id string) *pe.InputDescriptor {
	for _, descriptor := range definition.InputDescriptors {
		if descriptor.Id == id {
			return descriptor
		}
	}
	return nil
}

// encodeVPToken returns the single presentation as is, or multiple presentations as JSON array.
func encodeVPToken(tokens []string) (string, error) {
	if len(tokens) == 1 {
		return tokens[0], nil
	}
	data, err := json.Marshal(tokens)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

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

package pe

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	v2 "github.com/nuts-foundation/nuts-wallet/vcr/pe/schema/v2"
)

// ParsePresentationSubmission validates the given JSON against the Presentation Exchange schema and unmarshals it.
func ParsePresentationSubmission(raw []byte) (*PresentationSubmission, error) {
	if err := v2.Validate(raw, v2.PresentationSubmission); err != nil {
		return nil, fmt.Errorf("invalid presentation submission: %w", err)
	}
	var result PresentationSubmission
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PresentationSubmissionBuilder is a builder for PresentationSubmissions.
// Each added presentation becomes an entry in the vp_token, in order of addition.
type PresentationSubmissionBuilder struct {
	presentationDefinition PresentationDefinition
	entries                []submissionEntry
}

type submissionEntry struct {
	descriptorID string
	format       string
}

// PresentationSubmissionBuilder returns a new PresentationSubmissionBuilder.
func (presentationDefinition PresentationDefinition) PresentationSubmissionBuilder() PresentationSubmissionBuilder {
	return PresentationSubmissionBuilder{
		presentationDefinition: presentationDefinition,
	}
}

// Add adds a presentation of the given format that answers the given input descriptor.
func (b *PresentationSubmissionBuilder) Add(descriptorID string, format string) *PresentationSubmissionBuilder {
	b.entries = append(b.entries, submissionEntry{descriptorID: descriptorID, format: format})
	return b
}

// Build creates the PresentationSubmission. If there's only one presentation, the vp_token is that presentation
// and its path is "$". Otherwise, the vp_token is an array and the paths point to the array elements ("$[i]").
// It returns an error if an entry refers to an input descriptor that isn't part of the presentation definition.
func (b *PresentationSubmissionBuilder) Build() (PresentationSubmission, error) {
	result := PresentationSubmission{
		Id:            uuid.NewString(),
		DefinitionId:  b.presentationDefinition.Id,
		DescriptorMap: []InputDescriptorMappingObject{},
	}
	for i, entry := range b.entries {
		if !b.hasDescriptor(entry.descriptorID) {
			return PresentationSubmission{}, fmt.Errorf("input descriptor not found in presentation definition: %s", entry.descriptorID)
		}
		path := "$"
		if len(b.entries) > 1 {
			path = fmt.Sprintf("$[%d]", i)
		}
		result.DescriptorMap = append(result.DescriptorMap, InputDescriptorMappingObject{
			Id:     entry.descriptorID,
			Path:   path,
			Format: entry.format,
		})
	}
	return result, nil
}

func (b *PresentationSubmissionBuilder) hasDescriptor(id string) bool {
	for _, descriptor := range b.presentationDefinition.InputDescriptors {
		if descriptor.Id == id {
			return true
		}
	}
	return false
}

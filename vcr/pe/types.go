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

// Package pe implements the parts of Presentation Exchange v2 the wallet needs to answer OpenID4VP requests:
// matching held credentials against input descriptors, deriving disclosure frames from field paths and
// building presentation submissions.
package pe

// PresentationDefinitionClaimFormatDesignations maps a claim format (e.g. vc+sd-jwt, mso_mdoc) to its parameters.
type PresentationDefinitionClaimFormatDesignations map[string]map[string][]string

// PresentationDefinition describes the credentials a verifier requests.
type PresentationDefinition struct {
	Id               string                                         `json:"id"`
	Name             string                                         `json:"name,omitempty"`
	Purpose          *string                                        `json:"purpose,omitempty"`
	Format           *PresentationDefinitionClaimFormatDesignations `json:"format,omitempty"`
	InputDescriptors []*InputDescriptor                             `json:"input_descriptors"`
}

// InputDescriptor describes a single requested credential.
type InputDescriptor struct {
	Id          string                                         `json:"id"`
	Name        string                                         `json:"name,omitempty"`
	Purpose     string                                         `json:"purpose,omitempty"`
	Format      *PresentationDefinitionClaimFormatDesignations `json:"format,omitempty"`
	Constraints *Constraints                                   `json:"constraints,omitempty"`
	Group       []string                                       `json:"group,omitempty"`
}

// Constraints contains the fields a matching credential must contain.
type Constraints struct {
	Fields []Field `json:"fields,omitempty"`
	// LimitDisclosure is either "required" or "preferred".
	LimitDisclosure *string `json:"limit_disclosure,omitempty"`
}

// Field describes a requested claim: one or more alternative JSONPath expressions and an optional filter.
type Field struct {
	Id             *string  `json:"id,omitempty"`
	Name           *string  `json:"name,omitempty"`
	Purpose        *string  `json:"purpose,omitempty"`
	Path           []string `json:"path"`
	Filter         *Filter  `json:"filter,omitempty"`
	Optional       *bool    `json:"optional,omitempty"`
	IntentToRetain *bool    `json:"intent_to_retain,omitempty"`
}

// Filter is the subset of JSON schema that can be used to filter field values.
type Filter struct {
	Type    string   `json:"type"`
	Const   *string  `json:"const,omitempty"`
	Enum    []string `json:"enum,omitempty"`
	Pattern *string  `json:"pattern,omitempty"`
}

// PresentationSubmission describes how the presented credentials map to the input descriptors.
type PresentationSubmission struct {
	Id            string                         `json:"id"`
	DefinitionId  string                         `json:"definition_id"`
	DescriptorMap []InputDescriptorMappingObject `json:"descriptor_map"`
}

// InputDescriptorMappingObject maps an input descriptor to the credential's position in the vp_token.
type InputDescriptorMappingObject struct {
	Id     string `json:"id"`
	Path   string `json:"path"`
	Format string `json:"format"`
}

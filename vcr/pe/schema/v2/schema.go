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

// Package v2 contains the JSON schemas of v2.0.0 of the Presentation Exchange specification,
// limited to the properties the wallet supports.
package v2

import (
	"bytes"
	"embed"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/loader"
)

//go:embed *.json
var schemaFiles embed.FS

// schemaIDs maps the embedded files to the $id they are referenced by.
var schemaIDs = map[string]string{
	"presentation_definition.json":                           "http://identity.foundation/presentation-exchange/schemas/presentation-definition.json",
	"presentation_submission.json":                           "https://identity.foundation/presentation-exchange/schemas/presentation-submission.json",
	"presentation-definition-claim-format-designations.json": "http://identity.foundation/claim-format-registry/schemas/presentation-definition-claim-format-designations.json",
}

var (
	// PresentationDefinition validates presentation definitions received from verifiers.
	PresentationDefinition *jsonschema.Schema
	// PresentationSubmission validates the presentation submissions the wallet sends.
	PresentationSubmission *jsonschema.Schema
)

func init() {
	// schemas are never fetched from the filesystem or network, only the embedded ones are known
	loader.Load = func(url string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("refusing to load unknown schema: %s", url)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	for file, id := range schemaIDs {
		data, err := schemaFiles.ReadFile(file)
		if err == nil {
			err = compiler.AddResource(id, bytes.NewReader(data))
		}
		if err != nil {
			panic(fmt.Errorf("unable to load schema %s: %w", file, err))
		}
	}
	PresentationDefinition = compiler.MustCompile(schemaIDs["presentation_definition.json"])
	PresentationSubmission = compiler.MustCompile(schemaIDs["presentation_submission.json"])
}

// Validate validates the JSON document against the schema.
func Validate(data []byte, schema *jsonschema.Schema) error {
	return schema.Validate(bytes.NewReader(data))
}

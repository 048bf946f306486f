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
	"testing"

	"github.com/nuts-foundation/nuts-wallet/vcr/pe/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClaims = map[string]interface{}{
	"vct":         "urn:eu.europa.ec.eudi:pid:1",
	"given_name":  "Erika",
	"family_name": "Mustermann",
	"age":         float64(40),
	"adult":       true,
	"address": map[string]interface{}{
		"locality":       "Berlin",
		"street_address": "Heidestraße 17",
	},
	"nationalities": []interface{}{"DE", "NL"},
}

func TestParsePresentationDefinition(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		definition, err := ParsePresentationDefinition([]byte(test.SDJWTFamilyName))

		require.NoError(t, err)
		assert.Equal(t, "pid-family-name", definition.Id)
		require.Len(t, definition.InputDescriptors, 1)
		assert.Equal(t, "pid", definition.InputDescriptors[0].Id)
		assert.Equal(t, "required", *definition.InputDescriptors[0].Constraints.LimitDisclosure)
	})
	t.Run("missing input descriptors", func(t *testing.T) {
		_, err := ParsePresentationDefinition([]byte(`{"id": "1"}`))

		assert.ErrorContains(t, err, "invalid presentation definition")
		assert.ErrorContains(t, err, "input_descriptors")
	})
	t.Run("field without path", func(t *testing.T) {
		_, err := ParsePresentationDefinition([]byte(`{"id": "1", "input_descriptors": [{"id": "1", "constraints": {"fields": [{"name": "x"}]}}]}`))

		assert.ErrorContains(t, err, "invalid presentation definition")
	})
	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParsePresentationDefinition([]byte(`{`))

		assert.Error(t, err)
	})
}

func TestInputDescriptor_Match(t *testing.T) {
	parse := func(t *testing.T, data string) *PresentationDefinition {
		definition, err := ParsePresentationDefinition([]byte(data))
		require.NoError(t, err)
		return definition
	}
	t.Run("field and filter", func(t *testing.T) {
		descriptor := parse(t, test.SDJWTFamilyName).InputDescriptors[0]

		match, err := descriptor.Match(testClaims)

		require.NoError(t, err)
		assert.True(t, match)
	})
	t.Run("filter does not match", func(t *testing.T) {
		descriptor := parse(t, test.SDJWTFamilyName).InputDescriptors[0]
		claims := map[string]interface{}{
			"vct":         "urn:other",
			"family_name": "Mustermann",
		}

		match, err := descriptor.Match(claims)

		require.NoError(t, err)
		assert.False(t, match)
	})
	t.Run("missing field", func(t *testing.T) {
		descriptor := parse(t, test.SDJWTFamilyName).InputDescriptors[0]
		claims := map[string]interface{}{
			"vct": "urn:eu.europa.ec.eudi:pid:1",
		}

		match, err := descriptor.Match(claims)

		require.NoError(t, err)
		assert.False(t, match)
	})
	t.Run("path alternatives, optional field and array index", func(t *testing.T) {
		descriptor := parse(t, test.Address).InputDescriptors[0]

		match, err := descriptor.Match(testClaims)
		require.NoError(t, err)
		assert.True(t, match)

		t.Run("second alternative", func(t *testing.T) {
			match, err := descriptor.Match(map[string]interface{}{
				"locality":      "Berlin",
				"nationalities": []interface{}{"NL"},
			})

			require.NoError(t, err)
			assert.True(t, match)
		})
		t.Run("array index out of bounds", func(t *testing.T) {
			match, err := descriptor.Match(map[string]interface{}{
				"locality":      "Berlin",
				"nationalities": []interface{}{},
			})

			require.NoError(t, err)
			assert.False(t, match)
		})
	})
	t.Run("mdoc namespace", func(t *testing.T) {
		descriptor := parse(t, test.MDocFamilyName).InputDescriptors[0]
		claims := map[string]interface{}{
			"eu.europa.ec.eudi.pid.1": map[string]interface{}{
				"family_name": "Mustermann",
			},
		}

		match, err := descriptor.Match(claims)

		require.NoError(t, err)
		assert.True(t, match)
	})
	t.Run("no constraints", func(t *testing.T) {
		match, err := InputDescriptor{Id: "1"}.Match(testClaims)

		require.NoError(t, err)
		assert.True(t, match)
	})
}

func TestInputDescriptor_AcceptsFormat(t *testing.T) {
	definition, err := ParsePresentationDefinition([]byte(test.SDJWTAndMDoc))
	require.NoError(t, err)

	assert.True(t, definition.InputDescriptors[0].AcceptsFormat("vc+sd-jwt"))
	assert.False(t, definition.InputDescriptors[0].AcceptsFormat("mso_mdoc"))
	assert.True(t, definition.InputDescriptors[1].AcceptsFormat("mso_mdoc"))
	assert.True(t, InputDescriptor{}.AcceptsFormat("mso_mdoc"))
}

func TestInputDescriptor_RequestedFieldNames(t *testing.T) {
	definition, err := ParsePresentationDefinition([]byte(test.Address))
	require.NoError(t, err)

	assert.Equal(t, []string{"City", "Street"}, definition.InputDescriptors[0].RequestedFieldNames())
	assert.Equal(t, []string{"$.address.locality", "$.locality", "$['address']['street_address']", "$.nationalities[0]"}, definition.InputDescriptors[0].FieldPaths())
}

func Test_matchFilter(t *testing.T) {
	stringPtr := func(s string) *string {
		return &s
	}
	testCases := []struct {
		name   string
		filter Filter
		value  interface{}
		match  bool
	}{
		{name: "string", filter: Filter{Type: "string"}, value: "a", match: true},
		{name: "string const", filter: Filter{Type: "string", Const: stringPtr("a")}, value: "a", match: true},
		{name: "string const mismatch", filter: Filter{Type: "string", Const: stringPtr("a")}, value: "b", match: false},
		{name: "string pattern", filter: Filter{Type: "string", Pattern: stringPtr("^[A-Z]{2}$")}, value: "DE", match: true},
		{name: "string pattern mismatch", filter: Filter{Type: "string", Pattern: stringPtr("^[A-Z]{2}$")}, value: "DEU", match: false},
		{name: "enum", filter: Filter{Type: "string", Enum: []string{"a", "b"}}, value: "b", match: true},
		{name: "number", filter: Filter{Type: "number"}, value: float64(1), match: true},
		{name: "number type mismatch", filter: Filter{Type: "string"}, value: float64(1), match: false},
		{name: "boolean", filter: Filter{Type: "boolean"}, value: true, match: true},
		{name: "array element", filter: Filter{Type: "string", Const: stringPtr("NL")}, value: []interface{}{"DE", "NL"}, match: true},
		{name: "array element mismatch", filter: Filter{Type: "string", Const: stringPtr("FR")}, value: []interface{}{"DE", "NL"}, match: false},
		{name: "array", filter: Filter{Type: "array"}, value: []interface{}{"DE"}, match: true},
		{name: "object", filter: Filter{Type: "object"}, value: map[string]interface{}{}, match: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			match, err := matchFilter(tc.filter, tc.value)

			require.NoError(t, err)
			assert.Equal(t, tc.match, match)
		})
	}
	t.Run("unsupported value type", func(t *testing.T) {
		_, err := matchFilter(Filter{Type: "string"}, nil)

		assert.ErrorIs(t, err, ErrUnsupportedFilter)
	})
	t.Run("invalid pattern", func(t *testing.T) {
		_, err := matchFilter(Filter{Type: "string", Pattern: stringPtr("[")}, "a")

		assert.Error(t, err)
	})
}

func Test_getValueAtPath(t *testing.T) {
	claims := map[string]interface{}{
		"org.iso.18013.5.1": map[string]interface{}{
			"family_name": "Mustermann",
		},
	}
	t.Run("single-quoted bracket notation", func(t *testing.T) {
		value, err := getValueAtPath("$['org.iso.18013.5.1']['family_name']", claims)

		require.NoError(t, err)
		assert.Equal(t, "Mustermann", value)
	})
	t.Run("double-quoted bracket notation", func(t *testing.T) {
		value, err := getValueAtPath(`$["org.iso.18013.5.1"]["family_name"]`, claims)

		require.NoError(t, err)
		assert.Equal(t, "Mustermann", value)
	})
	t.Run("unknown element", func(t *testing.T) {
		value, err := getValueAtPath("$['org.iso.18013.5.1']['given_name']", claims)

		require.NoError(t, err)
		assert.Nil(t, value)
	})
}

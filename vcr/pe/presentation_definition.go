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
	"errors"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/dlclark/regexp2"
	v2 "github.com/nuts-foundation/nuts-wallet/vcr/pe/schema/v2"
)

// ErrUnsupportedFilter is returned when a filter uses unsupported features.
var ErrUnsupportedFilter = errors.New("unsupported filter")

// ParsePresentationDefinition validates the given JSON against the Presentation Exchange schema and unmarshals it.
func ParsePresentationDefinition(raw []byte) (*PresentationDefinition, error) {
	if err := v2.Validate(raw, v2.PresentationDefinition); err != nil {
		return nil, fmt.Errorf("invalid presentation definition: %w", err)
	}
	var result PresentationDefinition
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AcceptsFormat returns true if the input descriptor doesn't restrict formats, or lists the given format.
func (descriptor InputDescriptor) AcceptsFormat(format string) bool {
	if descriptor.Format == nil {
		return true
	}
	_, ok := (*descriptor.Format)[format]
	return ok
}

// RequestedFieldNames returns the names of the requested fields, for displaying to the user.
// Fields without a name are skipped.
func (descriptor InputDescriptor) RequestedFieldNames() []string {
	var result []string
	if descriptor.Constraints == nil {
		return result
	}
	for _, field := range descriptor.Constraints.Fields {
		if field.Name != nil {
			result = append(result, *field.Name)
		}
	}
	return result
}

// FieldPaths returns all path alternatives of all fields, in order.
func (descriptor InputDescriptor) FieldPaths() []string {
	var result []string
	if descriptor.Constraints == nil {
		return result
	}
	for _, field := range descriptor.Constraints.Fields {
		result = append(result, field.Path...)
	}
	return result
}

// Match returns true if the claims of a credential satisfy the constraints of the input descriptor:
// every field must resolve to a value (satisfying the filter, if any), unless it's optional.
// ErrUnsupportedFilter is returned when a filter uses unsupported features.
// Other errors can be returned for faulty JSON paths or regex patterns.
func (descriptor InputDescriptor) Match(claims map[string]interface{}) (bool, error) {
	if descriptor.Constraints == nil {
		return true, nil
	}
	return matchConstraint(descriptor.Constraints, claims)
}

// matchConstraint matches the constraint against the claims.
// All Fields need to match according to the Field rules.
// LimitDisclosure is handled when presenting, by only disclosing the requested fields.
func matchConstraint(constraint *Constraints, claims map[string]interface{}) (bool, error) {
	for _, field := range constraint.Fields {
		match, err := matchField(field, claims)
		if err != nil {
			return false, err
		}
		if !match {
			return false, nil
		}
	}
	return true, nil
}

// matchField matches the field against the claims.
// A field matches if one of its paths resolves to a value that matches the filter (if any),
// or if it's optional and none of its paths resolve.
func matchField(field Field, claims map[string]interface{}) (bool, error) {
	var asInterface interface{} = claims
	var optionalInvalid int
	for _, path := range field.Path {
		value, err := getValueAtPath(path, asInterface)
		if err != nil {
			return false, err
		}
		if value == nil {
			continue
		}

		if field.Filter == nil {
			return true, nil
		}

		match, err := matchFilter(*field.Filter, value)
		if err != nil {
			return false, err
		}
		if match {
			return true, nil
		}
		// filter did not match, which makes the field invalid even if it's optional
		optionalInvalid++
	}
	if field.Optional != nil && *field.Optional && optionalInvalid == 0 {
		return true, nil
	}
	return false, nil
}

// getValueAtPath uses the JSON path expression to get the value from the claims.
// It returns nil if the path doesn't resolve.
func getValueAtPath(path string, claims interface{}) (interface{}, error) {
	value, err := jsonpath.Get(doubleQuoteBrackets(path), claims)
	// jsonpath.Get returns some errors if the path is not found, or it has a different type as expected
	if err != nil {
		msg := err.Error()
		if strings.HasPrefix(msg, "unknown key") ||
			strings.HasPrefix(msg, "unsupported value type") ||
			strings.HasSuffix(msg, "out of bounds") {
			return nil, nil
		}
		return nil, err
	}
	if values, ok := value.([]interface{}); ok && len(values) == 0 && isQuery(path) {
		return nil, nil
	}
	return value, nil
}

// isQuery returns true if the path can return multiple values (wildcards, filters), in which case jsonpath returns a list.
func isQuery(path string) bool {
	return strings.ContainsAny(path, "*?") || strings.Contains(path, "..")
}

// matchFilter matches the value against the filter.
// A filter is a JSON Schema descriptor (https://json-schema.org/draft/2020-12/json-schema-validation.html#name-a-vocabulary-for-structural)
// Supported schema types: string, number, boolean, array, enum.
// Supported schema properties: const, enum, pattern. These only work for strings.
// Supported go value types: string, float64, int, bool and array.
// 'null' values are also not supported.
// It returns an error on unsupported features or when the regex pattern fails.
func matchFilter(filter Filter, value interface{}) (bool, error) {
	// first we check if it's an enum, so we can recursively call matchFilter for each value
	if filter.Enum != nil {
		for _, enum := range filter.Enum {
			f := Filter{
				Type:  "string",
				Const: &enum,
			}
			match, _ := matchFilter(f, value)
			if match {
				return true, nil
			}
		}
		return false, nil
	}

	switch typedValue := value.(type) {
	case string:
		if filter.Type != "string" {
			return false, nil
		}
	case float64:
		if filter.Type != "number" {
			return false, nil
		}
	case int:
		if filter.Type != "number" {
			return false, nil
		}
	case bool:
		if filter.Type != "boolean" {
			return false, nil
		}
	case []interface{}:
		if filter.Type == "array" && filter.Const == nil && filter.Pattern == nil {
			return true, nil
		}
		for _, v := range typedValue {
			match, err := matchFilter(filter, v)
			if err != nil {
				return false, err
			}
			if match {
				return true, nil
			}
		}
		return false, nil
	case map[string]interface{}:
		return filter.Type == "object", nil
	default:
		return false, ErrUnsupportedFilter
	}

	if filter.Const != nil {
		if value != *filter.Const {
			return false, nil
		}
	}

	if filter.Pattern != nil && filter.Type == "string" {
		re, err := regexp2.Compile(*filter.Pattern, regexp2.ECMAScript)
		if err != nil {
			return false, err
		}
		return re.MatchString(value.(string))
	}

	// if we get here, no pattern, enum or const is requested just the type.
	return true, nil
}

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
	"fmt"
	"strconv"
	"strings"
)

// ParsePath splits a JSONPath expression in normalized form into its segments.
// Both dotted ($.address.locality) and bracket ($['address']['locality'], $.nationalities[0]) notation are supported,
// array indices are returned as decimal strings. Wildcards, filters and recursive descent are not supported.
func ParsePath(path string) ([]string, error) {
	if !strings.HasPrefix(path, "$") {
		return nil, fmt.Errorf("invalid path (must start with $): %s", path)
	}
	var segments []string
	remainder := path[1:]
	for len(remainder) > 0 {
		switch remainder[0] {
		case '.':
			remainder = remainder[1:]
			end := strings.IndexAny(remainder, ".[")
			if end == -1 {
				end = len(remainder)
			}
			segment := remainder[:end]
			if segment == "" || segment == "*" {
				return nil, fmt.Errorf("unsupported path: %s", path)
			}
			segments = append(segments, segment)
			remainder = remainder[end:]
		case '[':
			segment, rest, err := parseBracket(remainder)
			if err != nil {
				return nil, fmt.Errorf("unsupported path: %s (%w)", path, err)
			}
			segments = append(segments, segment)
			remainder = rest
		default:
			return nil, fmt.Errorf("invalid path: %s", path)
		}
	}
	return segments, nil
}

// parseBracket parses a bracket segment (['name'], ["name"] or [0]) at the start of the input.
func parseBracket(input string) (string, string, error) {
	if len(input) > 1 && (input[1] == '\'' || input[1] == '"') {
		quote := input[1]
		end := strings.IndexByte(input[2:], quote)
		if end == -1 || len(input) < end+4 || input[end+3] != ']' {
			return "", "", fmt.Errorf("unterminated bracket")
		}
		return input[2 : end+2], input[end+4:], nil
	}
	end := strings.IndexByte(input, ']')
	if end == -1 {
		return "", "", fmt.Errorf("unterminated bracket")
	}
	index := input[1:end]
	if _, err := strconv.ParseUint(index, 10, 32); err != nil {
		return "", "", fmt.Errorf("invalid array index: %s", index)
	}
	return index, input[end+1:], nil
}

// doubleQuoteBrackets rewrites single-quoted bracket segments (['name']) to double quotes (["name"]),
// the only quoting the JSONPath evaluator accepts. Other parts of the expression are left as they are.
func doubleQuoteBrackets(path string) string {
	if !strings.Contains(path, "['") {
		return path
	}
	var result strings.Builder
	for {
		start := strings.Index(path, "['")
		if start == -1 {
			break
		}
		end := strings.Index(path[start+2:], "']")
		if end == -1 {
			break
		}
		name := path[start+2 : start+2+end]
		result.WriteString(path[:start])
		result.WriteString("[")
		result.WriteString(strconv.Quote(name))
		result.WriteString("]")
		path = path[start+2+end+2:]
	}
	result.WriteString(path)
	return result.String()
}

// DisclosureFrame builds a nested frame that marks the claims at the given paths for disclosure,
// e.g. [$.address.locality, $.given_name] becomes {"address": {"locality": true}, "given_name": true}.
// When a path selects an object, everything in it is disclosed.
func DisclosureFrame(paths []string) (map[string]interface{}, error) {
	result := map[string]interface{}{}
	for _, path := range paths {
		segments, err := ParsePath(path)
		if err != nil {
			return nil, err
		}
		if len(segments) == 0 {
			continue
		}
		current := result
		for i, segment := range segments {
			if i == len(segments)-1 {
				current[segment] = true
				break
			}
			next, ok := current[segment].(map[string]interface{})
			if !ok {
				if current[segment] == true {
					// parent is already disclosed entirely
					break
				}
				next = map[string]interface{}{}
				current[segment] = next
			}
			current = next
		}
	}
	return result, nil
}

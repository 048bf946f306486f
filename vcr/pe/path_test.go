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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	testCases := []struct {
		path     string
		expected []string
	}{
		{path: "$", expected: nil},
		{path: "$.family_name", expected: []string{"family_name"}},
		{path: "$.address.locality", expected: []string{"address", "locality"}},
		{path: "$['address']['locality']", expected: []string{"address", "locality"}},
		{path: `$["address"].locality`, expected: []string{"address", "locality"}},
		{path: "$.nationalities[1]", expected: []string{"nationalities", "1"}},
		{path: "$['eu.europa.ec.eudi.pid.1']['family_name']", expected: []string{"eu.europa.ec.eudi.pid.1", "family_name"}},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			actual, err := ParsePath(tc.path)

			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
	t.Run("errors", func(t *testing.T) {
		for _, path := range []string{"family_name", "$.", "$.*", "$[*]", "$['family_name'", "$[0", "$x"} {
			_, err := ParsePath(path)
			assert.Error(t, err, path)
		}
	})
}

func TestDisclosureFrame(t *testing.T) {
	t.Run("dotted and bracket notation", func(t *testing.T) {
		frame, err := DisclosureFrame([]string{"$.given_name", "$['address']['locality']", "$.address.street_address", "$.nationalities[0]"})

		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{
			"given_name": true,
			"address": map[string]interface{}{
				"locality":       true,
				"street_address": true,
			},
			"nationalities": map[string]interface{}{
				"0": true,
			},
		}, frame)
	})
	t.Run("parent disclosed entirely", func(t *testing.T) {
		frame, err := DisclosureFrame([]string{"$.address", "$.address.locality"})

		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"address": true}, frame)
	})
	t.Run("parent disclosed after child", func(t *testing.T) {
		frame, err := DisclosureFrame([]string{"$.address.locality", "$.address"})

		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"address": true}, frame)
	})
	t.Run("invalid path", func(t *testing.T) {
		_, err := DisclosureFrame([]string{"$.*"})

		assert.EqualError(t, err, "unsupported path: $.*")
	})
}

func Test_doubleQuoteBrackets(t *testing.T) {
	testCases := []struct {
		path     string
		expected string
	}{
		{path: "$.family_name", expected: "$.family_name"},
		{path: "$['org.iso.18013.5.1']['family_name']", expected: `$["org.iso.18013.5.1"]["family_name"]`},
		{path: "$['address'].locality", expected: `$["address"].locality`},
		{path: "$.nationalities[0]", expected: "$.nationalities[0]"},
		{path: `$["address"]['locality']`, expected: `$["address"]["locality"]`},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, doubleQuoteBrackets(tc.path))
		})
	}
}

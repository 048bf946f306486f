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

package cmd

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagSet(t *testing.T) {
	flags := FlagSet()

	address, err := flags.GetString("http.address")
	require.NoError(t, err)
	assert.Equal(t, ":8080", address)
	limit, err := flags.GetInt("http.proxy.ratelimit.limit")
	require.NoError(t, err)
	assert.Equal(t, 600, limit)
	enabled, err := flags.GetBool("http.proxy.enabled")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestGenProxyToken(t *testing.T) {
	outBuf := new(bytes.Buffer)
	cmd := ServerCmd()
	cmd.SetOut(outBuf)
	cmd.SetArgs([]string{"gen-proxy-token"})

	err := cmd.Execute()

	require.NoError(t, err)
	matches := regexp.MustCompile("Token:\n\n(.*)\n").FindStringSubmatch(outBuf.String())
	require.Len(t, matches, 2)
	assert.NotEmpty(t, matches[1])
}

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

package client

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metadataURL = "https://issuer.example/.well-known/openid-credential-issuer"

func TestCachingRoundTripper_RoundTrip(t *testing.T) {
	const metadata = `{"credential_issuer":"https://issuer.example"}`
	t.Run("GET response with max-age is served from cache", func(t *testing.T) {
		issuer := &stubIssuer{status: http.StatusOK, cacheControl: "max-age=3600"}
		sut := NewCachingTransport(issuer, 1000)

		first := roundTrip(t, sut, http.MethodGet, metadataURL)
		second := roundTrip(t, sut, http.MethodGet, metadataURL)

		assert.Equal(t, metadataURL, first)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, issuer.calls)
		assert.Equal(t, len(metadataURL), sut.currentSizeBytes)
	})
	t.Run("cached response keeps status and headers", func(t *testing.T) {
		issuer := &stubIssuer{status: http.StatusCreated, cacheControl: "max-age=3600", body: metadata}
		sut := NewCachingTransport(issuer, 1000)
		_ = roundTrip(t, sut, http.MethodGet, metadataURL)

		response, err := sut.RoundTrip(request(http.MethodGet, metadataURL))

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, response.StatusCode)
		assert.Equal(t, "max-age=3600", response.Header.Get("Cache-Control"))
		assert.Equal(t, 1, issuer.calls)
	})
	t.Run("POST is never cached", func(t *testing.T) {
		issuer := &stubIssuer{status: http.StatusOK, cacheControl: "public, max-age=3600"}
		sut := NewCachingTransport(issuer, 1000)

		_ = roundTrip(t, sut, http.MethodPost, metadataURL)

		assert.Zero(t, sut.currentSizeBytes)
		assert.Zero(t, sut.cache.ItemCount())
	})
	t.Run("no-store is not cached", func(t *testing.T) {
		sut := NewCachingTransport(&stubIssuer{status: http.StatusOK, cacheControl: "no-store"}, 1000)

		_ = roundTrip(t, sut, http.MethodGet, metadataURL)

		assert.Zero(t, sut.cache.ItemCount())
	})
	t.Run("cache time is capped", func(t *testing.T) {
		sut := NewCachingTransport(&stubIssuer{status: http.StatusOK, cacheControl: "max-age=86400"}, 1000)

		_ = roundTrip(t, sut, http.MethodGet, metadataURL)

		_, expiration, found := sut.cache.GetWithExpiration(metadataURL)
		require.True(t, found)
		assert.LessOrEqual(t, time.Until(expiration), maxCacheTime)
	})
	t.Run("query is part of the cache key", func(t *testing.T) {
		issuer := &stubIssuer{status: http.StatusOK, cacheControl: "max-age=3600"}
		sut := NewCachingTransport(issuer, 1000)
		other := metadataURL + "?lang=nl"

		for i := 0; i < 2; i++ {
			assert.Equal(t, metadataURL, roundTrip(t, sut, http.MethodGet, metadataURL))
			assert.Equal(t, other, roundTrip(t, sut, http.MethodGet, other))
		}
		assert.Equal(t, 2, issuer.calls)
	})
	t.Run("response larger than the cache is returned but not cached", func(t *testing.T) {
		sut := NewCachingTransport(&stubIssuer{status: http.StatusOK, cacheControl: "max-age=3600", body: metadata}, 5)

		assert.Equal(t, metadata, roundTrip(t, sut, http.MethodGet, metadataURL))
		assert.Zero(t, sut.currentSizeBytes)
	})
	t.Run("eviction releases the reserved size", func(t *testing.T) {
		sut := NewCachingTransport(&stubIssuer{status: http.StatusOK, cacheControl: "max-age=3600", body: metadata}, 1000)
		_ = roundTrip(t, sut, http.MethodGet, metadataURL)
		require.Equal(t, len(metadata), sut.currentSizeBytes)

		sut.cache.Delete(metadataURL)

		assert.Zero(t, sut.currentSizeBytes)
	})
}

func request(method string, rawURL string) *http.Request {
	u, _ := url.Parse(rawURL)
	return &http.Request{Method: method, URL: u, Header: http.Header{}}
}

func roundTrip(t *testing.T, rt http.RoundTripper, method string, rawURL string) string {
	t.Helper()
	response, err := rt.RoundTrip(request(method, rawURL))
	require.NoError(t, err)
	data, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	return string(data)
}

// stubIssuer responds with the given body, or the request URL if body is empty.
type stubIssuer struct {
	status       int
	cacheControl string
	body         string
	calls        int
}

func (s *stubIssuer) RoundTrip(req *http.Request) (*http.Response, error) {
	s.calls++
	body := s.body
	if body == "" {
		body = req.URL.String()
	}
	return &http.Response{
		StatusCode: s.status,
		Header:     http.Header{"Cache-Control": []string{s.cacheControl}},
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Request:    req,
	}, nil
}

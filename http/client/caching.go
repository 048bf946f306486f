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
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/nuts-foundation/nuts-wallet/http/log"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pquerna/cachecontrol"
)

// maxCacheTime is the maximum time responses are cached.
// Even if the server responds with a longer cache time, responses are never cached longer than maxCacheTime.
const maxCacheTime = time.Hour

var _ http.RoundTripper = &CachingRoundTripper{}

// NewCachingTransport creates a new CachingRoundTripper with the given underlying transport and cache size in bytes.
func NewCachingTransport(underlyingTransport http.RoundTripper, responsesCacheSize int) *CachingRoundTripper {
	result := &CachingRoundTripper{
		cache:            gocache.New(gocache.NoExpiration, 0),
		maxBytes:         responsesCacheSize,
		wrappedTransport: underlyingTransport,
	}
	result.cache.OnEvicted(func(_ string, value interface{}) {
		result.mux.Lock()
		defer result.mux.Unlock()
		result.currentSizeBytes -= len(value.(*cacheEntry).responseData)
	})
	return result
}

// CachingRoundTripper is a simple HTTP client cache for HTTP responses, used for issuer metadata and presentation definitions.
// It only caches GET requests (since for POST request caching, request bodies need to be cached as well),
// and only if the response is cacheable according to RFC 7234.
// It only works on expiration time and does not respect ETags headers.
// Responses that don't fit in the remaining cache size are not cached.
type CachingRoundTripper struct {
	cache            *gocache.Cache
	wrappedTransport http.RoundTripper
	maxBytes         int
	currentSizeBytes int
	mux              sync.Mutex
}

type cacheEntry struct {
	responseData    []byte
	responseStatus  int
	responseHeaders http.Header
}

func (r *CachingRoundTripper) RoundTrip(httpRequest *http.Request) (*http.Response, error) {
	if httpRequest.Method == http.MethodGet {
		if value, found := r.cache.Get(httpRequest.URL.String()); found {
			entry := value.(*cacheEntry)
			return &http.Response{
				StatusCode: entry.responseStatus,
				Header:     entry.responseHeaders.Clone(),
				Body:       io.NopCloser(bytes.NewReader(entry.responseData)),
				Request:    httpRequest,
			}, nil
		}
	}
	httpResponse, err := r.wrappedTransport.RoundTrip(httpRequest)
	if err != nil {
		return nil, err
	}
	err = r.cacheResponse(httpRequest, httpResponse)
	if err != nil {
		return nil, err
	}
	return httpResponse, nil
}

// cacheResponse caches the response if it's cacheable.
func (r *CachingRoundTripper) cacheResponse(httpRequest *http.Request, httpResponse *http.Response) error {
	if httpRequest.Method != http.MethodGet {
		return nil
	}
	reasons, expirationTime, err := cachecontrol.CachableResponse(httpRequest, httpResponse, cachecontrol.Options{PrivateCache: false})
	if err != nil {
		log.Logger().WithError(err).Infof("error while checking cacheability of response (url=%s), not caching", httpRequest.URL.String())
		return nil
	}
	if len(reasons) > 0 || expirationTime.IsZero() {
		log.Logger().Debugf("response (url=%s) is not cacheable: %v", httpRequest.URL.String(), reasons)
		return nil
	}
	ttl := time.Until(expirationTime)
	if ttl > maxCacheTime {
		ttl = maxCacheTime
	}
	if ttl <= 0 {
		return nil
	}
	responseBytes, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return fmt.Errorf("error while reading response body for caching: %w", err)
	}
	httpResponse.Body = io.NopCloser(bytes.NewReader(responseBytes))
	// an expired entry might still be present, remove it so its size is released
	r.cache.Delete(httpRequest.URL.String())
	if !r.reserve(len(responseBytes)) {
		log.Logger().Debugf("response (url=%s) does not fit in the cache", httpRequest.URL.String())
		return nil
	}
	r.cache.Set(httpRequest.URL.String(), &cacheEntry{
		responseData:    responseBytes,
		responseStatus:  httpResponse.StatusCode,
		responseHeaders: httpResponse.Header.Clone(),
	}, ttl)
	return nil
}

// reserve claims room for an entry of the given size, removing expired entries first when the cache is full.
func (r *CachingRoundTripper) reserve(size int) bool {
	r.mux.Lock()
	fits := r.currentSizeBytes+size <= r.maxBytes
	r.mux.Unlock()
	if !fits {
		r.cache.DeleteExpired()
	}
	r.mux.Lock()
	defer r.mux.Unlock()
	if r.currentSizeBytes+size > r.maxBytes {
		return false
	}
	r.currentSizeBytes += size
	return true
}

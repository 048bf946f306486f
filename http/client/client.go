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
	"crypto/tls"
	"errors"
	"net/http"
	"time"
)

func init() {
	httpTransport := http.DefaultTransport.(*http.Transport)
	if httpTransport.TLSClientConfig == nil {
		httpTransport.TLSClientConfig = &tls.Config{}
	}
	httpTransport.TLSClientConfig.MinVersion = tls.VersionTLS12
}

// StrictMode is a flag that can be set to true to enable strict mode for the HTTP client.
var StrictMode bool

// New creates a new HTTP client with the given timeout.
// If tlsConfig is given, it is used for outbound connections instead of the default TLS configuration.
// If cacheSize is larger than 0, GET responses are cached according to their Cache-Control headers.
func New(timeout time.Duration, tlsConfig *tls.Config, cacheSize int) *StrictHTTPClient {
	var transport http.RoundTripper = http.DefaultTransport
	if tlsConfig != nil {
		tlsTransport := http.DefaultTransport.(*http.Transport).Clone()
		tlsTransport.TLSClientConfig = tlsConfig
		transport = tlsTransport
	}
	if cacheSize > 0 {
		transport = NewCachingTransport(transport, cacheSize)
	}
	return &StrictHTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// StrictHTTPClient is an HTTP client that refuses plain HTTP requests when StrictMode is enabled.
type StrictHTTPClient struct {
	client *http.Client
}

func (s *StrictHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if StrictMode && req.URL.Scheme != "https" {
		return nil, errors.New("strictmode is enabled, but request is not over HTTPS")
	}
	return s.client.Do(req)
}

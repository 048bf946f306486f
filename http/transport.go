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

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nuts-foundation/nuts-wallet/core"
)

// ErrNetwork is returned when a remote server can't be reached or responds with an unexpected status code.
var ErrNetwork = errors.New("network error")

// maxResponseSize limits the size of responses read from remote servers.
const maxResponseSize = 10 * 1024 * 1024

// Response is the response of a remote server, as returned by a Transport.
type Response struct {
	Data    []byte      `json:"data"`
	Headers http.Header `json:"headers"`
	Status  int         `json:"status"`
}

// Success returns nil if the response has a 2xx status code.
// Otherwise, it returns ErrNetwork wrapping a core.HttpError which contains the status code and response body.
func (r Response) Success() error {
	if r.Status >= 200 && r.Status < 300 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrNetwork, core.TestStatusCode(http.StatusOK, r.Status, r.Data))
}

// Unmarshal parses the response body as JSON into the given target.
func (r Response) Unmarshal(target interface{}) error {
	if err := json.Unmarshal(r.Data, target); err != nil {
		return fmt.Errorf("unable to unmarshal response: %w, %s", err, string(r.Data))
	}
	return nil
}

// Transport performs outbound HTTP calls to issuers and verifiers.
// All outbound traffic of the wallet goes through a Transport, so it can be mediated by a wallet backend.
type Transport interface {
	// Get performs a GET request to the given URL.
	Get(ctx context.Context, url string, headers http.Header) (*Response, error)
	// Post performs a POST request to the given URL with the given body. The content type must be set through headers.
	Post(ctx context.Context, url string, body []byte, headers http.Header) (*Response, error)
}

var _ Transport = (*DirectTransport)(nil)

// NewDirectTransport creates a Transport that calls remote servers directly with the given HTTP client.
func NewDirectTransport(client core.HTTPRequestDoer) *DirectTransport {
	return &DirectTransport{client: client}
}

// DirectTransport is a Transport that performs the HTTP calls itself.
type DirectTransport struct {
	client core.HTTPRequestDoer
}

func (d DirectTransport) Get(ctx context.Context, url string, headers http.Header) (*Response, error) {
	return d.do(ctx, http.MethodGet, url, nil, headers)
}

func (d DirectTransport) Post(ctx context.Context, url string, body []byte, headers http.Header) (*Response, error) {
	return d.do(ctx, http.MethodPost, url, body, headers)
}

func (d DirectTransport) do(ctx context.Context, method string, url string, body []byte, headers http.Header) (*Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	request, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	for key, values := range headers {
		for _, value := range values {
			request.Header.Add(key, value)
		}
	}
	request.Header.Set("User-Agent", core.UserAgent())
	response, err := d.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, url, err)
	}
	defer response.Body.Close()
	data, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read response of %s %s: %w", ErrNetwork, method, url, err)
	}
	if len(data) > maxResponseSize {
		return nil, fmt.Errorf("%w: response of %s %s exceeds max. size of %d bytes", ErrNetwork, method, url, maxResponseSize)
	}
	return &Response{
		Data:    data,
		Headers: response.Header,
		Status:  response.StatusCode,
	}, nil
}

var _ Transport = (*ProxyTransport)(nil)

// NewProxyTransport creates a Transport that relays all calls through the /proxy endpoint of a wallet backend.
func NewProxyTransport(client core.HTTPRequestDoer, backendURL string, token string) *ProxyTransport {
	return &ProxyTransport{
		direct:   NewDirectTransport(client),
		proxyURL: core.JoinURLPaths(backendURL, ProxyPath),
		token:    token,
	}
}

// ProxyTransport is a Transport that asks a wallet backend to perform the HTTP calls.
type ProxyTransport struct {
	direct   *DirectTransport
	proxyURL string
	token    string
}

// ProxyRequest is the request body of the /proxy endpoint.
type ProxyRequest struct {
	URL     string      `json:"url"`
	Method  string      `json:"method"`
	Headers http.Header `json:"headers,omitempty"`
	Data    string      `json:"data,omitempty"`
}

// ProxyResponse is the response body of the /proxy endpoint.
// Data contains the upstream response body as JSON value if it was JSON, otherwise as JSON string.
type ProxyResponse struct {
	Data    json.RawMessage `json:"data,omitempty"`
	Headers http.Header     `json:"headers"`
	Status  int             `json:"status"`
}

func (p ProxyTransport) Get(ctx context.Context, url string, headers http.Header) (*Response, error) {
	return p.do(ctx, ProxyRequest{URL: url, Method: http.MethodGet, Headers: headers})
}

func (p ProxyTransport) Post(ctx context.Context, url string, body []byte, headers http.Header) (*Response, error) {
	return p.do(ctx, ProxyRequest{URL: url, Method: http.MethodPost, Headers: headers, Data: string(body)})
}

func (p ProxyTransport) do(ctx context.Context, proxyRequest ProxyRequest) (*Response, error) {
	requestBody, _ := json.Marshal(proxyRequest)
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Authorization", "Bearer "+p.token)
	response, err := p.direct.Post(ctx, p.proxyURL, requestBody, headers)
	if err != nil {
		return nil, err
	}
	if err = response.Success(); err != nil {
		return nil, fmt.Errorf("proxy call to %s failed: %w", proxyRequest.URL, err)
	}
	var proxyResponse ProxyResponse
	if err = response.Unmarshal(&proxyResponse); err != nil {
		return nil, fmt.Errorf("%w: invalid proxy response: %w", ErrNetwork, err)
	}
	return &Response{
		Data:    proxyResponse.body(),
		Headers: proxyResponse.Headers,
		Status:  proxyResponse.Status,
	}, nil
}

// body returns the upstream response body. JSON strings are unquoted, other JSON values are returned as-is.
func (p ProxyResponse) body() []byte {
	trimmed := bytes.TrimSpace(p.Data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var value string
		if err := json.Unmarshal(trimmed, &value); err == nil {
			return []byte(value)
		}
	}
	return trimmed
}

// newProxyResponse creates the response of the /proxy endpoint for the given upstream response.
func newProxyResponse(upstream *Response) ProxyResponse {
	result := ProxyResponse{
		Headers: upstream.Headers,
		Status:  upstream.Status,
	}
	if isJSON(upstream) {
		result.Data = upstream.Data
	} else if len(upstream.Data) > 0 {
		result.Data, _ = json.Marshal(string(upstream.Data))
	}
	return result
}

func isJSON(response *Response) bool {
	contentType := strings.ToLower(response.Headers.Get("Content-Type"))
	return strings.Contains(contentType, "json") && json.Valid(response.Data)
}

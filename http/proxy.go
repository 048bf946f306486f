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
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nuts-foundation/nuts-wallet/audit"
	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/nuts-foundation/nuts-wallet/http/log"
	"github.com/prometheus/client_golang/prometheus"
)

// ProxyPath is the path of the endpoint that relays calls of browser based wallets to issuers and verifiers.
const ProxyPath = "/proxy"

var proxyRequestsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: core.MetricsNamespace,
	Subsystem: "http",
	Name:      "proxy_requests_total",
	Help:      "Number of calls relayed by the wallet proxy, by HTTP method and upstream status code.",
}, []string{"method", "status"})

// hopHeaders are not relayed, since they apply to a single connection or are set by the transport.
var hopHeaders = []string{"Connection", "Content-Length", "Host", "Keep-Alive", "Transfer-Encoding", "Upgrade"}

// handleProxy performs the call described by the ProxyRequest and returns the upstream response as ProxyResponse.
func (h *Engine) handleProxy(c echo.Context) error {
	c.Set(core.OperationIDContextKey, "proxy")
	audit.Middleware(c, "HTTP", "proxy")
	var request ProxyRequest
	if err := c.Bind(&request); err != nil {
		return core.InvalidInputError("invalid proxy request: %w", err)
	}
	if _, err := core.ParsePublicURL(request.URL, h.strictmode); err != nil {
		return core.InvalidInputError("invalid proxy URL: %w", err)
	}
	headers := request.Headers.Clone()
	for _, header := range hopHeaders {
		headers.Del(header)
	}

	ctx := c.Request().Context()
	var upstream *Response
	var err error
	switch strings.ToUpper(request.Method) {
	case http.MethodGet:
		upstream, err = h.direct.Get(ctx, request.URL, headers)
	case http.MethodPost:
		upstream, err = h.direct.Post(ctx, request.URL, []byte(request.Data), headers)
	default:
		return core.InvalidInputError("unsupported proxy method: %s", request.Method)
	}
	if err != nil {
		proxyRequestsCounter.WithLabelValues(request.Method, "error").Inc()
		log.Logger().WithError(err).Warnf("Proxied call failed (url=%s)", request.URL)
		return core.Error(http.StatusBadGateway, "upstream call failed: %w", err)
	}
	proxyRequestsCounter.WithLabelValues(request.Method, strconv.Itoa(upstream.Status)).Inc()
	audit.Log(ctx, log.Logger(), audit.ProxyRequestEvent).
		Infof("Relayed %s %s (status=%d)", strings.ToUpper(request.Method), request.URL, upstream.Status)
	return c.JSON(http.StatusOK, newProxyResponse(upstream))
}

// bearerTokenMiddleware only allows requests that present the given token in the Authorization header.
func bearerTokenMiddleware(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			presented, found := strings.CutPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
			if !found || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid bearer token")
			}
			c.Set(core.UserContextKey, "proxy")
			return next(c)
		}
	}
}

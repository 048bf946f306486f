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
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/nuts-foundation/nuts-wallet/http/cache"
	"github.com/nuts-foundation/nuts-wallet/http/client"
	"github.com/nuts-foundation/nuts-wallet/http/log"
)

const moduleName = "HTTP"

// New returns a new HTTP engine. The callback is called when the HTTP interface shuts down unexpectedly.
func New(serverShutdownCb func()) *Engine {
	return &Engine{
		serverShutdownCb: serverShutdownCb,
		config:           DefaultConfig(),
	}
}

// Engine is the HTTP engine. It serves the wallet backend endpoints (/proxy, /metrics)
// and provides the Transport used for outbound calls to issuers and verifiers.
type Engine struct {
	server           *echo.Echo
	serverShutdownCb func()
	config           Config
	strictmode       bool
	transport        Transport
	direct           *DirectTransport
}

// Router returns the router of the HTTP engine, which can be used by other engines to register HTTP handlers.
func (h *Engine) Router() core.EchoRouter {
	return h.server
}

// Transport returns the Transport for outbound calls: a ProxyTransport if a wallet backend is configured,
// a DirectTransport otherwise.
func (h *Engine) Transport() Transport {
	return h.transport
}

// Configure loads the configuration for the HTTP engine.
func (h *Engine) Configure(serverConfig core.ServerConfig) error {
	h.strictmode = serverConfig.Strictmode
	client.StrictMode = serverConfig.Strictmode
	tlsConfig, err := serverConfig.TLS.Load()
	if err != nil {
		return err
	}
	httpClient := client.New(serverConfig.HTTPClient.Timeout, tlsConfig, h.config.Client.CacheSize)
	h.direct = NewDirectTransport(httpClient)
	h.transport = h.direct
	if h.config.Client.ProxyURL != "" {
		if _, err := core.ParsePublicURL(h.config.Client.ProxyURL, serverConfig.Strictmode); err != nil {
			return fmt.Errorf("invalid http.client.proxyurl: %w", err)
		}
		log.Logger().Infof("Relaying outbound HTTP calls through wallet backend: %s", h.config.Client.ProxyURL)
		h.transport = NewProxyTransport(httpClient, h.config.Client.ProxyURL, h.config.Client.ProxyToken)
	}

	h.server = h.createEchoServer()
	if err = h.applyMiddleware(h.server, serverConfig); err != nil {
		return err
	}
	if h.config.Proxy.Enabled {
		if h.config.Proxy.Token == "" {
			return errors.New("http.proxy.token must be configured when the proxy is enabled")
		}
		if err = core.RegisterCollectors(proxyRequestsCounter); err != nil {
			return err
		}
		log.Logger().Infof("Enabling wallet proxy endpoint: %s%s", h.config.Address, ProxyPath)
		h.server.POST(ProxyPath, h.handleProxy,
			cache.NoStore(ProxyPath).Handle,
			bearerTokenMiddleware(h.config.Proxy.Token),
			newRateLimiter(map[string][]string{http.MethodPost: {ProxyPath}}, h.config.Proxy.RateLimit),
		)
	}
	return nil
}

func (h *Engine) createEchoServer() *echo.Echo {
	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true

	// ErrorHandler
	echoServer.HTTPErrorHandler = core.CreateHTTPErrorHandler()

	// Reverse proxies must set the X-Forwarded-For header to the original client IP.
	echoServer.IPExtractor = echo.ExtractIPFromXFFHeader()
	return echoServer
}

// Name returns the name of the engine.
func (h *Engine) Name() string {
	return moduleName
}

// ConfigKey returns the config key of the engine.
func (h *Engine) ConfigKey() string {
	return "http"
}

// Config returns the configuration of the HTTP engine.
func (h *Engine) Config() interface{} {
	return &h.config
}

// Start starts the HTTP engine.
func (h *Engine) Start() error {
	go func(server *echo.Echo, address string, cancel func()) {
		if err := server.Start(address); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				log.Logger().
					WithError(err).
					Error("HTTP server stopped due to error")
			}
		}
		cancel()
	}(h.server, h.config.Address, h.serverShutdownCb)
	return nil
}

// Shutdown shuts down the HTTP engine.
func (h *Engine) Shutdown() error {
	return h.server.Shutdown(context.Background())
}

// matchesPath checks whether the request URI path hierarchically matches the given path.
// Examples:
// /metrics matches /metrics
// /metrics/ matches /metrics
// /proxy does not match /metrics
func matchesPath(requestURI string, path string) bool {
	if path == "/" {
		return true
	}
	if !strings.HasSuffix(requestURI, "/") {
		requestURI += "/"
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return requestURI == path || strings.HasPrefix(requestURI, path)
}

func (h *Engine) applyMiddleware(echoServer *echo.Echo, serverConfig core.ServerConfig) error {
	// Logging
	loggerSkipper := func(c echo.Context) bool {
		// skip logging for calls to /metrics, /status, and /health
		for _, excludePath := range []string{"/metrics", "/status", "/health"} {
			if matchesPath(c.Request().RequestURI, excludePath) {
				return true
			}
		}
		return false
	}
	if h.config.Log != LogNothingLevel {
		// Log when level is set to LogMetadataLevel or LogMetadataAndBodyLevel
		echoServer.Use(requestLoggerMiddleware(loggerSkipper, log.Logger()))
	}
	if h.config.Log == LogMetadataAndBodyLevel {
		echoServer.Use(bodyLoggerMiddleware(loggerSkipper, log.Logger()))
	}

	// CORS
	if h.config.CORS.Enabled() {
		log.Logger().Infof("Enabling CORS for HTTP interface: %s", h.config.Address)
		if serverConfig.Strictmode {
			for _, origin := range h.config.CORS.Origin {
				if strings.TrimSpace(origin) == "*" {
					return errors.New("wildcard CORS origin is not allowed in strict mode")
				}
			}
		}
		echoServer.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: h.config.CORS.Origin}))
	}
	return nil
}

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

import "time"

// DefaultConfig returns the default configuration for the HTTP engine.
func DefaultConfig() Config {
	return Config{
		Address: ":8080",
		Log:     LogMetadataLevel,
		Proxy: ProxyConfig{
			RateLimit: RateLimitConfig{
				Interval: time.Minute,
				Limit:    600,
				Burst:    60,
			},
		},
		Client: ClientConfig{
			CacheSize: 10 * 1024 * 1024,
		},
	}
}

// Config is the top-level config struct for the HTTP engine.
type Config struct {
	// Address holds the interface address the HTTP service must be bound to, in the format of `interface:port` (e.g. localhost:5555).
	Address string `koanf:"address"`
	// CORS holds the configuration for Cross Origin Resource Sharing.
	CORS CORSConfig `koanf:"cors"`
	// Log specifies what should be logged of HTTP requests.
	Log LogLevel `koanf:"log"`
	// Proxy configures the /proxy endpoint, which relays calls of browser based wallets to issuers and verifiers.
	Proxy ProxyConfig `koanf:"proxy"`
	// Client configures outbound HTTP calls to issuers and verifiers.
	Client ClientConfig `koanf:"client"`
}

// ProxyConfig contains the configuration of the /proxy endpoint.
type ProxyConfig struct {
	// Enabled specifies whether the /proxy endpoint is served.
	Enabled bool `koanf:"enabled"`
	// Token is the bearer token callers of the /proxy endpoint must present.
	Token string `koanf:"token"`
	// RateLimit limits the number of proxied calls.
	RateLimit RateLimitConfig `koanf:"ratelimit"`
}

// RateLimitConfig specifies a token bucket: Limit requests per Interval, with bursts of Burst requests.
type RateLimitConfig struct {
	Interval time.Duration `koanf:"interval"`
	Limit    int           `koanf:"limit"`
	Burst    int           `koanf:"burst"`
}

// ClientConfig contains the configuration for outbound HTTP calls.
type ClientConfig struct {
	// ProxyURL is the base URL of a wallet backend. If set, outbound calls are relayed through its /proxy endpoint.
	ProxyURL string `koanf:"proxyurl"`
	// ProxyToken is the bearer token presented to the wallet backend's /proxy endpoint.
	ProxyToken string `koanf:"proxytoken"`
	// CacheSize is the maximum size in bytes of cached responses (e.g. issuer metadata). 0 disables caching.
	CacheSize int `koanf:"cachesize"`
}

// LogLevel specifies what to log for incoming/outgoing HTTP traffic.
type LogLevel string

const (
	// LogNothingLevel indicates nothing will be logged for incoming/outgoing HTTP traffic.
	LogNothingLevel LogLevel = "nothing"
	// LogMetadataLevel indicates that only metadata (HTTP URI, method, response code, etc) will be logged for incoming/outgoing HTTP traffic.
	LogMetadataLevel LogLevel = "metadata"
	// LogMetadataAndBodyLevel indicates that metadata and full request/reply bodies will be logged for incoming/outgoing HTTP traffic.
	LogMetadataAndBodyLevel LogLevel = "metadata-and-body"
)

// CORSConfig contains configuration for Cross Origin Resource Sharing.
type CORSConfig struct {
	// Origin specifies the AllowOrigin option. If no origins are given CORS is considered to be disabled.
	Origin []string `koanf:"origin"`
}

// Enabled returns whether CORS is enabled according to this configuration.
func (cors CORSConfig) Enabled() bool {
	return len(cors.Origin) > 0
}

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

package core

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// ServerConfig holds the settings shared by all engines. Engine specific config is injected using InjectIntoEngine.
type ServerConfig struct {
	Verbosity    string           `koanf:"verbosity"`
	LoggerFormat string           `koanf:"loggerformat"`
	Strictmode   bool             `koanf:"strictmode"`
	Datadir      string           `koanf:"datadir"`
	HTTPClient   HTTPClientConfig `koanf:"httpclient"`
	TLS          TLSConfig        `koanf:"tls"`
	configMap    *koanf.Koanf
}

// HTTPClientConfig contains settings for outbound HTTP calls to issuers and verifiers.
type HTTPClientConfig struct {
	// Timeout specifies the maximum duration of a single outbound HTTP request.
	Timeout time.Duration `koanf:"timeout"`
}

// TLSConfig specifies the client certificate and trusted CAs for outbound connections.
type TLSConfig struct {
	CertFile       string `koanf:"certfile"`
	CertKeyFile    string `koanf:"certkeyfile"`
	TrustStoreFile string `koanf:"truststorefile"`
}

// Enabled returns true when a client certificate is configured.
func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" || t.CertKeyFile != ""
}

// Load creates the tls.Config for outbound connections. It returns nil if no client certificate is configured.
func (t TLSConfig) Load() (*tls.Config, error) {
	if !t.Enabled() {
		return nil, nil
	}
	if t.CertFile == "" || t.CertKeyFile == "" || t.TrustStoreFile == "" {
		return nil, errors.New("tls.certfile, tls.certkeyfile and tls.truststorefile must be configured when TLS is enabled")
	}
	certificate, err := tls.LoadX509KeyPair(t.CertFile, t.CertKeyFile)
	if err != nil {
		return nil, err
	}
	trustStore, err := LoadTrustStore(t.TrustStoreFile)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		MinVersion:   MinTLSVersion,
		Certificates: []tls.Certificate{certificate},
		RootCAs:      trustStore.CertPool,
	}, nil
}

// NewServerConfig creates an empty ServerConfig, to be populated by Load.
func NewServerConfig() *ServerConfig {
	return &ServerConfig{configMap: koanf.New(keyDelimiter)}
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		Verbosity:    "info",
		LoggerFormat: "text",
		Datadir:      "./data",
		HTTPClient:   HTTPClientConfig{Timeout: 30 * time.Second},
	}
}

// FlagSet returns the flags of the server config.
func FlagSet() *pflag.FlagSet {
	defs := defaultServerConfig()
	flagSet := pflag.NewFlagSet("server", pflag.ContinueOnError)
	flagSet.String(configFileFlag, defaultConfigFile, "Nuts config file")
	flagSet.String("verbosity", defs.Verbosity, "Log level (trace, debug, info, warn, error)")
	flagSet.String("loggerformat", defs.LoggerFormat, "Log format (text, json)")
	flagSet.Bool("strictmode", defs.Strictmode, "When set, insecure settings are forbidden.")
	flagSet.String("datadir", defs.Datadir, "Directory where the wallet stores its files.")
	flagSet.Duration("httpclient.timeout", defs.HTTPClient.Timeout, "Request time-out for HTTP clients calling issuers and verifiers.")
	flagSet.String("tls.certfile", "", "PEM file containing the client certificate for outbound connections.")
	flagSet.String("tls.certkeyfile", "", "PEM file containing the private key of the client certificate.")
	flagSet.String("tls.truststorefile", "", "PEM file containing the trusted CA certificates for authenticating remote servers.")
	return flagSet
}

// Load reads the config from its sources (see configSources) and configures the global logger accordingly.
func (c *ServerConfig) Load(flags *pflag.FlagSet) error {
	if err := (configSources{defaults: defaultServerConfig(), flags: flags}).load(c.configMap); err != nil {
		return err
	}
	if err := c.configMap.UnmarshalWithConf("", c, koanf.UnmarshalConf{}); err != nil {
		return err
	}
	level, err := logrus.ParseLevel(c.Verbosity)
	if err != nil {
		return err
	}
	var formatter logrus.Formatter
	switch c.LoggerFormat {
	case "text":
		formatter = &logrus.TextFormatter{}
	case "json":
		formatter = &logrus.JSONFormatter{}
	default:
		return fmt.Errorf("invalid formatter: '%s'", c.LoggerFormat)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(formatter)
	return nil
}

// PrintConfig returns all loaded config as "key -> value" lines.
func (c *ServerConfig) PrintConfig() string {
	return c.configMap.Sprint()
}

// InjectIntoEngine decodes the engine's section of the loaded config into the engine's config struct.
func (c *ServerConfig) InjectIntoEngine(e Injectable) error {
	key := strings.ToLower(e.ConfigKey())
	if err := c.configMap.UnmarshalWithConf(key, e.Config(), koanf.UnmarshalConf{}); err != nil {
		return fmt.Errorf("invalid config for %s: %w", key, err)
	}
	return nil
}

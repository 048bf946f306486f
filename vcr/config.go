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

package vcr

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/nuts-foundation/nuts-wallet/vcr/openid4vci"
	"github.com/nuts-foundation/nuts-wallet/vcr/openid4vp"
)

// ModuleName is the name of this module.
const ModuleName = "VCR"

// Config holds the config for the vcr engine
type Config struct {
	// Issuers is the list of trusted credential issuers.
	Issuers []openid4vci.IssuerConfig `koanf:"issuers"`
	// IssuersB64U is the list of trusted credential issuers as base64url encoded JSON array.
	// It's added to Issuers, which makes it possible to configure issuers through a single environment variable.
	IssuersB64U string `koanf:"issuersb64u"`
	// RedirectURI is the URI the authorization server redirects the user-agent to after authorization.
	RedirectURI string `koanf:"redirecturi"`
	// TrustAnchors holds the root certificates credentials and request objects are verified against.
	TrustAnchors TrustAnchorsConfig `koanf:"trustanchors"`
	// OpenID4VCI holds the settings of the issuance clients.
	OpenID4VCI OpenID4VCIConfig `koanf:"openid4vci"`
	// OpenID4VP holds the settings of the presentation relying party.
	OpenID4VP openid4vp.Config `koanf:"openid4vp"`
}

// TrustAnchorsConfig specifies where to load the trust anchors from. Both sources are combined.
type TrustAnchorsConfig struct {
	// File is a PEM file containing one or more certificates.
	File string `koanf:"file"`
	// B64U is a base64url encoded JSON array of PEM encoded certificates.
	B64U string `koanf:"b64u"`
}

// OpenID4VCIConfig holds the settings of the issuance clients.
type OpenID4VCIConfig struct {
	// FlowTTL is the maximum time an issuance flow state is kept.
	FlowTTL time.Duration `koanf:"flowttl"`
	// CleanupInterval is the interval at which expired issuance flow states are removed.
	CleanupInterval time.Duration `koanf:"cleanupinterval"`
}

// DefaultConfig returns a fresh Config filled with default values
func DefaultConfig() Config {
	return Config{
		OpenID4VCI: OpenID4VCIConfig{
			FlowTTL:         time.Hour,
			CleanupInterval: 5 * time.Minute,
		},
	}
}

// allIssuers returns the configured issuers followed by the ones from IssuersB64U.
func (c Config) allIssuers() ([]openid4vci.IssuerConfig, error) {
	result := append([]openid4vci.IssuerConfig{}, c.Issuers...)
	if strings.TrimSpace(c.IssuersB64U) == "" {
		return result, nil
	}
	var encoded []openid4vci.IssuerConfig
	if err := decodeB64UJSON(c.IssuersB64U, &encoded); err != nil {
		return nil, fmt.Errorf("invalid vcr.issuersb64u: %w", err)
	}
	return append(result, encoded...), nil
}

// load reads the trust anchors from the configured sources. Without sources the trust store is empty.
func (c TrustAnchorsConfig) load() (*core.TrustStore, error) {
	var certificates []*x509.Certificate
	if c.File != "" {
		fromFile, err := core.LoadTrustStore(c.File)
		if err != nil {
			return nil, err
		}
		certificates = append(certificates, fromFile.Certificates()...)
	}
	if strings.TrimSpace(c.B64U) != "" {
		var pems []string
		if err := decodeB64UJSON(c.B64U, &pems); err != nil {
			return nil, fmt.Errorf("invalid vcr.trustanchors.b64u: %w", err)
		}
		for i, pem := range pems {
			parsed, err := core.ParseCertificates([]byte(pem))
			if err != nil {
				return nil, fmt.Errorf("invalid vcr.trustanchors.b64u (index=%d): %w", i, err)
			}
			certificates = append(certificates, parsed...)
		}
	}
	return core.NewTrustStore(certificates), nil
}

// decodeB64UJSON decodes base64url (with or without padding) encoded JSON into target.
func decodeB64UJSON(value string, target interface{}) error {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(value), "="))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

/*
 * Nuts node
 * Copyright (C) 2023 Nuts community
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
	"errors"
	"net"
	"net/url"
	"strings"
)

// JoinURLPaths joins a base URL and path segments with exactly one slash between them, skipping empty segments.
// Unlike path.Join it leaves the rest of the URL (e.g. "https://") untouched.
func JoinURLPaths(parts ...string) string {
	if len(parts) == 0 {
		return ""
	}
	result := parts[0]
	for i := 1; i < len(parts); i++ {
		if parts[i] == "" {
			continue
		}
		result = strings.TrimSuffix(result, "/") + "/" + strings.TrimPrefix(parts[i], "/")
	}
	return result
}

// DisplayName returns the host of the given identifier if it is an absolute URL, otherwise the identifier itself.
func DisplayName(identifier string) string {
	parsed, err := url.Parse(identifier)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return identifier
	}
	return parsed.Hostname()
}

// ParsePublicURL parses the URL of an issuer, verifier or proxy, which must be absolute.
// In strict mode the URL must also use https and a public domain name: IP addresses and reserved domains are rejected.
func ParsePublicURL(input string, strictmode bool) (*url.URL, error) {
	if !strings.Contains(input, "://") {
		return nil, errors.New("URL missing scheme")
	}
	parsed, err := url.Parse(input)
	if err != nil || !strictmode {
		return parsed, err
	}
	hostname := strings.ToLower(parsed.Hostname())
	switch {
	case parsed.Scheme != "https":
		return nil, errors.New("scheme must be https")
	case net.ParseIP(hostname) != nil:
		return nil, errors.New("hostname is IP")
	case isReservedDomain(hostname):
		return nil, errors.New("hostname is reserved")
	}
	return parsed, nil
}

// reservedTLDs are top-level domains that can't be resolved publicly (RFC 2606, RFC 6761 and common private ones).
// The empty TLD matches hostnames without a domain.
var reservedTLDs = map[string]bool{
	"": true, "corp": true, "example": true, "home": true, "host": true, "invalid": true,
	"lan": true, "local": true, "localdomain": true, "localhost": true, "test": true,
}

var reservedDomains = map[string]bool{"example.com": true, "example.net": true, "example.org": true}

func isReservedDomain(hostname string) bool {
	labels := strings.Split(hostname, ".")
	if reservedTLDs[labels[len(labels)-1]] {
		return true
	}
	return len(labels) > 1 && reservedDomains[strings.Join(labels[len(labels)-2:], ".")]
}

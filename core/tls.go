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
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"
)

// MinTLSVersion defines the minimal TLS version used by all components that use TLS
const MinTLSVersion uint16 = tls.VersionTLS12

// ParseCertificates parses all PEM encoded certificates in the given data. Other PEM blocks are skipped.
func ParseCertificates(data []byte) (certificates []*x509.Certificate, _ error) {
	for len(data) > 0 {
		var block *pem.Block

		block, data = pem.Decode(data)
		if block == nil {
			return nil, fmt.Errorf("unable to decode PEM encoded data")
		}

		if block.Type != "CERTIFICATE" {
			continue
		}

		certificate, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("unable to parse certificate: %w", err)
		}

		certificates = append(certificates, certificate)
	}

	return
}

// TrustStore holds a set of trusted (root) certificates.
type TrustStore struct {
	CertPool     *x509.CertPool
	certificates []*x509.Certificate
}

// Certificates returns the certificates in the trust store.
func (store *TrustStore) Certificates() []*x509.Certificate {
	return store.certificates[:]
}

// VerifyChain verifies the given certificate chain (leaf first) against the trust store.
// Certificates after the leaf are used as intermediates.
func (store *TrustStore) VerifyChain(chain []*x509.Certificate, at time.Time) error {
	if len(chain) == 0 {
		return errors.New("empty certificate chain")
	}
	if len(store.certificates) == 0 {
		return errors.New("no trust anchors configured")
	}
	intermediates := x509.NewCertPool()
	for _, certificate := range chain[1:] {
		intermediates.AddCert(certificate)
	}
	_, err := chain[0].Verify(x509.VerifyOptions{
		Roots:         store.CertPool,
		Intermediates: intermediates,
		CurrentTime:   at,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	return err
}

// NewTrustStore creates a trust store from the given certificates.
func NewTrustStore(certificates []*x509.Certificate) *TrustStore {
	certPool := x509.NewCertPool()
	for _, certificate := range certificates {
		certPool.AddCert(certificate)
	}
	return &TrustStore{
		CertPool:     certPool,
		certificates: certificates,
	}
}

// LoadTrustStore creates a x509 certificate pool based on a truststore file
func LoadTrustStore(trustStoreFile string) (*TrustStore, error) {
	data, err := os.ReadFile(trustStoreFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read trust store (file=%s): %w", trustStoreFile, err)
	}

	certificates, err := ParseCertificates(data)
	if err != nil {
		return nil, err
	}

	return NewTrustStore(certificates), nil
}

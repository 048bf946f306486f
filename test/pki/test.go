/*
 * Nuts node
 * Copyright (C) 2025 Nuts community
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

package pki

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/cert"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/nuts-foundation/nuts-wallet/test/io"
)

// IssuerPKI is a test PKI: a self-signed root CA and a leaf certificate that can be used to sign credentials.
type IssuerPKI struct {
	Root    *x509.Certificate
	RootKey *ecdsa.PrivateKey
	Leaf    *x509.Certificate
	LeafKey *ecdsa.PrivateKey
}

// Chain returns the leaf certificate followed by the root certificate.
func (p IssuerPKI) Chain() []*x509.Certificate {
	return []*x509.Certificate{p.Leaf, p.Root}
}

// ChainDER returns the DER encoded chain, leaf first.
func (p IssuerPKI) ChainDER() [][]byte {
	return [][]byte{p.Leaf.Raw, p.Root.Raw}
}

// RootPEM returns the PEM encoded root certificate.
func (p IssuerPKI) RootPEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: p.Root.Raw})
}

// TruststoreFile writes the root certificate to a PEM file and returns its path.
func (p IssuerPKI) TruststoreFile(t *testing.T) string {
	return io.TestFile(t, "truststore.pem", p.RootPEM())
}

// X5C returns the chain as JOSE x5c header value.
func (p IssuerPKI) X5C() *cert.Chain {
	chain := &cert.Chain{}
	for _, der := range p.ChainDER() {
		_ = chain.AddString(base64.StdEncoding.EncodeToString(der))
	}
	return chain
}

// SignJWS signs the payload with the leaf key (ES256), adding the x5c header and the given extra headers.
func (p IssuerPKI) SignJWS(t *testing.T, headers map[string]interface{}, payload []byte) string {
	hdrs := jws.NewHeaders()
	if err := hdrs.Set(jws.X509CertChainKey, p.X5C()); err != nil {
		t.Fatal(err)
	}
	for key, value := range headers {
		if err := hdrs.Set(key, value); err != nil {
			t.Fatal(err)
		}
	}
	signed, err := jws.Sign(payload, jws.WithKey(jwa.ES256, p.LeafKey, jws.WithProtectedHeaders(hdrs)))
	if err != nil {
		t.Fatal(err)
	}
	return string(signed)
}

// NewIssuerPKI creates a new test PKI with the given common name for the leaf certificate.
func NewIssuerPKI(t *testing.T, commonName string) IssuerPKI {
	rootKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	rootTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test Root CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	root := createCertificate(t, rootTemplate, rootTemplate, &rootKey.PublicKey, rootKey)

	leafKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	leafTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: commonName},
		DNSNames:     []string{commonName},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	leaf := createCertificate(t, leafTemplate, root, &leafKey.PublicKey, rootKey)
	return IssuerPKI{
		Root:    root,
		RootKey: rootKey,
		Leaf:    leaf,
		LeafKey: leafKey,
	}
}

func createCertificate(t *testing.T, template *x509.Certificate, parent *x509.Certificate, publicKey *ecdsa.PublicKey, signer *ecdsa.PrivateKey) *x509.Certificate {
	der, err := x509.CreateCertificate(rand.Reader, template, parent, publicKey, signer)
	if err != nil {
		t.Fatal(err)
	}
	certificate, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}
	return certificate
}

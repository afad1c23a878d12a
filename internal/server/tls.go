// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// ClientAuthMode selects how the listener treats client certificates.
type ClientAuthMode string

const (
	ClientAuthOff      ClientAuthMode = "off"
	ClientAuthOptional ClientAuthMode = "optional"
	ClientAuthRequired ClientAuthMode = "required"
)

// Valid reports whether m names a known mode. The empty string counts as
// off.
func (m ClientAuthMode) Valid() bool {
	switch m {
	case "", ClientAuthOff, ClientAuthOptional, ClientAuthRequired:
		return true
	}
	return false
}

// TLSOptions describes the listener's TLS setup. TrustedCerts is a PEM
// bundle of client trust anchors, loaded once at startup.
type TLSOptions struct {
	CertFile     string
	KeyFile      string
	ClientAuth   ClientAuthMode
	TrustedCerts string
}

// Config builds the listener tls.Config.
func (o *TLSOptions) Config() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(o.CertFile, o.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load server certificate: %w", err)
	}
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}}

	switch o.ClientAuth {
	case "", ClientAuthOff:
		cfg.ClientAuth = tls.NoClientCert
		return cfg, nil
	case ClientAuthOptional:
		cfg.ClientAuth = tls.VerifyClientCertIfGiven
	case ClientAuthRequired:
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	default:
		return nil, fmt.Errorf("invalid client auth mode %q", o.ClientAuth)
	}

	pem, err := os.ReadFile(o.TrustedCerts)
	if err != nil {
		return nil, fmt.Errorf("load client trust anchors: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates in %s", o.TrustedCerts)
	}
	cfg.ClientCAs = pool
	return cfg, nil
}

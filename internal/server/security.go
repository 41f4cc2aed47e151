// Package server provides the network listeners HTTP servers run on.
package server

import (
	"crypto/tls"
	"fmt"
	"net"
)

// TLSListener produces TLS-encrypted listeners from a certificate and
// private key on disk.
type TLSListener struct {
	certFileName       string
	privateKeyFileName string
}

// NewTLSListener creates a TLSListener reading the certificate and key
// from the given files.
func NewTLSListener(certFileName, privateKeyFileName string) *TLSListener {
	return &TLSListener{
		certFileName:       certFileName,
		privateKeyFileName: privateKeyFileName,
	}
}

// Listen loads the key pair and returns a TLS listener on addr.
func (l *TLSListener) Listen(protocol, addr string) (net.Listener, error) {
	cert, err := tls.LoadX509KeyPair(l.certFileName, l.privateKeyFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}
	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	return tls.Listen(protocol, addr, tlsConfig)
}

// PlainListener produces unencrypted listeners, for deployments that
// terminate TLS upstream.
type PlainListener struct{}

// NewPlainListener creates a PlainListener.
func NewPlainListener() *PlainListener {
	return &PlainListener{}
}

// Listen returns a plain listener on addr.
func (l *PlainListener) Listen(protocol, addr string) (net.Listener, error) {
	return net.Listen(protocol, addr)
}

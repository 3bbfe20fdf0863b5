package transport

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"math/big"
	"os"
	"time"
)

// ALPN protocol id; QUIC requires one and TLS listeners advertise the same.
const alpnProtocol = "ledwall-v1"

// GenerateSelfSignedCert creates an ephemeral self-signed TLS certificate
// for the simulator's TLS and QUIC listeners. The certificate is in-memory
// only and lives for 24 hours.
func GenerateSelfSignedCert() (tls.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, err
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, err
	}

	tmpl := x509.Certificate{
		SerialNumber: serial,
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, err
	}

	return tls.Certificate{
		Certificate: [][]byte{certDER},
		PrivateKey:  key,
	}, nil
}

// ServerTLSConfig returns a TLS config for the simulator's listeners.
func ServerTLSConfig(cert tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{alpnProtocol},
		MinVersion:   tls.VersionTLS13,
	}
}

// ClientTLSConfig returns a TLS config that accepts any server certificate.
// Displays on a LAN typically run with a self-signed cert; use
// LoadClientTLSConfig to pin a CA instead.
func ClientTLSConfig() *tls.Config {
	return &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{alpnProtocol},
		MinVersion:         tls.VersionTLS13,
	}
}

// LoadClientTLSConfig verifies the server against the PEM bundle in caFile.
// An empty caFile falls back to ClientTLSConfig.
func LoadClientTLSConfig(caFile, serverName string) (*tls.Config, error) {
	if caFile == "" {
		conf := ClientTLSConfig()
		conf.ServerName = serverName
		return conf, nil
	}

	pem, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", caFile)
	}

	return &tls.Config{
		RootCAs:    pool,
		ServerName: serverName,
		NextProtos: []string{alpnProtocol},
		MinVersion: tls.VersionTLS13,
	}, nil
}

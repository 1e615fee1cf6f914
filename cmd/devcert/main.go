// Package main writes a self-signed TLS certificate and key for running the
// API server over HTTPS in development (see the -tls-cert and -tls-key
// server flags).
package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
)

var cli struct {
	Out   string        `help:"Output directory." default:"certs" type:"path"`
	Hosts []string      `help:"DNS names or IPs the certificate is valid for." default:"localhost,127.0.0.1"`
	Valid time.Duration `help:"Certificate lifetime." default:"8760h"`
	Bits  int           `help:"RSA key size." default:"2048"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("devcert"),
		kong.Description("Generate a self-signed development certificate for the habit tracker API."),
		kong.UsageOnError(),
	)

	if err := os.MkdirAll(cli.Out, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "create output dir:", err)
		os.Exit(1)
	}

	cert, key, err := generateCert(cli.Hosts, cli.Valid, cli.Bits)
	if err != nil {
		fmt.Fprintln(os.Stderr, "generate certificate:", err)
		os.Exit(1)
	}
	certPath := filepath.Join(cli.Out, "server.crt")
	keyPath := filepath.Join(cli.Out, "server.key")
	if err := writeCertAndKey(certPath, keyPath, cert, key); err != nil {
		fmt.Fprintln(os.Stderr, "write certificate:", err)
		os.Exit(1)
	}

	fmt.Printf("Certificate written to %s and %s\n", certPath, keyPath)
}

// generateCert creates a self-signed server certificate for hosts. Entries
// that parse as IP addresses become IP SANs, the rest DNS SANs. The first
// host is used as the common name.
func generateCert(hosts []string, validFor time.Duration, bits int) (*x509.Certificate, *rsa.PrivateKey, error) {
	if len(hosts) == 0 {
		return nil, nil, fmt.Errorf("at least one host is required")
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, err
	}
	now := time.Now()
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   hosts[0],
			Organization: []string{"Habit Tracker Dev"},
		},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(validFor),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		// A self-signed certificate is its own issuer.
		IsCA: true,
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			tmpl.IPAddresses = append(tmpl.IPAddresses, ip)
		} else {
			tmpl.DNSNames = append(tmpl.DNSNames, h)
		}
	}

	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, nil, err
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, nil, err
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, err
	}
	return cert, key, nil
}

// writeCertAndKey writes cert as a "CERTIFICATE" PEM block and key as a
// "RSA PRIVATE KEY" block readable only by the owner.
func writeCertAndKey(certPath, keyPath string, cert *x509.Certificate, key *rsa.PrivateKey) error {
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		return err
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return os.WriteFile(keyPath, keyPEM, 0o600)
}

package main

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestGenerateCert_SANs(t *testing.T) {
	cert, key, err := generateCert([]string{"localhost", "127.0.0.1", "api.local"}, 24*time.Hour, 1024)
	if err != nil {
		t.Fatalf("generateCert: %v", err)
	}

	if cert.Subject.CommonName != "localhost" {
		t.Errorf("CommonName = %q; want \"localhost\"", cert.Subject.CommonName)
	}
	if !reflect.DeepEqual(cert.DNSNames, []string{"localhost", "api.local"}) {
		t.Errorf("DNSNames = %v", cert.DNSNames)
	}
	if len(cert.IPAddresses) != 1 || !cert.IPAddresses[0].Equal(net.ParseIP("127.0.0.1")) {
		t.Errorf("IPAddresses = %v", cert.IPAddresses)
	}

	// Self-signed
	if err := cert.CheckSignatureFrom(cert); err != nil {
		t.Errorf("certificate is not self-signed: %v", err)
	}

	// Trusting the certificate as a root must be enough for a TLS client.
	roots := x509.NewCertPool()
	roots.AddCert(cert)
	if _, err := cert.Verify(x509.VerifyOptions{DNSName: "api.local", Roots: roots}); err != nil {
		t.Errorf("verify against itself as root: %v", err)
	}

	if len(cert.ExtKeyUsage) != 1 || cert.ExtKeyUsage[0] != x509.ExtKeyUsageServerAuth {
		t.Errorf("ExtKeyUsage = %v; want [ServerAuth]", cert.ExtKeyUsage)
	}
	if dur := cert.NotAfter.Sub(cert.NotBefore); dur < 24*time.Hour {
		t.Errorf("validity too short: %v", dur)
	}
	if key.N.BitLen() != 1024 {
		t.Errorf("RSA key = %d bits; want 1024", key.N.BitLen())
	}
}

func TestGenerateCert_NoHosts(t *testing.T) {
	if _, _, err := generateCert(nil, time.Hour, 1024); err == nil {
		t.Error("expected error for empty host list")
	}
}

func TestWriteCertAndKey_LoadsAsKeyPair(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "server.crt")
	keyPath := filepath.Join(dir, "server.key")

	cert, key, err := generateCert([]string{"localhost"}, time.Hour, 1024)
	if err != nil {
		t.Fatal(err)
	}
	if err := writeCertAndKey(certPath, keyPath, cert, key); err != nil {
		t.Fatalf("writeCertAndKey: %v", err)
	}

	// The server loads the pair with tls.LoadX509KeyPair.
	if _, err := tls.LoadX509KeyPair(certPath, keyPath); err != nil {
		t.Fatalf("LoadX509KeyPair: %v", err)
	}

	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		t.Fatal(err)
	}
	block, _ := pem.Decode(keyPEM)
	if block == nil || block.Type != "RSA PRIVATE KEY" {
		t.Fatalf("expected RSA PRIVATE KEY PEM block; got %v", block)
	}

	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("key permissions = %o; want 600", perm)
	}
}

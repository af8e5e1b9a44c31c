package tls

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateAndLoad(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")

	if err := GenerateSelfSignedCert(certFile, keyFile, "espace.local", "192.168.1.10", "api.espace.local"); err != nil {
		t.Fatalf("Failed to generate certificate: %v", err)
	}

	data, err := os.ReadFile(certFile)
	if err != nil {
		t.Fatalf("Failed to read certificate: %v", err)
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		t.Fatal("Expected PEM certificate block")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("Failed to parse certificate: %v", err)
	}

	if cert.Subject.CommonName != "espace.local" {
		t.Errorf("Unexpected common name: %s", cert.Subject.CommonName)
	}

	dnsNames := map[string]bool{}
	for _, name := range cert.DNSNames {
		dnsNames[name] = true
	}
	if !dnsNames["localhost"] || !dnsNames["api.espace.local"] {
		t.Errorf("Missing expected DNS SANs: %v", cert.DNSNames)
	}

	foundIP := false
	for _, ip := range cert.IPAddresses {
		if ip.String() == "192.168.1.10" {
			foundIP = true
		}
	}
	if !foundIP {
		t.Errorf("Missing IP SAN: %v", cert.IPAddresses)
	}

	cfg, err := LoadTLSConfig(certFile, keyFile, "", false)
	if err != nil {
		t.Fatalf("Failed to load TLS config: %v", err)
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("Expected TLS 1.2 minimum, got %x", cfg.MinVersion)
	}
	if len(cfg.Certificates) != 1 {
		t.Errorf("Expected one certificate, got %d", len(cfg.Certificates))
	}
}

func TestLoadTLSConfigMTLS(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")

	if err := GenerateSelfSignedCert(certFile, keyFile, "espace.local"); err != nil {
		t.Fatalf("Failed to generate certificate: %v", err)
	}

	// The self-signed certificate doubles as the client CA
	cfg, err := LoadTLSConfig(certFile, keyFile, certFile, true)
	if err != nil {
		t.Fatalf("Failed to load mTLS config: %v", err)
	}
	if cfg.ClientAuth != tls.RequireAndVerifyClientCert {
		t.Error("Expected client certificates to be required")
	}
	if cfg.ClientCAs == nil {
		t.Error("Expected client CA pool")
	}

	if _, err := LoadTLSConfig(certFile, keyFile, filepath.Join(dir, "missing.pem"), true); err == nil {
		t.Error("Expected error for missing CA file")
	}
}

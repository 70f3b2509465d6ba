// Package tlstest generates throwaway certificates and TLS test servers.
// Files live under t.TempDir().
//
//	srv, certs := tlstest.NewServer(t, handler)
//	cfg := security.TLSConfig{CAFile: certs.CAFile}
package tlstest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TLSCerts are the generated PEM files and their parsed forms. CertFile and
// KeyFile serve both as server certificate and as mTLS client certificate.
type TLSCerts struct {
	CAFile   string
	CertFile string
	KeyFile  string

	CACert    *x509.Certificate
	CAKey     *ecdsa.PrivateKey
	ServerTLS tls.Certificate
	CertPool  *x509.CertPool
}

// GenerateTLSCerts creates a CA and a leaf certificate for localhost,
// 127.0.0.1 and ::1.
func GenerateTLSCerts(t testing.TB) *TLSCerts {
	t.Helper()
	dir := t.TempDir()
	now := time.Now()

	ca := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"apicontract test CA"}},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	caDER, caKey := issue(t, ca, nil, nil)
	caCert, err := x509.ParseCertificate(caDER)
	if err != nil {
		t.Fatalf("tlstest: parse CA: %v", err)
	}

	leaf := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{Organization: []string{"apicontract test"}, CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	}
	leafDER, leafKey := issue(t, leaf, caCert, caKey)
	keyDER, err := x509.MarshalECPrivateKey(leafKey)
	if err != nil {
		t.Fatalf("tlstest: marshal key: %v", err)
	}

	certs := &TLSCerts{
		CAFile:   writePEM(t, dir, "ca.pem", "CERTIFICATE", caDER),
		CertFile: writePEM(t, dir, "cert.pem", "CERTIFICATE", leafDER),
		KeyFile:  writePEM(t, dir, "key.pem", "EC PRIVATE KEY", keyDER),
		CACert:   caCert,
		CAKey:    caKey,
		CertPool: x509.NewCertPool(),
	}
	certs.CertPool.AddCert(caCert)
	if certs.ServerTLS, err = tls.LoadX509KeyPair(certs.CertFile, certs.KeyFile); err != nil {
		t.Fatalf("tlstest: load key pair: %v", err)
	}
	return certs
}

// issue signs template with parentKey, or self-signs when parent is nil.
func issue(t testing.TB, template, parent *x509.Certificate, parentKey *ecdsa.PrivateKey) ([]byte, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("tlstest: generate key: %v", err)
	}
	if parent == nil {
		parent, parentKey = template, key
	}
	der, err := x509.CreateCertificate(rand.Reader, template, parent, &key.PublicKey, parentKey)
	if err != nil {
		t.Fatalf("tlstest: create %q: %v", template.Subject.CommonName, err)
	}
	return der, key
}

// NewServer starts an HTTPS server for handler using a certificate signed by
// a fresh CA. The server is closed when the test ends.
func NewServer(t testing.TB, handler http.Handler) (*httptest.Server, *TLSCerts) {
	t.Helper()
	return start(t, handler, tls.NoClientCert)
}

// NewMutualServer is NewServer but rejects clients without a certificate
// signed by the same CA.
func NewMutualServer(t testing.TB, handler http.Handler) (*httptest.Server, *TLSCerts) {
	t.Helper()
	return start(t, handler, tls.RequireAndVerifyClientCert)
}

func start(t testing.TB, handler http.Handler, auth tls.ClientAuthType) (*httptest.Server, *TLSCerts) {
	certs := GenerateTLSCerts(t)
	srv := httptest.NewUnstartedServer(handler)
	srv.TLS = &tls.Config{
		Certificates: []tls.Certificate{certs.ServerTLS},
		ClientAuth:   auth,
		ClientCAs:    certs.CertPool,
		MinVersion:   tls.VersionTLS12,
	}
	srv.StartTLS()
	t.Cleanup(srv.Close)
	return srv, certs
}

// WriteInvalidPEM writes a PEM-looking file that does not parse.
func WriteInvalidPEM(t testing.TB, filename string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), filename)
	content := "-----BEGIN CERTIFICATE-----\nnot-valid-base64-data\n-----END CERTIFICATE-----\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("tlstest: write %s: %v", path, err)
	}
	return path
}

func writePEM(t testing.TB, dir, name, blockType string, der []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("tlstest: write %s: %v", path, err)
	}
	return path
}

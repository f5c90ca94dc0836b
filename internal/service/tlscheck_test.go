package service

import (
	"crypto/x509"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"talos/internal/utils"
)

func init() {
	utils.TestInitLogger()
}

func testTLSServer(t *testing.T) (host, port string, pool *x509.CertPool, done func()) {
	t.Helper()
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	host, port, err := net.SplitHostPort(ts.Listener.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	pool = x509.NewCertPool()
	pool.AddCert(ts.Certificate())
	return host, port, pool, ts.Close
}

func TestTLSService_ValidHandshake(t *testing.T) {
	t.Parallel()
	host, port, pool, done := testTLSServer(t)
	defer done()

	s := &TLSService{Timeout: 2 * time.Second, Port: port, RootCAs: pool}
	info := s.Check(host)

	if !info.Valid {
		t.Fatalf("expected valid handshake, got error: %s", info.Error)
	}
	if info.Issuer == "" {
		t.Error("expected an issuer")
	}
}

// The default trust anchors must reject the self-signed test certificate.
func TestTLSService_UntrustedChain(t *testing.T) {
	t.Parallel()
	host, port, _, done := testTLSServer(t)
	defer done()

	s := &TLSService{Timeout: 2 * time.Second, Port: port}
	info := s.Check(host)

	if info.Valid {
		t.Fatal("expected invalid result for untrusted certificate")
	}
	if info.Error == "" {
		t.Error("expected a diagnostic error string")
	}
}

func TestTLSService_ConnectionRefused(t *testing.T) {
	t.Parallel()
	// Grab a port that nothing listens on.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	_, port, _ := net.SplitHostPort(l.Addr().String())
	_ = l.Close()

	s := &TLSService{Timeout: 1 * time.Second, Port: port}
	info := s.Check("127.0.0.1")

	if info.Valid {
		t.Fatal("expected invalid result for refused connection")
	}
	if info.Error == "" {
		t.Error("expected a diagnostic error string")
	}
}

package service

import (
	"crypto/tls"
	"crypto/x509"
	"net"
	"time"

	"talos/internal/model"
	"talos/internal/utils"
)

// TLSService performs a live handshake against port 443 of a hostname using
// system trust anchors. It never aborts the pipeline: any failure becomes
// Valid=false with a diagnostic.
type TLSService struct {
	Timeout time.Duration
	Port    string
	RootCAs *x509.CertPool // nil means system roots
}

func NewTLSService() *TLSService {
	return &TLSService{
		Timeout: 4 * time.Second,
		Port:    "443",
	}
}

func (s *TLSService) Check(hostname string) model.TLSInfo {
	dialer := &net.Dialer{Timeout: s.Timeout}
	conf := &tls.Config{
		ServerName: hostname,
		RootCAs:    s.RootCAs,
	}

	conn, err := tls.DialWithDialer(dialer, "tcp", net.JoinHostPort(hostname, s.Port), conf)
	if err != nil {
		utils.StageFailures.WithLabelValues("tls").Inc()
		return model.TLSInfo{Valid: false, Error: err.Error()}
	}
	defer func() {
		_ = conn.Close()
	}()

	state := conn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return model.TLSInfo{Valid: false, Error: "no certificates presented"}
	}

	cert := state.PeerCertificates[0]
	issuer := cert.Issuer.CommonName
	if len(cert.Issuer.Organization) > 0 {
		issuer = cert.Issuer.Organization[0]
	}

	return model.TLSInfo{Valid: true, Issuer: issuer}
}

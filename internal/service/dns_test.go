package service

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"

	"talos/internal/model"
	"talos/internal/utils"
)

func init() {
	utils.TestInitLogger()
}

// testDNSServer serves fixed A records for every query.
func testDNSServer(t *testing.T, ips []string) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	server := &dns.Server{
		PacketConn: pc,
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
			m := new(dns.Msg)
			m.SetReply(r)
			if len(r.Question) == 1 && r.Question[0].Qtype == dns.TypeA {
				for _, ip := range ips {
					m.Answer = append(m.Answer, &dns.A{
						Hdr: dns.RR_Header{
							Name:   r.Question[0].Name,
							Rrtype: dns.TypeA,
							Class:  dns.ClassINET,
							Ttl:    60,
						},
						A: net.ParseIP(ip),
					})
				}
			}
			_ = w.WriteMsg(m)
		}),
	}
	go func() {
		_ = server.ActivateAndServe()
	}()
	t.Cleanup(func() {
		_ = server.Shutdown()
	})
	return pc.LocalAddr().String()
}

type fakeReputation struct {
	rep    *model.IPReputation
	err    error
	called bool
	lastIP string
}

func (f *fakeReputation) CheckIP(ctx context.Context, ip string) (*model.IPReputation, error) {
	f.called = true
	f.lastIP = ip
	return f.rep, f.err
}

func TestInfraService_Enrich(t *testing.T) {
	resolver := testDNSServer(t, []string{"192.0.2.10", "192.0.2.20"})
	rep := &fakeReputation{rep: &model.IPReputation{Score: 85, Country: "NL", ISP: "Test ISP"}}

	s := NewInfraService(resolver)
	s.Reputation = rep

	info := s.Enrich(context.Background(), "malicious.example.com")

	if len(info.DNSRecords) != 2 {
		t.Fatalf("expected 2 A records, got %v", info.DNSRecords)
	}
	if info.PrimaryIP != "192.0.2.10" {
		t.Errorf("primary IP = %s, want first record", info.PrimaryIP)
	}
	if rep.lastIP != "192.0.2.10" {
		t.Errorf("reputation checked %s, want primary IP", rep.lastIP)
	}
	if info.IPReputation == nil || info.IPReputation.Score != 85 {
		t.Errorf("ip reputation = %+v, want score 85", info.IPReputation)
	}
	if info.Geo == nil || info.Geo.Country != "NL" {
		t.Errorf("geo = %+v, want country NL from reputation source", info.Geo)
	}
}

// Reputation source failure must yield a nil IPReputation, never a zero
// score: absence of data is distinguishable from confirmed clean.
func TestInfraService_ReputationFailureLeavesNil(t *testing.T) {
	resolver := testDNSServer(t, []string{"192.0.2.10"})
	rep := &fakeReputation{err: errors.New("quota exceeded")}

	s := NewInfraService(resolver)
	s.Reputation = rep

	info := s.Enrich(context.Background(), "example.com")
	if info.IPReputation != nil {
		t.Errorf("expected nil reputation on source failure, got %+v", info.IPReputation)
	}
	if info.PrimaryIP != "192.0.2.10" {
		t.Errorf("DNS data must survive reputation failure, primary = %s", info.PrimaryIP)
	}
}

// DNS failure skips the reputation sub-call entirely.
func TestInfraService_DNSFailureSkipsReputation(t *testing.T) {
	rep := &fakeReputation{rep: &model.IPReputation{Score: 100}}

	s := NewInfraService("127.0.0.1:1") // nothing listens here
	s.Timeout = 500 * time.Millisecond
	s.Reputation = rep

	info := s.Enrich(context.Background(), "example.com")

	if len(info.DNSRecords) != 0 {
		t.Errorf("expected no DNS records, got %v", info.DNSRecords)
	}
	if info.PrimaryIP != "" {
		t.Errorf("expected empty primary IP, got %s", info.PrimaryIP)
	}
	if rep.called {
		t.Error("reputation lookup must be skipped without a primary IP")
	}
	if info.IPReputation != nil {
		t.Errorf("expected nil reputation, got %+v", info.IPReputation)
	}
}

func TestInfraService_StripsPort(t *testing.T) {
	resolver := testDNSServer(t, []string{"192.0.2.30"})
	s := NewInfraService(resolver)

	info := s.Enrich(context.Background(), "example.com:8443")
	if info.PrimaryIP != "192.0.2.30" {
		t.Errorf("port was not stripped before resolution, primary = %s", info.PrimaryIP)
	}
}

func TestResolveA_NoAnswer(t *testing.T) {
	resolver := testDNSServer(t, nil)
	s := NewInfraService(resolver)

	ips, err := s.ResolveA("empty.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ips) != 0 {
		t.Errorf("expected no records, got %v", ips)
	}
}

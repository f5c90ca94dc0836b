package service

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/miekg/dns"

	"talos/internal/model"
	"talos/internal/utils"
)

// IPReputationClient looks up an address with an external reputation source.
type IPReputationClient interface {
	CheckIP(ctx context.Context, ip string) (*model.IPReputation, error)
}

// RegistrationLookup fetches WHOIS registration data for a hostname.
type RegistrationLookup interface {
	Lookup(hostname string) (*model.RegistrationInfo, error)
}

// InfraService resolves a hostname to its addresses and enriches the primary
// address. Every sub-lookup degrades independently: a missing signal is
// reported as absent, never as clean.
type InfraService struct {
	Resolver string
	Timeout  time.Duration

	Reputation IPReputationClient // nil disables the reputation sub-call
	Whois      RegistrationLookup // nil disables WHOIS enrichment
	Geo        *GeoService        // nil disables the local geo fallback
}

func NewInfraService(resolver string) *InfraService {
	if resolver == "" {
		resolver = "8.8.8.8:53"
	}
	return &InfraService{
		Resolver: resolver,
		Timeout:  5 * time.Second,
	}
}

// ResolveA returns the A records for hostname in answer order.
func (s *InfraService) ResolveA(hostname string) ([]string, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(hostname), dns.TypeA)
	m.RecursionDesired = true

	c := &dns.Client{Timeout: s.Timeout}
	in, _, err := c.Exchange(m, s.Resolver)
	if err != nil {
		return nil, err
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("dns rcode %s", dns.RcodeToString[in.Rcode])
	}

	var ips []string
	for _, ans := range in.Answer {
		if a, ok := ans.(*dns.A); ok {
			ips = append(ips, a.A.String())
		}
	}
	return ips, nil
}

// Enrich gathers DNS, IP reputation, geolocation and WHOIS data for hostname.
// DNS failure skips the per-address sub-calls entirely: no primary IP means
// no reputation lookup is attempted.
func (s *InfraService) Enrich(ctx context.Context, hostname string) model.InfrastructureInfo {
	info := model.InfrastructureInfo{DNSRecords: []string{}}

	if host, _, err := net.SplitHostPort(hostname); err == nil {
		hostname = host
	}
	if hostname == "" {
		return info
	}

	var wg sync.WaitGroup

	if s.Whois != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg, err := s.Whois.Lookup(hostname)
			if err != nil {
				utils.Log.Warn("whois lookup failed",
					utils.Field("hostname", hostname),
					utils.Field("error", err.Error()))
				utils.StageFailures.WithLabelValues("whois").Inc()
				return
			}
			info.Registration = reg
		}()
	}

	ips, err := s.ResolveA(hostname)
	if err != nil {
		utils.Log.Warn("dns resolution failed",
			utils.Field("hostname", hostname),
			utils.Field("error", err.Error()))
		utils.StageFailures.WithLabelValues("dns").Inc()
		wg.Wait()
		return info
	}
	if len(ips) > 0 {
		info.DNSRecords = ips
		info.PrimaryIP = ips[0]
	}

	if info.PrimaryIP != "" {
		if s.Reputation != nil {
			rep, err := s.Reputation.CheckIP(ctx, info.PrimaryIP)
			if err != nil {
				utils.Log.Warn("ip reputation lookup failed",
					utils.Field("ip", info.PrimaryIP),
					utils.Field("error", err.Error()))
				utils.StageFailures.WithLabelValues("ip_reputation").Inc()
			} else {
				info.IPReputation = rep
				info.Geo = &model.GeoInfo{
					IP:      info.PrimaryIP,
					Country: rep.Country,
					ISP:     rep.ISP,
				}
			}
		}

		if info.Geo == nil && s.Geo != nil {
			if geo := s.Geo.Lookup(info.PrimaryIP); geo != nil {
				info.Geo = geo
			}
		}
	}

	wg.Wait()
	return info
}

package model

import "time"

// Verdict is the final categorical classification of a scanned URL.
type Verdict string

const (
	VerdictSafe       Verdict = "SAFE"
	VerdictSuspicious Verdict = "SUSPICIOUS"
	VerdictMalicious  Verdict = "MALICIOUS"
)

// NormalizedURL is the canonical form of the raw input, produced before any
// network call is made.
type NormalizedURL struct {
	URL      string `json:"url"`
	Scheme   string `json:"scheme"`
	Hostname string `json:"hostname"`
}

// RedirectHop is one redirect response in the chain. LatencyMs is the elapsed
// time since the start of the chain, so latencies are monotonically
// non-decreasing across hops.
type RedirectHop struct {
	URL        string  `json:"url"`
	StatusCode int     `json:"status_code"`
	LatencyMs  float64 `json:"latency_ms"`
}

// RedirectResult holds the resolved final URL and the hops that led there.
// On failure FinalURL falls back to the input URL and Chain is empty.
type RedirectResult struct {
	FinalURL string        `json:"final_url"`
	Chain    []RedirectHop `json:"chain"`
	Error    string        `json:"error,omitempty"`
}

// IPReputation is the enrichment for the primary resolved address. A nil
// *IPReputation means the source was unavailable, not that the address is
// clean.
type IPReputation struct {
	Score   int    `json:"score"`
	Country string `json:"country,omitempty"`
	ISP     string `json:"isp,omitempty"`
}

// RegistrationInfo carries WHOIS registration data for the hostname.
type RegistrationInfo struct {
	Registrar string `json:"registrar,omitempty"`
	Created   string `json:"created,omitempty"`
	Org       string `json:"org,omitempty"`
}

// GeoInfo locates the primary address. Filled from the IP reputation source
// when available, otherwise from a local GeoLite2 database.
type GeoInfo struct {
	IP      string `json:"ip"`
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
	ISP     string `json:"isp,omitempty"`
}

type InfrastructureInfo struct {
	DNSRecords   []string          `json:"dns_records"`
	PrimaryIP    string            `json:"primary_ip,omitempty"`
	IPReputation *IPReputation     `json:"ip_reputation,omitempty"`
	Geo          *GeoInfo          `json:"geolocation,omitempty"`
	Registration *RegistrationInfo `json:"registration_info,omitempty"`
}

type TLSInfo struct {
	Valid  bool   `json:"valid"`
	Issuer string `json:"issuer,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ReputationInfo aggregates blocklist source verdicts. Empty Sources implies
// Score 0.
type ReputationInfo struct {
	Score   int               `json:"score"`
	Sources map[string]string `json:"sources"`
}

type HeuristicInfo struct {
	Score   int      `json:"score"`
	Flags   []string `json:"flags"`
	Entropy float64  `json:"entropy"`
}

type RiskAssessment struct {
	Score   int      `json:"score"`
	Verdict Verdict  `json:"verdict"`
	Reasons []string `json:"reasons"`
}

// SandboxResult is the side-channel output of the remote sandbox worker. It is
// merged into the result but never influences scoring.
type SandboxResult struct {
	Status     string `json:"status"`
	Screenshot string `json:"screenshot_base64,omitempty"`
	Note       string `json:"note,omitempty"`
	Error      string `json:"error,omitempty"`
}

// AnalysisResult is the terminal output of one pipeline run.
type AnalysisResult struct {
	URL            string             `json:"url"`
	Normalized     NormalizedURL      `json:"normalized"`
	Redirects      RedirectResult     `json:"redirects"`
	Infrastructure InfrastructureInfo `json:"infrastructure"`
	TLS            TLSInfo            `json:"ssl"`
	Reputation     ReputationInfo     `json:"reputation"`
	Heuristics     HeuristicInfo      `json:"heuristics"`
	Sandbox        *SandboxResult     `json:"sandbox,omitempty"`
	Final          RiskAssessment     `json:"final"`
	AnalyzedAt     time.Time          `json:"analyzed_at"`
}

// HistoryEntry is one stored scan snapshot for a monitored target.
type HistoryEntry struct {
	Timestamp string `json:"timestamp"`
	Result    string `json:"result"`
}

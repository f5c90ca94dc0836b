package service

import (
	"math"
	"net/url"
	"strings"

	"talos/internal/model"
)

const (
	entropyThreshold = 4.2
	entropyWeight    = 30
	keywordWeight    = 20
)

// Keywords commonly found in phishing URLs. Matched against the lowercased
// full URL, not just the hostname.
var phishingKeywords = []string{"login", "bank", "secure", "account", "update", "verify"}

// ShannonEntropy computes the base-2 entropy of the character distribution in
// s. The empty string has entropy 0.
func ShannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	freq := make(map[rune]int)
	total := 0
	for _, r := range s {
		freq[r]++
		total++
	}

	var entropy float64
	for _, count := range freq {
		p := float64(count) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// RunHeuristics scores a URL from its string alone. High hostname entropy is
// a proxy for algorithmically generated domains. Pure and offline, so the
// pipeline can always fall back to it when every external source is down.
func RunHeuristics(target string) model.HeuristicInfo {
	info := model.HeuristicInfo{Flags: []string{}}

	hostname := ""
	if parsed, err := url.Parse(target); err == nil {
		hostname = parsed.Hostname()
	}

	entropy := ShannonEntropy(hostname)
	info.Entropy = math.Round(entropy*100) / 100

	if entropy > entropyThreshold {
		info.Score += entropyWeight
		info.Flags = append(info.Flags, "high-entropy hostname (possible generated domain)")
	}

	lower := strings.ToLower(target)
	for _, kw := range phishingKeywords {
		if strings.Contains(lower, kw) {
			info.Score += keywordWeight
			info.Flags = append(info.Flags, "phishing keywords detected in URL")
			break
		}
	}

	return info
}

package service

import (
	"fmt"
	"sort"
	"strings"

	"talos/internal/model"
)

// Penalty added when the TLS handshake failed or the certificate did not
// validate.
const tlsInvalidPenalty = 20

// Verdict thresholds, exclusive lower bounds.
const (
	maliciousThreshold  = 70
	suspiciousThreshold = 40
)

// AssessRisk combines the enrichment outputs into a bounded score and a
// verdict. Reputation acts as a ceiling-setting base rather than an additive
// signal: a single confirmed blocklist hit already dominates weaker evidence.
// The function is total; every input has a safe zero value substituted
// upstream when its stage failed.
func AssessRisk(rep model.ReputationInfo, heur model.HeuristicInfo, tlsInfo model.TLSInfo) model.RiskAssessment {
	score := rep.Score
	if score < 0 {
		score = 0
	}

	score += heur.Score
	if !tlsInfo.Valid {
		score += tlsInvalidPenalty
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	var verdict model.Verdict
	switch {
	case score > maliciousThreshold:
		verdict = model.VerdictMalicious
	case score > suspiciousThreshold:
		verdict = model.VerdictSuspicious
	default:
		verdict = model.VerdictSafe
	}

	reasons := append([]string{}, heur.Flags...)
	if rep.Score > 0 && len(rep.Sources) > 0 {
		names := make([]string, 0, len(rep.Sources))
		for name := range rep.Sources {
			names = append(names, name)
		}
		sort.Strings(names)
		reasons = append(reasons, fmt.Sprintf("flagged by reputation source(s): %s", strings.Join(names, ", ")))
	}

	return model.RiskAssessment{
		Score:   score,
		Verdict: verdict,
		Reasons: reasons,
	}
}

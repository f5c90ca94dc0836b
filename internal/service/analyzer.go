package service

import (
	"context"
	"net/url"
	"sync"
	"time"

	"talos/internal/config"
	"talos/internal/model"
	"talos/internal/utils"
)

type redirectResolver interface {
	Resolve(ctx context.Context, target string) model.RedirectResult
}

type tlsChecker interface {
	Check(hostname string) model.TLSInfo
}

type infraEnricher interface {
	Enrich(ctx context.Context, hostname string) model.InfrastructureInfo
}

type reputationChecker interface {
	Check(ctx context.Context, target string) model.ReputationInfo
}

type sandboxRunner interface {
	Run(ctx context.Context, target string) *model.SandboxResult
}

// StageFunc receives each completed stage and its output while an analysis is
// in flight.
type StageFunc func(stage string, data interface{})

// Analyzer sequences the triage pipeline: normalize, resolve redirects, fan
// out to the independent enrichment stages, then aggregate. Only
// normalization can fail the run; every later stage degrades to its
// documented fallback value.
type Analyzer struct {
	Redirects  redirectResolver
	TLS        tlsChecker
	Infra      infraEnricher
	Reputation reputationChecker
	Sandbox    sandboxRunner
}

func NewAnalyzer(cfg *config.Config) *Analyzer {
	infra := NewInfraService(cfg.DNSResolver)
	if cfg.AbuseIPDBKey != "" {
		infra.Reputation = NewAbuseIPDBClient(cfg.AbuseIPDBKey)
	}
	if cfg.EnableWhois {
		infra.Whois = &WhoisService{}
	}
	if cfg.EnableGeo && cfg.GeoDBPath != "" {
		geo, err := NewGeoService(cfg.GeoDBPath)
		if err != nil {
			utils.Log.Warn("GeoIP database unavailable",
				utils.Field("path", cfg.GeoDBPath),
				utils.Field("error", err.Error()))
		} else {
			infra.Geo = geo
		}
	}

	return &Analyzer{
		Redirects:  NewRedirectResolver(),
		TLS:        NewTLSService(),
		Infra:      infra,
		Reputation: &ReputationService{Sources: []BlocklistSource{NewURLHausSource(cfg.URLHausKey)}},
		Sandbox:    NewSandboxClient(cfg.SandboxURL),
	}
}

// Analyze runs the full pipeline for one raw URL. It returns an error only
// for invalid input; a well-formed URL always yields a complete result, even
// with every external integration down.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*model.AnalysisResult, error) {
	return a.AnalyzeStream(ctx, rawURL, nil)
}

// AnalyzeStream is Analyze with a per-stage callback, used by the websocket
// handler to push partial results as they arrive. emit may be nil.
func (a *Analyzer) AnalyzeStream(ctx context.Context, rawURL string, emit StageFunc) (*model.AnalysisResult, error) {
	normalized, err := SanitizeURL(rawURL)
	if err != nil {
		utils.RejectedInputs.Inc()
		return nil, err
	}
	send := func(stage string, data interface{}) {
		if emit != nil {
			emit(stage, data)
		}
	}
	send("normalized", normalized)

	res := &model.AnalysisResult{
		URL:        normalized.URL,
		Normalized: normalized,
		AnalyzedAt: time.Now().UTC(),
	}

	res.Redirects = a.Redirects.Resolve(ctx, normalized.URL)
	send("redirects", res.Redirects)

	// The effective hostname comes from the resolved final URL; on redirect
	// failure this falls back to the normalized hostname.
	finalURL := res.Redirects.FinalURL
	hostname := normalized.Hostname
	if parsed, err := url.Parse(finalURL); err == nil && parsed.Hostname() != "" {
		hostname = parsed.Hostname()
	}

	// The enrichment stages are mutually independent and each writes a
	// distinct field, so the fan-out needs no locking. A timeout in one does
	// not cancel the others.
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		res.TLS = a.TLS.Check(hostname)
		send("ssl", res.TLS)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		res.Infrastructure = a.Infra.Enrich(ctx, hostname)
		send("infrastructure", res.Infrastructure)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		res.Reputation = a.Reputation.Check(ctx, finalURL)
		send("reputation", res.Reputation)
	}()

	if a.Sandbox != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res.Sandbox = a.Sandbox.Run(ctx, finalURL)
			send("sandbox", res.Sandbox)
		}()
	}

	res.Heuristics = RunHeuristics(finalURL)
	send("heuristics", res.Heuristics)

	wg.Wait()

	res.Final = AssessRisk(res.Reputation, res.Heuristics, res.TLS)
	send("final", res.Final)

	utils.ScansTotal.WithLabelValues(string(res.Final.Verdict)).Inc()
	utils.Log.Info("analysis complete",
		utils.Field("url", res.URL),
		utils.Field("final_url", finalURL),
		utils.Field("score", res.Final.Score),
		utils.Field("verdict", string(res.Final.Verdict)))

	return res, nil
}

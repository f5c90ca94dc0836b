package service

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"talos/internal/model"
	"talos/internal/utils"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; TalosScanner/1.0)"

// RedirectResolver follows HTTP redirects hop by hop so every Location
// response can be recorded with its status and timing.
type RedirectResolver struct {
	Client    *http.Client
	MaxHops   int
	UserAgent string
}

func NewRedirectResolver() *RedirectResolver {
	return &RedirectResolver{
		Client: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// redirects are followed manually
				return http.ErrUseLastResponse
			},
		},
		MaxHops:   10,
		UserAgent: defaultUserAgent,
	}
}

// Resolve follows the chain from target to its final URL. Any network failure
// is recoverable: the result falls back to the input URL with an empty chain
// so downstream stages keep the best-known hostname.
func (r *RedirectResolver) Resolve(ctx context.Context, target string) model.RedirectResult {
	res := model.RedirectResult{FinalURL: target, Chain: []model.RedirectHop{}}
	current := target
	seen := make(map[string]struct{})
	start := time.Now()

	for i := 0; i < r.MaxHops; i++ {
		if _, ok := seen[current]; ok {
			return r.failure(target, fmt.Sprintf("redirect loop at %s", current))
		}
		seen[current] = struct{}{}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current, nil)
		if err != nil {
			return r.failure(target, err.Error())
		}
		req.Header.Set("User-Agent", r.UserAgent)

		resp, err := r.Client.Do(req)
		if err != nil {
			return r.failure(target, err.Error())
		}

		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			loc := resp.Header.Get("Location")
			_ = resp.Body.Close()
			if loc == "" {
				res.FinalURL = current
				return res
			}
			next, err := url.Parse(loc)
			if err != nil {
				res.FinalURL = current
				return res
			}

			elapsed := math.Round(float64(time.Since(start).Microseconds())/10) / 100
			res.Chain = append(res.Chain, model.RedirectHop{
				URL:        current,
				StatusCode: resp.StatusCode,
				LatencyMs:  elapsed,
			})
			current = resp.Request.URL.ResolveReference(next).String()
			continue
		}

		_ = resp.Body.Close()
		res.FinalURL = current
		return res
	}

	return r.failure(target, fmt.Sprintf("stopped after %d redirects", r.MaxHops))
}

func (r *RedirectResolver) failure(target, reason string) model.RedirectResult {
	utils.Log.Warn("redirect resolution failed",
		utils.Field("url", target),
		utils.Field("error", reason))
	utils.StageFailures.WithLabelValues("redirects").Inc()
	return model.RedirectResult{FinalURL: target, Chain: []model.RedirectHop{}, Error: reason}
}

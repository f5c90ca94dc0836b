package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"talos/internal/model"
	"talos/internal/utils"
)

// BlocklistSource reports whether a URL is known-malicious. A score of 0
// means not listed (or unknown); the label describes the hit.
type BlocklistSource interface {
	Name() string
	CheckURL(ctx context.Context, target string) (score int, label string, err error)
}

// ReputationService queries every configured blocklist source. Scores combine
// by maximum, not sum: one confirmed-malicious source is already worst-case.
type ReputationService struct {
	Sources []BlocklistSource
}

func (s *ReputationService) Check(ctx context.Context, target string) model.ReputationInfo {
	info := model.ReputationInfo{Sources: map[string]string{}}

	for _, src := range s.Sources {
		score, label, err := src.CheckURL(ctx, target)
		if err != nil {
			utils.Log.Warn("blocklist source unavailable",
				utils.Field("source", src.Name()),
				utils.Field("error", err.Error()))
			utils.StageFailures.WithLabelValues("reputation").Inc()
			continue
		}
		if score <= 0 {
			continue
		}
		info.Sources[src.Name()] = label
		if score > info.Score {
			info.Score = score
		}
	}

	return info
}

// URLHausSource checks URLs against the abuse.ch URLHaus database.
type URLHausSource struct {
	AuthKey    string
	BaseURL    string
	HTTPClient *http.Client
}

func NewURLHausSource(authKey string) *URLHausSource {
	return &URLHausSource{
		AuthKey:    authKey,
		BaseURL:    "https://urlhaus-api.abuse.ch",
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (u *URLHausSource) Name() string { return "URLHaus" }

func (u *URLHausSource) CheckURL(ctx context.Context, target string) (int, string, error) {
	form := url.Values{}
	form.Set("url", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		u.BaseURL+"/v1/url/", strings.NewReader(form.Encode()))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if u.AuthKey != "" {
		req.Header.Set("Auth-Key", u.AuthKey)
	}

	resp, err := u.HTTPClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, "", fmt.Errorf("urlhaus HTTP %d", resp.StatusCode)
	}

	var body struct {
		QueryStatus string `json:"query_status"`
		Threat      string `json:"threat"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, "", err
	}

	// "ok" means the URL exists in the database, i.e. it is listed.
	if body.QueryStatus == "ok" {
		label := body.Threat
		if label == "" {
			label = "malicious"
		}
		return 100, label, nil
	}
	return 0, "", nil
}

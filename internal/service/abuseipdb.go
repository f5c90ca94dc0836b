package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"talos/internal/model"
)

// AbuseIPDBClient queries the AbuseIPDB v2 check endpoint. The abuse
// confidence score maps directly onto the 0-100 reputation scale.
type AbuseIPDBClient struct {
	APIKey     string
	BaseURL    string
	MaxAgeDays int
	HTTPClient *http.Client
}

func NewAbuseIPDBClient(apiKey string) *AbuseIPDBClient {
	return &AbuseIPDBClient{
		APIKey:     apiKey,
		BaseURL:    "https://api.abuseipdb.com",
		MaxAgeDays: 90,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *AbuseIPDBClient) CheckIP(ctx context.Context, ip string) (*model.IPReputation, error) {
	if c.APIKey == "" {
		return nil, errors.New("abuseipdb API key not configured")
	}

	params := url.Values{}
	params.Set("ipAddress", ip)
	params.Set("maxAgeInDays", fmt.Sprintf("%d", c.MaxAgeDays))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/api/v2/check?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Key", c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("abuseipdb HTTP %d", resp.StatusCode)
	}

	var body struct {
		Data struct {
			AbuseConfidenceScore int    `json:"abuseConfidenceScore"`
			CountryCode          string `json:"countryCode"`
			ISP                  string `json:"isp"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	return &model.IPReputation{
		Score:   body.Data.AbuseConfidenceScore,
		Country: body.Data.CountryCode,
		ISP:     body.Data.ISP,
	}, nil
}

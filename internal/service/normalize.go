package service

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"talos/internal/model"
)

var (
	// ErrInvalidProtocol rejects schemes that could reach local or internal
	// resources (file, gopher, ftp, ldap, ...). Only http and https may ever
	// hit the network layer.
	ErrInvalidProtocol = errors.New("protocol not allowed")
	// ErrInvalidURL means no hostname could be extracted after normalization.
	ErrInvalidURL = errors.New("invalid URL: no hostname found")
)

// SanitizeURL canonicalizes raw input into a well-formed absolute URL.
// It performs no network I/O.
func SanitizeURL(raw string) (model.NormalizedURL, error) {
	cleaned := strings.TrimSpace(raw)
	if decoded, err := url.PathUnescape(cleaned); err == nil {
		cleaned = decoded
	}

	if !strings.Contains(cleaned, "://") {
		cleaned = "http://" + cleaned
	}

	parsed, err := url.Parse(cleaned)
	if err != nil {
		return model.NormalizedURL{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return model.NormalizedURL{}, fmt.Errorf("%w: %s", ErrInvalidProtocol, scheme)
	}

	if parsed.Hostname() == "" {
		return model.NormalizedURL{}, ErrInvalidURL
	}

	parsed.Scheme = scheme
	return model.NormalizedURL{
		URL:      parsed.String(),
		Scheme:   scheme,
		Hostname: parsed.Hostname(),
	}, nil
}

package service

import (
	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"

	"talos/internal/model"
)

// WhoisService fetches registration data for a hostname. Recently registered
// domains are a common phishing signal, so registrar and creation date are
// surfaced in the infrastructure block for the analyst.
type WhoisService struct{}

func (s *WhoisService) Lookup(hostname string) (*model.RegistrationInfo, error) {
	raw, err := whois.Whois(hostname)
	if err != nil {
		return nil, err
	}

	parsed, err := whoisparser.Parse(raw)
	if err != nil {
		return nil, err
	}

	info := &model.RegistrationInfo{}
	if parsed.Registrar != nil {
		info.Registrar = parsed.Registrar.Name
	}
	if parsed.Domain != nil {
		info.Created = parsed.Domain.CreatedDate
	}
	if parsed.Registrant != nil {
		info.Org = parsed.Registrant.Organization
	}
	return info, nil
}

package service

import (
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"

	"talos/internal/model"
	"talos/internal/utils"
)

// GeoService answers country/city lookups from a local GeoLite2-City
// database. The database file is provisioned out of band; a missing or
// unreadable file just disables the fallback.
type GeoService struct {
	mu     sync.RWMutex
	reader *geoip2.Reader
}

func NewGeoService(path string) (*GeoService, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	utils.Log.Info("GeoIP database loaded", utils.Field("path", path))
	return &GeoService{reader: reader}, nil
}

func (g *GeoService) Lookup(ip string) *model.GeoInfo {
	if g == nil {
		return nil
	}
	g.mu.RLock()
	reader := g.reader
	g.mu.RUnlock()
	if reader == nil {
		return nil
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil
	}

	record, err := reader.City(parsed)
	if err != nil {
		return nil
	}

	return &model.GeoInfo{
		IP:      ip,
		Country: record.Country.Names["en"],
		City:    record.City.Names["en"],
	}
}

func (g *GeoService) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.reader != nil {
		_ = g.reader.Close()
		g.reader = nil
	}
}

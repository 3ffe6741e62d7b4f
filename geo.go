package asr

import (
	"net"

	"github.com/oschwald/maxminddb-golang"
)

// CountryResolver maps a requester IP to an ISO country code for validation
// log enrichment. Implementations return the empty string when no country
// can be determined.
type CountryResolver interface {
	Country(ip string) string
}

// GeoIPResolver resolves countries from a MaxMind database file.
type GeoIPResolver struct {
	db *maxminddb.Reader
}

// OpenGeoIP opens a MaxMind country database.
func OpenGeoIP(path string) (*GeoIPResolver, error) {
	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, err
	}
	return &GeoIPResolver{db: db}, nil
}

// Country implements CountryResolver
func (g *GeoIPResolver) Country(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	var record struct {
		Country struct {
			ISOCode string `maxminddb:"iso_code"`
		} `maxminddb:"country"`
	}
	if err := g.db.Lookup(parsed, &record); err != nil {
		return ""
	}
	return record.Country.ISOCode
}

// Close releases the underlying database.
func (g *GeoIPResolver) Close() error {
	return g.db.Close()
}

// Package geoip resolves exit IPs against local MaxMind databases.
package geoip

import (
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"

	"github.com/August26/proxyprobe/internal/model"
)

var ErrNoDatabase = errors.New("geoip: no database configured")

// Resolver reads GeoLite2/GeoIP2 City and ASN databases. Either may be
// absent; it implements model.IPResolver.
type Resolver struct {
	city *geoip2.Reader
	asn  *geoip2.Reader
}

// Open loads the databases at the given paths. Empty paths are skipped, but
// at least one must be set.
func Open(cityPath, asnPath string) (*Resolver, error) {
	if cityPath == "" && asnPath == "" {
		return nil, ErrNoDatabase
	}

	r := &Resolver{}
	if cityPath != "" {
		db, err := geoip2.Open(cityPath)
		if err != nil {
			return nil, fmt.Errorf("open city db: %w", err)
		}
		r.city = db
	}
	if asnPath != "" {
		db, err := geoip2.Open(asnPath)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("open asn db: %w", err)
		}
		r.asn = db
	}
	return r, nil
}

func (r *Resolver) Close() error {
	var errs []error
	if r.city != nil {
		errs = append(errs, r.city.Close())
	}
	if r.asn != nil {
		errs = append(errs, r.asn.Close())
	}
	return errors.Join(errs...)
}

func (r *Resolver) Lookup(ip string) (model.GeoInfo, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return model.GeoInfo{}, fmt.Errorf("geoip: invalid ip %q", ip)
	}

	var info model.GeoInfo
	if r.city != nil {
		rec, err := r.city.City(parsed)
		if err != nil {
			return info, fmt.Errorf("city lookup: %w", err)
		}
		info.City = rec.City.Names["en"]
		if len(rec.Subdivisions) > 0 {
			info.Region = rec.Subdivisions[0].Names["en"]
		}
		info.Country = rec.Country.Names["en"]
		info.CountryCode = rec.Country.IsoCode
	}
	if r.asn != nil {
		rec, err := r.asn.ASN(parsed)
		if err != nil {
			return info, fmt.Errorf("asn lookup: %w", err)
		}
		info.ASN, info.ISP = formatASN(rec.AutonomousSystemNumber, rec.AutonomousSystemOrganization)
	}
	return info, nil
}

// formatASN renders the ip-api style "AS1221 Telstra Limited".
func formatASN(num uint, org string) (asn, isp string) {
	if num == 0 {
		return "", org
	}
	if org == "" {
		return fmt.Sprintf("AS%d", num), ""
	}
	return fmt.Sprintf("AS%d %s", num, org), org
}

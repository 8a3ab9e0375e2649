package model

// GeoInfo is what an offline resolver knows about an exit IP.
type GeoInfo struct {
	ASN         string // "AS1221 Telstra Limited"
	ISP         string
	City        string
	Region      string
	Country     string
	CountryCode string
}

// IPResolver fills in identity fields the oracle left empty.
type IPResolver interface {
	Lookup(ip string) (GeoInfo, error)
}

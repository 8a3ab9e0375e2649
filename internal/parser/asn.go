package parser

import (
	"regexp"
	"strings"

	"github.com/August26/proxyprobe/internal/model"
)

var countryMarker = regexp.MustCompile(`(?i)-country`)

// InjectASN inserts "-asn-<asn>" right before the first "-country" tag of a
// provider username, e.g.
//
//	customer-123-country-au  ->  customer-123-asn-1221-country-au
//
// Non-digits are dropped from asn. The line is returned unchanged when asn is
// empty or has no country tag.
func InjectASN(raw, asn string) string {
	asn = DigitsOnly(asn)
	if asn == "" {
		return raw
	}
	loc := countryMarker.FindStringIndex(raw)
	if loc == nil {
		return raw
	}
	return raw[:loc[0]] + "-asn-" + asn + raw[loc[0]:]
}

// DigitsOnly strips everything that is not an ASCII digit.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// ApplyASN rewrites every entry whose line carries a country tag so that it
// also targets asn, re-parsing the modified line. Other entries are kept.
func ApplyASN(entries []model.Entry, asn string) []model.Entry {
	out := make([]model.Entry, len(entries))
	for i, e := range entries {
		raw := InjectASN(e.Raw, asn)
		if raw == e.Raw {
			out[i] = e
			continue
		}
		out[i] = ParseLine(raw)
	}
	return out
}

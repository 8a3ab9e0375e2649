package generator

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/August26/proxyprobe/internal/model"
)

// ProviderID names a residential proxy provider.
type ProviderID string

const (
	GoProxies ProviderID = "goproxies"
	Oxylabs   ProviderID = "oxylabs"
)

// Provider is the fixed gateway of a provider plus its username grammar.
type Provider struct {
	ID    ProviderID
	Label string
	Host  string
	Port  int

	username func(s Spec, city, asn string, session int) string
}

var providers = []Provider{
	{ID: GoProxies, Label: "GoProxies", Host: "proxy.goproxies.com", Port: 1080, username: goproxiesUser},
	{ID: Oxylabs, Label: "Oxylabs", Host: "pr.oxylabs.io", Port: 7777, username: oxylabsUser},
}

// Providers lists the supported providers.
func Providers() []Provider {
	out := make([]Provider, len(providers))
	copy(out, providers)
	return out
}

// LookupProvider finds a provider by id, case-insensitively.
func LookupProvider(id string) (Provider, bool) {
	for _, p := range providers {
		if strings.EqualFold(string(p.ID), id) {
			return p, true
		}
	}
	return Provider{}, false
}

// Spec is a provider template to expand.
type Spec struct {
	Provider ProviderID
	Username string // customer name, without the "customer-" prefix
	Password string
	Country  string // two-letter code, defaults to "au"

	Cities []string // city slugs; empty disables city targeting
	ASNs   []string // numeric ASNs; empty disables ASN targeting

	Sessions        int           // session variants per city x ASN combination
	SessionDuration time.Duration // Oxylabs sesstime, whole minutes in [1m, 24h]
}

const (
	DefaultCountry         = "au"
	DefaultSessionDuration = 10 * time.Minute
	maxSessionDuration     = 24 * time.Hour
)

// Count returns how many endpoints Generate will produce for s.
func (s Spec) Count() int {
	return s.Sessions * max(1, len(dedupe(s.Cities))) * max(1, len(dedupe(s.ASNs)))
}

// CityIgnored reports whether the provider will drop city targeting because
// ASN targeting is also requested.
func (s Spec) CityIgnored() bool {
	return s.Provider == Oxylabs && len(s.Cities) > 0 && len(s.ASNs) > 0
}

// Generate expands s into proxy URLs ordered by session index, then city,
// then ASN. The output is deterministic for identical input.
func Generate(s Spec) ([]string, error) {
	p, ok := LookupProvider(string(s.Provider))
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", s.Provider)
	}
	if s.Username == "" || s.Password == "" {
		return nil, errors.New("provider credentials are required")
	}
	if s.Sessions < 1 {
		return nil, fmt.Errorf("sessions must be positive, got %d", s.Sessions)
	}
	if s.Country == "" {
		s.Country = DefaultCountry
	}
	s.Country = strings.ToLower(s.Country)
	if s.SessionDuration == 0 {
		s.SessionDuration = DefaultSessionDuration
	}
	if s.SessionDuration < time.Minute || s.SessionDuration > maxSessionDuration {
		return nil, fmt.Errorf("session duration %s outside 1m..24h", s.SessionDuration)
	}

	cities := dedupe(s.Cities)
	asns := dedupe(s.ASNs)
	for _, a := range asns {
		if _, err := strconv.ParseUint(a, 10, 32); err != nil {
			return nil, fmt.Errorf("invalid asn %q", a)
		}
	}
	// A single empty token stands for "no targeting" on that axis.
	if len(cities) == 0 {
		cities = []string{""}
	}
	if len(asns) == 0 {
		asns = []string{""}
	}

	host := fmt.Sprintf("%s:%d", p.Host, p.Port)
	out := make([]string, 0, s.Sessions*len(cities)*len(asns))
	for i := 1; i <= s.Sessions; i++ {
		for _, city := range cities {
			for _, asn := range asns {
				u := url.URL{
					Scheme: model.SchemeHTTP,
					User:   url.UserPassword(p.username(s, city, asn, i), s.Password),
					Host:   host,
				}
				out = append(out, u.String())
			}
		}
	}
	return out, nil
}

// customer-<user>-country-<cc>[-city-<cc>_<city>][-asn-<asn>]-sessionid-<i>
func goproxiesUser(s Spec, city, asn string, session int) string {
	parts := []string{"customer-" + s.Username, "country-" + s.Country}
	if city != "" {
		parts = append(parts, "city-"+s.Country+"_"+city)
	}
	if asn != "" {
		parts = append(parts, "asn-"+asn)
	}
	parts = append(parts, "sessionid-"+strconv.Itoa(session))
	return strings.Join(parts, "-")
}

// Oxylabs cannot combine ASN with country or city targeting; the ASN wins.
// customer-<user>-(ASN-<asn> | cc-<cc>[-city-<city>])-sessid-<id>-sesstime-<sec>
func oxylabsUser(s Spec, city, asn string, session int) string {
	parts := []string{"customer-" + s.Username}
	if asn != "" {
		parts = append(parts, "ASN-"+asn)
	} else {
		parts = append(parts, "cc-"+s.Country)
		if city != "" {
			parts = append(parts, "city-"+city)
		}
	}
	prefix := city
	if prefix == "" {
		prefix = s.Country
	}
	sessID := fmt.Sprintf("%s%s%03d", prefix, asn, session)
	parts = append(parts,
		"sessid-"+sessID,
		"sesstime-"+strconv.Itoa(int(s.SessionDuration/time.Minute)*60),
	)
	return strings.Join(parts, "-")
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

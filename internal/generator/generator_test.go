package generator

import (
	"strings"
	"testing"
	"time"

	"github.com/August26/proxyprobe/internal/parser"
)

func TestGenerate_CountAndUniqueness(t *testing.T) {
	for _, prov := range []ProviderID{GoProxies, Oxylabs} {
		spec := Spec{
			Provider: prov,
			Username: "acme",
			Password: "pw",
			Cities:   []string{"sydney", "perth", "gold_coast"},
			ASNs:     []string{"1221", "7545"},
			Sessions: 4,
		}
		got, err := Generate(spec)
		if err != nil {
			t.Fatalf("%s: %v", prov, err)
		}
		if len(got) != 4*3*2 || spec.Count() != len(got) {
			t.Fatalf("%s: want %d endpoints, got %d (Count=%d)", prov, 4*3*2, len(got), spec.Count())
		}
		seen := map[string]bool{}
		for _, s := range got {
			if seen[s] {
				t.Fatalf("%s: duplicate endpoint %q", prov, s)
			}
			seen[s] = true
		}
	}
}

func TestGenerate_NoTargeting(t *testing.T) {
	got, err := Generate(Spec{Provider: GoProxies, Username: "acme", Password: "pw", Sessions: 7})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 7 {
		t.Fatalf("want 7, got %d", len(got))
	}
	want := "http://customer-acme-country-au-sessionid-1:pw@proxy.goproxies.com:1080"
	if got[0] != want {
		t.Fatalf("got %q want %q", got[0], want)
	}
}

func TestGenerate_GoProxiesFieldOrder(t *testing.T) {
	got, err := Generate(Spec{
		Provider: GoProxies, Username: "acme", Password: "pw",
		Cities: []string{"sydney"}, ASNs: []string{"1221"}, Sessions: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"http://customer-acme-country-au-city-au_sydney-asn-1221-sessionid-1:pw@proxy.goproxies.com:1080",
		"http://customer-acme-country-au-city-au_sydney-asn-1221-sessionid-2:pw@proxy.goproxies.com:1080",
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("[%d] got %q want %q", i, got[i], want[i])
		}
	}
}

func TestGenerate_OxylabsASNTakesPriority(t *testing.T) {
	spec := Spec{
		Provider: Oxylabs, Username: "acme", Password: "pw",
		Cities: []string{"sydney", "perth"}, ASNs: []string{"1221"}, Sessions: 1,
		SessionDuration: 30 * time.Minute,
	}
	if !spec.CityIgnored() {
		t.Fatalf("expected CityIgnored")
	}
	got, err := Generate(spec)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"http://customer-acme-ASN-1221-sessid-sydney1221001-sesstime-1800:pw@pr.oxylabs.io:7777",
		"http://customer-acme-ASN-1221-sessid-perth1221001-sesstime-1800:pw@pr.oxylabs.io:7777",
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("[%d] got %q want %q", i, got[i], want[i])
		}
		if strings.Contains(got[i], "-cc-") || strings.Contains(got[i], "-city-") {
			t.Fatalf("country/city must be dropped when ASN is present: %q", got[i])
		}
	}
}

func TestGenerate_OxylabsCityOnly(t *testing.T) {
	got, err := Generate(Spec{
		Provider: Oxylabs, Username: "acme", Password: "pw",
		Cities: []string{"melbourne"}, Sessions: 12,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "http://customer-acme-cc-au-city-melbourne-sessid-melbourne012-sesstime-600:pw@pr.oxylabs.io:7777"
	if got[11] != want {
		t.Fatalf("got %q want %q", got[11], want)
	}
}

func TestGenerate_OrderingIsSessionMajor(t *testing.T) {
	got, err := Generate(Spec{
		Provider: GoProxies, Username: "u", Password: "p",
		Cities: []string{"a", "b"}, ASNs: []string{"1", "2"}, Sessions: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	order := []string{
		"city-au_a-asn-1-sessionid-1", "city-au_a-asn-2-sessionid-1",
		"city-au_b-asn-1-sessionid-1", "city-au_b-asn-2-sessionid-1",
		"city-au_a-asn-1-sessionid-2", "city-au_a-asn-2-sessionid-2",
		"city-au_b-asn-1-sessionid-2", "city-au_b-asn-2-sessionid-2",
	}
	for i, frag := range order {
		if !strings.Contains(got[i], frag) {
			t.Fatalf("[%d] %q does not contain %q", i, got[i], frag)
		}
	}
}

func TestGenerate_DuplicateTokensCollapse(t *testing.T) {
	spec := Spec{Provider: GoProxies, Username: "u", Password: "p", Cities: []string{"sydney", "sydney", " "}, Sessions: 3}
	got, err := Generate(spec)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || spec.Count() != 3 {
		t.Fatalf("want 3, got %d (Count=%d)", len(got), spec.Count())
	}
}

func TestGenerate_Validation(t *testing.T) {
	base := Spec{Provider: GoProxies, Username: "u", Password: "p", Sessions: 1}
	cases := map[string]func(s *Spec){
		"no password":   func(s *Spec) { s.Password = "" },
		"no user":       func(s *Spec) { s.Username = "" },
		"zero sessions": func(s *Spec) { s.Sessions = 0 },
		"bad provider":  func(s *Spec) { s.Provider = "brightdata" },
		"bad asn":       func(s *Spec) { s.ASNs = []string{"AS12"} },
		"long session":  func(s *Spec) { s.SessionDuration = 25 * time.Hour },
	}
	for name, mutate := range cases {
		s := base
		mutate(&s)
		if _, err := Generate(s); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestGenerate_OutputParses(t *testing.T) {
	got, err := Generate(Spec{Provider: Oxylabs, Username: "u", Password: "p@ss:w/rd", Cities: []string{"perth"}, Sessions: 1})
	if err != nil {
		t.Fatal(err)
	}
	ep, err := parser.Parse(got[0])
	if err != nil {
		t.Fatalf("generated endpoint does not parse: %v", err)
	}
	if ep.Host != "pr.oxylabs.io" || ep.Port != "7777" || ep.Password != "p@ss:w/rd" {
		t.Fatalf("bad endpoint %#v", ep)
	}
	if !strings.HasPrefix(ep.Username, "customer-u-cc-au-city-perth-") {
		t.Fatalf("bad username %q", ep.Username)
	}
}

func TestCatalog(t *testing.T) {
	if name, ok := LookupASN("1221"); !ok || name != "Telstra" {
		t.Fatalf("LookupASN(1221) = %q, %v", name, ok)
	}
	if len(AllCitySlugs()) != 15 {
		t.Fatalf("want 15 cities, got %d", len(AllCitySlugs()))
	}
	if c, ok := LookupCity("hobart"); !ok || c.Note == "" {
		t.Fatalf("hobart should carry a routing note")
	}
}

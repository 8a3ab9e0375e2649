package generator

// City is a targetable city slug.
type City struct {
	Name string
	Slug string
	Note string // known routing quirk, if any
}

// Region groups cities for display.
type Region struct {
	Label  string
	Cities []City
}

// ASN is a well-known Australian network.
type ASN struct {
	Number string
	Name   string
}

// Cities verified to route inside Australia.
var auRegions = []Region{
	{Label: "NSW", Cities: []City{
		{Name: "Sydney", Slug: "sydney"},
		{Name: "Parramatta", Slug: "parramatta"},
		{Name: "Newcastle", Slug: "newcastle"},
	}},
	{Label: "VIC", Cities: []City{
		{Name: "Melbourne", Slug: "melbourne"},
		{Name: "Geelong", Slug: "geelong"},
		{Name: "Doncaster", Slug: "doncaster"},
	}},
	{Label: "QLD", Cities: []City{
		{Name: "Brisbane", Slug: "brisbane"},
		{Name: "Gold Coast", Slug: "gold_coast"},
		{Name: "Cairns", Slug: "cairns"},
		{Name: "Maroochydore", Slug: "maroochydore"},
	}},
	{Label: "WA", Cities: []City{
		{Name: "Perth", Slug: "perth"},
	}},
	{Label: "Other", Cities: []City{
		{Name: "Adelaide", Slug: "adelaide", Note: "may route to Sydney"},
		{Name: "Hobart", Slug: "hobart", Note: "may route to Launceston"},
		{Name: "Canberra", Slug: "canberra", Note: "may route to Sydney"},
		{Name: "Darwin", Slug: "darwin", Note: "may route to Sydney"},
	}},
}

var auASNs = []ASN{
	{"1221", "Telstra"},
	{"4764", "Aussie Broadband"},
	{"4804", "Microplex / Optus"},
	{"7545", "TPG Telecom"},
	{"7474", "SingTel Optus"},
	{"9443", "Vocus / Dodo"},
	{"4739", "Internode"},
	{"9942", "iiNet"},
	{"38195", "Superloop"},
	{"133612", "Aussie Broadband"},
	{"18106", "Vodafone AU"},
	{"9924", "Primus / Vocus"},
	{"132524", "Launtel"},
	{"58511", "ABB / Anycast"},
	{"4826", "Vocus Group"},
}

// Regions returns the Australian city catalog.
func Regions() []Region { return auRegions }

// AllCitySlugs flattens Regions in display order.
func AllCitySlugs() []string {
	var out []string
	for _, r := range auRegions {
		for _, c := range r.Cities {
			out = append(out, c.Slug)
		}
	}
	return out
}

// LookupCity finds a city by slug.
func LookupCity(slug string) (City, bool) {
	for _, r := range auRegions {
		for _, c := range r.Cities {
			if c.Slug == slug {
				return c, true
			}
		}
	}
	return City{}, false
}

// KnownASNs returns the Australian ASN catalog.
func KnownASNs() []ASN { return auASNs }

// LookupASN returns the operator name for a catalogued ASN.
func LookupASN(number string) (string, bool) {
	for _, a := range auASNs {
		if a.Number == number {
			return a.Name, true
		}
	}
	return "", false
}

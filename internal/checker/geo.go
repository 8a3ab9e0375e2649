package checker

import (
	"github.com/August26/proxyprobe/internal/model"
)

// enrich fills identity fields the oracle left empty from the offline
// resolver, if one is configured.
func (c *Client) enrich(o *model.Outcome) {
	if c.Resolver == nil {
		return
	}
	if o.ASN != "" && o.ISP != "" && o.City != "" && o.Region != "" && o.Country != "" && o.CountryCode != "" {
		return
	}

	info, err := c.Resolver.Lookup(o.IP)
	if err != nil {
		c.Log.Debug("offline lookup failed", "ip", o.IP, "err", err)
		return
	}

	setIfEmpty(&o.ASN, info.ASN)
	setIfEmpty(&o.ISP, info.ISP)
	setIfEmpty(&o.City, info.City)
	setIfEmpty(&o.Region, info.Region)
	setIfEmpty(&o.Country, info.Country)
	setIfEmpty(&o.CountryCode, info.CountryCode)
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

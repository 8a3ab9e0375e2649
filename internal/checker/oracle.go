package checker

import (
	"github.com/tidwall/gjson"

	"github.com/August26/proxyprobe/internal/model"
)

// decodeOracle turns an ip-api style payload into an outcome:
//
//	{"status":"success","query":"1.2.3.4","as":"AS1221 Telstra","isp":"Telstra",...}
//	{"status":"fail","message":"invalid query"}
func decodeOracle(body []byte) model.Outcome {
	if !gjson.ValidBytes(body) {
		return model.Failed(ReasonBadPayload)
	}
	r := gjson.ParseBytes(body)
	if !r.IsObject() {
		return model.Failed(ReasonBadPayload)
	}

	if r.Get("status").String() != "success" {
		msg := r.Get("message").String()
		if msg == "" {
			msg = "unknown"
		}
		return model.Failed("lookup failed: " + msg)
	}

	ip := r.Get("query").String()
	if ip == "" {
		return model.Failed("lookup failed: no ip in response")
	}

	isp := r.Get("isp").String()
	if isp == "" {
		isp = r.Get("org").String()
	}

	return model.Outcome{
		Status:      model.StatusSuccess,
		IP:          ip,
		ASN:         r.Get("as").String(),
		ISP:         isp,
		City:        r.Get("city").String(),
		Region:      r.Get("regionName").String(),
		Country:     r.Get("country").String(),
		CountryCode: r.Get("countryCode").String(),
		Lat:         r.Get("lat").Float(),
		Lon:         r.Get("lon").Float(),
		Timezone:    r.Get("timezone").String(),
	}
}

func fillPlaceholders(o *model.Outcome) {
	for _, f := range []*string{&o.ASN, &o.ISP, &o.City, &o.Region, &o.Country, &o.CountryCode, &o.Timezone} {
		if *f == "" {
			*f = model.Placeholder
		}
	}
}

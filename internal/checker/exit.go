package checker

import (
	"net"
	"strings"

	"github.com/August26/proxyprobe/internal/model"
)

// Exit kinds reported by ClassifyExit.
const (
	ExitResidential = "residential"
	ExitHosting     = "hosting"
	ExitPrivate     = "private"
	ExitUnknown     = "unknown"
)

// Substrings that mark datacenter / hosting networks in ISP names.
var hostingKeywords = []string{
	"cloud", "hosting", "data", "server", "colo",
	"digitalocean", "aws", "amazon", "google", "azure",
	"hetzner", "ovh", "linode", "vultr", "leaseweb",
}

// ClassifyExit guesses what kind of network an exit IP lives in.
// Residential pools that leak a hosting ISP are usually misrouted.
func ClassifyExit(ip, isp string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ExitUnknown
	}

	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsLinkLocalUnicast() || parsed.IsUnspecified() {
		return ExitPrivate
	}

	lowerISP := strings.ToLower(isp)
	if lowerISP == "" || isp == model.Placeholder {
		return ExitUnknown
	}
	for _, kw := range hostingKeywords {
		if strings.Contains(lowerISP, kw) {
			return ExitHosting
		}
	}
	return ExitResidential
}

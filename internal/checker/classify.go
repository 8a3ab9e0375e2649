package checker

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// Canonical failure reasons.
const (
	ReasonRefused    = "connection refused"
	ReasonTimeout    = "timed out"
	ReasonNotFound   = "host not found"
	ReasonReset      = "connection reset"
	ReasonProxyAuth  = "proxy authentication required"
	ReasonBadPayload = "invalid oracle response"
)

// classifyErr maps a transport error to one of the canonical reasons, or
// to the error text when it is not recognised.
func classifyErr(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return ReasonRefused
	case isTimeoutErr(err):
		return ReasonTimeout
	case isDNSErr(err):
		return ReasonNotFound
	case errors.Is(err, syscall.ECONNRESET):
		return ReasonReset
	}

	// Some dialers flatten the cause into a string.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"):
		return ReasonRefused
	case strings.Contains(msg, "i/o timeout"), strings.Contains(msg, "deadline exceeded"):
		return ReasonTimeout
	case strings.Contains(msg, "no such host"):
		return ReasonNotFound
	case strings.Contains(msg, "connection reset"):
		return ReasonReset
	}

	// Drop the `Get "http://...":` prefix, the oracle URL is noise.
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err.Error()
	}
	return err.Error()
}

func isTimeoutErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isDNSErr(err error) bool {
	var de *net.DNSError
	return errors.As(err, &de)
}

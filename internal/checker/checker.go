package checker

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"

	"github.com/August26/proxyprobe/internal/model"
)

const (
	// DefaultOracleURL is the geolocation endpoint. The free tier is
	// plaintext HTTP only.
	DefaultOracleURL = "http://ip-api.com/json/"
	DefaultTimeout   = 15 * time.Second

	oracleFields = "status,message,query,country,countryCode,region,regionName,city,lat,lon,timezone,isp,org,as"
	maxBodyBytes = 64 * 1024
)

// Client probes endpoints against the geolocation oracle.
type Client struct {
	OracleURL string
	Timeout   time.Duration
	Resolver  model.IPResolver // optional offline enrichment
	Log       *slog.Logger
}

// New returns a Client with defaults filled in for empty arguments.
func New(oracleURL string, timeout time.Duration, log *slog.Logger) *Client {
	if oracleURL == "" {
		oracleURL = DefaultOracleURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Client{OracleURL: oracleURL, Timeout: timeout, Log: log}
}

// Probe sends one request through ep and classifies the response.
// It never retries; the timeout applies on top of whatever ctx carries.
func (c *Client) Probe(ctx context.Context, ep model.Endpoint) model.Outcome {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	start := time.Now()

	hc, err := buildClientForEndpoint(ep, c.Timeout)
	if err != nil {
		return model.Failed(err.Error())
	}
	defer hc.CloseIdleConnections()

	out := c.fetch(ctx, hc)
	out.LatencyMs = time.Since(start).Milliseconds()

	c.Log.Debug("probe finished",
		"proxy", ep.Redacted(),
		"status", out.Status.String(),
		"ip", out.IP,
		"reason", out.Reason,
		"latency_ms", out.LatencyMs,
	)
	return out
}

// Lookup asks the oracle about the caller's own address, without a proxy.
func (c *Client) Lookup(ctx context.Context) model.Outcome {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	start := time.Now()
	hc := &http.Client{Transport: newTransport(c.Timeout)}
	defer hc.CloseIdleConnections()

	out := c.fetch(ctx, hc)
	out.LatencyMs = time.Since(start).Milliseconds()
	return out
}

func (c *Client) fetch(ctx context.Context, hc *http.Client) model.Outcome {
	target, err := oracleRequestURL(c.OracleURL)
	if err != nil {
		return model.Failed("bad oracle url: " + err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return model.Failed(err.Error())
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return model.Failed(classifyErr(err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusProxyAuthRequired:
		_, _ = io.Copy(io.Discard, resp.Body)
		return model.Failed(ReasonProxyAuth)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, resp.Body)
		return model.Failed(fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return model.Failed(classifyErr(err))
	}

	out := decodeOracle(body)
	if out.OK() {
		c.enrich(&out)
		fillPlaceholders(&out)
		out.ExitKind = ClassifyExit(out.IP, out.ISP)
	}
	return out
}

func oracleRequestURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Query().Get("fields") != "" {
		return u.String(), nil
	}
	if u.RawQuery != "" {
		u.RawQuery += "&"
	}
	u.RawQuery += "fields=" + oracleFields
	return u.String(), nil
}

// ------------------------------------------------------------------------------------
// Transports
// ------------------------------------------------------------------------------------

func newTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
		DisableKeepAlives:     true,
		MaxIdleConnsPerHost:   1,
	}
}

// buildClientForEndpoint returns an *http.Client whose connections go
// through ep, picking the transport by scheme.
func buildClientForEndpoint(ep model.Endpoint, timeout time.Duration) (*http.Client, error) {
	transport := newTransport(timeout)
	base := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}

	switch ep.Scheme {
	case model.SchemeHTTP, model.SchemeHTTPS:
		transport.Proxy = http.ProxyURL(ep.URL())

	case model.SchemeSOCKS5:
		var auth *proxy.Auth
		if ep.HasAuth() {
			auth = &proxy.Auth{User: ep.Username, Password: ep.Password}
		}
		dialer, err := proxy.SOCKS5("tcp", socksAddress(ep), auth, base)
		if err != nil {
			return nil, err
		}
		cd, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, errors.New("socks5 dialer does not implement DialContext")
		}
		transport.DialContext = cd.DialContext

	case model.SchemeSOCKS4:
		transport.DialContext = (&socks4Dialer{
			proxyAddr: socksAddress(ep),
			userID:    ep.Username,
			forward:   base,
		}).DialContext

	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", ep.Scheme)
	}

	return &http.Client{Transport: transport}, nil
}

// socksAddress defaults the port to 1080 when the input had none.
func socksAddress(ep model.Endpoint) string {
	if ep.Port == "" {
		return net.JoinHostPort(ep.Host, "1080")
	}
	return ep.Address()
}

package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/August26/proxyprobe/internal/model"
)

// ParseError reports a line that carried a scheme prefix but is not a valid
// proxy URL. Fragment is the part of the input that could not be used.
type ParseError struct {
	Input    string
	Fragment string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid proxy url %q: %v", e.Fragment, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var schemePrefix = regexp.MustCompile(`(?i)^(https?|socks[45]?)://`)

// Parse turns one raw line into an Endpoint. Grammars are tried in order:
//
//  1. scheme://[user:pass@]host[:port]   (http, https, socks, socks4, socks5)
//  2. host:port:user:pass
//  3. host:port
//  4. user:pass@host:port
//  5. anything else is taken as a bare host
//
// Only grammar 1 can fail. Case 5 is lossy: a typo silently becomes a
// host-only endpoint, see ParseLine for the variant that flags it.
func Parse(raw string) (model.Endpoint, error) {
	ep, _, err := parse(raw)
	return ep, err
}

// ParseLine never fails. A ParseError is replaced by the host-only fallback
// and the entry is marked Degraded, as is any line that only matched case 5.
func ParseLine(raw string) model.Entry {
	ep, fallback, err := parse(raw)
	if err != nil {
		return model.Entry{
			Raw:      raw,
			Endpoint: hostOnly(raw),
			Degraded: true,
			ParseErr: err.Error(),
		}
	}
	return model.Entry{Raw: raw, Endpoint: ep, Degraded: fallback}
}

func parse(raw string) (model.Endpoint, bool, error) {
	if m := schemePrefix.FindStringSubmatch(raw); m != nil {
		ep, err := parseURL(raw, strings.ToLower(m[1]))
		return ep, false, err
	}

	col := strings.Split(raw, ":")
	switch len(col) {
	case 4:
		// host:port:user:pass
		return model.Endpoint{
			Scheme:   model.SchemeHTTP,
			Host:     col[0],
			Port:     col[1],
			Username: col[2],
			Password: col[3],
		}, false, nil
	case 2:
		// host:port
		return model.Endpoint{
			Scheme: model.SchemeHTTP,
			Host:   col[0],
			Port:   col[1],
		}, false, nil
	}

	// user:pass@host:port without a scheme
	if strings.Contains(raw, "@") {
		if ep, err := parseURL("http://"+raw, model.SchemeHTTP); err == nil {
			return ep, false, nil
		}
	}

	return hostOnly(raw), true, nil
}

func parseURL(raw, scheme string) (model.Endpoint, error) {
	u, err := url.Parse(raw)
	if err != nil {
		// url.Error repeats the whole input, password included.
		if ue, ok := err.(*url.Error); ok {
			err = ue.Err
		}
		return model.Endpoint{}, &ParseError{Input: raw, Fragment: offending(raw, err), Err: err}
	}
	if u.Hostname() == "" {
		return model.Endpoint{}, &ParseError{Input: raw, Fragment: authority(raw), Err: errors.New("missing host")}
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return model.Endpoint{}, &ParseError{Input: raw, Fragment: p, Err: errors.New("port out of range")}
		}
	}

	if scheme == "socks" {
		scheme = model.SchemeSOCKS5
	}
	ep := model.Endpoint{
		Scheme: scheme,
		Host:   u.Hostname(),
		Port:   u.Port(),
	}
	if u.User != nil {
		// url.Parse already percent-decodes userinfo.
		ep.Username = u.User.Username()
		ep.Password, _ = u.User.Password()
	}
	return ep, nil
}

// offending digs the bad substring out of a net/url error, falling back to
// the host part of the input.
func offending(raw string, err error) string {
	switch e := err.(type) {
	case url.InvalidHostError:
		return string(e)
	case url.EscapeError:
		return string(e)
	}
	msg := err.Error()
	if i, j := strings.Index(msg, "\""), strings.LastIndex(msg, "\""); j > i {
		return msg[i+1 : j]
	}
	return authority(raw)
}

// authority returns host[:port] of a URL-ish string without its userinfo.
func authority(raw string) string {
	s := raw
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

func hostOnly(raw string) model.Endpoint {
	return model.Endpoint{Scheme: model.SchemeHTTP, Host: raw}
}

// ParseList splits a pasted blob into entries, one per non-empty line.
// Lines starting with '#' are ignored. Submission order is preserved.
func ParseList(text string) []model.Entry {
	entries, _ := Load(strings.NewReader(text), nil)
	return entries
}

// LoadFromFile reads a proxy list from path, "-" meaning stdin.
func LoadFromFile(path string, log *slog.Logger) ([]model.Entry, error) {
	if path == "-" {
		return Load(os.Stdin, log)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()
	return Load(f, log)
}

// Load parses every line of r. Degraded lines are kept and, when log is set,
// reported as warnings.
func Load(r io.Reader, log *slog.Logger) ([]model.Entry, error) {
	var out []model.Entry
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}

		e := ParseLine(s)
		if e.Degraded && log != nil {
			log.Warn("proxy line parsed as bare host",
				"line", line,
				"parse_error", e.ParseErr,
			)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}
	return out, nil
}

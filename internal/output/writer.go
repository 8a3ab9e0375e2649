package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/August26/proxyprobe/internal/analytics"
	"github.com/August26/proxyprobe/internal/model"
)

const maxReasonRunes = 30

// PrintResultsTable prints a human-readable table of per-proxy results.
func PrintResultsTable(w io.Writer, rows []analytics.Row) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)

	// header
	fmt.Fprintln(tw, "#\tPROXY\tIP\tASN\tLOCATION\tEXIT\tLAT(ms)\tSTATUS")

	for _, r := range rows {
		o := r.Entry.Outcome

		ip, asn, location, exit, lat := "-", "-", "-", "-", "-"
		if o.OK() {
			ip = o.IP
			asn = o.ASN
			location = Location(o)
			exit = dashIfEmpty(o.ExitKind)
		}
		if o.LatencyMs > 0 {
			lat = fmt.Sprintf("%d", o.LatencyMs)
		}

		proxy := r.Entry.Raw
		if r.Entry.Degraded {
			proxy += " (?)"
		}

		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Index+1,
			proxy,
			ip,
			asn,
			location,
			exit,
			lat,
			statusText(o),
		)
	}

	tw.Flush()
}

func statusText(o model.Outcome) string {
	if o.Status != model.StatusFailure {
		return o.Status.String()
	}
	return o.Status.String() + ": " + Truncate(o.Reason, maxReasonRunes)
}

// Truncate shortens s to n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// Location renders "🇦🇺 Sydney, New South Wales, Australia", skipping
// placeholder parts.
func Location(o model.Outcome) string {
	var parts []string
	for _, p := range []string{o.City, o.Region, o.Country} {
		if p != "" && p != model.Placeholder {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return model.Placeholder
	}
	loc := strings.Join(parts, ", ")
	if flag := Flag(o.CountryCode); flag != "" {
		loc = flag + " " + loc
	}
	return loc
}

// Flag maps an ISO 3166 alpha-2 code to its regional-indicator emoji.
func Flag(code string) string {
	if len(code) != 2 {
		return ""
	}
	code = strings.ToUpper(code)
	var b strings.Builder
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (c - 'A'))
	}
	return b.String()
}

// PrintSummary prints the aggregated batch stats.
func PrintSummary(w io.Writer, stats model.BatchStats) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Total proxies:            %d\n", stats.Total)
	fmt.Fprintf(w, "  Unique proxies:           %d\n", stats.UniqueProxies)
	fmt.Fprintf(w, "  Working:                  %d\n", stats.Succeeded)
	fmt.Fprintf(w, "  Failed:                   %d\n", stats.Failed)
	if stats.Pending > 0 {
		fmt.Fprintf(w, "  Not tested:               %d\n", stats.Pending)
	}
	fmt.Fprintf(w, "  Unique exit IPs:          %d\n", stats.UniqueIPs)
	fmt.Fprintf(w, "  Success rate:             %.1f%%\n", stats.SuccessRatePct)
	fmt.Fprintf(w, "  Avg latency (working):    %.1f ms\n", stats.AvgLatencyMs)
	fmt.Fprintf(w, "  Batch time:               %.2f s\n", float64(stats.TotalProcessingTimeMs)/1000.0)
}

// PrintDetail prints everything known about one endpoint, credentials
// included.
func PrintDetail(w io.Writer, index int, e model.Entry) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	ep := e.Endpoint

	fmt.Fprintf(tw, "Proxy #%d\n", index+1)
	fmt.Fprintf(tw, "  Protocol:\t%s\n", ep.Scheme)
	fmt.Fprintf(tw, "  Host:\t%s\n", ep.Host)
	fmt.Fprintf(tw, "  Port:\t%s\n", dashIfEmpty(ep.Port))
	fmt.Fprintf(tw, "  Username:\t%s\n", dashIfEmpty(ep.Username))
	fmt.Fprintf(tw, "  Password:\t%s\n", dashIfEmpty(ep.Password))
	fmt.Fprintf(tw, "  URL:\t%s\n", ep.String())
	if e.Degraded {
		fmt.Fprintf(tw, "  Parse:\t%s\n", dashIfEmpty(e.ParseErr))
	}

	o := e.Outcome
	fmt.Fprintf(tw, "  Status:\t%s\n", o.Status)
	if o.OK() {
		fmt.Fprintf(tw, "  IP:\t%s\n", o.IP)
		fmt.Fprintf(tw, "  ASN:\t%s\n", o.ASN)
		fmt.Fprintf(tw, "  ISP:\t%s\n", o.ISP)
		fmt.Fprintf(tw, "  Location:\t%s\n", Location(o))
		fmt.Fprintf(tw, "  Timezone:\t%s\n", o.Timezone)
		fmt.Fprintf(tw, "  Exit:\t%s\n", dashIfEmpty(o.ExitKind))
	} else if o.Reason != "" {
		fmt.Fprintf(tw, "  Reason:\t%s\n", o.Reason)
	}
	if o.LatencyMs > 0 {
		fmt.Fprintf(tw, "  Latency:\t%d ms\n", o.LatencyMs)
	}
	tw.Flush()
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// WriteFile writes all entries + summary stats to a file in json or csv format.
func WriteFile(path string, format string, entries []model.Entry, stats model.BatchStats) error {
	var write func(io.Writer) error
	switch format {
	case "json":
		write = func(w io.Writer) error { return WriteJSON(w, entries, stats) }
	case "csv":
		write = func(w io.Writer) error { return WriteCSV(w, entries) }
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := write(f); err != nil {
		return err
	}
	return f.Close()
}

// WriteJSON writes an object with "results" and "summary".
func WriteJSON(w io.Writer, entries []model.Entry, stats model.BatchStats) error {
	payload := struct {
		Results []model.Entry    `json:"results"`
		Summary model.BatchStats `json:"summary"`
	}{
		Results: entries,
		Summary: stats,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// WriteCSV writes one row per entry in submission order. Entries without a
// successful outcome keep only the proxy and status columns.
func WriteCSV(w io.Writer, entries []model.Entry) error {
	cw := csv.NewWriter(w)

	header := []string{"Proxy", "IP", "ASN", "ISP", "City", "Region", "Country", "Status"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, e := range entries {
		o := e.Outcome
		row := []string{e.Raw, "", "", "", "", "", "", o.Status.String()}
		if o.OK() {
			row = []string{e.Raw, o.IP, o.ASN, o.ISP, o.City, o.Region, o.Country, o.Status.String()}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

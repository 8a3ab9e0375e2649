package model

// Placeholder is shown instead of an empty field on a successful lookup so
// that table columns stay stable.
const Placeholder = "—"

// Status is the lifecycle position of one entry in a run.
// Transitions only move forward: Pending -> InFlight -> Success|Failure.
type Status int

const (
	StatusPending Status = iota
	StatusInFlight
	StatusSuccess
	StatusFailure
)

// String returns the tag used in tables and exports.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInFlight:
		return "testing"
	case StatusSuccess:
		return "ok"
	case StatusFailure:
		return "fail"
	default:
		return "unknown"
	}
}

// MarshalText lets the tag appear in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailure
}

// Outcome is the result of probing one endpoint. Only the fields relevant to
// Status are set: the identity fields for StatusSuccess, Reason for
// StatusFailure.
type Outcome struct {
	Status Status `json:"status"`

	IP          string  `json:"ip,omitempty"`
	ASN         string  `json:"asn,omitempty"` // "AS1221 Telstra Corporation Ltd" as reported
	ISP         string  `json:"isp,omitempty"`
	City        string  `json:"city,omitempty"`
	Region      string  `json:"region,omitempty"`
	Country     string  `json:"country,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
	Lat         float64 `json:"lat,omitempty"`
	Lon         float64 `json:"lon,omitempty"`
	Timezone    string  `json:"timezone,omitempty"`
	ExitKind    string  `json:"exit_kind,omitempty"` // residential / hosting / private / unknown

	Reason    string `json:"reason,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

// Failed builds a failure outcome.
func Failed(reason string) Outcome {
	return Outcome{Status: StatusFailure, Reason: reason}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess
}

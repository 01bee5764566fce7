package model

// AnalysisType selects which report an operation produces.
type AnalysisType string

const (
	AnalysisStreet        AnalysisType = "street"
	AnalysisLandUse       AnalysisType = "land-use"
	AnalysisCollaborative AnalysisType = "collaborative-works"
)

// MetricStatus tells consumers whether a derived metric was computable.
type MetricStatus string

const (
	MetricOK MetricStatus = "ok"
	// MetricUnavailable means a required domain was absent. The Reason field
	// says why; the metric is never silently defaulted to zero.
	MetricUnavailable MetricStatus = "unavailable"
)

// MetricKind distinguishes numeric from categorical metrics.
type MetricKind string

const (
	MetricNumeric     MetricKind = "numeric"
	MetricCategorical MetricKind = "categorical"
)

// BreakdownEntry is one key/value pair of a metric breakdown, kept as a slice
// (not a map) so report serialisation stays byte-deterministic.
type BreakdownEntry struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// DerivedMetric is a named value computed from one or more domains' records.
// It is immutable once attached to a MergedReport.
type DerivedMetric struct {
	Name      string           `json:"name"`
	Kind      MetricKind       `json:"kind"`
	Status    MetricStatus     `json:"status"`
	Value     float64          `json:"value,omitempty"`
	Category  string           `json:"category,omitempty"`
	Breakdown []BreakdownEntry `json:"breakdown,omitempty"`
	// Rule names the rule-table entry that produced a categorical result,
	// so every recommendation is traceable.
	Rule   string `json:"rule,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// FailureStage says where in the request a domain fetch broke down.
type FailureStage string

const (
	StageResolve FailureStage = "resolve"
	StageFetch   FailureStage = "fetch"
)

// FetchFailure records why one domain produced no records. Partial failure is
// not total failure: other domains proceed independently.
type FetchFailure struct {
	Domain     Domain       `json:"domain"`
	Collection string       `json:"collection"`
	Stage      FailureStage `json:"stage"`
	Reason     string       `json:"reason"`
}

// MergedReport is the merge engine's output: one ordered record sequence per
// domain plus derived metrics, all keyed by USRN. Created fresh per request
// and never persisted by the core.
type MergedReport struct {
	USRN     string                        `json:"usrn"`
	Analysis AnalysisType                  `json:"analysis"`
	Records  map[Domain][]NormalizedRecord `json:"records"`
	Metrics  []DerivedMetric               `json:"metrics"`
	Failures map[Domain]FetchFailure       `json:"failures,omitempty"`
	Rejected map[Domain]int                `json:"rejected,omitempty"`
}

// DomainStatus summarises one domain's outcome for the external contract.
type DomainStatus string

const (
	DomainOK           DomainStatus = "ok"
	DomainPartial      DomainStatus = "partial" // some records rejected during normalisation
	DomainFailed       DomainStatus = "failed"
	DomainNotRequested DomainStatus = "not-requested"
)

// DomainProvenance states, per domain, which collections contributed and how
// the fetch went. Responses never show a silent empty list indistinguishable
// from "confirmed empty".
type DomainProvenance struct {
	Domain      Domain       `json:"domain"`
	Collections []string     `json:"collections,omitempty"`
	Status      DomainStatus `json:"status"`
	Records     int          `json:"records"`
	Rejected    int          `json:"rejected,omitempty"`
	Reason      string       `json:"reason,omitempty"`
}

// ExternalReport is the hand-off structure consumed by the serving and
// summarisation layers. Field order and slice ordering are deterministic so
// identical inputs serialise byte-identically.
type ExternalReport struct {
	USRN       string                        `json:"usrn"`
	Analysis   AnalysisType                  `json:"analysis"`
	Records    map[Domain][]NormalizedRecord `json:"records"`
	Metrics    []DerivedMetric               `json:"metrics"`
	Provenance []DomainProvenance            `json:"provenance"`
}

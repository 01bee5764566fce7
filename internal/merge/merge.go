package merge

import (
	"sort"
	"time"

	"github.com/usrn-labs/streetwise/internal/model"
)

// Engine derives metrics from normalized records. Metrics are immutable once
// attached: a missing domain yields an unavailable metric with a reason,
// never a silent zero.
type Engine struct {
	rules *Rules
	now   func() time.Time
}

// NewEngine creates an Engine over a rule table.
func NewEngine(rules *Rules) *Engine {
	return &Engine{rules: rules, now: time.Now}
}

// Input is everything one gather produced for a USRN after normalisation.
type Input struct {
	USRN      string
	Analysis  model.AnalysisType
	Requested []model.CollectionSpec
	Records   map[model.Domain][]model.NormalizedRecord
	Rejected  map[model.Domain]int
	Failures  map[model.Domain]model.FetchFailure
}

// Merge builds the MergedReport for one request. The same input always
// produces an identical report: metric order is fixed, breakdowns are sorted
// by key, and nothing depends on map iteration order.
func (e *Engine) Merge(in Input) *model.MergedReport {
	report := &model.MergedReport{
		USRN:     in.USRN,
		Analysis: in.Analysis,
		Records:  in.Records,
		Failures: in.Failures,
		Rejected: in.Rejected,
	}
	if report.Records == nil {
		report.Records = make(map[model.Domain][]model.NormalizedRecord)
	}

	d := domainView{input: in}

	switch in.Analysis {
	case model.AnalysisStreet:
		report.Metrics = append(report.Metrics, e.designationMetrics(d)...)
		report.Metrics = append(report.Metrics, e.worksMetrics(d)...)
	case model.AnalysisLandUse:
		report.Metrics = append(report.Metrics, e.landUseMetrics(d)...)
	case model.AnalysisCollaborative:
		report.Metrics = append(report.Metrics, e.designationMetrics(d)...)
		report.Metrics = append(report.Metrics, e.landUseMetrics(d)...)
		report.Metrics = append(report.Metrics, e.worksMetrics(d)...)
		report.Metrics = append(report.Metrics, e.impactMetrics(d)...)
		report.Metrics = append(report.Metrics, e.recommendation(d))
	}
	return report
}

// domainView answers availability questions about one gather's domains.
type domainView struct {
	input Input
}

func (v domainView) requested(d model.Domain) bool {
	for _, spec := range v.input.Requested {
		if spec.Domain == d {
			return true
		}
	}
	return false
}

func (v domainView) records(d model.Domain) []model.NormalizedRecord {
	return v.input.Records[d]
}

// unavailable returns the reason a domain's metrics cannot be computed, or ""
// when they can. A failed domain that still produced records through another
// collection counts as available.
func (v domainView) unavailable(d model.Domain) string {
	if !v.requested(d) {
		return "not requested"
	}
	if len(v.records(d)) > 0 {
		return ""
	}
	if failure, ok := v.input.Failures[d]; ok {
		return failure.Reason
	}
	return ""
}

func unavailableMetric(name string, kind model.MetricKind, reason string) model.DerivedMetric {
	return model.DerivedMetric{Name: name, Kind: kind, Status: model.MetricUnavailable, Reason: reason}
}

func numericMetric(name string, value float64) model.DerivedMetric {
	return model.DerivedMetric{Name: name, Kind: model.MetricNumeric, Status: model.MetricOK, Value: value}
}

func breakdownMetric(name string, counts map[string]float64) model.DerivedMetric {
	entries := make([]model.BreakdownEntry, 0, len(counts))
	for key, value := range counts {
		entries = append(entries, model.BreakdownEntry{Key: key, Value: value})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return model.DerivedMetric{Name: name, Kind: model.MetricCategorical, Status: model.MetricOK, Breakdown: entries}
}

func (e *Engine) designationMetrics(v domainView) []model.DerivedMetric {
	if reason := v.unavailable(model.DomainDesignation); reason != "" {
		return []model.DerivedMetric{
			unavailableMetric("designation_count", model.MetricNumeric, reason),
			unavailableMetric("designation_breakdown", model.MetricCategorical, reason),
			unavailableMetric("restriction_present", model.MetricCategorical, reason),
		}
	}

	records := v.records(model.DomainDesignation)
	byType := make(map[string]float64)
	restricted := false
	for _, rec := range records {
		if t := rec.StringField("designation"); t != "" {
			byType[t]++
		}
		if rec.StringField("timeinterval") != "" {
			restricted = true
		}
	}

	present := model.DerivedMetric{
		Name:     "restriction_present",
		Kind:     model.MetricCategorical,
		Status:   model.MetricOK,
		Category: "no",
	}
	if restricted {
		present.Category = "yes"
	}

	return []model.DerivedMetric{
		numericMetric("designation_count", float64(len(records))),
		breakdownMetric("designation_breakdown", byType),
		present,
	}
}

func (e *Engine) landUseMetrics(v domainView) []model.DerivedMetric {
	if reason := v.unavailable(model.DomainLandUse); reason != "" {
		return []model.DerivedMetric{
			unavailableMetric("land_use_total_area", model.MetricNumeric, reason),
			unavailableMetric("land_use_category_breakdown", model.MetricCategorical, reason),
			unavailableMetric("building_count", model.MetricNumeric, reason),
		}
	}

	var totalArea float64
	var buildings float64
	byCategory := make(map[string]float64)
	for _, rec := range v.records(model.DomainLandUse) {
		if rec.Collection == "bld-fts-buildingpart-1" {
			buildings++
			continue
		}
		area, ok := rec.NumberField("geometry_area")
		if !ok {
			continue
		}
		totalArea += area
		category := rec.StringField("oslandusetiera")
		if category == "" {
			category = "unclassified"
		}
		byCategory[category] += area
	}

	return []model.DerivedMetric{
		numericMetric("land_use_total_area", totalArea),
		breakdownMetric("land_use_category_breakdown", byCategory),
		numericMetric("building_count", buildings),
	}
}

func (e *Engine) worksMetrics(v domainView) []model.DerivedMetric {
	if reason := v.unavailable(model.DomainWorks); reason != "" {
		return []model.DerivedMetric{
			unavailableMetric("works_total", model.MetricNumeric, reason),
			unavailableMetric("works_sector_breakdown", model.MetricCategorical, reason),
			unavailableMetric("works_recent_count", model.MetricNumeric, reason),
		}
	}

	var total, recent float64
	bySector := make(map[string]float64)
	cutoff := e.now().AddDate(0, 0, -e.rules.RecentWorksWindowDays)
	for _, rec := range v.records(model.DomainWorks) {
		count, ok := rec.NumberField("total_works")
		if !ok {
			continue
		}
		total += count
		sector := rec.StringField("sector")
		if sector == "" {
			sector = "Other"
		}
		bySector[sector] += count
		if e.completedSince(rec, cutoff) {
			recent += count
		}
	}

	return []model.DerivedMetric{
		numericMetric("works_total", total),
		breakdownMetric("works_sector_breakdown", bySector),
		numericMetric("works_recent_count", recent),
	}
}

func (e *Engine) completedSince(rec model.NormalizedRecord, cutoff time.Time) bool {
	raw := rec.StringField("last_completed")
	if raw == "" {
		return false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return false
	}
	return t.After(cutoff)
}

func (e *Engine) impactMetrics(v domainView) []model.DerivedMetric {
	if reason := v.unavailable(model.DomainImpact); reason != "" {
		return []model.DerivedMetric{
			unavailableMetric("impact_average", model.MetricNumeric, reason),
			unavailableMetric("nuar_asset_count", model.MetricNumeric, reason),
		}
	}

	var scoreSum, scores, assets float64
	haveAssets := false
	for _, rec := range v.records(model.DomainImpact) {
		if s, ok := rec.NumberField("score"); ok {
			scoreSum += s
			scores++
		}
		if a, ok := rec.NumberField("asset_count"); ok {
			assets += a
			haveAssets = true
		}
	}

	var out []model.DerivedMetric
	if scores > 0 {
		out = append(out, numericMetric("impact_average", scoreSum/scores))
	} else {
		out = append(out, unavailableMetric("impact_average", model.MetricNumeric, "no impact score data"))
	}
	if haveAssets {
		out = append(out, numericMetric("nuar_asset_count", assets))
	} else {
		out = append(out, unavailableMetric("nuar_asset_count", model.MetricNumeric, "no asset count data"))
	}
	return out
}

// recommendation evaluates the rule table over designation severity, land-use
// sensitivity and recent promoter activity. Every ok result names the rule
// that produced it.
func (e *Engine) recommendation(v domainView) model.DerivedMetric {
	const name = "collaborative_works_recommendation"

	for _, required := range []struct {
		domain model.Domain
		reason string
	}{
		{model.DomainDesignation, "missing designation data"},
		{model.DomainLandUse, "missing land-use data"},
		{model.DomainWorks, "missing works-history data"},
	} {
		if v.unavailable(required.domain) != "" {
			return unavailableMetric(name, model.MetricCategorical, required.reason)
		}
	}

	severity := e.severity(v.records(model.DomainDesignation))
	sensitivity := e.sensitivity(v.records(model.DomainLandUse))
	recent := e.recentWorks(v.records(model.DomainWorks))

	rule := e.rules.Evaluate(severity, sensitivity, recent)
	return model.DerivedMetric{
		Name:     name,
		Kind:     model.MetricCategorical,
		Status:   model.MetricOK,
		Category: rule.Recommendation,
		Rule:     rule.Name,
	}
}

func (e *Engine) severity(records []model.NormalizedRecord) string {
	severe := 0
	for _, rec := range records {
		if e.rules.IsSevere(rec.StringField("designation")) {
			severe++
		}
	}
	switch {
	case severe >= 2:
		return LevelHigh
	case severe == 1:
		return LevelMedium
	default:
		return LevelLow
	}
}

func (e *Engine) sensitivity(records []model.NormalizedRecord) string {
	highest := LevelLow
	for _, rec := range records {
		switch e.rules.SensitivityOf(rec.StringField("oslandusetiera")) {
		case LevelHigh:
			return LevelHigh
		case LevelMedium:
			highest = LevelMedium
		}
	}
	return highest
}

func (e *Engine) recentWorks(records []model.NormalizedRecord) bool {
	cutoff := e.now().AddDate(0, 0, -e.rules.RecentWorksWindowDays)
	for _, rec := range records {
		if e.completedSince(rec, cutoff) {
			return true
		}
	}
	return false
}

// Package analysis exposes the per-analysis-type operations: resolve, gather,
// normalize, merge and assemble one street report.
package analysis

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/usrn-labs/streetwise/internal/collection"
	"github.com/usrn-labs/streetwise/internal/coordinator"
	"github.com/usrn-labs/streetwise/internal/merge"
	"github.com/usrn-labs/streetwise/internal/model"
	"github.com/usrn-labs/streetwise/internal/normalize"
	"github.com/usrn-labs/streetwise/internal/report"
)

// Gatherer is the coordinator's fan-out operation.
type Gatherer interface {
	Gather(ctx context.Context, usrn string, specs []model.CollectionSpec) *coordinator.Result
}

// Service runs street analyses end to end.
type Service struct {
	gatherer   Gatherer
	normalizer *normalize.Normalizer
	engine     *merge.Engine
}

// NewService wires the pipeline stages together.
func NewService(g Gatherer, n *normalize.Normalizer, e *merge.Engine) *Service {
	return &Service{gatherer: g, normalizer: n, engine: e}
}

// Run produces the report for one USRN and analysis type. Collections may
// override the analysis type's default selection. The request fails only when
// every requested collection failed and nothing was resolvable; anything less
// degrades to a partial, annotated report.
func (s *Service) Run(ctx context.Context, usrn string, analysis model.AnalysisType, collections []string) (*model.ExternalReport, error) {
	if usrn == "" {
		return nil, &model.ValidationError{Msg: "analysis: usrn is required"}
	}

	specs, err := selectCollections(analysis, collections)
	if err != nil {
		return nil, err
	}

	res := s.gatherer.Gather(ctx, usrn, specs)

	records := make(map[model.Domain][]model.NormalizedRecord)
	rejected := make(map[model.Domain]int)
	total := 0
	for domain, raw := range res.Features {
		out := s.normalizer.Normalize(usrn, domain, raw)
		records[domain] = out.Records
		if out.Rejected > 0 {
			rejected[domain] = out.Rejected
		}
		total += len(out.Records)
	}

	if total == 0 && allFailed(specs, res.Failures) {
		return nil, eris.Wrapf(firstFailure(specs, res.Failures), "analysis: nothing resolvable for USRN %s", usrn)
	}

	merged := s.engine.Merge(merge.Input{
		USRN:      usrn,
		Analysis:  analysis,
		Requested: specs,
		Records:   records,
		Rejected:  rejected,
		Failures:  res.Failures,
	})

	zap.L().Info("analysis complete",
		zap.String("usrn", usrn),
		zap.String("analysis", string(analysis)),
		zap.Int("records", total),
		zap.Int("failed_domains", len(res.Failures)),
	)
	return report.Assemble(merged, specs), nil
}

func selectCollections(analysis model.AnalysisType, overrides []string) ([]model.CollectionSpec, error) {
	if len(overrides) == 0 {
		specs := collection.ForAnalysis(analysis)
		if len(specs) == 0 {
			return nil, eris.Errorf("analysis: unknown analysis type %q", analysis)
		}
		return specs, nil
	}

	specs := make([]model.CollectionSpec, 0, len(overrides))
	for _, id := range overrides {
		spec, ok := collection.Spec(id)
		if !ok {
			return nil, &model.ValidationError{Msg: fmt.Sprintf("analysis: unknown collection %q", id)}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func allFailed(specs []model.CollectionSpec, failures map[model.Domain]model.FetchFailure) bool {
	if len(failures) == 0 {
		return false
	}
	for _, spec := range specs {
		if _, ok := failures[spec.Domain]; !ok {
			return false
		}
	}
	return true
}

func firstFailure(specs []model.CollectionSpec, failures map[model.Domain]model.FetchFailure) error {
	for _, spec := range specs {
		if f, ok := failures[spec.Domain]; ok {
			return eris.New(f.Reason)
		}
	}
	return eris.New("all collections failed")
}

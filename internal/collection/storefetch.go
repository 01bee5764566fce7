package collection

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/usrn-labs/streetwise/internal/model"
	"github.com/usrn-labs/streetwise/internal/store"
)

// StoreFetcher serves store-mode collections from the analytical database,
// presenting rows as raw features so downstream stages treat every source
// uniformly.
type StoreFetcher struct {
	Store store.Store
}

func (f *StoreFetcher) Fetch(ctx context.Context, spec model.CollectionSpec, q model.Query) ([]model.RawFeature, error) {
	usrn, ok := strings.CutPrefix(q.Filter, "usrn=")
	if !ok || usrn == "" {
		return nil, &model.UpstreamError{
			Collection: spec.ID,
			Err:        eris.Errorf("collection: store fetch needs a usrn filter, got %q", q.Filter),
		}
	}

	switch spec.ID {
	case WorksHistory:
		return f.works(ctx, usrn)
	case ImpactScore:
		return f.impact(ctx, usrn)
	default:
		return nil, &model.UpstreamError{
			Collection: spec.ID,
			Err:        eris.Errorf("collection: no store backing for %s", spec.ID),
		}
	}
}

func (f *StoreFetcher) works(ctx context.Context, usrn string) ([]model.RawFeature, error) {
	rows, err := f.Store.WorksSummary(ctx, usrn)
	if err != nil {
		return nil, &model.UpstreamError{Collection: WorksHistory, Err: err}
	}
	raw := make([]model.RawFeature, 0, len(rows))
	for i, row := range rows {
		raw = append(raw, model.RawFeature{
			ID:         fmt.Sprintf("%s/%s/%d", WorksHistory, usrn, i),
			Collection: WorksHistory,
			Properties: map[string]any{
				"usrn":           row.USRN,
				"promoter":       row.Promoter,
				"promoter_swa":   row.PromoterSWA,
				"sector":         row.Sector,
				"total_works":    row.TotalWorks,
				"last_completed": row.LastCompleted.Format("2006-01-02"),
			},
		})
	}
	return raw, nil
}

func (f *StoreFetcher) impact(ctx context.Context, usrn string) ([]model.RawFeature, error) {
	rows, err := f.Store.ImpactScores(ctx, usrn)
	if err != nil {
		return nil, &model.UpstreamError{Collection: ImpactScore, Err: err}
	}
	raw := make([]model.RawFeature, 0, len(rows))
	for i, row := range rows {
		raw = append(raw, model.RawFeature{
			ID:         fmt.Sprintf("%s/%s/%d", ImpactScore, usrn, i),
			Collection: ImpactScore,
			Properties: map[string]any{
				"usrn":        row.USRN,
				"score":       row.Score,
				"band":        row.Band,
				"assessed_at": row.AssessedAt.Format("2006-01-02"),
			},
		})
	}
	return raw, nil
}

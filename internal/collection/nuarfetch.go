package collection

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/usrn-labs/streetwise/internal/model"
	"github.com/usrn-labs/streetwise/pkg/nuar"
)

// NUARFetcher surfaces the NUAR asset-count metric as a single synthetic
// feature in the impact-score domain.
type NUARFetcher struct {
	Client nuar.Client
}

func (f *NUARFetcher) Fetch(ctx context.Context, spec model.CollectionSpec, q model.Query) ([]model.RawFeature, error) {
	if q.BBox == nil {
		return nil, &model.UpstreamError{
			Collection: spec.ID,
			Err:        eris.New("collection: nuar fetch needs a bounding box"),
		}
	}

	result, err := f.Client.AssetCount(ctx, q.BBox.String())
	if err != nil {
		return nil, &model.UpstreamError{
			Collection: spec.ID,
			StatusCode: statusOf(err),
			Err:        err,
		}
	}

	return []model.RawFeature{{
		ID:         spec.ID + "/" + result.BBox,
		Collection: spec.ID,
		Properties: map[string]any{
			"asset_count": result.AssetCount,
			"bbox":        result.BBox,
		},
	}}, nil
}

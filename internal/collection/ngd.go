package collection

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/usrn-labs/streetwise/internal/model"
	"github.com/usrn-labs/streetwise/internal/resilience"
	"github.com/usrn-labs/streetwise/pkg/osngd"
)

// NGDFetcher pulls features from the OS NGD Features API, following
// pagination until the collection is exhausted.
type NGDFetcher struct {
	Client   osngd.Client
	PageSize int
}

func (f *NGDFetcher) Fetch(ctx context.Context, spec model.CollectionSpec, q model.Query) ([]model.RawFeature, error) {
	fq := osngd.FeatureQuery{Limit: f.PageSize}
	switch {
	case q.BBox != nil:
		fq.BBox = q.BBox.String()
	case q.Filter != "":
		fq.Filter = q.Filter
	}

	features, err := f.Client.FeaturesAll(ctx, spec.ID, fq)
	if err != nil {
		return nil, &model.UpstreamError{
			Collection: spec.ID,
			StatusCode: statusOf(err),
			Err:        err,
		}
	}

	raw := make([]model.RawFeature, 0, len(features))
	for _, ft := range features {
		raw = append(raw, model.RawFeature{
			ID:         ft.ID,
			Collection: spec.ID,
			Geometry:   ft.Geometry,
			Properties: ft.Properties,
		})
	}
	zap.L().Debug("fetched collection",
		zap.String("collection", spec.ID),
		zap.Int("features", len(raw)),
	)
	return raw, nil
}

// statusOf extracts an HTTP status from the error chain when the transport
// recorded one.
func statusOf(err error) int {
	var te *resilience.TransientError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}

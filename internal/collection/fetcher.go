package collection

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/usrn-labs/streetwise/internal/model"
	"github.com/usrn-labs/streetwise/internal/store"
	"github.com/usrn-labs/streetwise/pkg/nuar"
	"github.com/usrn-labs/streetwise/pkg/osngd"
)

// Fetcher pulls raw features from one kind of upstream source. Failures are
// returned as UpstreamError so the coordinator can isolate them per domain.
type Fetcher interface {
	Fetch(ctx context.Context, spec model.CollectionSpec, q model.Query) ([]model.RawFeature, error)
}

// Set routes each collection to the fetcher that serves it: the NGD API for
// OS collections, the analytical store for local rows, NUAR for asset counts.
type Set struct {
	ngd   Fetcher
	store Fetcher
	nuar  Fetcher
}

// NewSet wires the three fetcher backends. The NUAR client may be nil when no
// token is configured; fetching its collection then fails cleanly upstream.
func NewSet(ngdClient osngd.Client, st store.Store, nuarClient nuar.Client, pageSize int) *Set {
	s := &Set{
		ngd:   &NGDFetcher{Client: ngdClient, PageSize: pageSize},
		store: &StoreFetcher{Store: st},
	}
	if nuarClient != nil {
		s.nuar = &NUARFetcher{Client: nuarClient}
	}
	return s
}

// Fetch dispatches to the backend serving the collection.
func (s *Set) Fetch(ctx context.Context, spec model.CollectionSpec, q model.Query) ([]model.RawFeature, error) {
	switch {
	case spec.Mode == model.QueryStore:
		return s.store.Fetch(ctx, spec, q)
	case spec.ID == NUARAssetCount:
		if s.nuar == nil {
			return nil, &model.UpstreamError{
				Collection: spec.ID,
				Err:        eris.New("collection: nuar client not configured"),
			}
		}
		return s.nuar.Fetch(ctx, spec, q)
	default:
		return s.ngd.Fetch(ctx, spec, q)
	}
}

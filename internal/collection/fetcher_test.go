package collection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usrn-labs/streetwise/internal/model"
	"github.com/usrn-labs/streetwise/internal/store"
	"github.com/usrn-labs/streetwise/pkg/nuar"
	"github.com/usrn-labs/streetwise/pkg/osngd"
)

type fakeNGD struct {
	gotCollection string
	gotQuery      osngd.FeatureQuery
	features      []osngd.Feature
	err           error
}

func (f *fakeNGD) Collections(context.Context) ([]osngd.CollectionInfo, error) { return nil, nil }

func (f *fakeNGD) Features(context.Context, string, osngd.FeatureQuery) (*osngd.FeatureCollection, error) {
	return nil, nil
}

func (f *fakeNGD) FeaturesAll(_ context.Context, collectionID string, q osngd.FeatureQuery) ([]osngd.Feature, error) {
	f.gotCollection = collectionID
	f.gotQuery = q
	return f.features, f.err
}

type fakeStore struct {
	store.Store
	works  []store.WorksRow
	impact []store.ImpactRow
	err    error
}

func (f *fakeStore) WorksSummary(context.Context, string) ([]store.WorksRow, error) {
	return f.works, f.err
}

func (f *fakeStore) ImpactScores(context.Context, string) ([]store.ImpactRow, error) {
	return f.impact, f.err
}

type fakeNUAR struct {
	result *nuar.AssetCountResult
	err    error
}

func (f *fakeNUAR) AssetCount(_ context.Context, bbox string) (*nuar.AssetCountResult, error) {
	if f.result != nil {
		f.result.BBox = bbox
	}
	return f.result, f.err
}

func TestNGDFetcherDirectFilter(t *testing.T) {
	ngd := &fakeNGD{features: []osngd.Feature{
		{ID: "f-1", Properties: map[string]any{"designation": "Traffic Sensitive Street"}},
	}}
	f := &NGDFetcher{Client: ngd, PageSize: 100}

	spec, ok := Spec(DesignationLine)
	require.True(t, ok)

	raw, err := f.Fetch(context.Background(), spec, model.Query{Filter: "usrn=8100239"})
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, DesignationLine, ngd.gotCollection)
	assert.Equal(t, "usrn=8100239", ngd.gotQuery.Filter)
	assert.Empty(t, ngd.gotQuery.BBox)
	assert.Equal(t, DesignationLine, raw[0].Collection)
	assert.Equal(t, "f-1", raw[0].ID)
}

func TestNGDFetcherBBox(t *testing.T) {
	ngd := &fakeNGD{}
	f := &NGDFetcher{Client: ngd, PageSize: 100}

	box := model.BoundingBox{MinX: 100, MinY: 200, MaxX: 300, MaxY: 400}
	spec, _ := Spec(LandUseSite)

	_, err := f.Fetch(context.Background(), spec, model.Query{BBox: &box})
	require.NoError(t, err)
	assert.Equal(t, "100,200,300,400", ngd.gotQuery.BBox)
	assert.Empty(t, ngd.gotQuery.Filter)
}

func TestNGDFetcherWrapsUpstreamError(t *testing.T) {
	ngd := &fakeNGD{err: assert.AnError}
	f := &NGDFetcher{Client: ngd}

	spec, _ := Spec(StreetNetwork)
	_, err := f.Fetch(context.Background(), spec, model.Query{Filter: "usrn=1"})
	require.Error(t, err)
	assert.True(t, model.IsUpstream(err))
}

func TestStoreFetcherWorks(t *testing.T) {
	st := &fakeStore{works: []store.WorksRow{{
		USRN:          "8100239",
		Promoter:      "Southern Water",
		PromoterSWA:   "7181",
		Sector:        "Water",
		TotalWorks:    2,
		LastCompleted: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
	}}}
	f := &StoreFetcher{Store: st}

	spec, _ := Spec(WorksHistory)
	raw, err := f.Fetch(context.Background(), spec, model.Query{Filter: "usrn=8100239"})
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, "Southern Water", raw[0].Properties["promoter"])
	assert.Equal(t, 2, raw[0].Properties["total_works"])
	assert.Equal(t, "2025-05-02", raw[0].Properties["last_completed"])
}

func TestStoreFetcherImpact(t *testing.T) {
	st := &fakeStore{impact: []store.ImpactRow{{
		USRN: "8100239", Score: 48, Band: "medium",
		AssessedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}}}
	f := &StoreFetcher{Store: st}

	spec, _ := Spec(ImpactScore)
	raw, err := f.Fetch(context.Background(), spec, model.Query{Filter: "usrn=8100239"})
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, 48.0, raw[0].Properties["score"])
	assert.Equal(t, "medium", raw[0].Properties["band"])
}

func TestStoreFetcherRejectsMissingFilter(t *testing.T) {
	f := &StoreFetcher{Store: &fakeStore{}}
	spec, _ := Spec(WorksHistory)

	_, err := f.Fetch(context.Background(), spec, model.Query{})
	require.Error(t, err)
	assert.True(t, model.IsUpstream(err))
}

func TestNUARFetcher(t *testing.T) {
	f := &NUARFetcher{Client: &fakeNUAR{result: &nuar.AssetCountResult{AssetCount: 17}}}

	box := model.BoundingBox{MinX: 1, MinY: 2, MaxX: 3, MaxY: 4}
	spec, _ := Spec(NUARAssetCount)
	raw, err := f.Fetch(context.Background(), spec, model.Query{BBox: &box})
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, 17, raw[0].Properties["asset_count"])
	assert.Equal(t, "1,2,3,4", raw[0].Properties["bbox"])
}

func TestNUARFetcherNeedsBBox(t *testing.T) {
	f := &NUARFetcher{Client: &fakeNUAR{}}
	spec, _ := Spec(NUARAssetCount)

	_, err := f.Fetch(context.Background(), spec, model.Query{Filter: "usrn=1"})
	require.Error(t, err)
	assert.True(t, model.IsUpstream(err))
}

func TestSetRouting(t *testing.T) {
	ngd := &fakeNGD{}
	set := NewSet(ngd, &fakeStore{}, &fakeNUAR{result: &nuar.AssetCountResult{}}, 100)

	box := model.BoundingBox{MinX: 1, MinY: 1, MaxX: 2, MaxY: 2}

	spec, _ := Spec(StreetNetwork)
	_, err := set.Fetch(context.Background(), spec, model.Query{Filter: "usrn=1"})
	require.NoError(t, err)
	assert.Equal(t, StreetNetwork, ngd.gotCollection)

	spec, _ = Spec(WorksHistory)
	_, err = set.Fetch(context.Background(), spec, model.Query{Filter: "usrn=1"})
	require.NoError(t, err)

	spec, _ = Spec(NUARAssetCount)
	_, err = set.Fetch(context.Background(), spec, model.Query{BBox: &box})
	require.NoError(t, err)
}

func TestSetWithoutNUARClient(t *testing.T) {
	set := NewSet(&fakeNGD{}, &fakeStore{}, nil, 100)

	box := model.BoundingBox{MinX: 1, MinY: 1, MaxX: 2, MaxY: 2}
	spec, _ := Spec(NUARAssetCount)
	_, err := set.Fetch(context.Background(), spec, model.Query{BBox: &box})
	require.Error(t, err)
	assert.True(t, model.IsUpstream(err))
}

func TestForAnalysis(t *testing.T) {
	street := ForAnalysis(model.AnalysisStreet)
	ids := make([]string, 0, len(street))
	for _, s := range street {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{StreetNetwork, DesignationLine, DesignationArea, DesignationPoint, WorksHistory}, ids)

	landuse := ForAnalysis(model.AnalysisLandUse)
	require.Len(t, landuse, 2)
	for _, s := range landuse {
		assert.Equal(t, model.DomainLandUse, s.Domain)
		assert.Equal(t, model.QueryBBox, s.Mode)
	}

	collab := ForAnalysis(model.AnalysisCollaborative)
	assert.Len(t, collab, 8)

	assert.Nil(t, ForAnalysis("bogus"))
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestStreetGeometryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	n, err := s.LoadStreets(ctx, []Street{
		{USRN: "8100239", Geometry: "LINESTRING (437292 115541, 437621 115771)"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	wkt, err := s.StreetGeometry(ctx, "8100239")
	require.NoError(t, err)
	assert.Equal(t, "LINESTRING (437292 115541, 437621 115771)", wkt)
}

func TestStreetGeometryNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.StreetGeometry(context.Background(), "999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadStreetsUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.LoadStreets(ctx, []Street{{USRN: "1", Geometry: "POINT (1 1)"}})
	require.NoError(t, err)
	_, err = s.LoadStreets(ctx, []Street{{USRN: "1", Geometry: "POINT (2 2)"}})
	require.NoError(t, err)

	wkt, err := s.StreetGeometry(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "POINT (2 2)", wkt)
}

func TestWorksSummaryAggregation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.ImportSWACodes(ctx, []SWACode{
		{Code: "7181", Name: "Southern Water", OfwatLicence: true},
		{Code: "30", Name: "Openreach", OfcomLicence: true},
	})
	require.NoError(t, err)

	insert := `INSERT INTO works_history (usrn, permit_ref, promoter, promoter_swa, work_status, completed_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	for _, row := range [][]any{
		{"8100239", "P-001", "Southern Water", "7181", "completed", "2025-03-10"},
		{"8100239", "P-001", "Southern Water", "7181", "completed", "2025-03-10"}, // duplicate permit
		{"8100239", "P-002", "Southern Water", "7181", "completed", "2025-05-02"},
		{"8100239", "P-003", "Openreach", "30", "completed", "2025-01-20"},
		{"8100239", "P-004", "Openreach", "30", "in_progress", ""}, // not completed
		{"9999999", "P-005", "Someone Else", "", "completed", "2025-02-01"},
	} {
		_, err := s.db.ExecContext(ctx, insert, row...)
		require.NoError(t, err)
	}

	rows, err := s.WorksSummary(ctx, "8100239")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Southern Water", rows[0].Promoter)
	assert.Equal(t, "Water", rows[0].Sector)
	assert.Equal(t, 2, rows[0].TotalWorks)
	assert.Equal(t, time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC), rows[0].LastCompleted)

	assert.Equal(t, "Openreach", rows[1].Promoter)
	assert.Equal(t, "Telecommunications", rows[1].Sector)
	assert.Equal(t, 1, rows[1].TotalWorks)
}

func TestImpactScores(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	insert := `INSERT INTO impact_scores (usrn, score, band, assessed_at) VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, insert, "8100239", 62.5, "high", "2025-01-01")
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, insert, "8100239", 48.0, "medium", "2025-06-01")
	require.NoError(t, err)

	rows, err := s.ImpactScores(ctx, "8100239")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Newest first.
	assert.Equal(t, 48.0, rows[0].Score)
	assert.Equal(t, "medium", rows[0].Band)
	assert.Equal(t, 62.5, rows[1].Score)
}

func TestClassifySector(t *testing.T) {
	assert.Equal(t, "Water", classifySector(true, false, false, true, false))
	assert.Equal(t, "Electricity", classifySector(false, true, false, false, false))
	assert.Equal(t, "Gas", classifySector(false, false, true, false, false))
	assert.Equal(t, "Telecommunications", classifySector(false, false, false, true, false))
	assert.Equal(t, "Highway Authority", classifySector(false, false, false, false, true))
	assert.Equal(t, "Other", classifySector(false, false, false, false, false))
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStreetGeometry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT geometry FROM streets").
		WithArgs("8100239").
		WillReturnRows(pgxmock.NewRows([]string{"geometry"}).
			AddRow("LINESTRING (437292 115541, 437621 115771)"))

	s := NewPostgresFromPool(mock)
	wkt, err := s.StreetGeometry(context.Background(), "8100239")
	require.NoError(t, err)
	assert.Equal(t, "LINESTRING (437292 115541, 437621 115771)", wkt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStreetGeometryNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT geometry FROM streets").
		WithArgs("404").
		WillReturnRows(pgxmock.NewRows([]string{"geometry"}))

	s := NewPostgresFromPool(mock)
	_, err = s.StreetGeometry(context.Background(), "404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresWorksSummary(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	last := time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM works_history").
		WithArgs("8100239").
		WillReturnRows(pgxmock.NewRows([]string{
			"usrn", "promoter", "promoter_swa",
			"ofwat", "ofgem_electric", "ofgem_gas", "ofcom", "highway_auth",
			"total_works", "last_completed",
		}).AddRow("8100239", "Southern Water", "7181", true, false, false, false, false, 2, &last))

	s := NewPostgresFromPool(mock)
	rows, err := s.WorksSummary(context.Background(), "8100239")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Water", rows[0].Sector)
	assert.Equal(t, 2, rows[0].TotalWorks)
	assert.Equal(t, last, rows[0].LastCompleted)
}

func TestPostgresImpactScores(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	assessed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM impact_scores").
		WithArgs("8100239").
		WillReturnRows(pgxmock.NewRows([]string{"usrn", "score", "band", "assessed_at"}).
			AddRow("8100239", 48.0, "medium", assessed))

	s := NewPostgresFromPool(mock)
	rows, err := s.ImpactScores(context.Background(), "8100239")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "medium", rows[0].Band)
}

func TestPostgresLoadStreets(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO streets").
		WithArgs("1", "POINT (1 1)").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s := NewPostgresFromPool(mock)
	n, err := s.LoadStreets(context.Background(), []Street{{USRN: "1", Geometry: "POINT (1 1)"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresStore implements Store on PostgreSQL via pgx.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects to PostgreSQL with a connection pool. The pool is safe
// for concurrent use across fetches and overlapping requests.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "store: ping postgres")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool (used by tests).
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS streets (
	usrn     TEXT PRIMARY KEY,
	geometry TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS works_history (
	id           BIGSERIAL PRIMARY KEY,
	usrn         TEXT NOT NULL,
	permit_ref   TEXT NOT NULL,
	promoter     TEXT NOT NULL,
	promoter_swa TEXT,
	work_status  TEXT NOT NULL,
	completed_at DATE
);
CREATE INDEX IF NOT EXISTS idx_works_history_usrn ON works_history (usrn);

CREATE TABLE IF NOT EXISTS swa_codes (
	swa_code       TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	ofwat          BOOLEAN NOT NULL DEFAULT FALSE,
	ofgem_electric BOOLEAN NOT NULL DEFAULT FALSE,
	ofgem_gas      BOOLEAN NOT NULL DEFAULT FALSE,
	ofcom          BOOLEAN NOT NULL DEFAULT FALSE,
	highway_auth   BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS impact_scores (
	id          BIGSERIAL PRIMARY KEY,
	usrn        TEXT NOT NULL,
	score       DOUBLE PRECISION NOT NULL,
	band        TEXT NOT NULL,
	assessed_at DATE NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_impact_scores_usrn ON impact_scores (usrn);
`

// Migrate creates the schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "store: migrate postgres")
	}
	return nil
}

// StreetGeometry returns the WKT geometry for a USRN.
func (s *PostgresStore) StreetGeometry(ctx context.Context, usrn string) (string, error) {
	var wkt string
	err := s.pool.QueryRow(ctx, `SELECT geometry FROM streets WHERE usrn = $1`, usrn).Scan(&wkt)
	if err == pgx.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", eris.Wrapf(err, "store: street geometry for %s", usrn)
	}
	return wkt, nil
}

const postgresWorksSummary = `
SELECT w.usrn, w.promoter, COALESCE(w.promoter_swa, ''),
       COALESCE(c.ofwat, FALSE), COALESCE(c.ofgem_electric, FALSE),
       COALESCE(c.ofgem_gas, FALSE), COALESCE(c.ofcom, FALSE),
       COALESCE(c.highway_auth, FALSE),
       COUNT(DISTINCT w.permit_ref) AS total_works,
       MAX(w.completed_at) AS last_completed
FROM works_history w
LEFT JOIN swa_codes c ON w.promoter_swa = c.swa_code
WHERE w.usrn = $1 AND w.work_status = 'completed'
GROUP BY w.usrn, w.promoter, w.promoter_swa,
         c.ofwat, c.ofgem_electric, c.ofgem_gas, c.ofcom, c.highway_auth
ORDER BY total_works DESC, w.promoter
`

// WorksSummary returns completed-works aggregates for a USRN.
func (s *PostgresStore) WorksSummary(ctx context.Context, usrn string) ([]WorksRow, error) {
	rows, err := s.pool.Query(ctx, postgresWorksSummary, usrn)
	if err != nil {
		return nil, eris.Wrapf(err, "store: works summary for %s", usrn)
	}
	defer rows.Close()

	var out []WorksRow
	for rows.Next() {
		var r WorksRow
		var ofwat, ofgemE, ofgemG, ofcom, highway bool
		var last *time.Time
		if err := rows.Scan(&r.USRN, &r.Promoter, &r.PromoterSWA,
			&ofwat, &ofgemE, &ofgemG, &ofcom, &highway,
			&r.TotalWorks, &last); err != nil {
			return nil, eris.Wrap(err, "store: scan works row")
		}
		if last != nil {
			r.LastCompleted = *last
		}
		r.Sector = classifySector(ofwat, ofgemE, ofgemG, ofcom, highway)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate works rows")
	}
	return out, nil
}

// ImpactScores returns impact score rows for a USRN, newest first.
func (s *PostgresStore) ImpactScores(ctx context.Context, usrn string) ([]ImpactRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT usrn, score, band, assessed_at FROM impact_scores WHERE usrn = $1 ORDER BY assessed_at DESC`,
		usrn)
	if err != nil {
		return nil, eris.Wrapf(err, "store: impact scores for %s", usrn)
	}
	defer rows.Close()

	var out []ImpactRow
	for rows.Next() {
		var r ImpactRow
		if err := rows.Scan(&r.USRN, &r.Score, &r.Band, &r.AssessedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan impact row")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate impact rows")
	}
	return out, nil
}

// LoadStreets upserts street geometries.
func (s *PostgresStore) LoadStreets(ctx context.Context, streets []Street) (int, error) {
	var n int
	for _, st := range streets {
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO streets (usrn, geometry) VALUES ($1, $2)
			 ON CONFLICT (usrn) DO UPDATE SET geometry = EXCLUDED.geometry`,
			st.USRN, st.Geometry); err != nil {
			return n, eris.Wrapf(err, "store: upsert street %s", st.USRN)
		}
		n++
	}
	return n, nil
}

// ImportSWACodes replaces the SWA code register.
func (s *PostgresStore) ImportSWACodes(ctx context.Context, codes []SWACode) (int, error) {
	if _, err := s.pool.Exec(ctx, `DELETE FROM swa_codes`); err != nil {
		return 0, eris.Wrap(err, "store: clear swa codes")
	}
	var n int
	for _, c := range codes {
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO swa_codes (swa_code, name, ofwat, ofgem_electric, ofgem_gas, ofcom, highway_auth)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			c.Code, c.Name, c.OfwatLicence, c.OfgemElectric, c.OfgemGas, c.OfcomLicence, c.HighwayAuth); err != nil {
			return n, eris.Wrapf(err, "store: insert swa code %s", c.Code)
		}
		n++
	}
	return n, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

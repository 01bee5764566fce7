package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite for local use.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS streets (
	usrn     TEXT PRIMARY KEY,
	geometry TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS works_history (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	usrn         TEXT NOT NULL,
	permit_ref   TEXT NOT NULL,
	promoter     TEXT NOT NULL,
	promoter_swa TEXT,
	work_status  TEXT NOT NULL,
	completed_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_works_history_usrn ON works_history (usrn);

CREATE TABLE IF NOT EXISTS swa_codes (
	swa_code       TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	ofwat          INTEGER NOT NULL DEFAULT 0,
	ofgem_electric INTEGER NOT NULL DEFAULT 0,
	ofgem_gas      INTEGER NOT NULL DEFAULT 0,
	ofcom          INTEGER NOT NULL DEFAULT 0,
	highway_auth   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS impact_scores (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	usrn        TEXT NOT NULL,
	score       REAL NOT NULL,
	band        TEXT NOT NULL,
	assessed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_impact_scores_usrn ON impact_scores (usrn);
`

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "store: migrate sqlite")
	}
	return nil
}

// StreetGeometry returns the WKT geometry for a USRN.
func (s *SQLiteStore) StreetGeometry(ctx context.Context, usrn string) (string, error) {
	var wkt string
	err := s.db.QueryRowContext(ctx, `SELECT geometry FROM streets WHERE usrn = ?`, usrn).Scan(&wkt)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", eris.Wrapf(err, "store: street geometry for %s", usrn)
	}
	return wkt, nil
}

const sqliteWorksSummary = `
SELECT w.usrn, w.promoter, COALESCE(w.promoter_swa, ''),
       COALESCE(c.ofwat, 0), COALESCE(c.ofgem_electric, 0),
       COALESCE(c.ofgem_gas, 0), COALESCE(c.ofcom, 0),
       COALESCE(c.highway_auth, 0),
       COUNT(DISTINCT w.permit_ref) AS total_works,
       COALESCE(MAX(w.completed_at), '') AS last_completed
FROM works_history w
LEFT JOIN swa_codes c ON w.promoter_swa = c.swa_code
WHERE w.usrn = ? AND w.work_status = 'completed'
GROUP BY w.usrn, w.promoter, w.promoter_swa
ORDER BY total_works DESC, w.promoter
`

// WorksSummary returns completed-works aggregates for a USRN.
func (s *SQLiteStore) WorksSummary(ctx context.Context, usrn string) ([]WorksRow, error) {
	rows, err := s.db.QueryContext(ctx, sqliteWorksSummary, usrn)
	if err != nil {
		return nil, eris.Wrapf(err, "store: works summary for %s", usrn)
	}
	defer rows.Close()

	var out []WorksRow
	for rows.Next() {
		var r WorksRow
		var ofwat, ofgemE, ofgemG, ofcom, highway bool
		var last string
		if err := rows.Scan(&r.USRN, &r.Promoter, &r.PromoterSWA,
			&ofwat, &ofgemE, &ofgemG, &ofcom, &highway,
			&r.TotalWorks, &last); err != nil {
			return nil, eris.Wrap(err, "store: scan works row")
		}
		if last != "" {
			t, err := time.Parse("2006-01-02", last)
			if err != nil {
				return nil, eris.Wrapf(err, "store: parse completed_at %q", last)
			}
			r.LastCompleted = t
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
func (s *SQLiteStore) ImpactScores(ctx context.Context, usrn string) ([]ImpactRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT usrn, score, band, assessed_at FROM impact_scores WHERE usrn = ? ORDER BY assessed_at DESC`,
		usrn)
	if err != nil {
		return nil, eris.Wrapf(err, "store: impact scores for %s", usrn)
	}
	defer rows.Close()

	var out []ImpactRow
	for rows.Next() {
		var r ImpactRow
		var assessed string
		if err := rows.Scan(&r.USRN, &r.Score, &r.Band, &assessed); err != nil {
			return nil, eris.Wrap(err, "store: scan impact row")
		}
		t, err := time.Parse("2006-01-02", assessed)
		if err != nil {
			return nil, eris.Wrapf(err, "store: parse assessed_at %q", assessed)
		}
		r.AssessedAt = t
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate impact rows")
	}
	return out, nil
}

// LoadStreets upserts street geometries inside one transaction.
func (s *SQLiteStore) LoadStreets(ctx context.Context, streets []Street) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "store: begin load streets")
	}
	defer tx.Rollback() //nolint:errcheck

	var n int
	for _, st := range streets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO streets (usrn, geometry) VALUES (?, ?)
			 ON CONFLICT (usrn) DO UPDATE SET geometry = excluded.geometry`,
			st.USRN, st.Geometry); err != nil {
			return n, eris.Wrapf(err, "store: upsert street %s", st.USRN)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return n, eris.Wrap(err, "store: commit load streets")
	}
	return n, nil
}

// ImportSWACodes replaces the SWA code register inside one transaction.
func (s *SQLiteStore) ImportSWACodes(ctx context.Context, codes []SWACode) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "store: begin swa import")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM swa_codes`); err != nil {
		return 0, eris.Wrap(err, "store: clear swa codes")
	}
	var n int
	for _, c := range codes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO swa_codes (swa_code, name, ofwat, ofgem_electric, ofgem_gas, ofcom, highway_auth)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.Code, c.Name, c.OfwatLicence, c.OfgemElectric, c.OfgemGas, c.OfcomLicence, c.HighwayAuth); err != nil {
			return n, eris.Wrapf(err, "store: insert swa code %s", c.Code)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return n, eris.Wrap(err, "store: commit swa import")
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

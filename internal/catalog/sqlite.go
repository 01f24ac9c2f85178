package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const datasetsSchema = `
CREATE TABLE IF NOT EXISTS datasets (
	id TEXT NOT NULL,
	type TEXT,
	processing_level TEXT,
	mip_era TEXT,
	activity TEXT,
	driving_institution TEXT,
	driving_model TEXT,
	institution TEXT,
	source TEXT,
	bias_adjust_institution TEXT,
	bias_adjust_project TEXT,
	experiment TEXT,
	member TEXT,
	xrfreq TEXT,
	frequency TEXT,
	variable JSON,
	domain TEXT,
	date_start TEXT,
	date_end TEXT,
	version TEXT,
	path TEXT PRIMARY KEY,
	format TEXT
);
CREATE INDEX IF NOT EXISTS idx_datasets_id ON datasets(id);
`

const batchSize = 10000

// WriteSQLite persists catalog rows into a SQLite database, replacing any
// previous entry for the same path. Inserts run in batched transactions
// with a prepared statement.
func WriteSQLite(dbPath string, rows []Row) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }()

	// bulk-insert tuning
	if _, err := db.Exec("PRAGMA synchronous = OFF"); err != nil {
		return err
	}
	if _, err := db.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		return err
	}
	if _, err := db.Exec(datasetsSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := writeBatch(db, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func writeBatch(db *sql.DB, rows []Row) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO datasets (
			id, type, processing_level, mip_era, activity,
			driving_institution, driving_model, institution, source,
			bias_adjust_institution, bias_adjust_project, experiment, member,
			xrfreq, frequency, variable, domain, date_start, date_end,
			version, path, format
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	for i := range rows {
		r := &rows[i]
		variable, _ := json.Marshal(r.Variable)
		if _, err := stmt.Exec(
			r.ID, null(r.Type), null(r.ProcessingLevel), null(r.MipEra),
			null(r.Activity), null(r.DrivingInstitution), null(r.DrivingModel),
			null(r.Institution), null(r.Source), null(r.BiasAdjustInstitution),
			null(r.BiasAdjustProject), null(r.Experiment), null(r.Member),
			null(r.XRFreq), null(r.Frequency), string(variable), null(r.Domain),
			nullTime(r.DateStart), nullTime(r.DateEnd), null(r.Version),
			r.Path, null(r.Format),
		); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("insert %s: %w", r.Path, err)
		}
	}
	_ = stmt.Close()
	return tx.Commit()
}

// ReadSQLite loads catalog rows previously written with WriteSQLite,
// ordered by path.
func ReadSQLite(dbPath string) ([]Row, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }()

	res, err := db.Query(`
		SELECT id, type, processing_level, mip_era, activity,
			driving_institution, driving_model, institution, source,
			bias_adjust_institution, bias_adjust_project, experiment, member,
			xrfreq, frequency, variable, domain, date_start, date_end,
			version, path, format
		FROM datasets ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}
	defer func() { _ = res.Close() }()

	var rows []Row
	for res.Next() {
		var r Row
		var typ, lvl, era, act, dinst, dmod, inst, src, bainst, baproj,
			exp, mem, xrfreq, freq, dom, ver, format, start, end sql.NullString
		var variable string
		if err := res.Scan(
			&r.ID, &typ, &lvl, &era, &act, &dinst, &dmod, &inst, &src,
			&bainst, &baproj, &exp, &mem, &xrfreq, &freq, &variable, &dom,
			&start, &end, &ver, &r.Path, &format,
		); err != nil {
			return nil, fmt.Errorf("scan dataset row: %w", err)
		}
		r.Type = typ.String
		r.ProcessingLevel = lvl.String
		r.MipEra = era.String
		r.Activity = act.String
		r.DrivingInstitution = dinst.String
		r.DrivingModel = dmod.String
		r.Institution = inst.String
		r.Source = src.String
		r.BiasAdjustInstitution = bainst.String
		r.BiasAdjustProject = baproj.String
		r.Experiment = exp.String
		r.Member = mem.String
		r.XRFreq = xrfreq.String
		r.Frequency = freq.String
		r.Domain = dom.String
		r.Version = ver.String
		r.Format = format.String
		if variable != "" {
			if err := json.Unmarshal([]byte(variable), &r.Variable); err != nil {
				return nil, fmt.Errorf("parse variable tuple for %s: %w", r.Path, err)
			}
		}
		if r.DateStart, err = parseNullTime(start); err != nil {
			return nil, fmt.Errorf("parse date_start for %s: %w", r.Path, err)
		}
		if r.DateEnd, err = parseNullTime(end); err != nil {
			return nil, fmt.Errorf("parse date_end for %s: %w", r.Path, err)
		}
		rows = append(rows, r)
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("iterate datasets: %w", err)
	}
	return rows, nil
}

func null(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

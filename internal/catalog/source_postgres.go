package catalog

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	dErrors "schemefinder/pkg/domain-errors"
)

// PostgresDDL creates the tables read by PostgresSource.
const PostgresDDL = `
CREATE TABLE IF NOT EXISTS schemes (
	id                  INTEGER PRIMARY KEY,
	position            INTEGER NOT NULL,
	name                JSONB   NOT NULL,
	description         JSONB   NOT NULL DEFAULT '{}'::jsonb,
	eligibility         JSONB   NOT NULL DEFAULT '{}'::jsonb,
	link                TEXT,
	application_process JSONB,
	documents           TEXT[]
);
CREATE TABLE IF NOT EXISTS locations (
	position  INTEGER PRIMARY KEY,
	state     TEXT    NOT NULL UNIQUE,
	districts TEXT[]  NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS translations (
	locale TEXT NOT NULL,
	key    TEXT NOT NULL,
	value  TEXT NOT NULL,
	PRIMARY KEY (locale, key)
);`

const (
	selectSchemesSQL = `SELECT id, name, description, eligibility, link, application_process, documents
		FROM schemes ORDER BY position, id`
	selectLocationsSQL    = `SELECT state, districts FROM locations ORDER BY position`
	selectTranslationsSQL = `SELECT locale, key, value FROM translations ORDER BY locale, key`
)

// PostgresSource reads the catalog from Postgres. It is queried once at
// startup; the catalog never re-reads the tables afterwards.
type PostgresSource struct {
	DB *sql.DB
}

// OpenPostgres opens a lib/pq connection pool and verifies it.
func OpenPostgres(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "open postgres")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "ping postgres")
	}
	return db, nil
}

// Load reads schemes, locations, and translations.
func (s PostgresSource) Load(ctx context.Context) (*Document, error) {
	if s.DB == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "postgres source requires a database handle")
	}
	schemes, err := s.loadSchemes(ctx)
	if err != nil {
		return nil, err
	}
	locations, err := s.loadLocations(ctx)
	if err != nil {
		return nil, err
	}
	translations, err := s.loadTranslations(ctx)
	if err != nil {
		return nil, err
	}
	return &Document{Schemes: schemes, Locations: locations, Translations: translations}, nil
}

func (s PostgresSource) loadSchemes(ctx context.Context) ([]Scheme, error) {
	rows, err := s.DB.QueryContext(ctx, selectSchemesSQL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "query schemes")
	}
	defer rows.Close()

	var schemes []Scheme
	for rows.Next() {
		var (
			sc                             Scheme
			name, desc, rules, application []byte
			link                           sql.NullString
			documents                      pq.StringArray
		)
		if err := rows.Scan(&sc.ID, &name, &desc, &rules, &link, &application, &documents); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan scheme")
		}
		if err := decodeColumn(name, &sc.Name); err != nil {
			return nil, columnError(sc.ID, "name", err)
		}
		if err := decodeColumn(desc, &sc.Description); err != nil {
			return nil, columnError(sc.ID, "description", err)
		}
		if err := decodeColumn(rules, &sc.Eligibility); err != nil {
			return nil, columnError(sc.ID, "eligibility", err)
		}
		if err := decodeColumn(application, &sc.ApplicationProcess); err != nil {
			return nil, columnError(sc.ID, "application_process", err)
		}
		sc.Link = link.String
		if documents != nil {
			sc.Documents = []string(documents)
		}
		schemes = append(schemes, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "iterate schemes")
	}
	return schemes, nil
}

func (s PostgresSource) loadLocations(ctx context.Context) (Locations, error) {
	rows, err := s.DB.QueryContext(ctx, selectLocationsSQL)
	if err != nil {
		return Locations{}, dErrors.Wrap(err, dErrors.CodeInternal, "query locations")
	}
	defer rows.Close()

	var out Locations
	for rows.Next() {
		var st State
		var districts pq.StringArray
		if err := rows.Scan(&st.Name, &districts); err != nil {
			return Locations{}, dErrors.Wrap(err, dErrors.CodeInternal, "scan location")
		}
		st.Districts = []string(districts)
		out.States = append(out.States, st)
	}
	if err := rows.Err(); err != nil {
		return Locations{}, dErrors.Wrap(err, dErrors.CodeInternal, "iterate locations")
	}
	return out, nil
}

func (s PostgresSource) loadTranslations(ctx context.Context) (Translations, error) {
	rows, err := s.DB.QueryContext(ctx, selectTranslationsSQL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "query translations")
	}
	defer rows.Close()

	out := Translations{}
	for rows.Next() {
		var locale, key, value string
		if err := rows.Scan(&locale, &key, &value); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan translation")
		}
		if out[locale] == nil {
			out[locale] = map[string]string{}
		}
		out[locale][key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "iterate translations")
	}
	return out, nil
}

// Seed replaces the catalog tables with doc inside one transaction.
func Seed(ctx context.Context, db *sql.DB, doc *Document) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "begin seed")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, PostgresDDL); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "create catalog tables")
	}
	if _, err = tx.ExecContext(ctx, `TRUNCATE schemes, locations, translations`); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "truncate catalog tables")
	}

	for i, sc := range doc.Schemes {
		name, _ := json.Marshal(sc.Name)
		desc, _ := json.Marshal(sc.Description)
		rules, _ := json.Marshal(sc.Eligibility)
		var application []byte
		if sc.ApplicationProcess != nil {
			application, _ = json.Marshal(sc.ApplicationProcess)
		}
		var link sql.NullString
		if sc.Link != "" {
			link = sql.NullString{String: sc.Link, Valid: true}
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO schemes (id, position, name, description, eligibility, link, application_process, documents)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			sc.ID, i, name, desc, rules, link, application, pq.Array(sc.Documents),
		); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("insert scheme %d", sc.ID))
		}
	}

	for i, st := range doc.Locations.States {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO locations (position, state, districts) VALUES ($1, $2, $3)`,
			i, st.Name, pq.Array(st.Districts),
		); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "insert location "+st.Name)
		}
	}

	for locale, table := range doc.Translations {
		for key, value := range table {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO translations (locale, key, value) VALUES ($1, $2, $3)`,
				locale, key, value,
			); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "insert translation "+locale+"."+key)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "commit seed")
	}
	return nil
}

// decodeColumn decodes a JSONB column strictly. NULL leaves v untouched.
func decodeColumn(raw []byte, v any) error {
	if raw == nil {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func columnError(id int, column string, err error) error {
	return dErrors.Wrap(err, dErrors.CodeInvariantViolation, fmt.Sprintf("scheme %d: malformed %s column", id, column))
}

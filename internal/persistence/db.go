package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/talgya/catsim/internal/engine"
)

// SQLStore writes runs to SQLite or PostgreSQL. Queries use ? placeholders
// and are rebound for the driver.
type SQLStore struct {
	conn   *sqlx.DB
	driver string
	runID  string
}

// Run is a row of the runs table.
type Run struct {
	ID         string `db:"id"`
	Seed       int64  `db:"seed"`
	Width      int    `db:"width"`
	Height     int    `db:"height"`
	Steps      int    `db:"n_steps"`
	Population int    `db:"population"`
	StartedAt  string `db:"started_at"`
}

// TickRow is a row of the ticks table.
type TickRow struct {
	Step        int     `db:"step"`
	Hour        int     `db:"hour"`
	Temperature float64 `db:"temperature"`
	Population  int     `db:"population"`
	Births      int     `db:"births"`
	Deaths      int     `db:"deaths"`
	Conceptions int     `db:"conceptions"`
	Attacks     int     `db:"attacks"`
	FoodEaten   float64 `db:"food_eaten"`
	Sleeping    int     `db:"sleeping"`
}

// CatRow is a row of the cats table: one cat at the end of one tick.
type CatRow struct {
	Step        int     `db:"step"`
	CatID       int64   `db:"cat_id"`
	X           int     `db:"x"`
	Y           int     `db:"y"`
	Age         float64 `db:"age"`
	Health      float64 `db:"health"`
	Gender      string  `db:"gender"`
	Personality string  `db:"personality"`
	State       string  `db:"state"`
	Pregnant    bool    `db:"pregnant"`
}

// OpenSQL opens a SQLite file (driver "sqlite", dsn is the path) or a
// PostgreSQL server (driver "postgres", dsn is a connection string) and
// creates the tables.
func OpenSQL(driver, dsn string) (*SQLStore, error) {
	var (
		conn *sqlx.DB
		err  error
	)
	switch driver {
	case "sqlite":
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		conn, err = sqlx.Open("sqlite", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	case "postgres":
		conn, err = sqlx.Open("postgres", dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	db := &SQLStore{conn: conn, driver: driver}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *SQLStore) Close() error {
	return db.conn.Close()
}

func (db *SQLStore) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed BIGINT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			n_steps INTEGER NOT NULL,
			population INTEGER NOT NULL,
			params TEXT NOT NULL,
			started_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ticks (
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			hour INTEGER NOT NULL,
			temperature DOUBLE PRECISION NOT NULL,
			population INTEGER NOT NULL,
			births INTEGER NOT NULL,
			deaths INTEGER NOT NULL,
			conceptions INTEGER NOT NULL,
			attacks INTEGER NOT NULL,
			food_eaten DOUBLE PRECISION NOT NULL,
			sleeping INTEGER NOT NULL,
			PRIMARY KEY (run_id, step)
		)`,
		`CREATE TABLE IF NOT EXISTS cats (
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			cat_id BIGINT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			age DOUBLE PRECISION NOT NULL,
			health DOUBLE PRECISION NOT NULL,
			gender TEXT NOT NULL,
			personality TEXT NOT NULL,
			state TEXT NOT NULL,
			pregnant BOOLEAN NOT NULL,
			PRIMARY KEY (run_id, step, cat_id)
		)`,
		`CREATE TABLE IF NOT EXISTS states (
			run_id TEXT PRIMARY KEY,
			step INTEGER NOT NULL,
			state TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS meta (
			run_id TEXT NOT NULL,
			name TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (run_id, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cats_cat ON cats(run_id, cat_id)`,
	}
	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// BeginRun inserts the run row and the initial state.
func (db *SQLStore) BeginRun(runID string, sim *engine.Simulation) error {
	params, err := json.Marshal(sim.Params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	_, err = db.conn.Exec(db.conn.Rebind(`INSERT INTO runs
		(id, seed, width, height, n_steps, population, params, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		runID, sim.Params.Seed, sim.Terrain.Width, sim.Terrain.Height,
		sim.Params.Steps, sim.Population, string(params),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", runID, err)
	}
	db.runID = runID
	slog.Info("run recorded", "run", runID, "driver", db.driver, "seed", sim.Params.Seed)
	return db.saveState(sim)
}

// SaveTick writes the tick summary, one row per live cat and the full
// state, in one transaction.
func (db *SQLStore) SaveTick(sim *engine.Simulation) error {
	if db.runID == "" {
		return fmt.Errorf("save tick: BeginRun not called")
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	r := sim.LastReport
	_, err = tx.Exec(tx.Rebind(`INSERT INTO ticks
		(run_id, step, hour, temperature, population, births, deaths,
		 conceptions, attacks, food_eaten, sleeping)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		db.runID, r.Step, r.Hour, r.Temperature, r.Population, r.Births, r.Deaths,
		r.Conceptions, r.Attacks, r.FoodEaten, r.Sleeping,
	)
	if err != nil {
		return fmt.Errorf("insert tick %d: %w", r.Step, err)
	}

	stmt, err := tx.Preparex(tx.Rebind(`INSERT INTO cats
		(run_id, step, cat_id, x, y, age, health, gender, personality, state, pregnant)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	cats := sim.Alive()
	for _, c := range cats {
		x, y := c.Position.Ints()
		_, err := stmt.Exec(
			db.runID, sim.Step, int64(c.ID), x, y, c.Age, c.Health,
			c.Gender.String(), c.Personality.String(), c.State.String(), c.IsPregnant(),
		)
		if err != nil {
			return fmt.Errorf("insert cat %d: %w", c.ID, err)
		}
	}

	if err := db.upsertState(tx, sim); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("tick saved", "step", sim.Step, "cats", humanize.Comma(int64(len(cats))))
	return nil
}

func (db *SQLStore) saveState(sim *engine.Simulation) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := db.upsertState(tx, sim); err != nil {
		return err
	}
	return tx.Commit()
}

func (db *SQLStore) upsertState(tx *sqlx.Tx, sim *engine.Simulation) error {
	data, err := json.Marshal(sim.State())
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	_, err = tx.Exec(tx.Rebind(`INSERT INTO states (run_id, step, state) VALUES (?, ?, ?)
		ON CONFLICT (run_id) DO UPDATE SET step = excluded.step, state = excluded.state`),
		db.runID, sim.Step, string(data),
	)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// SaveMeta stores a key-value pair for the current run.
func (db *SQLStore) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(db.conn.Rebind(`INSERT INTO meta (run_id, name, value) VALUES (?, ?, ?)
		ON CONFLICT (run_id, name) DO UPDATE SET value = excluded.value`),
		db.runID, key, value,
	)
	return err
}

// GetMeta retrieves a metadata value of a run.
func (db *SQLStore) GetMeta(runID, key string) (string, error) {
	var value string
	err := db.conn.Get(&value, db.conn.Rebind("SELECT value FROM meta WHERE run_id = ? AND name = ?"), runID, key)
	return value, err
}

// Runs returns every recorded run, newest first.
func (db *SQLStore) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs,
		"SELECT id, seed, width, height, n_steps, population, started_at FROM runs ORDER BY started_at DESC, id",
	)
	return runs, err
}

// Ticks returns the tick summaries of a run in step order.
func (db *SQLStore) Ticks(runID string) ([]TickRow, error) {
	var rows []TickRow
	err := db.conn.Select(&rows, db.conn.Rebind(`SELECT step, hour, temperature, population, births,
		deaths, conceptions, attacks, food_eaten, sleeping
		FROM ticks WHERE run_id = ? ORDER BY step`), runID)
	return rows, err
}

// CatHistory returns the rows of one cat in step order.
func (db *SQLStore) CatHistory(runID string, id int64) ([]CatRow, error) {
	var rows []CatRow
	err := db.conn.Select(&rows, db.conn.Rebind(`SELECT step, cat_id, x, y, age, health, gender,
		personality, state, pregnant
		FROM cats WHERE run_id = ? AND cat_id = ? ORDER BY step`), runID, id)
	return rows, err
}

// LatestState returns the last saved state of a run.
func (db *SQLStore) LatestState(runID string) (*engine.State, error) {
	var data string
	if err := db.conn.Get(&data, db.conn.Rebind("SELECT state FROM states WHERE run_id = ?"), runID); err != nil {
		return nil, fmt.Errorf("load state of run %s: %w", runID, err)
	}
	var st engine.State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("decode state of run %s: %w", runID, err)
	}
	return &st, nil
}

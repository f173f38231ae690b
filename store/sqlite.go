package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeu5/miniblocks/types"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps episode summaries in a local sqlite database
type SQLiteStore struct {
	db *sql.DB
}

var _ types.EpisodeRecorder = &SQLiteStore{}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS episodes (
			id TEXT PRIMARY KEY,
			experiment TEXT NOT NULL,
			run INTEGER NOT NULL,
			episode INTEGER NOT NULL,
			steps INTEGER NOT NULL,
			total_reward REAL NOT NULL,
			terminal INTEGER NOT NULL,
			timed_out INTEGER NOT NULL,
			error TEXT NOT NULL,
			duration_ns INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS episodes_experiment ON episodes(experiment, run, episode);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *SQLiteStore) RecordEpisode(ctx context.Context, e types.EpisodeSummary) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO episodes(id,experiment,run,episode,steps,total_reward,terminal,timed_out,error,duration_ns,recorded_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.Experiment, e.Run, e.Episode, e.Steps, e.TotalReward,
		boolInt(e.Terminal), boolInt(e.TimedOut), e.Error, int64(e.Duration),
		e.RecordedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting episode %s: %w", e.ID, err)
	}
	return nil
}

// Summaries of an experiment ordered by run and episode
func (s *SQLiteStore) Summaries(ctx context.Context, experiment string) ([]types.EpisodeSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,experiment,run,episode,steps,total_reward,terminal,timed_out,error,duration_ns,recorded_at
		 FROM episodes WHERE experiment=? ORDER BY run, episode`, experiment)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]types.EpisodeSummary, 0)
	for rows.Next() {
		var (
			e                  types.EpisodeSummary
			terminal, timedOut int
			duration           int64
			recordedAt         string
		)
		if err := rows.Scan(&e.ID, &e.Experiment, &e.Run, &e.Episode, &e.Steps, &e.TotalReward,
			&terminal, &timedOut, &e.Error, &duration, &recordedAt); err != nil {
			return nil, err
		}
		e.Terminal = terminal == 1
		e.TimedOut = timedOut == 1
		e.Duration = time.Duration(duration)
		e.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ExperimentStats aggregates the episodes of one experiment
type ExperimentStats struct {
	Experiment string  `json:"experiment"`
	Episodes   int     `json:"episodes"`
	Terminal   int     `json:"terminal"`
	MeanReward float64 `json:"mean_reward"`
	MeanSteps  float64 `json:"mean_steps"`
}

// Stats aggregates every recorded experiment
func (s *SQLiteStore) Stats(ctx context.Context) ([]ExperimentStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT experiment, COUNT(*), SUM(terminal), AVG(total_reward), AVG(steps)
		 FROM episodes GROUP BY experiment ORDER BY experiment`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ExperimentStats, 0)
	for rows.Next() {
		var st ExperimentStats
		if err := rows.Scan(&st.Experiment, &st.Episodes, &st.Terminal, &st.MeanReward, &st.MeanSteps); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

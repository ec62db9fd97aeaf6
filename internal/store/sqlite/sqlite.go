package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/quantkit/fleetwatch/internal/store"
)

// DB implements store.Store for SQLite (modernc.org/sqlite driver, CGO-free).
// Path is a filesystem path to the database file; use ":memory:" for an
// in-memory database.
type DB struct {
	db *sql.DB
}

// New opens a SQLite database at path.
func New(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// busy timeout helps with short concurrent locks
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	return &DB{db: d}, nil
}

func (s *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS app_config(
			id TEXT PRIMARY KEY,
			exec_path TEXT NOT NULL,
			work_dir TEXT NOT NULL,
			args TEXT NOT NULL,
			type INTEGER NOT NULL,
			poll_interval_ticks INTEGER NOT NULL,
			guard TEXT NOT NULL,
			redirect_output TEXT NOT NULL,
			schedule_active TEXT NOT NULL,
			week_flag TEXT NOT NULL,
			event_bus_url TEXT NOT NULL,
			task1 TEXT NOT NULL, task2 TEXT NOT NULL, task3 TEXT NOT NULL,
			task4 TEXT NOT NULL, task5 TEXT NOT NULL, task6 TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *DB) Close() error { return s.db.Close() }

func (s *DB) Save(ctx context.Context, rec store.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_config(id, exec_path, work_dir, args, type, poll_interval_ticks,
			guard, redirect_output, schedule_active, week_flag, event_bus_url,
			task1, task2, task3, task4, task5, task6, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			exec_path=excluded.exec_path,
			work_dir=excluded.work_dir,
			args=excluded.args,
			type=excluded.type,
			poll_interval_ticks=excluded.poll_interval_ticks,
			guard=excluded.guard,
			redirect_output=excluded.redirect_output,
			schedule_active=excluded.schedule_active,
			week_flag=excluded.week_flag,
			event_bus_url=excluded.event_bus_url,
			task1=excluded.task1, task2=excluded.task2, task3=excluded.task3,
			task4=excluded.task4, task5=excluded.task5, task6=excluded.task6,
			updated_at=excluded.updated_at;`,
		rec.ID, rec.ExecPath, rec.WorkDir, rec.Args, rec.Kind, rec.PollIntervalTicks,
		rec.Guard, rec.RedirectOutput, rec.ScheduleActive, rec.WeekFlag, rec.EventBusURL,
		rec.Tasks[0], rec.Tasks[1], rec.Tasks[2], rec.Tasks[3], rec.Tasks[4], rec.Tasks[5],
		time.Now().UTC())
	return err
}

const selectCols = `id, exec_path, work_dir, args, type, poll_interval_ticks,
	guard, redirect_output, schedule_active, week_flag, event_bus_url,
	task1, task2, task3, task4, task5, task6`

func (s *DB) Get(ctx context.Context, id string) (store.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectCols+` FROM app_config WHERE id=?;`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Record{}, store.ErrNotFound
	}
	return rec, err
}

func (s *DB) All(ctx context.Context) ([]store.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectCols+` FROM app_config ORDER BY id;`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []store.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *DB) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM app_config WHERE id=?;`, id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (store.Record, error) {
	var rec store.Record
	err := sc.Scan(&rec.ID, &rec.ExecPath, &rec.WorkDir, &rec.Args, &rec.Kind,
		&rec.PollIntervalTicks, &rec.Guard, &rec.RedirectOutput, &rec.ScheduleActive,
		&rec.WeekFlag, &rec.EventBusURL,
		&rec.Tasks[0], &rec.Tasks[1], &rec.Tasks[2], &rec.Tasks[3], &rec.Tasks[4], &rec.Tasks[5])
	return rec, err
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/quantkit/fleetwatch/internal/store"
)

// DB implements store.Store for PostgreSQL via the pgx stdlib driver.
type DB struct {
	db *sql.DB
}

func New(dsn string) (*DB, error) {
	d, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DB{db: d}, nil
}

func (p *DB) EnsureSchema(ctx context.Context) error {
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
			updated_at TIMESTAMPTZ NOT NULL
		);`,
	}
	for _, q := range stmts {
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (p *DB) Close() error { return p.db.Close() }

func (p *DB) Save(ctx context.Context, rec store.Record) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO app_config(id, exec_path, work_dir, args, type, poll_interval_ticks,
			guard, redirect_output, schedule_active, week_flag, event_bus_url,
			task1, task2, task3, task4, task5, task6, updated_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT(id) DO UPDATE SET
			exec_path=EXCLUDED.exec_path,
			work_dir=EXCLUDED.work_dir,
			args=EXCLUDED.args,
			type=EXCLUDED.type,
			poll_interval_ticks=EXCLUDED.poll_interval_ticks,
			guard=EXCLUDED.guard,
			redirect_output=EXCLUDED.redirect_output,
			schedule_active=EXCLUDED.schedule_active,
			week_flag=EXCLUDED.week_flag,
			event_bus_url=EXCLUDED.event_bus_url,
			task1=EXCLUDED.task1, task2=EXCLUDED.task2, task3=EXCLUDED.task3,
			task4=EXCLUDED.task4, task5=EXCLUDED.task5, task6=EXCLUDED.task6,
			updated_at=EXCLUDED.updated_at;`,
		rec.ID, rec.ExecPath, rec.WorkDir, rec.Args, rec.Kind, rec.PollIntervalTicks,
		rec.Guard, rec.RedirectOutput, rec.ScheduleActive, rec.WeekFlag, rec.EventBusURL,
		rec.Tasks[0], rec.Tasks[1], rec.Tasks[2], rec.Tasks[3], rec.Tasks[4], rec.Tasks[5],
		time.Now().UTC())
	return err
}

const selectCols = `id, exec_path, work_dir, args, type, poll_interval_ticks,
	guard, redirect_output, schedule_active, week_flag, event_bus_url,
	task1, task2, task3, task4, task5, task6`

func (p *DB) Get(ctx context.Context, id string) (store.Record, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+selectCols+` FROM app_config WHERE id=$1;`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Record{}, store.ErrNotFound
	}
	return rec, err
}

func (p *DB) All(ctx context.Context) ([]store.Record, error) {
	rows, err := p.db.QueryContext(ctx,
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

func (p *DB) Delete(ctx context.Context, id string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM app_config WHERE id=$1;`, id)
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

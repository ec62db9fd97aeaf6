package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/quantkit/fleetwatch/internal/app"
	"github.com/quantkit/fleetwatch/internal/logger"
	"github.com/quantkit/fleetwatch/internal/schedule"
	"github.com/quantkit/fleetwatch/internal/store"
)

// FileConfig is the top-level TOML structure of the daemon config.
type FileConfig struct {
	Log     *logger.Config `toml:"log" mapstructure:"log"`
	Store   store.Config   `toml:"store" mapstructure:"store"`
	Metrics MetricsConfig  `toml:"metrics" mapstructure:"metrics"`
	History HistoryConfig  `toml:"history" mapstructure:"history"`
	Apps    []AppEntry     `toml:"apps" mapstructure:"apps"`
}

// MetricsConfig controls the Prometheus endpoint. Empty Listen disables it.
type MetricsConfig struct {
	Listen string `toml:"listen" mapstructure:"listen"`
}

// HistoryConfig enables the optional ClickHouse lifecycle-event sink.
type HistoryConfig struct {
	ClickHouseAddr string `toml:"clickhouse_addr" mapstructure:"clickhouse_addr"`
	Database       string `toml:"database" mapstructure:"database"`
	Table          string `toml:"table" mapstructure:"table"`
}

// AppEntry is one bootstrap app definition. Entries are applied at startup
// on top of whatever the store already holds.
type AppEntry struct {
	ID                string         `toml:"id" mapstructure:"id"`
	ExecPath          string         `toml:"exec_path" mapstructure:"exec_path"`
	WorkDir           string         `toml:"work_dir" mapstructure:"work_dir"`
	Args              string         `toml:"args" mapstructure:"args"`
	Group             bool           `toml:"group" mapstructure:"group"`
	PollIntervalTicks int            `toml:"poll_interval_ticks" mapstructure:"poll_interval_ticks"`
	Guard             bool           `toml:"guard" mapstructure:"guard"`
	RedirectOutput    bool           `toml:"redirect_output" mapstructure:"redirect_output"`
	ScheduleActive    bool           `toml:"schedule_active" mapstructure:"schedule_active"`
	WeekFlag          string         `toml:"week_flag" mapstructure:"week_flag"`
	EventBusURL       string         `toml:"event_bus_url" mapstructure:"event_bus_url"`
	Tasks             []TaskEntry    `toml:"tasks" mapstructure:"tasks"`
	Log               *logger.Config `toml:"log" mapstructure:"log"`
}

// TaskEntry is one schedule slot in the config file. Action is spelled out
// ("start", "stop", "restart") rather than the wire integer.
type TaskEntry struct {
	Active bool   `toml:"active" mapstructure:"active"`
	Time   int    `toml:"time" mapstructure:"time"`
	Action string `toml:"action" mapstructure:"action"`
}

// Load reads and decodes the TOML config at path.
func Load(path string) (FileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return FileConfig{}, err
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return FileConfig{}, err
	}
	return fc, nil
}

// AppConfig converts the entry into a runtime app config, applying the
// global log config when the entry has none.
func (e AppEntry) AppConfig(globalLog *logger.Config) (app.Config, error) {
	if len(e.Tasks) > schedule.Slots {
		return app.Config{}, fmt.Errorf("app %s: at most %d schedule tasks allowed, got %d",
			e.ID, schedule.Slots, len(e.Tasks))
	}
	cfg := app.Config{
		ID:                e.ID,
		ExecPath:          e.ExecPath,
		WorkDir:           e.WorkDir,
		Args:              e.Args,
		PollIntervalTicks: e.PollIntervalTicks,
		Guard:             e.Guard,
		RedirectOutput:    e.RedirectOutput,
		ScheduleActive:    e.ScheduleActive,
		WeekFlag:          e.WeekFlag,
		EventBusURL:       e.EventBusURL,
	}
	if e.Group {
		cfg.Kind = app.KindGroup
	}
	if e.Log != nil {
		cfg.Log = *e.Log
	} else if globalLog != nil {
		cfg.Log = *globalLog
	}
	for i, t := range e.Tasks {
		action, err := parseAction(t.Action)
		if err != nil {
			return app.Config{}, fmt.Errorf("app %s task %d: %w", e.ID, i+1, err)
		}
		cfg.Tasks[i] = schedule.Task{Active: t.Active, TimeOfDay: t.Time, Action: action}
	}
	if err := cfg.Validate(); err != nil {
		return app.Config{}, err
	}
	return cfg, nil
}

func parseAction(s string) (schedule.Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start":
		return schedule.ActionStart, nil
	case "stop":
		return schedule.ActionStop, nil
	case "restart":
		return schedule.ActionRestart, nil
	default:
		return 0, fmt.Errorf("unknown schedule action %q", s)
	}
}

package store

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/quantkit/fleetwatch/internal/app"
	"github.com/quantkit/fleetwatch/internal/schedule"
)

// Record is the persisted shape of one app config, field for field what the
// external store collaborator consumes: booleans as "true"/"false" strings,
// the weekday mask as a 7-character '0'/'1' string (index 0 = Sunday), and
// each of the six schedule tasks as its own JSON string column.
type Record struct {
	ID                string
	ExecPath          string
	WorkDir           string
	Args              string
	Kind              int
	PollIntervalTicks int
	Guard             string
	RedirectOutput    string
	ScheduleActive    string
	WeekFlag          string
	EventBusURL       string
	Tasks             [schedule.Slots]string
}

// Encode converts a runtime config into its wire record. The conversion is
// lossless: Decode(Encode(cfg)) yields an identical config.
func Encode(cfg app.Config) (Record, error) {
	rec := Record{
		ID:                cfg.ID,
		ExecPath:          cfg.ExecPath,
		WorkDir:           cfg.WorkDir,
		Args:              cfg.Args,
		Kind:              cfg.Kind,
		PollIntervalTicks: cfg.PollIntervalTicks,
		Guard:             strconv.FormatBool(cfg.Guard),
		RedirectOutput:    strconv.FormatBool(cfg.RedirectOutput),
		ScheduleActive:    strconv.FormatBool(cfg.ScheduleActive),
		WeekFlag:          cfg.WeekFlag,
		EventBusURL:       cfg.EventBusURL,
	}
	for i, t := range cfg.Tasks {
		b, err := json.Marshal(t)
		if err != nil {
			return Record{}, fmt.Errorf("encode task %d of %s: %w", i+1, cfg.ID, err)
		}
		rec.Tasks[i] = string(b)
	}
	return rec, nil
}

// Decode converts a wire record back into a runtime config.
func Decode(rec Record) (app.Config, error) {
	guard, err := parseBool(rec.Guard, "guard", rec.ID)
	if err != nil {
		return app.Config{}, err
	}
	redirect, err := parseBool(rec.RedirectOutput, "redirect_output", rec.ID)
	if err != nil {
		return app.Config{}, err
	}
	schedActive, err := parseBool(rec.ScheduleActive, "schedule_active", rec.ID)
	if err != nil {
		return app.Config{}, err
	}
	cfg := app.Config{
		ID:                rec.ID,
		ExecPath:          rec.ExecPath,
		WorkDir:           rec.WorkDir,
		Args:              rec.Args,
		Kind:              rec.Kind,
		PollIntervalTicks: rec.PollIntervalTicks,
		Guard:             guard,
		RedirectOutput:    redirect,
		ScheduleActive:    schedActive,
		WeekFlag:          rec.WeekFlag,
		EventBusURL:       rec.EventBusURL,
	}
	for i, raw := range rec.Tasks {
		if raw == "" {
			continue
		}
		var t schedule.Task
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return app.Config{}, fmt.Errorf("decode task %d of %s: %w", i+1, rec.ID, err)
		}
		cfg.Tasks[i] = t
	}
	return cfg, nil
}

func parseBool(s, field, id string) (bool, error) {
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("record %s: invalid %s value %q", id, field, s)
	}
	return v, nil
}

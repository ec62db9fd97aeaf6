package store

import (
	"context"
	"testing"

	"github.com/quantkit/fleetwatch/internal/app"
	"github.com/quantkit/fleetwatch/internal/schedule"
)

func sampleConfig() app.Config {
	cfg := app.Config{
		ID:                "md-gateway",
		ExecPath:          "/opt/apps/md-gateway",
		WorkDir:           "/opt/apps",
		Args:              "--venue krx",
		Kind:              app.KindApp,
		PollIntervalTicks: 3,
		Guard:             true,
		RedirectOutput:    true,
		ScheduleActive:    true,
		WeekFlag:          "0111110",
		EventBusURL:       "redis://localhost:6379/0",
	}
	cfg.Tasks[0] = schedule.Task{Active: true, TimeOfDay: 845, Action: schedule.ActionStart}
	cfg.Tasks[5] = schedule.Task{
		Active: true, TimeOfDay: 1600, Action: schedule.ActionStop,
		LastFiredDate: 240105, LastFiredTime: 1600,
	}
	return cfg
}

func TestRecordRoundTrip(t *testing.T) {
	want := sampleConfig()
	rec, err := Encode(want)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if rec.Guard != "true" || rec.RedirectOutput != "true" || rec.ScheduleActive != "true" {
		t.Fatalf("booleans not encoded as strings: %+v", rec)
	}
	got, err := Decode(rec)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestDecodeToleratesEmptyFields(t *testing.T) {
	rec := Record{ID: "bare", ExecPath: "/bin/bare", WeekFlag: "0000000"}
	cfg, err := Decode(rec)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Guard || cfg.ScheduleActive {
		t.Fatalf("empty booleans must decode as false: %+v", cfg)
	}
	for i, task := range cfg.Tasks {
		if task.Active {
			t.Fatalf("task %d should be inactive", i+1)
		}
	}
}

func TestDecodeRejectsBadBool(t *testing.T) {
	rec := Record{ID: "bad", ExecPath: "/bin/bad", Guard: "yes please"}
	if _, err := Decode(rec); err == nil {
		t.Fatalf("invalid boolean text must be rejected")
	}
}

func TestDecodeRejectsBadTaskJSON(t *testing.T) {
	rec := Record{ID: "bad", ExecPath: "/bin/bad"}
	rec.Tasks[2] = "{not json"
	if _, err := Decode(rec); err == nil {
		t.Fatalf("malformed task JSON must be rejected")
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if err := m.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	rec, err := Encode(sampleConfig())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := m.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := m.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != rec.ID || got.WeekFlag != rec.WeekFlag {
		t.Fatalf("Get returned wrong record: %+v", got)
	}

	all, err := m.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("All returned %d records, want 1", len(all))
	}

	if err := m.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(ctx, rec.ID); err != ErrNotFound {
		t.Fatalf("Get after delete = %v, want ErrNotFound", err)
	}
}

package schedule

import (
	"testing"
	"time"
)

// mustTime builds a local time for a given weekday in a known week.
// 2024-01-07 was a Sunday.
func mustTime(t *testing.T, weekday time.Weekday, hour, min int) time.Time {
	t.Helper()
	base := time.Date(2024, 1, 7, hour, min, 0, 0, time.Local)
	return base.AddDate(0, 0, int(weekday))
}

func TestHHMMAndYYMMDD(t *testing.T) {
	at := time.Date(2024, 3, 5, 9, 30, 45, 0, time.Local)
	if got := HHMM(at); got != 930 {
		t.Fatalf("HHMM = %d, want 930", got)
	}
	if got := YYMMDD(at); got != 240305 {
		t.Fatalf("YYMMDD = %d, want 240305", got)
	}
}

func TestEnabledOnSundayIndexed(t *testing.T) {
	p := Plan{WeekFlag: "1000000"}
	if !p.EnabledOn(mustTime(t, time.Sunday, 9, 30)) {
		t.Fatalf("Sunday-only flag should enable Sunday")
	}
	if p.EnabledOn(mustTime(t, time.Monday, 9, 30)) {
		t.Fatalf("Sunday-only flag must not enable Monday")
	}
}

func TestEnabledOnShortFlag(t *testing.T) {
	p := Plan{WeekFlag: "10"}
	if p.EnabledOn(mustTime(t, time.Saturday, 9, 30)) {
		t.Fatalf("out-of-range weekday must be disabled")
	}
}

func TestActiveTasks(t *testing.T) {
	var p Plan
	p.Tasks[1] = Task{Active: true, TimeOfDay: 900, Action: ActionStart}
	p.Tasks[4] = Task{Active: true, TimeOfDay: 1500, Action: ActionStop}
	got := p.ActiveTasks()
	if len(got) != 2 {
		t.Fatalf("expected 2 active tasks, got %d", len(got))
	}
	if got[0].TimeOfDay != 900 || got[1].TimeOfDay != 1500 {
		t.Fatalf("unexpected active tasks: %+v", got)
	}
}

func TestStepFiresMondayOnlyOnce(t *testing.T) {
	p := Plan{WeekFlag: "0100000"} // Monday only, Sunday-indexed
	p.Tasks[0] = Task{Active: true, TimeOfDay: 930, Action: ActionStart}
	elig := Eligibility{CanStart: true, CanStop: true}

	var fired []Action
	do := func(a Action) { fired = append(fired, a) }

	mon930 := mustTime(t, time.Monday, 9, 30)
	if n := p.Step(mon930, elig, do); n != 1 {
		t.Fatalf("first evaluation: fired %d, want 1", n)
	}
	if len(fired) != 1 || fired[0] != ActionStart {
		t.Fatalf("expected one Start, got %v", fired)
	}
	// Same minute again: idempotency guard must hold.
	if n := p.Step(mon930, elig, do); n != 0 {
		t.Fatalf("second evaluation in same minute fired %d, want 0", n)
	}
	// One minute later: no fire either.
	if n := p.Step(mustTime(t, time.Monday, 9, 31), elig, do); n != 0 {
		t.Fatalf("evaluation at 931 fired %d, want 0", n)
	}
	if len(fired) != 1 {
		t.Fatalf("expected exactly one action total, got %v", fired)
	}
}

func TestStepNeverFiresOffWeekday(t *testing.T) {
	p := Plan{WeekFlag: "1000000"} // Sunday only
	p.Tasks[0] = Task{Active: true, TimeOfDay: 930, Action: ActionStart}
	elig := Eligibility{CanStart: true}
	fired := 0
	p.Step(mustTime(t, time.Monday, 9, 30), elig, func(Action) { fired++ })
	if fired != 0 {
		t.Fatalf("Monday evaluation fired %d actions for Sunday-only plan", fired)
	}
	p.Step(mustTime(t, time.Sunday, 9, 30), elig, func(Action) { fired++ })
	if fired != 1 {
		t.Fatalf("Sunday evaluation should fire once, got %d", fired)
	}
}

func TestStepFiresNextDay(t *testing.T) {
	p := Plan{WeekFlag: "1111111"}
	p.Tasks[0] = Task{Active: true, TimeOfDay: 930, Action: ActionRestart}
	var n int
	do := func(Action) { n++ }
	elig := Eligibility{}

	day1 := mustTime(t, time.Monday, 9, 30)
	p.Step(day1, elig, do)
	p.Step(day1, elig, do)
	p.Step(day1.AddDate(0, 0, 1), elig, do)
	if n != 2 {
		t.Fatalf("expected one fire per day, got %d", n)
	}
}

func TestStepEligibilityGatesActionButConsumesMinute(t *testing.T) {
	p := Plan{WeekFlag: "1111111"}
	p.Tasks[0] = Task{Active: true, TimeOfDay: 930, Action: ActionStop}
	at := mustTime(t, time.Tuesday, 9, 30)

	performed := 0
	// Not running: Stop is suppressed but the minute is consumed.
	if n := p.Step(at, Eligibility{CanStop: false}, func(Action) { performed++ }); n != 1 {
		t.Fatalf("suppressed task should still be stamped, got %d", n)
	}
	if performed != 0 {
		t.Fatalf("Stop must not be performed while not running")
	}
	// Becoming eligible within the same minute must not re-fire.
	if n := p.Step(at, Eligibility{CanStop: true}, func(Action) { performed++ }); n != 0 {
		t.Fatalf("same minute must not fire again, got %d", n)
	}
}

func TestStepSkipsInactiveAndMismatchedTasks(t *testing.T) {
	p := Plan{WeekFlag: "1111111"}
	p.Tasks[0] = Task{Active: false, TimeOfDay: 930, Action: ActionStart}
	p.Tasks[1] = Task{Active: true, TimeOfDay: 931, Action: ActionStart}
	fired := 0
	p.Step(mustTime(t, time.Wednesday, 9, 30), Eligibility{CanStart: true}, func(Action) { fired++ })
	if fired != 0 {
		t.Fatalf("inactive or mismatched tasks fired %d times", fired)
	}
}

func TestActionString(t *testing.T) {
	cases := []struct {
		a    Action
		want string
	}{
		{ActionStart, "start"},
		{ActionStop, "stop"},
		{ActionRestart, "restart"},
		{Action(9), "unknown"},
	}
	for _, c := range cases {
		if got := c.a.String(); got != c.want {
			t.Fatalf("Action(%d).String() = %q, want %q", c.a, got, c.want)
		}
	}
}

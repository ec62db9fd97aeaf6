package schedule

import "time"

// Action is a scheduled operation on a managed app. Wire values are fixed
// by the persisted task format and must not change.
type Action int

const (
	ActionStart   Action = 0
	ActionStop    Action = 1
	ActionRestart Action = 2
)

func (a Action) String() string {
	switch a {
	case ActionStart:
		return "start"
	case ActionStop:
		return "stop"
	case ActionRestart:
		return "restart"
	default:
		return "unknown"
	}
}

// Slots is the fixed number of schedule tasks per app. The persisted record
// carries exactly six task columns, so this is a wire constant.
const Slots = 6

// Task is one daily schedule slot. TimeOfDay is HHMM (e.g. 930 for 09:30).
// LastFiredDate/LastFiredTime guard against firing twice within the same
// evaluated minute; they are YYMMDD and HHMM of the last fire.
type Task struct {
	Active        bool   `json:"active"`
	TimeOfDay     int    `json:"time"`
	Action        Action `json:"action"`
	LastFiredDate int    `json:"lastDate,omitempty"`
	LastFiredTime int    `json:"lastTime,omitempty"`
}

// Plan is the full weekly schedule of one app: a weekday bitmask plus the
// six task slots. WeekFlag is a 7-character string of '0'/'1' with index 0
// being Sunday; Go's time.Weekday is Sunday-indexed as well, so the flag is
// consulted directly without remapping.
type Plan struct {
	WeekFlag string
	Tasks    [Slots]Task
}

// Eligibility gates which actions may fire given the app's current state.
// Start requires the app to be startable (not running, path exists), Stop
// requires it to be running. Restart is always allowed.
type Eligibility struct {
	CanStart bool
	CanStop  bool
}

// HHMM returns t as an HHMM integer.
func HHMM(t time.Time) int { return t.Hour()*100 + t.Minute() }

// YYMMDD returns t as a YYMMDD integer.
func YYMMDD(t time.Time) int {
	return (t.Year()%100)*10000 + int(t.Month())*100 + t.Day()
}

// EnabledOn reports whether the plan is enabled for t's weekday.
func (p *Plan) EnabledOn(t time.Time) bool {
	wd := int(t.Weekday())
	return wd < len(p.WeekFlag) && p.WeekFlag[wd] == '1'
}

// ActiveTasks returns pointers to the active slots, hiding the fixed array
// from callers that only care about what can fire.
func (p *Plan) ActiveTasks() []*Task {
	out := make([]*Task, 0, Slots)
	for i := range p.Tasks {
		if p.Tasks[i].Active {
			out = append(out, &p.Tasks[i])
		}
	}
	return out
}

// Step evaluates the plan at now and fires every task whose TimeOfDay
// equals the current minute and which has not already fired in this
// (date, minute) pair. A task that reaches its minute is stamped exactly
// once even when its action is suppressed by eligibility; the minute is
// consumed either way. do is invoked once per performed action. The number
// of stamped tasks is returned so the owner can persist the stamps.
func (p *Plan) Step(now time.Time, elig Eligibility, do func(Action)) int {
	if !p.EnabledOn(now) {
		return 0
	}
	hhmm := HHMM(now)
	date := YYMMDD(now)
	fired := 0
	for _, t := range p.ActiveTasks() {
		if t.TimeOfDay != hhmm {
			continue
		}
		if t.LastFiredTime == hhmm && t.LastFiredDate == date {
			continue
		}
		t.LastFiredTime = hhmm
		t.LastFiredDate = date
		fired++
		switch t.Action {
		case ActionStart:
			if elig.CanStart {
				do(ActionStart)
			}
		case ActionStop:
			if elig.CanStop {
				do(ActionStop)
			}
		case ActionRestart:
			do(ActionRestart)
		}
	}
	return fired
}

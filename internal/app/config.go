package app

import (
	"errors"
	"strings"

	"github.com/quantkit/fleetwatch/internal/logger"
	"github.com/quantkit/fleetwatch/internal/schedule"
)

// Kind tags what a config launches. Cosmetic only; both kinds are
// supervised identically.
const (
	KindApp   = 0 // standalone trading app
	KindGroup = 1 // strategy bundle
)

// Config describes one supervised application. It is applied by an external
// configuration collaborator and owned by the ManagedApp afterwards: Config
// is a pure value (the task array copies by value), so mutating the caller's
// copy never affects the running app.
type Config struct {
	ID                string                    `json:"id"`
	ExecPath          string                    `json:"exec_path"`
	WorkDir           string                    `json:"work_dir"`
	Args              string                    `json:"args"`
	Kind              int                       `json:"type"`
	PollIntervalTicks int                       `json:"poll_interval_ticks"`
	Guard             bool                      `json:"guard"`
	RedirectOutput    bool                      `json:"redirect_output"`
	ScheduleActive    bool                      `json:"schedule_active"`
	WeekFlag          string                    `json:"week_flag"` // 7 chars of '0'/'1', index 0 = Sunday
	EventBusURL       string                    `json:"event_bus_url"`
	Tasks             [schedule.Slots]schedule.Task `json:"tasks"`
	Log               logger.Config             `json:"log"`
}

// Validate checks the fields a config cannot run without and normalizes the
// rest. A missing executable is not a validation error; it forces the app
// into NotExist at apply time instead.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("app config requires an id")
	}
	if strings.TrimSpace(c.ExecPath) == "" {
		return errors.New("app config requires an exec path")
	}
	if c.PollIntervalTicks <= 0 {
		c.PollIntervalTicks = 1
	}
	if c.WeekFlag == "" {
		c.WeekFlag = "0000000"
	}
	return nil
}

// CommandLine is the expected OS command line used for probe matching.
func (c *Config) CommandLine() string {
	if strings.TrimSpace(c.Args) == "" {
		return c.ExecPath
	}
	return c.ExecPath + " " + c.Args
}

// Plan assembles the schedule view of this config.
func (c *Config) Plan() schedule.Plan {
	return schedule.Plan{WeekFlag: c.WeekFlag, Tasks: c.Tasks}
}

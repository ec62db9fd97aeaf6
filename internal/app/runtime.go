package app

import (
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/quantkit/fleetwatch/internal/probe"
)

// Runtime abstracts the OS operations the state machine performs: spawning,
// forceful kill, liveness-independent memory inspection, and executable
// existence checks. Tests substitute a fake; production code uses OSRuntime.
type Runtime interface {
	Exists(path string) bool
	// Spawn launches the app and returns its pid along with any writers that
	// were attached to its stdout/stderr. The caller owns closing them once
	// the process is gone.
	Spawn(cfg Config) (pid int32, stdout, stderr io.WriteCloser, err error)
	// Kill delivers a forceful termination (SIGKILL / taskkill /f) to the
	// process tree rooted at pid. It does not wait for exit.
	Kill(pid int32) error
	MemoryRSS(pid int32) uint64
}

// OSRuntime is the production Runtime.
type OSRuntime struct{}

func (OSRuntime) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSRuntime) Spawn(cfg Config) (int32, io.WriteCloser, io.WriteCloser, error) {
	var args []string
	if s := strings.TrimSpace(cfg.Args); s != "" {
		args = strings.Fields(s)
	}
	// #nosec G204 -- exec path and args come from operator-owned config
	cmd := exec.Command(cfg.ExecPath, args...)
	if cfg.WorkDir != "" {
		cmd.Dir = cfg.WorkDir
	}
	cmd.SysProcAttr = sysProcAttr()

	var outW, errW io.WriteCloser
	if cfg.RedirectOutput {
		if cfg.Log.Dir != "" {
			_ = os.MkdirAll(cfg.Log.Dir, 0o750)
		}
		outW, errW, _ = cfg.Log.Writers(cfg.ID)
	}
	if outW != nil {
		cmd.Stdout = outW
	} else {
		cmd.Stdout, _ = os.OpenFile(os.DevNull, os.O_RDWR, 0)
	}
	if errW != nil {
		cmd.Stderr = errW
	} else {
		cmd.Stderr, _ = os.OpenFile(os.DevNull, os.O_RDWR, 0)
	}

	if err := cmd.Start(); err != nil {
		closeAll(outW, errW)
		return 0, nil, nil, err
	}
	// Reap in the background. Exit status is irrelevant here: liveness is
	// re-established by the probe, never by waiting on the child.
	go func() { _ = cmd.Wait() }()
	return int32(cmd.Process.Pid), outW, errW, nil
}

func (OSRuntime) MemoryRSS(pid int32) uint64 { return probe.MemoryRSS(pid) }

func closeAll(ws ...io.WriteCloser) {
	for _, w := range ws {
		if w != nil {
			_ = w.Close()
		}
	}
}

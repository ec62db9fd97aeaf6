package probe

import (
	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// Prober scans all OS processes for one whose command line matches an
// expected launch command. Per-pid failures (permission denied, process
// already gone) are skipped, never propagated; the supervisor may itself
// restart and lose its child handles, so command-line identity is the only
// recovery mechanism available.
type Prober struct {
	match   Matcher
	pids    func() ([]int32, error)
	cmdline func(int32) (string, error)
}

// New returns a Prober backed by gopsutil with exact matching.
func New() *Prober {
	return NewWith(ExactMatcher{}, listPids, readCmdline)
}

// NewWith builds a Prober with a custom matcher and enumeration functions.
// Tests inject fakes here.
func NewWith(m Matcher, pids func() ([]int32, error), cmdline func(int32) (string, error)) *Prober {
	return &Prober{match: m, pids: pids, cmdline: cmdline}
}

// Snapshot enumerates all OS pids. On enumeration failure it returns nil;
// callers treat that as "nothing visible" and recover on the next cycle.
func (p *Prober) Snapshot() []int32 {
	pids, err := p.pids()
	if err != nil {
		return nil
	}
	return pids
}

// Find scans every OS process for a command line matching expected.
// It returns the first match; identical command lines are not disambiguated.
func (p *Prober) Find(expected string) (int32, bool) {
	return p.FindIn(p.Snapshot(), expected)
}

// FindIn is Find over a previously taken pid snapshot, avoiding a second
// enumeration inside a poll iteration.
func (p *Prober) FindIn(pids []int32, expected string) (int32, bool) {
	for _, pid := range pids {
		line, err := p.cmdline(pid)
		if err != nil || line == "" {
			continue
		}
		if p.match.Match(line, expected) {
			return pid, true
		}
	}
	return 0, false
}

// AliveIn reports whether pid is present in a pid snapshot.
func AliveIn(pids []int32, pid int32) bool {
	for _, p := range pids {
		if p == pid {
			return true
		}
	}
	return false
}

func listPids() ([]int32, error) { return gopsproc.Pids() }

func readCmdline(pid int32) (string, error) {
	proc, err := gopsproc.NewProcess(pid)
	if err != nil {
		return "", err
	}
	return proc.Cmdline()
}

// MemoryRSS returns the resident set size of pid in bytes, or 0 when the
// process cannot be inspected.
func MemoryRSS(pid int32) uint64 {
	proc, err := gopsproc.NewProcess(pid)
	if err != nil {
		return 0
	}
	mi, err := proc.MemoryInfo()
	if err != nil || mi == nil {
		return 0
	}
	return mi.RSS
}

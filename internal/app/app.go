package app

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/quantkit/fleetwatch/internal/eventbridge"
	"github.com/quantkit/fleetwatch/internal/metrics"
	"github.com/quantkit/fleetwatch/internal/notify"
	"github.com/quantkit/fleetwatch/internal/probe"
	"github.com/quantkit/fleetwatch/internal/schedule"
)

// ManagedApp is one supervised application: its config, lifecycle state, OS
// process handle, schedule, and event bridge subscription. One mutex guards
// every mutable field; the poll loop and external callers contend on it.
type ManagedApp struct {
	mu        sync.Mutex
	cfg       Config
	state     State
	pid       int32 // 0 when no process is bound
	tickCount int
	memBytes  uint64
	starting  bool // a Start is in flight; duplicates are dropped
	outW      io.WriteCloser
	errW      io.WriteCloser
	bridge    eventbridge.Bridge
	bridgeURL string // bus URL the current bridge was opened against

	rt      Runtime
	prober  *probe.Prober
	sink    notify.Sink
	dial    eventbridge.Dialer
	now     func() time.Time
	onFired func(Config) // invoked after schedule stamps change, for persistence
	log     *slog.Logger
}

// Options carries the collaborators a ManagedApp needs. Zero fields get
// working defaults.
type Options struct {
	Runtime Runtime
	Prober  *probe.Prober
	Sink    notify.Sink
	Dial    eventbridge.Dialer
	Now     func() time.Time
	// OnScheduleFired is called (outside the app lock) with a config copy
	// whenever schedule stamps were updated, so the owner can persist them.
	OnScheduleFired func(Config)
	Logger          *slog.Logger
}

// New creates a ManagedApp from an applied config. The initial state is
// NotRunning, or NotExist when the executable is missing.
func New(cfg Config, opts Options) (*ManagedApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Runtime == nil {
		opts.Runtime = OSRuntime{}
	}
	if opts.Prober == nil {
		opts.Prober = probe.New()
	}
	if opts.Sink == nil {
		opts.Sink = notify.Nop{}
	}
	if opts.Dial == nil {
		opts.Dial = eventbridge.NopDialer
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	m := &ManagedApp{
		cfg:     cfg,
		state:   StateNotRunning,
		rt:      opts.Runtime,
		prober:  opts.Prober,
		sink:    opts.Sink,
		dial:    opts.Dial,
		now:     opts.Now,
		onFired: opts.OnScheduleFired,
		log:     opts.Logger.With("app", cfg.ID),
	}
	if !m.rt.Exists(cfg.ExecPath) {
		m.state = StateNotExist
	}
	return m, nil
}

// ID returns the app's identifier.
func (m *ManagedApp) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.ID
}

// State returns the current lifecycle state.
func (m *ManagedApp) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsRunning reports the short-circuit liveness view: Closing counts as
// running until resolved, Closed never does.
func (m *ManagedApp) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateRunning || m.state == StateClosing
}

// Snapshot is a point-in-time copy for reporting.
type Snapshot struct {
	Config      Config
	State       State
	PID         int32
	Running     bool
	MemoryBytes uint64
}

func (m *ManagedApp) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Config:      m.cfg,
		State:       m.state,
		PID:         m.pid,
		Running:     m.state == StateRunning || m.state == StateClosing,
		MemoryBytes: m.memBytes,
	}
}

// ApplyConfig hot-swaps the config while preserving lifecycle state. A
// missing executable forces NotExist; a previously NotExist app whose path
// reappeared becomes NotRunning. When the event bus URL changed, the old
// subscription is torn down and a new one established.
func (m *ManagedApp) ApplyConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old := m.cfg
	m.cfg = cfg
	if !m.rt.Exists(cfg.ExecPath) {
		m.clearProcessLocked()
		m.state = StateNotExist
		return nil
	}
	if m.state == StateNotExist {
		m.state = StateNotRunning
	}
	if old.PollIntervalTicks != cfg.PollIntervalTicks {
		m.tickCount = 0
	}
	if old.EventBusURL != cfg.EventBusURL {
		if m.bridge != nil {
			_ = m.bridge.Close()
			m.bridge = nil
			m.bridgeURL = ""
		}
		if m.state == StateRunning {
			m.ensureBridgeLocked()
		}
	}
	return nil
}

// Start spawns the app's process and transitions to Running. It is a no-op
// when the app is already Running or Closing, or when another Start is in
// flight. A spawn failure leaves the app NotRunning and returns the error.
func (m *ManagedApp) Start() error {
	m.mu.Lock()
	if m.state == StateNotExist {
		m.mu.Unlock()
		return fmt.Errorf("app %s: executable missing, config invalid", m.cfg.ID)
	}
	if m.state == StateRunning || m.state == StateClosing || m.starting {
		m.mu.Unlock()
		return nil
	}
	m.starting = true
	cfg := m.cfg
	m.mu.Unlock()

	pid, outW, errW, err := m.rt.Spawn(cfg)

	m.mu.Lock()
	m.starting = false
	if err != nil {
		m.state = StateNotRunning
		m.mu.Unlock()
		m.log.Error("spawn failed", "exec", cfg.ExecPath, "error", err)
		return fmt.Errorf("spawn %s: %w", cfg.ID, err)
	}
	m.pid = pid
	m.state = StateRunning
	m.memBytes = m.rt.MemoryRSS(pid)
	m.outW, m.errW = outW, errW
	m.ensureBridgeLocked()
	sink := m.sink
	id := m.cfg.ID
	m.mu.Unlock()

	m.log.Info("started", "pid", pid)
	sink.OnStart(id)
	return nil
}

// Stop force-kills the running process. The kill is not verified: on signal
// delivery the state becomes Closed immediately; a delivery failure leaves
// the app wedged in Closing until manually reconciled.
func (m *ManagedApp) Stop() error {
	m.mu.Lock()
	if m.state != StateRunning && m.state != StateClosing {
		m.mu.Unlock()
		return nil
	}
	m.state = StateClosing
	pid := m.pid
	m.mu.Unlock()

	if err := m.rt.Kill(pid); err != nil {
		m.log.Error("kill failed", "pid", pid, "error", err)
		return fmt.Errorf("kill %d: %w", pid, err)
	}

	m.mu.Lock()
	m.state = StateClosed
	m.clearProcessLocked()
	sink := m.sink
	id := m.cfg.ID
	m.mu.Unlock()

	m.log.Info("stopped", "pid", pid)
	sink.OnStop(id, false)
	return nil
}

// Restart stops the app if it is running, then starts it again.
func (m *ManagedApp) Restart() error {
	if m.IsRunning() {
		if err := m.Stop(); err != nil {
			return err
		}
	}
	return m.Start()
}

// Tick advances the poll counter and, when it reaches the configured
// interval, re-evaluates liveness against the pid snapshot and applies
// guard/schedule policy. pids is the full OS pid enumeration taken once per
// supervisor iteration.
func (m *ManagedApp) Tick(pids []int32) {
	m.mu.Lock()
	if m.state == StateNotExist {
		m.mu.Unlock()
		return
	}
	m.tickCount++
	if m.tickCount < m.cfg.PollIntervalTicks {
		m.mu.Unlock()
		return
	}
	m.tickCount = 0

	running := m.refreshLocked(pids)

	crashed := false
	if !running && m.state == StateRunning {
		m.state = StateNotRunning
		m.clearProcessLocked()
		crashed = true
	}

	guardStart := false
	var actions []schedule.Action
	var firedCfg *Config
	if m.state == StateNotRunning && m.cfg.Guard {
		guardStart = !m.starting
	} else if m.cfg.ScheduleActive {
		plan := m.cfg.Plan()
		elig := schedule.Eligibility{
			CanStart: m.state != StateRunning, // NotExist is unreachable here
			CanStop:  m.state == StateRunning,
		}
		fired := plan.Step(m.now(), elig, func(a schedule.Action) {
			actions = append(actions, a)
		})
		if fired > 0 {
			m.cfg.Tasks = plan.Tasks
			c := m.cfg
			firedCfg = &c
		}
	}
	sink := m.sink
	id := m.cfg.ID
	m.mu.Unlock()

	if crashed {
		m.log.Warn("process lost, marking not running")
		sink.OnStop(id, true)
	}
	if guardStart {
		metrics.IncGuardRestart(id)
		// Fire-and-forget so one slow spawn cannot stall the poll loop.
		go func() { _ = m.Start() }()
	}
	for _, a := range actions {
		metrics.IncScheduleFire(id, a.String())
		var err error
		switch a {
		case schedule.ActionStart:
			err = m.Start()
		case schedule.ActionStop:
			err = m.Stop()
		case schedule.ActionRestart:
			err = m.Restart()
		}
		if err != nil {
			m.log.Error("scheduled action failed", "action", a.String(), "error", err)
		}
	}
	if firedCfg != nil && m.onFired != nil {
		m.onFired(*firedCfg)
	}
}

// refreshLocked resolves liveness. Closing short-circuits true until
// explicitly resolved, Closed short-circuits false. Otherwise the cached pid
// is trusted while it is still visible in the snapshot; when it is gone the
// probe rescans by command line and, on a match, rebinds pid, refreshes
// memory usage, and re-establishes the event bridge.
func (m *ManagedApp) refreshLocked(pids []int32) bool {
	switch m.state {
	case StateClosing:
		return true
	case StateClosed:
		return false
	}
	if m.pid != 0 && probe.AliveIn(pids, m.pid) {
		m.memBytes = m.rt.MemoryRSS(m.pid)
		return true
	}
	pid, ok := m.prober.FindIn(pids, m.cfg.CommandLine())
	if !ok {
		return false
	}
	m.pid = pid
	m.state = StateRunning
	m.memBytes = m.rt.MemoryRSS(pid)
	m.ensureBridgeLocked()
	return true
}

// ensureBridgeLocked opens the event bus subscription when a URL is
// configured and no bridge (or a stale one) is attached. Dial failures are
// logged and retried on the next bind.
func (m *ManagedApp) ensureBridgeLocked() {
	url := m.cfg.EventBusURL
	if url == "" {
		if m.bridge != nil {
			_ = m.bridge.Close()
			m.bridge = nil
			m.bridgeURL = ""
		}
		return
	}
	if m.bridge != nil && m.bridgeURL == url {
		return
	}
	if m.bridge != nil {
		_ = m.bridge.Close()
		m.bridge = nil
		m.bridgeURL = ""
	}
	b, err := m.dial(url, m.cfg.ID, m.sink)
	if err != nil {
		m.log.Warn("event bridge unavailable", "url", url, "error", err)
		return
	}
	m.bridge = b
	m.bridgeURL = url
}

// clearProcessLocked drops the process binding: pid, memory, output writers,
// and the event bridge. State is the caller's business.
func (m *ManagedApp) clearProcessLocked() {
	m.pid = 0
	m.memBytes = 0
	if m.outW != nil {
		_ = m.outW.Close()
		m.outW = nil
	}
	if m.errW != nil {
		_ = m.errW.Close()
		m.errW = nil
	}
	if m.bridge != nil {
		_ = m.bridge.Close()
		m.bridge = nil
		m.bridgeURL = ""
	}
}

// Detach releases supervisor-side resources (event bridge, output writers)
// without touching the OS process or the lifecycle state. Used at shutdown:
// supervised apps outlive the supervisor and are re-bound by the probe.
func (m *ManagedApp) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outW != nil {
		_ = m.outW.Close()
		m.outW = nil
	}
	if m.errW != nil {
		_ = m.errW.Close()
		m.errW = nil
	}
	if m.bridge != nil {
		_ = m.bridge.Close()
		m.bridge = nil
		m.bridgeURL = ""
	}
}

// CloseIfNotRunning atomically verifies the app is not Running and tears
// down its resources. It returns false while Running or Closing so delete
// stays a silent no-op, and also while a Start is in flight: the spawn
// happens outside the lock, so the starting flag is what keeps a
// mid-spawn app from being torn down and then going Running after its
// removal.
func (m *ManagedApp) CloseIfNotRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateRunning || m.state == StateClosing || m.starting {
		return false
	}
	m.clearProcessLocked()
	return true
}

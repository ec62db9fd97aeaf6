package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/quantkit/fleetwatch/internal/app"
	"github.com/quantkit/fleetwatch/internal/eventbridge"
	"github.com/quantkit/fleetwatch/internal/metrics"
	"github.com/quantkit/fleetwatch/internal/notify"
	"github.com/quantkit/fleetwatch/internal/probe"
	"github.com/quantkit/fleetwatch/internal/store"
)

// DefaultPollPeriod is the poll loop interval: one tick per second.
const DefaultPollPeriod = time.Second

// Supervisor owns the registry of managed apps and runs the single
// background poll loop that advances every app's tick counter. External
// callers mutate the registry through its CRUD-like operations; the
// registry lock is coarse since adds and deletes are rare next to ticks.
type Supervisor struct {
	mu   sync.RWMutex
	apps map[string]*app.ManagedApp

	st     store.Store
	prober *probe.Prober
	sink   notify.Sink
	dial   eventbridge.Dialer
	rt     app.Runtime
	now    func() time.Time
	period time.Duration
	log    *slog.Logger

	pollStop chan struct{}
	pollDone chan struct{}
}

// Options wires the supervisor's collaborators. Zero fields get defaults;
// Store defaults to the in-memory store.
type Options struct {
	Store      store.Store
	Prober     *probe.Prober
	Sink       notify.Sink
	Dial       eventbridge.Dialer
	Runtime    app.Runtime
	Now        func() time.Time
	PollPeriod time.Duration
	Logger     *slog.Logger
}

func New(opts Options) *Supervisor {
	if opts.Store == nil {
		opts.Store = store.NewMemory()
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
	if opts.Runtime == nil {
		opts.Runtime = app.OSRuntime{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PollPeriod <= 0 {
		opts.PollPeriod = DefaultPollPeriod
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Supervisor{
		apps:   make(map[string]*app.ManagedApp),
		st:     opts.Store,
		prober: opts.Prober,
		sink:   notify.Multi(opts.Sink, metricsSink{}),
		dial:   opts.Dial,
		rt:     opts.Runtime,
		now:    opts.Now,
		period: opts.PollPeriod,
		log:    opts.Logger,
	}
}

// Apply creates a new managed app from cfg or hot-updates an existing one,
// then persists the config. isGroup tags the config as a strategy bundle;
// supervision is identical either way.
func (s *Supervisor) Apply(cfg app.Config, isGroup bool) error {
	if isGroup {
		cfg.Kind = app.KindGroup
	} else {
		cfg.Kind = app.KindApp
	}
	s.mu.Lock()
	existing := s.apps[cfg.ID]
	var err error
	if existing != nil {
		err = existing.ApplyConfig(cfg)
	} else {
		var a *app.ManagedApp
		a, err = app.New(cfg, app.Options{
			Runtime:         s.rt,
			Prober:          s.prober,
			Sink:            s.sink,
			Dial:            s.dial,
			Now:             s.now,
			OnScheduleFired: s.persistConfig,
			Logger:          s.log,
		})
		if err == nil {
			s.apps[cfg.ID] = a
		}
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.persist(cfg)
}

// Start starts the app's process. Unknown ids are a no-op.
func (s *Supervisor) Start(id string) error {
	if a := s.get(id); a != nil {
		return a.Start()
	}
	return nil
}

// Stop force-stops the app. Unknown ids are a no-op.
func (s *Supervisor) Stop(id string) error {
	if a := s.get(id); a != nil {
		return a.Stop()
	}
	return nil
}

// Restart stops the app if running, then starts it. Unknown ids are a no-op.
func (s *Supervisor) Restart(id string) error {
	if a := s.get(id); a != nil {
		return a.Restart()
	}
	return nil
}

// Delete removes the app from the registry and the persisted store. It is a
// silent no-op while the app is Running: callers must stop first. The app's
// own lock spans the not-running check and teardown, so a concurrent Start
// cannot slip between check and removal.
func (s *Supervisor) Delete(id string) error {
	s.mu.Lock()
	a := s.apps[id]
	if a == nil {
		s.mu.Unlock()
		return nil
	}
	if !a.CloseIfNotRunning() {
		s.mu.Unlock()
		s.log.Warn("delete refused, app is running", "app", id)
		return nil
	}
	delete(s.apps, id)
	s.mu.Unlock()
	if err := s.st.Delete(context.Background(), id); err != nil {
		return fmt.Errorf("delete config %s: %w", id, err)
	}
	return nil
}

// Info is the reporting view of one managed app.
type Info struct {
	Config      app.Config `json:"config"`
	State       string     `json:"state"`
	Running     bool       `json:"running"`
	PID         int32      `json:"pid"`
	MemoryBytes uint64     `json:"memory_bytes"`
}

// GetAll returns a snapshot of every managed app keyed by id.
func (s *Supervisor) GetAll() map[string]Info {
	out := make(map[string]Info)
	for _, a := range s.list() {
		snap := a.Snapshot()
		out[snap.Config.ID] = Info{
			Config:      snap.Config,
			State:       snap.State.String(),
			Running:     snap.Running,
			PID:         snap.PID,
			MemoryBytes: snap.MemoryBytes,
		}
	}
	return out
}

// Run loads persisted configs, re-applies them, and starts the background
// poll loop. It is idempotent: a second call while running is a no-op.
// A load failure is a startup error surfaced to the caller, not swallowed.
func (s *Supervisor) Run() error {
	s.mu.Lock()
	if s.pollStop != nil {
		s.mu.Unlock()
		return nil
	}
	s.pollStop = make(chan struct{})
	s.pollDone = make(chan struct{})
	stop, done := s.pollStop, s.pollDone
	s.mu.Unlock()

	if err := s.loadPersisted(); err != nil {
		s.mu.Lock()
		s.pollStop = nil
		s.pollDone = nil
		s.mu.Unlock()
		return err
	}

	go s.loop(stop, done)
	return nil
}

// Shutdown stops the poll loop and tears down every app's bridge and
// writers without touching the OS processes: supervised apps outlive the
// supervisor and are re-bound by the probe on the next start.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	stop, done := s.pollStop, s.pollDone
	s.pollStop = nil
	s.pollDone = nil
	s.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}
	for _, a := range s.list() {
		a.Detach()
	}
}

func (s *Supervisor) loop(stop, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(s.period)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			s.pollOnce()
		}
	}
}

// pollOnce runs one iteration: a single pid enumeration, then a tick for
// every registered app. A panic while ticking one app must not starve the
// rest of the iteration.
func (s *Supervisor) pollOnce() {
	pids := s.prober.Snapshot()
	running := 0
	for _, a := range s.list() {
		s.tickOne(a, pids)
		snap := a.Snapshot()
		if snap.State == app.StateRunning {
			running++
		}
		metrics.SetAppMemory(snap.Config.ID, snap.MemoryBytes)
	}
	metrics.SetRunningApps(running)
}

func (s *Supervisor) tickOne(a *app.ManagedApp, pids []int32) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncTickFailure()
			s.log.Error("tick panicked", "app", a.ID(), "panic", r)
		}
	}()
	a.Tick(pids)
}

// loadPersisted re-applies every stored config. Apps whose processes are
// still alive from a previous supervisor run are re-bound by the probe on
// their first tick.
func (s *Supervisor) loadPersisted() error {
	recs, err := s.st.All(context.Background())
	if err != nil {
		return fmt.Errorf("load persisted configs: %w", err)
	}
	for _, rec := range recs {
		cfg, err := store.Decode(rec)
		if err != nil {
			s.log.Error("skipping bad persisted config", "app", rec.ID, "error", err)
			continue
		}
		if err := s.Apply(cfg, cfg.Kind == app.KindGroup); err != nil {
			s.log.Error("skipping persisted config", "app", cfg.ID, "error", err)
		}
	}
	return nil
}

func (s *Supervisor) persist(cfg app.Config) error {
	rec, err := store.Encode(cfg)
	if err != nil {
		return err
	}
	if err := s.st.Save(context.Background(), rec); err != nil {
		return fmt.Errorf("persist config %s: %w", cfg.ID, err)
	}
	return nil
}

// persistConfig is the schedule-fire callback: stamps changed, write them
// through so a supervisor restart cannot double-fire within the minute.
func (s *Supervisor) persistConfig(cfg app.Config) {
	if err := s.persist(cfg); err != nil {
		s.log.Error("persisting schedule stamps failed", "app", cfg.ID, "error", err)
	}
}

func (s *Supervisor) get(id string) *app.ManagedApp {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apps[id]
}

func (s *Supervisor) list() []*app.ManagedApp {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.ManagedApp, 0, len(s.apps))
	for _, a := range s.apps {
		out = append(out, a)
	}
	return out
}

// metricsSink mirrors lifecycle notifications into Prometheus counters.
type metricsSink struct {
	notify.Nop
}

func (metricsSink) OnStart(id string) { metrics.IncStart(id) }

func (metricsSink) OnStop(id string, isError bool) {
	if isError {
		metrics.IncCrash(id)
		return
	}
	metrics.IncStop(id)
}

package fleetwatch

import (
	"github.com/quantkit/fleetwatch/internal/app"
	"github.com/quantkit/fleetwatch/internal/eventbridge"
	"github.com/quantkit/fleetwatch/internal/notify"
	"github.com/quantkit/fleetwatch/internal/schedule"
	"github.com/quantkit/fleetwatch/internal/store"
	"github.com/quantkit/fleetwatch/internal/store/factory"
	"github.com/quantkit/fleetwatch/internal/supervisor"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type AppConfig = app.Config

type AppState = app.State

type ScheduleTask = schedule.Task

type ScheduleAction = schedule.Action

const (
	ActionStart   = schedule.ActionStart
	ActionStop    = schedule.ActionStop
	ActionRestart = schedule.ActionRestart
)

type Sink = notify.Sink

type StoreConfig = store.Config

type Info = supervisor.Info

// Supervisor is a thin facade over internal/supervisor.Supervisor.
// It provides a stable public API for embedding.
type Supervisor struct{ inner *supervisor.Supervisor }

// Options configures an embedded supervisor.
type Options struct {
	// Store selects config persistence; zero value means in-memory.
	Store StoreConfig
	// Sink receives operator notifications; nil discards them.
	Sink Sink
	// EventBus enables per-app Redis event bridge subscriptions.
	EventBus bool
}

func New(opts Options) (*Supervisor, error) {
	st, err := factory.New(opts.Store)
	if err != nil {
		return nil, err
	}
	sopts := supervisor.Options{Store: st, Sink: opts.Sink}
	if opts.EventBus {
		sopts.Dial = eventbridge.RedisDialer
	}
	return &Supervisor{inner: supervisor.New(sopts)}, nil
}

func (s *Supervisor) Apply(cfg AppConfig, isGroup bool) error { return s.inner.Apply(cfg, isGroup) }
func (s *Supervisor) Start(id string) error                   { return s.inner.Start(id) }
func (s *Supervisor) Stop(id string) error                    { return s.inner.Stop(id) }
func (s *Supervisor) Restart(id string) error                 { return s.inner.Restart(id) }
func (s *Supervisor) Delete(id string) error                  { return s.inner.Delete(id) }
func (s *Supervisor) GetAll() map[string]Info                 { return s.inner.GetAll() }
func (s *Supervisor) Run() error                              { return s.inner.Run() }
func (s *Supervisor) Shutdown()                               { s.inner.Shutdown() }

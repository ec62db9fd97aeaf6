package notify

import "time"

// Sink receives runtime telemetry pushed out by the supervisor: lifecycle
// transitions of managed apps plus order/trade/notify/log/timeout events
// relayed from each app's event bus subscription. Implementations must be
// safe for concurrent use; callers never block on a sink error.
type Sink interface {
	// OnStart fires after an app's process has been spawned.
	OnStart(appID string)
	// OnStop fires when an app stops. isError is true for crash detections
	// (the probe lost a process that was believed Running) and spawn failures.
	OnStop(appID string, isError bool)
	// OnOutput relays a log line from the app's event bus.
	OnOutput(appID, tag string, ts time.Time, message string)
	// OnOrder relays an order event from the given bus channel.
	OnOrder(appID, channel string, orderInfo []byte)
	// OnTrade relays a trade event from the given bus channel.
	OnTrade(appID, channel string, tradeInfo []byte)
	// OnNotify relays a free-form notification from the given bus channel.
	OnNotify(appID, channel string, message string)
	// OnTimeout fires when the app reports an engine timeout.
	OnTimeout(appID string)
}

// Nop discards all events.
type Nop struct{}

func (Nop) OnStart(string)                               {}
func (Nop) OnStop(string, bool)                          {}
func (Nop) OnOutput(string, string, time.Time, string)   {}
func (Nop) OnOrder(string, string, []byte)               {}
func (Nop) OnTrade(string, string, []byte)               {}
func (Nop) OnNotify(string, string, string)              {}
func (Nop) OnTimeout(string)                             {}

// Multi fans every event out to all wrapped sinks in order.
func Multi(sinks ...Sink) Sink { return multi(sinks) }

type multi []Sink

func (m multi) OnStart(id string) {
	for _, s := range m {
		s.OnStart(id)
	}
}

func (m multi) OnStop(id string, isError bool) {
	for _, s := range m {
		s.OnStop(id, isError)
	}
}

func (m multi) OnOutput(id, tag string, ts time.Time, msg string) {
	for _, s := range m {
		s.OnOutput(id, tag, ts, msg)
	}
}

func (m multi) OnOrder(id, ch string, info []byte) {
	for _, s := range m {
		s.OnOrder(id, ch, info)
	}
}

func (m multi) OnTrade(id, ch string, info []byte) {
	for _, s := range m {
		s.OnTrade(id, ch, info)
	}
}

func (m multi) OnNotify(id, ch, msg string) {
	for _, s := range m {
		s.OnNotify(id, ch, msg)
	}
}

func (m multi) OnTimeout(id string) {
	for _, s := range m {
		s.OnTimeout(id)
	}
}

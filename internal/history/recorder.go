package history

import (
	"context"
	"time"

	"github.com/quantkit/fleetwatch/internal/notify"
)

// Recorder adapts history sinks into a notify.Sink so lifecycle transitions
// flow into analytics without the supervisor knowing about sinks. Bus relay
// events (orders, trades, output) are not recorded here.
type Recorder struct {
	notify.Nop
	sinks []Sink
}

func NewRecorder(sinks ...Sink) *Recorder {
	return &Recorder{sinks: sinks}
}

func (r *Recorder) OnStart(appID string) {
	r.send(Event{Type: EventStart, OccurredAt: time.Now().UTC(), AppID: appID})
}

func (r *Recorder) OnStop(appID string, isError bool) {
	t := EventStop
	if isError {
		t = EventCrash
	}
	r.send(Event{Type: t, OccurredAt: time.Now().UTC(), AppID: appID})
}

func (r *Recorder) send(e Event) {
	for _, s := range r.sinks {
		_ = s.Send(context.Background(), e)
	}
}

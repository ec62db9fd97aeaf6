package notify

import (
	"testing"
	"time"
)

type tally struct {
	Nop
	events []string
}

func (c *tally) OnStart(id string)                            { c.events = append(c.events, "start:"+id) }
func (c *tally) OnStop(id string, isError bool)               { c.events = append(c.events, "stop:"+id) }
func (c *tally) OnNotify(id, ch, msg string)                  { c.events = append(c.events, "notify:"+msg) }
func (c *tally) OnOutput(id, tag string, _ time.Time, m string) { c.events = append(c.events, "out:"+m) }

func TestMultiFansOutInOrder(t *testing.T) {
	a, b := &tally{}, &tally{}
	m := Multi(a, b)

	m.OnStart("alpha")
	m.OnStop("alpha", true)
	m.OnNotify("alpha", "ops", "hello")
	m.OnOutput("alpha", "INFO", time.Now(), "line")
	m.OnTimeout("alpha")

	want := []string{"start:alpha", "stop:alpha", "notify:hello", "out:line"}
	for _, c := range []*tally{a, b} {
		if len(c.events) != len(want) {
			t.Fatalf("got %v, want %v", c.events, want)
		}
		for i := range want {
			if c.events[i] != want[i] {
				t.Fatalf("event %d = %q, want %q", i, c.events[i], want[i])
			}
		}
	}
}

func TestNopImplementsSink(t *testing.T) {
	var s Sink = Nop{}
	s.OnStart("x")
	s.OnStop("x", false)
	s.OnTimeout("x")
}

package notify

import (
	"log/slog"
	"time"
)

// Slog writes every event to a structured logger. This is the default
// operator sink when nothing else is configured.
type Slog struct {
	L *slog.Logger
}

func NewSlog(l *slog.Logger) *Slog {
	if l == nil {
		l = slog.Default()
	}
	return &Slog{L: l}
}

func (s *Slog) OnStart(id string) {
	s.L.Info("app started", "app", id)
}

func (s *Slog) OnStop(id string, isError bool) {
	if isError {
		s.L.Error("app stopped unexpectedly", "app", id)
		return
	}
	s.L.Info("app stopped", "app", id)
}

func (s *Slog) OnOutput(id, tag string, ts time.Time, msg string) {
	s.L.Info("app output", "app", id, "tag", tag, "at", ts, "msg", msg)
}

func (s *Slog) OnOrder(id, ch string, info []byte) {
	s.L.Info("order event", "app", id, "channel", ch, "order", string(info))
}

func (s *Slog) OnTrade(id, ch string, info []byte) {
	s.L.Info("trade event", "app", id, "channel", ch, "trade", string(info))
}

func (s *Slog) OnNotify(id, ch, msg string) {
	s.L.Info("notify event", "app", id, "channel", ch, "msg", msg)
}

func (s *Slog) OnTimeout(id string) {
	s.L.Warn("engine timeout", "app", id)
}

package eventbridge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/quantkit/fleetwatch/internal/notify"
)

// Topics carried by an app's event bus. Each topic is one pub/sub channel
// namespaced by app ID: "<appID>.<topic>".
const (
	TopicOrder   = "order"
	TopicTrade   = "trade"
	TopicNotify  = "notify"
	TopicLog     = "log"
	TopicTimeout = "timeout"
)

var topics = []string{TopicOrder, TopicTrade, TopicNotify, TopicLog, TopicTimeout}

// Bridge is an open per-app bus subscription. Close tears it down; it is
// safe to call Close more than once.
type Bridge interface {
	Close() error
}

// Dialer opens a bridge for appID against busURL, republishing decoded
// events into sink. ManagedApp consumes this type so transports stay
// pluggable (tests use an in-memory dialer).
type Dialer func(busURL, appID string, sink notify.Sink) (Bridge, error)

type envelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type logEvent struct {
	Tag       string `json:"tag"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
	Message   string `json:"message"`
}

// Dispatch decodes one bus payload for the given topic and forwards it to
// the sink tagged with the originating app ID. Unknown topics and malformed
// payloads yield an error; the caller drops them without closing the bridge.
func Dispatch(sink notify.Sink, appID, topic string, payload []byte) error {
	switch topic {
	case TopicOrder:
		var e envelope
		if err := json.Unmarshal(payload, &e); err != nil {
			return fmt.Errorf("decode order event: %w", err)
		}
		sink.OnOrder(appID, e.Channel, e.Data)
	case TopicTrade:
		var e envelope
		if err := json.Unmarshal(payload, &e); err != nil {
			return fmt.Errorf("decode trade event: %w", err)
		}
		sink.OnTrade(appID, e.Channel, e.Data)
	case TopicNotify:
		var e envelope
		if err := json.Unmarshal(payload, &e); err != nil {
			return fmt.Errorf("decode notify event: %w", err)
		}
		sink.OnNotify(appID, e.Channel, e.Message)
	case TopicLog:
		var e logEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return fmt.Errorf("decode log event: %w", err)
		}
		sink.OnOutput(appID, e.Tag, time.UnixMilli(e.Timestamp), e.Message)
	case TopicTimeout:
		sink.OnTimeout(appID)
	default:
		return fmt.Errorf("unknown bus topic: %s", topic)
	}
	return nil
}

// channelNames returns the namespaced pub/sub channels for appID.
func channelNames(appID string) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		out = append(out, appID+"."+t)
	}
	return out
}

// topicOf extracts the trailing topic from a namespaced channel name.
func topicOf(appID, channel string) string {
	prefix := appID + "."
	if len(channel) > len(prefix) && channel[:len(prefix)] == prefix {
		return channel[len(prefix):]
	}
	return channel
}

// nopBridge satisfies Bridge for dialers that decline to connect.
type nopBridge struct{}

func (nopBridge) Close() error { return nil }

// NopDialer never connects; used when no bus is configured.
func NopDialer(string, string, notify.Sink) (Bridge, error) { return nopBridge{}, nil }

package eventbridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/quantkit/fleetwatch/internal/notify"
)

// redisBridge subscribes to the app's five event topics on a Redis pub/sub
// bus and republishes decoded payloads into the notification sink.
type redisBridge struct {
	client *redis.Client
	ps     *redis.PubSub
	cancel context.CancelFunc

	closeOnce sync.Once
	done      chan struct{}
}

// RedisDialer opens a Redis-backed bridge. busURL must be parseable by
// redis.ParseURL (e.g. redis://host:6379/0).
func RedisDialer(busURL, appID string, sink notify.Sink) (Bridge, error) {
	opts, err := redis.ParseURL(busURL)
	if err != nil {
		return nil, fmt.Errorf("parse event bus url: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithCancel(context.Background())
	ps := client.Subscribe(ctx, channelNames(appID)...)
	// Force the subscription onto the wire before we report success.
	if _, err := ps.Receive(ctx); err != nil {
		cancel()
		_ = ps.Close()
		_ = client.Close()
		return nil, fmt.Errorf("subscribe event bus: %w", err)
	}
	b := &redisBridge{client: client, ps: ps, cancel: cancel, done: make(chan struct{})}
	go b.pump(ctx, appID, sink)
	return b, nil
}

func (b *redisBridge) pump(ctx context.Context, appID string, sink notify.Sink) {
	defer close(b.done)
	ch := b.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			topic := topicOf(appID, msg.Channel)
			if err := Dispatch(sink, appID, topic, []byte(msg.Payload)); err != nil {
				slog.Debug("dropping bus event", "app", appID, "topic", topic, "error", err)
			}
		}
	}
}

func (b *redisBridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.cancel()
		err = b.ps.Close()
		if cerr := b.client.Close(); err == nil {
			err = cerr
		}
		<-b.done
	})
	return err
}

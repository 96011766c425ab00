package listener

import (
	"context"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Abdulelahsg/dynamic-links/internal/engine"
	"github.com/Abdulelahsg/dynamic-links/internal/observability"
	"github.com/Abdulelahsg/dynamic-links/internal/storage"
)

// debounce is the quiet period after the last change event before the
// snapshot is rebuilt. A burst longer than maxWaitFactor*debounce still
// rebuilds once per that interval.
const (
	debounce      = 200 * time.Millisecond
	maxWaitFactor = 10
)

// ListenAndRefresh rebuilds the route snapshot whenever Postgres NOTIFYs channel.
func ListenAndRefresh(ctx context.Context, st *storage.Store, eng *engine.Engine, channel string, baseBackoff time.Duration) {
	conn, err := st.PgxPool().Acquire(ctx)
	if err != nil {
		log.Error().Err(err).Msg("acquire conn for listen")
		return
	}
	defer conn.Release()

	if channel == "" {
		channel = st.ListenChannel()
	}
	if _, err = conn.Exec(ctx, "LISTEN "+channel); err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("listen")
		return
	}
	log.Info().Str("channel", channel).Msg("listening for route changes")

	notes := make(chan *pgconn.Notification)
	go func() {
		defer close(notes)
		for {
			ntf, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				backoff := jitter(baseBackoff)
				log.Error().Err(err).Dur("retry_in", backoff).Msg("notify wait error")
				sleep(ctx, backoff)
				continue
			}
			select {
			case notes <- ntf:
			case <-ctx.Done():
				return
			}
		}
	}()

	coalesce(ctx, notes, debounce, func(ntf *pgconn.Notification) {
		log.Info().Str("channel", ntf.Channel).Msg("route change; refreshing snapshot")
		refresh(ctx, eng, st)
	})
	for range notes {
		// conn must not be released while WaitForNotification is still using it
	}
	log.Info().Msg("listener stopped")
}

// SubscribeAndRefresh rebuilds the route snapshot after messages published to
// channel, for routes kept in Redis. It returns when ctx is done or the
// subscription is closed.
func SubscribeAndRefresh(ctx context.Context, rdb *redis.Client, src engine.RouteSource, eng *engine.Engine, channel string) {
	sub := rdb.Subscribe(ctx, channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("subscribe")
		return
	}
	log.Info().Str("channel", channel).Msg("subscribed to route changes")

	coalesce(ctx, sub.Channel(), debounce, func(msg *redis.Message) {
		log.Info().Str("channel", msg.Channel).Msg("route change; refreshing snapshot")
		refresh(ctx, eng, src)
	})
	if ctx.Err() != nil {
		log.Info().Msg("subscriber stopped")
		return
	}
	log.Warn().Str("channel", channel).Msg("subscription closed")
}

// coalesce runs rebuild with the latest event once events has been quiet for
// window. Continuous events still trigger a rebuild every maxWaitFactor*window.
// It returns when ctx is done, or when events is closed after flushing a
// pending rebuild.
func coalesce[T any](ctx context.Context, events <-chan T, window time.Duration, rebuild func(T)) {
	timer := time.NewTimer(window)
	stopTimer(timer)

	var (
		pending bool
		first   time.Time
		last    T
	)
	for {
		select {
		case <-ctx.Done():
			stopTimer(timer)
			return

		case ev, ok := <-events:
			if !ok {
				stopTimer(timer)
				if pending {
					rebuild(last)
				}
				return
			}
			last = ev
			if !pending {
				pending = true
				first = time.Now()
			}
			wait := window
			if left := maxWaitFactor*window - time.Since(first); left < wait {
				wait = max(left, 0)
			}
			stopTimer(timer)
			timer.Reset(wait)

		case <-timer.C:
			pending = false
			rebuild(last)
		}
	}
}

// stopTimer stops t and drains a tick that fired but was not received.
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

// refresh keeps serving the previous snapshot when the rebuild fails.
func refresh(ctx context.Context, eng *engine.Engine, src engine.RouteSource) {
	if err := eng.BuildSnapshot(ctx, src); err != nil {
		observability.SnapshotRefreshes.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("refresh snapshot error")
		return
	}
	observability.SnapshotRefreshes.WithLabelValues("ok").Inc()
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func jitter(base time.Duration) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	factor := 0.5 + rand.Float64() // 0.5x-1.5x
	return time.Duration(float64(base) * factor)
}

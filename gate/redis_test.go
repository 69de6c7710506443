package gate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisWindow(t *testing.T, quota int, window time.Duration) (*RedisWindow, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisWindow(client, quota, window), srv
}

func TestRedisWindow_QuotaExhaustion(t *testing.T) {
	w, _ := newTestRedisWindow(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if d := w.Allow(ctx, "client-a"); !d.Allowed {
			t.Fatalf("request %d rejected within quota", i+1)
		}
	}

	d := w.Allow(ctx, "client-a")
	if d.Allowed {
		t.Fatal("request over quota admitted")
	}
	if d.RetryAfter != time.Minute {
		t.Errorf("RetryAfter = %v, want the window length", d.RetryAfter)
	}

	// A different identity still has its full quota.
	if d := w.Allow(ctx, "client-b"); !d.Allowed {
		t.Error("other identity rejected")
	}
}

func TestRedisWindow_ConcurrentAdmissionsStayWithinQuota(t *testing.T) {
	const quota = 5
	w, _ := newTestRedisWindow(t, quota, time.Minute)

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if w.Allow(context.Background(), "client-a").Allowed {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := admitted.Load(); got != quota {
		t.Errorf("admitted %d of 20 concurrent requests, want exactly %d", got, quota)
	}
}

func TestRedisWindow_SlidesForward(t *testing.T) {
	w, _ := newTestRedisWindow(t, 1, 100*time.Millisecond)
	ctx := context.Background()

	if d := w.Allow(ctx, "client-a"); !d.Allowed {
		t.Fatal("first request rejected")
	}
	if d := w.Allow(ctx, "client-a"); d.Allowed {
		t.Fatal("second request admitted inside the window")
	}

	time.Sleep(150 * time.Millisecond)

	if d := w.Allow(ctx, "client-a"); !d.Allowed {
		t.Error("request rejected after the window slid past the first entry")
	}
}

func TestRedisWindow_FailsOpen(t *testing.T) {
	w, srv := newTestRedisWindow(t, 1, time.Minute)
	srv.Close()

	if d := w.Allow(context.Background(), "client-a"); !d.Allowed {
		t.Error("expected admission when redis is unreachable")
	}
}
